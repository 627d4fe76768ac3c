package config

import (
	"os"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Load reads engine tunables from the first readable path, falling back to
// Default() when none exists. Values absent from the file keep their
// defaults.
func Load(paths ...string) (Config, error) {
	if len(paths) == 0 {
		paths = []string{"wrangler.yml", "./config/wrangler.yml"}
	}
	cfg := Default()

	var data []byte
	var err error
	for _, p := range paths {
		data, err = os.ReadFile(p)
		if err == nil {
			break
		}
	}
	if err != nil {
		return cfg, nil
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, err
	}
	v := validator.New()
	if err := v.Struct(cfg.Search); err != nil {
		return cfg, err
	}
	if cfg.Search.MaxBreadth == 0 {
		cfg.Search.MaxBreadth = Default().Search.MaxBreadth
	}
	if cfg.Search.WeightColumn == "" {
		cfg.Search.WeightColumn = Default().Search.WeightColumn
	}
	if cfg.Search.WeightFactor == 0 {
		cfg.Search.WeightFactor = Default().Search.WeightFactor
	}
	if len(cfg.Modes) == 0 {
		cfg.Modes = Default().Modes
	}
	return cfg, nil
}
