package config

// SearchConfig tunes the segment shortest-path search.
type SearchConfig struct {
	// MaxBreadth caps the number of one-hop subnet expansions before a
	// segment search gives up.
	MaxBreadth int `yaml:"maxBreadth" validate:"gte=0"`
	// WeightColumn is the link column used for shortest-path weights. It is
	// the expansion-iteration tag by default, so links matching the initial
	// facility filter cost less than detours.
	WeightColumn string `yaml:"weightColumn"`
	// WeightFactor multiplies the weight column value; each non-matching hop
	// costs substantially more than a matching one.
	WeightFactor float64 `yaml:"weightFactor" validate:"gte=0"`
}

// EditConfig tunes property-change application.
type EditConfig struct {
	// ExistingValueConflictError turns the existing-value precondition
	// mismatch from a warning into a hard failure.
	ExistingValueConflictError bool `yaml:"existingValueConflictError"`
}

// Config is the root of the engine tunables.
type Config struct {
	Search SearchConfig `yaml:"search"`
	Edits  EditConfig   `yaml:"edits"`
	// Modes maps a travel mode to the boolean link columns that grant it
	// access. A link serves a mode when any of the columns is truthy.
	Modes map[string][]string `yaml:"modes"`
}

// Default returns the engine defaults used when no config file is present.
func Default() Config {
	return Config{
		Search: SearchConfig{
			MaxBreadth:   10,
			WeightColumn: "i",
			WeightFactor: 100,
		},
		Modes: map[string][]string{
			"drive":   {"drive_access"},
			"walk":    {"walk_access"},
			"bike":    {"bike_access"},
			"bus":     {"bus_only", "drive_access"},
			"rail":    {"rail_only"},
			"transit": {"bus_only", "rail_only", "drive_access"},
		},
	}
}

// DefaultSearchModes are the modes assumed when a selection names none.
var DefaultSearchModes = []string{"drive"}
