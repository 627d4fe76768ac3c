// Package config holds the engine tunables: segment-search breadth and
// weighting, edit strictness, and the mode-to-access-column map.
//
// Tunables load from wrangler.yml and are validated with struct tags; every
// field has a sensible default so a config file is optional.
package config
