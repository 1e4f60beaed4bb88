// Package config provides the run configuration for sitecorpus: built-in
// defaults, the optional .sitecorpus YAML file with per-site overrides,
// and validation.
package config
