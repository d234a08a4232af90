// Package config loads runtime settings from the environment and the access
// policy (role ranks, per-resource access options, event routing) from an
// optional YAML file with compiled-in defaults.
package config
