// Package config defines the optional settings file of love-distributor and
// provides helpers to load and validate it.
//
// The file is YAML by default; a ".toml" extension switches to TOML. It holds
// the release hosts, timeouts and the metadata strictness switch.
package config
