// Package config loads the joke-gateway YAML configuration.
//
// ${VAR_NAME} patterns in the file are expanded from the environment before
// parsing, duration fields accept Go duration strings (e.g. "10s"), and a
// missing file silently yields the defaults.
package config
