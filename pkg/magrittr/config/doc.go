/*
Package config provides type-safe configuration extraction from map[string]any.

# Overview

config wraps a map[string]any and provides typed accessor methods that handle
missing keys and type mismatches gracefully by returning default values.
The engine uses it to read declarative pipeline documents (strategy, scope
kind, placeholder name, stage lists) from YAML or JSON without verbose type
assertions.

# Basic Usage

	cfg := config.New(map[string]any{
	    "strategy":    "lazy",
	    "scope":       "new",
	    "placeholder": ".",
	})

	strategy := cfg.String("strategy", "eager") // "lazy"
	multi := cfg.Bool("allow_multi_reference", true)
	missing := cfg.String("missing", "default") // "default"

# File Loading

Load configuration from YAML or JSON files:

	cfg, err := config.FromFile("pipeline.yaml")
	if err != nil {
	    log.Fatal(err)
	}

	// Or load from bytes
	cfg, err = config.FromYAML(yamlBytes)
	cfg, err = config.FromJSON(jsonBytes)

# Thread Safety

Config is safe for concurrent read access. The underlying map is not
modified after creation. However, if the original map is modified
externally, behavior is undefined.
*/
package config
