// Package config provides peek's layered configuration.
//
// Values come from four layers, higher overriding lower:
//
//	┌─────────────────────────────┐
//	│  4. Command-line flags      │  ← Highest priority
//	├─────────────────────────────┤
//	│  3. Environment (PEEK_*)    │
//	├─────────────────────────────┤
//	│  2. Config file             │  ← ~/.config/peek/config.toml
//	├─────────────────────────────┤
//	│  1. Built-in defaults       │  ← Lowest priority
//	└─────────────────────────────┘
//
// The config file is TOML or YAML, chosen by extension. TOML files may
// include others with an "@include" key.
//
// # Basic Usage
//
//	cfg := config.New(config.WithFile(path))
//	if err := cfg.Load(ctx); err != nil {
//	    return err
//	}
//	_ = cfg.Set("eval.lang", "lua") // flag override
//	if err := cfg.Validate(); err != nil {
//	    return err
//	}
//	prompt := cfg.Console().Prompt
//
// Section accessors return snapshots; use Set to change a value.
package config
