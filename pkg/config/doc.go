// Package config provides configuration management for the trading
// workflow engine.
//
// # Overview
//
// The config package centralizes the engine's tunable limits in one
// struct with validation and environment-specific constructors, so other
// packages depend on a single dependency-free type instead of reading
// process globals.
//
// # Configuration structure
//
//   - Traversal limits: depth/visit bounds that keep a cyclic graph terminating
//   - Execution timeouts: overall and per-node deadlines
//   - Gateway HTTP client settings
//   - Streaming fallback timeout
//   - httpRequest action node network policy (SSRF guards)
//   - Resource limits: graph size bounds
//   - Retry defaults
//
// # Basic usage
//
//	cfg := config.Default()
//	if err := cfg.Validate(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Thread safety
//
// Config values are read-only once constructed; Clone returns an
// independent copy for callers that need to mutate one field.
package config
