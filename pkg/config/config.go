// Package config holds the workflow engine's tunable limits, centralized
// here for easy validation and so every package depends on one small,
// dependency-free struct instead of reading process globals.
package config

import "time"

// Config holds trading workflow engine configuration.
type Config struct {
	// Traversal limits (bounds the depth-first walk so a cyclic graph
	// still terminates instead of looping forever)
	MaxNodeDepth  int // maximum recursion depth of the traverser
	MaxNodeVisits int // maximum total node visits across one execution
	WarnAtVisits  int // log a warning once a single node is visited more than this many times

	MaxExecutionTime     time.Duration // overall workflow execution deadline
	MaxNodeExecutionTime time.Duration // per-node execution deadline

	// Gateway HTTP client configuration
	HTTPTimeout     time.Duration // timeout for REST calls to the brokerage gateway
	MaxResponseSize int64         // maximum size of a gateway response body (bytes)

	// Streaming configuration
	StreamingTimeout time.Duration // time to wait for a live tick before falling back to a synchronous query

	// httpRequest action node network policy (the one node type that
	// reaches arbitrary user-supplied URLs instead of the gateway)
	AllowHTTP          bool     // allow the httpRequest node to make requests at all
	AllowedURLPatterns []string // whitelist of allowed URL patterns (empty = allow any URL AllowHTTP permits)
	AllowPrivateIPs    bool     // allow private/loopback/link-local targets (default: blocked, SSRF guard)

	// Resource limits
	MaxPayloadSize int // maximum size of a workflow graph payload (bytes)
	MaxNodes       int // maximum number of nodes in a workflow graph
	MaxEdges       int // maximum number of edges in a workflow graph

	// Retry defaults (set and validated here; no handler reads them)
	DefaultMaxAttempts int
	DefaultBackoff     time.Duration
}

// Default returns a Config with secure, production-ready default values.
func Default() *Config {
	return &Config{
		MaxNodeDepth:  100,
		MaxNodeVisits: 500,
		WarnAtVisits:  10,

		MaxExecutionTime:     5 * time.Minute,
		MaxNodeExecutionTime: 30 * time.Second,

		HTTPTimeout:     30 * time.Second,
		MaxResponseSize: 10 * 1024 * 1024,

		StreamingTimeout: 5 * time.Second,

		AllowHTTP:          false,
		AllowedURLPatterns: nil,
		AllowPrivateIPs:    false,

		MaxPayloadSize: 10 * 1024 * 1024,
		MaxNodes:       1000,
		MaxEdges:       5000,

		DefaultMaxAttempts: 3,
		DefaultBackoff:     1 * time.Second,
	}
}

// Development returns a Config with relaxed network restrictions suitable
// for a gateway and streaming server both running on localhost.
func Development() *Config {
	cfg := Default()
	cfg.AllowHTTP = true
	cfg.AllowPrivateIPs = true
	cfg.MaxExecutionTime = 10 * time.Minute
	return cfg
}

// Production returns a Config with strict network defaults.
func Production() *Config {
	cfg := Default()
	cfg.AllowHTTP = false
	cfg.AllowPrivateIPs = false
	return cfg
}

// Testing returns a Config tuned for fast, deterministic tests.
func Testing() *Config {
	cfg := Default()
	cfg.AllowHTTP = true
	cfg.AllowPrivateIPs = true
	cfg.MaxExecutionTime = 1 * time.Minute
	cfg.HTTPTimeout = 2 * time.Second
	cfg.StreamingTimeout = 200 * time.Millisecond
	return cfg
}

// Validate checks whether the configuration values are sane.
func (c *Config) Validate() error {
	if c.MaxNodeDepth <= 0 {
		return ErrInvalidMaxNodeDepth
	}
	if c.MaxNodeVisits <= 0 {
		return ErrInvalidMaxNodeVisits
	}
	if c.MaxExecutionTime < 0 {
		return ErrInvalidExecutionTime
	}
	if c.MaxNodeExecutionTime < 0 {
		return ErrInvalidNodeExecutionTime
	}
	if c.HTTPTimeout < 0 {
		return ErrInvalidHTTPTimeout
	}
	if c.StreamingTimeout < 0 {
		return ErrInvalidStreamingTimeout
	}
	if c.MaxResponseSize < 0 {
		return ErrInvalidMaxResponseSize
	}
	if c.MaxNodes < 0 {
		return ErrInvalidMaxNodes
	}
	if c.MaxEdges < 0 {
		return ErrInvalidMaxEdges
	}
	if c.DefaultMaxAttempts <= 0 {
		return ErrInvalidMaxAttempts
	}
	if c.DefaultBackoff < 0 {
		return ErrInvalidBackoff
	}
	return nil
}

// Clone creates a deep copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	if c.AllowedURLPatterns != nil {
		clone.AllowedURLPatterns = make([]string, len(c.AllowedURLPatterns))
		copy(clone.AllowedURLPatterns, c.AllowedURLPatterns)
	}
	return &clone
}
