package config

import "errors"

// Sentinel errors for configuration validation
var (
	ErrInvalidExecutionTime     = errors.New("invalid max execution time: must be non-negative")
	ErrInvalidNodeExecutionTime = errors.New("invalid max node execution time: must be non-negative")
	ErrInvalidMaxNodeDepth      = errors.New("invalid max node depth: must be positive")
	ErrInvalidMaxNodeVisits     = errors.New("invalid max node visits: must be positive")

	ErrInvalidHTTPTimeout      = errors.New("invalid HTTP timeout: must be non-negative")
	ErrInvalidStreamingTimeout = errors.New("invalid streaming timeout: must be non-negative")
	ErrInvalidMaxResponseSize  = errors.New("invalid max response size: must be non-negative")
	ErrInvalidURLPattern       = errors.New("invalid URL pattern")
	ErrInvalidDomain           = errors.New("invalid domain")

	ErrInvalidMaxNodes = errors.New("invalid max nodes: must be non-negative")
	ErrInvalidMaxEdges = errors.New("invalid max edges: must be non-negative")

	ErrInvalidMaxAttempts = errors.New("invalid max attempts: must be positive")
	ErrInvalidBackoff     = errors.New("invalid backoff duration: must be non-negative")
)
