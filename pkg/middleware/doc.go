// Package middleware implements the Chain of Responsibility pattern for
// node execution: cross-cutting concerns (logging, metrics, rate
// limiting, size limits, retries, timeouts, validation) wrap handler
// dispatch without the handlers themselves knowing about any of it.
//
// # Basic usage
//
//	import "github.com/openalgoflow/engine/pkg/middleware"
//
//	chain := middleware.NewChain().
//		Use(middleware.NewLoggingMiddleware(logger)).
//		Use(middleware.NewRateLimitMiddleware()).
//		Use(middleware.NewTimeoutMiddleware(30 * time.Second))
//
//	result, err := chain.Execute(ec, node, registry.Execute)
//
// Middleware runs in the order added; each middleware calls next to
// continue the chain, inspects or short-circuits the result, or returns
// early to stop it.
package middleware
