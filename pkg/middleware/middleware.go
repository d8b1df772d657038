// Package middleware provides the Chain of Responsibility pattern for node
// execution: cross-cutting concerns (logging, metrics, rate limiting, size
// limits, retries, timeouts) wrap handler dispatch without the handlers
// themselves knowing about any of it.
package middleware

import (
	"github.com/openalgoflow/engine/pkg/handlers"
	"github.com/openalgoflow/engine/pkg/types"
)

// Handler is the function signature both the registry and middleware use.
type Handler func(ec *handlers.ExecContext, node types.Node) (interface{}, error)

// Middleware can inspect, modify, or short-circuit node execution.
type Middleware interface {
	// Process handles the node execution, optionally calling next() to
	// continue the chain.
	Process(ec *handlers.ExecContext, node types.Node, next Handler) (interface{}, error)

	// Name returns the middleware name for logging and debugging.
	Name() string
}

// Chain is an ordered chain of middleware, executed in the order added.
type Chain struct {
	middlewares []Middleware
}

// NewChain creates an empty middleware chain.
func NewChain() *Chain {
	return &Chain{middlewares: make([]Middleware, 0)}
}

// Use appends middleware to the chain.
func (c *Chain) Use(m Middleware) *Chain {
	c.middlewares = append(c.middlewares, m)
	return c
}

// Execute runs the middleware chain followed by the final handler.
func (c *Chain) Execute(ec *handlers.ExecContext, node types.Node, handler Handler) (interface{}, error) {
	if len(c.middlewares) == 0 {
		return handler(ec, node)
	}

	index := 0
	var next Handler
	next = func(ec *handlers.ExecContext, node types.Node) (interface{}, error) {
		if index >= len(c.middlewares) {
			return handler(ec, node)
		}
		m := c.middlewares[index]
		index++
		return m.Process(ec, node, next)
	}

	return next(ec, node)
}

// Len returns the number of middleware in the chain.
func (c *Chain) Len() int {
	return len(c.middlewares)
}

// Middlewares returns a copy of the chain's middleware, in order.
func (c *Chain) Middlewares() []Middleware {
	result := make([]Middleware, len(c.middlewares))
	copy(result, c.middlewares)
	return result
}
