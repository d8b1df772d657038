package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/openalgoflow/engine/pkg/handlers"
	"github.com/openalgoflow/engine/pkg/types"
)

// TimeoutMiddleware enforces a default execution timeout for nodes that
// don't already run under a per-node deadline (the traverser sets one via
// ec.Ctx; this middleware is for callers that build their own chain
// outside that path, e.g. ad hoc single-node execution in the playground).
type TimeoutMiddleware struct {
	defaultTimeout time.Duration
}

// NewTimeoutMiddleware creates timeout middleware with the given default.
func NewTimeoutMiddleware(defaultTimeout time.Duration) *TimeoutMiddleware {
	return &TimeoutMiddleware{defaultTimeout: defaultTimeout}
}

func (m *TimeoutMiddleware) Process(ec *handlers.ExecContext, node types.Node, next Handler) (interface{}, error) {
	timeout := m.defaultTimeout
	if timeout <= 0 {
		return next(ec, node)
	}

	type result struct {
		value interface{}
		err   error
	}
	resultChan := make(chan result, 1)

	go func() {
		value, err := next(ec, node)
		resultChan <- result{value: value, err: err}
	}()

	select {
	case res := <-resultChan:
		return res.value, res.err
	case <-time.After(timeout):
		return nil, fmt.Errorf("node execution timeout after %v", timeout)
	}
}

func (m *TimeoutMiddleware) Name() string {
	return "Timeout"
}

// TimeoutMiddlewareWithContext is a context-aware variant that cancels the
// ExecContext's Go context on timeout, so a handler checking ctx.Done()
// (HTTP requests, delays, gateway calls) unwinds promptly instead of
// leaking a goroutine until it finishes on its own.
type TimeoutMiddlewareWithContext struct {
	defaultTimeout time.Duration
}

// NewTimeoutMiddlewareWithContext creates a context-aware timeout middleware.
func NewTimeoutMiddlewareWithContext(defaultTimeout time.Duration) *TimeoutMiddlewareWithContext {
	return &TimeoutMiddlewareWithContext{defaultTimeout: defaultTimeout}
}

func (m *TimeoutMiddlewareWithContext) Process(ec *handlers.ExecContext, node types.Node, next Handler) (interface{}, error) {
	timeout := m.defaultTimeout
	if timeout <= 0 {
		return next(ec, node)
	}

	parent := context.Background()
	if ec != nil && ec.Ctx != nil {
		parent = ec.Ctx
	}
	timeoutCtx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	scoped := ec
	if ec != nil {
		clone := *ec
		clone.Ctx = timeoutCtx
		scoped = &clone
	}

	type result struct {
		value interface{}
		err   error
	}
	resultChan := make(chan result, 1)

	go func() {
		value, err := next(scoped, node)
		resultChan <- result{value: value, err: err}
	}()

	select {
	case res := <-resultChan:
		return res.value, res.err
	case <-timeoutCtx.Done():
		return nil, fmt.Errorf("node execution timeout after %v", timeout)
	}
}

func (m *TimeoutMiddlewareWithContext) Name() string {
	return "TimeoutWithContext"
}
