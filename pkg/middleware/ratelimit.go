package middleware

import (
	"fmt"
	"sync"
	"time"

	"github.com/openalgoflow/engine/pkg/handlers"
	"github.com/openalgoflow/engine/pkg/types"
)

// RateLimiter defines the interface for rate limiting implementations.
type RateLimiter interface {
	// Allow checks if a request is allowed based on rate limits.
	Allow(key string) bool

	// Reset clears all rate limit state.
	Reset()
}

// RateLimitMiddleware enforces rate limits on node execution using the
// token bucket algorithm, at global, per-node-type, and per-workflow
// granularity.
type RateLimitMiddleware struct {
	globalLimiter    RateLimiter
	nodeTypeLimiters map[types.NodeType]RateLimiter
	workflowLimiters map[string]RateLimiter
	mu               sync.RWMutex

	enableGlobal      bool
	enablePerNodeType bool
	enablePerWorkflow bool

	rejectedCount   int64
	rejectedCountMu sync.Mutex
}

// RateLimitConfig configures rate limiting behavior.
type RateLimitConfig struct {
	GlobalRPS   float64
	NodeTypeRPS map[types.NodeType]float64
	WorkflowRPS float64

	EnableGlobal      bool
	EnablePerNodeType bool
	EnablePerWorkflow bool
}

// DefaultRateLimitConfig returns default rate limit configuration.
func DefaultRateLimitConfig() RateLimitConfig {
	return RateLimitConfig{
		GlobalRPS:         100,
		WorkflowRPS:       10,
		EnableGlobal:      true,
		EnablePerNodeType: false,
		EnablePerWorkflow: false,
		NodeTypeRPS:       make(map[types.NodeType]float64),
	}
}

// NewRateLimitMiddleware creates rate limit middleware with default config.
func NewRateLimitMiddleware() *RateLimitMiddleware {
	return NewRateLimitMiddlewareWithConfig(DefaultRateLimitConfig())
}

// NewRateLimitMiddlewareWithConfig creates rate limit middleware with a
// custom config.
func NewRateLimitMiddlewareWithConfig(config RateLimitConfig) *RateLimitMiddleware {
	m := &RateLimitMiddleware{
		nodeTypeLimiters:  make(map[types.NodeType]RateLimiter),
		workflowLimiters:  make(map[string]RateLimiter),
		enableGlobal:      config.EnableGlobal,
		enablePerNodeType: config.EnablePerNodeType,
		enablePerWorkflow: config.EnablePerWorkflow,
	}

	if config.EnableGlobal && config.GlobalRPS > 0 {
		m.globalLimiter = NewTokenBucket(config.GlobalRPS, int64(config.GlobalRPS))
	}

	if config.EnablePerNodeType {
		for nodeType, rps := range config.NodeTypeRPS {
			if rps > 0 {
				m.nodeTypeLimiters[nodeType] = NewTokenBucket(rps, int64(rps))
			}
		}
	}

	return m
}

func (m *RateLimitMiddleware) Process(ec *handlers.ExecContext, node types.Node, next Handler) (interface{}, error) {
	if m.enableGlobal && m.globalLimiter != nil {
		if !m.globalLimiter.Allow("global") {
			m.incrementRejected()
			return nil, fmt.Errorf("global rate limit exceeded")
		}
	}

	if m.enablePerNodeType {
		m.mu.RLock()
		limiter, exists := m.nodeTypeLimiters[node.Type]
		m.mu.RUnlock()

		if exists && !limiter.Allow(string(node.Type)) {
			m.incrementRejected()
			return nil, fmt.Errorf("rate limit exceeded for node type: %s", node.Type)
		}
	}

	if m.enablePerWorkflow {
		workflowID := workflowIDOf(ec)
		if workflowID != "" {
			limiter := m.getOrCreateWorkflowLimiter(workflowID)
			if !limiter.Allow(workflowID) {
				m.incrementRejected()
				return nil, fmt.Errorf("rate limit exceeded for workflow: %s", workflowID)
			}
		}
	}

	return next(ec, node)
}

func (m *RateLimitMiddleware) Name() string {
	return "RateLimit"
}

// GetRejectedCount returns the number of rejected requests.
func (m *RateLimitMiddleware) GetRejectedCount() int64 {
	m.rejectedCountMu.Lock()
	defer m.rejectedCountMu.Unlock()
	return m.rejectedCount
}

func (m *RateLimitMiddleware) incrementRejected() {
	m.rejectedCountMu.Lock()
	m.rejectedCount++
	m.rejectedCountMu.Unlock()
}

func (m *RateLimitMiddleware) getOrCreateWorkflowLimiter(workflowID string) RateLimiter {
	m.mu.RLock()
	limiter, exists := m.workflowLimiters[workflowID]
	m.mu.RUnlock()

	if exists {
		return limiter
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	limiter, exists = m.workflowLimiters[workflowID]
	if exists {
		return limiter
	}

	limiter = NewTokenBucket(10, 10)
	m.workflowLimiters[workflowID] = limiter
	return limiter
}

// workflowIDOf reads the workflow id the orchestrator seeds into every
// execution's variable store before the graph runs.
func workflowIDOf(ec *handlers.ExecContext) string {
	if ec == nil || ec.Vars == nil {
		return ""
	}
	id, _ := ec.Vars.GetString("workflow_id")
	return id
}

// TokenBucket implements the token bucket algorithm for rate limiting.
type TokenBucket struct {
	rate       float64
	capacity   int64
	tokens     float64
	lastRefill time.Time
	mu         sync.Mutex
}

// NewTokenBucket creates a token bucket with the given refill rate and
// capacity.
func NewTokenBucket(rate float64, capacity int64) *TokenBucket {
	return &TokenBucket{
		rate:       rate,
		capacity:   capacity,
		tokens:     float64(capacity),
		lastRefill: time.Now(),
	}
}

func (tb *TokenBucket) Allow(key string) bool {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(tb.lastRefill).Seconds()
	tb.tokens = minFloat(tb.tokens+elapsed*tb.rate, float64(tb.capacity))
	tb.lastRefill = now

	if tb.tokens >= 1.0 {
		tb.tokens -= 1.0
		return true
	}

	return false
}

func (tb *TokenBucket) Reset() {
	tb.mu.Lock()
	defer tb.mu.Unlock()

	tb.tokens = float64(tb.capacity)
	tb.lastRefill = time.Now()
}

func minFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}
