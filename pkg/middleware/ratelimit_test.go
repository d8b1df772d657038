package middleware

import (
	"testing"
	"time"

	"github.com/openalgoflow/engine/pkg/handlers"
	"github.com/openalgoflow/engine/pkg/types"
	"github.com/openalgoflow/engine/pkg/wfcontext"
)

func newVarsWithWorkflowID(id string) *wfcontext.Context {
	v := wfcontext.New(time.Now())
	v.Set("workflow_id", id)
	return v
}

func TestTokenBucketAllow(t *testing.T) {
	tb := NewTokenBucket(10, 10)

	for i := 0; i < 10; i++ {
		if !tb.Allow("test") {
			t.Errorf("request %d should be allowed", i)
		}
	}
	if tb.Allow("test") {
		t.Error("request 11 should be denied (bucket empty)")
	}
}

func TestTokenBucketRefill(t *testing.T) {
	tb := NewTokenBucket(10, 10)
	for i := 0; i < 10; i++ {
		tb.Allow("test")
	}
	if tb.Allow("test") {
		t.Error("should be denied immediately after draining")
	}

	time.Sleep(200 * time.Millisecond)
	if !tb.Allow("test") {
		t.Error("should allow request after refill (1)")
	}
	if !tb.Allow("test") {
		t.Error("should allow request after refill (2)")
	}
	if tb.Allow("test") {
		t.Error("should deny 3rd request after partial refill")
	}
}

func TestTokenBucketReset(t *testing.T) {
	tb := NewTokenBucket(10, 10)
	for i := 0; i < 10; i++ {
		tb.Allow("test")
	}
	if tb.Allow("test") {
		t.Error("should be denied after draining")
	}

	tb.Reset()
	if !tb.Allow("test") {
		t.Error("should allow request after reset")
	}
}

func TestRateLimitMiddlewareGlobalLimit(t *testing.T) {
	config := RateLimitConfig{GlobalRPS: 5, EnableGlobal: true}
	m := NewRateLimitMiddlewareWithConfig(config)

	node := types.Node{ID: "test", Type: types.TypeVariable}
	executionCount := 0
	handler := func(ec *handlers.ExecContext, node types.Node) (interface{}, error) {
		executionCount++
		return "ok", nil
	}

	for i := 0; i < 5; i++ {
		result, err := m.Process(nil, node, handler)
		if err != nil {
			t.Errorf("request %d should be allowed: %v", i, err)
		}
		if result != "ok" {
			t.Errorf("expected 'ok', got %v", result)
		}
	}
	if executionCount != 5 {
		t.Errorf("expected 5 executions, got %d", executionCount)
	}

	_, err := m.Process(nil, node, handler)
	if err == nil {
		t.Error("request 6 should be denied (global limit)")
	}
	if m.GetRejectedCount() != 1 {
		t.Errorf("expected 1 rejected request, got %d", m.GetRejectedCount())
	}
	if executionCount != 5 {
		t.Errorf("handler should not be called when rate limited, got %d executions", executionCount)
	}
}

func TestRateLimitMiddlewareNodeTypeLimit(t *testing.T) {
	config := RateLimitConfig{
		EnablePerNodeType: true,
		NodeTypeRPS:       map[types.NodeType]float64{types.TypeHTTPRequest: 3},
	}
	m := NewRateLimitMiddlewareWithConfig(config)

	httpNode := types.Node{ID: "http1", Type: types.TypeHTTPRequest}
	otherNode := types.Node{ID: "var1", Type: types.TypeVariable}

	executionCount := 0
	handler := func(ec *handlers.ExecContext, node types.Node) (interface{}, error) {
		executionCount++
		return "ok", nil
	}

	for i := 0; i < 3; i++ {
		if _, err := m.Process(nil, httpNode, handler); err != nil {
			t.Errorf("http request %d should be allowed: %v", i, err)
		}
	}
	if _, err := m.Process(nil, httpNode, handler); err == nil {
		t.Error("4th http request should be denied (node type limit)")
	}
	if _, err := m.Process(nil, otherNode, handler); err != nil {
		t.Errorf("unrelated node type should be allowed: %v", err)
	}
	if executionCount != 4 {
		t.Errorf("expected 4 successful executions, got %d", executionCount)
	}
}

func TestRateLimitMiddlewareDisabledLimits(t *testing.T) {
	config := RateLimitConfig{EnableGlobal: false, EnablePerNodeType: false, EnablePerWorkflow: false}
	m := NewRateLimitMiddlewareWithConfig(config)

	node := types.Node{ID: "test", Type: types.TypeVariable}
	executionCount := 0
	handler := func(ec *handlers.ExecContext, node types.Node) (interface{}, error) {
		executionCount++
		return "ok", nil
	}

	for i := 0; i < 100; i++ {
		if _, err := m.Process(nil, node, handler); err != nil {
			t.Errorf("request %d should be allowed (no limits): %v", i, err)
		}
	}
	if executionCount != 100 {
		t.Errorf("expected 100 executions, got %d", executionCount)
	}
	if m.GetRejectedCount() != 0 {
		t.Errorf("expected 0 rejected requests, got %d", m.GetRejectedCount())
	}
}

func TestRateLimitMiddlewarePerWorkflowLimit(t *testing.T) {
	config := RateLimitConfig{EnablePerWorkflow: true}
	m := NewRateLimitMiddlewareWithConfig(config)

	vars := newVarsWithWorkflowID("wf1")
	ec := &handlers.ExecContext{Vars: vars}
	node := types.Node{ID: "test", Type: types.TypeVariable}
	handler := func(ec *handlers.ExecContext, node types.Node) (interface{}, error) {
		return "ok", nil
	}

	allowed := 0
	for i := 0; i < 15; i++ {
		if _, err := m.Process(ec, node, handler); err == nil {
			allowed++
		}
	}
	if allowed != 10 {
		t.Fatalf("expected 10 requests allowed before the per-workflow bucket empties, got %d", allowed)
	}
}

func TestRateLimitMiddlewareName(t *testing.T) {
	m := NewRateLimitMiddleware()
	if m.Name() != "RateLimit" {
		t.Errorf("expected 'RateLimit', got %s", m.Name())
	}
}
