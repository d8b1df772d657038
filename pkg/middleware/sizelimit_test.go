package middleware

import (
	"strings"
	"testing"

	"github.com/openalgoflow/engine/pkg/handlers"
	"github.com/openalgoflow/engine/pkg/types"
)

func TestSizeLimitMiddlewareDataSizeLimit(t *testing.T) {
	config := SizeLimitConfig{MaxInputSize: 100, EnforceInputSize: true}
	m := NewSizeLimitMiddlewareWithConfig(config)

	node := types.Node{
		ID:   "test",
		Type: types.TypeVariable,
		Data: types.NodeData{"value": strings.Repeat("x", 200)},
	}

	handler := func(ec *handlers.ExecContext, node types.Node) (interface{}, error) {
		return "ok", nil
	}

	_, err := m.Process(nil, node, handler)
	if err == nil {
		t.Fatal("expected error for large node data, got nil")
	}
	if !strings.Contains(err.Error(), "node data size limit exceeded") {
		t.Errorf("expected size limit error, got: %v", err)
	}
}

func TestSizeLimitMiddlewareResultSizeLimit(t *testing.T) {
	config := SizeLimitConfig{MaxResultSize: 100, EnforceResultSize: true}
	m := NewSizeLimitMiddlewareWithConfig(config)

	node := types.Node{ID: "test", Type: types.TypeVariable}
	largeResult := strings.Repeat("x", 200)
	handler := func(ec *handlers.ExecContext, node types.Node) (interface{}, error) {
		return largeResult, nil
	}

	_, err := m.Process(nil, node, handler)
	if err == nil {
		t.Fatal("expected error for large result, got nil")
	}
	if !strings.Contains(err.Error(), "result size limit exceeded") {
		t.Errorf("expected result size limit error, got: %v", err)
	}
}

func TestSizeLimitMiddlewareStringLengthLimit(t *testing.T) {
	config := SizeLimitConfig{MaxInputSize: 1000, MaxStringLength: 50, EnforceInputSize: true}
	m := NewSizeLimitMiddlewareWithConfig(config)

	node := types.Node{
		ID:   "test",
		Type: types.TypeVariable,
		Data: types.NodeData{"value": strings.Repeat("x", 100)},
	}
	handler := func(ec *handlers.ExecContext, node types.Node) (interface{}, error) {
		return "ok", nil
	}

	_, err := m.Process(nil, node, handler)
	if err == nil {
		t.Fatal("expected error for long string, got nil")
	}
	if !strings.Contains(err.Error(), "string length") {
		t.Errorf("expected string length error, got: %v", err)
	}
}

func TestSizeLimitMiddlewareArrayLengthLimit(t *testing.T) {
	config := SizeLimitConfig{MaxInputSize: 10000, MaxArrayLength: 10, EnforceInputSize: true}
	m := NewSizeLimitMiddlewareWithConfig(config)

	longArray := make([]interface{}, 20)
	for i := range longArray {
		longArray[i] = i
	}
	node := types.Node{
		ID:   "test",
		Type: types.TypeVariable,
		Data: types.NodeData{"values": longArray},
	}
	handler := func(ec *handlers.ExecContext, node types.Node) (interface{}, error) {
		return "ok", nil
	}

	_, err := m.Process(nil, node, handler)
	if err == nil {
		t.Fatal("expected error for long array, got nil")
	}
	if !strings.Contains(err.Error(), "array length") {
		t.Errorf("expected array length error, got: %v", err)
	}
}

func TestSizeLimitMiddlewareAllowedData(t *testing.T) {
	m := NewSizeLimitMiddleware()
	node := types.Node{
		ID:   "test",
		Type: types.TypeVariable,
		Data: types.NodeData{"name": "hello", "count": 42, "active": true},
	}

	executionCount := 0
	handler := func(ec *handlers.ExecContext, node types.Node) (interface{}, error) {
		executionCount++
		return "ok", nil
	}

	result, err := m.Process(nil, node, handler)
	if err != nil {
		t.Errorf("expected no error for valid data, got: %v", err)
	}
	if result != "ok" {
		t.Errorf("expected 'ok', got %v", result)
	}
	if executionCount != 1 {
		t.Errorf("expected handler to be called once, got %d", executionCount)
	}
}

func TestSizeLimitMiddlewareDisabledLimits(t *testing.T) {
	config := SizeLimitConfig{MaxInputSize: 10, MaxResultSize: 10, EnforceInputSize: false, EnforceResultSize: false}
	m := NewSizeLimitMiddlewareWithConfig(config)

	node := types.Node{
		ID:   "test",
		Type: types.TypeVariable,
		Data: types.NodeData{"value": strings.Repeat("x", 100)},
	}
	largeResult := strings.Repeat("y", 100)
	handler := func(ec *handlers.ExecContext, node types.Node) (interface{}, error) {
		return largeResult, nil
	}

	result, err := m.Process(nil, node, handler)
	if err != nil {
		t.Errorf("expected no error with disabled limits, got: %v", err)
	}
	if result != largeResult {
		t.Error("result should be returned even if large when limits disabled")
	}
}

func TestSizeLimitMiddlewareName(t *testing.T) {
	m := NewSizeLimitMiddleware()
	if m.Name() != "SizeLimit" {
		t.Errorf("expected 'SizeLimit', got %s", m.Name())
	}
}

func TestValidateWorkflowSizeNodeCount(t *testing.T) {
	config := SizeLimitConfig{MaxNodeCount: 5}
	nodes := make([]types.Node, 10)
	for i := range nodes {
		nodes[i] = types.Node{ID: string(rune('a' + i)), Type: types.TypeVariable}
	}

	err := ValidateWorkflowSize(nodes, []types.Edge{}, config)
	if err == nil {
		t.Fatal("expected error for too many nodes, got nil")
	}
	if !strings.Contains(err.Error(), "nodes") {
		t.Errorf("expected node count error, got: %v", err)
	}
}

func TestValidateWorkflowSizeEdgeCount(t *testing.T) {
	config := SizeLimitConfig{MaxEdgeCount: 5}
	nodes := []types.Node{
		{ID: "1", Type: types.TypeVariable},
		{ID: "2", Type: types.TypeVariable},
	}
	edges := make([]types.Edge, 10)
	for i := range edges {
		edges[i] = types.Edge{Source: "1", Target: "2"}
	}

	err := ValidateWorkflowSize(nodes, edges, config)
	if err == nil {
		t.Fatal("expected error for too many edges, got nil")
	}
	if !strings.Contains(err.Error(), "edges") {
		t.Errorf("expected edge count error, got: %v", err)
	}
}

func TestValidateWorkflowSizeValidWorkflow(t *testing.T) {
	config := DefaultSizeLimitConfig()
	nodes := []types.Node{
		{ID: "1", Type: types.TypeVariable},
		{ID: "2", Type: types.TypeVariable},
		{ID: "3", Type: types.TypeVariable},
	}
	edges := []types.Edge{
		{Source: "1", Target: "2"},
		{Source: "2", Target: "3"},
	}

	if err := ValidateWorkflowSize(nodes, edges, config); err != nil {
		t.Errorf("expected no error for valid workflow, got: %v", err)
	}
}

func TestSizeLimitMiddlewareNestedStructures(t *testing.T) {
	config := SizeLimitConfig{MaxStringLength: 20, EnforceInputSize: true}
	m := NewSizeLimitMiddlewareWithConfig(config)

	node := types.Node{
		ID:   "test",
		Type: types.TypeVariable,
		Data: types.NodeData{
			"outer": map[string]interface{}{
				"inner": strings.Repeat("x", 50),
			},
		},
	}
	handler := func(ec *handlers.ExecContext, node types.Node) (interface{}, error) {
		return "ok", nil
	}

	_, err := m.Process(nil, node, handler)
	if err == nil {
		t.Fatal("expected error for nested string exceeding limit, got nil")
	}
}
