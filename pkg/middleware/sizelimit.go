package middleware

import (
	"encoding/json"
	"fmt"

	"github.com/openalgoflow/engine/pkg/handlers"
	"github.com/openalgoflow/engine/pkg/types"
)

// SizeLimitMiddleware enforces size limits on node data and results to
// prevent memory exhaustion from a malicious or malformed workflow graph.
type SizeLimitMiddleware struct {
	maxDataSize       int64
	maxResultSize     int64
	maxStringLength   int
	maxArrayLength    int
	maxWorkflowSize   int64
	maxNodeCount      int
	maxEdgeCount      int
	enforceDataSize   bool
	enforceResultSize bool
}

// SizeLimitConfig configures size limit enforcement.
type SizeLimitConfig struct {
	MaxInputSize    int64
	MaxResultSize   int64
	MaxStringLength int
	MaxArrayLength  int

	MaxWorkflowSize int64
	MaxNodeCount    int
	MaxEdgeCount    int

	EnforceInputSize  bool
	EnforceResultSize bool
}

// DefaultSizeLimitConfig returns default size limit configuration.
func DefaultSizeLimitConfig() SizeLimitConfig {
	return SizeLimitConfig{
		MaxInputSize:      10 * 1024 * 1024,
		MaxResultSize:     50 * 1024 * 1024,
		MaxStringLength:   1 * 1024 * 1024,
		MaxArrayLength:    10000,
		MaxWorkflowSize:   100 * 1024 * 1024,
		MaxNodeCount:      1000,
		MaxEdgeCount:      5000,
		EnforceInputSize:  true,
		EnforceResultSize: true,
	}
}

// NewSizeLimitMiddleware creates size limit middleware with default config.
func NewSizeLimitMiddleware() *SizeLimitMiddleware {
	return NewSizeLimitMiddlewareWithConfig(DefaultSizeLimitConfig())
}

// NewSizeLimitMiddlewareWithConfig creates size limit middleware with a
// custom config.
func NewSizeLimitMiddlewareWithConfig(config SizeLimitConfig) *SizeLimitMiddleware {
	return &SizeLimitMiddleware{
		maxDataSize:       config.MaxInputSize,
		maxResultSize:     config.MaxResultSize,
		maxStringLength:   config.MaxStringLength,
		maxArrayLength:    config.MaxArrayLength,
		maxWorkflowSize:   config.MaxWorkflowSize,
		maxNodeCount:      config.MaxNodeCount,
		maxEdgeCount:      config.MaxEdgeCount,
		enforceDataSize:   config.EnforceInputSize,
		enforceResultSize: config.EnforceResultSize,
	}
}

func (m *SizeLimitMiddleware) Process(ec *handlers.ExecContext, node types.Node, next Handler) (interface{}, error) {
	if m.enforceDataSize {
		if err := m.validateDataSize(node.Data); err != nil {
			return nil, fmt.Errorf("node data size limit exceeded: %w", err)
		}
	}

	result, err := next(ec, node)
	if err != nil {
		return result, err
	}

	if m.enforceResultSize && result != nil {
		if err := m.validateResultSize(result); err != nil {
			return nil, fmt.Errorf("result size limit exceeded: %w", err)
		}
	}

	return result, nil
}

func (m *SizeLimitMiddleware) Name() string {
	return "SizeLimit"
}

func (m *SizeLimitMiddleware) validateDataSize(data types.NodeData) error {
	size, err := estimateSize(data)
	if err != nil {
		return fmt.Errorf("failed to estimate node data size: %w", err)
	}
	if size > m.maxDataSize {
		return fmt.Errorf("node data size %d bytes exceeds limit %d bytes", size, m.maxDataSize)
	}
	return m.validateValue(map[string]interface{}(data))
}

func (m *SizeLimitMiddleware) validateResultSize(result interface{}) error {
	size, err := estimateSize(result)
	if err != nil {
		return fmt.Errorf("failed to estimate result size: %w", err)
	}
	if size > m.maxResultSize {
		return fmt.Errorf("result size %d bytes exceeds limit %d bytes", size, m.maxResultSize)
	}
	return m.validateValue(result)
}

// validateValue walks a decoded JSON-like value enforcing string and array
// length limits recursively.
func (m *SizeLimitMiddleware) validateValue(value interface{}) error {
	switch v := value.(type) {
	case string:
		if m.maxStringLength > 0 && len(v) > m.maxStringLength {
			return fmt.Errorf("string length %d exceeds limit %d", len(v), m.maxStringLength)
		}
	case []interface{}:
		if m.maxArrayLength > 0 && len(v) > m.maxArrayLength {
			return fmt.Errorf("array length %d exceeds limit %d", len(v), m.maxArrayLength)
		}
		for i, elem := range v {
			if err := m.validateValue(elem); err != nil {
				return fmt.Errorf("array element %d: %w", i, err)
			}
		}
	case map[string]interface{}:
		for key, val := range v {
			if err := m.validateValue(val); err != nil {
				return fmt.Errorf("map key %s: %w", key, err)
			}
		}
	}

	return nil
}

// estimateSize uses JSON marshaling as a rough size estimate.
func estimateSize(value interface{}) (int64, error) {
	data, err := json.Marshal(value)
	if err != nil {
		return 0, err
	}
	return int64(len(data)), nil
}

// ValidateWorkflowSize validates node/edge count and total graph size
// before a workflow is accepted for execution.
func ValidateWorkflowSize(nodes []types.Node, edges []types.Edge, config SizeLimitConfig) error {
	if config.MaxNodeCount > 0 && len(nodes) > config.MaxNodeCount {
		return fmt.Errorf("workflow has %d nodes, exceeds limit of %d", len(nodes), config.MaxNodeCount)
	}

	if config.MaxEdgeCount > 0 && len(edges) > config.MaxEdgeCount {
		return fmt.Errorf("workflow has %d edges, exceeds limit of %d", len(edges), config.MaxEdgeCount)
	}

	if config.MaxWorkflowSize > 0 {
		type workflow struct {
			Nodes []types.Node `json:"nodes"`
			Edges []types.Edge `json:"edges"`
		}

		wf := workflow{Nodes: nodes, Edges: edges}
		data, err := json.Marshal(wf)
		if err != nil {
			return fmt.Errorf("failed to marshal workflow for size check: %w", err)
		}

		size := int64(len(data))
		if size > config.MaxWorkflowSize {
			return fmt.Errorf("workflow size %d bytes exceeds limit %d bytes", size, config.MaxWorkflowSize)
		}
	}

	return nil
}
