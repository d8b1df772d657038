package middleware

import (
	"fmt"

	"github.com/openalgoflow/engine/pkg/handlers"
	"github.com/openalgoflow/engine/pkg/types"
)

// ValidationMiddleware validates node configuration before execution using
// the registry's own Validate hook, so structurally invalid nodes (missing
// required fields for their type) are rejected before a handler touches
// the gateway.
type ValidationMiddleware struct {
	validator interface {
		Validate(node types.Node) error
	}
}

// NewValidationMiddleware creates validation middleware backed by validator.
func NewValidationMiddleware(validator interface{ Validate(node types.Node) error }) *ValidationMiddleware {
	return &ValidationMiddleware{validator: validator}
}

func (m *ValidationMiddleware) Process(ec *handlers.ExecContext, node types.Node, next Handler) (interface{}, error) {
	if m.validator != nil {
		if err := m.validator.Validate(node); err != nil {
			return nil, fmt.Errorf("node validation failed: %w", err)
		}
	}

	return next(ec, node)
}

func (m *ValidationMiddleware) Name() string {
	return "Validation"
}

// DataValidationMiddleware bounds the raw size of a node's data bag before
// execution, catching a pathologically large node (e.g. a basket order
// with thousands of legs pasted into one field) independent of the
// heavier structural checks SizeLimitMiddleware performs.
type DataValidationMiddleware struct {
	maxFieldCount int
}

// NewDataValidationMiddleware creates data validation middleware.
func NewDataValidationMiddleware(maxFieldCount int) *DataValidationMiddleware {
	return &DataValidationMiddleware{maxFieldCount: maxFieldCount}
}

func (m *DataValidationMiddleware) Process(ec *handlers.ExecContext, node types.Node, next Handler) (interface{}, error) {
	if m.maxFieldCount > 0 && len(node.Data) > m.maxFieldCount {
		return nil, fmt.Errorf("node %s has %d data fields (max %d)", node.ID, len(node.Data), m.maxFieldCount)
	}

	return next(ec, node)
}

func (m *DataValidationMiddleware) Name() string {
	return "DataValidation"
}
