// Package handlers implements the node handler strategy: one Handler per
// NodeType, looked up and invoked through a Registry keyed by node type
// and guarded by a RWMutex (Register/MustRegister/Execute).
package handlers

import (
	"context"
	"fmt"
	"sync"

	"github.com/openalgoflow/engine/pkg/config"
	"github.com/openalgoflow/engine/pkg/gateway"
	"github.com/openalgoflow/engine/pkg/logging"
	"github.com/openalgoflow/engine/pkg/security"
	"github.com/openalgoflow/engine/pkg/types"
	"github.com/openalgoflow/engine/pkg/wfcontext"
)

// ExecContext bundles everything a Handler needs beyond the node itself:
// the Go context (carrying the per-node execution deadline), the shared
// variable store, the gateway clients, and ambient services.
type ExecContext struct {
	Ctx     context.Context
	Vars    *wfcontext.Context
	Gateway *gateway.Client
	Stream  *gateway.StreamClient
	Logger  *logging.Logger
	Config  *config.Config
	SSRF    *security.SSRFProtection

	// IncomingConditionResults returns the recorded condition results of
	// every node with an edge into nodeID, in edge declaration order,
	// skipping sources with no recorded result yet. The traverser sets
	// this once per run; logic gate handlers use it instead of reading a
	// node-authored list of input ids, so gate wiring follows the graph.
	IncomingConditionResults func(nodeID string) []bool
}

// Handler executes one node type.
type Handler interface {
	Type() types.NodeType
	Execute(ec *ExecContext, node types.Node) (interface{}, error)
}

// Registry is a thread-safe lookup table of Handlers keyed by node type.
type Registry struct {
	mu       sync.RWMutex
	handlers map[types.NodeType]Handler
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{handlers: make(map[types.NodeType]Handler)}
}

// Register adds a handler, returning an error if its type is already
// registered.
func (r *Registry) Register(h Handler) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.handlers[h.Type()]; exists {
		return fmt.Errorf("handlers: node type %q already registered", h.Type())
	}
	r.handlers[h.Type()] = h
	return nil
}

// MustRegister is Register but panics on error; used at process startup
// where a duplicate registration is a programmer error, not a runtime one.
func (r *Registry) MustRegister(h Handler) {
	if err := r.Register(h); err != nil {
		panic(err)
	}
}

// Get looks up the handler for a node type.
func (r *Registry) Get(t types.NodeType) (Handler, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	h, ok := r.handlers[t]
	return h, ok
}

// Validate checks that a handler is registered for node.Type, without
// running it. Used by middleware.ValidationMiddleware to reject a node
// before execution instead of failing deep inside the traverser.
func (r *Registry) Validate(node types.Node) error {
	if _, ok := r.Get(node.Type); !ok {
		return fmt.Errorf("handlers: no handler registered for node type %q", node.Type)
	}
	return nil
}

// Execute looks up and runs the handler for node.Type.
func (r *Registry) Execute(ec *ExecContext, node types.Node) (interface{}, error) {
	h, ok := r.Get(node.Type)
	if !ok {
		return nil, fmt.Errorf("handlers: no handler registered for node type %q", node.Type)
	}
	return h.Execute(ec, node)
}
