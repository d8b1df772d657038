// Package traverser walks a workflow graph depth-first from its start
// node, executing each node's handler and following outgoing edges. It
// tolerates cycles by bounding total recursion depth and total node
// visits rather than rejecting cyclic graphs outright (a topological
// sort would refuse to run the same graphs this package is built to
// run), grounded on the original Python implementation's
// execute_node_chain depth/visit bookkeeping.
package traverser

import (
	"context"
	"fmt"

	"github.com/openalgoflow/engine/pkg/config"
	"github.com/openalgoflow/engine/pkg/handlers"
	"github.com/openalgoflow/engine/pkg/logging"
	"github.com/openalgoflow/engine/pkg/middleware"
	"github.com/openalgoflow/engine/pkg/types"
)

// NodeResult is one node's execution outcome, collected in visit order.
type NodeResult struct {
	NodeID string
	Type   types.NodeType
	Output interface{}
	Error  string
}

// Traverser drives one graph execution against a Registry of handlers.
type Traverser struct {
	registry *handlers.Registry
	cfg      *config.Config
	logger   *logging.Logger
	chain    *middleware.Chain
}

// New builds a Traverser bound to a handler registry and config limits.
// Every node dispatch runs through a fixed middleware chain first:
// structural validation (registry.Validate), then JSON-Schema validation
// of the node's data bag, then debug logging of start/duration/outcome.
// Retry and generic metrics middleware are deliberately left out of this
// chain (see DESIGN.md) — blind retries risk duplicating order-mutating
// actions, and per-node metrics already flow through the observer the
// orchestrator wires in.
func New(registry *handlers.Registry, cfg *config.Config, logger *logging.Logger) *Traverser {
	chain := middleware.NewChain().
		Use(middleware.NewValidationMiddleware(registry)).
		Use(middleware.NewSchemaValidationMiddleware()).
		Use(middleware.NewLoggingMiddleware(logger))

	return &Traverser{registry: registry, cfg: cfg, logger: logger, chain: chain}
}

type walkState struct {
	nodesByID map[string]types.Node
	edgesFrom map[string][]types.Edge
	edgesTo   map[string][]types.Edge
	visits    map[string]int
	results   []NodeResult
}

// Run executes graph starting from its start node(s) (nodes of kind
// KindStart, or any node with no incoming edge if the graph has none
// explicitly marked). ec.Vars must already be constructed by the caller
// so the orchestrator can seed trigger data before the walk begins.
func (t *Traverser) Run(ctx context.Context, graph types.Graph, ec *handlers.ExecContext) ([]NodeResult, error) {
	ws := &walkState{
		nodesByID: make(map[string]types.Node, len(graph.Nodes)),
		edgesFrom: make(map[string][]types.Edge),
		edgesTo:   make(map[string][]types.Edge),
		visits:    make(map[string]int),
	}
	for _, n := range graph.Nodes {
		ws.nodesByID[n.ID] = n
	}
	for _, e := range graph.Edges {
		ws.edgesFrom[e.Source] = append(ws.edgesFrom[e.Source], e)
		ws.edgesTo[e.Target] = append(ws.edgesTo[e.Target], e)
	}

	// Logic gate handlers derive their inputs from the graph itself
	// (their incoming edges' source ids), not from a node-authored list,
	// so every node gets the same closure over ws.edgesTo/ec.Vars.
	ec.IncomingConditionResults = func(nodeID string) []bool {
		var out []bool
		for _, e := range ws.edgesTo[nodeID] {
			if v, ok := ec.Vars.ConditionResult(e.Source); ok {
				out = append(out, v)
			}
		}
		return out
	}

	starts := startNodes(graph)
	if len(starts) == 0 {
		return nil, fmt.Errorf("traverser: graph has no start node")
	}

	for _, start := range starts {
		if err := t.walk(ctx, ec, ws, start.ID, 0); err != nil {
			return ws.results, err
		}
	}
	return ws.results, nil
}

// startNodes returns every node of KindStart, or (if none are marked)
// every node that no edge targets.
func startNodes(graph types.Graph) []types.Node {
	var explicit []types.Node
	targeted := make(map[string]bool, len(graph.Edges))
	for _, e := range graph.Edges {
		targeted[e.Target] = true
	}
	for _, n := range graph.Nodes {
		if n.Kind == types.KindStart {
			explicit = append(explicit, n)
		}
	}
	if len(explicit) > 0 {
		return explicit
	}
	var roots []types.Node
	for _, n := range graph.Nodes {
		if !targeted[n.ID] {
			roots = append(roots, n)
		}
	}
	return roots
}

func (t *Traverser) walk(ctx context.Context, ec *handlers.ExecContext, ws *walkState, nodeID string, depth int) error {
	if depth > t.cfg.MaxNodeDepth {
		return fmt.Errorf("traverser: exceeded max node depth (%d) at node %s", t.cfg.MaxNodeDepth, nodeID)
	}

	totalVisits := 0
	for _, v := range ws.visits {
		totalVisits += v
	}
	if totalVisits >= t.cfg.MaxNodeVisits {
		return fmt.Errorf("traverser: exceeded max node visits (%d)", t.cfg.MaxNodeVisits)
	}

	ws.visits[nodeID]++
	if ws.visits[nodeID] > t.cfg.WarnAtVisits {
		t.logger.WithNodeID(nodeID).Warnf("node visited %d times, possible runaway cycle", ws.visits[nodeID])
	}

	node, ok := ws.nodesByID[nodeID]
	if !ok {
		return fmt.Errorf("traverser: edge references unknown node %q", nodeID)
	}

	if node.Kind == types.KindGroup {
		return t.followEdges(ctx, ec, ws, node, depth, "")
	}

	nodeCtx := ctx
	var cancel context.CancelFunc
	if t.cfg.MaxNodeExecutionTime > 0 {
		nodeCtx, cancel = context.WithTimeout(ctx, t.cfg.MaxNodeExecutionTime)
		defer cancel()
	}
	nodeEC := *ec
	nodeEC.Ctx = nodeCtx

	output, err := t.chain.Execute(&nodeEC, node, t.registry.Execute)
	result := NodeResult{NodeID: node.ID, Type: node.Type}
	if err != nil {
		// Handler errors are local to the node: log them, record them
		// on the result, and keep walking. Only the overall execution
		// context ending (cancellation/deadline, not a per-node
		// timeout carved out of it) aborts the rest of the traversal.
		result.Error = err.Error()
		ws.results = append(ws.results, result)
		t.logger.WithNodeID(node.ID).WithNodeType(node.Type).WithError(err).Warn("node failed, continuing traversal")
		if ctxErr := ctx.Err(); ctxErr != nil {
			return fmt.Errorf("traverser: execution context ended: %w", ctxErr)
		}
		return t.followEdges(ctx, ec, ws, node, depth, "")
	}
	result.Output = output
	ws.results = append(ws.results, result)

	branch := ""
	if node.Kind == types.KindConditional || node.Kind == types.KindLogicGate {
		if ok, _ := ec.Vars.ConditionResult(node.ID); ok {
			branch = "yes"
		} else {
			branch = "no"
		}
	}
	return t.followEdges(ctx, ec, ws, node, depth, branch)
}

func (t *Traverser) followEdges(ctx context.Context, ec *handlers.ExecContext, ws *walkState, node types.Node, depth int, branch string) error {
	for _, edge := range ws.edgesFrom[node.ID] {
		if edge.SourceHandle != nil && *edge.SourceHandle != "" && branch != "" && *edge.SourceHandle != branch {
			continue
		}
		if err := t.walk(ctx, ec, ws, edge.Target, depth+1); err != nil {
			return err
		}
	}
	return nil
}
