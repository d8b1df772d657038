// Package types provides shared type definitions for the trading workflow
// engine. All core data structures used across packages are defined here to
// avoid circular dependencies.
package types

import (
	"context"
	"time"
)

// ============================================================================
// Context Keys
// ============================================================================

// contextKey is used for context keys to avoid collisions
type contextKey string

const (
	// ContextKeyExecutionID is the context key for the unique execution ID
	ContextKeyExecutionID contextKey = "execution_id"

	// ContextKeyWorkflowID is the context key for the workflow ID
	ContextKeyWorkflowID contextKey = "workflow_id"
)

// GetExecutionID extracts the execution ID from context.
// Returns empty string if not found in context.
func GetExecutionID(ctx context.Context) string {
	if id, ok := ctx.Value(ContextKeyExecutionID).(string); ok {
		return id
	}
	return ""
}

// GetWorkflowID extracts the workflow ID from context.
// Returns empty string if not found in context.
func GetWorkflowID(ctx context.Context) string {
	if id, ok := ctx.Value(ContextKeyWorkflowID).(string); ok {
		return id
	}
	return ""
}

func WithExecutionID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ContextKeyExecutionID, id)
}

func WithWorkflowID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ContextKeyWorkflowID, id)
}

// ============================================================================
// Node Kinds
// ============================================================================

// NodeKind is the broad category a node belongs to. Handlers are looked up
// by Type in a single registry; the traverser uses Kind only to find the
// start node, to pass through group nodes, and to follow the yes/no branch
// after conditional and logic-gate nodes.
type NodeKind string

const (
	KindStart      NodeKind = "start"
	KindAction     NodeKind = "action"
	KindQuery      NodeKind = "query"
	KindStreaming  NodeKind = "streaming"
	KindControl    NodeKind = "control"
	KindConditional NodeKind = "conditional"
	KindLogicGate  NodeKind = "logic_gate"
	KindGroup      NodeKind = "group"
)

// NodeType is the specific operation a node performs within its Kind.
type NodeType string

const (
	// Action nodes - order/position mutation and external side effects
	TypePlaceOrder        NodeType = "placeOrder"
	TypeSmartOrder        NodeType = "smartOrder"
	TypeOptionsOrder      NodeType = "optionsOrder"
	TypeOptionsMultiOrder NodeType = "optionsMultiOrder"
	TypeBasketOrder       NodeType = "basketOrder"
	TypeSplitOrder        NodeType = "splitOrder"
	TypeModifyOrder       NodeType = "modifyOrder"
	TypeCancelOrder       NodeType = "cancelOrder"
	TypeCancelAllOrders   NodeType = "cancelAllOrders"
	TypeClosePositions    NodeType = "closePositions"
	TypeTelegramAlert     NodeType = "telegramAlert"
	TypeHTTPRequest       NodeType = "httpRequest"
	TypeLog               NodeType = "log"

	// Control nodes - flow, variables, expressions
	TypeDelay          NodeType = "delay"
	TypeWaitUntil      NodeType = "waitUntil"
	TypeVariable       NodeType = "variable"
	TypeMathExpression NodeType = "mathExpression"

	// Query nodes - read-only gateway calls
	TypeGetQuote        NodeType = "getQuote"
	TypeMultiQuotes     NodeType = "multiQuotes"
	TypeGetDepth        NodeType = "getDepth"
	TypeGetOrderStatus  NodeType = "getOrderStatus"
	TypeOpenPosition    NodeType = "openPosition"
	TypeHistory         NodeType = "history"
	TypeExpiry          NodeType = "expiry"
	TypeSymbol          NodeType = "symbol"
	TypeOptionSymbol    NodeType = "optionSymbol"
	TypeOrderBook       NodeType = "orderBook"
	TypeTradeBook       NodeType = "tradeBook"
	TypePositionBook    NodeType = "positionBook"
	TypeSyntheticFuture NodeType = "syntheticFuture"
	TypeOptionChain     NodeType = "optionChain"
	TypeHolidays        NodeType = "holidays"
	TypeTimings         NodeType = "timings"
	TypeHoldings        NodeType = "holdings"
	TypeFunds           NodeType = "funds"
	TypeMargin          NodeType = "margin"
	// TypeOptionGreeks and TypeSearchSymbols reach gateway capabilities the
	// vocabulary above doesn't name a node for; kept as additions.
	TypeOptionGreeks  NodeType = "optionGreeks"
	TypeSearchSymbols NodeType = "searchSymbols"

	// Streaming nodes - websocket subscriptions with REST fallback
	TypeSubscribeLtp   NodeType = "subscribeLtp"
	TypeSubscribeQuote NodeType = "subscribeQuote"
	TypeSubscribeDepth NodeType = "subscribeDepth"
	TypeUnsubscribe    NodeType = "unsubscribe"

	// Control / trigger
	TypeStartTrigger NodeType = "start"

	// Conditional nodes - each sets context.condition_results[node.ID]
	TypePositionCheck  NodeType = "positionCheck"
	TypeFundCheck      NodeType = "fundCheck"
	TypePriceCondition NodeType = "priceCondition"
	TypePriceAlert     NodeType = "priceAlert"
	TypeTimeWindow     NodeType = "timeWindow"
	TypeTimeCondition  NodeType = "timeCondition"

	// Logic gates - combine incoming edges' condition results
	TypeAndGate NodeType = "andGate"
	TypeOrGate  NodeType = "orGate"
	TypeNotGate NodeType = "notGate"
)

// ============================================================================
// Graph data structures
// ============================================================================

// NodeData is an untyped property bag. Each handler pulls out the fields it
// recognizes by name instead of the engine eagerly typing every node kind —
// the graph stays forward compatible with fields the editor adds later.
type NodeData map[string]interface{}

// Node represents a single vertex of a workflow graph.
type Node struct {
	ID   string   `json:"id"`
	Kind NodeKind `json:"kind"`
	Type NodeType `json:"type"`
	Data NodeData `json:"data"`
}

// Edge connects two nodes. SourceHandle carries the branch label ("yes",
// "no", or empty for unconditional edges) that the traverser uses to decide
// whether to follow it.
type Edge struct {
	ID           string  `json:"id"`
	Source       string  `json:"source"`
	Target       string  `json:"target"`
	SourceHandle *string `json:"sourceHandle,omitempty"`
}

// Graph is the full node/edge set of one workflow version.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Workflow is a persisted, named graph plus its scheduling/activation state.
type Workflow struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Description   string    `json:"description,omitempty"`
	Graph         Graph     `json:"graph"`
	IsActive      bool      `json:"is_active"`
	ScheduleJobID string    `json:"schedule_job_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// WorkflowSummary is the lightweight listing projection of a Workflow.
type WorkflowSummary struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	IsActive    bool      `json:"is_active"`
	NodeCount   int       `json:"node_count"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// ============================================================================
// Execution records
// ============================================================================

type ExecutionStatus string

const (
	StatusRunning   ExecutionStatus = "running"
	StatusCompleted ExecutionStatus = "completed"
	StatusFailed    ExecutionStatus = "failed"
)

// LogEntry is one line of an execution's activity log. NodeID is empty for
// workflow-level lines (start/completion) and set for node-scoped lines so
// the UI can correlate a line back to the node that emitted it.
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	Level     string    `json:"level"`
	Message   string    `json:"message"`
	NodeID    string    `json:"node_id,omitempty"`
}

// Execution is the persisted record of one workflow run.
type Execution struct {
	ID          string          `json:"id"`
	WorkflowID  string          `json:"workflow_id"`
	Status      ExecutionStatus `json:"status"`
	StartedAt   time.Time       `json:"started_at"`
	CompletedAt *time.Time      `json:"completed_at,omitempty"`
	Error       string          `json:"error,omitempty"`
	Logs        []LogEntry      `json:"logs,omitempty"`
	// Variables holds the final variable context snapshot, useful for
	// debugging and for the UI execution inspector.
	Variables map[string]interface{} `json:"variables,omitempty"`
}

// ============================================================================
// Settings
// ============================================================================

// Settings is the process-wide singleton configuration row: admin
// credentials and the brokerage gateway connection.
type Settings struct {
	AdminPasswordHash      string    `json:"-"`
	IsSetupComplete        bool      `json:"is_setup_complete"`
	GatewayAPIKeyEncrypted []byte    `json:"-"`
	GatewayAPIKeyNonce     []byte    `json:"-"`
	GatewayHost            string    `json:"gateway_host"`
	GatewayWSURL           string    `json:"gateway_ws_url"`
	UpdatedAt              time.Time `json:"updated_at"`
}

// DefaultGatewayHost and DefaultGatewayWSURL mirror the original
// application's defaults for a locally-run gateway.
const (
	DefaultGatewayHost  = "http://127.0.0.1:5000"
	DefaultGatewayWSURL = "ws://127.0.0.1:8765"
)
