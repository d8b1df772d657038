package middleware

import (
	"fmt"

	"github.com/xeipuuv/gojsonschema"

	"github.com/openalgoflow/engine/pkg/handlers"
	"github.com/openalgoflow/engine/pkg/types"
)

// nodeSchemas holds a compiled JSON Schema per node type for the fields a
// handler treats as required, catching a malformed node before it reaches
// the handler's own ad hoc strField checks. Node types with no entry here
// fall through uncompiled: either their required-field set can't be
// expressed as a simple schema (e.g. the variable node, whose required
// field depends on which operation it runs) or the handler's own ad hoc
// check already covers it.
var nodeSchemas = map[types.NodeType]string{
	types.TypePlaceOrder: `{
		"type": "object",
		"required": ["symbol"],
		"properties": {"symbol": {"type": "string", "minLength": 1}}
	}`,
	types.TypeMathExpression: `{
		"type": "object",
		"required": ["expression"],
		"properties": {"expression": {"type": "string", "minLength": 1}}
	}`,
	types.TypeTelegramAlert: `{
		"type": "object",
		"required": ["message"],
		"properties": {"message": {"type": "string", "minLength": 1}}
	}`,
	types.TypeHTTPRequest: `{
		"type": "object",
		"required": ["url"],
		"properties": {"url": {"type": "string", "minLength": 1}}
	}`,
	types.TypeDelay: `{
		"type": "object",
		"properties": {
			"delayValue": {"type": "number", "minimum": 0},
			"delayUnit": {"type": "string", "enum": ["seconds", "minutes", "hours"]},
			"delayMs": {"type": "number", "minimum": 0}
		}
	}`,
}

// SchemaValidationMiddleware rejects a node whose data bag fails its
// registered JSON Schema before any handler or gateway call runs.
type SchemaValidationMiddleware struct {
	schemas map[types.NodeType]*gojsonschema.Schema
}

// NewSchemaValidationMiddleware compiles every entry in nodeSchemas once,
// at startup, rather than on every node execution. A malformed schema
// literal is a programmer error, so MustCompile-style panics here are
// intentional.
func NewSchemaValidationMiddleware() *SchemaValidationMiddleware {
	m := &SchemaValidationMiddleware{schemas: make(map[types.NodeType]*gojsonschema.Schema, len(nodeSchemas))}
	for nodeType, raw := range nodeSchemas {
		schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(raw))
		if err != nil {
			panic(fmt.Sprintf("middleware: invalid built-in schema for node type %q: %v", nodeType, err))
		}
		m.schemas[nodeType] = schema
	}
	return m
}

func (m *SchemaValidationMiddleware) Process(ec *handlers.ExecContext, node types.Node, next Handler) (interface{}, error) {
	schema, ok := m.schemas[node.Type]
	if !ok {
		return next(ec, node)
	}

	result, err := schema.Validate(gojsonschema.NewGoLoader(map[string]interface{}(node.Data)))
	if err != nil {
		return nil, fmt.Errorf("node %s: schema validation error: %w", node.ID, err)
	}
	if !result.Valid() {
		return nil, fmt.Errorf("node %s (%s): %s", node.ID, node.Type, result.Errors()[0].String())
	}

	return next(ec, node)
}

func (m *SchemaValidationMiddleware) Name() string {
	return "SchemaValidation"
}
