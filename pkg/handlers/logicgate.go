package handlers

import "github.com/openalgoflow/engine/pkg/types"

// AndGateHandler implements the andGate node: true only if every incoming
// edge's source recorded a true condition result. With no recorded
// inputs at all it returns false, matching the boundary behavior of the
// conditional handlers it combines.
type AndGateHandler struct{}

func (AndGateHandler) Type() types.NodeType { return types.TypeAndGate }

func (AndGateHandler) Execute(ec *ExecContext, node types.Node) (interface{}, error) {
	inputs := incomingResults(ec, node.ID)
	result := len(inputs) > 0
	for _, v := range inputs {
		if !v {
			result = false
			break
		}
	}
	ec.Vars.SetConditionResult(node.ID, result)
	return map[string]interface{}{"condition": result, "inputs": inputs, "gate_type": "AND"}, nil
}

// OrGateHandler implements the orGate node: true if any incoming edge's
// source recorded a true condition result. With no recorded inputs it
// returns false.
type OrGateHandler struct{}

func (OrGateHandler) Type() types.NodeType { return types.TypeOrGate }

func (OrGateHandler) Execute(ec *ExecContext, node types.Node) (interface{}, error) {
	inputs := incomingResults(ec, node.ID)
	var result bool
	for _, v := range inputs {
		if v {
			result = true
			break
		}
	}
	ec.Vars.SetConditionResult(node.ID, result)
	return map[string]interface{}{"condition": result, "inputs": inputs, "gate_type": "OR"}, nil
}

// NotGateHandler implements the notGate node: negates its single input.
// With no recorded input it returns true; with more than one it only
// looks at the first, matching a gate meant to wrap one upstream
// condition.
type NotGateHandler struct{}

func (NotGateHandler) Type() types.NodeType { return types.TypeNotGate }

func (NotGateHandler) Execute(ec *ExecContext, node types.Node) (interface{}, error) {
	inputs := incomingResults(ec, node.ID)
	result := true
	if len(inputs) > 0 {
		result = !inputs[0]
	}
	ec.Vars.SetConditionResult(node.ID, result)
	return map[string]interface{}{"condition": result, "gate_type": "NOT"}, nil
}

func incomingResults(ec *ExecContext, nodeID string) []bool {
	if ec.IncomingConditionResults == nil {
		return nil
	}
	return ec.IncomingConditionResults(nodeID)
}
