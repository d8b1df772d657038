package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/openalgoflow/engine/pkg/expression"
	"github.com/openalgoflow/engine/pkg/types"
)

// MathExpressionHandler implements the mathExpression action node,
// evaluating a restricted arithmetic expression and storing the result
// under the node's configured output variable (default "result").
type MathExpressionHandler struct{}

func (MathExpressionHandler) Type() types.NodeType { return types.TypeMathExpression }

func (MathExpressionHandler) Execute(ec *ExecContext, node types.Node) (interface{}, error) {
	d := interpolated(ec, node)
	expr := strField(d, "expression", "")
	if expr == "" {
		return nil, fmt.Errorf("mathExpression: expression is required")
	}
	result, err := expression.Eval(expr)
	if err != nil {
		return nil, fmt.Errorf("mathExpression: %w", err)
	}
	outputVar := strField(d, "outputVariable", strField(d, "variable", "result"))
	ec.Vars.Set(outputVar, result)
	return map[string]interface{}{"expression": expr, "result": result, "outputVariable": outputVar}, nil
}

// VariableHandler implements the variable control node: a small
// variable-manipulation mini-language (set/get/arithmetic/append/json)
// keyed by an "operation" field, defaulting to "set".
type VariableHandler struct{}

func (VariableHandler) Type() types.NodeType { return types.TypeVariable }

func (VariableHandler) Execute(ec *ExecContext, node types.Node) (interface{}, error) {
	d := interpolated(ec, node)
	varName := strField(d, "variableName", strField(d, "name", ""))
	operation := strField(d, "operation", "set")
	varValue := d["value"]
	sourceVar := strField(d, "sourceVariable", "")

	switch operation {
	case "set":
		if s, ok := varValue.(string); ok {
			trimmed := strings.TrimSpace(s)
			if strings.HasPrefix(trimmed, "{") || strings.HasPrefix(trimmed, "[") {
				var parsed interface{}
				if err := json.Unmarshal([]byte(trimmed), &parsed); err == nil {
					varValue = parsed
				}
			}
		}
		ec.Vars.Set(varName, varValue)

	case "get":
		sourceValue, _ := ec.Vars.Get(sourceVar)
		if varName != "" {
			ec.Vars.Set(varName, sourceValue)
		}
		return map[string]interface{}{"variable": varName, "value": sourceValue}, nil

	case "add", "subtract", "multiply", "divide":
		current, _ := ec.Vars.GetFloat(varName)
		operandDefault := 0.0
		if operation == "multiply" || operation == "divide" {
			operandDefault = 1.0
		}
		operand := operandDefault
		if f, ok := toFloat(varValue); ok {
			operand = f
		}

		var result float64
		switch operation {
		case "add":
			result = current + operand
		case "subtract":
			result = current - operand
		case "multiply":
			result = current * operand
		case "divide":
			if operand == 0 {
				ec.Logger.WithNodeID(node.ID).Error("variable: division by zero")
				return map[string]interface{}{"status": "error", "message": "Division by zero"}, nil
			}
			result = current / operand
		}
		ec.Vars.Set(varName, result)
		varValue = result

	case "increment":
		current, _ := ec.Vars.GetFloat(varName)
		result := current + 1
		ec.Vars.Set(varName, result)
		varValue = result

	case "decrement":
		current, _ := ec.Vars.GetFloat(varName)
		result := current - 1
		ec.Vars.Set(varName, result)
		varValue = result

	case "append":
		current, _ := ec.Vars.Get(varName)
		result := fmt.Sprintf("%v", current) + fmt.Sprintf("%v", varValue)
		ec.Vars.Set(varName, result)
		varValue = result

	case "parse_json":
		var parsed interface{}
		if err := json.Unmarshal([]byte(fmt.Sprintf("%v", varValue)), &parsed); err != nil {
			return map[string]interface{}{"status": "error", "message": fmt.Sprintf("Invalid JSON: %v", err)}, nil
		}
		ec.Vars.Set(varName, parsed)
		varValue = parsed

	case "stringify":
		sourceValue, _ := ec.Vars.Get(sourceVar)
		encoded, err := json.Marshal(sourceValue)
		if err != nil {
			return map[string]interface{}{"status": "error", "message": err.Error()}, nil
		}
		ec.Vars.Set(varName, string(encoded))
		varValue = string(encoded)

	default:
		ec.Logger.WithNodeID(node.ID).Warnf("variable: unknown operation %q", operation)
		return map[string]interface{}{"status": "error", "message": fmt.Sprintf("Unknown operation: %s", operation)}, nil
	}

	return map[string]interface{}{"status": "success", "variable": varName, "value": varValue, "operation": operation}, nil
}

// DelayHandler implements the delay control node: pauses the execution
// for delayValue×delayUnit (seconds/minutes/hours), falling back to the
// legacy delayMs field (default 1000ms) when delayValue is absent.
type DelayHandler struct{}

func (DelayHandler) Type() types.NodeType { return types.TypeDelay }

func (DelayHandler) Execute(ec *ExecContext, node types.Node) (interface{}, error) {
	d := interpolated(ec, node)

	var seconds float64
	if _, ok := d["delayValue"]; ok {
		delayValue := floatField(d, "delayValue", 0)
		switch strField(d, "delayUnit", "seconds") {
		case "minutes":
			seconds = delayValue * 60
		case "hours":
			seconds = delayValue * 3600
		default:
			seconds = delayValue
		}
	} else {
		seconds = floatField(d, "delayMs", 1000) / 1000
	}

	if seconds <= 0 {
		return map[string]interface{}{"message": "Waited 0s"}, nil
	}
	timer := time.NewTimer(time.Duration(seconds * float64(time.Second)))
	defer timer.Stop()
	select {
	case <-timer.C:
		return map[string]interface{}{"message": fmt.Sprintf("Waited %.3fs", seconds)}, nil
	case <-ec.Ctx.Done():
		return nil, ec.Ctx.Err()
	}
}

// HTTPRequestHandler implements the httpRequest action node: an arbitrary
// outbound HTTP call, the one node type that leaves the gateway's
// trusted host, so every URL is validated against the configured SSRF
// policy before the request is made.
type HTTPRequestHandler struct{}

func (HTTPRequestHandler) Type() types.NodeType { return types.TypeHTTPRequest }

func (h HTTPRequestHandler) Execute(ec *ExecContext, node types.Node) (interface{}, error) {
	d := interpolated(ec, node)
	if !ec.Config.AllowHTTP {
		return nil, fmt.Errorf("httpRequest: outbound HTTP requests are disabled by configuration")
	}
	url := strField(d, "url", "")
	if url == "" {
		return nil, fmt.Errorf("httpRequest: url is required")
	}
	if ec.SSRF != nil {
		if err := ec.SSRF.ValidateURL(url); err != nil {
			return nil, fmt.Errorf("httpRequest: %w", err)
		}
	}

	method := strings.ToUpper(strField(d, "method", "GET"))
	var body io.Reader
	if b := strField(d, "body", ""); b != "" {
		body = strings.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ec.Ctx, method, url, body)
	if err != nil {
		return nil, fmt.Errorf("httpRequest: build request: %w", err)
	}
	if headers, ok := d.GetMap("headers"); ok {
		for k, v := range headers {
			req.Header.Set(k, fmt.Sprintf("%v", v))
		}
	}

	client := &http.Client{Timeout: ec.Config.HTTPTimeout}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("httpRequest: request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, ec.Config.MaxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("httpRequest: read response: %w", err)
	}
	return map[string]interface{}{
		"status_code": resp.StatusCode,
		"body":        string(raw),
	}, nil
}
