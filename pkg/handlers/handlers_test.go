package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/openalgoflow/engine/pkg/config"
	"github.com/openalgoflow/engine/pkg/gateway"
	"github.com/openalgoflow/engine/pkg/logging"
	"github.com/openalgoflow/engine/pkg/security"
	"github.com/openalgoflow/engine/pkg/types"
	"github.com/openalgoflow/engine/pkg/wfcontext"
)

func newTestExecContext(t *testing.T, gw *gateway.Client) *ExecContext {
	t.Helper()
	return &ExecContext{
		Ctx:     context.Background(),
		Vars:    wfcontext.New(time.Date(2026, 7, 1, 9, 0, 0, 0, time.UTC)),
		Gateway: gw,
		Logger:  logging.New(logging.DefaultConfig()),
		Config:  config.Testing(),
		SSRF:    security.NewSSRFProtection(),
	}
}

func mockGateway(t *testing.T, handler http.HandlerFunc) *gateway.Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return gateway.New(srv.URL, "test-key", 2*time.Second)
}

func jsonOK(w http.ResponseWriter, data map[string]interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]interface{}{
		"status": "success",
		"data":   data,
	})
}

func TestRegisterAllHasNoDuplicates(t *testing.T) {
	r := RegisterAll()
	if _, ok := r.Get(types.TypePlaceOrder); !ok {
		t.Fatal("expected placeOrder handler registered")
	}
	if _, ok := r.Get(types.TypeAndGate); !ok {
		t.Fatal("expected andGate handler registered")
	}
}

func TestPlaceOrderHandlerRequiresSymbol(t *testing.T) {
	ec := newTestExecContext(t, mockGateway(t, func(w http.ResponseWriter, r *http.Request) {
		jsonOK(w, map[string]interface{}{"orderid": "123"})
	}))
	node := types.Node{ID: "n1", Type: types.TypePlaceOrder, Data: types.NodeData{}}
	if _, err := (PlaceOrderHandler{}).Execute(ec, node); err == nil {
		t.Fatal("expected error for missing symbol")
	}
}

func TestPlaceOrderHandlerSuccess(t *testing.T) {
	ec := newTestExecContext(t, mockGateway(t, func(w http.ResponseWriter, r *http.Request) {
		jsonOK(w, map[string]interface{}{"orderid": "123"})
	}))
	node := types.Node{ID: "n1", Type: types.TypePlaceOrder, Data: types.NodeData{
		"symbol": "RELIANCE", "exchange": "NSE", "action": "BUY", "quantity": float64(1),
	}}
	out, err := (PlaceOrderHandler{}).Execute(ec, node)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	env := out.(*gateway.Envelope)
	if env.Data["orderid"] != "123" {
		t.Fatalf("unexpected response: %+v", env)
	}
}

func TestMathExpressionHandlerStoresVariable(t *testing.T) {
	ec := newTestExecContext(t, nil)
	node := types.Node{ID: "n1", Type: types.TypeMathExpression, Data: types.NodeData{
		"expression": "2 * (3 + 4)",
		"variable":   "total",
	}}
	out, err := (MathExpressionHandler{}).Execute(ec, node)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m := out.(map[string]interface{})
	if m["result"].(float64) != 14 {
		t.Fatalf("expected 14, got %v", m["result"])
	}
	v, ok := ec.Vars.GetFloat("total")
	if !ok || v != 14 {
		t.Fatalf("expected variable 'total' == 14, got %v ok=%v", v, ok)
	}
}

func TestMathExpressionHandlerRejectsUnsafeInput(t *testing.T) {
	ec := newTestExecContext(t, nil)
	node := types.Node{ID: "n1", Type: types.TypeMathExpression, Data: types.NodeData{
		"expression": "__import__('os')",
	}}
	if _, err := (MathExpressionHandler{}).Execute(ec, node); err == nil {
		t.Fatal("expected rejection of non-arithmetic input")
	}
}

func TestVariableHandlerRoundTrip(t *testing.T) {
	ec := newTestExecContext(t, nil)
	node := types.Node{ID: "n1", Type: types.TypeVariable, Data: types.NodeData{
		"name": "symbol", "value": "NIFTY",
	}}
	if _, err := (VariableHandler{}).Execute(ec, node); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, ok := ec.Vars.Get("symbol")
	if !ok || v != "NIFTY" {
		t.Fatalf("expected symbol == NIFTY, got %v ok=%v", v, ok)
	}
}

func TestVariableHandlerSetAutoParsesJSON(t *testing.T) {
	ec := newTestExecContext(t, nil)
	node := types.Node{ID: "n1", Type: types.TypeVariable, Data: types.NodeData{
		"variableName": "legs", "value": `[1, 2, 3]`,
	}}
	if _, err := (VariableHandler{}).Execute(ec, node); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	v, ok := ec.Vars.Get("legs")
	if !ok {
		t.Fatal("expected legs to be set")
	}
	list, ok := v.([]interface{})
	if !ok || len(list) != 3 {
		t.Fatalf("expected a 3-element slice, got %#v", v)
	}
}

func TestVariableHandlerIncrementAndDecrement(t *testing.T) {
	ec := newTestExecContext(t, nil)
	ec.Vars.Set("count", float64(5))
	node := types.Node{ID: "n1", Type: types.TypeVariable, Data: types.NodeData{
		"variableName": "count", "operation": "increment",
	}}
	if _, err := (VariableHandler{}).Execute(ec, node); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, ok := ec.Vars.GetFloat("count"); !ok || v != 6 {
		t.Fatalf("expected count == 6, got %v ok=%v", v, ok)
	}

	node.Data["operation"] = "decrement"
	if _, err := (VariableHandler{}).Execute(ec, node); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v, ok := ec.Vars.GetFloat("count"); !ok || v != 5 {
		t.Fatalf("expected count == 5, got %v ok=%v", v, ok)
	}
}

func TestVariableHandlerDivideByZeroLeavesVariableUnchanged(t *testing.T) {
	ec := newTestExecContext(t, nil)
	ec.Vars.Set("balance", float64(100))
	node := types.Node{ID: "n1", Type: types.TypeVariable, Data: types.NodeData{
		"variableName": "balance", "operation": "divide", "value": float64(0),
	}}
	out, err := (VariableHandler{}).Execute(ec, node)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	m := out.(map[string]interface{})
	if m["status"] != "error" || m["message"] != "Division by zero" {
		t.Fatalf("expected a typed division-by-zero error, got %+v", m)
	}
	if v, ok := ec.Vars.GetFloat("balance"); !ok || v != 100 {
		t.Fatalf("expected balance to remain 100, got %v ok=%v", v, ok)
	}
}

func TestDelayHandlerRespectsContextCancellation(t *testing.T) {
	ec := newTestExecContext(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	ec.Ctx = ctx
	cancel()
	node := types.Node{ID: "n1", Type: types.TypeDelay, Data: types.NodeData{"delayValue": float64(5), "delayUnit": "seconds"}}
	if _, err := (DelayHandler{}).Execute(ec, node); err == nil {
		t.Fatal("expected error from cancelled context")
	}
}

func TestDelayHandlerConvertsMinutesToSeconds(t *testing.T) {
	ec := newTestExecContext(t, nil)
	node := types.Node{ID: "n1", Type: types.TypeDelay, Data: types.NodeData{"delayValue": float64(0.001), "delayUnit": "minutes"}}
	out, err := (DelayHandler{}).Execute(ec, node)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if msg := out.(map[string]interface{})["message"]; msg != "Waited 0.060s" {
		t.Fatalf("expected 0.001 minutes converted to 0.060s, got %v", msg)
	}
}

func TestDelayHandlerFallsBackToLegacyDelayMs(t *testing.T) {
	ec := newTestExecContext(t, nil)
	node := types.Node{ID: "n1", Type: types.TypeDelay, Data: types.NodeData{"delayMs": float64(0)}}
	out, err := (DelayHandler{}).Execute(ec, node)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.(map[string]interface{})["message"] != "Waited 0s" {
		t.Fatalf("expected an immediate zero-wait result, got %+v", out)
	}
}

func TestPriceConditionHandlerRecordsResult(t *testing.T) {
	ec := newTestExecContext(t, mockGateway(t, func(w http.ResponseWriter, r *http.Request) {
		jsonOK(w, map[string]interface{}{"ltp": float64(150)})
	}))
	node := types.Node{ID: "cond1", Type: types.TypePriceCondition, Data: types.NodeData{
		"symbol": "RELIANCE", "operator": "gt", "threshold": float64(100),
	}}
	out, err := (PriceConditionHandler{}).Execute(ec, node)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.(map[string]interface{})["condition"].(bool) {
		t.Fatal("expected true condition")
	}
	result, ok := ec.Vars.ConditionResult("cond1")
	if !ok || !result {
		t.Fatal("expected condition result recorded as true")
	}
}

func TestFundCheckHandlerRecordsResult(t *testing.T) {
	ec := newTestExecContext(t, mockGateway(t, func(w http.ResponseWriter, r *http.Request) {
		jsonOK(w, map[string]interface{}{"availablecash": float64(5000)})
	}))
	node := types.Node{ID: "cond1", Type: types.TypeFundCheck, Data: types.NodeData{
		"operator": "gte", "threshold": float64(10000),
	}}
	out, err := (FundCheckHandler{}).Execute(ec, node)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.(map[string]interface{})["condition"].(bool) {
		t.Fatal("expected false condition: 5000 is not >= 10000")
	}
	result, ok := ec.Vars.ConditionResult("cond1")
	if !ok || result {
		t.Fatal("expected condition result recorded as false")
	}
}

func TestTimeConditionHandlerEqualsOperatorComparesMinute(t *testing.T) {
	ec := newTestExecContext(t, nil) // clock fixed at 09:00:00 UTC
	node := types.Node{ID: "cond1", Type: types.TypeTimeCondition, Data: types.NodeData{
		"targetTime": "09:00", "operator": "==",
	}}
	out, err := (TimeConditionHandler{}).Execute(ec, node)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.(map[string]interface{})["condition"].(bool) {
		t.Fatal("expected true: current time matches target hour/minute")
	}
}

func TestTimeWindowHandlerInsideWindow(t *testing.T) {
	ec := newTestExecContext(t, nil) // clock fixed at 09:00:00 UTC
	node := types.Node{ID: "cond1", Type: types.TypeTimeWindow, Data: types.NodeData{
		"startTime": "08:00", "endTime": "10:00",
	}}
	out, err := (TimeWindowHandler{}).Execute(ec, node)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !out.(map[string]interface{})["condition"].(bool) {
		t.Fatal("expected true: 09:00 falls within [08:00, 10:00]")
	}
}

func TestAndGateHandlerCombinesIncomingEdges(t *testing.T) {
	ec := newTestExecContext(t, nil)
	ec.Vars.SetConditionResult("c1", true)
	ec.Vars.SetConditionResult("c2", false)
	ec.IncomingConditionResults = func(nodeID string) []bool {
		r1, _ := ec.Vars.ConditionResult("c1")
		r2, _ := ec.Vars.ConditionResult("c2")
		return []bool{r1, r2}
	}
	node := types.Node{ID: "gate1", Type: types.TypeAndGate, Data: types.NodeData{}}
	out, err := (AndGateHandler{}).Execute(ec, node)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.(map[string]interface{})["condition"].(bool) {
		t.Fatal("expected AND(true,false) == false")
	}
}

func TestAndGateHandlerNoIncomingEdgesReturnsFalse(t *testing.T) {
	ec := newTestExecContext(t, nil)
	ec.IncomingConditionResults = func(nodeID string) []bool { return nil }
	node := types.Node{ID: "gate1", Type: types.TypeAndGate, Data: types.NodeData{}}
	out, err := (AndGateHandler{}).Execute(ec, node)
	if err != nil {
		t.Fatalf("unexpected error for gate with no incoming condition results: %v", err)
	}
	if out.(map[string]interface{})["condition"].(bool) {
		t.Fatal("expected AND with no inputs to return false")
	}
}

func TestOrGateHandlerNoIncomingEdgesReturnsFalse(t *testing.T) {
	ec := newTestExecContext(t, nil)
	ec.IncomingConditionResults = func(nodeID string) []bool { return nil }
	node := types.Node{ID: "gate1", Type: types.TypeOrGate, Data: types.NodeData{}}
	out, err := (OrGateHandler{}).Execute(ec, node)
	if err != nil {
		t.Fatalf("unexpected error for gate with no incoming condition results: %v", err)
	}
	if out.(map[string]interface{})["condition"].(bool) {
		t.Fatal("expected OR with no inputs to return false")
	}
}

func TestNotGateHandlerNoIncomingEdgesReturnsTrue(t *testing.T) {
	ec := newTestExecContext(t, nil)
	ec.IncomingConditionResults = func(nodeID string) []bool { return nil }
	node := types.Node{ID: "gate1", Type: types.TypeNotGate, Data: types.NodeData{}}
	out, err := (NotGateHandler{}).Execute(ec, node)
	if err != nil {
		t.Fatalf("unexpected error for gate with no incoming condition results: %v", err)
	}
	if !out.(map[string]interface{})["condition"].(bool) {
		t.Fatal("expected NOT with no inputs to return true")
	}
}

func TestOptionsMultiOrderHandlerUnknownStrategy(t *testing.T) {
	ec := newTestExecContext(t, mockGateway(t, func(w http.ResponseWriter, r *http.Request) {
		jsonOK(w, map[string]interface{}{"orderid": "ignored"})
	}))
	node := types.Node{ID: "n1", Type: types.TypeOptionsMultiOrder, Data: types.NodeData{
		"underlying": "NIFTY", "strategy": "not_a_real_strategy", "expiryType": "10-JUL-26",
	}}
	if _, err := (OptionsMultiOrderHandler{}).Execute(ec, node); err == nil {
		t.Fatal("expected error for unknown strategy")
	}
}

func TestOptionsMultiOrderHandlerStraddleSynthesizesLegs(t *testing.T) {
	var captured map[string]interface{}
	ec := newTestExecContext(t, mockGateway(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&captured)
		jsonOK(w, map[string]interface{}{"orderid": "456"})
	}))
	node := types.Node{ID: "n1", Type: types.TypeOptionsMultiOrder, Data: types.NodeData{
		"underlying": "NIFTY", "strategy": "straddle", "action": "SELL", "expiryType": "10-JUL-26",
	}}
	if _, err := (OptionsMultiOrderHandler{}).Execute(ec, node); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	legs, ok := captured["legs"].([]interface{})
	if !ok || len(legs) != 2 {
		t.Fatalf("expected a synthesized 2-leg straddle, got %+v", captured["legs"])
	}
}

func TestOptionsMultiOrderHandlerExplicitLegsFallback(t *testing.T) {
	var captured map[string]interface{}
	ec := newTestExecContext(t, mockGateway(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&captured)
		jsonOK(w, map[string]interface{}{"orderid": "789"})
	}))
	node := types.Node{ID: "n1", Type: types.TypeOptionsMultiOrder, Data: types.NodeData{
		"underlying": "NIFTY", "expiryType": "10-JUL-26",
		"legs": []interface{}{
			map[string]interface{}{"optionType": "CE", "offset": "ATM", "action": "SELL"},
			map[string]interface{}{"optionType": "PE", "offset": "ATM", "action": "SELL"},
		},
	}}
	if _, err := (OptionsMultiOrderHandler{}).Execute(ec, node); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	legs, ok := captured["legs"].([]interface{})
	if !ok || len(legs) != 2 {
		t.Fatalf("expected the 2 explicit legs to pass through, got %+v", captured["legs"])
	}
}

func TestOptionsMultiOrderHandlerRequiresStrategyOrLegs(t *testing.T) {
	ec := newTestExecContext(t, nil)
	node := types.Node{ID: "n1", Type: types.TypeOptionsMultiOrder, Data: types.NodeData{
		"underlying": "NIFTY", "expiryType": "10-JUL-26",
	}}
	if _, err := (OptionsMultiOrderHandler{}).Execute(ec, node); err == nil {
		t.Fatal("expected error when neither strategy nor legs is given")
	}
}

func TestLogHandlerReturnsMessage(t *testing.T) {
	ec := newTestExecContext(t, nil)
	node := types.Node{ID: "n1", Type: types.TypeLog, Data: types.NodeData{
		"message": "entering trade window", "level": "info",
	}}
	out, err := (LogHandler{}).Execute(ec, node)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.(map[string]interface{})["message"] != "entering trade window" {
		t.Fatalf("unexpected output: %+v", out)
	}
}

func TestWaitUntilHandlerReturnsImmediatelyWhenPastTarget(t *testing.T) {
	ec := newTestExecContext(t, nil)
	node := types.Node{ID: "n1", Type: types.TypeWaitUntil, Data: types.NodeData{
		"targetTime": "00:00",
	}}
	out, err := (WaitUntilHandler{}).Execute(ec, node)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.(map[string]interface{})["waited"].(bool) {
		t.Fatal("expected waited=false when already past the target time")
	}
}

func TestHTTPRequestHandlerBlockedByDefault(t *testing.T) {
	ec := newTestExecContext(t, nil)
	ec.Config = config.Production()
	node := types.Node{ID: "n1", Type: types.TypeHTTPRequest, Data: types.NodeData{"url": "https://example.com"}}
	if _, err := (HTTPRequestHandler{}).Execute(ec, node); err == nil {
		t.Fatal("expected httpRequest to be blocked when AllowHTTP is false")
	}
}

func TestHTTPRequestHandlerBlocksPrivateIPs(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	}))
	t.Cleanup(srv.Close)

	ec := newTestExecContext(t, nil)
	ec.Config = config.Development() // AllowHTTP true (AllowPrivateIPs too); the default SSRF policy below still blocks loopback
	ec.SSRF = security.NewSSRFProtection()
	node := types.Node{ID: "n1", Type: types.TypeHTTPRequest, Data: types.NodeData{"url": srv.URL}}
	if _, err := (HTTPRequestHandler{}).Execute(ec, node); err == nil {
		t.Fatal("expected loopback httptest server URL to be blocked by default SSRF policy")
	}
}
