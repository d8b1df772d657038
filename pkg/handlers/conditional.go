package handlers

import (
	"fmt"
	"strconv"

	"github.com/openalgoflow/engine/pkg/types"
)

func toFloat(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case string:
		f, err := strconv.ParseFloat(n, 64)
		return f, err == nil
	default:
		return 0, false
	}
}

// evaluateCondition applies one of the six comparison operators the
// conditional handlers share (gt/gte/lt/lte/eq/neq) between a measured
// value and a threshold.
func evaluateCondition(value float64, operator string, threshold float64) bool {
	switch operator {
	case "gt":
		return value > threshold
	case "gte":
		return value >= threshold
	case "lt":
		return value < threshold
	case "lte":
		return value <= threshold
	case "eq":
		return value == threshold
	case "neq":
		return value != threshold
	default:
		return false
	}
}

func dataFloat(m map[string]interface{}, key string, def float64) float64 {
	if m == nil {
		return def
	}
	f, ok := toFloat(m[key])
	if !ok {
		return def
	}
	return f
}

// PositionCheckHandler implements the positionCheck conditional node:
// compares the open quantity for one symbol against a threshold.
type PositionCheckHandler struct{}

func (PositionCheckHandler) Type() types.NodeType { return types.TypePositionCheck }

func (PositionCheckHandler) Execute(ec *ExecContext, node types.Node) (interface{}, error) {
	d := interpolated(ec, node)
	symbol := strField(d, "symbol", "")
	exchange := strField(d, "exchange", "NSE")
	product := strField(d, "product", "MIS")
	operator := strField(d, "operator", "gt")
	threshold := floatField(d, "threshold", 0)

	env, err := ec.Gateway.GetOpenPosition(ec.Ctx, symbol, exchange, product)
	if err != nil {
		return nil, fmt.Errorf("positionCheck: %w", err)
	}
	quantity := dataFloat(env.Data, "quantity", 0)
	condition := evaluateCondition(quantity, operator, threshold)
	ec.Vars.SetConditionResult(node.ID, condition)
	return map[string]interface{}{"condition": condition, "quantity": quantity}, nil
}

// FundCheckHandler implements the fundCheck conditional node: compares
// available cash margin against a threshold.
type FundCheckHandler struct{}

func (FundCheckHandler) Type() types.NodeType { return types.TypeFundCheck }

func (FundCheckHandler) Execute(ec *ExecContext, node types.Node) (interface{}, error) {
	d := interpolated(ec, node)
	operator := strField(d, "operator", "gt")
	threshold := floatField(d, "threshold", 0)

	env, err := ec.Gateway.Funds(ec.Ctx)
	if err != nil {
		return nil, fmt.Errorf("fundCheck: %w", err)
	}
	available := dataFloat(env.Data, "availablecash", 0)
	condition := evaluateCondition(available, operator, threshold)
	ec.Vars.SetConditionResult(node.ID, condition)
	return map[string]interface{}{"condition": condition, "available": available}, nil
}

// PriceConditionHandler implements the priceCondition conditional node:
// compares a symbol's last traded price against a threshold.
type PriceConditionHandler struct{}

func (PriceConditionHandler) Type() types.NodeType { return types.TypePriceCondition }

func (PriceConditionHandler) Execute(ec *ExecContext, node types.Node) (interface{}, error) {
	d := interpolated(ec, node)
	symbol := strField(d, "symbol", "")
	exchange := strField(d, "exchange", "NSE")
	operator := strField(d, "operator", "gt")
	threshold := floatField(d, "threshold", 0)

	env, err := ec.Gateway.Quote(ec.Ctx, symbol, exchange)
	if err != nil {
		return nil, fmt.Errorf("priceCondition: %w", err)
	}
	ltp := dataFloat(env.Data, "ltp", 0)
	condition := evaluateCondition(ltp, operator, threshold)
	ec.Vars.SetConditionResult(node.ID, condition)
	return map[string]interface{}{"condition": condition, "ltp": ltp}, nil
}

// PriceAlertHandler implements the priceAlert conditional node: a richer
// price test than priceCondition, supporting threshold crossings,
// channel entry/exit and percentage moves against the previous close.
type PriceAlertHandler struct{}

func (PriceAlertHandler) Type() types.NodeType { return types.TypePriceAlert }

func (PriceAlertHandler) Execute(ec *ExecContext, node types.Node) (interface{}, error) {
	d := interpolated(ec, node)
	symbol := strField(d, "symbol", "")
	if symbol == "" {
		return nil, fmt.Errorf("priceAlert: symbol is required")
	}
	exchange := strField(d, "exchange", "NSE")
	conditionType := strField(d, "condition", "greater_than")
	price := floatField(d, "price", 0)
	priceLower := floatField(d, "priceLower", 0)
	priceUpper := floatField(d, "priceUpper", 0)
	percentage := floatField(d, "percentage", 0)

	env, err := ec.Gateway.Quote(ec.Ctx, symbol, exchange)
	if err != nil {
		return nil, fmt.Errorf("priceAlert: %w", err)
	}
	ltp := dataFloat(env.Data, "ltp", 0)
	prevClose := dataFloat(env.Data, "prev_close", ltp)

	var condition bool
	switch conditionType {
	case "greater_than":
		condition = ltp > price
	case "less_than":
		condition = ltp < price
	case "crossing":
		tolerance := price * 0.001
		diff := ltp - price
		if diff < 0 {
			diff = -diff
		}
		condition = diff <= tolerance
	case "crossing_up":
		condition = ltp > price
	case "crossing_down":
		condition = ltp < price
	case "entering_channel", "inside_channel":
		condition = ltp >= priceLower && ltp <= priceUpper
	case "exiting_channel", "outside_channel":
		condition = ltp < priceLower || ltp > priceUpper
	case "moving_up":
		condition = ltp > prevClose
	case "moving_down":
		condition = ltp < prevClose
	case "moving_up_percent":
		if prevClose > 0 {
			changePercent := (ltp - prevClose) / prevClose * 100
			condition = changePercent >= percentage
		}
	case "moving_down_percent":
		if prevClose > 0 {
			changePercent := (prevClose - ltp) / prevClose * 100
			condition = changePercent >= percentage
		}
	default:
		ec.Logger.WithNodeID(node.ID).Warnf("priceAlert: unknown condition type %q", conditionType)
	}

	ec.Vars.SetConditionResult(node.ID, condition)
	storeOutput(ec, d, env.Data)
	return map[string]interface{}{"condition": condition, "ltp": ltp, "prev_close": prevClose}, nil
}

// TimeWindowHandler implements the timeWindow conditional node: is the
// current wall-clock time within [startTime, endTime] inclusive.
type TimeWindowHandler struct{}

func (TimeWindowHandler) Type() types.NodeType { return types.TypeTimeWindow }

func (TimeWindowHandler) Execute(ec *ExecContext, node types.Node) (interface{}, error) {
	d := interpolated(ec, node)
	startStr := strField(d, "startTime", "09:15")
	endStr := strField(d, "endTime", "15:30")

	startSec := secondsSinceMidnight(parseTimeString(startStr, 9, 15))
	endSec := secondsSinceMidnight(parseTimeString(endStr, 15, 30))
	nowSec := secondsSinceMidnight(clockParts(ec.Vars.Now()))

	condition := nowSec >= startSec && nowSec <= endSec
	ec.Vars.SetConditionResult(node.ID, condition)
	return map[string]interface{}{"condition": condition, "current_time": ec.Vars.Now().Format("15:04:05")}, nil
}

// TimeConditionHandler implements the timeCondition conditional node:
// compares the current wall-clock time against a target time with an
// explicit comparison operator instead of a fixed window.
type TimeConditionHandler struct{}

func (TimeConditionHandler) Type() types.NodeType { return types.TypeTimeCondition }

func (TimeConditionHandler) Execute(ec *ExecContext, node types.Node) (interface{}, error) {
	d := interpolated(ec, node)
	targetStr := strField(d, "targetTime", "09:30")
	operator := strField(d, "operator", ">=")
	conditionType := strField(d, "conditionType", "entry")

	targetH, targetM, targetS := parseTimeString(targetStr, 9, 30)
	nowH, nowM, nowS := clockParts(ec.Vars.Now())

	targetSeconds := targetH*3600 + targetM*60 + targetS
	nowSeconds := nowH*3600 + nowM*60 + nowS

	var condition bool
	if operator == "==" {
		condition = nowH == targetH && nowM == targetM
	} else {
		switch operator {
		case ">=":
			condition = nowSeconds >= targetSeconds
		case "<=":
			condition = nowSeconds <= targetSeconds
		case ">":
			condition = nowSeconds > targetSeconds
		case "<":
			condition = nowSeconds < targetSeconds
		}
	}

	ec.Vars.SetConditionResult(node.ID, condition)
	return map[string]interface{}{
		"condition":      condition,
		"condition_type": conditionType,
		"current_time":   nowSeconds,
		"target_time":    targetSeconds,
		"operator":       operator,
	}, nil
}

func secondsSinceMidnight(h, m, s int) int {
	return h*3600 + m*60 + s
}

func clockParts(t interface{ Clock() (int, int, int) }) (int, int, int) {
	return t.Clock()
}

// parseTimeString defensively parses an "HH:MM[:SS]" string, falling
// back to defaultHour/defaultMinute (and zero seconds) on anything that
// doesn't look like a time: empty string, non-numeric parts, or out of
// range components get clamped rather than rejected.
func parseTimeString(s string, defaultHour, defaultMinute int) (int, int, int) {
	if s == "" {
		return defaultHour, defaultMinute, 0
	}
	parts := splitTime(s)
	hour := defaultHour
	minute := defaultMinute
	second := 0
	if len(parts) > 0 {
		if v, ok := atoiDigits(parts[0]); ok {
			hour = v
		}
	}
	if len(parts) > 1 {
		if v, ok := atoiDigits(parts[1]); ok {
			minute = v
		}
	}
	if len(parts) > 2 {
		if v, ok := atoiDigits(parts[2]); ok {
			second = v
		}
	}
	return clamp(hour, 0, 23), clamp(minute, 0, 59), clamp(second, 0, 59)
}

func splitTime(s string) []string {
	var out []string
	cur := ""
	for _, r := range s {
		if r == ':' {
			out = append(out, cur)
			cur = ""
			continue
		}
		cur += string(r)
	}
	out = append(out, cur)
	return out
}

func atoiDigits(s string) (int, bool) {
	if s == "" {
		return 0, false
	}
	n := 0
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
		n = n*10 + int(r-'0')
	}
	return n, true
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
