package handlers

import (
	"fmt"

	"github.com/openalgoflow/engine/pkg/gateway"
	"github.com/openalgoflow/engine/pkg/types"
)

// resolveExpiry turns a node's expiry field into an API-formatted date. A
// literal date ("10-JUL-25") passes straight to FormatExpiryForAPI; a
// relative keyword (current_week/next_week/current_month/next_month) is
// resolved against a fresh expiry query to the gateway.
func resolveExpiry(ec *ExecContext, underlying, exchange, expiryField string) (string, error) {
	switch expiryField {
	case "current_week", "next_week", "current_month", "next_month":
		env, err := ec.Gateway.Expiry(ec.Ctx, underlying, exchange, "options")
		if err != nil {
			return "", fmt.Errorf("resolve expiry: %w", err)
		}
		list, err := gateway.ExpiryListFromEnvelope(env)
		if err != nil {
			return "", err
		}
		resolved, ok := gateway.ResolveExpiryDate(list, expiryField, ec.Vars.Now())
		if !ok {
			return "", fmt.Errorf("resolve expiry: no %s expiry available for %s", expiryField, underlying)
		}
		return resolved, nil
	default:
		return gateway.FormatExpiryForAPI(expiryField), nil
	}
}

// OptionsOrderHandler implements the optionsOrder action node: a single
// options leg identified by underlying/expiry/offset/type instead of an
// explicit trading symbol.
type OptionsOrderHandler struct{}

func (OptionsOrderHandler) Type() types.NodeType { return types.TypeOptionsOrder }

func (OptionsOrderHandler) Execute(ec *ExecContext, node types.Node) (interface{}, error) {
	d := interpolated(ec, node)
	underlying := strField(d, "underlying", "")
	if underlying == "" {
		return nil, fmt.Errorf("optionsOrder: underlying is required")
	}
	_, foExchange := gateway.ExchangePair(underlying)
	exchange := strField(d, "exchange", foExchange)

	expiryDate, err := resolveExpiry(ec, underlying, exchange, strField(d, "expiry", "current_week"))
	if err != nil {
		return nil, err
	}

	return ec.Gateway.OptionsOrder(ec.Ctx, gateway.OptionsOrderParams{
		Underlying: underlying,
		Exchange:   exchange,
		ExpiryDate: expiryDate,
		Offset:     strField(d, "offset", "ATM"),
		OptionType: strField(d, "optionType", "CE"),
		Action:     strField(d, "action", "BUY"),
		Quantity:   intField(d, "quantity", gateway.LotSize(underlying)),
		PriceType:  strField(d, "priceType", "MARKET"),
		Product:    strField(d, "product", "NRML"),
		SplitSize:  intField(d, "splitSize", 0),
		Strategy:   strField(d, "strategy", ""),
	})
}

// OptionsMultiOrderHandler implements the optionsMultiOrder action node.
// When the node carries a strategy tag (straddle, strangle, iron_condor,
// ...), it synthesizes the leg list via gateway.BuildStrategyLegs; an
// explicit "legs" array is only consulted when no strategy is given, for
// callers that want to hand-assemble a custom combination.
type OptionsMultiOrderHandler struct{}

func (OptionsMultiOrderHandler) Type() types.NodeType { return types.TypeOptionsMultiOrder }

func (OptionsMultiOrderHandler) Execute(ec *ExecContext, node types.Node) (interface{}, error) {
	d := interpolated(ec, node)
	underlying := strField(d, "underlying", "NIFTY")
	_, foExchange := gateway.ExchangePair(underlying)
	exchange := strField(d, "exchange", foExchange)

	expiryDate, err := resolveExpiry(ec, underlying, exchange, strField(d, "expiryType", "current_week"))
	if err != nil {
		return nil, err
	}

	action := strField(d, "action", "SELL")
	product := strField(d, "product", "NRML")
	priceType := strField(d, "priceType", "MARKET")
	quantity := intField(d, "quantity", 1)
	totalQuantity := quantity * gateway.LotSize(underlying)

	strategy := strField(d, "strategy", "")
	var legs []gateway.Leg
	if strategy != "" {
		legs = gateway.BuildStrategyLegs(strategy, action, totalQuantity, expiryDate, product, priceType)
		if legs == nil {
			return nil, fmt.Errorf("optionsMultiOrder: unknown strategy %q", strategy)
		}
	} else {
		rawLegs, _ := d.GetSlice("legs")
		for _, rl := range rawLegs {
			m, ok := rl.(map[string]interface{})
			if !ok {
				continue
			}
			nd := types.NodeData(m)
			legs = append(legs, gateway.Leg{
				OptionType: strField(nd, "optionType", "CE"),
				Offset:     strField(nd, "offset", "ATM"),
				Action:     strField(nd, "action", action),
				Quantity:   intField(nd, "quantity", totalQuantity),
			})
		}
		if len(legs) == 0 {
			return nil, fmt.Errorf("optionsMultiOrder: strategy or an explicit legs array is required")
		}
	}

	return ec.Gateway.OptionsMultiOrder(ec.Ctx, gateway.OptionsMultiOrderParams{
		Underlying: underlying,
		Exchange:   exchange,
		Legs:       legs,
		ExpiryDate: expiryDate,
		Product:    product,
		PriceType:  priceType,
		Strategy:   strategy,
	})
}
