package handlers

import (
	"fmt"

	"github.com/openalgoflow/engine/pkg/gateway"
	"github.com/openalgoflow/engine/pkg/types"
)

// subscribeOnce waits for a live tick up to the configured streaming
// timeout, falling back to fallback (the synchronous REST query matching
// this subscribe mode) if no tick arrives in time. Workflows must not
// hang indefinitely on a market data feed that never ticks (illiquid
// symbol, closed market, disconnected feed).
func subscribeOnce(ec *ExecContext, node types.Node, symbol, exchange, mode string, fallback func() (*gateway.Envelope, error)) (interface{}, error) {
	if ec.Stream != nil {
		tick, ok, err := ec.Stream.WaitForTick(ec.Ctx, symbol, exchange, mode, ec.Config.StreamingTimeout)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", mode, err)
		}
		if ok {
			return map[string]interface{}{
				"source":   "stream",
				"symbol":   tick.Symbol,
				"mode":     tick.Mode,
				"data":     tick.Data,
				"fallback": false,
			}, nil
		}
		ec.Logger.WithNodeID(node.ID).Warnf("%s: no tick for %s/%s within %s, falling back to REST", mode, symbol, exchange, ec.Config.StreamingTimeout)
	}

	env, err := fallback()
	if err != nil {
		return nil, fmt.Errorf("%s: fallback query failed: %w", mode, err)
	}
	return map[string]interface{}{
		"source":   "fallback",
		"symbol":   symbol,
		"data":     env.Data,
		"fallback": true,
	}, nil
}

// SubscribeLtpHandler implements the subscribeLtp streaming node,
// falling back to a quote query (for its ltp field) on timeout.
type SubscribeLtpHandler struct{}

func (SubscribeLtpHandler) Type() types.NodeType { return types.TypeSubscribeLtp }

func (SubscribeLtpHandler) Execute(ec *ExecContext, node types.Node) (interface{}, error) {
	d := interpolated(ec, node)
	symbol := strField(d, "symbol", "")
	if symbol == "" {
		return nil, fmt.Errorf("subscribeLtp: symbol is required")
	}
	exchange := strField(d, "exchange", "NSE")
	result, err := subscribeOnce(ec, node, symbol, exchange, "ltp", func() (*gateway.Envelope, error) {
		return ec.Gateway.Quote(ec.Ctx, symbol, exchange)
	})
	if err != nil {
		return nil, err
	}
	if m, ok := result.(map[string]interface{}); ok {
		storeOutput(ec, d, m["data"])
	}
	return result, nil
}

// SubscribeQuoteHandler implements the subscribeQuote streaming node,
// falling back to a quote query on timeout.
type SubscribeQuoteHandler struct{}

func (SubscribeQuoteHandler) Type() types.NodeType { return types.TypeSubscribeQuote }

func (SubscribeQuoteHandler) Execute(ec *ExecContext, node types.Node) (interface{}, error) {
	d := interpolated(ec, node)
	symbol := strField(d, "symbol", "")
	if symbol == "" {
		return nil, fmt.Errorf("subscribeQuote: symbol is required")
	}
	exchange := strField(d, "exchange", "NSE")
	result, err := subscribeOnce(ec, node, symbol, exchange, "quote", func() (*gateway.Envelope, error) {
		return ec.Gateway.Quote(ec.Ctx, symbol, exchange)
	})
	if err != nil {
		return nil, err
	}
	if m, ok := result.(map[string]interface{}); ok {
		storeOutput(ec, d, m["data"])
	}
	return result, nil
}

// SubscribeDepthHandler implements the subscribeDepth streaming node,
// falling back to a market depth query (not a quote query) on timeout.
type SubscribeDepthHandler struct{}

func (SubscribeDepthHandler) Type() types.NodeType { return types.TypeSubscribeDepth }

func (SubscribeDepthHandler) Execute(ec *ExecContext, node types.Node) (interface{}, error) {
	d := interpolated(ec, node)
	symbol := strField(d, "symbol", "")
	if symbol == "" {
		return nil, fmt.Errorf("subscribeDepth: symbol is required")
	}
	exchange := strField(d, "exchange", "NSE")
	result, err := subscribeOnce(ec, node, symbol, exchange, "depth", func() (*gateway.Envelope, error) {
		return ec.Gateway.Depth(ec.Ctx, symbol, exchange)
	})
	if err != nil {
		return nil, err
	}
	if m, ok := result.(map[string]interface{}); ok {
		storeOutput(ec, d, m["data"])
	}
	return result, nil
}

// UnsubscribeHandler implements the unsubscribe streaming node: tears
// down one symbol's subscription for one or all stream types, or the
// entire shared websocket connection when streamType is "all" and no
// symbol is given.
type UnsubscribeHandler struct{}

func (UnsubscribeHandler) Type() types.NodeType { return types.TypeUnsubscribe }

func (UnsubscribeHandler) Execute(ec *ExecContext, node types.Node) (interface{}, error) {
	d := interpolated(ec, node)
	symbol := strField(d, "symbol", "")
	exchange := strField(d, "exchange", "NSE")
	streamType := strField(d, "streamType", "all")

	if ec.Stream == nil {
		return map[string]interface{}{"status": "not_connected"}, nil
	}

	if streamType == "all" && symbol == "" {
		if err := ec.Stream.Close(); err != nil {
			return nil, fmt.Errorf("unsubscribe: %w", err)
		}
		return map[string]interface{}{"status": "unsubscribed", "type": "all", "symbol": "all", "exchange": exchange}, nil
	}

	modes := []string{}
	switch streamType {
	case "ltp", "all":
		modes = append(modes, "ltp")
	}
	switch streamType {
	case "quote", "all":
		modes = append(modes, "quote")
	}
	switch streamType {
	case "depth", "all":
		modes = append(modes, "depth")
	}
	if symbol != "" {
		for _, mode := range modes {
			ec.Stream.Unsubscribe(symbol, exchange, mode)
		}
	}

	return map[string]interface{}{
		"status":   "unsubscribed",
		"type":     streamType,
		"symbol":   orDefaultStr(symbol, "all"),
		"exchange": exchange,
	}, nil
}

func orDefaultStr(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
