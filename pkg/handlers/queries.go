package handlers

import (
	"fmt"

	"github.com/openalgoflow/engine/pkg/gateway"
	"github.com/openalgoflow/engine/pkg/types"
)

type simpleQuery struct {
	nodeType types.NodeType
	call     func(ec *ExecContext, d types.NodeData) (*gateway.Envelope, error)
}

func (h simpleQuery) Type() types.NodeType { return h.nodeType }

func (h simpleQuery) Execute(ec *ExecContext, node types.Node) (interface{}, error) {
	d := interpolated(ec, node)
	return h.call(ec, d)
}

// GetOrderStatusHandler implements the getOrderStatus query node.
var GetOrderStatusHandler = simpleQuery{
	nodeType: types.TypeGetOrderStatus,
	call: func(ec *ExecContext, d types.NodeData) (*gateway.Envelope, error) {
		orderID := strField(d, "orderId", "")
		if orderID == "" {
			return nil, fmt.Errorf("getOrderStatus: orderId is required")
		}
		return ec.Gateway.OrderStatus(ec.Ctx, orderID, strField(d, "strategy", ""))
	},
}

// GetQuoteHandler implements the getQuote query node.
var GetQuoteHandler = simpleQuery{
	nodeType: types.TypeGetQuote,
	call: func(ec *ExecContext, d types.NodeData) (*gateway.Envelope, error) {
		symbol := strField(d, "symbol", "")
		if symbol == "" {
			return nil, fmt.Errorf("getQuote: symbol is required")
		}
		return ec.Gateway.Quote(ec.Ctx, symbol, strField(d, "exchange", "NSE"))
	},
}

// MultiQuotesHandler implements the multiQuotes query node.
type MultiQuotesHandler struct{}

func (MultiQuotesHandler) Type() types.NodeType { return types.TypeMultiQuotes }

func (MultiQuotesHandler) Execute(ec *ExecContext, node types.Node) (interface{}, error) {
	d := interpolated(ec, node)
	raw, _ := d.GetSlice("symbols")
	symbols := make([]gateway.SymbolRef, 0, len(raw))
	for _, r := range raw {
		if m, ok := r.(map[string]interface{}); ok {
			nd := types.NodeData(m)
			symbols = append(symbols, gateway.SymbolRef{
				Symbol:   strField(nd, "symbol", ""),
				Exchange: strField(nd, "exchange", "NSE"),
			})
		}
	}
	if len(symbols) == 0 {
		return nil, fmt.Errorf("multiQuotes: at least one symbol is required")
	}
	return ec.Gateway.MultiQuotes(ec.Ctx, symbols)
}

// GetDepthHandler implements the getDepth query node.
var GetDepthHandler = simpleQuery{
	nodeType: types.TypeGetDepth,
	call: func(ec *ExecContext, d types.NodeData) (*gateway.Envelope, error) {
		return ec.Gateway.Depth(ec.Ctx, strField(d, "symbol", ""), strField(d, "exchange", "NSE"))
	},
}

// OpenPositionHandler implements the openPosition query node.
var OpenPositionHandler = simpleQuery{
	nodeType: types.TypeOpenPosition,
	call: func(ec *ExecContext, d types.NodeData) (*gateway.Envelope, error) {
		return ec.Gateway.GetOpenPosition(ec.Ctx,
			strField(d, "symbol", ""), strField(d, "exchange", "NSE"), strField(d, "product", "MIS"))
	},
}

// SymbolHandler implements the symbol query node.
var SymbolHandler = simpleQuery{
	nodeType: types.TypeSymbol,
	call: func(ec *ExecContext, d types.NodeData) (*gateway.Envelope, error) {
		return ec.Gateway.Symbol(ec.Ctx, strField(d, "symbol", ""), strField(d, "exchange", "NSE"))
	},
}

// OptionSymbolHandler implements the optionSymbol query node.
var OptionSymbolHandler = simpleQuery{
	nodeType: types.TypeOptionSymbol,
	call: func(ec *ExecContext, d types.NodeData) (*gateway.Envelope, error) {
		underlying := strField(d, "underlying", "NIFTY")
		return ec.Gateway.OptionSymbol(ec.Ctx, underlying, strField(d, "exchange", "NSE_INDEX"),
			strField(d, "expiryDate", ""), strField(d, "offset", "ATM"), strField(d, "optionType", "CE"))
	},
}

// SyntheticFutureHandler implements the syntheticFuture query node.
var SyntheticFutureHandler = simpleQuery{
	nodeType: types.TypeSyntheticFuture,
	call: func(ec *ExecContext, d types.NodeData) (*gateway.Envelope, error) {
		underlying := strField(d, "underlying", "NIFTY")
		return ec.Gateway.SyntheticFuture(ec.Ctx, underlying, strField(d, "exchange", "NSE_INDEX"), strField(d, "expiryDate", ""))
	},
}

// MarginHandler implements the margin query node.
var MarginHandler = simpleQuery{
	nodeType: types.TypeMargin,
	call: func(ec *ExecContext, d types.NodeData) (*gateway.Envelope, error) {
		raw, _ := d.GetSlice("positions")
		positions := make([]map[string]interface{}, 0, len(raw))
		for _, p := range raw {
			if m, ok := p.(map[string]interface{}); ok {
				positions = append(positions, m)
			}
		}
		return ec.Gateway.Margin(ec.Ctx, positions)
	},
}

// HistoryHandler implements the history query node.
var HistoryHandler = simpleQuery{
	nodeType: types.TypeHistory,
	call: func(ec *ExecContext, d types.NodeData) (*gateway.Envelope, error) {
		return ec.Gateway.History(ec.Ctx,
			strField(d, "symbol", ""), strField(d, "exchange", "NSE"),
			strField(d, "interval", "D"), strField(d, "startDate", ""), strField(d, "endDate", ""))
	},
}

// ExpiryHandler implements the expiry query node.
var ExpiryHandler = simpleQuery{
	nodeType: types.TypeExpiry,
	call: func(ec *ExecContext, d types.NodeData) (*gateway.Envelope, error) {
		return ec.Gateway.Expiry(ec.Ctx, strField(d, "symbol", ""), strField(d, "exchange", "NSE"), strField(d, "instrumentType", "options"))
	},
}

// OptionChainHandler implements the optionChain query node.
var OptionChainHandler = simpleQuery{
	nodeType: types.TypeOptionChain,
	call: func(ec *ExecContext, d types.NodeData) (*gateway.Envelope, error) {
		underlying := strField(d, "underlying", "")
		_, foExchange := gateway.ExchangePair(underlying)
		return ec.Gateway.OptionChain(ec.Ctx, underlying, strField(d, "exchange", foExchange),
			strField(d, "expiryDate", ""), intField(d, "strikeCount", 0))
	},
}

// OptionGreeksHandler implements the optionGreeks query node.
var OptionGreeksHandler = simpleQuery{
	nodeType: types.TypeOptionGreeks,
	call: func(ec *ExecContext, d types.NodeData) (*gateway.Envelope, error) {
		return ec.Gateway.OptionGreeks(ec.Ctx,
			strField(d, "symbol", ""), strField(d, "exchange", "NFO"),
			strField(d, "underlyingSymbol", ""), strField(d, "underlyingExchange", "NSE"),
			floatField(d, "interestRate", 0.1))
	},
}

// SearchSymbolsHandler implements the searchSymbols query node.
var SearchSymbolsHandler = simpleQuery{
	nodeType: types.TypeSearchSymbols,
	call: func(ec *ExecContext, d types.NodeData) (*gateway.Envelope, error) {
		return ec.Gateway.SearchSymbols(ec.Ctx, strField(d, "query", ""), strField(d, "exchange", ""))
	},
}

// FundsHandler implements the funds query node.
var FundsHandler = simpleQuery{
	nodeType: types.TypeFunds,
	call: func(ec *ExecContext, d types.NodeData) (*gateway.Envelope, error) {
		return ec.Gateway.Funds(ec.Ctx)
	},
}

// OrderBookHandler implements the orderBook query node.
var OrderBookHandler = simpleQuery{
	nodeType: types.TypeOrderBook,
	call: func(ec *ExecContext, d types.NodeData) (*gateway.Envelope, error) {
		return ec.Gateway.OrderBook(ec.Ctx)
	},
}

// TradeBookHandler implements the tradeBook query node.
var TradeBookHandler = simpleQuery{
	nodeType: types.TypeTradeBook,
	call: func(ec *ExecContext, d types.NodeData) (*gateway.Envelope, error) {
		return ec.Gateway.TradeBook(ec.Ctx)
	},
}

// PositionBookHandler implements the positionBook query node.
var PositionBookHandler = simpleQuery{
	nodeType: types.TypePositionBook,
	call: func(ec *ExecContext, d types.NodeData) (*gateway.Envelope, error) {
		return ec.Gateway.PositionBook(ec.Ctx)
	},
}

// HoldingsHandler implements the holdings query node.
var HoldingsHandler = simpleQuery{
	nodeType: types.TypeHoldings,
	call: func(ec *ExecContext, d types.NodeData) (*gateway.Envelope, error) {
		return ec.Gateway.Holdings(ec.Ctx)
	},
}

// HolidaysHandler implements the holidays query node.
var HolidaysHandler = simpleQuery{
	nodeType: types.TypeHolidays,
	call: func(ec *ExecContext, d types.NodeData) (*gateway.Envelope, error) {
		year := intField(d, "year", ec.Vars.Now().Year())
		return ec.Gateway.Holidays(ec.Ctx, year)
	},
}

// TimingsHandler implements the timings query node.
var TimingsHandler = simpleQuery{
	nodeType: types.TypeTimings,
	call: func(ec *ExecContext, d types.NodeData) (*gateway.Envelope, error) {
		date := strField(d, "date", ec.Vars.Now().Format("2006-01-02"))
		return ec.Gateway.Timings(ec.Ctx, date)
	},
}
