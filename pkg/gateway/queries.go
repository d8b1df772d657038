package gateway

import (
	"context"
	"strconv"
)

func (c *Client) OrderStatus(ctx context.Context, orderID, strategy string) (*Envelope, error) {
	return c.post(ctx, "/api/v1/orderstatus", map[string]interface{}{
		"order_id": orderID,
		"strategy": orDefault(strategy, defaultStrategy),
	})
}

func (c *Client) Quote(ctx context.Context, symbol, exchange string) (*Envelope, error) {
	return c.post(ctx, "/api/v1/quotes", map[string]interface{}{
		"symbol":   symbol,
		"exchange": exchange,
	})
}

// SymbolRef identifies one instrument for a multi-symbol query.
type SymbolRef struct {
	Symbol   string `json:"symbol"`
	Exchange string `json:"exchange"`
}

func (c *Client) MultiQuotes(ctx context.Context, symbols []SymbolRef) (*Envelope, error) {
	return c.post(ctx, "/api/v1/multiquotes", map[string]interface{}{"symbols": symbols})
}

func (c *Client) Depth(ctx context.Context, symbol, exchange string) (*Envelope, error) {
	return c.post(ctx, "/api/v1/depth", map[string]interface{}{
		"symbol":   symbol,
		"exchange": exchange,
	})
}

func (c *Client) History(ctx context.Context, symbol, exchange, interval, startDate, endDate string) (*Envelope, error) {
	return c.post(ctx, "/api/v1/history", map[string]interface{}{
		"symbol":     symbol,
		"exchange":   exchange,
		"interval":   interval,
		"start_date": startDate,
		"end_date":   endDate,
	})
}

func (c *Client) Expiry(ctx context.Context, symbol, exchange, instrumentType string) (*Envelope, error) {
	return c.post(ctx, "/api/v1/expiry", map[string]interface{}{
		"symbol":         symbol,
		"exchange":       exchange,
		"instrumenttype": orDefault(instrumentType, "options"),
	})
}

func (c *Client) OptionChain(ctx context.Context, underlying, exchange, expiryDate string, strikeCount int) (*Envelope, error) {
	body := map[string]interface{}{
		"underlying":  underlying,
		"exchange":    exchange,
		"expiry_date": expiryDate,
	}
	if strikeCount > 0 {
		body["strike_count"] = strikeCount
	}
	return c.post(ctx, "/api/v1/optionchain", body)
}

func (c *Client) OptionGreeks(ctx context.Context, symbol, exchange, underlyingSymbol, underlyingExchange string, interestRate float64) (*Envelope, error) {
	return c.post(ctx, "/api/v1/optiongreeks", map[string]interface{}{
		"symbol":              symbol,
		"exchange":            exchange,
		"underlying_symbol":   underlyingSymbol,
		"underlying_exchange": underlyingExchange,
		"interest_rate":       interestRate,
	})
}

func (c *Client) SearchSymbols(ctx context.Context, query, exchange string) (*Envelope, error) {
	return c.post(ctx, "/api/v1/search", map[string]interface{}{
		"query":    query,
		"exchange": exchange,
	})
}

func (c *Client) Funds(ctx context.Context) (*Envelope, error) {
	return c.post(ctx, "/api/v1/funds", nil)
}

func (c *Client) OrderBook(ctx context.Context) (*Envelope, error) {
	return c.post(ctx, "/api/v1/orderbook", nil)
}

func (c *Client) TradeBook(ctx context.Context) (*Envelope, error) {
	return c.post(ctx, "/api/v1/tradebook", nil)
}

func (c *Client) PositionBook(ctx context.Context) (*Envelope, error) {
	return c.post(ctx, "/api/v1/positionbook", nil)
}

func (c *Client) Holdings(ctx context.Context) (*Envelope, error) {
	return c.post(ctx, "/api/v1/holdings", nil)
}

func (c *Client) Holidays(ctx context.Context, year int) (*Envelope, error) {
	return c.get(ctx, "/api/v1/holidays", map[string]string{"year": strconv.Itoa(year)})
}

func (c *Client) Timings(ctx context.Context, date string) (*Envelope, error) {
	return c.get(ctx, "/api/v1/timings", map[string]string{"date": date})
}

// GetOpenPosition returns the current open position for one symbol, used by
// both the openPosition query node and the positionCheck conditional.
func (c *Client) GetOpenPosition(ctx context.Context, symbol, exchange, product string) (*Envelope, error) {
	return c.post(ctx, "/api/v1/openposition", map[string]interface{}{
		"symbol":   symbol,
		"exchange": exchange,
		"product":  orDefault(product, "MIS"),
	})
}

// Symbol resolves instrument metadata for a single symbol.
func (c *Client) Symbol(ctx context.Context, symbol, exchange string) (*Envelope, error) {
	return c.post(ctx, "/api/v1/symbol", map[string]interface{}{
		"symbol":   symbol,
		"exchange": exchange,
	})
}

// OptionSymbol resolves the tradable option symbol for an underlying,
// expiry, strike offset and option type (CE/PE).
func (c *Client) OptionSymbol(ctx context.Context, underlying, exchange, expiryDate, offset, optionType string) (*Envelope, error) {
	return c.post(ctx, "/api/v1/optionsymbol", map[string]interface{}{
		"underlying":  underlying,
		"exchange":    exchange,
		"expiry_date": expiryDate,
		"offset":      offset,
		"option_type": optionType,
	})
}

// SyntheticFuture returns the synthetic future price built from the ATM
// call/put pair for an underlying and expiry.
func (c *Client) SyntheticFuture(ctx context.Context, underlying, exchange, expiryDate string) (*Envelope, error) {
	return c.post(ctx, "/api/v1/syntheticfuture", map[string]interface{}{
		"underlying":  underlying,
		"exchange":    exchange,
		"expiry_date": expiryDate,
	})
}

// Margin returns the margin required for a proposed set of positions.
func (c *Client) Margin(ctx context.Context, positions []map[string]interface{}) (*Envelope, error) {
	return c.post(ctx, "/api/v1/margin", map[string]interface{}{"positions": positions})
}
