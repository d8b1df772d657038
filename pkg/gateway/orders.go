package gateway

import "context"

const defaultStrategy = "openalgoflow"

// PlaceOrderParams mirrors the fields accepted by the gateway's order
// placement endpoint.
type PlaceOrderParams struct {
	Symbol             string
	Exchange           string
	Action             string
	Quantity           int
	PriceType          string
	Product            string
	Price              float64
	TriggerPrice       float64
	DisclosedQuantity  int
	Strategy           string
}

func (p PlaceOrderParams) body() map[string]interface{} {
	strategy := p.Strategy
	if strategy == "" {
		strategy = defaultStrategy
	}
	return map[string]interface{}{
		"strategy":           strategy,
		"symbol":             p.Symbol,
		"exchange":           p.Exchange,
		"action":             p.Action,
		"quantity":           p.Quantity,
		"pricetype":          orDefault(p.PriceType, "MARKET"),
		"product":            orDefault(p.Product, "MIS"),
		"price":              p.Price,
		"trigger_price":      p.TriggerPrice,
		"disclosed_quantity": p.DisclosedQuantity,
	}
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}

// PlaceOrder places a regular order.
func (c *Client) PlaceOrder(ctx context.Context, p PlaceOrderParams) (*Envelope, error) {
	return c.post(ctx, "/api/v1/placeorder", p.body())
}

// PlaceSmartOrderParams adds position-size-aware sizing to PlaceOrder.
type PlaceSmartOrderParams struct {
	PlaceOrderParams
	PositionSize int
}

// PlaceSmartOrder places an order sized against the current open position.
func (c *Client) PlaceSmartOrder(ctx context.Context, p PlaceSmartOrderParams) (*Envelope, error) {
	body := p.body()
	body["position_size"] = p.PositionSize
	return c.post(ctx, "/api/v1/placesmartorder", body)
}

// OptionsOrderParams places a single options leg, resolved by
// underlying/expiry/offset/type rather than an explicit tradingsymbol.
type OptionsOrderParams struct {
	Underlying string
	Exchange   string
	ExpiryDate string
	Offset     string
	OptionType string
	Action     string
	Quantity   int
	PriceType  string
	Product    string
	SplitSize  int
	Strategy   string
}

func (c *Client) OptionsOrder(ctx context.Context, p OptionsOrderParams) (*Envelope, error) {
	strategy := orDefault(p.Strategy, defaultStrategy)
	return c.post(ctx, "/api/v1/optionsorder", map[string]interface{}{
		"strategy":    strategy,
		"underlying":  p.Underlying,
		"exchange":    p.Exchange,
		"expiry_date": p.ExpiryDate,
		"offset":      p.Offset,
		"option_type": p.OptionType,
		"action":      p.Action,
		"quantity":    p.Quantity,
		"pricetype":   orDefault(p.PriceType, "MARKET"),
		"product":     orDefault(p.Product, "NRML"),
		"splitsize":   p.SplitSize,
	})
}

// Leg is one leg of a multi-leg options order.
type Leg struct {
	OptionType string  `json:"option_type"`
	Offset     string  `json:"offset"`
	Action     string  `json:"action"`
	Quantity   int     `json:"quantity"`
	Lots       int     `json:"lots,omitempty"`
}

// OptionsMultiOrderParams places several legs in one request (straddles,
// strangles, spreads, condors).
type OptionsMultiOrderParams struct {
	Underlying string
	Exchange   string
	Legs       []Leg
	ExpiryDate string
	Product    string
	PriceType  string
	Strategy   string
}

func (c *Client) OptionsMultiOrder(ctx context.Context, p OptionsMultiOrderParams) (*Envelope, error) {
	body := map[string]interface{}{
		"strategy":   orDefault(p.Strategy, defaultStrategy),
		"underlying": p.Underlying,
		"exchange":   p.Exchange,
		"legs":       p.Legs,
		"product":    orDefault(p.Product, "NRML"),
		"pricetype":  orDefault(p.PriceType, "MARKET"),
	}
	if p.ExpiryDate != "" {
		body["expiry_date"] = p.ExpiryDate
	}
	return c.post(ctx, "/api/v1/optionsmultiorder", body)
}

// BasketOrder places a list of independent orders in one call.
func (c *Client) BasketOrder(ctx context.Context, orders []map[string]interface{}, strategy string) (*Envelope, error) {
	return c.post(ctx, "/api/v1/basketorder", map[string]interface{}{
		"strategy": orDefault(strategy, defaultStrategy),
		"orders":   orders,
	})
}

// SplitOrderParams places one logical order as several child orders no
// larger than SplitSize each.
type SplitOrderParams struct {
	PlaceOrderParams
	SplitSize int
}

func (c *Client) SplitOrder(ctx context.Context, p SplitOrderParams) (*Envelope, error) {
	body := p.body()
	body["splitsize"] = p.SplitSize
	return c.post(ctx, "/api/v1/splitorder", body)
}

// ModifyOrderParams modifies a resting order.
type ModifyOrderParams struct {
	OrderID string
	PlaceOrderParams
}

func (c *Client) ModifyOrder(ctx context.Context, p ModifyOrderParams) (*Envelope, error) {
	body := p.body()
	body["order_id"] = p.OrderID
	return c.post(ctx, "/api/v1/modifyorder", body)
}

func (c *Client) CancelOrder(ctx context.Context, orderID, strategy string) (*Envelope, error) {
	return c.post(ctx, "/api/v1/cancelorder", map[string]interface{}{
		"order_id": orderID,
		"strategy": orDefault(strategy, defaultStrategy),
	})
}

func (c *Client) CancelAllOrders(ctx context.Context, strategy string) (*Envelope, error) {
	return c.post(ctx, "/api/v1/cancelallorder", map[string]interface{}{
		"strategy": orDefault(strategy, defaultStrategy),
	})
}

func (c *Client) ClosePosition(ctx context.Context, strategy string) (*Envelope, error) {
	return c.post(ctx, "/api/v1/closeposition", map[string]interface{}{
		"strategy": orDefault(strategy, defaultStrategy),
	})
}

func (c *Client) SendTelegram(ctx context.Context, username, message string) (*Envelope, error) {
	return c.post(ctx, "/api/v1/telegram", map[string]interface{}{
		"username": username,
		"message":  message,
	})
}
