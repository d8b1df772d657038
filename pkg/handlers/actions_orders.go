package handlers

import (
	"fmt"

	"github.com/openalgoflow/engine/pkg/gateway"
	"github.com/openalgoflow/engine/pkg/types"
)

func orderParams(d types.NodeData) gateway.PlaceOrderParams {
	return gateway.PlaceOrderParams{
		Symbol:            strField(d, "symbol", ""),
		Exchange:          strField(d, "exchange", "NSE"),
		Action:            strField(d, "action", "BUY"),
		Quantity:          intField(d, "quantity", 1),
		PriceType:         strField(d, "priceType", "MARKET"),
		Product:           strField(d, "product", "MIS"),
		Price:             floatField(d, "price", 0),
		TriggerPrice:      floatField(d, "triggerPrice", 0),
		DisclosedQuantity: intField(d, "disclosedQuantity", 0),
		Strategy:          strField(d, "strategy", ""),
	}
}

// PlaceOrderHandler implements the placeOrder action node.
type PlaceOrderHandler struct{}

func (PlaceOrderHandler) Type() types.NodeType { return types.TypePlaceOrder }

func (PlaceOrderHandler) Execute(ec *ExecContext, node types.Node) (interface{}, error) {
	d := interpolated(ec, node)
	if strField(d, "symbol", "") == "" {
		return nil, fmt.Errorf("placeOrder: symbol is required")
	}
	env, err := ec.Gateway.PlaceOrder(ec.Ctx, orderParams(d))
	if err != nil {
		return nil, err
	}
	return env, nil
}

// SmartOrderHandler implements the smartOrder action node.
type SmartOrderHandler struct{}

func (SmartOrderHandler) Type() types.NodeType { return types.TypeSmartOrder }

func (SmartOrderHandler) Execute(ec *ExecContext, node types.Node) (interface{}, error) {
	d := interpolated(ec, node)
	params := gateway.PlaceSmartOrderParams{
		PlaceOrderParams: orderParams(d),
		PositionSize:     intField(d, "positionSize", 0),
	}
	return ec.Gateway.PlaceSmartOrder(ec.Ctx, params)
}

// BasketOrderHandler implements the basketOrder action node.
type BasketOrderHandler struct{}

func (BasketOrderHandler) Type() types.NodeType { return types.TypeBasketOrder }

func (BasketOrderHandler) Execute(ec *ExecContext, node types.Node) (interface{}, error) {
	d := interpolated(ec, node)
	rawOrders, _ := d.GetSlice("orders")
	orders := make([]map[string]interface{}, 0, len(rawOrders))
	for _, o := range rawOrders {
		if m, ok := o.(map[string]interface{}); ok {
			orders = append(orders, m)
		}
	}
	return ec.Gateway.BasketOrder(ec.Ctx, orders, strField(d, "strategy", ""))
}

// SplitOrderHandler implements the splitOrder action node.
type SplitOrderHandler struct{}

func (SplitOrderHandler) Type() types.NodeType { return types.TypeSplitOrder }

func (SplitOrderHandler) Execute(ec *ExecContext, node types.Node) (interface{}, error) {
	d := interpolated(ec, node)
	params := gateway.SplitOrderParams{
		PlaceOrderParams: orderParams(d),
		SplitSize:        intField(d, "splitSize", 0),
	}
	return ec.Gateway.SplitOrder(ec.Ctx, params)
}

// ModifyOrderHandler implements the modifyOrder action node.
type ModifyOrderHandler struct{}

func (ModifyOrderHandler) Type() types.NodeType { return types.TypeModifyOrder }

func (ModifyOrderHandler) Execute(ec *ExecContext, node types.Node) (interface{}, error) {
	d := interpolated(ec, node)
	if strField(d, "orderId", "") == "" {
		return nil, fmt.Errorf("modifyOrder: orderId is required")
	}
	params := gateway.ModifyOrderParams{
		OrderID:          strField(d, "orderId", ""),
		PlaceOrderParams: orderParams(d),
	}
	return ec.Gateway.ModifyOrder(ec.Ctx, params)
}

// CancelOrderHandler implements the cancelOrder action node.
type CancelOrderHandler struct{}

func (CancelOrderHandler) Type() types.NodeType { return types.TypeCancelOrder }

func (CancelOrderHandler) Execute(ec *ExecContext, node types.Node) (interface{}, error) {
	d := interpolated(ec, node)
	if strField(d, "orderId", "") == "" {
		return nil, fmt.Errorf("cancelOrder: orderId is required")
	}
	return ec.Gateway.CancelOrder(ec.Ctx, strField(d, "orderId", ""), strField(d, "strategy", ""))
}

// CancelAllOrdersHandler implements the cancelAllOrders action node.
type CancelAllOrdersHandler struct{}

func (CancelAllOrdersHandler) Type() types.NodeType { return types.TypeCancelAllOrders }

func (CancelAllOrdersHandler) Execute(ec *ExecContext, node types.Node) (interface{}, error) {
	d := interpolated(ec, node)
	return ec.Gateway.CancelAllOrders(ec.Ctx, strField(d, "strategy", ""))
}

// ClosePositionsHandler implements the closePositions action node.
type ClosePositionsHandler struct{}

func (ClosePositionsHandler) Type() types.NodeType { return types.TypeClosePositions }

func (ClosePositionsHandler) Execute(ec *ExecContext, node types.Node) (interface{}, error) {
	d := interpolated(ec, node)
	return ec.Gateway.ClosePosition(ec.Ctx, strField(d, "strategy", ""))
}

// TelegramAlertHandler implements the telegramAlert action node.
type TelegramAlertHandler struct{}

func (TelegramAlertHandler) Type() types.NodeType { return types.TypeTelegramAlert }

func (TelegramAlertHandler) Execute(ec *ExecContext, node types.Node) (interface{}, error) {
	d := interpolated(ec, node)
	if strField(d, "message", "") == "" {
		return nil, fmt.Errorf("telegramAlert: message is required")
	}
	return ec.Gateway.SendTelegram(ec.Ctx, strField(d, "username", ""), strField(d, "message", ""))
}
