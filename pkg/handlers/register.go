package handlers

// RegisterAll builds a Registry with every node handler the engine ships,
// wired once at process startup (see cmd/server/main.go).
func RegisterAll() *Registry {
	r := NewRegistry()

	r.MustRegister(StartHandler{})
	r.MustRegister(LogHandler{})

	r.MustRegister(PlaceOrderHandler{})
	r.MustRegister(SmartOrderHandler{})
	r.MustRegister(OptionsOrderHandler{})
	r.MustRegister(OptionsMultiOrderHandler{})
	r.MustRegister(BasketOrderHandler{})
	r.MustRegister(SplitOrderHandler{})
	r.MustRegister(ModifyOrderHandler{})
	r.MustRegister(CancelOrderHandler{})
	r.MustRegister(CancelAllOrdersHandler{})
	r.MustRegister(ClosePositionsHandler{})
	r.MustRegister(TelegramAlertHandler{})
	r.MustRegister(HTTPRequestHandler{})

	r.MustRegister(MathExpressionHandler{})
	r.MustRegister(VariableHandler{})
	r.MustRegister(DelayHandler{})
	r.MustRegister(WaitUntilHandler{})

	r.MustRegister(GetOrderStatusHandler)
	r.MustRegister(GetQuoteHandler)
	r.MustRegister(MultiQuotesHandler{})
	r.MustRegister(GetDepthHandler)
	r.MustRegister(OpenPositionHandler)
	r.MustRegister(HistoryHandler)
	r.MustRegister(ExpiryHandler)
	r.MustRegister(SymbolHandler)
	r.MustRegister(OptionSymbolHandler)
	r.MustRegister(OptionChainHandler)
	r.MustRegister(OptionGreeksHandler)
	r.MustRegister(SearchSymbolsHandler)
	r.MustRegister(SyntheticFutureHandler)
	r.MustRegister(FundsHandler)
	r.MustRegister(MarginHandler)
	r.MustRegister(OrderBookHandler)
	r.MustRegister(TradeBookHandler)
	r.MustRegister(PositionBookHandler)
	r.MustRegister(HoldingsHandler)
	r.MustRegister(HolidaysHandler)
	r.MustRegister(TimingsHandler)

	r.MustRegister(SubscribeLtpHandler{})
	r.MustRegister(SubscribeQuoteHandler{})
	r.MustRegister(SubscribeDepthHandler{})
	r.MustRegister(UnsubscribeHandler{})

	r.MustRegister(PositionCheckHandler{})
	r.MustRegister(FundCheckHandler{})
	r.MustRegister(PriceConditionHandler{})
	r.MustRegister(PriceAlertHandler{})
	r.MustRegister(TimeWindowHandler{})
	r.MustRegister(TimeConditionHandler{})

	r.MustRegister(AndGateHandler{})
	r.MustRegister(OrGateHandler{})
	r.MustRegister(NotGateHandler{})

	return r
}
