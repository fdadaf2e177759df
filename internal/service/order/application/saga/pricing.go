package saga

import "go.opentelemetry.io/otel/attribute"

// PricingHandler 根据购物车快照计算订单总额。服务端是价格的唯一权威。
type PricingHandler struct {
	NextHandler
}

func (h *PricingHandler) Handle(orderCtx *OrderContext) error {
	_, span := orderCtx.Tracer.Start(orderCtx.Ctx, "saga.Pricing")
	defer span.End()

	orderCtx.Total = orderCtx.Basket.Total()
	span.SetAttributes(attribute.String("order.total", orderCtx.Total.StringFixed(2)))

	return h.executeNext(orderCtx)
}
