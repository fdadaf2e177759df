package saga

import (
	"fmt"

	"mtogo/internal/pkg/logger"
	"mtogo/internal/service/order/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// CreateOrderHandler 负责持久化订单，是 Saga 的提交点。
type CreateOrderHandler struct {
	NextHandler
}

func (h *CreateOrderHandler) Handle(orderCtx *OrderContext) error {
	ctx, span := orderCtx.Tracer.Start(orderCtx.Ctx, "saga.CreateOrder")
	defer span.End()

	order := domain.NewOrder(orderCtx.Basket, orderCtx.Address, orderCtx.Total, orderCtx.Receipt.PaymentIntentID)
	if err := orderCtx.Repo.Create(ctx, order); err != nil {
		// 已扣款但订单未落库，需要人工对账
		logger.Ctx(ctx).Error().Err(err).
			Str("payment_intent_id", orderCtx.Receipt.PaymentIntentID).
			Str("customer_id", order.CustomerID).
			Str("total", orderCtx.Total.StringFixed(2)).
			Msg("🚨 CRITICAL: payment may have been charged but order not recorded")
		span.RecordError(err)
		span.SetStatus(codes.Error, "order persist failed after payment")
		return fmt.Errorf("persist order: %w", err)
	}

	orderCtx.Order = order
	span.SetAttributes(attribute.String("order.id", order.ID))
	span.AddEvent("Order committed.")
	return h.executeNext(orderCtx)
}
