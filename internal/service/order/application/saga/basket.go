package saga

import (
	"mtogo/internal/pkg/logger"
	"mtogo/internal/service/order/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// BasketHandler 以调用方身份读取购物车。失败或为空时不会发起支付。
type BasketHandler struct {
	NextHandler
}

func (h *BasketHandler) Handle(orderCtx *OrderContext) error {
	ctx, span := orderCtx.Tracer.Start(orderCtx.Ctx, "saga.Basket")
	defer span.End()
	span.SetAttributes(attribute.String("basket.id", orderCtx.BasketID))

	basket, err := orderCtx.BasketService.GetBasket(ctx, orderCtx.Caller, orderCtx.BasketID)
	if err != nil {
		err = domain.Classify(domain.ErrBasketUnavailable, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "basket fetch failed")
		logger.Ctx(ctx).Warn().Err(err).Str("basket_id", orderCtx.BasketID).Msg("Could not fetch basket")
		return err
	}
	if basket == nil || len(basket.Items) == 0 {
		span.SetStatus(codes.Error, "basket is empty")
		return domain.ErrEmptyBasket
	}

	orderCtx.Basket = basket
	span.AddEvent("Basket fetched.", trace.WithAttributes(attribute.Int("basket.items", len(basket.Items))))
	return h.executeNext(orderCtx)
}
