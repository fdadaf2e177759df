package saga

import (
	"context"
	"errors"

	"mtogo/internal/pkg/logger"
	"mtogo/internal/service/order/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// PaymentHandler 用计算出的金额发起扣款。
// 从这一步开始工作单元脱离调用方的取消信号，扣款成功后必须跑完落库。
type PaymentHandler struct {
	NextHandler
}

func (h *PaymentHandler) Handle(orderCtx *OrderContext) error {
	orderCtx.Ctx = context.WithoutCancel(orderCtx.Ctx)

	ctx, span := orderCtx.Tracer.Start(orderCtx.Ctx, "saga.Payment")
	defer span.End()

	receipt, err := orderCtx.PaymentService.ProcessPayment(ctx, orderCtx.Caller, domain.PaymentRequest{
		Amount:  orderCtx.Total,
		Address: orderCtx.Address,
		Method:  orderCtx.PaymentMethod,
	})
	if err == nil && (receipt == nil || receipt.PaymentIntentID == "") {
		err = errors.New("payment service returned no payment id")
	}
	if err != nil {
		err = domain.Classify(domain.ErrPaymentFailed, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, "payment failed")
		logger.Ctx(ctx).Warn().Err(err).Str("basket_id", orderCtx.BasketID).Msg("Payment failed, order not created")
		return err
	}

	orderCtx.Receipt = receipt
	span.SetAttributes(attribute.String("payment.intent_id", receipt.PaymentIntentID))
	return h.executeNext(orderCtx)
}
