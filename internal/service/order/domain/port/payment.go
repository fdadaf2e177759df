package port

import (
	"context"

	"mtogo/internal/service/order/domain"
)

// PaymentService 是支付服务的出站端口。
type PaymentService interface {
	// ProcessPayment 扣款，返回支付凭证。失败时返回 domain.ErrPaymentFailed 类错误。
	ProcessPayment(ctx context.Context, caller domain.CallerIdentity, req domain.PaymentRequest) (*domain.PaymentReceipt, error)
}
