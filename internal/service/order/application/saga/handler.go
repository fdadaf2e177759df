package saga

import (
	"context"

	"mtogo/internal/service/order/domain"
	"mtogo/internal/service/order/domain/port"

	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/trace"
)

// OrderContext 在下单 Saga 的各个步骤之间传递输入、中间结果和出站端口。
type OrderContext struct {
	Ctx    context.Context
	Tracer trace.Tracer

	// 输入
	Caller        domain.CallerIdentity
	BasketID      string
	Address       domain.DeliveryAddress
	PaymentMethod domain.PaymentMethod

	// 各步骤产出
	Basket  *domain.Basket
	Total   decimal.Decimal
	Receipt *domain.PaymentReceipt
	Order   *domain.Order

	// 依赖出站端口 (Interfaces)
	BasketService  port.BasketService
	PaymentService port.PaymentService
	Repo           domain.OrderRepository
}

// Handler 是责任链上的一个 Saga 步骤
type Handler interface {
	SetNext(handler Handler) Handler
	Handle(orderCtx *OrderContext) error
}

type NextHandler struct {
	next Handler
}

// SetNext 返回传入的 handler，便于链式组装
func (h *NextHandler) SetNext(handler Handler) Handler {
	h.next = handler
	return handler
}

func (h *NextHandler) executeNext(orderCtx *OrderContext) error {
	if h.next != nil {
		return h.next.Handle(orderCtx)
	}
	return nil
}

// BuildCreateOrderChain 组装第一阶段：购物车 -> 计价 -> 支付 -> 落库。
// 任一步失败都会中断后续步骤。
func BuildCreateOrderChain() Handler {
	chain := new(BasketHandler)
	chain.
		SetNext(new(PricingHandler)).
		SetNext(new(PaymentHandler)).
		SetNext(new(CreateOrderHandler))
	return chain
}
