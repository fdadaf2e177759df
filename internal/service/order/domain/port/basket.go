package port

import (
	"context"

	"mtogo/internal/service/order/domain"
)

// BasketService 是购物车服务的出站端口。
type BasketService interface {
	// GetBasket 以调用方身份读取购物车
	GetBasket(ctx context.Context, caller domain.CallerIdentity, basketID string) (*domain.Basket, error)

	// ClearBasket 在订单提交后清空购物车
	ClearBasket(ctx context.Context, caller domain.CallerIdentity, basketID string) error
}
