package port

import (
	"context"

	"mtogo/internal/service/order/domain"
)

// EventPublisher 是领域事件的出站端口。只报告本地投递失败，不提供下游确认。
type EventPublisher interface {
	PublishOrderCreatedNotification(ctx context.Context, evt domain.OrderCreatedNotification) error
	PublishOrderCreatedDelivery(ctx context.Context, evt domain.OrderCreatedDelivery) error
	PublishStatusChanged(ctx context.Context, evt domain.StatusChanged) error
	PublishRestaurantPayout(ctx context.Context, evt domain.RestaurantPayout) error
}
