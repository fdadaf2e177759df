package port

import (
	"context"

	"mtogo/internal/service/order/domain"
)

// RestaurantService 提供餐厅展示数据
type RestaurantService interface {
	GetRestaurant(ctx context.Context, restaurantID string) (*domain.Restaurant, error)
}

// DeliveryService 提供订单的配送记录
type DeliveryService interface {
	GetDeliveryByOrder(ctx context.Context, orderID string) (*domain.Delivery, error)
}
