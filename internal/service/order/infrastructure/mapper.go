package infrastructure

import "mtogo/internal/service/order/domain"

// ToDomainOrder 将数据库模型转换为领域模型
func ToDomainOrder(model *OrderModel) *domain.Order {
	if model == nil {
		return nil
	}
	items := make([]domain.OrderItem, 0, len(model.Items))
	for _, it := range model.Items {
		items = append(items, domain.OrderItem{
			MenuID:    it.MenuID,
			Title:     it.Title,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
		})
	}
	return &domain.Order{
		ID:              model.ID,
		CustomerID:      model.CustomerID,
		RestaurantID:    model.RestaurantID,
		PaymentIntentID: model.PaymentIntentID,
		TotalAmount:     model.TotalAmount,
		Status:          domain.Status(model.Status),
		Items:           items,
		DeliveryAddress: domain.DeliveryAddress{
			Street:        model.DeliveryAddress.Street,
			City:          model.DeliveryAddress.City,
			Zip:           model.DeliveryAddress.Zip,
			Floor:         model.DeliveryAddress.Floor,
			RecipientName: model.DeliveryAddress.RecipientName,
		},
		CreatedAt: model.CreatedAt,
		UpdatedAt: model.UpdatedAt,
	}
}

// FromDomainOrder 将领域模型转换为数据库模型 (用于插入)
func FromDomainOrder(order *domain.Order) *OrderModel {
	if order == nil {
		return nil
	}
	items := make([]OrderItemModel, 0, len(order.Items))
	for _, it := range order.Items {
		items = append(items, OrderItemModel{
			OrderID:   order.ID,
			MenuID:    it.MenuID,
			Title:     it.Title,
			UnitPrice: it.UnitPrice,
			Quantity:  it.Quantity,
		})
	}
	return &OrderModel{
		ID:              order.ID,
		CustomerID:      order.CustomerID,
		RestaurantID:    order.RestaurantID,
		PaymentIntentID: order.PaymentIntentID,
		TotalAmount:     order.TotalAmount,
		Status:          string(order.Status),
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
		Items:           items,
		DeliveryAddress: DeliveryAddressModel{
			OrderID:       order.ID,
			Street:        order.DeliveryAddress.Street,
			City:          order.DeliveryAddress.City,
			Zip:           order.DeliveryAddress.Zip,
			Floor:         order.DeliveryAddress.Floor,
			RecipientName: order.DeliveryAddress.RecipientName,
		},
	}
}
