// internal/service/order/domain/event.go
package domain

// StatusUpdateEvent 是兄弟服务发来的状态更新，也是延迟任务的负载
type StatusUpdateEvent struct {
	OrderID string `json:"orderId"`
	Status  string `json:"status"`
}

// OrderCreatedNotification 发往通知服务，用于发送下单邮件。
// RestaurantData 获取失败时为 null。
type OrderCreatedNotification struct {
	RecipientEmail  string          `json:"recipientEmail"`
	OrderID         string          `json:"orderId"`
	RestaurantData  *Restaurant     `json:"restaurantData"`
	DeliveryAddress DeliveryAddress `json:"deliveryAddress"`
	Items           []OrderItem     `json:"items"`
}

// OrderCreatedDelivery 是配送域开始履约的信号
type OrderCreatedDelivery struct {
	OrderID         string          `json:"orderId"`
	CustomerID      string          `json:"customerId"`
	RestaurantData  *Restaurant     `json:"restaurantData"`
	DeliveryAddress DeliveryAddress `json:"deliveryAddress"`
	Items           []OrderItem     `json:"items"`
}

type StatusChanged struct {
	OrderID string `json:"orderId"`
	Status  Status `json:"status"`
}

// RestaurantPayout 在订单送达后触发餐厅结算
type RestaurantPayout struct {
	Order        *Order      `json:"order"`
	DeliveryData *Delivery   `json:"deliveryData"`
	Restaurant   *Restaurant `json:"restaurant"`
}
