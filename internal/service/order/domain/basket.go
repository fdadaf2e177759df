package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Basket 属于餐厅域，这里只读
type Basket struct {
	ID           string       `json:"id"`
	CustomerID   string       `json:"customerId"`
	RestaurantID string       `json:"restaurantId"`
	Items        []BasketItem `json:"items"`
}

type BasketItem struct {
	MenuID   string          `json:"menuId"`
	Title    string          `json:"title"`
	Price    decimal.Decimal `json:"price"`
	Quantity int             `json:"quantity"`
}

// Total 是订单金额的唯一来源，从不信任调用方传入的金额
func (b *Basket) Total() decimal.Decimal {
	total := decimal.Zero
	for _, it := range b.Items {
		total = total.Add(it.Price.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}

// PaymentRequest 是发给支付服务的请求
type PaymentRequest struct {
	Amount  decimal.Decimal
	Address DeliveryAddress
	Method  PaymentMethod
}

// PaymentReceipt 是支付服务返回的支付凭证
type PaymentReceipt struct {
	PaymentIntentID string
}

// Restaurant 是通知和结算事件里携带的餐厅展示数据
type Restaurant struct {
	Name   string  `json:"name"`
	Phone  string  `json:"phone"`
	Street string  `json:"street"`
	City   string  `json:"city"`
	Zip    string  `json:"zip"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

// Delivery 是配送服务记录的配送数据，用于餐厅结算
type Delivery struct {
	ID          string     `json:"id"`
	OrderID     string     `json:"orderId"`
	CourierID   string     `json:"courierId"`
	Status      string     `json:"status"`
	DeliveredAt *time.Time `json:"deliveredAt,omitempty"`
}
