// internal/service/order/domain/order.go
package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Order 是订单聚合的根实体
type Order struct {
	ID              string          `json:"id"`
	CustomerID      string          `json:"customerId"`
	RestaurantID    string          `json:"restaurantId"`
	PaymentIntentID string          `json:"paymentIntentId"`
	TotalAmount     decimal.Decimal `json:"totalAmount"`
	Status          Status          `json:"status"`
	Items           []OrderItem     `json:"items"`
	DeliveryAddress DeliveryAddress `json:"deliveryAddress"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// OrderItem 是下单时从购物车拍下的快照，不随菜单变化
type OrderItem struct {
	MenuID    string          `json:"menuId"`
	Title     string          `json:"title"`
	UnitPrice decimal.Decimal `json:"unitPrice"`
	Quantity  int             `json:"quantity"`
}

// Subtotal = 单价 × 数量
func (i OrderItem) Subtotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// DeliveryAddress 挂到订单后不再修改
type DeliveryAddress struct {
	Street        string `json:"street"`
	City          string `json:"city"`
	Zip           string `json:"zip"`
	Floor         string `json:"floor,omitempty"`
	RecipientName string `json:"recipientName,omitempty"`
}

func (a DeliveryAddress) Validate() error {
	var missing []string
	if strings.TrimSpace(a.Street) == "" {
		missing = append(missing, "street")
	}
	if strings.TrimSpace(a.City) == "" {
		missing = append(missing, "city")
	}
	if strings.TrimSpace(a.Zip) == "" {
		missing = append(missing, "zip")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: delivery address missing %s", ErrInvalidInput, strings.Join(missing, ", "))
	}
	return nil
}

// PaymentMethod 是受支持的支付方式的封闭集合
type PaymentMethod string

const (
	PaymentMasterCard PaymentMethod = "MASTER_CARD"
	PaymentVisa       PaymentMethod = "VISA"
)

// SupportedPaymentMethods 之外的值 (包括 MOBILEPAY、PAYPAL) 一律拒绝
var SupportedPaymentMethods = []PaymentMethod{PaymentMasterCard, PaymentVisa}

func ParsePaymentMethod(raw string) (PaymentMethod, error) {
	for _, m := range SupportedPaymentMethods {
		if string(m) == raw {
			return m, nil
		}
	}
	return "", fmt.Errorf("%w: unsupported payment method %q", ErrInvalidInput, raw)
}

// CallerIdentity 是网关透传的调用方身份，调用购物车/支付服务时原样转发
type CallerIdentity struct {
	Role   string
	UserID string
	Email  string
}

// NewOrder 用购物车快照和支付结果组装一个待持久化的订单。
// ID 和时间戳由仓储在创建时分配。
func NewOrder(basket *Basket, address DeliveryAddress, total decimal.Decimal, paymentIntentID string) *Order {
	items := make([]OrderItem, 0, len(basket.Items))
	for _, it := range basket.Items {
		items = append(items, OrderItem{
			MenuID:    it.MenuID,
			Title:     it.Title,
			UnitPrice: it.Price,
			Quantity:  it.Quantity,
		})
	}
	return &Order{
		CustomerID:      basket.CustomerID,
		RestaurantID:    basket.RestaurantID,
		PaymentIntentID: paymentIntentID,
		TotalAmount:     total,
		Status:          StatusPreparing,
		Items:           items,
		DeliveryAddress: address,
	}
}
