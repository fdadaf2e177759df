package infrastructure

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderModel 对应数据库中的 orders 表
type OrderModel struct {
	ID              string          `gorm:"type:char(36);primaryKey"`
	CustomerID      string          `gorm:"type:varchar(64);index"`
	RestaurantID    string          `gorm:"type:varchar(64)"`
	PaymentIntentID string          `gorm:"type:varchar(128)"`
	TotalAmount     decimal.Decimal `gorm:"type:decimal(12,2)"`
	Status          string          `gorm:"type:varchar(64);index"`
	CreatedAt       time.Time
	UpdatedAt       time.Time

	// 关联关系
	Items           []OrderItemModel     `gorm:"foreignKey:OrderID"`
	DeliveryAddress DeliveryAddressModel `gorm:"foreignKey:OrderID"`
}

func (OrderModel) TableName() string {
	return "orders"
}

// BeforeCreate 由仓储分配订单 ID
func (m *OrderModel) BeforeCreate(*gorm.DB) error {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	return nil
}

// OrderItemModel 对应 order_items 表，是下单时的快照
type OrderItemModel struct {
	ID        uint            `gorm:"primaryKey"`
	OrderID   string          `gorm:"type:char(36);index"`
	MenuID    string          `gorm:"type:varchar(64)"`
	Title     string          `gorm:"type:varchar(255)"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(12,2)"`
	Quantity  int
}

func (OrderItemModel) TableName() string {
	return "order_items"
}

// DeliveryAddressModel 对应 delivery_addresses 表，一个订单只有一个地址
type DeliveryAddressModel struct {
	ID            uint   `gorm:"primaryKey"`
	OrderID       string `gorm:"type:char(36);uniqueIndex"`
	Street        string `gorm:"type:varchar(255)"`
	City          string `gorm:"type:varchar(128)"`
	Zip           string `gorm:"type:varchar(16)"`
	Floor         string `gorm:"type:varchar(32)"`
	RecipientName string `gorm:"type:varchar(128)"`
}

func (DeliveryAddressModel) TableName() string {
	return "delivery_addresses"
}
