// internal/service/order/application/dto.go
package application

import (
	"fmt"
	"strings"

	"mtogo/internal/service/order/domain"
)

// CreateOrderCommand 是创建订单用例的输入数据
type CreateOrderCommand struct {
	Caller          domain.CallerIdentity
	BasketID        string
	DeliveryAddress domain.DeliveryAddress
	PaymentMethod   domain.PaymentMethod
}

// Validate 是进入 Saga 之前的最后一道防线，接口层已做过字段级校验
func (c CreateOrderCommand) Validate() error {
	if strings.TrimSpace(c.BasketID) == "" {
		return fmt.Errorf("%w: basket id is required", domain.ErrInvalidInput)
	}
	if err := c.DeliveryAddress.Validate(); err != nil {
		return err
	}
	if _, err := domain.ParsePaymentMethod(string(c.PaymentMethod)); err != nil {
		return err
	}
	return nil
}
