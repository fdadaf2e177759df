package domain

import (
	"errors"
	"fmt"
)

// 订单流程中可被调用方区分的错误类型，用 errors.Is 判断
var (
	ErrInvalidInput          = errors.New("invalid input")
	ErrBasketUnavailable     = errors.New("basket unavailable")
	ErrEmptyBasket           = errors.New("basket is empty")
	ErrPaymentFailed         = errors.New("payment failed")
	ErrOrderNotFound         = errors.New("order not found")
	ErrInvalidStatus         = errors.New("invalid status")
	ErrRestaurantUnavailable = errors.New("restaurant unavailable")
	ErrDeliveryUnavailable   = errors.New("delivery unavailable")
)

// Classify 给 err 打上 kind 标记，同时保留原始错误链与消息。
// err 已经属于 kind 时原样返回，避免消息重复。
func Classify(kind, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, kind) {
		return err
	}
	return fmt.Errorf("%w: %w", kind, err)
}

// IsPermanent 表示重试也不会成功的迁移错误，任务可以直接确认
func IsPermanent(err error) bool {
	return errors.Is(err, ErrInvalidStatus) || errors.Is(err, ErrOrderNotFound)
}
