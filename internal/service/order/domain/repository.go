// internal/service/order/domain/repository.go
package domain

import "context"

// OrderRepository 定义了订单聚合的持久化接口。
// 它位于领域层，但由基础设施层实现。
type OrderRepository interface {
	// Create 原子地保存订单根、条目快照和配送地址，并回填 ID 与时间戳。
	Create(ctx context.Context, order *Order) error

	// FindByID 找不到时返回 ErrOrderNotFound
	FindByID(ctx context.Context, id string) (*Order, error)

	// UpdateStatus 仅当当前状态不是终态时写入新状态 (比较并交换)。
	// 订单存在但已处于终态时返回 (false, nil)。
	UpdateStatus(ctx context.Context, id string, status Status) (bool, error)
}
