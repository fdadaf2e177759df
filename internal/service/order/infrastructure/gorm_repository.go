package infrastructure

import (
	"context"
	"errors"
	"fmt"

	"mtogo/internal/service/order/domain"

	"gorm.io/gorm"
)

// GormOrderRepository 是 OrderRepository 的 GORM 实现
type GormOrderRepository struct {
	db *gorm.DB
}

func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// Create 在一个事务中写入订单、条目和地址
func (r *GormOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	model := FromDomainOrder(order)
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return tx.Create(model).Error
	})
	if err != nil {
		return fmt.Errorf("create order: %w", err)
	}

	order.ID = model.ID
	order.CreatedAt = model.CreatedAt
	order.UpdatedAt = model.UpdatedAt
	return nil
}

func (r *GormOrderRepository) FindByID(ctx context.Context, id string) (*domain.Order, error) {
	var model OrderModel
	err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("id") }).
		Preload("DeliveryAddress").
		Where("id = ?", id).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("%w: %s", domain.ErrOrderNotFound, id)
		}
		return nil, fmt.Errorf("find order %s: %w", id, err)
	}
	return ToDomainOrder(&model), nil
}

// UpdateStatus 用 "status NOT IN 终态" 作为条件更新，实现比较并交换。
// DSN 开启了 clientFoundRows，重复写入同一状态也会计入受影响行数。
func (r *GormOrderRepository) UpdateStatus(ctx context.Context, id string, status domain.Status) (bool, error) {
	terminal := make([]string, 0, len(domain.TerminalStatuses))
	for _, s := range domain.TerminalStatuses {
		terminal = append(terminal, string(s))
	}

	res := r.db.WithContext(ctx).
		Model(&OrderModel{}).
		Where("id = ? AND status NOT IN ?", id, terminal).
		Update("status", string(status))
	if res.Error != nil {
		return false, fmt.Errorf("update order %s status: %w", id, res.Error)
	}
	if res.RowsAffected > 0 {
		return true, nil
	}

	var count int64
	if err := r.db.WithContext(ctx).Model(&OrderModel{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, fmt.Errorf("check order %s: %w", id, err)
	}
	if count == 0 {
		return false, fmt.Errorf("%w: %s", domain.ErrOrderNotFound, id)
	}
	return false, nil
}
