package infrastructure

import (
	"context"
	"fmt"
	"sync"
	"time"

	"mtogo/internal/service/order/domain"

	"github.com/google/uuid"
)

// MemoryOrderRepository 是进程内的仓储实现，用于本地开发 (store.driver=memory) 和测试。
type MemoryOrderRepository struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order
	now    func() time.Time
}

func NewMemoryOrderRepository() *MemoryOrderRepository {
	return &MemoryOrderRepository{
		orders: make(map[string]*domain.Order),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (r *MemoryOrderRepository) Create(_ context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if order.ID == "" {
		order.ID = uuid.NewString()
	}
	if _, exists := r.orders[order.ID]; exists {
		return fmt.Errorf("create order: duplicate id %s", order.ID)
	}
	order.CreatedAt = r.now()
	order.UpdatedAt = order.CreatedAt
	r.orders[order.ID] = cloneOrder(order)
	return nil
}

func (r *MemoryOrderRepository) FindByID(_ context.Context, id string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	o, ok := r.orders[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrOrderNotFound, id)
	}
	return cloneOrder(o), nil
}

func (r *MemoryOrderRepository) UpdateStatus(_ context.Context, id string, status domain.Status) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	o, ok := r.orders[id]
	if !ok {
		return false, fmt.Errorf("%w: %s", domain.ErrOrderNotFound, id)
	}
	if o.Status.IsTerminal() {
		return false, nil
	}
	o.Status = status
	o.UpdatedAt = r.now()
	return true, nil
}

func cloneOrder(o *domain.Order) *domain.Order {
	cp := *o
	cp.Items = append([]domain.OrderItem(nil), o.Items...)
	return &cp
}
