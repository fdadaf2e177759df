package application

import (
	"context"
	"fmt"
	"sync"
	"time"

	"mtogo/internal/service/order/domain"
)

type fakeRepo struct {
	mu          sync.Mutex
	orders      map[string]*domain.Order
	seq         int
	createErr   error
	createCalls int
	createCtxOK bool
	findCalls   int
	updateCalls int
	// loseRace 让 UpdateStatus 模拟被并发的终态迁移抢先
	loseRace bool
	// afterUpdate 在状态成功提交后调用
	afterUpdate func()
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{orders: map[string]*domain.Order{}}
}

func (r *fakeRepo) Create(ctx context.Context, order *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.createCalls++
	r.createCtxOK = ctx.Err() == nil
	if r.createErr != nil {
		return r.createErr
	}
	r.seq++
	order.ID = fmt.Sprintf("order-%d", r.seq)
	order.CreatedAt = time.Now().UTC()
	order.UpdatedAt = order.CreatedAt
	stored := *order
	r.orders[order.ID] = &stored
	return nil
}

func (r *fakeRepo) put(order domain.Order) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.orders[order.ID] = &order
}

func (r *fakeRepo) FindByID(_ context.Context, id string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.findCalls++
	o, ok := r.orders[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrOrderNotFound, id)
	}
	cp := *o
	return &cp, nil
}

func (r *fakeRepo) UpdateStatus(_ context.Context, id string, status domain.Status) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.updateCalls++
	o, ok := r.orders[id]
	if !ok {
		return false, fmt.Errorf("%w: %s", domain.ErrOrderNotFound, id)
	}
	if r.loseRace {
		o.Status = domain.StatusCancelled
		return false, nil
	}
	if o.Status.IsTerminal() {
		return false, nil
	}
	o.Status = status
	if r.afterUpdate != nil {
		r.afterUpdate()
	}
	return true, nil
}

func (r *fakeRepo) status(id string) domain.Status {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.orders[id].Status
}

type fakeBaskets struct {
	mu         sync.Mutex
	basket     *domain.Basket
	err        error
	clearErr   error
	getCalls   int
	clearCalls int
	caller     domain.CallerIdentity
}

func (b *fakeBaskets) GetBasket(_ context.Context, caller domain.CallerIdentity, _ string) (*domain.Basket, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.getCalls++
	b.caller = caller
	return b.basket, b.err
}

func (b *fakeBaskets) ClearBasket(context.Context, domain.CallerIdentity, string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clearCalls++
	return b.clearErr
}

type fakePayments struct {
	mu       sync.Mutex
	receipt  *domain.PaymentReceipt
	err      error
	requests []domain.PaymentRequest
	onPay    func()
}

func (p *fakePayments) ProcessPayment(_ context.Context, _ domain.CallerIdentity, req domain.PaymentRequest) (*domain.PaymentReceipt, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.requests = append(p.requests, req)
	if p.onPay != nil {
		p.onPay()
	}
	return p.receipt, p.err
}

func (p *fakePayments) calls() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.requests)
}

type fakeRestaurants struct {
	mu         sync.Mutex
	restaurant *domain.Restaurant
	err        error
	calls      int
}

func (r *fakeRestaurants) GetRestaurant(ctx context.Context, _ string) (*domain.Restaurant, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return r.restaurant, r.err
}

type fakeDeliveries struct {
	delivery *domain.Delivery
	err      error
}

func (d *fakeDeliveries) GetDeliveryByOrder(ctx context.Context, orderID string) (*domain.Delivery, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if d.err != nil {
		return nil, d.err
	}
	cp := *d.delivery
	cp.OrderID = orderID
	return &cp, nil
}

type fakePublisher struct {
	mu            sync.Mutex
	err           error
	notifications []domain.OrderCreatedNotification
	deliveries    []domain.OrderCreatedDelivery
	statusChanges []domain.StatusChanged
	payouts       []domain.RestaurantPayout
}

func (p *fakePublisher) PublishOrderCreatedNotification(_ context.Context, evt domain.OrderCreatedNotification) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.notifications = append(p.notifications, evt)
	return p.err
}

func (p *fakePublisher) PublishOrderCreatedDelivery(_ context.Context, evt domain.OrderCreatedDelivery) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.deliveries = append(p.deliveries, evt)
	return p.err
}

func (p *fakePublisher) PublishStatusChanged(_ context.Context, evt domain.StatusChanged) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.statusChanges = append(p.statusChanges, evt)
	return p.err
}

func (p *fakePublisher) PublishRestaurantPayout(_ context.Context, evt domain.RestaurantPayout) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.payouts = append(p.payouts, evt)
	return p.err
}

type scheduledJob struct {
	orderID string
	status  domain.Status
	delay   time.Duration
}

type fakeScheduler struct {
	mu   sync.Mutex
	err  error
	jobs []scheduledJob
}

func (s *fakeScheduler) ScheduleStatusTransition(_ context.Context, orderID string, status domain.Status, delay time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs = append(s.jobs, scheduledJob{orderID, status, delay})
	return s.err
}
