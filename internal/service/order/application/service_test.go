package application

import (
	"context"
	"errors"
	"testing"
	"time"

	"mtogo/internal/pkg/httpclient"
	"mtogo/internal/service/order/domain"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace/noop"
)

type harness struct {
	repo        *fakeRepo
	baskets     *fakeBaskets
	payments    *fakePayments
	restaurants *fakeRestaurants
	deliveries  *fakeDeliveries
	publisher   *fakePublisher
	scheduler   *fakeScheduler
	svc         *OrderApplicationService
}

func newHarness(opts ...Option) *harness {
	h := &harness{
		repo: newFakeRepo(),
		baskets: &fakeBaskets{basket: &domain.Basket{
			ID:           "basket-1",
			CustomerID:   "cust-1",
			RestaurantID: "rest-1",
			Items: []domain.BasketItem{
				{MenuID: "menu-1", Title: "Margherita", Price: decimal.NewFromInt(10), Quantity: 2},
			},
		}},
		payments:    &fakePayments{receipt: &domain.PaymentReceipt{PaymentIntentID: "pi_123"}},
		restaurants: &fakeRestaurants{restaurant: &domain.Restaurant{Name: "Luigi's", City: "Aarhus"}},
		deliveries:  &fakeDeliveries{delivery: &domain.Delivery{ID: "del-1", CourierID: "courier-1", Status: "DELIVERED"}},
		publisher:   &fakePublisher{},
		scheduler:   &fakeScheduler{},
	}
	h.svc = NewOrderApplicationService(h.repo, Ports{
		Baskets:     h.baskets,
		Payments:    h.payments,
		Restaurants: h.restaurants,
		Deliveries:  h.deliveries,
		Publisher:   h.publisher,
		Scheduler:   h.scheduler,
	}, noop.NewTracerProvider().Tracer("test"), opts...)
	return h
}

func validCommand() CreateOrderCommand {
	return CreateOrderCommand{
		Caller:          domain.CallerIdentity{Role: "customer", UserID: "cust-1", Email: "ann@example.com"},
		BasketID:        "basket-1",
		DeliveryAddress: domain.DeliveryAddress{Street: "Main 1", City: "Aarhus", Zip: "8000"},
		PaymentMethod:   domain.PaymentVisa,
	}
}

func TestCreateOrder_HappyPath(t *testing.T) {
	h := newHarness(WithStatusSchedule(time.Minute, 3*time.Minute))

	order, err := h.svc.CreateOrder(context.Background(), validCommand())
	require.NoError(t, err)

	assert.NotEmpty(t, order.ID)
	assert.Equal(t, domain.StatusPreparing, order.Status)
	assert.True(t, decimal.NewFromInt(20).Equal(order.TotalAmount), order.TotalAmount.String())
	assert.Equal(t, "pi_123", order.PaymentIntentID)
	assert.Equal(t, "cust-1", order.CustomerID)
	require.Len(t, order.Items, 1)
	assert.Equal(t, "Margherita", order.Items[0].Title)

	require.Len(t, h.payments.requests, 1)
	assert.True(t, decimal.NewFromInt(20).Equal(h.payments.requests[0].Amount))
	assert.Equal(t, domain.PaymentVisa, h.payments.requests[0].Method)
	assert.Equal(t, "cust-1", h.baskets.caller.UserID)

	assert.Equal(t, 1, h.repo.createCalls)
	assert.Equal(t, 1, h.baskets.clearCalls)

	require.Len(t, h.publisher.notifications, 1)
	n := h.publisher.notifications[0]
	assert.Equal(t, "ann@example.com", n.RecipientEmail)
	assert.Equal(t, order.ID, n.OrderID)
	require.NotNil(t, n.RestaurantData)
	assert.Equal(t, "Luigi's", n.RestaurantData.Name)

	require.Len(t, h.publisher.deliveries, 1)
	assert.Equal(t, "cust-1", h.publisher.deliveries[0].CustomerID)

	assert.Equal(t, []scheduledJob{
		{order.ID, domain.StatusOnTheWay, time.Minute},
		{order.ID, domain.StatusDelivered, 3 * time.Minute},
	}, h.scheduler.jobs)
}

func TestCreateOrder_TotalIsExactSum(t *testing.T) {
	h := newHarness()
	h.baskets.basket.Items = []domain.BasketItem{
		{MenuID: "a", Price: decimal.RequireFromString("0.10"), Quantity: 3},
		{MenuID: "b", Price: decimal.RequireFromString("12.45"), Quantity: 1},
	}

	order, err := h.svc.CreateOrder(context.Background(), validCommand())
	require.NoError(t, err)

	assert.Equal(t, "12.75", order.TotalAmount.StringFixed(2))
	assert.True(t, order.TotalAmount.Equal(h.payments.requests[0].Amount))
}

func TestCreateOrder_BasketNotFoundSkipsPayment(t *testing.T) {
	h := newHarness()
	h.baskets.err = &httpclient.StatusError{Service: "restaurant-service", StatusCode: 404, Message: "Basket not found"}

	_, err := h.svc.CreateOrder(context.Background(), validCommand())

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrBasketUnavailable))
	assert.Contains(t, err.Error(), "Basket not found")
	assert.Zero(t, h.payments.calls())
	assert.Zero(t, h.repo.createCalls)
	assert.Empty(t, h.publisher.notifications)
}

func TestCreateOrder_EmptyBasketSkipsPayment(t *testing.T) {
	h := newHarness()
	h.baskets.basket.Items = nil

	_, err := h.svc.CreateOrder(context.Background(), validCommand())

	assert.True(t, errors.Is(err, domain.ErrEmptyBasket))
	assert.Zero(t, h.payments.calls())
	assert.Zero(t, h.repo.createCalls)
}

func TestCreateOrder_PaymentFailureDoesNotPersist(t *testing.T) {
	h := newHarness()
	h.payments.err = errors.New("card declined")

	_, err := h.svc.CreateOrder(context.Background(), validCommand())

	require.Error(t, err)
	assert.True(t, errors.Is(err, domain.ErrPaymentFailed))
	assert.Contains(t, err.Error(), "card declined")
	assert.Zero(t, h.repo.createCalls)
	assert.Zero(t, h.baskets.clearCalls)
	assert.Empty(t, h.scheduler.jobs)
}

func TestCreateOrder_MissingPaymentIDIsPaymentFailure(t *testing.T) {
	h := newHarness()
	h.payments.receipt = &domain.PaymentReceipt{}

	_, err := h.svc.CreateOrder(context.Background(), validCommand())

	assert.True(t, errors.Is(err, domain.ErrPaymentFailed))
	assert.Zero(t, h.repo.createCalls)
}

func TestCreateOrder_PersistFailureAfterPayment(t *testing.T) {
	h := newHarness()
	h.repo.createErr = errors.New("deadlock")

	_, err := h.svc.CreateOrder(context.Background(), validCommand())

	require.Error(t, err)
	assert.Contains(t, err.Error(), "deadlock")
	assert.False(t, errors.Is(err, domain.ErrPaymentFailed))
	assert.Equal(t, 1, h.payments.calls())
	assert.Empty(t, h.publisher.notifications)
}

func TestCreateOrder_CallerCancellationAfterPaymentStillPersists(t *testing.T) {
	h := newHarness()
	ctx, cancel := context.WithCancel(context.Background())
	h.payments.onPay = cancel

	order, err := h.svc.CreateOrder(ctx, validCommand())

	require.NoError(t, err)
	assert.NotEmpty(t, order.ID)
	assert.True(t, h.repo.createCtxOK)
	assert.Len(t, h.scheduler.jobs, 2)
}

func TestCreateOrder_RestaurantFailureDegradesEvents(t *testing.T) {
	h := newHarness()
	h.restaurants.err = errors.New("restaurant-service down")

	order, err := h.svc.CreateOrder(context.Background(), validCommand())

	require.NoError(t, err)
	assert.Equal(t, domain.StatusPreparing, order.Status)
	require.Len(t, h.publisher.notifications, 1)
	assert.Nil(t, h.publisher.notifications[0].RestaurantData)
	require.Len(t, h.publisher.deliveries, 1)
	assert.Nil(t, h.publisher.deliveries[0].RestaurantData)
}

func TestCreateOrder_FollowUpFailuresAreSwallowed(t *testing.T) {
	h := newHarness()
	h.baskets.clearErr = errors.New("clear failed")
	h.publisher.err = errors.New("kafka unavailable")
	h.scheduler.err = errors.New("redis unavailable")

	order, err := h.svc.CreateOrder(context.Background(), validCommand())

	require.NoError(t, err)
	assert.NotEmpty(t, order.ID)
	// 前一个任务失败不影响后续任务执行
	assert.Len(t, h.publisher.notifications, 1)
	assert.Len(t, h.publisher.deliveries, 1)
	assert.Len(t, h.scheduler.jobs, 2)
}

func TestCreateOrder_InvalidCommand(t *testing.T) {
	tests := map[string]func(*CreateOrderCommand){
		"missing basket":     func(c *CreateOrderCommand) { c.BasketID = "" },
		"missing zip":        func(c *CreateOrderCommand) { c.DeliveryAddress.Zip = "" },
		"unsupported method": func(c *CreateOrderCommand) { c.PaymentMethod = "PAYPAL" },
	}
	for name, mutate := range tests {
		t.Run(name, func(t *testing.T) {
			h := newHarness()
			cmd := validCommand()
			mutate(&cmd)

			_, err := h.svc.CreateOrder(context.Background(), cmd)

			assert.True(t, errors.Is(err, domain.ErrInvalidInput))
			assert.Zero(t, h.baskets.getCalls)
		})
	}
}

func TestGetOrder(t *testing.T) {
	h := newHarness()
	created, err := h.svc.CreateOrder(context.Background(), validCommand())
	require.NoError(t, err)

	got, err := h.svc.GetOrder(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	_, err = h.svc.GetOrder(context.Background(), "missing")
	assert.True(t, errors.Is(err, domain.ErrOrderNotFound))
}
