// internal/service/order/application/service.go
package application

import (
	"context"
	"time"

	"mtogo/internal/pkg/logger"
	"mtogo/internal/pkg/metrics"
	"mtogo/internal/service/order/application/saga"
	"mtogo/internal/service/order/domain"
	"mtogo/internal/service/order/domain/port"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	defaultOnTheWayDelay  = time.Minute
	defaultDeliveredDelay = 3 * time.Minute
)

// Ports 汇总应用服务依赖的全部出站端口
type Ports struct {
	Baskets     port.BasketService
	Payments    port.PaymentService
	Restaurants port.RestaurantService
	Deliveries  port.DeliveryService
	Publisher   port.EventPublisher
	Scheduler   port.StatusScheduler
}

type Option func(*OrderApplicationService)

// WithStatusSchedule 设置下单后自动推进到配送中、已送达的延迟
func WithStatusSchedule(onTheWay, delivered time.Duration) Option {
	return func(s *OrderApplicationService) {
		s.onTheWayDelay = onTheWay
		s.deliveredDelay = delivered
	}
}

// OrderApplicationService 只关注业务流程编排，本身不持有任何长期状态。
type OrderApplicationService struct {
	orderRepo domain.OrderRepository
	ports     Ports
	tracer    trace.Tracer

	onTheWayDelay  time.Duration
	deliveredDelay time.Duration

	chain     saga.Handler
	followUps *saga.FollowUps
}

func NewOrderApplicationService(orderRepo domain.OrderRepository, ports Ports, tracer trace.Tracer, opts ...Option) *OrderApplicationService {
	s := &OrderApplicationService{
		orderRepo:      orderRepo,
		ports:          ports,
		tracer:         tracer,
		onTheWayDelay:  defaultOnTheWayDelay,
		deliveredDelay: defaultDeliveredDelay,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.chain = saga.BuildCreateOrderChain()
	s.followUps = saga.NewFollowUps(tracer, ports.Baskets, ports.Restaurants, ports.Publisher, ports.Scheduler, s.onTheWayDelay, s.deliveredDelay)
	return s
}

// CreateOrder 执行下单 Saga。
// 第一阶段 (购物车、计价、支付、落库) 全部成功才返回订单；第二阶段的失败只记录，不会让下单失败。
func (s *OrderApplicationService) CreateOrder(ctx context.Context, cmd CreateOrderCommand) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "app.CreateOrder")
	defer span.End()
	span.SetAttributes(
		attribute.String("basket.id", cmd.BasketID),
		attribute.String("customer.id", cmd.Caller.UserID),
	)

	if err := cmd.Validate(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid create order command")
		metrics.SagaTotal.WithLabelValues("invalid").Inc()
		return nil, err
	}

	orderCtx := &saga.OrderContext{
		Ctx:            ctx,
		Tracer:         s.tracer,
		Caller:         cmd.Caller,
		BasketID:       cmd.BasketID,
		Address:        cmd.DeliveryAddress,
		PaymentMethod:  cmd.PaymentMethod,
		BasketService:  s.ports.Baskets,
		PaymentService: s.ports.Payments,
		Repo:           s.orderRepo,
	}

	if err := s.chain.Handle(orderCtx); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create order saga failed")
		metrics.SagaTotal.WithLabelValues("error").Inc()
		logger.Ctx(ctx).Warn().Err(err).Str("basket_id", cmd.BasketID).Msg("Create order saga aborted")
		return nil, err
	}
	metrics.SagaTotal.WithLabelValues("ok").Inc()

	order := orderCtx.Order
	logger.Ctx(ctx).Info().
		Str("order_id", order.ID).
		Str("payment_intent_id", order.PaymentIntentID).
		Str("total", order.TotalAmount.StringFixed(2)).
		Msg("✅ Order created")

	// orderCtx.Ctx 在支付步骤后已脱离调用方取消
	failed := s.followUps.Run(orderCtx.Ctx, &saga.FollowUpState{
		Order:    order,
		Caller:   cmd.Caller,
		BasketID: cmd.BasketID,
	})
	if len(failed) > 0 {
		span.SetAttributes(attribute.StringSlice("followup.failed", failed))
	}

	return order, nil
}

// GetOrder 直接读取仓储
func (s *OrderApplicationService) GetOrder(ctx context.Context, orderID string) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "app.GetOrder")
	defer span.End()
	span.SetAttributes(attribute.String("order.id", orderID))

	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		span.RecordError(err)
		return nil, err
	}
	return order, nil
}
