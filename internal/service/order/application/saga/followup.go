package saga

import (
	"context"
	"time"

	"mtogo/internal/pkg/logger"
	"mtogo/internal/pkg/metrics"
	"mtogo/internal/service/order/domain"
	"mtogo/internal/service/order/domain/port"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// 订单提交后的尽力而为任务名，也是 metrics 的 task 标签
const (
	TaskClearBasket              = "clear-basket"
	TaskFetchRestaurant          = "fetch-restaurant"
	TaskPublishOrderNotification = "publish-order-created-notification"
	TaskPublishOrderDelivery     = "publish-order-created-delivery"
	TaskScheduleOnTheWay         = "schedule-on-the-way"
	TaskScheduleDelivered        = "schedule-delivered"
)

// FollowUpState 是第二阶段各任务共享的数据
type FollowUpState struct {
	Order    *domain.Order
	Caller   domain.CallerIdentity
	BasketID string

	// fetch-restaurant 失败时保持 nil，事件中以 null 发送
	Restaurant *domain.Restaurant
}

type followUpTask struct {
	name string
	run  func(ctx context.Context, state *FollowUpState) error
}

// FollowUps 按顺序执行订单提交后的任务。单个任务失败只记录和计数，不影响订单结果。
type FollowUps struct {
	tracer         trace.Tracer
	baskets        port.BasketService
	restaurants    port.RestaurantService
	publisher      port.EventPublisher
	scheduler      port.StatusScheduler
	onTheWayDelay  time.Duration
	deliveredDelay time.Duration

	tasks []followUpTask
}

func NewFollowUps(
	tracer trace.Tracer,
	baskets port.BasketService,
	restaurants port.RestaurantService,
	publisher port.EventPublisher,
	scheduler port.StatusScheduler,
	onTheWayDelay, deliveredDelay time.Duration,
) *FollowUps {
	f := &FollowUps{
		tracer:         tracer,
		baskets:        baskets,
		restaurants:    restaurants,
		publisher:      publisher,
		scheduler:      scheduler,
		onTheWayDelay:  onTheWayDelay,
		deliveredDelay: deliveredDelay,
	}
	f.tasks = []followUpTask{
		{TaskClearBasket, f.clearBasket},
		{TaskFetchRestaurant, f.fetchRestaurant},
		{TaskPublishOrderNotification, f.publishNotification},
		{TaskPublishOrderDelivery, f.publishDelivery},
		{TaskScheduleOnTheWay, f.scheduleOnTheWay},
		{TaskScheduleDelivered, f.scheduleDelivered},
	}
	return f
}

// Run 执行全部任务，返回失败的任务名
func (f *FollowUps) Run(ctx context.Context, state *FollowUpState) []string {
	var failed []string
	for _, task := range f.tasks {
		taskCtx, span := f.tracer.Start(ctx, "followup."+task.name)
		span.SetAttributes(attribute.String("order.id", state.Order.ID))

		if err := task.run(taskCtx, state); err != nil {
			failed = append(failed, task.name)
			span.RecordError(err)
			span.SetStatus(codes.Error, "follow-up task failed")
			metrics.FollowUpFailures.WithLabelValues(task.name).Inc()
			logger.Ctx(taskCtx).Warn().Err(err).
				Str("order_id", state.Order.ID).
				Str("task", task.name).
				Msg("Follow-up task failed, order stays committed")
		}
		span.End()
	}
	return failed
}

func (f *FollowUps) clearBasket(ctx context.Context, state *FollowUpState) error {
	return f.baskets.ClearBasket(ctx, state.Caller, state.BasketID)
}

func (f *FollowUps) fetchRestaurant(ctx context.Context, state *FollowUpState) error {
	restaurant, err := f.restaurants.GetRestaurant(ctx, state.Order.RestaurantID)
	if err != nil {
		return domain.Classify(domain.ErrRestaurantUnavailable, err)
	}
	state.Restaurant = restaurant
	return nil
}

func (f *FollowUps) publishNotification(ctx context.Context, state *FollowUpState) error {
	return f.publisher.PublishOrderCreatedNotification(ctx, domain.OrderCreatedNotification{
		RecipientEmail:  state.Caller.Email,
		OrderID:         state.Order.ID,
		RestaurantData:  state.Restaurant,
		DeliveryAddress: state.Order.DeliveryAddress,
		Items:           state.Order.Items,
	})
}

func (f *FollowUps) publishDelivery(ctx context.Context, state *FollowUpState) error {
	return f.publisher.PublishOrderCreatedDelivery(ctx, domain.OrderCreatedDelivery{
		OrderID:         state.Order.ID,
		CustomerID:      state.Order.CustomerID,
		RestaurantData:  state.Restaurant,
		DeliveryAddress: state.Order.DeliveryAddress,
		Items:           state.Order.Items,
	})
}

func (f *FollowUps) scheduleOnTheWay(ctx context.Context, state *FollowUpState) error {
	return f.scheduler.ScheduleStatusTransition(ctx, state.Order.ID, domain.StatusOnTheWay, f.onTheWayDelay)
}

func (f *FollowUps) scheduleDelivered(ctx context.Context, state *FollowUpState) error {
	return f.scheduler.ScheduleStatusTransition(ctx, state.Order.ID, domain.StatusDelivered, f.deliveredDelay)
}
