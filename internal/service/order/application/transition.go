package application

import (
	"context"
	"time"

	"mtogo/internal/pkg/logger"
	"mtogo/internal/pkg/metrics"
	"mtogo/internal/service/order/domain"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"golang.org/x/sync/errgroup"
)

// 状态迁移的 metrics 结果标签
const (
	transitionApplied    = "applied"
	transitionOutOfOrder = "out_of_order"
	transitionNoop       = "noop"
	transitionInvalid    = "invalid"
	transitionError      = "error"

	// 非法状态来自外部输入，统一归到一个标签，避免指标基数失控
	unknownStatusLabel = "unknown"
)

// ApplyStatusTransition 是状态机的唯一入口，延迟任务和外部事件都从这里进入。
// 终态是吸收态：重复或迟到的消息会得到未修改的订单且不发布任何事件。
func (s *OrderApplicationService) ApplyStatusTransition(ctx context.Context, orderID string, target domain.Status) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "app.ApplyStatusTransition")
	defer span.End()
	span.SetAttributes(
		attribute.String("order.id", orderID),
		attribute.String("order.target_status", string(target)),
	)
	log := logger.Ctx(ctx).With().Str("order_id", orderID).Str("target_status", string(target)).Logger()

	if !target.IsValid() {
		_, err := domain.ParseStatus(string(target))
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid status")
		metrics.StatusTransitions.WithLabelValues(unknownStatusLabel, transitionInvalid).Inc()
		log.Warn().Err(err).Msg("Rejected status transition")
		return nil, err
	}

	order, err := s.orderRepo.FindByID(ctx, orderID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "load order failed")
		metrics.StatusTransitions.WithLabelValues(string(target), transitionError).Inc()
		return nil, err
	}

	if order.Status.IsTerminal() {
		metrics.StatusTransitions.WithLabelValues(string(target), transitionNoop).Inc()
		log.Info().Str("current_status", string(order.Status)).Msg("Order already in terminal status, ignoring transition")
		return order, nil
	}

	result := transitionApplied
	if order.Status != target && !domain.CanTransition(order.Status, target) {
		result = transitionOutOfOrder
		log.Warn().Str("current_status", string(order.Status)).Msg("Applying status transition outside the normal flow")
	}

	applied, err := s.orderRepo.UpdateStatus(ctx, orderID, target)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "update status failed")
		metrics.StatusTransitions.WithLabelValues(string(target), transitionError).Inc()
		return nil, err
	}
	if !applied {
		// 与另一次迁移竞争时对方先进入了终态
		metrics.StatusTransitions.WithLabelValues(string(target), transitionNoop).Inc()
		log.Info().Msg("Order reached terminal status concurrently, ignoring transition")
		return s.orderRepo.FindByID(ctx, orderID)
	}

	metrics.StatusTransitions.WithLabelValues(string(target), result).Inc()
	previous := order.Status
	order.Status = target
	order.UpdatedAt = time.Now().UTC()
	log.Info().Str("previous_status", string(previous)).Msg("✅ Order status updated")

	// 状态已提交，后续的通知和结算不再受调用方取消影响
	ctx = context.WithoutCancel(ctx)

	if err := s.ports.Publisher.PublishStatusChanged(ctx, domain.StatusChanged{OrderID: order.ID, Status: target}); err != nil {
		span.RecordError(err)
		log.Error().Err(err).Msg("Failed to publish status changed notification")
	}

	if target == domain.StatusDelivered {
		s.publishPayout(ctx, order)
	}
	return order, nil
}

// publishPayout 并发获取配送和餐厅数据，两者都成功才发布结算事件。
// 失败时不回滚状态。
func (s *OrderApplicationService) publishPayout(ctx context.Context, order *domain.Order) {
	ctx, span := s.tracer.Start(ctx, "app.RestaurantPayout")
	defer span.End()

	var (
		delivery   *domain.Delivery
		restaurant *domain.Restaurant
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d, err := s.ports.Deliveries.GetDeliveryByOrder(gctx, order.ID)
		if err != nil {
			return domain.Classify(domain.ErrDeliveryUnavailable, err)
		}
		delivery = d
		return nil
	})
	g.Go(func() error {
		r, err := s.ports.Restaurants.GetRestaurant(gctx, order.RestaurantID)
		if err != nil {
			return domain.Classify(domain.ErrRestaurantUnavailable, err)
		}
		restaurant = r
		return nil
	})

	if err := g.Wait(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "payout enrichment failed")
		logger.Ctx(ctx).Warn().Err(err).Str("order_id", order.ID).Msg("Skipping restaurant payout")
		return
	}

	err := s.ports.Publisher.PublishRestaurantPayout(ctx, domain.RestaurantPayout{
		Order:        order,
		DeliveryData: delivery,
		Restaurant:   restaurant,
	})
	if err != nil {
		span.RecordError(err)
		logger.Ctx(ctx).Error().Err(err).Str("order_id", order.ID).Msg("Failed to publish restaurant payout")
	}
}
