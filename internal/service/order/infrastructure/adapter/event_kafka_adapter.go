package adapter

import (
	"context"
	"encoding/json"
	"fmt"

	"mtogo/internal/pkg/bootstrap"
	"mtogo/internal/pkg/logger"
	"mtogo/internal/pkg/metrics"
	"mtogo/internal/pkg/mq"
	"mtogo/internal/service/order/domain"

	"github.com/segmentio/kafka-go"
)

// EventKafkaAdapter 实现了 port.EventPublisher 接口。
// 所有主题共用一个 writer，消息 key 为订单 ID，保证单个订单的事件有序。
type EventKafkaAdapter struct {
	writer  mq.MessageWriter
	topics  bootstrap.TopicConfig
	brokers []string
}

func NewEventKafkaAdapter(writer mq.MessageWriter, topics bootstrap.TopicConfig, brokers []string) *EventKafkaAdapter {
	return &EventKafkaAdapter{writer: writer, topics: topics, brokers: brokers}
}

// Start 启动时探测一次 broker，尽早暴露配置错误
func (a *EventKafkaAdapter) Start(ctx context.Context) error {
	if len(a.brokers) == 0 {
		return nil
	}
	conn, err := kafka.DialContext(ctx, "tcp", a.brokers[0])
	if err != nil {
		return fmt.Errorf("dial kafka %s: %w", a.brokers[0], err)
	}
	_ = conn.Close()
	logger.Ctx(ctx).Info().Strs("brokers", a.brokers).Msg("✅ Event publisher connected")
	return nil
}

// Stop 刷出缓冲中的消息并关闭 writer
func (a *EventKafkaAdapter) Stop(ctx context.Context) {
	if err := a.writer.Close(); err != nil {
		logger.Ctx(ctx).Error().Err(err).Msg("Failed to close kafka writer")
		return
	}
	logger.Ctx(ctx).Info().Msg("🛑 Event publisher stopped.")
}

func (a *EventKafkaAdapter) PublishOrderCreatedNotification(ctx context.Context, evt domain.OrderCreatedNotification) error {
	return a.publish(ctx, a.topics.OrderCreatedNotification, evt.OrderID, evt)
}

func (a *EventKafkaAdapter) PublishOrderCreatedDelivery(ctx context.Context, evt domain.OrderCreatedDelivery) error {
	return a.publish(ctx, a.topics.OrderCreatedDelivery, evt.OrderID, evt)
}

func (a *EventKafkaAdapter) PublishStatusChanged(ctx context.Context, evt domain.StatusChanged) error {
	return a.publish(ctx, a.topics.StatusChanged, evt.OrderID, evt)
}

func (a *EventKafkaAdapter) PublishRestaurantPayout(ctx context.Context, evt domain.RestaurantPayout) error {
	orderID := ""
	if evt.Order != nil {
		orderID = evt.Order.ID
	}
	return a.publish(ctx, a.topics.RestaurantPayout, orderID, evt)
}

func (a *EventKafkaAdapter) publish(ctx context.Context, topic, key string, payload any) error {
	value, err := json.Marshal(payload)
	if err != nil {
		metrics.EventsPublished.WithLabelValues(topic, "error").Inc()
		return fmt.Errorf("marshal %s event: %w", topic, err)
	}

	// 调用通用的 mq.ProduceMessage，它会自动处理追踪上下文注入
	err = mq.ProduceMessage(ctx, a.writer, topic, []byte(key), value)
	metrics.EventsPublished.WithLabelValues(topic, metrics.Result(err)).Inc()
	if err != nil {
		return fmt.Errorf("publish %s event for order %s: %w", topic, key, err)
	}
	logger.Ctx(ctx).Debug().Str("topic", topic).Str("order_id", key).Msg("Event published")
	return nil
}
