// internal/service/order/interfaces/status_update_consumer.go
package interfaces

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"mtogo/internal/pkg/logger"
	"mtogo/internal/pkg/mq"
	"mtogo/internal/service/order/domain"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// StatusTransitioner 是状态机入口，消费者和延迟任务 worker 共用
type StatusTransitioner interface {
	ApplyStatusTransition(ctx context.Context, orderID string, target domain.Status) (*domain.Order, error)
}

// MessageReader 是 *kafka.Reader 的最小抽象
type MessageReader interface {
	FetchMessage(ctx context.Context) (kafka.Message, error)
	CommitMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// FailureSink 接收引擎处理失败的消息，生产环境是 mq.FailureHandler
type FailureSink interface {
	Handle(ctx context.Context, msg kafka.Message, cause error)
}

var errMalformedEvent = errors.New("malformed status update event")

// StatusUpdateConsumer 监听兄弟服务发来的订单状态更新并驱动状态机。
// offset 在处理完成后才提交，保证至少一次。
type StatusUpdateConsumer struct {
	reader   MessageReader
	engine   StatusTransitioner
	failures FailureSink
	tracer   trace.Tracer
	topic    string

	retryBackoff time.Duration
	cancel       context.CancelFunc
	wg           sync.WaitGroup
}

func NewStatusUpdateConsumer(reader MessageReader, topic string, engine StatusTransitioner, failures FailureSink, tracer trace.Tracer) *StatusUpdateConsumer {
	return &StatusUpdateConsumer{
		reader:       reader,
		engine:       engine,
		failures:     failures,
		tracer:       tracer,
		topic:        topic,
		retryBackoff: time.Second,
	}
}

// Start 启动消费循环后立即返回
func (c *StatusUpdateConsumer) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	c.cancel = cancel

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		logger.Ctx(runCtx).Info().Str("topic", c.topic).Msg("✅ Status update consumer started.")
		c.run(runCtx)
	}()
	return nil
}

// Stop 优雅地停止消费者
func (c *StatusUpdateConsumer) Stop(ctx context.Context) {
	if c.cancel != nil {
		c.cancel()
	}
	c.wg.Wait()
	if err := c.reader.Close(); err != nil {
		logger.Ctx(ctx).Error().Err(err).Msg("Error closing status update reader")
	}
	logger.Ctx(ctx).Info().Msg("🛑 Status update consumer stopped.")
}

func (c *StatusUpdateConsumer) run(ctx context.Context) {
	for {
		// 使用 FetchMessage 而不是 ReadMessage，处理完成后再手动提交
		msg, err := c.reader.FetchMessage(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return
			}
			logger.Ctx(ctx).Error().Err(err).Msg("Could not fetch message, retrying")
			select {
			case <-ctx.Done():
				return
			case <-time.After(c.retryBackoff):
			}
			continue
		}

		c.handle(ctx, msg)

		if err := c.reader.CommitMessages(ctx, msg); err != nil {
			logger.Ctx(ctx).Error().Err(err).Int64("offset", msg.Offset).Msg("Failed to commit message")
		}
	}
}

// handle 处理单条消息，任何错误都不会向上传播
func (c *StatusUpdateConsumer) handle(ctx context.Context, msg kafka.Message) {
	ctx = mq.ExtractTraceContext(ctx, msg.Headers)
	ctx, span := c.tracer.Start(ctx, "kafka.consume "+msg.Topic, trace.WithSpanKind(trace.SpanKindConsumer))
	defer span.End()
	span.SetAttributes(
		attribute.String("messaging.system", "kafka"),
		attribute.String("messaging.destination", msg.Topic),
		attribute.Int64("messaging.kafka.offset", msg.Offset),
	)

	event, err := decodeStatusUpdate(msg.Value)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "malformed message")
		logger.Ctx(ctx).Warn().Err(err).Int64("offset", msg.Offset).Msg("Discarding malformed status update")
		return
	}
	span.SetAttributes(attribute.String("order.id", event.OrderID))

	if _, err := c.engine.ApplyStatusTransition(ctx, event.OrderID, domain.Status(event.Status)); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		c.failures.Handle(ctx, msg, err)
	}
}

func decodeStatusUpdate(raw []byte) (domain.StatusUpdateEvent, error) {
	var event domain.StatusUpdateEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		return event, fmt.Errorf("%w: %w", errMalformedEvent, err)
	}
	if event.OrderID == "" || event.Status == "" {
		return event, fmt.Errorf("%w: orderId and status are required", errMalformedEvent)
	}
	return event, nil
}
