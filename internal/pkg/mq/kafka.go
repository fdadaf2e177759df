// internal/pkg/mq/kafka.go
package mq

import (
	"context"
	"time"

	"github.com/segmentio/kafka-go"
	"go.opentelemetry.io/otel"
)

// NewKafkaWriter 创建一个 Kafka 生产者。
// topic 为空时由每条消息自己的 Topic 字段决定投递目标。
func NewKafkaWriter(brokers []string, topic string) *kafka.Writer {
	return &kafka.Writer{
		Addr:                   kafka.TCP(brokers...),
		Topic:                  topic,
		Balancer:               &kafka.Hash{}, // 同一个 key (订单ID) 落在同一分区，保证单订单有序
		RequiredAcks:           kafka.RequireAll,
		AllowAutoTopicCreation: true,
		BatchTimeout:           10 * time.Millisecond,
	}
}

// NewKafkaReader 创建一个消费者组 reader。CommitInterval 为 0，offset 由调用方显式同步提交。
func NewKafkaReader(brokers []string, topic, groupID string) *kafka.Reader {
	return kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		Topic:          topic,
		GroupID:        groupID,
		MinBytes:       1,
		MaxBytes:       10e6,
		MaxWait:        time.Second,
		StartOffset:    kafka.FirstOffset,
		CommitInterval: 0,
	})
}

// ProduceMessage 发送一条消息，并自动把当前链路上下文注入到 header 中。
func ProduceMessage(ctx context.Context, writer MessageWriter, topic string, key, value []byte) error {
	msg := kafka.Message{
		Topic: topic,
		Key:   key,
		Value: value,
	}
	InjectTraceContext(ctx, &msg.Headers)
	return writer.WriteMessages(ctx, msg)
}

// MessageWriter 是 *kafka.Writer 的最小抽象，便于测试替换。
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// InjectTraceContext 把 ctx 中的 span 上下文写入 Kafka header
func InjectTraceContext(ctx context.Context, headers *[]kafka.Header) {
	carrier := KafkaHeaderCarrier(*headers)
	otel.GetTextMapPropagator().Inject(ctx, &carrier)
	*headers = carrier
}

// ExtractTraceContext 从 Kafka header 中恢复上游链路
func ExtractTraceContext(ctx context.Context, headers []kafka.Header) context.Context {
	carrier := KafkaHeaderCarrier(headers)
	return otel.GetTextMapPropagator().Extract(ctx, &carrier)
}
