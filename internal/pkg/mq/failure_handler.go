package mq

import (
	"context"
	"fmt"
	"strconv"

	"mtogo/internal/pkg/logger"

	"github.com/segmentio/kafka-go"
)

// 死信消息上携带的原始位置信息
const (
	HeaderOriginalTopic     = "x-original-topic"
	HeaderOriginalPartition = "x-original-partition"
	HeaderOriginalOffset    = "x-original-offset"
	HeaderExceptionFqcn     = "x-exception-fqcn"
	HeaderExceptionMessage  = "x-exception-message"
)

// FailureHandler 把处理失败的消息转发到死信主题 (DLT)，之后由调用方提交 offset。
type FailureHandler struct {
	writer   MessageWriter
	dltTopic string
}

func NewFailureHandler(writer MessageWriter, dltTopic string) *FailureHandler {
	return &FailureHandler{writer: writer, dltTopic: dltTopic}
}

// Handle 转发失败消息。转发本身失败时只能记录日志，不阻塞消费。
func (h *FailureHandler) Handle(ctx context.Context, msg kafka.Message, cause error) {
	dlt := kafka.Message{
		Topic: h.dltTopic,
		Key:   msg.Key,
		Value: msg.Value,
		Headers: append(append([]kafka.Header{}, msg.Headers...),
			kafka.Header{Key: HeaderOriginalTopic, Value: []byte(msg.Topic)},
			kafka.Header{Key: HeaderOriginalPartition, Value: []byte(strconv.Itoa(msg.Partition))},
			kafka.Header{Key: HeaderOriginalOffset, Value: []byte(strconv.FormatInt(msg.Offset, 10))},
			kafka.Header{Key: HeaderExceptionFqcn, Value: []byte(fmt.Sprintf("%T", cause))},
			kafka.Header{Key: HeaderExceptionMessage, Value: []byte(cause.Error())},
		),
	}

	if err := h.writer.WriteMessages(ctx, dlt); err != nil {
		logger.Ctx(ctx).Error().Err(err).
			Str("original_topic", msg.Topic).
			Int64("original_offset", msg.Offset).
			Str("cause", cause.Error()).
			Msg("🚨 CRITICAL: failed to forward message to dead letter topic")
		return
	}

	logger.Ctx(ctx).Warn().
		Str("dlt_topic", h.dltTopic).
		Str("original_topic", msg.Topic).
		Int64("original_offset", msg.Offset).
		Str("cause", cause.Error()).
		Msg("Message forwarded to dead letter topic")
}
