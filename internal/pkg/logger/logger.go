// internal/pkg/logger/logger.go
package logger

import (
	"context"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/trace"
)

// Init 配置全局 zerolog 实例，所有服务在启动时调用一次。
func Init(serviceName, level string) {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(lvl)
	zerolog.TimeFieldFormat = time.RFC3339Nano

	log.Logger = zerolog.New(os.Stdout).With().
		Timestamp().
		Str("service", serviceName).
		Logger()
}

// Ctx 返回一个带有链路信息 (trace_id / span_id) 的 logger。
func Ctx(ctx context.Context) *zerolog.Logger {
	l := log.Logger
	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.HasTraceID() || spanCtx.HasSpanID() {
		l = l.With().
			Str("trace_id", spanCtx.TraceID().String()).
			Str("span_id", spanCtx.SpanID().String()).
			Logger()
	}
	return &l
}
