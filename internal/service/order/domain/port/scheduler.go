package port

import (
	"context"
	"time"

	"mtogo/internal/service/order/domain"
)

// StatusScheduler 是延迟任务调度器的出站端口。
type StatusScheduler interface {
	// ScheduleStatusTransition 安排在 delay 之后把订单推进到 status，至少执行一次。
	ScheduleStatusTransition(ctx context.Context, orderID string, status domain.Status, delay time.Duration) error
}
