// internal/service/order/interfaces/status_job_worker.go
package interfaces

import (
	"context"
	"sync"
	"time"

	"mtogo/internal/pkg/logger"
	"mtogo/internal/pkg/metrics"
	"mtogo/internal/service/order/domain"
	"mtogo/internal/service/order/infrastructure/adapter"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
)

// JobQueue 是延迟任务队列的领取端
type JobQueue interface {
	Claim(ctx context.Context, limit int, lease time.Duration) ([]adapter.ClaimedJob, error)
	Ack(ctx context.Context, member string) error
}

// StatusJobWorker 定期领取到期的状态任务并交给状态机。
// 只有成功或永久失败的任务会被确认，其余等待租约过期后重新投递。
type StatusJobWorker struct {
	queue  JobQueue
	engine StatusTransitioner
	tracer trace.Tracer

	interval  time.Duration
	batchSize int
	lease     time.Duration

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewStatusJobWorker(queue JobQueue, engine StatusTransitioner, tracer trace.Tracer, interval time.Duration, batchSize int, lease time.Duration) *StatusJobWorker {
	return &StatusJobWorker{
		queue:     queue,
		engine:    engine,
		tracer:    tracer,
		interval:  interval,
		batchSize: batchSize,
		lease:     lease,
	}
}

func (w *StatusJobWorker) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)
	w.cancel = cancel

	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		logger.Ctx(runCtx).Info().Dur("interval", w.interval).Msg("✅ Status job worker started.")

		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()
		for {
			select {
			case <-runCtx.Done():
				return
			case <-ticker.C:
				w.poll(runCtx)
			}
		}
	}()
	return nil
}

func (w *StatusJobWorker) Stop(ctx context.Context) {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
	logger.Ctx(ctx).Info().Msg("🛑 Status job worker stopped.")
}

// poll 领取一批任务并发处理，等全部完成后才返回
func (w *StatusJobWorker) poll(ctx context.Context) {
	jobs, err := w.queue.Claim(ctx, w.batchSize, w.lease)
	if err != nil {
		if ctx.Err() == nil {
			logger.Ctx(ctx).Error().Err(err).Msg("Failed to claim status jobs")
		}
		return
	}
	if len(jobs) == 0 {
		return
	}

	var g errgroup.Group
	g.SetLimit(w.batchSize)
	for _, job := range jobs {
		g.Go(func() error {
			w.process(ctx, job)
			return nil
		})
	}
	_ = g.Wait()
}

func (w *StatusJobWorker) process(ctx context.Context, job adapter.ClaimedJob) {
	ctx, span := w.tracer.Start(ctx, "worker.StatusJob", trace.WithSpanKind(trace.SpanKindConsumer))
	defer span.End()
	span.SetAttributes(
		attribute.String("job.id", job.Job.JobID),
		attribute.String("order.id", job.Job.OrderID),
		attribute.String("order.target_status", job.Job.Status),
	)
	log := logger.Ctx(ctx).With().Str("job_id", job.Job.JobID).Str("order_id", job.Job.OrderID).Logger()

	if job.Err != nil || job.Job.OrderID == "" || job.Job.Status == "" {
		log.Warn().Err(job.Err).Str("member", job.Member).Msg("Discarding malformed status job")
		metrics.StatusJobs.WithLabelValues("malformed").Inc()
		w.ack(ctx, job.Member)
		return
	}

	_, err := w.engine.ApplyStatusTransition(ctx, job.Job.OrderID, domain.Status(job.Job.Status))
	switch {
	case err == nil:
		metrics.StatusJobs.WithLabelValues("ok").Inc()
		w.ack(ctx, job.Member)
	case domain.IsPermanent(err):
		span.RecordError(err)
		log.Warn().Err(err).Msg("Status job failed permanently, dropping")
		metrics.StatusJobs.WithLabelValues("dropped").Inc()
		w.ack(ctx, job.Member)
	default:
		// 不确认，租约过期后重新投递
		span.RecordError(err)
		log.Error().Err(err).Msg("Status job failed, will retry after lease expiry")
		metrics.StatusJobs.WithLabelValues("retry").Inc()
	}
}

func (w *StatusJobWorker) ack(ctx context.Context, member string) {
	if err := w.queue.Ack(ctx, member); err != nil {
		logger.Ctx(ctx).Error().Err(err).Msg("Failed to ack status job")
	}
}
