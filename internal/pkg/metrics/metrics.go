// internal/pkg/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "order"

var (
	// SagaTotal 按结果统计 CreateOrder 的执行次数
	SagaTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "saga_total",
		Help:      "Number of CreateOrder sagas by result.",
	}, []string{"result"})

	FollowUpFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "followup_failures_total",
		Help:      "Best-effort follow-up tasks that failed after an order was committed.",
	}, []string{"task"})

	StatusTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "status_transitions_total",
		Help:      "Status transitions by target status and result.",
	}, []string{"status", "result"})

	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_published_total",
		Help:      "Domain events published to Kafka by topic and result.",
	}, []string{"topic", "result"})

	StatusJobs = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "status_jobs_total",
		Help:      "Scheduled status jobs handled by the worker by result.",
	}, []string{"result"})
)

// Result 把 error 折叠成 ok / error 标签值
func Result(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
