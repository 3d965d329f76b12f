package metrics

import (
	"context"
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	SchedulerJobReasonDeadlineExceeded = "deadline_exceeded"
	SchedulerJobReasonCanceled         = "canceled"
	SchedulerJobReasonError            = "error"
)

// SchedulerMetrics tracks background job runs.
type SchedulerMetrics struct {
	runs      *prometheus.CounterVec
	errors    *prometheus.CounterVec
	timeouts  *prometheus.CounterVec
	processed *prometheus.CounterVec
	duration  *prometheus.HistogramVec
}

func NewSchedulerMetrics() (*SchedulerMetrics, error) {
	return NewSchedulerMetricsWithRegisterer(prometheus.DefaultRegisterer)
}

func NewSchedulerMetricsWithRegisterer(reg prometheus.Registerer) (*SchedulerMetrics, error) {
	m := &SchedulerMetrics{
		runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agencydesk",
			Subsystem: "scheduler",
			Name:      "job_runs_total",
			Help:      "Scheduler job runs.",
		}, []string{"job"}),
		errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agencydesk",
			Subsystem: "scheduler",
			Name:      "job_errors_total",
			Help:      "Scheduler job failures by reason.",
		}, []string{"job", "reason"}),
		timeouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agencydesk",
			Subsystem: "scheduler",
			Name:      "job_timeouts_total",
			Help:      "Scheduler jobs stopped by their deadline.",
		}, []string{"job"}),
		processed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "agencydesk",
			Subsystem: "scheduler",
			Name:      "job_items_processed_total",
			Help:      "Items handled by scheduler jobs.",
		}, []string{"job"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "agencydesk",
			Subsystem: "scheduler",
			Name:      "job_duration_seconds",
			Help:      "Scheduler job duration.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"job"}),
	}

	for _, c := range []prometheus.Collector{m.runs, m.errors, m.timeouts, m.processed, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *SchedulerMetrics) IncJobRun(job string) {
	if m == nil {
		return
	}
	m.runs.WithLabelValues(job).Inc()
}

func (m *SchedulerMetrics) IncJobTimeout(job string) {
	if m == nil {
		return
	}
	m.timeouts.WithLabelValues(job).Inc()
}

func (m *SchedulerMetrics) IncJobError(job string, err error) {
	if m == nil || err == nil {
		return
	}
	m.errors.WithLabelValues(job, jobErrorReason(err)).Inc()
}

func (m *SchedulerMetrics) AddProcessed(job string, count int) {
	if m == nil || count <= 0 {
		return
	}
	m.processed.WithLabelValues(job).Add(float64(count))
}

func (m *SchedulerMetrics) ObserveJobDuration(job string, d time.Duration) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(job).Observe(d.Seconds())
}

func jobErrorReason(err error) string {
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return SchedulerJobReasonDeadlineExceeded
	case errors.Is(err, context.Canceled):
		return SchedulerJobReasonCanceled
	default:
		return SchedulerJobReasonError
	}
}
