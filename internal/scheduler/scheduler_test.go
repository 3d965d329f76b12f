package scheduler

import (
	"context"
	"errors"
	"sort"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	agentdomain "github.com/smallbiznis/agencydesk/internal/agentcommission/domain"
	"github.com/smallbiznis/agencydesk/internal/clock"
	obsmetrics "github.com/smallbiznis/agencydesk/internal/observability/metrics"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type staleRepo struct {
	agentdomain.Repository
	items []agentdomain.AgentCommission
	pages int
}

func (r *staleRepo) ListStale(_ context.Context, _ *gorm.DB, before time.Time, afterID snowflake.ID, limit int) ([]agentdomain.AgentCommission, error) {
	r.pages++
	sort.Slice(r.items, func(i, j int) bool { return r.items[i].ID < r.items[j].ID })
	out := make([]agentdomain.AgentCommission, 0, limit)
	for _, item := range r.items {
		if item.ID <= afterID {
			continue
		}
		if item.RecomputedAt != nil && !item.RecomputedAt.Before(before) {
			continue
		}
		out = append(out, item)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

type recomputeRecorder struct {
	agentdomain.Service
	calls []string
	fail  map[string]error
}

func (r *recomputeRecorder) Recompute(_ context.Context, agentID string) (*agentdomain.Response, error) {
	r.calls = append(r.calls, agentID)
	if err, ok := r.fail[agentID]; ok {
		return nil, err
	}
	return &agentdomain.Response{AgentID: agentID}, nil
}

func newTestScheduler(t *testing.T, now time.Time, repo agentdomain.Repository, svc agentdomain.Service, metrics *obsmetrics.SchedulerMetrics) *Scheduler {
	t.Helper()
	s, err := New(Params{
		DB:          &gorm.DB{},
		Log:         zap.NewNop(),
		Repo:        repo,
		Commissions: svc,
		Clock:       clock.NewFakeClock(now),
		Metrics:     metrics,
		Config:      Config{BatchSize: 2, StaleAfter: time.Hour},
	})
	require.NoError(t, err)
	return s
}

func assignment(id int64, agent string, start, end time.Time, recomputedAt *time.Time) agentdomain.AgentCommission {
	return agentdomain.AgentCommission{
		ID:           snowflake.ID(id),
		AgentID:      agent,
		StartDate:    start,
		EndDate:      end,
		RecomputedAt: recomputedAt,
	}
}

func TestNew_RequiresDependencies(t *testing.T) {
	_, err := New(Params{Log: zap.NewNop()})
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestRecomputeSweepJob_PagesAndSkipsSettledPeriods(t *testing.T) {
	now := time.Date(2026, time.June, 15, 12, 0, 0, 0, time.UTC)
	yearStart := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	yearEnd := time.Date(2026, time.December, 31, 23, 59, 59, 0, time.UTC)
	lastYearStart := yearStart.AddDate(-1, 0, 0)
	lastYearEnd := yearEnd.AddDate(-1, 0, 0)

	old := now.Add(-3 * time.Hour)
	fresh := now.Add(-10 * time.Minute)
	settled := lastYearEnd.Add(time.Hour)

	repo := &staleRepo{items: []agentdomain.AgentCommission{
		assignment(1, "a1", yearStart, yearEnd, nil),
		assignment(2, "a2", yearStart, yearEnd, &old),
		assignment(3, "a3", yearStart, yearEnd, &fresh),
		assignment(4, "a4", lastYearStart, lastYearEnd, &settled),
		assignment(5, "a5", yearEnd.AddDate(0, 0, 1), yearEnd.AddDate(1, 0, 0), nil),
		assignment(6, "a6", yearStart, yearEnd, nil),
	}}
	svc := &recomputeRecorder{}

	s := newTestScheduler(t, now, repo, svc, nil)
	require.NoError(t, s.RecomputeSweepJob(context.Background()))

	assert.Equal(t, []string{"a1", "a2", "a6"}, svc.calls)
	assert.Equal(t, 3, repo.pages)
}

func TestRecomputeSweepJob_ContinuesPastFailures(t *testing.T) {
	now := time.Date(2026, time.June, 15, 12, 0, 0, 0, time.UTC)
	start := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, time.December, 31, 0, 0, 0, 0, time.UTC)

	boom := errors.New("boom")
	repo := &staleRepo{items: []agentdomain.AgentCommission{
		assignment(1, "a1", start, end, nil),
		assignment(2, "a2", start, end, nil),
		assignment(3, "a3", start, end, nil),
	}}
	svc := &recomputeRecorder{fail: map[string]error{
		"a1": boom,
		"a2": agentdomain.ErrAssignmentNotFound,
	}}

	s := newTestScheduler(t, now, repo, svc, nil)
	err := s.RecomputeSweepJob(context.Background())

	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, agentdomain.ErrAssignmentNotFound)
	assert.Equal(t, []string{"a1", "a2", "a3"}, svc.calls)
}

func TestRunOnce_CountsProcessedAssignments(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics, err := obsmetrics.NewSchedulerMetricsWithRegisterer(registry)
	require.NoError(t, err)

	now := time.Date(2026, time.June, 15, 12, 0, 0, 0, time.UTC)
	start := time.Date(2026, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, time.December, 31, 0, 0, 0, 0, time.UTC)
	repo := &staleRepo{items: []agentdomain.AgentCommission{
		assignment(1, "a1", start, end, nil),
		assignment(2, "a2", start, end, nil),
	}}

	s := newTestScheduler(t, now, repo, &recomputeRecorder{}, metrics)
	require.NoError(t, s.RunOnce(context.Background()))

	labels := map[string]string{"job": jobRecomputeSweep}
	assert.Equal(t, float64(1), getCounterValue(t, registry, "agencydesk_scheduler_job_runs_total", labels))
	assert.Equal(t, float64(2), getCounterValue(t, registry, "agencydesk_scheduler_job_items_processed_total", labels))
}

func TestRunJobTimeoutDoesNotReturnErrorAndIncrementsTimeout(t *testing.T) {
	registry := prometheus.NewRegistry()
	metrics, err := obsmetrics.NewSchedulerMetricsWithRegisterer(registry)
	require.NoError(t, err)

	s := &Scheduler{log: zap.NewNop(), clock: clock.NewFakeClock(time.Time{}), metrics: metrics}
	err = s.runJob(context.Background(), "timeout_job", 5*time.Millisecond, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	require.NoError(t, err)

	assert.Equal(t, float64(1), getCounterValue(t, registry, "agencydesk_scheduler_job_timeouts_total", map[string]string{"job": "timeout_job"}))
	assert.Equal(t, float64(1), getCounterValue(t, registry, "agencydesk_scheduler_job_errors_total", map[string]string{
		"job":    "timeout_job",
		"reason": obsmetrics.SchedulerJobReasonDeadlineExceeded,
	}))
}

func TestRunJobWrapsFailures(t *testing.T) {
	s := &Scheduler{log: zap.NewNop(), clock: clock.NewFakeClock(time.Time{})}
	boom := errors.New("boom")

	err := s.runJob(context.Background(), "failing_job", time.Second, func(context.Context) error { return boom })

	require.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "failing_job")
}

func getCounterValue(t *testing.T, registry *prometheus.Registry, name string, labels map[string]string) float64 {
	t.Helper()
	metricFamilies, err := registry.Gather()
	require.NoError(t, err)
	for _, mf := range metricFamilies {
		if mf.GetName() != name {
			continue
		}
		for _, metric := range mf.Metric {
			if !labelsMatch(metric, labels) {
				continue
			}
			require.NotNil(t, metric.Counter, "metric %s is not a counter", name)
			return metric.GetCounter().GetValue()
		}
	}
	t.Fatalf("metric %s with labels %v not found", name, labels)
	return 0
}

func labelsMatch(metric *dto.Metric, labels map[string]string) bool {
	if len(metric.Label) != len(labels) {
		return false
	}
	for _, label := range metric.Label {
		if labels[label.GetName()] != label.GetValue() {
			return false
		}
	}
	return true
}
