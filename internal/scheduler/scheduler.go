package scheduler

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/oklog/ulid/v2"
	agentdomain "github.com/smallbiznis/agencydesk/internal/agentcommission/domain"
	"github.com/smallbiznis/agencydesk/internal/clock"
	obsmetrics "github.com/smallbiznis/agencydesk/internal/observability/metrics"
	"github.com/smallbiznis/agencydesk/internal/scheduler/guard"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const jobRecomputeSweep = "recompute_sweep"

var ErrInvalidConfig = errors.New("invalid_scheduler_config")

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	Repo        agentdomain.Repository
	Commissions agentdomain.Service
	Clock       clock.Clock
	Metrics     *obsmetrics.SchedulerMetrics `optional:"true"`
	Config      Config                       `optional:"true"`
}

// Scheduler periodically re-derives agent commissions whose cached figures
// may have drifted, e.g. after a pack change or a missed recompute.
type Scheduler struct {
	db          *gorm.DB
	log         *zap.Logger
	cfg         Config
	clock       clock.Clock
	repo        agentdomain.Repository
	commissions agentdomain.Service
	metrics     *obsmetrics.SchedulerMetrics
}

func New(p Params) (*Scheduler, error) {
	if p.DB == nil || p.Log == nil || p.Repo == nil || p.Commissions == nil || p.Clock == nil {
		return nil, ErrInvalidConfig
	}
	return &Scheduler{
		db:          p.DB,
		log:         p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		cfg:         p.Config.withDefaults(),
		clock:       p.Clock,
		repo:        p.Repo,
		commissions: p.Commissions,
		metrics:     p.Metrics,
	}, nil
}

func (s *Scheduler) runJob(parent context.Context, name string, timeout time.Duration, fn func(ctx context.Context) error) error {
	start := s.clock.Now()
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	log := s.log.With(
		zap.String("job", name),
		zap.String("run_id", ulid.Make().String()),
	)
	s.metrics.IncJobRun(name)

	err := fn(ctx)
	s.metrics.ObserveJobDuration(name, s.clock.Now().Sub(start))
	if err == nil {
		return nil
	}

	isTimeout := errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
	if isTimeout {
		s.metrics.IncJobTimeout(name)
	}
	s.metrics.IncJobError(name, err)
	if isTimeout {
		// the next tick resumes from the stale set
		log.Warn("job timed out", zap.Duration("timeout", timeout), zap.Error(err))
		return nil
	}

	return fmt.Errorf("%s: %w", name, err)
}

func (s *Scheduler) RunOnce(parent context.Context) error {
	return s.runJob(parent, jobRecomputeSweep, s.cfg.JobTimeout, s.RecomputeSweepJob)
}

func (s *Scheduler) RunForever(ctx context.Context) {
	ticker := time.NewTicker(s.cfg.RunInterval)
	defer ticker.Stop()

	for {
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// RecomputeSweepJob recomputes every assignment not refreshed within
// StaleAfter. A failing agent does not stop the sweep; failures are joined.
func (s *Scheduler) RecomputeSweepJob(ctx context.Context) error {
	now := s.clock.Now().UTC()
	before := now.Add(-s.cfg.StaleAfter)

	var (
		jobErr    error
		cursor    snowflake.ID
		processed int
		skipped   int
	)
	for {
		batch, err := s.repo.ListStale(ctx, s.db, before, cursor, s.cfg.BatchSize)
		if err != nil {
			return errors.Join(jobErr, err)
		}
		if len(batch) == 0 {
			break
		}

		for _, ac := range batch {
			if err := ctx.Err(); err != nil {
				s.metrics.AddProcessed(jobRecomputeSweep, processed)
				return errors.Join(jobErr, err)
			}
			cursor = ac.ID

			if err := guard.EnsureAssignmentNeedsSweep(ac.StartDate, ac.EndDate, ac.RecomputedAt, now); err != nil {
				skipped++
				continue
			}

			if _, err := s.commissions.Recompute(ctx, ac.AgentID); err != nil {
				if errors.Is(err, agentdomain.ErrAssignmentNotFound) {
					skipped++
					continue
				}
				jobErr = errors.Join(jobErr, fmt.Errorf("agent %s: %w", ac.AgentID, err))
				continue
			}
			processed++
		}

		if len(batch) < s.cfg.BatchSize {
			break
		}
	}

	s.metrics.AddProcessed(jobRecomputeSweep, processed)
	s.log.Info("recompute sweep finished",
		zap.Int("processed", processed),
		zap.Int("skipped", skipped),
		zap.Time("stale_before", before),
	)
	return jobErr
}
