package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	agentdomain "github.com/smallbiznis/agencydesk/internal/agentcommission/domain"
	"github.com/smallbiznis/agencydesk/internal/clock"
	commissiondomain "github.com/smallbiznis/agencydesk/internal/commission/domain"
	"github.com/smallbiznis/agencydesk/internal/commission/engine"
	packdomain "github.com/smallbiznis/agencydesk/internal/commissionpack/domain"
	"github.com/smallbiznis/agencydesk/internal/locker"
	"github.com/smallbiznis/agencydesk/internal/observability/logger"
	"github.com/smallbiznis/agencydesk/internal/observability/metrics"
	"github.com/smallbiznis/agencydesk/internal/revenue/aggregator"
	revenuedomain "github.com/smallbiznis/agencydesk/internal/revenue/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Repo        agentdomain.Repository
	RevenueRepo revenuedomain.Repository
	Packs       packdomain.Service
	Commission  commissiondomain.Service
	Locker      locker.Locker
	Clock       clock.Clock
	Metrics     *metrics.Metrics `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	repo        agentdomain.Repository
	revenueRepo revenuedomain.Repository
	packs       packdomain.Service
	commission  commissiondomain.Service
	locker      locker.Locker
	clock       clock.Clock
	metrics     *metrics.Metrics
}

func New(p Params) agentdomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("agentcommission.service"),
		genID:       p.GenID,
		repo:        p.Repo,
		revenueRepo: p.RevenueRepo,
		packs:       p.Packs,
		commission:  p.Commission,
		locker:      p.Locker,
		clock:       p.Clock,
		metrics:     p.Metrics,
	}
}

func (s *Service) Assign(ctx context.Context, agentID string, req agentdomain.AssignRequest) (*agentdomain.Response, error) {
	agentID, err := normalizeAgentID(agentID)
	if err != nil {
		return nil, err
	}
	packID, err := snowflake.ParseString(strings.TrimSpace(req.PackID))
	if err != nil {
		return nil, agentdomain.ErrInvalidPackID
	}

	pack, err := s.packs.GetPack(ctx, packID)
	if err != nil {
		return nil, err
	}
	if !pack.IsActive {
		return nil, agentdomain.ErrPackInactive
	}

	start, end := fiscalYearBounds(pack.Year)
	if req.StartDate != nil {
		start = req.StartDate.UTC()
	}
	if req.EndDate != nil {
		end = req.EndDate.UTC()
	}
	if end.Before(start) {
		return nil, agentdomain.ErrInvalidPeriod
	}

	var out *agentdomain.Response
	err = s.withAgentLock(ctx, agentID, func(tx *gorm.DB) error {
		now := s.clock.Now().UTC()
		existing, err := s.repo.FindByAgent(ctx, tx, agentID)
		if err != nil {
			return err
		}

		ac := agentdomain.AgentCommission{
			ID:        s.genID.Generate(),
			AgentID:   agentID,
			CreatedAt: now,
		}
		if existing != nil {
			ac = *existing
		}
		ac.PackID = pack.ID
		ac.StartDate = start
		ac.EndDate = end

		derived, tier, err := s.derive(ctx, tx, ac, *pack, now)
		if err != nil {
			return err
		}

		if existing == nil {
			err = s.repo.Insert(ctx, tx, &derived)
		} else {
			err = s.repo.Update(ctx, tx, &derived)
		}
		if err != nil {
			return err
		}

		out = toResponse(derived, *pack, tier)
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.WithAgent(logger.WithContext(ctx, s.log), agentID).Info("commission pack assigned",
		zap.String("pack_id", out.PackID),
		zap.String("pack_code", out.PackCode),
		zap.Time("start_date", out.StartDate),
		zap.Time("end_date", out.EndDate),
	)
	return out, nil
}

func (s *Service) Get(ctx context.Context, agentID string) (*agentdomain.Response, error) {
	agentID, err := normalizeAgentID(agentID)
	if err != nil {
		return nil, err
	}

	ac, err := s.repo.FindByAgent(ctx, s.db, agentID)
	if err != nil {
		return nil, err
	}
	if ac == nil {
		return nil, agentdomain.ErrAssignmentNotFound
	}

	pack, err := s.packs.GetPack(ctx, ac.PackID)
	if err != nil {
		return nil, err
	}
	tier, err := s.commission.ResolvePack(ctx, *pack, ac.TotalAmount)
	if err != nil {
		return nil, err
	}

	if !tier.Percentage.Equal(ac.CurrentPercentage) {
		logger.WithAgent(logger.WithContext(ctx, s.log), agentID).Warn("stored commission percentage is stale",
			zap.String("stored", ac.CurrentPercentage.String()),
			zap.String("resolved", tier.Percentage.String()),
		)
		ac.CurrentPercentage = tier.Percentage
	}

	return toResponse(*ac, *pack, tier), nil
}

func (s *Service) Recompute(ctx context.Context, agentID string) (*agentdomain.Response, error) {
	agentID, err := normalizeAgentID(agentID)
	if err != nil {
		return nil, err
	}

	var out *agentdomain.Response
	err = s.withAgentLock(ctx, agentID, func(tx *gorm.DB) error {
		ac, err := s.repo.FindByAgent(ctx, tx, agentID)
		if err != nil {
			return err
		}
		if ac == nil {
			return agentdomain.ErrAssignmentNotFound
		}

		pack, err := s.packs.GetPack(ctx, ac.PackID)
		if err != nil {
			return err
		}

		derived, tier, err := s.derive(ctx, tx, *ac, *pack, s.clock.Now().UTC())
		if err != nil {
			return err
		}
		if err := s.repo.Update(ctx, tx, &derived); err != nil {
			return err
		}

		out = toResponse(derived, *pack, tier)
		return nil
	})

	switch {
	case err == nil:
		s.metrics.RecordRecompute(ctx, "ok")
	case errors.Is(err, agentdomain.ErrAssignmentNotFound):
		s.metrics.RecordRecompute(ctx, "no_assignment")
		return nil, err
	default:
		s.metrics.RecordRecompute(ctx, "failed")
		logger.WithAgent(logger.WithContext(ctx, s.log), agentID).Error("commission recompute failed", zap.Error(err))
		return nil, err
	}

	logger.WithAgent(logger.WithContext(ctx, s.log), agentID).Debug("commission recomputed",
		zap.String("total_amount", out.TotalAmount.String()),
		zap.String("percentage", out.CurrentPercentage.String()),
	)
	return out, nil
}

func (s *Service) Simulate(ctx context.Context, agentID string, additional decimal.Decimal) (*agentdomain.SimulateResponse, error) {
	agentID, err := normalizeAgentID(agentID)
	if err != nil {
		return nil, err
	}

	ac, err := s.repo.FindByAgent(ctx, s.db, agentID)
	if err != nil {
		return nil, err
	}
	if ac == nil {
		return nil, agentdomain.ErrAssignmentNotFound
	}

	pack, err := s.packs.GetPack(ctx, ac.PackID)
	if err != nil {
		return nil, err
	}

	sim, err := s.commission.SimulatePack(ctx, *pack, ac.TotalAmount, additional)
	if err != nil {
		return nil, err
	}

	return &agentdomain.SimulateResponse{
		AgentID:    agentID,
		PackID:     pack.ID.String(),
		PackCode:   pack.Code,
		Simulation: sim,
	}, nil
}

// withAgentLock runs fn in a transaction while holding the agent's lock.
func (s *Service) withAgentLock(ctx context.Context, agentID string, fn func(tx *gorm.DB) error) error {
	release, err := s.locker.Acquire(ctx, locker.AgentKey(agentID))
	if err != nil {
		return err
	}
	defer release()

	return s.db.WithContext(ctx).Transaction(fn)
}

func (s *Service) derive(ctx context.Context, tx *gorm.DB, ac agentdomain.AgentCommission, pack packdomain.Pack, now time.Time) (agentdomain.AgentCommission, commissiondomain.Tier, error) {
	from, to := aggregator.DayBounds(ac.StartDate, ac.EndDate)
	records, err := s.revenueRepo.ListByAgent(ctx, tx, ac.AgentID, from, to)
	if err != nil {
		return agentdomain.AgentCommission{}, commissiondomain.Tier{}, err
	}

	totals := aggregator.Aggregate(records, ac.AgentID, from, to)
	tier, err := s.commission.ResolvePack(ctx, pack, totals.Total)
	if err != nil {
		return agentdomain.AgentCommission{}, commissiondomain.Tier{}, err
	}

	return agentdomain.Derive(ac, totals, tier, now), tier, nil
}

func toResponse(ac agentdomain.AgentCommission, pack packdomain.Pack, tier commissiondomain.Tier) *agentdomain.Response {
	return &agentdomain.Response{
		ID:                       ac.ID.String(),
		AgentID:                  ac.AgentID,
		PackID:                   pack.ID.String(),
		PackCode:                 pack.Code,
		PackName:                 pack.Name,
		CurrentPercentage:        ac.CurrentPercentage,
		SalesAmount:              ac.SalesAmount,
		RentalAmount:             ac.RentalAmount,
		PropertyManagementAmount: ac.PropertyManagementAmount,
		TotalAmount:              ac.TotalAmount,
		CurrentCommission:        engine.Commission(ac.TotalAmount, ac.CurrentPercentage),
		StartDate:                ac.StartDate,
		EndDate:                  ac.EndDate,
		RecomputedAt:             ac.RecomputedAt,
		Tier:                     tier,
		UpdatedAt:                ac.UpdatedAt,
	}
}

func fiscalYearBounds(year int) (time.Time, time.Time) {
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(year, time.December, 31, 0, 0, 0, 0, time.UTC)
	return start, end
}

func normalizeAgentID(agentID string) (string, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(agentID))
	if err != nil {
		return "", agentdomain.ErrInvalidAgentID
	}
	return parsed.String(), nil
}
