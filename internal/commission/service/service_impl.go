package service

import (
	"context"
	"errors"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	commissiondomain "github.com/smallbiznis/agencydesk/internal/commission/domain"
	"github.com/smallbiznis/agencydesk/internal/commission/engine"
	packdomain "github.com/smallbiznis/agencydesk/internal/commissionpack/domain"
	"github.com/smallbiznis/agencydesk/internal/observability/logger"
	"github.com/smallbiznis/agencydesk/internal/observability/metrics"
	"github.com/smallbiznis/agencydesk/internal/observability/tracing"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log     *zap.Logger
	Packs   packdomain.Service
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	log     *zap.Logger
	packs   packdomain.Service
	metrics *metrics.Metrics
}

func New(p Params) commissiondomain.Service {
	return &Service{
		log:     p.Log.Named("commission.service"),
		packs:   p.Packs,
		metrics: p.Metrics,
	}
}

func (s *Service) Resolve(ctx context.Context, packID string, amount decimal.Decimal) (*commissiondomain.ResolveResponse, error) {
	pack, err := s.lookup(ctx, packID)
	if err != nil {
		return nil, err
	}

	tier, err := s.ResolvePack(ctx, *pack, amount)
	if err != nil {
		return nil, err
	}

	return &commissiondomain.ResolveResponse{
		PackID:     pack.ID.String(),
		PackCode:   pack.Code,
		Amount:     amount,
		Commission: engine.Commission(amount, tier.Percentage),
		Tier:       tier,
	}, nil
}

func (s *Service) Simulate(ctx context.Context, packID string, current, additional decimal.Decimal) (*commissiondomain.SimulateResponse, error) {
	pack, err := s.lookup(ctx, packID)
	if err != nil {
		return nil, err
	}

	sim, err := s.SimulatePack(ctx, *pack, current, additional)
	if err != nil {
		return nil, err
	}

	return &commissiondomain.SimulateResponse{
		PackID:     pack.ID.String(),
		PackCode:   pack.Code,
		Simulation: sim,
	}, nil
}

func (s *Service) ResolvePack(ctx context.Context, pack packdomain.Pack, amount decimal.Decimal) (commissiondomain.Tier, error) {
	ctx, span := tracing.StartSpan(ctx, "commission.resolve_tier",
		attribute.String("pack_code", pack.Code),
	)
	defer span.End()

	tier, err := engine.ResolveTier(pack, amount)
	if err != nil {
		s.engineFailure(ctx, pack, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, errorKind(err))
		return commissiondomain.Tier{}, err
	}

	span.SetAttributes(attribute.Int("range_index", tier.RangeIndex))
	s.metrics.RecordTierResolution(ctx, pack.Code, tier.RangeIndex)
	return tier, nil
}

func (s *Service) SimulatePack(ctx context.Context, pack packdomain.Pack, current, additional decimal.Decimal) (commissiondomain.Simulation, error) {
	ctx, span := tracing.StartSpan(ctx, "commission.simulate",
		attribute.String("pack_code", pack.Code),
	)
	defer span.End()

	sim, err := engine.Simulate(pack, current, additional)
	if err != nil {
		s.engineFailure(ctx, pack, err)
		span.RecordError(err)
		span.SetStatus(codes.Error, errorKind(err))
		return commissiondomain.Simulation{}, err
	}

	span.SetAttributes(attribute.Bool("tier_changed", sim.TierChanged))
	s.metrics.RecordSimulation(ctx, pack.Code, sim.TierChanged)
	return sim, nil
}

func (s *Service) lookup(ctx context.Context, packID string) (*packdomain.Pack, error) {
	id, err := snowflake.ParseString(packID)
	if err != nil {
		return nil, packdomain.ErrInvalidID
	}
	pack, err := s.packs.GetPack(ctx, id)
	if err != nil {
		if errors.Is(err, commissiondomain.ErrPackNotFound) || errors.Is(err, commissiondomain.ErrInvalidRangeData) {
			s.engineFailure(ctx, packdomain.Pack{ID: id}, err)
		}
		return nil, err
	}
	return pack, nil
}

func (s *Service) engineFailure(ctx context.Context, pack packdomain.Pack, err error) {
	kind := errorKind(err)
	s.metrics.RecordEngineError(ctx, kind)
	logger.WithContext(ctx, s.log).Warn("commission computation rejected",
		zap.String("pack_id", pack.ID.String()),
		zap.String("pack_code", pack.Code),
		zap.String("kind", kind),
		zap.Error(err),
	)
}

func errorKind(err error) string {
	switch {
	case errors.Is(err, commissiondomain.ErrInvalidRangeData):
		return "invalid_range_data"
	case errors.Is(err, commissiondomain.ErrPackNotFound):
		return "pack_not_found"
	case errors.Is(err, commissiondomain.ErrNegativeAmount):
		return "negative_amount"
	default:
		return "unknown"
	}
}
