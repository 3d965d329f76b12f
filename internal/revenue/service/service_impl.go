package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/google/uuid"
	agentdomain "github.com/smallbiznis/agencydesk/internal/agentcommission/domain"
	"github.com/smallbiznis/agencydesk/internal/clock"
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
	Repo        revenuedomain.Repository
	Commissions agentdomain.Service
	Clock       clock.Clock
	Metrics     *metrics.Metrics `optional:"true"`
}

type Service struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	repo        revenuedomain.Repository
	commissions agentdomain.Service
	clock       clock.Clock
	metrics     *metrics.Metrics
}

func New(p Params) revenuedomain.Service {
	return &Service{
		db:          p.DB,
		log:         p.Log.Named("revenue.service"),
		genID:       p.GenID,
		repo:        p.Repo,
		commissions: p.Commissions,
		clock:       p.Clock,
		metrics:     p.Metrics,
	}
}

func (s *Service) Record(ctx context.Context, agentID string, req revenuedomain.RecordRequest) (*revenuedomain.Response, error) {
	agentID, err := normalizeAgentID(agentID)
	if err != nil {
		return nil, err
	}
	source := revenuedomain.Source(strings.ToLower(strings.TrimSpace(string(req.Source))))
	if !source.Valid() {
		return nil, revenuedomain.ErrInvalidSource
	}
	if !revenuedomain.ValidAmount(req.Amount) {
		return nil, revenuedomain.ErrInvalidAmount
	}

	now := s.clock.Now().UTC()
	occurredAt := now
	if req.OccurredAt != nil && !req.OccurredAt.IsZero() {
		occurredAt = req.OccurredAt.UTC()
	}

	record := &revenuedomain.RevenueRecord{
		ID:              s.genID.Generate(),
		AgentID:         agentID,
		Source:          source,
		Amount:          req.Amount,
		OccurredAt:      occurredAt,
		PropertyAddress: optionalText(req.PropertyAddress),
		ClientName:      optionalText(req.ClientName),
		Notes:           optionalText(req.Notes),
		CreatedAt:       now,
	}
	if err := s.repo.Insert(ctx, s.db, record); err != nil {
		return nil, err
	}
	s.metrics.RecordRevenue(ctx, string(source))

	log := logger.WithAgent(logger.WithContext(ctx, s.log), agentID)
	log.Info("revenue recorded",
		zap.String("revenue_id", record.ID.String()),
		zap.String("source", string(source)),
		zap.String("amount", record.Amount.String()),
	)

	resp := toResponse(record)
	_, err = s.commissions.Recompute(ctx, agentID)
	switch {
	case err == nil:
		resp.CommissionRecomputed = true
	case errors.Is(err, agentdomain.ErrAssignmentNotFound):
		log.Debug("no commission assignment, skipping recompute")
	default:
		log.Error("commission recompute after revenue failed", zap.Error(err))
	}
	return resp, nil
}

func (s *Service) List(ctx context.Context, agentID string, from, to time.Time) ([]revenuedomain.Response, error) {
	records, err := s.load(ctx, agentID, from, to)
	if err != nil {
		return nil, err
	}

	resp := make([]revenuedomain.Response, 0, len(records))
	for i := range records {
		resp = append(resp, *toResponse(&records[i]))
	}
	return resp, nil
}

func (s *Service) Totals(ctx context.Context, agentID string, from, to time.Time) (revenuedomain.Totals, error) {
	agentID, err := normalizeAgentID(agentID)
	if err != nil {
		return revenuedomain.Totals{}, err
	}
	records, err := s.load(ctx, agentID, from, to)
	if err != nil {
		return revenuedomain.Totals{}, err
	}
	start, end := aggregator.DayBounds(from, to)
	return aggregator.Aggregate(records, agentID, start, end), nil
}

func (s *Service) load(ctx context.Context, agentID string, from, to time.Time) ([]revenuedomain.RevenueRecord, error) {
	agentID, err := normalizeAgentID(agentID)
	if err != nil {
		return nil, err
	}
	if !from.IsZero() && !to.IsZero() && to.Before(from) {
		return nil, revenuedomain.ErrInvalidPeriod
	}
	start, end := aggregator.DayBounds(from, to)
	return s.repo.ListByAgent(ctx, s.db, agentID, start, end)
}

func toResponse(r *revenuedomain.RevenueRecord) *revenuedomain.Response {
	return &revenuedomain.Response{
		ID:              r.ID.String(),
		AgentID:         r.AgentID,
		Source:          r.Source,
		Amount:          r.Amount,
		OccurredAt:      r.OccurredAt,
		PropertyAddress: r.PropertyAddress,
		ClientName:      r.ClientName,
		Notes:           r.Notes,
		CreatedAt:       r.CreatedAt,
	}
}

func optionalText(v string) *string {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil
	}
	return &v
}

func normalizeAgentID(agentID string) (string, error) {
	parsed, err := uuid.Parse(strings.TrimSpace(agentID))
	if err != nil {
		return "", revenuedomain.ErrInvalidAgentID
	}
	return parsed.String(), nil
}
