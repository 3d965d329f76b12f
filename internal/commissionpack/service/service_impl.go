package service

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/agencydesk/internal/cache"
	"github.com/smallbiznis/agencydesk/internal/clock"
	packdomain "github.com/smallbiznis/agencydesk/internal/commissionpack/domain"
	"github.com/smallbiznis/agencydesk/internal/config"
	"github.com/smallbiznis/agencydesk/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	packTTL    = 5 * time.Minute
	catalogTTL = time.Minute
)

var hundred = decimal.NewFromInt(100)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  packdomain.Repository
	Clock clock.Clock
	Cfg   config.Config `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	repo       packdomain.Repository
	clock      clock.Clock
	fiscalYear int

	packs    cache.Cache[snowflake.ID, packdomain.Pack]
	catalogs cache.Cache[int, *packdomain.Catalog]
}

func New(p Params) packdomain.Service {
	clk := p.Clock
	if clk == nil {
		clk = clock.New()
	}
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("commissionpack.service"),
		genID:      p.GenID,
		repo:       p.Repo,
		clock:      clk,
		fiscalYear: p.Cfg.FiscalYear,
		packs:      cache.NewTTLCache[snowflake.ID, packdomain.Pack](),
		catalogs:   cache.NewTTLCache[int, *packdomain.Catalog](),
	}
}

func (s *Service) Create(ctx context.Context, req packdomain.CreateRequest) (*packdomain.Response, error) {
	name := strings.TrimSpace(req.Name)
	code := slug.Make(name)
	if name == "" || code == "" {
		return nil, packdomain.ErrInvalidName
	}

	year, err := s.resolveYear(req.Year)
	if err != nil {
		return nil, err
	}

	if !validFee(req.MonthlyFeeHT) || !validFee(req.MonthlyFeeTTC) {
		return nil, packdomain.ErrInvalidMonthlyFee
	}
	if r := req.ReferralRate; r != nil && (r.IsNegative() || r.GreaterThan(hundred) || !packdomain.FitsScale(*r, packdomain.PercentageScale)) {
		return nil, packdomain.ErrInvalidReferralRate
	}

	packID := s.genID.Generate()
	ranges, err := s.buildRanges(packID, req.Ranges)
	if err != nil {
		return nil, err
	}
	if err := packdomain.ValidateRanges(ranges); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByCode(ctx, s.db, code, year)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, packdomain.ErrDuplicatePack
	}

	active := true
	if req.IsActive != nil {
		active = *req.IsActive
	}

	now := s.clock.Now().UTC()
	entity := &packdomain.Pack{
		ID:            packID,
		Code:          code,
		Name:          name,
		Year:          year,
		IsActive:      active,
		MonthlyFeeHT:  nullDecimal(req.MonthlyFeeHT),
		MonthlyFeeTTC: nullDecimal(req.MonthlyFeeTTC),
		ReferralRate:  nullDecimal(req.ReferralRate),
		Ranges:        ranges,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if req.Metadata != nil {
		entity.Metadata = datatypes.JSONMap(req.Metadata)
	}

	if err := s.repo.Insert(ctx, s.db, entity); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, packdomain.ErrDuplicatePack
		}
		return nil, err
	}

	s.catalogs.Purge()
	s.log.Info("commission pack created",
		zap.String("pack_id", entity.ID.String()),
		zap.String("code", code),
		zap.Int("year", year),
		zap.Int("ranges", len(ranges)),
	)

	return toResponse(entity), nil
}

func (s *Service) Get(ctx context.Context, id string) (*packdomain.Response, error) {
	packID, err := parseID(id)
	if err != nil {
		return nil, packdomain.ErrInvalidID
	}

	pack, err := s.GetPack(ctx, packID)
	if err != nil {
		return nil, err
	}
	return toResponse(pack), nil
}

func (s *Service) ListActive(ctx context.Context, year int) ([]packdomain.Response, error) {
	year, err := s.resolveYear(year)
	if err != nil {
		return nil, err
	}

	catalog, err := s.Catalog(ctx, year)
	if err != nil {
		return nil, err
	}

	items := catalog.ListActive(year)
	resp := make([]packdomain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, *toResponse(&items[i]))
	}
	return resp, nil
}

func (s *Service) SetActive(ctx context.Context, id string, active bool) (*packdomain.Response, error) {
	packID, err := parseID(id)
	if err != nil {
		return nil, packdomain.ErrInvalidID
	}

	entity, err := s.repo.FindByID(ctx, s.db, packID)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, packdomain.ErrPackNotFound
	}

	now := s.clock.Now().UTC()
	if err := s.repo.UpdateActive(ctx, s.db, packID, active, now); err != nil {
		return nil, err
	}
	entity.IsActive = active
	entity.UpdatedAt = now

	s.packs.Delete(packID)
	s.catalogs.Purge()
	s.log.Info("commission pack activation changed",
		zap.String("pack_id", packID.String()),
		zap.Bool("active", active),
	)

	return toResponse(entity), nil
}

func (s *Service) GetPack(ctx context.Context, id snowflake.ID) (*packdomain.Pack, error) {
	if cached, ok := s.packs.Get(id); ok {
		out := cached.Clone()
		return &out, nil
	}

	entity, err := s.repo.FindByID(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if entity == nil {
		return nil, packdomain.ErrPackNotFound
	}
	if err := entity.Validate(); err != nil {
		s.log.Error("stored commission pack failed validation",
			zap.String("pack_id", id.String()),
			zap.Error(err),
		)
		return nil, err
	}

	s.packs.Set(id, entity.Clone(), packTTL)
	return entity, nil
}

func (s *Service) Catalog(ctx context.Context, year int) (*packdomain.Catalog, error) {
	if cached, ok := s.catalogs.Get(year); ok {
		return cached, nil
	}

	items, err := s.repo.List(ctx, s.db, year)
	if err != nil {
		return nil, err
	}

	catalog, err := packdomain.NewCatalog(items)
	if err != nil {
		s.log.Error("commission pack catalog failed validation", zap.Int("year", year), zap.Error(err))
		return nil, err
	}

	s.catalogs.Set(year, catalog, catalogTTL)
	return catalog, nil
}

func (s *Service) resolveYear(year int) (int, error) {
	if year == 0 {
		if s.fiscalYear != 0 {
			return s.fiscalYear, nil
		}
		return s.clock.Now().Year(), nil
	}
	if year < 2000 || year > 2100 {
		return 0, packdomain.ErrInvalidYear
	}
	return year, nil
}

func (s *Service) buildRanges(packID snowflake.ID, inputs []packdomain.RangeInput) ([]packdomain.Range, error) {
	ranges, err := packdomain.RangesFromInput(inputs)
	if err != nil {
		return nil, err
	}
	for i := range ranges {
		ranges[i].ID = s.genID.Generate()
		ranges[i].PackID = packID
	}
	return ranges, nil
}

func toResponse(p *packdomain.Pack) *packdomain.Response {
	ranges := make([]packdomain.RangeResponse, 0, len(p.Ranges))
	for _, r := range p.Ranges {
		item := packdomain.RangeResponse{
			MinAmount:  r.MinAmount,
			Percentage: r.Percentage,
		}
		if !r.IsUnbounded() {
			maxAmount := r.MaxAmount
			item.MaxAmount = &maxAmount
		}
		ranges = append(ranges, item)
	}

	resp := &packdomain.Response{
		ID:            p.ID.String(),
		Code:          p.Code,
		Name:          p.Name,
		Year:          p.Year,
		IsActive:      p.IsActive,
		MonthlyFeeHT:  decimalPtr(p.MonthlyFeeHT),
		MonthlyFeeTTC: decimalPtr(p.MonthlyFeeTTC),
		ReferralRate:  decimalPtr(p.ReferralRate),
		Ranges:        ranges,
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
	if len(p.Metadata) > 0 {
		resp.Metadata = map[string]any(p.Metadata)
	}
	return resp
}

func validFee(v *decimal.Decimal) bool {
	return v == nil || (!v.IsNegative() && packdomain.FitsScale(*v, packdomain.AmountScale))
}

func nullDecimal(v *decimal.Decimal) decimal.NullDecimal {
	if v == nil {
		return decimal.NullDecimal{}
	}
	return decimal.NewNullDecimal(*v)
}

func decimalPtr(v decimal.NullDecimal) *decimal.Decimal {
	if !v.Valid {
		return nil
	}
	out := v.Decimal
	return &out
}

func parseID(value string) (snowflake.ID, error) {
	return snowflake.ParseString(strings.TrimSpace(value))
}
