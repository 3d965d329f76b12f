package statement

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	agentdomain "github.com/smallbiznis/agencydesk/internal/agentcommission/domain"
	"github.com/smallbiznis/agencydesk/internal/clock"
	"github.com/smallbiznis/agencydesk/internal/observability/tracing"
	revenuedomain "github.com/smallbiznis/agencydesk/internal/revenue/domain"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const ContentType = "application/pdf"

// Statement is a rendered commission statement.
type Statement struct {
	AgentID  string
	Filename string
	Content  []byte
}

type Params struct {
	fx.In

	Log         *zap.Logger
	Commissions agentdomain.Service
	Revenue     revenuedomain.Service
	Clock       clock.Clock
}

type Service struct {
	log         *zap.Logger
	commissions agentdomain.Service
	revenue     revenuedomain.Service
	clock       clock.Clock
}

func New(p Params) *Service {
	clk := p.Clock
	if clk == nil {
		clk = clock.New()
	}
	return &Service{
		log:         p.Log.Named("statement.service"),
		commissions: p.Commissions,
		revenue:     p.Revenue,
		clock:       clk,
	}
}

// Generate renders the statement of the agent's current assignment period.
func (s *Service) Generate(ctx context.Context, agentID string) (*Statement, error) {
	ctx, span := tracing.StartSpan(ctx, "statement.Generate", attribute.String("agent_id", agentID))
	defer span.End()

	assignment, err := s.commissions.Get(ctx, agentID)
	if err != nil {
		return nil, err
	}

	records, err := s.revenue.List(ctx, assignment.AgentID, assignment.StartDate, assignment.EndDate)
	if err != nil {
		return nil, err
	}

	data := BuildData(assignment, records)
	data.GeneratedAt = s.clock.Now().UTC()

	content, err := Render(data)
	if err != nil {
		s.log.Error("statement rendering failed", zap.String("agent_id", assignment.AgentID), zap.Error(err))
		return nil, err
	}

	s.log.Info("statement generated",
		zap.String("agent_id", assignment.AgentID),
		zap.Int("records", len(records)),
		zap.Int("bytes", len(content)),
	)

	return &Statement{
		AgentID:  assignment.AgentID,
		Filename: fmt.Sprintf("commission-statement-%s-%s.pdf", assignment.PackCode, assignment.EndDate.Format(dateLayout)),
		Content:  content,
	}, nil
}

func BuildData(a *agentdomain.Response, records []revenuedomain.Response) Data {
	data := Data{
		AgentID:            a.AgentID,
		PackName:           a.PackName,
		PackCode:           a.PackCode,
		PeriodStart:        a.StartDate,
		PeriodEnd:          a.EndDate,
		Percentage:         a.CurrentPercentage.String(),
		Progress:           a.Tier.Progress.StringFixed(2),
		Sales:              money(a.SalesAmount),
		Rental:             money(a.RentalAmount),
		PropertyManagement: money(a.PropertyManagementAmount),
		Total:              money(a.TotalAmount),
		Commission:         money(a.CurrentCommission),
		RemainingInTier:    money(a.Tier.AmountRemainingInRange),
	}
	if a.Tier.NextPercentage != nil {
		data.NextPercentage = a.Tier.NextPercentage.String()
	}
	if a.Tier.NextThreshold != nil {
		data.NextThreshold = money(*a.Tier.NextThreshold)
	}

	for _, r := range records {
		data.Lines = append(data.Lines, Line{
			Date:        r.OccurredAt.UTC().Format(dateLayout),
			Source:      sourceLabel(r.Source),
			Description: describe(r),
			Amount:      money(r.Amount),
		})
	}
	return data
}

func money(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func sourceLabel(s revenuedomain.Source) string {
	switch s {
	case revenuedomain.SourceSale:
		return "Sale"
	case revenuedomain.SourceRental:
		return "Rental"
	case revenuedomain.SourcePropertyManagement:
		return "Property management"
	default:
		return string(s)
	}
}

func describe(r revenuedomain.Response) string {
	parts := make([]string, 0, 3)
	for _, v := range []*string{r.PropertyAddress, r.ClientName, r.Notes} {
		if v != nil && strings.TrimSpace(*v) != "" {
			parts = append(parts, strings.TrimSpace(*v))
		}
	}
	return strings.Join(parts, " / ")
}
