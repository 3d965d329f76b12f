package seed

import (
	"context"
	"testing"

	packdomain "github.com/smallbiznis/agencydesk/internal/commissionpack/domain"
	"github.com/smallbiznis/agencydesk/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type packRecorder struct {
	packdomain.Service
	existing map[string]bool
	created  []packdomain.CreateRequest
}

func (r *packRecorder) Create(_ context.Context, req packdomain.CreateRequest) (*packdomain.Response, error) {
	if r.existing[req.Name] {
		return nil, packdomain.ErrDuplicatePack
	}
	if err := packdomain.ValidateRanges(toRanges(req.Ranges)); err != nil {
		return nil, err
	}
	r.created = append(r.created, req)
	return &packdomain.Response{Name: req.Name}, nil
}

func toRanges(in []packdomain.RangeInput) []packdomain.Range {
	out := make([]packdomain.Range, 0, len(in))
	for _, r := range in {
		maxAmount := packdomain.UnboundedAmount
		if r.MaxAmount != nil {
			maxAmount = *r.MaxAmount
		}
		out = append(out, packdomain.Range{MinAmount: r.MinAmount, MaxAmount: maxAmount, Percentage: r.Percentage})
	}
	return out
}

func TestEnsurePacks_DefaultCatalogIsValid(t *testing.T) {
	rec := &packRecorder{existing: map[string]bool{"Silver": true}}

	created, err := EnsurePacks(context.Background(), rec, config.DefaultPackCatalog())
	require.NoError(t, err)

	assert.Equal(t, 3, created)
	require.Len(t, rec.created, 3)
	bronze := rec.created[0]
	assert.Equal(t, "Bronze", bronze.Name)
	require.Len(t, bronze.Ranges, 5)
	assert.Nil(t, bronze.Ranges[4].MaxAmount)
	assert.Equal(t, "35001", bronze.Ranges[1].MinAmount.String())
	require.NotNil(t, bronze.MonthlyFeeTTC)
	assert.Equal(t, "180", bronze.MonthlyFeeTTC.String())
	assert.Nil(t, bronze.ReferralRate)

	referral := rec.created[2]
	require.NotNil(t, referral.ReferralRate)
	assert.Equal(t, "5", referral.ReferralRate.String())
}

func TestEnsurePacks_StopsOnInvalidRanges(t *testing.T) {
	cfg := config.PackCatalogConfig{Packs: []config.PackDefinition{{
		Name: "Gappy",
		Ranges: []config.RangeDefinition{
			{Min: "0", Max: "100", Percentage: "10"},
			{Min: "200", Percentage: "20"},
		},
	}}}

	created, err := EnsurePacks(context.Background(), &packRecorder{}, cfg)
	assert.ErrorIs(t, err, packdomain.ErrInvalidRangeData)
	assert.Zero(t, created)
}
