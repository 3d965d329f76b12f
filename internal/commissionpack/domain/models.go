package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// UnboundedAmount is the sentinel stored as MaxAmount of a pack's top range.
var UnboundedAmount = decimal.New(1, 15)

// Pack is a named commission plan for one fiscal year.
type Pack struct {
	ID            snowflake.ID        `json:"id" gorm:"primaryKey"`
	Code          string              `json:"code" gorm:"type:text;not null;index:idx_commission_packs_code_year,unique"`
	Name          string              `json:"name" gorm:"type:text;not null"`
	Year          int                 `json:"year" gorm:"not null;index:idx_commission_packs_code_year,unique"`
	IsActive      bool                `json:"is_active" gorm:"not null;default:true"`
	MonthlyFeeHT  decimal.NullDecimal `json:"monthly_fee_ht" gorm:"type:numeric(12,2)"`
	MonthlyFeeTTC decimal.NullDecimal `json:"monthly_fee_ttc" gorm:"type:numeric(12,2)"`
	ReferralRate  decimal.NullDecimal `json:"referral_rate" gorm:"type:numeric(7,4)"`
	Metadata      datatypes.JSONMap   `json:"metadata,omitempty" gorm:"type:jsonb"`
	Ranges        []Range             `json:"ranges" gorm:"foreignKey:PackID;constraint:OnDelete:CASCADE"`
	CreatedAt     time.Time           `json:"created_at" gorm:"not null"`
	UpdatedAt     time.Time           `json:"updated_at" gorm:"not null"`
}

func (Pack) TableName() string { return "commission_packs" }

// Range is one percentage band of a pack. Bounds are inclusive whole
// currency units.
type Range struct {
	ID         snowflake.ID    `json:"id" gorm:"primaryKey"`
	PackID     snowflake.ID    `json:"pack_id" gorm:"not null;index"`
	Position   int             `json:"position" gorm:"not null"`
	MinAmount  decimal.Decimal `json:"min_amount" gorm:"type:numeric(20,2);not null"`
	MaxAmount  decimal.Decimal `json:"max_amount" gorm:"type:numeric(20,2);not null"`
	Percentage decimal.Decimal `json:"percentage" gorm:"type:numeric(7,4);not null"`
}

func (Range) TableName() string { return "commission_ranges" }

// IsUnbounded reports whether the range is the open-ended top band.
func (r Range) IsUnbounded() bool {
	return r.MaxAmount.GreaterThanOrEqual(UnboundedAmount)
}

// Clone returns a copy whose Ranges slice is not shared with p.
func (p Pack) Clone() Pack {
	out := p
	if p.Ranges != nil {
		out.Ranges = make([]Range, len(p.Ranges))
		copy(out.Ranges, p.Ranges)
	}
	return out
}
