package config

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/fsnotify/fsnotify"
	"github.com/shopspring/decimal"
	packdomain "github.com/smallbiznis/agencydesk/internal/commissionpack/domain"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// PackCatalogConfig is the file-backed definition of the commission packs
// seeded into storage. Amounts and rates are decimal strings.
type PackCatalogConfig struct {
	Packs []PackDefinition `mapstructure:"packs"`
}

type PackDefinition struct {
	Name string `mapstructure:"name"`
	// Year 0 means the current fiscal year at seed time.
	Year          int               `mapstructure:"year"`
	Active        *bool             `mapstructure:"active"`
	MonthlyFeeHT  string            `mapstructure:"monthly_fee_ht"`
	MonthlyFeeTTC string            `mapstructure:"monthly_fee_ttc"`
	ReferralRate  string            `mapstructure:"referral_rate"`
	Ranges        []RangeDefinition `mapstructure:"ranges"`
}

type RangeDefinition struct {
	Min string `mapstructure:"min"`
	// Max left empty marks the unbounded top range.
	Max        string `mapstructure:"max"`
	Percentage string `mapstructure:"percentage"`
}

func (d PackDefinition) IsActive() bool {
	return d.Active == nil || *d.Active
}

func DefaultPackCatalog() PackCatalogConfig {
	return PackCatalogConfig{
		Packs: []PackDefinition{
			{
				Name:          "Bronze",
				MonthlyFeeHT:  "150",
				MonthlyFeeTTC: "180",
				Ranges: []RangeDefinition{
					{Min: "0", Max: "35000", Percentage: "68"},
					{Min: "35001", Max: "70000", Percentage: "72"},
					{Min: "70001", Max: "100000", Percentage: "76"},
					{Min: "100001", Max: "150000", Percentage: "80"},
					{Min: "150001", Percentage: "84"},
				},
			},
			{
				Name:          "Silver",
				MonthlyFeeHT:  "250",
				MonthlyFeeTTC: "300",
				Ranges: []RangeDefinition{
					{Min: "0", Max: "35000", Percentage: "72"},
					{Min: "35001", Max: "70000", Percentage: "76"},
					{Min: "70001", Max: "100000", Percentage: "80"},
					{Min: "100001", Max: "150000", Percentage: "84"},
					{Min: "150001", Percentage: "88"},
				},
			},
			{
				Name:          "Gold",
				MonthlyFeeHT:  "400",
				MonthlyFeeTTC: "480",
				Ranges: []RangeDefinition{
					{Min: "0", Max: "35000", Percentage: "76"},
					{Min: "35001", Max: "70000", Percentage: "80"},
					{Min: "70001", Max: "100000", Percentage: "84"},
					{Min: "100001", Max: "150000", Percentage: "88"},
					{Min: "150001", Percentage: "92"},
				},
			},
			{
				Name:         "Referral",
				ReferralRate: "5",
				Ranges: []RangeDefinition{
					{Min: "0", Percentage: "60"},
				},
			},
		},
	}
}

// PackConfigHolder keeps the current pack catalog definition and swaps it
// atomically when the backing file changes.
type PackConfigHolder struct {
	current atomic.Value // holds PackCatalogConfig
	log     *zap.Logger

	mu        sync.Mutex
	listeners []func(PackCatalogConfig)
}

func NewPackConfigHolder(cfg Config, log *zap.Logger) (*PackConfigHolder, error) {
	if log == nil {
		log = zap.NewNop()
	}
	v := viper.New()

	if cfg.PackCatalogPath != "" {
		v.SetConfigFile(cfg.PackCatalogPath)
	} else {
		v.SetConfigName("commission_packs")
		v.SetConfigType("yml")
		v.AddConfigPath("/etc/agencydesk")
		v.AddConfigPath(".")
	}

	v.SetEnvPrefix("AGENCYDESK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	fromFile := true
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
		fromFile = false
	}

	holder := &PackConfigHolder{log: log.Named("config.packs")}

	if !fromFile {
		holder.current.Store(DefaultPackCatalog())
		holder.log.Info("pack catalog file not found, using defaults")
		return holder, nil
	}

	loaded, err := decodePackCatalog(v)
	if err != nil {
		return nil, err
	}
	holder.current.Store(loaded)

	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := decodePackCatalog(v)
		if err != nil {
			holder.log.Warn("pack catalog reload rejected", zap.String("file", e.Name), zap.Error(err))
			return
		}
		holder.current.Store(updated)
		holder.log.Info("pack catalog reloaded", zap.String("file", e.Name), zap.Int("packs", len(updated.Packs)))
		holder.notify(updated)
	})
	v.WatchConfig()

	return holder, nil
}

// NewStaticPackConfigHolder wraps a fixed definition, mainly for tests.
func NewStaticPackConfigHolder(cfg PackCatalogConfig) *PackConfigHolder {
	holder := &PackConfigHolder{log: zap.NewNop()}
	holder.current.Store(cfg)
	return holder
}

func (h *PackConfigHolder) Get() PackCatalogConfig {
	return h.current.Load().(PackCatalogConfig)
}

// OnChange registers fn to run after every accepted reload.
func (h *PackConfigHolder) OnChange(fn func(PackCatalogConfig)) {
	if fn == nil {
		return
	}
	h.mu.Lock()
	h.listeners = append(h.listeners, fn)
	h.mu.Unlock()
}

func (h *PackConfigHolder) notify(cfg PackCatalogConfig) {
	h.mu.Lock()
	listeners := append([]func(PackCatalogConfig){}, h.listeners...)
	h.mu.Unlock()
	for _, fn := range listeners {
		fn(cfg)
	}
}

func decodePackCatalog(v *viper.Viper) (PackCatalogConfig, error) {
	var cfg PackCatalogConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return PackCatalogConfig{}, err
	}
	if err := validatePackCatalog(cfg); err != nil {
		return PackCatalogConfig{}, err
	}
	return cfg, nil
}

// validatePackCatalog rejects a catalog that could not be seeded: missing
// fields, unparsable numbers, or ranges breaking the pack range invariant.
func validatePackCatalog(cfg PackCatalogConfig) error {
	if len(cfg.Packs) == 0 {
		return errors.New("packs cannot be empty")
	}
	for i, pack := range cfg.Packs {
		if strings.TrimSpace(pack.Name) == "" {
			return fmt.Errorf("packs[%d].name is required", i)
		}
		if len(pack.Ranges) == 0 {
			return fmt.Errorf("packs[%d].ranges cannot be empty", i)
		}
		for j, r := range pack.Ranges {
			if strings.TrimSpace(r.Min) == "" || strings.TrimSpace(r.Percentage) == "" {
				return fmt.Errorf("packs[%d].ranges[%d] requires min and percentage", i, j)
			}
		}

		req, err := pack.CreateRequest()
		if err != nil {
			return fmt.Errorf("packs[%d] %s: %w", i, pack.Name, err)
		}
		ranges, err := packdomain.RangesFromInput(req.Ranges)
		if err == nil {
			err = packdomain.ValidateRanges(ranges)
		}
		if err != nil {
			return fmt.Errorf("packs[%d] %s: %w", i, pack.Name, err)
		}
	}
	return nil
}

// CreateRequest parses the definition's decimal strings into a pack
// creation request tagged as coming from the pack file.
func (def PackDefinition) CreateRequest() (packdomain.CreateRequest, error) {
	active := def.IsActive()
	req := packdomain.CreateRequest{
		Name:     def.Name,
		Year:     def.Year,
		IsActive: &active,
		Metadata: map[string]any{"source": "pack_file"},
	}

	var err error
	if req.MonthlyFeeHT, err = optionalDecimal(def.MonthlyFeeHT); err != nil {
		return req, fmt.Errorf("monthly_fee_ht: %w", err)
	}
	if req.MonthlyFeeTTC, err = optionalDecimal(def.MonthlyFeeTTC); err != nil {
		return req, fmt.Errorf("monthly_fee_ttc: %w", err)
	}
	if req.ReferralRate, err = optionalDecimal(def.ReferralRate); err != nil {
		return req, fmt.Errorf("referral_rate: %w", err)
	}

	for j, r := range def.Ranges {
		minAmount, err := decimal.NewFromString(strings.TrimSpace(r.Min))
		if err != nil {
			return req, fmt.Errorf("ranges[%d].min: %w", j, err)
		}
		pct, err := decimal.NewFromString(strings.TrimSpace(r.Percentage))
		if err != nil {
			return req, fmt.Errorf("ranges[%d].percentage: %w", j, err)
		}
		maxAmount, err := optionalDecimal(r.Max)
		if err != nil {
			return req, fmt.Errorf("ranges[%d].max: %w", j, err)
		}
		req.Ranges = append(req.Ranges, packdomain.RangeInput{
			MinAmount:  minAmount,
			MaxAmount:  maxAmount,
			Percentage: pct,
		})
	}
	return req, nil
}

func optionalDecimal(v string) (*decimal.Decimal, error) {
	v = strings.TrimSpace(v)
	if v == "" {
		return nil, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return nil, err
	}
	return &d, nil
}
