package seed

import (
	"context"
	"errors"
	"fmt"

	packdomain "github.com/smallbiznis/agencydesk/internal/commissionpack/domain"
	"github.com/smallbiznis/agencydesk/internal/config"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("seed",
	fx.Invoke(Register),
)

type Params struct {
	fx.In

	Lifecycle fx.Lifecycle
	Cfg       config.Config
	Log       *zap.Logger
	Packs     packdomain.Service
	Holder    *config.PackConfigHolder
}

// Register seeds the pack file on start and again on every accepted reload.
func Register(p Params) {
	if !p.Cfg.SeedDefaultPacks {
		return
	}
	log := p.Log.Named("seed")

	p.Lifecycle.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			created, err := EnsurePacks(ctx, p.Packs, p.Holder.Get())
			if err != nil {
				return err
			}
			log.Info("commission packs seeded", zap.Int("created", created))
			return nil
		},
	})

	p.Holder.OnChange(func(cfg config.PackCatalogConfig) {
		created, err := EnsurePacks(context.Background(), p.Packs, cfg)
		if err != nil {
			log.Error("commission pack reseed failed", zap.Error(err))
			return
		}
		log.Info("commission packs reseeded", zap.Int("created", created))
	})
}

// EnsurePacks creates the packs of cfg that do not exist yet. Existing packs
// are left untouched; a pack is identified by its code and year.
func EnsurePacks(ctx context.Context, packs packdomain.Service, cfg config.PackCatalogConfig) (int, error) {
	created := 0
	for i, def := range cfg.Packs {
		req, err := def.CreateRequest()
		if err != nil {
			return created, fmt.Errorf("packs[%d] %s: %w", i, def.Name, err)
		}
		if _, err := packs.Create(ctx, req); err != nil {
			if errors.Is(err, packdomain.ErrDuplicatePack) {
				continue
			}
			return created, fmt.Errorf("packs[%d] %s: %w", i, def.Name, err)
		}
		created++
	}
	return created, nil
}
