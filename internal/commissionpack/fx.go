package commissionpack

import (
	"github.com/smallbiznis/agencydesk/internal/commissionpack/repository"
	"github.com/smallbiznis/agencydesk/internal/commissionpack/service"
	"go.uber.org/fx"
)

var Module = fx.Module("commissionpack.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
