package agentcommission

import (
	"github.com/smallbiznis/agencydesk/internal/agentcommission/repository"
	"github.com/smallbiznis/agencydesk/internal/agentcommission/service"
	"go.uber.org/fx"
)

var Module = fx.Module("agentcommission.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
