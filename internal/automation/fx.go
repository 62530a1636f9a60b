package automation

import (
	"github.com/smallbiznis/academia/internal/automation/repository"
	"github.com/smallbiznis/academia/internal/automation/service"
	"go.uber.org/fx"
)

var Module = fx.Module("automation",
	fx.Provide(repository.ProvideRules),
	fx.Provide(repository.ProvideLedger),
	fx.Provide(service.New),
)
