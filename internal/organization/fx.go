package organization

import (
	"github.com/smallbiznis/academia/internal/organization/repository"
	"github.com/smallbiznis/academia/internal/organization/service"
	"go.uber.org/fx"
)

var Module = fx.Module("organization",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
