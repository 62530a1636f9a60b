package notification

import (
	"github.com/smallbiznis/academia/internal/notification/repository"
	"github.com/smallbiznis/academia/internal/notification/resolver"
	"github.com/smallbiznis/academia/internal/notification/service"
	"go.uber.org/fx"
)

var Module = fx.Module("notification",
	fx.Provide(repository.Provide),
	fx.Provide(resolver.New),
	fx.Provide(service.New),
)
