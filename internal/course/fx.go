package course

import (
	"github.com/smallbiznis/academia/internal/course/repository"
	"github.com/smallbiznis/academia/internal/course/service"
	"go.uber.org/fx"
)

var Module = fx.Module("course",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
