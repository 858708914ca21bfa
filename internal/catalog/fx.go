package catalog

import (
	"github.com/repomart/repomart/internal/catalog/repository"
	"github.com/repomart/repomart/internal/catalog/service"
	"go.uber.org/fx"
)

var Module = fx.Module("catalog.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
