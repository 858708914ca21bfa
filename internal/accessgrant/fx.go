package accessgrant

import (
	"github.com/repomart/repomart/internal/accessgrant/repository"
	"github.com/repomart/repomart/internal/accessgrant/service"
	"go.uber.org/fx"
)

var Module = fx.Module("accessgrant.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
