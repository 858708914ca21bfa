package salesaggregate

import (
	"github.com/repomart/repomart/internal/salesaggregate/repository"
	"github.com/repomart/repomart/internal/salesaggregate/service"
	"go.uber.org/fx"
)

var Module = fx.Module("salesaggregate.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
