package order

import (
	"github.com/repomart/repomart/internal/order/repository"
	"github.com/repomart/repomart/internal/order/service"
	"go.uber.org/fx"
)

var Module = fx.Module("order.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
