package account

import (
	"github.com/repomart/repomart/internal/account/repository"
	"github.com/repomart/repomart/internal/account/service"
	"go.uber.org/fx"
)

var Module = fx.Module("account.service",
	fx.Provide(repository.Provide),
	fx.Provide(service.New),
)
