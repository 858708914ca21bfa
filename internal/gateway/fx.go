package gateway

import (
	"github.com/bwmarrin/snowflake"
	"github.com/repomart/repomart/internal/config"
	"github.com/repomart/repomart/internal/gateway/domain"
	"github.com/repomart/repomart/internal/gateway/sandbox"
	"github.com/repomart/repomart/internal/gateway/stripe"
	"go.uber.org/fx"
)

var Module = fx.Module("gateway",
	fx.Provide(provideRegistry),
	fx.Provide(provideGateway),
)

func provideRegistry(cfg config.Config, genID *snowflake.Node) *Registry {
	return NewRegistry(
		stripe.New(cfg.StripeSecretKey, cfg.StripeAPIBase),
		sandbox.New(genID),
	)
}

func provideGateway(cfg config.Config, registry *Registry) (domain.Gateway, error) {
	return registry.Get(cfg.PaymentProvider)
}
