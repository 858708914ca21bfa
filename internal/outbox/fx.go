package outbox

import (
	"context"

	"github.com/repomart/repomart/internal/config"
	"github.com/repomart/repomart/internal/observability/metrics"
	"github.com/repomart/repomart/internal/outbox/domain"
	"github.com/repomart/repomart/internal/outbox/repository"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("outbox",
	fx.Provide(repository.Provide),
	fx.Invoke(runRelay),
)

type relayParams struct {
	fx.In

	LC      fx.Lifecycle
	Config  config.Config
	DB      *gorm.DB
	Log     *zap.Logger
	Repo    domain.Repository
	Metrics *metrics.Metrics
}

// runRelay starts the background publisher when a broker is
// configured. Without one, events accumulate in the table and can be
// drained once a broker comes back.
func runRelay(p relayParams) error {
	if p.Config.AMQPURL == "" {
		p.Log.Info("outbox relay disabled, no broker configured")
		return nil
	}

	publisher, err := NewAMQPPublisher(p.Config.AMQPURL, p.Config.OutboxExchange)
	if err != nil {
		return err
	}

	relay := NewRelay(p.DB, p.Log, p.Repo, publisher, p.Metrics)

	runCtx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})

	p.LC.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				defer close(done)
				relay.Run(runCtx)
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancel()
			select {
			case <-done:
			case <-ctx.Done():
			}
			return publisher.Close()
		},
	})

	return nil
}
