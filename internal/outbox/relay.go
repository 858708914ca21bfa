package outbox

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/repomart/repomart/internal/observability/metrics"
	"github.com/repomart/repomart/internal/outbox/domain"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	relayInterval  = 2 * time.Second
	relayBatchSize = 100
)

// Relay drains committed outbox rows to the broker. Events stay in the
// table until publishing succeeds, so delivery is at-least-once and
// consumers must dedupe on event id.
type Relay struct {
	db        *gorm.DB
	log       *zap.Logger
	repo      domain.Repository
	publisher domain.Publisher
	metrics   *metrics.Metrics
}

func NewRelay(db *gorm.DB, log *zap.Logger, repo domain.Repository, publisher domain.Publisher, m *metrics.Metrics) *Relay {
	return &Relay{
		db:        db,
		log:       log.Named("outbox.relay"),
		repo:      repo,
		publisher: publisher,
		metrics:   m,
	}
}

func (r *Relay) Run(ctx context.Context) {
	ticker := time.NewTicker(relayInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := r.Drain(ctx); err != nil {
				r.log.Warn("drain outbox", zap.Error(err))
			}
		}
	}
}

// Drain publishes every unpublished event currently in the table,
// batch by batch, stopping early if the broker rejects one.
func (r *Relay) Drain(ctx context.Context) error {
	for {
		published, err := r.drainBatch(ctx)
		if err != nil {
			return err
		}
		if published < relayBatchSize {
			return nil
		}
	}
}

func (r *Relay) drainBatch(ctx context.Context) (int, error) {
	events, err := r.repo.FetchUnpublished(ctx, r.db, relayBatchSize)
	if err != nil {
		return 0, err
	}
	if len(events) == 0 {
		return 0, nil
	}

	published := make([]snowflake.ID, 0, len(events))
	for _, event := range events {
		if err := r.publisher.Publish(ctx, event.Topic, event.Payload); err != nil {
			// Leave the rest for the next tick; ordering within a
			// topic is preserved by publishing in insert order.
			r.log.Warn("publish event",
				zap.String("event_id", event.ID.String()),
				zap.String("topic", event.Topic),
				zap.Error(err),
			)
			break
		}
		published = append(published, event.ID)
		r.metrics.RecordOutboxPublished(event.Topic)
	}

	if len(published) == 0 {
		return 0, nil
	}
	if err := r.repo.MarkPublished(ctx, r.db, published); err != nil {
		return 0, err
	}

	return len(published), nil
}
