package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// Event is written inside the same transaction as the state change it
// announces, then delivered by the relay after commit.
type Event struct {
	ID          snowflake.ID `json:"id,string" gorm:"primaryKey"`
	Topic       string       `json:"topic"`
	Payload     []byte       `json:"payload"`
	CreatedAt   time.Time    `json:"created_at"`
	PublishedAt *time.Time   `json:"published_at,omitempty"`
}

func (Event) TableName() string { return "outbox_events" }

type Repository interface {
	Insert(ctx context.Context, tx *gorm.DB, event *Event) error
	FetchUnpublished(ctx context.Context, tx *gorm.DB, limit int) ([]Event, error)
	MarkPublished(ctx context.Context, tx *gorm.DB, ids []snowflake.ID) error
}

// Publisher delivers committed events to the message broker.
type Publisher interface {
	Publish(ctx context.Context, topic string, payload []byte) error
}
