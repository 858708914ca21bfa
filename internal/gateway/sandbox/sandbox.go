package sandbox

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/bwmarrin/snowflake"
	"github.com/repomart/repomart/internal/gateway/domain"
)

// Gateway is an in-memory payment processor for local development and
// tests. Intents are confirmed out of band with MarkSucceeded.
type Gateway struct {
	mu      sync.Mutex
	genID   *snowflake.Node
	intents map[string]*domain.PaymentIntent
}

func New(genID *snowflake.Node) *Gateway {
	return &Gateway{
		genID:   genID,
		intents: map[string]*domain.PaymentIntent{},
	}
}

func (g *Gateway) Provider() string { return "sandbox" }

func (g *Gateway) CreateIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (*domain.PaymentIntent, error) {
	_ = ctx
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}

	id := fmt.Sprintf("pi_sandbox_%s", g.genID.Generate().Base36())
	intent := &domain.PaymentIntent{
		ID:           id,
		Status:       domain.IntentStatusRequiresPaymentMethod,
		Amount:       amount,
		Currency:     strings.ToUpper(strings.TrimSpace(currency)),
		ClientSecret: id + "_secret",
		Metadata:     metadata,
	}

	g.mu.Lock()
	g.intents[id] = intent
	g.mu.Unlock()

	return cloneIntent(intent), nil
}

func (g *Gateway) RetrieveIntent(ctx context.Context, id string) (*domain.PaymentIntent, error) {
	_ = ctx

	g.mu.Lock()
	defer g.mu.Unlock()

	intent, ok := g.intents[strings.TrimSpace(id)]
	if !ok {
		return nil, domain.ErrIntentNotFound
	}
	return cloneIntent(intent), nil
}

// MarkSucceeded simulates the client-side confirmation flow.
func (g *Gateway) MarkSucceeded(id string) bool {
	return g.setStatus(id, domain.IntentStatusSucceeded)
}

// MarkRequiresAction simulates a pending 3-D-Secure style challenge.
func (g *Gateway) MarkRequiresAction(id string) bool {
	return g.setStatus(id, domain.IntentStatusRequiresAction)
}

// MarkCanceled simulates the buyer abandoning the payment.
func (g *Gateway) MarkCanceled(id string) bool {
	return g.setStatus(id, domain.IntentStatusCanceled)
}

func (g *Gateway) setStatus(id string, status domain.IntentStatus) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	intent, ok := g.intents[strings.TrimSpace(id)]
	if !ok {
		return false
	}
	intent.Status = status
	return true
}

func cloneIntent(intent *domain.PaymentIntent) *domain.PaymentIntent {
	copied := *intent
	if intent.Metadata != nil {
		copied.Metadata = make(map[string]string, len(intent.Metadata))
		for k, v := range intent.Metadata {
			copied.Metadata[k] = v
		}
	}
	return &copied
}
