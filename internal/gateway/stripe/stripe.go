package stripe

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/repomart/repomart/internal/gateway/domain"
)

const defaultAPIBase = "https://api.stripe.com"

// Gateway talks to the Stripe payment intents API directly over HTTP.
type Gateway struct {
	secretKey string
	apiBase   string
	client    *http.Client
}

func New(secretKey, apiBase string) *Gateway {
	apiBase = strings.TrimRight(strings.TrimSpace(apiBase), "/")
	if apiBase == "" {
		apiBase = defaultAPIBase
	}
	return &Gateway{
		secretKey: strings.TrimSpace(secretKey),
		apiBase:   apiBase,
		client:    &http.Client{Timeout: 15 * time.Second},
	}
}

func (g *Gateway) Provider() string { return "stripe" }

func (g *Gateway) CreateIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (*domain.PaymentIntent, error) {
	if amount <= 0 {
		return nil, domain.ErrInvalidAmount
	}

	form := url.Values{}
	form.Set("amount", strconv.FormatInt(amount, 10))
	form.Set("currency", strings.ToLower(strings.TrimSpace(currency)))
	form.Set("automatic_payment_methods[enabled]", "true")
	for key, value := range metadata {
		form.Set(fmt.Sprintf("metadata[%s]", key), value)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, g.apiBase+"/v1/payment_intents", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	return g.do(req)
}

func (g *Gateway) RetrieveIntent(ctx context.Context, id string) (*domain.PaymentIntent, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, domain.ErrIntentNotFound
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, g.apiBase+"/v1/payment_intents/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}

	return g.do(req)
}

func (g *Gateway) do(req *http.Request) (*domain.PaymentIntent, error) {
	req.Header.Set("Authorization", "Bearer "+g.secretKey)

	resp, err := g.client.Do(req)
	if err != nil {
		return nil, domain.ErrGatewayUnreachable
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusNotFound {
		return nil, domain.ErrIntentNotFound
	}
	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr stripeErrorResponse
		if err := json.Unmarshal(body, &apiErr); err == nil && apiErr.Error.Code == "resource_missing" {
			return nil, domain.ErrIntentNotFound
		}
		return nil, fmt.Errorf("stripe: unexpected status %d", resp.StatusCode)
	}

	var intent stripeIntent
	if err := json.Unmarshal(body, &intent); err != nil {
		return nil, err
	}

	return &domain.PaymentIntent{
		ID:           intent.ID,
		Status:       domain.IntentStatus(intent.Status),
		Amount:       intent.Amount,
		Currency:     strings.ToUpper(intent.Currency),
		ClientSecret: intent.ClientSecret,
		Metadata:     intent.Metadata,
	}, nil
}

type stripeIntent struct {
	ID           string            `json:"id"`
	Status       string            `json:"status"`
	Amount       int64             `json:"amount"`
	Currency     string            `json:"currency"`
	ClientSecret string            `json:"client_secret"`
	Metadata     map[string]string `json:"metadata"`
}

type stripeErrorResponse struct {
	Error struct {
		Type string `json:"type"`
		Code string `json:"code"`
	} `json:"error"`
}
