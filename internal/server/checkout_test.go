package server_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/gin-gonic/gin"
	grantdomain "github.com/repomart/repomart/internal/accessgrant/domain"
	accountdomain "github.com/repomart/repomart/internal/account/domain"
	catalogdomain "github.com/repomart/repomart/internal/catalog/domain"
	orderdomain "github.com/repomart/repomart/internal/order/domain"
	salesdomain "github.com/repomart/repomart/internal/salesaggregate/domain"
	"github.com/repomart/repomart/internal/server"
	settlementdomain "github.com/repomart/repomart/internal/settlement/domain"
)

type stubAccountService struct {
	user accountdomain.User
}

func (s stubAccountService) Authenticate(ctx context.Context, token string) (accountdomain.User, error) {
	if token == "tok_ok" {
		return s.user, nil
	}
	return accountdomain.User{}, accountdomain.ErrInvalidToken
}

func (s stubAccountService) GetByID(ctx context.Context, req accountdomain.GetUserRequest) (accountdomain.User, error) {
	return s.user, nil
}

type stubSettlementService struct {
	result *settlementdomain.SettleResult
	err    error
}

func (s stubSettlementService) Settle(ctx context.Context, buyerID snowflake.ID, req settlementdomain.SettleRequest) (*settlementdomain.SettleResult, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

type stubCatalogService struct{}

func (stubCatalogService) Create(ctx context.Context, sellerID snowflake.ID, req catalogdomain.CreateListingRequest) (catalogdomain.Listing, error) {
	return catalogdomain.Listing{}, nil
}
func (stubCatalogService) GetByID(ctx context.Context, id string) (catalogdomain.Listing, error) {
	return catalogdomain.Listing{}, catalogdomain.ErrNotFound
}
func (stubCatalogService) GetBySlug(ctx context.Context, slug string) (catalogdomain.Listing, error) {
	return catalogdomain.Listing{}, catalogdomain.ErrNotFound
}
func (stubCatalogService) List(ctx context.Context, req catalogdomain.ListListingsRequest) (catalogdomain.ListListingsResponse, error) {
	return catalogdomain.ListListingsResponse{Listings: []catalogdomain.Listing{}}, nil
}
func (stubCatalogService) Publish(ctx context.Context, sellerID snowflake.ID, id string) (catalogdomain.Listing, error) {
	return catalogdomain.Listing{}, nil
}
func (stubCatalogService) Suspend(ctx context.Context, id string) (catalogdomain.Listing, error) {
	return catalogdomain.Listing{}, nil
}

type stubOrderService struct{}

func (stubOrderService) Checkout(ctx context.Context, buyerID snowflake.ID, req orderdomain.CheckoutRequest) (*orderdomain.CheckoutSession, error) {
	return &orderdomain.CheckoutSession{}, nil
}
func (stubOrderService) GetByID(ctx context.Context, id snowflake.ID) (*orderdomain.Order, error) {
	return nil, orderdomain.ErrNotFound
}
func (stubOrderService) ListByBuyer(ctx context.Context, buyerID snowflake.ID) ([]orderdomain.Order, error) {
	return []orderdomain.Order{}, nil
}
func (stubOrderService) Cancel(ctx context.Context, buyerID, orderID snowflake.ID) (*orderdomain.Order, error) {
	return nil, orderdomain.ErrNotFound
}

type stubGrantService struct{}

func (stubGrantService) Library(ctx context.Context, userID snowflake.ID) ([]grantdomain.LibraryItem, error) {
	return []grantdomain.LibraryItem{}, nil
}
func (stubGrantService) HasAccess(ctx context.Context, userID, listingID snowflake.ID) (bool, error) {
	return false, nil
}

type stubSalesService struct{}

func (stubSalesService) Revenue(ctx context.Context, sellerID snowflake.ID, req salesdomain.RevenueRequest) (salesdomain.RevenueReport, error) {
	return salesdomain.RevenueReport{Periods: []salesdomain.Aggregate{}}, nil
}

func newTestServer(t *testing.T, settle settlementdomain.Service) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	node, err := snowflake.NewNode(100)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}

	engine := gin.New()
	engine.Use(server.ErrorHandlingMiddleware())

	server.NewServer(server.ServerParams{
		Gin:           engine,
		GenID:         node,
		AccountSvc:    stubAccountService{user: accountdomain.User{ID: node.Generate(), Status: accountdomain.UserStatusActive}},
		CatalogSvc:    stubCatalogService{},
		OrderSvc:      stubOrderService{},
		SettlementSvc: settle,
		GrantSvc:      stubGrantService{},
		SalesSvc:      stubSalesService{},
	})

	return engine
}

func TestProcessPaymentStatusMapping(t *testing.T) {
	node, err := snowflake.NewNode(101)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	orderID := node.Generate()

	cases := []struct {
		name       string
		err        error
		wantStatus int
		wantType   string
	}{
		{"success", nil, http.StatusOK, ""},
		{"intent not found", settlementdomain.ErrIntentNotFound, http.StatusNotFound, "intent_not_found"},
		{"intent not succeeded", settlementdomain.ErrIntentNotSucceeded, http.StatusBadRequest, "intent_not_succeeded"},
		{"order not found", settlementdomain.ErrOrderNotFound, http.StatusNotFound, "order_not_found"},
		{"already processed", settlementdomain.ErrAlreadyProcessed, http.StatusConflict, "already_processed"},
		{"order not settleable", settlementdomain.ErrOrderNotSettleable, http.StatusConflict, "order_not_settleable"},
		{"amount mismatch", settlementdomain.ErrAmountMismatch, http.StatusConflict, "amount_mismatch"},
		{"repo not found", settlementdomain.ErrRepoNotFound, http.StatusNotFound, "repo_not_found"},
		{"seller unavailable", settlementdomain.ErrSellerUnavailable, http.StatusBadRequest, "seller_unavailable"},
		{"access grant failed", settlementdomain.ErrAccessGrantFailed, http.StatusBadRequest, "access_grant_failed"},
		{"settlement failed", settlementdomain.ErrSettlementFailed, http.StatusInternalServerError, "settlement_failed"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			engine := newTestServer(t, stubSettlementService{
				result: &settlementdomain.SettleResult{OrderID: orderID},
				err:    tc.err,
			})

			req := httptest.NewRequest(http.MethodPost, "/api/checkout/process-payment",
				strings.NewReader(`{"payment_intent_id":"pi_test"}`))
			req.Header.Set("Authorization", "Bearer tok_ok")
			req.Header.Set("Content-Type", "application/json")
			rec := httptest.NewRecorder()
			engine.ServeHTTP(rec, req)

			if rec.Code != tc.wantStatus {
				t.Fatalf("expected status %d, got %d (%s)", tc.wantStatus, rec.Code, rec.Body.String())
			}
			if tc.wantType == "" {
				return
			}

			var body struct {
				Error struct {
					Type string `json:"type"`
				} `json:"error"`
			}
			if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
				t.Fatalf("decode body: %v", err)
			}
			if body.Error.Type != tc.wantType {
				t.Fatalf("expected error type %q, got %q", tc.wantType, body.Error.Type)
			}
		})
	}
}

func TestProcessPaymentRequiresAuth(t *testing.T) {
	engine := newTestServer(t, stubSettlementService{result: &settlementdomain.SettleResult{}})

	cases := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"malformed header", "tok_ok"},
		{"unknown token", "Bearer tok_bad"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/checkout/process-payment",
				strings.NewReader(`{"payment_intent_id":"pi_test"}`))
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rec := httptest.NewRecorder()
			engine.ServeHTTP(rec, req)

			if rec.Code != http.StatusUnauthorized {
				t.Fatalf("expected 401, got %d", rec.Code)
			}
		})
	}
}

func TestProcessPaymentRejectsBadBody(t *testing.T) {
	engine := newTestServer(t, stubSettlementService{result: &settlementdomain.SettleResult{}})

	req := httptest.NewRequest(http.MethodPost, "/api/checkout/process-payment", strings.NewReader("{"))
	req.Header.Set("Authorization", "Bearer tok_ok")
	rec := httptest.NewRecorder()
	engine.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
