package service_test

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	grantrepo "github.com/repomart/repomart/internal/accessgrant/repository"
	accountdomain "github.com/repomart/repomart/internal/account/domain"
	accountrepo "github.com/repomart/repomart/internal/account/repository"
	catalogdomain "github.com/repomart/repomart/internal/catalog/domain"
	catalogrepo "github.com/repomart/repomart/internal/catalog/repository"
	gatewaydomain "github.com/repomart/repomart/internal/gateway/domain"
	orderdomain "github.com/repomart/repomart/internal/order/domain"
	orderrepo "github.com/repomart/repomart/internal/order/repository"
	outboxrepo "github.com/repomart/repomart/internal/outbox/repository"
	salesrepo "github.com/repomart/repomart/internal/salesaggregate/repository"
	settlementdomain "github.com/repomart/repomart/internal/settlement/domain"
	settlementservice "github.com/repomart/repomart/internal/settlement/service"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type fakeGateway struct {
	intents map[string]*gatewaydomain.PaymentIntent
}

func newFakeGateway() *fakeGateway {
	return &fakeGateway{intents: map[string]*gatewaydomain.PaymentIntent{}}
}

func (g *fakeGateway) Provider() string { return "fake" }

func (g *fakeGateway) CreateIntent(ctx context.Context, amount int64, currency string, metadata map[string]string) (*gatewaydomain.PaymentIntent, error) {
	return nil, fmt.Errorf("not implemented")
}

func (g *fakeGateway) RetrieveIntent(ctx context.Context, id string) (*gatewaydomain.PaymentIntent, error) {
	intent, ok := g.intents[id]
	if !ok {
		return nil, gatewaydomain.ErrIntentNotFound
	}
	copied := *intent
	return &copied, nil
}

func (g *fakeGateway) put(id string, status gatewaydomain.IntentStatus, amount int64, currency string) {
	g.intents[id] = &gatewaydomain.PaymentIntent{
		ID:       id,
		Status:   status,
		Amount:   amount,
		Currency: currency,
	}
}

func newService(t *testing.T, db *gorm.DB, node *snowflake.Node, gw gatewaydomain.Gateway) settlementdomain.Service {
	t.Helper()
	return settlementservice.New(settlementservice.Params{
		DB:          db,
		Log:         zap.NewNop(),
		GenID:       node,
		Gateway:     gw,
		OrderRepo:   orderrepo.Provide(),
		CatalogRepo: catalogrepo.Provide(),
		AccountRepo: accountrepo.Provide(),
		GrantRepo:   grantrepo.Provide(),
		SalesRepo:   salesrepo.Provide(),
		OutboxRepo:  outboxrepo.Provide(),
	})
}

func TestSettleGrantsAccessAndCreditsSeller(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	node := newNode(t, 20)
	gw := newFakeGateway()
	svc := newService(t, db, node, gw)

	seller := seedUser(t, db, node, accountdomain.UserStatusActive)
	buyer := seedUser(t, db, node, accountdomain.UserStatusActive)
	listing := seedListing(t, db, node, seller, 2500, "USD")
	order := seedOrder(t, db, node, buyer, listing, "pi_happy", orderdomain.OrderStatusPending)
	gw.put("pi_happy", gatewaydomain.IntentStatusSucceeded, 2500, "USD")

	res, err := svc.Settle(ctx, buyer, settlementdomain.SettleRequest{PaymentIntentID: "pi_happy"})
	if err != nil {
		t.Fatalf("settle: %v", err)
	}
	if res.OrderID != order {
		t.Fatalf("expected order %s, got %s", order, res.OrderID)
	}

	var status string
	if err := db.Raw("SELECT status FROM orders WHERE id = ?", order).Scan(&status).Error; err != nil {
		t.Fatalf("scan order status: %v", err)
	}
	if status != string(orderdomain.OrderStatusSucceeded) {
		t.Fatalf("expected succeeded order, got %s", status)
	}

	var settledAt sql.NullTime
	if err := db.Raw("SELECT settled_at FROM orders WHERE id = ?", order).Scan(&settledAt).Error; err != nil {
		t.Fatalf("scan settled_at: %v", err)
	}
	if !settledAt.Valid {
		t.Fatal("expected settled_at to be set")
	}

	assertCount(t, db, "SELECT COUNT(1) FROM access_grants WHERE user_id = ? AND listing_id = ?", 1, buyer, listing)

	var revenue, sales int64
	row := db.Raw("SELECT revenue, sales_count FROM sales_aggregates WHERE seller_id = ?", seller).Row()
	if err := row.Scan(&revenue, &sales); err != nil {
		t.Fatalf("scan aggregate: %v", err)
	}
	if revenue != 2500 || sales != 1 {
		t.Fatalf("expected revenue 2500 and 1 sale, got %d and %d", revenue, sales)
	}

	assertCount(t, db, "SELECT COUNT(1) FROM outbox_events WHERE topic = 'order.settled' AND published_at IS NULL", 1)
}

func TestSettleIsIdempotent(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	node := newNode(t, 21)
	gw := newFakeGateway()
	svc := newService(t, db, node, gw)

	seller := seedUser(t, db, node, accountdomain.UserStatusActive)
	buyer := seedUser(t, db, node, accountdomain.UserStatusActive)
	listing := seedListing(t, db, node, seller, 900, "USD")
	seedOrder(t, db, node, buyer, listing, "pi_twice", orderdomain.OrderStatusPending)
	gw.put("pi_twice", gatewaydomain.IntentStatusSucceeded, 900, "USD")

	if _, err := svc.Settle(ctx, buyer, settlementdomain.SettleRequest{PaymentIntentID: "pi_twice"}); err != nil {
		t.Fatalf("first settle: %v", err)
	}
	_, err := svc.Settle(ctx, buyer, settlementdomain.SettleRequest{PaymentIntentID: "pi_twice"})
	if err != settlementdomain.ErrAlreadyProcessed {
		t.Fatalf("expected ErrAlreadyProcessed, got %v", err)
	}

	var sales int64
	if err := db.Raw("SELECT sales_count FROM sales_aggregates WHERE seller_id = ?", seller).Scan(&sales).Error; err != nil {
		t.Fatalf("scan sales_count: %v", err)
	}
	if sales != 1 {
		t.Fatalf("expected exactly 1 sale after replay, got %d", sales)
	}
	assertCount(t, db, "SELECT COUNT(1) FROM access_grants WHERE user_id = ?", 1, buyer)
	assertCount(t, db, "SELECT COUNT(1) FROM outbox_events", 1)
}

func TestSettleUnknownIntent(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	node := newNode(t, 22)
	svc := newService(t, db, node, newFakeGateway())

	_, err := svc.Settle(ctx, node.Generate(), settlementdomain.SettleRequest{PaymentIntentID: "pi_missing"})
	if err != settlementdomain.ErrIntentNotFound {
		t.Fatalf("expected ErrIntentNotFound, got %v", err)
	}
}

func TestSettleIntentNotSucceeded(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	node := newNode(t, 23)
	gw := newFakeGateway()
	svc := newService(t, db, node, gw)

	seller := seedUser(t, db, node, accountdomain.UserStatusActive)
	buyer := seedUser(t, db, node, accountdomain.UserStatusActive)
	listing := seedListing(t, db, node, seller, 500, "USD")
	order := seedOrder(t, db, node, buyer, listing, "pi_pending", orderdomain.OrderStatusPending)
	gw.put("pi_pending", gatewaydomain.IntentStatusRequiresAction, 500, "USD")

	_, err := svc.Settle(ctx, buyer, settlementdomain.SettleRequest{PaymentIntentID: "pi_pending"})
	if err != settlementdomain.ErrIntentNotSucceeded {
		t.Fatalf("expected ErrIntentNotSucceeded, got %v", err)
	}

	var status string
	if err := db.Raw("SELECT status FROM orders WHERE id = ?", order).Scan(&status).Error; err != nil {
		t.Fatalf("scan order status: %v", err)
	}
	if status != string(orderdomain.OrderStatusPending) {
		t.Fatalf("expected pending order, got %s", status)
	}
}

func TestSettleOrderNotFound(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	node := newNode(t, 24)
	gw := newFakeGateway()
	svc := newService(t, db, node, gw)

	gw.put("pi_orphan", gatewaydomain.IntentStatusSucceeded, 100, "USD")

	_, err := svc.Settle(ctx, node.Generate(), settlementdomain.SettleRequest{PaymentIntentID: "pi_orphan"})
	if err != settlementdomain.ErrOrderNotFound {
		t.Fatalf("expected ErrOrderNotFound, got %v", err)
	}
}

func TestSettleOtherBuyersOrder(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	node := newNode(t, 25)
	gw := newFakeGateway()
	svc := newService(t, db, node, gw)

	seller := seedUser(t, db, node, accountdomain.UserStatusActive)
	buyer := seedUser(t, db, node, accountdomain.UserStatusActive)
	intruder := seedUser(t, db, node, accountdomain.UserStatusActive)
	listing := seedListing(t, db, node, seller, 100, "USD")
	seedOrder(t, db, node, buyer, listing, "pi_owned", orderdomain.OrderStatusPending)
	gw.put("pi_owned", gatewaydomain.IntentStatusSucceeded, 100, "USD")

	_, err := svc.Settle(ctx, intruder, settlementdomain.SettleRequest{PaymentIntentID: "pi_owned"})
	if err != settlementdomain.ErrOrderNotFound {
		t.Fatalf("expected ErrOrderNotFound for foreign order, got %v", err)
	}
}

func TestSettleCancelledOrder(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	node := newNode(t, 26)
	gw := newFakeGateway()
	svc := newService(t, db, node, gw)

	seller := seedUser(t, db, node, accountdomain.UserStatusActive)
	buyer := seedUser(t, db, node, accountdomain.UserStatusActive)
	listing := seedListing(t, db, node, seller, 100, "USD")
	seedOrder(t, db, node, buyer, listing, "pi_cancelled", orderdomain.OrderStatusCancelled)
	gw.put("pi_cancelled", gatewaydomain.IntentStatusSucceeded, 100, "USD")

	_, err := svc.Settle(ctx, buyer, settlementdomain.SettleRequest{PaymentIntentID: "pi_cancelled"})
	if err != settlementdomain.ErrOrderNotSettleable {
		t.Fatalf("expected ErrOrderNotSettleable, got %v", err)
	}
}

func TestSettleAmountMismatch(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	node := newNode(t, 27)
	gw := newFakeGateway()
	svc := newService(t, db, node, gw)

	seller := seedUser(t, db, node, accountdomain.UserStatusActive)
	buyer := seedUser(t, db, node, accountdomain.UserStatusActive)
	listing := seedListing(t, db, node, seller, 1000, "USD")
	order := seedOrder(t, db, node, buyer, listing, "pi_short", orderdomain.OrderStatusPending)
	gw.put("pi_short", gatewaydomain.IntentStatusSucceeded, 1, "USD")

	_, err := svc.Settle(ctx, buyer, settlementdomain.SettleRequest{PaymentIntentID: "pi_short"})
	if err != settlementdomain.ErrAmountMismatch {
		t.Fatalf("expected ErrAmountMismatch, got %v", err)
	}

	var status string
	if err := db.Raw("SELECT status FROM orders WHERE id = ?", order).Scan(&status).Error; err != nil {
		t.Fatalf("scan order status: %v", err)
	}
	if status != string(orderdomain.OrderStatusPending) {
		t.Fatalf("expected pending order, got %s", status)
	}
}

func TestSettleSellerUnavailable(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	node := newNode(t, 28)
	gw := newFakeGateway()
	svc := newService(t, db, node, gw)

	seller := seedUser(t, db, node, accountdomain.UserStatusBanned)
	buyer := seedUser(t, db, node, accountdomain.UserStatusActive)
	listing := seedListing(t, db, node, seller, 100, "USD")
	seedOrder(t, db, node, buyer, listing, "pi_banned", orderdomain.OrderStatusPending)
	gw.put("pi_banned", gatewaydomain.IntentStatusSucceeded, 100, "USD")

	_, err := svc.Settle(ctx, buyer, settlementdomain.SettleRequest{PaymentIntentID: "pi_banned"})
	if err != settlementdomain.ErrSellerUnavailable {
		t.Fatalf("expected ErrSellerUnavailable, got %v", err)
	}
}

func TestSettleRollsBackWhenGrantFails(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	node := newNode(t, 29)
	gw := newFakeGateway()
	svc := newService(t, db, node, gw)

	seller := seedUser(t, db, node, accountdomain.UserStatusActive)
	buyer := seedUser(t, db, node, accountdomain.UserStatusActive)
	listing := seedListing(t, db, node, seller, 100, "USD")
	order := seedOrder(t, db, node, buyer, listing, "pi_broken", orderdomain.OrderStatusPending)
	gw.put("pi_broken", gatewaydomain.IntentStatusSucceeded, 100, "USD")

	if err := db.Exec("DROP TABLE access_grants").Error; err != nil {
		t.Fatalf("drop access_grants: %v", err)
	}

	_, err := svc.Settle(ctx, buyer, settlementdomain.SettleRequest{PaymentIntentID: "pi_broken"})
	if err != settlementdomain.ErrAccessGrantFailed {
		t.Fatalf("expected ErrAccessGrantFailed, got %v", err)
	}

	var status string
	if err := db.Raw("SELECT status FROM orders WHERE id = ?", order).Scan(&status).Error; err != nil {
		t.Fatalf("scan order status: %v", err)
	}
	if status != string(orderdomain.OrderStatusPending) {
		t.Fatalf("expected rollback to pending, got %s", status)
	}
	assertCount(t, db, "SELECT COUNT(1) FROM sales_aggregates", 0)
	assertCount(t, db, "SELECT COUNT(1) FROM outbox_events", 0)
}

func TestSettleAccumulatesSellerRevenue(t *testing.T) {
	ctx := context.Background()
	db := setupTestDB(t)
	node := newNode(t, 30)
	gw := newFakeGateway()
	svc := newService(t, db, node, gw)

	seller := seedUser(t, db, node, accountdomain.UserStatusActive)
	first := seedUser(t, db, node, accountdomain.UserStatusActive)
	second := seedUser(t, db, node, accountdomain.UserStatusActive)
	listingA := seedListing(t, db, node, seller, 1500, "USD")
	listingB := seedListing(t, db, node, seller, 3500, "USD")
	seedOrder(t, db, node, first, listingA, "pi_a", orderdomain.OrderStatusPending)
	seedOrder(t, db, node, second, listingB, "pi_b", orderdomain.OrderStatusPending)
	gw.put("pi_a", gatewaydomain.IntentStatusSucceeded, 1500, "USD")
	gw.put("pi_b", gatewaydomain.IntentStatusSucceeded, 3500, "USD")

	if _, err := svc.Settle(ctx, first, settlementdomain.SettleRequest{PaymentIntentID: "pi_a"}); err != nil {
		t.Fatalf("settle first: %v", err)
	}
	if _, err := svc.Settle(ctx, second, settlementdomain.SettleRequest{PaymentIntentID: "pi_b"}); err != nil {
		t.Fatalf("settle second: %v", err)
	}

	var revenue, sales int64
	row := db.Raw("SELECT revenue, sales_count FROM sales_aggregates WHERE seller_id = ?", seller).Row()
	if err := row.Scan(&revenue, &sales); err != nil {
		t.Fatalf("scan aggregate: %v", err)
	}
	if revenue != 5000 || sales != 2 {
		t.Fatalf("expected revenue 5000 over 2 sales, got %d over %d", revenue, sales)
	}
}

func newNode(t *testing.T, id int64) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(id)
	if err != nil {
		t.Fatalf("new node: %v", err)
	}
	return node
}

func seedUser(t *testing.T, db *gorm.DB, node *snowflake.Node, status accountdomain.UserStatus) snowflake.ID {
	t.Helper()
	id := node.Generate()
	now := time.Now().UTC()
	err := db.Exec(
		`INSERT INTO users (id, email, display_name, status, payouts_enabled, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, fmt.Sprintf("user_%s@example.com", id.Base36()), "user "+id.Base36(), status, true, now, now,
	).Error
	if err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return id
}

func seedListing(t *testing.T, db *gorm.DB, node *snowflake.Node, sellerID snowflake.ID, price int64, currency string) snowflake.ID {
	t.Helper()
	id := node.Generate()
	now := time.Now().UTC()
	err := db.Exec(
		`INSERT INTO listings (id, seller_id, title, slug, description, price, currency, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, '', ?, ?, ?, ?, ?)`,
		id, sellerID, "repo "+id.Base36(), "repo-"+id.Base36(), price, currency, catalogdomain.ListingStatusPublished, now, now,
	).Error
	if err != nil {
		t.Fatalf("seed listing: %v", err)
	}
	return id
}

func seedOrder(t *testing.T, db *gorm.DB, node *snowflake.Node, buyerID, listingID snowflake.ID, intentID string, status orderdomain.OrderStatus) snowflake.ID {
	t.Helper()
	id := node.Generate()
	now := time.Now().UTC()

	var sellerID snowflake.ID
	if err := db.Raw("SELECT seller_id FROM listings WHERE id = ?", listingID).Scan(&sellerID).Error; err != nil {
		t.Fatalf("scan seller: %v", err)
	}

	var price int64
	var currency string
	row := db.Raw("SELECT price, currency FROM listings WHERE id = ?", listingID).Row()
	if err := row.Scan(&price, &currency); err != nil {
		t.Fatalf("scan listing price: %v", err)
	}

	err := db.Exec(
		`INSERT INTO orders (id, buyer_id, listing_id, seller_id, payment_intent_id, amount, currency, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, buyerID, listingID, sellerID, intentID, price, currency, status, now, now,
	).Error
	if err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return id
}

func assertCount(t *testing.T, db *gorm.DB, query string, want int64, args ...any) {
	t.Helper()
	var got int64
	if err := db.Raw(query, args...).Scan(&got).Error; err != nil {
		t.Fatalf("count query: %v", err)
	}
	if got != want {
		t.Fatalf("expected count %d, got %d (%s)", want, got, query)
	}
}

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_settlement_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	schema := []string{
		`CREATE TABLE users (
			id BIGINT PRIMARY KEY,
			email TEXT NOT NULL,
			display_name TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'active',
			payouts_enabled BOOLEAN NOT NULL DEFAULT FALSE,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE UNIQUE INDEX ux_users_email ON users(email)`,
		`CREATE TABLE listings (
			id BIGINT PRIMARY KEY,
			seller_id BIGINT NOT NULL,
			title TEXT NOT NULL,
			slug TEXT NOT NULL,
			description TEXT NOT NULL DEFAULT '',
			price BIGINT NOT NULL,
			currency TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'draft',
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			deleted_at DATETIME
		)`,
		`CREATE UNIQUE INDEX ux_listings_slug ON listings(slug)`,
		`CREATE TABLE orders (
			id BIGINT PRIMARY KEY,
			buyer_id BIGINT NOT NULL,
			listing_id BIGINT NOT NULL,
			seller_id BIGINT NOT NULL,
			payment_intent_id TEXT NOT NULL,
			amount BIGINT NOT NULL,
			currency TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'pending',
			settled_at DATETIME,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)`,
		`CREATE UNIQUE INDEX ux_orders_payment_intent ON orders(payment_intent_id)`,
		`CREATE TABLE access_grants (
			id BIGINT PRIMARY KEY,
			user_id BIGINT NOT NULL,
			listing_id BIGINT NOT NULL,
			order_id BIGINT NOT NULL,
			created_at DATETIME NOT NULL
		)`,
		`CREATE UNIQUE INDEX ux_access_grants_user_listing ON access_grants(user_id, listing_id)`,
		`CREATE TABLE sales_aggregates (
			seller_id BIGINT NOT NULL,
			period DATE NOT NULL,
			revenue BIGINT NOT NULL DEFAULT 0,
			sales_count BIGINT NOT NULL DEFAULT 0,
			updated_at DATETIME NOT NULL,
			PRIMARY KEY (seller_id, period)
		)`,
		`CREATE TABLE outbox_events (
			id BIGINT PRIMARY KEY,
			topic TEXT NOT NULL,
			payload TEXT NOT NULL,
			created_at DATETIME NOT NULL,
			published_at DATETIME
		)`,
	}
	for _, stmt := range schema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}

	return db
}
