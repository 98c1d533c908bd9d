//go:build integration
// +build integration

package api_test

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/docker/go-connections/nat"
	_ "github.com/lib/pq"
	"github.com/shopspring/decimal"
	tc "github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/guttosm/treasurypulse/config"
	"github.com/guttosm/treasurypulse/internal/app"
	"github.com/guttosm/treasurypulse/internal/domain/models"
	"github.com/guttosm/treasurypulse/internal/storage"
)

func startPG(t *testing.T) (dsn string, terminate func()) {
	t.Helper()
	ctx := context.Background()
	req := tc.ContainerRequest{
		Image:        "postgres:15-alpine",
		ExposedPorts: []string{"5432/tcp"},
		Env: map[string]string{
			"POSTGRES_DB":       "treasurypulse",
			"POSTGRES_USER":     "postgres",
			"POSTGRES_PASSWORD": "postgres",
		},
		WaitingFor: wait.ForSQL("5432/tcp", "postgres", func(h string, p nat.Port) string {
			return fmt.Sprintf("host=%s port=%s user=postgres password=postgres dbname=treasurypulse sslmode=disable", h, p.Port())
		}).WithStartupTimeout(60 * time.Second),
	}
	c, err := tc.GenericContainer(ctx, tc.GenericContainerRequest{ContainerRequest: req, Started: true})
	if err != nil {
		t.Fatalf("container: %v", err)
	}
	h, err := c.Host(ctx)
	if err != nil {
		t.Fatalf("host: %v", err)
	}
	mp, err := c.MappedPort(ctx, "5432/tcp")
	if err != nil {
		t.Fatalf("port: %v", err)
	}
	dsn = fmt.Sprintf("postgres://postgres:postgres@%s:%s/treasurypulse?sslmode=disable", h, mp.Port())
	terminate = func() { _ = c.Terminate(context.Background()) }
	return dsn, terminate
}

func seedForE2E(t *testing.T, db *sql.DB) {
	t.Helper()
	ctx := context.Background()
	repo := storage.NewAuctionsRepository(db)
	if err := repo.EnsureSchema(ctx); err != nil {
		t.Fatalf("schema: %v", err)
	}

	if err := repo.UpsertSecurity(ctx, db, models.Security{
		CUSIP:        "912796E2E",
		SecurityType: "Bill",
		SecurityTerm: sql.NullString{String: "13-Week", Valid: true},
	}); err != nil {
		t.Fatalf("seed security: %v", err)
	}

	btc := decimal.NullDecimal{Decimal: decimal.RequireFromString("2.58"), Valid: true}
	if _, _, err := repo.UpsertAuction(ctx, db, models.Auction{
		CUSIP:           "912796E2E",
		AuctionDate:     time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC),
		BidToCoverRatio: btc,
	}); err != nil {
		t.Fatalf("seed auction: %v", err)
	}
}

func TestAPI_E2E_AuctionsAndAnalytics(t *testing.T) {
	dsn, term := startPG(t)
	defer term()

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer db.Close()
	seedForE2E(t, db)

	// Point application config to containerized DB
	config.AppConfig.Postgres.URL = dsn

	router, cleanup, err := app.InitializeApp(context.Background())
	if err != nil {
		t.Fatalf("init app: %v", err)
	}
	defer cleanup()

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/v1/auctions?cusip=912796E2E", nil)
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d body=%s", w.Code, w.Body.String())
	}
	var auctions []models.Auction
	if err := json.Unmarshal(w.Body.Bytes(), &auctions); err != nil {
		t.Fatalf("json: %v", err)
	}
	if len(auctions) != 1 || auctions[0].CUSIP != "912796E2E" {
		t.Fatalf("unexpected body: %+v", auctions)
	}

	// Analytics over a nearly empty store still answers 200 with empty blocks.
	w2 := httptest.NewRecorder()
	router.ServeHTTP(w2, httptest.NewRequest(http.MethodGet, "/api/v1/analytics/summary", nil))
	if w2.Code != http.StatusOK {
		t.Fatalf("summary status: %d body=%s", w2.Code, w2.Body.String())
	}

	w3 := httptest.NewRecorder()
	router.ServeHTTP(w3, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	if w3.Code != http.StatusOK {
		t.Fatalf("readyz status: %d", w3.Code)
	}
}
