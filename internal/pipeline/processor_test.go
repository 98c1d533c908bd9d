package pipeline

import (
	"context"
	"database/sql"
	"fmt"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/guttosm/treasurypulse/internal/domain/models"
	"github.com/guttosm/treasurypulse/internal/fetcher"
	"github.com/guttosm/treasurypulse/internal/storage"
)

// stubRepo is an in-memory AuctionsRepository. Transactions are backed by
// sqlmock so the savepoint statements the processor issues have somewhere to
// go; the upsert state itself lives in maps.
type stubRepo struct {
	db *sql.DB

	securities  map[string]models.Security
	auctionIDs  map[string]int64
	auctions    map[int64]models.Auction
	bidders     map[int64]models.BidderDetail
	nextID      int64
	failSecurityFor string

	updates      map[int64]models.DataUpdate
	nextUpdateID int64
}

func newStubRepo(db *sql.DB) *stubRepo {
	return &stubRepo{
		db:         db,
		securities: map[string]models.Security{},
		auctionIDs: map[string]int64{},
		auctions:   map[int64]models.Auction{},
		bidders:    map[int64]models.BidderDetail{},
		updates:    map[int64]models.DataUpdate{},
	}
}

func (r *stubRepo) EnsureSchema(ctx context.Context) error { return nil }

func (r *stubRepo) Begin(ctx context.Context) (*sql.Tx, error) {
	return r.db.BeginTx(ctx, nil)
}

func (r *stubRepo) UpsertSecurity(ctx context.Context, q storage.Queryer, s models.Security) error {
	if s.CUSIP == r.failSecurityFor {
		return fmt.Errorf("forced security failure")
	}
	r.securities[s.CUSIP] = s
	return nil
}

func auctionKey(cusip string, date time.Time) string {
	return cusip + "|" + date.Format("2006-01-02")
}

func (r *stubRepo) UpsertAuction(ctx context.Context, q storage.Queryer, a models.Auction) (int64, bool, error) {
	key := auctionKey(a.CUSIP, a.AuctionDate)
	if id, ok := r.auctionIDs[key]; ok {
		a.AuctionID = id
		r.auctions[id] = a
		return id, false, nil
	}
	r.nextID++
	a.AuctionID = r.nextID
	r.auctionIDs[key] = r.nextID
	r.auctions[r.nextID] = a
	return r.nextID, true, nil
}

func (r *stubRepo) UpsertBidderDetail(ctx context.Context, q storage.Queryer, b models.BidderDetail) error {
	r.bidders[b.AuctionID] = b
	return nil
}

func (r *stubRepo) CreateDataUpdate(ctx context.Context, runType string) (int64, error) {
	r.nextUpdateID++
	r.updates[r.nextUpdateID] = models.DataUpdate{UpdateID: r.nextUpdateID, RunType: runType, Status: models.RunStatusRunning}
	return r.nextUpdateID, nil
}

func (r *stubRepo) FinalizeDataUpdate(ctx context.Context, u models.DataUpdate) error {
	existing := r.updates[u.UpdateID]
	u.RunType = existing.RunType
	r.updates[u.UpdateID] = u
	return nil
}

func (r *stubRepo) RecentDataUpdates(ctx context.Context, limit int) ([]models.DataUpdate, error) {
	var out []models.DataUpdate
	for _, u := range r.updates {
		out = append(out, u)
	}
	return out, nil
}

func (r *stubRepo) CountAuctions(ctx context.Context) (int, error) { return len(r.auctions), nil }

func (r *stubRepo) LatestAuctionDate(ctx context.Context) (sql.NullTime, error) {
	var latest sql.NullTime
	for _, a := range r.auctions {
		if !latest.Valid || a.AuctionDate.After(latest.Time) {
			latest = sql.NullTime{Time: a.AuctionDate, Valid: true}
		}
	}
	return latest, nil
}

func (r *stubRepo) ListAuctions(ctx context.Context, f storage.AuctionFilter) ([]models.Auction, error) {
	return nil, nil
}

func (r *stubRepo) AuctionMetrics(ctx context.Context, f storage.MetricsFilter) ([]models.AuctionMetric, error) {
	return nil, nil
}

func (r *stubRepo) WeeklyStressRows(ctx context.Context, lookbackDays int) ([]models.StressWeekRow, error) {
	return nil, nil
}

func (r *stubRepo) BulkUpsertFiscalArticles(ctx context.Context, articles []models.FiscalArticle) (int, int, error) {
	return 0, 0, nil
}

func (r *stubRepo) UpsertFiscalPolicyIndex(ctx context.Context, idx models.FiscalPolicyIndex) (bool, error) {
	return false, nil
}

func (r *stubRepo) UpsertTopPhrase(ctx context.Context, p models.TopPhrase) (bool, error) {
	return false, nil
}

var _ storage.AuctionsRepository = (*stubRepo)(nil)

// expectBatch registers the transaction skeleton for one sub-batch:
// Begin, then per record a SAVEPOINT followed by RELEASE (ok=true) or
// ROLLBACK TO (ok=false), then Commit.
func expectBatch(mock sqlmock.Sqlmock, outcomes []bool) {
	mock.ExpectBegin()
	for _, ok := range outcomes {
		mock.ExpectExec("SAVEPOINT rec").WillReturnResult(sqlmock.NewResult(0, 0))
		if ok {
			mock.ExpectExec("RELEASE SAVEPOINT rec").WillReturnResult(sqlmock.NewResult(0, 0))
		} else {
			mock.ExpectExec("ROLLBACK TO SAVEPOINT rec").WillReturnResult(sqlmock.NewResult(0, 0))
		}
	}
	mock.ExpectCommit()
}

func allOK(n int) []bool {
	out := make([]bool, n)
	for i := range out {
		out[i] = true
	}
	return out
}

func testRecords() []fetcher.Record {
	return []fetcher.Record{
		{
			"cusip": "912828YK0", "securityType": "Note", "securityTerm": "9-Year 10-Month",
			"auctionDate": "2023-02-15T00:00:00", "bidToCoverRatio": "2.45",
			"totalAccepted": "100", "primaryDealerAccepted": "40",
		},
		{
			"cusip": "912796XY1", "securityType": "Bill", "securityTerm": "13-Week",
			"auctionDate": "2023-02-16", "bidToCoverRatio": "2.90",
		},
		{
			"cusip": "912810TM0", "securityType": "Bond", "securityTerm": "30-Year",
			"auctionDate": "2023-02-17", "highYield": "3.686",
		},
	}
}

func TestProcess_Idempotence(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer func() { _ = db.Close() }()

	repo := newStubRepo(db)
	p := NewProcessor(repo)
	records := testRecords()

	expectBatch(mock, allOK(len(records)))
	first, err := p.Process(context.Background(), records)
	if err != nil {
		t.Fatalf("first run: %v", err)
	}
	if first.Inserted != 3 || first.Updated != 0 || first.Errors != 0 {
		t.Fatalf("first run stats: %+v", first)
	}

	expectBatch(mock, allOK(len(records)))
	second, err := p.Process(context.Background(), records)
	if err != nil {
		t.Fatalf("second run: %v", err)
	}
	if second.Inserted != 0 || second.Updated != first.Inserted {
		t.Fatalf("second run must be all updates: %+v", second)
	}
	if len(repo.auctions) != 3 {
		t.Fatalf("store has %d auctions, want 3", len(repo.auctions))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

// Two records sharing (cusip, auction_date) leave exactly one auction row with
// the later record's values.
func TestProcess_NaturalKeyLastWriteWins(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer func() { _ = db.Close() }()

	repo := newStubRepo(db)
	p := NewProcessor(repo)

	records := []fetcher.Record{
		{"cusip": "912828YK0", "securityType": "Note", "auctionDate": "2023-02-15", "bidToCoverRatio": "2.45"},
		{"cusip": "912828YK0", "securityType": "Note", "auctionDate": "2023-02-15", "bidToCoverRatio": "2.61"},
	}
	expectBatch(mock, allOK(2))

	stats, err := p.Process(context.Background(), records)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if stats.Inserted != 1 || stats.Updated != 1 {
		t.Fatalf("stats: %+v", stats)
	}
	if len(repo.auctions) != 1 {
		t.Fatalf("store has %d auctions, want 1", len(repo.auctions))
	}
	for _, a := range repo.auctions {
		if a.BidToCoverRatio.Decimal.StringFixed(2) != "2.61" {
			t.Fatalf("later record must win: %s", a.BidToCoverRatio.Decimal)
		}
	}
}

func TestProcess_SkipsRecordWithoutAuctionDate(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer func() { _ = db.Close() }()

	repo := newStubRepo(db)
	p := NewProcessor(repo)

	records := []fetcher.Record{
		{"cusip": "912828YK0", "securityType": "Note", "auctionDate": "not a date"},
	}
	expectBatch(mock, allOK(1))

	stats, err := p.Process(context.Background(), records)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if stats.Inserted != 0 || stats.Updated != 0 || stats.Errors != 0 || stats.Skipped != 1 {
		t.Fatalf("stats: %+v", stats)
	}
	// Security row still lands even without a usable auction date.
	if _, ok := repo.securities["912828YK0"]; !ok {
		t.Fatalf("security upsert must happen unconditionally")
	}
	if len(repo.auctions) != 0 {
		t.Fatalf("no auction row expected")
	}
}

func TestProcess_BidderPercentageDerivation(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer func() { _ = db.Close() }()

	repo := newStubRepo(db)
	p := NewProcessor(repo)

	records := []fetcher.Record{
		{
			"cusip": "912828YK0", "securityType": "Note", "auctionDate": "2023-02-15",
			"totalAccepted": "100", "primaryDealerAccepted": "40",
		},
		{
			"cusip": "912796XY1", "securityType": "Bill", "auctionDate": "2023-02-16",
			"totalAccepted": "0", "primaryDealerAccepted": "40",
		},
	}
	expectBatch(mock, allOK(2))

	if _, err := p.Process(context.Background(), records); err != nil {
		t.Fatalf("process: %v", err)
	}
	if len(repo.bidders) != 1 {
		t.Fatalf("zero total_accepted must not produce a bidder row: %d", len(repo.bidders))
	}
	for _, b := range repo.bidders {
		if b.PrimaryDealerPercentage.Decimal.StringFixed(2) != "40.00" {
			t.Fatalf("percentage: %s", b.PrimaryDealerPercentage.Decimal)
		}
	}
}

// A failing record is counted and rolled back to its savepoint; the rest of
// the batch still lands.
func TestProcess_PerRecordErrorDoesNotAbortBatch(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer func() { _ = db.Close() }()

	repo := newStubRepo(db)
	repo.failSecurityFor = "912796XY1"
	p := NewProcessor(repo)

	records := testRecords()
	expectBatch(mock, []bool{true, false, true})

	stats, err := p.Process(context.Background(), records)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if stats.Errors != 1 || stats.Inserted != 2 {
		t.Fatalf("stats: %+v", stats)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestProcess_MissingCUSIPCountsAsError(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer func() { _ = db.Close() }()

	repo := newStubRepo(db)
	p := NewProcessor(repo)

	records := []fetcher.Record{{"securityType": "Note", "auctionDate": "2023-02-15"}}
	expectBatch(mock, []bool{false})

	stats, err := p.Process(context.Background(), records)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if stats.Errors != 1 {
		t.Fatalf("stats: %+v", stats)
	}
}

func TestProcess_SubBatchCommits(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer func() { _ = db.Close() }()

	repo := newStubRepo(db)
	p := NewProcessor(repo)
	p.batchSize = 2

	records := testRecords() // 3 records → batches of 2 and 1
	expectBatch(mock, allOK(2))
	expectBatch(mock, allOK(1))

	stats, err := p.Process(context.Background(), records)
	if err != nil {
		t.Fatalf("process: %v", err)
	}
	if stats.Inserted != 3 {
		t.Fatalf("stats: %+v", stats)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
