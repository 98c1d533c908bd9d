package storage

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/guttosm/treasurypulse/internal/domain/models"
)

type dummyErr struct{}

func (dummyErr) Error() string { return "dummy" }

func newMockRepo(t *testing.T) (*auctionsRepository, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	repo := &auctionsRepository{db: db}
	cleanup := func() { _ = db.Close() }
	return repo, mock, cleanup
}

func TestNewAuctionsRepository_Construct(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock new: %v", err)
	}
	defer func() { _ = db.Close() }()
	if NewAuctionsRepository(db) == nil {
		t.Fatalf("expected non-nil repository")
	}
}

func TestUpsertAuction_InsertedVsUpdated(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	a := models.Auction{
		CUSIP:       "912828YK0",
		AuctionDate: time.Date(2023, 2, 15, 0, 0, 0, 0, time.UTC),
	}

	cases := []struct {
		name         string
		rowInserted  bool
		wantInserted bool
	}{
		{name: "fresh insert", rowInserted: true, wantInserted: true},
		{name: "conflict update", rowInserted: false, wantInserted: false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mock.ExpectQuery(`INSERT INTO auctions`).
				WillReturnRows(sqlmock.NewRows([]string{"auction_id", "inserted"}).AddRow(int64(7), tc.rowInserted))

			id, inserted, err := repo.UpsertAuction(context.Background(), repo.db, a)
			if err != nil {
				t.Fatalf("upsert: %v", err)
			}
			if id != 7 || inserted != tc.wantInserted {
				t.Fatalf("got id=%d inserted=%v, want id=7 inserted=%v", id, inserted, tc.wantInserted)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Fatalf("unmet expectations: %v", err)
			}
		})
	}
}

func TestUpsertSecurity_SQLMock(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	mock.ExpectExec(`INSERT INTO securities`).WillReturnResult(sqlmock.NewResult(0, 1))
	s := models.Security{CUSIP: "912828YK0", SecurityType: "Note"}
	if err := repo.UpsertSecurity(context.Background(), repo.db, s); err != nil {
		t.Fatalf("upsert security: %v", err)
	}

	mock.ExpectExec(`INSERT INTO securities`).WillReturnError(dummyErr{})
	if err := repo.UpsertSecurity(context.Background(), repo.db, s); err == nil {
		t.Fatalf("expected error")
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpsertBidderDetail_SQLMock(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	mock.ExpectExec(`INSERT INTO bidder_details`).WillReturnResult(sqlmock.NewResult(0, 1))
	if err := repo.UpsertBidderDetail(context.Background(), repo.db, models.BidderDetail{AuctionID: 7}); err != nil {
		t.Fatalf("upsert bidder detail: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDataUpdateLifecycle_SQLMock(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO data_updates (run_type, status) VALUES ($1, $2) RETURNING update_id")).
		WithArgs(models.RunTypeManual, models.RunStatusRunning).
		WillReturnRows(sqlmock.NewRows([]string{"update_id"}).AddRow(int64(3)))

	id, err := repo.CreateDataUpdate(context.Background(), models.RunTypeManual)
	if err != nil || id != 3 {
		t.Fatalf("create: id=%d err=%v", id, err)
	}

	mock.ExpectExec(`UPDATE data_updates SET`).WillReturnResult(sqlmock.NewResult(0, 1))
	u := models.DataUpdate{
		UpdateID:        3,
		RecordsFetched:  sql.NullInt64{Int64: 150, Valid: true},
		RecordsInserted: sql.NullInt64{Int64: 100, Valid: true},
		RecordsUpdated:  sql.NullInt64{Int64: 50, Valid: true},
		Status:          models.RunStatusSuccess,
	}
	if err := repo.FinalizeDataUpdate(context.Background(), u); err != nil {
		t.Fatalf("finalize: %v", err)
	}

	mock.ExpectQuery(`FROM data_updates`).
		WillReturnRows(sqlmock.NewRows([]string{
			"update_id", "update_timestamp", "records_fetched", "records_inserted", "records_updated",
			"last_auction_date", "run_type", "status", "error_message",
		}).AddRow(int64(3), time.Now(), 150, 100, 50, nil, models.RunTypeManual, models.RunStatusSuccess, nil))

	got, err := repo.RecentDataUpdates(context.Background(), 10)
	if err != nil || len(got) != 1 {
		t.Fatalf("recent: n=%d err=%v", len(got), err)
	}
	if got[0].Status != models.RunStatusSuccess || got[0].RunType != models.RunTypeManual {
		t.Fatalf("unexpected row: %+v", got[0])
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestCountAndLatest_SQLMock(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM auctions")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(42))
	n, err := repo.CountAuctions(context.Background())
	if err != nil || n != 42 {
		t.Fatalf("count: n=%d err=%v", n, err)
	}

	mock.ExpectQuery(regexp.QuoteMeta("SELECT MAX(auction_date) FROM auctions")).
		WillReturnRows(sqlmock.NewRows([]string{"max"}).AddRow(nil))
	d, err := repo.LatestAuctionDate(context.Background())
	if err != nil || d.Valid {
		t.Fatalf("latest on empty table: d=%+v err=%v", d, err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

// ListAuctions builds placeholders dynamically; verify argument counts per
// filter combination.
func TestListAuctions_DynamicFilters(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	day := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	emptyRows := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{
			"auction_id", "cusip", "auction_date", "auction_date_year",
			"announcement_date", "issue_date", "maturity_date", "maturing_date", "dated_date",
			"auction_format", "closing_time_competitive", "closing_time_noncompetitive",
			"offering_amount", "allocation_percentage",
			"total_tendered", "total_accepted", "bid_to_cover_ratio",
			"interest_rate", "high_yield", "low_yield", "average_median_yield",
			"high_discount_rate", "low_discount_rate", "high_investment_rate", "low_investment_rate",
			"high_price", "low_price", "price_per_100", "updated_timestamp",
		})
	}

	cases := []struct {
		name   string
		filter AuctionFilter
		args   []driver.Value
	}{
		{name: "no filters, default limit", filter: AuctionFilter{}, args: []driver.Value{100}},
		{name: "cusip only", filter: AuctionFilter{CUSIP: "912828YK0", Limit: 10}, args: []driver.Value{"912828YK0", 10}},
		{name: "type and range", filter: AuctionFilter{SecurityType: "Bill", From: &day, To: &day, Limit: 5}, args: []driver.Value{"Bill", day, day, 5}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mock.ExpectQuery(`FROM auctions a\s+JOIN securities s`).
				WithArgs(tc.args...).
				WillReturnRows(emptyRows())

			if _, err := repo.ListAuctions(context.Background(), tc.filter); err != nil {
				t.Fatalf("list: %v", err)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Fatalf("unmet expectations: %v", err)
			}
		})
	}
}

func TestAuctionMetrics_TermColumnToggle(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	rows := func() *sqlmock.Rows {
		return sqlmock.NewRows([]string{
			"auction_date", "cusip", "security_type", "term",
			"bid_to_cover_ratio", "high_yield", "offering_amount",
			"primary_dealer_percentage", "direct_bidder_percentage", "indirect_bidder_percentage",
		}).AddRow(time.Date(2023, 2, 15, 0, 0, 0, 0, time.UTC), "912828YK0", "Note", "10-Year", 2.45, 3.5, nil, nil, nil, nil)
	}

	mock.ExpectQuery(`COALESCE\(s\.security_term, ''\)`).WillReturnRows(rows())
	got, err := repo.AuctionMetrics(context.Background(), MetricsFilter{})
	if err != nil || len(got) != 1 {
		t.Fatalf("raw term: n=%d err=%v", len(got), err)
	}
	if got[0].Term != "10-Year" || !got[0].BidToCover.Valid {
		t.Fatalf("unexpected metric: %+v", got[0])
	}

	mock.ExpectQuery(`COALESCE\(s\.standardized_term, ''\)`).WithArgs("Note").WillReturnRows(rows())
	if _, err := repo.AuctionMetrics(context.Background(), MetricsFilter{SecurityType: "Note", UseStandardizedTerm: true}); err != nil {
		t.Fatalf("standardized term: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestWeeklyStressRows_SQLMock(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	week := time.Date(2023, 2, 13, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`DATE_TRUNC\('week', auction_date\)`).
		WithArgs(730).
		WillReturnRows(sqlmock.NewRows([]string{"week", "auction_count", "avg_btc", "std_btc", "avg_yield"}).
			AddRow(week, 5, 2.4, 0.12, 3.8).
			AddRow(week.AddDate(0, 0, 7), 1, 2.2, nil, 3.9))

	got, err := repo.WeeklyStressRows(context.Background(), 0)
	if err != nil {
		t.Fatalf("weekly rows: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d rows, want 2", len(got))
	}
	if got[1].StdBidToCover.Valid {
		t.Fatalf("single-auction week must have NULL stddev")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestBulkUpsertFiscalArticles_SQLMock(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE tmp_fiscal_articles`).WillReturnResult(sqlmock.NewResult(0, 0))
	// pq.CopyIn cannot be intercepted precisely; allow any prepared statement,
	// one row exec plus the flushing Exec. Full path is covered by the
	// integration test.
	prep := mock.ExpectPrepare(".*")
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 1))
	prep.ExpectExec().WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`INSERT INTO fiscal_articles`).
		WillReturnRows(sqlmock.NewRows([]string{"inserted"}).AddRow(true))
	mock.ExpectCommit()

	articles := []models.FiscalArticle{
		{ArticleID: "A1", Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC), IsFiscalArticle: true},
	}
	inserted, updated, err := repo.BulkUpsertFiscalArticles(context.Background(), articles)
	if err != nil {
		t.Fatalf("bulk upsert: %v", err)
	}
	if inserted != 1 || updated != 0 {
		t.Fatalf("got inserted=%d updated=%d, want 1/0", inserted, updated)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestBulkUpsertFiscalArticles_EmptyNoop(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	inserted, updated, err := repo.BulkUpsertFiscalArticles(context.Background(), nil)
	if err != nil || inserted != 0 || updated != 0 {
		t.Fatalf("empty batch should be a no-op: %d/%d err=%v", inserted, updated, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestBulkUpsertFiscalArticles_ErrorOnBegin(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	mock.ExpectBegin().WillReturnError(dummyErr{})
	if _, _, err := repo.BulkUpsertFiscalArticles(context.Background(), []models.FiscalArticle{{ArticleID: "A1"}}); err == nil {
		t.Fatalf("expected error on begin")
	}
}

func TestUpsertFiscalPolicyIndex_SQLMock(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	mock.ExpectQuery(`INSERT INTO fiscal_policy_indices`).
		WillReturnRows(sqlmock.NewRows([]string{"inserted"}).AddRow(false))

	inserted, err := repo.UpsertFiscalPolicyIndex(context.Background(), models.FiscalPolicyIndex{
		Date: time.Date(2024, 1, 2, 0, 0, 0, 0, time.UTC),
	})
	if err != nil {
		t.Fatalf("upsert index: %v", err)
	}
	if inserted {
		t.Fatalf("conflict update reported as insert")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestUpsertTopPhrase_SQLMock(t *testing.T) {
	repo, mock, done := newMockRepo(t)
	defer done()

	mock.ExpectQuery(`INSERT INTO top_phrases`).
		WithArgs("debt ceiling", 40).
		WillReturnRows(sqlmock.NewRows([]string{"inserted"}).AddRow(true))

	inserted, err := repo.UpsertTopPhrase(context.Background(), models.TopPhrase{Phrase: "debt ceiling", Count: 40})
	if err != nil || !inserted {
		t.Fatalf("upsert phrase: inserted=%v err=%v", inserted, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
