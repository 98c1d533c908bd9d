package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/guttosm/treasurypulse/internal/domain/models"
)

// AuctionsRepository defines the contract for all database operations.
type AuctionsRepository interface {
	EnsureSchema(ctx context.Context) error
	Begin(ctx context.Context) (*sql.Tx, error)

	// Pipeline upserts; q may be the pooled connection or an open transaction.
	UpsertSecurity(ctx context.Context, q Queryer, s models.Security) error
	UpsertAuction(ctx context.Context, q Queryer, a models.Auction) (auctionID int64, inserted bool, err error)
	UpsertBidderDetail(ctx context.Context, q Queryer, b models.BidderDetail) error

	// Audit log lifecycle.
	CreateDataUpdate(ctx context.Context, runType string) (int64, error)
	FinalizeDataUpdate(ctx context.Context, u models.DataUpdate) error
	RecentDataUpdates(ctx context.Context, limit int) ([]models.DataUpdate, error)

	// Queries.
	CountAuctions(ctx context.Context) (int, error)
	LatestAuctionDate(ctx context.Context) (sql.NullTime, error)
	ListAuctions(ctx context.Context, f AuctionFilter) ([]models.Auction, error)
	AuctionMetrics(ctx context.Context, f MetricsFilter) ([]models.AuctionMetric, error)
	WeeklyStressRows(ctx context.Context, lookbackDays int) ([]models.StressWeekRow, error)

	// Fiscal policy dataset.
	BulkUpsertFiscalArticles(ctx context.Context, articles []models.FiscalArticle) (inserted, updated int, err error)
	UpsertFiscalPolicyIndex(ctx context.Context, idx models.FiscalPolicyIndex) (inserted bool, err error)
	UpsertTopPhrase(ctx context.Context, p models.TopPhrase) (inserted bool, err error)
}

// AuctionFilter narrows ListAuctions. Zero values mean "no constraint".
type AuctionFilter struct {
	CUSIP        string
	SecurityType string
	From         *time.Time
	To           *time.Time
	Limit        int
}

// MetricsFilter narrows the analytics source query.
//
// UseStandardizedTerm selects securities.standardized_term instead of the raw
// securities.security_term as the term grouping column.
type MetricsFilter struct {
	SecurityType        string
	UseStandardizedTerm bool
}

type auctionsRepository struct {
	db *sql.DB
}

// NewAuctionsRepository wraps an open *sql.DB in the repository interface.
func NewAuctionsRepository(db *sql.DB) AuctionsRepository {
	return &auctionsRepository{db: db}
}

// Begin opens a transaction for a pipeline batch.
func (r *auctionsRepository) Begin(ctx context.Context) (*sql.Tx, error) {
	return r.db.BeginTx(ctx, nil)
}

// UpsertSecurity inserts or updates one security by CUSIP. The conflict
// resolution is atomic at the database level, so concurrent pipeline runs
// cannot race on this key.
func (r *auctionsRepository) UpsertSecurity(ctx context.Context, q Queryer, s models.Security) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO securities (
			cusip, security_type, security_term, original_security_term, standardized_term,
			series, corpus_cusip, tips, floating_rate, callable, call_date, interest_rate
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		ON CONFLICT (cusip) DO UPDATE SET
			security_type          = EXCLUDED.security_type,
			security_term          = EXCLUDED.security_term,
			original_security_term = EXCLUDED.original_security_term,
			standardized_term      = EXCLUDED.standardized_term,
			series                 = EXCLUDED.series,
			corpus_cusip           = EXCLUDED.corpus_cusip,
			tips                   = EXCLUDED.tips,
			floating_rate          = EXCLUDED.floating_rate,
			callable               = EXCLUDED.callable,
			call_date              = EXCLUDED.call_date,
			interest_rate          = EXCLUDED.interest_rate,
			updated_at             = NOW()
	`,
		s.CUSIP, s.SecurityType, s.SecurityTerm, s.OriginalSecurityTerm, s.StandardizedTerm,
		s.Series, s.CorpusCUSIP, s.TIPS, s.FloatingRate, s.Callable, s.CallDate, s.InterestRate,
	)
	if err != nil {
		return fmt.Errorf("upsert security %s: %w", s.CUSIP, err)
	}
	return nil
}

// UpsertAuction inserts or overwrites one auction by its natural key
// (cusip, auction_date) in a single atomic statement. The xmax system column
// distinguishes a fresh insert from a conflict update so the pipeline can
// keep accurate counts without a prior read.
func (r *auctionsRepository) UpsertAuction(ctx context.Context, q Queryer, a models.Auction) (int64, bool, error) {
	var (
		id       int64
		inserted bool
	)
	err := q.QueryRowContext(ctx, `
		INSERT INTO auctions (
			cusip, auction_date, auction_date_year,
			announcement_date, issue_date, maturity_date, maturing_date, dated_date,
			auction_format, closing_time_competitive, closing_time_noncompetitive,
			offering_amount, allocation_percentage,
			total_tendered, total_accepted, bid_to_cover_ratio,
			interest_rate, high_yield, low_yield, average_median_yield,
			high_discount_rate, low_discount_rate, high_investment_rate, low_investment_rate,
			high_price, low_price, price_per_100, updated_timestamp
		) VALUES (
			$1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,
			$15,$16,$17,$18,$19,$20,$21,$22,$23,$24,$25,$26,$27,$28
		)
		ON CONFLICT (cusip, auction_date) DO UPDATE SET
			auction_date_year           = EXCLUDED.auction_date_year,
			announcement_date           = EXCLUDED.announcement_date,
			issue_date                  = EXCLUDED.issue_date,
			maturity_date               = EXCLUDED.maturity_date,
			maturing_date               = EXCLUDED.maturing_date,
			dated_date                  = EXCLUDED.dated_date,
			auction_format              = EXCLUDED.auction_format,
			closing_time_competitive    = EXCLUDED.closing_time_competitive,
			closing_time_noncompetitive = EXCLUDED.closing_time_noncompetitive,
			offering_amount             = EXCLUDED.offering_amount,
			allocation_percentage       = EXCLUDED.allocation_percentage,
			total_tendered              = EXCLUDED.total_tendered,
			total_accepted              = EXCLUDED.total_accepted,
			bid_to_cover_ratio          = EXCLUDED.bid_to_cover_ratio,
			interest_rate               = EXCLUDED.interest_rate,
			high_yield                  = EXCLUDED.high_yield,
			low_yield                   = EXCLUDED.low_yield,
			average_median_yield        = EXCLUDED.average_median_yield,
			high_discount_rate          = EXCLUDED.high_discount_rate,
			low_discount_rate           = EXCLUDED.low_discount_rate,
			high_investment_rate        = EXCLUDED.high_investment_rate,
			low_investment_rate         = EXCLUDED.low_investment_rate,
			high_price                  = EXCLUDED.high_price,
			low_price                   = EXCLUDED.low_price,
			price_per_100               = EXCLUDED.price_per_100,
			updated_timestamp           = EXCLUDED.updated_timestamp,
			updated_at                  = NOW()
		RETURNING auction_id, (xmax = 0) AS inserted
	`,
		a.CUSIP, a.AuctionDate, a.AuctionDateYear,
		a.AnnouncementDate, a.IssueDate, a.MaturityDate, a.MaturingDate, a.DatedDate,
		a.AuctionFormat, a.ClosingTimeCompetitive, a.ClosingTimeNoncompetitive,
		a.OfferingAmount, a.AllocationPercentage,
		a.TotalTendered, a.TotalAccepted, a.BidToCoverRatio,
		a.InterestRate, a.HighYield, a.LowYield, a.AverageMedianYield,
		a.HighDiscountRate, a.LowDiscountRate, a.HighInvestmentRate, a.LowInvestmentRate,
		a.HighPrice, a.LowPrice, a.PricePer100, a.UpdatedTimestamp,
	).Scan(&id, &inserted)
	if err != nil {
		return 0, false, fmt.Errorf("upsert auction %s/%s: %w", a.CUSIP, a.AuctionDate.Format("2006-01-02"), err)
	}
	return id, inserted, nil
}

// UpsertBidderDetail inserts or overwrites the 1:1 bidder breakdown for an
// auction. An existing row is overwritten, never cleared: callers skip this
// call entirely when total_accepted is absent or zero.
func (r *auctionsRepository) UpsertBidderDetail(ctx context.Context, q Queryer, b models.BidderDetail) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO bidder_details (
			auction_id,
			primary_dealer_accepted, primary_dealer_percentage,
			direct_bidder_accepted, direct_bidder_percentage,
			indirect_bidder_accepted, indirect_bidder_percentage,
			fima_accepted, fima_percentage,
			soma_accepted, soma_percentage,
			competitive_accepted, noncompetitive_accepted, treasury_retail_accepted
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14)
		ON CONFLICT (auction_id) DO UPDATE SET
			primary_dealer_accepted    = EXCLUDED.primary_dealer_accepted,
			primary_dealer_percentage  = EXCLUDED.primary_dealer_percentage,
			direct_bidder_accepted     = EXCLUDED.direct_bidder_accepted,
			direct_bidder_percentage   = EXCLUDED.direct_bidder_percentage,
			indirect_bidder_accepted   = EXCLUDED.indirect_bidder_accepted,
			indirect_bidder_percentage = EXCLUDED.indirect_bidder_percentage,
			fima_accepted              = EXCLUDED.fima_accepted,
			fima_percentage            = EXCLUDED.fima_percentage,
			soma_accepted              = EXCLUDED.soma_accepted,
			soma_percentage            = EXCLUDED.soma_percentage,
			competitive_accepted       = EXCLUDED.competitive_accepted,
			noncompetitive_accepted    = EXCLUDED.noncompetitive_accepted,
			treasury_retail_accepted   = EXCLUDED.treasury_retail_accepted,
			updated_at                 = NOW()
	`,
		b.AuctionID,
		b.PrimaryDealerAccepted, b.PrimaryDealerPercentage,
		b.DirectBidderAccepted, b.DirectBidderPercentage,
		b.IndirectBidderAccepted, b.IndirectBidderPercentage,
		b.FIMAAccepted, b.FIMAPercentage,
		b.SOMAAccepted, b.SOMAPercentage,
		b.CompetitiveAccepted, b.NoncompetitiveAccepted, b.TreasuryRetailAccepted,
	)
	if err != nil {
		return fmt.Errorf("upsert bidder detail for auction %d: %w", b.AuctionID, err)
	}
	return nil
}

// CreateDataUpdate opens a new audit row in RUNNING state and returns its id.
func (r *auctionsRepository) CreateDataUpdate(ctx context.Context, runType string) (int64, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO data_updates (run_type, status) VALUES ($1, $2) RETURNING update_id
	`, runType, models.RunStatusRunning).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("create data update: %w", err)
	}
	return id, nil
}

// FinalizeDataUpdate writes the terminal state of a run onto its audit row.
func (r *auctionsRepository) FinalizeDataUpdate(ctx context.Context, u models.DataUpdate) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE data_updates SET
			records_fetched   = $2,
			records_inserted  = $3,
			records_updated   = $4,
			last_auction_date = $5,
			status            = $6,
			error_message     = $7
		WHERE update_id = $1
	`, u.UpdateID, u.RecordsFetched, u.RecordsInserted, u.RecordsUpdated, u.LastAuctionDate, u.Status, u.ErrorMessage)
	if err != nil {
		return fmt.Errorf("finalize data update %d: %w", u.UpdateID, err)
	}
	return nil
}

// RecentDataUpdates lists the newest audit rows first.
func (r *auctionsRepository) RecentDataUpdates(ctx context.Context, limit int) ([]models.DataUpdate, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT update_id, update_timestamp, records_fetched, records_inserted, records_updated,
		       last_auction_date, run_type, status, error_message
		FROM data_updates
		ORDER BY update_id DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list data updates: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.DataUpdate
	for rows.Next() {
		var u models.DataUpdate
		var runType, status sql.NullString
		if err := rows.Scan(
			&u.UpdateID, &u.UpdateTimestamp, &u.RecordsFetched, &u.RecordsInserted, &u.RecordsUpdated,
			&u.LastAuctionDate, &runType, &status, &u.ErrorMessage,
		); err != nil {
			return nil, fmt.Errorf("scan data update: %w", err)
		}
		u.RunType = runType.String
		u.Status = status.String
		out = append(out, u)
	}
	return out, rows.Err()
}

// CountAuctions returns the total number of stored auctions.
func (r *auctionsRepository) CountAuctions(ctx context.Context) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM auctions`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count auctions: %w", err)
	}
	return n, nil
}

// LatestAuctionDate returns the most recent auction date across all rows,
// absent when the table is empty.
func (r *auctionsRepository) LatestAuctionDate(ctx context.Context) (sql.NullTime, error) {
	var d sql.NullTime
	if err := r.db.QueryRowContext(ctx, `SELECT MAX(auction_date) FROM auctions`).Scan(&d); err != nil {
		return sql.NullTime{}, fmt.Errorf("latest auction date: %w", err)
	}
	return d, nil
}

// ListAuctions returns auctions matching the filter, newest first.
func (r *auctionsRepository) ListAuctions(ctx context.Context, f AuctionFilter) ([]models.Auction, error) {
	// Build dynamic conditions; placeholder indexes depend on which filters
	// are provided.
	conditions := "1=1"
	var args []any
	if f.CUSIP != "" {
		args = append(args, f.CUSIP)
		conditions += fmt.Sprintf(" AND a.cusip = $%d", len(args))
	}
	if f.SecurityType != "" {
		args = append(args, f.SecurityType)
		conditions += fmt.Sprintf(" AND s.security_type = $%d", len(args))
	}
	if f.From != nil {
		args = append(args, *f.From)
		conditions += fmt.Sprintf(" AND a.auction_date >= $%d", len(args))
	}
	if f.To != nil {
		args = append(args, *f.To)
		conditions += fmt.Sprintf(" AND a.auction_date <= $%d", len(args))
	}
	limit := f.Limit
	if limit <= 0 || limit > 1000 {
		limit = 100
	}
	args = append(args, limit)

	query := fmt.Sprintf(`
		SELECT a.auction_id, a.cusip, a.auction_date, a.auction_date_year,
		       a.announcement_date, a.issue_date, a.maturity_date, a.maturing_date, a.dated_date,
		       a.auction_format, a.closing_time_competitive, a.closing_time_noncompetitive,
		       a.offering_amount, a.allocation_percentage,
		       a.total_tendered, a.total_accepted, a.bid_to_cover_ratio,
		       a.interest_rate, a.high_yield, a.low_yield, a.average_median_yield,
		       a.high_discount_rate, a.low_discount_rate, a.high_investment_rate, a.low_investment_rate,
		       a.high_price, a.low_price, a.price_per_100, a.updated_timestamp
		FROM auctions a
		JOIN securities s ON a.cusip = s.cusip
		WHERE %s
		ORDER BY a.auction_date DESC, a.auction_id DESC
		LIMIT $%d
	`, conditions, len(args))

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list auctions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.Auction
	for rows.Next() {
		var a models.Auction
		if err := rows.Scan(
			&a.AuctionID, &a.CUSIP, &a.AuctionDate, &a.AuctionDateYear,
			&a.AnnouncementDate, &a.IssueDate, &a.MaturityDate, &a.MaturingDate, &a.DatedDate,
			&a.AuctionFormat, &a.ClosingTimeCompetitive, &a.ClosingTimeNoncompetitive,
			&a.OfferingAmount, &a.AllocationPercentage,
			&a.TotalTendered, &a.TotalAccepted, &a.BidToCoverRatio,
			&a.InterestRate, &a.HighYield, &a.LowYield, &a.AverageMedianYield,
			&a.HighDiscountRate, &a.LowDiscountRate, &a.HighInvestmentRate, &a.LowInvestmentRate,
			&a.HighPrice, &a.LowPrice, &a.PricePer100, &a.UpdatedTimestamp,
		); err != nil {
			return nil, fmt.Errorf("scan auction: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// AuctionMetrics returns the joined analytics source rows, ordered by date.
// Rows without a bid-to-cover ratio are excluded at the source; derived
// statistics are all anchored on that column.
func (r *auctionsRepository) AuctionMetrics(ctx context.Context, f MetricsFilter) ([]models.AuctionMetric, error) {
	termColumn := "s.security_term"
	if f.UseStandardizedTerm {
		termColumn = "s.standardized_term"
	}

	conditions := "a.bid_to_cover_ratio IS NOT NULL"
	var args []any
	if f.SecurityType != "" {
		args = append(args, f.SecurityType)
		conditions += fmt.Sprintf(" AND s.security_type = $%d", len(args))
	}

	query := fmt.Sprintf(`
		SELECT a.auction_date, a.cusip, s.security_type, COALESCE(%s, ''),
		       a.bid_to_cover_ratio, a.high_yield, a.offering_amount,
		       bd.primary_dealer_percentage, bd.direct_bidder_percentage, bd.indirect_bidder_percentage
		FROM auctions a
		JOIN securities s ON a.cusip = s.cusip
		LEFT JOIN bidder_details bd ON a.auction_id = bd.auction_id
		WHERE %s
		ORDER BY a.auction_date
	`, termColumn, conditions)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("auction metrics: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.AuctionMetric
	for rows.Next() {
		var m models.AuctionMetric
		if err := rows.Scan(
			&m.AuctionDate, &m.CUSIP, &m.SecurityType, &m.Term,
			&m.BidToCover, &m.HighYield, &m.OfferingAmount,
			&m.PrimaryDealerPct, &m.DirectBidderPct, &m.IndirectPct,
		); err != nil {
			return nil, fmt.Errorf("scan auction metric: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// WeeklyStressRows aggregates auctions into calendar weeks (Monday start)
// over the trailing lookback window. Z-scoring happens in the analytics
// layer; the database only produces the weekly means and deviations.
func (r *auctionsRepository) WeeklyStressRows(ctx context.Context, lookbackDays int) ([]models.StressWeekRow, error) {
	if lookbackDays <= 0 {
		lookbackDays = 730
	}
	rows, err := r.db.QueryContext(ctx, `
		SELECT DATE_TRUNC('week', auction_date)::date AS week,
		       COUNT(*) AS auction_count,
		       AVG(bid_to_cover_ratio) AS avg_btc,
		       STDDEV(bid_to_cover_ratio) AS std_btc,
		       AVG(high_yield) AS avg_yield
		FROM auctions
		WHERE auction_date >= CURRENT_DATE - ($1 * INTERVAL '1 day')
		GROUP BY DATE_TRUNC('week', auction_date)
		ORDER BY week
	`, lookbackDays)
	if err != nil {
		return nil, fmt.Errorf("weekly stress rows: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []models.StressWeekRow
	for rows.Next() {
		var w models.StressWeekRow
		if err := rows.Scan(&w.Week, &w.AuctionCount, &w.AvgBidToCover, &w.StdBidToCover, &w.AvgHighYield); err != nil {
			return nil, fmt.Errorf("scan stress row: %w", err)
		}
		out = append(out, w)
	}
	return out, rows.Err()
}
