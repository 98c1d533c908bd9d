package storage

import (
	"context"
	"database/sql"
	"fmt"
)

// schemaStatements bootstraps the relational schema. Statements are idempotent
// (IF NOT EXISTS) so every process can run them at startup; there is no
// separate migration step.
var schemaStatements = []string{
	`CREATE TABLE IF NOT EXISTS securities (
		cusip                  VARCHAR(9) PRIMARY KEY,
		security_type          VARCHAR(20) NOT NULL,
		security_term          VARCHAR(20),
		original_security_term VARCHAR(20),
		standardized_term      VARCHAR(20),
		series                 VARCHAR(100),
		corpus_cusip           VARCHAR(9),
		tips                   BOOLEAN DEFAULT FALSE,
		floating_rate          BOOLEAN DEFAULT FALSE,
		callable               BOOLEAN DEFAULT FALSE,
		call_date              DATE,
		interest_rate          NUMERIC(10, 6),
		created_at             TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at             TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_security_type ON securities (security_type)`,
	`CREATE INDEX IF NOT EXISTS idx_standardized_term ON securities (standardized_term)`,

	`CREATE TABLE IF NOT EXISTS auctions (
		auction_id                  BIGSERIAL PRIMARY KEY,
		cusip                       VARCHAR(9) NOT NULL REFERENCES securities (cusip),
		auction_date                DATE NOT NULL,
		auction_date_year           VARCHAR(4),
		announcement_date           DATE,
		issue_date                  DATE,
		maturity_date               DATE,
		maturing_date               DATE,
		dated_date                  DATE,
		auction_format              VARCHAR(30),
		closing_time_competitive    VARCHAR(10),
		closing_time_noncompetitive VARCHAR(10),
		offering_amount             NUMERIC(20, 2),
		allocation_percentage       NUMERIC(5, 2),
		total_tendered              NUMERIC(20, 2),
		total_accepted              NUMERIC(20, 2),
		bid_to_cover_ratio          NUMERIC(10, 4),
		interest_rate               NUMERIC(10, 6),
		high_yield                  NUMERIC(10, 4),
		low_yield                   NUMERIC(10, 4),
		average_median_yield        NUMERIC(10, 4),
		high_discount_rate          NUMERIC(10, 4),
		low_discount_rate           NUMERIC(10, 4),
		high_investment_rate        NUMERIC(10, 4),
		low_investment_rate         NUMERIC(10, 4),
		high_price                  NUMERIC(10, 4),
		low_price                   NUMERIC(10, 4),
		price_per_100               NUMERIC(10, 4),
		updated_timestamp           TIMESTAMP,
		created_at                  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at                  TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		CONSTRAINT unique_auction UNIQUE (cusip, auction_date)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_auction_date ON auctions (auction_date)`,
	`CREATE INDEX IF NOT EXISTS idx_cusip_date ON auctions (cusip, auction_date)`,

	`CREATE TABLE IF NOT EXISTS bidder_details (
		detail_id                BIGSERIAL PRIMARY KEY,
		auction_id               BIGINT NOT NULL UNIQUE REFERENCES auctions (auction_id) ON DELETE CASCADE,
		primary_dealer_accepted    NUMERIC(20, 2),
		primary_dealer_percentage  NUMERIC(5, 2),
		direct_bidder_accepted     NUMERIC(20, 2),
		direct_bidder_percentage   NUMERIC(5, 2),
		indirect_bidder_accepted   NUMERIC(20, 2),
		indirect_bidder_percentage NUMERIC(5, 2),
		fima_accepted              NUMERIC(20, 2),
		fima_percentage            NUMERIC(5, 2),
		soma_accepted              NUMERIC(20, 2),
		soma_percentage            NUMERIC(5, 2),
		competitive_accepted       NUMERIC(20, 2),
		noncompetitive_accepted    NUMERIC(20, 2),
		treasury_retail_accepted   NUMERIC(20, 2),
		created_at                 TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at                 TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,

	`CREATE TABLE IF NOT EXISTS data_updates (
		update_id        BIGSERIAL PRIMARY KEY,
		update_timestamp TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		records_fetched  INTEGER,
		records_inserted INTEGER,
		records_updated  INTEGER,
		last_auction_date DATE,
		run_type         VARCHAR(20),
		status           VARCHAR(20),
		error_message    TEXT
	)`,

	`CREATE TABLE IF NOT EXISTS fiscal_articles (
		article_id        VARCHAR(20) PRIMARY KEY,
		date              DATE NOT NULL,
		is_fiscal_article BOOLEAN DEFAULT FALSE,
		has_tariff        BOOLEAN DEFAULT FALSE,
		created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_article_date ON fiscal_articles (date)`,
	`CREATE INDEX IF NOT EXISTS idx_fiscal_flag ON fiscal_articles (is_fiscal_article)`,

	`CREATE TABLE IF NOT EXISTS fiscal_policy_indices (
		index_id                   BIGSERIAL PRIMARY KEY,
		date                       DATE NOT NULL UNIQUE,
		total_articles             INTEGER,
		fiscal_articles            INTEGER,
		tariff_fiscal_articles     INTEGER,
		non_tariff_fiscal_articles INTEGER,
		rate                       NUMERIC(10, 6),
		tariff_rate                NUMERIC(10, 6),
		non_tariff_rate            NUMERIC(10, 6),
		fiscal_policy_index        NUMERIC(10, 4),
		tariff_fiscal_index        NUMERIC(10, 4),
		non_tariff_fiscal_index    NUMERIC(10, 4),
		created_at                 TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at                 TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_policy_date ON fiscal_policy_indices (date)`,

	`CREATE TABLE IF NOT EXISTS top_phrases (
		phrase_id  BIGSERIAL PRIMARY KEY,
		phrase     VARCHAR(100) NOT NULL UNIQUE,
		count      INTEGER NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_phrase_count ON top_phrases (count)`,
}

// EnsureSchema creates all tables and indexes if they do not exist yet.
func (r *auctionsRepository) EnsureSchema(ctx context.Context) error {
	for i, stmt := range schemaStatements {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("schema statement %d: %w", i+1, err)
		}
	}
	return nil
}

// Queryer is the subset of *sql.DB and *sql.Tx used by row-level operations,
// so upserts can run either standalone or inside a pipeline transaction.
type Queryer interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}
