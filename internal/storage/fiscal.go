package storage

import (
	"context"
	"fmt"

	"github.com/lib/pq"

	"github.com/guttosm/treasurypulse/internal/domain/models"
)

// BulkUpsertFiscalArticles loads classified articles through a temp table with
// COPY, then merges into fiscal_articles in one statement. Returns how many
// rows were newly inserted vs overwritten.
func (r *auctionsRepository) BulkUpsertFiscalArticles(ctx context.Context, articles []models.FiscalArticle) (int, int, error) {
	if len(articles) == 0 {
		return 0, 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, 0, fmt.Errorf("begin article batch: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		CREATE TEMP TABLE tmp_fiscal_articles (
			article_id        VARCHAR(20),
			date              DATE,
			is_fiscal_article BOOLEAN,
			has_tariff        BOOLEAN
		) ON COMMIT DROP
	`)
	if err != nil {
		return 0, 0, fmt.Errorf("create temp table: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, pq.CopyIn("tmp_fiscal_articles", "article_id", "date", "is_fiscal_article", "has_tariff"))
	if err != nil {
		return 0, 0, fmt.Errorf("prepare copy: %w", err)
	}
	for _, a := range articles {
		if _, err := stmt.ExecContext(ctx, a.ArticleID, a.Date, a.IsFiscalArticle, a.HasTariff); err != nil {
			_ = stmt.Close()
			return 0, 0, fmt.Errorf("copy article %s: %w", a.ArticleID, err)
		}
	}
	// The final Exec with no arguments flushes the COPY buffer.
	if _, err := stmt.ExecContext(ctx); err != nil {
		_ = stmt.Close()
		return 0, 0, fmt.Errorf("flush copy: %w", err)
	}
	if err := stmt.Close(); err != nil {
		return 0, 0, fmt.Errorf("close copy: %w", err)
	}

	rows, err := tx.QueryContext(ctx, `
		INSERT INTO fiscal_articles (article_id, date, is_fiscal_article, has_tariff)
		SELECT DISTINCT ON (article_id) article_id, date, is_fiscal_article, has_tariff
		FROM tmp_fiscal_articles
		ON CONFLICT (article_id) DO UPDATE SET
			date              = EXCLUDED.date,
			is_fiscal_article = EXCLUDED.is_fiscal_article,
			has_tariff        = EXCLUDED.has_tariff,
			updated_at        = NOW()
		RETURNING (xmax = 0) AS inserted
	`)
	if err != nil {
		return 0, 0, fmt.Errorf("merge articles: %w", err)
	}
	var inserted, updated int
	for rows.Next() {
		var fresh bool
		if err := rows.Scan(&fresh); err != nil {
			_ = rows.Close()
			return 0, 0, fmt.Errorf("scan merge result: %w", err)
		}
		if fresh {
			inserted++
		} else {
			updated++
		}
	}
	if err := rows.Err(); err != nil {
		_ = rows.Close()
		return 0, 0, fmt.Errorf("merge articles: %w", err)
	}
	_ = rows.Close()

	if err := tx.Commit(); err != nil {
		return 0, 0, fmt.Errorf("commit article batch: %w", err)
	}
	return inserted, updated, nil
}

// UpsertFiscalPolicyIndex inserts or overwrites the daily index row for a date.
func (r *auctionsRepository) UpsertFiscalPolicyIndex(ctx context.Context, idx models.FiscalPolicyIndex) (bool, error) {
	var inserted bool
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO fiscal_policy_indices (
			date, total_articles, fiscal_articles, tariff_fiscal_articles, non_tariff_fiscal_articles,
			rate, tariff_rate, non_tariff_rate,
			fiscal_policy_index, tariff_fiscal_index, non_tariff_fiscal_index
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		ON CONFLICT (date) DO UPDATE SET
			total_articles             = EXCLUDED.total_articles,
			fiscal_articles            = EXCLUDED.fiscal_articles,
			tariff_fiscal_articles     = EXCLUDED.tariff_fiscal_articles,
			non_tariff_fiscal_articles = EXCLUDED.non_tariff_fiscal_articles,
			rate                       = EXCLUDED.rate,
			tariff_rate                = EXCLUDED.tariff_rate,
			non_tariff_rate            = EXCLUDED.non_tariff_rate,
			fiscal_policy_index        = EXCLUDED.fiscal_policy_index,
			tariff_fiscal_index        = EXCLUDED.tariff_fiscal_index,
			non_tariff_fiscal_index    = EXCLUDED.non_tariff_fiscal_index,
			updated_at                 = NOW()
		RETURNING (xmax = 0) AS inserted
	`,
		idx.Date, idx.TotalArticles, idx.FiscalArticles, idx.TariffFiscalArticles, idx.NonTariffFiscalArticles,
		idx.Rate, idx.TariffRate, idx.NonTariffRate,
		idx.FiscalPolicyIndex, idx.TariffFiscalIndex, idx.NonTariffIndex,
	).Scan(&inserted)
	if err != nil {
		return false, fmt.Errorf("upsert policy index %s: %w", idx.Date.Format("2006-01-02"), err)
	}
	return inserted, nil
}

// UpsertTopPhrase inserts or refreshes the count for a phrase.
func (r *auctionsRepository) UpsertTopPhrase(ctx context.Context, p models.TopPhrase) (bool, error) {
	var inserted bool
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO top_phrases (phrase, count) VALUES ($1, $2)
		ON CONFLICT (phrase) DO UPDATE SET
			count      = EXCLUDED.count,
			updated_at = NOW()
		RETURNING (xmax = 0) AS inserted
	`, p.Phrase, p.Count).Scan(&inserted)
	if err != nil {
		return false, fmt.Errorf("upsert phrase %q: %w", p.Phrase, err)
	}
	return inserted, nil
}
