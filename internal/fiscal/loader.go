// Package fiscal loads the news-derived fiscal-policy dataset from batch CSV
// exports: per-article classifications, daily index scores and top phrases.
// This dataset is independent of the auction pipeline and only consumed by
// the analytics surface.
package fiscal

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/guttosm/treasurypulse/internal/coerce"
	"github.com/guttosm/treasurypulse/internal/domain/models"
	"github.com/guttosm/treasurypulse/internal/logger"
	"github.com/guttosm/treasurypulse/internal/storage"
)

// Default file names inside the CSV directory.
const (
	articlesFile = "wsj_articles.csv"
	scoresFile   = "wsj_articles_scores.csv"
	phrasesFile  = "top_phrases.csv"
)

// Result counts what one full load did per file.
type Result struct {
	ArticlesInserted int `json:"articles_inserted"`
	ArticlesUpdated  int `json:"articles_updated"`
	ArticlesSkipped  int `json:"articles_skipped"`

	IndicesInserted int `json:"indices_inserted"`
	IndicesUpdated  int `json:"indices_updated"`
	IndicesSkipped  int `json:"indices_skipped"`

	PhrasesInserted int `json:"phrases_inserted"`
	PhrasesUpdated  int `json:"phrases_updated"`
}

// Loader reads the CSV exports and upserts them through the repository.
type Loader struct {
	repo storage.AuctionsRepository
	dir  string
}

// NewLoader builds a Loader reading from dir.
func NewLoader(repo storage.AuctionsRepository, dir string) *Loader {
	return &Loader{repo: repo, dir: dir}
}

// Run loads all three files. Articles and phrases load concurrently; the
// daily indices load after the articles because their rows carry no date
// column and are matched chronologically against the articles' distinct
// dates.
func (l *Loader) Run(ctx context.Context) (Result, error) {
	var (
		result Result
		dates  []time.Time
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		dates, err = l.loadArticles(gctx, &result)
		if err != nil {
			return err
		}
		return l.loadIndices(gctx, dates, &result)
	})
	g.Go(func() error {
		return l.loadPhrases(gctx, &result)
	})
	if err := g.Wait(); err != nil {
		return result, err
	}

	logger.L().Info().
		Int("articles", result.ArticlesInserted+result.ArticlesUpdated).
		Int("indices", result.IndicesInserted+result.IndicesUpdated).
		Int("phrases", result.PhrasesInserted+result.PhrasesUpdated).
		Msg("fiscal load completed")
	return result, nil
}

// loadArticles bulk-upserts the per-article rows and returns the sorted
// distinct dates seen, which key the scores file.
func (l *Loader) loadArticles(ctx context.Context, result *Result) ([]time.Time, error) {
	rows, err := readCSV(filepath.Join(l.dir, articlesFile))
	if err != nil {
		return nil, err
	}

	var articles []models.FiscalArticle
	seen := map[time.Time]bool{}
	for _, row := range rows {
		date := coerce.Date(row["date"])
		if !date.Valid {
			result.ArticlesSkipped++
			continue
		}
		articles = append(articles, models.FiscalArticle{
			ArticleID:       strings.TrimSpace(row["article_id"]),
			Date:            date.Time,
			IsFiscalArticle: coerce.Bool(row["is_fiscal_article"]),
			HasTariff:       coerce.Bool(row["has_tariff"]),
		})
		seen[date.Time] = true
	}

	inserted, updated, err := l.repo.BulkUpsertFiscalArticles(ctx, articles)
	if err != nil {
		return nil, fmt.Errorf("load articles: %w", err)
	}
	result.ArticlesInserted = inserted
	result.ArticlesUpdated = updated
	if result.ArticlesSkipped > 0 {
		logger.L().Warn().Int("skipped", result.ArticlesSkipped).Msg("articles with invalid dates skipped")
	}

	dates := make([]time.Time, 0, len(seen))
	for d := range seen {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })
	return dates, nil
}

// loadIndices upserts the daily score rows. The scores file has no date
// column; row N belongs to the Nth distinct article date in chronological
// order. Surplus rows are skipped and counted.
func (l *Loader) loadIndices(ctx context.Context, dates []time.Time, result *Result) error {
	rows, err := readCSV(filepath.Join(l.dir, scoresFile))
	if err != nil {
		return err
	}
	if len(rows) != len(dates) {
		logger.L().Warn().Int("dates", len(dates)).Int("rows", len(rows)).Msg("score rows and article dates differ, matching chronologically")
	}

	for i, row := range rows {
		if i >= len(dates) {
			result.IndicesSkipped++
			continue
		}
		idx := models.FiscalPolicyIndex{
			Date:                    dates[i],
			TotalArticles:           intField(row, "total_articles"),
			FiscalArticles:          intField(row, "fiscal_articles"),
			TariffFiscalArticles:    intField(row, "tariff_fiscal_articles"),
			NonTariffFiscalArticles: intField(row, "non_tariff_fiscal_articles"),
			Rate:                    coerce.Decimal(row["rate"]),
			TariffRate:              coerce.Decimal(row["tariff_rate"]),
			NonTariffRate:           coerce.Decimal(row["non_tariff_rate"]),
			FiscalPolicyIndex:       coerce.Decimal(row["fiscal_policy_index"]),
			TariffFiscalIndex:       coerce.Decimal(row["tariff_fiscal_index"]),
			NonTariffIndex:          coerce.Decimal(row["non_tariff_fiscal_index"]),
		}
		inserted, err := l.repo.UpsertFiscalPolicyIndex(ctx, idx)
		if err != nil {
			return fmt.Errorf("load indices: %w", err)
		}
		if inserted {
			result.IndicesInserted++
		} else {
			result.IndicesUpdated++
		}
	}
	return nil
}

func (l *Loader) loadPhrases(ctx context.Context, result *Result) error {
	rows, err := readCSV(filepath.Join(l.dir, phrasesFile))
	if err != nil {
		return err
	}
	for _, row := range rows {
		phrase := strings.TrimSpace(row["phrase"])
		if phrase == "" {
			continue
		}
		inserted, err := l.repo.UpsertTopPhrase(ctx, models.TopPhrase{
			Phrase: phrase,
			Count:  intField(row, "count"),
		})
		if err != nil {
			return fmt.Errorf("load phrases: %w", err)
		}
		if inserted {
			result.PhrasesInserted++
		} else {
			result.PhrasesUpdated++
		}
	}
	return nil
}

// readCSV loads a whole file as header-keyed row maps.
func readCSV(path string) ([]map[string]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", filepath.Base(path), err)
	}
	defer func() { _ = file.Close() }()

	r := csv.NewReader(file)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if err != nil {
		return nil, fmt.Errorf("read %s header: %w", filepath.Base(path), err)
	}
	for i := range header {
		header[i] = strings.TrimSpace(header[i])
	}

	var rows []map[string]string
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", filepath.Base(path), err)
		}
		row := make(map[string]string, len(header))
		for i, col := range header {
			if i < len(record) {
				row[col] = record[i]
			}
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func intField(row map[string]string, col string) int {
	n, err := strconv.Atoi(strings.TrimSpace(row[col]))
	if err != nil {
		return 0
	}
	return n
}
