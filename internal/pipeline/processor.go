// Package pipeline implements the fetch → coerce → upsert ingestion flow and
// its run orchestration against the data_updates audit log.
package pipeline

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/guttosm/treasurypulse/internal/coerce"
	"github.com/guttosm/treasurypulse/internal/domain/models"
	"github.com/guttosm/treasurypulse/internal/fetcher"
	"github.com/guttosm/treasurypulse/internal/logger"
	"github.com/guttosm/treasurypulse/internal/storage"
)

// defaultBatchSize bounds how many records share one transaction so a long
// backfill commits progress periodically.
const defaultBatchSize = 500

// Stats summarizes one processing pass over a record batch.
type Stats struct {
	Inserted int
	Updated  int
	Errors   int
	Skipped  int
}

// Processor coerces raw API records and merges them into the store.
type Processor struct {
	repo      storage.AuctionsRepository
	batchSize int
}

// NewProcessor builds a Processor over the given repository.
func NewProcessor(repo storage.AuctionsRepository) *Processor {
	return &Processor{repo: repo, batchSize: defaultBatchSize}
}

// Process merges records into the store in sub-batches of batchSize, each in
// its own transaction. Per-record failures roll back to a savepoint and are
// counted, never aborting the batch; a commit-level failure rolls back the
// current sub-batch and is returned to the caller.
func (p *Processor) Process(ctx context.Context, records []fetcher.Record) (Stats, error) {
	var stats Stats

	for start := 0; start < len(records); start += p.batchSize {
		end := start + p.batchSize
		if end > len(records) {
			end = len(records)
		}
		if err := p.processBatch(ctx, records[start:end], &stats); err != nil {
			return stats, err
		}
		logger.L().Info().
			Int("processed", end).
			Int("inserted", stats.Inserted).
			Int("updated", stats.Updated).
			Int("errors", stats.Errors).
			Msg("pipeline batch committed")
	}

	if stats.Skipped > 0 {
		logger.L().Warn().Int("skipped", stats.Skipped).Msg("records without auction date skipped")
	}
	return stats, nil
}

func (p *Processor) processBatch(ctx context.Context, records []fetcher.Record, stats *Stats) error {
	tx, err := p.repo.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin batch: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, rec := range records {
		// Savepoint per record so one bad record cannot poison the
		// transaction for the rest of the batch.
		if _, err := tx.ExecContext(ctx, "SAVEPOINT rec"); err != nil {
			return fmt.Errorf("savepoint: %w", err)
		}
		inserted, err := p.processRecord(ctx, tx, rec)
		if err != nil {
			stats.Errors++
			logger.L().Error().Err(err).Msg("record processing failed")
			if _, err := tx.ExecContext(ctx, "ROLLBACK TO SAVEPOINT rec"); err != nil {
				return fmt.Errorf("rollback to savepoint: %w", err)
			}
			continue
		}
		if _, err := tx.ExecContext(ctx, "RELEASE SAVEPOINT rec"); err != nil {
			return fmt.Errorf("release savepoint: %w", err)
		}
		switch inserted {
		case recordInserted:
			stats.Inserted++
		case recordUpdated:
			stats.Updated++
		case recordSkipped:
			stats.Skipped++
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit batch: %w", err)
	}
	return nil
}

type recordOutcome int

const (
	recordSkipped recordOutcome = iota
	recordInserted
	recordUpdated
)

// processRecord merges one raw record: security upsert always, then the
// auction by natural key, then the bidder breakdown when total_accepted is
// positive. A record without a parseable auction date contributes only its
// security row.
func (p *Processor) processRecord(ctx context.Context, tx *sql.Tx, rec fetcher.Record) (recordOutcome, error) {
	cusip := coerce.String(rec["cusip"])
	if !cusip.Valid {
		return recordSkipped, fmt.Errorf("record without cusip")
	}

	if err := p.repo.UpsertSecurity(ctx, tx, buildSecurity(cusip.String, rec)); err != nil {
		return recordSkipped, err
	}

	auctionDate := coerce.Date(rec["auctionDate"])
	if !auctionDate.Valid {
		return recordSkipped, nil
	}

	auction := buildAuction(cusip.String, auctionDate.Time, rec)
	auctionID, inserted, err := p.repo.UpsertAuction(ctx, tx, auction)
	if err != nil {
		return recordSkipped, err
	}

	totalAccepted := coerce.Decimal(rec["totalAccepted"])
	if totalAccepted.Valid && totalAccepted.Decimal.IsPositive() {
		detail := buildBidderDetail(auctionID, totalAccepted.Decimal, rec)
		if err := p.repo.UpsertBidderDetail(ctx, tx, detail); err != nil {
			return recordSkipped, err
		}
	}

	if inserted {
		return recordInserted, nil
	}
	return recordUpdated, nil
}

func buildSecurity(cusip string, rec fetcher.Record) models.Security {
	term := coerce.String(rec["securityTerm"])
	s := models.Security{
		CUSIP:                cusip,
		SecurityType:         coerce.String(rec["securityType"]).String,
		SecurityTerm:         term,
		OriginalSecurityTerm: coerce.String(rec["originalSecurityTerm"]),
		Series:               coerce.String(rec["series"]),
		CorpusCUSIP:          coerce.String(rec["corpusCusip"]),
		TIPS:                 coerce.Bool(rec["tips"]),
		FloatingRate:         coerce.Bool(rec["floatingRate"]),
		Callable:             coerce.Bool(rec["callable"]),
		CallDate:             coerce.Date(rec["callDate"]),
		InterestRate:         coerce.Decimal(rec["interestRate"]),
	}
	if term.Valid {
		if std := StandardizeTerm(term.String); std != "" {
			s.StandardizedTerm = sql.NullString{String: std, Valid: true}
		}
	}
	return s
}

func buildAuction(cusip string, date time.Time, rec fetcher.Record) models.Auction {
	return models.Auction{
		CUSIP:       cusip,
		AuctionDate: date,

		AuctionDateYear:  coerce.String(rec["auctionDateYear"]),
		AnnouncementDate: coerce.Date(rec["announcementDate"]),
		IssueDate:        coerce.Date(rec["issueDate"]),
		MaturityDate:     coerce.Date(rec["maturityDate"]),
		MaturingDate:     coerce.Date(rec["maturingDate"]),
		DatedDate:        coerce.Date(rec["datedDate"]),

		AuctionFormat:             coerce.String(rec["auctionFormat"]),
		ClosingTimeCompetitive:    coerce.String(rec["closingTimeCompetitive"]),
		ClosingTimeNoncompetitive: coerce.String(rec["closingTimeNoncompetitive"]),
		OfferingAmount:            coerce.Decimal(rec["offeringAmount"]),
		AllocationPercentage:      coerce.Decimal(rec["allocationPercentage"]),

		TotalTendered:   coerce.Decimal(rec["totalTendered"]),
		TotalAccepted:   coerce.Decimal(rec["totalAccepted"]),
		BidToCoverRatio: coerce.Decimal(rec["bidToCoverRatio"]),

		InterestRate:       coerce.Decimal(rec["interestRate"]),
		HighYield:          coerce.Decimal(rec["highYield"]),
		LowYield:           coerce.Decimal(rec["lowYield"]),
		AverageMedianYield: coerce.Decimal(rec["averageMedianYield"]),
		HighDiscountRate:   coerce.Decimal(rec["highDiscountRate"]),
		LowDiscountRate:    coerce.Decimal(rec["lowDiscountRate"]),
		HighInvestmentRate: coerce.Decimal(rec["highInvestmentRate"]),
		LowInvestmentRate:  coerce.Decimal(rec["lowInvestmentRate"]),

		HighPrice:   coerce.Decimal(rec["highPrice"]),
		LowPrice:    coerce.Decimal(rec["lowPrice"]),
		PricePer100: coerce.Decimal(rec["pricePer100"]),

		UpdatedTimestamp: coerce.DateTime(rec["updatedTimestamp"]),
	}
}

func buildBidderDetail(auctionID int64, total decimal.Decimal, rec fetcher.Record) models.BidderDetail {
	primary := coerce.Decimal(rec["primaryDealerAccepted"])
	direct := coerce.Decimal(rec["directBidderAccepted"])
	indirect := coerce.Decimal(rec["indirectBidderAccepted"])
	fima := coerce.Decimal(rec["fimaNoncompetitiveAccepted"])
	soma := coerce.Decimal(rec["somaAccepted"])

	return models.BidderDetail{
		AuctionID: auctionID,

		PrimaryDealerAccepted:    primary,
		PrimaryDealerPercentage:  percentage(primary, total),
		DirectBidderAccepted:     direct,
		DirectBidderPercentage:   percentage(direct, total),
		IndirectBidderAccepted:   indirect,
		IndirectBidderPercentage: percentage(indirect, total),
		FIMAAccepted:             fima,
		FIMAPercentage:           percentage(fima, total),
		SOMAAccepted:             soma,
		SOMAPercentage:           percentage(soma, total),

		CompetitiveAccepted:    coerce.Decimal(rec["competitiveAccepted"]),
		NoncompetitiveAccepted: coerce.Decimal(rec["noncompetitiveAccepted"]),
		TreasuryRetailAccepted: coerce.Decimal(rec["treasuryRetailAccepted"]),
	}
}

// percentage derives accepted/total*100 rounded to two decimals, absent when
// the accepted amount itself is absent. Callers guarantee total > 0.
func percentage(accepted decimal.NullDecimal, total decimal.Decimal) decimal.NullDecimal {
	if !accepted.Valid {
		return decimal.NullDecimal{}
	}
	pct := accepted.Decimal.Div(total).Mul(decimal.NewFromInt(100)).Round(2)
	return decimal.NullDecimal{Decimal: pct, Valid: true}
}
