package pipeline

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/guttosm/treasurypulse/internal/domain/models"
	"github.com/guttosm/treasurypulse/internal/fetcher"
	"github.com/guttosm/treasurypulse/internal/logger"
	"github.com/guttosm/treasurypulse/internal/storage"
)

// Fetcher is the slice of the HTTP client the orchestrator needs; satisfied
// by *fetcher.Client and stubbed in tests.
type Fetcher interface {
	Fetch(ctx context.Context, maxRecords int) ([]fetcher.Record, error)
}

// Result is the structured outcome of one pipeline run. Run never returns an
// error: failures surface here and in the data_updates audit row.
type Result struct {
	Status   string `json:"status"`
	Fetched  int    `json:"fetched"`
	Inserted int    `json:"inserted"`
	Updated  int    `json:"updated"`
	Errors   int    `json:"errors"`
	Error    string `json:"error,omitempty"`
}

// Run statuses in Result.Status.
const (
	StatusSuccess = "success"
	StatusFailed  = "failed"
)

// Orchestrator sequences fetch → process → audit for one pipeline run.
type Orchestrator struct {
	repo       storage.AuctionsRepository
	fetcher    Fetcher
	processor  *Processor
	maxRecords int
}

// NewOrchestrator wires the pipeline stages together.
func NewOrchestrator(repo storage.AuctionsRepository, f Fetcher, maxRecords int) *Orchestrator {
	return &Orchestrator{
		repo:       repo,
		fetcher:    f,
		processor:  NewProcessor(repo),
		maxRecords: maxRecords,
	}
}

// Run executes one full pipeline pass. An audit row is opened in RUNNING
// before any work and finalized to SUCCESS or FAILED; the returned Result
// mirrors the audit row.
func (o *Orchestrator) Run(ctx context.Context, runType string) Result {
	logger.L().Info().Str("run_type", runType).Msg("pipeline run starting")

	updateID, err := o.repo.CreateDataUpdate(ctx, runType)
	if err != nil {
		logger.L().Error().Err(err).Msg("audit row creation failed")
		return Result{Status: StatusFailed, Error: fmt.Sprintf("create audit row: %v", err)}
	}

	records, err := o.fetcher.Fetch(ctx, o.maxRecords)
	if err != nil {
		return o.fail(ctx, updateID, len(records), fmt.Errorf("fetch: %w", err))
	}

	stats, err := o.processor.Process(ctx, records)
	if err != nil {
		return o.fail(ctx, updateID, len(records), fmt.Errorf("process: %w", err))
	}

	lastDate, err := o.repo.LatestAuctionDate(ctx)
	if err != nil {
		return o.fail(ctx, updateID, len(records), fmt.Errorf("latest auction date: %w", err))
	}

	update := models.DataUpdate{
		UpdateID:        updateID,
		RecordsFetched:  sql.NullInt64{Int64: int64(len(records)), Valid: true},
		RecordsInserted: sql.NullInt64{Int64: int64(stats.Inserted), Valid: true},
		RecordsUpdated:  sql.NullInt64{Int64: int64(stats.Updated), Valid: true},
		LastAuctionDate: lastDate,
		Status:          models.RunStatusSuccess,
	}
	if err := o.repo.FinalizeDataUpdate(ctx, update); err != nil {
		logger.L().Error().Err(err).Int64("update_id", updateID).Msg("audit finalize failed")
	}

	result := Result{
		Status:   StatusSuccess,
		Fetched:  len(records),
		Inserted: stats.Inserted,
		Updated:  stats.Updated,
		Errors:   stats.Errors,
	}
	logger.L().Info().
		Int("fetched", result.Fetched).
		Int("inserted", result.Inserted).
		Int("updated", result.Updated).
		Int("errors", result.Errors).
		Msg("pipeline run completed")
	return result
}

// fail finalizes the audit row as FAILED and converts the error to a Result.
func (o *Orchestrator) fail(ctx context.Context, updateID int64, fetched int, cause error) Result {
	logger.L().Error().Err(cause).Int64("update_id", updateID).Msg("pipeline run failed")

	update := models.DataUpdate{
		UpdateID:       updateID,
		RecordsFetched: sql.NullInt64{Int64: int64(fetched), Valid: true},
		Status:         models.RunStatusFailed,
		ErrorMessage:   sql.NullString{String: cause.Error(), Valid: true},
	}
	if err := o.repo.FinalizeDataUpdate(ctx, update); err != nil {
		logger.L().Error().Err(err).Int64("update_id", updateID).Msg("audit finalize failed")
	}
	return Result{Status: StatusFailed, Fetched: fetched, Error: cause.Error()}
}
