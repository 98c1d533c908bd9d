package models

import (
	"database/sql"
	"time"
)

// Pipeline run statuses recorded in the data_updates audit log.
// A run starts RUNNING and terminates in exactly one of SUCCESS or FAILED.
const (
	RunStatusRunning = "RUNNING"
	RunStatusSuccess = "SUCCESS"
	RunStatusFailed  = "FAILED"
)

// Run types distinguishing how a pipeline execution was triggered.
const (
	RunTypeFull      = "FULL"
	RunTypeScheduled = "SCHEDULED"
	RunTypeManual    = "MANUAL"
)

// DataUpdate is one append-only audit record of a pipeline run.
type DataUpdate struct {
	UpdateID        int64          `json:"update_id"`
	UpdateTimestamp time.Time      `json:"update_timestamp"`
	RecordsFetched  sql.NullInt64  `json:"records_fetched,omitempty"`
	RecordsInserted sql.NullInt64  `json:"records_inserted,omitempty"`
	RecordsUpdated  sql.NullInt64  `json:"records_updated,omitempty"`
	LastAuctionDate sql.NullTime   `json:"last_auction_date,omitempty"`
	RunType         string         `json:"run_type" example:"SCHEDULED"`
	Status          string         `json:"status" example:"SUCCESS"`
	ErrorMessage    sql.NullString `json:"error_message,omitempty"`
}
