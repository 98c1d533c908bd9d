package dto

import "github.com/guttosm/treasurypulse/internal/domain/models"

// PipelineRunResponse is returned by POST /api/v1/pipeline/run once the
// triggered run terminates.
//
// Fields mirror the orchestrator's structured result: the terminal status,
// the fetch/upsert counters, and the error message for FAILED runs.
type PipelineRunResponse struct {
	Status   string `json:"status" example:"success"`
	Fetched  int    `json:"fetched" example:"15000"`
	Inserted int    `json:"inserted" example:"120"`
	Updated  int    `json:"updated" example:"14880"`
	Errors   int    `json:"errors" example:"0"`
	Error    string `json:"error,omitempty"`
}

// VolatilityResponse wraps the rolling-volatility series.
type VolatilityResponse struct {
	Window int                      `json:"window" example:"30"`
	Points []models.VolatilityPoint `json:"points"`
}

// CorrelationsResponse wraps the per-group correlation matrices.
type CorrelationsResponse struct {
	GroupBy  string                     `json:"group_by" example:"type"`
	Matrices []models.CorrelationMatrix `json:"matrices"`
}

// AnomaliesResponse wraps flagged auctions with the threshold that was applied.
type AnomaliesResponse struct {
	Threshold float64          `json:"threshold" example:"3"`
	Anomalies []models.Anomaly `json:"anomalies"`
}

// StressIndexResponse wraps the weekly composite stress series.
type StressIndexResponse struct {
	Weeks []models.StressWeek `json:"weeks"`
}

// AnalyticsSummaryResponse bundles all four analytics blocks; the handler
// computes them concurrently.
type AnalyticsSummaryResponse struct {
	Volatility   VolatilityResponse   `json:"volatility"`
	Correlations CorrelationsResponse `json:"correlations"`
	Anomalies    AnomaliesResponse    `json:"anomalies"`
	StressIndex  StressIndexResponse  `json:"stress_index"`
}
