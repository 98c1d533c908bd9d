package analytics

import (
	"context"
	"fmt"

	"github.com/guttosm/treasurypulse/internal/domain/models"
	"github.com/guttosm/treasurypulse/internal/storage"
)

// stressLookbackDays bounds the weekly stress aggregation to the trailing two
// years.
const stressLookbackDays = 730

// Engine binds the pure analytics transforms to the repository.
type Engine struct {
	repo storage.AuctionsRepository
}

// NewEngine builds an Engine over the given repository.
func NewEngine(repo storage.AuctionsRepository) *Engine {
	return &Engine{repo: repo}
}

// Volatility returns the rolling bid-to-cover volatility series, optionally
// filtered to one security type.
func (e *Engine) Volatility(ctx context.Context, securityType string, window int) ([]models.VolatilityPoint, error) {
	metrics, err := e.repo.AuctionMetrics(ctx, storage.MetricsFilter{SecurityType: securityType})
	if err != nil {
		return nil, fmt.Errorf("volatility source: %w", err)
	}
	return RollingVolatility(metrics, window), nil
}

// Correlations returns per-group Pearson matrices. byTerm groups on the term
// column instead of security type; standardized selects the normalized term
// labels over the raw ones.
func (e *Engine) Correlations(ctx context.Context, byTerm, standardized bool) ([]models.CorrelationMatrix, error) {
	metrics, err := e.repo.AuctionMetrics(ctx, storage.MetricsFilter{UseStandardizedTerm: standardized})
	if err != nil {
		return nil, fmt.Errorf("correlation source: %w", err)
	}
	return Correlations(metrics, byTerm), nil
}

// Anomalies returns bid-to-cover outliers beyond the z-score threshold.
func (e *Engine) Anomalies(ctx context.Context, threshold float64) ([]models.Anomaly, error) {
	metrics, err := e.repo.AuctionMetrics(ctx, storage.MetricsFilter{})
	if err != nil {
		return nil, fmt.Errorf("anomaly source: %w", err)
	}
	return DetectAnomalies(metrics, threshold), nil
}

// Stress returns the weekly composite stress index over the trailing two
// years.
func (e *Engine) Stress(ctx context.Context) ([]models.StressWeek, error) {
	rows, err := e.repo.WeeklyStressRows(ctx, stressLookbackDays)
	if err != nil {
		return nil, fmt.Errorf("stress source: %w", err)
	}
	return StressIndex(rows), nil
}
