// Package analytics derives volatility, correlation, anomaly and stress-index
// tables from persisted auction rows. The computations are pure functions over
// repository row slices; Engine binds them to the store.
package analytics

import (
	"database/sql"
	"math"
	"sort"

	"github.com/guttosm/treasurypulse/internal/domain/models"
)

const (
	// DefaultWindow is the rolling volatility window in observations.
	DefaultWindow = 30
	// minPeriods is how many return observations the window needs before a
	// volatility value is produced.
	minPeriods = 10
	// annualization factor for per-auction return volatility.
	tradingDays = 252

	// minCorrelationObs excludes thin groups from correlation matrices.
	minCorrelationObs = 30
	// minAnomalyObs excludes thin groups from anomaly detection.
	minAnomalyObs = 10
	// DefaultZThreshold flags bid-to-cover outliers.
	DefaultZThreshold = 3.0
)

// correlationColumns are the candidate metric columns, in output order.
var correlationColumns = []string{
	"bid_to_cover_ratio",
	"high_yield",
	"offering_amount",
	"primary_dealer_percentage",
	"direct_bidder_percentage",
	"indirect_bidder_percentage",
}

func columnValue(m models.AuctionMetric, col string) sql.NullFloat64 {
	switch col {
	case "bid_to_cover_ratio":
		return m.BidToCover
	case "high_yield":
		return m.HighYield
	case "offering_amount":
		return m.OfferingAmount
	case "primary_dealer_percentage":
		return m.PrimaryDealerPct
	case "direct_bidder_percentage":
		return m.DirectBidderPct
	case "indirect_bidder_percentage":
		return m.IndirectPct
	}
	return sql.NullFloat64{}
}

// groupByType splits metrics by security type, preserving date order within
// each group. Group names come out sorted for deterministic output.
func groupByType(metrics []models.AuctionMetric) (map[string][]models.AuctionMetric, []string) {
	groups := map[string][]models.AuctionMetric{}
	for _, m := range metrics {
		groups[m.SecurityType] = append(groups[m.SecurityType], m)
	}
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)
	return groups, names
}

func groupByTerm(metrics []models.AuctionMetric) (map[string][]models.AuctionMetric, []string) {
	groups := map[string][]models.AuctionMetric{}
	for _, m := range metrics {
		if m.Term == "" {
			continue
		}
		groups[m.Term] = append(groups[m.Term], m)
	}
	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)
	return groups, names
}

// RollingVolatility computes the annualized rolling standard deviation of
// period-over-period bid-to-cover returns per security type. The first
// observation of each group has no return; a volatility value appears once
// minPeriods returns fall inside the window.
func RollingVolatility(metrics []models.AuctionMetric, window int) []models.VolatilityPoint {
	if window <= 0 {
		window = DefaultWindow
	}
	groups, names := groupByType(metrics)

	var out []models.VolatilityPoint
	for _, name := range names {
		group := groups[name]
		points := make([]models.VolatilityPoint, len(group))
		returns := make([]float64, len(group)) // returns[i] valid for i >= 1

		for i, m := range group {
			points[i] = models.VolatilityPoint{
				SecurityType: name,
				AuctionDate:  m.AuctionDate,
				BidToCover:   m.BidToCover.Float64,
			}
			if i == 0 {
				continue
			}
			prev := group[i-1].BidToCover.Float64
			if prev == 0 {
				continue
			}
			r := (m.BidToCover.Float64 - prev) / prev
			returns[i] = r
			points[i].Return = sql.NullFloat64{Float64: r, Valid: true}

			lo := i - window + 1
			if lo < 1 {
				lo = 1
			}
			sample := returns[lo : i+1]
			if len(sample) >= minPeriods {
				points[i].Volatility = sql.NullFloat64{
					Float64: sampleStd(sample) * math.Sqrt(tradingDays),
					Valid:   true,
				}
			}
		}
		out = append(out, points...)
	}
	return out
}

// Correlations computes pairwise Pearson matrices per group over the candidate
// columns that have at least two observations in the group. Groups with
// minCorrelationObs or fewer rows are excluded. Cell values are computed
// pairwise-complete; a pair without enough overlap or with zero variance
// yields 0.
func Correlations(metrics []models.AuctionMetric, byTerm bool) []models.CorrelationMatrix {
	var (
		groups map[string][]models.AuctionMetric
		names  []string
	)
	if byTerm {
		groups, names = groupByTerm(metrics)
	} else {
		groups, names = groupByType(metrics)
	}

	var out []models.CorrelationMatrix
	for _, name := range names {
		group := groups[name]
		if len(group) <= minCorrelationObs {
			continue
		}

		// Columns with at least two non-null observations in this group.
		var cols []string
		for _, col := range correlationColumns {
			n := 0
			for _, m := range group {
				if columnValue(m, col).Valid {
					n++
				}
			}
			if n >= 2 {
				cols = append(cols, col)
			}
		}
		if len(cols) == 0 {
			continue
		}

		matrix := make([][]float64, len(cols))
		for i := range cols {
			matrix[i] = make([]float64, len(cols))
			for j := range cols {
				if i == j {
					matrix[i][j] = 1
					continue
				}
				matrix[i][j] = pearson(group, cols[i], cols[j])
			}
		}
		out = append(out, models.CorrelationMatrix{
			Group:        name,
			Observations: len(group),
			Columns:      cols,
			Matrix:       matrix,
		})
	}
	return out
}

// pearson computes the correlation of two columns over rows where both are
// present. Undefined results (fewer than two complete pairs, zero variance)
// come back as 0 so matrices stay JSON-encodable.
func pearson(group []models.AuctionMetric, colA, colB string) float64 {
	var xs, ys []float64
	for _, m := range group {
		a, b := columnValue(m, colA), columnValue(m, colB)
		if a.Valid && b.Valid {
			xs = append(xs, a.Float64)
			ys = append(ys, b.Float64)
		}
	}
	if len(xs) < 2 {
		return 0
	}

	meanX, meanY := mean(xs), mean(ys)
	var cov, varX, varY float64
	for i := range xs {
		dx, dy := xs[i]-meanX, ys[i]-meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return 0
	}
	return cov / math.Sqrt(varX*varY)
}

// DetectAnomalies flags auctions whose bid-to-cover deviates from the security
// type mean by more than threshold standard deviations. Groups need more than
// minAnomalyObs observations and nonzero deviation.
func DetectAnomalies(metrics []models.AuctionMetric, threshold float64) []models.Anomaly {
	if threshold <= 0 {
		threshold = DefaultZThreshold
	}
	groups, names := groupByType(metrics)

	var out []models.Anomaly
	for _, name := range names {
		group := groups[name]
		if len(group) <= minAnomalyObs {
			continue
		}
		values := make([]float64, len(group))
		for i, m := range group {
			values[i] = m.BidToCover.Float64
		}
		m, s := mean(values), sampleStd(values)
		if s == 0 {
			continue
		}
		for _, row := range group {
			z := math.Abs(row.BidToCover.Float64-m) / s
			if z > threshold {
				out = append(out, models.Anomaly{
					SecurityType: name,
					CUSIP:        row.CUSIP,
					AuctionDate:  row.AuctionDate,
					BidToCover:   row.BidToCover.Float64,
					ZScore:       z,
				})
			}
		}
	}
	return out
}

// StressIndex z-scores the weekly bid-to-cover mean, high-yield mean and
// bid-to-cover deviation series across the whole range and composes
// (-btc_z + yield_z + vol_z) / 3. Weak demand, high yields and high
// volatility all push the index up.
func StressIndex(rows []models.StressWeekRow) []models.StressWeek {
	out := make([]models.StressWeek, len(rows))
	for i, r := range rows {
		out[i] = models.StressWeek{
			Week:          r.Week,
			AuctionCount:  r.AuctionCount,
			AvgBidToCover: r.AvgBidToCover,
			StdBidToCover: r.StdBidToCover,
			AvgHighYield:  r.AvgHighYield,
		}
	}

	btc := zscores(rows, func(r models.StressWeekRow) sql.NullFloat64 { return r.AvgBidToCover })
	yield := zscores(rows, func(r models.StressWeekRow) sql.NullFloat64 { return r.AvgHighYield })
	vol := zscores(rows, func(r models.StressWeekRow) sql.NullFloat64 { return r.StdBidToCover })

	for i := range out {
		out[i].BTCZScore = btc[i]
		out[i].YieldZScore = yield[i]
		out[i].VolatilityZScore = vol[i]
		if btc[i].Valid && yield[i].Valid && vol[i].Valid {
			out[i].StressIndex = sql.NullFloat64{
				Float64: (-btc[i].Float64 + yield[i].Float64 + vol[i].Float64) / 3,
				Valid:   true,
			}
		}
	}
	return out
}

// zscores standardizes one weekly series against its own mean and deviation,
// ignoring absent observations. Absent in, absent out.
func zscores(rows []models.StressWeekRow, pick func(models.StressWeekRow) sql.NullFloat64) []sql.NullFloat64 {
	var values []float64
	for _, r := range rows {
		if v := pick(r); v.Valid {
			values = append(values, v.Float64)
		}
	}
	out := make([]sql.NullFloat64, len(rows))
	if len(values) < 2 {
		return out
	}
	m, s := mean(values), sampleStd(values)
	if s == 0 {
		return out
	}
	for i, r := range rows {
		if v := pick(r); v.Valid {
			out[i] = sql.NullFloat64{Float64: (v.Float64 - m) / s, Valid: true}
		}
	}
	return out
}

func mean(values []float64) float64 {
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

// sampleStd is the n-1 denominator standard deviation; 0 for fewer than two
// values.
func sampleStd(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	m := mean(values)
	var ss float64
	for _, v := range values {
		d := v - m
		ss += d * d
	}
	return math.Sqrt(ss / float64(len(values)-1))
}
