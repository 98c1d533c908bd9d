package models

import (
	"database/sql"
	"time"
)

// AuctionMetric is one row of the auctions/securities/bidder_details join the
// analytics engine computes over. Numeric columns are scanned into float64
// because every derived statistic is floating-point anyway.
type AuctionMetric struct {
	AuctionDate  time.Time
	CUSIP        string
	SecurityType string
	Term         string // raw or standardized term depending on the query toggle

	BidToCover       sql.NullFloat64
	HighYield        sql.NullFloat64
	OfferingAmount   sql.NullFloat64
	PrimaryDealerPct sql.NullFloat64
	DirectBidderPct  sql.NullFloat64
	IndirectPct      sql.NullFloat64
}

// VolatilityPoint is one observation of the rolling bid-to-cover volatility
// series for a security type. Return and Volatility are absent until enough
// prior observations exist (one for the return, min-periods for the window).
type VolatilityPoint struct {
	SecurityType string          `json:"security_type"`
	AuctionDate  time.Time       `json:"auction_date"`
	BidToCover   float64         `json:"bid_to_cover_ratio"`
	Return       sql.NullFloat64 `json:"btc_return,omitempty"`
	Volatility   sql.NullFloat64 `json:"volatility,omitempty"`
}

// CorrelationMatrix is the pairwise Pearson matrix for one group (security
// type or term bucket). Matrix is square over Columns, row-major.
type CorrelationMatrix struct {
	Group        string      `json:"group"`
	Observations int         `json:"observations"`
	Columns      []string    `json:"columns"`
	Matrix       [][]float64 `json:"matrix"`
}

// Anomaly is one auction whose bid-to-cover ratio deviates from its security
// type's mean by more than the z-score threshold.
type Anomaly struct {
	SecurityType string    `json:"security_type"`
	CUSIP        string    `json:"cusip"`
	AuctionDate  time.Time `json:"auction_date"`
	BidToCover   float64   `json:"bid_to_cover_ratio"`
	ZScore       float64   `json:"z_score"`
}

// StressWeek is one ISO week of the composite market stress index.
// Lower bid-to-cover and higher yield/volatility push the index up.
type StressWeek struct {
	Week          time.Time       `json:"week"`
	AuctionCount  int             `json:"auction_count"`
	AvgBidToCover sql.NullFloat64 `json:"avg_btc,omitempty"`
	StdBidToCover sql.NullFloat64 `json:"std_btc,omitempty"`
	AvgHighYield  sql.NullFloat64 `json:"avg_yield,omitempty"`

	BTCZScore        sql.NullFloat64 `json:"btc_zscore,omitempty"`
	YieldZScore      sql.NullFloat64 `json:"yield_zscore,omitempty"`
	VolatilityZScore sql.NullFloat64 `json:"volatility_zscore,omitempty"`
	StressIndex      sql.NullFloat64 `json:"stress_index,omitempty"`
}

// StressWeekRow is the raw weekly aggregate returned by the repository before
// z-scoring; kept separate so the computation layer owns the derived fields.
type StressWeekRow struct {
	Week          time.Time
	AuctionCount  int
	AvgBidToCover sql.NullFloat64
	StdBidToCover sql.NullFloat64
	AvgHighYield  sql.NullFloat64
}
