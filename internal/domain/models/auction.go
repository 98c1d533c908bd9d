package models

import (
	"database/sql"
	"time"

	"github.com/shopspring/decimal"
)

// Auction is one auction event for a security.
//
// The pair (CUSIP, AuctionDate) is the natural key: re-ingesting the same pair
// overwrites the row in place (last-write-wins, no versioning). AuctionID is a
// surrogate key used only to attach BidderDetail rows.
type Auction struct {
	AuctionID   int64     `json:"auction_id"`
	CUSIP       string    `json:"cusip" example:"912828YK0"`
	AuctionDate time.Time `json:"auction_date"`

	// Key dates
	AuctionDateYear  sql.NullString `json:"auction_date_year,omitempty"`
	AnnouncementDate sql.NullTime   `json:"announcement_date,omitempty"`
	IssueDate        sql.NullTime   `json:"issue_date,omitempty"`
	MaturityDate     sql.NullTime   `json:"maturity_date,omitempty"`
	MaturingDate     sql.NullTime   `json:"maturing_date,omitempty"`
	DatedDate        sql.NullTime   `json:"dated_date,omitempty"`

	// Auction details
	AuctionFormat             sql.NullString      `json:"auction_format,omitempty"`
	ClosingTimeCompetitive    sql.NullString      `json:"closing_time_competitive,omitempty"`
	ClosingTimeNoncompetitive sql.NullString      `json:"closing_time_noncompetitive,omitempty"`
	OfferingAmount            decimal.NullDecimal `json:"offering_amount,omitempty"`
	AllocationPercentage      decimal.NullDecimal `json:"allocation_percentage,omitempty"`

	// Results
	TotalTendered   decimal.NullDecimal `json:"total_tendered,omitempty"`
	TotalAccepted   decimal.NullDecimal `json:"total_accepted,omitempty"`
	BidToCoverRatio decimal.NullDecimal `json:"bid_to_cover_ratio,omitempty"`

	// Yields / rates
	InterestRate       decimal.NullDecimal `json:"interest_rate,omitempty"`
	HighYield          decimal.NullDecimal `json:"high_yield,omitempty"`
	LowYield           decimal.NullDecimal `json:"low_yield,omitempty"`
	AverageMedianYield decimal.NullDecimal `json:"average_median_yield,omitempty"`
	HighDiscountRate   decimal.NullDecimal `json:"high_discount_rate,omitempty"`
	LowDiscountRate    decimal.NullDecimal `json:"low_discount_rate,omitempty"`
	HighInvestmentRate decimal.NullDecimal `json:"high_investment_rate,omitempty"`
	LowInvestmentRate  decimal.NullDecimal `json:"low_investment_rate,omitempty"`

	// Prices
	HighPrice   decimal.NullDecimal `json:"high_price,omitempty"`
	LowPrice    decimal.NullDecimal `json:"low_price,omitempty"`
	PricePer100 decimal.NullDecimal `json:"price_per_100,omitempty"`

	UpdatedTimestamp sql.NullTime `json:"updated_timestamp,omitempty"`
}
