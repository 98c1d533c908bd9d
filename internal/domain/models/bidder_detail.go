package models

import "github.com/shopspring/decimal"

// BidderDetail is the per-auction award breakdown by bidder category.
// At most one row exists per auction; percentages are derived as
// accepted / total_accepted * 100 and left absent when the category amount is
// absent. Rows are only written when total_accepted is strictly positive.
type BidderDetail struct {
	DetailID  int64 `json:"detail_id"`
	AuctionID int64 `json:"auction_id"`

	PrimaryDealerAccepted    decimal.NullDecimal `json:"primary_dealer_accepted,omitempty"`
	PrimaryDealerPercentage  decimal.NullDecimal `json:"primary_dealer_percentage,omitempty"`
	DirectBidderAccepted     decimal.NullDecimal `json:"direct_bidder_accepted,omitempty"`
	DirectBidderPercentage   decimal.NullDecimal `json:"direct_bidder_percentage,omitempty"`
	IndirectBidderAccepted   decimal.NullDecimal `json:"indirect_bidder_accepted,omitempty"`
	IndirectBidderPercentage decimal.NullDecimal `json:"indirect_bidder_percentage,omitempty"`

	// Foreign-official (FIMA) and Federal Reserve (SOMA) take-downs.
	FIMAAccepted   decimal.NullDecimal `json:"fima_accepted,omitempty"`
	FIMAPercentage decimal.NullDecimal `json:"fima_percentage,omitempty"`
	SOMAAccepted   decimal.NullDecimal `json:"soma_accepted,omitempty"`
	SOMAPercentage decimal.NullDecimal `json:"soma_percentage,omitempty"`

	CompetitiveAccepted    decimal.NullDecimal `json:"competitive_accepted,omitempty"`
	NoncompetitiveAccepted decimal.NullDecimal `json:"noncompetitive_accepted,omitempty"`
	TreasuryRetailAccepted decimal.NullDecimal `json:"treasury_retail_accepted,omitempty"`
}
