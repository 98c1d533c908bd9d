package models

import (
	"database/sql"

	"github.com/shopspring/decimal"
)

// Security represents one tradable Treasury instrument, keyed by CUSIP.
// One row exists per instrument regardless of how many auctions reference it;
// ingestion updates mutable fields in place and never deletes rows.
//
// StandardizedTerm is the normalized maturity bucket derived from the raw
// SecurityTerm string (e.g. "9-Year 10-Month" → "10-Year"); the raw value is
// preserved in OriginalSecurityTerm.
type Security struct {
	CUSIP                string              `json:"cusip" example:"912828YK0"`
	SecurityType         string              `json:"security_type" example:"Note"`
	SecurityTerm         sql.NullString      `json:"security_term,omitempty"`
	OriginalSecurityTerm sql.NullString      `json:"original_security_term,omitempty"`
	StandardizedTerm     sql.NullString      `json:"standardized_term,omitempty"`
	Series               sql.NullString      `json:"series,omitempty"`
	CorpusCUSIP          sql.NullString      `json:"corpus_cusip,omitempty"`
	TIPS                 bool                `json:"tips"`
	FloatingRate         bool                `json:"floating_rate"`
	Callable             bool                `json:"callable"`
	CallDate             sql.NullTime        `json:"call_date,omitempty"`
	InterestRate         decimal.NullDecimal `json:"interest_rate,omitempty"`
}
