// Package coerce converts heterogeneous values from the Treasury API's JSON
// payloads into typed domain values. The API serves almost everything as
// strings ("5.125", "2023-02-15T00:00:00", "Yes", "") and records omit fields
// freely, so every function here tolerates malformed or missing input by
// returning an absent value instead of an error. Parse failures are never
// propagated: robustness of ingestion wins over strict validation.
package coerce

import (
	"database/sql"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Date layouts the Treasury API is known to emit.
var dateLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"01/02/2006",
}

// String returns the trimmed string form of v, absent for nil or empty input.
// Non-string scalars are stringified.
func String(v any) sql.NullString {
	s, ok := asString(v)
	if !ok {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

// Decimal parses v into an exact-precision decimal. Absent for nil, empty, or
// malformed input.
func Decimal(v any) decimal.NullDecimal {
	s, ok := asString(v)
	if !ok {
		return decimal.NullDecimal{}
	}
	// Amounts occasionally arrive with thousands separators.
	s = strings.ReplaceAll(s, ",", "")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.NullDecimal{}
	}
	return decimal.NullDecimal{Decimal: d, Valid: true}
}

// Date parses v into a calendar date (midnight UTC). Absent for nil, empty,
// or malformed input.
func Date(v any) sql.NullTime {
	t := DateTime(v)
	if !t.Valid {
		return t
	}
	y, m, d := t.Time.Date()
	return sql.NullTime{Time: time.Date(y, m, d, 0, 0, 0, 0, time.UTC), Valid: true}
}

// DateTime parses v into a timestamp, trying each known layout in order.
// Absent for nil, empty, or malformed input.
func DateTime(v any) sql.NullTime {
	s, ok := asString(v)
	if !ok {
		return sql.NullTime{}
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return sql.NullTime{Time: t.UTC(), Valid: true}
		}
	}
	return sql.NullTime{}
}

// Bool reports whether v is an affirmative flag value ("yes", "true", "1",
// case-insensitive, or a literal true). Anything else, including absent and
// malformed input, is false: the source collapses "absent" and "no" into the
// same stored value, and callers relying on tri-state flags should coerce the
// raw value themselves.
func Bool(v any) bool {
	if b, isBool := v.(bool); isBool {
		return b
	}
	s, ok := asString(v)
	if !ok {
		return false
	}
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true
	}
	return false
}

// Int parses v into an integer. Absent for nil, empty, or malformed input;
// fractional numeric input is truncated toward zero.
func Int(v any) sql.NullInt64 {
	switch n := v.(type) {
	case float64:
		return sql.NullInt64{Int64: int64(n), Valid: true}
	case int:
		return sql.NullInt64{Int64: int64(n), Valid: true}
	case int64:
		return sql.NullInt64{Int64: n, Valid: true}
	}
	s, ok := asString(v)
	if !ok {
		return sql.NullInt64{}
	}
	i, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		// "1.0" style input still counts as an integer.
		f, ferr := strconv.ParseFloat(s, 64)
		if ferr != nil {
			return sql.NullInt64{}
		}
		i = int64(f)
	}
	return sql.NullInt64{Int64: i, Valid: true}
}

// asString normalizes v to a trimmed non-empty string. The second return is
// false for nil input, empty strings, and unsupported types.
func asString(v any) (string, bool) {
	switch s := v.(type) {
	case nil:
		return "", false
	case string:
		trimmed := strings.TrimSpace(s)
		return trimmed, trimmed != ""
	case json.Number:
		return s.String(), s.String() != ""
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64), true
	case int:
		return strconv.Itoa(s), true
	case int64:
		return strconv.FormatInt(s, 10), true
	case bool:
		return strconv.FormatBool(s), true
	}
	return "", false
}
