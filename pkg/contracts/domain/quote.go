package domain

import (
	"time"
)

// Quote represents one symbol's trading data for one calendar day.
// This is the canonical record shape shared by the normalization,
// merge and analytics paths.
//
// Close is the only numeric field guaranteed present: rows whose close
// cannot be parsed or falls outside the configured validity interval
// never become Quotes. Every other numeric field is a pointer so that
// "the source did not supply this" stays distinct from zero.
type Quote struct {
	Symbol    string    `json:"symbol" validate:"required"`
	Date      time.Time `json:"date" validate:"required"`
	Open      *float64  `json:"open,omitempty"`
	Close     float64   `json:"close" validate:"gt=0"`
	PrevClose *float64  `json:"prev_close,omitempty"`
	Change    *float64  `json:"change,omitempty"`
	YearHigh  *float64  `json:"year_high,omitempty"`
	YearLow   *float64  `json:"year_low,omitempty"`
	Bid       *float64  `json:"bid,omitempty"`
	Ask       *float64  `json:"ask,omitempty"`
	Volume    *int64    `json:"volume,omitempty"`
	Turnover  *float64  `json:"turnover,omitempty"`
}

// Day returns the quote's date truncated to midnight UTC. Two quotes
// belong to the same ledger slot iff their Day values are equal.
func (q Quote) Day() time.Time {
	return time.Date(q.Date.Year(), q.Date.Month(), q.Date.Day(), 0, 0, 0, 0, time.UTC)
}

// SameDay reports whether two quotes cover the same calendar day.
func (q Quote) SameDay(other Quote) bool {
	return q.Day().Equal(other.Day())
}

// Equal reports whether two quotes are identical by value, comparing
// nullable fields as null-vs-null or value-vs-value. The merger uses
// this to detect no-op merges.
func (q Quote) Equal(other Quote) bool {
	return q.Symbol == other.Symbol &&
		q.Day().Equal(other.Day()) &&
		q.Close == other.Close &&
		eqPtr(q.Open, other.Open) &&
		eqPtr(q.PrevClose, other.PrevClose) &&
		eqPtr(q.Change, other.Change) &&
		eqPtr(q.YearHigh, other.YearHigh) &&
		eqPtr(q.YearLow, other.YearLow) &&
		eqPtr(q.Bid, other.Bid) &&
		eqPtr(q.Ask, other.Ask) &&
		eqInt(q.Volume, other.Volume) &&
		eqPtr(q.Turnover, other.Turnover)
}

func eqPtr(a, b *float64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

func eqInt(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// Float64 returns a pointer to v. Convenience for building quotes.
func Float64(v float64) *float64 { return &v }

// Int64 returns a pointer to v.
func Int64(v int64) *int64 { return &v }

// Value dereferences v, returning 0 when nil. For consumers that
// flatten optional fields into plain numbers.
func Value(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

// Ledger is the ordered, deduplicated daily history of one symbol,
// held newest record first. Head-is-latest is a contract with every
// downstream consumer, not an implementation detail.
type Ledger struct {
	Symbol string  `json:"symbol"`
	Quotes []Quote `json:"quotes"`
}

// Len returns the number of records in the ledger.
func (l *Ledger) Len() int { return len(l.Quotes) }

// Head returns the most recent quote, or false for an empty ledger.
func (l *Ledger) Head() (Quote, bool) {
	if len(l.Quotes) == 0 {
		return Quote{}, false
	}
	return l.Quotes[0], true
}

// Ascending returns the ledger's quotes oldest first. The analytics
// engine consumes this order.
func (l *Ledger) Ascending() []Quote {
	out := make([]Quote, len(l.Quotes))
	for i, q := range l.Quotes {
		out[len(l.Quotes)-1-i] = q
	}
	return out
}
