package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestQuoteEqualDistinguishesNilFromZero(t *testing.T) {
	date := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	base := Quote{Symbol: "GCB", Date: date, Close: 5.50}

	withZeroChange := base
	withZeroChange.Change = Float64(0)

	assert.True(t, base.Equal(base))
	assert.False(t, base.Equal(withZeroChange), "nil change and zero change are different records")

	other := withZeroChange
	other.Change = Float64(0)
	assert.True(t, withZeroChange.Equal(other))
}

func TestQuoteSameDayIgnoresTimeOfDay(t *testing.T) {
	a := Quote{Date: time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)}
	b := Quote{Date: time.Date(2024, 3, 15, 16, 0, 0, 0, time.UTC)}
	c := Quote{Date: time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC)}

	assert.True(t, a.SameDay(b))
	assert.False(t, a.SameDay(c))
}

func TestLedgerHeadAndAscending(t *testing.T) {
	l := &Ledger{
		Symbol: "GCB",
		Quotes: []Quote{
			{Symbol: "GCB", Date: time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC), Close: 5.60},
			{Symbol: "GCB", Date: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC), Close: 5.50},
		},
	}

	head, ok := l.Head()
	require.True(t, ok)
	assert.Equal(t, 16, head.Date.Day())

	asc := l.Ascending()
	require.Len(t, asc, 2)
	assert.Equal(t, 5.50, asc[0].Close)
	assert.Equal(t, 5.60, asc[1].Close)

	empty := &Ledger{Symbol: "GCB"}
	_, ok = empty.Head()
	assert.False(t, ok)
}
