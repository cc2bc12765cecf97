package ledger

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gsewatch/pkg/contracts/domain"
)

func TestEncodeDecodePreservesNilFields(t *testing.T) {
	quotes := []domain.Quote{
		{
			Symbol:    "GCB",
			Date:      time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC),
			Close:     5.60,
			PrevClose: domain.Float64(5.50),
			Change:    domain.Float64(0.10),
			Volume:    domain.Int64(12500),
		},
		{
			Symbol: "GCB",
			Date:   time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
			Close:  5.50,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, quotes))

	decoded, err := Decode(&buf)
	require.NoError(t, err)
	require.Len(t, decoded, 2)

	assert.True(t, decoded[0].Equal(quotes[0]))
	assert.True(t, decoded[1].Equal(quotes[1]))
	assert.Nil(t, decoded[1].Volume)
	assert.Nil(t, decoded[1].Change)
}

func TestEncodeHeaderOrder(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Encode(&buf, nil))

	header := strings.SplitN(buf.String(), "\n", 2)[0]
	assert.Equal(t, strings.Join(Columns, ","), strings.TrimRight(header, "\r"))
}

func TestDecodeMissingRequiredColumn(t *testing.T) {
	input := "Daily Date,Share Code\n15/03/2024,GCB\n"
	_, err := Decode(strings.NewReader(input))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Closing Price")
}

func TestDecodeBadDateFailsWholeFile(t *testing.T) {
	input := strings.Join([]string{
		strings.Join(Columns, ","),
		"15/03/2024,GCB,,,,,5.50,,,,,",
		"2024-03-16,GCB,,,,,5.60,,,,,",
	}, "\n")
	_, err := Decode(strings.NewReader(input))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "bad date")
}

func TestDecodeToleratesGroupedNumbers(t *testing.T) {
	input := strings.Join([]string{
		strings.Join(Columns, ","),
		`15/03/2024,GCB,,,,,"5.50",,,,"12,500","68,750.00"`,
	}, "\n")
	quotes, err := Decode(strings.NewReader(input))
	require.NoError(t, err)
	require.Len(t, quotes, 1)
	require.NotNil(t, quotes[0].Volume)
	assert.Equal(t, int64(12500), *quotes[0].Volume)
	require.NotNil(t, quotes[0].Turnover)
	assert.Equal(t, 68750.0, *quotes[0].Turnover)
}

func TestDecodeEmptyInput(t *testing.T) {
	quotes, err := Decode(strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, quotes)
}
