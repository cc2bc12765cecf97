package ledger

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"gsewatch/pkg/contracts/domain"
)

// DateLayout is the wire format for dates in ledger files.
const DateLayout = "02/01/2006"

// Columns is the fixed ledger file header, in order. Ledger files are
// both machine state and a human-auditable artifact, so the column set
// never varies per file.
var Columns = []string{
	"Daily Date",
	"Share Code",
	"Year High",
	"Year Low",
	"Previous Closing Price",
	"Opening Price",
	"Closing Price",
	"Price Change",
	"Closing Bid Price",
	"Closing Offer Price",
	"Total Shares Traded",
	"Total Value Traded",
}

// Encode writes quotes to w in ledger file format, in the order given
// (callers pass newest-first). Nil fields encode as empty cells, never
// as zero.
func Encode(w io.Writer, quotes []domain.Quote) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(Columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, q := range quotes {
		row := []string{
			q.Date.Format(DateLayout),
			q.Symbol,
			encodeFloat(q.YearHigh),
			encodeFloat(q.YearLow),
			encodeFloat(q.PrevClose),
			encodeFloat(q.Open),
			strconv.FormatFloat(q.Close, 'f', -1, 64),
			encodeFloat(q.Change),
			encodeFloat(q.Bid),
			encodeFloat(q.Ask),
			encodeInt(q.Volume),
			encodeFloat(q.Turnover),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row for %s: %w", q.Date.Format(DateLayout), err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// Decode reads a ledger file. Rows come back in file order
// (newest-first for a well-formed ledger). A malformed row fails the
// whole decode: ledger files are system-owned, so damage means the file
// needs attention, not silent repair.
func Decode(r io.Reader) ([]domain.Quote, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse ledger: %w", err)
	}
	if len(records) == 0 {
		return nil, nil
	}

	index := make(map[string]int, len(records[0]))
	for i, h := range records[0] {
		index[strings.TrimSpace(strings.TrimPrefix(h, "\uFEFF"))] = i
	}
	for _, col := range []string{"Daily Date", "Share Code", "Closing Price"} {
		if _, ok := index[col]; !ok {
			return nil, fmt.Errorf("ledger missing column %q", col)
		}
	}

	cell := func(row []string, name string) string {
		i, ok := index[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	quotes := make([]domain.Quote, 0, len(records)-1)
	for n, row := range records[1:] {
		date, err := time.Parse(DateLayout, cell(row, "Daily Date"))
		if err != nil {
			return nil, fmt.Errorf("ledger row %d: bad date %q", n+2, cell(row, "Daily Date"))
		}
		closeCell := cell(row, "Closing Price")
		closePrice, err := strconv.ParseFloat(strings.ReplaceAll(closeCell, ",", ""), 64)
		if err != nil {
			return nil, fmt.Errorf("ledger row %d: bad closing price %q", n+2, closeCell)
		}
		quotes = append(quotes, domain.Quote{
			Symbol:    strings.ToUpper(cell(row, "Share Code")),
			Date:      date,
			Close:     closePrice,
			YearHigh:  decodeFloat(cell(row, "Year High")),
			YearLow:   decodeFloat(cell(row, "Year Low")),
			PrevClose: decodeFloat(cell(row, "Previous Closing Price")),
			Open:      decodeFloat(cell(row, "Opening Price")),
			Change:    decodeFloat(cell(row, "Price Change")),
			Bid:       decodeFloat(cell(row, "Closing Bid Price")),
			Ask:       decodeFloat(cell(row, "Closing Offer Price")),
			Volume:    decodeInt(cell(row, "Total Shares Traded")),
			Turnover:  decodeFloat(cell(row, "Total Value Traded")),
		})
	}
	return quotes, nil
}

func encodeFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func encodeInt(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}

func decodeFloat(raw string) *float64 {
	cleaned := strings.ReplaceAll(raw, ",", "")
	if cleaned == "" || cleaned == "-" {
		return nil
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	return &v
}

func decodeInt(raw string) *int64 {
	cleaned := strings.ReplaceAll(raw, ",", "")
	if cleaned == "" || cleaned == "-" {
		return nil
	}
	if v, err := strconv.ParseInt(cleaned, 10, 64); err == nil {
		return &v
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	v := int64(f)
	return &v
}
