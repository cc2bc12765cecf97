package dataprocessing

import (
	"context"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	"gsewatch/internal/config"
	"gsewatch/internal/infrastructure"
	"gsewatch/pkg/contracts/domain"
)

// Drop reasons surfaced in stats, logs and metrics.
const (
	DropReasonNoSymbol   = "no_symbol"
	DropReasonBadDate    = "bad_date"
	DropReasonBadClose   = "bad_close"
	DropReasonOutOfRange = "close_out_of_range"
)

// NormalizeStats counts what happened to a batch of raw rows. Dropped
// rows are counted, never fatal.
type NormalizeStats struct {
	RowsIn     int
	Accepted   int
	Superseded int            // same (symbol, date) seen again later in the batch
	Dropped    map[string]int // reason → count
}

// DroppedTotal returns the total number of dropped rows.
func (s NormalizeStats) DroppedTotal() int {
	total := 0
	for _, n := range s.Dropped {
		total += n
	}
	return total
}

// Normalizer maps arbitrary source columns onto canonical record
// fields, coerces types and validates. Rows that cannot be made into a
// valid Quote are dropped and counted; the batch always proceeds.
type Normalizer struct {
	columns *config.ColumnMap
	policy  config.PolicyConfig
	logger  *slog.Logger
	metrics *infrastructure.PipelineMetrics
}

// NewNormalizer creates a normalizer with the given mapping table and
// validation policy.
func NewNormalizer(columns *config.ColumnMap, policy config.PolicyConfig, logger *slog.Logger, metrics *infrastructure.PipelineMetrics) *Normalizer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Normalizer{
		columns: columns,
		policy:  policy,
		logger:  logger.With(slog.String("component", "normalizer")),
		metrics: metrics,
	}
}

// Normalize turns raw rows into candidate Quotes.
//
// Guarantees on the returned slice: no two quotes share (symbol, date);
// all dates parsed under the configured layout; all closes strictly
// inside (MinClose, MaxClose); sorted by symbol then date ascending.
// When (symbol, date) collides across input rows the last-seen row
// wins, so a later upload overrides a stale seed.
func (n *Normalizer) Normalize(ctx context.Context, rows []RawRow) ([]domain.Quote, NormalizeStats) {
	stats := NormalizeStats{
		RowsIn:  len(rows),
		Dropped: make(map[string]int),
	}

	type slotKey struct {
		symbol string
		day    time.Time
	}
	slots := make(map[slotKey]domain.Quote)

	for _, row := range rows {
		fields := n.rename(row)

		symbol := strings.ToUpper(strings.TrimSpace(fields[config.FieldSymbol]))
		if symbol == "" {
			n.drop(ctx, &stats, DropReasonNoSymbol, "", fields[config.FieldDate])
			continue
		}

		date, err := time.Parse(n.policy.DateLayout, fields[config.FieldDate])
		if err != nil {
			// Unparseable dates are discarded, never guessed.
			n.drop(ctx, &stats, DropReasonBadDate, symbol, fields[config.FieldDate])
			continue
		}

		closePrice := parseDecimal(fields[config.FieldClose])
		if closePrice == nil {
			n.drop(ctx, &stats, DropReasonBadClose, symbol, fields[config.FieldDate])
			continue
		}
		if *closePrice <= n.policy.MinClose || *closePrice >= n.policy.MaxClose {
			// Guards against header leakage, unit errors and corrupted
			// scrapes.
			n.drop(ctx, &stats, DropReasonOutOfRange, symbol, fields[config.FieldDate])
			continue
		}

		q := domain.Quote{
			Symbol:    symbol,
			Date:      date,
			Close:     *closePrice,
			Open:      parseDecimal(fields[config.FieldOpen]),
			PrevClose: parseDecimal(fields[config.FieldPrevClose]),
			Change:    parseDecimal(fields[config.FieldChange]),
			YearHigh:  parseDecimal(fields[config.FieldYearHigh]),
			YearLow:   parseDecimal(fields[config.FieldYearLow]),
			Bid:       parseDecimal(fields[config.FieldBid]),
			Ask:       parseDecimal(fields[config.FieldAsk]),
			Volume:    parseInteger(fields[config.FieldVolume]),
			Turnover:  parseDecimal(fields[config.FieldTurnover]),
		}

		key := slotKey{symbol: symbol, day: q.Day()}
		if _, seen := slots[key]; seen {
			stats.Superseded++
		}
		slots[key] = q
	}

	quotes := make([]domain.Quote, 0, len(slots))
	for _, q := range slots {
		quotes = append(quotes, q)
	}
	sort.Slice(quotes, func(i, j int) bool {
		if quotes[i].Symbol != quotes[j].Symbol {
			return quotes[i].Symbol < quotes[j].Symbol
		}
		return quotes[i].Date.Before(quotes[j].Date)
	})

	stats.Accepted = len(quotes)
	n.metrics.AddNormalized(ctx, int64(stats.Accepted))

	n.logger.InfoContext(ctx, "normalized batch",
		slog.Int("rows_in", stats.RowsIn),
		slog.Int("accepted", stats.Accepted),
		slog.Int("superseded", stats.Superseded),
		slog.Int("dropped", stats.DroppedTotal()))

	return quotes, stats
}

// rename maps a raw row's source headers onto canonical field names.
// Unmapped columns are ignored.
func (n *Normalizer) rename(row RawRow) map[string]string {
	fields := make(map[string]string, len(row))
	for header, value := range row {
		if field, ok := n.columns.Canonical(header); ok {
			fields[field] = value
		}
	}
	return fields
}

func (n *Normalizer) drop(ctx context.Context, stats *NormalizeStats, reason, symbol, rawDate string) {
	stats.Dropped[reason]++
	n.metrics.AddDropped(ctx, 1, reason)
	n.logger.WarnContext(ctx, "dropped row",
		slog.String("reason", reason),
		slog.String("symbol", symbol),
		slog.String("date", rawDate))
}

// parseDecimal parses a decimal field after stripping grouping
// separators. Unparseable or empty input yields nil, not zero.
func parseDecimal(raw string) *float64 {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if cleaned == "" || cleaned == "-" {
		return nil
	}
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return nil
	}
	return &v
}

// parseInteger parses a non-negative integer field, tolerating
// grouping separators and a decimal representation ("1,000" or
// "1000.0"). Unparseable or negative input yields nil.
func parseInteger(raw string) *int64 {
	cleaned := strings.ReplaceAll(strings.TrimSpace(raw), ",", "")
	if cleaned == "" || cleaned == "-" {
		return nil
	}
	if v, err := strconv.ParseInt(cleaned, 10, 64); err == nil {
		if v < 0 {
			return nil
		}
		return &v
	}
	f, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || f < 0 {
		return nil
	}
	v := int64(f)
	return &v
}
