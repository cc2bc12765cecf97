package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

// Canonical field names produced by the record normalizer. Source
// column headers are mapped onto these via a ColumnMap.
const (
	FieldDate      = "date"
	FieldSymbol    = "symbol"
	FieldYearHigh  = "year_high"
	FieldYearLow   = "year_low"
	FieldPrevClose = "prev_close"
	FieldOpen      = "open"
	FieldClose     = "close"
	FieldChange    = "change"
	FieldBid       = "bid"
	FieldAsk       = "ask"
	FieldVolume    = "volume"
	FieldTurnover  = "turnover"
)

// ColumnMap is the versioned mapping table from source column headers
// to canonical record fields. Sources evolve their headers
// independently, so the table ships as configuration rather than code;
// Version identifies which revision of the table produced a dataset.
type ColumnMap struct {
	Version int               `yaml:"version"`
	Columns map[string]string `yaml:"columns"`
}

// DefaultColumnMap returns the mapping for the exchange's current CSV
// layout.
func DefaultColumnMap() *ColumnMap {
	return &ColumnMap{
		Version: 1,
		Columns: map[string]string{
			"Daily Date":                           FieldDate,
			"Share Code":                           FieldSymbol,
			"Year High (GH¢)":                      FieldYearHigh,
			"Year Low (GH¢)":                       FieldYearLow,
			"Previous Closing Price - VWAP (GH¢)":  FieldPrevClose,
			"Opening Price (GH¢)":                  FieldOpen,
			"Closing Price - VWAP (GH¢)":           FieldClose,
			"Price Change (GH¢)":                   FieldChange,
			"Closing Bid Price (GH¢)":              FieldBid,
			"Closing Offer Price (GH¢)":            FieldAsk,
			"Total Shares Traded":                  FieldVolume,
			"Total Value Traded (GH¢)":             FieldTurnover,
			// Bare header variants seen in re-exported ledgers.
			"Year High":               FieldYearHigh,
			"Year Low":                FieldYearLow,
			"Previous Closing Price":  FieldPrevClose,
			"Opening Price":           FieldOpen,
			"Closing Price":           FieldClose,
			"Price Change":            FieldChange,
			"Closing Bid Price":       FieldBid,
			"Closing Offer Price":     FieldAsk,
			"Total Value Traded":      FieldTurnover,
		},
	}
}

// LoadColumnMap reads a mapping table from a YAML file. A missing file
// is not an error: the default table is returned so fresh deployments
// work without configuration.
func LoadColumnMap(path string) (*ColumnMap, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return DefaultColumnMap(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read column map: %w", err)
	}

	var cm ColumnMap
	if err := yaml.Unmarshal(data, &cm); err != nil {
		return nil, fmt.Errorf("parse column map: %w", err)
	}
	if len(cm.Columns) == 0 {
		return nil, fmt.Errorf("column map %s has no columns", path)
	}
	return &cm, nil
}

// Canonical returns the canonical field for a source header, or false
// if the header is unmapped. Unmapped headers are ignored by the
// normalizer, not treated as errors.
func (cm *ColumnMap) Canonical(header string) (string, bool) {
	field, ok := cm.Columns[header]
	return field, ok
}
