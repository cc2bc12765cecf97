// Package dataprocessing turns raw heterogeneous tabular input into
// canonical per-symbol time series and derives windowed analytics from
// them.
//
// The pipeline is: tabular reader (CSV/XLSX) → record normalizer →
// symbol resolver → (merge path) ledger merger, or (read path) the
// consolidated dataset consumed by the analytics engine and the
// derived export.
package dataprocessing
