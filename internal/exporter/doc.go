// Package exporter builds the derived market data artifact consumed by
// the web frontend: one JSON document with a per-symbol snapshot,
// bounded history, and a market-wide summary. The artifact is always
// rebuildable from the ledgers and is written atomically.
package exporter
