package dataprocessing

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"gsewatch/internal/config"
	"gsewatch/internal/ledger"
	"gsewatch/pkg/contracts/domain"
)

// Report is the outcome of running one file through the pipeline.
type Report struct {
	File      string
	Normalize NormalizeStats
	Resolved  int
	Unmatched []string
	Merge     ledger.MergeStats
}

// Pipeline runs source files end to end: read, normalize, resolve
// symbols against the ledger universe, merge into per-symbol ledgers.
type Pipeline struct {
	normalizer *Normalizer
	resolver   *Resolver
	merger     *ledger.Merger
	store      *ledger.Store
	listings   *config.Listings
	logger     *slog.Logger
}

// NewPipeline wires the processing stages together.
func NewPipeline(normalizer *Normalizer, resolver *Resolver, merger *ledger.Merger, store *ledger.Store, listings *config.Listings, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{
		normalizer: normalizer,
		resolver:   resolver,
		merger:     merger,
		store:      store,
		listings:   listings,
		logger:     logger.With(slog.String("component", "pipeline")),
	}
}

// canonicalSet builds the symbol universe: every symbol with a ledger
// file plus every configured listing. A listed symbol with no ledger
// yet still resolves, so its first record creates the ledger.
func (p *Pipeline) canonicalSet() (*CanonicalSet, error) {
	symbols, err := p.store.Symbols()
	if err != nil {
		return nil, err
	}
	for s := range p.listings.Names {
		symbols = append(symbols, s)
	}
	return NewCanonicalSet(symbols), nil
}

// ProcessFile runs one CSV or XLSX file through the full pipeline.
func (p *Pipeline) ProcessFile(ctx context.Context, path string) (Report, error) {
	report := Report{File: filepath.Base(path)}

	rows, err := ReadTabularFile(path)
	if err != nil {
		return report, err
	}

	quotes, stats := p.normalizer.Normalize(ctx, rows)
	report.Normalize = stats

	set, err := p.canonicalSet()
	if err != nil {
		return report, err
	}

	resolved := make([]domain.Quote, 0, len(quotes))
	missed := make(map[string]bool)
	for _, q := range quotes {
		canonical, ok := p.resolver.Resolve(ctx, q.Symbol, set)
		if !ok {
			missed[q.Symbol] = true
			continue
		}
		q.Symbol = canonical
		resolved = append(resolved, q)
	}
	report.Resolved = len(resolved)
	for token := range missed {
		report.Unmatched = append(report.Unmatched, token)
	}
	sort.Strings(report.Unmatched)

	merge, err := p.merger.MergeBatch(ctx, resolved)
	report.Merge = merge
	if err != nil {
		return report, err
	}

	p.logger.InfoContext(ctx, "file processed",
		slog.String("file", report.File),
		slog.Int("rows_in", stats.RowsIn),
		slog.Int("resolved", report.Resolved),
		slog.Int("unmatched", len(report.Unmatched)),
		slog.Int("applied", merge.Applied()),
		slog.Int("unchanged", merge.Unchanged))
	return report, nil
}

// ProcessUploads processes every pending file in the uploads directory
// oldest first, so a backfill lands in chronological order and the
// newest upload has the last word. Successfully processed files move to
// the processed/ subdirectory; a failing file is logged and left in
// place for inspection while the rest of the batch proceeds.
func (p *Pipeline) ProcessUploads(ctx context.Context, uploadsDir string) ([]Report, error) {
	entries, err := os.ReadDir(uploadsDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list uploads: %w", err)
	}

	type pending struct {
		path string
		mod  time.Time
	}
	var files []pending
	for _, e := range entries {
		name := e.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if e.IsDir() || strings.HasPrefix(name, ".") || (ext != ".csv" && ext != ".xlsx") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return nil, fmt.Errorf("stat upload %s: %w", name, err)
		}
		files = append(files, pending{path: filepath.Join(uploadsDir, name), mod: info.ModTime()})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].mod.Before(files[j].mod) })

	processedDir := filepath.Join(uploadsDir, "processed")
	var reports []Report
	var failed int
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return reports, err
		}
		report, err := p.ProcessFile(ctx, f.path)
		reports = append(reports, report)
		if err != nil {
			failed++
			p.logger.ErrorContext(ctx, "upload failed",
				slog.String("file", filepath.Base(f.path)),
				slog.String("error", err.Error()))
			continue
		}
		if err := os.MkdirAll(processedDir, 0o755); err != nil {
			return reports, fmt.Errorf("create processed dir: %w", err)
		}
		dest := filepath.Join(processedDir, filepath.Base(f.path))
		if err := os.Rename(f.path, dest); err != nil {
			return reports, fmt.Errorf("archive %s: %w", filepath.Base(f.path), err)
		}
	}
	if failed > 0 {
		return reports, fmt.Errorf("%d of %d upload files failed", failed, len(files))
	}
	return reports, nil
}
