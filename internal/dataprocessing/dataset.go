package dataprocessing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"gsewatch/internal/ledger"
	"gsewatch/pkg/contracts/domain"
)

// Dataset is the consolidated read model: every symbol's full history,
// sorted ascending by date, keyed by canonical symbol. It is built from
// the ledger files and never written back.
type Dataset map[string][]domain.Quote

// Symbols returns the dataset's symbols in sorted order.
func (d Dataset) Symbols() []string {
	out := make([]string, 0, len(d))
	for s := range d {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// LatestDate returns the most recent quote date across all symbols, or
// the zero time for an empty dataset.
func (d Dataset) LatestDate() time.Time {
	var latest time.Time
	for _, quotes := range d {
		if n := len(quotes); n > 0 && quotes[n-1].Date.After(latest) {
			latest = quotes[n-1].Date
		}
	}
	return latest
}

// Loader builds datasets from the ledger store.
type Loader struct {
	store  *ledger.Store
	logger *slog.Logger
}

// NewLoader creates a dataset loader over the given store.
func NewLoader(store *ledger.Store, logger *slog.Logger) *Loader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Loader{store: store, logger: logger.With(slog.String("component", "dataset_loader"))}
}

// Load reads every ledger and returns the consolidated dataset.
// Ledgers load concurrently; a single unreadable ledger fails the
// whole load, since a partial dataset would silently misreport the
// market.
func (l *Loader) Load(ctx context.Context) (Dataset, error) {
	symbols, err := l.store.Symbols()
	if err != nil {
		return nil, err
	}

	ds := make(Dataset, len(symbols))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(8)
	for _, symbol := range symbols {
		symbol := symbol
		g.Go(func() error {
			led, err := l.store.Load(gctx, symbol)
			if err != nil {
				return err
			}
			mu.Lock()
			ds[symbol] = led.Ascending()
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	l.logger.InfoContext(ctx, "dataset loaded",
		slog.Int("symbols", len(ds)))
	return ds, nil
}

// Cache serves datasets without re-reading unchanged ledger files on
// every request. A cached dataset is reused until its TTL passes or a
// fingerprint of the ledger directory (file names, sizes, mtimes)
// changes, whichever comes first. Refresh bypasses both.
type Cache struct {
	loader   *Loader
	seedsDir string
	ttl      time.Duration
	logger   *slog.Logger
	now      func() time.Time

	mu          sync.Mutex
	dataset     Dataset
	fingerprint string
	loadedAt    time.Time
}

// NewCache creates a dataset cache. A zero ttl means fingerprint-only
// invalidation.
func NewCache(loader *Loader, seedsDir string, ttl time.Duration, logger *slog.Logger) *Cache {
	if logger == nil {
		logger = slog.Default()
	}
	return &Cache{
		loader:   loader,
		seedsDir: seedsDir,
		ttl:      ttl,
		logger:   logger.With(slog.String("component", "dataset_cache")),
		now:      time.Now,
	}
}

// Get returns the current dataset, reloading when the cached copy is
// stale.
func (c *Cache) Get(ctx context.Context) (Dataset, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fp, err := c.fingerprintSeeds()
	if err != nil {
		return nil, err
	}
	if c.dataset != nil && fp == c.fingerprint && !c.expired() {
		return c.dataset, nil
	}
	return c.reload(ctx, fp)
}

// Refresh discards the cached dataset and reloads unconditionally.
func (c *Cache) Refresh(ctx context.Context) (Dataset, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	fp, err := c.fingerprintSeeds()
	if err != nil {
		return nil, err
	}
	return c.reload(ctx, fp)
}

// Invalidate drops the cached dataset so the next Get reloads.
func (c *Cache) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dataset = nil
	c.fingerprint = ""
}

func (c *Cache) expired() bool {
	return c.ttl > 0 && c.now().Sub(c.loadedAt) > c.ttl
}

func (c *Cache) reload(ctx context.Context, fp string) (Dataset, error) {
	ds, err := c.loader.Load(ctx)
	if err != nil {
		return nil, err
	}
	c.dataset = ds
	c.fingerprint = fp
	c.loadedAt = c.now()
	c.logger.DebugContext(ctx, "dataset cache reloaded",
		slog.Int("symbols", len(ds)))
	return ds, nil
}

// fingerprintSeeds hashes the ledger directory's file names, sizes and
// modification times. Content-level hashing is unnecessary: ledger
// writes always go through rename, which bumps the mtime.
func (c *Cache) fingerprintSeeds() (string, error) {
	entries, err := os.ReadDir(c.seedsDir)
	if os.IsNotExist(err) {
		return "empty", nil
	}
	if err != nil {
		return "", fmt.Errorf("fingerprint seeds dir: %w", err)
	}

	names := make([]string, 0, len(entries))
	infos := make(map[string]os.FileInfo, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".csv") || strings.HasPrefix(name, ".") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			return "", fmt.Errorf("stat %s: %w", filepath.Join(c.seedsDir, name), err)
		}
		names = append(names, name)
		infos[name] = info
	}
	sort.Strings(names)

	h := sha256.New()
	for _, name := range names {
		info := infos[name]
		fmt.Fprintf(h, "%s|%d|%d\n", name, info.Size(), info.ModTime().UnixNano())
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
