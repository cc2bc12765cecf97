package ledger

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"gsewatch/internal/config"
	"gsewatch/pkg/contracts/domain"
)

// ErrNotFound is returned when no ledger file exists for a symbol.
var ErrNotFound = errors.New("ledger not found")

// Store persists per-symbol ledgers as CSV files under the seeds
// directory, one file per symbol. Writes are atomic (temp file plus
// rename) and serialized per symbol, so a crash mid-write leaves the
// previous ledger intact and concurrent merges for one symbol cannot
// interleave. Different symbols proceed in parallel.
type Store struct {
	paths  *config.Paths
	logger *slog.Logger

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// NewStore creates a ledger store rooted at the given paths.
func NewStore(paths *config.Paths, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		paths:  paths,
		logger: logger.With(slog.String("component", "ledger_store")),
		locks:  make(map[string]*sync.Mutex),
	}
}

// Lock returns the per-symbol mutex, creating it on first use. Callers
// that read-modify-write a ledger hold this across the whole cycle.
func (s *Store) Lock(symbol string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	l, ok := s.locks[symbol]
	if !ok {
		l = &sync.Mutex{}
		s.locks[symbol] = l
	}
	return l
}

// Path returns the ledger file path for a symbol.
func (s *Store) Path(symbol string) string {
	return s.paths.SeedFile(symbol)
}

// Load reads a symbol's ledger. Quotes come back in stored order,
// newest first. Returns ErrNotFound when the symbol has no ledger yet.
func (s *Store) Load(ctx context.Context, symbol string) (*domain.Ledger, error) {
	path := s.Path(symbol)
	f, err := os.Open(path)
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%s: %w", symbol, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("open ledger %s: %w", symbol, err)
	}
	defer f.Close()

	quotes, err := Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode ledger %s: %w", symbol, err)
	}
	return &domain.Ledger{Symbol: symbol, Quotes: quotes}, nil
}

// Save writes a symbol's ledger atomically: encode to a temp file in
// the same directory, fsync, then rename over the target. Readers see
// either the old complete file or the new complete file.
func (s *Store) Save(ctx context.Context, l *domain.Ledger) error {
	var buf bytes.Buffer
	if err := Encode(&buf, l.Quotes); err != nil {
		return fmt.Errorf("encode ledger %s: %w", l.Symbol, err)
	}

	target := s.Path(l.Symbol)
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create seeds dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "."+l.Symbol+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp ledger %s: %w", l.Symbol, err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return fmt.Errorf("write temp ledger %s: %w", l.Symbol, err)
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return fmt.Errorf("sync temp ledger %s: %w", l.Symbol, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp ledger %s: %w", l.Symbol, err)
	}
	if err := os.Rename(tmpName, target); err != nil {
		return fmt.Errorf("replace ledger %s: %w", l.Symbol, err)
	}

	s.logger.DebugContext(ctx, "ledger saved",
		slog.String("symbol", l.Symbol),
		slog.Int("rows", len(l.Quotes)))
	return nil
}

// Symbols lists all symbols that have a ledger file, sorted. The seed
// directory is the source of truth for the canonical symbol universe.
func (s *Store) Symbols() ([]string, error) {
	entries, err := os.ReadDir(s.paths.SeedsDir)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list seeds dir: %w", err)
	}

	var symbols []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".csv") || strings.HasPrefix(name, ".") {
			continue
		}
		symbols = append(symbols, strings.TrimSuffix(name, ".csv"))
	}
	sort.Strings(symbols)
	return symbols, nil
}
