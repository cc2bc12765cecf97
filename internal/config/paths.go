package config

import (
	"fmt"
	"os"
	"path/filepath"
)

// Paths is the single source of truth for all file paths used by the
// application.
//
// Layout under the base directory:
//
//	data/
//	  seeds/        per-symbol ledger CSV files (SYMBOL.csv)
//	  uploads/      batch CSV/XLSX files awaiting ingestion
//	  exports/      derived documents for the presentation layer
//	config/
//	  columns.yml   source-column → canonical-field mapping table
//	  listings.yml  stock names, sectors, symbol aliases
//	logs/
type Paths struct {
	BaseDir    string
	DataDir    string
	SeedsDir   string
	UploadsDir string
	ExportsDir string
	ConfigDir  string
	LogsDir    string

	// Well-known files
	MarketDataJSON string
	ColumnMapFile  string
	ListingsFile   string
	ConfigFile     string
}

// GetPaths returns the application paths relative to the executable
// location, or to GSE_BASE_DIR when set. Paths are never relative to
// the current working directory.
func GetPaths() (*Paths, error) {
	base := os.Getenv("GSE_BASE_DIR")
	if base == "" {
		exe, err := os.Executable()
		if err != nil {
			return nil, fmt.Errorf("get executable path: %w", err)
		}
		exe, err = filepath.EvalSymlinks(exe)
		if err != nil {
			return nil, fmt.Errorf("resolve executable symlinks: %w", err)
		}
		base = filepath.Dir(exe)
	}
	return NewPaths(base), nil
}

// NewPaths builds a Paths rooted at the given base directory. Tests
// use this with t.TempDir().
func NewPaths(base string) *Paths {
	dataDir := filepath.Join(base, "data")
	configDir := filepath.Join(base, "config")
	return &Paths{
		BaseDir:    base,
		DataDir:    dataDir,
		SeedsDir:   filepath.Join(dataDir, "seeds"),
		UploadsDir: filepath.Join(dataDir, "uploads"),
		ExportsDir: filepath.Join(dataDir, "exports"),
		ConfigDir:  configDir,
		LogsDir:    filepath.Join(base, "logs"),

		MarketDataJSON: filepath.Join(dataDir, "exports", "gse_data.json"),
		ColumnMapFile:  filepath.Join(configDir, "columns.yml"),
		ListingsFile:   filepath.Join(configDir, "listings.yml"),
		ConfigFile:     filepath.Join(configDir, "gsewatch.yml"),
	}
}

// EnsureDirectories creates all required directories if they don't exist.
func (p *Paths) EnsureDirectories() error {
	for _, dir := range []string{
		p.DataDir,
		p.SeedsDir,
		p.UploadsDir,
		p.ExportsDir,
		p.ConfigDir,
		p.LogsDir,
	} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return nil
}

// SeedFile returns the ledger file path for a canonical symbol.
func (p *Paths) SeedFile(symbol string) string {
	return filepath.Join(p.SeedsDir, symbol+".csv")
}

// LogPath returns a path under the logs directory.
func (p *Paths) LogPath(name string) string {
	return filepath.Join(p.LogsDir, name)
}
