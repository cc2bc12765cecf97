package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, 0.01, cfg.Policy.MinClose)
	assert.Equal(t, 1000.0, cfg.Policy.MaxClose)
	assert.Equal(t, "02/01/2006", cfg.Policy.DateLayout)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 500, cfg.Export.HistoryLimit)
	assert.Equal(t, time.Hour, cfg.Export.CacheTTL)
	assert.Contains(t, cfg.Feed.URL, "kwayisi.org")
}

func TestLoadYAMLFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gsewatch.yml")
	content := `
server:
  port: 9090
policy:
  max_close: 2000
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 2000.0, cfg.Policy.MaxClose)
	// Unset fields still get defaults.
	assert.Equal(t, 0.01, cfg.Policy.MinClose)
}

func TestLoadFileValueSurvivesEnvPass(t *testing.T) {
	// A file value differing from the built-in default must not be
	// reset to the default when no env var is set for it.
	path := filepath.Join(t.TempDir(), "gsewatch.yml")
	require.NoError(t, os.WriteFile(path, []byte("policy:\n  max_close: 2000\n"), 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 2000.0, cfg.Policy.MaxClose)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gsewatch.yml")
	require.NoError(t, os.WriteFile(path, []byte("server:\n  port: 9090\n"), 0o644))
	t.Setenv("GSE_SERVER_PORT", "7070")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7070, cfg.Server.Port)
}

func TestLoadMissingFileUsesDefaults(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.yml"))
	require.NoError(t, err)
	assert.Equal(t, 8080, cfg.Server.Port)
}

func TestLoadValidation(t *testing.T) {
	t.Setenv("GSE_SERVER_PORT", "99999")
	_, err := Load("")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "validation")
}

func TestColumnMapCanonical(t *testing.T) {
	cm := DefaultColumnMap()

	tests := []struct {
		header string
		field  string
		ok     bool
	}{
		{"Daily Date", FieldDate, true},
		{"Share Code", FieldSymbol, true},
		{"Closing Price - VWAP (GH¢)", FieldClose, true},
		{"Closing Price", FieldClose, true},
		{"Mystery Column", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			field, ok := cm.Canonical(tt.header)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.field, field)
		})
	}
}

func TestLoadColumnMapFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "columns.yml")
	content := `
version: 2
columns:
  "Trade Date": date
  "Ticker": symbol
  "Last Price": close
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	cm, err := LoadColumnMap(path)
	require.NoError(t, err)
	assert.Equal(t, 2, cm.Version)
	field, ok := cm.Canonical("Trade Date")
	require.True(t, ok)
	assert.Equal(t, FieldDate, field)
}

func TestLoadColumnMapMissingFileFallsBack(t *testing.T) {
	cm, err := LoadColumnMap(filepath.Join(t.TempDir(), "absent.yml"))
	require.NoError(t, err)
	assert.Equal(t, DefaultColumnMap().Version, cm.Version)
}

func TestListingsDefaults(t *testing.T) {
	l := DefaultListings()
	assert.Equal(t, "GCB Bank Limited", l.Name("GCB"))
	assert.Equal(t, "Banking", l.Sector("GCB"))
	assert.Equal(t, "UNKNOWN", l.Name("UNKNOWN"))
	assert.Equal(t, "General", l.Sector("UNKNOWN"))
	assert.Contains(t, l.AliasSuffixes, ".GH")
}

func TestPathsLayout(t *testing.T) {
	base := t.TempDir()
	p := NewPaths(base)

	assert.Equal(t, filepath.Join(base, "data", "seeds"), p.SeedsDir)
	assert.Equal(t, filepath.Join(base, "data", "seeds", "GCB.csv"), p.SeedFile("GCB"))
	require.NoError(t, p.EnsureDirectories())
	for _, dir := range []string{p.SeedsDir, p.UploadsDir, p.ExportsDir, p.ConfigDir, p.LogsDir} {
		info, err := os.Stat(dir)
		require.NoError(t, err)
		assert.True(t, info.IsDir())
	}
}
