package dataprocessing

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"gsewatch/internal/config"
	"gsewatch/internal/ledger"
)

func newTestPipeline(t *testing.T) (*Pipeline, *ledger.Store, *config.Paths) {
	t.Helper()
	paths := config.NewPaths(t.TempDir())
	require.NoError(t, paths.EnsureDirectories())

	listings := config.DefaultListings()
	policy := config.PolicyConfig{MinClose: 0.01, MaxClose: 1000, DateLayout: "02/01/2006"}
	store := ledger.NewStore(paths, nil)
	merger := ledger.NewMerger(store, policy, nil, nil)
	normalizer := NewNormalizer(config.DefaultColumnMap(), policy, nil, nil)
	resolver := NewResolver(listings, nil, nil)
	return NewPipeline(normalizer, resolver, merger, store, listings, nil), store, paths
}

func writeUpload(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

const uploadCSV = `Daily Date,Share Code,Closing Price,Total Shares Traded
15/03/2024,GCB,5.50,1000
15/03/2024,PBC**,0.10,200
15/03/2024,ZZZZ,3.00,50
15/03/2024,BAD,5000,10
`

func TestProcessFileEndToEnd(t *testing.T) {
	p, store, paths := newTestPipeline(t)
	path := writeUpload(t, paths.UploadsDir, "daily.csv", uploadCSV)

	report, err := p.ProcessFile(context.Background(), path)
	require.NoError(t, err)

	// GCB and PBC (marker stripped) resolve; ZZZZ and BAD do not
	// survive: ZZZZ is unknown, BAD's close is out of range.
	assert.Equal(t, 2, report.Resolved)
	assert.Equal(t, []string{"ZZZZ"}, report.Unmatched)
	assert.Equal(t, 1, report.Normalize.Dropped[DropReasonOutOfRange])
	assert.Equal(t, 2, report.Merge.Inserted)

	led, err := store.Load(context.Background(), "PBC")
	require.NoError(t, err)
	assert.Equal(t, 1, led.Len())
}

func TestProcessUploadsOldestFirstAndArchives(t *testing.T) {
	p, store, paths := newTestPipeline(t)
	ctx := context.Background()

	older := writeUpload(t, paths.UploadsDir, "day1.csv",
		"Daily Date,Share Code,Closing Price\n15/03/2024,GCB,5.50\n")
	newer := writeUpload(t, paths.UploadsDir, "day1-corrected.csv",
		"Daily Date,Share Code,Closing Price\n15/03/2024,GCB,5.75\n")
	// Make mtimes deterministic.
	now := time.Now()
	require.NoError(t, os.Chtimes(older, now.Add(-2*time.Hour), now.Add(-2*time.Hour)))
	require.NoError(t, os.Chtimes(newer, now.Add(-time.Hour), now.Add(-time.Hour)))

	reports, err := p.ProcessUploads(ctx, paths.UploadsDir)
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, "day1.csv", reports[0].File)

	led, err := store.Load(ctx, "GCB")
	require.NoError(t, err)
	require.Equal(t, 1, led.Len())
	assert.Equal(t, 5.75, led.Quotes[0].Close, "newest upload must win")

	// Processed files are archived out of the queue.
	entries, err := os.ReadDir(paths.UploadsDir)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "processed", entries[0].Name())
}

func TestProcessUploadsContinuesPastFailingFile(t *testing.T) {
	p, store, paths := newTestPipeline(t)
	ctx := context.Background()

	bad := writeUpload(t, paths.UploadsDir, "broken.csv",
		"Daily Date,\"Share Code\n15/03/2024")
	good := writeUpload(t, paths.UploadsDir, "good.csv",
		"Daily Date,Share Code,Closing Price\n15/03/2024,GCB,5.50\n")
	now := time.Now()
	require.NoError(t, os.Chtimes(bad, now.Add(-2*time.Hour), now.Add(-2*time.Hour)))
	require.NoError(t, os.Chtimes(good, now.Add(-time.Hour), now.Add(-time.Hour)))

	_, err := p.ProcessUploads(ctx, paths.UploadsDir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2")

	// The good file was still merged and archived; the bad one stays.
	led, err := store.Load(ctx, "GCB")
	require.NoError(t, err)
	assert.Equal(t, 1, led.Len())
	_, statErr := os.Stat(bad)
	assert.NoError(t, statErr)
}

func TestProcessUploadsEmptyDir(t *testing.T) {
	p, _, paths := newTestPipeline(t)
	reports, err := p.ProcessUploads(context.Background(), paths.UploadsDir)
	require.NoError(t, err)
	assert.Empty(t, reports)
}
