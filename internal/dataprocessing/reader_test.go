package dataprocessing

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestReadCSVFileStripsBOMAndPadsShortRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.csv")
	content := "\xEF\xBB\xBFDaily Date,Share Code,Closing Price\n15/03/2024,GCB\n16/03/2024,GCB,5.60\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	rows, err := ReadCSVFile(path)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, "15/03/2024", rows[0]["Daily Date"])
	assert.Equal(t, "", rows[0]["Closing Price"])
	assert.Equal(t, "5.60", rows[1]["Closing Price"])
}

func TestReadCSVFileSkipsEmptyRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.csv")
	content := "Daily Date,Share Code\n,\n15/03/2024,GCB\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	rows, err := ReadCSVFile(path)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "GCB", rows[0]["Share Code"])
}

func TestReadXLSXFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "in.xlsx")

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]interface{}{"Daily Date", "Share Code", "Closing Price"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]interface{}{"15/03/2024", "GCB", 5.5}))
	require.NoError(t, f.SaveAs(path))

	rows, err := ReadXLSXFile(path)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, "GCB", rows[0]["Share Code"])
	assert.Equal(t, "5.5", rows[0]["Closing Price"])
}

func TestReadTabularFileRejectsUnknownExtension(t *testing.T) {
	_, err := ReadTabularFile("report.pdf")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported file type")
}
