package dataprocessing

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// RawRow is one source row: a mapping of source header strings to raw
// cell text, before any renaming or type coercion.
type RawRow map[string]string

// ReadTabularFile reads a CSV or XLSX file into raw rows, dispatching
// on the file extension.
func ReadTabularFile(path string) ([]RawRow, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		return ReadCSVFile(path)
	case ".xlsx":
		return ReadXLSXFile(path)
	default:
		return nil, fmt.Errorf("unsupported file type: %s", filepath.Ext(path))
	}
}

// ReadCSVFile reads a CSV file into raw rows. The first row is the
// header; a UTF-8 BOM on the header is stripped. Rows shorter than the
// header are padded with empty cells, longer rows are truncated.
func ReadCSVFile(path string) ([]RawRow, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read csv file: %w", err)
	}
	content = bytes.TrimPrefix(content, []byte{0xEF, 0xBB, 0xBF})

	reader := csv.NewReader(bytes.NewReader(content))
	reader.FieldsPerRecord = -1

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse csv %s: %w", filepath.Base(path), err)
	}
	return rowsFromCells(records), nil
}

// ReadXLSXFile reads the first sheet of an XLSX workbook into raw rows.
func ReadXLSXFile(path string) ([]RawRow, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook %s has no sheets", filepath.Base(path))
	}
	cells, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("read sheet %s: %w", sheets[0], err)
	}
	return rowsFromCells(cells), nil
}

// rowsFromCells converts a header row plus data rows into RawRows.
func rowsFromCells(cells [][]string) []RawRow {
	if len(cells) == 0 {
		return nil
	}

	header := make([]string, len(cells[0]))
	for i, h := range cells[0] {
		header[i] = strings.TrimSpace(h)
	}

	var rows []RawRow
	for _, cell := range cells[1:] {
		row := make(RawRow, len(header))
		empty := true
		for i, name := range header {
			if name == "" {
				continue
			}
			var v string
			if i < len(cell) {
				v = strings.TrimSpace(cell[i])
			}
			if v != "" {
				empty = false
			}
			row[name] = v
		}
		if !empty {
			rows = append(rows, row)
		}
	}
	return rows
}
