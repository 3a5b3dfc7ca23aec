// Package loader parses uploaded tabular files (CSV or XLSX) into a
// column-addressable table and extracts the link column from it.
package loader

import (
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"
)

// linkColumnPriority is the fixed auto-detection order for the link column.
var linkColumnPriority = []string{
	"Post link", "post link", "Post Link", "URL", "url", "Link", "link",
}

// ParseError reports that an uploaded file could not be decoded as
// tabular data.
type ParseError struct {
	Format string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse %s input: %v", e.Format, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// MissingColumnError reports that no recognized link column was found.
// Columns carries the full header list so the caller can offer manual
// selection.
type MissingColumnError struct {
	Columns []string
}

func (e *MissingColumnError) Error() string {
	return fmt.Sprintf("no link column recognized; available columns: %s", strings.Join(e.Columns, ", "))
}

// Table is a parsed tabular file. Columns holds the header row; Rows holds
// the data rows, each padded or truncated to the header width.
type Table struct {
	Columns []string
	Rows    [][]string
}

// Load parses r into a Table, dispatching on the declared filename
// extension: .csv is read as comma-delimited text, .xlsx/.xlsm as a
// spreadsheet workbook (first sheet). The first row is the header.
// Legacy .xls workbooks are rejected with a conversion hint.
func Load(r io.Reader, filename string) (*Table, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	switch ext {
	case ".csv":
		return loadCSV(r)
	case ".xlsx", ".xlsm":
		return loadXLSX(r)
	case ".xls":
		// Legacy BIFF workbooks are not OOXML and cannot be opened here.
		return nil, &ParseError{Format: "xls", Err: fmt.Errorf("legacy .xls workbooks are not supported; convert the file to .xlsx")}
	default:
		return nil, &ParseError{Format: strings.TrimPrefix(ext, "."), Err: fmt.Errorf("unsupported file extension %q", ext)}
	}
}

func loadCSV(r io.Reader) (*Table, error) {
	cr := csv.NewReader(r)
	cr.LazyQuotes = true
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1 // tolerate ragged rows

	records, err := cr.ReadAll()
	if err != nil {
		return nil, &ParseError{Format: "csv", Err: err}
	}
	return newTable(records)
}

func loadXLSX(r io.Reader) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, &ParseError{Format: "xlsx", Err: err}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &ParseError{Format: "xlsx", Err: fmt.Errorf("workbook has no sheets")}
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, &ParseError{Format: "xlsx", Err: err}
	}
	return newTable(rows)
}

func newTable(records [][]string) (*Table, error) {
	if len(records) == 0 {
		return nil, &ParseError{Format: "table", Err: fmt.Errorf("no header row found")}
	}
	header := records[0]
	width := len(header)
	if width == 0 {
		return nil, &ParseError{Format: "table", Err: fmt.Errorf("header row is empty")}
	}

	rows := make([][]string, 0, len(records)-1)
	for _, rec := range records[1:] {
		row := make([]string, width)
		copy(row, rec)
		rows = append(rows, row)
	}
	return &Table{Columns: header, Rows: rows}, nil
}

// DetectLinkColumn returns the first header matching the fixed priority
// list. When none matches it returns a *MissingColumnError carrying the
// full column list for manual selection.
func (t *Table) DetectLinkColumn() (string, error) {
	for _, candidate := range linkColumnPriority {
		for _, col := range t.Columns {
			if col == candidate {
				return col, nil
			}
		}
	}
	cols := make([]string, len(t.Columns))
	copy(cols, t.Columns)
	return "", &MissingColumnError{Columns: cols}
}

// Links extracts the named column in row order, discarding empty cells.
func (t *Table) Links(column string) ([]string, error) {
	idx := -1
	for i, col := range t.Columns {
		if col == column {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("column %q not present in input (available: %s)", column, strings.Join(t.Columns, ", "))
	}

	links := make([]string, 0, len(t.Rows))
	for _, row := range t.Rows {
		if v := row[idx]; strings.TrimSpace(v) != "" {
			links = append(links, v)
		}
	}
	return links, nil
}

// Inspect summarizes the table for the pre-run column selection step.
// detected is empty when no priority header matched.
func (t *Table) Inspect() (columns []string, detected string, linkCount int) {
	columns = make([]string, len(t.Columns))
	copy(columns, t.Columns)

	detected, err := t.DetectLinkColumn()
	if err != nil {
		return columns, "", 0
	}
	links, _ := t.Links(detected)
	return columns, detected, len(links)
}
