package template

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/xuri/excelize/v2"
)

// Fill loads a pristine template workbook from tmpl, clears every data row
// of the named sheet (the header row stays), writes the links into column A
// starting at row 2 in order, and serializes the result.
//
// Each call opens its own workbook from the template bytes, so no state is
// carried between batches and the template itself is never mutated.
func Fill(tmpl []byte, sheet string, links []string) ([]byte, error) {
	f, err := excelize.OpenReader(bytes.NewReader(tmpl))
	if err != nil {
		return nil, fmt.Errorf("open template workbook: %w", err)
	}
	defer f.Close()

	idx, err := f.GetSheetIndex(sheet)
	if err != nil {
		return nil, fmt.Errorf("look up sheet %q: %w", sheet, err)
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: %q", ErrSheetNotFound, sheet)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("read sheet %q: %w", sheet, err)
	}

	// GetRows trims trailing rows that carry only formatting, so the clear
	// bound also has to honor the sheet dimension, which covers styled but
	// empty cells.
	maxRow := len(rows)
	if dim, err := f.GetSheetDimension(sheet); err == nil {
		if i := strings.Index(dim, ":"); i >= 0 {
			if _, row, err := excelize.CellNameToCoordinates(dim[i+1:]); err == nil && row > maxRow {
				maxRow = row
			}
		}
	}

	// Remove rows 2..max bottom-up so remaining row numbers stay stable.
	for row := maxRow; row >= 2; row-- {
		if err := f.RemoveRow(sheet, row); err != nil {
			return nil, fmt.Errorf("clear row %d: %w", row, err)
		}
	}

	for i, link := range links {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return nil, fmt.Errorf("address row %d: %w", i+2, err)
		}
		if err := f.SetCellStr(sheet, cell, link); err != nil {
			return nil, fmt.Errorf("write link at %s: %w", cell, err)
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("serialize workbook: %w", err)
	}
	return buf.Bytes(), nil
}
