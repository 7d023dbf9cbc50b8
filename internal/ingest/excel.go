package ingest

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"
)

// ParseExcel decodes a spreadsheet export. Only the first sheet is read,
// matching what campaign tools put in their exports.
func ParseExcel(r io.Reader) (*ParseResult, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to open spreadsheet: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}

	return rowsToResult(rows)
}

// ParseExcelFile decodes a spreadsheet from disk. Used by the batch
// processor; the HTTP path goes through ParseExcel.
func ParseExcelFile(path string) (*ParseResult, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, ErrEmptyFile
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheets[0], err)
	}

	return rowsToResult(rows)
}
