// Package ingest decodes uploaded campaign export files (CSV or Excel)
// into raw records for the processing pipeline. The first row is always
// treated as the header row; cells are kept as strings verbatim. Shape
// problems (empty file, header without data) are reported here so they
// surface to the user before the pipeline ever runs.
package ingest

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"mailpulse/pkg/contracts/domain"
)

var (
	// ErrUnsupportedFormat is returned for file extensions the ingester
	// does not handle.
	ErrUnsupportedFormat = errors.New("unsupported file format, expected .csv, .xlsx or .xls")
	// ErrEmptyFile is returned when the file holds no rows at all.
	ErrEmptyFile = errors.New("file contains no rows")
	// ErrNoDataRows is returned when the file holds a header row only.
	ErrNoDataRows = errors.New("file contains a header row but no data rows")
	// ErrNoHeaders is returned when the header row is entirely blank.
	ErrNoHeaders = errors.New("file header row is empty")
)

// ParseResult is a decoded file: the header row in source order plus one
// raw record per data row.
type ParseResult struct {
	Headers []string
	Records []domain.RawRecord
}

// Parse decodes the reader based on the filename extension.
func Parse(r io.Reader, filename string) (*ParseResult, error) {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".csv":
		return ParseCSV(r)
	case ".xlsx", ".xls":
		return ParseExcel(r)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filename)
	}
}

// rowsToResult converts a header row plus data rows into raw records.
// Short rows omit the trailing columns (missing key, not empty value);
// cells beyond the header width are dropped. Blank header cells are
// skipped so they can never become record keys.
func rowsToResult(rows [][]string) (*ParseResult, error) {
	if len(rows) == 0 {
		return nil, ErrEmptyFile
	}

	headers := make([]string, 0, len(rows[0]))
	for _, h := range rows[0] {
		if strings.TrimSpace(h) != "" {
			headers = append(headers, h)
		}
	}
	if len(headers) == 0 {
		return nil, ErrNoHeaders
	}

	if len(rows) == 1 {
		return nil, ErrNoDataRows
	}

	records := make([]domain.RawRecord, 0, len(rows)-1)
	for _, row := range rows[1:] {
		record := make(domain.RawRecord, len(headers))
		col := 0
		for _, header := range rows[0] {
			if col >= len(row) {
				break
			}
			if strings.TrimSpace(header) != "" {
				record[header] = row[col]
			}
			col++
		}
		records = append(records, record)
	}

	return &ParseResult{Headers: headers, Records: records}, nil
}
