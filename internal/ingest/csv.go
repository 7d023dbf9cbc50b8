package ingest

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
)

// utf8BOM is stripped from the start of CSV input; spreadsheet tools
// commonly prepend it on export.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ParseCSV decodes a delimited-text export. Rows may have varying field
// counts; short rows simply omit the trailing columns.
func ParseCSV(r io.Reader) (*ParseResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV input: %w", err)
	}
	data = bytes.TrimPrefix(data, utf8BOM)

	reader := csv.NewReader(bytes.NewReader(data))
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse CSV input: %w", err)
	}

	return rowsToResult(rows)
}
