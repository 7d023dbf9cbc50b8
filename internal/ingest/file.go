package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ParseFile decodes a file on disk based on its extension.
func ParseFile(path string) (*ParseResult, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv":
		f, err := os.Open(path)
		if err != nil {
			return nil, fmt.Errorf("failed to open file: %w", err)
		}
		defer f.Close()
		return ParseCSV(f)
	case ".xlsx", ".xls":
		return ParseExcelFile(path)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
	}
}
