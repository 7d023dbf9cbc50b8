package dataprocessing

import (
	"mailpulse/pkg/contracts/domain"
)

// NormalizeRecords reshapes raw rows onto the semantic schema using the
// confirmed mapping. Output is 1:1 with the input, preserving order: no
// drops, no merges. For each mapped field the raw value is copied verbatim
// when the column is present in the row; unmapped fields and columns absent
// from a given row are simply omitted, never set to a placeholder. No type
// coercion happens here: timestamps stay as provided for the aggregator to
// parse.
func NormalizeRecords(raw []domain.RawRecord, mapping domain.FieldMapping) []domain.NormalizedRecord {
	normalized := make([]domain.NormalizedRecord, 0, len(raw))

	for _, row := range raw {
		record := make(domain.NormalizedRecord, len(mapping))
		for _, field := range domain.Fields {
			column, ok := mapping.Column(field)
			if !ok {
				continue
			}
			if value, present := row[column]; present {
				record[field] = value
			}
		}
		normalized = append(normalized, record)
	}

	return normalized
}
