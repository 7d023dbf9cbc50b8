// Package exporter renders campaign analytics summaries for download.
//
// SummaryWriter is the single entry point. It writes a summary either as
// CSV (an overview section followed by the engagement, hourly, campaign
// and location breakdowns, prefixed with a UTF-8 BOM so Excel detects
// the encoding) or as indented JSON wrapped in a small metadata
// envelope.
//
// Example usage:
//
//	w := exporter.NewSummaryWriter(logger)
//
//	// Stream CSV to an HTTP response
//	err := w.Write(rw, exporter.FormatCSV, sessionID, summary)
//
//	// Write a JSON report to disk
//	err = w.WriteFile("out/spring.json", exporter.FormatJSON, sessionID, summary)
package exporter
