// Package dataprocessing implements the email-campaign analytics pipeline.
// It turns raw tabular rows into a single aggregate summary through four
// stages composed by the Pipeline type.
//
// # Architecture
//
// 1. Matcher: scores file headers against per-field pattern sets and
// proposes a best-effort column mapping
// 2. Normalizer: applies a confirmed mapping to reshape raw rows onto the
// fixed semantic schema
// 3. Filter: narrows the normalized set by campaign, date range, and
// email provider
// 4. Aggregator: computes totals, rates, bounce classification, and the
// four grouped breakdowns
//
// # Usage
//
// Detect a mapping from file headers:
//
//	mapping := dataprocessing.DetectColumns(headers)
//
// Run the whole pipeline:
//
//	pipeline := dataprocessing.NewPipeline(logger)
//	summary := pipeline.Process(ctx, rawRecords, mapping, criteria)
//
// # Data Flow
//
//	RawRecords + FieldMapping + FilterCriteria → Normalizer → Filter → Aggregator → AggregateSummary
//
// # Error Handling
//
// The pipeline never returns errors. Malformed timestamps and missing
// fields degrade to documented defaults: rows with unparsable timestamps
// pass the date filter, unparsable open times are skipped by the hourly
// histogram, and unparseable date buckets collapse to "Unknown". Every run
// yields a complete, well-typed summary for any input.
//
// # Concurrency
//
// Every stage is a pure function of its inputs and shares no state between
// calls, so the pipeline is safe to invoke concurrently from independent
// inputs.
package dataprocessing
