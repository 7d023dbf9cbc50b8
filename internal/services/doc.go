// Package services contains the application service layer sitting between
// the HTTP transport and the session store.
//
// DatasetService is the main facade: it parses uploads, manages dataset
// sessions and streams exports. HealthService reports process and
// component health. Services return the package's sentinel errors so the
// transport layer can map them to HTTP status codes without inspecting
// error strings.
package services
