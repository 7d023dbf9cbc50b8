package services

import "errors"

// Dataset service errors
var (
	// Session errors
	ErrSessionNotFound = errors.New("dataset session not found")
	ErrStoreFull       = errors.New("session store is full")

	// Upload errors
	ErrFileTooLarge = errors.New("uploaded file exceeds the size limit")
	ErrTooManyRows  = errors.New("uploaded file exceeds the row limit")

	// Mapping errors
	ErrInvalidMapping = errors.New("invalid column mapping")

	// Export errors
	ErrInvalidFormat = errors.New("invalid export format")
	ErrNoSummary     = errors.New("no summary available for dataset")

	// WebSocket errors
	ErrWebSocketUpgrade = errors.New("websocket upgrade failed")

	// General errors
	ErrInvalidInput       = errors.New("invalid input")
	ErrServiceUnavailable = errors.New("service temporarily unavailable")
)
