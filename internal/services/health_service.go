package services

import (
	"context"
	"log/slog"
	"runtime"
	"time"
)

// SessionCounter reports the number of live dataset sessions.
type SessionCounter interface {
	Len() int
}

// ClientCounter reports the number of connected WebSocket clients.
type ClientCounter interface {
	ClientCount() int
}

// HealthService provides health check functionality
type HealthService struct {
	version   string
	buildTime string
	sessions  SessionCounter
	clients   ClientCounter
	startTime time.Time
	logger    *slog.Logger
}

// HealthStatus represents the health status response
type HealthStatus struct {
	Status    string                 `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Version   string                 `json:"version"`
	BuildTime string                 `json:"build_time,omitempty"`
	Runtime   map[string]interface{} `json:"runtime,omitempty"`
	Services  map[string]interface{} `json:"services,omitempty"`
}

// NewHealthService creates a new health service with injected dependencies.
func NewHealthService(version, buildTime string, sessions SessionCounter, clients ClientCounter, logger *slog.Logger) *HealthService {
	if logger == nil {
		logger = slog.Default()
	}
	return &HealthService{
		version:   version,
		buildTime: buildTime,
		sessions:  sessions,
		clients:   clients,
		startTime: time.Now(),
		logger:    logger.With(slog.String("component", "health_service")),
	}
}

// Check returns the current health status.
func (h *HealthService) Check(ctx context.Context) HealthStatus {
	status := HealthStatus{
		Status:    "healthy",
		Timestamp: time.Now().UTC(),
		Version:   h.version,
		BuildTime: h.buildTime,
		Runtime: map[string]interface{}{
			"go_version":     runtime.Version(),
			"os":             runtime.GOOS,
			"arch":           runtime.GOARCH,
			"goroutines":     runtime.NumGoroutine(),
			"uptime_seconds": time.Since(h.startTime).Seconds(),
		},
		Services: map[string]interface{}{},
	}

	if h.sessions != nil {
		status.Services["sessions"] = map[string]interface{}{
			"status": "up",
			"active": h.sessions.Len(),
		}
	}
	if h.clients != nil {
		status.Services["websocket"] = map[string]interface{}{
			"status":  "up",
			"clients": h.clients.ClientCount(),
		}
	}

	return status
}
