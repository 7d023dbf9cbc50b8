// Package session holds uploaded datasets in memory and keeps their
// analytics summaries current. Every mutation of a session's column
// mapping or filter criteria recomputes the summary synchronously, so a
// session read always observes a summary consistent with its inputs.
package session

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"mailpulse/internal/config"
	"mailpulse/internal/dataprocessing"
	"mailpulse/pkg/contracts/domain"
)

var (
	// ErrNotFound is returned when no session exists for the given ID.
	ErrNotFound = errors.New("session not found")
	// ErrStoreFull is returned when the session cap has been reached.
	ErrStoreFull = errors.New("session store is full")
)

// Notifier receives session lifecycle events. The WebSocket hub
// implements this to push recomputed summaries to clients and to tell
// them when a session is gone.
type Notifier interface {
	NotifySummary(sessionID string, summary *domain.AggregateSummary)
	NotifySessionClosed(sessionID string)
}

// MetricsRecorder receives store and pipeline observations.
type MetricsRecorder interface {
	SetActiveSessions(n int)
	RecordPipelineRun(trigger string, elapsed time.Duration)
}

// Session is a snapshot of one uploaded dataset and its derived state.
// Values returned by the store are copies; mutate only through store
// methods.
type Session struct {
	ID        string                  `json:"id"`
	Filename  string                  `json:"filename"`
	CreatedAt time.Time               `json:"created_at"`
	UpdatedAt time.Time               `json:"updated_at"`
	Headers   []string                `json:"headers"`
	RowCount  int                     `json:"row_count"`
	Mapping   domain.FieldMapping     `json:"mapping"`
	Filters   domain.FilterCriteria   `json:"filters"`
	Summary   *domain.AggregateSummary `json:"-"`

	raw []domain.RawRecord
}

// Store is an in-memory session store with TTL-based expiry.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	cfg      config.SessionConfig
	pipeline *dataprocessing.Pipeline
	notifier Notifier
	metrics  MetricsRecorder
	logger   *slog.Logger

	now func() time.Time
}

// Option configures a Store.
type Option func(*Store)

// WithNotifier sets the notifier that receives summary updates.
func WithNotifier(n Notifier) Option {
	return func(s *Store) { s.notifier = n }
}

// WithMetrics sets the metrics recorder.
func WithMetrics(m MetricsRecorder) Option {
	return func(s *Store) { s.metrics = m }
}

// NewStore creates a session store.
func NewStore(cfg config.SessionConfig, pipeline *dataprocessing.Pipeline, logger *slog.Logger, opts ...Option) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Store{
		sessions: make(map[string]*Session),
		cfg:      cfg,
		pipeline: pipeline,
		logger:   logger.With(slog.String("component", "session_store")),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create registers a new dataset session. Column detection runs against
// the headers and the initial summary is computed before the session
// becomes visible.
func (s *Store) Create(ctx context.Context, filename string, headers []string, raw []domain.RawRecord) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.sessions) >= s.cfg.MaxSessions {
		return Session{}, ErrStoreFull
	}

	now := s.now()
	sess := &Session{
		ID:        uuid.New().String(),
		Filename:  filename,
		CreatedAt: now,
		UpdatedAt: now,
		Headers:   headers,
		RowCount:  len(raw),
		Mapping:   dataprocessing.DetectColumns(headers),
		Filters:   domain.FilterCriteria{},
		raw:       raw,
	}
	s.recomputeLocked(ctx, sess, "upload")
	s.sessions[sess.ID] = sess
	s.recordGaugeLocked()

	s.logger.InfoContext(ctx, "session created",
		slog.String("session_id", sess.ID),
		slog.String("filename", filename),
		slog.Int("rows", len(raw)),
		slog.Int("mapped_fields", len(sess.Mapping)),
	)

	return *sess, nil
}

// Get returns a copy of the session and refreshes its expiry clock.
func (s *Store) Get(id string) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}
	sess.UpdatedAt = s.now()
	return *sess, nil
}

// UpdateMapping replaces the session's column mapping and recomputes the
// summary before returning.
func (s *Store) UpdateMapping(ctx context.Context, id string, mapping domain.FieldMapping) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}

	sess.Mapping = mapping
	sess.UpdatedAt = s.now()
	s.recomputeLocked(ctx, sess, "mapping_update")

	s.notify(sess)
	return *sess, nil
}

// UpdateFilters replaces the session's filter criteria and recomputes the
// summary before returning.
func (s *Store) UpdateFilters(ctx context.Context, id string, criteria domain.FilterCriteria) (Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	sess, ok := s.sessions[id]
	if !ok {
		return Session{}, ErrNotFound
	}

	sess.Filters = criteria
	sess.UpdatedAt = s.now()
	s.recomputeLocked(ctx, sess, "filter_update")

	s.notify(sess)
	return *sess, nil
}

// Delete removes a session.
func (s *Store) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.sessions[id]; !ok {
		return ErrNotFound
	}
	delete(s.sessions, id)
	s.recordGaugeLocked()
	if s.notifier != nil {
		s.notifier.NotifySessionClosed(id)
	}
	return nil
}

// Len returns the number of live sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// StartSweeper runs TTL-based eviction until ctx is cancelled.
func (s *Store) StartSweeper(ctx context.Context) {
	interval := s.cfg.SweepInterval
	if interval <= 0 {
		interval = time.Minute
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Sweep(ctx)
		}
	}
}

// Sweep evicts sessions idle for longer than the configured TTL and
// returns the number removed.
func (s *Store) Sweep(ctx context.Context) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	cutoff := s.now().Add(-s.cfg.TTL)
	removed := 0
	for id, sess := range s.sessions {
		if sess.UpdatedAt.Before(cutoff) {
			delete(s.sessions, id)
			removed++
			if s.notifier != nil {
				s.notifier.NotifySessionClosed(id)
			}
			s.logger.InfoContext(ctx, "session expired",
				slog.String("session_id", id),
				slog.Time("last_access", sess.UpdatedAt),
			)
		}
	}
	if removed > 0 {
		s.recordGaugeLocked()
	}
	return removed
}

// recomputeLocked runs the analytics pipeline for the session. Caller
// must hold the write lock. A nil pipeline result (no raw records) keeps
// the previous summary in place.
func (s *Store) recomputeLocked(ctx context.Context, sess *Session, trigger string) {
	start := s.now()
	if summary := s.pipeline.Process(ctx, sess.raw, sess.Mapping, sess.Filters); summary != nil {
		sess.Summary = summary
	}
	if s.metrics != nil {
		s.metrics.RecordPipelineRun(trigger, s.now().Sub(start))
	}
}

func (s *Store) recordGaugeLocked() {
	if s.metrics != nil {
		s.metrics.SetActiveSessions(len(s.sessions))
	}
}

func (s *Store) notify(sess *Session) {
	if s.notifier != nil {
		s.notifier.NotifySummary(sess.ID, sess.Summary)
	}
}
