package session

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"mailpulse/internal/config"
	"mailpulse/internal/dataprocessing"
	"mailpulse/pkg/contracts/domain"
)

func testStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))
	cfg := config.SessionConfig{
		TTL:           time.Hour,
		SweepInterval: time.Minute,
		MaxSessions:   3,
	}
	return NewStore(cfg, dataprocessing.NewPipeline(logger), logger, opts...)
}

func sampleUpload() ([]string, []domain.RawRecord) {
	headers := []string{"Email", "Status", "Campaign Name", "Opened At"}
	raw := []domain.RawRecord{
		{"Email": "a@gmail.com", "Status": "delivered", "Campaign Name": "Spring", "Opened At": "2024-03-05T10:00:00Z"},
		{"Email": "b@yahoo.com", "Status": "bounced", "Campaign Name": "Spring"},
		{"Email": "c@gmail.com", "Status": "delivered", "Campaign Name": "Summer"},
	}
	return headers, raw
}

type recordingNotifier struct {
	calls  []string
	closed []string
}

func (n *recordingNotifier) NotifySummary(sessionID string, _ *domain.AggregateSummary) {
	n.calls = append(n.calls, sessionID)
}

func (n *recordingNotifier) NotifySessionClosed(sessionID string) {
	n.closed = append(n.closed, sessionID)
}

func TestStore_CreateDetectsColumnsAndComputesSummary(t *testing.T) {
	store := testStore(t)
	headers, raw := sampleUpload()

	sess, err := store.Create(context.Background(), "spring.csv", headers, raw)
	require.NoError(t, err)

	assert.NotEmpty(t, sess.ID)
	assert.Equal(t, "spring.csv", sess.Filename)
	assert.Equal(t, 3, sess.RowCount)

	col, ok := sess.Mapping.Column(domain.FieldEmailAddress)
	require.True(t, ok)
	assert.Equal(t, "Email", col)

	require.NotNil(t, sess.Summary)
	assert.Equal(t, 3, sess.Summary.TotalSent)
	assert.Equal(t, 2, sess.Summary.TotalDelivered)
}

func TestStore_GetUnknownID(t *testing.T) {
	store := testStore(t)
	_, err := store.Get("nope")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStore_UpdateMappingRecomputes(t *testing.T) {
	store := testStore(t)
	headers, raw := sampleUpload()

	sess, err := store.Create(context.Background(), "spring.csv", headers, raw)
	require.NoError(t, err)

	// Unmap the status column: every record counts as delivered.
	updated, err := store.UpdateMapping(context.Background(), sess.ID, domain.FieldMapping{
		domain.FieldEmailAddress: "Email",
	})
	require.NoError(t, err)
	require.NotNil(t, updated.Summary)
	assert.Equal(t, 3, updated.Summary.TotalDelivered)
}

func TestStore_UpdateFiltersRecomputesAndNotifies(t *testing.T) {
	notifier := &recordingNotifier{}
	store := testStore(t, WithNotifier(notifier))
	headers, raw := sampleUpload()

	sess, err := store.Create(context.Background(), "spring.csv", headers, raw)
	require.NoError(t, err)

	updated, err := store.UpdateFilters(context.Background(), sess.ID, domain.FilterCriteria{
		Campaigns: []string{"Spring"},
	})
	require.NoError(t, err)
	require.NotNil(t, updated.Summary)
	assert.Equal(t, 2, updated.Summary.TotalSent)
	assert.Equal(t, []string{sess.ID}, notifier.calls)
}

func TestStore_MaxSessions(t *testing.T) {
	store := testStore(t)
	headers, raw := sampleUpload()

	for i := 0; i < 3; i++ {
		_, err := store.Create(context.Background(), "f.csv", headers, raw)
		require.NoError(t, err)
	}

	_, err := store.Create(context.Background(), "overflow.csv", headers, raw)
	assert.ErrorIs(t, err, ErrStoreFull)
	assert.Equal(t, 3, store.Len())
}

func TestStore_Delete(t *testing.T) {
	notifier := &recordingNotifier{}
	store := testStore(t, WithNotifier(notifier))
	headers, raw := sampleUpload()

	sess, err := store.Create(context.Background(), "f.csv", headers, raw)
	require.NoError(t, err)

	require.NoError(t, store.Delete(sess.ID))
	assert.Equal(t, 0, store.Len())
	assert.Equal(t, []string{sess.ID}, notifier.closed)
	assert.ErrorIs(t, store.Delete(sess.ID), ErrNotFound)
}

func TestStore_SweepEvictsIdleSessions(t *testing.T) {
	store := testStore(t)
	headers, raw := sampleUpload()

	current := time.Now()
	store.now = func() time.Time { return current }

	sess, err := store.Create(context.Background(), "old.csv", headers, raw)
	require.NoError(t, err)

	// Not yet expired.
	current = current.Add(30 * time.Minute)
	assert.Equal(t, 0, store.Sweep(context.Background()))

	// Reading refreshes the expiry clock.
	_, err = store.Get(sess.ID)
	require.NoError(t, err)

	current = current.Add(59 * time.Minute)
	assert.Equal(t, 0, store.Sweep(context.Background()))

	current = current.Add(2 * time.Minute)
	assert.Equal(t, 1, store.Sweep(context.Background()))
	assert.Equal(t, 0, store.Len())
}

func TestStore_EmptyDatasetYieldsNilSummary(t *testing.T) {
	store := testStore(t)

	sess, err := store.Create(context.Background(), "empty.csv", []string{"Email"}, nil)
	require.NoError(t, err)
	assert.Nil(t, sess.Summary)
}

func TestStore_RecomputeWithoutRecordsKeepsSummary(t *testing.T) {
	store := testStore(t)
	headers, raw := sampleUpload()

	sess, err := store.Create(context.Background(), "spring.csv", headers, raw)
	require.NoError(t, err)

	store.mu.Lock()
	stored := store.sessions[sess.ID]
	stored.raw = nil
	store.recomputeLocked(context.Background(), stored, "filters")
	store.mu.Unlock()

	require.NotNil(t, stored.Summary)
	assert.Equal(t, 3, stored.Summary.TotalSent)
}
