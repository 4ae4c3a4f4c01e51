package feed

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	config "github.com/mwantia/trainmap/internal/config/server"
	"github.com/mwantia/trainmap/pkg/db/models"
	"github.com/mwantia/trainmap/pkg/db/store"
	"github.com/mwantia/trainmap/pkg/log"
)

const payload = `{"trainings":[{"id":1,"wochentag":"Montag","von":"18:00","bis":"19:00","training":"Judo","ort":"Halle A"}]}`

type memSnapshots struct {
	snapshot *models.FeedSnapshot
}

func (m *memSnapshots) SaveFeedSnapshot(_ context.Context, s *models.FeedSnapshot) error {
	copied := *s
	m.snapshot = &copied
	return nil
}

func (m *memSnapshots) GetFeedSnapshot(context.Context) (*models.FeedSnapshot, error) {
	if m.snapshot == nil {
		return nil, store.ErrNotFound
	}
	copied := *m.snapshot
	return &copied, nil
}

func testLogger() log.LoggerService {
	return log.NewLoggerService("test", config.LogServerConfig{Level: "fatal", NoTerminal: true, NoColor: true})
}

func TestLoadFromHTTPCachesSnapshot(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(payload))
	}))
	defer srv.Close()

	slots := &memSnapshots{}
	loader := NewLoader(testLogger(), config.FeedServerConfig{Source: srv.URL, TTL: "1h"}, slots)

	res, err := loader.Load(context.Background(), false)
	require.NoError(t, err)
	assert.False(t, res.Cached)
	require.Len(t, res.Feed.Trainings, 1)
	require.NotNil(t, slots.snapshot)
	assert.Equal(t, srv.URL, slots.snapshot.Source)

	res, err = loader.Load(context.Background(), false)
	require.NoError(t, err)
	assert.True(t, res.Cached)
	assert.Equal(t, int32(1), atomic.LoadInt32(&hits))

	_, err = loader.Load(context.Background(), true)
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&hits))
}

func TestLoadFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "trainings.json")
	require.NoError(t, os.WriteFile(path, []byte(`[{"id":7,"training":"Yoga"}]`), 0644))

	loader := NewLoader(testLogger(), config.FeedServerConfig{Source: path}, nil)
	res, err := loader.Load(context.Background(), false)
	require.NoError(t, err)
	require.Len(t, res.Feed.Trainings, 1)
	assert.Equal(t, 7, res.Feed.Trainings[0].ID)
}

func TestLoadFallsBackToExpiredSnapshot(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	slots := &memSnapshots{snapshot: &models.FeedSnapshot{
		Slot:      models.SlotFeed,
		Source:    srv.URL,
		Payload:   []byte(payload),
		FetchedAt: time.Now().Add(-48 * time.Hour),
		ExpiresAt: time.Now().Add(-24 * time.Hour),
	}}

	loader := NewLoader(testLogger(), config.FeedServerConfig{Source: srv.URL}, slots)
	res, err := loader.Load(context.Background(), false)
	require.NoError(t, err)
	assert.True(t, res.Stale)
	assert.Len(t, res.Feed.Trainings, 1)
}

func TestLoadIgnoresSnapshotOfOtherSource(t *testing.T) {
	slots := &memSnapshots{snapshot: &models.FeedSnapshot{
		Source:    "https://elsewhere.example/feed.json",
		Payload:   []byte(payload),
		ExpiresAt: time.Now().Add(time.Hour),
	}}

	loader := NewLoader(testLogger(), config.FeedServerConfig{Source: filepath.Join(t.TempDir(), "missing.json")}, slots)
	_, err := loader.Load(context.Background(), false)
	assert.Error(t, err)
}
