package feed

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/sync/singleflight"

	config "github.com/mwantia/trainmap/internal/config/server"
	"github.com/mwantia/trainmap/pkg/db/models"
	"github.com/mwantia/trainmap/pkg/db/store"
	"github.com/mwantia/trainmap/pkg/log"
	"github.com/mwantia/trainmap/pkg/training"
)

const maxPayloadBytes = 32 << 20

// Snapshots is the part of the state store holding the feed_snapshot slot.
type Snapshots interface {
	SaveFeedSnapshot(ctx context.Context, snapshot *models.FeedSnapshot) error
	GetFeedSnapshot(ctx context.Context) (*models.FeedSnapshot, error)
}

type Result struct {
	Feed      *training.Feed
	Source    string
	FetchedAt time.Time
	// Cached is set when the snapshot slot answered the request.
	Cached bool
	// Stale is set when fetching failed and an expired snapshot was used.
	Stale bool
}

type Loader struct {
	source string
	ttl    time.Duration
	client *http.Client
	slots  Snapshots
	group  singleflight.Group
	now    func() time.Time
	log    log.LoggerService
}

func NewLoader(logger log.LoggerService, cfg config.FeedServerConfig, slots Snapshots) *Loader {
	return &Loader{
		source: strings.TrimSpace(cfg.Source),
		ttl:    config.ParseDurationOr(cfg.TTL, 24*time.Hour),
		client: &http.Client{Timeout: config.ParseDurationOr(cfg.Timeout, 15*time.Second)},
		slots:  slots,
		now:    time.Now,
		log:    logger,
	}
}

// Load returns the feed from the snapshot slot while it is fresh, otherwise
// from the source. Concurrent calls share one fetch.
func (l *Loader) Load(ctx context.Context, force bool) (*Result, error) {
	v, err, _ := l.group.Do("feed", func() (any, error) {
		return l.load(ctx, force)
	})
	if err != nil {
		return nil, err
	}
	return v.(*Result), nil
}

func (l *Loader) load(ctx context.Context, force bool) (*Result, error) {
	snapshot := l.snapshot(ctx)
	if !force && snapshot != nil && !snapshot.Expired(l.now()) {
		feed, err := training.DecodeFeed(snapshot.Payload)
		if err == nil {
			l.log.Debug("Using cached feed from %s", snapshot.FetchedAt.Format(time.RFC3339))
			return &Result{Feed: feed, Source: snapshot.Source, FetchedAt: snapshot.FetchedAt, Cached: true}, nil
		}
		l.log.Warn("Discarding corrupt feed snapshot: %v", err)
	}

	payload, err := l.fetch(ctx)
	if err == nil {
		var feed *training.Feed
		if feed, err = training.DecodeFeed(payload); err == nil {
			fetchedAt := l.now()
			l.save(ctx, payload, fetchedAt)
			l.log.Info("Loaded %d trainings from %s", len(feed.Trainings), l.source)
			return &Result{Feed: feed, Source: l.source, FetchedAt: fetchedAt}, nil
		}
	}

	if snapshot != nil {
		if feed, decodeErr := training.DecodeFeed(snapshot.Payload); decodeErr == nil {
			l.log.Warn("Unable to refresh feed, using snapshot from %s: %v", snapshot.FetchedAt.Format(time.RFC3339), err)
			return &Result{Feed: feed, Source: snapshot.Source, FetchedAt: snapshot.FetchedAt, Cached: true, Stale: true}, nil
		}
	}
	return nil, fmt.Errorf("failed to load feed from '%s': %w", l.source, err)
}

func (l *Loader) snapshot(ctx context.Context) *models.FeedSnapshot {
	if l.slots == nil {
		return nil
	}
	snapshot, err := l.slots.GetFeedSnapshot(ctx)
	if err != nil {
		if !errors.Is(err, store.ErrNotFound) {
			l.log.Warn("Unable to read feed snapshot: %v", err)
		}
		return nil
	}
	if snapshot.Source != l.source {
		return nil
	}
	return snapshot
}

func (l *Loader) save(ctx context.Context, payload []byte, fetchedAt time.Time) {
	if l.slots == nil {
		return
	}
	err := l.slots.SaveFeedSnapshot(ctx, &models.FeedSnapshot{
		Slot:      models.SlotFeed,
		Source:    l.source,
		Payload:   payload,
		FetchedAt: fetchedAt,
		ExpiresAt: fetchedAt.Add(l.ttl),
	})
	if err != nil {
		l.log.Warn("Unable to store feed snapshot: %v", err)
	}
}

func (l *Loader) fetch(ctx context.Context) ([]byte, error) {
	if l.source == "" {
		return nil, errors.New("no feed source configured")
	}
	if !strings.HasPrefix(l.source, "http://") && !strings.HasPrefix(l.source, "https://") {
		return os.ReadFile(strings.TrimPrefix(l.source, "file://"))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.source, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("upstream feed error: %d", resp.StatusCode)
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxPayloadBytes))
}
