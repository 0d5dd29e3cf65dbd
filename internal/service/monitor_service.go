package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"

	"github.com/stemsi/compass-backend/internal/config"
	"github.com/stemsi/compass-backend/internal/model"
)

// LiveSource exposes analytics of sessions tracked in this process.
type LiveSource interface {
	LiveAnalytics(sessionID uuid.UUID) (model.SessionAnalytics, bool)
}

// Subscriber opens a Redis Pub/Sub subscription.
type Subscriber interface {
	Subscribe(ctx context.Context, channels ...string) *redis.PubSub
}

// MonitorSnapshot is the first message of a live monitor feed.
type MonitorSnapshot struct {
	Session      model.AssessmentSession   `json:"session"`
	Live         *model.SessionAnalytics   `json:"live_analytics,omitempty"`
	StoredEvents map[model.EventType]int64 `json:"stored_events"`
	RecentEvents []model.InteractionEvent   `json:"recent_events"`
}

// recentEventLimit caps the persisted events replayed in a snapshot.
const recentEventLimit = 20

// MonitorService orchestrates the live session feed for HR.
type MonitorService struct {
	sessions SessionStore
	events   EventStore
	live     LiveSource
	sub      Subscriber
}

// NewMonitorService creates a new MonitorService.
func NewMonitorService(sessions SessionStore, events EventStore, live LiveSource, sub Subscriber) *MonitorService {
	return &MonitorService{sessions: sessions, events: events, live: live, sub: sub}
}

// Snapshot gathers the session row, the stored event counts and the most
// recent stored events concurrently, and adds live analytics when this
// process tracks the session.
func (s *MonitorService) Snapshot(ctx context.Context, sessionID uuid.UUID) (*MonitorSnapshot, error) {
	var (
		session   *model.AssessmentSession
		counts    map[model.EventType]int64
		recent    []model.InteractionEvent
		sessErr   error
		countsErr error
		recentErr error
		wg        sync.WaitGroup
	)

	wg.Add(3)
	go func() {
		defer wg.Done()
		session, sessErr = s.sessions.GetByID(ctx, sessionID)
	}()
	go func() {
		defer wg.Done()
		counts, countsErr = s.events.CountBySession(ctx, sessionID)
	}()
	go func() {
		defer wg.Done()
		recent, recentErr = s.events.ListRecentBySession(ctx, sessionID, recentEventLimit)
	}()
	wg.Wait()

	// The session row is critical; the event views are best-effort.
	if sessErr != nil {
		if errors.Is(sessErr, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", sessErr)
	}

	snap := &MonitorSnapshot{
		Session:      *session,
		StoredEvents: map[model.EventType]int64{},
		RecentEvents: []model.InteractionEvent{},
	}
	if countsErr == nil && counts != nil {
		snap.StoredEvents = counts
	}
	if recentErr == nil && recent != nil {
		snap.RecentEvents = recent
	}
	if a, ok := s.live.LiveAnalytics(sessionID); ok {
		snap.Live = &a
	}
	return snap, nil
}

// Subscribe attaches to the session's event feed. The caller closes it.
func (s *MonitorService) Subscribe(ctx context.Context, sessionID uuid.UUID) *redis.PubSub {
	return s.sub.Subscribe(ctx, config.CacheKey.SessionMonitorChannel(sessionID.String()))
}
