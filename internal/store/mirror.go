// Package store keeps the reload-survival mirror of a live session in Redis.
//
// Each session has two JSON blobs, the answer set and the tracker snapshot.
// Both are overwritten wholesale; the last writer wins.
package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/stemsi/compass-backend/internal/config"
	"github.com/stemsi/compass-backend/internal/model"
	"github.com/stemsi/compass-backend/internal/tracker"
)

// Mirror is the session-scoped key-value mirror. Save operations never fail
// the caller; errors are logged at WARN.
type Mirror interface {
	SaveAnswers(ctx context.Context, sessionID string, answers model.AnswerSet)
	LoadAnswers(ctx context.Context, sessionID string) (model.AnswerSet, error)
	SaveAnalytics(ctx context.Context, snap tracker.Snapshot)
	LoadAnalytics(ctx context.Context, sessionID string) (tracker.Snapshot, error)
	Clear(ctx context.Context, sessionID string)
}

// ErrNotMirrored is returned by the Load methods when the key is absent.
var ErrNotMirrored = errors.New("session not mirrored")

// KV is the subset of the Redis client used by the mirror.
type KV interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
}

type RedisMirror struct {
	kv  KV
	ttl time.Duration
	log zerolog.Logger
}

func NewRedisMirror(kv KV, ttl time.Duration, log zerolog.Logger) *RedisMirror {
	return &RedisMirror{
		kv:  kv,
		ttl: ttl,
		log: log.With().Str("component", "session_mirror").Logger(),
	}
}

func (m *RedisMirror) SaveAnswers(ctx context.Context, sessionID string, answers model.AnswerSet) {
	if answers == nil {
		answers = model.AnswerSet{}
	}
	m.put(ctx, sessionID, config.CacheKey.SessionAnswersKey(sessionID), answers)
}

func (m *RedisMirror) LoadAnswers(ctx context.Context, sessionID string) (model.AnswerSet, error) {
	var answers model.AnswerSet
	if err := m.get(ctx, config.CacheKey.SessionAnswersKey(sessionID), &answers); err != nil {
		return nil, err
	}
	if answers == nil {
		answers = model.AnswerSet{}
	}
	return answers, nil
}

func (m *RedisMirror) SaveAnalytics(ctx context.Context, snap tracker.Snapshot) {
	m.put(ctx, snap.SessionID, config.CacheKey.SessionAnalyticsKey(snap.SessionID), snap)
}

func (m *RedisMirror) LoadAnalytics(ctx context.Context, sessionID string) (tracker.Snapshot, error) {
	raw, err := m.kv.Get(ctx, config.CacheKey.SessionAnalyticsKey(sessionID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return tracker.Snapshot{}, ErrNotMirrored
	}
	if err != nil {
		return tracker.Snapshot{}, fmt.Errorf("get analytics mirror: %w", err)
	}
	return tracker.UnmarshalSnapshot(raw)
}

// Clear removes both blobs once the result is durably stored.
func (m *RedisMirror) Clear(ctx context.Context, sessionID string) {
	err := m.kv.Del(ctx,
		config.CacheKey.SessionAnswersKey(sessionID),
		config.CacheKey.SessionAnalyticsKey(sessionID),
	).Err()
	if err != nil {
		m.log.Warn().Err(err).Str("session_id", sessionID).Msg("Failed to clear session mirror")
	}
}

func (m *RedisMirror) put(ctx context.Context, sessionID, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		m.log.Warn().Err(err).Str("session_id", sessionID).Str("key", key).Msg("Failed to encode mirror blob")
		return
	}
	if err := m.kv.Set(ctx, key, data, m.ttl).Err(); err != nil {
		m.log.Warn().Err(err).Str("session_id", sessionID).Str("key", key).Msg("Failed to write session mirror")
	}
}

func (m *RedisMirror) get(ctx context.Context, key string, dst any) error {
	raw, err := m.kv.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrNotMirrored
	}
	if err != nil {
		return fmt.Errorf("get mirror %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode mirror %s: %w", key, err)
	}
	return nil
}
