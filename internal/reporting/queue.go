package reporting

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/stemsi/compass-backend/internal/config"
	"github.com/stemsi/compass-backend/internal/model"
)

// enqueueTimeout bounds a single hand-off; the tracker calls Send without
// a request context.
const enqueueTimeout = 2 * time.Second

// Queue is the subset of the Redis client the publishers need.
type Queue interface {
	RPush(ctx context.Context, key string, values ...any) *redis.IntCmd
	Publish(ctx context.Context, channel string, message any) *redis.IntCmd
}

// QueueSender pushes tracker batches onto the events queue and fans them
// out to the session's monitor channel. It implements tracker.Sender.
type QueueSender struct {
	q   Queue
	log zerolog.Logger
}

func NewQueueSender(q Queue, log zerolog.Logger) *QueueSender {
	return &QueueSender{q: q, log: log.With().Str("component", "event_sender").Logger()}
}

func (s *QueueSender) Send(batch model.EventBatch) {
	data, err := json.Marshal(batch)
	if err != nil {
		s.log.Error().Err(err).Str("session_id", batch.SessionID).Msg("Failed to encode event batch")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), enqueueTimeout)
	defer cancel()

	if err := s.q.RPush(ctx, config.WorkerKey.PersistEventsQueue, data).Err(); err != nil {
		s.log.Warn().Err(err).
			Str("session_id", batch.SessionID).
			Int("count", len(batch.Events)).
			Msg("Failed to enqueue event batch, dropped")
		return
	}

	// Nobody subscribed is the common case; a publish error is not worth more than debug.
	if err := s.q.Publish(ctx, config.CacheKey.SessionMonitorChannel(batch.SessionID), data).Err(); err != nil {
		s.log.Debug().Err(err).Str("session_id", batch.SessionID).Msg("Monitor publish failed")
	}
}

// ResultPublisher queues completed results for the result worker.
type ResultPublisher struct {
	q   Queue
	log zerolog.Logger
}

func NewResultPublisher(q Queue, log zerolog.Logger) *ResultPublisher {
	return &ResultPublisher{q: q, log: log.With().Str("component", "result_publisher").Logger()}
}

// Publish enqueues the result. It reports whether the hand-off succeeded so
// callers can keep the session mirror when it did not.
func (p *ResultPublisher) Publish(ctx context.Context, result model.AssessmentResult) bool {
	data, err := json.Marshal(NewResultPayload(result))
	if err != nil {
		p.log.Error().Err(err).Str("session_id", result.SessionID.String()).Msg("Failed to encode result")
		return false
	}

	ctx, cancel := context.WithTimeout(ctx, enqueueTimeout)
	defer cancel()

	if err := p.q.RPush(ctx, config.WorkerKey.PersistResultsQueue, data).Err(); err != nil {
		p.log.Warn().Err(err).Str("session_id", result.SessionID.String()).Msg("Failed to enqueue result")
		return false
	}
	_ = p.q.Publish(ctx, config.CacheKey.SessionMonitorChannel(result.SessionID.String()), data).Err()
	return true
}
