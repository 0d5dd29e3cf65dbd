package worker

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/stemsi/compass-backend/internal/config"
)

const (
	BatchSize     = 50
	BatchTimeout  = 2 * time.Second
	PollTimeout   = 1 * time.Second // Must be >= 1s to satisfy Redis
	redisBackoff  = 3 * time.Second
	shutdownGrace = 5 * time.Second
)

// Popper is the blocking pop the workers consume with.
type Popper interface {
	BLPop(ctx context.Context, timeout time.Duration, keys ...string) *redis.StringSliceCmd
}

// DB is the subset of *pgxpool.Pool the workers write with.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	CopyFrom(ctx context.Context, tableName pgx.Identifier, columnNames []string, rowSrc pgx.CopyFromSource) (int64, error)
}

// loop is the BLPop → buffer → flush cycle shared by every worker. A batch
// is flushed when it reaches size items or has waited for timeout.
type loop[T any] struct {
	q       Popper
	key     string
	size    int
	timeout time.Duration
	log     zerolog.Logger
	decode  func(raw string) (T, error)
	flush   func(ctx context.Context, batch []T)
}

func (l loop[T]) run(ctx context.Context) {
	buffer := make([]T, 0, l.size)
	lastFlush := time.Now()

	for {
		if len(buffer) > 0 && (len(buffer) >= l.size || time.Since(lastFlush) >= l.timeout) {
			l.flush(ctx, buffer)
			buffer = buffer[:0]
			lastFlush = time.Now()
		}

		select {
		case <-ctx.Done():
			l.shutdown(buffer)
			return
		default:
		}

		result, err := l.q.BLPop(ctx, PollTimeout, l.key).Result()
		if err != nil {
			if errors.Is(err, redis.Nil) {
				continue
			}
			if ctx.Err() != nil {
				continue
			}
			l.log.Error().Err(err).Msg("Redis connection error, backing off")
			select {
			case <-ctx.Done():
			case <-time.After(redisBackoff):
			}
			continue
		}

		if len(result) < 2 {
			continue
		}

		item, err := l.decode(result[1])
		if err != nil {
			// Malformed payloads can never succeed; drop them.
			l.log.Error().Err(err).Str("data", result[1]).Msg("Discarding malformed payload")
			continue
		}
		buffer = append(buffer, item)
	}
}

func (l loop[T]) shutdown(buffer []T) {
	if len(buffer) == 0 {
		l.log.Info().Msg("Worker stopped")
		return
	}
	l.log.Info().Int("count", len(buffer)).Msg("Worker stopping, flushing remaining buffer")

	ctx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
	defer cancel()
	l.flush(ctx, buffer)
}

// QueueDepths reads the length of every worker queue in one round trip.
func QueueDepths(ctx context.Context, rdb redis.Cmdable) (map[string]int64, error) {
	keys := []string{config.WorkerKey.PersistEventsQueue, config.WorkerKey.PersistResultsQueue}

	pipe := rdb.Pipeline()
	cmds := make([]*redis.IntCmd, len(keys))
	for i, k := range keys {
		cmds[i] = pipe.LLen(ctx, k)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, err
	}

	out := make(map[string]int64, len(keys))
	for i, k := range keys {
		out[k] = cmds[i].Val()
	}
	return out, nil
}
