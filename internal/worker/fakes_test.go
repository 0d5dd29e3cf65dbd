package worker

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"

	"github.com/stemsi/compass-backend/internal/model"
	"github.com/stemsi/compass-backend/internal/reporting"
)

// fakeQueue serves items in order and cancels the worker once drained, so
// Start returns after the shutdown flush.
type fakeQueue struct {
	mu     sync.Mutex
	items  []string
	cancel context.CancelFunc
	keys   []string
}

func (q *fakeQueue) BLPop(_ context.Context, _ time.Duration, keys ...string) *redis.StringSliceCmd {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.keys = append(q.keys, keys...)
	if len(q.items) == 0 {
		q.cancel()
		return redis.NewStringSliceResult(nil, redis.Nil)
	}
	item := q.items[0]
	q.items = q.items[1:]
	return redis.NewStringSliceResult([]string{keys[0], item}, nil)
}

type execCall struct {
	sql  string
	args []any
}

type fakeDB struct {
	mu       sync.Mutex
	copyErr  error
	execErr  func(call execCall) error
	copied   [][]any
	execs    []execCall
	copyCols []string
}

func (d *fakeDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	call := execCall{sql: sql, args: args}
	if d.execErr != nil {
		if err := d.execErr(call); err != nil {
			return pgconn.CommandTag{}, err
		}
	}
	d.execs = append(d.execs, call)
	return pgconn.NewCommandTag("INSERT 0 1"), nil
}

func (d *fakeDB) CopyFrom(_ context.Context, _ pgx.Identifier, cols []string, src pgx.CopyFromSource) (int64, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.copyCols = cols
	if d.copyErr != nil {
		return 0, d.copyErr
	}
	var n int64
	for src.Next() {
		vals, err := src.Values()
		if err != nil {
			return n, err
		}
		d.copied = append(d.copied, vals)
		n++
	}
	return n, src.Err()
}

type fakeSink struct {
	mu      sync.Mutex
	enabled bool
	err     error
	events  [][]model.EventBatch
	results []reporting.ResultPayload
}

func (s *fakeSink) Enabled() bool { return s.enabled }

func (s *fakeSink) SendEvents(_ context.Context, batches []model.EventBatch) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, batches)
	return s.err
}

func (s *fakeSink) SendResult(_ context.Context, r reporting.ResultPayload) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, r)
	return s.err
}

type fakeMirror struct {
	mu      sync.Mutex
	cleared []string
}

func (m *fakeMirror) Clear(_ context.Context, sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cleared = append(m.cleared, sessionID)
}

type fakeCache struct {
	mu      sync.Mutex
	deleted []string
}

func (c *fakeCache) Del(_ context.Context, keys ...string) *redis.IntCmd {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.deleted = append(c.deleted, keys...)
	return redis.NewIntResult(int64(len(keys)), nil)
}
