package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/redis/go-redis/v9"

	"github.com/stemsi/compass-backend/internal/model"
	"github.com/stemsi/compass-backend/internal/store"
	"github.com/stemsi/compass-backend/internal/tracker"
)

// ─── Sessions ────────────────────────────────────────────────────────────────

type fakeSessions struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*model.AssessmentSession
	now  func() time.Time
}

func newFakeSessions(now func() time.Time) *fakeSessions {
	return &fakeSessions{rows: map[uuid.UUID]*model.AssessmentSession{}, now: now}
}

func (f *fakeSessions) Create(_ context.Context, s *model.AssessmentSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	s.ID = uuid.New()
	s.Status = model.SessionStatusInProgress
	s.StartedAt = f.now()
	cp := *s
	f.rows[s.ID] = &cp
	return nil
}

func (f *fakeSessions) GetByID(_ context.Context, id uuid.UUID) (*model.AssessmentSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.rows[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	cp := *s
	return &cp, nil
}

func (f *fakeSessions) Complete(_ context.Context, id uuid.UUID, at time.Time) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.rows[id]
	if !ok || s.Status != model.SessionStatusInProgress {
		return false, nil
	}
	s.Status = model.SessionStatusCompleted
	s.FinishedAt = &at
	return true, nil
}

// ─── Mirror ──────────────────────────────────────────────────────────────────

type fakeMirror struct {
	mu        sync.Mutex
	answers   map[string]model.AnswerSet
	snapshots map[string]tracker.Snapshot
}

func newFakeMirror() *fakeMirror {
	return &fakeMirror{answers: map[string]model.AnswerSet{}, snapshots: map[string]tracker.Snapshot{}}
}

func (f *fakeMirror) SaveAnswers(_ context.Context, sid string, a model.AnswerSet) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.answers[sid] = a.Clone()
}

func (f *fakeMirror) LoadAnswers(_ context.Context, sid string) (model.AnswerSet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.answers[sid]
	if !ok {
		return nil, store.ErrNotMirrored
	}
	return a.Clone(), nil
}

func (f *fakeMirror) SaveAnalytics(_ context.Context, snap tracker.Snapshot) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.snapshots[snap.SessionID] = snap
}

func (f *fakeMirror) LoadAnalytics(_ context.Context, sid string) (tracker.Snapshot, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	s, ok := f.snapshots[sid]
	if !ok {
		return tracker.Snapshot{}, store.ErrNotMirrored
	}
	return s, nil
}

func (f *fakeMirror) Clear(_ context.Context, sid string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.answers, sid)
	delete(f.snapshots, sid)
}

// ─── Sender / queue / tokens ─────────────────────────────────────────────────

type recordingSender struct {
	mu      sync.Mutex
	batches []model.EventBatch
}

func (r *recordingSender) Send(b model.EventBatch) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, b)
}

func (r *recordingSender) events() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, b := range r.batches {
		n += len(b.Events)
	}
	return n
}

type fakeResultQueue struct {
	mu        sync.Mutex
	published []model.AssessmentResult
	ok        bool
}

func (f *fakeResultQueue) Publish(_ context.Context, r model.AssessmentResult) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.published = append(f.published, r)
	return f.ok
}

type fakeTokens struct{}

func (fakeTokens) GenerateCandidateToken(id uuid.UUID) (string, error) {
	return "token-" + id.String(), nil
}

// ─── KV ──────────────────────────────────────────────────────────────────────

type fakeKV struct {
	mu   sync.Mutex
	data map[string]string
	ttls map[string]time.Duration
}

func newFakeKV() *fakeKV {
	return &fakeKV{data: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeKV) Set(_ context.Context, key string, value any, exp time.Duration) *redis.StatusCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	case string:
		f.data[key] = v
	default:
		panic("fakeKV: unsupported value type")
	}
	f.ttls[key] = exp
	return redis.NewStatusResult("OK", nil)
}

func (f *fakeKV) Get(_ context.Context, key string) *redis.StringCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	v, ok := f.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func (f *fakeKV) Del(_ context.Context, keys ...string) *redis.IntCmd {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := f.data[k]; ok {
			delete(f.data, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

// ─── Clock ───────────────────────────────────────────────────────────────────

type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{t: time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.t = c.t.Add(d)
}
