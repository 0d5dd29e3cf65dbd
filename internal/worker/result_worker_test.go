package worker

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stemsi/compass-backend/internal/config"
	"github.com/stemsi/compass-backend/internal/model"
	"github.com/stemsi/compass-backend/internal/reporting"
)

func samplePayload(sid string, dm int) reporting.ResultPayload {
	return reporting.ResultPayload{
		SessionID: sid,
		User:      model.Candidate{Name: "Dana"},
		Answers:   model.AnswerSet{1: "B"},
		CompetencyScores: []model.CompetencyScore{
			{Dimension: model.CompetencyDecisionMaking, Score: dm, MaxScore: 10, Percentage: dm * 10},
			{Dimension: model.CompetencyTeamwork, Score: 2, MaxScore: 8, Percentage: 25},
		},
		CompletedAt: recordedAt,
	}
}

func encodePayload(t *testing.T, p reporting.ResultPayload) string {
	t.Helper()
	data, err := json.Marshal(p)
	require.NoError(t, err)
	return string(data)
}

type resultHarness struct {
	db     *fakeDB
	sink   *fakeSink
	mirror *fakeMirror
	cache  *fakeCache
}

func runResultWorker(t *testing.T, h *resultHarness, items ...string) *fakeQueue {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	q := &fakeQueue{items: items, cancel: cancel}
	w := NewResultWorker(h.db, q, h.sink, h.mirror, h.cache, zerolog.Nop())

	done := make(chan struct{})
	go func() {
		w.Start(ctx)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("result worker did not stop")
	}
	return q
}

func newResultHarness() *resultHarness {
	return &resultHarness{db: &fakeDB{}, sink: &fakeSink{enabled: true}, mirror: &fakeMirror{}, cache: &fakeCache{}}
}

func TestResultWorkerUpsertsBatchInOneStatement(t *testing.T) {
	h := newResultHarness()
	a, b := uuid.New(), uuid.New()

	q := runResultWorker(t, h,
		encodePayload(t, samplePayload(a.String(), 3)),
		encodePayload(t, samplePayload(b.String(), 7)),
	)

	assert.Equal(t, config.WorkerKey.PersistResultsQueue, q.keys[0])
	require.Len(t, h.db.execs, 1)
	args := h.db.execs[0].args
	require.Len(t, args, 10)
	assert.Equal(t, []uuid.UUID{a, b}, args[0])
	assert.Equal(t, []uuid.UUID{a, a, b, b}, args[5])
	assert.Equal(t, []string{"DM", "TW", "DM", "TW"}, args[6])
	assert.Equal(t, []int{3, 2, 7, 2}, args[7])
	assert.Equal(t, []int{30, 25, 70, 25}, args[9])

	analytics := args[3].([]*string)
	assert.Nil(t, analytics[0])

	assert.ElementsMatch(t, []string{a.String(), b.String()}, h.mirror.cleared)
	assert.Equal(t, []string{config.CacheKey.DashboardKey()}, h.cache.deleted)
	assert.Len(t, h.sink.results, 2)
}

func TestResultWorkerKeepsLatestPerSession(t *testing.T) {
	h := newResultHarness()
	sid := uuid.NewString()

	runResultWorker(t, h,
		encodePayload(t, samplePayload(sid, 3)),
		encodePayload(t, samplePayload(sid, 9)),
	)

	require.Len(t, h.db.execs, 1)
	assert.Equal(t, []int{9, 2}, h.db.execs[0].args[7])
	assert.Equal(t, []string{sid}, h.mirror.cleared)
}

func TestResultWorkerFallbackKeepsMirrorOfFailedRows(t *testing.T) {
	good, bad := uuid.New(), uuid.New()
	h := newResultHarness()
	h.db.execErr = func(call execCall) error {
		ids := call.args[0].([]uuid.UUID)
		for _, id := range ids {
			if id == bad {
				return errors.New("constraint violation")
			}
		}
		return nil
	}

	runResultWorker(t, h,
		encodePayload(t, samplePayload(good.String(), 3)),
		encodePayload(t, samplePayload(bad.String(), 4)),
	)

	require.Len(t, h.db.execs, 1)
	assert.Equal(t, []uuid.UUID{good}, h.db.execs[0].args[0])
	assert.Equal(t, []string{good.String()}, h.mirror.cleared)
	require.Len(t, h.sink.results, 1)
	assert.Equal(t, good.String(), h.sink.results[0].SessionID)
}

func TestResultWorkerNothingPersisted(t *testing.T) {
	h := newResultHarness()
	h.db.execErr = func(execCall) error { return errors.New("db down") }

	runResultWorker(t, h, encodePayload(t, samplePayload(uuid.NewString(), 1)))

	assert.Empty(t, h.mirror.cleared)
	assert.Empty(t, h.cache.deleted)
	assert.Empty(t, h.sink.results)
}

func TestResultWorkerDropsInvalidPayloads(t *testing.T) {
	h := newResultHarness()
	runResultWorker(t, h, "[]", encodePayload(t, samplePayload("nope", 1)))
	assert.Empty(t, h.db.execs)
}

func TestBuildUpsertArgsEncodesAnalytics(t *testing.T) {
	p := samplePayload(uuid.NewString(), 5)
	p.Analytics = &model.SessionAnalytics{SessionID: p.SessionID, TotalTime: 1200}
	p.CompletedAt = time.Time{}

	a, err := buildUpsertArgs([]reporting.ResultPayload{p})
	require.NoError(t, err)
	require.NotNil(t, a.analytics[0])
	assert.Contains(t, *a.analytics[0], `"total_time":1200`)
	assert.False(t, a.completedAt[0].IsZero())
	assert.JSONEq(t, `{"1":"B"}`, a.answers[0])
}

func TestLatestPerSessionPreservesFirstSeenOrder(t *testing.T) {
	out := latestPerSession([]reporting.ResultPayload{
		{SessionID: "a", Answers: model.AnswerSet{1: "A"}},
		{SessionID: "b"},
		{SessionID: "a", Answers: model.AnswerSet{1: "C"}},
	})
	require.Len(t, out, 2)
	assert.Equal(t, "a", out[0].SessionID)
	assert.Equal(t, "C", out[0].Answers[1])
	assert.Equal(t, "b", out[1].SessionID)
}
