package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stemsi/compass-backend/internal/config"
	"github.com/stemsi/compass-backend/internal/model"
	"github.com/stemsi/compass-backend/internal/questionbank"
	"github.com/stemsi/compass-backend/internal/recommend"
)

type fakeResults struct {
	stored  map[uuid.UUID]*model.StoredResult
	list    []model.ResultSummary
	lastQ   model.ResultListQuery
	listErr error
}

func (f *fakeResults) GetBySession(_ context.Context, id uuid.UUID) (*model.StoredResult, error) {
	r, ok := f.stored[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return r, nil
}

func (f *fakeResults) ListPaginated(_ context.Context, q model.ResultListQuery) ([]model.ResultSummary, int, error) {
	f.lastQ = q
	if f.listErr != nil {
		return nil, 0, f.listErr
	}
	return f.list, len(f.list), nil
}

type countingRecommender struct {
	calls  int
	source recommend.Source
}

func (c *countingRecommender) Recommend(_ context.Context, _ model.Candidate, ranked []model.CompetencyScore) recommend.Recommendation {
	c.calls++
	return recommend.Recommendation{Source: c.source, Summary: "narrative for " + string(ranked[0].Dimension)}
}

type resultFixture struct {
	svc      *ResultService
	results  *fakeResults
	sessions *fakeSessions
	rec      *countingRecommender
	kv       *fakeKV
}

func newResultFixture(t *testing.T, source recommend.Source) *resultFixture {
	t.Helper()
	bank, err := questionbank.Default()
	require.NoError(t, err)

	f := &resultFixture{
		results:  &fakeResults{stored: map[uuid.UUID]*model.StoredResult{}},
		sessions: newFakeSessions(time.Now),
		rec:      &countingRecommender{source: source},
		kv:       newFakeKV(),
	}
	f.svc = NewResultService(f.results, f.sessions, bank, f.rec, f.kv, zerolog.Nop())
	return f
}

func (f *resultFixture) seed(t *testing.T) uuid.UUID {
	t.Helper()
	s := &model.AssessmentSession{Candidate: model.Candidate{Name: "Dewi"}}
	require.NoError(t, f.sessions.Create(context.Background(), s))

	f.results.stored[s.ID] = &model.StoredResult{
		SessionID: s.ID,
		Answers:   model.AnswerSet{1: "C"},
		Scores: []model.CompetencyScore{
			{Dimension: model.CompetencyDecisionMaking, Score: 0, MaxScore: 10, DisplayName: "stale"},
			{Dimension: model.CompetencyTeamwork, Score: 5, MaxScore: 10},
			{Dimension: model.CompetencyCommunication, Score: 2, MaxScore: 10},
			{Dimension: model.CompetencyEmotionalIntelligence, Score: 2, MaxScore: 10},
		},
		CompletedAt: time.Now(),
	}
	return s.ID
}

func TestResultService_Detail(t *testing.T) {
	f := newResultFixture(t, recommend.SourceTemplate)
	sid := f.seed(t)

	d, err := f.svc.Detail(context.Background(), sid)
	require.NoError(t, err)

	require.Len(t, d.Ranked, 4)
	assert.Equal(t, model.CompetencyTeamwork, d.Ranked[0].Dimension)
	// Ties keep stored order.
	assert.Equal(t, model.CompetencyCommunication, d.Ranked[1].Dimension)
	assert.Equal(t, model.CompetencyEmotionalIntelligence, d.Ranked[2].Dimension)
	assert.Equal(t, "Decision Making", d.Ranked[3].DisplayName, "labels refreshed from the bank")
	assert.NotEmpty(t, d.Ranked[0].Insight)
	assert.Len(t, d.TopStrengths, 3)
	assert.Len(t, d.DevelopmentAreas, 3)

	rec, ok := d.Recommendation.(recommend.Recommendation)
	require.True(t, ok)
	assert.Equal(t, "narrative for TW", rec.Summary)
}

func TestResultService_DetailErrors(t *testing.T) {
	f := newResultFixture(t, recommend.SourceTemplate)

	_, err := f.svc.Detail(context.Background(), uuid.New())
	assert.ErrorIs(t, err, ErrSessionNotFound)

	s := &model.AssessmentSession{}
	require.NoError(t, f.sessions.Create(context.Background(), s))
	_, err = f.svc.Detail(context.Background(), s.ID)
	assert.ErrorIs(t, err, ErrResultNotReady)
}

func TestResultService_CachesOnlyAIRecommendations(t *testing.T) {
	t.Run("ai", func(t *testing.T) {
		f := newResultFixture(t, recommend.SourceAI)
		sid := f.seed(t)

		for range 3 {
			_, err := f.svc.Detail(context.Background(), sid)
			require.NoError(t, err)
		}
		assert.Equal(t, 1, f.rec.calls)
		assert.Equal(t, recommendationTTL, f.kv.ttls[config.CacheKey.SessionRecommendationKey(sid.String())])
	})

	t.Run("template", func(t *testing.T) {
		f := newResultFixture(t, recommend.SourceTemplate)
		sid := f.seed(t)

		for range 2 {
			_, err := f.svc.Detail(context.Background(), sid)
			require.NoError(t, err)
		}
		assert.Equal(t, 2, f.rec.calls)
	})
}

func TestResultService_List(t *testing.T) {
	f := newResultFixture(t, recommend.SourceTemplate)
	f.results.list = []model.ResultSummary{{SessionID: uuid.New()}}

	items, total, err := f.svc.List(context.Background(), model.ResultListQuery{})
	require.NoError(t, err)
	assert.Len(t, items, 1)
	assert.Equal(t, 1, total)
	assert.Equal(t, 1, f.results.lastQ.Page)
	assert.Equal(t, 20, f.results.lastQ.PerPage)

	f.results.listErr = errors.New("boom")
	_, _, err = f.svc.List(context.Background(), model.ResultListQuery{})
	assert.Error(t, err)
}
