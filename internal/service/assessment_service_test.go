package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/stemsi/compass-backend/internal/model"
	"github.com/stemsi/compass-backend/internal/questionbank"
	"github.com/stemsi/compass-backend/internal/tracker"
)

type assessmentFixture struct {
	svc      *AssessmentService
	sessions *fakeSessions
	mirror   *fakeMirror
	sender   *recordingSender
	results  *fakeResultQueue
	registry *tracker.Registry
	clock    *fakeClock
}

func newAssessmentFixture(t *testing.T) *assessmentFixture {
	t.Helper()
	bank, err := questionbank.Default()
	require.NoError(t, err)

	f := &assessmentFixture{
		mirror:   newFakeMirror(),
		sender:   &recordingSender{},
		results:  &fakeResultQueue{ok: true},
		registry: tracker.NewRegistry(),
		clock:    newFakeClock(),
	}
	f.sessions = newFakeSessions(f.clock.Now)
	f.svc = NewAssessmentService(
		f.sessions, bank, f.registry, f.mirror, f.sender, f.results, fakeTokens{},
		AssessmentOptions{BatchSize: 5, Clock: f.clock.Now},
		zerolog.Nop(),
	)
	return f
}

func (f *assessmentFixture) start(t *testing.T) uuid.UUID {
	t.Helper()
	resp, err := f.svc.Start(context.Background(), model.StartSessionRequest{Name: "Rina", Role: "Team Lead"})
	require.NoError(t, err)
	return resp.Session.ID
}

func opt(s string) *string { return &s }

func TestAssessmentService_Start(t *testing.T) {
	f := newAssessmentFixture(t)

	resp, err := f.svc.Start(context.Background(), model.StartSessionRequest{Name: "Rina", Email: "rina@example.com"})
	require.NoError(t, err)

	assert.Equal(t, model.SessionStatusInProgress, resp.Session.Status)
	assert.Equal(t, "token-"+resp.Session.ID.String(), resp.Token)
	assert.NotEmpty(t, resp.Questions)
	assert.Equal(t, 1, f.registry.Len())

	_, err = f.mirror.LoadAnalytics(context.Background(), resp.Session.ID.String())
	assert.NoError(t, err, "fresh session is mirrored")
}

func TestAssessmentService_EventsFeedTracker(t *testing.T) {
	f := newAssessmentFixture(t)
	ctx := context.Background()
	sid := f.start(t)

	require.NoError(t, f.svc.QuestionShown(ctx, sid, 1))
	f.clock.Advance(4 * time.Second)
	require.NoError(t, f.svc.AnswerChanged(ctx, sid, model.AnswerChangedRequest{QuestionID: 1, NewValue: "A"}))
	f.clock.Advance(time.Second)
	require.NoError(t, f.svc.AnswerChanged(ctx, sid, model.AnswerChangedRequest{QuestionID: 1, PreviousValue: opt("A"), NewValue: "B"}))
	require.NoError(t, f.svc.Navigate(ctx, sid, model.NavigationRequest{QuestionID: 1, Direction: model.NavNext}))

	a, err := f.svc.Analytics(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, 1, a.CompletedQuestions)
	assert.Equal(t, 2, a.TotalAnswerChanges)
	assert.Equal(t, int64(5000), a.TotalTime)
	require.Len(t, a.Questions, 1)
	assert.Len(t, a.Questions[0].Revisions, 1)

	answers, err := f.mirror.LoadAnswers(ctx, sid.String())
	require.NoError(t, err)
	assert.Equal(t, model.AnswerSet{1: "B"}, answers)

	// Four events so far, below the batch size.
	assert.Zero(t, f.sender.events())
	require.NoError(t, f.svc.Flush(ctx, sid))
	assert.Equal(t, 4, f.sender.events())
}

func TestAssessmentService_UnknownQuestion(t *testing.T) {
	f := newAssessmentFixture(t)
	sid := f.start(t)

	err := f.svc.QuestionShown(context.Background(), sid, 9999)
	assert.ErrorIs(t, err, ErrUnknownQuestion)
}

func TestAssessmentService_UnknownSession(t *testing.T) {
	f := newAssessmentFixture(t)

	err := f.svc.QuestionShown(context.Background(), uuid.New(), 1)
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = f.svc.Submit(context.Background(), uuid.New(), nil)
	assert.ErrorIs(t, err, ErrSessionNotFound)
}

func TestAssessmentService_RestoresTrackerFromMirror(t *testing.T) {
	f := newAssessmentFixture(t)
	ctx := context.Background()
	sid := f.start(t)

	require.NoError(t, f.svc.QuestionShown(ctx, sid, 2))
	require.NoError(t, f.svc.AnswerChanged(ctx, sid, model.AnswerChangedRequest{QuestionID: 2, NewValue: "C"}))

	// Simulates a process restart: the in-memory tracker is gone.
	f.registry.Remove(sid.String())

	a, err := f.svc.Analytics(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, 1, a.CompletedQuestions)
	assert.Equal(t, 1, f.registry.Len())
}

func TestAssessmentService_SubmitScoresTrackerAnswers(t *testing.T) {
	f := newAssessmentFixture(t)
	ctx := context.Background()
	sid := f.start(t)

	require.NoError(t, f.svc.QuestionShown(ctx, sid, 1))
	require.NoError(t, f.svc.AnswerChanged(ctx, sid, model.AnswerChangedRequest{QuestionID: 1, NewValue: "B"}))

	resp, err := f.svc.Submit(ctx, sid, nil)
	require.NoError(t, err)

	require.NotEmpty(t, resp.Scores)
	assert.Equal(t, model.CompetencyDecisionMaking, resp.Scores[0].Dimension)
	assert.Equal(t, 5, resp.Scores[0].Score)
	assert.Len(t, resp.DevelopmentAreas, 3)
	assert.Empty(t, resp.Skipped)

	// Flushed at submit.
	assert.Equal(t, 2, f.sender.events())

	require.Len(t, f.results.published, 1)
	assert.Equal(t, "Rina", f.results.published[0].Candidate.Name)
	assert.Equal(t, model.AnswerSet{1: "B"}, f.results.published[0].Answers)

	session, err := f.sessions.GetByID(ctx, sid)
	require.NoError(t, err)
	assert.Equal(t, model.SessionStatusCompleted, session.Status)
	assert.Zero(t, f.registry.Len())
}

func TestAssessmentService_SubmitReportsSkips(t *testing.T) {
	f := newAssessmentFixture(t)
	sid := f.start(t)

	resp, err := f.svc.Submit(context.Background(), sid, model.AnswerSet{1: "A", 9999: "A", 2: "Z"})
	require.NoError(t, err)

	require.Len(t, resp.Skipped, 2)
	assert.Equal(t, 2, resp.Skipped[0].QuestionID)
	assert.Equal(t, model.SkipUnknownOption, resp.Skipped[0].Reason)
	assert.Equal(t, 9999, resp.Skipped[1].QuestionID)
	assert.Equal(t, model.SkipUnknownQuestion, resp.Skipped[1].Reason)
}

func TestAssessmentService_SubmitIsSingleShot(t *testing.T) {
	f := newAssessmentFixture(t)
	ctx := context.Background()
	sid := f.start(t)

	_, err := f.svc.Submit(ctx, sid, model.AnswerSet{1: "A"})
	require.NoError(t, err)

	_, err = f.svc.Submit(ctx, sid, model.AnswerSet{1: "A"})
	assert.ErrorIs(t, err, ErrSessionCompleted)

	err = f.svc.QuestionShown(ctx, sid, 1)
	assert.ErrorIs(t, err, ErrSessionCompleted)
	assert.Len(t, f.results.published, 1)
}

func TestAssessmentService_SubmitCopiesAnswers(t *testing.T) {
	f := newAssessmentFixture(t)
	sid := f.start(t)

	answers := model.AnswerSet{1: "A"}
	_, err := f.svc.Submit(context.Background(), sid, answers)
	require.NoError(t, err)

	answers[1] = "B"
	assert.Equal(t, "A", f.results.published[0].Answers[1])
}

func TestAssessmentService_SubmitSurvivesQueueFailure(t *testing.T) {
	f := newAssessmentFixture(t)
	f.results.ok = false
	sid := f.start(t)

	resp, err := f.svc.Submit(context.Background(), sid, model.AnswerSet{1: "C"})
	require.NoError(t, err)
	assert.Equal(t, model.CompetencyTeamwork, resp.Scores[0].Dimension)

	_, err = f.mirror.LoadAnswers(context.Background(), sid.String())
	assert.NoError(t, err, "mirror kept when hand-off fails")
}

func TestAssessmentService_LiveAnalytics(t *testing.T) {
	f := newAssessmentFixture(t)
	sid := f.start(t)

	_, ok := f.svc.LiveAnalytics(uuid.New())
	assert.False(t, ok)

	a, ok := f.svc.LiveAnalytics(sid)
	assert.True(t, ok)
	assert.Equal(t, sid.String(), a.SessionID)
}
