package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	"github.com/stemsi/compass-backend/internal/model"
	"github.com/stemsi/compass-backend/internal/questionbank"
	"github.com/stemsi/compass-backend/internal/scoring"
	"github.com/stemsi/compass-backend/internal/store"
	"github.com/stemsi/compass-backend/internal/tracker"
)

// AssessmentOptions carries the tunables of the candidate flow.
type AssessmentOptions struct {
	BatchSize int
	Tiers     scoring.Tiers
	Clock     func() time.Time
}

// AssessmentService owns the candidate flow: it starts sessions, routes UI
// events into the per-session tracker, and scores submissions.
type AssessmentService struct {
	sessions SessionStore
	bank     *questionbank.Bank
	engine   *scoring.Engine
	registry *tracker.Registry
	mirror   store.Mirror
	sender   tracker.Sender
	results  ResultQueue
	tokens   CandidateTokenIssuer
	opts     AssessmentOptions
	log      zerolog.Logger
}

// NewAssessmentService creates a new AssessmentService.
func NewAssessmentService(
	sessions SessionStore,
	bank *questionbank.Bank,
	registry *tracker.Registry,
	mirror store.Mirror,
	sender tracker.Sender,
	results ResultQueue,
	tokens CandidateTokenIssuer,
	opts AssessmentOptions,
	log zerolog.Logger,
) *AssessmentService {
	if opts.Clock == nil {
		opts.Clock = time.Now
	}
	if opts.Tiers == (scoring.Tiers{}) {
		opts.Tiers = scoring.DefaultTiers
	}
	return &AssessmentService{
		sessions: sessions,
		bank:     bank,
		engine:   scoring.NewEngine(bank),
		registry: registry,
		mirror:   mirror,
		sender:   sender,
		results:  results,
		tokens:   tokens,
		opts:     opts,
		log:      log.With().Str("component", "assessment_service").Logger(),
	}
}

// Questions returns the candidate-facing question list.
func (s *AssessmentService) Questions() []model.QuestionForCandidate {
	return s.bank.ForCandidate()
}

// Start creates a session and its tracker.
func (s *AssessmentService) Start(ctx context.Context, req model.StartSessionRequest) (*model.StartSessionResponse, error) {
	session := &model.AssessmentSession{
		Candidate: model.Candidate{Name: req.Name, Email: req.Email, Role: req.Role},
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	token, err := s.tokens.GenerateCandidateToken(session.ID)
	if err != nil {
		return nil, fmt.Errorf("issue candidate token: %w", err)
	}

	tr := s.newTracker(session.ID.String())
	s.registry.Put(tr)
	s.mirror.SaveAnswers(ctx, session.ID.String(), model.AnswerSet{})
	s.mirror.SaveAnalytics(ctx, tr.Snapshot())

	s.log.Info().Str("session_id", session.ID.String()).Msg("Assessment started")

	return &model.StartSessionResponse{
		Session:   *session,
		Token:     token,
		Questions: s.bank.ForCandidate(),
	}, nil
}

// QuestionShown records that questionID was displayed.
func (s *AssessmentService) QuestionShown(ctx context.Context, sessionID uuid.UUID, questionID int) error {
	if err := s.checkQuestion(questionID); err != nil {
		return err
	}
	tr, err := s.live(ctx, sessionID)
	if err != nil {
		return err
	}
	tr.RecordQuestionShown(questionID)
	s.mirror.SaveAnalytics(ctx, tr.Snapshot())
	return nil
}

// AnswerChanged records a chosen or revised answer and mirrors the answer set.
func (s *AssessmentService) AnswerChanged(ctx context.Context, sessionID uuid.UUID, req model.AnswerChangedRequest) error {
	if err := s.checkQuestion(req.QuestionID); err != nil {
		return err
	}
	tr, err := s.live(ctx, sessionID)
	if err != nil {
		return err
	}
	tr.RecordAnswerChanged(req.QuestionID, req.PreviousValue, req.NewValue)
	s.mirror.SaveAnswers(ctx, sessionID.String(), tr.Answers())
	s.mirror.SaveAnalytics(ctx, tr.Snapshot())
	return nil
}

// Navigate records a next/back navigation away from a question.
func (s *AssessmentService) Navigate(ctx context.Context, sessionID uuid.UUID, req model.NavigationRequest) error {
	if err := s.checkQuestion(req.QuestionID); err != nil {
		return err
	}
	tr, err := s.live(ctx, sessionID)
	if err != nil {
		return err
	}
	tr.RecordNavigation(req.QuestionID, req.Direction)
	s.mirror.SaveAnalytics(ctx, tr.Snapshot())
	return nil
}

// Flush forces transmission of the partial event batch.
func (s *AssessmentService) Flush(ctx context.Context, sessionID uuid.UUID) error {
	tr, err := s.live(ctx, sessionID)
	if err != nil {
		return err
	}
	tr.Flush()
	s.mirror.SaveAnalytics(ctx, tr.Snapshot())
	return nil
}

// Analytics returns the live session summary.
func (s *AssessmentService) Analytics(ctx context.Context, sessionID uuid.UUID) (model.SessionAnalytics, error) {
	tr, err := s.live(ctx, sessionID)
	if err != nil {
		return model.SessionAnalytics{}, err
	}
	return tr.SessionAnalytics(), nil
}

// LiveAnalytics returns the summary of a session tracked by this process
// without touching storage.
func (s *AssessmentService) LiveAnalytics(sessionID uuid.UUID) (model.SessionAnalytics, bool) {
	tr, ok := s.registry.Get(sessionID.String())
	if !ok {
		return model.SessionAnalytics{}, false
	}
	return tr.SessionAnalytics(), true
}

// Submit scores the answer set and completes the session. An empty answer
// set means "use what the tracker saw". Persistence is handed off; the
// returned scores do not depend on it.
func (s *AssessmentService) Submit(ctx context.Context, sessionID uuid.UUID, answers model.AnswerSet) (*model.SubmitResponse, error) {
	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status == model.SessionStatusCompleted {
		return nil, ErrSessionCompleted
	}
	tr, err := s.live(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if len(answers) == 0 {
		answers = tr.Answers()
	} else {
		answers = answers.Clone()
	}

	now := s.opts.Clock()
	completed, err := s.sessions.Complete(ctx, sessionID, now)
	if err != nil {
		return nil, fmt.Errorf("complete session: %w", err)
	}
	if !completed {
		return nil, ErrSessionCompleted
	}

	tr.Flush()
	scored := s.engine.Score(answers, s.opts.Tiers)
	for _, sk := range scored.Skipped {
		s.log.Warn().
			Str("session_id", sessionID.String()).
			Int("question_id", sk.QuestionID).
			Str("option_id", sk.OptionID).
			Str("reason", string(sk.Reason)).
			Msg("Skipped answer while scoring")
	}
	analytics := tr.SessionAnalytics()

	result := model.AssessmentResult{
		SessionID:   sessionID,
		Candidate:   session.Candidate,
		Answers:     answers,
		Scores:      scored.Scores,
		Skipped:     scored.Skipped,
		Analytics:   &analytics,
		CompletedAt: now,
	}

	s.mirror.SaveAnswers(ctx, sessionID.String(), answers)
	s.mirror.SaveAnalytics(ctx, tr.Snapshot())
	if !s.results.Publish(ctx, result) {
		s.log.Warn().Str("session_id", sessionID.String()).Msg("Result hand-off failed, mirror kept")
	}
	s.registry.Remove(sessionID.String())

	s.log.Info().
		Str("session_id", sessionID.String()).
		Int("answered", len(answers)).
		Int("skipped", len(scored.Skipped)).
		Msg("Assessment submitted and scored")

	return &model.SubmitResponse{
		SessionID:        sessionID,
		Scores:           scored.Scores,
		TopStrengths:     scoring.TopStrengths(scored.Scores, 3),
		DevelopmentAreas: scoring.LowestThree(scored.Scores),
		Skipped:          scored.Skipped,
		Analytics:        analytics,
	}, nil
}

// live returns the session's tracker, restoring it from the mirror after a
// restart. Completed sessions have no tracker.
func (s *AssessmentService) live(ctx context.Context, sessionID uuid.UUID) (*tracker.Tracker, error) {
	if tr, ok := s.registry.Get(sessionID.String()); ok {
		return tr, nil
	}

	session, err := s.getSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status == model.SessionStatusCompleted {
		return nil, ErrSessionCompleted
	}

	return s.registry.GetOrCreate(sessionID.String(), func() *tracker.Tracker {
		snap, err := s.mirror.LoadAnalytics(ctx, sessionID.String())
		if err != nil {
			if !errors.Is(err, store.ErrNotMirrored) {
				s.log.Warn().Err(err).Str("session_id", sessionID.String()).Msg("Failed to restore tracker, starting fresh")
			}
			return s.newTracker(sessionID.String())
		}
		s.log.Info().Str("session_id", sessionID.String()).Msg("Tracker restored from mirror")
		return tracker.Restore(snap, s.trackerOptions())
	}), nil
}

func (s *AssessmentService) getSession(ctx context.Context, sessionID uuid.UUID) (*model.AssessmentSession, error) {
	session, err := s.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	return session, nil
}

func (s *AssessmentService) checkQuestion(questionID int) error {
	if _, ok := s.bank.Question(questionID); !ok {
		return ErrUnknownQuestion
	}
	return nil
}

func (s *AssessmentService) newTracker(sessionID string) *tracker.Tracker {
	return tracker.New(sessionID, s.trackerOptions())
}

func (s *AssessmentService) trackerOptions() tracker.Options {
	return tracker.Options{
		BatchSize: s.opts.BatchSize,
		Clock:     s.opts.Clock,
		Sender:    s.sender,
		Logger:    s.log,
	}
}
