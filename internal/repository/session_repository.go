package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stemsi/compass-backend/internal/model"
)

// SessionRepository handles assessment session data access.
type SessionRepository struct {
	pool *pgxpool.Pool
}

// NewSessionRepository creates a new SessionRepository.
func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

// Create inserts a new in-progress session and fills its id and start time.
func (r *SessionRepository) Create(ctx context.Context, s *model.AssessmentSession) error {
	s.Status = model.SessionStatusInProgress
	return r.pool.QueryRow(ctx,
		`INSERT INTO assessment_sessions (candidate_name, candidate_email, candidate_role, status)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, started_at`,
		s.Candidate.Name, s.Candidate.Email, s.Candidate.Role, s.Status,
	).Scan(&s.ID, &s.StartedAt)
}

// GetByID retrieves a session.
func (r *SessionRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.AssessmentSession, error) {
	s := &model.AssessmentSession{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, candidate_name, candidate_email, candidate_role, status, started_at, finished_at
		 FROM assessment_sessions
		 WHERE id = $1`, id,
	).Scan(&s.ID, &s.Candidate.Name, &s.Candidate.Email, &s.Candidate.Role, &s.Status, &s.StartedAt, &s.FinishedAt)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// Complete marks an in-progress session as completed. It reports false when
// the session was already completed, which makes submit single-shot.
func (r *SessionRepository) Complete(ctx context.Context, id uuid.UUID, finishedAt time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx,
		`UPDATE assessment_sessions
		 SET status = $1, finished_at = $2
		 WHERE id = $3 AND status <> $1`,
		model.SessionStatusCompleted, finishedAt, id)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
