package service

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/compass-backend/internal/model"
)

// The services depend on these narrow views of the repositories so they can
// be exercised without Postgres.

type HRUserStore interface {
	GetByID(ctx context.Context, id int) (*model.HRUser, error)
	GetByEmail(ctx context.Context, email string) (*model.HRUser, error)
}

type SessionStore interface {
	Create(ctx context.Context, s *model.AssessmentSession) error
	GetByID(ctx context.Context, id uuid.UUID) (*model.AssessmentSession, error)
	Complete(ctx context.Context, id uuid.UUID, finishedAt time.Time) (bool, error)
}

type ResultStore interface {
	GetBySession(ctx context.Context, sessionID uuid.UUID) (*model.StoredResult, error)
	ListPaginated(ctx context.Context, q model.ResultListQuery) ([]model.ResultSummary, int, error)
}

type DashboardStore interface {
	GetStatusCounts(ctx context.Context) (map[model.SessionStatus]int, error)
	GetAverageCompletionSeconds(ctx context.Context) (*float64, error)
	GetCompetencyAverages(ctx context.Context) ([]model.CompetencyAverage, error)
	GetRecentResults(ctx context.Context, limit int) ([]model.ResultSummary, error)
}

type EventStore interface {
	CountBySession(ctx context.Context, sessionID uuid.UUID) (map[model.EventType]int64, error)
	ListRecentBySession(ctx context.Context, sessionID uuid.UUID, limit int) ([]model.InteractionEvent, error)
}

// ResultQueue hands a scored result to the persistence pipeline.
type ResultQueue interface {
	Publish(ctx context.Context, result model.AssessmentResult) bool
}

// CandidateTokenIssuer signs the token that scopes a candidate to one session.
type CandidateTokenIssuer interface {
	GenerateCandidateToken(sessionID uuid.UUID) (string, error)
}
