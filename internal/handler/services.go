package handler

import (
	"context"
	"io"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/stemsi/compass-backend/internal/model"
	"github.com/stemsi/compass-backend/internal/service"
)

// Handlers take the narrow slice of each service they call.

type AssessmentAPI interface {
	Questions() []model.QuestionForCandidate
	Start(ctx context.Context, req model.StartSessionRequest) (*model.StartSessionResponse, error)
	QuestionShown(ctx context.Context, sessionID uuid.UUID, questionID int) error
	AnswerChanged(ctx context.Context, sessionID uuid.UUID, req model.AnswerChangedRequest) error
	Navigate(ctx context.Context, sessionID uuid.UUID, req model.NavigationRequest) error
	Flush(ctx context.Context, sessionID uuid.UUID) error
	Analytics(ctx context.Context, sessionID uuid.UUID) (model.SessionAnalytics, error)
	Submit(ctx context.Context, sessionID uuid.UUID, answers model.AnswerSet) (*model.SubmitResponse, error)
}

type AuthAPI interface {
	Login(ctx context.Context, req model.HRLoginRequest) (*model.HRLoginResponse, error)
	Me(ctx context.Context, userID int) (*model.HRUser, error)
	Logout(ctx context.Context, userID int) error
}

type ResultAPI interface {
	List(ctx context.Context, q model.ResultListQuery) ([]model.ResultSummary, int, error)
	Detail(ctx context.Context, sessionID uuid.UUID) (*model.ResultDetail, error)
	ExportXLSX(ctx context.Context, w io.Writer, q model.ResultListQuery) (int, error)
}

type DashboardAPI interface {
	Stats(ctx context.Context) (*model.DashboardStats, error)
}

type MonitorAPI interface {
	Snapshot(ctx context.Context, sessionID uuid.UUID) (*service.MonitorSnapshot, error)
	Subscribe(ctx context.Context, sessionID uuid.UUID) *redis.PubSub
}
