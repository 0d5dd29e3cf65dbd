package model

import (
	"time"

	"github.com/google/uuid"
)

// ResultSummary is one row of the HR results list.
type ResultSummary struct {
	SessionID     uuid.UUID     `json:"session_id"`
	Candidate     Candidate     `json:"candidate"`
	Status        SessionStatus `json:"status"`
	StartedAt     time.Time     `json:"started_at"`
	CompletedAt   *time.Time    `json:"completed_at,omitempty"`
	TopCompetency *Competency   `json:"top_competency,omitempty"`
	Average       *float64      `json:"average_percentage,omitempty"`
}

// ResultListQuery holds the HR list filters.
type ResultListQuery struct {
	Page    int           `form:"page" binding:"omitempty,min=1"`
	PerPage int           `form:"per_page" binding:"omitempty,min=1,max=100"`
	Search  string        `form:"search" binding:"omitempty,max=255"`
	Status  SessionStatus `form:"status" binding:"omitempty,oneof=IN_PROGRESS COMPLETED"`
}

// Normalize applies paging defaults.
func (q *ResultListQuery) Normalize() {
	if q.Page < 1 {
		q.Page = 1
	}
	if q.PerPage < 1 {
		q.PerPage = 20
	}
}

// Offset returns the row offset for the current page.
func (q ResultListQuery) Offset() int {
	return (q.Page - 1) * q.PerPage
}

// StoredResult is a persisted assessment result row.
type StoredResult struct {
	SessionID   uuid.UUID         `json:"session_id"`
	Answers     AnswerSet         `json:"answers"`
	Scores      []CompetencyScore `json:"competency_scores"`
	Analytics   *SessionAnalytics `json:"analytics,omitempty"`
	CompletedAt time.Time         `json:"completed_at"`
}

// CompetencyAverage is the mean normalized score of one competency across
// completed sessions.
type CompetencyAverage struct {
	Competency    Competency `json:"competency"`
	DisplayName   string     `json:"display_name"`
	Color         string     `json:"color"`
	AvgPercentage float64    `json:"avg_percentage"`
	Samples       int        `json:"samples"`
}

// DashboardStats is the HR overview payload.
type DashboardStats struct {
	TotalSessions     int                 `json:"total_sessions"`
	InProgress        int                 `json:"in_progress"`
	Completed         int                 `json:"completed"`
	AvgCompletionSecs *float64            `json:"avg_completion_seconds,omitempty"`
	Averages          []CompetencyAverage `json:"competency_averages"`
	Recent            []ResultSummary     `json:"recent_results"`
}

// ResultDetail is everything the HR detail view shows for one session.
type ResultDetail struct {
	Session          AssessmentSession `json:"session"`
	Ranked           []CompetencyScore `json:"ranked_scores"`
	TopStrengths     []CompetencyScore `json:"top_strengths"`
	DevelopmentAreas []CompetencyScore `json:"development_areas"`
	Analytics        *SessionAnalytics `json:"analytics,omitempty"`
	Answers          AnswerSet         `json:"answers"`
	CompletedAt      time.Time         `json:"completed_at"`
	Recommendation   any               `json:"recommendation"`
}
