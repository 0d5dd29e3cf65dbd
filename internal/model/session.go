package model

import (
	"time"

	"github.com/google/uuid"
)

// SessionStatus enumerates assessment session states.
type SessionStatus string

const (
	SessionStatusInProgress SessionStatus = "IN_PROGRESS"
	SessionStatusCompleted  SessionStatus = "COMPLETED"
)

// Candidate holds the optional identity fields entered before the test.
type Candidate struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

// AssessmentSession is one complete candidate attempt.
type AssessmentSession struct {
	ID         uuid.UUID     `json:"id"`
	Candidate  Candidate     `json:"candidate"`
	Status     SessionStatus `json:"status"`
	StartedAt  time.Time     `json:"started_at"`
	FinishedAt *time.Time    `json:"finished_at,omitempty"`
}

// StartSessionRequest is the payload for starting an assessment.
type StartSessionRequest struct {
	Name  string `json:"name" binding:"omitempty,max=255"`
	Email string `json:"email" binding:"omitempty,email,max=255"`
	Role  string `json:"role" binding:"omitempty,max=255"`
}

// StartSessionResponse is returned after a session is created.
// Token authorizes the event stream of this session only.
type StartSessionResponse struct {
	Session   AssessmentSession      `json:"session"`
	Token     string                 `json:"token"`
	Questions []QuestionForCandidate `json:"questions"`
}

// QuestionShownRequest reports that a question was displayed.
type QuestionShownRequest struct {
	QuestionID int `json:"question_id" binding:"required,min=1"`
}

// AnswerChangedRequest reports a chosen or revised answer.
type AnswerChangedRequest struct {
	QuestionID    int     `json:"question_id" binding:"required,min=1"`
	PreviousValue *string `json:"previous_value"`
	NewValue      string  `json:"new_value" binding:"required,option_id"`
}

// NavigationRequest reports a next/back navigation.
type NavigationRequest struct {
	QuestionID int          `json:"question_id" binding:"required,min=1"`
	Direction  NavDirection `json:"direction" binding:"required,oneof=next back"`
}

// SubmitRequest carries the final answer set. Keys are question ids.
type SubmitRequest struct {
	Answers AnswerSet `json:"answers"`
}

// AssessmentResult is the scored outcome of a completed session.
type AssessmentResult struct {
	SessionID   uuid.UUID         `json:"session_id"`
	Candidate   Candidate         `json:"candidate"`
	Answers     AnswerSet         `json:"answers"`
	Scores      []CompetencyScore `json:"competency_scores"`
	Skipped     []SkippedAnswer   `json:"skipped,omitempty"`
	Analytics   *SessionAnalytics `json:"analytics,omitempty"`
	CompletedAt time.Time         `json:"completed_at"`
}

// SubmitResponse is returned to the candidate after scoring.
type SubmitResponse struct {
	SessionID        uuid.UUID         `json:"session_id"`
	Scores           []CompetencyScore `json:"competency_scores"`
	TopStrengths     []CompetencyScore `json:"top_strengths"`
	DevelopmentAreas []CompetencyScore `json:"development_areas"`
	Skipped          []SkippedAnswer   `json:"skipped,omitempty"`
	Analytics        SessionAnalytics  `json:"analytics"`
}
