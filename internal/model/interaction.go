package model

import "encoding/json"

// EventType enumerates tracked UI events.
type EventType string

const (
	EventQuestionShown EventType = "question_shown"
	EventAnswerChanged EventType = "answer_changed"
	EventNavigation    EventType = "navigation"
)

// NavDirection is the direction of a navigation event.
type NavDirection string

const (
	NavNext NavDirection = "next"
	NavBack NavDirection = "back"
)

// Valid reports whether d is next or back.
func (d NavDirection) Valid() bool {
	return d == NavNext || d == NavBack
}

// InteractionEvent is an append-only log entry. Timestamp is milliseconds.
type InteractionEvent struct {
	Type       EventType       `json:"type"`
	QuestionID int             `json:"question_id"`
	Timestamp  int64           `json:"timestamp"`
	Data       json.RawMessage `json:"data,omitempty"`
}

// AnswerChangedData is the payload of an answer_changed event.
type AnswerChangedData struct {
	PreviousValue *string `json:"previous_value"`
	NewValue      string  `json:"new_value"`
	ElapsedMs     int64   `json:"elapsed_ms"`
}

// NavigationData is the payload of a navigation event.
type NavigationData struct {
	Direction NavDirection `json:"direction"`
}

// Revision records a change from one chosen answer to a different one.
type Revision struct {
	From      string `json:"from"`
	To        string `json:"to"`
	Timestamp int64  `json:"timestamp"`
}

// QuestionAnalytics aggregates every event seen for one question.
type QuestionAnalytics struct {
	QuestionID          int        `json:"question_id"`
	StartTime           int64      `json:"start_time"`
	EndTime             *int64     `json:"end_time,omitempty"`
	TotalTime           *int64     `json:"total_time,omitempty"`
	AnswerChangeCount   int        `json:"answer_change_count"`
	FinalAnswer         *string    `json:"final_answer,omitempty"`
	Revisions           []Revision `json:"revisions"`
	BackNavigationCount int        `json:"back_navigation_count"`
}

// SessionAnalytics is the on-demand summary over all question analytics.
type SessionAnalytics struct {
	SessionID            string              `json:"session_id"`
	TotalTime            int64               `json:"total_time"`
	CompletedQuestions   int                 `json:"completed_questions"`
	TotalAnswerChanges   int                 `json:"total_answer_changes"`
	TotalBackNavigations int                 `json:"total_back_navigations"`
	AverageResponseTime  float64             `json:"average_response_time"`
	Questions            []QuestionAnalytics `json:"questions"`
	PendingEvents        []InteractionEvent  `json:"pending_events"`
}

// EventBatch is what the tracker hands to the reporting sink.
type EventBatch struct {
	SessionID string             `json:"session_id"`
	Events    []InteractionEvent `json:"events"`
}
