package websocket

import (
	"encoding/json"

	"github.com/stemsi/compass-backend/internal/model"
)

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionShown    Action = "shown"
	ActionAnswer   Action = "answer"
	ActionNavigate Action = "navigate"
	ActionFlush    Action = "flush"
	ActionSubmit   Action = "submit"
	ActionPing     Action = "ping"
)

// RequestEnvelope is used to peek at the action before full parsing.
type RequestEnvelope struct {
	Action Action `json:"action"`
}

// Peek decodes only the action of a raw frame.
func Peek(raw []byte) (Action, error) {
	var env RequestEnvelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return "", err
	}
	return env.Action, nil
}

// ShownRequest reports that a question was displayed.
type ShownRequest struct {
	Action Action `json:"action"`
	model.QuestionShownRequest
}

// AnswerRequest reports a chosen or revised answer.
type AnswerRequest struct {
	Action Action `json:"action"`
	model.AnswerChangedRequest
}

// NavigateRequest reports a next/back navigation.
type NavigateRequest struct {
	Action Action `json:"action"`
	model.NavigationRequest
}

// SubmitRequest finishes the test. An empty answer set scores what the
// tracker recorded.
type SubmitRequest struct {
	Action Action `json:"action"`
	model.SubmitRequest
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventError     Event = "error"
	EventSuccess   Event = "success"
	EventAnalytics Event = "analytics"
	EventScored    Event = "scored"
	EventPong      Event = "pong"
)

type SuccessResponse struct {
	Event  Event  `json:"event"`
	Action Action `json:"action"`
}

type AnalyticsResponse struct {
	Event     Event                  `json:"event"`
	Analytics model.SessionAnalytics `json:"analytics"`
}

type ScoredResponse struct {
	Event  Event                `json:"event"`
	Result model.SubmitResponse `json:"result"`
}

type ErrorResponse struct {
	Event Event  `json:"event"`
	Code  string `json:"code,omitempty"`
	Error string `json:"error"`
}

type PongResponse struct {
	Event Event `json:"event"`
}
