// Package reporting hands assessment data to the off-device sinks. Every
// hand-off is best-effort: failures are logged and never surface to the
// candidate.
package reporting

import (
	"time"

	"github.com/stemsi/compass-backend/internal/model"
)

// ResultPayload is the JSON document queued for each completed assessment.
type ResultPayload struct {
	SessionID        string                  `json:"session_id"`
	User             model.Candidate         `json:"user"`
	Answers          model.AnswerSet         `json:"answers"`
	CompetencyScores []model.CompetencyScore `json:"competencyScores"`
	Analytics        *model.SessionAnalytics `json:"analytics,omitempty"`
	CompletedAt      time.Time               `json:"completed_at"`
}

// NewResultPayload converts a scored result into its queued form.
func NewResultPayload(r model.AssessmentResult) ResultPayload {
	return ResultPayload{
		SessionID:        r.SessionID.String(),
		User:             r.Candidate,
		Answers:          r.Answers,
		CompetencyScores: r.Scores,
		Analytics:        r.Analytics,
		CompletedAt:      r.CompletedAt,
	}
}
