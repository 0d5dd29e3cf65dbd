package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/stemsi/compass-backend/internal/model"
	"github.com/stemsi/compass-backend/internal/response"
	"github.com/stemsi/compass-backend/internal/validator"
)

// AssessmentHandler serves the candidate REST endpoints. Every event endpoint
// mirrors an action of the WebSocket stream.
type AssessmentHandler struct {
	assessments AssessmentAPI
	log         zerolog.Logger
}

// NewAssessmentHandler creates a new AssessmentHandler.
func NewAssessmentHandler(assessments AssessmentAPI, log zerolog.Logger) *AssessmentHandler {
	return &AssessmentHandler{
		assessments: assessments,
		log:         log.With().Str("component", "assessment_handler").Logger(),
	}
}

// Start godoc
// POST /api/v1/assessments
func (h *AssessmentHandler) Start(c *gin.Context) {
	var req model.StartSessionRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	resp, err := h.assessments.Start(c.Request.Context(), req)
	if err != nil {
		failWith(c, h.log, err)
		return
	}
	response.Success(c, http.StatusCreated, resp)
}

// Questions godoc
// GET /api/v1/assessments/:session_id/questions
func (h *AssessmentHandler) Questions(c *gin.Context) {
	response.Success(c, http.StatusOK, gin.H{"questions": h.assessments.Questions()})
}

// QuestionShown godoc
// POST /api/v1/assessments/:session_id/events/shown
func (h *AssessmentHandler) QuestionShown(c *gin.Context) {
	sid, ok := sessionParam(c)
	if !ok {
		return
	}
	var req model.QuestionShownRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.assessments.QuestionShown(c.Request.Context(), sid, req.QuestionID); err != nil {
		failWith(c, h.log, err)
		return
	}
	response.Success(c, http.StatusAccepted, gin.H{"status": "recorded"})
}

// AnswerChanged godoc
// POST /api/v1/assessments/:session_id/events/answer
func (h *AssessmentHandler) AnswerChanged(c *gin.Context) {
	sid, ok := sessionParam(c)
	if !ok {
		return
	}
	var req model.AnswerChangedRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.assessments.AnswerChanged(c.Request.Context(), sid, req); err != nil {
		failWith(c, h.log, err)
		return
	}
	response.Success(c, http.StatusAccepted, gin.H{"status": "recorded"})
}

// Navigate godoc
// POST /api/v1/assessments/:session_id/events/navigate
func (h *AssessmentHandler) Navigate(c *gin.Context) {
	sid, ok := sessionParam(c)
	if !ok {
		return
	}
	var req model.NavigationRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	if err := h.assessments.Navigate(c.Request.Context(), sid, req); err != nil {
		failWith(c, h.log, err)
		return
	}
	response.Success(c, http.StatusAccepted, gin.H{"status": "recorded"})
}

// Flush godoc
// POST /api/v1/assessments/:session_id/flush
func (h *AssessmentHandler) Flush(c *gin.Context) {
	sid, ok := sessionParam(c)
	if !ok {
		return
	}
	if err := h.assessments.Flush(c.Request.Context(), sid); err != nil {
		failWith(c, h.log, err)
		return
	}
	response.Success(c, http.StatusAccepted, gin.H{"status": "flushed"})
}

// Analytics godoc
// GET /api/v1/assessments/:session_id/analytics
func (h *AssessmentHandler) Analytics(c *gin.Context) {
	sid, ok := sessionParam(c)
	if !ok {
		return
	}
	a, err := h.assessments.Analytics(c.Request.Context(), sid)
	if err != nil {
		failWith(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, a)
}

// Submit godoc
// POST /api/v1/assessments/:session_id/submit
// The body may be empty, in which case the tracked answers are scored.
func (h *AssessmentHandler) Submit(c *gin.Context) {
	sid, ok := sessionParam(c)
	if !ok {
		return
	}
	var req model.SubmitRequest
	if c.Request.ContentLength != 0 {
		if fields := validator.Bind(c, &req); fields != nil {
			response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
			return
		}
	}

	resp, err := h.assessments.Submit(c.Request.Context(), sid, req.Answers)
	if err != nil {
		failWith(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, resp)
}
