package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/stemsi/compass-backend/internal/response"
	"github.com/stemsi/compass-backend/internal/service"
)

// errorStatus maps a service error onto an HTTP status and error code.
// Unknown errors become 500.
func errorStatus(err error) (int, response.ErrCode) {
	switch {
	case errors.Is(err, service.ErrSessionNotFound):
		return http.StatusNotFound, response.ErrAssessmentNotFound
	case errors.Is(err, service.ErrSessionCompleted):
		return http.StatusConflict, response.ErrAssessmentCompleted
	case errors.Is(err, service.ErrUnknownQuestion):
		return http.StatusUnprocessableEntity, response.ErrUnknownQuestion
	case errors.Is(err, service.ErrResultNotReady):
		return http.StatusNotFound, response.ErrResultNotReady
	case errors.Is(err, service.ErrInvalidCredentials):
		return http.StatusUnauthorized, response.ErrInvalidCredentials
	case errors.Is(err, service.ErrSessionInvalidated):
		return http.StatusUnauthorized, response.ErrSessionInvalidated
	default:
		return http.StatusInternalServerError, response.ErrInternal
	}
}

// failWith writes the error envelope for err, logging anything unexpected.
func failWith(c *gin.Context, log zerolog.Logger, err error) {
	status, code := errorStatus(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).
			Str("request_id", response.RequestID(c)).
			Str("path", c.FullPath()).
			Msg("Request failed")
	}
	response.Fail(c, status, code)
}

// sessionParam parses :session_id, writing a 400 when malformed.
func sessionParam(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("session_id"))
	if err != nil {
		response.Fail(c, http.StatusBadRequest, response.ErrInvalidID)
		return uuid.Nil, false
	}
	return id, true
}
