package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/stemsi/compass-backend/internal/response"
	"github.com/stemsi/compass-backend/internal/service"
)

// SessionValidator checks a token id against the active HR session.
type SessionValidator interface {
	ValidateHRSession(ctx context.Context, userID int, jti string) error
}

// CheckSingleDeviceSession rejects HR tokens whose JTI is no longer the
// active one, e.g. after a login on another device or a logout.
func CheckSingleDeviceSession(auth SessionValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := GetClaims(c)
		if claims == nil {
			response.AbortFail(c, http.StatusUnauthorized, response.ErrTokenRequired)
			return
		}

		if claims.TokenType != service.TokenTypeHR {
			c.Next()
			return
		}

		if err := auth.ValidateHRSession(c.Request.Context(), claims.UserID, claims.ID); err != nil {
			if errors.Is(err, service.ErrSessionInvalidated) {
				response.AbortFail(c, http.StatusUnauthorized, response.ErrSessionInvalidated)
				return
			}
			response.AbortFail(c, http.StatusInternalServerError, response.ErrInternal)
			return
		}

		c.Next()
	}
}
