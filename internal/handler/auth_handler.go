package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/stemsi/compass-backend/internal/middleware"
	"github.com/stemsi/compass-backend/internal/model"
	"github.com/stemsi/compass-backend/internal/response"
	"github.com/stemsi/compass-backend/internal/validator"
)

// AuthHandler handles HR authentication endpoints.
type AuthHandler struct {
	auth AuthAPI
	log  zerolog.Logger
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(auth AuthAPI, log zerolog.Logger) *AuthHandler {
	return &AuthHandler{
		auth: auth,
		log:  log.With().Str("component", "auth_handler").Logger(),
	}
}

// Login godoc
// POST /api/v1/auth/hr/login
// Validates email + password and returns a JWT with permissions. Any earlier
// session of the same user stops working.
func (h *AuthHandler) Login(c *gin.Context) {
	var req model.HRLoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithFields(c, http.StatusBadRequest, response.ErrValidation, fields)
		return
	}

	resp, err := h.auth.Login(c.Request.Context(), req)
	if err != nil {
		failWith(c, h.log, err)
		return
	}

	h.log.Info().Int("hr_user_id", resp.User.ID).Msg("HR user signed in")
	response.Success(c, http.StatusOK, resp)
}

// Me godoc
// GET /api/v1/auth/hr/me
func (h *AuthHandler) Me(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	user, err := h.auth.Me(c.Request.Context(), claims.UserID)
	if err != nil {
		failWith(c, h.log, err)
		return
	}

	response.Success(c, http.StatusOK, gin.H{
		"user":        user,
		"permissions": claims.Permissions,
	})
}

// Logout godoc
// POST /api/v1/auth/hr/logout
func (h *AuthHandler) Logout(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	if err := h.auth.Logout(c.Request.Context(), claims.UserID); err != nil {
		failWith(c, h.log, err)
		return
	}
	response.Success(c, http.StatusOK, gin.H{})
}
