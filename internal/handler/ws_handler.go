package handler

import (
	"encoding/json"
	"maps"
	"net/http"
	"slices"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/stemsi/compass-backend/internal/response"
	"github.com/stemsi/compass-backend/internal/validator"
	ws "github.com/stemsi/compass-backend/internal/websocket"
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// An empty allowedOrigins permits all origins (development mode).
func buildUpgrader(allowedOrigins []string) websocket.Upgrader {
	return websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin: func(r *http.Request) bool {
			if len(allowedOrigins) == 0 {
				return true
			}
			origin := r.Header.Get("Origin")
			for _, allowed := range allowedOrigins {
				if strings.EqualFold(allowed, origin) {
					return true
				}
			}
			return false
		},
	}
}

// WSHandler streams candidate UI events into the session tracker.
type WSHandler struct {
	assessments AssessmentAPI
	log         zerolog.Logger
	upgrader    websocket.Upgrader
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(assessments AssessmentAPI, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		assessments: assessments,
		log:         log.With().Str("component", "ws_handler").Logger(),
		upgrader:    buildUpgrader(allowedOrigins),
	}
}

// AssessmentStream godoc
// WS /ws/v1/assessments/:session_id/stream?token=...
// Every frame is answered with exactly one event. The connection closes
// after a successful submit.
func (h *WSHandler) AssessmentStream(c *gin.Context) {
	sid, ok := sessionParam(c)
	if !ok {
		return
	}

	// Fails early with a JSON error instead of an upgraded socket.
	if _, err := h.assessments.Analytics(c.Request.Context(), sid); err != nil {
		failWith(c, h.log, err)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()
	ws.Prepare(conn)

	wsLog := h.log.With().Str("session_id", sid.String()).Logger()
	wsLog.Info().Msg("Candidate connected")

	for {
		raw, err := ws.ReadMessage(conn)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				wsLog.Warn().Err(err).Msg("Unexpected close")
			} else {
				wsLog.Debug().Msg("Connection closed")
			}
			return
		}

		reply, done := h.dispatch(c, wsLog, sid, raw)
		if err := ws.WriteTyped(conn, reply); err != nil {
			wsLog.Debug().Err(err).Msg("Write failed")
			return
		}
		if done {
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, "submitted"))
			return
		}
	}
}

// dispatch handles one frame and returns the reply, plus whether the
// session is finished.
func (h *WSHandler) dispatch(c *gin.Context, log zerolog.Logger, sid uuid.UUID, raw []byte) (any, bool) {
	ctx := c.Request.Context()

	action, err := ws.Peek(raw)
	if err != nil {
		return wsError(response.ErrInvalidPayload, ""), false
	}

	switch action {
	case ws.ActionPing:
		return ws.PongResponse{Event: ws.EventPong}, false

	case ws.ActionShown:
		var req ws.ShownRequest
		if msg, bad := decodeFrame(raw, &req); bad {
			return wsError(response.ErrValidation, msg), false
		}
		err = h.assessments.QuestionShown(ctx, sid, req.QuestionID)

	case ws.ActionAnswer:
		var req ws.AnswerRequest
		if msg, bad := decodeFrame(raw, &req); bad {
			return wsError(response.ErrValidation, msg), false
		}
		err = h.assessments.AnswerChanged(ctx, sid, req.AnswerChangedRequest)

	case ws.ActionNavigate:
		var req ws.NavigateRequest
		if msg, bad := decodeFrame(raw, &req); bad {
			return wsError(response.ErrValidation, msg), false
		}
		err = h.assessments.Navigate(ctx, sid, req.NavigationRequest)

	case ws.ActionFlush:
		if err := h.assessments.Flush(ctx, sid); err != nil {
			return h.wsFail(log, err), false
		}
		a, err := h.assessments.Analytics(ctx, sid)
		if err != nil {
			return h.wsFail(log, err), false
		}
		return ws.AnalyticsResponse{Event: ws.EventAnalytics, Analytics: a}, false

	case ws.ActionSubmit:
		var req ws.SubmitRequest
		if msg, bad := decodeFrame(raw, &req); bad {
			return wsError(response.ErrValidation, msg), false
		}
		result, err := h.assessments.Submit(ctx, sid, req.Answers)
		if err != nil {
			return h.wsFail(log, err), false
		}
		log.Info().Int("skipped", len(result.Skipped)).Msg("Assessment submitted over stream")
		return ws.ScoredResponse{Event: ws.EventScored, Result: *result}, true

	default:
		log.Warn().Str("action", string(action)).Msg("Unknown action")
		return wsError(response.ErrInvalidPayload, "unknown action: "+string(action)), false
	}

	if err != nil {
		return h.wsFail(log, err), false
	}
	return ws.SuccessResponse{Event: ws.EventSuccess, Action: action}, false
}

func (h *WSHandler) wsFail(log zerolog.Logger, err error) ws.ErrorResponse {
	status, code := errorStatus(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("Stream action failed")
	}
	return wsError(code, "")
}

func wsError(code response.ErrCode, detail string) ws.ErrorResponse {
	msg := response.GetMessage(code)
	if detail != "" {
		msg += " " + detail
	}
	return ws.ErrorResponse{Event: ws.EventError, Code: string(code), Error: msg}
}

// decodeFrame unmarshals and validates a frame. It returns a flattened
// message and true when the frame is rejected.
func decodeFrame(raw []byte, dst any) (string, bool) {
	if err := json.Unmarshal(raw, dst); err != nil {
		return err.Error(), true
	}
	fields := validator.Struct(dst)
	if fields == nil {
		return "", false
	}
	return strings.Join(slices.Sorted(maps.Values(fields)), "; "), true
}
