package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/stemsi/compass-backend/internal/service"
)

const (
	refreshInterval   = 15 * time.Second
	keepAliveInterval = 30 * time.Second
	refreshTimeout    = 5 * time.Second
)

// MonitorHandler streams a live session to HR over Server-Sent Events.
type MonitorHandler struct {
	monitor MonitorAPI
	log     zerolog.Logger
}

func NewMonitorHandler(monitor MonitorAPI, log zerolog.Logger) *MonitorHandler {
	return &MonitorHandler{
		monitor: monitor,
		log:     log.With().Str("component", "monitor_handler").Logger(),
	}
}

// MonitorSessionSSE godoc
// GET /api/v1/hr/sessions/:session_id/monitor
// Sends a snapshot, then forwards every event batch published for the
// session and a refreshed snapshot after activity.
func (h *MonitorHandler) MonitorSessionSSE(c *gin.Context) {
	sid, ok := sessionParam(c)
	if !ok {
		return
	}
	reqCtx := c.Request.Context()

	snap, err := h.snapshot(reqCtx, sid)
	if err != nil {
		failWith(c, h.log, err)
		return
	}

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.Header().Set("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	c.SSEvent("snapshot", snap)
	c.Writer.Flush()

	pubsub := h.monitor.Subscribe(reqCtx, sid)
	defer pubsub.Close()
	ch := pubsub.Channel()

	keepAlive := time.NewTicker(keepAliveInterval)
	defer keepAlive.Stop()
	refresh := time.NewTicker(refreshInterval)
	defer refresh.Stop()

	dirty := false
	log := h.log.With().Str("session_id", sid.String()).Logger()
	log.Info().Msg("HR attached to live session monitor")

	for {
		select {
		case <-reqCtx.Done():
			log.Info().Msg("HR detached from live session monitor")
			return

		case msg, open := <-ch:
			if !open {
				return
			}
			// Payloads are already JSON; forward without decoding.
			c.Writer.Write([]byte("event: batch\ndata: "))
			c.Writer.Write([]byte(msg.Payload))
			c.Writer.Write([]byte("\n\n"))
			c.Writer.Flush()
			dirty = true

		case <-refresh.C:
			if !dirty {
				continue
			}
			dirty = false
			snap, err := h.snapshot(reqCtx, sid)
			if err != nil {
				log.Warn().Err(err).Msg("Monitor refresh failed")
				continue
			}
			c.SSEvent("snapshot", snap)
			c.Writer.Flush()

		case <-keepAlive.C:
			c.Writer.Write([]byte(": ping\n\n"))
			c.Writer.Flush()
		}
	}
}

func (h *MonitorHandler) snapshot(parent context.Context, sid uuid.UUID) (*service.MonitorSnapshot, error) {
	ctx, cancel := context.WithTimeout(parent, refreshTimeout)
	defer cancel()
	return h.monitor.Snapshot(ctx, sid)
}
