package handler

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/stemsi/compass-backend/internal/response"
)

const probeTimeout = 2 * time.Second

// Probe reports whether a dependency is reachable.
type Probe func(ctx context.Context) error

// SystemDeps are the read-only views the system endpoints need.
type SystemDeps struct {
	Probes      map[string]Probe
	QueueDepths func(ctx context.Context) (map[string]int64, error)
	LiveTracked func() int
}

// SystemHandler serves the health check and the HR runtime status.
type SystemHandler struct {
	deps      SystemDeps
	startTime time.Time
	log       zerolog.Logger
}

func NewSystemHandler(deps SystemDeps, log zerolog.Logger) *SystemHandler {
	return &SystemHandler{
		deps:      deps,
		startTime: time.Now(),
		log:       log.With().Str("component", "system_handler").Logger(),
	}
}

type systemStatus struct {
	Uptime       string           `json:"uptime"`
	GoVersion    string           `json:"go_version"`
	NumCPU       int              `json:"num_cpu"`
	Goroutines   int              `json:"goroutines"`
	HeapAlloc    uint64           `json:"heap_alloc"`
	HeapSys      uint64           `json:"heap_sys"`
	NumGC        uint32           `json:"num_gc"`
	LiveSessions int              `json:"live_sessions"`
	Queues       map[string]int64 `json:"queues"`
}

// Health godoc
// GET /health
// 200 when every probe passes, 503 otherwise.
func (h *SystemHandler) Health(c *gin.Context) {
	checks := h.runProbes(c.Request.Context())

	status, code := "ok", http.StatusOK
	for _, v := range checks {
		if v != "ok" {
			status, code = "degraded", http.StatusServiceUnavailable
			break
		}
	}
	response.Success(c, code, gin.H{"status": status, "checks": checks})
}

// Status godoc
// GET /api/v1/hr/system
func (h *SystemHandler) Status(c *gin.Context) {
	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	st := systemStatus{
		Uptime:     formatDuration(time.Since(h.startTime)),
		GoVersion:  runtime.Version(),
		NumCPU:     runtime.NumCPU(),
		Goroutines: runtime.NumGoroutine(),
		HeapAlloc:  ms.HeapAlloc,
		HeapSys:    ms.HeapSys,
		NumGC:      ms.NumGC,
		Queues:     map[string]int64{},
	}
	if h.deps.LiveTracked != nil {
		st.LiveSessions = h.deps.LiveTracked()
	}
	if h.deps.QueueDepths != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), probeTimeout)
		defer cancel()
		if q, err := h.deps.QueueDepths(ctx); err == nil {
			st.Queues = q
		} else {
			h.log.Warn().Err(err).Msg("Failed to read queue depths")
		}
	}
	response.Success(c, http.StatusOK, st)
}

// runProbes checks every dependency concurrently.
func (h *SystemHandler) runProbes(parent context.Context) map[string]string {
	ctx, cancel := context.WithTimeout(parent, probeTimeout)
	defer cancel()

	var (
		mu     sync.Mutex
		wg     sync.WaitGroup
		checks = make(map[string]string, len(h.deps.Probes))
	)
	for name, probe := range h.deps.Probes {
		wg.Add(1)
		go func() {
			defer wg.Done()
			result := "ok"
			if err := probe(ctx); err != nil {
				h.log.Warn().Err(err).Str("dependency", name).Msg("Health probe failed")
				result = "unreachable"
			}
			mu.Lock()
			checks[name] = result
			mu.Unlock()
		}()
	}
	wg.Wait()
	return checks
}

func formatDuration(d time.Duration) string {
	days := int(d.Hours()) / 24
	hours := int(d.Hours()) % 24
	minutes := int(d.Minutes()) % 60
	seconds := int(d.Seconds()) % 60

	if days > 0 {
		return fmt.Sprintf("%dd %dh %dm %ds", days, hours, minutes, seconds)
	}
	if hours > 0 {
		return fmt.Sprintf("%dh %dm %ds", hours, minutes, seconds)
	}
	return fmt.Sprintf("%dm %ds", minutes, seconds)
}
