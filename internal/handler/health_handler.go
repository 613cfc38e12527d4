package handler

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/etesthub-backend/internal/response"
)

const healthTimeout = 2 * time.Second

// HealthHandler reports process and dependency health.
type HealthHandler struct {
	rdb       *redis.Client
	transport string
	startTime time.Time
	log       zerolog.Logger
}

// NewHealthHandler creates a new HealthHandler. transport names the event
// transport in use.
func NewHealthHandler(rdb *redis.Client, transport string, log zerolog.Logger) *HealthHandler {
	return &HealthHandler{
		rdb:       rdb,
		transport: transport,
		startTime: time.Now(),
		log:       log.With().Str("component", "health_handler").Logger(),
	}
}

type healthStatus struct {
	Status     string `json:"status"`
	Redis      string `json:"redis"`
	Events     string `json:"events"`
	Uptime     string `json:"uptime"`
	Goroutines int    `json:"goroutines"`
	HeapAlloc  uint64 `json:"heap_alloc"`
	GoVersion  string `json:"go_version"`
}

// Health godoc
// GET /health
// Responds 503 when Redis is unreachable since sessions live there.
func (h *HealthHandler) Health(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), healthTimeout)
	defer cancel()

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)

	st := healthStatus{
		Status:     "ok",
		Redis:      "ok",
		Events:     h.transport,
		Uptime:     formatDuration(time.Since(h.startTime)),
		Goroutines: runtime.NumGoroutine(),
		HeapAlloc:  ms.HeapAlloc,
		GoVersion:  runtime.Version(),
	}

	if err := h.rdb.Ping(ctx).Err(); err != nil {
		h.log.Warn().Err(err).Msg("Redis ping failed")
		st.Status = "degraded"
		st.Redis = "unreachable"
		response.Success(c, http.StatusServiceUnavailable, st)
		return
	}
	response.Success(c, http.StatusOK, st)
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
