package handler

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stemsi/etesthub-backend/internal/config"
	"github.com/stemsi/etesthub-backend/internal/middleware"
	"github.com/stemsi/etesthub-backend/internal/model"
	"github.com/stemsi/etesthub-backend/internal/response"
	"github.com/stemsi/etesthub-backend/internal/service"
)

const (
	refreshInterval   = 15 * time.Second
	keepAliveInterval = 30 * time.Second
	refreshTimeout    = 5 * time.Second // prevent slow data-service calls from blocking the SSE loop
)

// MonitorHandler streams live exam progress to teachers over SSE.
type MonitorHandler struct {
	rdb            *redis.Client
	monitorService *service.MonitorService
	log            zerolog.Logger
}

func NewMonitorHandler(rdb *redis.Client, monitorService *service.MonitorService, log zerolog.Logger) *MonitorHandler {
	return &MonitorHandler{
		rdb:            rdb,
		monitorService: monitorService,
		log:            log.With().Str("component", "monitor_handler").Logger(),
	}
}

// MonitorExamSSE godoc
// GET /api/v1/teacher/exams/:exam_id/monitor
func (h *MonitorHandler) MonitorExamSSE(c *gin.Context) {
	examID, ok := idParam(c, "exam_id")
	if !ok {
		return
	}

	reqCtx := c.Request.Context()
	cred := middleware.GetCredential(c)

	// The first snapshot is fetched before any header is written so a
	// data-service failure still gets a JSON error.
	snap, err := h.snapshot(reqCtx, cred, examID)
	if err != nil {
		fail(c, h.log, zerolog.ErrorLevel, err, response.ErrPersistenceFailed)
		return
	}

	pubsub := h.rdb.Subscribe(reqCtx, config.CacheKey.ExamMonitorChannel(examID))
	defer pubsub.Close()
	ch := pubsub.Channel()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	h.writeSnapshot(c, "snapshot", snap)

	keepAliveTicker := time.NewTicker(keepAliveInterval)
	defer keepAliveTicker.Stop()

	refreshTicker := time.NewTicker(refreshInterval)
	defer refreshTicker.Stop()

	// Skip refreshes until something happened since the last snapshot.
	dirty := false

	h.log.Info().Str("exam_id", examID).Msg("Teacher attached to live monitor SSE")

	pingPayload, _ := json.Marshal(map[string]string{"type": "ping"})

	for {
		select {
		case <-reqCtx.Done():
			h.log.Info().Str("exam_id", examID).Msg("Teacher disconnected from live monitor SSE")
			return

		case msg, ok := <-ch:
			if !ok {
				return
			}
			// Relay payloads are already JSON events.
			c.Writer.Write([]byte("data: "))
			c.Writer.Write([]byte(msg.Payload))
			c.Writer.Write([]byte("\n\n"))
			c.Writer.Flush()
			dirty = true

		case <-refreshTicker.C:
			if !dirty {
				continue
			}
			snap, err := h.snapshot(reqCtx, cred, examID)
			if err != nil {
				h.log.Warn().Err(err).Str("exam_id", examID).Msg("Failed to refresh monitor snapshot")
				continue
			}
			h.writeSnapshot(c, "refresh", snap)
			dirty = false

		case <-keepAliveTicker.C:
			c.Writer.Write([]byte("data: "))
			c.Writer.Write(pingPayload)
			c.Writer.Write([]byte("\n\n"))
			c.Writer.Flush()
		}
	}
}

func (h *MonitorHandler) snapshot(parent context.Context, cred model.Credential, examID string) (*service.MonitorSnapshot, error) {
	ctx, cancel := context.WithTimeout(parent, refreshTimeout)
	defer cancel()
	return h.monitorService.Snapshot(ctx, cred, examID)
}

func (h *MonitorHandler) writeSnapshot(c *gin.Context, kind string, snap *service.MonitorSnapshot) {
	c.SSEvent("message", map[string]interface{}{
		"type": kind,
		"data": snap,
	})
	c.Writer.Flush()
}
