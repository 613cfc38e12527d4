package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stemsi/etesthub-backend/internal/middleware"
	"github.com/stemsi/etesthub-backend/internal/model"
	"github.com/stemsi/etesthub-backend/internal/response"
	"github.com/stemsi/etesthub-backend/internal/service"
	"github.com/stemsi/etesthub-backend/internal/validator"
	ws "github.com/stemsi/etesthub-backend/internal/websocket"
)

const (
	tickInterval = 15 * time.Second
	opTimeout    = 15 * time.Second
)

// buildUpgrader creates a WebSocket upgrader with origin validation.
// allowedOrigins comes from config.Config.AllowedOrigins.
// An empty slice permits all origins (development mode).
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

// WSHandler handles WebSocket exam streaming.
type WSHandler struct {
	sessionService *service.ExamSessionService
	log            zerolog.Logger
	upgrader       websocket.Upgrader
	tick           time.Duration
}

// NewWSHandler creates a new WSHandler.
func NewWSHandler(sessionService *service.ExamSessionService, log zerolog.Logger, allowedOrigins []string) *WSHandler {
	return &WSHandler{
		sessionService: sessionService,
		log:            log.With().Str("component", "ws_handler").Logger(),
		upgrader:       buildUpgrader(allowedOrigins),
		tick:           tickInterval,
	}
}

// wsSession is the per-connection state shared by every frame.
type wsSession struct {
	conn       *websocket.Conn
	cred       model.Credential
	user       *model.User
	scheduleID string
	log        zerolog.Logger
}

// ExamWebSocketStream godoc
// WS /ws/v1/student/schedules/:schedule_id/stream
// Upgrades to WebSocket for autosave, submit and window ticks.
func (h *WSHandler) ExamWebSocketStream(c *gin.Context) {
	scheduleID, ok := idParam(c, "schedule_id")
	if !ok {
		return
	}

	user := middleware.GetUser(c)
	cred := middleware.GetCredential(c)

	// The window and enrollment are checked before upgrading so rejections
	// are plain HTTP errors.
	sess, err := h.sessionService.State(c.Request.Context(), cred, scheduleID, user)
	if err != nil {
		fail(c, h.log, zerolog.ErrorLevel, err, response.ErrPersistenceFailed)
		return
	}

	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("WebSocket upgrade failed")
		return
	}
	defer conn.Close()

	s := &wsSession{
		conn:       conn,
		cred:       cred,
		user:       user,
		scheduleID: scheduleID,
		log: h.log.With().
			Str("student_id", user.ID).
			Str("schedule_id", scheduleID).
			Logger(),
	}
	s.log.Info().Msg("Student connected")

	ws.WriteEvent(conn, ws.EventState, sess)

	// Reads happen on their own goroutine; every write happens below so
	// the connection has a single writer.
	frames := make(chan ws.Request)
	done := make(chan struct{})
	defer close(done)
	go h.readLoop(s, frames, done)

	ticker := time.NewTicker(h.tick)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-frames:
			if !ok {
				return
			}
			h.dispatch(s, &msg)
		case <-ticker.C:
			h.sendTick(s)
		}
	}
}

func (h *WSHandler) readLoop(s *wsSession, frames chan<- ws.Request, done <-chan struct{}) {
	defer close(frames)
	for {
		var msg ws.Request
		if err := ws.ReadJSON(s.conn, &msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.log.Warn().Err(err).Msg("Unexpected close")
			} else {
				s.log.Debug().Msg("Connection closed")
			}
			return
		}
		select {
		case frames <- msg:
		case <-done:
			return
		}
	}
}

func (h *WSHandler) dispatch(s *wsSession, msg *ws.Request) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	switch msg.Action {
	case ws.ActionPing:
		ws.WriteEvent(s.conn, ws.EventPong, nil)

	case ws.ActionState:
		sess, err := h.sessionService.State(ctx, s.cred, s.scheduleID, s.user)
		if err != nil {
			h.writeErr(s, zerolog.ErrorLevel, err, response.ErrPersistenceFailed)
			return
		}
		ws.WriteEvent(s.conn, ws.EventState, sess)

	case ws.ActionAutosave:
		if fields := validator.Validate(msg); fields != nil {
			ws.WriteError(s.conn, response.ErrValidation, fields)
			return
		}
		sub, err := h.sessionService.Autosave(ctx, s.cred, s.scheduleID, s.user, msg.AnswersRequest().ToAnswers())
		if err != nil {
			h.writeErr(s, zerolog.WarnLevel, err, response.ErrAutosaveFailed)
			return
		}
		ws.WriteEvent(s.conn, ws.EventSaved, sub)

	case ws.ActionSubmit:
		if fields := validator.Validate(msg); fields != nil {
			ws.WriteError(s.conn, response.ErrValidation, fields)
			return
		}
		sub, err := h.sessionService.Submit(ctx, s.cred, s.scheduleID, s.user, msg.AnswersRequest().ToAnswers())
		if err != nil {
			h.writeErr(s, zerolog.ErrorLevel, err, response.ErrSubmitFailed)
			return
		}
		s.log.Info().Float64("score", sub.Score).Msg("Exam submitted")
		ws.WriteEvent(s.conn, ws.EventGraded, sub)

	default:
		s.log.Warn().Str("action", string(msg.Action)).Msg("Unknown action")
		ws.WriteError(s.conn, response.ErrInvalidPayload, map[string]string{"action": "unknown action: " + string(msg.Action)})
	}
}

func (h *WSHandler) sendTick(s *wsSession) {
	ctx, cancel := context.WithTimeout(context.Background(), opTimeout)
	defer cancel()

	sess, err := h.sessionService.State(ctx, s.cred, s.scheduleID, s.user)
	if err != nil {
		s.log.Warn().Err(err).Msg("Window tick failed")
		return
	}
	ws.WriteEvent(s.conn, ws.EventTick, ws.Tick{Window: sess.Window, RemainingSeconds: sess.RemainingSeconds})
}

func (h *WSHandler) writeErr(s *wsSession, level zerolog.Level, err error, persistCode response.ErrCode) {
	status, code := classify(err, persistCode)
	if status >= http.StatusInternalServerError {
		s.log.WithLevel(level).Err(err).Msg("Socket action failed")
	}
	ws.WriteError(s.conn, code, nil)
}
