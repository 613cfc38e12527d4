package websocket

import (
	"github.com/stemsi/etesthub-backend/internal/model"
	"github.com/stemsi/etesthub-backend/internal/response"
)

// ─── Actions (Client → Server) ──────────────────────────────────────

type Action string

const (
	ActionAutosave Action = "autosave"
	ActionSubmit   Action = "submit"
	ActionState    Action = "state"
	ActionPing     Action = "ping"
)

// Request is any client frame. Answers is only read for autosave and submit.
type Request struct {
	Action  Action              `json:"action"`
	Answers []model.AnswerInput `json:"answers" binding:"omitempty,max=500,unique=QuestionID,dive"`
}

// AnswersRequest converts the frame into the REST payload shape.
func (r *Request) AnswersRequest() *model.SaveAnswersRequest {
	return &model.SaveAnswersRequest{Answers: r.Answers}
}

// ─── Events (Server → Client) ───────────────────────────────────────

type Event string

const (
	EventSaved  Event = "saved"
	EventGraded Event = "graded"
	EventState  Event = "state"
	EventTick   Event = "tick"
	EventError  Event = "error"
	EventPong   Event = "pong"
)

// Response wraps every server frame.
type Response struct {
	Event Event       `json:"event"`
	Data  interface{} `json:"data,omitempty"`
	Error *ErrorBody  `json:"error,omitempty"`
}

// ErrorBody mirrors the REST error envelope.
type ErrorBody struct {
	Code      response.ErrCode  `json:"code"`
	Message   string            `json:"message"`
	Retryable bool              `json:"retryable"`
	Fields    map[string]string `json:"fields,omitempty"`
}

// Tick is pushed periodically while the socket is open.
type Tick struct {
	Window           interface{} `json:"window"`
	RemainingSeconds int64       `json:"remaining_seconds"`
}
