package websocket

import (
	"time"

	"github.com/gorilla/websocket"
	"github.com/stemsi/etesthub-backend/internal/response"
)

const (
	writeWait = 10 * time.Second
	// ReadWait bounds the silence allowed from a client; clients ping or
	// autosave well inside it.
	ReadWait = 5 * time.Minute
)

// WriteTyped sends a strongly-typed response payload over the WebSocket.
func WriteTyped(conn *websocket.Conn, v interface{}) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(v)
}

// WriteEvent sends an event with its data.
func WriteEvent(conn *websocket.Conn, event Event, data interface{}) error {
	return WriteTyped(conn, Response{Event: event, Data: data})
}

// WriteError sends an error frame carrying the REST error code.
func WriteError(conn *websocket.Conn, code response.ErrCode, fields map[string]string) error {
	return WriteTyped(conn, Response{
		Event: EventError,
		Error: &ErrorBody{
			Code:      code,
			Message:   response.GetMessage(code),
			Retryable: response.Retryable(code),
			Fields:    fields,
		},
	})
}

// ReadJSON reads and decodes a message into the provided structure.
// It sets a read deadline.
func ReadJSON(conn *websocket.Conn, v interface{}) error {
	conn.SetReadDeadline(time.Now().Add(ReadWait))
	return conn.ReadJSON(v)
}
