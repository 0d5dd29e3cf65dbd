package websocket

import (
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait = 10 * time.Second
	// ReadWait is the idle window before an unresponsive client is dropped.
	ReadWait = 5 * time.Minute
	// MaxMessageSize caps a single client frame.
	MaxMessageSize = 8 << 10
)

// Prepare applies the read limit and the idle deadline to a fresh connection.
func Prepare(conn *websocket.Conn) {
	conn.SetReadLimit(MaxMessageSize)
	conn.SetReadDeadline(time.Now().Add(ReadWait))
}

// WriteTyped sends a strongly-typed response payload over the WebSocket.
func WriteTyped(conn *websocket.Conn, v any) error {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteJSON(v)
}

// WriteError sends a typed ErrorResponse over the WebSocket.
func WriteError(conn *websocket.Conn, code, errMsg string) error {
	return WriteTyped(conn, ErrorResponse{
		Event: EventError,
		Code:  code,
		Error: errMsg,
	})
}

// ReadMessage reads one text frame and extends the read deadline.
func ReadMessage(conn *websocket.Conn) ([]byte, error) {
	_, raw, err := conn.ReadMessage()
	if err != nil {
		return nil, err
	}
	conn.SetReadDeadline(time.Now().Add(ReadWait))
	return raw, nil
}
