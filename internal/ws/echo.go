// Package ws holds the websocket endpoints served alongside the HTTP API.
package ws

import (
	"net/http"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	appmiddleware "github.com/anomaly/labs-api/internal/middleware"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The echo endpoint is a diagnostic surface with no credentials, so any
	// origin may connect.
	CheckOrigin: func(r *http.Request) bool { return true },
}

const replyPrefix = "Message text was: "

// EchoHandler upgrades the connection and echoes every text frame back with
// a fixed prefix, in receipt order. The read loop ends when the transport
// errors, the peer sends a close frame, or the request context is canceled.
func EchoHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			appmiddleware.LogWarn(r.Context(), "websocket upgrade failed", zap.Error(err))
			return
		}
		defer conn.Close()

		// Unblock the read loop when the request context ends.
		done := make(chan struct{})
		defer close(done)
		go func() {
			select {
			case <-r.Context().Done():
				_ = conn.Close()
			case <-done:
			}
		}()

		for {
			messageType, data, err := conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					appmiddleware.LogWarn(r.Context(), "websocket closed unexpectedly", zap.Error(err))
				}
				return
			}
			if messageType != websocket.TextMessage {
				continue
			}
			if err := conn.WriteMessage(websocket.TextMessage, append([]byte(replyPrefix), data...)); err != nil {
				appmiddleware.LogWarn(r.Context(), "websocket write failed", zap.Error(err))
				return
			}
		}
	}
}
