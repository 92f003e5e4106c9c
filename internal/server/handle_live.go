package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"nhooyr.io/websocket"
)

const (
	// Queue depth per connection. A consumer that falls this far behind is
	// dropped rather than allowed to stall fanout.
	liveSendBuffer = 16

	// Bound on a single websocket write.
	liveWriteTimeout = 5 * time.Second
)

// handleLive upgrades to the live event channel. The bearer credential comes
// as a query parameter because browsers cannot set headers on websocket
// dials. The server only pushes; no client messages are expected beyond the
// handshake.
func handleLive(logger *slog.Logger, store Store, registry *Registry) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("token")
		if token == "" {
			writeError(w, http.StatusUnauthorized, "token query parameter required")
			return
		}

		participant, err := store.ParticipantFromToken(r.Context(), token)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "invalid session token")
			return
		}
		if !participant.IsActive {
			writeError(w, http.StatusForbidden, "Your account has been deactivated. Contact an admin.")
			return
		}

		wsConn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
			InsecureSkipVerify: true,
		})
		if err != nil {
			logger.Error("websocket accept failed", "error", err)
			return
		}
		defer wsConn.CloseNow()

		c := NewConn(participant.ID, liveSendBuffer, func() {
			wsConn.Close(websocket.StatusPolicyViolation, "connection too slow to keep up")
		})
		registry.Register(c)
		defer registry.Unregister(c)

		logger.Debug("live connection opened",
			"connection_id", c.ID,
			"participant_id", participant.ID,
		)

		// CloseRead discards incoming frames and cancels the context when
		// the peer goes away, so the write loop below notices disconnects.
		ctx := wsConn.CloseRead(r.Context())

		for {
			select {
			case <-ctx.Done():
				logger.Debug("live connection closed", "connection_id", c.ID)
				return
			case msg := <-c.Events():
				if err := writeTimeout(ctx, wsConn, msg); err != nil {
					logger.Debug("live write failed", "connection_id", c.ID, "error", err)
					return
				}
			}
		}
	}
}

func writeTimeout(ctx context.Context, conn *websocket.Conn, msg []byte) error {
	ctx, cancel := context.WithTimeout(ctx, liveWriteTimeout)
	defer cancel()
	return conn.Write(ctx, websocket.MessageText, msg)
}
