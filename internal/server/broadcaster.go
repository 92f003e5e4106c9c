package server

import (
	"encoding/json"
	"log/slog"
)

// FoundEvent is the payload pushed to every live connection after a claim
// commits.
type FoundEvent struct {
	Type                   string `json:"type"`
	SpotID                 string `json:"spot_id"`
	SpotName               string `json:"spot_name"`
	ParticipantDisplayName string `json:"participant_display_name"`
	FoundAt                string `json:"found_at"`
}

// Broadcaster fans a found event out to every registry member. Delivery is
// at-most-once and best-effort: there is no persistence and no replay buffer,
// so a client not connected at publish time reconciles by re-fetching the
// listing on (re)connection.
type Broadcaster struct {
	registry *Registry
	logger   *slog.Logger
}

func NewBroadcaster(registry *Registry, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{registry: registry, logger: logger}
}

// Publish enqueues the event for everyone registered at snapshot time. The
// enqueue never blocks: each connection drains its own buffered queue through
// a deadline-bounded writer, and a connection whose queue is full is dropped
// and closed without delaying delivery to the remaining members.
func (b *Broadcaster) Publish(event FoundEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		b.logger.Error("encoding event", "type", event.Type, "error", err)
		return
	}

	for _, c := range b.registry.Snapshot() {
		select {
		case c.send <- data:
		default:
			b.logger.Warn("dropping slow connection",
				"connection_id", c.ID,
				"participant_id", c.ParticipantID,
			)
			b.registry.Unregister(c)
			c.closeSlow()
		}
	}
}
