// Package realtime fans lecture status changes out to WebSocket clients, either
// in process or across instances via Redis pub/sub.
package realtime

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"

	"github.com/aura-lectures/backend/internal/models"
)

const (
	// EventStatus carries a models.LectureStatusView.
	EventStatus = "status"

	channelPrefix = "lecture:"
)

// Event is the message envelope sent to subscribers and WebSocket clients.
type Event struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Broker publishes lecture status events and lets callers subscribe to them.
type Broker interface {
	PublishStatus(ctx context.Context, lectureID uuid.UUID, view models.LectureStatusView) error
	Subscribe(ctx context.Context, lectureID uuid.UUID, handler func(Event)) (cancel func(), err error)
}

// Channel returns the pub/sub channel for a lecture.
func Channel(lectureID uuid.UUID) string {
	return channelPrefix + lectureID.String()
}

func statusEvent(view models.LectureStatusView) (Event, error) {
	data, err := json.Marshal(view)
	if err != nil {
		return Event{}, err
	}
	return Event{Event: EventStatus, Data: data}, nil
}
