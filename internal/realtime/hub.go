package realtime

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/aura-lectures/backend/internal/models"
)

// Hub is the in-process Broker used when Redis is disabled. Handlers run on the
// publisher's goroutine and must not block.
type Hub struct {
	mu     sync.RWMutex
	subs   map[uuid.UUID]map[uint64]func(Event)
	nextID uint64
	logger *zap.Logger
}

// NewHub creates an empty hub.
func NewHub(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{subs: make(map[uuid.UUID]map[uint64]func(Event)), logger: logger}
}

// PublishStatus implements Broker.
func (h *Hub) PublishStatus(_ context.Context, lectureID uuid.UUID, view models.LectureStatusView) error {
	ev, err := statusEvent(view)
	if err != nil {
		return err
	}
	h.mu.RLock()
	handlers := make([]func(Event), 0, len(h.subs[lectureID]))
	for _, fn := range h.subs[lectureID] {
		handlers = append(handlers, fn)
	}
	h.mu.RUnlock()
	for _, fn := range handlers {
		fn(ev)
	}
	return nil
}

// Subscribe implements Broker.
func (h *Hub) Subscribe(_ context.Context, lectureID uuid.UUID, handler func(Event)) (func(), error) {
	h.mu.Lock()
	h.nextID++
	id := h.nextID
	if h.subs[lectureID] == nil {
		h.subs[lectureID] = make(map[uint64]func(Event))
	}
	h.subs[lectureID][id] = handler
	h.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs[lectureID], id)
			if len(h.subs[lectureID]) == 0 {
				delete(h.subs, lectureID)
			}
			h.mu.Unlock()
		})
	}, nil
}

// Subscribers returns the number of active subscriptions for a lecture.
func (h *Hub) Subscribers(lectureID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs[lectureID])
}
