package realtime

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/aura-lectures/backend/internal/models"
	"github.com/aura-lectures/backend/pkg/response"
)

const (
	pingInterval = 30 * time.Second
	pongWait     = 60 * time.Second
	writeWait    = 10 * time.Second
	sendBuffer   = 16
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true // CORS is enforced on the REST routes
	},
}

// LectureSource reads the current lecture record.
type LectureSource interface {
	GetLecture(ctx context.Context, id uuid.UUID) (*models.Lecture, error)
}

// ServeLectureEvents upgrades to a WebSocket, subscribes, sends the current status
// and then relays every status event for the lecture until the client disconnects.
func ServeLectureEvents(broker Broker, lectures LectureSource, logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *gin.Context) {
		lectureID, err := uuid.Parse(c.Param("id"))
		if err != nil {
			response.BadRequest(c, "invalid lecture id")
			return
		}
		lecture, err := lectures.GetLecture(c.Request.Context(), lectureID)
		if errors.Is(err, models.ErrNotFound) {
			response.NotFound(c, "lecture not found")
			return
		}
		if err != nil {
			logger.Error("load lecture for events failed", zap.Error(err), zap.String("lecture_id", lectureID.String()))
			response.Internal(c, "failed to load lecture")
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		send := make(chan Event, sendBuffer)
		enqueue := func(ev Event) {
			select {
			case send <- ev:
			default:
				logger.Debug("drop lecture event for slow client", zap.String("lecture_id", lectureID.String()))
			}
		}

		// Events that arrive before the current status is sent are held back so the
		// client always sees the snapshot first.
		var mu sync.Mutex
		live := false
		var early []Event
		unsubscribe, err := broker.Subscribe(ctx, lectureID, func(ev Event) {
			mu.Lock()
			defer mu.Unlock()
			if !live {
				early = append(early, ev)
				return
			}
			enqueue(ev)
		})
		if err != nil {
			logger.Warn("subscribe lecture events failed", zap.Error(err), zap.String("lecture_id", lectureID.String()))
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseInternalServerErr, "subscribe failed"))
			_ = conn.Close()
			return
		}
		defer unsubscribe()

		if current, err := lectures.GetLecture(ctx, lectureID); err == nil {
			lecture = current
		}
		mu.Lock()
		if first, err := statusEvent(lecture.StatusView()); err == nil {
			enqueue(first)
		}
		for _, ev := range early {
			enqueue(ev)
		}
		early, live = nil, true
		mu.Unlock()

		go readPump(conn, cancel)
		writePump(ctx, conn, send)
	}
}

// readPump discards client messages and cancels ctx when the connection drops.
func readPump(conn *websocket.Conn, cancel context.CancelFunc) {
	defer cancel()
	conn.SetReadLimit(4096)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func writePump(ctx context.Context, conn *websocket.Conn, send <-chan Event) {
	ticker := time.NewTicker(pingInterval)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()
	for {
		select {
		case <-ctx.Done():
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case ev := <-send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(ev); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
