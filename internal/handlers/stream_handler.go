package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/ArowuTest/fastest-finger-pot/internal/models"
	"github.com/ArowuTest/fastest-finger-pot/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"golang.org/x/exp/slog"
)

const (
	writeWait  = 5 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// EventSubscriber is satisfied by services.NotificationService
type EventSubscriber interface {
	Subscribe() (<-chan models.GameEvent, func())
}

// StreamMessage is one frame sent to a spectator
type StreamMessage struct {
	Type  string            `json:"type"`
	Round *RoundView        `json:"round,omitempty"`
	Event *models.GameEvent `json:"event,omitempty"`
}

// StreamHandler pushes engine events to websocket spectators. The stream is
// read-only: inbound frames other than control frames are ignored.
type StreamHandler struct {
	game     services.GameService
	events   EventSubscriber
	log      *slog.Logger
	upgrader websocket.Upgrader
	nextID   atomic.Uint64
}

// NewStreamHandler creates a StreamHandler. checkOrigin may be nil to allow any origin.
func NewStreamHandler(game services.GameService, events EventSubscriber, log *slog.Logger, checkOrigin func(r *http.Request) bool) *StreamHandler {
	if checkOrigin == nil {
		checkOrigin = func(r *http.Request) bool { return true }
	}
	return &StreamHandler{
		game:   game,
		events: events,
		log:    log,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 16 * 1024,
			CheckOrigin:     checkOrigin,
		},
	}
}

// Stream handles GET /stream
func (h *StreamHandler) Stream(c *gin.Context) {
	conn, err := h.upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		h.log.Warn("Websocket upgrade failed", "error", err)
		return
	}
	defer conn.Close()

	sid := fmt.Sprintf("S%d", h.nextID.Add(1))
	events, unsubscribe := h.events.Subscribe()
	defer unsubscribe()
	h.log.Info("Spectator connected", "session", sid)

	snapshot := roundView(h.game.RoundInfo(), h.game.Token())
	if err := writeFrame(conn, StreamMessage{Type: "Snapshot", Round: &snapshot}); err != nil {
		return
	}

	ctx, cancel := context.WithCancel(c.Request.Context())
	defer cancel()

	// Writer goroutine.
	writeErr := make(chan error, 1)
	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				writeErr <- ctx.Err()
				return
			case ev, ok := <-events:
				if !ok {
					writeErr <- nil
					return
				}
				if err := writeFrame(conn, StreamMessage{Type: string(ev.Type), Event: &ev}); err != nil {
					writeErr <- err
					return
				}
			case <-ticker.C:
				if err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
					writeErr <- err
					return
				}
			}
		}
	}()

	// Reader loop: only keeps the deadline fresh and notices the close.
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	readDone := make(chan struct{})
	go func() {
		defer close(readDone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	writerStopped := false
	select {
	case <-readDone:
	case err := <-writeErr:
		writerStopped = true
		if err != nil {
			h.log.Debug("Spectator write ended", "session", sid, "error", err)
		}
	}
	cancel()
	_ = conn.WriteControl(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, "bye"), time.Now().Add(time.Second))

	// Best-effort wait for the writer to stop so it doesn't outlive conn.
	if !writerStopped {
		select {
		case <-writeErr:
		case <-time.After(500 * time.Millisecond):
		}
	}
	h.log.Info("Spectator disconnected", "session", sid)
}

func writeFrame(conn *websocket.Conn, msg StreamMessage) error {
	b, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	return conn.WriteMessage(websocket.TextMessage, b)
}
