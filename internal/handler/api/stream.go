package api

import (
	"net/http"
	"sync"
	"time"

	"PerfDash/internal/usecase"
	"PerfDash/pkg/config"
	xlogger "PerfDash/pkg/logger"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const maxMessageSize = 512

// StreamMessage is the envelope pushed to WebSocket clients.
type StreamMessage struct {
	Type string       `json:"type"`
	Data usecase.View `json:"data"`
}

// StreamHandler pushes the dashboard view to WebSocket clients after every
// state transition.
type StreamHandler struct {
	logger       *xlogger.Logger
	dash         *usecase.DashboardController
	upgrader     websocket.Upgrader
	pingInterval time.Duration
	writeTimeout time.Duration
}

func NewStreamHandler(cfg *config.Config, logger *xlogger.Logger, dash *usecase.DashboardController) *StreamHandler {
	if logger == nil {
		logger = xlogger.Nop()
	}
	h := &StreamHandler{
		logger: logger,
		dash:   dash,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
		},
		pingInterval: cfg.Stream.PingInterval,
		writeTimeout: cfg.Stream.WriteTimeout,
	}
	// Without CORS the upgrader keeps its same-origin check.
	if cfg.Server.CORS {
		h.upgrader.CheckOrigin = func(r *http.Request) bool { return true }
	}
	if h.pingInterval <= 0 {
		h.pingInterval = 30 * time.Second
	}
	if h.writeTimeout <= 0 {
		h.writeTimeout = 10 * time.Second
	}
	return h
}

// Serve upgrades the connection, sends the current view and then one view per
// transition. Views are whole snapshots, so a slow client only ever gets the latest.
func (h *StreamHandler) Serve(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		h.logger.Warn("websocket upgrade error", xlogger.Error(err))
		return nil
	}

	buf := newViewBuffer()
	// Subscribe before reading the current view so no transition falls in
	// between; the buffer drops whichever of the two is older.
	unsubscribe := h.dash.Subscribe(buf.push)
	buf.push(h.dash.View())

	done := make(chan struct{})
	go h.readPump(conn, done)
	h.writePump(conn, buf.C, done)

	unsubscribe()
	return nil
}

// viewBuffer holds at most one pending view and never lets an older view
// replace a newer one.
type viewBuffer struct {
	C chan usecase.View

	mu     sync.Mutex
	latest time.Time
}

func newViewBuffer() *viewBuffer {
	return &viewBuffer{C: make(chan usecase.View, 1)}
}

func (b *viewBuffer) push(v usecase.View) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if v.UpdatedAt.Before(b.latest) {
		return
	}
	b.latest = v.UpdatedAt
	for {
		select {
		case b.C <- v:
			return
		default:
		}
		select {
		case <-b.C:
		default:
		}
	}
}

// readPump discards client messages and notices when the peer goes away.
func (h *StreamHandler) readPump(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)

	pongWait := h.pingInterval * 10 / 9
	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Debug("websocket read error", xlogger.Error(err))
			}
			return
		}
	}
}

func (h *StreamHandler) writePump(conn *websocket.Conn, updates <-chan usecase.View, done <-chan struct{}) {
	ticker := time.NewTicker(h.pingInterval)
	defer func() {
		ticker.Stop()
		conn.Close()
	}()

	for {
		select {
		case v := <-updates:
			_ = conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
			if err := conn.WriteJSON(StreamMessage{Type: "view", Data: v}); err != nil {
				h.logger.Debug("websocket write error", xlogger.Error(err))
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(h.writeTimeout))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(h.writeTimeout))
			return
		}
	}
}
