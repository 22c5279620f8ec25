package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/cutline/cutline-studio/internal/library"
	"github.com/cutline/cutline-studio/internal/playback"
	"github.com/cutline/cutline-studio/internal/studio"
)

const (
	eventWriteWait  = 10 * time.Second
	eventPongWait   = 60 * time.Second
	eventPingPeriod = (eventPongWait * 9) / 10
	eventSendBuffer = 64
	eventReadLimit  = 512
)

// EventTypeExport is sent for every export status or progress change.
// Session events use their own kind as the type.
const EventTypeExport = "export"

// Envelope is one message on the /events stream. Clients refetch /state
// after a timeline, history or project message.
type Envelope struct {
	Type     string             `json:"type"`
	Revision uint64             `json:"revision,omitempty"`
	Playback *playback.State    `json:"playback,omitempty"`
	Export   *ExportJobResponse `json:"export,omitempty"`
}

// EventHub fans session and export changes out to WebSocket clients. A
// client that cannot keep up loses messages rather than stalling the
// session.
type EventHub struct {
	upgrader websocket.Upgrader
	logger   *slog.Logger

	mu          sync.Mutex
	clients     map[*eventClient]struct{}
	closed      bool
	unsubscribe func()
}

type eventClient struct {
	conn *websocket.Conn
	send chan []byte
	done chan struct{}
	once sync.Once
}

func (c *eventClient) close() {
	c.once.Do(func() {
		close(c.done)
		c.conn.Close()
	})
}

func NewEventHub(session *studio.Session, exports ExportService, logger *slog.Logger) *EventHub {
	h := &EventHub{
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 4096,
			CheckOrigin: func(r *http.Request) bool {
				origin := r.Header.Get("Origin")
				return origin == "" || isAllowedOrigin(origin)
			},
		},
		logger:  logger,
		clients: make(map[*eventClient]struct{}),
	}

	if session != nil {
		h.unsubscribe = session.Subscribe(func(ev studio.Event) {
			h.Broadcast(Envelope{Type: string(ev.Kind), Revision: ev.Revision, Playback: ev.Playback})
		})
	}
	if exports != nil {
		exports.OnUpdate(func(job library.ExportJob) {
			resp := ExportJobToResponse(&job)
			h.Broadcast(Envelope{Type: EventTypeExport, Export: &resp})
		})
	}
	return h
}

// ClientCount is the number of connected stream clients.
func (h *EventHub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// Broadcast queues env for every client.
func (h *EventHub) Broadcast(env Envelope) {
	data, err := json.Marshal(env)
	if err != nil {
		if h.logger != nil {
			h.logger.Error("failed to encode event", "type", env.Type, "error", err)
		}
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			if h.logger != nil {
				h.logger.Debug("event dropped for slow client", "type", env.Type)
			}
		}
	}
}

func (h *EventHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade has already written the error response.
		if h.logger != nil {
			h.logger.Warn("websocket upgrade failed", "error", err)
		}
		return
	}

	c := &eventClient{
		conn: conn,
		send: make(chan []byte, eventSendBuffer),
		done: make(chan struct{}),
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		conn.Close()
		return
	}
	h.clients[c] = struct{}{}
	h.mu.Unlock()

	if h.logger != nil {
		h.logger.Debug("event client connected", "remote", r.RemoteAddr)
	}

	go h.writeLoop(c)
	h.readLoop(c)

	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
	c.close()

	if h.logger != nil {
		h.logger.Debug("event client disconnected", "remote", r.RemoteAddr)
	}
}

// readLoop discards client messages and keeps the read deadline alive
// through pongs. It returns when the connection fails.
func (h *EventHub) readLoop(c *eventClient) {
	c.conn.SetReadLimit(eventReadLimit)
	c.conn.SetReadDeadline(time.Now().Add(eventPongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(eventPongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *EventHub) writeLoop(c *eventClient) {
	ticker := time.NewTicker(eventPingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-c.done:
			return
		case data := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(eventWriteWait))
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				c.close()
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(eventWriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				c.close()
				return
			}
		}
	}
}

// Close detaches from the session and disconnects every client.
func (h *EventHub) Close() {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return
	}
	h.closed = true
	clients := make([]*eventClient, 0, len(h.clients))
	for c := range h.clients {
		clients = append(clients, c)
	}
	h.mu.Unlock()

	if h.unsubscribe != nil {
		h.unsubscribe()
	}
	for _, c := range clients {
		c.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"),
			time.Now().Add(time.Second))
		c.close()
	}
}
