package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/letsfight/internal/action"
	"github.com/ayusman/letsfight/internal/body"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 4096
	sendBufferSize = 64
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// ActionMessage is the per-frame payload sent to websocket clients.
type ActionMessage struct {
	Action     action.Action   `json:"action"`
	Confidence float64         `json:"confidence"`
	Landmarks  []body.Landmark `json:"landmarks"`
	Timestamp  int64           `json:"timestamp"`
}

// NewActionMessage builds a message from a classification and the raw
// image-space landmarks of the same frame. A nil pose sends no landmarks.
func NewActionMessage(r action.Result, raw *body.Pose, at time.Time) ActionMessage {
	msg := ActionMessage{
		Action:     r.Action,
		Confidence: r.Confidence,
		Landmarks:  []body.Landmark{},
		Timestamp:  at.UnixMilli(),
	}
	if raw != nil {
		msg.Landmarks = raw.Points[:]
	}
	return msg
}

// client is one websocket connection.
type client struct {
	conn *websocket.Conn
	send chan []byte
}

// ActionsHandler broadcasts recognized actions to websocket clients.
type ActionsHandler struct {
	clients    map[*client]bool
	register   chan *client
	unregister chan *client
	broadcast  chan []byte
	done       chan struct{}
	closeOnce  sync.Once

	mu    sync.RWMutex
	count int
}

// NewActionsHandler creates an ActionsHandler and starts its hub loop.
func NewActionsHandler() *ActionsHandler {
	h := &ActionsHandler{
		clients:    make(map[*client]bool),
		register:   make(chan *client),
		unregister: make(chan *client),
		broadcast:  make(chan []byte, sendBufferSize),
		done:       make(chan struct{}),
	}
	go h.run()
	return h
}

func (h *ActionsHandler) run() {
	for {
		select {
		case <-h.done:
			for c := range h.clients {
				close(c.send)
				delete(h.clients, c)
			}
			h.setCount(0)
			return

		case c := <-h.register:
			h.clients[c] = true
			h.setCount(len(h.clients))

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
				h.setCount(len(h.clients))
			}

		case msg := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					// Slow consumer
					delete(h.clients, c)
					close(c.send)
				}
			}
			h.setCount(len(h.clients))
		}
	}
}

func (h *ActionsHandler) setCount(n int) {
	h.mu.Lock()
	h.count = n
	h.mu.Unlock()
}

// Clients returns the number of connected clients.
func (h *ActionsHandler) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.count
}

// Publish queues msg for every client. It never blocks; messages are
// dropped when the queue is full.
func (h *ActionsHandler) Publish(msg ActionMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("failed to encode action message: %v", err)
		return
	}

	select {
	case <-h.done:
	case h.broadcast <- data:
	default:
	}
}

// Close disconnects all clients and stops the hub.
func (h *ActionsHandler) Close() {
	h.closeOnce.Do(func() { close(h.done) })
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *ActionsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}

	c := &client{conn: conn, send: make(chan []byte, sendBufferSize)}

	select {
	case h.register <- c:
	case <-h.done:
		conn.Close()
		return
	}

	go h.writePump(c)
	h.readPump(c)
}

// readPump discards client messages and detects disconnects.
func (h *ActionsHandler) readPump(c *client) {
	defer func() {
		select {
		case h.unregister <- c:
		case <-h.done:
		}
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("websocket read error: %v", err)
			}
			return
		}
	}
}

// writePump sends queued messages and keepalive pings.
func (h *ActionsHandler) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
