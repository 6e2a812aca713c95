package notify

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 512
	sendBuffer     = 256
)

type client struct {
	hub          *Hub
	conn         *websocket.Conn
	send         chan []byte
	tournamentID uuid.UUID
}

// Hub pushes events to websocket clients subscribed to a tournament.
type Hub struct {
	upgrader websocket.Upgrader

	mu    sync.RWMutex
	rooms map[uuid.UUID]map[*client]struct{}
}

// NewHub accepts connections from the given origins. An empty list or "*"
// accepts any origin.
func NewHub(allowedOrigins []string) *Hub {
	h := &Hub{rooms: make(map[uuid.UUID]map[*client]struct{})}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

func originChecker(allowed []string) func(r *http.Request) bool {
	return func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if len(allowed) == 0 || origin == "" {
			return true
		}
		for _, a := range allowed {
			if a == "*" || a == origin {
				return true
			}
		}
		return false
	}
}

func (*Hub) Name() string { return "websocket" }

// Observe broadcasts the event to the tournament's room. Clients whose
// buffer is full miss the message.
func (h *Hub) Observe(_ context.Context, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.rooms[event.TournamentID] {
		select {
		case c.send <- payload:
		default:
			slog.Warn("websocket client too slow, dropping message", "tournament_id", event.TournamentID)
		}
	}
	return nil
}

// Clients returns the number of connections subscribed to a tournament.
func (h *Hub) Clients(tournamentID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[tournamentID])
}

// ServeWS upgrades the request and subscribes the connection to the tournament.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request, tournamentID uuid.UUID) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("websocket upgrade failed", "tournament_id", tournamentID, "error", err)
		return
	}

	c := &client{hub: h, conn: conn, send: make(chan []byte, sendBuffer), tournamentID: tournamentID}
	h.register(c)

	go c.writePump()
	go c.readPump()
}

func (h *Hub) register(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[c.tournamentID]
	if !ok {
		room = make(map[*client]struct{})
		h.rooms[c.tournamentID] = room
	}
	room[c] = struct{}{}
	slog.Debug("websocket client registered", "tournament_id", c.tournamentID, "clients", len(room))
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[c.tournamentID]
	if !ok {
		return
	}
	if _, ok := room[c]; !ok {
		return
	}
	delete(room, c)
	close(c.send)
	if len(room) == 0 {
		delete(h.rooms, c.tournamentID)
	}
}

// readPump only services control frames; clients have nothing to say.
func (c *client) readPump() {
	defer func() {
		c.hub.unregister(c)
		c.conn.Close()
	}()
	c.conn.SetReadLimit(maxMessageSize)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				slog.Warn("websocket closed unexpectedly", "tournament_id", c.tournamentID, "error", err)
			}
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
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
