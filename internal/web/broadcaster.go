package web

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"

	"github.com/cjeanneret/attogo/internal/logging"
)

// Event is one message on the websocket stream.
type Event struct {
	Type    string      `json:"type"`
	Time    string      `json:"t"`
	Payload interface{} `json:"payload,omitempty"`
}

// SamplePayload carries sweep progress to clients.
type SamplePayload struct {
	Session string    `json:"session"`
	Counts  []float64 `json:"counts"`
}

// DonePayload signals the end of a sweep.
type DonePayload struct {
	Session string `json:"session"`
}

// StatusPayload carries free-form status lines.
type StatusPayload struct {
	Level string `json:"level"`
	Msg   string `json:"msg"`
}

type client struct {
	conn *websocket.Conn
	send chan []byte
}

func newClient(conn *websocket.Conn) *client {
	c := &client{
		conn: conn,
		send: make(chan []byte, 64),
	}
	go c.writePump()
	return c
}

func (c *client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

func (c *client) close() {
	close(c.send)
}

// Broadcaster distributes events to connected websocket clients. Slow
// clients drop messages rather than blocking the control flow.
type Broadcaster struct {
	mu      sync.RWMutex
	clients map[*client]bool
	log     *logrus.Entry
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		clients: make(map[*client]bool),
		log:     logging.New("web"),
	}
}

// AddClient registers a websocket connection and starts its write pump.
func (b *Broadcaster) AddClient(conn *websocket.Conn) *client {
	c := newClient(conn)
	b.mu.Lock()
	b.clients[c] = true
	b.mu.Unlock()
	return c
}

// RemoveClient unregisters a client and closes its send channel.
func (b *Broadcaster) RemoveClient(c *client) {
	b.mu.Lock()
	if _, ok := b.clients[c]; ok {
		delete(b.clients, c)
		c.close()
	}
	b.mu.Unlock()
}

// ClientCount returns the number of connected clients.
func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// Broadcast sends an event to all clients.
func (b *Broadcaster) Broadcast(eventType string, payload interface{}) {
	data, err := json.Marshal(Event{
		Type:    eventType,
		Time:    time.Now().Format(time.RFC3339),
		Payload: payload,
	})
	if err != nil {
		b.log.WithError(err).Error("marshal event")
		return
	}

	b.mu.RLock()
	defer b.mu.RUnlock()
	for c := range b.clients {
		select {
		case c.send <- data:
		default:
			// Client too slow, drop the event.
		}
	}
}

// Status broadcasts a free-form status line.
func (b *Broadcaster) Status(level, msg string) {
	b.Broadcast("status", StatusPayload{Level: level, Msg: msg})
}

// SampleUpdated implements optimise.Observer.
func (b *Broadcaster) SampleUpdated(sessionID string, counts []float64) {
	b.Broadcast("sample_update", SamplePayload{Session: sessionID, Counts: counts})
}

// OptimisationDone implements optimise.Observer.
func (b *Broadcaster) OptimisationDone(sessionID string) {
	b.Broadcast("optimisation_done", DonePayload{Session: sessionID})
}
