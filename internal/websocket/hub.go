package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"studyflow/pkg/logger"

	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	TaskCreated  = "task.created"
	TaskUpdated  = "task.updated"
	TaskArchived = "task.archived"
	TaskDeleted  = "task.deleted"
)

// Event tells a UI which of its tasks changed so it can re-fetch.
type Event struct {
	Type    string `json:"type"`
	TaskID  int    `json:"taskId"`
	OwnerID int    `json:"-"`
}

// Conn is the part of a websocket connection the hub uses.
type Conn interface {
	ReadMessage() (int, []byte, error)
	WriteMessage(messageType int, data []byte) error
	Close() error
}

// Client is one open websocket connection of an owner.
type Client struct {
	ID      string
	OwnerID int
	Conn    Conn
	mu      sync.Mutex
}

func (c *Client) write(msg []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.Conn.WriteMessage(websocket.TextMessage, msg)
}

// Hub fans task events out to the connections of the task's owner.
type Hub struct {
	mu      sync.RWMutex
	clients map[int]map[*Client]bool

	broadcast  chan Event
	register   chan *Client
	unregister chan *Client
	done       chan struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[int]map[*Client]bool),
		broadcast:  make(chan Event, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run processes registrations and broadcasts until ctx is cancelled, then
// closes every remaining connection.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return
		case client := <-h.register:
			h.mu.Lock()
			if h.clients[client.OwnerID] == nil {
				h.clients[client.OwnerID] = make(map[*Client]bool)
			}
			h.clients[client.OwnerID][client] = true
			h.mu.Unlock()
		case client := <-h.unregister:
			h.remove(client)
		case ev := <-h.broadcast:
			h.deliver(ev)
		}
	}
}

func (h *Hub) deliver(ev Event) {
	msg, err := json.Marshal(ev)
	if err != nil {
		logger.ErrorLogger.Error("Error encoding websocket event", zap.Error(err))
		return
	}

	h.mu.RLock()
	targets := make([]*Client, 0, len(h.clients[ev.OwnerID]))
	for c := range h.clients[ev.OwnerID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		if err := c.write(msg); err != nil {
			logger.ContextLogger.Debug("Dropping websocket client after failed write",
				zap.String("client_id", c.ID), zap.Error(err))
			h.remove(c)
		}
	}
}

func (h *Hub) remove(c *Client) {
	h.mu.Lock()
	owned, ok := h.clients[c.OwnerID]
	if ok && owned[c] {
		delete(owned, c)
		if len(owned) == 0 {
			delete(h.clients, c.OwnerID)
		}
	} else {
		ok = false
	}
	h.mu.Unlock()
	if ok {
		c.Conn.Close()
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for owner, owned := range h.clients {
		for c := range owned {
			c.Conn.Close()
		}
		delete(h.clients, owner)
	}
}

// Publish queues an event for the owner's connections. It never blocks: when
// the queue is full or the hub has stopped the event is dropped.
func (h *Hub) Publish(ownerID int, eventType string, taskID int) {
	if h == nil {
		return
	}
	select {
	case h.broadcast <- Event{Type: eventType, TaskID: taskID, OwnerID: ownerID}:
	case <-h.done:
	default:
		logger.SystemLogger.Warn("Websocket event queue full, dropping event",
			zap.String("type", eventType), zap.Int("task_id", taskID))
	}
}

// Serve registers conn for ownerID and blocks reading from it until the peer
// goes away. Incoming messages are ignored.
func (h *Hub) Serve(ownerID int, conn Conn) {
	client := &Client{ID: uuid.NewString(), OwnerID: ownerID, Conn: conn}
	select {
	case h.register <- client:
	case <-h.done:
		conn.Close()
		return
	}
	logger.ContextLogger.Debug("Websocket client connected",
		zap.String("client_id", client.ID), zap.Int("user_id", ownerID))

	defer func() {
		select {
		case h.unregister <- client:
		case <-h.done:
		}
	}()
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

// ClientCount returns the number of open connections of ownerID.
func (h *Hub) ClientCount(ownerID int) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[ownerID])
}
