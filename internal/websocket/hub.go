// Package websocket pushes change notifications for members, records,
// settings and sync progress to connected browsers.
package websocket

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
)

// TypeHello is the first message on every connection. Its Seq is the last
// sequence number broadcast before the client joined.
const TypeHello = "hello"

// Message tells clients that an entity changed. Clients re-read the
// affected views over HTTP; the message carries no entity data.
//
// Seq increases by one with every broadcast. A gap means the client missed a
// notification and should reload all member and record views.
type Message struct {
	Type   string         `json:"type"`
	Seq    uint64         `json:"seq"`
	Entity string         `json:"entity,omitempty"`
	Action string         `json:"action,omitempty"`
	ID     string         `json:"id,omitempty"`
	Extra  map[string]any `json:"extra,omitempty"`
}

// NewMessage builds a "<entity>_<action>" notification, for example
// member_deleted or sync_transmitting.
func NewMessage(entity, action, id string, extra map[string]any) Message {
	return Message{
		Type:   fmt.Sprintf("%s_%s", entity, action),
		Entity: entity,
		Action: action,
		ID:     id,
		Extra:  extra,
	}
}

// Hub fans growth-record notifications out to every open connection.
type Hub struct {
	mu      sync.RWMutex
	seq     uint64
	clients map[*Client]struct{}
	logger  *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger,
	}
}

// Register adds c and queues its hello message ahead of any broadcast.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	seq := h.seq
	if data, err := json.Marshal(Message{Type: TypeHello, Seq: seq}); err == nil {
		select {
		case c.send <- data:
		default:
		}
	}
	n := len(h.clients)
	h.mu.Unlock()
	h.logger.Debug("websocket client connected", "clients", n, "seq", seq)
}

// Unregister removes a client from the hub and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// Broadcast stamps msg with the next sequence number and queues it for every
// client. A client whose buffer is full misses it and sees the gap later.
func (h *Hub) Broadcast(msg Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.seq++
	msg.Seq = h.seq
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Error("marshal broadcast", "type", msg.Type, "error", err)
		return
	}

	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.logger.Warn("websocket client too slow, dropping message", "type", msg.Type, "seq", msg.Seq)
		}
	}
}

// Seq returns the sequence number of the last broadcast.
func (h *Hub) Seq() uint64 {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.seq
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
