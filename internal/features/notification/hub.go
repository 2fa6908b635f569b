package notification

import (
	"sync"

	"go.uber.org/zap"
)

// Conn is the part of a websocket connection the hub writes to.
type Conn interface {
	WriteJSON(v interface{}) error
}

type client struct {
	conn Conn
	mu   sync.Mutex
}

// Hub fans notifications out to the live websocket connections of a customer.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*client]struct{}
	logger  *zap.Logger
}

func NewHub(logger *zap.Logger) *Hub {
	return &Hub{
		clients: make(map[string]map[*client]struct{}),
		logger:  logger,
	}
}

// Register adds conn under customerID and returns the function that removes it.
func (h *Hub) Register(customerID string, conn Conn) func() {
	c := &client{conn: conn}

	h.mu.Lock()
	if h.clients[customerID] == nil {
		h.clients[customerID] = make(map[*client]struct{})
	}
	h.clients[customerID][c] = struct{}{}
	h.mu.Unlock()

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.clients[customerID], c)
		if len(h.clients[customerID]) == 0 {
			delete(h.clients, customerID)
		}
	}
}

// Connections returns how many sockets customerID has open.
func (h *Hub) Connections(customerID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[customerID])
}

func (h *Hub) Push(customerID string, n Notification) {
	h.mu.RLock()
	targets := make([]*client, 0, len(h.clients[customerID]))
	for c := range h.clients[customerID] {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		c.mu.Lock()
		err := c.conn.WriteJSON(n)
		c.mu.Unlock()
		if err != nil {
			h.logger.Debug("Websocket push failed", zap.String("customerId", customerID), zap.Error(err))
		}
	}
}
