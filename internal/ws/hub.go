package ws

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/tomoro-store/api/internal/service"
)

// Event represents a WebSocket message to be broadcast
type Event struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Hub maintains the set of active clients and fans order events out to
// them. Staff clients see every event; customers only their own orders.
type Hub struct {
	// Customer clients by customer ID
	rooms map[uuid.UUID]map[*Client]bool

	// Staff dashboard clients (admin/owner)
	staff map[*Client]bool

	// Inbound messages from clients (register/unregister)
	register   chan *Client
	unregister chan *Client

	// Outbound messages to broadcast
	broadcast chan *service.OrderEvent

	// Mutex for thread-safe room access
	mu sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		rooms:      make(map[uuid.UUID]map[*Client]bool),
		staff:      make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan *service.OrderEvent, 256),
	}
}

// Run starts the hub's main loop
// This should be called as a goroutine: go hub.Run()
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if client.isStaff {
				h.staff[client] = true
			} else {
				if h.rooms[client.customerID] == nil {
					h.rooms[client.customerID] = make(map[*Client]bool)
				}
				h.rooms[client.customerID][client] = true
			}
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			h.removeClient(client)
			h.mu.Unlock()

		case evt := <-h.broadcast:
			message, err := json.Marshal(Event{
				Type:    "order.status",
				Payload: mustMarshal(evt),
			})
			if err != nil {
				continue
			}

			h.mu.Lock()
			for client := range h.staff {
				h.send(client, message)
			}
			for client := range h.rooms[evt.CustomerID] {
				h.send(client, message)
			}
			h.mu.Unlock()
		}
	}
}

// send delivers a message or drops the client when its buffer is full.
// Caller must hold h.mu.
func (h *Hub) send(client *Client, message []byte) {
	select {
	case client.send <- message:
	default:
		h.removeClient(client)
	}
}

// removeClient detaches a client from its room. Caller must hold h.mu.
func (h *Hub) removeClient(client *Client) {
	if client.isStaff {
		if _, ok := h.staff[client]; ok {
			delete(h.staff, client)
			close(client.send)
		}
		return
	}
	clients, ok := h.rooms[client.customerID]
	if !ok {
		return
	}
	if _, exists := clients[client]; exists {
		delete(clients, client)
		close(client.send)
		if len(clients) == 0 {
			delete(h.rooms, client.customerID)
		}
	}
}

// PublishOrderEvent implements service.EventPublisher. Called after the
// order's transaction commits.
func (h *Hub) PublishOrderEvent(evt service.OrderEvent) {
	h.broadcast <- &evt
}

func mustMarshal(v interface{}) json.RawMessage {
	b, err := json.Marshal(v)
	if err != nil {
		return json.RawMessage("{}")
	}
	return b
}
