package ws

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/tomoro-store/api/internal/service"
)

// mockClient creates a client for testing without a real WebSocket connection
func mockClient(hub *Hub, customerID uuid.UUID, staff bool) *Client {
	return &Client{
		hub:        hub,
		customerID: customerID,
		isStaff:    staff,
		send:       make(chan []byte, 256),
	}
}

func TestHubRegistration(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	customerID := uuid.New()
	client := mockClient(hub, customerID, false)

	hub.register <- client

	// Give hub time to process
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	defer hub.mu.RUnlock()

	if hub.rooms[customerID] == nil {
		t.Fatal("customer room not created")
	}
	if !hub.rooms[customerID][client] {
		t.Fatal("client not registered in customer room")
	}
}

func TestHubUnregistration(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	customerID := uuid.New()
	client := mockClient(hub, customerID, false)

	hub.register <- client
	time.Sleep(10 * time.Millisecond)

	hub.unregister <- client
	time.Sleep(10 * time.Millisecond)

	hub.mu.RLock()
	defer hub.mu.RUnlock()

	if hub.rooms[customerID] != nil {
		t.Fatal("empty customer room should be cleaned up")
	}
}

func TestHubBroadcastRouting(t *testing.T) {
	hub := NewHub()
	go hub.Run()

	customerID := uuid.New()
	owner := mockClient(hub, customerID, false)
	other := mockClient(hub, uuid.New(), false)
	staff := mockClient(hub, uuid.New(), true)

	hub.register <- owner
	hub.register <- other
	hub.register <- staff
	time.Sleep(10 * time.Millisecond)

	evt := service.OrderEvent{
		OrderID:     uuid.New(),
		OrderNumber: "ORD-1-abc",
		CustomerID:  customerID,
		Status:      "CONFIRMED",
	}
	hub.PublishOrderEvent(evt)
	time.Sleep(10 * time.Millisecond)

	select {
	case msg := <-owner.send:
		var wrapped Event
		if err := json.Unmarshal(msg, &wrapped); err != nil {
			t.Fatalf("unmarshal event: %v", err)
		}
		if wrapped.Type != "order.status" {
			t.Errorf("expected type order.status, got %s", wrapped.Type)
		}
		var got service.OrderEvent
		if err := json.Unmarshal(wrapped.Payload, &got); err != nil {
			t.Fatalf("unmarshal payload: %v", err)
		}
		if got.OrderNumber != "ORD-1-abc" || got.Status != "CONFIRMED" {
			t.Errorf("unexpected payload: %+v", got)
		}
	default:
		t.Fatal("order owner did not receive the event")
	}

	select {
	case <-staff.send:
	default:
		t.Fatal("staff client did not receive the event")
	}

	select {
	case <-other.send:
		t.Fatal("unrelated customer must not receive the event")
	default:
	}
}
