package services

import (
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func addClient(hub *Hub, userID uuid.UUID, role string, buffer int) *Client {
	client := &Client{
		ID:   userID,
		Role: role,
		Send: make(chan []byte, buffer),
		Hub:  hub,
	}
	hub.clients[client] = true
	return client
}

func TestConcurrentBroadcastEvictsSlowClientOnce(t *testing.T) {
	hub := NewHub()
	userID := uuid.New()

	// unbuffered Send with no reader, so every broadcast takes the
	// eviction path
	addClient(hub, userID, "user", 0)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			hub.BroadcastToUser(userID, []byte("update"))
		}()
	}
	wg.Wait()

	// exactly one broadcast closed the channel; the rest found the client
	// already gone
	assert.Equal(t, 0, hub.GetConnectedClients())
}

func TestConcurrentManagerBroadcast(t *testing.T) {
	hub := NewHub()
	addClient(hub, uuid.New(), "fleet_manager", 0)
	addClient(hub, uuid.New(), "admin", 0)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			hub.BroadcastToManagers([]byte("update"))
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, hub.GetConnectedClients())
}

func TestNotifyBookingEventReachesUserAndManagers(t *testing.T) {
	hub := NewHub()
	userID := uuid.New()

	owner := addClient(hub, userID, "user", 4)
	manager := addClient(hub, uuid.New(), "fleet_manager", 4)
	bystander := addClient(hub, uuid.New(), "user", 4)

	hub.NotifyBookingEvent("booking_confirmed", userID, map[string]interface{}{
		"bookingId": uuid.New(),
	})

	require.Len(t, owner.Send, 1)
	require.Len(t, manager.Send, 1)
	assert.Empty(t, bystander.Send)

	message := <-owner.Send
	assert.Contains(t, string(message), "booking_confirmed")
}
