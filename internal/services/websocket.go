package services

import (
	"encoding/json"
	"net/http"
	"sync"

	"github.com/fleetgrid/fleetgrid-backend/pkg/logger"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

// Client represents a WebSocket client
type Client struct {
	ID   uuid.UUID
	Role string
	Conn *websocket.Conn
	Send chan []byte
	Hub  *Hub
}

// Hub maintains the set of active clients and broadcasts booking and trip
// lifecycle events to them
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	mutex      sync.RWMutex
}

// NewHub creates a new WebSocket hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte),
	}
}

// Run starts the hub
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client] = true
			h.mutex.Unlock()
			logger.InfoLogger.Infof("Client %s connected", client.ID)

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			h.mutex.Unlock()
			logger.InfoLogger.Infof("Client %s disconnected", client.ID)

		case message := <-h.broadcast:
			// Eviction mutates the client set, so this needs the write lock.
			h.mutex.Lock()
			for client := range h.clients {
				select {
				case client.Send <- message:
				default:
					close(client.Send)
					delete(h.clients, client)
				}
			}
			h.mutex.Unlock()
		}
	}
}

// BroadcastToUser sends a message to a specific user. Takes the write lock
// because a slow client is evicted inline.
func (h *Hub) BroadcastToUser(userID uuid.UUID, message []byte) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for client := range h.clients {
		if client.ID == userID {
			select {
			case client.Send <- message:
			default:
				close(client.Send)
				delete(h.clients, client)
			}
		}
	}
}

// BroadcastToManagers sends a message to all fleet managers and admins.
// Takes the write lock because a slow client is evicted inline.
func (h *Hub) BroadcastToManagers(message []byte) {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	for client := range h.clients {
		if client.Role == "admin" || client.Role == "fleet_manager" {
			select {
			case client.Send <- message:
			default:
				close(client.Send)
				delete(h.clients, client)
			}
		}
	}
}

// NotifyBookingEvent sends a booking lifecycle event to the owning user and
// to fleet managers
func (h *Hub) NotifyBookingEvent(event string, userID uuid.UUID, payload map[string]interface{}) {
	message, err := json.Marshal(map[string]interface{}{
		"type":    event,
		"payload": payload,
	})
	if err != nil {
		return
	}
	h.BroadcastToUser(userID, message)
	h.BroadcastToManagers(message)
}

// GetConnectedClients returns the number of connected clients
func (h *Hub) GetConnectedClients() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// HandleWebSocket upgrades the connection and attaches the client to the
// hub. The stream is push-only: clients receive booking and trip events and
// send nothing back.
func HandleWebSocket(hub *Hub, w http.ResponseWriter, r *http.Request, userID uuid.UUID, role string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.ErrorLogger.Errorf("WebSocket upgrade error: %v", err)
		return
	}

	client := &Client{
		ID:   userID,
		Role: role,
		Conn: conn,
		Send: make(chan []byte, 256),
		Hub:  hub,
	}

	client.Hub.register <- client

	go client.writePump()
	go client.readPump()
}

// readPump drains the connection until the client goes away.
func (c *Client) readPump() {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.Close()
	}()

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logger.ErrorLogger.Errorf("WebSocket error: %v", err)
			}
			break
		}
	}
}

// writePump pumps messages from the hub to the websocket connection
func (c *Client) writePump() {
	defer c.Conn.Close()

	for message := range c.Send {
		if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
			logger.ErrorLogger.Errorf("WebSocket write error: %v", err)
			return
		}
	}
	c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
}
