package services

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow all origins for development
	},
}

// Client represents a WebSocket client
type Client struct {
	ID   uint
	Role string
	Conn *websocket.Conn
	Send chan []byte
	Hub  *Hub
}

// Hub maintains the set of active clients and broadcasts messages
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
			log.Printf("Client %d connected", client.ID)

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.Send)
			}
			h.mutex.Unlock()
			log.Printf("Client %d disconnected", client.ID)

		case message := <-h.broadcast:
			h.mutex.RLock()
			for client := range h.clients {
				select {
				case client.Send <- message:
				default:
					close(client.Send)
					delete(h.clients, client)
				}
			}
			h.mutex.RUnlock()
		}
	}
}

// BroadcastToUser sends a message to a specific user
func (h *Hub) BroadcastToUser(userID uint, message []byte) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

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

// BroadcastToRole sends a message to all connected users with the role
func (h *Hub) BroadcastToRole(role string, message []byte) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	for client := range h.clients {
		if client.Role == role {
			select {
			case client.Send <- message:
			default:
				close(client.Send)
				delete(h.clients, client)
			}
		}
	}
}

// GetConnectedClients returns the number of connected clients
func (h *Hub) GetConnectedClients() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// WebSocket message types
type WebSocketMessage struct {
	Type string      `json:"type"`
	Data interface{} `json:"data"`
}

// ShareCreated notifies group drivers that a ride was offered to them
type ShareCreated struct {
	ShareID   uint `json:"shareId"`
	RideID    uint `json:"rideId"`
	GroupID   uint `json:"groupId"`
	Priority  int  `json:"priority"`
	Exclusive bool `json:"exclusive"`
}

// ClaimQueued notifies dispatchers that a driver wants a ride
type ClaimQueued struct {
	ClaimID  uint `json:"claimId"`
	RideID   uint `json:"rideId"`
	DriverID uint `json:"driverId"`
}

// ClaimResolved notifies the claiming driver of the outcome
type ClaimResolved struct {
	ClaimID uint   `json:"claimId"`
	RideID  uint   `json:"rideId"`
	Status  string `json:"status"` // approved, rejected
}

// RideStatusUpdate notifies creator and driver of a lifecycle change
type RideStatusUpdate struct {
	RideID uint   `json:"rideId"`
	Status string `json:"status"`
}

// HandleWebSocket handles WebSocket connections
func HandleWebSocket(hub *Hub, w http.ResponseWriter, r *http.Request, userID uint, role string) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade error: %v", err)
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

	// Start goroutines for reading and writing
	go client.writePump()
	go client.readPump()
}

// readPump drains the connection so pings and closes are handled; the
// dispatch workflow is REST-only, clients don't send us commands.
func (c *Client) readPump() {
	defer func() {
		c.Hub.unregister <- c
		c.Conn.Close()
	}()

	for {
		if _, _, err := c.Conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error: %v", err)
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
			log.Printf("WebSocket write error: %v", err)
			return
		}
	}
	c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
}

// SendShareCreated notifies a driver that a ride was shared with a group
// they belong to
func (hub *Hub) SendShareCreated(driverID uint, share ShareCreated) {
	message := WebSocketMessage{
		Type: "share_created",
		Data: share,
	}

	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshaling share created: %v", err)
		return
	}

	hub.BroadcastToUser(driverID, data)
}

// SendClaimQueued notifies dispatchers and admins of a new queued claim
func (hub *Hub) SendClaimQueued(claim ClaimQueued) {
	message := WebSocketMessage{
		Type: "claim_queued",
		Data: claim,
	}

	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshaling claim queued: %v", err)
		return
	}

	hub.BroadcastToRole("dispatcher", data)
	hub.BroadcastToRole("admin", data)
}

// SendClaimResolved notifies the claiming driver of approval or rejection
func (hub *Hub) SendClaimResolved(driverID uint, resolved ClaimResolved) {
	message := WebSocketMessage{
		Type: "claim_resolved",
		Data: resolved,
	}

	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshaling claim resolved: %v", err)
		return
	}

	hub.BroadcastToUser(driverID, data)
}

// SendRideStatusUpdate notifies a user of a ride lifecycle change
func (hub *Hub) SendRideStatusUpdate(userID uint, update RideStatusUpdate) {
	message := WebSocketMessage{
		Type: "ride_status_update",
		Data: update,
	}

	data, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshaling ride status update: %v", err)
		return
	}

	hub.BroadcastToUser(userID, data)
}
