package realtime

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/google/uuid"
)

type Client struct {
	ID     string
	UserID uuid.UUID
	Conn   *WebSocketConn
	Send   chan []byte
}

// Hub tracks live connections and per-order broadcast groups. A connection
// may join any number of order groups over its lifetime. Fan-out is
// fire-and-forget: delivery order across concurrent senders is best-effort,
// and the persisted thread is the authoritative ordering. Clients whose send
// buffer is full are dropped rather than blocked on.
type Hub struct {
	clients    map[string]*Client
	rooms      map[uuid.UUID]map[string]*Client
	register   chan *Client
	unregister chan *Client
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		rooms:      make(map[uuid.UUID]map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
	}
}

func (h *Hub) RegisterClient(client *Client) {
	h.register <- client
}

func (h *Hub) UnregisterClient(client *Client) {
	h.unregister <- client
}

// JoinOrder adds the connection to an order's broadcast group. Callers must
// have authorized the user against the order first.
func (h *Hub) JoinOrder(client *Client, orderID uuid.UUID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	room, ok := h.rooms[orderID]
	if !ok {
		room = make(map[string]*Client)
		h.rooms[orderID] = room
	}
	room[client.ID] = client
	log.Printf("Client %s (user %s) joined order %s", client.ID, client.UserID, orderID)
}

// BroadcastToOrder pushes a payload to every connection joined to the
// order's group, the sender's own connection included.
func (h *Hub) BroadcastToOrder(orderID uuid.UUID, v interface{}) {
	payload, err := json.Marshal(v)
	if err != nil {
		log.Printf("Error marshaling broadcast payload: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for _, client := range h.rooms[orderID] {
		select {
		case client.Send <- payload:
		default:
			// slow consumer, skip rather than block the broadcast
		}
	}
}

// RoomSize reports how many connections are joined to an order's group.
func (h *Hub) RoomSize(orderID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[orderID])
}

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.ID] = client
			h.mu.Unlock()
			log.Printf("Client registered: %s (UserID: %s)", client.ID, client.UserID)

		case client := <-h.unregister:
			h.mu.Lock()
			if old, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				close(old.Send)
			}
			for orderID, room := range h.rooms {
				delete(room, client.ID)
				if len(room) == 0 {
					delete(h.rooms, orderID)
				}
			}
			h.mu.Unlock()
			log.Printf("Client unregistered: %s", client.ID)
		}
	}
}
