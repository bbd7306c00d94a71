package websocket

import (
	"log"
	"sync"

	"github.com/anjiri1684/safari_travel/models"
	"github.com/gofiber/contrib/websocket"
	"github.com/google/uuid"
)

// Hub fans every committed booking ledger entry out to connected admin
// dashboards. Pure observer: nothing here can mutate booking state.
type Hub struct {
	clients   map[uuid.UUID]*websocket.Conn
	clientsMu sync.RWMutex

	register   chan *Client
	unregister chan *Client
	broadcast  chan models.BookingEvent
}

type Client struct {
	UserID uuid.UUID
	Conn   *websocket.Conn
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]*websocket.Conn),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan models.BookingEvent, 64),
	}
}

// Publish implements the event sink used by the booking state machine.
// Non-blocking: a slow feed never delays a transition.
func (h *Hub) Publish(event models.BookingEvent) {
	select {
	case h.broadcast <- event:
	default:
		log.Printf("⚠️ Event feed backlog full, dropping %s for booking %s", event.EventType, event.BookingID)
	}
}

func (h *Hub) Register(c *Client)   { h.register <- c }
func (h *Hub) Unregister(c *Client) { h.unregister <- c }

func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			log.Printf("Admin feed client connected: %s", client.UserID)
			h.clientsMu.Lock()
			h.clients[client.UserID] = client.Conn
			h.clientsMu.Unlock()
		case client := <-h.unregister:
			log.Printf("Admin feed client disconnected: %s", client.UserID)
			h.clientsMu.Lock()
			if conn, ok := h.clients[client.UserID]; ok && conn == client.Conn {
				delete(h.clients, client.UserID)
			}
			h.clientsMu.Unlock()
		case event := <-h.broadcast:
			h.clientsMu.RLock()
			var dead []uuid.UUID
			for userID, conn := range h.clients {
				if err := conn.WriteJSON(event); err != nil {
					log.Printf("Error sending event to admin %s: %v", userID, err)
					conn.Close()
					dead = append(dead, userID)
				}
			}
			h.clientsMu.RUnlock()

			if len(dead) > 0 {
				h.clientsMu.Lock()
				for _, userID := range dead {
					delete(h.clients, userID)
				}
				h.clientsMu.Unlock()
			}
		}
	}
}
