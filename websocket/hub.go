package websocket

import (
	"log"
	"sync"

	"github.com/gofiber/contrib/websocket"
)

// Client is one authenticated socket, keyed by the account email so
// lifecycle events can be pushed to whoever they concern.
type Client struct {
	Email string
	Conn  *websocket.Conn
}

// Notification is a marketplace lifecycle event pushed to one user:
// application_approved, application_rejected, tuition_status.
type Notification struct {
	Email string      `json:"-"`
	Event string      `json:"event"`
	Data  interface{} `json:"data"`
}

var clients = make(map[string]*websocket.Conn)
var clientsMu sync.RWMutex
var Register = make(chan *Client)
var Unregister = make(chan *Client)
var Notify = make(chan *Notification, 16)

func RunHub() {
	for {
		select {
		case client := <-Register:
			log.Printf("Client registered: %s", client.Email)
			clientsMu.Lock()
			clients[client.Email] = client.Conn
			clientsMu.Unlock()
		case client := <-Unregister:
			log.Printf("Client unregistered: %s", client.Email)
			clientsMu.Lock()
			if conn, ok := clients[client.Email]; ok && conn == client.Conn {
				delete(clients, client.Email)
			}
			clientsMu.Unlock()
		case notification := <-Notify:
			clientsMu.RLock()
			conn, ok := clients[notification.Email]
			clientsMu.RUnlock()
			if !ok {
				continue
			}
			if err := conn.WriteJSON(notification); err != nil {
				log.Printf("Error pushing notification to %s: %v", notification.Email, err)
				conn.Close()
				clientsMu.Lock()
				delete(clients, notification.Email)
				clientsMu.Unlock()
			}
		}
	}
}

// Push queues a notification without blocking the caller when the hub
// is saturated; a dropped realtime event is acceptable.
func Push(email, event string, data interface{}) {
	select {
	case Notify <- &Notification{Email: email, Event: event, Data: data}:
	default:
		log.Printf("Notification hub full, dropping %s event for %s", event, email)
	}
}
