package websocket

import (
	"context"
)

type Client struct {
	hub  *Hub
	conn *Conn
	send chan []byte
}

// Hub fans every broadcast payload out to all currently connected clients.
// There is no backlog: a client connected before the payload arrives gets
// it, one connected after does not.
type Hub struct {
	register   chan *Client
	unregister chan *Client
	broadcast  chan []byte
	clients    map[*Client]bool
}

func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte),
		clients:    make(map[*Client]bool),
	}
}

func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case c := <-h.register:
			h.clients[c] = true
		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
		case msg := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					// Slow consumer; drop it rather than block the fan-out.
					delete(h.clients, c)
					close(c.send)
				}
			}
		case <-ctx.Done():
			for c := range h.clients {
				close(c.send)
			}
			return
		}
	}
}

// Broadcast re-emits payload verbatim to every connected client.
func (h *Hub) Broadcast(payload []byte) {
	h.broadcast <- payload
}
