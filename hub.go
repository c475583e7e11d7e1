package main

import (
	"log"
	"net/http"

	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
)

// wireEvent is the envelope every subscriber receives.
type wireEvent struct {
	Type  string     `json:"type"`
	Cards []CardView `json:"cards,omitempty"`
}

type Client struct {
	conn *websocket.Conn
	send chan wireEvent
}

// Hub fans board events out to every connected client. There is one hub for
// the whole process: the board is a single shared room. Clients never talk
// back over the socket; mutations go through the HTTP API.
type Hub struct {
	clients  map[*Client]bool
	register chan *Client
	unreg    chan *Client
	events   chan wireEvent
}

func newHub() *Hub {
	return &Hub{
		clients:  make(map[*Client]bool),
		register: make(chan *Client),
		unreg:    make(chan *Client),
		events:   make(chan wireEvent),
	}
}

func (h *Hub) run(cfg *Config) {
	for {
		select {
		case c := <-h.register:
			h.clients[c] = true
			logf(cfg, "WS: Client connected (%d online)", len(h.clients))

		case c := <-h.unreg:
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				close(c.send)
			}
			logf(cfg, "WS: Client disconnected (%d online)", len(h.clients))

		case ev := <-h.events:
			for client := range h.clients {
				select {
				case client.send <- ev:
				default:
					// slow consumer; drop it rather than stall the board
					delete(h.clients, client)
					close(client.send)
				}
			}
		}
	}
}

// Publish implements Publisher. Events reach the clients connected right
// now, at most once each; late joiners request a snapshot themselves.
func (h *Hub) Publish(event string, payload any) {
	ev := wireEvent{Type: event}
	if cards, ok := payload.([]CardView); ok {
		ev.Cards = cards
	}
	h.events <- ev
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// serveWS upgrades the connection and attaches it to the hub.
func serveWS(hub *Hub) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			log.Println("upgrade error:", err)
			return
		}

		client := &Client{
			conn: conn,
			send: make(chan wireEvent, 8),
		}

		hub.register <- client

		go client.writePump()
		client.readPump(hub)
	}
}

// readPump discards inbound frames; its job is to notice the disconnect.
func (c *Client) readPump(h *Hub) {
	defer func() {
		h.unreg <- c
		_ = c.conn.Close()
	}()

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}
