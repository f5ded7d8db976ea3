package websocket

import (
	"github.com/gofiber/websocket/v2"
	"github.com/google/uuid"
)

// ServeWs attaches a new console connection to the hub. initial, when non-nil, is queued
// ahead of any broadcast so the browser starts from the current state.
func ServeWs(hub *Hub, c *websocket.Conn, initial []byte) {
	client := &Client{Hub: hub, Conn: c, ID: uuid.New(), Send: make(chan []byte, sendBuffer)}
	if initial != nil {
		client.Send <- initial
	}
	if !client.Hub.Register(client) {
		c.Close()
		return
	}

	go client.writePump()
	client.readPump()
}
