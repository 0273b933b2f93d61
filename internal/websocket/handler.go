package websocket

import (
	"github.com/gofiber/websocket/v2"
)

// ServeWs registers conn as a watcher of runID and blocks until it closes.
// snapshot is read after registration, so a run that finishes while the
// client connects still reaches it.
func ServeWs(hub *Hub, conn *websocket.Conn, runID string, snapshot Snapshot) {
	client := NewClient(hub, conn, runID)
	if !hub.Register(client, snapshot) {
		_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, "server shutting down"))
		_ = conn.Close()
		return
	}

	go client.writePump()
	client.readPump()
}
