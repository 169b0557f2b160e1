package handler

import (
    "net/http"

    "github.com/gorilla/websocket"
    "github.com/labstack/echo/v4"

    "github.com/agrolink/farm-marketplace/internal/live"
)

// LiveHandler upgrades authenticated connections into the push
// registry. A session joins the room named after its own user id;
// there is no subscribe protocol, the server decides the room.
type LiveHandler struct {
    Hub      *live.Hub
    upgrader websocket.Upgrader
}

// NewLiveHandler constructs a LiveHandler around the given hub.
func NewLiveHandler(hub *live.Hub) *LiveHandler {
    if hub == nil {
        panic("nil hub passed to NewLiveHandler")
    }
    return &LiveHandler{
        Hub: hub,
        upgrader: websocket.Upgrader{
            ReadBufferSize:  1024,
            WriteBufferSize: 1024,
            // The session cookie is the access control; the Origin
            // header adds nothing for a cookie-authenticated upgrade.
            CheckOrigin: func(r *http.Request) bool { return true },
        },
    }
}

// Subscribe handles GET /ws. The connection stays registered until
// the client closes it or the read loop errors out; the server never
// reads meaningful data, the channel is push only.
func (h *LiveHandler) Subscribe(c echo.Context) error {
    uid, err := getUserID(c)
    if err != nil {
        return c.JSON(http.StatusUnauthorized, echo.Map{"message": "Not authenticated"})
    }
    conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
    if err != nil {
        // Upgrade already wrote an HTTP error to the client.
        return nil
    }

    room := live.Room(uid)
    h.Hub.Join(room, conn)
    defer func() {
        h.Hub.Leave(room, conn)
        _ = conn.Close()
    }()

    for {
        if _, _, err := conn.ReadMessage(); err != nil {
            return nil
        }
    }
}
