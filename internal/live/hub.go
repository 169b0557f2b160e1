// Package live implements the in-process registry of websocket
// sessions used for best-effort notification push. Rooms are named
// "farmer_<id>" after the user the session belongs to; a connection
// joins its room on connect and leaves on disconnect. The Hub is an
// explicit dependency constructed in main and passed to whoever needs
// to publish — there is no package-level singleton.
package live

import (
    "encoding/json"
    "fmt"
    "sync"

    "github.com/gorilla/websocket"
)

// Event is the JSON frame written to subscribed sessions.
type Event struct {
    Event string      `json:"event"`
    Data  interface{} `json:"data"`
}

// Room returns the channel name for a user's notification stream.
func Room(userID uint64) string {
    return fmt.Sprintf("farmer_%d", userID)
}

// Hub maps room names to the set of connections currently subscribed
// to them. All access goes through the mutex. Publish takes the write
// lock: gorilla/websocket allows at most one concurrent writer per
// connection, so publishes to the same room must serialize.
type Hub struct {
    mu    sync.RWMutex
    rooms map[string]map[*websocket.Conn]bool
}

// NewHub returns an empty registry.
func NewHub() *Hub {
    return &Hub{rooms: make(map[string]map[*websocket.Conn]bool)}
}

// Join registers a connection under the given room.
func (h *Hub) Join(room string, c *websocket.Conn) {
    h.mu.Lock()
    defer h.mu.Unlock()
    set, ok := h.rooms[room]
    if !ok {
        set = make(map[*websocket.Conn]bool)
        h.rooms[room] = set
    }
    set[c] = true
}

// Leave removes a connection from the room, dropping the room when it
// empties.
func (h *Hub) Leave(room string, c *websocket.Conn) {
    h.mu.Lock()
    defer h.mu.Unlock()
    if set, ok := h.rooms[room]; ok {
        delete(set, c)
        if len(set) == 0 {
            delete(h.rooms, room)
        }
    }
}

// Subscribers reports how many connections are currently in the room.
func (h *Hub) Subscribers(room string) int {
    h.mu.RLock()
    defer h.mu.RUnlock()
    return len(h.rooms[room])
}

// Publish writes the event to every connection in the room. Delivery
// is at-most-once and best effort: write errors are ignored, since
// the persisted notification row is the durable record and a
// reconnecting session re-fetches its list anyway.
func (h *Hub) Publish(room, event string, data interface{}) {
    payload, err := json.Marshal(Event{Event: event, Data: data})
    if err != nil {
        return
    }
    h.mu.Lock()
    defer h.mu.Unlock()
    for c := range h.rooms[room] {
        _ = c.WriteMessage(websocket.TextMessage, payload)
    }
}
