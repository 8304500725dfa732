package services

import (
	"encoding/json"
	"sync"

	"github.com/gorilla/websocket"
)

// RealtimeHub fans run summaries out to connected dashboard clients. There
// are no accounts in this system, so every client sees every event.
type RealtimeHub struct {
	mu      sync.RWMutex
	clients map[*websocket.Conn]struct{}
}

func NewRealtimeHub() *RealtimeHub {
	return &RealtimeHub{clients: make(map[*websocket.Conn]struct{})}
}

func (h *RealtimeHub) Register(conn *websocket.Conn) {
	h.mu.Lock()
	h.clients[conn] = struct{}{}
	h.mu.Unlock()
}

func (h *RealtimeHub) Unregister(conn *websocket.Conn) {
	h.mu.Lock()
	delete(h.clients, conn)
	h.mu.Unlock()
	_ = conn.Close()
}

func (h *RealtimeHub) Broadcast(payload any) {
	msg, _ := json.Marshal(payload)
	h.mu.RLock()
	defer h.mu.RUnlock()
	for conn := range h.clients {
		_ = conn.WriteMessage(websocket.TextMessage, msg)
	}
}
