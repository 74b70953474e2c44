package realtime

import (
	"log"
	"sync"

	"github.com/gorilla/websocket"
)

// Hub holds the websocket of every connected shopper session.
type Hub struct {
	mu        sync.RWMutex
	bySession map[string]*wsConn
}

func NewHub() *Hub {
	return &Hub{bySession: make(map[string]*wsConn)}
}

// wsConn wraps a websocket connection with a write mutex to serialize writes.
type wsConn struct {
	conn *websocket.Conn
	mu   sync.Mutex
}

// RegisterSession binds conn to the session, closing any previous connection.
func (h *Hub) RegisterSession(sessionID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if old, ok := h.bySession[sessionID]; ok {
		old.conn.Close()
	}
	h.bySession[sessionID] = &wsConn{conn: conn}
}

// UnregisterSession closes conn and forgets it if it is still the session's
// connection. It reports whether the session is now disconnected.
func (h *Hub) UnregisterSession(sessionID string, conn *websocket.Conn) bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.bySession[sessionID]
	if !ok {
		conn.Close()
		return true
	}
	if c.conn != conn {
		conn.Close()
		return false
	}
	c.conn.Close()
	delete(h.bySession, sessionID)
	return true
}

// Connected reports whether the session has a live connection.
func (h *Hub) Connected(sessionID string) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.bySession[sessionID]
	return ok
}

// NotifySession sends a typed event payload to the session if connected.
func (h *Hub) NotifySession(sessionID string, event string, payload any) error {
	h.mu.RLock()
	wc, ok := h.bySession[sessionID]
	h.mu.RUnlock()
	if !ok {
		log.Printf("ws: session %s not connected; drop event %s", sessionID, event)
		return nil
	}
	msg := map[string]any{"event": event, "data": payload}
	wc.mu.Lock()
	defer wc.mu.Unlock()
	if err := wc.conn.WriteJSON(msg); err != nil {
		log.Printf("ws: write to session %s failed for event %s: %v", sessionID, event, err)
		return err
	}
	return nil
}
