package api

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"

	pickupsvc "github.com/mikios34/pickup-availability/pickup/service"
	"github.com/mikios34/pickup-availability/realtime"
)

var upgrader = websocket.Upgrader{CheckOrigin: func(r *http.Request) bool { return true }}

// EventInputsUpdate carries a statePayload from the product page.
const EventInputsUpdate = "inputs.update"

type WSHandler struct {
	hub     *realtime.Hub
	live    liveState
	country string
}

func NewWSHandler(hub *realtime.Hub, live liveState, country string) *WSHandler {
	return &WSHandler{hub: hub, live: live, country: country}
}

// SessionSocket upgrades to WS and registers the session connection.
func (h *WSHandler) SessionSocket() gin.HandlerFunc {
	return func(c *gin.Context) {
		// session middleware should run before this handler
		id, ok := sessionID(c)
		if !ok {
			return
		}
		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			return
		}
		key := id.String()
		h.hub.RegisterSession(key, conn)

		// On connect, push the last state the session saw.
		if view, ok := h.live.Current(id); ok {
			_ = h.hub.NotifySession(key, pickupsvc.EventPickupState, view)
		}

		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				if h.hub.UnregisterSession(key, conn) {
					h.live.Forget(id)
				}
				break
			}
			var msg struct {
				Event string          `json:"event"`
				Data  json.RawMessage `json:"data"`
			}
			if err := json.Unmarshal(data, &msg); err != nil {
				continue
			}
			switch msg.Event {
			case EventInputsUpdate:
				var p statePayload
				if err := json.Unmarshal(msg.Data, &p); err != nil {
					log.Printf("ws: session %s sent invalid inputs: %v", key, err)
					continue
				}
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				h.live.Update(ctx, p.inputs(id, h.country))
				cancel()
			default:
				// ignore
			}
		}
	}
}
