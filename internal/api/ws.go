package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"neo-velocity-lab/internal/normalization"
	"neo-velocity-lab/internal/observability"
)

const (
	wsWriteWait  = 10 * time.Second
	wsPongWait   = 60 * time.Second
	wsMaxMessage = 64 << 10
)

// wsError is sent in place of a VelocityResponse when a request fails.
type wsError struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// handleVelocityWS answers each JSON element set with one JSON reply, in order.
func (s *Server) handleVelocityWS(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warnw("websocket upgrade failed", "err", err)
		return
	}
	defer conn.Close()

	conn.SetReadLimit(wsMaxMessage)
	_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(wsPongWait))
	})

	for {
		_, msg, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				log.Debugw("websocket read", "err", err)
			}
			return
		}
		_ = conn.SetReadDeadline(time.Now().Add(wsPongWait))

		var reply any
		var in normalization.ElementsInput
		if err := json.Unmarshal(msg, &in); err != nil {
			reply = wsError{Error: "invalid request", Details: err.Error()}
			observability.RecordAPIRequest("ws_velocity", "4xx")
		} else if resp, status, err := s.compute(in); err != nil {
			reply = wsError{Error: "computation failed", Details: err.Error()}
			observability.RecordAPIRequest("ws_velocity", statusClass(status))
			observability.RecordError(normalization.Classify(err))
		} else {
			reply = resp
			observability.RecordAPIRequest("ws_velocity", "2xx")
		}

		_ = conn.SetWriteDeadline(time.Now().Add(wsWriteWait))
		if err := conn.WriteJSON(reply); err != nil {
			log.Debugw("websocket write", "err", err)
			return
		}
	}
}
