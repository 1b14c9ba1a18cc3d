package api

import (
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/psimmons86/playdates-server/internal/api/respond"
	"github.com/psimmons86/playdates-server/internal/events"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10
)

// UpdatesHandler streams a user's domain events over a websocket.
type UpdatesHandler struct {
	bus      *events.Bus
	log      zerolog.Logger
	upgrader websocket.Upgrader
}

func NewUpdatesHandler(bus *events.Bus, log zerolog.Logger) *UpdatesHandler {
	return &UpdatesHandler{
		bus: bus,
		log: log.With().Str("handler", "updates").Logger(),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			// The bearer token is the access control; origin checks would
			// block non-browser clients.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Stream handles GET /v1/users/{userId}/updates. Callers may only stream
// their own events.
func (h *UpdatesHandler) Stream(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userId"]
	actor := ActorID(r)
	if actor == "" {
		respond.WriteError(w, http.StatusUnauthorized, "authentication required")
		return
	}
	if actor != userID {
		respond.WriteError(w, http.StatusForbidden, "cannot stream another user's updates")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}

	ch, cancel := h.bus.Subscribe(userID)
	defer cancel()

	done := make(chan struct{})
	go h.readLoop(conn, done)
	h.writeLoop(conn, ch, done)
}

// readLoop discards client frames; its job is detecting the close handshake
// and keeping pong handling alive.
func (h *UpdatesHandler) readLoop(conn *websocket.Conn, done chan<- struct{}) {
	defer close(done)
	conn.SetReadLimit(512)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *UpdatesHandler) writeLoop(conn *websocket.Conn, ch <-chan events.Event, done <-chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = conn.Close()
	}()
	for {
		select {
		case evt, ok := <-ch:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
				return
			}
			if err := conn.WriteJSON(evt); err != nil {
				return
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}
