package wsapi

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Handler upgrades GET /ws/:id/:player_id requests and hands them to a
// new Session.
type Handler struct {
	registry Registry
	log      zerolog.Logger
}

// NewHandler returns a Handler backed by registry.
func NewHandler(registry Registry, logger zerolog.Logger) *Handler {
	return &Handler{registry: registry, log: logger}
}

// RegisterRoutes wires the websocket endpoint onto router.
func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/ws/{id}/{player_id}", h.serveHTTP)
}

func (h *Handler) serveHTTP(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	gameID := vars["id"]
	playerID := vars["player_id"]

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.log.Error().Err(err).Msg("websocket upgrade failed")
		return
	}

	Serve(conn, h.registry, gameID, playerID, h.log)
}
