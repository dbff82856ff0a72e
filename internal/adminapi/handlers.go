// Package adminapi implements the stateless HTTP admin operations:
// create/join/submit-gift/start/read-lobby, each gated by the identity
// and phase checks the Room layer enforces.
package adminapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/lukev/we_server/internal/game"
	"github.com/lukev/we_server/internal/room"
	"github.com/rs/zerolog"
)

// Registry is the subset of room.Registry the admin API depends on.
type Registry interface {
	Create() *room.Room
	Get(id string) (*room.Room, bool)
}

// Handler serves the admin HTTP surface.
type Handler struct {
	registry      Registry
	adminPassword string
	log           zerolog.Logger
}

// NewHandler returns a Handler backed by registry, gated by
// adminPassword on the create-game endpoint.
func NewHandler(registry Registry, adminPassword string, logger zerolog.Logger) *Handler {
	return &Handler{registry: registry, adminPassword: adminPassword, log: logger}
}

// RegisterRoutes wires every admin endpoint onto router.
func (h *Handler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/game", h.handleCreateGame).Methods(http.MethodPost)
	router.HandleFunc("/game/{id}/join", h.handleJoin).Methods(http.MethodPost)
	router.HandleFunc("/game/{id}/gift", h.handleSubmitGift).Methods(http.MethodPost)
	router.HandleFunc("/game/{id}/start", h.handleStart).Methods(http.MethodPost)
	router.HandleFunc("/game/{id}", h.handleGetGame).Methods(http.MethodGet)
	router.HandleFunc("/game/{id}/players/{player_id}", h.handleGetPlayerGift).Methods(http.MethodGet)
}

func (h *Handler) handleCreateGame(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("X-Admin-Password") != h.adminPassword {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	rm := h.registry.Create()
	view := rm.View()
	writeJSON(w, http.StatusCreated, map[string]string{
		"game_id":    view.ID,
		"host_token": rm.HostToken(),
	})
}

func (h *Handler) handleJoin(w http.ResponseWriter, r *http.Request) {
	rm, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var req struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	playerID, err := rm.Join(strings.TrimSpace(req.Name))
	if err != nil {
		h.log.Warn().Str("game_id", mux.Vars(r)["id"]).Err(err).Msg("join rejected")
		writeRoomError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"player_id": playerID})
}

func (h *Handler) handleSubmitGift(w http.ResponseWriter, r *http.Request) {
	rm, ok := h.lookup(w, r)
	if !ok {
		return
	}

	var req struct {
		PlayerID   string `json:"player_id"`
		ProductURL string `json:"product_url"`
		Hint       string `json:"hint"`
		ImageURL   string `json:"image_url,omitempty"`
		Title      string `json:"title,omitempty"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	gift, err := rm.SubmitGift(req.PlayerID, req.ProductURL, req.Hint, req.ImageURL, req.Title)
	if err != nil {
		writeRoomError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"gift": gift})
}

func (h *Handler) handleStart(w http.ResponseWriter, r *http.Request) {
	rm, ok := h.lookup(w, r)
	if !ok {
		return
	}

	hostToken := r.Header.Get("X-Host-Token")

	opts := room.StartOptions{}
	if raw := r.URL.Query().Get("seed"); raw != "" {
		seed, err := strconv.ParseUint(raw, 10, 64)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid seed")
			return
		}
		opts.Seed = &seed
	}

	if err := rm.Start(hostToken, opts); err != nil {
		h.log.Warn().Str("game_id", mux.Vars(r)["id"]).Err(err).Msg("start rejected")
		writeRoomError(w, err)
		return
	}

	view := rm.View()
	writeJSON(w, http.StatusOK, map[string]any{
		"phase":         view.Phase,
		"turn_order":    view.TurnOrder,
		"active_player": view.ActivePlayer,
	})
}

func (h *Handler) handleGetGame(w http.ResponseWriter, r *http.Request) {
	rm, ok := h.lookup(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, rm.View())
}

func (h *Handler) handleGetPlayerGift(w http.ResponseWriter, r *http.Request) {
	rm, ok := h.lookup(w, r)
	if !ok {
		return
	}
	playerID := mux.Vars(r)["player_id"]

	view := rm.View()
	for _, g := range view.Gifts {
		if g.SubmittedBy == playerID {
			writeJSON(w, http.StatusOK, map[string]any{"gift": g})
			return
		}
	}
	writeError(w, http.StatusNotFound, "gift not found")
}

func (h *Handler) lookup(w http.ResponseWriter, r *http.Request) (*room.Room, bool) {
	id := mux.Vars(r)["id"]
	rm, ok := h.registry.Get(id)
	if !ok {
		writeError(w, http.StatusNotFound, "game not found")
		return nil, false
	}
	return rm, true
}

func writeRoomError(w http.ResponseWriter, err error) {
	switch err.(type) {
	case *room.UnauthorizedError:
		writeError(w, http.StatusUnauthorized, err.Error())
	case *room.ConflictError:
		writeError(w, http.StatusConflict, err.Error())
	case *game.WrongPhaseError:
		writeError(w, http.StatusConflict, err.Error())
	case *game.PlayerNotFoundError, *game.GameNotFoundError:
		writeError(w, http.StatusNotFound, err.Error())
	case *game.InvalidActionError:
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusBadRequest, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
