// Package wsapi implements one duplex websocket Session per connected
// player: it validates identity, delivers an initial state snapshot,
// and pumps subsequent broadcasts and inbound actions.
package wsapi

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/lukev/we_server/internal/game"
	"github.com/lukev/we_server/internal/room"
	"github.com/rs/zerolog"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024
)

// Registry is the subset of room.Registry a Session depends on.
type Registry interface {
	Get(id string) (*room.Room, bool)
}

// Session is one live (game_id, player_id) connection.
type Session struct {
	conn     *websocket.Conn
	gameID   string
	playerID string
	log      zerolog.Logger
}

// Serve validates that gameID/playerID identify a live room membership,
// then runs the session to completion. It never returns until the
// connection is closed.
func Serve(conn *websocket.Conn, registry Registry, gameID, playerID string, logger zerolog.Logger) {
	defer conn.Close()

	r, ok := registry.Get(gameID)
	if !ok {
		sendErrorFrame(conn, "game not found")
		return
	}
	view := r.View()
	member := false
	for _, p := range view.Players {
		if p.ID == playerID {
			member = true
			break
		}
	}
	if !member {
		sendErrorFrame(conn, "player not found in game")
		return
	}

	s := &Session{conn: conn, gameID: gameID, playerID: playerID, log: logger}

	initialView, stream, cancel := r.Subscribe()
	defer cancel()

	if err := s.sendJSON(stateEnvelope{Type: "state", GameView: initialView}); err != nil {
		return
	}

	done := make(chan struct{})
	go s.outwardPump(stream, done)
	s.inwardPump(r, done)
}

type stateEnvelope struct {
	Type string `json:"type"`
	game.GameView
}

type inboundEnvelope struct {
	Type   string          `json:"type"`
	Action json.RawMessage `json:"action"`
}

func (s *Session) inwardPump(r *room.Room, done chan struct{}) {
	defer close(done)
	s.conn.SetReadLimit(maxMessageSize)
	s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, message, err := s.conn.ReadMessage()
		if err != nil {
			return
		}

		var env inboundEnvelope
		if err := json.Unmarshal(message, &env); err != nil || env.Type != "action" {
			s.sendError("error: malformed message")
			continue
		}

		var action game.PlayerAction
		if err := json.Unmarshal(env.Action, &action); err != nil {
			s.sendError("error: malformed action")
			continue
		}

		if err := r.SubmitAction(s.playerID, action); err != nil {
			s.log.Debug().Err(err).Str("game_id", s.gameID).Str("player_id", s.playerID).Msg("action rejected")
			s.sendError("error: " + err.Error())
		}
	}
}

func (s *Session) outwardPump(stream <-chan []byte, done chan struct{}) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case message, ok := <-stream:
			if !ok {
				return
			}
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		case <-done:
			return
		}
	}
}

func (s *Session) sendJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

func (s *Session) sendError(text string) {
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	s.conn.WriteMessage(websocket.TextMessage, []byte(text))
}

func sendErrorFrame(conn *websocket.Conn, text string) {
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	conn.WriteMessage(websocket.TextMessage, []byte("error: "+text))
}
