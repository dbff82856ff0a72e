// Package room serializes access to one gift-exchange Game and fans its
// state and events out to subscribers. It is the concurrency boundary
// the rest of the server is built around: every mutation, whether from
// an admin HTTP handler or a websocket action, takes the Room's lock.
package room

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/lukev/we_server/internal/game"
)

// broadcastCap bounds each subscriber's channel. While a subscriber's
// channel is full, sends to it are dropped rather than blocking the room;
// the subscriber stays registered and receives later sends once it has
// drained.
const broadcastCap = 32

// Snapshotter is the subset of the snapshot store a Room depends on. It
// is asked, never awaited: Persist must not block submit_action.
type Snapshotter interface {
	Persist()
}

type subscriber struct {
	ch chan []byte
}

// Room owns one Game's authoritative state plus its broadcast fan-out.
type Room struct {
	mu   sync.Mutex
	game *game.Game

	snapshot Snapshotter

	subsMu sync.Mutex
	subs   map[*subscriber]struct{}

	encode func(v any) ([]byte, error)
}

// New wraps g in a Room. snap may be nil (no durability configured).
func New(g *game.Game, snap Snapshotter, encode func(v any) ([]byte, error)) *Room {
	return &Room{
		game:     g,
		snapshot: snap,
		subs:     make(map[*subscriber]struct{}),
		encode:   encode,
	}
}

// ID returns the wrapped game's id.
func (r *Room) ID() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.game.ID
}

// View returns a snapshot of the current GameView under the room lock.
func (r *Room) View() game.GameView {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.game.View()
}

// HostToken returns the game's host token, for auth checks in the admin
// API. It never appears in GameView or any broadcast message.
func (r *Room) HostToken() string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.game.HostToken
}

// Subscribe atomically captures the current GameView and registers a new
// subscriber. The returned channel delivers subsequent broadcasts (one
// "state" message then one per emitted event, per action) in order.
// Callers must eventually call the returned cancel func.
func (r *Room) Subscribe() (game.GameView, <-chan []byte, func()) {
	r.mu.Lock()
	view := r.game.View()
	sub := &subscriber{ch: make(chan []byte, broadcastCap)}
	r.subsMu.Lock()
	r.subs[sub] = struct{}{}
	r.subsMu.Unlock()
	r.mu.Unlock()

	cancel := func() {
		r.subsMu.Lock()
		if _, ok := r.subs[sub]; ok {
			delete(r.subs, sub)
			close(sub.ch)
		}
		r.subsMu.Unlock()
	}
	return view, sub.ch, cancel
}

// publish fans message out to every current subscriber. A slow
// subscriber at capacity has the send dropped rather than blocking the
// room's mutator lock.
func (r *Room) publish(message []byte) {
	r.subsMu.Lock()
	defer r.subsMu.Unlock()
	for sub := range r.subs {
		select {
		case sub.ch <- message:
		default:
		}
	}
}

// stateMessage wraps a GameView with its "state" type discriminator.
type stateMessage struct {
	Type string `json:"type"`
	game.GameView
}

// eventMessage wraps an Event with its "event" type discriminator,
// spread alongside the event's own tagged-variant payload (e.g.
// {"type":"event","gift_opened":{"player_id":"p1","gift_id":"g1"}}).
// Event is kept as a named field rather than embedded: embedding would
// promote Event's own MarshalJSON onto eventMessage and swallow Type,
// so the two are merged explicitly instead.
type eventMessage struct {
	Type  string
	Event game.Event
}

func (m eventMessage) MarshalJSON() ([]byte, error) {
	eventJSON, err := json.Marshal(m.Event)
	if err != nil {
		return nil, err
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(eventJSON, &fields); err != nil {
		return nil, err
	}
	fields["type"], err = json.Marshal(m.Type)
	if err != nil {
		return nil, err
	}
	return json.Marshal(fields)
}

func (r *Room) broadcastStateAndEvents(events []game.Event) {
	view := r.game.View()
	if msg, err := r.encode(stateMessage{Type: "state", GameView: view}); err == nil {
		r.publish(msg)
	}
	for _, ev := range events {
		if msg, err := r.encode(eventMessage{Type: "event", Event: ev}); err == nil {
			r.publish(msg)
		}
	}
}

func (r *Room) requestPersist() {
	if r.snapshot != nil {
		r.snapshot.Persist()
	}
}

// SubmitAction serializes action against the room's game, runs it
// through the rules engine, and on success broadcasts the resulting
// state and events before requesting a snapshot. On failure the game is
// left byte-identical and nothing is broadcast.
func (r *Room) SubmitAction(playerID string, action game.PlayerAction) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.game.Phase != game.PhaseInProgress {
		return &game.WrongPhaseError{Want: game.PhaseInProgress, Have: r.game.Phase}
	}
	if r.game.PlayerByID(playerID) == nil {
		return &game.PlayerNotFoundError{PlayerID: playerID}
	}
	action.Actor = playerID

	events, err := game.Apply(r.game, action)
	if err != nil {
		return err
	}

	r.game.Revision++
	r.broadcastStateAndEvents(events)
	r.requestPersist()
	return nil
}

// Join appends a new player with the given trimmed, unique name. Returns
// the minted player id.
func (r *Room) Join(name string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if name == "" {
		return "", &game.InvalidActionError{Reason: "empty name"}
	}
	if r.game.PlayerByName(name) != nil {
		return "", &ConflictError{Reason: "duplicate player name: " + name}
	}

	id := uuid.NewString()
	r.game.Players = append(r.game.Players, &game.Player{ID: id, Name: name})
	r.game.Revision++
	r.requestPersist()
	return id, nil
}

// SubmitGift upserts playerID's gift: overwrites mutable fields of an
// existing submission in place, or creates a new one.
func (r *Room) SubmitGift(playerID, productURL, hint, imageURL, title string) (*game.Gift, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.game.Phase != game.PhaseSubmissions {
		return nil, &game.WrongPhaseError{Want: game.PhaseSubmissions, Have: r.game.Phase}
	}
	if r.game.PlayerByID(playerID) == nil {
		return nil, &game.PlayerNotFoundError{PlayerID: playerID}
	}
	if productURL == "" || hint == "" {
		return nil, &game.InvalidActionError{Reason: "product_url and hint are required"}
	}

	if existing := r.game.GiftByOwner(playerID); existing != nil {
		existing.ProductURL = productURL
		existing.Hint = hint
		existing.ImageURL = imageURL
		existing.Title = title
		r.game.Revision++
		r.requestPersist()
		cp := *existing
		return &cp, nil
	}

	gift := &game.Gift{
		ID:          uuid.NewString(),
		SubmittedBy: playerID,
		ProductURL:  productURL,
		Hint:        hint,
		ImageURL:    imageURL,
		Title:       title,
		State:       game.GiftUnopened,
	}
	r.game.Gifts[gift.ID] = gift
	r.game.Revision++
	r.requestPersist()
	cp := *gift
	return &cp, nil
}

// StartOptions controls Start's turn-order shuffle.
type StartOptions struct {
	// Seed, if non-nil, pins the Fisher-Yates shuffle for reproducible
	// turn order across runs and implementations.
	Seed *uint64
}

// Start runs the host-gated start algorithm of §4.2: validates
// preconditions, shuffles turn order, resets gifts, and transitions the
// game into PhaseInProgress.
func (r *Room) Start(hostToken string, opts StartOptions) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if hostToken != r.game.HostToken {
		return &UnauthorizedError{Reason: "host token mismatch"}
	}
	if r.game.Phase != game.PhaseSubmissions {
		return &game.WrongPhaseError{Want: game.PhaseSubmissions, Have: r.game.Phase}
	}
	if len(r.game.Players) == 0 {
		return &game.InvalidActionError{Reason: "no players"}
	}
	for _, p := range r.game.Players {
		if r.game.GiftByOwner(p.ID) == nil {
			return &game.InvalidActionError{Reason: "player has not submitted a gift: " + p.ID}
		}
	}

	ids := make([]string, len(r.game.Players))
	for i, p := range r.game.Players {
		ids[i] = p.ID
	}
	shuffle(ids, opts.Seed)

	for _, gift := range r.game.Gifts {
		gift.State = game.GiftUnopened
		gift.OpenedBy = ""
		gift.HeldBy = ""
		gift.StolenCount = 0
	}

	r.game.Phase = game.PhaseInProgress
	r.game.TurnOrder = ids
	r.game.CurrentTurn = 0
	r.game.ActivePlayer = ids[0]
	r.game.History = nil
	r.game.Revision++

	r.broadcastStateAndEvents(nil)
	r.requestPersist()
	return nil
}

// Record returns a deep copy of the underlying game, for the Snapshot
// Store to serialize under a brief lock.
func (r *Room) Record() *game.Game {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.game.Clone()
}
