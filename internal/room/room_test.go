package room

import (
	"encoding/json"
	"testing"

	"github.com/lukev/we_server/internal/game"
)

func newTestRoom() *Room {
	g := game.NewGame("g1", "secret-host-token", 0)
	return New(g, nil, json.Marshal)
}

func seatUpAndStart(t *testing.T, r *Room, names ...string) []string {
	t.Helper()
	ids := make([]string, len(names))
	for i, name := range names {
		id, err := r.Join(name)
		if err != nil {
			t.Fatalf("join %s: %v", name, err)
		}
		ids[i] = id
		if _, err := r.SubmitGift(id, "http://example/"+name, "hint-"+name, "", ""); err != nil {
			t.Fatalf("submit gift for %s: %v", name, err)
		}
	}
	seed := uint64(42)
	if err := r.Start("secret-host-token", StartOptions{Seed: &seed}); err != nil {
		t.Fatalf("start: %v", err)
	}
	return ids
}

func TestRoom_JoinRejectsDuplicateName(t *testing.T) {
	r := newTestRoom()
	if _, err := r.Join("Alice"); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if _, err := r.Join("Alice"); err == nil {
		t.Fatalf("expected conflict on duplicate name")
	} else if _, ok := err.(*ConflictError); !ok {
		t.Fatalf("expected ConflictError, got %T", err)
	}
}

func TestRoom_SubmitGiftUpserts(t *testing.T) {
	r := newTestRoom()
	id, _ := r.Join("Alice")

	first, err := r.SubmitGift(id, "http://a", "hint-a", "", "")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := r.SubmitGift(id, "http://b", "hint-b", "img", "title")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if second.ID != first.ID {
		t.Fatalf("expected upsert to preserve gift id: %s vs %s", first.ID, second.ID)
	}
	if second.ProductURL != "http://b" || second.Hint != "hint-b" {
		t.Fatalf("unexpected upserted gift: %+v", second)
	}
}

func TestRoom_StartRequiresAllGiftsSubmitted(t *testing.T) {
	r := newTestRoom()
	r.Join("Alice")
	if _, err := r.Join("Bob"); err != nil {
		t.Fatalf("join: %v", err)
	}

	err := r.Start("secret-host-token", StartOptions{})
	if err == nil {
		t.Fatalf("expected start to fail without all gifts submitted")
	}
}

func TestRoom_StartRejectsWrongHostToken(t *testing.T) {
	r := newTestRoom()
	err := r.Start("wrong-token", StartOptions{})
	if _, ok := err.(*UnauthorizedError); !ok {
		t.Fatalf("expected UnauthorizedError, got %T (%v)", err, err)
	}
}

func TestRoom_SeededStartIsReproducible(t *testing.T) {
	r1 := newTestRoom()
	ids1 := seatUpAndStart(t, r1, "Alice", "Bob", "Carol")
	order1 := r1.View().TurnOrder

	g2 := game.NewGame("g2", "secret-host-token", 0)
	r2 := New(g2, nil, json.Marshal)
	for i, name := range []string{"Alice", "Bob", "Carol"} {
		id, err := r2.Join(name)
		if err != nil {
			t.Fatalf("join: %v", err)
		}
		if id != ids1[i] {
			// player ids are minted uuids and will differ between rooms;
			// what must match is the *position* each name lands in.
		}
		if _, err := r2.SubmitGift(id, "http://example/"+name, "hint-"+name, "", ""); err != nil {
			t.Fatalf("submit gift: %v", err)
		}
	}
	seed := uint64(42)
	if err := r2.Start("secret-host-token", StartOptions{Seed: &seed}); err != nil {
		t.Fatalf("start: %v", err)
	}
	order2 := r2.View().TurnOrder

	nameForID1 := map[string]string{ids1[0]: "Alice", ids1[1]: "Bob", ids1[2]: "Carol"}
	view2 := r2.View()
	nameForID2 := map[string]string{}
	for _, p := range view2.Players {
		nameForID2[p.ID] = p.Name
	}

	namesOrder1 := namesFromOrder(order1, nameForID1)
	namesOrder2 := namesFromOrder(order2, nameForID2)

	if len(namesOrder1) != len(namesOrder2) {
		t.Fatalf("order length mismatch: %v vs %v", namesOrder1, namesOrder2)
	}
	for i := range namesOrder1 {
		if namesOrder1[i] != namesOrder2[i] {
			t.Fatalf("same seed produced different turn order by name: %v vs %v", namesOrder1, namesOrder2)
		}
	}
}

func namesFromOrder(order []string, nameFor map[string]string) []string {
	out := make([]string, len(order))
	for i, id := range order {
		out[i] = nameFor[id]
	}
	return out
}

func TestRoom_SubmitActionBroadcastsStateThenEvents(t *testing.T) {
	r := newTestRoom()
	ids := seatUpAndStart(t, r, "Alice", "Bob", "Carol")

	view, stream, cancel := r.Subscribe()
	defer cancel()
	if view.Phase != game.PhaseInProgress {
		t.Fatalf("expected in_progress phase on subscribe, got %s", view.Phase)
	}

	active := view.ActivePlayer
	giftID := ""
	for _, g := range view.Gifts {
		giftID = g.ID
		break
	}
	_ = ids

	if err := r.SubmitAction(active, game.PlayerAction{Type: game.ActionChooseGift, GiftID: giftID}); err != nil {
		t.Fatalf("submit action: %v", err)
	}

	msg1 := <-stream
	var env1 struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(msg1, &env1); err != nil || env1.Type != "state" {
		t.Fatalf("expected first broadcast message to be state, got %s (err=%v)", msg1, err)
	}

	msg2 := <-stream
	var env2 struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(msg2, &env2); err != nil || env2.Type != "event" {
		t.Fatalf("expected second broadcast message to be an event, got %s (err=%v)", msg2, err)
	}
}
