package game

import "testing"

func threePlayerGame() *Game {
	g := NewGame("g1", "host-token", 1000)
	g.Players = []*Player{
		{ID: "p1", Name: "Alice"},
		{ID: "p2", Name: "Bob"},
		{ID: "p3", Name: "Carol"},
	}
	g.Gifts = map[string]*Gift{
		"g1": {ID: "g1", SubmittedBy: "p1", ProductURL: "http://a", Hint: "a", State: GiftUnopened},
		"g2": {ID: "g2", SubmittedBy: "p2", ProductURL: "http://b", Hint: "b", State: GiftUnopened},
		"g3": {ID: "g3", SubmittedBy: "p3", ProductURL: "http://c", Hint: "c", State: GiftUnopened},
	}
	g.TurnOrder = []string{"p1", "p2", "p3"}
	g.CurrentTurn = 0
	g.ActivePlayer = "p1"
	g.Phase = PhaseInProgress
	return g
}

// stealReadyGame is threePlayerGame with g1 held by p1, g2 held by p2,
// current_turn=1 and p2 active: the starting state of the steal scenarios.
func stealReadyGame() *Game {
	g := threePlayerGame()
	for _, id := range []string{"g1", "g2"} {
		gift := g.Gifts[id]
		gift.State = GiftOpened
		gift.OpenedBy = gift.SubmittedBy
		gift.HeldBy = gift.SubmittedBy
	}
	g.CurrentTurn = 1
	g.ActivePlayer = "p2"
	return g
}

func TestChooseGift_HappyOpenAndAdvance(t *testing.T) {
	g := threePlayerGame()

	events, err := Apply(g, PlayerAction{Type: ActionChooseGift, Actor: "p1", GiftID: "g1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 2 || events[0].Type != EventGiftOpened || events[1].Type != EventTurnChanged {
		t.Fatalf("unexpected events: %+v", events)
	}
	if events[1].PlayerID != "p2" {
		t.Fatalf("expected turn_changed to p2, got %+v", events[1])
	}

	gift := g.Gifts["g1"]
	if gift.State != GiftOpened || gift.HeldBy != "p1" || gift.OpenedBy != "p1" {
		t.Fatalf("unexpected gift state: %+v", gift)
	}
	if g.CurrentTurn != 1 || g.ActivePlayer != "p2" {
		t.Fatalf("unexpected turn state: current=%d active=%s", g.CurrentTurn, g.ActivePlayer)
	}
}

func TestStealGift_ForcesVictim(t *testing.T) {
	g := stealReadyGame()

	events, err := Apply(g, PlayerAction{Type: ActionStealGift, Actor: "p2", GiftID: "g1"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(events) != 2 || events[0].Type != EventGiftStolen || events[1].Type != EventTurnChanged {
		t.Fatalf("unexpected events: %+v", events)
	}
	if events[0].From != "p1" || events[0].To != "p2" || events[0].GiftID != "g1" {
		t.Fatalf("unexpected steal event: %+v", events[0])
	}
	if events[1].PlayerID != "p1" {
		t.Fatalf("expected turn_changed to p1, got %+v", events[1])
	}

	gift := g.Gifts["g1"]
	if gift.HeldBy != "p2" || gift.StolenCount != 1 {
		t.Fatalf("unexpected gift state: %+v", gift)
	}
	if g.CurrentTurn != 1 || g.ActivePlayer != "p1" {
		t.Fatalf("unexpected turn state: current=%d active=%s", g.CurrentTurn, g.ActivePlayer)
	}
}

func TestStealGift_ImmediateStealBackRejected(t *testing.T) {
	g := stealReadyGame()
	mustApply(t, g, PlayerAction{Type: ActionStealGift, Actor: "p2", GiftID: "g1"})

	before := g.Clone()

	_, err := Apply(g, PlayerAction{Type: ActionStealGift, Actor: "p1", GiftID: "g1"})
	if err == nil {
		t.Fatalf("expected StealBackNotAllowedError")
	}
	if _, ok := err.(*StealBackNotAllowedError); !ok {
		t.Fatalf("expected StealBackNotAllowedError, got %T (%v)", err, err)
	}
	assertGameEqual(t, before, g)
}

func TestChainResumesWithNextInOrder(t *testing.T) {
	g := stealReadyGame()
	mustApply(t, g, PlayerAction{Type: ActionStealGift, Actor: "p2", GiftID: "g1"})

	events, err := Apply(g, PlayerAction{Type: ActionChooseGift, Actor: "p1", GiftID: "g3"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if g.CurrentTurn != 2 || g.ActivePlayer != "p3" {
		t.Fatalf("unexpected turn state: current=%d active=%s", g.CurrentTurn, g.ActivePlayer)
	}
	last := events[len(events)-1]
	if last.Type != EventTurnChanged || last.PlayerID != "p3" {
		t.Fatalf("expected final event turn_changed to p3, got %+v", last)
	}
}

func TestStealLimitReached(t *testing.T) {
	g := threePlayerGame()
	g.Gifts["g1"].State = GiftOpened
	g.Gifts["g1"].OpenedBy = "p1"
	g.Gifts["g1"].HeldBy = "p1"
	g.Gifts["g1"].StolenCount = MaxSteals
	g.CurrentTurn = 1
	g.ActivePlayer = "p2"

	_, err := Apply(g, PlayerAction{Type: ActionStealGift, Actor: "p2", GiftID: "g1"})
	if _, ok := err.(*StealLimitReachedError); !ok {
		t.Fatalf("expected StealLimitReachedError, got %T (%v)", err, err)
	}
}

func TestCompletion(t *testing.T) {
	g := threePlayerGame()
	mustApply(t, g, PlayerAction{Type: ActionChooseGift, Actor: "p1", GiftID: "g1"})
	mustApply(t, g, PlayerAction{Type: ActionChooseGift, Actor: "p2", GiftID: "g2"})
	events := mustApply(t, g, PlayerAction{Type: ActionChooseGift, Actor: "p3", GiftID: "g3"})

	if g.Phase != PhaseFinished {
		t.Fatalf("expected phase finished, got %s", g.Phase)
	}
	last := events[len(events)-1]
	if last.Type != EventGameFinished {
		t.Fatalf("expected final event game_finished, got %+v", last)
	}

	_, err := Apply(g, PlayerAction{Type: ActionChooseGift, Actor: "p3", GiftID: "g1"})
	if _, ok := err.(*WrongPhaseError); !ok {
		t.Fatalf("expected WrongPhaseError once finished, got %T (%v)", err, err)
	}
}

func TestFailedActionLeavesStateUnchanged(t *testing.T) {
	g := threePlayerGame()
	before := g.Clone()

	_, err := Apply(g, PlayerAction{Type: ActionChooseGift, Actor: "p2", GiftID: "g1"})
	if _, ok := err.(*NotPlayersTurnError); !ok {
		t.Fatalf("expected NotPlayersTurnError, got %T (%v)", err, err)
	}
	assertGameEqual(t, before, g)

	_, err = Apply(g, PlayerAction{Type: ActionChooseGift, Actor: "p1", GiftID: "nope"})
	if _, ok := err.(*GiftNotFoundError); !ok {
		t.Fatalf("expected GiftNotFoundError, got %T (%v)", err, err)
	}
	assertGameEqual(t, before, g)
}

func mustApply(t *testing.T, g *Game, a PlayerAction) []Event {
	t.Helper()
	events, err := Apply(g, a)
	if err != nil {
		t.Fatalf("unexpected error applying %+v: %v", a, err)
	}
	return events
}

func assertGameEqual(t *testing.T, want, got *Game) {
	t.Helper()
	if want.Phase != got.Phase || want.CurrentTurn != got.CurrentTurn || want.ActivePlayer != got.ActivePlayer {
		t.Fatalf("game state diverged: want phase=%s turn=%d active=%s, got phase=%s turn=%d active=%s",
			want.Phase, want.CurrentTurn, want.ActivePlayer, got.Phase, got.CurrentTurn, got.ActivePlayer)
	}
	if len(want.History) != len(got.History) {
		t.Fatalf("history length diverged: want %d, got %d", len(want.History), len(got.History))
	}
	for id, wg := range want.Gifts {
		gg := got.Gifts[id]
		if gg == nil || *wg != *gg {
			t.Fatalf("gift %s diverged: want %+v, got %+v", id, wg, gg)
		}
	}
}
