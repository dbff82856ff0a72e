package game

// Apply validates and applies a single PlayerAction against game,
// mutating it in place and returning the events emitted in order. It is
// total and deterministic: every reachable precondition failure returns
// a typed error and leaves game untouched.
//
// Because every check runs before any mutation, callers such as the Room
// layer apply actions directly to their authoritative Game; a failed
// Apply leaves it as it was.
func Apply(g *Game, action PlayerAction) ([]Event, error) {
	if g.Phase != PhaseInProgress {
		return nil, &WrongPhaseError{Want: PhaseInProgress, Have: g.Phase}
	}
	if action.Actor != g.ActivePlayer {
		return nil, &NotPlayersTurnError{Actor: action.Actor, ActivePlayer: g.ActivePlayer}
	}

	var events []Event
	var err error

	switch action.Type {
	case ActionChooseGift:
		events, err = applyChooseGift(g, action.Actor, action.GiftID)
	case ActionStealGift:
		events, err = applyStealGift(g, action.Actor, action.GiftID)
	default:
		return nil, &InvalidActionError{Reason: "unknown action type: " + string(action.Type)}
	}
	if err != nil {
		return nil, err
	}

	if fin := checkCompletion(g); fin != nil {
		events = append(events, *fin)
	}

	g.History = append(g.History, events...)
	return events, nil
}

func applyChooseGift(g *Game, actor, giftID string) ([]Event, error) {
	gift, ok := g.Gifts[giftID]
	if !ok {
		return nil, &GiftNotFoundError{GiftID: giftID}
	}
	if gift.State != GiftUnopened {
		return nil, &GiftAlreadyOpenedError{GiftID: giftID}
	}

	gift.State = GiftOpened
	gift.OpenedBy = actor
	gift.HeldBy = actor

	events := []Event{{Type: EventGiftOpened, PlayerID: actor, GiftID: giftID}}

	g.CurrentTurn++
	if g.CurrentTurn < len(g.TurnOrder) {
		next := g.TurnOrder[g.CurrentTurn]
		g.ActivePlayer = next
		events = append(events, Event{Type: EventTurnChanged, PlayerID: next})
	} else {
		g.ActivePlayer = ""
	}

	return events, nil
}

func applyStealGift(g *Game, actor, giftID string) ([]Event, error) {
	gift, ok := g.Gifts[giftID]
	if !ok {
		return nil, &GiftNotFoundError{GiftID: giftID}
	}
	if gift.State != GiftOpened {
		return nil, &GiftUnopenedError{GiftID: giftID}
	}
	if gift.HeldBy == "" {
		return nil, &InvalidActionError{Reason: "opened gift has no holder: " + giftID}
	}
	if gift.HeldBy == actor {
		return nil, &CannotStealOwnGiftError{GiftID: giftID, Actor: actor}
	}
	if gift.StolenCount >= MaxSteals {
		return nil, &StealLimitReachedError{GiftID: giftID}
	}

	// The previous action's own event is the latest History entry that is
	// not a turn_changed (every steal is followed by one).
	for i := len(g.History) - 1; i >= 0; i-- {
		last := g.History[i]
		if last.Type == EventTurnChanged {
			continue
		}
		if last.Type == EventGiftStolen && last.From == actor && last.To == gift.HeldBy {
			return nil, &StealBackNotAllowedError{GiftID: giftID, Actor: actor}
		}
		break
	}

	previousHolder := gift.HeldBy
	gift.StolenCount++
	gift.HeldBy = actor

	events := []Event{{Type: EventGiftStolen, From: previousHolder, To: actor, GiftID: giftID}}

	g.ActivePlayer = previousHolder
	events = append(events, Event{Type: EventTurnChanged, PlayerID: previousHolder})

	return events, nil
}

// checkCompletion returns a non-nil game_finished event (and flips
// g.Phase) iff every gift is opened and every player holds exactly one.
func checkCompletion(g *Game) *Event {
	if len(g.Gifts) == 0 {
		return nil
	}
	holders := make(map[string]int, len(g.Players))
	for _, gift := range g.Gifts {
		if gift.State != GiftOpened {
			return nil
		}
		holders[gift.HeldBy]++
	}
	for _, p := range g.Players {
		if holders[p.ID] != 1 {
			return nil
		}
	}

	g.Phase = PhaseFinished
	return &Event{Type: EventGameFinished}
}
