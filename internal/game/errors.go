package game

import "fmt"

// WrongPhaseError is returned when an action or submission targets a
// Game that is not in the phase it requires.
type WrongPhaseError struct {
	Want Phase
	Have Phase
}

func (e *WrongPhaseError) Error() string {
	return fmt.Sprintf("wrong phase: want %s, have %s", e.Want, e.Have)
}

// NotPlayersTurnError is returned when the actor is not the game's
// current active player.
type NotPlayersTurnError struct {
	Actor        string
	ActivePlayer string
}

func (e *NotPlayersTurnError) Error() string {
	return fmt.Sprintf("not player's turn: actor %s, active player %s", e.Actor, e.ActivePlayer)
}

// GiftNotFoundError is returned when an action references an unknown
// gift id.
type GiftNotFoundError struct {
	GiftID string
}

func (e *GiftNotFoundError) Error() string {
	return fmt.Sprintf("gift not found: %s", e.GiftID)
}

// GiftAlreadyOpenedError is returned by ChooseGift on a gift that is
// already opened.
type GiftAlreadyOpenedError struct {
	GiftID string
}

func (e *GiftAlreadyOpenedError) Error() string {
	return fmt.Sprintf("gift already opened: %s", e.GiftID)
}

// GiftUnopenedError is returned by StealGift on a gift that has not
// been opened yet.
type GiftUnopenedError struct {
	GiftID string
}

func (e *GiftUnopenedError) Error() string {
	return fmt.Sprintf("gift unopened: %s", e.GiftID)
}

// CannotStealOwnGiftError is returned when the actor already holds the
// gift they attempted to steal.
type CannotStealOwnGiftError struct {
	GiftID string
	Actor  string
}

func (e *CannotStealOwnGiftError) Error() string {
	return fmt.Sprintf("cannot steal own gift: %s held by %s", e.GiftID, e.Actor)
}

// StealLimitReachedError is returned when a gift has already changed
// hands MaxSteals times.
type StealLimitReachedError struct {
	GiftID string
}

func (e *StealLimitReachedError) Error() string {
	return fmt.Sprintf("steal limit reached: %s", e.GiftID)
}

// StealBackNotAllowedError is returned when the immediately preceding
// action was the target gift's current holder stealing a gift (any gift)
// from the current actor.
type StealBackNotAllowedError struct {
	GiftID string
	Actor  string
}

func (e *StealBackNotAllowedError) Error() string {
	return fmt.Sprintf("steal back not allowed: %s by %s", e.GiftID, e.Actor)
}

// InvalidActionError covers malformed actions that do not fit a more
// specific rules error (e.g. an opened gift with no holder, which the
// invariants in §3 guarantee cannot otherwise happen).
type InvalidActionError struct {
	Reason string
}

func (e *InvalidActionError) Error() string {
	return fmt.Sprintf("invalid action: %s", e.Reason)
}

// PlayerNotFoundError is returned when a player id is not a member of
// the game.
type PlayerNotFoundError struct {
	PlayerID string
}

func (e *PlayerNotFoundError) Error() string {
	return fmt.Sprintf("player not found: %s", e.PlayerID)
}

// GameNotFoundError describes a game id that does not resolve to a live
// room. Registry.Get reports a miss with a false boolean and does not
// return this type.
type GameNotFoundError struct {
	GameID string
}

func (e *GameNotFoundError) Error() string {
	return fmt.Sprintf("game not found: %s", e.GameID)
}
