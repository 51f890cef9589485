package engine

import "errors"

// Rule errors. Engine calls wrap these with context via fmt.Errorf("%w: ...");
// callers match them with errors.Is.
var (
	ErrInvalidCard       = errors.New("invalid card")
	ErrInsufficientCards = errors.New("not enough cards in the deck")
	ErrNotYourTurn       = errors.New("it isn't your turn")
	ErrInvalidBet        = errors.New("invalid bet")
	ErrCardNotHeld       = errors.New("the player does not have this card")
	ErrMustFollowSuit    = errors.New("must follow the lead suit")

	ErrWrongPhase      = errors.New("action not allowed in the current phase")
	ErrNotStarted      = errors.New("game has not started")
	ErrGameStarted     = errors.New("game has already started")
	ErrGameOver        = errors.New("game is already over")
	ErrDuplicatePlayer = errors.New("player already registered")
	ErrInvalidPlayer   = errors.New("invalid player")
	ErrTableFull       = errors.New("table is full")
	ErrTrickIncomplete = errors.New("trick is not complete")
	ErrNoCardPlayed    = errors.New("no card played")
)
