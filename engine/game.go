// Package engine implements the rules of apuestas, a trick-taking card game
// with bets played with the 48-card Spanish deck.
//
// A Game is a plain state machine: it performs no I/O and is not safe for
// concurrent use. Every mutating call either succeeds or returns an error and
// leaves the Game exactly as it was.
package engine

import (
	"fmt"
	"math/rand/v2"
	"time"
)

// Phase is the stored phase of a turn.
type Phase uint8

const (
	PhaseBetting Phase = iota
	PhasePlaying
)

// String returns the wire name of the phase.
func (p Phase) String() string {
	switch p {
	case PhaseBetting:
		return "bet"
	case PhasePlaying:
		return "play"
	default:
		return "unknown"
	}
}

// Game holds the authoritative state of one table.
type Game struct {
	rules   Rules
	players map[string]*Player
	order   []string
	deck    *Deck

	phase         Phase
	started       bool
	cardsThisTurn int
	trump         *Card
	leadSuit      *Suit

	acting       int
	firstOfTurn  int
	firstOfTrick int
}

// NewGame creates an empty table. The seed drives deck shuffling; 0 picks a
// time-based seed.
func NewGame(seed uint64, rules Rules) *Game {
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	rules.MaxCards = rules.maxCards()
	return &Game{
		rules:         rules,
		players:       make(map[string]*Player),
		deck:          NewDeck(rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))),
		cardsThisTurn: 1,
	}
}

// ---------------------------------------------------------------------------
// Seating
// ---------------------------------------------------------------------------

// AddPlayer seats a new player at the end of the turn order.
func (g *Game) AddPlayer(name string) (*Player, error) {
	if g.started {
		return nil, fmt.Errorf("%w: cannot add %s", ErrGameStarted, name)
	}
	if name == "" {
		return nil, fmt.Errorf("%w: empty name", ErrInvalidPlayer)
	}
	if _, ok := g.players[name]; ok {
		return nil, fmt.Errorf("%w: %s", ErrDuplicatePlayer, name)
	}
	if len(g.order)+1 > g.rules.MaxSeats() {
		return nil, fmt.Errorf("%w: at most %d players for %d cards", ErrTableFull, g.rules.MaxSeats(), g.rules.MaxCards)
	}
	p := NewPlayer(name)
	g.players[name] = p
	g.order = append(g.order, name)
	return p, nil
}

// RemovePlayer unseats a player. Only possible before the first turn.
func (g *Game) RemovePlayer(name string) error {
	if g.started {
		return fmt.Errorf("%w: cannot remove %s", ErrGameStarted, name)
	}
	idx := g.indexOf(name)
	if idx < 0 {
		return fmt.Errorf("%w: %s", ErrInvalidPlayer, name)
	}
	delete(g.players, name)
	g.order = append(g.order[:idx], g.order[idx+1:]...)
	return nil
}

// ---------------------------------------------------------------------------
// Turn lifecycle
// ---------------------------------------------------------------------------

// BeginTurn shuffles, deals cardsThisTurn cards to every seat, reveals the
// muestra and opens the betting phase.
func (g *Game) BeginTurn() error {
	if g.GameFinished() {
		return ErrGameOver
	}
	n := len(g.order)
	if n == 0 {
		return fmt.Errorf("%w: no players", ErrInvalidPlayer)
	}
	if n*g.cardsThisTurn+1 > g.deck.Len() {
		return fmt.Errorf("%w: %d players with %d cards each", ErrInsufficientCards, n, g.cardsThisTurn)
	}

	g.deck.Shuffle()
	hands, muestra, err := g.deck.Deal(n, g.cardsThisTurn)
	if err != nil {
		return err
	}
	for i, name := range g.order {
		p := g.players[name]
		p.resetTurn()
		p.DistributeHand(hands[i])
	}
	g.trump = &muestra
	g.leadSuit = nil
	g.phase = PhaseBetting
	g.firstOfTrick = g.firstOfTurn
	g.acting = g.firstOfTurn
	g.started = true
	return nil
}

// PlaceBet records the acting seat's bet. The last bettor of the round may not
// bring the sum of bets to the number of cards in play.
func (g *Game) PlaceBet(seat string, amount int) error {
	if err := g.checkActing(seat, PhaseBetting); err != nil {
		return err
	}
	if amount < 0 || amount > g.cardsThisTurn {
		return fmt.Errorf("%w: the bet should be a number between 0 and %d", ErrInvalidBet, g.cardsThisTurn)
	}
	if g.next(g.acting) == g.firstOfTrick {
		sum := amount
		for _, p := range g.players {
			sum += p.currentBet
		}
		if sum == g.cardsThisTurn {
			return fmt.Errorf("%w: you can not bet %d, the sum can not be equal to the amount of cards", ErrInvalidBet, amount)
		}
	}
	g.players[seat].PlaceBet(amount)
	return nil
}

// AdvanceActor passes the turn to the next seat. It returns false, leaving the
// acting seat unchanged, when every seat has acted in the current round.
func (g *Game) AdvanceActor() (*Player, bool) {
	if len(g.order) == 0 {
		return nil, false
	}
	next := g.next(g.acting)
	if next == g.firstOfTrick {
		return nil, false
	}
	g.acting = next
	return g.players[g.order[next]], true
}

// FinishBetting hands the action back to the first seat and opens play.
func (g *Game) FinishBetting() {
	g.acting = g.firstOfTrick
	g.phase = PhasePlaying
}

// PlayCard plays a card from the acting seat's hand. The first card of a trick
// fixes the lead suit; later seats must follow it when they can.
func (g *Game) PlayCard(seat string, number int, suit Suit) (Card, error) {
	if err := g.checkActing(seat, PhasePlaying); err != nil {
		return Card{}, err
	}
	card, err := NewCard(number, suit)
	if err != nil {
		return Card{}, err
	}
	p := g.players[seat]
	if !p.HasCard(card) {
		return Card{}, fmt.Errorf("%w: %s", ErrCardNotHeld, card)
	}
	if g.leadSuit != nil && card.Suit != *g.leadSuit && p.HasCardOfSuit(*g.leadSuit) {
		return Card{}, fmt.Errorf("%w: you have to play a card of %s", ErrMustFollowSuit, *g.leadSuit)
	}
	if g.leadSuit == nil {
		lead := card.Suit
		g.leadSuit = &lead
	}
	p.PlayCard(card)
	return card, nil
}

// TurnFinished reports whether every hand is empty.
func (g *Game) TurnFinished() bool {
	for _, p := range g.players {
		if len(p.hand) > 0 {
			return false
		}
	}
	return true
}

// SettleTurn scores the turn for every seat, rotates the first seat and grows
// the hand size. It returns the points each seat earned.
func (g *Game) SettleTurn() map[string]int {
	earned := make(map[string]int, len(g.players))
	for name, p := range g.players {
		earned[name] = p.SettleTurn()
	}
	if len(g.order) > 0 {
		g.firstOfTurn = g.next(g.firstOfTurn)
	}
	g.firstOfTrick = g.firstOfTurn
	g.acting = g.firstOfTurn
	g.cardsThisTurn++
	return earned
}

// GameFinished reports whether the hand size went past MaxCards.
func (g *Game) GameFinished() bool {
	return g.cardsThisTurn > g.rules.MaxCards
}

// ---------------------------------------------------------------------------
// Queries
// ---------------------------------------------------------------------------

func (g *Game) Rules() Rules { return g.rules }
func (g *Game) Phase() Phase { return g.phase }
func (g *Game) Started() bool { return g.started }
func (g *Game) CardsThisTurn() int { return g.cardsThisTurn }
func (g *Game) MaxCards() int { return g.rules.MaxCards }
func (g *Game) NumPlayers() int { return len(g.order) }
func (g *Game) Player(name string) *Player { return g.players[name] }

// Trump returns the muestra of the current turn.
func (g *Game) Trump() (Card, bool) {
	if g.trump == nil {
		return Card{}, false
	}
	return *g.trump, true
}

// LeadSuit returns the suit led in the running trick.
func (g *Game) LeadSuit() (Suit, bool) {
	if g.leadSuit == nil {
		return "", false
	}
	return *g.leadSuit, true
}

// TurnOrder returns the seat names in seating order.
func (g *Game) TurnOrder() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// Players returns the seats in seating order.
func (g *Game) Players() []*Player {
	out := make([]*Player, len(g.order))
	for i, name := range g.order {
		out[i] = g.players[name]
	}
	return out
}

// CurrentPlayer returns the acting seat, or nil on an empty table.
func (g *Game) CurrentPlayer() *Player {
	if len(g.order) == 0 {
		return nil
	}
	return g.players[g.order[g.acting]]
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func (g *Game) next(idx int) int {
	return (idx + 1) % len(g.order)
}

func (g *Game) indexOf(name string) int {
	for i, n := range g.order {
		if n == name {
			return i
		}
	}
	return -1
}

// checkActing validates that the game is running in the given phase and that
// seat is the acting one.
func (g *Game) checkActing(seat string, phase Phase) error {
	if !g.started {
		return ErrNotStarted
	}
	if g.GameFinished() {
		return ErrGameOver
	}
	if g.phase != phase {
		return fmt.Errorf("%w: we are in state '%s'", ErrWrongPhase, g.phase)
	}
	if seat != g.order[g.acting] {
		return ErrNotYourTurn
	}
	return nil
}
