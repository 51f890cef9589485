package engine

import (
	"fmt"
	"sort"
)

// Points awarded when a player wins exactly as many tricks as they bet.
const (
	HitBonus       = 10
	HitTrickPoints = 5
)

// Player holds one seat's hand and per-turn state plus its running score.
// A Player belongs to the Game that created it.
type Player struct {
	name          string
	hand          map[Card]struct{}
	currentCard   *Card
	currentBet    int
	winningTricks int
	score         int
}

// NewPlayer returns a seat with an empty hand and no points.
func NewPlayer(name string) *Player {
	return &Player{name: name, hand: make(map[Card]struct{})}
}

func (p *Player) Name() string { return p.name }
func (p *Player) Score() int { return p.score }
func (p *Player) Bet() int { return p.currentBet }
func (p *Player) WinningTricks() int { return p.winningTricks }
func (p *Player) HandSize() int { return len(p.hand) }

// CurrentCard returns the card played in the running trick, if any.
func (p *Player) CurrentCard() (Card, bool) {
	if p.currentCard == nil {
		return Card{}, false
	}
	return *p.currentCard, true
}

// Hand returns the cards held, in deck order.
func (p *Player) Hand() []Card {
	out := make([]Card, 0, len(p.hand))
	for c := range p.hand {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].less(out[j]) })
	return out
}

// DistributeHand replaces the hand with the set of the given cards.
// Repeated cards collapse into one.
func (p *Player) DistributeHand(cards []Card) {
	p.hand = make(map[Card]struct{}, len(cards))
	for _, c := range cards {
		p.hand[c] = struct{}{}
	}
}

// PlaceBet records the bet. Range checks belong to the Game.
func (p *Player) PlaceBet(n int) { p.currentBet = n }

func (p *Player) HasCard(c Card) bool {
	_, ok := p.hand[c]
	return ok
}

func (p *Player) HasCardOfSuit(s Suit) bool {
	for c := range p.hand {
		if c.Suit == s {
			return true
		}
	}
	return false
}

// PlayCard sets the card for the running trick. The card stays in the hand
// until SettleTrick.
func (p *Player) PlayCard(c Card) { p.currentCard = &c }

// SettleTrick credits the trick if the player's card is the winning one, then
// removes the played card from the hand.
func (p *Player) SettleTrick(winning Card) error {
	if p.currentCard == nil {
		return fmt.Errorf("%w: player %s", ErrNoCardPlayed, p.name)
	}
	if *p.currentCard == winning {
		p.winningTricks++
	}
	delete(p.hand, *p.currentCard)
	p.currentCard = nil
	return nil
}

// RoundPoints returns what the current turn is worth: a hit bet scores
// HitBonus plus HitTrickPoints per trick, a miss scores the raw trick count.
func (p *Player) RoundPoints() int {
	if p.winningTricks != p.currentBet {
		return p.winningTricks
	}
	return HitBonus + HitTrickPoints*p.winningTricks
}

// SettleTurn adds the turn's points to the score, resets the per-turn state
// and returns the points earned.
func (p *Player) SettleTurn() int {
	points := p.RoundPoints()
	p.score += points
	p.resetTurn()
	return points
}

func (p *Player) resetTurn() {
	p.hand = make(map[Card]struct{})
	p.currentCard = nil
	p.currentBet = 0
	p.winningTricks = 0
}
