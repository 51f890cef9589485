package engine

import "fmt"

// Rank categories, highest first.
const (
	rankTrump = 2
	rankLead  = 1
	rankOther = 0
)

// Rank orders a card within a trick: any trump-suit card beats any lead-suit
// card, which beats any other card; within a category the higher number wins.
func Rank(c Card, trump, lead Suit) int {
	category := rankOther
	switch c.Suit {
	case trump:
		category = rankTrump
	case lead:
		category = rankLead
	}
	return category*100 + c.Number
}

// TrickWinner returns the seat holding the highest ranked card of the running
// trick. Seats are scanned in play order and the first maximum wins.
func (g *Game) TrickWinner() (*Player, error) {
	if g.trump == nil || g.leadSuit == nil {
		return nil, fmt.Errorf("%w: nothing played", ErrTrickIncomplete)
	}
	var (
		winner *Player
		best   = -1
	)
	n := len(g.order)
	for i := 0; i < n; i++ {
		p := g.players[g.order[(g.firstOfTrick+i)%n]]
		if p.currentCard == nil {
			continue
		}
		if r := Rank(*p.currentCard, g.trump.Suit, *g.leadSuit); r > best {
			best, winner = r, p
		}
	}
	if winner == nil {
		return nil, fmt.Errorf("%w: nothing played", ErrTrickIncomplete)
	}
	return winner, nil
}

// SettleTrick resolves a complete trick: the winner is credited, played cards
// leave the hands, the lead suit is cleared and the winner leads next.
func (g *Game) SettleTrick() (*Player, error) {
	for _, name := range g.order {
		if g.players[name].currentCard == nil {
			return nil, fmt.Errorf("%w: %s has not played", ErrTrickIncomplete, name)
		}
	}
	winner, err := g.TrickWinner()
	if err != nil {
		return nil, err
	}
	winning := *winner.currentCard
	for _, name := range g.order {
		if err := g.players[name].SettleTrick(winning); err != nil {
			return nil, err
		}
	}
	g.leadSuit = nil
	g.firstOfTrick = g.indexOf(winner.name)
	g.acting = g.firstOfTrick
	return winner, nil
}
