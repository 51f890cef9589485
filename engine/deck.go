package engine

import (
	"fmt"
	"math/rand/v2"
)

// StandardDeck returns the 48 cards in suit-major, number-minor order.
func StandardDeck() []Card {
	cards := make([]Card, 0, DeckSize)
	for _, suit := range Suits {
		for n := MinNumber; n <= MaxNumber; n++ {
			cards = append(cards, Card{Number: n, Suit: suit})
		}
	}
	return cards
}

// Deck is an ordered pile of cards owned by a single Game.
type Deck struct {
	cards []Card
	rng   *rand.Rand
}

// NewDeck builds a standard deck in deck order. rng drives Shuffle.
func NewDeck(rng *rand.Rand) *Deck {
	return &Deck{cards: StandardDeck(), rng: rng}
}

// Len returns the number of cards in the deck.
func (d *Deck) Len() int { return len(d.cards) }

// Cards returns a copy of the deck in its current order.
func (d *Deck) Cards() []Card {
	out := make([]Card, len(d.cards))
	copy(out, d.cards)
	return out
}

// Shuffle permutes the deck in place (Fisher-Yates via rand.Shuffle).
func (d *Deck) Shuffle() {
	d.rng.Shuffle(len(d.cards), func(i, j int) {
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	})
}

// Deal hands out perPlayer cards to each of players seats round-robin from the
// top of the deck, seat i receiving positions i, i+players, i+2*players, ...
// The card right after the dealt ones is the muestra.
func (d *Deck) Deal(players, perPlayer int) ([][]Card, Card, error) {
	if players < 1 || perPlayer < 1 {
		return nil, Card{}, fmt.Errorf("%w: %d players with %d cards each", ErrInsufficientCards, players, perPlayer)
	}
	total := players * perPlayer
	if total+1 > len(d.cards) {
		return nil, Card{}, fmt.Errorf("%w: need %d, have %d", ErrInsufficientCards, total+1, len(d.cards))
	}
	hands := make([][]Card, players)
	for i := range hands {
		hands[i] = make([]Card, 0, perPlayer)
	}
	for i := 0; i < total; i++ {
		hands[i%players] = append(hands[i%players], d.cards[i])
	}
	return hands, d.cards[total], nil
}
