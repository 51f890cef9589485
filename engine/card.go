package engine

import "fmt"

// Suit is one of the four Spanish-deck suits.
type Suit string

const (
	Oro    Suit = "Oro"
	Espada Suit = "Espada"
	Basto  Suit = "Basto"
	Copa   Suit = "Copa"
)

// Suits lists the suits in deck order.
var Suits = [...]Suit{Oro, Espada, Basto, Copa}

const (
	MinNumber = 1
	MaxNumber = 12
	DeckSize  = len(Suits) * MaxNumber
)

// Valid reports whether s is one of the four suits.
func (s Suit) Valid() bool {
	for _, v := range Suits {
		if s == v {
			return true
		}
	}
	return false
}

// index returns the deck position of the suit, or -1.
func (s Suit) index() int {
	for i, v := range Suits {
		if s == v {
			return i
		}
	}
	return -1
}

// Card is an immutable (number, suit) pair. It is comparable and can be used
// as a map key.
type Card struct {
	Number int  `json:"number"`
	Suit   Suit `json:"suit"`
}

// NewCard constructs a Card, failing with ErrInvalidCard outside the domains.
func NewCard(number int, suit Suit) (Card, error) {
	if number < MinNumber || number > MaxNumber || !suit.Valid() {
		return Card{}, fmt.Errorf("%w: %d of %q", ErrInvalidCard, number, suit)
	}
	return Card{Number: number, Suit: suit}, nil
}

// MustCard is NewCard for literals known to be valid. It panics otherwise.
func MustCard(number int, suit Suit) Card {
	c, err := NewCard(number, suit)
	if err != nil {
		panic(err)
	}
	return c
}

func (c Card) String() string { return fmt.Sprintf("%d de %s", c.Number, c.Suit) }

// less orders cards suit-major, number-minor (deck order).
func (c Card) less(o Card) bool {
	if c.Suit != o.Suit {
		return c.Suit.index() < o.Suit.index()
	}
	return c.Number < o.Number
}
