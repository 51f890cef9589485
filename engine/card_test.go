package engine

import (
	"errors"
	"testing"
)

// TestNewCardValidDomain verifies every (number, suit) pair of the deck constructs
// and round-trips through the fields.
func TestNewCardValidDomain(t *testing.T) {
	for _, suit := range Suits {
		for n := MinNumber; n <= MaxNumber; n++ {
			c, err := NewCard(n, suit)
			if err != nil {
				t.Fatalf("NewCard(%d, %s): %v", n, suit, err)
			}
			if c.Number != n || c.Suit != suit {
				t.Errorf("NewCard(%d, %s) = %+v", n, suit, c)
			}
		}
	}
}

// TestNewCardInvalid verifies out-of-domain pairs fail with ErrInvalidCard.
func TestNewCardInvalid(t *testing.T) {
	cases := []struct {
		number int
		suit   Suit
	}{
		{0, Oro},
		{13, Espada},
		{-1, Basto},
		{1, "Oros"},
		{5, ""},
		{7, "copa"},
	}
	for _, tc := range cases {
		if _, err := NewCard(tc.number, tc.suit); !errors.Is(err, ErrInvalidCard) {
			t.Errorf("NewCard(%d, %q) err = %v, want ErrInvalidCard", tc.number, tc.suit, err)
		}
	}
}

// TestCardEquality verifies cards compare and hash by value.
func TestCardEquality(t *testing.T) {
	a := MustCard(3, Basto)
	b := MustCard(3, Basto)
	if a != b {
		t.Fatalf("%v != %v", a, b)
	}
	set := map[Card]int{a: 1}
	set[b]++
	if len(set) != 1 || set[a] != 2 {
		t.Errorf("cards with equal value produced distinct keys: %v", set)
	}
	if a == MustCard(3, Copa) {
		t.Error("cards of different suits compared equal")
	}
}

func TestMustCardPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("MustCard(13, Oro) did not panic")
		}
	}()
	MustCard(13, Oro)
}
