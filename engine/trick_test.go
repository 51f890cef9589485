package engine

import "testing"

// TestRankCategories verifies trump > lead > other regardless of numbers.
func TestRankCategories(t *testing.T) {
	trump, lead := Oro, Copa
	lowTrump := Rank(MustCard(1, Oro), trump, lead)
	highLead := Rank(MustCard(12, Copa), trump, lead)
	lowLead := Rank(MustCard(1, Copa), trump, lead)
	highOther := Rank(MustCard(12, Espada), trump, lead)

	if !(lowTrump > highLead) {
		t.Errorf("1 de Oro (%d) should outrank 12 de Copa (%d)", lowTrump, highLead)
	}
	if !(lowLead > highOther) {
		t.Errorf("1 de Copa (%d) should outrank 12 de Espada (%d)", lowLead, highOther)
	}
	if !(Rank(MustCard(9, Basto), trump, lead) > Rank(MustCard(4, Basto), trump, lead)) {
		t.Error("within a suit the higher number should win")
	}
}

// TestRankTrumpLeads verifies a trick led in the trump suit ranks as trump.
func TestRankTrumpLeads(t *testing.T) {
	if Rank(MustCard(2, Oro), Oro, Oro) <= Rank(MustCard(12, Copa), Oro, Oro) {
		t.Error("trump-suit lead should outrank off-suit cards")
	}
}

// TestTrickWinner covers trump, lead-suit and off-suit tricks.
func TestTrickWinner(t *testing.T) {
	cases := []struct {
		name    string
		muestra Card
		plays   []Card // red, blue, green in play order
		want    string
	}{
		{"lead suit high card", MustCard(1, Basto), []Card{MustCard(4, Copa), MustCard(11, Copa), MustCard(2, Copa)}, "blue"},
		{"single trump", MustCard(1, Basto), []Card{MustCard(12, Copa), MustCard(11, Copa), MustCard(2, Basto)}, "green"},
		{"higher trump", MustCard(1, Basto), []Card{MustCard(4, Copa), MustCard(3, Basto), MustCard(9, Basto)}, "green"},
		{"off-suit never wins", MustCard(1, Basto), []Card{MustCard(2, Copa), MustCard(12, Oro), MustCard(12, Espada)}, "red"},
		{"trump lead", MustCard(1, Oro), []Card{MustCard(5, Oro), MustCard(12, Copa), MustCard(4, Oro)}, "red"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			g := newDealtTable(t)
			setHands(g, tc.muestra, map[string][]Card{
				"red":   {tc.plays[0]},
				"blue":  {tc.plays[1]},
				"green": {tc.plays[2]},
			})
			betAll(t, g, 0, 0, 0)
			for i, name := range []string{"red", "blue", "green"} {
				c := tc.plays[i]
				if _, err := g.PlayCard(name, c.Number, c.Suit); err != nil {
					t.Fatalf("PlayCard(%s, %v): %v", name, c, err)
				}
				g.AdvanceActor()
			}
			winner, err := g.TrickWinner()
			if err != nil {
				t.Fatal(err)
			}
			if winner.Name() != tc.want {
				t.Errorf("winner = %s, want %s", winner.Name(), tc.want)
			}
		})
	}
}

// TestTrickWinnerDeterministic verifies repeated evaluation picks the same seat.
func TestTrickWinnerDeterministic(t *testing.T) {
	g := newDealtTable(t)
	setHands(g, MustCard(1, Basto), map[string][]Card{
		"red":   {MustCard(3, Copa)},
		"blue":  {MustCard(7, Oro)},
		"green": {MustCard(7, Espada)},
	})
	betAll(t, g, 0, 0, 0)
	for _, name := range []string{"red", "blue", "green"} {
		c := g.Player(name).Hand()[0]
		if _, err := g.PlayCard(name, c.Number, c.Suit); err != nil {
			t.Fatal(err)
		}
		g.AdvanceActor()
	}
	first, _ := g.TrickWinner()
	for i := 0; i < 10; i++ {
		if w, _ := g.TrickWinner(); w != first {
			t.Fatalf("evaluation %d picked %s, first picked %s", i, w.Name(), first.Name())
		}
	}
	if first.Name() != "red" {
		t.Errorf("winner = %s, want red (lead suit)", first.Name())
	}
}

func TestTrickWinnerNothingPlayed(t *testing.T) {
	g := newDealtTable(t)
	if _, err := g.TrickWinner(); err == nil {
		t.Error("TrickWinner with no plays returned no error")
	}
}
