package engine

// Rules holds the game-length settings fixed at construction.
type Rules struct {
	// MaxCards is the hand size of the last turn. The game ends once the
	// hand size would exceed it.
	MaxCards int
}

// DefaultRules returns the standard table settings.
func DefaultRules() Rules {
	return Rules{MaxCards: 2}
}

// maxCards returns the effective MaxCards, treating values below 1 as the default.
func (r Rules) maxCards() int {
	if r.MaxCards < 1 {
		return DefaultRules().MaxCards
	}
	return r.MaxCards
}

// MaxSeats returns how many seats can still be dealt the final turn plus a muestra.
func (r Rules) MaxSeats() int {
	return (DeckSize - 1) / r.maxCards()
}
