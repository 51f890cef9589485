// internal/game/sync_state.go
package game

import "github.com/aguszorza/apuestas-game/engine"

// PlayerInfo is the public view of one seat.
type PlayerInfo struct {
	Name       string       `json:"name"`
	Points     int          `json:"points"`
	PlayedCard *engine.Card `json:"played_card"`
	TurnBet    int          `json:"turn_bet"`
	TurnWins   int          `json:"turn_wins"`
	HandSize   int          `json:"hand_size"`
	Connected  bool         `json:"connected"`
}

// SelfInfo is a seat's view of itself, hand included.
type SelfInfo struct {
	PlayerInfo
	Hand []engine.Card `json:"hand"`
}

// GameInfo is the table state every participant may see. It never contains a hand.
type GameInfo struct {
	AmountCards   int                   `json:"amount_cards"`
	Muestra       *engine.Card          `json:"muestra"`
	CurrentSuit   *engine.Suit          `json:"current_suit"`
	PlayersInfo   map[string]PlayerInfo `json:"players_info"`
	Order         []string              `json:"order"`
	CurrentPlayer string                `json:"current_player,omitempty"`
	CurrentState  string                `json:"current_state"`
}

// playerInfo builds the public view of p. Assumes lock is held by caller.
func (s *Session) playerInfo(p *engine.Player) PlayerInfo {
	info := PlayerInfo{
		Name:      p.Name(),
		Points:    p.Score(),
		TurnBet:   p.Bet(),
		TurnWins:  p.WinningTricks(),
		HandSize:  p.HandSize(),
		Connected: s.seats[p.Name()] != nil,
	}
	if c, ok := p.CurrentCard(); ok {
		info.PlayedCard = &c
	}
	return info
}

// gameInfo snapshots the shared table state. Assumes lock is held by caller.
func (s *Session) gameInfo() *GameInfo {
	info := &GameInfo{
		AmountCards:  s.table.CardsThisTurn(),
		PlayersInfo:  make(map[string]PlayerInfo, s.table.NumPlayers()),
		Order:        s.table.TurnOrder(),
		CurrentState: s.table.Phase().String(),
	}
	if c, ok := s.table.Trump(); ok {
		info.Muestra = &c
	}
	if suit, ok := s.table.LeadSuit(); ok {
		info.CurrentSuit = &suit
	}
	for _, p := range s.table.Players() {
		info.PlayersInfo[p.Name()] = s.playerInfo(p)
	}
	if s.started && !s.over {
		if cur := s.table.CurrentPlayer(); cur != nil {
			info.CurrentPlayer = cur.Name()
		}
	}
	return info
}

// selfInfo builds a seat's private view, or nil for an unknown seat.
// Assumes lock is held by caller.
func (s *Session) selfInfo(seat string) *SelfInfo {
	p := s.table.Player(seat)
	if p == nil {
		return nil
	}
	return &SelfInfo{PlayerInfo: s.playerInfo(p), Hand: p.Hand()}
}
