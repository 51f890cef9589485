// internal/game/actions.go
package game

import (
	"errors"
	"fmt"
	"time"

	"github.com/aguszorza/apuestas-game/engine"
	"github.com/aguszorza/apuestas-game/internal/database"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// HandleMessage decodes and applies one frame from a seat. Rejections are sent
// back to the seat as error events and also returned.
func (s *Session) HandleMessage(seat string, raw []byte) error {
	msg, err := DecodeMessage(raw)
	if err != nil {
		s.mu.Lock()
		s.sendError(seat, err)
		s.mu.Unlock()
		return err
	}
	switch msg.Type {
	case MsgStartAck:
		return s.StartAck(seat, msg.GameKey)
	case MsgBet:
		return s.Bet(seat, *msg.Bet)
	case MsgPlay:
		return s.Play(seat, *msg.Number, engine.Suit(*msg.Suit))
	case MsgGameInfo:
		return s.Query(seat)
	default:
		err := fmt.Errorf("%w: %q", ErrUnknownMessage, msg.Type)
		s.mu.Lock()
		s.sendError(seat, err)
		s.mu.Unlock()
		return err
	}
}

// HandleWatcherMessage serves a spectator frame. Spectators may only query.
func (s *Session) HandleWatcherMessage(id uuid.UUID, raw []byte) error {
	msg, err := DecodeMessage(raw)
	if err == nil && msg.Type != MsgGameInfo {
		err = fmt.Errorf("%w: %q", ErrUnknownMessage, msg.Type)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	conn := s.watchers[id]
	if conn == nil {
		return nil
	}
	ev := Event{Type: EventGameInfo, GameInfo: s.gameInfo()}
	if err != nil {
		ev = errorEvent(err)
	}
	if sendErr := conn.Send(ev); sendErr != nil {
		delete(s.watchers, id)
	}
	return err
}

// StartAck records a seat's acknowledgement of the start prompt. The host's
// acknowledgement deals the first turn; other seats' are recorded only.
func (s *Session) StartAck(seat, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.startAck(seat, key); err != nil {
		s.sendError(seat, err)
		return err
	}
	return nil
}

func (s *Session) startAck(seat, key string) error {
	if s.table.Player(seat) == nil {
		return fmt.Errorf("%w: unknown seat %q", engine.ErrInvalidPlayer, seat)
	}
	if err := s.checkGameKey(key); err != nil {
		return err
	}
	s.acked[seat] = true
	if seat != s.host || s.started {
		return nil
	}
	if n := s.table.NumPlayers(); n < s.Rules.MinPlayers {
		return fmt.Errorf("%w: %d of %d seats", ErrNotEnoughPlayers, n, s.Rules.MinPlayers)
	}
	if err := s.table.BeginTurn(); err != nil {
		return err
	}
	s.started = true
	s.log.WithField("seats", s.table.TurnOrder()).Info("game started")
	s.logAction(seat, "game_start", map[string]interface{}{"seats": s.table.TurnOrder()})
	s.broadcastStartTurn()
	return nil
}

// checkGameKey compares key with the session's and, when a verifier is set,
// checks it was issued for this game.
func (s *Session) checkGameKey(key string) error {
	if key == "" || key != s.GameKey {
		return ErrInvalidGameKey
	}
	if s.keys == nil {
		return nil
	}
	id, err := s.keys.VerifyGameKey(key)
	if err != nil || id != s.ID {
		return ErrInvalidGameKey
	}
	return nil
}

// Bet places the acting seat's bet and broadcasts it.
func (s *Session) Bet(seat string, amount int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.table.PlaceBet(seat, amount); err != nil {
		s.sendError(seat, err)
		return err
	}
	if _, more := s.table.AdvanceActor(); !more {
		s.table.FinishBetting()
	}
	s.logAction(seat, "bet", map[string]interface{}{"bet": amount, "turn": s.turn})
	s.broadcast(Event{Type: EventBet, Player: seat, Bet: &amount, GameInfo: s.gameInfo()})
	return nil
}

// Play plays a card for the acting seat. Completing a trick settles it, and
// completing a turn either deals the next one or ends the game.
func (s *Session) Play(seat string, number int, suit engine.Suit) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	card, err := s.table.PlayCard(seat, number, suit)
	if err != nil {
		s.sendError(seat, err)
		return err
	}
	_, more := s.table.AdvanceActor()
	roundEnded := !more
	s.logAction(seat, "play", map[string]interface{}{"card": card.String(), "turn": s.turn})
	s.broadcast(Event{Type: EventPlay, Player: seat, Card: &card, RoundEnded: &roundEnded, GameInfo: s.gameInfo()})
	if !roundEnded {
		return nil
	}

	winner, err := s.table.SettleTrick()
	if err != nil {
		s.log.WithError(err).Error("settling a complete trick")
		return err
	}
	s.logAction(winner.Name(), "trick_won", map[string]interface{}{"turn": s.turn})
	s.broadcast(Event{Type: EventRoundEnded, RoundWinner: winner.Name(), GameInfo: s.gameInfo()})
	if !s.table.TurnFinished() {
		return nil
	}

	earned := s.table.SettleTurn()
	s.log.WithFields(logrus.Fields{"turn": s.turn, "points": earned}).Debug("turn settled")
	s.logAction("", "turn_end", map[string]interface{}{"turn": s.turn, "points": earned})
	if s.table.GameFinished() {
		s.endGame()
		return nil
	}
	if err := s.table.BeginTurn(); err != nil {
		s.log.WithError(err).Error("dealing next turn")
		return err
	}
	s.broadcastStartTurn()
	return nil
}

// Query sends the requesting seat its own view plus the table state.
func (s *Session) Query(seat string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	self := s.selfInfo(seat)
	if self == nil {
		err := fmt.Errorf("%w: unknown seat %q", engine.ErrInvalidPlayer, seat)
		s.sendError(seat, err)
		return err
	}
	s.sendToSeat(seat, Event{Type: EventGameInfo, Player: self, GameInfo: s.gameInfo()})
	return nil
}

// broadcastStartTurn sends every seat its freshly dealt hand, and spectators
// the table without hands. Assumes lock is held by caller.
func (s *Session) broadcastStartTurn() {
	s.turn++
	info := s.gameInfo()
	first := ""
	if cur := s.table.CurrentPlayer(); cur != nil {
		first = cur.Name()
	}
	if trump, ok := s.table.Trump(); ok {
		s.logAction("", "turn_start", map[string]interface{}{
			"turn":    s.turn,
			"cards":   s.table.CardsThisTurn(),
			"muestra": trump.String(),
		})
	}
	for _, seat := range s.table.TurnOrder() {
		s.sendToSeat(seat, Event{Type: EventStartTurn, FirstPlayer: first, Player: s.selfInfo(seat), GameInfo: info})
	}
	s.sendToWatchers(Event{Type: EventStartTurn, FirstPlayer: first, GameInfo: info})
}

// endGame broadcasts the final table and archives the result. Assumes lock is
// held by caller.
func (s *Session) endGame() {
	s.over = true
	info := s.gameInfo()
	res := database.GameResult{
		GameID:     s.ID,
		MaxCards:   s.Rules.MaxCards,
		Winners:    winners(s.table.Players()),
		FinishedAt: time.Now().UTC(),
	}
	for _, p := range s.table.Players() {
		res.Players = append(res.Players, database.PlayerResult{
			Name:      p.Name(),
			Score:     p.Score(),
			Abandoned: s.abandoned[p.Name()],
		})
	}
	s.log.WithField("winners", res.Winners).Info("game ended")
	s.logAction("", "game_end", map[string]interface{}{"winners": res.Winners})
	s.persistResult(res)
	s.broadcast(Event{Type: EventGameEnded, GameInfo: info})
}

// winners returns the seats sharing the top score, in seating order.
func winners(players []*engine.Player) []string {
	best := 0
	var out []string
	for i, p := range players {
		switch {
		case i == 0 || p.Score() > best:
			best = p.Score()
			out = []string{p.Name()}
		case p.Score() == best:
			out = append(out, p.Name())
		}
	}
	return out
}

// IsRuleError reports whether err is a rejection caused by the client's
// request rather than a server fault.
func IsRuleError(err error) bool {
	for _, target := range []error{
		ErrMalformedMessage, ErrUnknownMessage, ErrInvalidGameKey, ErrNotEnoughPlayers,
		engine.ErrInvalidCard, engine.ErrNotYourTurn, engine.ErrInvalidBet, engine.ErrCardNotHeld,
		engine.ErrMustFollowSuit, engine.ErrWrongPhase, engine.ErrNotStarted, engine.ErrGameOver,
		engine.ErrInvalidPlayer, engine.ErrGameStarted, engine.ErrDuplicatePlayer, engine.ErrTableFull,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
