// internal/game/events.go
package game

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/aguszorza/apuestas-game/engine"
)

// EventType names an outbound message.
type EventType string

// Outbound event types.
const (
	EventInit       EventType = "init"        // Private: join and watch tokens for the host.
	EventStart      EventType = "start"       // Public: enough players joined, acknowledge with the game key.
	EventStartTurn  EventType = "start_turn"  // Per seat: a turn was dealt; carries the receiver's hand.
	EventBet        EventType = "bet"         // Public: a seat placed its bet.
	EventPlay       EventType = "play"        // Public: a seat played a card.
	EventRoundEnded EventType = "round_ended" // Public: a trick was settled.
	EventGameEnded  EventType = "game_ended"  // Public: final scores.
	EventGameInfo   EventType = "game_info"   // Private: answer to a game_info query.
	EventPlayerLeft EventType = "player_left" // Public: a seat's connection went away.
	EventError      EventType = "error"       // Private: the last request was rejected.
)

// Inbound message types.
const (
	MsgInit     = "init"
	MsgStartAck = "start_ack"
	MsgBet      = "bet"
	MsgPlay     = "play"
	MsgGameInfo = "game_info"
)

// Event is the single outbound envelope. Only the fields relevant to Type are set.
type Event struct {
	Type        EventType    `json:"type"`
	Message     string       `json:"message,omitempty"`
	Join        string       `json:"join,omitempty"`
	Watch       string       `json:"watch,omitempty"`
	GameKey     string       `json:"game_key,omitempty"`
	FirstPlayer string       `json:"first_player,omitempty"`
	Player      interface{}  `json:"player,omitempty"` // Seat name, or *SelfInfo for the receiver's own view.
	Bet         *int         `json:"bet,omitempty"`
	Card        *engine.Card `json:"card,omitempty"`
	RoundEnded  *bool        `json:"round_ended,omitempty"`
	RoundWinner string       `json:"round_winner,omitempty"`
	GameInfo    *GameInfo    `json:"game_info,omitempty"`
}

// errorEvent wraps a rejection for the requesting connection.
func errorEvent(err error) Event {
	return Event{Type: EventError, Message: err.Error()}
}

// Inbound is a decoded client message. Pointer fields distinguish zero values
// from missing ones.
type Inbound struct {
	Type    string  `json:"type"`
	Join    string  `json:"join,omitempty"`
	Watch   string  `json:"watch,omitempty"`
	Name    string  `json:"name,omitempty"`
	GameKey string  `json:"game_key,omitempty"`
	Bet     *int    `json:"bet,omitempty"`
	Number  *int    `json:"number,omitempty"`
	Suit    *string `json:"suit,omitempty"`
}

// DecodeMessage parses a client frame and checks the fields its type requires.
// Unknown types decode fine; dispatch rejects them.
func DecodeMessage(raw []byte) (Inbound, error) {
	var msg Inbound
	if err := json.Unmarshal(raw, &msg); err != nil {
		return Inbound{}, fmt.Errorf("%w: %v", ErrMalformedMessage, err)
	}
	switch msg.Type {
	case "":
		return Inbound{}, fmt.Errorf("%w: missing type", ErrMalformedMessage)
	case MsgBet:
		if msg.Bet == nil {
			return Inbound{}, fmt.Errorf("%w: bet requires a 'bet' field", ErrMalformedMessage)
		}
	case MsgPlay:
		if msg.Number == nil || msg.Suit == nil {
			return Inbound{}, fmt.Errorf("%w: play requires 'number' and 'suit'", ErrMalformedMessage)
		}
	}
	return msg, nil
}

// Session-level errors. Engine rule errors pass through unchanged.
var (
	ErrMalformedMessage = errors.New("malformed message")
	ErrUnknownMessage   = errors.New("unknown message type")
	ErrInvalidGameKey   = errors.New("invalid game key")
	ErrNotEnoughPlayers = errors.New("not enough players to start")
)
