// internal/game/session.go
package game

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/aguszorza/apuestas-game/engine"
	"github.com/aguszorza/apuestas-game/internal/cache"
	"github.com/aguszorza/apuestas-game/internal/database"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Conn is an outbound channel to one participant. Send must not block; a
// returned error means the connection is gone and the session drops it.
type Conn interface {
	Send(ev Event) error
}

// ActionPublisher receives every applied action. Implemented by cache.Publisher.
type ActionPublisher interface {
	PublishGameAction(ctx context.Context, rec cache.GameActionRecord) error
}

// ResultStore archives finished games. Implemented by database.Store.
type ResultStore interface {
	SaveResult(ctx context.Context, r database.GameResult) error
}

// KeyVerifier validates game keys presented in start_ack.
type KeyVerifier interface {
	VerifyGameKey(key string) (uuid.UUID, error)
}

// HouseRules are the table settings chosen when a session is created.
type HouseRules struct {
	MaxCards   int `json:"maxCards"`   // Turns deal 1..MaxCards cards.
	MinPlayers int `json:"minPlayers"` // Seats required before the start prompt.
}

// DefaultHouseRules returns the standard table: up to two cards, three players.
func DefaultHouseRules() HouseRules {
	return HouseRules{MaxCards: 2, MinPlayers: 3}
}

// Options configures a new Session. Zero values fall back to defaults and
// nil collaborators are skipped.
type Options struct {
	ID        uuid.UUID
	Rules     HouseRules
	Seed      uint64
	GameKey   string
	Keys      KeyVerifier
	Publisher ActionPublisher
	Results   ResultStore
	Logger    logrus.FieldLogger
}

// backgroundTimeout bounds each publish or persist call.
const backgroundTimeout = 2 * time.Second

// seatPalette names seats that join without asking for a name.
var seatPalette = []string{"red", "blue", "green", "yellow", "purple", "orange", "pink", "brown", "gray", "white", "black", "cyan"}

// Session coordinates one game: it owns the engine, the seat connections and
// the spectators, and turns inbound requests into broadcasts. Every exported
// method holds mu for its whole body, so requests are applied one at a time.
type Session struct {
	ID      uuid.UUID
	Rules   HouseRules
	GameKey string

	mu        sync.Mutex
	table     *engine.Game
	host      string          // Earliest remaining seat; its start_ack starts the game.
	seats     map[string]Conn // Live connections by seat name.
	abandoned map[string]bool // Seats whose connection left after the start.
	watchers  map[uuid.UUID]Conn
	acked     map[string]bool
	started   bool
	over      bool
	turn      int

	actionIndex int
	keys        KeyVerifier
	publisher   ActionPublisher
	results     ResultStore
	log         *logrus.Entry
	background  sync.WaitGroup
}

// NewSession creates a session with an empty table.
func NewSession(opts Options) *Session {
	id := opts.ID
	if id == uuid.Nil {
		id = uuid.New()
	}
	rules := opts.Rules
	def := DefaultHouseRules()
	if rules.MaxCards < 1 {
		rules.MaxCards = def.MaxCards
	}
	if rules.MinPlayers < 2 {
		rules.MinPlayers = def.MinPlayers
	}
	logger := opts.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Session{
		ID:        id,
		Rules:     rules,
		table:     engine.NewGame(opts.Seed, engine.Rules{MaxCards: rules.MaxCards}),
		GameKey:   opts.GameKey,
		seats:     make(map[string]Conn),
		abandoned: make(map[string]bool),
		watchers:  make(map[uuid.UUID]Conn),
		acked:     make(map[string]bool),
		keys:      opts.Keys,
		publisher: opts.Publisher,
		results:   opts.Results,
		log:       logger.WithField("game", id),
	}
}

// ---------------------------------------------------------------------------
// Participants
// ---------------------------------------------------------------------------

// AddSeat registers a player connection and returns its seat name. An empty
// name picks the first free palette name. Once MinPlayers seats are present
// every seat is prompted with a start event.
func (s *Session) AddSeat(name string, conn Conn) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.over {
		return "", engine.ErrGameOver
	}
	if name == "" {
		name = s.freeSeatName()
	}
	if _, err := s.table.AddPlayer(name); err != nil {
		return "", err
	}
	s.seats[name] = conn
	if s.host == "" {
		s.host = name
	}
	s.log.WithField("seat", name).Info("seat joined")
	s.logAction(name, "player_add", map[string]interface{}{"seats": s.table.NumPlayers()})

	if s.table.NumPlayers() >= s.Rules.MinPlayers {
		s.broadcast(Event{Type: EventStart, GameKey: s.GameKey})
	}
	return name, nil
}

// RemoveSeat drops a seat's connection. Before the start the seat leaves the
// table; afterwards it stays in play, marked disconnected.
func (s *Session) RemoveSeat(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.table.Player(name) == nil {
		return
	}
	delete(s.seats, name)
	if s.started {
		if !s.over {
			s.abandoned[name] = true
		}
	} else {
		delete(s.acked, name)
		if err := s.table.RemovePlayer(name); err != nil {
			s.log.WithError(err).WithField("seat", name).Warn("remove seat")
		}
		if name == s.host {
			s.host = ""
			if order := s.table.TurnOrder(); len(order) > 0 {
				s.host = order[0]
			}
			s.log.WithField("host", s.host).Info("host left, passing host")
		}
	}
	s.log.WithField("seat", name).Info("seat left")
	s.logAction(name, "player_disconnect", map[string]interface{}{"started": s.started})
	s.broadcast(Event{Type: EventPlayerLeft, Player: name, GameInfo: s.gameInfo()})
}

// AddWatcher registers a spectator and returns its handle.
func (s *Session) AddWatcher(conn Conn) uuid.UUID {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := uuid.New()
	s.watchers[id] = conn
	s.log.WithField("watcher", id).Debug("watcher joined")
	return id
}

// RemoveWatcher forgets a spectator. Unknown handles are ignored.
func (s *Session) RemoveWatcher(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.watchers, id)
}

// ---------------------------------------------------------------------------
// Inspection
// ---------------------------------------------------------------------------

// Seats returns the seat names in seating order.
func (s *Session) Seats() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.table.TurnOrder()
}

// Host returns the seat whose start_ack starts the game.
func (s *Session) Host() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.host
}

// Started reports whether the first turn has been dealt.
func (s *Session) Started() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

// Over reports whether the game has ended.
func (s *Session) Over() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.over
}

// Abandoned reports whether a seat lost its connection after the start.
func (s *Session) Abandoned(seat string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.abandoned[seat]
}

// Wait blocks until pending publish and persist calls have finished.
func (s *Session) Wait() {
	s.background.Wait()
}

// ---------------------------------------------------------------------------
// Delivery. All helpers assume lock is held by caller.
// ---------------------------------------------------------------------------

// sendToSeat delivers ev to one seat, dropping the connection if it fails.
func (s *Session) sendToSeat(seat string, ev Event) {
	conn := s.seats[seat]
	if conn == nil {
		return
	}
	if err := conn.Send(ev); err != nil {
		s.log.WithError(err).WithField("seat", seat).Warn("dropping seat connection")
		delete(s.seats, seat)
		if s.started && !s.over {
			s.abandoned[seat] = true
		}
	}
}

// sendToWatchers delivers ev to every spectator.
func (s *Session) sendToWatchers(ev Event) {
	for id, conn := range s.watchers {
		if err := conn.Send(ev); err != nil {
			s.log.WithError(err).WithField("watcher", id).Debug("dropping watcher")
			delete(s.watchers, id)
		}
	}
}

// broadcast delivers ev to every seat in seating order, then to the spectators.
func (s *Session) broadcast(ev Event) {
	for _, seat := range s.table.TurnOrder() {
		s.sendToSeat(seat, ev)
	}
	s.sendToWatchers(ev)
}

// sendError reports a rejected request to the seat that made it.
func (s *Session) sendError(seat string, err error) {
	s.log.WithFields(logrus.Fields{"seat": seat, "error": err}).Debug("request rejected")
	s.sendToSeat(seat, errorEvent(err))
}

// freeSeatName returns the first palette name not in use.
func (s *Session) freeSeatName() string {
	for _, name := range seatPalette {
		if s.table.Player(name) == nil {
			return name
		}
	}
	for i := len(seatPalette) + 1; ; i++ {
		name := fmt.Sprintf("player-%d", i)
		if s.table.Player(name) == nil {
			return name
		}
	}
}

// ---------------------------------------------------------------------------
// Background work
// ---------------------------------------------------------------------------

// logAction publishes an action record asynchronously. A nil publisher skips
// publishing; the index still advances. Assumes lock is held by caller.
func (s *Session) logAction(actor, actionType string, payload map[string]interface{}) {
	s.actionIndex++
	if s.publisher == nil {
		return
	}
	if payload == nil {
		payload = make(map[string]interface{})
	}
	rec := cache.GameActionRecord{
		GameID:        s.ID,
		ActionIndex:   s.actionIndex,
		Actor:         actor,
		ActionType:    actionType,
		ActionPayload: payload,
		Timestamp:     time.Now().UnixMilli(),
	}

	s.background.Add(1)
	go func(rec cache.GameActionRecord) {
		defer s.background.Done()
		ctx, cancel := context.WithTimeout(context.Background(), backgroundTimeout)
		defer cancel()
		if err := s.publisher.PublishGameAction(ctx, rec); err != nil {
			s.log.WithError(err).WithFields(logrus.Fields{
				"action": rec.ActionIndex,
				"type":   rec.ActionType,
			}).Error("failed publishing action")
		}
	}(rec)
}

// persistResult archives the final standings asynchronously. Assumes lock is
// held by caller.
func (s *Session) persistResult(res database.GameResult) {
	if s.results == nil {
		return
	}
	s.background.Add(1)
	go func() {
		defer s.background.Done()
		ctx, cancel := context.WithTimeout(context.Background(), backgroundTimeout)
		defer cancel()
		if err := s.results.SaveResult(ctx, res); err != nil {
			s.log.WithError(err).Error("failed persisting game result")
		}
	}()
}
