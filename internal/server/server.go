// Package server exposes game sessions over websockets.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/aguszorza/apuestas-game/internal/auth"
	"github.com/aguszorza/apuestas-game/internal/config"
	"github.com/aguszorza/apuestas-game/internal/game"
	"github.com/aguszorza/apuestas-game/internal/registry"
	"github.com/coder/websocket"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Server accepts websocket clients and routes them to sessions by their init message.
type Server struct {
	cfg       config.Config
	registry  *registry.Registry
	keys      *auth.Keys
	publisher game.ActionPublisher
	results   game.ResultStore
	log       *logrus.Logger
}

// Option customizes a Server.
type Option func(*Server)

// WithPublisher sends every session's actions to p.
func WithPublisher(p game.ActionPublisher) Option {
	return func(s *Server) { s.publisher = p }
}

// WithResultStore archives finished games in r.
func WithResultStore(r game.ResultStore) Option {
	return func(s *Server) { s.results = r }
}

// New builds a server. The registry and keys are shared across all connections.
func New(cfg config.Config, reg *registry.Registry, keys *auth.Keys, log *logrus.Logger, opts ...Option) *Server {
	s := &Server{cfg: cfg, registry: reg, keys: keys, log: log}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RegisterRoutes returns the HTTP handler serving /ws and /healthz.
func (s *Server) RegisterRoutes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/ws", s.websocketHandler)
	mux.HandleFunc("GET /healthz", s.healthHandler)
	return mux
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"status": "ok",
		"games":  s.registry.Len(),
	})
}

func (s *Server) websocketHandler(w http.ResponseWriter, r *http.Request) {
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{OriginPatterns: s.cfg.OriginPatterns})
	if err != nil {
		s.log.WithError(err).Warn("websocket accept failed")
		return
	}
	defer c.CloseNow()

	ctx := r.Context()
	conn := newWSConn(c, s.cfg.SendBuffer)
	defer conn.close()

	_, raw, err := c.Read(ctx)
	if err != nil {
		return
	}
	msg, err := game.DecodeMessage(raw)
	if err == nil && msg.Type != game.MsgInit {
		err = errors.New("the first message must be init")
	}
	if err != nil {
		s.reject(ctx, conn, err)
		return
	}

	switch {
	case msg.Join != "":
		s.serveJoin(ctx, conn, msg)
	case msg.Watch != "":
		s.serveWatch(ctx, conn, msg)
	default:
		s.serveHost(ctx, conn, msg)
	}
}

// reject sends a final error event and closes the socket.
func (s *Server) reject(ctx context.Context, conn *wsConn, err error) {
	s.log.WithError(err).Debug("rejecting connection")
	if werr := conn.writeNow(ctx, game.Event{Type: game.EventError, Message: err.Error()}); werr != nil {
		return
	}
	conn.c.Close(websocket.StatusPolicyViolation, "rejected")
}

// serveHost creates a session, hands the tokens to the host and seats it.
func (s *Server) serveHost(ctx context.Context, conn *wsConn, msg game.Inbound) {
	id := uuid.New()
	key, err := s.keys.IssueGameKey(id)
	if err != nil {
		s.log.WithError(err).Error("issuing game key")
		s.reject(ctx, conn, errors.New("internal error"))
		return
	}
	sess := game.NewSession(game.Options{
		ID:        id,
		Rules:     game.HouseRules{MaxCards: s.cfg.MaxCards, MinPlayers: s.cfg.MinPlayers},
		GameKey:   key,
		Keys:      s.keys,
		Publisher: s.publisher,
		Results:   s.results,
		Logger:    s.log,
	})
	join, watch, err := s.registry.Create(sess)
	if err != nil {
		s.log.WithError(err).Error("registering game")
		s.reject(ctx, conn, errors.New("internal error"))
		return
	}
	defer s.registry.Invalidate(join, watch)

	if err := conn.writeNow(ctx, game.Event{Type: game.EventInit, Join: join, Watch: watch}); err != nil {
		return
	}
	s.log.WithField("game", id).Info("game created")
	s.serveSeat(ctx, conn, sess, msg.Name)
}

// serveJoin seats a player in an existing session.
func (s *Server) serveJoin(ctx context.Context, conn *wsConn, msg game.Inbound) {
	sess, err := s.registry.LookupJoin(msg.Join)
	if err != nil {
		s.reject(ctx, conn, err)
		return
	}
	s.serveSeat(ctx, conn, sess, msg.Name)
}

func (s *Server) serveSeat(ctx context.Context, conn *wsConn, sess *game.Session, name string) {
	seat, err := sess.AddSeat(name, conn)
	if err != nil {
		s.reject(ctx, conn, err)
		return
	}
	defer sess.RemoveSeat(seat)
	go conn.writeLoop(ctx)

	s.readLoop(ctx, conn, func(raw []byte) {
		if err := sess.HandleMessage(seat, raw); err != nil && !game.IsRuleError(err) {
			s.log.WithError(err).WithField("seat", seat).Error("handling message")
		}
	})
}

// serveWatch attaches a spectator to an existing session.
func (s *Server) serveWatch(ctx context.Context, conn *wsConn, msg game.Inbound) {
	sess, err := s.registry.LookupWatch(msg.Watch)
	if err != nil {
		s.reject(ctx, conn, err)
		return
	}
	id := sess.AddWatcher(conn)
	defer sess.RemoveWatcher(id)
	go conn.writeLoop(ctx)

	s.readLoop(ctx, conn, func(raw []byte) {
		sess.HandleWatcherMessage(id, raw)
	})
}

// readLoop feeds frames to handle until the client goes away or the
// connection is dropped for falling behind.
func (s *Server) readLoop(ctx context.Context, conn *wsConn, handle func([]byte)) {
	for {
		_, raw, err := conn.c.Read(ctx)
		if err != nil {
			if status := websocket.CloseStatus(err); status != websocket.StatusNormalClosure && status != websocket.StatusGoingAway {
				s.log.WithError(err).Debug("read loop ended")
			}
			return
		}
		select {
		case <-conn.done:
			return
		default:
		}
		handle(raw)
	}
}
