package server

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/aguszorza/apuestas-game/internal/game"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
)

const writeTimeout = 5 * time.Second

var (
	errConnClosed   = errors.New("connection closed")
	errSlowConsumer = errors.New("send buffer full")
)

// wsConn queues outbound events for one websocket. A dedicated writer drains
// the queue so a slow client never blocks the session.
type wsConn struct {
	c    *websocket.Conn
	out  chan game.Event
	done chan struct{}
	once sync.Once
}

func newWSConn(c *websocket.Conn, buffer int) *wsConn {
	return &wsConn{
		c:    c,
		out:  make(chan game.Event, buffer),
		done: make(chan struct{}),
	}
}

// Send enqueues ev. A full queue closes the connection.
func (w *wsConn) Send(ev game.Event) error {
	select {
	case <-w.done:
		return errConnClosed
	default:
	}
	select {
	case w.out <- ev:
		return nil
	default:
		w.close()
		return errSlowConsumer
	}
}

// writeNow bypasses the queue. Used before the writer starts and for the
// final message of a rejected handshake.
func (w *wsConn) writeNow(ctx context.Context, ev game.Event) error {
	ctx, cancel := context.WithTimeout(ctx, writeTimeout)
	defer cancel()
	return wsjson.Write(ctx, w.c, ev)
}

// writeLoop drains the queue until the connection closes or a write fails.
func (w *wsConn) writeLoop(ctx context.Context) {
	defer w.c.CloseNow()
	for {
		select {
		case <-w.done:
			return
		case <-ctx.Done():
			return
		case ev := <-w.out:
			if err := w.writeNow(ctx, ev); err != nil {
				w.close()
				return
			}
		}
	}
}

func (w *wsConn) close() {
	w.once.Do(func() { close(w.done) })
}
