package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/aguszorza/apuestas-game/internal/auth"
	"github.com/aguszorza/apuestas-game/internal/config"
	"github.com/aguszorza/apuestas-game/internal/game"
	"github.com/aguszorza/apuestas-game/internal/registry"
	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wireEvent is the client-side view of an outbound event.
type wireEvent struct {
	Type        string          `json:"type"`
	Message     string          `json:"message"`
	Join        string          `json:"join"`
	Watch       string          `json:"watch"`
	GameKey     string          `json:"game_key"`
	FirstPlayer string          `json:"first_player"`
	Player      json.RawMessage `json:"player"`
	GameInfo    *game.GameInfo  `json:"game_info"`
}

func setupTestServer(t *testing.T) (*httptest.Server, string) {
	t.Helper()
	keys, err := auth.NewKeys([]byte("test-secret"))
	require.NoError(t, err)
	log := logrus.New()
	log.SetOutput(io.Discard)

	srv := New(config.Default(), registry.New(), keys, log)
	ts := httptest.NewServer(srv.RegisterRoutes())
	t.Cleanup(ts.Close)
	return ts, "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
}

func dial(t *testing.T, url string) *websocket.Conn {
	t.Helper()
	c, _, err := websocket.Dial(context.Background(), url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { c.CloseNow() })
	return c
}

func send(t *testing.T, c *websocket.Conn, msg map[string]interface{}) {
	t.Helper()
	require.NoError(t, wsjson.Write(context.Background(), c, msg))
}

func readEvent(t *testing.T, c *websocket.Conn) wireEvent {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	var ev wireEvent
	require.NoError(t, wsjson.Read(ctx, c, &ev))
	return ev
}

func games(t *testing.T, ts *httptest.Server) int {
	t.Helper()
	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var body struct {
		Status string `json:"status"`
		Games  int    `json:"games"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "ok", body.Status)
	return body.Games
}

// hostGame connects a host and returns its socket with the issued tokens.
func hostGame(t *testing.T, url string) (*websocket.Conn, string, string) {
	t.Helper()
	host := dial(t, url)
	send(t, host, map[string]interface{}{"type": "init"})
	ev := readEvent(t, host)
	require.Equal(t, "init", ev.Type)
	return host, ev.Join, ev.Watch
}

func TestHostReceivesTokens(t *testing.T) {
	ts, url := setupTestServer(t)
	assert.Equal(t, 0, games(t, ts))

	host, join, watch := hostGame(t, url)
	assert.Len(t, join, 16)
	assert.Len(t, watch, 16)
	assert.NotEqual(t, join, watch)
	assert.Equal(t, 1, games(t, ts))

	host.Close(websocket.StatusNormalClosure, "")
	assert.Eventually(t, func() bool { return games(t, ts) == 0 }, 5*time.Second, 20*time.Millisecond,
		"host leaving invalidates the game")
}

func TestRejectsUnknownToken(t *testing.T) {
	_, url := setupTestServer(t)

	c := dial(t, url)
	send(t, c, map[string]interface{}{"type": "init", "join": "nope"})
	ev := readEvent(t, c)
	assert.Equal(t, "error", ev.Type)
	assert.Equal(t, registry.ErrGameNotFound.Error(), ev.Message)
}

func TestRejectsNonInitFirstMessage(t *testing.T) {
	_, url := setupTestServer(t)

	c := dial(t, url)
	send(t, c, map[string]interface{}{"type": "bet", "bet": 0})
	ev := readEvent(t, c)
	assert.Equal(t, "error", ev.Type)
	assert.Contains(t, ev.Message, "init")
}

func TestGameFlow(t *testing.T) {
	_, url := setupTestServer(t)
	host, join, watch := hostGame(t, url)

	blue := dial(t, url)
	send(t, blue, map[string]interface{}{"type": "init", "join": join, "name": "blue"})
	green := dial(t, url)
	send(t, green, map[string]interface{}{"type": "init", "join": join, "name": "green"})

	// The third seat triggers the start prompt for everyone.
	var key string
	for _, c := range []*websocket.Conn{host, blue, green} {
		ev := readEvent(t, c)
		require.Equal(t, "start", ev.Type)
		require.NotEmpty(t, ev.GameKey)
		key = ev.GameKey
	}

	send(t, host, map[string]interface{}{"type": "start_ack", "game_key": key})
	for name, c := range map[string]*websocket.Conn{"red": host, "blue": blue, "green": green} {
		ev := readEvent(t, c)
		require.Equal(t, "start_turn", ev.Type, name)
		assert.Equal(t, "red", ev.FirstPlayer)

		var self game.SelfInfo
		require.NoError(t, json.Unmarshal(ev.Player, &self))
		assert.Equal(t, name, self.Name)
		assert.Len(t, self.Hand, 1)
		require.NotNil(t, ev.GameInfo)
		assert.NotNil(t, ev.GameInfo.Muestra)
	}

	send(t, blue, map[string]interface{}{"type": "bet", "bet": 0})
	ev := readEvent(t, blue)
	assert.Equal(t, "error", ev.Type)
	assert.Equal(t, "it isn't your turn", ev.Message)

	send(t, host, map[string]interface{}{"type": "bet", "bet": 0})
	for _, c := range []*websocket.Conn{host, blue, green} {
		ev := readEvent(t, c)
		require.Equal(t, "bet", ev.Type)
		assert.JSONEq(t, `"red"`, string(ev.Player))
		assert.Equal(t, "blue", ev.GameInfo.CurrentPlayer)
	}

	spectator := dial(t, url)
	send(t, spectator, map[string]interface{}{"type": "init", "watch": watch})
	send(t, spectator, map[string]interface{}{"type": "game_info"})
	ev = readEvent(t, spectator)
	require.Equal(t, "game_info", ev.Type)
	assert.Len(t, ev.GameInfo.PlayersInfo, 3)
	assert.Empty(t, ev.Player)

	green.Close(websocket.StatusNormalClosure, "")
	ev = readEvent(t, host)
	require.Equal(t, "player_left", ev.Type)
	assert.JSONEq(t, `"green"`, string(ev.Player))
	assert.False(t, ev.GameInfo.PlayersInfo["green"].Connected)
}
