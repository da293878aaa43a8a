package http

import (
	"context"
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/linechat-server/internal/config"
	"github.com/vovakirdan/linechat-server/internal/core"
	"github.com/vovakirdan/linechat-server/internal/proto"
)

func startTestServer(t *testing.T, mutate func(*config.Config)) (*httptest.Server, *core.Hub) {
	t.Helper()

	hub := core.NewHub(nil, 0)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	cfg := config.Default()
	if mutate != nil {
		mutate(&cfg)
	}
	logger := zerolog.Nop()
	server := NewServer(ctx, hub, &cfg, &logger)

	ts := httptest.NewServer(server.Handler)
	t.Cleanup(func() {
		cancel()
		<-hub.Done()
		ts.Close()
	})
	return ts, hub
}

func dialWS(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	wsURL := strings.Replace(ts.URL, "http", "ws", 1) + "/ws"
	conn, _, err := websocket.Dial(ctx, wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close(websocket.StatusNormalClosure, "done") })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, typ string, payload any) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	data, err := json.Marshal(payload)
	require.NoError(t, err)
	require.NoError(t, wsjson.Write(ctx, conn, proto.Inbound{Type: typ, Data: data}))
}

func sendLine(t *testing.T, conn *websocket.Conn, text string) {
	t.Helper()
	send(t, conn, proto.InboundTypeLine, proto.LineData{Text: text})
}

// expectEvent reads frames until one with the given event name arrives.
func expectEvent(t *testing.T, conn *websocket.Conn, event string) (proto.Outbound, proto.EventData) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	for {
		var raw struct {
			proto.Outbound
			Data json.RawMessage `json:"data"`
		}
		require.NoError(t, wsjson.Read(ctx, conn, &raw), "waiting for %s", event)

		if raw.Event != event && !(event == "error" && raw.Type == proto.OutboundTypeError) {
			continue
		}
		var data proto.EventData
		if len(raw.Data) > 0 {
			require.NoError(t, json.Unmarshal(raw.Data, &data))
		}
		return raw.Outbound, data
	}
}

func hello(t *testing.T, ts *httptest.Server, name string) *websocket.Conn {
	t.Helper()

	conn := dialWS(t, ts)
	out, _ := expectEvent(t, conn, "login_prompt")
	require.Equal(t, "Enter your username: ", out.Line)

	send(t, conn, proto.InboundTypeHello, proto.HelloData{User: name, Protocol: proto.ProtocolVersion})
	out, data := expectEvent(t, conn, "welcome")
	require.Equal(t, name, data.User)
	require.Equal(t, "[Welcome "+name+"!]", out.Line)
	return conn
}

func TestHealthEndpoint(t *testing.T) {
	ts, _ := startTestServer(t, nil)

	resp, err := ts.Client().Get(ts.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, 200, resp.StatusCode)
}

func TestWebSocketHelloAndBroadcast(t *testing.T) {
	ts, _ := startTestServer(t, nil)

	alice := hello(t, ts, "alice")
	bob := hello(t, ts, "bob")
	_, joined := expectEvent(t, alice, "user_joined")
	require.Equal(t, "bob", joined.User)

	sendLine(t, alice, "hi there")
	out, data := expectEvent(t, bob, "broadcast")
	require.Equal(t, "alice", data.User)
	require.Equal(t, "hi there", data.Text)
	require.NotZero(t, data.TS)
	require.Equal(t, "[alice]: hi there", out.Line)
}

func TestWebSocketGroupFlow(t *testing.T) {
	ts, _ := startTestServer(t, nil)

	alice := hello(t, ts, "alice")
	bob := hello(t, ts, "bob")

	sendLine(t, alice, "@group set team bob")
	_, created := expectEvent(t, alice, "group_created")
	require.Equal(t, "team", created.Group)
	expectEvent(t, bob, "group_enrolled")

	sendLine(t, bob, "@group send team ready")
	_, own := expectEvent(t, bob, "group_message")
	require.True(t, own.Self)
	out, other := expectEvent(t, alice, "group_message")
	require.False(t, other.Self)
	require.Equal(t, "[bob (group team)]: ready", out.Line)

	sendLine(t, bob, "@group delete team")
	out, _ = expectEvent(t, bob, "error")
	require.Equal(t, core.ErrCodeNotAuthorized, out.Error.Code)
}

func TestWebSocketDuplicateName(t *testing.T) {
	ts, _ := startTestServer(t, nil)
	_ = hello(t, ts, "alice")

	conn := dialWS(t, ts)
	expectEvent(t, conn, "login_prompt")
	send(t, conn, proto.InboundTypeHello, proto.HelloData{User: "Alice"})
	out, _ := expectEvent(t, conn, "error")
	require.Equal(t, core.ErrCodeNameTaken, out.Error.Code)
	expectEvent(t, conn, "login_prompt")
}

func TestWebSocketRejectsUnknownFrames(t *testing.T) {
	ts, _ := startTestServer(t, nil)
	alice := hello(t, ts, "alice")

	send(t, alice, "bogus", map[string]string{})
	out, _ := expectEvent(t, alice, "error")
	require.Equal(t, errCodeInvalidMessage, out.Error.Code)

	send(t, alice, proto.InboundTypeHello, proto.HelloData{User: "again"})
	out, _ = expectEvent(t, alice, "error")
	require.Equal(t, errCodeUnexpectedHello, out.Error.Code)
}

func TestWebSocketLineBeforeHelloRejected(t *testing.T) {
	ts, hub := startTestServer(t, nil)
	conn := dialWS(t, ts)
	expectEvent(t, conn, "login_prompt")

	sendLine(t, conn, "alice")
	out, _ := expectEvent(t, conn, "error")
	require.Equal(t, errCodeInvalidMessage, out.Error.Code)

	snap, err := hub.Snapshot(context.Background())
	require.NoError(t, err)
	require.Empty(t, snap.Sessions)

	send(t, conn, proto.InboundTypeHello, proto.HelloData{User: "alice"})
	expectEvent(t, conn, "welcome")

	send(t, conn, proto.InboundTypeHello, proto.HelloData{User: "alice"})
	out, _ = expectEvent(t, conn, "error")
	require.Equal(t, errCodeUnexpectedHello, out.Error.Code)
}

func TestWebSocketStalledPeerReleased(t *testing.T) {
	hub := core.NewHub(nil, 0)
	ctx, cancel := context.WithCancel(context.Background())
	go hub.Run(ctx)

	var active atomic.Int32
	logger := zerolog.Nop()
	ws := NewWSHandler(hub, WSOptions{
		OutboxSize:   4,
		WriteTimeout: 200 * time.Millisecond,
	}, &logger)
	ts := httptest.NewServer(stdhttp.HandlerFunc(func(w stdhttp.ResponseWriter, r *stdhttp.Request) {
		active.Add(1)
		defer active.Add(-1)
		ws.ServeHTTP(w, r)
	}))
	t.Cleanup(func() {
		cancel()
		<-hub.Done()
		ts.Close()
	})

	wsURL := strings.Replace(ts.URL, "http", "ws", 1)
	dialCtx, dialCancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer dialCancel()
	slow, _, err := websocket.Dial(dialCtx, wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = slow.CloseNow() })
	expectEvent(t, slow, "login_prompt")
	send(t, slow, proto.InboundTypeHello, proto.HelloData{User: "slow"})
	expectEvent(t, slow, "welcome")

	talker := core.NewClient("talker-id", 1024)
	require.NoError(t, hub.Register(context.Background(), talker, "talker"))
	go func() {
		for range talker.Events {
		}
	}()

	// slow never reads again, so its socket buffers fill and its outbox overflows.
	payload := strings.Repeat("x", 60*1024)
	for i := 0; i < 400; i++ {
		require.NoError(t, hub.HandleLine(talker, payload))
	}

	require.Eventually(t, func() bool {
		snap, err := hub.Snapshot(context.Background())
		return err == nil && len(snap.Sessions) == 1
	}, 3*time.Second, 20*time.Millisecond)
	require.Eventually(t, func() bool {
		return active.Load() == 0
	}, 3*time.Second, 20*time.Millisecond, "stalled connection was not released")
}

func TestWebSocketRateLimit(t *testing.T) {
	ts, _ := startTestServer(t, func(cfg *config.Config) { cfg.WSRateLimit = 2 })
	alice := hello(t, ts, "alice")

	// The hello frame used one slot.
	sendLine(t, alice, "@names")
	expectEvent(t, alice, "names")
	sendLine(t, alice, "@names")
	out, _ := expectEvent(t, alice, "error")
	require.Equal(t, errCodeRateLimited, out.Error.Code)
}

func TestAPISnapshots(t *testing.T) {
	ts, _ := startTestServer(t, nil)
	alice := hello(t, ts, "alice")
	_ = hello(t, ts, "bob")

	sendLine(t, alice, "@group set team bob")
	expectEvent(t, alice, "group_created")

	resp, err := ts.Client().Get(ts.URL + "/api/sessions")
	require.NoError(t, err)
	var sessions SessionsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&sessions))
	_ = resp.Body.Close()
	require.Equal(t, []string{"alice", "bob"}, sessions.Sessions)
	require.Equal(t, 2, sessions.Count)

	resp, err = ts.Client().Get(ts.URL + "/api/groups")
	require.NoError(t, err)
	var groups GroupsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&groups))
	_ = resp.Body.Close()
	require.Equal(t, []GroupResponse{{Name: "team", Admins: []string{"alice"}, Members: []string{"bob"}}}, groups.Groups)
}
