package tcp

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/vovakirdan/linechat-server/internal/core"
)

type testClient struct {
	conn   net.Conn
	reader *bufio.Reader
}

func startServer(t *testing.T, opts Options) (string, context.CancelFunc, <-chan error) {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	hub := core.NewHub(nil, 0)
	go hub.Run(ctx)

	srv := NewServer("127.0.0.1:0", hub, opts, nil)
	require.NoError(t, srv.Listen())

	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-hub.Done()
	})
	return srv.Addr().String(), cancel, done
}

func dial(t *testing.T, addr string) *testClient {
	t.Helper()

	conn, err := net.DialTimeout("tcp", addr, 2*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return &testClient{conn: conn, reader: bufio.NewReader(conn)}
}

func (c *testClient) send(t *testing.T, line string) {
	t.Helper()
	_, err := io.WriteString(c.conn, line)
	require.NoError(t, err)
}

func (c *testClient) expect(t *testing.T, want string) {
	t.Helper()

	require.NoError(t, c.conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		line, err := c.reader.ReadString('\n')
		require.NoError(t, err, "waiting for %q", want)
		if strings.TrimSuffix(line, "\n") == want {
			return
		}
	}
}

// expectClosed reads until the server hangs up. Unread input on the server
// side may turn the close into a reset, so any non-timeout error counts.
func (c *testClient) expectClosed(t *testing.T) {
	t.Helper()

	require.NoError(t, c.conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	for {
		if _, err := c.reader.ReadString('\n'); err != nil {
			var netErr net.Error
			if errors.As(err, &netErr) && netErr.Timeout() {
				t.Fatal("connection still open")
			}
			return
		}
	}
}

func login(t *testing.T, addr, name string) *testClient {
	t.Helper()

	c := dial(t, addr)
	c.expect(t, "Enter your username: ")
	c.send(t, name+"\n")
	c.expect(t, "[Welcome "+name+"!]")
	return c
}

func TestServer_ChatOverLines(t *testing.T) {
	addr, _, _ := startServer(t, Options{})

	alice := login(t, addr, "alice")
	bob := login(t, addr, "bob")
	alice.expect(t, "[bob joined]")

	bob.send(t, "hello all\r\n")
	alice.expect(t, "[bob]: hello all")

	alice.send(t, "@group set team bob\n")
	alice.expect(t, "[You created the team group with bob]")
	bob.expect(t, "[You are enrolled. alice added you to the team group]")

	bob.send(t, "@group send team hi\n")
	bob.expect(t, "[myself (group team)]: hi")
	alice.expect(t, "[bob (group team)]: hi")

	bob.send(t, "@names\n")
	bob.expect(t, "Connected users: alice, bob")
}

func TestServer_DuplicateNameReprompts(t *testing.T) {
	addr, _, _ := startServer(t, Options{})
	_ = login(t, addr, "alice")

	c := dial(t, addr)
	c.expect(t, "Enter your username: ")
	c.send(t, "Alice\n")
	c.expect(t, "[Existing Username. Please enter another name instead.]")
	c.expect(t, "Enter your username: ")
	c.send(t, "carol\n")
	c.expect(t, "[Welcome carol!]")
}

func TestServer_QuitClosesConnection(t *testing.T) {
	addr, _, _ := startServer(t, Options{})
	alice := login(t, addr, "alice")
	bob := login(t, addr, "bob")

	bob.send(t, "@quit\n")
	bob.expectClosed(t)
	alice.expect(t, "[bob exited]")
}

func TestServer_DropsOverlongLines(t *testing.T) {
	addr, _, _ := startServer(t, Options{MaxLineLength: 32})
	alice := login(t, addr, "alice")
	bob := login(t, addr, "bob")

	bob.send(t, strings.Repeat("x", 100)+"\n")
	bob.expectClosed(t)
	alice.expect(t, "[bob exited]")
}

func TestServer_ShutdownNotifiesClients(t *testing.T) {
	addr, cancel, done := startServer(t, Options{})
	alice := login(t, addr, "alice")

	// A session still in the handshake is released too.
	pending := dial(t, addr)
	pending.expect(t, "Enter your username: ")

	cancel()
	alice.expect(t, "[Server is shutting down]")
	alice.expectClosed(t)
	pending.expectClosed(t)

	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("server did not stop")
	}
}
