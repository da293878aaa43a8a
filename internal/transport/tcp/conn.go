package tcp

import (
	"bufio"
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"time"

	"github.com/vovakirdan/linechat-server/internal/core"
	"github.com/vovakirdan/linechat-server/internal/transport"
)

// lineConn frames a net.Conn as newline-terminated text lines.
type lineConn struct {
	conn         net.Conn
	scanner      *bufio.Scanner
	writeTimeout time.Duration
}

func newLineConn(conn net.Conn, maxLine int, writeTimeout time.Duration) *lineConn {
	scanner := bufio.NewScanner(conn)
	scanner.Buffer(make([]byte, 0, min(maxLine, 4096)), maxLine)
	return &lineConn{conn: conn, scanner: scanner, writeTimeout: writeTimeout}
}

// ReadLine returns the next line without its terminator. Cancelling ctx
// unblocks a pending read.
func (c *lineConn) ReadLine(ctx context.Context) (string, error) {
	stop := context.AfterFunc(ctx, func() {
		_ = c.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	if !c.scanner.Scan() {
		err := c.scanner.Err()
		if err == nil {
			return "", io.EOF
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", err
	}
	return strings.TrimSuffix(c.scanner.Text(), "\r"), nil
}

func (c *lineConn) WriteEvent(_ context.Context, ev *core.Event) error {
	line := transport.Render(ev)
	if line == "" {
		return nil
	}
	if c.writeTimeout > 0 {
		if err := c.conn.SetWriteDeadline(time.Now().Add(c.writeTimeout)); err != nil {
			return err
		}
	}
	_, err := io.WriteString(c.conn, line+"\n")
	return err
}

func (c *lineConn) Close() error {
	err := c.conn.Close()
	if errors.Is(err, net.ErrClosed) {
		return nil
	}
	return err
}

func (c *lineConn) RemoteAddr() string {
	return c.conn.RemoteAddr().String()
}
