package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"strings"
)

func runTCP(ctx context.Context, addr string, in io.Reader, out io.Writer) error {
	var d net.Dialer
	conn, err := d.DialContext(ctx, "tcp", addr)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	received := make(chan error, 1)
	go func() {
		defer cancel()
		received <- copyLines(conn, out)
	}()

	lines := readInput(ctx, in)
	for {
		select {
		case <-ctx.Done():
			_ = conn.Close()
			return quietly(<-received)
		case line, ok := <-lines:
			if !ok {
				_ = conn.Close()
				return quietly(<-received)
			}
			if _, err := io.WriteString(conn, line+"\n"); err != nil {
				return fmt.Errorf("send: %w", err)
			}
			if strings.TrimSpace(line) == "@quit" {
				return quietly(<-received)
			}
		}
	}
}

// copyLines prints server lines until the connection ends.
func copyLines(conn net.Conn, out io.Writer) error {
	reader := bufio.NewReader(conn)
	for {
		line, err := reader.ReadString('\n')
		if line != "" {
			_, _ = fmt.Fprintln(out, strings.TrimRight(line, "\r\n"))
		}
		if err != nil {
			return err
		}
	}
}

func quietly(err error) error {
	if err == nil || errors.Is(err, io.EOF) || errors.Is(err, net.ErrClosed) || errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
