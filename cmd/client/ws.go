package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	"github.com/vovakirdan/linechat-server/internal/proto"
)

func runWS(ctx context.Context, url string, in io.Reader, out io.Writer) error {
	conn, _, err := websocket.Dial(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dial: %w", err)
	}
	defer conn.Close(websocket.StatusNormalClosure, "bye")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	received := make(chan error, 1)
	registered := make(chan struct{})
	go func() {
		defer cancel()
		received <- readFrames(ctx, conn, out, registered)
	}()

	lines := readInput(ctx, in)
	for {
		select {
		case <-ctx.Done():
			return quietlyWS(<-received)
		case line, ok := <-lines:
			if !ok {
				_ = conn.Close(websocket.StatusNormalClosure, "bye")
				return quietlyWS(<-received)
			}
			inbound, err := frameFor(line, registered)
			if err != nil {
				return err
			}
			if err := wsjson.Write(ctx, conn, inbound); err != nil {
				return fmt.Errorf("send: %w", err)
			}
		}
	}
}

// frameFor wraps a typed line: a hello until the server welcomes us, plain
// lines afterwards.
func frameFor(line string, registered <-chan struct{}) (proto.Inbound, error) {
	select {
	case <-registered:
		data, err := json.Marshal(proto.LineData{Text: line})
		return proto.Inbound{Type: proto.InboundTypeLine, Data: data}, err
	default:
		data, err := json.Marshal(proto.HelloData{User: strings.TrimSpace(line), Protocol: proto.ProtocolVersion})
		return proto.Inbound{Type: proto.InboundTypeHello, Data: data}, err
	}
}

func readFrames(ctx context.Context, conn *websocket.Conn, out io.Writer, registered chan<- struct{}) error {
	welcomed := false
	for {
		var outbound proto.Outbound
		if err := wsjson.Read(ctx, conn, &outbound); err != nil {
			return err
		}
		if !welcomed && outbound.Event == "welcome" {
			welcomed = true
			close(registered)
		}
		line := outbound.Line
		if line == "" && outbound.Error != nil {
			line = "[Error]: " + outbound.Error.Msg
		}
		_, _ = fmt.Fprintln(out, line)
	}
}

func quietlyWS(err error) error {
	if err == nil || errors.Is(err, context.Canceled) {
		return nil
	}
	switch websocket.CloseStatus(err) {
	case websocket.StatusNormalClosure, websocket.StatusGoingAway:
		return nil
	}
	return err
}
