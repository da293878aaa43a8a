package transport

import (
	"context"
	"errors"
	"io"
	"net"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/linechat-server/internal/core"
	"github.com/vovakirdan/linechat-server/internal/utils"
)

// Conn is one client connection as seen by the session pump. Each transport
// frames lines its own way.
type Conn interface {
	// ReadLine blocks until the next complete inbound line arrives.
	ReadLine(ctx context.Context) (string, error)
	// WriteEvent delivers one notification to the peer.
	WriteEvent(ctx context.Context, ev *core.Event) error
	Close() error
	RemoteAddr() string
}

// registrationAware is implemented by connections whose framing changes once
// the session has a display name.
type registrationAware interface {
	MarkRegistered()
}

// Hub is the part of core.Hub a session needs.
type Hub interface {
	Register(ctx context.Context, c *core.Client, name string) error
	HandleLine(c *core.Client, line string) error
	Unregister(c *core.Client)
}

// Options tune a session.
type Options struct {
	OutboxSize int
}

// Serve runs one session to completion: it asks for a display name until the
// hub accepts one, then pumps lines in and events out. It returns once the
// hub has released the client and the connection is closed.
//
// ctx only bounds the handshake. After registration the session ends when the
// peer goes away or the hub closes the client's event queue.
func Serve(ctx context.Context, hub Hub, conn Conn, opts Options, logger *zerolog.Logger) error {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	closeConn := sync.OnceFunc(func() { _ = conn.Close() })
	defer closeConn()

	client := core.NewClient(utils.NewID(), opts.OutboxSize)
	log := logger.With().Str("client_id", client.ID).Str("remote", conn.RemoteAddr()).Logger()

	if err := handshake(ctx, hub, conn, client); err != nil {
		// Register may have been applied before ctx gave up on the reply.
		hub.Unregister(client)
		if isClosed(err) {
			log.Debug().Msg("connection closed before registration")
			return nil
		}
		log.Warn().Err(err).Msg("handshake failed")
		return err
	}
	if ra, ok := conn.(registrationAware); ok {
		ra.MarkRegistered()
	}
	log = log.With().Str("user", client.Name).Logger()

	sessionCtx := context.WithoutCancel(ctx)
	writeDone := make(chan struct{})
	go func() {
		defer close(writeDone)
		writeLoop(sessionCtx, hub, conn, client, &log)
		closeConn()
	}()

	err := readLoop(sessionCtx, hub, conn, client)
	hub.Unregister(client)
	<-writeDone

	if err != nil && !isClosed(err) {
		log.Warn().Err(err).Msg("session ended with error")
		return err
	}
	log.Debug().Msg("session closed")
	return nil
}

func handshake(ctx context.Context, hub Hub, conn Conn, client *core.Client) error {
	for {
		if err := conn.WriteEvent(ctx, &core.Event{Kind: core.EventLoginPrompt}); err != nil {
			return err
		}
		line, err := conn.ReadLine(ctx)
		if err != nil {
			return err
		}

		err = hub.Register(ctx, client, strings.TrimSpace(line))
		if err == nil {
			return nil
		}
		if errors.Is(err, core.ErrShuttingDown) {
			_ = conn.WriteEvent(ctx, &core.Event{Kind: core.EventShutdown})
			return io.EOF
		}
		coreErr, ok := core.AsCoreError(err)
		if !ok {
			return err
		}
		if err := conn.WriteEvent(ctx, &core.Event{Kind: core.EventError, Error: coreErr}); err != nil {
			return err
		}
	}
}

func readLoop(ctx context.Context, hub Hub, conn Conn, client *core.Client) error {
	for {
		line, err := conn.ReadLine(ctx)
		if err != nil {
			return err
		}
		if err := hub.HandleLine(client, line); err != nil {
			// The hub stopped; the shutdown notice is already queued.
			return nil
		}
	}
}

// writeLoop drains the client's queue until the hub closes it. A failed
// write unregisters the client but keeps draining so the hub never blocks
// on a dead session.
func writeLoop(ctx context.Context, hub Hub, conn Conn, client *core.Client, log *zerolog.Logger) {
	broken := false
	for ev := range client.Events {
		if broken {
			continue
		}
		if err := conn.WriteEvent(ctx, ev); err != nil {
			if !isClosed(err) {
				log.Warn().Err(err).Str("event", ev.Kind.String()).Msg("write event")
			}
			broken = true
			hub.Unregister(client)
		}
	}
}

func isClosed(err error) bool {
	return errors.Is(err, io.EOF) ||
		errors.Is(err, net.ErrClosed) ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}
