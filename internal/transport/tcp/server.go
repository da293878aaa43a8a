package tcp

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/linechat-server/internal/transport"
)

// DefaultMaxLineLength bounds a single inbound line.
const DefaultMaxLineLength = 4096

// Options configure the line listener.
type Options struct {
	MaxLineLength int
	OutboxSize    int
	WriteTimeout  time.Duration
}

// Server accepts newline-framed text clients and hands each one to the
// session pump.
type Server struct {
	addr     string
	hub      transport.Hub
	opts     Options
	log      *zerolog.Logger
	listener net.Listener
	sessions sync.WaitGroup
}

// NewServer builds a line server for addr. Nothing is bound until Listen or
// Serve is called.
func NewServer(addr string, hub transport.Hub, opts Options, logger *zerolog.Logger) *Server {
	if opts.MaxLineLength <= 0 {
		opts.MaxLineLength = DefaultMaxLineLength
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	l := logger.With().Str("transport", "tcp").Logger()
	return &Server{addr: addr, hub: hub, opts: opts, log: &l}
}

// Listen binds the listening socket.
func (s *Server) Listen() error {
	listener, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", s.addr, err)
	}
	s.listener = listener
	return nil
}

// Addr reports the bound address, or nil before Listen.
func (s *Server) Addr() net.Addr {
	if s.listener == nil {
		return nil
	}
	return s.listener.Addr()
}

// Close releases the listener without waiting for sessions.
func (s *Server) Close() error {
	if s.listener == nil {
		return nil
	}
	return s.listener.Close()
}

// Serve accepts connections until ctx is cancelled, then waits for every
// session to finish. Sessions end when the hub releases them, so the hub is
// expected to stop together with ctx.
func (s *Server) Serve(ctx context.Context) error {
	if s.listener == nil {
		if err := s.Listen(); err != nil {
			return err
		}
	}
	s.log.Info().Str("addr", s.listener.Addr().String()).Msg("line server listening")

	stop := context.AfterFunc(ctx, func() {
		_ = s.listener.Close()
	})
	defer stop()

	for {
		conn, acceptErr := s.listener.Accept()
		if acceptErr != nil {
			if errors.Is(acceptErr, net.ErrClosed) || ctx.Err() != nil {
				break
			}
			var netErr net.Error
			if errors.As(acceptErr, &netErr) && netErr.Timeout() {
				continue
			}
			// Live sessions finish once the hub stops.
			_ = s.listener.Close()
			return fmt.Errorf("accept: %w", acceptErr)
		}

		s.sessions.Add(1)
		go func() {
			defer s.sessions.Done()
			lc := newLineConn(conn, s.opts.MaxLineLength, s.opts.WriteTimeout)
			_ = transport.Serve(ctx, s.hub, lc, transport.Options{OutboxSize: s.opts.OutboxSize}, s.log)
		}()
	}

	s.sessions.Wait()
	s.log.Info().Msg("line server stopped")
	return nil
}
