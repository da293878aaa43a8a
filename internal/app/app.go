package app

import (
	"context"
	"errors"
	"fmt"
	"net"
	stdhttp "net/http"
	"os"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/vovakirdan/linechat-server/internal/config"
	"github.com/vovakirdan/linechat-server/internal/console"
	"github.com/vovakirdan/linechat-server/internal/core"
	transporthttp "github.com/vovakirdan/linechat-server/internal/transport/http"
	"github.com/vovakirdan/linechat-server/internal/transport/tcp"
)

// App wires together core and transport layers.
type App struct {
	cfg     *config.Config
	hub     *core.Hub
	line    *tcp.Server
	httpLn  net.Listener
	console *console.Console
	log     *zerolog.Logger
}

// New constructs the application and binds its listeners, so address
// conflicts surface before Run.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	hub := core.NewHub(logger, cfg.PromptTimeout)

	line := tcp.NewServer(cfg.Addr, hub, tcp.Options{
		MaxLineLength: cfg.MaxLineLength,
		OutboxSize:    cfg.OutboxSize,
		WriteTimeout:  cfg.WriteTimeout,
	}, logger)
	if err := line.Listen(); err != nil {
		return nil, err
	}

	a := &App{cfg: cfg, hub: hub, line: line, log: logger}

	if cfg.HTTPAddr != "" {
		ln, err := net.Listen("tcp", cfg.HTTPAddr)
		if err != nil {
			_ = a.line.Close()
			return nil, fmt.Errorf("listen %s: %w", cfg.HTTPAddr, err)
		}
		a.httpLn = ln
	}

	if cfg.Console {
		a.console = console.New(hub, os.Stdin, os.Stdout, logger)
	}
	return a, nil
}

// LineAddr reports the bound address of the line listener.
func (a *App) LineAddr() net.Addr {
	return a.line.Addr()
}

// HTTPAddr reports the bound HTTP address, or nil when HTTP is disabled.
func (a *App) HTTPAddr() net.Addr {
	if a.httpLn == nil {
		return nil
	}
	return a.httpLn.Addr()
}

// Run serves until ctx is cancelled, the console asks to quit or a listener
// fails. Every session is notified and released before it returns.
func (a *App) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.hub.Run(ctx)
		return nil
	})
	g.Go(func() error {
		return a.line.Serve(ctx)
	})

	if a.httpLn != nil {
		server := transporthttp.NewServer(ctx, a.hub, a.cfg, a.log)
		g.Go(func() error {
			a.log.Info().Str("addr", a.httpLn.Addr().String()).Msg("http server listening")
			if err := server.Serve(a.httpLn); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
				return fmt.Errorf("http server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			<-a.hub.Done()

			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), a.cfg.ShutdownTimeout)
			defer cancel()

			a.log.Info().Msg("shutting down http server")
			return server.Shutdown(shutdownCtx)
		})
	}

	if a.console != nil {
		g.Go(func() error {
			return a.console.Run(ctx)
		})
	}

	err := g.Wait()
	if errors.Is(err, console.ErrQuit) {
		return nil
	}
	return err
}
