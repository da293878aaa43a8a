package main

import (
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/vovakirdan/linechat-server/internal/app"
	"github.com/vovakirdan/linechat-server/internal/config"
	"github.com/vovakirdan/linechat-server/internal/log"
)

var overrides config.Config

var noConsole bool

// serveCmd runs the chat server.
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the chat server",
	RunE:  runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	addServeFlags(serveCmd)
}

func addServeFlags(cmd *cobra.Command) {
	flags := cmd.Flags()
	flags.StringVar(&overrides.Addr, "addr", "", "TCP line listener address")
	flags.StringVar(&overrides.HTTPAddr, "http-addr", "", "HTTP/WebSocket listener address")
	flags.DurationVar(&overrides.ReadHeaderTimeout, "read-header-timeout", 0, "HTTP read header timeout")
	flags.DurationVar(&overrides.ShutdownTimeout, "shutdown-timeout", 0, "Graceful shutdown timeout")
	flags.DurationVar(&overrides.PromptTimeout, "prompt-timeout", 0, "Expire unanswered prompts after this long")
	flags.IntVar(&overrides.MaxLineLength, "max-line-length", 0, "Maximum inbound line length in bytes")
	flags.IntVar(&overrides.OutboxSize, "outbox-size", 0, "Per-session outbound queue length")
	flags.BoolVar(&noConsole, "no-console", false, "Do not read operator commands from stdin")
}

func runServe(cmd *cobra.Command, _ []string) error {
	bootLog := log.New(logLevel)

	cfg, path, err := config.Load(bootLog, configFile)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	cfg.UpdateFrom(overrides)
	if logLevel != "" {
		cfg.LogLevel = logLevel
	}
	if noConsole {
		cfg.Console = false
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	logger := log.New(cfg.LogLevel)
	logger.Info().
		Str("config", path).
		Str("addr", cfg.Addr).
		Str("http_addr", cfg.HTTPAddr).
		Msg("starting linechat server")

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	application, err := app.New(&cfg, logger)
	if err != nil {
		return err
	}

	start := time.Now()
	if err := application.Run(ctx); err != nil {
		return fmt.Errorf("server exited with error: %w", err)
	}
	logger.Info().Dur("uptime", time.Since(start)).Msg("server stopped")
	return nil
}

