package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

var (
	addr  string
	wsURL string
)

var rootCmd = &cobra.Command{
	Use:   "linechat-client",
	Short: "Interactive client for a linechat server",
	Long: `Reads lines from stdin and sends them to the server; prints every
line the server sends back. Type @quit to leave.`,
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		if wsURL != "" {
			return runWS(ctx, wsURL, os.Stdin, os.Stdout)
		}
		return runTCP(ctx, addr, os.Stdin, os.Stdout)
	},
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.Flags().StringVar(&addr, "addr", "localhost:8888", "TCP address of the line listener")
	rootCmd.Flags().StringVar(&wsURL, "ws", "", "WebSocket URL (e.g. ws://localhost:8080/ws); overrides --addr")
}

// readInput forwards stdin lines until EOF or ctx is done.
func readInput(ctx context.Context, in io.Reader) <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
	}()
	return lines
}
