// Package console is the operator's channel into a running server.
package console

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/linechat-server/internal/core"
)

// ErrQuit is returned by Run when the operator asks the server to stop.
var ErrQuit = errors.New("shutdown requested from console")

// Snapshotter reads a consistent copy of the hub state.
type Snapshotter interface {
	Snapshot(ctx context.Context) (core.Snapshot, error)
}

// Console executes operator commands read line by line from in.
type Console struct {
	hub Snapshotter
	in  io.Reader
	out io.Writer
	log *zerolog.Logger
}

// New creates a console over the given streams.
func New(hub Snapshotter, in io.Reader, out io.Writer, logger *zerolog.Logger) *Console {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Console{hub: hub, in: in, out: out, log: logger}
}

// Run serves commands until @quit (ErrQuit), end of input (nil) or ctx
// cancellation. The reader goroutine may outlive Run while in stays open.
func (c *Console) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(c.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-readErr:
			if err != nil {
				return fmt.Errorf("read console: %w", err)
			}
			c.log.Debug().Msg("console input closed")
			return nil
		case line := <-lines:
			if err := c.Exec(ctx, line); err != nil {
				return err
			}
		}
	}
}

// Exec runs a single console command.
func (c *Console) Exec(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}

	switch fields[0] {
	case "@quit":
		c.log.Info().Msg("console requested shutdown")
		return ErrQuit
	case "@names":
		snap, err := c.hub.Snapshot(ctx)
		if err != nil {
			return err
		}
		c.printNames(snap)
	case "@groups":
		snap, err := c.hub.Snapshot(ctx)
		if err != nil {
			return err
		}
		c.printGroups(snap)
	default:
		_, _ = fmt.Fprintf(c.out, "unknown command %q (available: @quit, @names, @groups)\n", fields[0])
	}
	return nil
}

func (c *Console) printNames(snap core.Snapshot) {
	table := c.newTable([]string{"#", "User"})
	for i, name := range snap.Sessions {
		table.Append([]string{fmt.Sprint(i + 1), name})
	}
	table.SetFooter([]string{"", fmt.Sprintf("%d online", len(snap.Sessions))})
	table.Render()
}

func (c *Console) printGroups(snap core.Snapshot) {
	table := c.newTable([]string{"Group", "Admins", "Members"})
	for _, g := range snap.Groups {
		table.Append([]string{g.Name, strings.Join(g.Admins, ", "), strings.Join(g.Members, ", ")})
	}
	table.Render()
}

func (c *Console) newTable(header []string) *tablewriter.Table {
	table := tablewriter.NewWriter(c.out)
	table.SetHeader(header)
	table.SetAutoWrapText(false)
	table.SetAutoFormatHeaders(true)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)
	return table
}
