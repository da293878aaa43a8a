package core

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Snapshot is a point-in-time copy of the hub state for read-only callers.
type Snapshot struct {
	Sessions []string
	Groups   []GroupSnapshot
}

// GroupSnapshot is a copy of one group's role sets.
type GroupSnapshot struct {
	Name    string
	Admins  []string
	Members []string
}

// request is a unit of work executed on the hub goroutine.
type request interface {
	apply(h *Hub)
}

type registerRequest struct {
	client *Client
	name   string
	reply  chan error
}

type lineRequest struct {
	client *Client
	line   string
}

type unregisterRequest struct {
	client *Client
}

type snapshotRequest struct {
	reply chan Snapshot
}

type promptExpiredRequest struct {
	client *Client
	prompt *prompt
}

type shutdownRequest struct{}

// Hub owns the Registry and the GroupStore. Every mutation and every fan-out
// runs on the single goroutine started by Run, so snapshots used for delivery
// are always consistent with concurrent joins and departures.
type Hub struct {
	requests      chan request
	done          chan struct{}
	registry      *Registry
	groups        *GroupStore
	overflow      []*Client
	promptTimeout time.Duration
	log           *zerolog.Logger
}

// NewHub creates a new chat hub instance. A positive promptTimeout expires
// pending confirmation prompts as if they were declined.
func NewHub(logger *zerolog.Logger, promptTimeout time.Duration) *Hub {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	registry := NewRegistry()
	return &Hub{
		requests:      make(chan request),
		done:          make(chan struct{}),
		registry:      registry,
		groups:        NewGroupStore(registry),
		promptTimeout: promptTimeout,
		log:           logger,
	}
}

// Run processes requests until ctx is cancelled or Shutdown is called.
// Before returning it notifies and tears down every session.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)

	for {
		select {
		case <-ctx.Done():
			h.shutdownAll()
			return
		case req := <-h.requests:
			if _, ok := req.(shutdownRequest); ok {
				h.shutdownAll()
				return
			}
			req.apply(h)
			h.dropOverflow()
		}
	}
}

// Done is closed once Run has returned and every session was released.
func (h *Hub) Done() <-chan struct{} {
	return h.done
}

// Register binds the validated, unique name to c, greets it and announces it
// to everyone else.
func (h *Hub) Register(ctx context.Context, c *Client, name string) error {
	reply := make(chan error, 1)
	if err := h.post(ctx, registerRequest{client: c, name: name, reply: reply}); err != nil {
		return err
	}
	select {
	case err := <-reply:
		return err
	case <-ctx.Done():
		return ctx.Err()
	case <-h.done:
		return coreError(ErrCodeShuttingDown, "Server is shutting down")
	}
}

// HandleLine routes one inbound line from c. Lines from the same client are
// applied in the order they are posted.
func (h *Hub) HandleLine(c *Client, line string) error {
	return h.post(context.Background(), lineRequest{client: c, line: line})
}

// Unregister runs the departure cleanup for c. It is idempotent and does not
// block once the hub has stopped.
func (h *Hub) Unregister(c *Client) {
	_ = h.post(context.Background(), unregisterRequest{client: c})
}

// Snapshot returns the connected names and every group's role sets.
func (h *Hub) Snapshot(ctx context.Context) (Snapshot, error) {
	reply := make(chan Snapshot, 1)
	if err := h.post(ctx, snapshotRequest{reply: reply}); err != nil {
		return Snapshot{}, err
	}
	select {
	case snap := <-reply:
		return snap, nil
	case <-ctx.Done():
		return Snapshot{}, ctx.Err()
	}
}

// Shutdown notifies every session that the server is stopping, tears all of
// them down and stops the hub. It returns once Run has exited.
func (h *Hub) Shutdown() {
	_ = h.post(context.Background(), shutdownRequest{})
	<-h.done
}

func (h *Hub) post(ctx context.Context, req request) error {
	select {
	case h.requests <- req:
		return nil
	case <-h.done:
		return coreError(ErrCodeShuttingDown, "Server is shutting down")
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (r registerRequest) apply(h *Hub) {
	if r.client.departed {
		r.reply <- coreError(ErrCodeShuttingDown, "Session already closed")
		return
	}
	if err := h.registry.Register(r.client, r.name); err != nil {
		r.reply <- err
		return
	}
	r.client.registered = true
	h.log.Info().Str("client_id", r.client.ID).Str("user", r.name).Int("online", h.registry.Len()).Msg("user registered")

	h.send(r.client, &Event{Kind: EventWelcome, User: r.name})
	h.systemAll(&Event{Kind: EventUserJoined, User: r.name}, r.client)
	r.reply <- nil
}

func (r lineRequest) apply(h *Hub) {
	h.route(r.client, r.line)
}

func (r unregisterRequest) apply(h *Hub) {
	h.depart(r.client)
}

func (r snapshotRequest) apply(h *Hub) {
	snap := Snapshot{Sessions: h.registry.Names()}
	for _, name := range h.groups.Names() {
		g := h.groups.groups[name]
		snap.Groups = append(snap.Groups, GroupSnapshot{
			Name:    name,
			Admins:  g.Admins(),
			Members: g.Members(),
		})
	}
	r.reply <- snap
}

func (r promptExpiredRequest) apply(h *Hub) {
	if r.client.departed || r.client.prompt != r.prompt {
		return
	}
	h.log.Debug().Str("user", r.client.Name).Msg("prompt expired")
	h.resolvePrompt(r.client, "")
}

func (shutdownRequest) apply(*Hub) {}
