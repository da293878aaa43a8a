package core

// DefaultOutboxSize is used when NewClient is given a non-positive size.
const DefaultOutboxSize = 64

// Client is a chat participant as seen by the core layer.
//
// The transport owns the connection. The hub only posts to Events and
// closes it exactly once when the session departs; the transport drains
// it and tears the connection down after it is closed.
type Client struct {
	ID     string
	Name   string
	Events chan *Event

	// Fields below are owned by the hub goroutine.
	registered bool
	departed   bool
	prompt     *prompt
}

// NewClient constructs a client with an initialized outbound queue.
func NewClient(id string, outbox int) *Client {
	if outbox <= 0 {
		outbox = DefaultOutboxSize
	}
	return &Client{
		ID:     id,
		Events: make(chan *Event, outbox),
	}
}
