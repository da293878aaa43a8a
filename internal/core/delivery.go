package core

import (
	"time"

	"github.com/samber/lo"
)

// send queues ev for c without blocking the hub. A client whose queue is
// full is scheduled for disconnection once the current request finishes.
func (h *Hub) send(c *Client, ev *Event) {
	if c == nil || c.departed {
		return
	}
	select {
	case c.Events <- ev:
	default:
		h.log.Warn().Str("client_id", c.ID).Str("user", c.Name).Msg("outbox full, dropping client")
		h.overflow = append(h.overflow, c)
	}
}

func (h *Hub) sendError(c *Client, err *CoreError) {
	h.send(c, &Event{Kind: EventError, Error: err})
}

func (h *Hub) notice(c *Client, text string) {
	h.send(c, &Event{Kind: EventNotice, Text: text})
}

// sendTo delivers to a display name. Participants that are not connected
// are skipped.
func (h *Hub) sendTo(name string, ev *Event) {
	c, err := h.registry.Lookup(name)
	if err != nil {
		return
	}
	h.send(c, ev)
}

// sendToAll delivers ev to every name in names except skip.
func (h *Hub) sendToAll(names []string, skip []string, ev *Event) {
	for _, name := range names {
		if lo.Contains(skip, name) {
			continue
		}
		h.sendTo(name, ev)
	}
}

// systemAll delivers an untagged event to every registered session other
// than except.
func (h *Hub) systemAll(ev *Event, except *Client) {
	for _, c := range h.registry.Sessions() {
		if c == except {
			continue
		}
		h.send(c, ev)
	}
}

// broadcast delivers user text to every session except its author.
func (h *Hub) broadcast(from *Client, text string) {
	ev := &Event{
		Kind:    EventBroadcast,
		User:    from.Name,
		Message: Message{From: from.Name, Text: text, CreatedAt: time.Now()},
	}
	h.systemAll(ev, from)
}

// direct delivers user text to one named recipient.
func (h *Hub) direct(from *Client, to, text string) {
	target, err := h.registry.Lookup(to)
	if err != nil {
		h.sendError(from, err)
		return
	}
	h.send(target, &Event{
		Kind:    EventDirect,
		User:    from.Name,
		Message: Message{From: from.Name, To: target.Name, Text: text, CreatedAt: time.Now()},
	})
}

// dropOverflow disconnects clients that could not keep up. Departure notices
// may overflow further clients, so it loops until the list is empty.
func (h *Hub) dropOverflow() {
	for len(h.overflow) > 0 {
		c := h.overflow[0]
		h.overflow = h.overflow[1:]
		h.depart(c)
	}
}
