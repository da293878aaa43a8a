package core

// depart tears a session down exactly once: announce the departure, drop
// the name from the registry and from every group, then release the
// outbound queue so the transport closes the connection.
func (h *Hub) depart(c *Client) {
	if c.departed {
		return
	}
	c.departed = true
	if c.prompt != nil && c.prompt.timer != nil {
		c.prompt.timer.Stop()
	}
	c.prompt = nil

	if c.registered {
		name := c.Name
		h.systemAll(&Event{Kind: EventUserLeft, User: name}, c)
		h.registry.Remove(c)
		for _, res := range h.groups.LeaveAll(name) {
			h.announceLeave(res, "")
		}
		h.log.Info().Str("client_id", c.ID).Str("user", name).Int("online", h.registry.Len()).Msg("user departed")
	}

	close(c.Events)
}

// shutdownAll notifies every session that the server is stopping and then
// departs each of them.
func (h *Hub) shutdownAll() {
	clients := h.registry.Sessions()
	h.log.Info().Int("sessions", len(clients)).Msg("hub shutting down")

	notice := &Event{Kind: EventShutdown}
	for _, c := range clients {
		h.send(c, notice)
	}
	for _, c := range clients {
		h.depart(c)
	}
	h.dropOverflow()
}
