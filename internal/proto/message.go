package proto

import "encoding/json"

// Inbound is the envelope for WebSocket frames coming from the client.
// Each frame carries exactly one line.
type Inbound struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

const (
	ProtocolVersion = 1

	InboundTypeHello = "hello"
	InboundTypeLine  = "line"

	OutboundTypeEvent = "event"
	OutboundTypeError = "error"
)

// HelloData is sent by the client to pick its display name.
type HelloData struct {
	User     string `json:"user"`
	Protocol int    `json:"protocol,omitempty"`
}

// LineData is one command or chat line from the client.
type LineData struct {
	Text string `json:"text"`
}

// Outbound is the envelope for messages sent to the client.
type Outbound struct {
	Type  string `json:"type"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
	// Line is the same notification rendered the way line clients see it.
	Line string `json:"line"`
}

// EventData carries the structured fields of an event. Only the fields
// relevant to the event kind are set.
type EventData struct {
	User    string   `json:"user,omitempty"`
	To      string   `json:"to,omitempty"`
	Group   string   `json:"group,omitempty"`
	Text    string   `json:"text,omitempty"`
	Names   []string `json:"names,omitempty"`
	Admins  []string `json:"admins,omitempty"`
	Members []string `json:"members,omitempty"`
	Self    bool     `json:"self,omitempty"`
	TS      int64    `json:"ts,omitempty"`
}

// Error describes a protocol-level error response.
type Error struct {
	Code string `json:"code"`
	Msg  string `json:"msg"`
}
