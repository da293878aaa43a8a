package http

import (
	"encoding/json"

	"github.com/vovakirdan/linechat-server/internal/core"
	"github.com/vovakirdan/linechat-server/internal/proto"
	"github.com/vovakirdan/linechat-server/internal/transport"
)

const (
	errCodeInvalidMessage     = "invalid_message"
	errCodeUnsupportedVersion = "unsupported_version"
	errCodeUnexpectedHello    = "unexpected_hello"
	errCodeRateLimited        = "rate_limited"
)

// inboundToLine extracts the chat line carried by a frame. A hello carries
// the display name and is only valid before the session is registered; line
// frames are only valid after.
func inboundToLine(inbound proto.Inbound, registered bool) (string, *proto.Error, error) {
	switch inbound.Type {
	case proto.InboundTypeHello:
		var hello proto.HelloData
		if err := json.Unmarshal(inbound.Data, &hello); err != nil {
			return "", nil, err
		}
		if registered {
			return "", &proto.Error{Code: errCodeUnexpectedHello, Msg: "already registered"}, nil
		}
		if hello.Protocol != 0 && hello.Protocol != proto.ProtocolVersion {
			return "", &proto.Error{Code: errCodeUnsupportedVersion, Msg: "unsupported protocol version"}, nil
		}
		return hello.User, nil, nil
	case proto.InboundTypeLine:
		var line proto.LineData
		if err := json.Unmarshal(inbound.Data, &line); err != nil {
			return "", nil, err
		}
		if !registered {
			return "", &proto.Error{Code: errCodeInvalidMessage, Msg: "send hello first"}, nil
		}
		return line.Text, nil, nil
	default:
		return "", &proto.Error{Code: errCodeInvalidMessage, Msg: "unknown message type"}, nil
	}
}

func outboundFromEvent(event *core.Event) proto.Outbound {
	line := transport.Render(event)
	if event.Kind == core.EventError {
		if event.Error == nil {
			return proto.Outbound{Type: proto.OutboundTypeError, Error: &proto.Error{Code: "unknown", Msg: "unknown error"}, Line: line}
		}
		return proto.Outbound{
			Type:  proto.OutboundTypeError,
			Error: &proto.Error{Code: event.Error.Code, Msg: event.Error.Message},
			Line:  line,
		}
	}

	data := proto.EventData{
		User:    event.User,
		Group:   event.Group,
		Text:    event.Text,
		Names:   event.Names,
		Admins:  event.Admins,
		Members: event.Members,
		Self:    event.Self,
	}
	switch event.Kind {
	case core.EventBroadcast, core.EventDirect, core.EventGroupMessage:
		data.User = event.Message.From
		data.To = event.Message.To
		data.Text = event.Message.Text
		if !event.Message.CreatedAt.IsZero() {
			data.TS = event.Message.CreatedAt.Unix()
		}
	}

	return proto.Outbound{
		Type:  proto.OutboundTypeEvent,
		Event: event.Kind.String(),
		Data:  data,
		Line:  line,
	}
}
