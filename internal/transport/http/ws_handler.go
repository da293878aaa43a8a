package http

import (
	"context"
	"io"
	stdhttp "net/http"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/linechat-server/internal/core"
	"github.com/vovakirdan/linechat-server/internal/proto"
	"github.com/vovakirdan/linechat-server/internal/transport"
)

// WSOptions tune WebSocket sessions.
type WSOptions struct {
	OutboxSize int
	// MaxMessageSize bounds one inbound frame in bytes.
	MaxMessageSize int64
	// RateLimit caps inbound lines per minute; zero disables it.
	RateLimit int
	// WriteTimeout bounds one outbound frame. A peer that stops reading is
	// disconnected once it expires; zero disables it.
	WriteTimeout time.Duration
}

// WSHandler upgrades HTTP connections and runs a chat session over them.
type WSHandler struct {
	hub  transport.Hub
	opts WSOptions
	log  *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(hub transport.Hub, opts WSOptions, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{hub: hub, opts: opts, log: logger}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	if h.opts.MaxMessageSize > 0 {
		conn.SetReadLimit(h.opts.MaxMessageSize)
	}

	wc := &wsConn{
		conn:         conn,
		remote:       r.RemoteAddr,
		limiter:      newRateLimiter(h.opts.RateLimit, time.Minute),
		writeTimeout: h.opts.WriteTimeout,
	}
	if err := transport.Serve(r.Context(), h.hub, wc, transport.Options{OutboxSize: h.opts.OutboxSize}, h.log); err != nil {
		h.log.Warn().Err(err).Str("remote", r.RemoteAddr).Msg("ws connection closed with error")
	}
}

// wsConn carries one line per JSON frame.
type wsConn struct {
	conn         *websocket.Conn
	remote       string
	limiter      *rateLimiter
	writeTimeout time.Duration
	registered   atomic.Bool
}

func (c *wsConn) ReadLine(ctx context.Context) (string, error) {
	for {
		var inbound proto.Inbound
		if err := wsjson.Read(ctx, c.conn, &inbound); err != nil {
			if websocket.CloseStatus(err) != -1 {
				return "", io.EOF
			}
			return "", err
		}

		line, protoErr, err := inboundToLine(inbound, c.registered.Load())
		if err != nil {
			protoErr = &proto.Error{Code: errCodeInvalidMessage, Msg: "malformed payload"}
		}
		if protoErr == nil && !c.limiter.allow(time.Now()) {
			protoErr = &proto.Error{Code: errCodeRateLimited, Msg: "too many messages"}
		}
		if protoErr != nil {
			if err := c.writeOutbound(ctx, proto.Outbound{Type: proto.OutboundTypeError, Error: protoErr}); err != nil {
				return "", err
			}
			continue
		}
		return line, nil
	}
}

// MarkRegistered switches the connection from hello frames to line frames.
func (c *wsConn) MarkRegistered() {
	c.registered.Store(true)
}

func (c *wsConn) WriteEvent(ctx context.Context, ev *core.Event) error {
	return c.writeOutbound(ctx, outboundFromEvent(ev))
}

// writeOutbound sends one frame. coder/websocket closes the connection when
// ctx expires mid-write, which also unblocks the reader.
func (c *wsConn) writeOutbound(ctx context.Context, out proto.Outbound) error {
	if c.writeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.writeTimeout)
		defer cancel()
	}
	err := wsjson.Write(ctx, c.conn, out)
	if websocket.CloseStatus(err) != -1 {
		return io.EOF
	}
	return err
}

func (c *wsConn) Close() error {
	err := c.conn.Close(websocket.StatusNormalClosure, "closing")
	if websocket.CloseStatus(err) != -1 {
		return nil
	}
	return err
}

func (c *wsConn) RemoteAddr() string {
	return c.remote
}
