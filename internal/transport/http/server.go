package http

import (
	"context"
	"net"
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/linechat-server/internal/config"
	"github.com/vovakirdan/linechat-server/internal/transport"
)

// Hub is what the HTTP surface needs from the chat hub.
type Hub interface {
	transport.Hub
	Snapshotter
}

// NewServer builds the HTTP server: health probe, WebSocket chat endpoint
// and the read-only API. Requests derive their context from base so that a
// pending handshake is abandoned when base is cancelled.
func NewServer(base context.Context, hub Hub, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	l := logger.With().Str("transport", "ws").Logger()

	return &stdhttp.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           NewRouter(hub, cfg, &l),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
		BaseContext: func(_ net.Listener) context.Context {
			return base
		},
	}
}

// NewRouter wires the gin routes.
func NewRouter(hub Hub, cfg *config.Config, logger *zerolog.Logger) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	router.GET("/health", healthHandler)
	router.GET("/ws", gin.WrapH(NewWSHandler(hub, WSOptions{
		OutboxSize:     cfg.OutboxSize,
		MaxMessageSize: int64(cfg.MaxLineLength) + 512,
		RateLimit:      cfg.WSRateLimit,
		WriteTimeout:   cfg.WriteTimeout,
	}, logger)))

	api := NewAPIHandlers(hub, logger)
	group := router.Group("/api")
	group.GET("/sessions", api.Sessions)
	group.GET("/groups", api.Groups)

	return router
}

func healthHandler(c *gin.Context) {
	c.String(stdhttp.StatusOK, "ok")
}
