package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/vovakirdan/linechat-server/internal/core"
)

// Snapshotter reads a consistent copy of the hub state.
type Snapshotter interface {
	Snapshot(ctx context.Context) (core.Snapshot, error)
}

// APIHandlers provides read-only HTTP handlers over the live hub state.
type APIHandlers struct {
	hub Snapshotter
	log *zerolog.Logger
}

// NewAPIHandlers creates a new API handlers instance.
func NewAPIHandlers(hub Snapshotter, logger *zerolog.Logger) *APIHandlers {
	return &APIHandlers{
		hub: hub,
		log: logger,
	}
}

// ErrorResponse represents an error response body.
type ErrorResponse struct {
	Error string `json:"error"`
}

// SessionsResponse lists connected display names.
type SessionsResponse struct {
	Sessions []string `json:"sessions"`
	Count    int      `json:"count"`
}

// GroupResponse represents a group in API responses.
type GroupResponse struct {
	Name    string   `json:"name"`
	Admins  []string `json:"admins"`
	Members []string `json:"members"`
}

// GroupsResponse lists every live group.
type GroupsResponse struct {
	Groups []GroupResponse `json:"groups"`
}

// Sessions handles listing connected users.
// GET /api/sessions
func (h *APIHandlers) Sessions(c *gin.Context) {
	snap, ok := h.snapshot(c)
	if !ok {
		return
	}
	sessions := lo.Ternary(snap.Sessions == nil, []string{}, snap.Sessions)
	c.JSON(http.StatusOK, SessionsResponse{Sessions: sessions, Count: len(sessions)})
}

// Groups handles listing groups with their role sets.
// GET /api/groups
func (h *APIHandlers) Groups(c *gin.Context) {
	snap, ok := h.snapshot(c)
	if !ok {
		return
	}
	groups := lo.Map(snap.Groups, func(g core.GroupSnapshot, _ int) GroupResponse {
		return GroupResponse{
			Name:    g.Name,
			Admins:  lo.Ternary(g.Admins == nil, []string{}, g.Admins),
			Members: lo.Ternary(g.Members == nil, []string{}, g.Members),
		}
	})
	c.JSON(http.StatusOK, GroupsResponse{Groups: groups})
}

func (h *APIHandlers) snapshot(c *gin.Context) (core.Snapshot, bool) {
	snap, err := h.hub.Snapshot(c.Request.Context())
	if err != nil {
		h.log.Warn().Err(err).Msg("failed to read hub snapshot")
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Error: "server is shutting down"})
		return core.Snapshot{}, false
	}
	return snap, true
}
