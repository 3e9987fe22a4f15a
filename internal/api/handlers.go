// Package api exposes the relay over HTTP.
package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/samvad-hq/item-relay/internal/domain"
)

// Relay is the service behind the client-facing endpoints.
type Relay interface {
	GetCallObject(ctx context.Context, query string) (domain.Item, error)
	GetCallList(ctx context.Context) ([]domain.Item, error)
	PostCall(ctx context.Context, query string) (domain.Item, error)
	ExchangeCall(ctx context.Context, token string) ([]domain.Item, error)
}

// RelayHandler adapts inbound requests to Relay calls.
type RelayHandler struct {
	svc Relay
}

func NewRelayHandler(svc Relay) *RelayHandler {
	return &RelayHandler{svc: svc}
}

// RegisterRoutes wires the client routes into the given router.
func (h *RelayHandler) RegisterRoutes(r gin.IRouter) {
	client := r.Group("/api/client")
	{
		client.GET("/get-call-obj", h.GetCallObject)
		client.GET("/get-call-list", h.GetCallList)
		client.GET("/post-call", h.PostCall)
		client.GET("/exchange-call", h.ExchangeCall)
	}
}

// GetCallObject returns the single item matching ?query=.
func (h *RelayHandler) GetCallObject(c *gin.Context) {
	item, err := h.svc.GetCallObject(c.Request.Context(), c.Query("query"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// GetCallList returns the remote item list.
func (h *RelayHandler) GetCallList(c *gin.Context) {
	items, err := h.svc.GetCallList(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}

// PostCall posts the placeholder credential for ?query= and returns the item.
func (h *RelayHandler) PostCall(c *gin.Context) {
	item, err := h.svc.PostCall(c.Request.Context(), c.Query("query"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, item)
}

// ExchangeCall forwards the Authorization header and returns the remote item list.
func (h *RelayHandler) ExchangeCall(c *gin.Context) {
	items, err := h.svc.ExchangeCall(c.Request.Context(), c.GetHeader("Authorization"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, items)
}
