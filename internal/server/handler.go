package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/labstack/echo/v4"

	"github.com/devendrajoshi/smartchat/internal/chat"
	"github.com/devendrajoshi/smartchat/internal/hub"
	"github.com/devendrajoshi/smartchat/internal/llm"
)

// WSHandler upgrades chat connections and hands them to the hub.
type WSHandler struct {
	hub       *hub.Hub
	detector  *chat.Detector
	responder hub.Responder
}

// NewWSHandler creates a new WebSocket handler with its dependencies.
func NewWSHandler(h *hub.Hub, detector *chat.Detector, responder hub.Responder) *WSHandler {
	return &WSHandler{hub: h, detector: detector, responder: responder}
}

// ServeWS handles WebSocket connection requests for the chat.
func (h *WSHandler) ServeWS(c echo.Context) error {
	conn, err := websocket.Accept(c.Response(), c.Request(), &websocket.AcceptOptions{
		// The room is open by design: no authentication, any origin.
		InsecureSkipVerify: true,
	})
	if err != nil {
		slog.Error("Failed to upgrade WebSocket connection", "error", err)
		return c.String(http.StatusInternalServerError, "Failed to upgrade to WebSocket")
	}

	client := hub.NewClient(h.hub, conn, h.detector, h.responder)
	client.Start()
	return nil
}

// HealthHandler reports process liveness plus backend reachability.
type HealthHandler struct {
	llmClient *llm.Client
}

// NewHealthHandler creates a new health handler.
func NewHealthHandler(client *llm.Client) *HealthHandler {
	return &HealthHandler{llmClient: client}
}

// HealthGet responds OK as long as the process is serving; an unreachable
// LLM backend is reported but is not a liveness failure, because the room
// keeps broadcasting without it.
func (h *HealthHandler) HealthGet(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	backend := "ok"
	if err := h.llmClient.Ping(ctx); err != nil {
		backend = err.Error()
	}

	return c.JSON(http.StatusOK, map[string]string{
		"status":  "ok",
		"backend": backend,
	})
}
