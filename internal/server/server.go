// Package server wires the hub, the assistant pipeline, and the HTTP
// surface together. All shared state is constructed here and injected;
// nothing is ambient, so tests can build independent instances.
package server

import (
	"context"
	"log/slog"
	"os"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/spf13/afero"

	"github.com/devendrajoshi/smartchat/internal/assistant"
	"github.com/devendrajoshi/smartchat/internal/chat"
	"github.com/devendrajoshi/smartchat/internal/config"
	"github.com/devendrajoshi/smartchat/internal/hub"
	"github.com/devendrajoshi/smartchat/internal/llm"
)

// Server holds the dependencies for the HTTP server.
type Server struct {
	E        *echo.Echo
	Cfg      *config.Config
	Hub      *hub.Hub
	Pipeline *assistant.Pipeline

	llmClient *llm.Client
	hubCancel context.CancelFunc
}

// New creates a new Server instance with a running hub.
func New(cfg *config.Config) *Server {
	llmClient := llm.NewClient(cfg.BackendURL())

	prompts, err := assistant.LoadPrompts(afero.NewOsFs(), cfg.PromptsDir)
	if err != nil {
		slog.Error("Failed to load prompt templates", "dir", cfg.PromptsDir, "error", err)
		os.Exit(1)
	}

	pipeline := assistant.New(llmClient, prompts, assistant.Options{
		Username:           cfg.AssistantUsername,
		Answer:             cfg.Answer,
		Summarizer:         cfg.Summarizer,
		Judge:              cfg.Judge,
		ContextHistorySize: cfg.ContextHistorySize,
	})

	h := hub.New()
	hubCtx, hubCancel := context.WithCancel(context.Background())
	go h.Run(hubCtx)

	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	return &Server{
		E:         e,
		Cfg:       cfg,
		Hub:       h,
		Pipeline:  pipeline,
		llmClient: llmClient,
		hubCancel: hubCancel,
	}
}

// RegisterRoutes sets up all the application routes.
func (s *Server) RegisterRoutes() {
	detector := chat.NewDetector(s.Cfg.AssistantUsername, s.Cfg.AssistantShorthand)
	wsHandler := NewWSHandler(s.Hub, detector, s.Pipeline)
	healthHandler := NewHealthHandler(s.llmClient)

	s.E.File("/", "web/static/index.html")
	s.E.Static("/static", "web/static")
	s.E.GET("/ws", wsHandler.ServeWS)
	s.E.GET("/health", healthHandler.HealthGet)
}
