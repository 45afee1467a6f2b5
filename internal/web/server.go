// Package web serves the browser front-end: an embedded page, a JSON API over
// the chat session and a websocket that pushes session events.
package web

import (
	"context"
	"embed"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"

	"github.com/SunflowersLwtech/malaysia-ai-frontend/internal/chat"
	"github.com/SunflowersLwtech/malaysia-ai-frontend/internal/domain"
	"github.com/SunflowersLwtech/malaysia-ai-frontend/internal/gateway"
	"github.com/SunflowersLwtech/malaysia-ai-frontend/internal/hub"
)

//go:embed static
var staticFiles embed.FS

// Options tunes the server.
type Options struct {
	RateLimit      float64 // API requests per second, 0 disables limiting
	PingInterval   time.Duration
	WriteTimeout   time.Duration
	ReadTimeout    time.Duration
	MaxMessageSize int64
	BackendURL     string // reported by /health
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		RateLimit:      10,
		PingInterval:   30 * time.Second,
		WriteTimeout:   10 * time.Second,
		ReadTimeout:    60 * time.Second,
		MaxMessageSize: 65536,
	}
}

// Server is the browser front-end for one chat session.
type Server struct {
	echo     *echo.Echo
	opts     Options
	profile  gateway.Profile
	svc      *chat.Service
	hub      *hub.Hub
	upgrader websocket.Upgrader
}

// NewServer creates the server and subscribes the hub to session events.
func NewServer(opts Options, profile gateway.Profile, svc *chat.Service, h *hub.Hub) *Server {
	defaults := DefaultOptions()
	if opts.PingInterval <= 0 {
		opts.PingInterval = defaults.PingInterval
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = defaults.WriteTimeout
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = defaults.ReadTimeout
	}
	if opts.MaxMessageSize <= 0 {
		opts.MaxMessageSize = defaults.MaxMessageSize
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Logger())
	e.Use(middleware.Recover())

	s := &Server{
		echo:    e,
		opts:    opts,
		profile: profile,
		svc:     svc,
		hub:     h,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
	}

	svc.Subscribe(s.broadcast)
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	assets, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(err)
	}
	s.echo.GET("/", echo.WrapHandler(http.FileServer(http.FS(assets))))
	s.echo.GET("/health", s.handleHealth)
	s.echo.GET("/ws", s.handleWebSocket)

	api := s.echo.Group("/api")
	if s.opts.RateLimit > 0 {
		api.Use(middleware.RateLimiter(middleware.NewRateLimiterMemoryStore(rate.Limit(s.opts.RateLimit))))
	}
	api.GET("/state", s.handleState)
	api.POST("/messages", s.handleSubmit)
	api.DELETE("/messages", s.handleClear)
	api.PUT("/settings", s.handleSettings)
	api.PUT("/location", s.handleLocation)
	api.GET("/status", s.handleStatus)
	api.GET("/knowledge", s.handleKnowledge)
	api.POST("/feedback", s.handleFeedback)
}

// Handler exposes the router.
func (s *Server) Handler() http.Handler {
	return s.echo
}

// Start serves on addr until Shutdown.
func (s *Server) Start(addr string) error {
	return s.echo.Start(addr)
}

// Shutdown gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) broadcast(event domain.Event) {
	if !s.hub.HasActiveConnections(event.SessionID) {
		return
	}
	if err := s.hub.BroadcastJSON(event.SessionID, event); err != nil {
		slog.Warn("failed to broadcast event", "type", event.Type, "error", err)
	}
}

// handleHealth reports liveness of the front-end itself.
func (s *Server) handleHealth(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]any{
		"status":      "healthy",
		"session_id":  s.svc.Store().SessionID(),
		"variant":     s.profile.Name,
		"backend_url": s.opts.BackendURL,
		"connections": s.hub.ConnectionCount(),
	})
}
