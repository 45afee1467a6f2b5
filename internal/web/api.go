package web

import (
	"context"
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/SunflowersLwtech/malaysia-ai-frontend/internal/chat"
	"github.com/SunflowersLwtech/malaysia-ai-frontend/internal/domain"
	"github.com/SunflowersLwtech/malaysia-ai-frontend/internal/gateway"
	"github.com/SunflowersLwtech/malaysia-ai-frontend/internal/logger"
	"github.com/SunflowersLwtech/malaysia-ai-frontend/internal/render"
)

// MessageView is a history entry with its content rendered to HTML.
type MessageView struct {
	domain.Message
	HTML string `json:"html"`
}

// Features tells the page which optional widgets the backend supports.
type Features struct {
	Knowledge bool `json:"knowledge"`
	Feedback  bool `json:"feedback"`
	Location  bool `json:"location"`
}

// StateResponse is the full session snapshot the page renders from.
type StateResponse struct {
	SessionID    string               `json:"session_id"`
	Variant      string               `json:"variant"`
	Settings     domain.Settings      `json:"settings"`
	Location     string               `json:"location,omitempty"`
	State        domain.TurnState     `json:"state"`
	Messages     []MessageView        `json:"messages"`
	LastResponse *domain.ResponseInfo `json:"last_response,omitempty"`
	Backend      *domain.Status       `json:"backend,omitempty"`
	Features     Features             `json:"features"`
}

// SubmitRequest is the body of POST /api/messages.
type SubmitRequest struct {
	Message string `json:"message"`
}

// SettingsRequest is the body of PUT /api/settings.
type SettingsRequest struct {
	MaxTokens   int     `json:"max_tokens"`
	Temperature float64 `json:"temperature"`
}

// LocationRequest is the body of PUT /api/location.
type LocationRequest struct {
	Location string `json:"location"`
}

// FeedbackRequest is the body of POST /api/feedback.
type FeedbackRequest struct {
	Rating int    `json:"rating"`
	Text   string `json:"feedback_text"`
}

func errorJSON(c echo.Context, code int, msg string) error {
	return c.JSON(code, map[string]string{"error": msg})
}

// handleState returns everything the page needs to render.
func (s *Server) handleState(c echo.Context) error {
	store := s.svc.Store()
	history := store.History()

	views := make([]MessageView, 0, len(history))
	for _, msg := range history {
		html, err := render.Markdown(msg.Content)
		if err != nil {
			html = ""
		}
		views = append(views, MessageView{Message: msg, HTML: html})
	}

	return c.JSON(http.StatusOK, StateResponse{
		SessionID:    store.SessionID(),
		Variant:      s.profile.Name,
		Settings:     store.Settings(),
		Location:     store.Location(),
		State:        s.svc.State(),
		Messages:     views,
		LastResponse: s.svc.LastResponse(),
		Backend:      s.svc.Status(),
		Features: Features{
			Knowledge: s.profile.KnowledgePath != "",
			Feedback:  s.profile.FeedbackPath != "",
			Location:  s.profile.SendsLocation,
		},
	})
}

// handleSubmit runs one turn and returns the assistant entry.
// POST /api/messages
func (s *Server) handleSubmit(c echo.Context) error {
	var req SubmitRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}

	log := logger.NewRequestLogger(nil)

	// The turn outlives a dropped browser connection: it ends with a reply,
	// an error or the gateway timeout.
	ctx := context.WithoutCancel(c.Request().Context())
	msg, err := s.svc.Submit(ctx, req.Message)
	switch {
	case errors.Is(err, chat.ErrEmptyMessage):
		return errorJSON(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, chat.ErrTurnInProgress):
		return errorJSON(c, http.StatusConflict, err.Error())
	case errors.Is(err, chat.ErrBackendUnavailable):
		return errorJSON(c, http.StatusServiceUnavailable, err.Error())
	case err != nil:
		log.Error("submit failed", "error", err)
		return errorJSON(c, http.StatusInternalServerError, err.Error())
	}

	html, _ := render.Markdown(msg.Content)
	return c.JSON(http.StatusOK, MessageView{Message: *msg, HTML: html})
}

// handleClear empties the history.
// DELETE /api/messages
func (s *Server) handleClear(c echo.Context) error {
	if err := s.svc.Clear(); err != nil {
		return errorJSON(c, http.StatusConflict, err.Error())
	}
	return c.NoContent(http.StatusNoContent)
}

// handleSettings clamps and applies generation parameters.
// PUT /api/settings
func (s *Server) handleSettings(c echo.Context) error {
	req := SettingsRequest(s.svc.Store().Settings())
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}

	settings, err := s.svc.UpdateSettings(req.MaxTokens, req.Temperature)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, err.Error())
	}
	return c.JSON(http.StatusOK, settings)
}

// handleLocation sets the location preference.
// PUT /api/location
func (s *Server) handleLocation(c echo.Context) error {
	if !s.profile.SendsLocation {
		return errorJSON(c, http.StatusNotFound, "location is not used by this backend")
	}
	var req LocationRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}
	s.svc.SetLocation(req.Location)
	return c.JSON(http.StatusOK, map[string]string{"location": s.svc.Store().Location()})
}

// handleStatus runs the backend health check.
// GET /api/status
func (s *Server) handleStatus(c echo.Context) error {
	status := s.svc.CheckHealth(c.Request().Context())
	return c.JSON(http.StatusOK, status)
}

// handleKnowledge proxies the backend knowledge listing.
// GET /api/knowledge
func (s *Server) handleKnowledge(c echo.Context) error {
	knowledge, err := s.svc.Knowledge(c.Request().Context())
	if errors.Is(err, gateway.ErrUnsupported) {
		return errorJSON(c, http.StatusNotFound, err.Error())
	}
	if err != nil {
		return errorJSON(c, http.StatusBadGateway, gateway.Display(err))
	}
	return c.JSON(http.StatusOK, knowledge)
}

// handleFeedback forwards a rating.
// POST /api/feedback
func (s *Server) handleFeedback(c echo.Context) error {
	var req FeedbackRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "invalid request body")
	}

	err := s.svc.SubmitFeedback(c.Request().Context(), req.Rating, req.Text)
	switch {
	case errors.Is(err, chat.ErrInvalidRating):
		return errorJSON(c, http.StatusBadRequest, err.Error())
	case errors.Is(err, gateway.ErrUnsupported):
		return errorJSON(c, http.StatusNotFound, err.Error())
	case err != nil:
		return errorJSON(c, http.StatusBadGateway, gateway.Display(err))
	}
	return c.JSON(http.StatusOK, map[string]bool{"ok": true})
}
