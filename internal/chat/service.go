// Package chat coordinates a user turn across the conversation store and the
// backend gateway.
package chat

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/SunflowersLwtech/malaysia-ai-frontend/internal/conversation"
	"github.com/SunflowersLwtech/malaysia-ai-frontend/internal/domain"
	"github.com/SunflowersLwtech/malaysia-ai-frontend/internal/gateway"
)

var (
	ErrEmptyMessage       = errors.New("message is empty")
	ErrTurnInProgress     = errors.New("a reply is still pending")
	ErrBackendUnavailable = errors.New("backend is not reachable")
	ErrInvalidRating      = errors.New("rating must be between 1 and 5")
)

// Backend is the subset of the gateway the service depends on.
type Backend interface {
	Send(ctx context.Context, req *gateway.Request) (*domain.Reply, error)
	Health(ctx context.Context) *domain.Status
	Knowledge(ctx context.Context) (*domain.Knowledge, error)
	SubmitFeedback(ctx context.Context, feedback *domain.Feedback) error
}

// Listener receives session events. It is called synchronously and must not block.
type Listener func(domain.Event)

// Service runs turns for one session. At most one turn is in flight.
type Service struct {
	store   *conversation.Store
	backend Backend
	turn    *semaphore.Weighted
	logger  *slog.Logger

	mu           sync.RWMutex
	state        domain.TurnState
	status       *domain.Status
	lastResponse *domain.ResponseInfo
	listeners    []Listener
}

// NewService creates a service for the session held by store.
func NewService(store *conversation.Store, backend Backend, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		store:   store,
		backend: backend,
		turn:    semaphore.NewWeighted(1),
		logger:  logger.With("sessionId", store.SessionID()),
		state:   domain.TurnStateIdle,
	}
}

// Subscribe registers a listener for session events.
func (s *Service) Subscribe(l Listener) {
	s.mu.Lock()
	s.listeners = append(s.listeners, l)
	s.mu.Unlock()
}

// Store exposes the session state for rendering.
func (s *Service) Store() *conversation.Store {
	return s.store
}

// Submit runs one turn: the user entry is appended, the backend is called
// and exactly one assistant entry is appended, carrying either the reply or
// a displayable error. The returned error is only non-nil when the turn was
// not started.
func (s *Service) Submit(ctx context.Context, text string) (*domain.Message, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, ErrEmptyMessage
	}
	if !s.Available() {
		return nil, ErrBackendUnavailable
	}
	if !s.turn.TryAcquire(1) {
		return nil, ErrTurnInProgress
	}
	defer s.turn.Release(1)

	userMsg, err := s.store.Append(domain.Message{Role: domain.RoleUser, Content: text})
	if err != nil {
		return nil, err
	}
	s.emit(domain.Event{Type: domain.EventTypeMessage, Message: &userMsg})
	s.setState(domain.TurnStateAwaitingReply)

	settings := s.store.Settings()
	req := &gateway.Request{
		Message:   text,
		Settings:  settings,
		SessionID: s.store.SessionID(),
		Location:  s.store.Location(),
		History:   s.store.SnapshotForRequest(),
	}

	start := time.Now()
	reply, sendErr := s.backend.Send(ctx, req)
	duration := time.Since(start)

	assistant, final := s.assistantMessage(reply, sendErr, settings)
	stored, err := s.store.Append(assistant)
	if err != nil {
		s.setState(domain.TurnStateIdle)
		return nil, fmt.Errorf("failed to record reply: %w", err)
	}

	if sendErr != nil && final == domain.TurnStateErrorReceived {
		s.logger.Warn("turn failed", "duration_ms", duration.Milliseconds(), "error", sendErr)
	} else {
		s.logger.Info("turn completed", "duration_ms", duration.Milliseconds(), "reply_length", len(stored.Content), "model", stored.ModelUsed)
	}

	s.emit(domain.Event{Type: domain.EventTypeMessage, Message: &stored})
	s.setState(final)
	s.setState(domain.TurnStateIdle)
	return &stored, nil
}

func (s *Service) assistantMessage(reply *domain.Reply, err error, settings domain.Settings) (domain.Message, domain.TurnState) {
	var emptyErr *gateway.EmptyResponseError
	switch {
	case err == nil:
		s.recordResponse(reply.Content, reply.ModelUsed, settings)
		return domain.Message{
			Role:        domain.RoleAssistant,
			Content:     reply.Content,
			Sources:     reply.Sources,
			Suggestions: reply.Suggestions,
			ModelUsed:   reply.ModelUsed,
		}, domain.TurnStateReplyReceived
	case errors.As(err, &emptyErr):
		s.recordResponse(gateway.NoResponseText, emptyErr.ModelUsed, settings)
		return domain.Message{
			Role:      domain.RoleAssistant,
			Content:   gateway.NoResponseText,
			ModelUsed: emptyErr.ModelUsed,
		}, domain.TurnStateReplyReceived
	default:
		return domain.Message{
			Role:    domain.RoleAssistant,
			Content: gateway.Display(err),
			Error:   true,
		}, domain.TurnStateErrorReceived
	}
}

func (s *Service) recordResponse(content, model string, settings domain.Settings) {
	if model == "" {
		model = "unknown"
	}
	info := &domain.ResponseInfo{
		Length:      len(content),
		Model:       model,
		Temperature: settings.Temperature,
		MaxTokens:   settings.MaxTokens,
	}
	s.mu.Lock()
	s.lastResponse = info
	s.mu.Unlock()
}

// State returns the current turn state.
func (s *Service) State() domain.TurnState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Service) setState(state domain.TurnState) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
	s.emit(domain.Event{Type: domain.EventTypeState, State: state})
}

// LastResponse returns details of the most recent reply, or nil.
func (s *Service) LastResponse() *domain.ResponseInfo {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.lastResponse == nil {
		return nil
	}
	info := *s.lastResponse
	return &info
}

// Clear empties the history. It is refused while a turn awaits its reply so
// the pending reply never lands in an emptied history.
func (s *Service) Clear() error {
	if !s.turn.TryAcquire(1) {
		return ErrTurnInProgress
	}
	defer s.turn.Release(1)

	s.store.Clear()
	s.logger.Info("history cleared")
	s.emit(domain.Event{Type: domain.EventTypeCleared})
	return nil
}

// UpdateSettings clamps the values into range and applies them to the next turn.
func (s *Service) UpdateSettings(maxTokens int, temperature float64) (domain.Settings, error) {
	settings := domain.Settings{MaxTokens: maxTokens, Temperature: temperature}.Clamp()
	if err := s.store.UpdateSettings(settings.MaxTokens, settings.Temperature); err != nil {
		return s.store.Settings(), err
	}
	s.emit(domain.Event{Type: domain.EventTypeSettings, Settings: &settings})
	return settings, nil
}

// SetLocation sets the location sent with travel requests.
func (s *Service) SetLocation(location string) {
	location = strings.TrimSpace(location)
	s.store.SetLocation(location)
	s.emit(domain.Event{Type: domain.EventTypeLocation, Location: location})
}

// CheckHealth queries the backend status and remembers the result.
func (s *Service) CheckHealth(ctx context.Context) *domain.Status {
	status := s.backend.Health(ctx)

	s.mu.Lock()
	s.status = status
	s.mu.Unlock()

	if !status.Healthy {
		s.logger.Warn("backend unhealthy", "status_code", status.StatusCode, "error", status.Error)
	}
	s.emit(domain.Event{Type: domain.EventTypeStatus, Status: status})
	return status
}

// Status returns the last health check result, or nil before the first check.
func (s *Service) Status() *domain.Status {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.status
}

// Available reports whether turns may be submitted. Before the first health
// check the backend is assumed reachable.
func (s *Service) Available() bool {
	status := s.Status()
	return status == nil || status.Healthy
}

// Knowledge returns the backend's knowledge categories.
func (s *Service) Knowledge(ctx context.Context) (*domain.Knowledge, error) {
	return s.backend.Knowledge(ctx)
}

// SubmitFeedback forwards a 1-5 rating for this session.
func (s *Service) SubmitFeedback(ctx context.Context, rating int, text string) error {
	if rating < 1 || rating > 5 {
		return ErrInvalidRating
	}
	feedback := &domain.Feedback{
		Rating:    rating,
		Text:      strings.TrimSpace(text),
		Timestamp: time.Now().UTC(),
		SessionID: s.store.SessionID(),
	}
	if err := s.backend.SubmitFeedback(ctx, feedback); err != nil {
		return fmt.Errorf("failed to submit feedback: %w", err)
	}
	s.logger.Info("feedback submitted", "rating", rating)
	return nil
}

func (s *Service) emit(event domain.Event) {
	event.Ts = time.Now().UnixMilli()
	event.SessionID = s.store.SessionID()

	s.mu.RLock()
	listeners := s.listeners
	s.mu.RUnlock()

	for _, l := range listeners {
		l(event)
	}
}
