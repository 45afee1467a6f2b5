// Package conversation holds the in-memory state of one chat session.
package conversation

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/SunflowersLwtech/malaysia-ai-frontend/internal/domain"
)

var (
	ErrInvalidMessage  = errors.New("message requires a role and content")
	ErrInvalidSettings = errors.New("invalid settings")
)

// Store is the single source of truth for a session: its id, settings and
// ordered history. It performs no I/O.
type Store struct {
	sessionID string

	mu       sync.RWMutex
	settings domain.Settings
	location string
	history  []domain.Message
}

// NewStore creates a session with a fresh id and the given settings.
// Invalid settings fall back to the defaults.
func NewStore(settings domain.Settings) *Store {
	if settings.Validate() != nil {
		settings = domain.DefaultSettings()
	}
	return &Store{
		sessionID: NewSessionID(),
		settings:  settings,
	}
}

// NewSessionID returns an opaque session identifier.
func NewSessionID() string {
	return "sess_" + uuid.New().String()[:8]
}

// SessionID returns the id generated when the session started.
func (s *Store) SessionID() string {
	return s.sessionID
}

// Append adds msg to the end of the history. Content may be a placeholder
// but must not be empty.
func (s *Store) Append(msg domain.Message) (domain.Message, error) {
	if !msg.Role.Valid() || msg.Content == "" {
		return domain.Message{}, ErrInvalidMessage
	}
	if msg.ID == "" {
		msg.ID = uuid.New().String()
	}
	if msg.Timestamp.IsZero() {
		msg.Timestamp = time.Now()
	}

	s.mu.Lock()
	s.history = append(s.history, msg)
	s.mu.Unlock()
	return msg, nil
}

// Clear empties the history. Session id, settings and location are kept.
func (s *Store) Clear() {
	s.mu.Lock()
	s.history = nil
	s.mu.Unlock()
}

// UpdateSettings replaces the settings used by the next request.
func (s *Store) UpdateSettings(maxTokens int, temperature float64) error {
	next := domain.Settings{MaxTokens: maxTokens, Temperature: temperature}
	if err := next.Validate(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidSettings, err)
	}

	s.mu.Lock()
	s.settings = next
	s.mu.Unlock()
	return nil
}

// Settings returns the current settings.
func (s *Store) Settings() domain.Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.settings
}

// Location returns the location preference sent with travel requests.
func (s *Store) Location() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.location
}

// SetLocation sets or clears the location preference.
func (s *Store) SetLocation(location string) {
	s.mu.Lock()
	s.location = location
	s.mu.Unlock()
}

// History returns a copy of the history in insertion order.
func (s *Store) History() []domain.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.Message, len(s.history))
	copy(out, s.history)
	return out
}

// Len returns the number of messages in the history.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.history)
}

// SnapshotForRequest returns the history that precedes the message being
// composed: a trailing user entry is excluded.
func (s *Store) SnapshotForRequest() []domain.Message {
	history := s.History()
	if n := len(history); n > 0 && history[n-1].Role == domain.RoleUser {
		history = history[:n-1]
	}
	return history
}
