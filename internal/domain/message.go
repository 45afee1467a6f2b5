package domain

import (
	"encoding/json"
	"time"
)

// Message is one entry of the conversation history.
type Message struct {
	ID          string    `json:"id"`
	Role        Role      `json:"role"`
	Content     string    `json:"content"`
	Sources     []Source  `json:"sources,omitempty"`
	Suggestions []string  `json:"suggestions,omitempty"`
	ModelUsed   string    `json:"model_used,omitempty"`
	Error       bool      `json:"error,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// Source is a reference snippet attached to an assistant reply.
type Source struct {
	Title   string `json:"title,omitempty"`
	Content string `json:"content,omitempty"`
	URL     string `json:"url,omitempty"`
}

// UnmarshalJSON accepts either a bare string or an object.
func (s *Source) UnmarshalJSON(data []byte) error {
	var text string
	if err := json.Unmarshal(data, &text); err == nil {
		*s = Source{Content: text}
		return nil
	}

	type plain Source
	var obj plain
	if err := json.Unmarshal(data, &obj); err != nil {
		return err
	}
	*s = Source(obj)
	return nil
}

// String returns the most descriptive single-line form of the source.
func (s Source) String() string {
	switch {
	case s.Title != "" && s.URL != "":
		return s.Title + " (" + s.URL + ")"
	case s.Title != "":
		return s.Title
	case s.Content != "":
		return s.Content
	default:
		return s.URL
	}
}

// Reply is a normalized successful backend answer.
type Reply struct {
	Content     string
	ModelUsed   string
	Sources     []Source
	Suggestions []string
}

// HistoryEntry is the minimal role/content pair forwarded to a backend as context.
type HistoryEntry struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}
