package domain

import "time"

// Status is the result of a backend health check.
type Status struct {
	Healthy    bool           `json:"healthy"`
	StatusCode int            `json:"status_code,omitempty"`
	Detail     map[string]any `json:"detail,omitempty"`
	Error      string         `json:"error,omitempty"`
	CheckedAt  time.Time      `json:"checked_at"`
}

// Knowledge is the category listing some backends expose.
type Knowledge struct {
	Categories map[string][]string `json:"categories"`
}

// Feedback is a user rating of the assistant.
type Feedback struct {
	Rating    int       `json:"rating"`
	Text      string    `json:"feedback_text"`
	Timestamp time.Time `json:"timestamp"`
	SessionID string    `json:"session_id"`
}

// ResponseInfo describes the most recent successful reply.
type ResponseInfo struct {
	Length      int     `json:"length"`
	Model       string  `json:"model"`
	Temperature float64 `json:"temperature"`
	MaxTokens   int     `json:"max_tokens"`
}
