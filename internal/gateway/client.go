// Package gateway provides the HTTP client that talks to the chat backend.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/SunflowersLwtech/malaysia-ai-frontend/internal/domain"
)

// Client is a stateless adapter between chat state and a backend HTTP API.
// It performs no retries.
type Client struct {
	baseURL      string
	profile      Profile
	httpClient   *http.Client
	healthClient *http.Client
}

// NewClient creates a client for the backend at baseURL.
func NewClient(baseURL string, profile Profile) *Client {
	return &Client{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		profile: profile,
		httpClient: &http.Client{
			Timeout: profile.Timeout,
		},
		healthClient: &http.Client{
			Timeout: profile.HealthTimeout,
		},
	}
}

// Profile returns the variant profile the client was built with.
func (c *Client) Profile() Profile {
	return c.profile
}

// BaseURL returns the backend base URL.
func (c *Client) BaseURL() string {
	return c.baseURL
}

// Request is one user turn as handed to the backend.
type Request struct {
	Message   string
	Settings  domain.Settings
	SessionID string
	Location  string
	History   []domain.Message
}

// ErrorResponse is the structured error body some backends return.
type ErrorResponse struct {
	Detail json.RawMessage `json:"detail"`
	Error  json.RawMessage `json:"error"`
}

type chatResponse struct {
	ModelUsed   string          `json:"model_used"`
	Sources     []domain.Source `json:"sources"`
	Suggestions []string        `json:"suggestions"`
}

// Send posts a user message and normalizes the answer. Errors are one of
// *ConnectionError, *BackendError or *EmptyResponseError.
func (c *Client) Send(ctx context.Context, req *Request) (*domain.Reply, error) {
	body, err := json.Marshal(c.buildPayload(req))
	if err != nil {
		return nil, fmt.Errorf("failed to marshal chat request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+c.profile.ChatPath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, c.connectionError(err, c.profile.Timeout)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.connectionError(err, c.profile.Timeout)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &BackendError{
			StatusCode: resp.StatusCode,
			Detail:     errorDetail(respBody),
		}
	}

	return c.decodeReply(respBody)
}

func (c *Client) buildPayload(req *Request) map[string]any {
	payload := map[string]any{
		"message": req.Message,
	}
	if c.profile.SendsSettings {
		payload["temperature"] = req.Settings.Temperature
		payload["max_tokens"] = req.Settings.MaxTokens
	}
	if c.profile.SendsUserID && req.SessionID != "" {
		payload["user_id"] = req.SessionID
	}
	if c.profile.SendsLocation && req.Location != "" {
		payload["location"] = req.Location
	}
	if c.profile.SendsHistory {
		history := make([]domain.HistoryEntry, 0, len(req.History))
		for _, msg := range req.History {
			if msg.Error {
				continue
			}
			history = append(history, domain.HistoryEntry{Role: msg.Role, Content: msg.Content})
		}
		payload["history"] = history
	}
	return payload
}

func (c *Client) decodeReply(body []byte) (*domain.Reply, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(body, &fields); err != nil {
		return nil, &EmptyResponseError{}
	}

	var meta chatResponse
	if err := json.Unmarshal(body, &meta); err != nil {
		// Malformed optional fields do not cost us the reply text.
		meta = chatResponse{}
		_ = json.Unmarshal(fields["model_used"], &meta.ModelUsed)
	}

	var text string
	if raw, ok := fields[c.profile.ReplyField]; ok {
		_ = json.Unmarshal(raw, &text)
	}
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, &EmptyResponseError{ModelUsed: meta.ModelUsed}
	}

	return &domain.Reply{
		Content:     text,
		ModelUsed:   meta.ModelUsed,
		Sources:     meta.Sources,
		Suggestions: meta.Suggestions,
	}, nil
}

// maxStatusBody bounds how much of a status response is read for diagnostics.
const maxStatusBody = 64 << 10

// Health runs the lightweight status check. It never returns an error: an
// unreachable backend is reported as unhealthy.
func (c *Client) Health(ctx context.Context) *domain.Status {
	status := &domain.Status{CheckedAt: time.Now()}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+c.profile.HealthPath, nil)
	if err != nil {
		status.Error = err.Error()
		return status
	}

	resp, err := c.healthClient.Do(httpReq)
	if err != nil {
		status.Error = c.connectionError(err, c.profile.HealthTimeout).Error()
		return status
	}
	defer resp.Body.Close()

	status.StatusCode = resp.StatusCode
	status.Healthy = resp.StatusCode == http.StatusOK

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxStatusBody))
	if err != nil {
		status.Healthy = false
		status.Error = fmt.Sprintf("failed to read status: %v", err)
		return status
	}
	var detail map[string]any
	if json.Unmarshal(respBody, &detail) == nil {
		status.Detail = detail
	}
	if !status.Healthy {
		status.Error = fmt.Sprintf("status %d", resp.StatusCode)
	}
	return status
}

// Knowledge fetches the knowledge categories.
func (c *Client) Knowledge(ctx context.Context) (*domain.Knowledge, error) {
	if c.profile.KnowledgePath == "" {
		return nil, ErrUnsupported
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+c.profile.KnowledgePath, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	resp, err := c.healthClient.Do(httpReq)
	if err != nil {
		return nil, c.connectionError(err, c.profile.HealthTimeout)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, c.connectionError(err, c.profile.HealthTimeout)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &BackendError{StatusCode: resp.StatusCode, Detail: errorDetail(respBody)}
	}

	var knowledge domain.Knowledge
	if err := json.Unmarshal(respBody, &knowledge); err != nil {
		return nil, fmt.Errorf("failed to decode knowledge response: %w", err)
	}
	if knowledge.Categories == nil {
		knowledge.Categories = map[string][]string{}
	}
	return &knowledge, nil
}

// SubmitFeedback posts a rating. Any 200 answer counts as success.
func (c *Client) SubmitFeedback(ctx context.Context, feedback *domain.Feedback) error {
	if c.profile.FeedbackPath == "" {
		return ErrUnsupported
	}

	body, err := json.Marshal(feedback)
	if err != nil {
		return fmt.Errorf("failed to marshal feedback: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+c.profile.FeedbackPath, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.healthClient.Do(httpReq)
	if err != nil {
		return c.connectionError(err, c.profile.HealthTimeout)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		respBody, _ := io.ReadAll(resp.Body)
		return &BackendError{StatusCode: resp.StatusCode, Detail: errorDetail(respBody)}
	}
	return nil
}

func (c *Client) connectionError(err error, timeout time.Duration) *ConnectionError {
	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &ConnectionError{Err: err, timeout: timeout}
	}
	return &ConnectionError{Err: err}
}

// errorDetail extracts a displayable detail from an error body: the JSON
// "detail" field, then "error", then the raw text.
func errorDetail(body []byte) string {
	var errResp ErrorResponse
	if json.Unmarshal(body, &errResp) == nil {
		if detail := rawText(errResp.Detail); detail != "" {
			return detail
		}
		if detail := rawText(errResp.Error); detail != "" {
			return detail
		}
	}
	return strings.TrimSpace(string(body))
}

func rawText(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var text string
	if json.Unmarshal(raw, &text) == nil {
		return text
	}
	var compact bytes.Buffer
	if json.Compact(&compact, raw) == nil {
		return compact.String()
	}
	return string(raw)
}
