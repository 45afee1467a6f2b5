package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SunflowersLwtech/malaysia-ai-frontend/internal/domain"
)

func newTestClient(t *testing.T, profile Profile, handler http.HandlerFunc) *Client {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return NewClient(server.URL+"/", profile)
}

func TestSendReturnsReply(t *testing.T) {
	client := newTestClient(t, AssistantProfile(), func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.Method != http.MethodPost {
			t.Fatalf("unexpected method: %s", r.Method)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, `{"response": "Hello", "model_used": "gemini-tuned"}`)
	})

	reply, err := client.Send(context.Background(), &Request{Message: "hi", Settings: domain.DefaultSettings()})
	require.NoError(t, err)
	assert.Equal(t, "Hello", reply.Content)
	assert.Equal(t, "gemini-tuned", reply.ModelUsed)
}

func TestSendTrimsReply(t *testing.T) {
	client := newTestClient(t, AssistantProfile(), func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"response": "\n  Selamat datang!  \n"}`)
	})

	reply, err := client.Send(context.Background(), &Request{Message: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "Selamat datang!", reply.Content)
}

func TestSendAssistantPayload(t *testing.T) {
	var got map[string]any
	client := newTestClient(t, AssistantProfile(), func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		fmt.Fprint(w, `{"response": "ok"}`)
	})

	_, err := client.Send(context.Background(), &Request{
		Message:   "next",
		Settings:  domain.Settings{MaxTokens: 4000, Temperature: 1.1},
		SessionID: "sess_1",
		Location:  "Ipoh",
		History: []domain.Message{
			{Role: domain.RoleUser, Content: "q1"},
			{Role: domain.RoleAssistant, Content: "a1"},
			{Role: domain.RoleUser, Content: "q2"},
			{Role: domain.RoleAssistant, Content: "Connection error: refused", Error: true},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, "next", got["message"])
	assert.Equal(t, 1.1, got["temperature"])
	assert.Equal(t, float64(4000), got["max_tokens"])
	assert.NotContains(t, got, "user_id")
	assert.NotContains(t, got, "location")

	history, ok := got["history"].([]any)
	require.True(t, ok)
	require.Len(t, history, 3)
	assert.Equal(t, map[string]any{"role": "user", "content": "q1"}, history[0])
	assert.Equal(t, map[string]any{"role": "assistant", "content": "a1"}, history[1])
}

func TestSendTravelPayloadAndReply(t *testing.T) {
	var got map[string]any
	client := newTestClient(t, TravelProfile(), func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		fmt.Fprint(w, `{
			"message": "Try Penang laksa.",
			"sources": ["Penang food guide", {"title": "Tourism Malaysia", "url": "https://example.com"}],
			"suggestions": ["Where to stay in George Town?", "Best time to visit?"]
		}`)
	})

	reply, err := client.Send(context.Background(), &Request{
		Message:   "food?",
		Settings:  domain.DefaultSettings(),
		SessionID: "sess_abc",
		Location:  "Penang",
		History:   []domain.Message{{Role: domain.RoleUser, Content: "earlier"}},
	})
	require.NoError(t, err)

	assert.Equal(t, "food?", got["message"])
	assert.Equal(t, "sess_abc", got["user_id"])
	assert.Equal(t, "Penang", got["location"])
	assert.NotContains(t, got, "temperature")
	assert.NotContains(t, got, "max_tokens")
	assert.NotContains(t, got, "history")

	assert.Equal(t, "Try Penang laksa.", reply.Content)
	require.Len(t, reply.Sources, 2)
	assert.Equal(t, "Penang food guide", reply.Sources[0].Content)
	assert.Equal(t, "Tourism Malaysia", reply.Sources[1].Title)
	assert.Equal(t, []string{"Where to stay in George Town?", "Best time to visit?"}, reply.Suggestions)
}

func TestSendTravelOmitsEmptyLocation(t *testing.T) {
	var got map[string]any
	client := newTestClient(t, TravelProfile(), func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		fmt.Fprint(w, `{"message": "ok"}`)
	})

	_, err := client.Send(context.Background(), &Request{Message: "hi", SessionID: "sess_1"})
	require.NoError(t, err)
	assert.NotContains(t, got, "location")
}

func TestSendBackendErrorDetail(t *testing.T) {
	client := newTestClient(t, AssistantProfile(), func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"detail": "model unavailable"}`)
	})

	_, err := client.Send(context.Background(), &Request{Message: "hi"})
	require.Error(t, err)

	var backendErr *BackendError
	require.True(t, errors.As(err, &backendErr))
	assert.Equal(t, http.StatusInternalServerError, backendErr.StatusCode)
	assert.Contains(t, backendErr.Error(), "model unavailable")
	assert.Equal(t, "Error: 500 - model unavailable", Display(err))
}

func TestSendBackendErrorStructuredDetail(t *testing.T) {
	client := newTestClient(t, AssistantProfile(), func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		fmt.Fprint(w, `{"detail": [{"loc": ["body", "message"], "msg": "field required"}]}`)
	})

	_, err := client.Send(context.Background(), &Request{Message: "hi"})
	var backendErr *BackendError
	require.True(t, errors.As(err, &backendErr))
	assert.Equal(t, `[{"loc":["body","message"],"msg":"field required"}]`, backendErr.Detail)
}

func TestSendBackendErrorRawText(t *testing.T) {
	client := newTestClient(t, AssistantProfile(), func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		fmt.Fprint(w, "upstream down")
	})

	_, err := client.Send(context.Background(), &Request{Message: "hi"})
	var backendErr *BackendError
	require.True(t, errors.As(err, &backendErr))
	assert.Equal(t, "upstream down", backendErr.Detail)
	assert.Equal(t, "Error: 502 - upstream down", Display(err))
}

func TestSendBackendErrorFallsBackToErrorField(t *testing.T) {
	client := newTestClient(t, TravelProfile(), func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		fmt.Fprint(w, `{"error": "knowledge base loading"}`)
	})

	_, err := client.Send(context.Background(), &Request{Message: "hi"})
	var backendErr *BackendError
	require.True(t, errors.As(err, &backendErr))
	assert.Equal(t, "knowledge base loading", backendErr.Detail)
}

func TestSendEmptyResponse(t *testing.T) {
	bodies := []string{
		`{"response": ""}`,
		`{"response": "   "}`,
		`{"model_used": "gemini"}`,
		`not json`,
	}
	for _, body := range bodies {
		t.Run(body, func(t *testing.T) {
			client := newTestClient(t, AssistantProfile(), func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, body)
			})

			_, err := client.Send(context.Background(), &Request{Message: "hi"})
			var emptyErr *EmptyResponseError
			require.True(t, errors.As(err, &emptyErr))
			assert.Equal(t, NoResponseText, Display(err))
		})
	}
}

func TestSendTimeout(t *testing.T) {
	profile := AssistantProfile()
	profile.Timeout = 150 * time.Millisecond

	release := make(chan struct{})
	client := newTestClient(t, profile, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-release:
		}
	})
	t.Cleanup(func() { close(release) })

	start := time.Now()
	_, err := client.Send(context.Background(), &Request{Message: "hi"})
	elapsed := time.Since(start)

	var connErr *ConnectionError
	require.True(t, errors.As(err, &connErr))
	assert.True(t, connErr.Timeout())
	assert.GreaterOrEqual(t, elapsed, profile.Timeout)
	assert.Less(t, elapsed, 5*time.Second)
	assert.True(t, strings.HasPrefix(Display(err), "Connection error: "))
}

func TestSendConnectionRefused(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	client := NewClient(url, AssistantProfile())
	_, err := client.Send(context.Background(), &Request{Message: "hi"})

	var connErr *ConnectionError
	require.True(t, errors.As(err, &connErr))
	assert.False(t, connErr.Timeout())
	assert.True(t, strings.HasPrefix(Display(err), "Connection error: "))
}

func TestHealth(t *testing.T) {
	client := newTestClient(t, TravelProfile(), func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/status" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"status": "online", "knowledge_items": 120}`)
	})

	status := client.Health(context.Background())
	assert.True(t, status.Healthy)
	assert.Equal(t, http.StatusOK, status.StatusCode)
	assert.Equal(t, "online", status.Detail["status"])
	assert.Empty(t, status.Error)
}

func TestHealthUnhealthy(t *testing.T) {
	client := newTestClient(t, AssistantProfile(), func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	status := client.Health(context.Background())
	assert.False(t, status.Healthy)
	assert.Equal(t, http.StatusServiceUnavailable, status.StatusCode)
	assert.NotEmpty(t, status.Error)
}

func TestHealthTruncatedBody(t *testing.T) {
	client := newTestClient(t, AssistantProfile(), func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "100")
		fmt.Fprint(w, `{"status":`)
	})

	status := client.Health(context.Background())
	assert.False(t, status.Healthy)
	assert.Contains(t, status.Error, "failed to read status")
}

func TestHealthOversizedBody(t *testing.T) {
	client := newTestClient(t, AssistantProfile(), func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, `{"status": "healthy", "padding": "%s"}`, strings.Repeat("x", 2*maxStatusBody))
	})

	status := client.Health(context.Background())
	assert.True(t, status.Healthy)
	assert.Nil(t, status.Detail)
	assert.Empty(t, status.Error)
}

func TestHealthUnreachable(t *testing.T) {
	client := NewClient("http://127.0.0.1:1", AssistantProfile())
	status := client.Health(context.Background())
	assert.False(t, status.Healthy)
	assert.NotEmpty(t, status.Error)
	assert.False(t, status.CheckedAt.IsZero())
}

func TestKnowledge(t *testing.T) {
	client := newTestClient(t, TravelProfile(), func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/knowledge" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		fmt.Fprint(w, `{"categories": {"food": ["nasi lemak", "laksa"], "places": ["Langkawi"]}}`)
	})

	knowledge, err := client.Knowledge(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"nasi lemak", "laksa"}, knowledge.Categories["food"])
	assert.Len(t, knowledge.Categories, 2)
}

func TestKnowledgeUnsupported(t *testing.T) {
	client := NewClient("http://localhost:8000", AssistantProfile())
	_, err := client.Knowledge(context.Background())
	assert.ErrorIs(t, err, ErrUnsupported)
}

func TestSubmitFeedback(t *testing.T) {
	var got map[string]any
	client := newTestClient(t, TravelProfile(), func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/feedback" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	})

	err := client.SubmitFeedback(context.Background(), &domain.Feedback{
		Rating:    5,
		Text:      "great tips",
		Timestamp: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
		SessionID: "sess_1",
	})
	require.NoError(t, err)
	assert.Equal(t, float64(5), got["rating"])
	assert.Equal(t, "great tips", got["feedback_text"])
	assert.Equal(t, "2026-01-02T03:04:05Z", got["timestamp"])
	assert.Equal(t, "sess_1", got["session_id"])
}

func TestSubmitFeedbackError(t *testing.T) {
	client := newTestClient(t, TravelProfile(), func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"detail": "rating must be 1-5"}`)
	})

	err := client.SubmitFeedback(context.Background(), &domain.Feedback{Rating: 9})
	var backendErr *BackendError
	require.True(t, errors.As(err, &backendErr))
	assert.Equal(t, "rating must be 1-5", backendErr.Detail)
}

func TestProfileFor(t *testing.T) {
	p, err := ProfileFor("")
	require.NoError(t, err)
	assert.Equal(t, VariantAssistant, p.Name)

	p, err = ProfileFor(VariantTravel)
	require.NoError(t, err)
	assert.Equal(t, "/api/chat", p.ChatPath)

	_, err = ProfileFor("weather")
	assert.Error(t, err)
}

func TestDisplayUnknownError(t *testing.T) {
	assert.Equal(t, "", Display(nil))
	assert.Equal(t, "Error: boom", Display(errors.New("boom")))
}
