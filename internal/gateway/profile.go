package gateway

import (
	"fmt"
	"time"
)

// Profile describes how one backend variant shapes its endpoints and payloads.
type Profile struct {
	Name string

	ChatPath      string
	HealthPath    string
	KnowledgePath string // empty when the backend has no knowledge listing
	FeedbackPath  string // empty when the backend takes no feedback

	// ReplyField is the JSON field of a successful chat response holding the text.
	ReplyField string

	SendsSettings bool // temperature, max_tokens
	SendsUserID   bool // user_id = session id
	SendsLocation bool // optional location
	SendsHistory  bool // prior turns as context

	Timeout       time.Duration
	HealthTimeout time.Duration
}

// Variant names.
const (
	VariantAssistant = "assistant"
	VariantTravel    = "travel"
)

// AssistantProfile is the generic assistant backend: stateless, so prior
// turns are forwarded with every request.
func AssistantProfile() Profile {
	return Profile{
		Name:          VariantAssistant,
		ChatPath:      "/chat",
		HealthPath:    "/health",
		ReplyField:    "response",
		SendsSettings: true,
		SendsHistory:  true,
		Timeout:       60 * time.Second,
		HealthTimeout: 5 * time.Second,
	}
}

// TravelProfile is the travel guide backend: it keeps its own memory keyed by
// user_id.
func TravelProfile() Profile {
	return Profile{
		Name:          VariantTravel,
		ChatPath:      "/api/chat",
		HealthPath:    "/api/status",
		KnowledgePath: "/api/knowledge",
		FeedbackPath:  "/api/feedback",
		ReplyField:    "message",
		SendsUserID:   true,
		SendsLocation: true,
		Timeout:       30 * time.Second,
		HealthTimeout: 10 * time.Second,
	}
}

// ProfileFor returns the preset for a variant name.
func ProfileFor(variant string) (Profile, error) {
	switch variant {
	case VariantAssistant, "":
		return AssistantProfile(), nil
	case VariantTravel:
		return TravelProfile(), nil
	default:
		return Profile{}, fmt.Errorf("unknown variant %q", variant)
	}
}
