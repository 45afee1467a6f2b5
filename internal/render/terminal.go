package render

import (
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/SunflowersLwtech/malaysia-ai-frontend/internal/domain"
)

// Message formats one history entry for a terminal.
func Message(msg domain.Message) string {
	var b strings.Builder

	label := "You"
	if msg.Role == domain.RoleAssistant {
		label = "Assistant"
	}
	fmt.Fprintf(&b, "[%s] %s:\n%s\n", msg.Timestamp.Format("15:04"), label, CleanDisplayText(msg.Content))

	if len(msg.Sources) > 0 {
		b.WriteString("\nSources:\n")
		for i, src := range msg.Sources {
			fmt.Fprintf(&b, "  %d. %s\n", i+1, src)
		}
	}
	if len(msg.Suggestions) > 0 {
		b.WriteString("\nYou could also ask:\n")
		for _, s := range msg.Suggestions {
			fmt.Fprintf(&b, "  - %s\n", s)
		}
	}
	return b.String()
}

// Transcript writes the whole history.
func Transcript(w io.Writer, history []domain.Message) {
	if len(history) == 0 {
		fmt.Fprintln(w, "(no messages yet)")
		return
	}
	for _, msg := range history {
		fmt.Fprintln(w, Message(msg))
	}
}

// ResponseInfo formats the details of the last reply.
func ResponseInfo(info *domain.ResponseInfo) string {
	if info == nil {
		return "No response yet."
	}
	return fmt.Sprintf("Response Length: %d chars\nModel Used: %s\nTemperature: %.1f\nMax Tokens: %d",
		info.Length, info.Model, info.Temperature, info.MaxTokens)
}

// Status formats a health check result.
func Status(status *domain.Status) string {
	if status == nil {
		return "Backend: unknown"
	}
	if status.Healthy {
		return "Backend: Connected"
	}
	return "Backend: Disconnected (" + status.Error + ")"
}

// Knowledge lists categories in name order.
func Knowledge(w io.Writer, knowledge *domain.Knowledge) {
	names := make([]string, 0, len(knowledge.Categories))
	for name := range knowledge.Categories {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		items := knowledge.Categories[name]
		fmt.Fprintf(w, "%s (%d)\n", name, len(items))
		for _, item := range items {
			fmt.Fprintf(w, "  - %s\n", item)
		}
	}
}
