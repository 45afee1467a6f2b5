package conversation

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/SunflowersLwtech/malaysia-ai-frontend/internal/domain"
)

func TestNewStoreDefaults(t *testing.T) {
	s := NewStore(domain.DefaultSettings())

	assert.True(t, strings.HasPrefix(s.SessionID(), "sess_"))
	assert.Equal(t, domain.DefaultSettings(), s.Settings())
	assert.Equal(t, 0, s.Len())
}

func TestNewStoreInvalidSettingsFallsBack(t *testing.T) {
	s := NewStore(domain.Settings{MaxTokens: 5, Temperature: 9})
	assert.Equal(t, domain.DefaultSettings(), s.Settings())
}

func TestSessionIDsAreUnique(t *testing.T) {
	a := NewStore(domain.DefaultSettings())
	b := NewStore(domain.DefaultSettings())
	assert.NotEqual(t, a.SessionID(), b.SessionID())
}

func TestAppendPreservesOrder(t *testing.T) {
	s := NewStore(domain.DefaultSettings())

	for i := 0; i < 25; i++ {
		role := domain.RoleUser
		if i%2 == 1 {
			role = domain.RoleAssistant
		}
		_, err := s.Append(domain.Message{Role: role, Content: fmt.Sprintf("m%d", i)})
		require.NoError(t, err)
		assert.Equal(t, i+1, s.Len())
	}

	history := s.History()
	require.Len(t, history, 25)
	for i, msg := range history {
		assert.Equal(t, fmt.Sprintf("m%d", i), msg.Content)
		assert.NotEmpty(t, msg.ID)
		assert.False(t, msg.Timestamp.IsZero())
	}
}

func TestAppendRequiresRoleAndContent(t *testing.T) {
	s := NewStore(domain.DefaultSettings())

	_, err := s.Append(domain.Message{Role: domain.RoleUser})
	assert.ErrorIs(t, err, ErrInvalidMessage)

	_, err = s.Append(domain.Message{Role: "system", Content: "hi"})
	assert.ErrorIs(t, err, ErrInvalidMessage)

	assert.Equal(t, 0, s.Len())
}

func TestHistoryReturnsCopy(t *testing.T) {
	s := NewStore(domain.DefaultSettings())
	_, err := s.Append(domain.Message{Role: domain.RoleUser, Content: "original"})
	require.NoError(t, err)

	history := s.History()
	history[0].Content = "mutated"

	assert.Equal(t, "original", s.History()[0].Content)
}

func TestClearKeepsSessionAndSettings(t *testing.T) {
	s := NewStore(domain.DefaultSettings())
	require.NoError(t, s.UpdateSettings(4000, 1.2))
	s.SetLocation("Penang")
	id := s.SessionID()

	_, err := s.Append(domain.Message{Role: domain.RoleUser, Content: "hi"})
	require.NoError(t, err)
	_, err = s.Append(domain.Message{Role: domain.RoleAssistant, Content: "hello"})
	require.NoError(t, err)

	s.Clear()

	for i := 0; i < 3; i++ {
		assert.Empty(t, s.History())
		assert.Equal(t, 0, s.Len())
	}
	assert.Equal(t, id, s.SessionID())
	assert.Equal(t, domain.Settings{MaxTokens: 4000, Temperature: 1.2}, s.Settings())
	assert.Equal(t, "Penang", s.Location())
}

func TestUpdateSettingsRejectsOutOfRange(t *testing.T) {
	cases := []struct {
		name        string
		maxTokens   int
		temperature float64
	}{
		{"max tokens too low", 999, 0.7},
		{"max tokens too high", 16385, 0.7},
		{"temperature negative", 8192, -0.1},
		{"temperature too high", 8192, 2.01},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			s := NewStore(domain.DefaultSettings())
			err := s.UpdateSettings(tc.maxTokens, tc.temperature)
			assert.ErrorIs(t, err, ErrInvalidSettings)
			assert.Equal(t, domain.DefaultSettings(), s.Settings())
		})
	}
}

func TestUpdateSettingsAcceptsBounds(t *testing.T) {
	s := NewStore(domain.DefaultSettings())

	require.NoError(t, s.UpdateSettings(1000, 0.0))
	assert.Equal(t, domain.Settings{MaxTokens: 1000, Temperature: 0.0}, s.Settings())

	require.NoError(t, s.UpdateSettings(16384, 2.0))
	assert.Equal(t, domain.Settings{MaxTokens: 16384, Temperature: 2.0}, s.Settings())
}

func TestSnapshotForRequestExcludesCurrentPrompt(t *testing.T) {
	s := NewStore(domain.DefaultSettings())
	assert.Empty(t, s.SnapshotForRequest())

	_, _ = s.Append(domain.Message{Role: domain.RoleUser, Content: "q1"})
	_, _ = s.Append(domain.Message{Role: domain.RoleAssistant, Content: "a1"})
	_, _ = s.Append(domain.Message{Role: domain.RoleUser, Content: "q2"})

	snapshot := s.SnapshotForRequest()
	require.Len(t, snapshot, 2)
	assert.Equal(t, "q1", snapshot[0].Content)
	assert.Equal(t, "a1", snapshot[1].Content)

	_, _ = s.Append(domain.Message{Role: domain.RoleAssistant, Content: "a2"})
	assert.Len(t, s.SnapshotForRequest(), 4)
}
