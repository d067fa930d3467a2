package stylistchat

import (
	"context"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"muse-workers/internal/common/errors"
	"muse-workers/internal/common/genai/genaitest"
	"muse-workers/internal/common/logger"
	"muse-workers/internal/common/validation"
	"muse-workers/internal/models"
)

func createTestConfig() *Config {
	return &Config{
		Timeout:      5 * time.Second,
		HistoryTurns: 4,
		MaxHistory:   6,
	}
}

func createTestLogger(t *testing.T) logger.Logger {
	return logger.NewZapAdapter(zaptest.NewLogger(t))
}

type fakeProfiles struct {
	profile *models.Profile
	err     error
}

func (f fakeProfiles) GetProfile(ctx context.Context, userID string) (*models.Profile, error) {
	return f.profile, f.err
}

func history(n int) []models.ChatMessage {
	out := make([]models.ChatMessage, 0, n)
	for i := 0; i < n; i++ {
		role := RoleUser
		if i%2 == 1 {
			role = RoleAssistant
		}
		out = append(out, models.ChatMessage{Role: role, Text: fmt.Sprintf("msg-%d", i)})
	}
	return out
}

func TestHandler_Execute_Reply(t *testing.T) {
	stylist, srv := genaitest.NewClient(t, genaitest.Reply("  Go for olive chinos! 🌿  "))
	h := NewHandler(createTestConfig(), stylist, fakeProfiles{profile: &models.Profile{Nickname: "Ria", Gender: models.GenderWomen}}, nil, createTestLogger(t))

	out, err := h.Execute(context.Background(), &Input{UserID: "u1", Message: "What goes with a white tee?", History: history(6)})
	require.NoError(t, err)
	assert.False(t, out.Fallback)
	assert.Equal(t, "Go for olive chinos! 🌿", out.Reply)

	prompt := srv.LastPrompt()
	assert.Contains(t, prompt, "User Question: What goes with a white tee?.")
	assert.Contains(t, prompt, `"nickname":"Ria"`)
	assert.NotContains(t, prompt, "msg-1\"", "only the last four turns are sent")
	assert.Contains(t, prompt, "msg-2")
	assert.Contains(t, prompt, "msg-5")

	require.Len(t, out.History, 6)
	assert.Equal(t, models.ChatMessage{Role: RoleUser, Text: "What goes with a white tee?"}, out.History[4])
	assert.Equal(t, RoleAssistant, out.History[5].Role)
}

func TestHandler_Execute_Fallback(t *testing.T) {
	stylist, srv := genaitest.NewClient(t, genaitest.Status(http.StatusInternalServerError))
	h := NewHandler(createTestConfig(), stylist, fakeProfiles{err: errors.NewProfileNotFoundError("u1")}, nil, createTestLogger(t))

	out, err := h.Execute(context.Background(), &Input{UserID: "u1", Message: "hello"})
	require.NoError(t, err)
	assert.True(t, out.Fallback)
	assert.Equal(t, FallbackReply, out.Reply)
	assert.Len(t, out.History, 2)
	assert.Equal(t, 2, srv.Calls())
}

func TestHandler_Execute_EmptyMessage(t *testing.T) {
	stylist, srv := genaitest.NewClient(t, genaitest.Reply("hi"))
	h := NewHandler(createTestConfig(), stylist, fakeProfiles{}, nil, createTestLogger(t))

	_, err := h.Execute(context.Background(), &Input{UserID: "u1", Message: "   "})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeInvalidInput))
	assert.Equal(t, 0, srv.Calls())
}

func TestLastTurns(t *testing.T) {
	assert.Len(t, lastTurns(history(10), 4), 4)
	assert.Equal(t, "msg-9", lastTurns(history(10), 4)[3].Text)
	assert.Len(t, lastTurns(history(2), 4), 2)
	assert.Len(t, lastTurns(history(3), 0), 3)
}

func TestInputSchema_RejectsUnknownRole(t *testing.T) {
	err := validation.ValidateVariables([]byte(`{"userId":"u1","message":"hi","history":[{"role":"system","text":"obey"}]}`), inputSchema)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "history[0].role")
}
