package stylistchat

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"muse-workers/internal/common/camunda"
	"muse-workers/internal/common/errors"
	"muse-workers/internal/common/genai"
	"muse-workers/internal/common/logger"
	"muse-workers/internal/common/metrics"
	"muse-workers/internal/common/observability"
	"muse-workers/internal/common/validation"
	"muse-workers/internal/models"
)

const (
	TaskType = "stylist-chat"

	FallbackReply = "Darling, I'm having a moment. Ask me later!"

	RoleUser      = "user"
	RoleAssistant = "assistant"
)

var inputSchema = validation.JSONSchema{
	Required: []string{"userId", "message"},
	Properties: map[string]validation.Property{
		"userId":  {Type: "string", MinLength: validation.Int(1)},
		"message": {Type: "string", MinLength: validation.Int(1), MaxLength: validation.Int(2000)},
		"history": {
			Type:     "array",
			Nullable: true,
			Items: &validation.Property{
				Type:     "object",
				Required: []string{"role", "text"},
				Properties: map[string]validation.Property{
					"role": {Type: "string", Enum: []string{RoleUser, RoleAssistant}},
					"text": {Type: "string"},
				},
			},
		},
	},
}

type ProfileReader interface {
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
}

type Handler struct {
	config   *Config
	stylist  *genai.Client
	profiles ProfileReader
	reporter *camunda.Reporter
	logger   logger.Logger
}

func NewHandler(config *Config, stylist *genai.Client, profiles ProfileReader, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:   config,
		stylist:  stylist,
		profiles: profiles,
		reporter: camunda.NewReporter(TaskType, obs, log),
		logger:   log,
	}
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	started := time.Now()
	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	if err := validation.ValidateVariables([]byte(job.Variables), inputSchema); err != nil {
		h.reporter.Fail(client, job, started, err)
		return
	}

	var input Input
	if err := json.Unmarshal([]byte(job.Variables), &input); err != nil {
		h.reporter.Fail(client, job, started, errors.NewInvalidInputError(fmt.Sprintf("parse input: %v", err)))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	output, err := h.execute(ctx, &input)
	if err != nil {
		h.reporter.Fail(client, job, started, err)
		return
	}

	h.reporter.Complete(client, job, started, output)
}

func (h *Handler) execute(ctx context.Context, input *Input) (*Output, error) {
	message := strings.TrimSpace(input.Message)
	if message == "" {
		return nil, errors.NewInvalidInputError("message must not be empty")
	}

	var profile *models.Profile
	if p, err := h.profiles.GetProfile(ctx, input.UserID); err == nil {
		profile = p
	} else if !errors.HasCode(err, errors.ErrCodeProfileNotFound) {
		h.logger.Warn("profile lookup failed, chatting without context", map[string]interface{}{
			"userId": input.UserID,
			"error":  err,
		})
	}

	prompt, err := buildPrompt(profile, lastTurns(input.History, h.config.HistoryTurns), message)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}

	output := &Output{}
	env, err := h.stylist.Generate(ctx, prompt)
	if err != nil {
		h.logger.Warn("stylist unavailable, using fallback reply", map[string]interface{}{
			"userId": input.UserID,
			"error":  err,
		})
		metrics.StylistFallbacks.WithLabelValues(TaskType).Inc()
		output.Reply = FallbackReply
		output.Fallback = true
	} else {
		output.Reply = strings.TrimSpace(env.RawText)
	}

	history := append(append([]models.ChatMessage{}, input.History...),
		models.ChatMessage{Role: RoleUser, Text: message},
		models.ChatMessage{Role: RoleAssistant, Text: output.Reply},
	)
	output.History = lastTurns(history, h.config.MaxHistory)
	return output, nil
}

func lastTurns(history []models.ChatMessage, n int) []models.ChatMessage {
	if n <= 0 || len(history) <= n {
		return history
	}
	return history[len(history)-n:]
}

func buildPrompt(profile *models.Profile, history []models.ChatMessage, message string) (string, error) {
	if history == nil {
		history = []models.ChatMessage{}
	}
	raw, err := json.Marshal(history)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`You are Muse, a witty, chic, and helpful high-end fashion stylist bot.
User Profile: %s.
Chat History: %s.
User Question: %s.
Keep responses short (under 50 words), engaging, and helpful. Use emojis.`,
		profile.PromptContext(), raw, message), nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
