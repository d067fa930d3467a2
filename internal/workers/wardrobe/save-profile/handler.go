package saveprofile

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
	"muse-workers/internal/common/logger"
	"muse-workers/internal/common/observability"
	"muse-workers/internal/common/validation"
	"muse-workers/internal/models"
)

const (
	TaskType = "save-profile"
)

var inputSchema = validation.JSONSchema{
	Required: []string{"userId", "nickname", "gender"},
	Properties: map[string]validation.Property{
		"userId":   {Type: "string", MinLength: validation.Int(1)},
		"nickname": {Type: "string", MinLength: validation.Int(1), MaxLength: validation.Int(60)},
		"gender": {Type: "string", Enum: []string{
			string(models.GenderMen), string(models.GenderWomen), string(models.GenderUnisex),
		}},
	},
}

type ProfileWriter interface {
	SaveProfile(ctx context.Context, p models.Profile) (*models.Profile, error)
}

type LookClearer interface {
	ClearLooks(ctx context.Context, userID string) error
}

type Handler struct {
	config   *Config
	profiles ProfileWriter
	looks    LookClearer
	reporter *camunda.Reporter
	logger   logger.Logger
}

func NewHandler(config *Config, profiles ProfileWriter, looks LookClearer, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:   config,
		profiles: profiles,
		looks:    looks,
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
	nickname := strings.TrimSpace(input.Nickname)
	if nickname == "" {
		return nil, errors.NewInvalidInputError("nickname must not be empty")
	}
	if !input.Gender.Valid() {
		return nil, errors.NewInvalidInputError(fmt.Sprintf("unsupported gender %q", input.Gender))
	}

	saved, err := h.profiles.SaveProfile(ctx, models.Profile{
		UserID:   input.UserID,
		Nickname: nickname,
		Gender:   input.Gender,
	})
	if err != nil {
		return nil, err
	}

	// Looks were curated for the old profile.
	output := &Output{Profile: *saved, LooksCleared: true}
	if err := h.looks.ClearLooks(ctx, input.UserID); err != nil {
		h.logger.Warn("curated looks not cleared", map[string]interface{}{
			"userId": input.UserID,
			"error":  err,
		})
		output.LooksCleared = false
	}

	h.logger.Info("profile saved", map[string]interface{}{
		"userId": input.UserID,
		"gender": string(saved.Gender),
	})
	return output, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
