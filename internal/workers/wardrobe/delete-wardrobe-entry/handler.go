package deletewardrobeentry

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"

	"muse-workers/internal/common/camunda"
	"muse-workers/internal/common/errors"
	"muse-workers/internal/common/logger"
	"muse-workers/internal/common/observability"
	"muse-workers/internal/common/validation"
)

const (
	TaskType = "delete-wardrobe-entry"
)

var inputSchema = validation.JSONSchema{
	Required: []string{"userId", "kind", "id"},
	Properties: map[string]validation.Property{
		"userId": {Type: "string", MinLength: validation.Int(1)},
		"kind":   {Type: "string", Enum: []string{KindItem, KindOutfit}},
		"id":     {Type: "string", MinLength: validation.Int(1)},
	},
}

type Deleter interface {
	DeleteItem(ctx context.Context, userID, id string) error
	DeleteOutfit(ctx context.Context, userID, id string) error
}

type IndexRemover interface {
	RemoveItem(ctx context.Context, id string) error
}

type Handler struct {
	config   *Config
	store    Deleter
	index    IndexRemover
	reporter *camunda.Reporter
	logger   logger.Logger
}

func NewHandler(config *Config, store Deleter, index IndexRemover, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:   config,
		store:    store,
		index:    index,
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
	switch input.Kind {
	case KindItem:
		if err := h.store.DeleteItem(ctx, input.UserID, input.ID); err != nil {
			return nil, err
		}
		if err := h.index.RemoveItem(ctx, input.ID); err != nil {
			h.logger.Warn("deleted item still indexed", map[string]interface{}{
				"itemId": input.ID,
				"error":  err,
			})
		}
	case KindOutfit:
		if err := h.store.DeleteOutfit(ctx, input.UserID, input.ID); err != nil {
			return nil, err
		}
	default:
		return nil, errors.NewInvalidInputError(fmt.Sprintf("unknown kind %q", input.Kind))
	}

	h.logger.Info("wardrobe entry deleted", map[string]interface{}{
		"userId": input.UserID,
		"kind":   input.Kind,
		"id":     input.ID,
	})
	return &Output{Kind: input.Kind, ID: input.ID, Deleted: true}, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
