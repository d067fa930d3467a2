package addclothingitem

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
	TaskType = "add-clothing-item"
)

var inputSchema = validation.JSONSchema{
	Required: []string{"userId", "image"},
	Properties: map[string]validation.Property{
		"userId":      {Type: "string", MinLength: validation.Int(1)},
		"image":       {Type: "string", MinLength: validation.Int(1)},
		"category":    {Type: "string", Nullable: true},
		"color":       {Type: "string", MaxLength: validation.Int(60), Nullable: true},
		"style":       {Type: "string", MaxLength: validation.Int(60), Nullable: true},
		"description": {Type: "string", MaxLength: validation.Int(500), Nullable: true},
	},
}

type ItemWriter interface {
	AddItem(ctx context.Context, item models.ClothingItem) (*models.ClothingItem, error)
}

type Indexer interface {
	IndexItem(ctx context.Context, item models.ClothingItem) error
}

type Handler struct {
	config   *Config
	store    ItemWriter
	index    Indexer
	reporter *camunda.Reporter
	logger   logger.Logger
}

func NewHandler(config *Config, store ItemWriter, index Indexer, obs *observability.Observability, log logger.Logger) *Handler {
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
	if !validation.IsImagePayload(input.Image) {
		return nil, errors.NewInvalidInputError("image must be base64 image data")
	}
	if h.config.MaxImageBytes > 0 && len(input.Image) > h.config.MaxImageBytes {
		return nil, errors.NewInvalidInputError(fmt.Sprintf("image exceeds %d bytes", h.config.MaxImageBytes))
	}

	item := models.ClothingItem{
		UserID:      input.UserID,
		Image:       input.Image,
		Category:    models.NormalizeCategory(input.Category),
		Color:       orDefault(input.Color, "Unknown"),
		Style:       orDefault(input.Style, "Casual"),
		Description: orDefault(input.Description, "Item"),
	}

	saved, err := h.store.AddItem(ctx, item)
	if err != nil {
		return nil, err
	}

	output := &Output{Item: saved.Summary(), Indexed: true}
	if err := h.index.IndexItem(ctx, *saved); err != nil {
		// The closet row is the source of truth; search catches up on the next reindex.
		h.logger.Warn("item not indexed", map[string]interface{}{
			"itemId": saved.ID,
			"error":  err,
		})
		output.Indexed = false
	}

	h.logger.Info("clothing item added", map[string]interface{}{
		"userId":   input.UserID,
		"itemId":   saved.ID,
		"category": saved.Category,
	})
	return output, nil
}

func orDefault(s, def string) string {
	if s = strings.TrimSpace(s); s == "" {
		return def
	}
	return s
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
