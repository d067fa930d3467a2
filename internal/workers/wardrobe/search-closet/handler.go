package searchcloset

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
	"muse-workers/internal/common/wardrobe"
	"muse-workers/internal/models"
)

const (
	TaskType = "search-closet"
)

var inputSchema = validation.JSONSchema{
	Required: []string{"userId"},
	Properties: map[string]validation.Property{
		"userId":   {Type: "string", MinLength: validation.Int(1)},
		"text":     {Type: "string", MaxLength: validation.Int(200), Nullable: true},
		"category": {Type: "string", Nullable: true},
		"color":    {Type: "string", Nullable: true},
		"size":     {Type: "integer", Minimum: validation.Float(1), Maximum: validation.Float(100), Nullable: true},
	},
}

type Searcher interface {
	SearchItems(ctx context.Context, q wardrobe.SearchQuery) (*wardrobe.SearchResult, error)
}

type Handler struct {
	config   *Config
	index    Searcher
	reporter *camunda.Reporter
	logger   logger.Logger
}

func NewHandler(config *Config, index Searcher, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:   config,
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
	size := input.Size
	if size <= 0 {
		size = h.config.DefaultSize
	}

	q := wardrobe.SearchQuery{
		UserID: input.UserID,
		Text:   strings.TrimSpace(input.Text),
		Color:  strings.TrimSpace(input.Color),
		Size:   size,
	}
	if c := strings.TrimSpace(input.Category); c != "" {
		q.Category = models.NormalizeCategory(c)
	}

	res, err := h.index.SearchItems(ctx, q)
	if err != nil {
		return nil, err
	}

	h.logger.Info("closet searched", map[string]interface{}{
		"userId":    input.UserID,
		"text":      q.Text,
		"category":  q.Category,
		"totalHits": res.TotalHits,
	})
	return &Output{Items: res.Items, TotalHits: res.TotalHits}, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
