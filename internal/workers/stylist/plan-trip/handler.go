package plantrip

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
	TaskType = "plan-trip"

	FallbackAdvice = "Couldn't reach your digital stylist. Try again!"
)

type Closet interface {
	ListItems(ctx context.Context, userID string) ([]models.ClothingItem, error)
}

type Handler struct {
	config   *Config
	stylist  *genai.Client
	closet   Closet
	schema   validation.JSONSchema
	reporter *camunda.Reporter
	logger   logger.Logger
}

func NewHandler(config *Config, stylist *genai.Client, closet Closet, obs *observability.Observability, log logger.Logger) *Handler {
	maxDays := config.MaxTripDays
	if maxDays <= 0 {
		maxDays = LoadConfig().MaxTripDays
	}

	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:  config,
		stylist: stylist,
		closet:  closet,
		schema: validation.JSONSchema{
			Required: []string{"userId", "destination", "days"},
			Properties: map[string]validation.Property{
				"userId":      {Type: "string", MinLength: validation.Int(1)},
				"destination": {Type: "string", MinLength: validation.Int(1), MaxLength: validation.Int(120)},
				"days":        {Type: "integer", Minimum: validation.Float(1), Maximum: validation.Float(float64(maxDays))},
			},
		},
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

	if err := validation.ValidateVariables([]byte(job.Variables), h.schema); err != nil {
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
	destination := strings.TrimSpace(input.Destination)
	if destination == "" || input.Days < 1 {
		return nil, errors.NewInvalidInputError("destination and a positive number of days are required")
	}

	items, err := h.closet.ListItems(ctx, input.UserID)
	if err != nil {
		return nil, err
	}

	output := &Output{
		Destination: destination,
		Days:        input.Days,
		PackedItems: []models.ClothingSummary{},
	}

	prompt, err := buildPrompt(destination, input.Days, items)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}

	var list models.PackingList
	if err := h.stylist.Ask(ctx, prompt, &list); err != nil {
		h.logger.Warn("packing list failed, using fallback advice", map[string]interface{}{
			"userId": input.UserID,
			"error":  err,
		})
		metrics.StylistFallbacks.WithLabelValues(TaskType).Inc()
		output.TravelAdvice = FallbackAdvice
		output.Fallback = true
		return output, nil
	}

	// Closet order is kept; ids the closet does not have are dropped.
	selected := make(map[string]bool, len(list.SelectedItemIDs))
	for _, id := range list.SelectedItemIDs {
		selected[id] = true
	}
	for _, item := range items {
		if selected[item.ID] {
			output.PackedItems = append(output.PackedItems, item.Summary())
		}
	}
	output.TravelAdvice = list.TravelAdvice

	h.logger.Info("packing list ready", map[string]interface{}{
		"userId":      input.UserID,
		"destination": destination,
		"days":        input.Days,
		"packed":      len(output.PackedItems),
	})
	return output, nil
}

func buildPrompt(destination string, days int, items []models.ClothingItem) (string, error) {
	inventory := make([]map[string]string, 0, len(items))
	for _, item := range items {
		inventory = append(inventory, map[string]string{
			"id":          item.ID,
			"category":    item.Category,
			"description": item.Description,
			"color":       item.Color,
		})
	}
	raw, err := json.Marshal(inventory)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`Travel Stylist Agent. Task: Create a packing list from User Inventory for a %d day trip to %s.
Inventory: %s.
Return ONLY JSON: { "selectedItemIds": ["id1", "id2"], "travelAdvice": "Brief, witty style advice for this destination." }`,
		days, destination, raw), nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
