package saveoutfit

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
	TaskType = "save-outfit"

	CustomReasoning = "Personally curated look."
)

var inputSchema = validation.JSONSchema{
	Required: []string{"userId", "outfit"},
	Properties: map[string]validation.Property{
		"userId": {Type: "string", MinLength: validation.Int(1)},
		"outfit": {
			Type:     "object",
			Required: []string{"topId", "bottomId", "shoesId"},
			Properties: map[string]validation.Property{
				"topId":       {Type: "string", MinLength: validation.Int(1)},
				"bottomId":    {Type: "string", MinLength: validation.Int(1)},
				"shoesId":     {Type: "string", MinLength: validation.Int(1)},
				"accessoryId": {Type: "string", Nullable: true},
				"reasoning":   {Type: "string", Nullable: true},
			},
		},
		"missingItem": {Type: "object", Nullable: true},
		"custom":      {Type: "boolean", Nullable: true},
		"occasion":    {Type: "string", Nullable: true},
	},
}

type OutfitStore interface {
	GetItems(ctx context.Context, userID string, ids []string) ([]models.ClothingItem, error)
	SaveOutfit(ctx context.Context, o models.Outfit) (*models.Outfit, error)
}

type Handler struct {
	config   *Config
	store    OutfitStore
	reporter *camunda.Reporter
	logger   logger.Logger
}

func NewHandler(config *Config, store OutfitStore, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:   config,
		store:    store,
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
	o := input.Outfit
	if o.TopID == "" || o.BottomID == "" || o.ShoesID == "" {
		return nil, errors.NewInvalidInputError("outfit needs a top, a bottom and shoes")
	}

	accessory := o.AccessoryID
	if accessory != nil && strings.TrimSpace(*accessory) == "" {
		accessory = nil
	}

	ids := []string{o.TopID, o.BottomID, o.ShoesID}
	if accessory != nil {
		ids = append(ids, *accessory)
	}
	if err := h.checkOwnership(ctx, input.UserID, ids); err != nil {
		return nil, err
	}

	outfit := models.Outfit{
		UserID:      input.UserID,
		TopID:       o.TopID,
		BottomID:    o.BottomID,
		ShoesID:     o.ShoesID,
		AccessoryID: accessory,
		Reasoning:   o.Reasoning,
		MissingItem: input.MissingItem,
		Occasion:    strings.TrimSpace(input.Occasion),
	}
	if input.Custom {
		outfit.Reasoning = CustomReasoning
		outfit.MissingItem = nil
	}

	saved, err := h.store.SaveOutfit(ctx, outfit)
	if err != nil {
		return nil, err
	}

	h.logger.Info("outfit saved", map[string]interface{}{
		"userId":   input.UserID,
		"outfitId": saved.ID,
		"custom":   input.Custom,
	})
	return &Output{Outfit: *saved}, nil
}

// checkOwnership fails when any referenced piece is not in the user's closet.
func (h *Handler) checkOwnership(ctx context.Context, userID string, ids []string) error {
	items, err := h.store.GetItems(ctx, userID, ids)
	if err != nil {
		return err
	}
	found := make(map[string]bool, len(items))
	for _, it := range items {
		found[it.ID] = true
	}
	for _, id := range ids {
		if !found[id] {
			return errors.NewNotFoundError("item", id)
		}
	}
	return nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
