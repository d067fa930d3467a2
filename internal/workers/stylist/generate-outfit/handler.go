package generateoutfit

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
	"muse-workers/internal/common/observability"
	"muse-workers/internal/common/retail"
	"muse-workers/internal/common/validation"
	"muse-workers/internal/models"
)

const (
	TaskType = "generate-outfit"
)

var inputSchema = validation.JSONSchema{
	Required: []string{"userId"},
	Properties: map[string]validation.Property{
		"userId":   {Type: "string", MinLength: validation.Int(1)},
		"occasion": {Type: "string", MaxLength: validation.Int(200), Nullable: true},
	},
}

type Closet interface {
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
	ListItems(ctx context.Context, userID string) ([]models.ClothingItem, error)
}

type Handler struct {
	config   *Config
	stylist  *genai.Client
	closet   Closet
	links    *retail.LinkBuilder
	reporter *camunda.Reporter
	logger   logger.Logger
}

func NewHandler(config *Config, stylist *genai.Client, closet Closet, links *retail.LinkBuilder, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:   config,
		stylist:  stylist,
		closet:   closet,
		links:    links,
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
	occasion := strings.TrimSpace(input.Occasion)
	if occasion == "" {
		occasion = h.config.DefaultOccasion
	}

	items, err := h.closet.ListItems(ctx, input.UserID)
	if err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, errors.NewClosetEmptyError(input.UserID)
	}

	profile, err := h.closet.GetProfile(ctx, input.UserID)
	if err != nil && !errors.HasCode(err, errors.ErrCodeProfileNotFound) {
		return nil, err
	}

	prompt, err := buildPrompt(profile, occasion, items)
	if err != nil {
		return nil, errors.NewInternalError(err)
	}

	var selection models.OutfitSelection
	if err := h.stylist.Ask(ctx, prompt, &selection); err != nil {
		return nil, errors.NewOutfitGenerationFailedError(err)
	}

	output := &Output{
		Outfit:   resolve(selection, items),
		Occasion: occasion,
	}
	if m := selection.MissingItem; m != nil && (m.Name != "" || m.MyntraQuery != "") {
		rec := *m
		query := rec.MyntraQuery
		if query == "" {
			query = rec.Name
		}
		rec.ShopURL = h.links.ShopURL(query, profile.GenderOrUnisex())
		output.ShopRecommendation = &rec
	}

	h.logger.Info("outfit generated", map[string]interface{}{
		"userId":       input.UserID,
		"occasion":     occasion,
		"closetSize":   len(items),
		"hasAccessory": output.Outfit.Accessory != nil,
	})
	return output, nil
}

func buildPrompt(profile *models.Profile, occasion string, items []models.ClothingItem) (string, error) {
	inventory := make([]models.ClothingSummary, 0, len(items))
	for _, item := range items {
		inventory = append(inventory, item.Summary())
	}
	raw, err := json.Marshal(inventory)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(`Stylist AI. Profile: %s. Occasion: %s. Inventory: %s. Suggest a unique outfit matching the user's gender/preference. Return ONLY JSON: { "topId": "str", "bottomId": "str", "shoesId": "str", "accessoryId": "str|null", "reasoning": "str", "missingItem": { "name": "str", "type": "str", "why": "str", "myntraQuery": "str" } }`,
		profile.PromptContext(), occasion, raw), nil
}

func resolve(sel models.OutfitSelection, items []models.ClothingItem) Outfit {
	byID := make(map[string]models.ClothingSummary, len(items))
	for _, item := range items {
		byID[item.ID] = item.Summary()
	}
	lookup := func(id string) *models.ClothingSummary {
		if s, ok := byID[id]; ok && id != "" {
			return &s
		}
		return nil
	}

	out := Outfit{
		Top:       lookup(sel.TopID),
		Bottom:    lookup(sel.BottomID),
		Shoes:     lookup(sel.ShoesID),
		Reasoning: sel.Reasoning,
	}
	if sel.AccessoryID != nil {
		out.Accessory = lookup(*sel.AccessoryID)
	}
	return out
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
