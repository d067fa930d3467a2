package identifyclothing

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	lru "github.com/hashicorp/golang-lru/v2"

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
	TaskType = "identify-clothing"
)

var inputSchema = validation.JSONSchema{
	Required: []string{"userId", "image"},
	Properties: map[string]validation.Property{
		"userId": {Type: "string", MinLength: validation.Int(1)},
		"image":  {Type: "string", MinLength: validation.Int(1)},
	},
}

type ProfileReader interface {
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
}

type Handler struct {
	config   *Config
	stylist  *genai.Client
	profiles ProfileReader
	cache    *lru.Cache[string, models.ClothingIdentification]
	reporter *camunda.Reporter
	logger   logger.Logger
}

func NewHandler(config *Config, stylist *genai.Client, profiles ProfileReader, obs *observability.Observability, log logger.Logger) *Handler {
	size := config.CacheSize
	if size <= 0 {
		size = LoadConfig().CacheSize
	}
	// lru.New only fails for a non-positive size.
	cache, _ := lru.New[string, models.ClothingIdentification](size)

	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:   config,
		stylist:  stylist,
		profiles: profiles,
		cache:    cache,
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

	key := imageKey(input.Image)
	if cached, ok := h.cache.Get(key); ok {
		h.logger.Debug("identification cache hit", map[string]interface{}{"userId": input.UserID})
		return &Output{ClothingIdentification: cached}, nil
	}

	var profile *models.Profile
	if p, err := h.profiles.GetProfile(ctx, input.UserID); err == nil {
		profile = p
	} else if !errors.HasCode(err, errors.ErrCodeProfileNotFound) {
		h.logger.Warn("profile lookup failed, identifying without context", map[string]interface{}{
			"userId": input.UserID,
			"error":  err,
		})
	}

	var id models.ClothingIdentification
	if err := h.stylist.Ask(ctx, buildPrompt(profile), &id, input.Image); err != nil {
		h.logger.Warn("identification failed, using fallback", map[string]interface{}{
			"userId": input.UserID,
			"error":  err,
		})
		metrics.StylistFallbacks.WithLabelValues(TaskType).Inc()
		return &Output{ClothingIdentification: models.FallbackIdentification(), Fallback: true}, nil
	}

	id.Category = models.NormalizeCategory(id.Category)
	h.cache.Add(key, id)

	h.logger.Info("clothing identified", map[string]interface{}{
		"userId":   input.UserID,
		"category": id.Category,
		"color":    id.Color,
	})
	return &Output{ClothingIdentification: id}, nil
}

func buildPrompt(profile *models.Profile) string {
	return fmt.Sprintf(`Identify this clothing item. Context: %s. Return JSON: { "category": "Top/Bottom/Shoes/Accessory", "color": "str", "style": "str", "description": "str" }`,
		profile.PromptContext())
}

func imageKey(image string) string {
	sum := sha256.Sum256([]byte(genai.ParseImage(image).Data))
	return hex.EncodeToString(sum[:])
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
