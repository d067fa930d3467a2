package loadwardrobe

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"golang.org/x/sync/errgroup"

	"muse-workers/internal/common/camunda"
	"muse-workers/internal/common/errors"
	"muse-workers/internal/common/logger"
	"muse-workers/internal/common/observability"
	"muse-workers/internal/common/validation"
	"muse-workers/internal/models"
)

const (
	TaskType = "load-wardrobe"
)

var inputSchema = validation.JSONSchema{
	Required: []string{"userId"},
	Properties: map[string]validation.Property{
		"userId": {Type: "string", MinLength: validation.Int(1)},
	},
}

type WardrobeReader interface {
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
	ListItems(ctx context.Context, userID string) ([]models.ClothingItem, error)
	ListOutfits(ctx context.Context, userID string) ([]models.Outfit, error)
}

type LookReader interface {
	ListLooks(ctx context.Context, userID string) ([]models.LookFeedEntry, error)
}

type Handler struct {
	config   *Config
	store    WardrobeReader
	looks    LookReader
	reporter *camunda.Reporter
	logger   logger.Logger
}

func NewHandler(config *Config, store WardrobeReader, looks LookReader, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:   config,
		store:    store,
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
	profile, err := h.store.GetProfile(ctx, input.UserID)
	if errors.HasCode(err, errors.ErrCodeProfileNotFound) {
		return &Output{
			NeedsOnboarding: true,
			Closet:          []models.ClothingItem{},
			Outfits:         []models.Outfit{},
			CuratedLooks:    []models.LookFeedEntry{},
		}, nil
	}
	if err != nil {
		return nil, err
	}

	output := &Output{Profile: profile}
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		items, err := h.store.ListItems(gctx, input.UserID)
		if err != nil {
			return err
		}
		if !h.config.IncludeImages {
			for i := range items {
				items[i].Image = ""
			}
		}
		output.Closet = items
		return nil
	})
	g.Go(func() error {
		outfits, err := h.store.ListOutfits(gctx, input.UserID)
		output.Outfits = outfits
		return err
	})
	g.Go(func() error {
		looks, err := h.looks.ListLooks(gctx, input.UserID)
		if err != nil {
			// The feed is disposable; an empty one is a valid answer.
			h.logger.Warn("curated looks unavailable", map[string]interface{}{
				"userId": input.UserID,
				"error":  err,
			})
			looks = []models.LookFeedEntry{}
		}
		output.CuratedLooks = looks
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	h.logger.Info("wardrobe loaded", map[string]interface{}{
		"userId":  input.UserID,
		"items":   len(output.Closet),
		"outfits": len(output.Outfits),
		"looks":   len(output.CuratedLooks),
	})
	return output, nil
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
