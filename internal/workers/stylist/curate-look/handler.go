package curatelook

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
	TaskType = "curate-look"
)

var inputSchema = validation.JSONSchema{
	Required: []string{"userId"},
	Properties: map[string]validation.Property{
		"userId": {Type: "string", MinLength: validation.Int(1)},
		"theme":  {Type: "string", MaxLength: validation.Int(200), Nullable: true},
	},
}

type ProfileReader interface {
	GetProfile(ctx context.Context, userID string) (*models.Profile, error)
}

type LookWriter interface {
	PushLook(ctx context.Context, userID string, look models.LookFeedEntry) error
}

type Handler struct {
	config   *Config
	stylist  *genai.Client
	profiles ProfileReader
	feed     LookWriter
	links    *retail.LinkBuilder
	now      func() time.Time
	reporter *camunda.Reporter
	logger   logger.Logger
}

func NewHandler(config *Config, stylist *genai.Client, profiles ProfileReader, feed LookWriter, links *retail.LinkBuilder, obs *observability.Observability, log logger.Logger) *Handler {
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})
	return &Handler{
		config:   config,
		stylist:  stylist,
		profiles: profiles,
		feed:     feed,
		links:    links,
		now:      func() time.Time { return time.Now().UTC() },
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
	theme := strings.TrimSpace(input.Theme)
	if theme == "" {
		theme = h.config.DefaultTheme
	}

	profile, err := h.profiles.GetProfile(ctx, input.UserID)
	if err != nil && !errors.HasCode(err, errors.ErrCodeProfileNotFound) {
		return nil, err
	}
	gender := profile.GenderOrUnisex()

	var look models.CuratedLook
	if err := h.stylist.Ask(ctx, buildPrompt(theme, gender), &look); err != nil {
		return nil, errors.NewLookCurationFailedError(err)
	}

	entry := models.LookFeedEntry{
		LookName:  look.LookName,
		Vibe:      look.Vibe,
		Theme:     theme,
		Items:     make([]models.ShopItem, 0, len(look.Items)),
		CreatedAt: h.now(),
	}
	for _, it := range look.Items {
		query := it.Query
		if strings.TrimSpace(query) == "" {
			query = it.Name
		}
		entry.Items = append(entry.Items, models.ShopItem{
			Type:    it.Type,
			Name:    it.Name,
			Query:   it.Query,
			ShopURL: h.links.ShopURL(query, gender),
		})
	}

	output := &Output{Look: entry, Saved: true}
	if err := h.feed.PushLook(ctx, input.UserID, entry); err != nil {
		h.logger.Warn("look not saved to feed", map[string]interface{}{
			"userId": input.UserID,
			"error":  err,
		})
		output.Saved = false
	}

	h.logger.Info("look curated", map[string]interface{}{
		"userId":   input.UserID,
		"theme":    theme,
		"lookName": entry.LookName,
		"items":    len(entry.Items),
	})
	return output, nil
}

func buildPrompt(theme string, gender models.Gender) string {
	return fmt.Sprintf(`Create a trending look for %q. IMPORTANT: The user identifies as %q. Suggest ONLY clothing items designed for this gender category. Return JSON: { "lookName": "str", "vibe": "str", "items": [{ "type": "str", "name": "str", "query": "str" }] }`,
		theme, string(gender))
}

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	return h.execute(ctx, input)
}
