// Package genai talks to the hosted generateContent endpoint and decodes the
// stylist's free-form answers into typed payloads.
package genai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"muse-workers/internal/common/errors"
	"muse-workers/internal/common/logger"
	"muse-workers/internal/common/observability"
	"muse-workers/internal/common/resilient"
	"muse-workers/internal/models"
)

const (
	DefaultBaseURL = "https://generativelanguage.googleapis.com"
	DefaultModel   = "gemini-2.5-flash-preview-09-2025"

	ExtractionBalanced  = "balanced"
	ExtractionFirstLast = "first-last"

	defaultImageMimeType = "image/png"
)

type Config struct {
	BaseURL    string
	Model      string
	APIKey     string
	Extraction string
	Policy     resilient.Policy
	// Temperature is sent only when set.
	Temperature *float64
}

// Requester is satisfied by *resilient.Client.
type Requester interface {
	Request(ctx context.Context, endpoint string, opts resilient.RequestOptions, policy resilient.Policy) (json.RawMessage, error)
}

type Client struct {
	config    Config
	requester Requester
	schemas   *schemaCache
	obs       *observability.Observability
	logger    logger.Logger
}

func NewClient(config Config, requester Requester, obs *observability.Observability, log logger.Logger) *Client {
	if config.BaseURL == "" {
		config.BaseURL = DefaultBaseURL
	}
	if config.Model == "" {
		config.Model = DefaultModel
	}
	if config.Extraction == "" {
		config.Extraction = ExtractionBalanced
	}
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	return &Client{
		config:    config,
		requester: requester,
		schemas:   newSchemaCache(),
		obs:       obs,
		logger:    log,
	}
}

func (c *Client) endpoint() string {
	return fmt.Sprintf("%s/v1beta/models/%s:generateContent?key=%s",
		strings.TrimRight(c.config.BaseURL, "/"),
		url.PathEscape(c.config.Model),
		url.QueryEscape(c.config.APIKey),
	)
}

// Generate sends prompt plus any images (data URLs or bare base64) and returns
// the concatenated candidate text.
func (c *Client) Generate(ctx context.Context, prompt string, images ...string) (env *Envelope, err error) {
	ctx, span := c.obs.StartSpan(ctx, "genai.generate",
		attribute.String("genai.model", c.config.Model),
		attribute.Int("genai.images", len(images)),
	)
	defer func() { observability.EndSpan(span, err) }()

	parts := []Part{{Text: prompt}}
	for _, img := range images {
		inline := ParseImage(img)
		parts = append(parts, Part{InlineData: &inline})
	}

	reqBody := GenerateRequest{Contents: []Content{{Parts: parts}}}
	if c.config.Temperature != nil {
		reqBody.GenerationConfig = &GenerationConfig{Temperature: c.config.Temperature}
	}
	body, err := json.Marshal(reqBody)
	if err != nil {
		return nil, errors.NewInternalError(fmt.Errorf("marshal generate request: %w", err))
	}

	raw, err := c.requester.Request(ctx, c.endpoint(), resilient.RequestOptions{
		Method:  http.MethodPost,
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    body,
	}, c.config.Policy)
	if err != nil {
		return nil, err
	}

	var resp GenerateResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, errors.NewMalformedPayloadError("envelope", err)
	}
	return envelopeFrom(resp)
}

func envelopeFrom(resp GenerateResponse) (*Envelope, error) {
	if len(resp.Candidates) == 0 {
		reason := "no candidates"
		if resp.PromptFeedback != nil && resp.PromptFeedback.BlockReason != "" {
			reason = "prompt blocked: " + resp.PromptFeedback.BlockReason
		}
		return nil, errors.NewMalformedPayloadError("envelope", fmt.Errorf("%s", reason))
	}

	cand := resp.Candidates[0]
	var sb strings.Builder
	for _, p := range cand.Content.Parts {
		sb.WriteString(p.Text)
	}
	if sb.Len() == 0 {
		return nil, errors.NewMalformedPayloadError("envelope", fmt.Errorf("candidate has no text (finishReason %q)", cand.FinishReason))
	}

	return &Envelope{
		RawText:         sb.String(),
		FinishReason:    cand.FinishReason,
		PromptTokens:    resp.UsageMetadata.PromptTokenCount,
		CandidateTokens: resp.UsageMetadata.CandidatesTokenCount,
		TotalTokens:     resp.UsageMetadata.TotalTokenCount,
	}, nil
}

// Ask generates a response and decodes it into out.
func (c *Client) Ask(ctx context.Context, prompt string, out models.Payload, images ...string) (err error) {
	start := time.Now()
	ctx, span := c.obs.StartSpan(ctx, "genai.ask", attribute.String("payload.kind", out.Kind()))
	defer func() {
		status := "ok"
		if err != nil {
			status = string(errors.Normalize(err).Code)
		}
		c.obs.RecordAICall(ctx, out.Kind(), time.Since(start), status)
		observability.EndSpan(span, err)
	}()

	env, err := c.Generate(ctx, prompt, images...)
	if err != nil {
		return err
	}
	c.logger.Debug("stylist responded", map[string]interface{}{
		"kind":         out.Kind(),
		"finishReason": env.FinishReason,
		"totalTokens":  env.TotalTokens,
	})
	return c.Decode(env, out)
}

// Decode extracts, validates and unmarshals env's text into out.
func (c *Client) Decode(env *Envelope, out models.Payload) error {
	return decode(env.RawText, c.config.Extraction, c.schemas, out)
}

// ParseImage accepts "data:<mime>;base64,<data>" or bare base64.
func ParseImage(s string) InlineData {
	if strings.HasPrefix(s, "data:") {
		if idx := strings.Index(s, ","); idx != -1 {
			meta := s[len("data:"):idx]
			mime := strings.TrimSuffix(meta, ";base64")
			if mime == "" {
				mime = defaultImageMimeType
			}
			return InlineData{MimeType: mime, Data: s[idx+1:]}
		}
	}
	return InlineData{MimeType: defaultImageMimeType, Data: s}
}
