package genai

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"muse-workers/internal/common/errors"
	"muse-workers/internal/common/logger"
	"muse-workers/internal/common/resilient"
	"muse-workers/internal/models"
)

func candidateBody(text string) string {
	b, _ := json.Marshal(map[string]interface{}{
		"candidates": []interface{}{
			map[string]interface{}{
				"content":      map[string]interface{}{"role": "model", "parts": []interface{}{map[string]interface{}{"text": text}}},
				"finishReason": "STOP",
			},
		},
		"usageMetadata": map[string]interface{}{"promptTokenCount": 10, "candidatesTokenCount": 5, "totalTokenCount": 15},
	})
	return string(b)
}

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	rc := resilient.NewClient(srv.Client(), logger.NewTestLogger(t), nil)
	return NewClient(Config{
		BaseURL: srv.URL,
		Model:   "test-model",
		APIKey:  "k3y",
		Policy:  resilient.Policy{MaxRetries: 1, InitialBackoff: time.Millisecond},
	}, rc, nil, logger.NewTestLogger(t))
}

func TestGenerate_BuildsRequestAndReadsEnvelope(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1beta/models/test-model:generateContent", r.URL.Path)
		assert.Equal(t, "k3y", r.URL.Query().Get("key"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req GenerateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Contents, 1)
		require.Len(t, req.Contents[0].Parts, 2)
		assert.Equal(t, "describe this", req.Contents[0].Parts[0].Text)
		require.NotNil(t, req.Contents[0].Parts[1].InlineData)
		assert.Equal(t, "image/jpeg", req.Contents[0].Parts[1].InlineData.MimeType)
		assert.Equal(t, "QUJD", req.Contents[0].Parts[1].InlineData.Data)

		fmt.Fprint(w, candidateBody("hello"))
	})

	env, err := c.Generate(context.Background(), "describe this", "data:image/jpeg;base64,QUJD")

	require.NoError(t, err)
	assert.Equal(t, "hello", env.RawText)
	assert.Equal(t, "STOP", env.FinishReason)
	assert.Equal(t, 15, env.TotalTokens)
}

func TestGenerate_RetriesThenExhausts(t *testing.T) {
	var calls int32
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	_, err := c.Generate(context.Background(), "hi")

	require.Error(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.True(t, errors.HasCode(err, errors.ErrCodeRetryExhausted))
}

func TestGenerate_NoCandidates(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"candidates":[],"promptFeedback":{"blockReason":"SAFETY"}}`)
	})

	_, err := c.Generate(context.Background(), "hi")

	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeMalformedPayload))
	assert.Contains(t, err.Error(), "SAFETY")
}

func TestAsk_DecodesFencedPayload(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, candidateBody("Sure!\n```json\n{\"topId\":\"t1\",\"bottomId\":\"b1\",\"shoesId\":\"s1\",\"accessoryId\":null,\"reasoning\":\"Crisp {and} clean\",\"missingItem\":null}\n```\nEnjoy {darling}"))
	})

	var out models.OutfitSelection
	err := c.Ask(context.Background(), "style me", &out)

	require.NoError(t, err)
	assert.Equal(t, "t1", out.TopID)
	assert.Nil(t, out.AccessoryID)
	assert.Nil(t, out.MissingItem)
	assert.Equal(t, "Crisp {and} clean", out.Reasoning)
}

func TestParseImage(t *testing.T) {
	assert.Equal(t, InlineData{MimeType: "image/png", Data: "AAA"}, ParseImage("data:image/png;base64,AAA"))
	assert.Equal(t, InlineData{MimeType: "image/webp", Data: "BBB"}, ParseImage("data:image/webp;base64,BBB"))
	assert.Equal(t, InlineData{MimeType: "image/png", Data: "CCC"}, ParseImage("CCC"))
	assert.Equal(t, InlineData{MimeType: "image/png", Data: "DDD"}, ParseImage("data:;base64,DDD"))
}

func TestEndpointEscapesKey(t *testing.T) {
	c := NewClient(Config{BaseURL: "https://ai.example/", Model: "m", APIKey: "a&b"}, nil, nil, nil)
	assert.Equal(t, "https://ai.example/v1beta/models/m:generateContent?key=a%26b", c.endpoint())
}
