package searchcloset

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"muse-workers/internal/common/errors"
	"muse-workers/internal/common/logger"
	"muse-workers/internal/common/wardrobe"
)

func createTestConfig() *Config {
	return &Config{
		Timeout:     5 * time.Second,
		DefaultSize: 20,
	}
}

func createTestLogger(t *testing.T) logger.Logger {
	return logger.NewZapAdapter(zaptest.NewLogger(t))
}

// newIndex serves _search from a fake Elasticsearch and records the last query body.
func newIndex(t *testing.T, status int, body string) (*wardrobe.ClosetIndex, *string) {
	t.Helper()
	var lastQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		if strings.HasSuffix(r.URL.Path, "/_search") {
			b, _ := io.ReadAll(r.Body)
			lastQuery = string(b)
			w.WriteHeader(status)
			fmt.Fprint(w, body)
			return
		}
		fmt.Fprint(w, `{}`)
	}))
	t.Cleanup(srv.Close)

	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return wardrobe.NewClosetIndex(es, "muse-closet", "muse-closet-ai"), &lastQuery
}

func TestHandler_Execute(t *testing.T) {
	index, lastQuery := newIndex(t, http.StatusOK,
		`{"hits":{"total":{"value":2},"hits":[
			{"_id":"i1","_source":{"category":"Top","color":"Navy","style":"Casual","description":"Linen shirt"}},
			{"_id":"i2","_source":{"category":"Top","color":"Navy","style":"Smart","description":"Polo"}}]}}`)
	h := NewHandler(createTestConfig(), index, nil, createTestLogger(t))

	out, err := h.Execute(context.Background(), &Input{UserID: "u1", Text: " linen ", Category: "shirt", Color: "navy"})
	require.NoError(t, err)
	assert.Equal(t, int64(2), out.TotalHits)
	require.Len(t, out.Items, 2)
	assert.Equal(t, "Linen shirt", out.Items[0].Description)

	var sent map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(*lastQuery), &sent))
	assert.Equal(t, float64(20), sent["size"])
	assert.Contains(t, *lastQuery, `"category":"Top"`)
	assert.Contains(t, *lastQuery, `"query":"linen"`)
}

func TestHandler_Execute_NoHits(t *testing.T) {
	index, _ := newIndex(t, http.StatusOK, `{"hits":{"total":{"value":0},"hits":[]}}`)
	h := NewHandler(createTestConfig(), index, nil, createTestLogger(t))

	out, err := h.Execute(context.Background(), &Input{UserID: "u1", Size: 5})
	require.NoError(t, err)
	assert.Empty(t, out.Items)
	assert.Zero(t, out.TotalHits)
}

func TestHandler_Execute_SearchFailure(t *testing.T) {
	index, _ := newIndex(t, http.StatusBadRequest, `{"error":{"type":"parsing_exception"}}`)
	h := NewHandler(createTestConfig(), index, nil, createTestLogger(t))

	_, err := h.Execute(context.Background(), &Input{UserID: "u1"})
	require.Error(t, err)
	assert.True(t, errors.HasCode(err, errors.ErrCodeSearchFailed))
}
