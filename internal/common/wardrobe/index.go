package wardrobe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/elastic/go-elasticsearch/v8"

	"muse-workers/internal/common/errors"
	"muse-workers/internal/models"
)

const indexMapping = `{
  "mappings": {
    "properties": {
      "app_id":      {"type": "keyword"},
      "user_id":     {"type": "keyword"},
      "category":    {"type": "keyword", "fields": {"text": {"type": "text"}}},
      "color":       {"type": "keyword", "fields": {"text": {"type": "text"}}},
      "style":       {"type": "text"},
      "description": {"type": "text"},
      "created_at":  {"type": "date"}
    }
  }
}`

// ClosetIndex mirrors clothing metadata into Elasticsearch. Images are not indexed.
type ClosetIndex struct {
	es    *elasticsearch.Client
	index string
	appID string
}

func NewClosetIndex(es *elasticsearch.Client, index, appID string) *ClosetIndex {
	return &ClosetIndex{es: es, index: index, appID: appID}
}

type closetDoc struct {
	AppID       string `json:"app_id"`
	UserID      string `json:"user_id"`
	Category    string `json:"category"`
	Color       string `json:"color"`
	Style       string `json:"style"`
	Description string `json:"description"`
	CreatedAt   string `json:"created_at"`
}

// SearchQuery filters a user's closet. Empty fields are ignored.
type SearchQuery struct {
	UserID   string
	Text     string
	Category string
	Color    string
	Size     int
}

type SearchResult struct {
	Items     []models.ClothingSummary `json:"items"`
	TotalHits int64                    `json:"totalHits"`
}

// EnsureIndex creates the index with its mapping when it does not exist yet.
func (c *ClosetIndex) EnsureIndex(ctx context.Context) error {
	res, err := c.es.Indices.Exists([]string{c.index}, c.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return errors.NewSearchFailedError(err)
	}
	res.Body.Close()
	if res.StatusCode == http.StatusOK {
		return nil
	}

	res, err = c.es.Indices.Create(c.index,
		c.es.Indices.Create.WithBody(strings.NewReader(indexMapping)),
		c.es.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return errors.NewSearchFailedError(err)
	}
	defer res.Body.Close()
	if res.IsError() && !strings.Contains(readBody(res.Body), "resource_already_exists_exception") {
		return errors.NewSearchFailedError(fmt.Errorf("create index: %s", res.Status()))
	}
	return nil
}

func (c *ClosetIndex) IndexItem(ctx context.Context, item models.ClothingItem) error {
	body, err := json.Marshal(closetDoc{
		AppID:       c.appID,
		UserID:      item.UserID,
		Category:    item.Category,
		Color:       item.Color,
		Style:       item.Style,
		Description: item.Description,
		CreatedAt:   item.CreatedAt.Format(time.RFC3339),
	})
	if err != nil {
		return errors.NewSearchFailedError(err)
	}

	res, err := c.es.Index(c.index, bytes.NewReader(body),
		c.es.Index.WithDocumentID(item.ID),
		c.es.Index.WithRefresh("wait_for"),
		c.es.Index.WithContext(ctx),
	)
	if err != nil {
		return errors.NewSearchFailedError(err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return errors.NewSearchFailedError(fmt.Errorf("index item %s: %s", item.ID, res.Status()))
	}
	return nil
}

// RemoveItem deletes the document; a missing document is not an error.
func (c *ClosetIndex) RemoveItem(ctx context.Context, id string) error {
	res, err := c.es.Delete(c.index, id, c.es.Delete.WithContext(ctx))
	if err != nil {
		return errors.NewSearchFailedError(err)
	}
	defer res.Body.Close()
	if res.IsError() && res.StatusCode != http.StatusNotFound {
		return errors.NewSearchFailedError(fmt.Errorf("remove item %s: %s", id, res.Status()))
	}
	return nil
}

func (c *ClosetIndex) SearchItems(ctx context.Context, q SearchQuery) (*SearchResult, error) {
	body, err := json.Marshal(buildSearchQuery(c.appID, q))
	if err != nil {
		return nil, errors.NewSearchFailedError(err)
	}

	res, err := c.es.Search(
		c.es.Search.WithContext(ctx),
		c.es.Search.WithIndex(c.index),
		c.es.Search.WithBody(bytes.NewReader(body)),
	)
	if err != nil {
		return nil, errors.NewSearchFailedError(err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return nil, errors.NewSearchFailedError(fmt.Errorf("search: %s", res.Status()))
	}

	var parsed struct {
		Hits struct {
			Total struct {
				Value int64 `json:"value"`
			} `json:"total"`
			Hits []struct {
				ID     string    `json:"_id"`
				Source closetDoc `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, errors.NewSearchFailedError(fmt.Errorf("decode search response: %w", err))
	}

	out := &SearchResult{
		Items:     make([]models.ClothingSummary, 0, len(parsed.Hits.Hits)),
		TotalHits: parsed.Hits.Total.Value,
	}
	for _, h := range parsed.Hits.Hits {
		out.Items = append(out.Items, models.ClothingSummary{
			ID:          h.ID,
			Category:    h.Source.Category,
			Color:       h.Source.Color,
			Style:       h.Source.Style,
			Description: h.Source.Description,
		})
	}
	return out, nil
}

func buildSearchQuery(appID string, q SearchQuery) map[string]interface{} {
	size := q.Size
	if size <= 0 || size > 100 {
		size = 20
	}

	filterClauses := []interface{}{
		map[string]interface{}{"term": map[string]interface{}{"app_id": appID}},
		map[string]interface{}{"term": map[string]interface{}{"user_id": q.UserID}},
	}
	if q.Category != "" {
		filterClauses = append(filterClauses, map[string]interface{}{
			"term": map[string]interface{}{"category": q.Category},
		})
	}
	if q.Color != "" {
		filterClauses = append(filterClauses, map[string]interface{}{
			"match": map[string]interface{}{"color.text": q.Color},
		})
	}

	mustClauses := []interface{}{}
	if strings.TrimSpace(q.Text) != "" {
		mustClauses = append(mustClauses, map[string]interface{}{
			"multi_match": map[string]interface{}{
				"query":     q.Text,
				"fields":    []string{"description^3", "style^2", "color.text", "category.text"},
				"type":      "best_fields",
				"fuzziness": "AUTO",
			},
		})
	} else {
		mustClauses = append(mustClauses, map[string]interface{}{"match_all": map[string]interface{}{}})
	}

	return map[string]interface{}{
		"size": size,
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must":   mustClauses,
				"filter": filterClauses,
			},
		},
		"sort": []interface{}{"_score", map[string]interface{}{"created_at": "desc"}},
	}
}

func readBody(r io.Reader) string {
	b, _ := io.ReadAll(io.LimitReader(r, 4096))
	return string(b)
}
