package genai

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/kaptinlin/jsonrepair"
	"github.com/xeipuuv/gojsonschema"

	"muse-workers/internal/common/errors"
	"muse-workers/internal/common/resilient"
	"muse-workers/internal/models"
)

type schemaCache struct {
	mu      sync.RWMutex
	schemas map[string]*gojsonschema.Schema
}

func newSchemaCache() *schemaCache {
	return &schemaCache{schemas: make(map[string]*gojsonschema.Schema)}
}

func (s *schemaCache) get(p models.Payload) (*gojsonschema.Schema, error) {
	kind := p.Kind()
	s.mu.RLock()
	schema, ok := s.schemas[kind]
	s.mu.RUnlock()
	if ok {
		return schema, nil
	}

	schema, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(p.Schema()))
	if err != nil {
		return nil, fmt.Errorf("compile %s schema: %w", kind, err)
	}
	s.mu.Lock()
	s.schemas[kind] = schema
	s.mu.Unlock()
	return schema, nil
}

// Extract applies the named extraction strategy. Unknown names use the balanced scan.
func Extract(text, strategy string) string {
	if strategy == ExtractionFirstLast {
		return resilient.ExtractJSON(text)
	}
	return resilient.ExtractBalancedJSON(text)
}

// DecodeText is Decode without a Client, using a throwaway schema cache.
func DecodeText(text, strategy string, out models.Payload) error {
	return decode(text, strategy, newSchemaCache(), out)
}

func decode(text, strategy string, schemas *schemaCache, out models.Payload) error {
	kind := out.Kind()
	doc := Extract(text, strategy)

	if !json.Valid([]byte(doc)) {
		repaired, err := jsonrepair.JSONRepair(doc)
		if err != nil {
			return errors.NewMalformedPayloadError(kind, fmt.Errorf("not JSON and not repairable: %w", err))
		}
		doc = repaired
	}

	schema, err := schemas.get(out)
	if err != nil {
		return errors.NewInternalError(err)
	}
	result, err := schema.Validate(gojsonschema.NewStringLoader(doc))
	if err != nil {
		return errors.NewMalformedPayloadError(kind, err)
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, e.String())
		}
		return errors.NewMalformedPayloadError(kind, fmt.Errorf("schema violation: %s", strings.Join(msgs, "; ")))
	}

	if err := json.Unmarshal([]byte(doc), out); err != nil {
		return errors.NewMalformedPayloadError(kind, err)
	}
	return nil
}
