// Package validation checks job variables against a small JSON-schema subset
// before a worker acts on them.
package validation

import (
	"encoding/json"
	"fmt"
	"math"
	"regexp"
	"strings"
	"sync"

	"muse-workers/internal/common/errors"
)

// JSONSchema describes the accepted shape of a job's variables. Variables not
// listed in Properties are ignored unless Strict is set, because Zeebe hands
// every worker the full process scope.
type JSONSchema struct {
	Properties map[string]Property `json:"properties"`
	Required   []string            `json:"required,omitempty"`
	Strict     bool                `json:"strict,omitempty"`
}

type Property struct {
	Type       string              `json:"type"`
	Minimum    *float64            `json:"minimum,omitempty"`
	Maximum    *float64            `json:"maximum,omitempty"`
	Enum       []string            `json:"enum,omitempty"`
	Pattern    *string             `json:"pattern,omitempty"`
	MinLength  *int                `json:"minLength,omitempty"`
	MaxLength  *int                `json:"maxLength,omitempty"`
	Items      *Property           `json:"items,omitempty"`
	Properties map[string]Property `json:"properties,omitempty"`
	Required   []string            `json:"required,omitempty"`
	Nullable   bool                `json:"nullable,omitempty"`
}

type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors,omitempty"`
}

type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// Pointer helpers for building constraints inline.
func Float(v float64) *float64 { return &v }
func Int(v int) *int { return &v }
func String(v string) *string { return &v }

// ValidateInput validates input against schema.
func ValidateInput(input map[string]interface{}, schema JSONSchema) *ValidationResult {
	var errs []ValidationError

	for _, requiredField := range schema.Required {
		v, exists := input[requiredField]
		if !exists || v == nil {
			errs = append(errs, ValidationError{
				Field:   requiredField,
				Message: "required field missing",
				Code:    "REQUIRED_FIELD_MISSING",
			})
			continue
		}
		if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
			errs = append(errs, ValidationError{
				Field:   requiredField,
				Message: "required field is empty",
				Code:    "REQUIRED_FIELD_MISSING",
			})
		}
	}

	for fieldName, value := range input {
		prop, exists := schema.Properties[fieldName]
		if !exists {
			if schema.Strict {
				errs = append(errs, ValidationError{
					Field:   fieldName,
					Message: "field not allowed in schema",
					Code:    "EXTRA_FIELD",
				})
			}
			continue
		}
		errs = append(errs, validateField(fieldName, value, prop)...)
	}

	return &ValidationResult{Valid: len(errs) == 0, Errors: errs}
}

// ValidateVariables decodes raw job variables and validates them. The error,
// if any, is an INVALID_INPUT StandardError naming every violation.
func ValidateVariables(raw []byte, schema JSONSchema) error {
	var input map[string]interface{}
	if err := json.Unmarshal(raw, &input); err != nil {
		return errors.NewInvalidInputError(fmt.Sprintf("variables are not a JSON object: %v", err))
	}
	result := ValidateInput(input, schema)
	if result.Valid {
		return nil
	}
	return errors.NewInvalidInputError(strings.Join(result.GetErrorMessages(), "; "))
}

func validateField(fieldName string, value interface{}, prop Property) []ValidationError {
	if value == nil {
		if prop.Nullable {
			return nil
		}
		return []ValidationError{{Field: fieldName, Message: "value must not be null", Code: "INVALID_TYPE"}}
	}

	if typeErr := validateType(value, prop.Type); typeErr != nil {
		return []ValidationError{{Field: fieldName, Message: typeErr.Error(), Code: "INVALID_TYPE"}}
	}

	var errs []ValidationError
	add := func(code, format string, args ...interface{}) {
		errs = append(errs, ValidationError{Field: fieldName, Message: fmt.Sprintf(format, args...), Code: code})
	}

	switch v := value.(type) {
	case string:
		n := len([]rune(v))
		if prop.MinLength != nil && n < *prop.MinLength {
			add("MIN_LENGTH_VIOLATION", "value must be at least %d characters", *prop.MinLength)
		}
		if prop.MaxLength != nil && n > *prop.MaxLength {
			add("MAX_LENGTH_VIOLATION", "value must be at most %d characters", *prop.MaxLength)
		}
		if prop.Pattern != nil {
			re, err := compilePattern(*prop.Pattern)
			if err != nil || !re.MatchString(v) {
				add("PATTERN_MISMATCH", "value must match pattern %s", *prop.Pattern)
			}
		}
		if len(prop.Enum) > 0 && !contains(prop.Enum, v) {
			add("INVALID_ENUM_VALUE", "value must be one of %v", prop.Enum)
		}

	case float64:
		if prop.Minimum != nil && v < *prop.Minimum {
			add("MINIMUM_VIOLATION", "value must be >= %g", *prop.Minimum)
		}
		if prop.Maximum != nil && v > *prop.Maximum {
			add("MAXIMUM_VIOLATION", "value must be <= %g", *prop.Maximum)
		}

	case []interface{}:
		if prop.Items != nil {
			for i, item := range v {
				errs = append(errs, validateField(fmt.Sprintf("%s[%d]", fieldName, i), item, *prop.Items)...)
			}
		}

	case map[string]interface{}:
		if prop.Properties != nil {
			nested := ValidateInput(v, JSONSchema{Properties: prop.Properties, Required: prop.Required})
			for _, nestedErr := range nested.Errors {
				errs = append(errs, ValidationError{
					Field:   fieldName + "." + nestedErr.Field,
					Message: nestedErr.Message,
					Code:    nestedErr.Code,
				})
			}
		}
	}
	return errs
}

func validateType(value interface{}, expectedType string) error {
	switch expectedType {
	case "string":
		if _, ok := value.(string); !ok {
			return fmt.Errorf("expected string, got %T", value)
		}
	case "number":
		if _, ok := value.(float64); !ok {
			return fmt.Errorf("expected number, got %T", value)
		}
	case "integer":
		f, ok := value.(float64)
		if !ok || f != math.Trunc(f) {
			return fmt.Errorf("expected integer, got %v", value)
		}
	case "boolean":
		if _, ok := value.(bool); !ok {
			return fmt.Errorf("expected boolean, got %T", value)
		}
	case "object":
		if _, ok := value.(map[string]interface{}); !ok {
			return fmt.Errorf("expected object, got %T", value)
		}
	case "array":
		if _, ok := value.([]interface{}); !ok {
			return fmt.Errorf("expected array, got %T", value)
		}
	}
	return nil
}

func contains(list []string, v string) bool {
	for _, s := range list {
		if s == v {
			return true
		}
	}
	return false
}

// GetErrorMessages returns "field: message" for every error.
func (vr *ValidationResult) GetErrorMessages() []string {
	messages := make([]string, len(vr.Errors))
	for i, err := range vr.Errors {
		messages[i] = fmt.Sprintf("%s: %s", err.Field, err.Message)
	}
	return messages
}

func (vr *ValidationResult) HasErrors(field string) bool {
	for _, err := range vr.Errors {
		if err.Field == field || strings.HasPrefix(err.Field, field+".") || strings.HasPrefix(err.Field, field+"[") {
			return true
		}
	}
	return false
}

var imagePattern = regexp.MustCompile(`^(data:image/[a-zA-Z0-9.+-]+;base64,)?[A-Za-z0-9+/=\s]+$`)

// IsImagePayload reports whether s is a base64 image, with or without a data URL prefix.
func IsImagePayload(s string) bool {
	return s != "" && imagePattern.MatchString(s)
}

// patterns holds compiled Property.Pattern values, keyed by source.
var patterns sync.Map

func compilePattern(pattern string) (*regexp.Regexp, error) {
	if re, ok := patterns.Load(pattern); ok {
		return re.(*regexp.Regexp), nil
	}
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	actual, _ := patterns.LoadOrStore(pattern, re)
	return actual.(*regexp.Regexp), nil
}
