// Package errors provides standardized error handling for BPMN workflow integration.
package errors

import (
	stderrors "errors"
	"fmt"
	"time"
)

// ==========================
// 1. Standard Error Types
// ==========================

// ErrorCode represents standardized internal error codes.
type ErrorCode string

// Remote call errors
const (
	ErrCodeTransientTransport ErrorCode = "TRANSIENT_TRANSPORT"
	ErrCodeRetryExhausted     ErrorCode = "RETRY_EXHAUSTED"
	ErrCodeMalformedPayload   ErrorCode = "MALFORMED_PAYLOAD"
	ErrCodeRequestCanceled    ErrorCode = "REQUEST_CANCELED"
	ErrCodeRemoteRejected     ErrorCode = "REMOTE_REJECTED"
)

// Stylist and wardrobe errors
const (
	ErrCodeClosetEmpty              ErrorCode = "CLOSET_EMPTY"
	ErrCodeOutfitGenerationFailed   ErrorCode = "OUTFIT_GENERATION_FAILED"
	ErrCodeLookCurationFailed       ErrorCode = "LOOK_CURATION_FAILED"
	ErrCodeIdentificationFailed     ErrorCode = "IDENTIFICATION_FAILED"
	ErrCodeInvalidInput             ErrorCode = "INVALID_INPUT"
	ErrCodeProfileNotFound          ErrorCode = "PROFILE_NOT_FOUND"
	ErrCodeWardrobeEntryNotFound    ErrorCode = "NOT_FOUND"
	ErrCodeStoreFailed              ErrorCode = "STORE_FAILED"
	ErrCodeSearchFailed             ErrorCode = "SEARCH_FAILED"
	ErrCodeDatabaseConnectionFailed ErrorCode = "DATABASE_CONNECTION_FAILED"
	ErrCodeInternal                 ErrorCode = "INTERNAL_ERROR"
)

// StandardError represents a structured application error.
type StandardError struct {
	Code      ErrorCode              `json:"code"`
	Message   string                 `json:"message"`
	Details   string                 `json:"details,omitempty"`
	Retryable bool                   `json:"retryable"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
	Timestamp time.Time              `json:"timestamp"`

	cause error
}

func (e *StandardError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("StandardError[%s]: %s: %s", e.Code, e.Message, e.Details)
	}
	return fmt.Sprintf("StandardError[%s]: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause to errors.Is / errors.As.
func (e *StandardError) Unwrap() error {
	return e.cause
}

// Is matches two StandardErrors by code so callers can compare against
// sentinel values such as &StandardError{Code: ErrCodeRetryExhausted}.
func (e *StandardError) Is(target error) bool {
	t, ok := target.(*StandardError)
	if !ok {
		return false
	}
	return t.Code == e.Code
}

// WithMetadata returns the error after attaching a metadata entry.
func (e *StandardError) WithMetadata(key string, value interface{}) *StandardError {
	if e.Metadata == nil {
		e.Metadata = make(map[string]interface{})
	}
	e.Metadata[key] = value
	return e
}

// ==========================
// 2. BPMN Error Integration
// ==========================

// BPMNError represents an error that can be thrown to the Camunda workflow engine.
type BPMNError struct {
	Code           string                 `json:"code"`
	Message        string                 `json:"message"`
	Details        string                 `json:"details,omitempty"`
	Retryable      bool                   `json:"retryable"`
	Retries        int                    `json:"retries"`
	ErrorVariables map[string]interface{} `json:"errorVariables,omitempty"`
}

func (e *BPMNError) Error() string {
	return fmt.Sprintf("BPMNError[%s]: %s", e.Code, e.Message)
}

// ToErrorVariables returns a map suitable for setting Camunda job fail variables.
func (e *BPMNError) ToErrorVariables() map[string]interface{} {
	vars := map[string]interface{}{
		"errorCode":    e.Code,
		"errorMessage": e.Message,
		"errorDetails": e.Details,
		"retryable":    e.Retryable,
	}
	for k, v := range e.ErrorVariables {
		vars[k] = v
	}
	return vars
}

// ==========================
// 3. Error Constructors
// ==========================

func newError(code ErrorCode, message, details string, retryable bool, cause error) *StandardError {
	return &StandardError{
		Code:      code,
		Message:   message,
		Details:   details,
		Retryable: retryable,
		Timestamp: time.Now().UTC(),
		cause:     cause,
	}
}

// NewTransientTransportError wraps a network failure or a non-success status.
// statusCode is 0 when the transport itself failed.
func NewTransientTransportError(endpoint string, statusCode int, err error) *StandardError {
	details := err.Error()
	if statusCode != 0 {
		details = fmt.Sprintf("HTTP error! status: %d", statusCode)
	}
	e := newError(ErrCodeTransientTransport, "Remote request failed", details, true, err)
	e.WithMetadata("endpoint", endpoint)
	if statusCode != 0 {
		e.WithMetadata("statusCode", statusCode)
	}
	return e
}

// NewRemoteRejectedError is a client-error status the caller chose not to retry.
func NewRemoteRejectedError(endpoint string, statusCode int) *StandardError {
	e := newError(ErrCodeRemoteRejected, "Remote request rejected", fmt.Sprintf("HTTP error! status: %d", statusCode), false, nil)
	e.WithMetadata("endpoint", endpoint)
	e.WithMetadata("statusCode", statusCode)
	return e
}

// NewRetryExhaustedError is the terminal form of a transient error. It unwraps
// to the most recent attempt's error only.
func NewRetryExhaustedError(attempts int, last error) *StandardError {
	e := newError(ErrCodeRetryExhausted, "Retry budget exhausted", last.Error(), true, last)
	e.WithMetadata("attempts", attempts)
	return e
}

// NewRequestCanceledError reports that the caller's context ended the retry loop.
func NewRequestCanceledError(ctxErr, last error) *StandardError {
	details := ctxErr.Error()
	if last != nil {
		details = fmt.Sprintf("%s (last error: %s)", ctxErr.Error(), last.Error())
	}
	return newError(ErrCodeRequestCanceled, "Request canceled", details, true, ctxErr)
}

// NewMalformedPayloadError reports text that could not be decoded into the expected shape.
func NewMalformedPayloadError(kind string, err error) *StandardError {
	e := newError(ErrCodeMalformedPayload, "AI payload could not be decoded", err.Error(), true, err)
	e.WithMetadata("payloadKind", kind)
	return e
}

// NewClosetEmptyError creates a non-retryable business error.
func NewClosetEmptyError(userID string) *StandardError {
	return newError(ErrCodeClosetEmpty, "Closet has no items", fmt.Sprintf("userId: %s", userID), false, nil)
}

func NewOutfitGenerationFailedError(err error) *StandardError {
	return newError(ErrCodeOutfitGenerationFailed, "Outfit generation failed", err.Error(), true, err)
}

func NewLookCurationFailedError(err error) *StandardError {
	return newError(ErrCodeLookCurationFailed, "Look curation failed", err.Error(), true, err)
}

func NewIdentificationFailedError(err error) *StandardError {
	return newError(ErrCodeIdentificationFailed, "Clothing identification failed", err.Error(), true, err)
}

// NewInvalidInputError creates a non-retryable validation error.
func NewInvalidInputError(details string) *StandardError {
	return newError(ErrCodeInvalidInput, "Invalid job input", details, false, nil)
}

func NewProfileNotFoundError(userID string) *StandardError {
	return newError(ErrCodeProfileNotFound, "Profile not found", fmt.Sprintf("userId: %s", userID), false, nil)
}

func NewNotFoundError(kind, id string) *StandardError {
	return newError(ErrCodeWardrobeEntryNotFound, "Wardrobe entry not found", fmt.Sprintf("%s: %s", kind, id), false, nil)
}

// NewStoreFailedError creates a retryable persistence error.
func NewStoreFailedError(op string, err error) *StandardError {
	return newError(ErrCodeStoreFailed, "Wardrobe store operation failed", fmt.Sprintf("op: %s, error: %s", op, err.Error()), true, err)
}

func NewSearchFailedError(err error) *StandardError {
	return newError(ErrCodeSearchFailed, "Closet search failed", err.Error(), true, err)
}

// NewInternalError wraps anything that is not already a StandardError.
func NewInternalError(err error) *StandardError {
	return newError(ErrCodeInternal, "Unexpected error", err.Error(), false, err)
}

// AsStandard finds the outermost StandardError in err's chain.
func AsStandard(err error) (*StandardError, bool) {
	var stdErr *StandardError
	if stderrors.As(err, &stdErr) {
		return stdErr, true
	}
	return nil, false
}

// HasCode reports whether any StandardError in err's chain carries code.
func HasCode(err error, code ErrorCode) bool {
	return stderrors.Is(err, &StandardError{Code: code})
}

// ==========================
// 4. BPMN mapping
// ==========================

func GetRetryCount(code ErrorCode) int {
	switch code {
	case ErrCodeStoreFailed,
		ErrCodeSearchFailed,
		ErrCodeDatabaseConnectionFailed:
		return 3

	case ErrCodeRetryExhausted,
		ErrCodeMalformedPayload,
		ErrCodeOutfitGenerationFailed,
		ErrCodeLookCurationFailed,
		ErrCodeIdentificationFailed:
		return 1 // the request client already retried

	case ErrCodeTransientTransport, ErrCodeRequestCanceled:
		return 2

	default:
		return 0
	}
}

func ConvertToBPMNError(stdErr *StandardError) *BPMNError {
	retries := GetRetryCount(stdErr.Code)
	if !stdErr.Retryable {
		retries = 0
	}

	vars := map[string]interface{}{
		"errorCategory": GetErrorCategory(stdErr.Code),
		"timestamp":     stdErr.Timestamp.Format(time.RFC3339),
	}
	for k, v := range stdErr.Metadata {
		vars[k] = v
	}

	return &BPMNError{
		Code:           string(stdErr.Code),
		Message:        stdErr.Message,
		Details:        stdErr.Details,
		Retryable:      stdErr.Retryable,
		Retries:        retries,
		ErrorVariables: vars,
	}
}

func IsRetryableErrorCode(code ErrorCode) bool {
	return GetRetryCount(code) > 0
}

func GetErrorCategory(code ErrorCode) string {
	switch code {
	case ErrCodeTransientTransport, ErrCodeRetryExhausted, ErrCodeMalformedPayload, ErrCodeRequestCanceled, ErrCodeRemoteRejected:
		return "REMOTE"
	case ErrCodeClosetEmpty, ErrCodeOutfitGenerationFailed, ErrCodeLookCurationFailed, ErrCodeIdentificationFailed:
		return "STYLIST"
	case ErrCodeStoreFailed, ErrCodeDatabaseConnectionFailed, ErrCodeProfileNotFound, ErrCodeWardrobeEntryNotFound:
		return "WARDROBE"
	case ErrCodeSearchFailed:
		return "SEARCH"
	case ErrCodeInvalidInput:
		return "VALIDATION"
	default:
		return "UNKNOWN"
	}
}
