package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHasCode_ThroughWrapping(t *testing.T) {
	err := fmt.Errorf("generate outfit: %w", NewClosetEmptyError("u1"))

	assert.True(t, HasCode(err, ErrCodeClosetEmpty))
	assert.False(t, HasCode(err, ErrCodeStoreFailed))
	assert.False(t, HasCode(fmt.Errorf("plain"), ErrCodeClosetEmpty))
}

func TestRetryExhausted_UnwrapsToLastError(t *testing.T) {
	last := NewTransientTransportError("https://api.test", 503, fmt.Errorf("status 503"))
	err := NewRetryExhaustedError(6, last)

	assert.True(t, stderrors.Is(err, last))
	assert.True(t, HasCode(err, ErrCodeTransientTransport))
	assert.Equal(t, 6, err.Metadata["attempts"])
}

func TestNormalize(t *testing.T) {
	std := NewSearchFailedError(fmt.Errorf("es down"))
	assert.Same(t, std, Normalize(fmt.Errorf("wrapped: %w", std)))

	n := Normalize(fmt.Errorf("boom"))
	assert.Equal(t, ErrCodeInternal, n.Code)
	assert.False(t, n.Retryable)
}

func TestConvertToBPMNError(t *testing.T) {
	tests := []struct {
		name        string
		err         *StandardError
		wantRetries int
		category    string
	}{
		{"store failure retried", NewStoreFailedError("add_item", fmt.Errorf("reset")), 3, "WARDROBE"},
		{"exhausted retried once", NewRetryExhaustedError(2, fmt.Errorf("x")), 1, "REMOTE"},
		{"business error", NewClosetEmptyError("u1"), 0, "STYLIST"},
		{"invalid input", NewInvalidInputError("userId is required"), 0, "VALIDATION"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := ConvertToBPMNError(tt.err)
			assert.Equal(t, string(tt.err.Code), b.Code)
			assert.Equal(t, tt.wantRetries, b.Retries)
			require.Contains(t, b.ErrorVariables, "errorCategory")
			assert.Equal(t, tt.category, b.ErrorVariables["errorCategory"])
		})
	}
}
