package httpclient

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadAllWithLimit(t *testing.T) {
	data, err := ReadAllWithLimit(strings.NewReader("abcd"), 4)
	require.NoError(t, err)
	assert.Equal(t, "abcd", string(data))

	_, err = ReadAllWithLimit(strings.NewReader("abcde"), 4)
	require.Error(t, err)
	assert.True(t, IsResponseTooLarge(err))
	assert.True(t, IsResponseTooLarge(fmt.Errorf("wrapped: %w", err)))

	data, err = ReadAllWithLimit(strings.NewReader("unbounded"), 0)
	require.NoError(t, err)
	assert.Equal(t, "unbounded", string(data))
}

func TestNew(t *testing.T) {
	c := New(3 * time.Second)
	assert.Equal(t, 3*time.Second, c.Timeout)
	assert.NotNil(t, c.Transport)
}
