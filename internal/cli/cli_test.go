package cli

import (
	"bytes"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"muse-workers/internal/common/genai/genaitest"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCommand()
	cmd.SetIn(strings.NewReader(stdin))
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestExtract(t *testing.T) {
	text := "Sure! {\"a\":1} and also {\"b\":2}"

	out, err := run(t, text, "extract")
	require.NoError(t, err)
	assert.Equal(t, "{\"a\":1} and also {\"b\":2}\n", out)

	out, err = run(t, text, "extract", "--balanced")
	require.NoError(t, err)
	assert.Equal(t, "{\"a\":1}\n", out)
}

func TestShopURL(t *testing.T) {
	out, err := run(t, "", "shop-url", "Linen", "Shirt", "--gender", "Women")
	require.NoError(t, err)
	assert.Equal(t, "https://www.myntra.com/linen-shirt-women\n", out)

	_, err = run(t, "", "shop-url", "belt", "--gender", "Robot")
	assert.Error(t, err)
}

func TestAsk(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		assert.Equal(t, "k", r.URL.Query().Get("key"))
		fmt.Fprint(w, genaitest.Body("Pair it with loafers."))
	}))
	defer srv.Close()

	out, err := run(t, "", "ask", "what", "shoes?", "--base-url", srv.URL, "--api-key", "k", "--max-retries", "0")
	require.NoError(t, err)
	assert.Equal(t, "Pair it with loafers.\n", out)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestAsk_RequiresKey(t *testing.T) {
	t.Setenv("GENAI_API_KEY", "")
	_, err := run(t, "", "ask", "hello")
	assert.Error(t, err)
}
