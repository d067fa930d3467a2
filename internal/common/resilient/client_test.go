package resilient

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"muse-workers/internal/common/errors"
	"muse-workers/internal/common/logger"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func respond(status int, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

type recordingSleeper struct {
	mu     sync.Mutex
	waits  []time.Duration
	cancel context.CancelFunc
}

func (s *recordingSleeper) sleep(ctx context.Context, d time.Duration) error {
	s.mu.Lock()
	s.waits = append(s.waits, d)
	s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		return ctx.Err()
	}
	return nil
}

type countingObserver struct {
	attempts  int32
	exhausted int32
}

func (o *countingObserver) ObserveAttempt(string, int, error) { atomic.AddInt32(&o.attempts, 1) }
func (o *countingObserver) ObserveExhausted(string, int)      { atomic.AddInt32(&o.exhausted, 1) }

func newTestClient(t *testing.T, rt roundTripFunc) (*Client, *recordingSleeper) {
	t.Helper()
	sleeper := &recordingSleeper{}
	c := NewClient(&http.Client{Transport: rt}, logger.NewTestLogger(t), nil)
	c.sleep = sleeper.sleep
	return c, sleeper
}

func TestRequest_PermanentFailureMakesMaxRetriesPlusOneAttempts(t *testing.T) {
	var calls int32
	c, sleeper := newTestClient(t, func(*http.Request) (*http.Response, error) {
		atomic.AddInt32(&calls, 1)
		return respond(http.StatusServiceUnavailable, `{"error":"down"}`), nil
	})
	obs := &countingObserver{}
	c.observer = obs

	_, err := c.Request(context.Background(), "https://ai.example/v1/generate?key=secret", RequestOptions{Method: http.MethodPost}, Policy{
		MaxRetries:     3,
		InitialBackoff: 100 * time.Millisecond,
	})

	require.Error(t, err)
	assert.Equal(t, int32(4), atomic.LoadInt32(&calls))
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 200 * time.Millisecond, 400 * time.Millisecond}, sleeper.waits)
	assert.Equal(t, int32(4), obs.attempts)
	assert.Equal(t, int32(1), obs.exhausted)

	assert.True(t, errors.HasCode(err, errors.ErrCodeRetryExhausted))
	stdErr, ok := errors.AsStandard(err)
	require.True(t, ok)
	assert.Equal(t, 4, stdErr.Metadata["attempts"])

	last := stderrors.Unwrap(err)
	require.NotNil(t, last)
	lastStd, ok := errors.AsStandard(last)
	require.True(t, ok)
	assert.Equal(t, errors.ErrCodeTransientTransport, lastStd.Code)
	assert.Equal(t, "HTTP error! status: 503", lastStd.Details)
	assert.NotContains(t, err.Error(), "secret")
}

func TestRequest_ZeroRetriesMakesOneAttempt(t *testing.T) {
	var calls int32
	c, sleeper := newTestClient(t, func(*http.Request) (*http.Response, error) {
		atomic.AddInt32(&calls, 1)
		return nil, fmt.Errorf("connection refused")
	})

	_, err := c.Request(context.Background(), "https://ai.example/x", RequestOptions{}, Policy{MaxRetries: 0, InitialBackoff: time.Second})

	require.Error(t, err)
	assert.Equal(t, int32(1), calls)
	assert.Empty(t, sleeper.waits)
	assert.True(t, errors.HasCode(err, errors.ErrCodeRetryExhausted))
}

func TestRequest_StopsOnFirstSuccess(t *testing.T) {
	var calls int32
	c, sleeper := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		n := atomic.AddInt32(&calls, 1)
		if n < 3 {
			return respond(http.StatusInternalServerError, `oops`), nil
		}
		return respond(http.StatusOK, `{"ok":true}`), nil
	})

	body, err := c.Request(context.Background(), "https://ai.example/x", RequestOptions{}, DefaultPolicy())

	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))
	assert.Equal(t, int32(3), calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, sleeper.waits)
}

func TestRequest_PassesRequestOptionsThrough(t *testing.T) {
	c, _ := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		payload, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		assert.Equal(t, `{"q":1}`, string(payload))
		return respond(http.StatusOK, `{"a":[1,2]}`), nil
	})

	var out struct {
		A []int `json:"a"`
	}
	err := c.RequestInto(context.Background(), "https://ai.example/x", RequestOptions{
		Method:  http.MethodPost,
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    []byte(`{"q":1}`),
	}, DefaultPolicy(), &out)

	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, out.A)
}

func TestRequest_NonJSONSuccessBodyIsRetried(t *testing.T) {
	var calls int32
	c, _ := newTestClient(t, func(*http.Request) (*http.Response, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return respond(http.StatusOK, `<html>gateway</html>`), nil
		}
		return respond(http.StatusOK, `{"fine":1}`), nil
	})

	body, err := c.Request(context.Background(), "https://ai.example/x", RequestOptions{}, DefaultPolicy())

	require.NoError(t, err)
	assert.JSONEq(t, `{"fine":1}`, string(body))
	assert.Equal(t, int32(2), calls)
}

func TestRequest_BackoffCap(t *testing.T) {
	c, sleeper := newTestClient(t, func(*http.Request) (*http.Response, error) {
		return respond(http.StatusBadGateway, ``), nil
	})

	_, err := c.Request(context.Background(), "https://ai.example/x", RequestOptions{}, Policy{
		MaxRetries:     5,
		InitialBackoff: time.Second,
		MaxBackoff:     3 * time.Second,
	})

	require.Error(t, err)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 3 * time.Second, 3 * time.Second, 3 * time.Second}, sleeper.waits)
}

func TestRequest_ClientErrorPolicy(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		retryClient   bool
		wantCalls     int32
		wantErrorCode errors.ErrorCode
	}{
		{"bad request retried by default", http.StatusBadRequest, true, 3, errors.ErrCodeRetryExhausted},
		{"bad request rejected", http.StatusBadRequest, false, 1, errors.ErrCodeRemoteRejected},
		{"too many requests still retried", http.StatusTooManyRequests, false, 3, errors.ErrCodeRetryExhausted},
		{"request timeout still retried", http.StatusRequestTimeout, false, 3, errors.ErrCodeRetryExhausted},
		{"server error retried", http.StatusInternalServerError, false, 3, errors.ErrCodeRetryExhausted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			c, _ := newTestClient(t, func(*http.Request) (*http.Response, error) {
				atomic.AddInt32(&calls, 1)
				return respond(tt.status, `{}`), nil
			})

			_, err := c.Request(context.Background(), "https://ai.example/x", RequestOptions{}, Policy{
				MaxRetries:        2,
				InitialBackoff:    time.Millisecond,
				RetryClientErrors: tt.retryClient,
			})

			require.Error(t, err)
			assert.Equal(t, tt.wantCalls, atomic.LoadInt32(&calls))
			stdErr, ok := errors.AsStandard(err)
			require.True(t, ok)
			assert.Equal(t, tt.wantErrorCode, stdErr.Code)
		})
	}
}

func TestRequest_ContextCancellationStopsRetrying(t *testing.T) {
	var calls int32
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	c, sleeper := newTestClient(t, func(*http.Request) (*http.Response, error) {
		atomic.AddInt32(&calls, 1)
		return respond(http.StatusServiceUnavailable, ``), nil
	})
	sleeper.cancel = cancel

	_, err := c.Request(ctx, "https://ai.example/x", RequestOptions{}, DefaultPolicy())

	require.Error(t, err)
	assert.Equal(t, int32(1), calls)
	assert.True(t, errors.HasCode(err, errors.ErrCodeRequestCanceled))
	assert.ErrorIs(t, err, context.Canceled)
}

func TestRequest_RealTimerHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	c := NewClient(&http.Client{Transport: roundTripFunc(func(*http.Request) (*http.Response, error) {
		return respond(http.StatusServiceUnavailable, ``), nil
	})}, nil, nil)

	start := time.Now()
	_, err := c.Request(ctx, "https://ai.example/x", RequestOptions{}, Policy{MaxRetries: 3, InitialBackoff: time.Minute})

	require.Error(t, err)
	assert.Less(t, time.Since(start), 5*time.Second)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestRequest_ResponseTooLargeIsTransient(t *testing.T) {
	var calls int32
	c, _ := newTestClient(t, func(*http.Request) (*http.Response, error) {
		atomic.AddInt32(&calls, 1)
		return respond(http.StatusOK, `{"big":"`+strings.Repeat("x", 64)+`"}`), nil
	})
	c.SetMaxResponseBytes(16)

	_, err := c.Request(context.Background(), "https://ai.example/x", RequestOptions{}, Policy{MaxRetries: 1, InitialBackoff: time.Millisecond})

	require.Error(t, err)
	assert.Equal(t, int32(2), calls)
	assert.Contains(t, err.Error(), "exceeded limit")
}

func TestRequest_ConcurrentCallsAreIsolated(t *testing.T) {
	c, _ := newTestClient(t, func(r *http.Request) (*http.Response, error) {
		if r.URL.Query().Get("fail") == "1" {
			return respond(http.StatusInternalServerError, ``), nil
		}
		return respond(http.StatusOK, fmt.Sprintf(`{"id":%q}`, r.URL.Query().Get("id"))), nil
	})

	var wg sync.WaitGroup
	results := make([]error, 20)
	bodies := make([]json.RawMessage, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			endpoint := fmt.Sprintf("https://ai.example/x?id=%d&fail=%d", i, i%2)
			bodies[i], results[i] = c.Request(context.Background(), endpoint, RequestOptions{}, Policy{MaxRetries: 2, InitialBackoff: time.Millisecond})
		}(i)
	}
	wg.Wait()

	for i := 0; i < 20; i++ {
		if i%2 == 1 {
			require.Error(t, results[i])
			stdErr, _ := errors.AsStandard(results[i])
			assert.Equal(t, 3, stdErr.Metadata["attempts"])
			continue
		}
		require.NoError(t, results[i])
		assert.JSONEq(t, fmt.Sprintf(`{"id":"%d"}`, i), string(bodies[i]))
	}
}

func TestPolicyNormalized(t *testing.T) {
	p := Policy{MaxRetries: -1, InitialBackoff: 0, MaxBackoff: -5}.normalized()
	assert.Equal(t, DefaultMaxRetries, p.MaxRetries)
	assert.Equal(t, DefaultInitialBackoff, p.InitialBackoff)
	assert.Zero(t, p.MaxBackoff)
}

func TestRedact(t *testing.T) {
	assert.Equal(t, "https://ai.example/v1beta/models/m:generateContent", redact("https://ai.example/v1beta/models/m:generateContent?key=abc"))
}
