package httpclient

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewDefaultClient(t *testing.T) {
	t.Parallel()

	client := NewDefaultClient(0)
	require.NotNil(t, client)

	dc, ok := client.(*DefaultClient)
	require.True(t, ok)
	assert.Equal(t, DefaultTimeout, dc.client.Timeout)
}

func TestDefaultClient_Get(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, UserAgent, r.Header.Get("User-Agent"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	client := NewDefaultClient(time.Second)
	body, err := client.Get(t.Context(), server.URL)

	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))
}

func TestDefaultClient_Get_RetriesTransientFailures(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer server.Close()

	client := NewDefaultClient(time.Second)
	body, err := client.Get(t.Context(), server.URL)

	require.NoError(t, err)
	assert.JSONEq(t, `{"ok":true}`, string(body))
	assert.Equal(t, int32(3), calls.Load())
}

func TestDefaultClient_Get_PermanentOnClientError(t *testing.T) {
	t.Parallel()

	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusNotFound)
	}))
	defer server.Close()

	client := NewDefaultClient(time.Second)
	_, err := client.Get(t.Context(), server.URL)

	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load(), "4xx responses should not be retried")

	var httpErr *HTTPError
	require.True(t, errors.As(err, &httpErr))
	assert.Equal(t, http.StatusNotFound, httpErr.StatusCode)
	assert.Equal(t, server.URL, httpErr.URL)
}

func TestHTTPError(t *testing.T) {
	t.Parallel()

	gateway := &HTTPError{StatusCode: http.StatusBadGateway, URL: "http://example.com", Status: "502 Bad Gateway"}
	assert.Contains(t, gateway.Error(), "http://example.com")
	assert.Contains(t, gateway.Error(), "502 Bad Gateway")
	assert.True(t, gateway.Retryable())

	throttled := &HTTPError{StatusCode: http.StatusTooManyRequests}
	assert.True(t, throttled.Retryable())

	missing := &HTTPError{StatusCode: http.StatusNotFound}
	assert.False(t, missing.Retryable())
}
