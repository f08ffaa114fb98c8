package github

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHTTPClient_BearerToken(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	client := newHTTPClient(Options{Token: "ghp_test123", RequestsPerSecond: 100})

	resp, err := client.Get(server.URL)
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.Equal(t, "Bearer ghp_test123", gotAuth)
}

func TestNewHTTPClient_NoToken(t *testing.T) {
	gotAuth := "unset"
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(server.Close)

	client := newHTTPClient(Options{})

	resp, err := client.Get(server.URL)
	require.NoError(t, err)
	_ = resp.Body.Close()

	assert.Empty(t, gotAuth)
}

func TestThrottledTransport_CancelledContext(t *testing.T) {
	transport := &throttledTransport{
		base:    http.DefaultTransport,
		limiter: newLimiter(1),
	}
	// Drain the single burst token so the next request has to wait.
	require.True(t, transport.limiter.Allow())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, "http://127.0.0.1:1/", nil)
	require.NoError(t, err)

	_, err = transport.RoundTrip(req)
	assert.Error(t, err)
}

func TestNewLimiter(t *testing.T) {
	unlimited := newLimiter(0)
	for range 1000 {
		assert.True(t, unlimited.Allow())
	}

	limited := newLimiter(2.5)
	assert.Equal(t, 3, limited.Burst())
}

type recordingTransport struct {
	got *http.Request
}

func (rt *recordingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	rt.got = req
	return &http.Response{StatusCode: http.StatusOK, Body: http.NoBody, Request: req}, nil
}

func TestRevalidateTransport(t *testing.T) {
	tests := []struct {
		method string
		want   string
	}{
		{method: http.MethodGet, want: "max-age=0"},
		{method: http.MethodHead, want: "max-age=0"},
		{method: http.MethodPut, want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.method, func(t *testing.T) {
			rec := &recordingTransport{}
			transport := &revalidateTransport{base: rec}

			req, err := http.NewRequest(tt.method, "http://example.invalid/repos/o/r/pulls/1", nil)
			require.NoError(t, err)

			resp, err := transport.RoundTrip(req)
			require.NoError(t, err)
			_ = resp.Body.Close()

			assert.Equal(t, tt.want, rec.got.Header.Get("Cache-Control"))
			assert.Empty(t, req.Header.Get("Cache-Control"), "caller's request is left untouched")
		})
	}
}
