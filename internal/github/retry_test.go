package github

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRetryable(t *testing.T) {
	assert.True(t, retryable(&APIError{Status: http.StatusTooManyRequests}))
	assert.True(t, retryable(&APIError{Status: http.StatusBadGateway}))
	assert.False(t, retryable(&APIError{Status: http.StatusNotFound}))
	assert.False(t, retryable(errors.New("dial tcp: refused")))
}

func TestDo_RetriesThrottled(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte("diff --git a/x b/x\n"))
	}))
	defer server.Close()

	c := &Client{token: "t", apiURL: server.URL, httpCli: server.Client(), maxRetries: 3, backoff: time.Millisecond}
	diff, err := c.GetPRDiff(context.Background(), "o", "r", 1)
	require.NoError(t, err)
	assert.Equal(t, "diff --git a/x b/x\n", diff)
	assert.Equal(t, int32(3), calls.Load())
}

func TestDo_GivesUp(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer server.Close()

	c := &Client{token: "t", apiURL: server.URL, httpCli: server.Client(), maxRetries: 2, backoff: time.Millisecond}
	_, err := c.GetPRDiff(context.Background(), "o", "r", 1)
	require.Error(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestDo_NoRetryOnClientError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusUnprocessableEntity)
	}))
	defer server.Close()

	c := &Client{token: "t", apiURL: server.URL, httpCli: server.Client(), maxRetries: 3, backoff: time.Millisecond}
	_, err := c.UpsertTourComment(context.Background(), "o", "r", 1, "x")
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}
