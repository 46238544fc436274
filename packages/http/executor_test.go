package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDo_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "GET", r.Method)
		assert.Equal(t, "/health", r.URL.Path)
		assert.Equal(t, "bittest/1.0", r.Header.Get("User-Agent"))
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status": "ok"}`))
	}))
	defer server.Close()

	exec := NewExecutor(WithBaseURL(server.URL))
	defer exec.Close()

	outcome := exec.Do(context.Background(), Request{Method: "GET", URL: "/health"})

	assert.False(t, outcome.Failed())
	assert.Equal(t, 200, outcome.Status)
	assert.Contains(t, outcome.Body, "ok")
	assert.Greater(t, outcome.Elapsed, time.Duration(0))
}

func TestDo_NonOKStatusIsNotAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`boom`))
	}))
	defer server.Close()

	exec := NewExecutor(WithBaseURL(server.URL))
	defer exec.Close()

	outcome := exec.Do(context.Background(), Request{Method: "GET", URL: "/"})

	assert.False(t, outcome.Failed())
	assert.Equal(t, 500, outcome.Status)
	assert.Equal(t, "boom", outcome.Body)
}

func TestDo_SendsHeadersAndBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	exec := NewExecutor(WithBaseURL(server.URL))
	defer exec.Close()

	outcome := exec.Do(context.Background(), Request{
		Method:  "POST",
		URL:     "/items",
		Headers: map[string]string{"Content-Type": "application/json"},
		Body:    `{"name": "x"}`,
	})

	assert.Equal(t, 201, outcome.Status)
}

func TestDo_QueryParameters(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1", r.URL.Query().Get("page"))
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	exec := NewExecutor(WithBaseURL(server.URL))
	defer exec.Close()

	outcome := exec.Do(context.Background(), Request{
		Method: "GET",
		URL:    "/items",
		Query:  map[string]string{"page": "1"},
	})

	assert.Equal(t, 200, outcome.Status)
}

func TestDo_RetriesTimeoutThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) <= 2 {
			time.Sleep(200 * time.Millisecond)
		}
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`late but fine`))
	}))
	defer server.Close()

	exec := NewExecutor(
		WithBaseURL(server.URL),
		WithTimeout(50*time.Millisecond),
		WithMaxRetries(3),
		WithRetryDelay(time.Millisecond),
	)
	defer exec.Close()

	outcome := exec.Do(context.Background(), Request{Method: "GET", URL: "/"})

	assert.False(t, outcome.Failed())
	assert.Equal(t, 200, outcome.Status)
	assert.Equal(t, int32(3), calls.Load())
}

func TestDo_ExhaustsRetriesOnTimeout(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		time.Sleep(200 * time.Millisecond)
	}))
	defer server.Close()

	exec := NewExecutor(
		WithBaseURL(server.URL),
		WithTimeout(20*time.Millisecond),
		WithMaxRetries(2),
		WithRetryDelay(time.Millisecond),
	)
	defer exec.Close()

	outcome := exec.Do(context.Background(), Request{Method: "GET", URL: "/"})

	assert.True(t, outcome.Failed())
	assert.Equal(t, 0, outcome.Status)
	assert.Empty(t, outcome.Body)
	assert.Equal(t, "request timed out", outcome.Err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestDo_RetriesConnectionFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	exec := NewExecutor(
		WithBaseURL(url),
		WithMaxRetries(1),
		WithRetryDelay(time.Millisecond),
	)
	defer exec.Close()

	outcome := exec.Do(context.Background(), Request{Method: "GET", URL: "/"})

	assert.True(t, outcome.Failed())
	assert.Equal(t, "connection failed", outcome.Err)
}

func TestDo_InvalidURLFailsOnce(t *testing.T) {
	exec := NewExecutor(WithMaxRetries(3), WithRetryDelay(time.Millisecond))
	defer exec.Close()

	outcome := exec.Do(context.Background(), Request{Method: "GET", URL: "://bad"})

	assert.True(t, outcome.Failed())
	assert.Contains(t, outcome.Err, "request")
}

func TestClassify(t *testing.T) {
	retryable, label := classify(context.DeadlineExceeded)
	assert.True(t, retryable)
	assert.Equal(t, "request timed out", label)

	retryable, _ = classify(assert.AnError)
	assert.False(t, retryable)
}

func TestDo_AbsoluteURLIgnoresBase(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	exec := NewExecutor(WithBaseURL("http://never-used.invalid"))
	defer exec.Close()

	outcome := exec.Do(context.Background(), Request{Method: "GET", URL: server.URL + "/abs"})
	require.False(t, outcome.Failed())
	assert.Equal(t, 200, outcome.Status)
}
