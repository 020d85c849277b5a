package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestHTTPFetcherDecodesDocument(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "application/json", r.Header.Get("Accept"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"logs":[{"id":"log-1"}]}`))
	}))
	defer server.Close()

	fetcher := NewHTTPFetcher(5*time.Second, testLogger())
	doc, err := fetcher.Fetch(context.Background(), server.URL)
	require.NoError(t, err)

	body, ok := doc.(map[string]interface{})
	require.True(t, ok)
	require.Contains(t, body, "logs")
}

func TestHTTPFetcherRejectsNonSuccessStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer server.Close()

	fetcher := NewHTTPFetcher(5*time.Second, testLogger())
	_, err := fetcher.Fetch(context.Background(), server.URL)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrSourceUnavailable))
}

func TestHTTPFetcherRejectsInvalidJSON(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("<html>not json</html>"))
	}))
	defer server.Close()

	fetcher := NewHTTPFetcher(5*time.Second, testLogger())
	_, err := fetcher.Fetch(context.Background(), server.URL)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrSourceUnavailable))
}

func TestHTTPFetcherHonorsTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(`[]`))
	}))
	defer server.Close()

	fetcher := NewHTTPFetcher(20*time.Millisecond, testLogger())
	_, err := fetcher.Fetch(context.Background(), server.URL)
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrSourceUnavailable))
}

func TestHTTPFetcherUnreachableHost(t *testing.T) {
	fetcher := NewHTTPFetcher(time.Second, testLogger())
	_, err := fetcher.Fetch(context.Background(), "http://127.0.0.1:1")
	require.Error(t, err)
	require.True(t, errors.Is(err, ErrSourceUnavailable))
}
