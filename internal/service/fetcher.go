package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/rs/zerolog"
)

// maxDocumentBytes bounds how much of a source document is read.
const maxDocumentBytes = 4 << 20

// ErrSourceUnavailable marks a source that could not be fetched or parsed
// this cycle. The caller treats it as zero records and moves on; the next
// scheduled cycle is the retry mechanism.
var ErrSourceUnavailable = errors.New("source unavailable")

// Fetcher retrieves one decoded JSON document per source.
type Fetcher interface {
	Fetch(ctx context.Context, source string) (interface{}, error)
}

type httpFetcher struct {
	client    *http.Client
	userAgent string
	logger    zerolog.Logger
}

// NewHTTPFetcher constructs a fetcher with a bounded per-request timeout.
func NewHTTPFetcher(timeout time.Duration, logger zerolog.Logger) Fetcher {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &httpFetcher{
		client:    &http.Client{Timeout: timeout},
		userAgent: "Fittober-Tracker/1.0",
		logger:    logger.With().Str("component", "fetcher").Logger(),
	}
}

func (f *httpFetcher) Fetch(ctx context.Context, source string) (interface{}, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		f.logger.Warn().Err(err).Str("source", source).Msg("source fetch failed")
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		f.logger.Warn().Int("status", resp.StatusCode).Str("source", source).Msg("source returned non-success status")
		return nil, fmt.Errorf("%w: unexpected status %d", ErrSourceUnavailable, resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}

	var doc interface{}
	if err := json.Unmarshal(body, &doc); err != nil {
		f.logger.Warn().Err(err).Str("source", source).Msg("source document is not valid JSON")
		return nil, fmt.Errorf("%w: %v", ErrSourceUnavailable, err)
	}

	return doc, nil
}
