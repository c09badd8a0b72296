package usgs

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/couchcryptid/quake-watch-service/internal/domain"
)

// Client retrieves the earthquake feed. One Fetch is one GET with the
// configured timeout; retry policy lives in the coordinator.
type Client struct {
	feedURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a feed client for the given URL.
func NewClient(feedURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		feedURL: feedURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Fetch performs one retrieval attempt and returns the parsed feed along
// with the exact bytes received. Failures come back classified as a
// domain.FeedError; the caller never sees a half-parsed feed.
func (c *Client) Fetch(ctx context.Context) (domain.Feed, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.feedURL, nil)
	if err != nil {
		return domain.Feed{}, nil, domain.NewFeedError(domain.KindUnknown, err)
	}
	req.Header.Set("Accept", "application/geo+json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return domain.Feed{}, nil, classifyTransportError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, resp.Body) //nolint:errcheck // draining for connection reuse
		return domain.Feed{}, nil, domain.NewHTTPStatusError(resp.StatusCode)
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return domain.Feed{}, nil, classifyTransportError(err)
	}

	feed, err := domain.ParseFeed(raw)
	if err != nil {
		return domain.Feed{}, nil, domain.NewFeedError(domain.KindMalformedResponse, err)
	}

	c.logger.Debug("feed fetched",
		"url", c.feedURL,
		"features", len(feed.Features),
		"bytes", len(raw),
		"duration", time.Since(start),
	)
	return feed, raw, nil
}

// classifyTransportError folds transport failures into the error
// taxonomy: deadline and net timeouts become KindTimeout, everything
// else on the wire is KindConnectionFailed.
func classifyTransportError(err error) *domain.FeedError {
	if errors.Is(err, context.DeadlineExceeded) {
		return domain.NewFeedError(domain.KindTimeout, err)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return domain.NewFeedError(domain.KindTimeout, err)
	}
	return domain.NewFeedError(domain.KindConnectionFailed, err)
}
