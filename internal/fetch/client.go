// Package fetch retrieves manifests, keys and segments over HTTP.
package fetch

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/agleyzer/hlsfetch/internal/apperror"
)

// DefaultTimeout bounds a single request, including reading the body.
const DefaultTimeout = 30 * time.Second

// Client fetches resources. Failures are returned as apperror network errors.
type Client struct {
	http   *http.Client
	logger *slog.Logger
}

// NewClient creates a Client. A zero timeout uses DefaultTimeout; headers
// are added to every request.
func NewClient(timeout time.Duration, headers map[string]string, logger *slog.Logger) *Client {
	if timeout == 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		http: &http.Client{
			Timeout: timeout,
			Transport: &HeaderMapTransport{
				Headers: headers,
				Base:    http.DefaultTransport,
			},
		},
		logger: logger,
	}
}

// FetchText fetches url and returns the body as a string.
func (c *Client) FetchText(ctx context.Context, url string) (string, error) {
	data, err := c.FetchBytes(ctx, url)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// FetchBytes fetches url and returns the body.
func (c *Client) FetchBytes(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, apperror.Network(url, "failed to create request", err)
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, apperror.Network(url, "failed to fetch", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperror.Network(url, fmt.Sprintf("failed to fetch: HTTP %d", resp.StatusCode), nil)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, apperror.Network(url, "failed to read body", err)
	}

	c.logger.Debug("fetched",
		"url", url,
		"bytes", len(data),
		"duration", time.Since(start),
	)

	return data, nil
}
