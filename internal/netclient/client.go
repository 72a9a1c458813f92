// Package netclient provides the shared HTTP client started once during
// resource bring-up and reused by every subsystem that talks to the network.
package netclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"hopper/internal/buildinfo"
	"hopper/internal/config"
	"hopper/internal/logging"
)

// Client is a process-wide HTTP client with a fixed User-Agent and timeout.
type Client struct {
	http      *http.Client
	userAgent string
	logger    *slog.Logger
}

// Start builds the shared client from configuration.
func Start(cfg *config.Config, logger *slog.Logger) *Client {
	timeout := 30 * time.Second
	if cfg != nil && cfg.Updates.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.Updates.TimeoutSeconds) * time.Second
	}
	return &Client{
		http:      &http.Client{Timeout: timeout},
		userAgent: buildinfo.UserAgent(),
		logger:    logging.NewComponentLogger(logger, "netclient"),
	}
}

// Do sends the request, stamping the shared User-Agent when the caller has
// not set one.
func (c *Client) Do(req *http.Request) (*http.Response, error) {
	if req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	return c.http.Do(req)
}

// GetJSON fetches url and decodes the response body into out. Responses
// outside the 2xx range are errors carrying the status and a body excerpt.
func (c *Client) GetJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.Do(req)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("fetch %s: status %d: %s", url, resp.StatusCode, string(body))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", url, err)
	}
	return nil
}

// Close releases idle connections. The client must not be used afterwards.
func (c *Client) Close() {
	if c == nil || c.http == nil {
		return
	}
	c.http.CloseIdleConnections()
	c.logger.Debug("network client closed")
}
