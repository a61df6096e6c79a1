package provision

import (
	"context"
	"fmt"
	"net/http"
	"time"
)

// Reloader signals the VPN daemon to pick up a changed configuration file.
// Failures are returned to the caller, never swallowed.
type Reloader interface {
	Reload(ctx context.Context) error
}

// HTTPReloader asks a supervised process manager to reload the daemon by
// POSTing to its control endpoint.
type HTTPReloader struct {
	// URL is the process manager's reload endpoint
	URL string

	// Client is the HTTP client to use (allows custom configuration)
	Client *http.Client
}

// NewHTTPReloader creates a reloader with a bounded request timeout.
func NewHTTPReloader(url string) *HTTPReloader {
	return &HTTPReloader{
		URL: url,
		Client: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

// Reload issues the reload request. Any response outside 2xx is a failure.
func (r *HTTPReloader) Reload(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.URL, nil)
	if err != nil {
		return fmt.Errorf("failed to create reload request: %w", err)
	}

	resp, err := r.Client.Do(req)
	if err != nil {
		return fmt.Errorf("reload request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return fmt.Errorf("reload endpoint returned HTTP %d", resp.StatusCode)
	}
	return nil
}

// NopReloader is for daemons that watch their configuration file themselves.
type NopReloader struct{}

// Reload does nothing.
func (NopReloader) Reload(ctx context.Context) error {
	return nil
}
