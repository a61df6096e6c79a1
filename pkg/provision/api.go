package provision

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// APIBackend submits credentials to the control plane's HTTP management API.
// The remote service is responsible for serializing concurrent writes.
type APIBackend struct {
	// BaseURL is the control API root, e.g. "http://127.0.0.1:2053"
	BaseURL string

	// Tag identifies the inbound the client is added under
	Tag string

	// Client is the HTTP client to use (allows custom configuration)
	Client *http.Client
}

// NewAPIBackend creates a control-API backend with a bounded request timeout.
func NewAPIBackend(baseURL, tag string) *APIBackend {
	return &APIBackend{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Tag:     tag,
		Client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// addClientRequest is the wire shape of the add operation.
type addClientRequest struct {
	Tag       string      `json:"tag"`
	Operation string      `json:"operation"`
	Client    ClientEntry `json:"client"`
}

// AddClient POSTs the add operation. HTTP 200 is success; 4xx responses are
// rejections (ErrRejected); transport errors and 5xx responses are transient
// (ErrTransient).
func (b *APIBackend) AddClient(ctx context.Context, client ClientEntry) error {
	payload, err := json.Marshal(addClientRequest{
		Tag:       b.Tag,
		Operation: "add",
		Client:    client,
	})
	if err != nil {
		return fmt.Errorf("%w: failed to marshal payload: %v", ErrRejected, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.BaseURL+"/handler/add", bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("%w: failed to create request: %v", ErrRejected, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.Client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrTransient, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusOK {
		return nil
	}

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if resp.StatusCode >= 400 && resp.StatusCode < 500 {
		return fmt.Errorf("%w: HTTP %d: %s", ErrRejected, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	return fmt.Errorf("%w: HTTP %d: %s", ErrTransient, resp.StatusCode, strings.TrimSpace(string(body)))
}
