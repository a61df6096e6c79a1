package provision

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/subgate/subgate/pkg/metrics"
	"github.com/subgate/subgate/pkg/types"
)

// Error classes for backend failures. Backends wrap their failures in one of
// these so the retry loop can tell what is worth retrying.
var (
	// ErrTransient marks connectivity failures that may succeed on retry.
	ErrTransient = errors.New("transient backend failure")

	// ErrRejected marks terminal failures: rejected payload, malformed or
	// mismatched configuration state. Never retried.
	ErrRejected = errors.New("backend rejected the credential")

	// ErrPersist marks file-backend persistence failures: the on-disk
	// document could not be updated or the reload signal could not be
	// issued. Terminal for the attempt; the document is never corrupted.
	ErrPersist = errors.New("failed to persist backend configuration")
)

// ClientEntry is the credential payload submitted to the control plane.
type ClientEntry struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Flow  string `json:"flow,omitempty"`
}

// Backend adds a client credential to the VPN control plane. Implementations
// classify failures by wrapping ErrTransient, ErrRejected or ErrPersist.
type Backend interface {
	AddClient(ctx context.Context, client ClientEntry) error
}

// Provisioner creates VPN credentials for users.
type Provisioner interface {
	Provision(ctx context.Context, userID types.UserID) (*types.Credential, error)
}

// Options configures a Client.
type Options struct {
	// Attempts is the total attempt budget for transient failures.
	Attempts int

	// RetryDelay is the fixed delay between attempts.
	RetryDelay time.Duration

	// ServerDomain and ServerPort go into the generated access URL.
	ServerDomain string
	ServerPort   int

	// EmailDomain is the suffix of the credential label.
	EmailDomain string

	// Flow is the transport flow metadata attached to each credential.
	Flow string
}

// Client provisions credentials through a Backend with a bounded retry
// budget for transient connectivity failures.
//
// Issuance is deliberately not idempotent per user: every call mints a fresh
// random credential id, so repeated requests for the same user yield distinct
// credentials. Nothing tracks or dedupes credentials already issued.
type Client struct {
	backend Backend
	opts    Options
	logger  zerolog.Logger
}

// NewClient creates a provisioning client.
func NewClient(backend Backend, opts Options, logger zerolog.Logger) *Client {
	if opts.Attempts < 1 {
		opts.Attempts = 1
	}
	return &Client{
		backend: backend,
		opts:    opts,
		logger:  logger,
	}
}

// Provision submits a fresh credential for userID to the backend. Transient
// failures are retried up to the attempt budget with a fixed delay between
// attempts; rejected payloads and persistence failures are terminal
// immediately. Cancelling the context aborts between attempts.
func (c *Client) Provision(ctx context.Context, userID types.UserID) (*types.Credential, error) {
	entry := ClientEntry{
		ID:    uuid.New().String(),
		Email: fmt.Sprintf("user_%d@%s", userID, c.opts.EmailDomain),
		Flow:  c.opts.Flow,
	}

	var lastErr error
	for attempt := 1; attempt <= c.opts.Attempts; attempt++ {
		metrics.ProvisionAttemptsTotal.Inc()

		err := c.backend.AddClient(ctx, entry)
		if err == nil {
			metrics.ProvisionsTotal.WithLabelValues("success").Inc()
			return &types.Credential{
				ID:        entry.ID,
				Email:     entry.Email,
				Flow:      entry.Flow,
				AccessURL: c.accessURL(entry),
			}, nil
		}

		if !errors.Is(err, ErrTransient) {
			result := "rejected"
			if errors.Is(err, ErrPersist) {
				result = "persist_failed"
			}
			metrics.ProvisionsTotal.WithLabelValues(result).Inc()
			c.logger.Error().
				Err(err).
				Int64("user_id", int64(userID)).
				Msg("provisioning failed")
			return nil, err
		}

		lastErr = err
		c.logger.Warn().
			Err(err).
			Int64("user_id", int64(userID)).
			Int("attempt", attempt).
			Int("budget", c.opts.Attempts).
			Msg("provisioning attempt failed")

		if attempt < c.opts.Attempts {
			select {
			case <-time.After(c.opts.RetryDelay):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}
	}

	metrics.ProvisionsTotal.WithLabelValues("transient_exhausted").Inc()
	return nil, fmt.Errorf("provisioning failed after %d attempts: %w", c.opts.Attempts, lastErr)
}

// accessURL builds the vless:// client link for a provisioned credential.
func (c *Client) accessURL(entry ClientEntry) string {
	return fmt.Sprintf("vless://%s@%s:%d?security=tls&type=tcp&flow=%s&encryption=none#%s",
		entry.ID, c.opts.ServerDomain, c.opts.ServerPort, entry.Flow, entry.Email)
}
