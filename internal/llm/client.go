package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	openai "github.com/sashabaranov/go-openai"
	"github.com/rs/zerolog"

	"github.com/knamoah/kasabot/internal/retry"
)

// CompletionError is returned when a completion could not be obtained. It
// distinguishes exhausted transient failures from permanent ones (bad
// credentials, exhausted quota) that were not retried.
type CompletionError struct {
	Err       error
	Permanent bool
	Attempts  int
}

func (e *CompletionError) Error() string {
	kind := "transient"
	if e.Permanent {
		kind = "permanent"
	}
	return fmt.Sprintf("completion failed after %d attempt(s) (%s): %v", e.Attempts, kind, e.Err)
}

func (e *CompletionError) Unwrap() error { return e.Err }

// Client wraps a Provider with a per-call timeout and the shared bounded
// retry policy. Auth and quota errors fail fast without retries.
type Client struct {
	provider Provider
	policy   retry.Policy
	timeout  time.Duration
	logger   zerolog.Logger
}

// NewClient creates a retrying completion client around provider.
func NewClient(provider Provider, policy retry.Policy, timeout time.Duration, logger zerolog.Logger) *Client {
	return &Client{
		provider: provider,
		policy:   policy,
		timeout:  timeout,
		logger:   logger.With().Str("component", "llm").Str("provider", provider.Name()).Logger(),
	}
}

// Complete performs one logical completion, retrying transient provider
// failures. On exhaustion it returns a *CompletionError.
func (c *Client) Complete(ctx context.Context, req CompletionRequest) (*CompletionResponse, error) {
	var (
		resp      *CompletionResponse
		attempts  int
		permanent bool
	)

	err := c.policy.Do(ctx, func() error {
		attempts++

		cctx := ctx
		if c.timeout > 0 {
			var cancel context.CancelFunc
			cctx, cancel = context.WithTimeout(ctx, c.timeout)
			defer cancel()
		}

		got, err := c.provider.Complete(cctx, req)
		if err != nil {
			if isPermanent(err) {
				permanent = true
				return retry.Permanent(err)
			}
			c.logger.Warn().Int("attempt", attempts).Err(err).Msg("completion attempt failed")
			return err
		}
		resp = got
		return nil
	})
	if err != nil {
		return nil, &CompletionError{Err: err, Permanent: permanent, Attempts: attempts}
	}
	return resp, nil
}

// isPermanent reports whether err cannot be fixed by retrying: invalid
// credentials, forbidden access, malformed requests, or exhausted quota.
// Plain rate limiting (429 without a quota code) stays retryable.
func isPermanent(err error) bool {
	var apiErr *openai.APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	switch apiErr.HTTPStatusCode {
	case http.StatusUnauthorized, http.StatusForbidden, http.StatusBadRequest:
		return true
	case http.StatusTooManyRequests:
		return apiErr.Type == "insufficient_quota"
	}
	return false
}
