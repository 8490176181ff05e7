package llm

import (
	"context"
	"errors"
	"log"
	"strings"
	"sync"
	"time"
)

// ErrNoProvider is returned when no usable LLM provider could be
// created (no reachable Ollama and no API key).
var ErrNoProvider = errors.New("no LLM provider configured")

const (
	// Minimum spacing between any two upstream calls, shared across all
	// pipeline stages using the same client.
	minCallInterval = 2 * time.Second

	maxAttempts    = 3
	baseRetryDelay = 5 * time.Second
)

// Client wraps a Provider with global call pacing and retry on transient
// upstream errors. All pipeline stages share one Client so the pacing
// applies across stages, not per stage.
type Client struct {
	provider Provider
	interval time.Duration

	mu       sync.Mutex
	lastCall time.Time

	// Injectable clock for tests.
	now   func() time.Time
	sleep func(time.Duration)
}

// NewClient creates a rate-gated client around a provider.
func NewClient(provider Provider) *Client {
	return NewClientWithInterval(provider, minCallInterval)
}

// NewClientWithInterval creates a client with a custom pacing interval.
// Zero disables pacing.
func NewClientWithInterval(provider Provider, interval time.Duration) *Client {
	return &Client{
		provider: provider,
		interval: interval,
		now:      time.Now,
		sleep:    time.Sleep,
	}
}

// IsConfigured reports whether the underlying provider is usable.
func (c *Client) IsConfigured() bool {
	return c.provider != nil && c.provider.IsConfigured()
}

// Complete sends a request through the pacing gate, retrying transient
// failures with exponential backoff. The returned text is trimmed.
func (c *Client) Complete(ctx context.Context, req Request) (string, error) {
	if c.provider == nil {
		return "", ErrNoProvider
	}

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		c.waitTurn()

		resp, err := c.provider.Complete(ctx, req)
		if err == nil {
			return strings.TrimSpace(resp), nil
		}
		lastErr = err

		if !isRetryable(err) || attempt == maxAttempts {
			break
		}

		delay := baseRetryDelay * (1 << (attempt - 1))
		log.Printf("LLM call failed (attempt %d/%d), retrying in %v: %v",
			attempt, maxAttempts, delay, err)
		c.sleep(delay)
	}
	return "", lastErr
}

// waitTurn blocks until minCallInterval has passed since the previous
// call. Concurrent callers are serialized so no two calls land closer
// together than the interval.
func (c *Client) waitTurn() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.lastCall.IsZero() {
		elapsed := c.now().Sub(c.lastCall)
		if elapsed < c.interval {
			c.sleep(c.interval - elapsed)
		}
	}
	c.lastCall = c.now()
}

var retryableFragments = []string{
	"429", "rate", "limit", "502", "503", "timeout", "overloaded", "capacity",
}

// isRetryable classifies an upstream error as transient by message.
func isRetryable(err error) bool {
	msg := strings.ToLower(err.Error())
	for _, frag := range retryableFragments {
		if strings.Contains(msg, frag) {
			return true
		}
	}
	return false
}
