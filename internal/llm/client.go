// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm invokes text generation services through an ordered list of
// (provider, model) candidates. Each candidate gets a bounded number of
// attempts; the retry decision depends only on the typed error kind a
// transport reports. The most recently successful candidate is tried first
// on the next call.
package llm

import (
	"context"
	"errors"
	"fmt"
	"math"
	"math/rand/v2"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/skill-factory/pkg/types"
)

// Transport sends one request to one provider. Implementations return *Error
// for every failure so the client can classify it without inspecting text.
type Transport interface {
	// Name returns the provider identifier candidates refer to.
	Name() string

	// Generate returns the raw response text for req using model.
	Generate(ctx context.Context, model string, req types.InvocationRequest) (string, error)
}

// KeyRotator is implemented by transports that hold more than one API key.
// RotateKey switches to the next key and reports whether a key not yet tried
// in this round is now active. ResetRotation starts a new round.
type KeyRotator interface {
	RotateKey() bool
	ResetRotation()
}

// Options tunes retry behavior. Zero values select the defaults.
type Options struct {
	MaxRetries         int
	RateLimitPolicy    types.RateLimitPolicy
	RateLimitBaseDelay time.Duration
	ServerBaseDelay    time.Duration
	RetryDelay         time.Duration
	CallTimeout        time.Duration
	MaxOutputTokens    int
}

const (
	defaultMaxRetries         = 3
	defaultRateLimitBaseDelay = 10 * time.Second
	defaultServerBaseDelay    = 5 * time.Second
	defaultRetryDelay         = 2 * time.Second
	defaultCallTimeout        = 5 * time.Minute
	defaultMaxOutputTokens    = 4096
)

func (o Options) withDefaults() Options {
	if o.MaxRetries <= 0 {
		o.MaxRetries = defaultMaxRetries
	}
	if o.RateLimitPolicy == "" {
		o.RateLimitPolicy = types.RateLimitAdvance
	}
	if o.RateLimitBaseDelay <= 0 {
		o.RateLimitBaseDelay = defaultRateLimitBaseDelay
	}
	if o.ServerBaseDelay <= 0 {
		o.ServerBaseDelay = defaultServerBaseDelay
	}
	if o.RetryDelay <= 0 {
		o.RetryDelay = defaultRetryDelay
	}
	if o.CallTimeout <= 0 {
		o.CallTimeout = defaultCallTimeout
	}
	if o.MaxOutputTokens <= 0 {
		o.MaxOutputTokens = defaultMaxOutputTokens
	}
	return o
}

// Client is the resilient invoker. It is safe for concurrent use, although
// the pipeline drives it from a single goroutine.
type Client struct {
	transports map[string]Transport
	candidates []types.ModelCandidate
	opts       Options
	log        *zap.Logger

	sleep  func(ctx context.Context, d time.Duration) error
	jitter func(base time.Duration) time.Duration

	mu          sync.Mutex
	lastWorking *types.ModelCandidate
}

// New builds a client over the given transports. Candidates are sorted by
// Priority (stable) and every candidate must name a known transport.
func New(transports []Transport, candidates []types.ModelCandidate, opts Options, log *zap.Logger) (*Client, error) {
	if len(candidates) == 0 {
		return nil, fmt.Errorf("no model candidates configured")
	}
	if log == nil {
		log = zap.NewNop()
	}

	byName := make(map[string]Transport, len(transports))
	for _, t := range transports {
		byName[t.Name()] = t
	}

	sorted := make([]types.ModelCandidate, len(candidates))
	copy(sorted, candidates)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Priority < sorted[j].Priority })

	for _, c := range sorted {
		if _, ok := byName[c.Provider]; !ok {
			return nil, fmt.Errorf("candidate %s: no transport for provider %q", c, c.Provider)
		}
	}

	return &Client{
		transports: byName,
		candidates: sorted,
		opts:       opts.withDefaults(),
		log:        log,
		sleep:      sleepContext,
		jitter:     randomJitter,
	}, nil
}

// Candidates returns the order the next Invoke will try: the last working
// candidate first, then the configured candidates with duplicates removed.
func (c *Client) Candidates() []types.ModelCandidate {
	c.mu.Lock()
	last := c.lastWorking
	c.mu.Unlock()

	order := make([]types.ModelCandidate, 0, len(c.candidates)+1)
	seen := make(map[string]bool, len(c.candidates)+1)
	if last != nil {
		order = append(order, *last)
		seen[last.Key()] = true
	}
	for _, cand := range c.candidates {
		if seen[cand.Key()] {
			continue
		}
		seen[cand.Key()] = true
		order = append(order, cand)
	}
	return order
}

// LastWorking returns the candidate that produced the most recent success.
func (c *Client) LastWorking() (types.ModelCandidate, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.lastWorking == nil {
		return types.ModelCandidate{}, false
	}
	return *c.lastWorking, true
}

// Invoke sends req to the first candidate that returns non-empty text.
// When every candidate fails the error wraps ErrAllProvidersExhausted and
// carries the last failure. Context cancellation is returned as is.
func (c *Client) Invoke(ctx context.Context, req types.InvocationRequest) (types.InvocationResult, error) {
	if req.MaxOutputTokens <= 0 {
		req.MaxOutputTokens = c.opts.MaxOutputTokens
	}

	var lastErr error
	total := 0
	for _, cand := range c.Candidates() {
		text, n, err := c.tryCandidate(ctx, c.transports[cand.Provider], cand, req)
		total += n
		if err == nil {
			c.remember(cand)
			return types.InvocationResult{Text: text, Provider: cand.Provider, Model: cand.Model}, nil
		}
		if ctx.Err() != nil {
			return types.InvocationResult{}, ctx.Err()
		}
		lastErr = err
		c.log.Warn("candidate exhausted",
			zap.String("provider", cand.Provider),
			zap.String("model", cand.Model),
			zap.Int("attempts", n),
			zap.Error(err))
	}
	return types.InvocationResult{}, &ExhaustedError{Attempts: total, Last: lastErr}
}

// tryCandidate runs the per-candidate retry loop and returns the text, the
// number of attempts made and the last error.
func (c *Client) tryCandidate(ctx context.Context, t Transport, cand types.ModelCandidate, req types.InvocationRequest) (string, int, error) {
	if r, ok := t.(KeyRotator); ok {
		r.ResetRotation()
	}
	var lastErr error
	for attempt := 0; attempt < c.opts.MaxRetries; attempt++ {
		text, err := c.call(ctx, t, cand.Model, req)
		if err == nil && strings.TrimSpace(text) == "" {
			err = &Error{Kind: KindEmpty, Provider: cand.Provider, Model: cand.Model}
		}
		if err == nil {
			return text, attempt + 1, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return "", attempt + 1, ctx.Err()
		}

		kind := KindOf(err)
		log := c.log.With(
			zap.String("provider", cand.Provider),
			zap.String("model", cand.Model),
			zap.Int("attempt", attempt+1),
			zap.Int("max_retries", c.opts.MaxRetries),
			zap.Stringer("kind", kind),
		)

		var wait time.Duration
		switch kind {
		case KindNotFound:
			log.Info("model not found, skipping candidate", zap.Error(err))
			return "", attempt + 1, err
		case KindRateLimited:
			if r, ok := t.(KeyRotator); ok && r.RotateKey() {
				log.Info("rate limited, rotated api key")
				wait = c.opts.RetryDelay
			} else if c.opts.RateLimitPolicy == types.RateLimitBackoff {
				wait = backoff(c.opts.RateLimitBaseDelay, attempt) + c.jitter(c.opts.RateLimitBaseDelay)
			} else {
				log.Info("rate limited, advancing to next candidate")
				return "", attempt + 1, err
			}
		case KindServer:
			wait = backoff(c.opts.ServerBaseDelay, attempt)
		case KindEmpty, KindTransient:
			wait = c.opts.RetryDelay
		default:
			log.Warn("unclassified provider error", zap.Error(err))
			wait = c.opts.RetryDelay
		}

		if attempt+1 >= c.opts.MaxRetries {
			break
		}
		log.Debug("retrying candidate", zap.Duration("wait", wait), zap.Error(err))
		if err := c.sleep(ctx, wait); err != nil {
			return "", attempt + 1, err
		}
	}
	return "", c.opts.MaxRetries, lastErr
}

// call applies the per-call timeout. A call that runs out of time while the
// parent context is still live is reported as KindTransient.
func (c *Client) call(ctx context.Context, t Transport, model string, req types.InvocationRequest) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, c.opts.CallTimeout)
	defer cancel()

	text, err := t.Generate(callCtx, model, req)
	if err != nil && ctx.Err() == nil && errors.Is(callCtx.Err(), context.DeadlineExceeded) {
		return "", &Error{
			Kind:     KindTransient,
			Provider: t.Name(),
			Model:    model,
			Err:      fmt.Errorf("call timed out after %s: %w", c.opts.CallTimeout, err),
		}
	}
	return text, err
}

func (c *Client) remember(cand types.ModelCandidate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastWorking = &cand
}

// backoff returns base * 2^attempt.
func backoff(base time.Duration, attempt int) time.Duration {
	return time.Duration(math.Pow(2, float64(attempt))) * base
}

func randomJitter(base time.Duration) time.Duration {
	if base <= 1 {
		return 0
	}
	return rand.N(base / 2)
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
