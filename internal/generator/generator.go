// Package generator wraps a provider with quota backoff, throttling and
// response caching. It is the only place where provider calls are retried.
package generator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/enquete/internal/llm"
	"github.com/ppiankov/enquete/internal/worker"
)

// Generator produces one response for a request
type Generator interface {
	Generate(ctx context.Context, req llm.Request) (*llm.Response, error)
}

// Policy configures quota backoff
type Policy struct {
	MaxRetries int           // Retries after the first call
	BaseDelay  time.Duration // Wait before the first retry, doubled each time
}

// DefaultPolicy retries three times, waiting 1s, 2s then 4s
func DefaultPolicy() Policy {
	return Policy{MaxRetries: 3, BaseDelay: time.Second}
}

// Delay returns the wait before retry number attempt (0-based)
func (p Policy) Delay(attempt int) time.Duration {
	return p.BaseDelay << uint(attempt)
}

// SleepFunc waits for d or until ctx is done
type SleepFunc func(ctx context.Context, d time.Duration) error

// Retrying calls a provider and retries quota failures with exponential backoff
type Retrying struct {
	provider llm.Provider
	policy   Policy
	sleep    SleepFunc
	limiter  *worker.Limiter
	logger   *zap.Logger
}

// Option configures a Retrying generator
type Option func(*Retrying)

// WithSleep replaces the backoff wait, mainly for tests
func WithSleep(sleep SleepFunc) Option {
	return func(r *Retrying) { r.sleep = sleep }
}

// WithLimiter throttles every attempt, keyed by provider name
func WithLimiter(l *worker.Limiter) Option {
	return func(r *Retrying) { r.limiter = l }
}

// WithLogger sets the logger used for retry warnings
func WithLogger(l *zap.Logger) Option {
	return func(r *Retrying) { r.logger = l }
}

// New creates a retrying generator over provider
func New(provider llm.Provider, policy Policy, opts ...Option) *Retrying {
	if policy.MaxRetries < 0 {
		policy.MaxRetries = 0
	}
	r := &Retrying{
		provider: provider,
		policy:   policy,
		sleep:    sleepContext,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Generate issues req, retrying only when the failure carries a quota marker.
// The provider error is kept in the chain of whatever is returned.
func (r *Retrying) Generate(ctx context.Context, req llm.Request) (*llm.Response, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	for attempt := 0; ; attempt++ {
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx, r.provider.Name()); err != nil {
				return nil, fmt.Errorf("wait for rate limit: %w", err)
			}
		}

		resp, err := r.provider.Generate(ctx, req)
		if err == nil {
			if attempt > 0 {
				r.logger.Info("generation succeeded after retry",
					zap.String("provider", r.provider.Name()),
					zap.Int("attempts", attempt+1))
			}
			return resp, nil
		}

		if !llm.IsQuotaError(err) {
			return nil, err
		}
		if attempt >= r.policy.MaxRetries {
			if attempt == 0 {
				return nil, err
			}
			return nil, fmt.Errorf("quota still exhausted after %d attempts: %w", attempt+1, err)
		}

		delay := r.policy.Delay(attempt)
		r.logger.Warn("quota exceeded, retrying",
			zap.String("provider", r.provider.Name()),
			zap.Int("attempt", attempt+1),
			zap.Duration("delay", delay),
			zap.Error(err))

		if serr := r.sleep(ctx, delay); serr != nil {
			return nil, errors.Join(serr, err)
		}
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
