package generator

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/enquete/internal/llm"
	"github.com/ppiankov/enquete/internal/worker"
)

// scriptedProvider fails with errs in order, or with always on every call
type scriptedProvider struct {
	mu     sync.Mutex
	errs   []error
	always error
	calls  int
	text   string
}

func (p *scriptedProvider) Name() string                     { return "fake" }
func (p *scriptedProvider) IsAvailable(context.Context) bool { return true }

func (p *scriptedProvider) Generate(ctx context.Context, req llm.Request) (*llm.Response, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.calls++
	if p.always != nil {
		return nil, p.always
	}
	if i := p.calls - 1; i < len(p.errs) && p.errs[i] != nil {
		return nil, p.errs[i]
	}
	return &llm.Response{Text: p.text, Model: req.Model}, nil
}

type recordedSleep struct {
	delays []time.Duration
}

func (s *recordedSleep) sleep(ctx context.Context, d time.Duration) error {
	s.delays = append(s.delays, d)
	return ctx.Err()
}

var testRequest = llm.Request{
	Model:             "gemini-3-flash-preview",
	Prompt:            "Générez une trame",
	SystemInstruction: "Vous êtes OPJ",
}

var quotaErr = &llm.APIError{Provider: "fake", StatusCode: 429, Status: llm.StatusResourceExhausted, Message: "Quota exceeded"}

func TestRetrying_PersistentQuota(t *testing.T) {
	provider := &scriptedProvider{always: quotaErr}
	rec := &recordedSleep{}
	gen := New(provider, DefaultPolicy(), WithSleep(rec.sleep))

	_, err := gen.Generate(context.Background(), testRequest)
	require.Error(t, err)

	assert.Equal(t, 4, provider.calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second, 4 * time.Second}, rec.delays)

	var apiErr *llm.APIError
	require.True(t, errors.As(err, &apiErr), "original error must be preserved")
	assert.Same(t, quotaErr, apiErr)
	assert.True(t, llm.IsQuotaError(err))
}

func TestRetrying_RecoversAfterQuota(t *testing.T) {
	provider := &scriptedProvider{
		errs: []error{errors.New("429 Too Many Requests"), errors.New("quota exceeded")},
		text: "[]",
	}
	rec := &recordedSleep{}
	gen := New(provider, DefaultPolicy(), WithSleep(rec.sleep))

	resp, err := gen.Generate(context.Background(), testRequest)
	require.NoError(t, err)
	assert.Equal(t, "[]", resp.Text)
	assert.Equal(t, 3, provider.calls)
	assert.Equal(t, []time.Duration{time.Second, 2 * time.Second}, rec.delays)
}

func TestRetrying_NonQuotaFailsImmediately(t *testing.T) {
	authErr := &llm.APIError{Provider: "fake", StatusCode: 401, Message: "invalid API key"}
	provider := &scriptedProvider{always: authErr}
	rec := &recordedSleep{}
	gen := New(provider, DefaultPolicy(), WithSleep(rec.sleep))

	_, err := gen.Generate(context.Background(), testRequest)
	require.Error(t, err)
	assert.Equal(t, 1, provider.calls)
	assert.Empty(t, rec.delays)
	assert.Same(t, authErr, err)
}

func TestRetrying_MissingCredentialNotRetried(t *testing.T) {
	provider := &scriptedProvider{errs: []error{fmt.Errorf("gemini: %w", llm.ErrMissingCredential)}}
	gen := New(provider, DefaultPolicy(), WithSleep((&recordedSleep{}).sleep))

	_, err := gen.Generate(context.Background(), testRequest)
	assert.ErrorIs(t, err, llm.ErrMissingCredential)
	assert.Equal(t, 1, provider.calls)
}

func TestRetrying_ZeroBudget(t *testing.T) {
	provider := &scriptedProvider{always: quotaErr}
	gen := New(provider, Policy{MaxRetries: 0, BaseDelay: time.Second}, WithSleep((&recordedSleep{}).sleep))

	_, err := gen.Generate(context.Background(), testRequest)
	assert.Same(t, quotaErr, err)
	assert.Equal(t, 1, provider.calls)
}

func TestRetrying_CancelDuringBackoff(t *testing.T) {
	provider := &scriptedProvider{always: quotaErr}
	ctx, cancel := context.WithCancel(context.Background())
	gen := New(provider, DefaultPolicy(), WithSleep(func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}))

	_, err := gen.Generate(ctx, testRequest)
	assert.ErrorIs(t, err, context.Canceled)
	assert.True(t, llm.IsQuotaError(err), "provider error stays in the chain")
	assert.Equal(t, 1, provider.calls)
}

func TestRetrying_RealSleepHonorsContext(t *testing.T) {
	provider := &scriptedProvider{always: quotaErr}
	gen := New(provider, Policy{MaxRetries: 3, BaseDelay: time.Hour})

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := gen.Generate(ctx, testRequest)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}

func TestRetrying_MissingSystemInstruction(t *testing.T) {
	provider := &scriptedProvider{}
	gen := New(provider, DefaultPolicy())

	_, err := gen.Generate(context.Background(), llm.Request{Prompt: "x"})
	assert.ErrorIs(t, err, llm.ErrMissingSystemInstruction)
	assert.Equal(t, 0, provider.calls)
}

func TestRetrying_Limiter(t *testing.T) {
	provider := &scriptedProvider{text: "ok"}
	limiter := worker.NewLimiter(1000, 1)
	gen := New(provider, DefaultPolicy(), WithLimiter(limiter))

	for i := 0; i < 3; i++ {
		_, err := gen.Generate(context.Background(), testRequest)
		require.NoError(t, err)
	}
	assert.Equal(t, 3, provider.calls)

	slow := worker.NewLimiter(0.001, 1)
	slow.Allow("fake")
	gen = New(provider, DefaultPolicy(), WithLimiter(slow))

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()
	_, err := gen.Generate(ctx, testRequest)
	assert.Error(t, err)
	assert.Equal(t, 3, provider.calls, "throttled call must not reach the provider")
}

func TestPolicy_Delay(t *testing.T) {
	p := Policy{BaseDelay: 500 * time.Millisecond}
	assert.Equal(t, 500*time.Millisecond, p.Delay(0))
	assert.Equal(t, time.Second, p.Delay(1))
	assert.Equal(t, 4*time.Second, p.Delay(3))
}
