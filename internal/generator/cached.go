package generator

import (
	"context"
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ppiankov/enquete/internal/cache"
	"github.com/ppiankov/enquete/internal/llm"
)

// Cached serves repeated requests from a cache. Only accepted successes
// are stored, so a reply the caller cannot use is asked for again.
type Cached struct {
	next   Generator
	cache  cache.Cache
	ttl    time.Duration
	logger *zap.Logger
	accept AcceptFunc
}

// AcceptFunc reports whether resp is usable for req and may be cached
type AcceptFunc func(req llm.Request, resp *llm.Response) bool

// CachedOption configures a Cached generator
type CachedOption func(*Cached)

// AcceptIf replaces the default check, which only rejects blank text
func AcceptIf(fn AcceptFunc) CachedOption {
	return func(c *Cached) { c.accept = fn }
}

func nonBlank(_ llm.Request, resp *llm.Response) bool {
	return strings.TrimSpace(resp.Text) != ""
}

// NewCached wraps next with c. A zero ttl uses the cache default.
func NewCached(next Generator, c cache.Cache, ttl time.Duration, logger *zap.Logger, opts ...CachedOption) *Cached {
	if logger == nil {
		logger = zap.NewNop()
	}
	cached := &Cached{next: next, cache: c, ttl: ttl, logger: logger, accept: nonBlank}
	for _, opt := range opts {
		opt(cached)
	}
	return cached
}

// Generate implements Generator
func (c *Cached) Generate(ctx context.Context, req llm.Request) (*llm.Response, error) {
	key := RequestKey(req)

	if data, ok := c.cache.Get(key); ok {
		var resp llm.Response
		if err := json.Unmarshal(data, &resp); err == nil && c.accept(req, &resp) {
			c.logger.Debug("generation cache hit", zap.String("key", key))
			return &resp, nil
		}
		_ = c.cache.Delete(key)
	}

	resp, err := c.next.Generate(ctx, req)
	if err != nil {
		return nil, err
	}

	if !c.accept(req, resp) {
		c.logger.Debug("generation not cached", zap.String("key", key))
		return resp, nil
	}
	if data, err := json.Marshal(resp); err == nil {
		if err := c.cache.Set(key, data, c.ttl); err != nil {
			c.logger.Warn("failed to store generation in cache", zap.Error(err))
		}
	}
	return resp, nil
}

// RequestKey identifies a request for caching
func RequestKey(req llm.Request) string {
	schema := ""
	if req.Schema != nil {
		schema = req.Schema.JSON()
	}
	return cache.Key(req.Model, req.SystemInstruction, req.Prompt, schema, strconv.Itoa(req.MaxTokens))
}
