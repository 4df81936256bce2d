package cli

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/ppiankov/enquete/internal/cache"
	"github.com/ppiankov/enquete/internal/cases"
	"github.com/ppiankov/enquete/internal/generator"
	"github.com/ppiankov/enquete/internal/llm"
	"github.com/ppiankov/enquete/internal/model"
	"github.com/ppiankov/enquete/internal/plan"
	"github.com/ppiankov/enquete/internal/store"
	"github.com/ppiankov/enquete/internal/worker"
)

// session holds everything a command needs
type session struct {
	cfg     *model.Config
	logger  *zap.Logger
	repo    store.Repository
	cases   *cases.Service
	planner *plan.Planner
}

// openSession loads the configuration and the case store. The planner is
// built only when withPlanner is set, so offline commands never touch the provider.
func openSession(ctx context.Context, withPlanner bool) (*session, error) {
	cfg := loadConfig()

	repo, err := store.Open(cfg.Store.Driver, cfg.Store.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open case store: %w", err)
	}

	svc, err := cases.NewService(ctx, repo, cases.WithLogger(logger.Named("cases")))
	if err != nil {
		_ = repo.Close()
		return nil, err
	}

	s := &session{cfg: cfg, logger: logger, repo: repo, cases: svc}

	if withPlanner {
		gen, err := newGenerator(ctx, cfg, logger)
		if err != nil {
			_ = repo.Close()
			return nil, err
		}
		s.planner = plan.New(gen, cfg.LLM.Model)
	}

	return s, nil
}

func (s *session) Close() {
	if err := s.repo.Close(); err != nil {
		s.logger.Warn("failed to close case store", zap.Error(err))
	}
}

// newGenerator assembles provider, throttle, retry and cache
func newGenerator(ctx context.Context, cfg *model.Config, logger *zap.Logger) (generator.Generator, error) {
	provider, err := llm.NewProvider(ctx, llm.ConfigFromModel(cfg.LLM))
	if err != nil {
		return nil, fmt.Errorf("create provider: %w", err)
	}

	opts := []generator.Option{generator.WithLogger(logger.Named("generator"))}
	if cfg.RateLimit.Enabled {
		opts = append(opts, generator.WithLimiter(worker.NewLimiter(cfg.RateLimit.RequestsPerSecond, cfg.RateLimit.BurstSize)))
	}

	var gen generator.Generator = generator.New(provider, generator.Policy{
		MaxRetries: cfg.Retry.MaxRetries,
		BaseDelay:  cfg.Retry.BaseDelay,
	}, opts...)

	if cfg.Cache.Enabled {
		layered := cache.NewLayeredCache(cfg.Cache.MemoryTTL, cfg.Cache.DiskDir, cfg.Cache.DiskTTL)
		gen = generator.NewCached(gen, layered, 0, logger.Named("cache"), generator.AcceptIf(plan.Usable))
	}

	logger.Debug("generator ready",
		zap.String("provider", provider.Name()),
		zap.String("model", cfg.LLM.Model),
		zap.Bool("credential", cfg.LLM.APIKey != ""),
		zap.Bool("cache", cfg.Cache.Enabled),
		zap.Bool("rate_limit", cfg.RateLimit.Enabled))

	return gen, nil
}
