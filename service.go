// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package editais

import (
	"context"
	"log/slog"
	"time"

	"github.com/panjf2000/ants/v2"
	"github.com/poiesic/editais/cache"
	"github.com/poiesic/editais/config"
	"github.com/poiesic/editais/consolidate"
	"github.com/poiesic/editais/core"
	"github.com/poiesic/editais/pipeline"
	"github.com/poiesic/editais/source"
	"github.com/poiesic/editais/source/comprasgov"
	"github.com/poiesic/editais/source/licitanet"
	"github.com/poiesic/editais/source/pncp"
)

// regionPoolSize bounds concurrent per-region sub-fetches across all
// adapters that batch by state.
const regionPoolSize = 16

// Service wires the full aggregation stack: portal adapters, the
// consolidation fan-out, the tiered cache, and the query pipeline. All
// lifecycle is explicit: construct with NewService, release with Close.
type Service struct {
	cfg        config.Config
	pool       *ants.Pool
	regionPool *ants.Pool
	store      *cache.Store
	shared     *cache.SharedTier
	tiered     *cache.Tiered
	adapters   []source.Adapter
	pipeline   *pipeline.Pipeline
	logger     *slog.Logger
}

// ServiceOption configures a Service.
type ServiceOption func(*serviceOptions)

type serviceOptions struct {
	inMemoryCache bool
	quota         pipeline.QuotaChecker
	telemetry     pipeline.Telemetry
	logger        *slog.Logger
}

// WithInMemoryCache keeps the durable tier off disk. Intended for tests
// and ephemeral environments.
func WithInMemoryCache() ServiceOption {
	return func(o *serviceOptions) { o.inMemoryCache = true }
}

// WithQuotaChecker installs a per-caller quota gate on the pipeline.
func WithQuotaChecker(qc pipeline.QuotaChecker) ServiceOption {
	return func(o *serviceOptions) { o.quota = qc }
}

// WithTelemetry installs a fire-and-forget event sink on the pipeline.
func WithTelemetry(t pipeline.Telemetry) ServiceOption {
	return func(o *serviceOptions) { o.telemetry = t }
}

// WithLogger sets the structured logger for every component.
func WithLogger(logger *slog.Logger) ServiceOption {
	return func(o *serviceOptions) {
		if logger != nil {
			o.logger = logger
		}
	}
}

// NewService builds the stack from configuration.
func NewService(cfg config.Config, opts ...ServiceOption) (*Service, error) {
	options := &serviceOptions{logger: slog.Default()}
	for _, opt := range opts {
		opt(options)
	}
	logger := options.logger

	pool, err := ants.NewPool(cfg.Consolidation.PoolSize)
	if err != nil {
		return nil, err
	}

	// Region sub-fetches run on their own pool so they can never starve
	// the adapter fan-out that spawned them.
	regionPool, err := ants.NewPool(regionPoolSize)
	if err != nil {
		pool.Release()
		return nil, err
	}

	adapters, err := buildAdapters(cfg, regionPool, logger)
	if err != nil {
		regionPool.Release()
		pool.Release()
		return nil, err
	}

	store, err := cache.OpenStore(cfg.Cache.Dir, options.inMemoryCache)
	if err != nil {
		regionPool.Release()
		pool.Release()
		return nil, err
	}

	shared, err := cache.NewSharedTier(cfg.Cache.SharedTTL())
	if err != nil {
		store.Close()
		regionPool.Release()
		pool.Release()
		return nil, err
	}

	tiered := cache.NewTiered(
		[]cache.Tier{cache.NewMemoryTier(cfg.Cache.MemoryCapacity), shared, store},
		cache.WithDefaultTTL(cfg.Cache.StalenessTTL()),
		cache.WithFailThreshold(cfg.Cache.FailThreshold),
		cache.WithDegradeWindow(cfg.Cache.DegradeWindow()),
		cache.WithTieredLogger(logger),
	)

	consolidator := consolidate.New(adapters,
		consolidate.WithPool(pool),
		consolidate.WithPerSourceTimeout(cfg.Consolidation.PerSourceTimeout()),
		consolidate.WithFailOnAllSources(cfg.Consolidation.FailOnAll()),
		consolidate.WithLogger(logger),
	)

	pipelineOpts := []pipeline.Option{pipeline.WithLogger(logger)}
	if options.quota != nil {
		pipelineOpts = append(pipelineOpts, pipeline.WithQuotaChecker(options.quota))
	}
	if options.telemetry != nil {
		pipelineOpts = append(pipelineOpts, pipeline.WithTelemetry(options.telemetry))
	}
	pipe, err := pipeline.New(consolidator, tiered, cfg.Sectors, pipelineOpts...)
	if err != nil {
		shared.Close()
		store.Close()
		regionPool.Release()
		pool.Release()
		return nil, err
	}

	return &Service{
		cfg:        cfg,
		pool:       pool,
		regionPool: regionPool,
		store:      store,
		shared:     shared,
		tiered:     tiered,
		adapters:   adapters,
		pipeline:   pipe,
		logger:     logger,
	}, nil
}

func buildAdapters(cfg config.Config, pool *ants.Pool, logger *slog.Logger) ([]source.Adapter, error) {
	var adapters []source.Adapter

	if cfg.Sources.PNCP.IsEnabled() {
		adapters = append(adapters, pncp.New(newPortalClient(core.SourcePNCP, cfg.Sources.PNCP, logger), logger))
	}
	if cfg.Sources.ComprasGov.IsEnabled() {
		adapters = append(adapters, comprasgov.New(newPortalClient(core.SourceComprasGov, cfg.Sources.ComprasGov, logger), logger))
	}
	if cfg.Sources.Licitanet.IsEnabled() {
		adapter, err := licitanet.New(newPortalClient(core.SourceLicitanet, cfg.Sources.Licitanet, logger), pool, logger)
		if err != nil {
			return nil, err
		}
		adapters = append(adapters, adapter)
	}

	return adapters, nil
}

func newPortalClient(name core.SourceName, cfg config.SourceConfig, logger *slog.Logger) *source.Client {
	retry := source.DefaultRetryPolicy()
	if cfg.MaxAttempts > 0 {
		retry.MaxAttempts = cfg.MaxAttempts
	}
	return source.NewClient(name, source.ClientConfig{
		BaseURL:            cfg.BaseURL,
		Timeout:            cfg.Timeout(),
		Retry:              retry,
		RateLimitPerSecond: float64(cfg.RateLimitPerSecond),
		UserAgent:          "editais-aggregator/1.0",
	}, source.WithClientLogger(logger))
}

// Search runs one query through the pipeline.
func (s *Service) Search(ctx context.Context, q *pipeline.Query) (*pipeline.Response, error) {
	return s.pipeline.Run(ctx, q)
}

// SearchWithMonitor runs one query with stage callbacks.
func (s *Service) SearchWithMonitor(ctx context.Context, q *pipeline.Query, m pipeline.Monitor) (*pipeline.Response, error) {
	return s.pipeline.RunWithMonitor(ctx, q, m)
}

// Health probes every configured source adapter.
func (s *Service) Health(ctx context.Context) map[core.SourceName]source.Health {
	out := make(map[core.SourceName]source.Health, len(s.adapters))
	for _, adapter := range s.adapters {
		probeCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		out[adapter.Metadata().Code] = adapter.HealthCheck(probeCtx)
		cancel()
	}
	return out
}

// CacheEntries lists durable cache entries for admin inspection. A nil
// filter returns everything.
func (s *Service) CacheEntries(ctx context.Context, filter func(*cache.Entry) bool) ([]*cache.Entry, error) {
	return s.store.List(ctx, filter)
}

// InvalidateCache drops one entry from every tier.
func (s *Service) InvalidateCache(ctx context.Context, key string) {
	s.tiered.Invalidate(ctx, key)
}

// Sectors exposes the configured keyword rule sets.
func (s *Service) Sectors() []config.SectorConfig {
	return s.cfg.Sectors
}

// Close releases every component. Safe to call once.
func (s *Service) Close() error {
	s.shared.Close()
	s.regionPool.Release()
	s.pool.Release()
	if err := s.store.Close(); err != nil {
		s.logger.Error("error closing cache store", "err", err)
		return err
	}
	return nil
}
