// Package leads provides the lead scoring bounded context module.
// This file defines the module that encapsulates all scoring setup and route registration.
package leads

import (
	"context"
	"fmt"
	"time"

	"smartlead_backend/internal/events"
	apphttp "smartlead_backend/internal/http"
	"smartlead_backend/internal/leads/adjustcache"
	"smartlead_backend/internal/leads/agent"
	"smartlead_backend/internal/leads/handler"
	"smartlead_backend/internal/leads/repository"
	"smartlead_backend/internal/leads/scoring"
	"smartlead_backend/internal/leads/service"
	"smartlead_backend/platform/ai/openai"
	"smartlead_backend/platform/config"
	"smartlead_backend/platform/logger"
	"smartlead_backend/platform/redisconn"
	"smartlead_backend/platform/validator"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
)

const (
	cacheBackendRedis  = "redis"
	adjustmentCacheTTL = 24 * time.Hour
)

// ModuleConfig is the configuration the leads module reads.
type ModuleConfig interface {
	config.ScoringConfig
	config.CacheConfig
}

// Module is the leads bounded context module implementing http.Module.
type Module struct {
	handler  *handler.Handler
	service  *service.Service
	adjuster *agent.ScoreAdjuster
	cache    adjustcache.Cache
	redis    *redis.Client
	log      *logger.Logger
}

// NewModule creates and initializes the leads module with all its dependencies.
// scheduler may be nil, in which case stale rescoring requests are rejected.
func NewModule(pool *pgxpool.Pool, eventBus events.Bus, val *validator.Validator, cfg ModuleConfig, scheduler service.RescoreScheduler, log *logger.Logger) (*Module, error) {
	repo := repository.New(pool)

	m := &Module{log: log}

	cache, client, err := newAdjustmentCache(cfg, log)
	if err != nil {
		return nil, err
	}
	m.cache, m.redis = cache, client

	opts := []scoring.Option{scoring.WithBatchConcurrency(cfg.GetBatchConcurrency())}
	if cfg.IsAIScoringEnabled() {
		llm := openai.NewModel(openai.Config{
			APIKey: cfg.GetOpenAIAPIKey(),
			URL:    cfg.GetOpenAIAPIURL(),
			Model:  cfg.GetOpenAIModel(),
		})
		m.adjuster = agent.NewScoreAdjuster(llm, cache, cfg.GetAIScoringTimeout(), log)
		opts = append(opts, scoring.WithAdjuster(m.adjuster))
		log.Info("ai score adjustment enabled", "model", llm.Name())
	} else {
		log.Info("ai score adjustment disabled")
	}

	scorer := scoring.New(repo, log, opts...)
	m.service = service.New(repo, scorer, eventBus, scheduler, cfg.GetStaleAfter(), log)
	m.handler = handler.New(m.service, val)

	if eventBus != nil {
		eventBus.Subscribe(events.LeadScored{}.EventName(), events.HandlerFunc(m.service.HandleLeadScored))
	}

	return m, nil
}

func newAdjustmentCache(cfg config.CacheConfig, log *logger.Logger) (adjustcache.Cache, *redis.Client, error) {
	if cfg.GetScoringCacheBackend() != cacheBackendRedis {
		return adjustcache.NewMemory(), nil, nil
	}
	client, err := redisconn.NewClient(cfg.GetRedisURL(), cfg.GetRedisTLSInsecure())
	if err != nil {
		return nil, nil, fmt.Errorf("adjustment cache: %w", err)
	}
	return adjustcache.NewRedis(client, adjustmentCacheTTL, log), client, nil
}

// Name returns the module identifier.
func (m *Module) Name() string {
	return "leads"
}

// Service returns the lead scoring service for the worker and CLI binaries.
func (m *Module) Service() *service.Service {
	return m.service
}

// RegisterRoutes mounts leads routes on the provided router context.
func (m *Module) RegisterRoutes(ctx *apphttp.RouterContext) {
	m.handler.RegisterPublicRoutes(ctx.V1.Group("/leads"))

	scoped := ctx.Tenant.Group("/leads")
	if ctx.RateLimit != nil {
		scoped.Use(ctx.RateLimit)
	}
	m.handler.RegisterRoutes(scoped)
}

// Close releases the adjustment cache. A process-local cache is emptied. The
// Redis cache is shared with the other replicas and the worker, so its
// entries are left to their TTL and only the connection is closed.
func (m *Module) Close(ctx context.Context) {
	if m.redis == nil {
		if m.adjuster != nil {
			m.adjuster.ClearCache(ctx)
		} else if m.cache != nil {
			m.cache.Clear(ctx)
		}
		return
	}
	if err := m.redis.Close(); err != nil {
		m.log.Warn("redis close failed", "error", err)
	}
}

var (
	_ apphttp.Module = (*Module)(nil)
	_ apphttp.Closer = (*Module)(nil)
)
