package llm

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"time"
)

const providerListKey = "providers"

type HealthChecker interface {
	Healthy(key string) bool
}

// Router resolves the configured providers in priority order and filters
// them by task and health.
type Router struct {
	factory *Factory
	cache   *providerCache
	db      ProviderStore
	health  HealthChecker
	logger  *slog.Logger
}

type cachedProviders struct {
	providers []Provider
	expires   time.Time
}

type providerCache struct {
	mu    sync.Mutex
	items map[string]cachedProviders
	ttl   time.Duration
}

func newProviderCache(ttl time.Duration) *providerCache {
	return &providerCache{items: map[string]cachedProviders{}, ttl: ttl}
}

func (c *providerCache) get(key string) ([]Provider, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	item, ok := c.items[key]
	if !ok || time.Now().After(item.expires) {
		delete(c.items, key)
		return nil, false
	}
	return item.providers, true
}

func (c *providerCache) set(key string, providers []Provider) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.items[key] = cachedProviders{providers: providers, expires: time.Now().Add(c.ttl)}
}

func NewRouter(factory *Factory, store ProviderStore, logger *slog.Logger) *Router {
	if logger == nil {
		logger = slog.Default()
	}
	return &Router{factory: factory, cache: newProviderCache(5 * time.Minute), db: store, logger: logger}
}

// SetHealth installs the checker consulted by Available. Without one every
// provider counts as healthy.
func (r *Router) SetHealth(health HealthChecker) {
	r.health = health
}

// Providers returns every configured provider, lowest Priority first.
func (r *Router) Providers(ctx context.Context) ([]Provider, error) {
	if providers, ok := r.cache.get(providerListKey); ok {
		return providers, nil
	}
	configs, err := r.db.ListProviders(ctx)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(configs, func(i, j int) bool { return configs[i].Priority < configs[j].Priority })

	providers := make([]Provider, 0, len(configs))
	for i := range configs {
		provider := r.factory.CreateProvider(&configs[i])
		if provider == nil {
			r.logger.Warn("unsupported llm provider", "provider", configs[i].ProviderName)
			continue
		}
		providers = append(providers, provider)
	}
	r.cache.set(providerListKey, providers)
	return providers, nil
}

// Available returns the healthy providers that support task.
func (r *Router) Available(ctx context.Context, task Task) []Provider {
	providers, err := r.Providers(ctx)
	if err != nil {
		r.logger.Error("list llm providers", "error", err)
		return nil
	}
	out := []Provider{}
	for _, provider := range providers {
		config := provider.GetConfig()
		if !config.Supports(task) {
			continue
		}
		if r.health != nil && !r.health.Healthy(config.Key()) {
			continue
		}
		out = append(out, provider)
	}
	return out
}
