package client

import (
	"context"
	"errors"
	"fmt"

	"github.com/534591395/zoodubbo/loadbalance"
	"github.com/534591395/zoodubbo/registry"
	"go.uber.org/zap"
)

var ErrNoProvider = errors.New("no provider available")

// EndpointResolver maps a service path to one provider endpoint.
type EndpointResolver interface {
	// FromCache returns the cached endpoint for path without any network access.
	FromCache(path string) (*registry.Endpoint, bool)
	// Resolve asks the registry, bypassing the cache, and refreshes the cache on success.
	Resolve(ctx context.Context, path, version string) (*registry.Endpoint, error)
}

// Resolver resolves endpoints through a Registry, picks one with a Balancer and
// remembers the pick in a Cache.
type Resolver struct {
	registry registry.Registry
	balancer loadbalance.Balancer
	cache    *registry.Cache
	logger   *zap.Logger
}

func NewResolver(reg registry.Registry, bal loadbalance.Balancer, cache *registry.Cache, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{registry: reg, balancer: bal, cache: cache, logger: logger}
}

func (r *Resolver) FromCache(path string) (*registry.Endpoint, bool) {
	return r.cache.Get(path)
}

func (r *Resolver) Resolve(ctx context.Context, path, version string) (*registry.Endpoint, error) {
	endpoints, err := r.registry.Discover(ctx, path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	picked, err := r.pick(path, version, endpoints)
	if err != nil {
		return nil, err
	}
	if err := r.cache.Set(path, *picked); err != nil {
		r.logger.Warn("failed to cache endpoint", zap.String("path", path), zap.Error(err))
	}
	return picked, nil
}

func (r *Resolver) pick(path, version string, endpoints []registry.Endpoint) (*registry.Endpoint, error) {
	candidates := make([]registry.Endpoint, 0, len(endpoints))
	for _, ep := range endpoints {
		if version == "" || ep.Version == version {
			candidates = append(candidates, ep)
		}
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: %s:%s", ErrNoProvider, path, version)
	}
	picked, err := r.balancer.Pick(candidates)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	return picked, nil
}

// Watch keeps the cached endpoint for path in step with the registry until ctx ends.
// A provider set that no longer matches drops the cache entry.
func (r *Resolver) Watch(ctx context.Context, path, version string) {
	for endpoints := range r.registry.Watch(ctx, path) {
		picked, err := r.pick(path, version, endpoints)
		if err != nil {
			r.logger.Info("providers gone, dropping cached endpoint", zap.String("path", path), zap.Error(err))
			_ = r.cache.Delete(path)
			continue
		}
		if err := r.cache.Set(path, *picked); err != nil {
			r.logger.Warn("failed to cache endpoint", zap.String("path", path), zap.Error(err))
			continue
		}
		r.logger.Debug("endpoint refreshed", zap.String("path", path), zap.String("addr", picked.Addr()))
	}
}
