package service

import (
	"context"
	"slices"
	"time"

	"github.com/bluele/gcache"

	"relaychat/provider"
)

const modelCacheSize = 16

// ModelService serves provider model catalogs, cached per provider.
type ModelService struct {
	registry *provider.Registry
	cache    gcache.Cache
	ttl      time.Duration
}

func NewModelService(registry *provider.Registry, ttl time.Duration) *ModelService {
	return &ModelService{
		registry: registry,
		cache:    gcache.New(modelCacheSize).LRU().Build(),
		ttl:      ttl,
	}
}

// Providers returns display names of the configured providers.
func (s *ModelService) Providers() []string {
	kinds := s.registry.Kinds()
	names := make([]string, 0, len(kinds))
	for _, k := range kinds {
		names = append(names, k.DisplayName())
	}
	return names
}

func (s *ModelService) ListModels(ctx context.Context, providerName string) ([]string, error) {
	adapter, ok := s.registry.Lookup(providerName)
	if !ok {
		return nil, &ProviderNotSupportedError{Provider: providerName}
	}
	if cached, err := s.cache.Get(adapter.Kind()); err == nil {
		return slices.Clone(cached.([]string)), nil
	}
	models, err := s.fetch(ctx, adapter)
	if err != nil {
		return nil, err
	}
	return slices.Clone(models), nil
}

func (s *ModelService) fetch(ctx context.Context, adapter provider.Adapter) ([]string, error) {
	models, err := adapter.ListModels(ctx)
	if err != nil {
		return nil, &TransportError{Provider: string(adapter.Kind()), Err: err}
	}
	if models == nil {
		models = []string{}
	}
	if err := s.cache.SetWithExpire(adapter.Kind(), models, s.ttl); err != nil {
		s.cache.Remove(adapter.Kind())
	}
	return models, nil
}

// Refresh reloads every provider's catalog. Failures keep the previous entry.
func (s *ModelService) Refresh(ctx context.Context) {
	for _, k := range s.registry.Kinds() {
		adapter, _ := s.registry.Lookup(string(k))
		models, err := s.fetch(ctx, adapter)
		if err != nil {
			logger.Warnf("[%s] refresh models failed, %s", "scheduled task", err)
			continue
		}
		logger.Infof("[%s] refreshed %d %s models", "scheduled task", len(models), k)
	}
}
