package repository

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/txix-open/isp-kit/json"
	"inframint-validator-service/cache"
	"inframint-validator-service/domain"
	"inframint-validator-service/entity"
)

// LocalEntitlementCache is an in-process fallback used when Redis
// is not configured.
type LocalEntitlementCache struct {
	cache *cache.Cache
	ttl   time.Duration
}

func NewLocalEntitlementCache(ttl time.Duration) LocalEntitlementCache {
	return LocalEntitlementCache{
		cache: cache.New(),
		ttl:   ttl,
	}
}

func (r LocalEntitlementCache) Get(ctx context.Context, entitlementId string) (*entity.CachedEntitlement, error) {
	data, ok := r.cache.Get(entitlementId)
	if !ok {
		return nil, domain.ErrEntitlementCacheMiss
	}

	result := entity.CachedEntitlement{}
	err := json.Unmarshal(data, &result)
	if err != nil {
		r.cache.Delete(entitlementId)
		return nil, domain.ErrEntitlementCacheMiss
	}

	return &result, nil
}

func (r LocalEntitlementCache) Set(ctx context.Context, cached entity.CachedEntitlement) error {
	value, err := json.Marshal(cached)
	if err != nil {
		return errors.WithMessage(err, "json marshal cached entitlement")
	}

	r.cache.Set(cached.Id, value, r.ttl)

	return nil
}

func (r LocalEntitlementCache) Delete(ctx context.Context, entitlementId string) error {
	r.cache.Delete(entitlementId)
	return nil
}
