package repository

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/txix-open/isp-kit/json"
	"inframint-validator-service/domain"
	"inframint-validator-service/entity"
)

const entitlementKeyPrefix = "ent:"

type EntitlementCache struct {
	cli redis.UniversalClient
	ttl time.Duration
}

func NewEntitlementCache(cli redis.UniversalClient, ttl time.Duration) EntitlementCache {
	return EntitlementCache{
		cli: cli,
		ttl: ttl,
	}
}

func (r EntitlementCache) Get(ctx context.Context, entitlementId string) (*entity.CachedEntitlement, error) {
	data, err := r.cli.Get(ctx, r.key(entitlementId)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, domain.ErrEntitlementCacheMiss
	}
	if err != nil {
		return nil, errors.WithMessagef(domain.ErrEntitlementCache, "redis get: %v", err)
	}

	result := entity.CachedEntitlement{}
	err = json.Unmarshal(data, &result)
	if err != nil {
		// stale or foreign payload, treat as miss and drop the key
		_ = r.cli.Del(ctx, r.key(entitlementId)).Err()
		return nil, domain.ErrEntitlementCacheMiss
	}

	return &result, nil
}

func (r EntitlementCache) Set(ctx context.Context, cached entity.CachedEntitlement) error {
	value, err := json.Marshal(cached)
	if err != nil {
		return errors.WithMessage(err, "json marshal cached entitlement")
	}

	err = r.cli.Set(ctx, r.key(cached.Id), value, r.ttl).Err()
	if err != nil {
		return errors.WithMessagef(domain.ErrEntitlementCache, "redis set: %v", err)
	}

	return nil
}

func (r EntitlementCache) Delete(ctx context.Context, entitlementId string) error {
	err := r.cli.Del(ctx, r.key(entitlementId)).Err()
	if err != nil {
		return errors.WithMessagef(domain.ErrEntitlementCache, "redis del: %v", err)
	}
	return nil
}

func (r EntitlementCache) key(entitlementId string) string {
	return entitlementKeyPrefix + entitlementId
}
