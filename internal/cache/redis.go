package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/devcodesfr/gameforgestudio-sub001/internal/domain"
	"github.com/redis/go-redis/v9"
)

const (
	assetsKey  = "catalog:assets"
	bundlesKey = "catalog:bundles"
)

func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{
		client:     client,
		baseTTL:    15 * time.Minute,
		catalogTTL: time.Minute,
	}
}

type RedisCache struct {
	client     *redis.Client
	baseTTL    time.Duration
	catalogTTL time.Duration
}

func (r RedisCache) Get(ctx context.Context, userID string) ([]domain.CartLineItem, error) {
	var items []domain.CartLineItem
	if err := r.getJSON(ctx, cacheKey(userID), &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (r RedisCache) Set(ctx context.Context, userID string, items []domain.CartLineItem) error {
	jitter := time.Duration(rand.Intn(5)) * time.Minute
	return r.setJSON(ctx, cacheKey(userID), items, r.baseTTL+jitter)
}

func (r RedisCache) Delete(ctx context.Context, userID string) error {
	key := cacheKey(userID)
	if err := r.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}

	return nil
}

func (r RedisCache) GetAssets(ctx context.Context) ([]domain.CatalogAsset, error) {
	var assets []domain.CatalogAsset
	if err := r.getJSON(ctx, assetsKey, &assets); err != nil {
		return nil, err
	}
	return assets, nil
}

func (r RedisCache) SetAssets(ctx context.Context, assets []domain.CatalogAsset) error {
	return r.setJSON(ctx, assetsKey, assets, r.catalogTTL)
}

func (r RedisCache) GetBundles(ctx context.Context) ([]domain.CatalogBundle, error) {
	var bundles []domain.CatalogBundle
	if err := r.getJSON(ctx, bundlesKey, &bundles); err != nil {
		return nil, err
	}
	return bundles, nil
}

func (r RedisCache) SetBundles(ctx context.Context, bundles []domain.CatalogBundle) error {
	return r.setJSON(ctx, bundlesKey, bundles, r.catalogTTL)
}

func (r RedisCache) getJSON(ctx context.Context, key string, dst any) error {
	data, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return fmt.Errorf("redis get failed: %w", err)
	}

	if err2 := json.Unmarshal(data, dst); err2 != nil {
		return fmt.Errorf("unmarshal %s failed: %w", key, err2)
	}
	return nil
}

func (r RedisCache) setJSON(ctx context.Context, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s failed: %w", key, err)
	}

	if err := r.client.Set(ctx, key, data, ttl).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func cacheKey(userID string) string {
	return fmt.Sprintf("cart:%s", userID)
}
