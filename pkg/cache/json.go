package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/matzehuels/inkframe/pkg/observability"
)

// GetJSON decodes a cached JSON value into v. A value that fails to decode
// is deleted and reported as a miss. keyType labels the observability event.
func GetJSON(ctx context.Context, c Cache, keyType, key string, v any) bool {
	data, hit, err := c.Get(ctx, key)
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, keyType)
		return false
	}
	if err := json.Unmarshal(data, v); err != nil {
		_ = c.Delete(ctx, key)
		observability.Cache().OnCacheMiss(ctx, keyType)
		return false
	}
	observability.Cache().OnCacheHit(ctx, keyType)
	return true
}

// SetJSON stores the JSON encoding of v.
func SetJSON(ctx context.Context, c Cache, keyType, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	if err := c.Set(ctx, key, data, ttl); err != nil {
		return err
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
	return nil
}

// GetBytes is [Cache.Get] with observability events.
func GetBytes(ctx context.Context, c Cache, keyType, key string) ([]byte, bool) {
	data, hit, err := c.Get(ctx, key)
	if err != nil || !hit {
		observability.Cache().OnCacheMiss(ctx, keyType)
		return nil, false
	}
	observability.Cache().OnCacheHit(ctx, keyType)
	return data, true
}

// SetBytes is [Cache.Set] with observability events.
func SetBytes(ctx context.Context, c Cache, keyType, key string, data []byte, ttl time.Duration) error {
	if err := c.Set(ctx, key, data, ttl); err != nil {
		return err
	}
	observability.Cache().OnCacheSet(ctx, keyType, len(data))
	return nil
}
