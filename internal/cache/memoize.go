package cache

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Key joins parts into a cache key: Key("prediction", "TCS.NS", "5") is
// "prediction:TCS.NS:5".
func Key(parts ...string) string {
	return strings.Join(parts, ":")
}

// Memoize returns the cached value for key, or runs compute and caches its
// result for ttl. hit reports whether the value came from the cache.
//
// Store failures and undecodable entries are logged and treated as misses.
// Errors from compute are returned as is and never cached. A nil store
// disables caching.
func Memoize[T any](ctx context.Context, store Store, key string, ttl time.Duration, logger *zap.Logger,
	compute func(context.Context) (T, error)) (value T, hit bool, err error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	if store == nil {
		value, err = compute(ctx)
		return value, false, err
	}

	data, getErr := store.Get(ctx, key)
	switch {
	case getErr == nil:
		jsonErr := json.Unmarshal(data, &value)
		if jsonErr == nil {
			return value, true, nil
		}
		logger.Warn("discarding undecodable cache entry", zap.String("key", key), zap.Error(jsonErr))
		var zero T
		value = zero
	case !errors.Is(getErr, ErrMiss):
		logger.Warn("cache get failed", zap.String("key", key), zap.Error(getErr))
	}

	value, err = compute(ctx)
	if err != nil {
		return value, false, err
	}

	data, jsonErr := json.Marshal(value)
	if jsonErr != nil {
		logger.Warn("cannot encode value for cache", zap.String("key", key), zap.Error(jsonErr))
		return value, false, nil
	}
	if setErr := store.Set(ctx, key, data, ttl); setErr != nil {
		logger.Warn("cache set failed", zap.String("key", key), zap.Error(setErr))
	}
	return value, false, nil
}
