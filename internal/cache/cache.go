// Package cache holds rendered channel documents for the read API.
package cache

import (
	"context"
	"fmt"
	"time"

	"channels-go/internal/catalog"
	"channels-go/internal/config"
)

// Cache stores opaque documents by key. Misses and backend failures both
// report ok=false so callers fall back to the catalog.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, value []byte)
	Delete(ctx context.Context, key string)
	Clear(ctx context.Context)
}

// ChannelKey returns the cache key for a channel document. Names are folded
// the way SQLite NOCASE folds them: ASCII letters only.
func ChannelKey(name string) string {
	b := []byte(name)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return "channel:" + string(b)
}

// NewCacheFromConfig builds the cache selected by cfg.Type.
func NewCacheFromConfig(ctx context.Context, cfg config.CacheConfig, logger catalog.Logger) (Cache, error) {
	switch cfg.Type {
	case "", "none":
		return Nop{}, nil
	case "memory":
		// Writes made by other processes only show up once entries expire.
		if cfg.TTLSeconds <= 0 {
			return nil, fmt.Errorf("memory cache requires ttl_seconds > 0")
		}
		return NewMemoryCache(cfg.TTL(), nil), nil
	case "redis":
		if cfg.RedisAddr == "" {
			return nil, fmt.Errorf("redis cache requires redis_addr")
		}
		client, err := ConnectRedis(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		if err != nil {
			return nil, err
		}
		return NewRedisCache(client, cfg.RedisPrefix, cfg.TTL(), logger), nil
	default:
		return nil, fmt.Errorf("unsupported cache type: %q", cfg.Type)
	}
}

// Nop never stores anything.
type Nop struct{}

func (Nop) Get(context.Context, string) ([]byte, bool) { return nil, false }
func (Nop) Set(context.Context, string, []byte)        {}
func (Nop) Delete(context.Context, string)             {}
func (Nop) Clear(context.Context)                      {}

var (
	_ Cache = Nop{}
	_ Cache = (*MemoryCache)(nil)
	_ Cache = (*RedisCache)(nil)
)

const connectTimeout = 5 * time.Second
