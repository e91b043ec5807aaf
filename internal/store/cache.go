package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/joelkehle/intelbrief/internal/research"
)

const (
	cacheKeyPrefix      = "intelbrief:brief:"
	defaultCacheTTL     = 24 * time.Hour
	redisConnectTimeout = 5 * time.Second
)

type RedisConfig struct {
	Address  string
	Password string
	DB       int
}

var ErrEmptyRedisAddress = errors.New("redis address is required")

// NewRedisClient connects and pings the server.
func NewRedisClient(cfg RedisConfig) (*redis.Client, error) {
	if cfg.Address == "" {
		return nil, ErrEmptyRedisAddress
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), redisConnectTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

// CachedStore puts a Redis read cache in front of another Store. Redis
// failures are logged and the backing store answers instead.
type CachedStore struct {
	next   Store
	client *redis.Client
	ttl    time.Duration
	log    *zap.Logger
}

func NewCachedStore(next Store, client *redis.Client, ttl time.Duration, log *zap.Logger) *CachedStore {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	if log == nil {
		log = zap.NewNop()
	}
	return &CachedStore{next: next, client: client, ttl: ttl, log: log}
}

func (c *CachedStore) Save(ctx context.Context, brief research.Brief) (string, error) {
	slug, err := c.next.Save(ctx, brief)
	if err != nil {
		return "", err
	}
	c.put(ctx, slug, brief)
	return slug, nil
}

func (c *CachedStore) GetBySlug(ctx context.Context, slug string, bypassCache bool) (research.Brief, error) {
	if !bypassCache {
		raw, err := c.client.Get(ctx, cacheKeyPrefix+slug).Bytes()
		switch {
		case err == nil:
			var brief research.Brief
			jsonErr := json.Unmarshal(raw, &brief)
			if jsonErr == nil {
				return brief, nil
			}
			c.log.Warn("discarding undecodable cache entry", zap.String("slug", slug), zap.Error(jsonErr))
		case errors.Is(err, redis.Nil):
		default:
			c.log.Warn("cache read failed", zap.String("slug", slug), zap.Error(err))
		}
	}

	brief, err := c.next.GetBySlug(ctx, slug, bypassCache)
	if err != nil {
		return research.Brief{}, err
	}
	c.put(ctx, slug, brief)
	return brief, nil
}

func (c *CachedStore) put(ctx context.Context, slug string, brief research.Brief) {
	raw, err := json.Marshal(brief)
	if err != nil {
		c.log.Warn("cache encode failed", zap.String("slug", slug), zap.Error(err))
		return
	}
	if err := c.client.Set(ctx, cacheKeyPrefix+slug, raw, c.ttl).Err(); err != nil {
		c.log.Warn("cache write failed", zap.String("slug", slug), zap.Error(err))
	}
}
