package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bytedance/sonic"
	"github.com/redis/go-redis/v9"
)

var ErrMiss = errors.New("cache miss")

// Cache stores json encoded values in redis. Keys are namespaced by a
// version counter so bumping it drops every entry at once.
type Cache struct {
	Addr     string
	Password string
	DB       int
	Prefix   string
	client   *redis.Client
}

func NewCache(addr, password string, db int) *Cache {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &Cache{Addr: addr, Password: password, DB: db, Prefix: "gallery", client: rdb}
}

func NewCacheWithClient(client *redis.Client, prefix string) *Cache {
	return &Cache{Prefix: prefix, client: client}
}

func (c *Cache) versionKey() string {
	return c.Prefix + ":version"
}

func (c *Cache) key(version int64, key string) string {
	return fmt.Sprintf("%s:v%d:%s", c.Prefix, version, key)
}

// Version returns the current namespace version, 0 when never bumped.
func (c *Cache) Version(ctx context.Context) (int64, error) {
	v, err := c.client.Get(ctx, c.versionKey()).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return v, err
}

// Invalidate moves the cache to a new version, old entries expire on their
// own.
func (c *Cache) Invalidate(ctx context.Context) (int64, error) {
	return c.client.Incr(ctx, c.versionKey()).Result()
}

func (c *Cache) Get(ctx context.Context, version int64, key string, out any) error {
	data, err := c.client.Get(ctx, c.key(version, key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrMiss
	}
	if err != nil {
		return err
	}
	return sonic.Unmarshal(data, out)
}

func (c *Cache) Set(ctx context.Context, version int64, key string, value any, expiration time.Duration) error {
	data, err := sonic.Marshal(value)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, c.key(version, key), data, expiration).Err()
}

func (c *Cache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *Cache) Close() error {
	return c.client.Close()
}
