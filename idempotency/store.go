// Package idempotency remembers which order a checkout Idempotency-Key produced.
package idempotency

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// keyOrderCreate: idem:order:create:{tenant}:{customer}:{client key} -> order id
const keyOrderCreate = "idem:order:create:%d:%d:%s"

const DefaultTTL = 24 * time.Hour

// Store maps a client key to the order it created.
type Store interface {
	Lookup(ctx context.Context, key string) (orderID uint, found bool, err error)
	Remember(ctx context.Context, key string, orderID uint) error
}

// OrderCreateKey namespaces a client key by tenant and customer so two
// customers cannot collide.
func OrderCreateKey(tenantID, customerID uint, clientKey string) string {
	return fmt.Sprintf(keyOrderCreate, tenantID, customerID, clientKey)
}

type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

func NewRedisStore(rdb *redis.Client, ttl time.Duration) *RedisStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &RedisStore{rdb: rdb, ttl: ttl}
}

// Connect builds a client for addr and checks it answers.
func Connect(ctx context.Context, addr string) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:         addr,
		DialTimeout:  2 * time.Second,
		ReadTimeout:  2 * time.Second,
		WriteTimeout: 2 * time.Second,
	})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return rdb, nil
}

func (s *RedisStore) Lookup(ctx context.Context, key string) (uint, bool, error) {
	val, err := s.rdb.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	id, err := strconv.ParseUint(val, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("idempotency: corrupt value for %s: %w", key, err)
	}
	return uint(id), true, nil
}

// Remember keeps the first order recorded for key.
func (s *RedisStore) Remember(ctx context.Context, key string, orderID uint) error {
	return s.rdb.SetNX(ctx, key, strconv.FormatUint(uint64(orderID), 10), s.ttl).Err()
}

// Nop never finds a key. Used when no redis is configured.
type Nop struct{}

func (Nop) Lookup(context.Context, string) (uint, bool, error) { return 0, false, nil }
func (Nop) Remember(context.Context, string, uint) error        { return nil }
