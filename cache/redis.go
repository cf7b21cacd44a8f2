// Package cache is the Redis hot-snapshot layer. Writes go to the
// local store first, then Redis; reads prefer Redis and fall back to
// the store. A second partsdesk instance for the same provider can
// warm-start from these keys without hitting the backend.
package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

type RedisStore struct {
	client     *redis.Client
	providerID string
}

func NewRedisStore(client *redis.Client, providerID string) *RedisStore {
	return &RedisStore{client: client, providerID: providerID}
}

func (r *RedisStore) viewKey(view string) string {
	return fmt.Sprintf("partsdesk:%s:view:%s", r.providerID, view)
}

func (r *RedisStore) walletKey() string {
	return fmt.Sprintf("partsdesk:%s:wallet", r.providerID)
}

// SetView stores the serialized projection for a view.
func (r *RedisStore) SetView(ctx context.Context, view string, payload []byte) error {
	return r.client.Set(ctx, r.viewKey(view), payload, 0).Err()
}

// GetView returns the cached projection, or nil on a miss.
func (r *RedisStore) GetView(ctx context.Context, view string) ([]byte, error) {
	data, err := r.client.Get(ctx, r.viewKey(view)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	return data, err
}

// SetWallet stores the serialized wallet snapshot with a TTL: a stale
// balance is worse than a missing one, so old snapshots expire.
func (r *RedisStore) SetWallet(ctx context.Context, payload []byte, ttl time.Duration) error {
	return r.client.Set(ctx, r.walletKey(), payload, ttl).Err()
}

// GetWallet returns the cached wallet snapshot, or nil on a miss.
func (r *RedisStore) GetWallet(ctx context.Context) ([]byte, error) {
	data, err := r.client.Get(ctx, r.walletKey()).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	return data, err
}

// Flush removes all keys for this provider identity.
func (r *RedisStore) Flush(ctx context.Context) error {
	keys := []string{r.walletKey()}
	for _, view := range []string{"open_orders", "my_bids", "accepted_orders"} {
		keys = append(keys, r.viewKey(view))
	}
	return r.client.Del(ctx, keys...).Err()
}

// Ping reports whether Redis is reachable.
func (r *RedisStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
