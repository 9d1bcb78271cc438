package tokenstore

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"
)

// RedisBackend shares one console session between replicas behind a kiosk
// balancer. Keys live under "garansi:console:<namespace>:".
type RedisBackend struct {
	client *redis.Client
	prefix string
}

func NewRedis(client *redis.Client, namespace string) *RedisBackend {
	if namespace == "" {
		namespace = "default"
	}
	return &RedisBackend{client: client, prefix: "garansi:console:" + namespace + ":"}
}

func (r *RedisBackend) key(k string) string { return r.prefix + k }

func (r *RedisBackend) Get(ctx context.Context, key string) (string, bool, error) {
	v, err := r.client.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

func (r *RedisBackend) SetAll(ctx context.Context, values map[string]string) error {
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for k, v := range values {
			pipe.Set(ctx, r.key(k), v, 0)
		}
		return nil
	})
	return err
}

func (r *RedisBackend) DeleteAll(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = r.key(k)
	}
	return r.client.Del(ctx, full...).Err()
}

func (r *RedisBackend) Close() error {
	return r.client.Close()
}
