package session

import (
	"context"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/golang/glog"
)

// RedisKV implements KV over go-redis.
type RedisKV struct {
	client *redis.Client
	ctx    context.Context
}

// NewRedisKV connects to Redis and verifies the connection.
func NewRedisKV(host, port, password string, db int) (*RedisKV, error) {
	addr := fmt.Sprintf("%s:%s", host, port)

	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx := context.Background()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	glog.Infof("connected to Redis at %s", addr)

	return &RedisKV{client: rdb, ctx: ctx}, nil
}

// Get retrieves a value. A missing key is returned as an empty
// string with no error, matching what the Store expects.
func (r *RedisKV) Get(key string) (string, error) {
	val, err := r.client.Get(r.ctx, key).Result()
	if err == redis.Nil {
		return "", nil
	}
	return val, err
}

// Set stores a value with an expiration.
func (r *RedisKV) Set(key string, value interface{}, expiration time.Duration) error {
	return r.client.Set(r.ctx, key, value, expiration).Err()
}

// Del deletes a key.
func (r *RedisKV) Del(key string) error {
	return r.client.Del(r.ctx, key).Err()
}

// Close closes the Redis connection.
func (r *RedisKV) Close() error {
	return r.client.Close()
}
