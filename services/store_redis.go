package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/EugenePawit/expiration-tracker/models"
)

// membership set over the per-record keys, so enumeration never needs SCAN
const redisSubscriptionSet = "push:subscriptions"

// RedisStore keeps each record as a JSON value plus a set of all keys,
// matching the layout the web client was originally deployed against.
type RedisStore struct {
	client *redis.Client
	logger *zap.Logger
}

func NewRedisStore(ctx context.Context, url string, logger *zap.Logger) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opts)
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisStore{client: client, logger: logger}, nil
}

func (r *RedisStore) Put(ctx context.Context, key string, sub *models.Subscription) error {
	raw, err := json.Marshal(sub)
	if err != nil {
		return err
	}
	pipe := r.client.TxPipeline()
	pipe.Set(ctx, key, raw, 0)
	pipe.SAdd(ctx, redisSubscriptionSet, key)
	_, err = pipe.Exec(ctx)
	return err
}

func (r *RedisStore) Get(ctx context.Context, key string) (*models.Subscription, error) {
	raw, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var sub models.Subscription
	if err := json.Unmarshal(raw, &sub); err != nil {
		return nil, fmt.Errorf("corrupt record %s: %w", key, err)
	}
	return &sub, nil
}

func (r *RedisStore) Delete(ctx context.Context, key string) error {
	pipe := r.client.TxPipeline()
	pipe.Del(ctx, key)
	pipe.SRem(ctx, redisSubscriptionSet, key)
	_, err := pipe.Exec(ctx)
	return err
}

func (r *RedisStore) ListAll(ctx context.Context) ([]StoredRecord, error) {
	keys, err := r.client.SMembers(ctx, redisSubscriptionSet).Result()
	if err != nil {
		return nil, err
	}
	records := make([]StoredRecord, 0, len(keys))
	for _, key := range keys {
		raw, err := r.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			// stale set member, value expired or deleted out of band
			r.client.SRem(ctx, redisSubscriptionSet, key)
			continue
		}
		if err != nil {
			return records, err
		}
		var sub models.Subscription
		if err := json.Unmarshal(raw, &sub); err != nil {
			r.logger.Warn("skipping corrupt subscription record", zap.String("key", key), zap.Error(err))
			continue
		}
		records = append(records, StoredRecord{Key: key, Sub: &sub})
	}
	return records, nil
}

func (r *RedisStore) Close() error { return r.client.Close() }
