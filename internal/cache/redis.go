package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redis "github.com/redis/go-redis/v9"

	"voice-journal/backend/internal/models"
)

const keyPrefix = "journal:analysis:"

// NewRedisClient parses redisURL and checks the server is reachable.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse REDIS_URL: %w", err)
	}
	client := redis.NewClient(opt)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return client, nil
}

type RedisCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisCache(client *redis.Client, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (r *RedisCache) Get(ctx context.Context, entryID string) (*models.ComprehensiveMoodAnalysis, error) {
	raw, err := r.client.Get(ctx, keyPrefix+entryID).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	var analysis models.ComprehensiveMoodAnalysis
	if err := json.Unmarshal(raw, &analysis); err != nil {
		return nil, fmt.Errorf("decode cached analysis: %w", err)
	}
	return &analysis, nil
}

func (r *RedisCache) Set(ctx context.Context, entryID string, analysis *models.ComprehensiveMoodAnalysis) error {
	payload, err := json.Marshal(analysis)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, keyPrefix+entryID, payload, r.ttl).Err()
}

func (r *RedisCache) Delete(ctx context.Context, entryID string) error {
	return r.client.Del(ctx, keyPrefix+entryID).Err()
}
