package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"adherents/domain/core"
	"adherents/domain/membership"
)

const preferenceKeyPrefix = "mapping:"

// RedisPreferenceRepository stores mapping preferences as JSON values
type RedisPreferenceRepository struct {
	client *redis.Client
	ttl    time.Duration // 0 keeps entries forever
}

// NewRedisPreferenceRepository connects to redisURL and pings it
func NewRedisPreferenceRepository(ctx context.Context, redisURL string, ttl time.Duration) (*RedisPreferenceRepository, error) {
	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}

	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisPreferenceRepository{client: client, ttl: ttl}, nil
}

func preferenceKey(fingerprint core.HeaderFingerprint) string {
	return preferenceKeyPrefix + fingerprint.String()
}

// GetMapping retrieves the stored mapping for a header set
func (r *RedisPreferenceRepository) GetMapping(ctx context.Context, fingerprint core.HeaderFingerprint) (membership.ColumnMapping, error) {
	data, err := r.client.Get(ctx, preferenceKey(fingerprint)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return membership.ColumnMapping{}, core.ErrPreferenceNotFound
		}
		return membership.ColumnMapping{}, fmt.Errorf("failed to get mapping preference: %w", err)
	}

	var mapping membership.ColumnMapping
	if err := json.Unmarshal(data, &mapping); err != nil {
		return membership.ColumnMapping{}, fmt.Errorf("failed to unmarshal mapping preference: %w", err)
	}
	return mapping, nil
}

// SaveMapping saves or updates the mapping for a header set
func (r *RedisPreferenceRepository) SaveMapping(ctx context.Context, fingerprint core.HeaderFingerprint, mapping membership.ColumnMapping) error {
	data, err := json.Marshal(mapping)
	if err != nil {
		return fmt.Errorf("failed to marshal mapping preference: %w", err)
	}
	if err := r.client.Set(ctx, preferenceKey(fingerprint), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save mapping preference: %w", err)
	}
	return nil
}

// DeleteMapping removes the stored mapping for a header set
func (r *RedisPreferenceRepository) DeleteMapping(ctx context.Context, fingerprint core.HeaderFingerprint) error {
	if err := r.client.Del(ctx, preferenceKey(fingerprint)).Err(); err != nil {
		return fmt.Errorf("failed to delete mapping preference: %w", err)
	}
	return nil
}

// Close closes the redis client
func (r *RedisPreferenceRepository) Close() error {
	return r.client.Close()
}
