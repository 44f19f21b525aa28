package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/mcules/student-success/internal/model"
)

// KeyPrefix namespaces prediction entries in a shared Redis.
const KeyPrefix = "studentsuccess:prediction:"

// Connect builds a client from a redis:// URL or a bare host:port.
func Connect(redisURL string) (*redis.Client, error) {
	if strings.HasPrefix(redisURL, "redis://") || strings.HasPrefix(redisURL, "rediss://") {
		opt, err := redis.ParseURL(redisURL)
		if err != nil {
			return nil, fmt.Errorf("parse redis url: %w", err)
		}
		return redis.NewClient(opt), nil
	}
	return redis.NewClient(&redis.Options{Addr: redisURL}), nil
}

// Redis stores predictions as JSON with a TTL so several replicas share
// their results.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedis(client *redis.Client, ttl time.Duration) *Redis {
	return &Redis{client: client, ttl: ttl}
}

func (r *Redis) Get(ctx context.Context, key string) (model.Prediction, bool, error) {
	raw, err := r.client.Get(ctx, KeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.Prediction{}, false, nil
	}
	if err != nil {
		return model.Prediction{}, false, err
	}
	var p model.Prediction
	if err := json.Unmarshal(raw, &p); err != nil {
		return model.Prediction{}, false, fmt.Errorf("decode cached prediction: %w", err)
	}
	return p, true, nil
}

func (r *Redis) Set(ctx context.Context, key string, p model.Prediction) error {
	raw, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return r.client.Set(ctx, KeyPrefix+key, raw, r.ttl).Err()
}

// Ping checks connectivity.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) Close() error { return r.client.Close() }
