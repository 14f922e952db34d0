package theme

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/example/gatiyaan/internal/models"
)

// RedisStore keeps the theme preference in a single Redis key.
type RedisStore struct {
	client *redis.Client
	key    string
}

func NewRedisStore(addr, password, key string) *RedisStore {
	c := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	return &RedisStore{client: c, key: key}
}

func (r *RedisStore) Get(ctx context.Context) (models.Theme, error) {
	v, err := r.client.Get(ctx, r.key).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	if err != nil {
		return "", err
	}
	return models.Theme(v), nil
}

func (r *RedisStore) Set(ctx context.Context, t models.Theme) error {
	return r.client.Set(ctx, r.key, string(t), 0).Err()
}
