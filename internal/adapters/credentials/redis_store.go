package credentials

import (
	"context"
	"errors"

	"github.com/redis/go-redis/v9"

	"github.com/zatekoja/patientportal/internal/domain/providers"
	redisclient "github.com/zatekoja/patientportal/internal/infrastructure/clients/redis"
	apperrors "github.com/zatekoja/patientportal/pkg/errors"
)

// RedisStore implements CredentialStore on Redis. Keys never expire; the
// session owns their lifetime.
type RedisStore struct {
	client *redisclient.Client
	prefix string
}

// NewRedisStore creates a Redis-backed credential store
func NewRedisStore(client *redisclient.Client, prefix string) providers.CredentialStore {
	return &RedisStore{
		client: client,
		prefix: prefix,
	}
}

// Get retrieves a value
func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Client().Get(ctx, s.prefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, apperrors.NewInternalError("read credential", err)
	}
	return value, true, nil
}

// Set stores a value. A single SET is atomic.
func (s *RedisStore) Set(ctx context.Context, key, value string) error {
	if err := s.client.Client().Set(ctx, s.prefix+key, value, 0).Err(); err != nil {
		return apperrors.NewInternalError("write credential", err)
	}
	return nil
}

// Remove deletes a value
func (s *RedisStore) Remove(ctx context.Context, key string) error {
	if err := s.client.Client().Del(ctx, s.prefix+key).Err(); err != nil {
		return apperrors.NewInternalError("remove credential", err)
	}
	return nil
}
