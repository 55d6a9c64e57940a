package auth

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// TokenStore keeps hashes of live refresh tokens.
type TokenStore interface {
	Save(ctx context.Context, hash string, userID uuid.UUID, ttl time.Duration) error
	// Take removes hash and returns its owner. A token can be taken once.
	Take(ctx context.Context, hash string) (uuid.UUID, error)
	Delete(ctx context.Context, hash string) error
}

const refreshKeyPrefix = "refresh:"

type redisTokenStore struct {
	rdb *redis.Client
}

// NewRedisTokenStore stores refresh tokens in Redis. A nil client yields a
// store that accepts writes and never finds a token, so refresh is disabled
// without Redis.
func NewRedisTokenStore(rdb *redis.Client) TokenStore {
	return &redisTokenStore{rdb: rdb}
}

func (s *redisTokenStore) Save(ctx context.Context, hash string, userID uuid.UUID, ttl time.Duration) error {
	if s.rdb == nil {
		return nil
	}
	return s.rdb.Set(ctx, refreshKeyPrefix+hash, userID.String(), ttl).Err()
}

func (s *redisTokenStore) Take(ctx context.Context, hash string) (uuid.UUID, error) {
	if s.rdb == nil {
		return uuid.Nil, ErrInvalidRefreshToken
	}
	val, err := s.rdb.GetDel(ctx, refreshKeyPrefix+hash).Result()
	if errors.Is(err, redis.Nil) {
		return uuid.Nil, ErrInvalidRefreshToken
	}
	if err != nil {
		return uuid.Nil, err
	}
	id, err := uuid.Parse(val)
	if err != nil {
		return uuid.Nil, ErrInvalidRefreshToken
	}
	return id, nil
}

func (s *redisTokenStore) Delete(ctx context.Context, hash string) error {
	if s.rdb == nil {
		return nil
	}
	return s.rdb.Del(ctx, refreshKeyPrefix+hash).Err()
}
