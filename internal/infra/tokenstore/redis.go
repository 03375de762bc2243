package tokenstore

import (
	"context"
	"errors"
	"time"

	"github.com/nas11ai/tugas-akhir-sub000/internal/domain"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "admin_token:"

type redisStore struct {
	client *redis.Client
}

// NewRedisStore backs the token store with Redis so restarts and
// replicas share one admin token per organization.
func NewRedisStore(addr, password string, db int) (domain.TokenStore, error) {
	if addr == "" {
		return nil, errors.New("redis addr is required")
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	return &redisStore{client: client}, nil
}

func (s *redisStore) Get(ctx context.Context, org string) (string, bool, error) {
	token, err := s.client.Get(ctx, redisKeyPrefix+org).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return token, true, nil
}

func (s *redisStore) Put(ctx context.Context, org, token string, ttl time.Duration) error {
	return s.client.Set(ctx, redisKeyPrefix+org, token, ttl).Err()
}

func (s *redisStore) Delete(ctx context.Context, org string) error {
	return s.client.Del(ctx, redisKeyPrefix+org).Err()
}
