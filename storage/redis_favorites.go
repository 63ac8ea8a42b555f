package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"stayfinder/models"
	"stayfinder/utils"
)

// NewRedisClient connects and pings the server.
func NewRedisClient(addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis: ping %s: %w", addr, err)
	}
	return rdb, nil
}

// RedisFavoriteStore keeps each favorite set as a JSON array under its
// favorites key.
type RedisFavoriteStore struct {
	client *redis.Client
	logger *utils.Logger
}

func NewRedisFavoriteStore(client *redis.Client, logger *utils.Logger) *RedisFavoriteStore {
	return &RedisFavoriteStore{client: client, logger: logger}
}

// Load returns an empty set for a missing or corrupt value.
func (s *RedisFavoriteStore) Load(ctx context.Context, owner string) (models.FavoriteSet, error) {
	key := models.FavoritesKey(owner)
	data, err := s.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.NewFavoriteSet(), nil
		}
		return models.FavoriteSet{}, fmt.Errorf("redis: get %s: %w", key, err)
	}
	return models.ParseFavoriteSet(data), nil
}

func (s *RedisFavoriteStore) Save(ctx context.Context, owner string, set models.FavoriteSet) error {
	key := models.FavoritesKey(owner)
	data, err := json.Marshal(set)
	if err != nil {
		return fmt.Errorf("redis: encode %s: %w", key, err)
	}
	if err := s.client.Set(ctx, key, data, 0).Err(); err != nil {
		return fmt.Errorf("redis: set %s: %w", key, err)
	}
	s.logger.Debug("[favorites] Stored %d ids under %s", set.Len(), key)
	return nil
}

func (s *RedisFavoriteStore) Clear(ctx context.Context, owner string) error {
	key := models.FavoritesKey(owner)
	if err := s.client.Del(ctx, key).Err(); err != nil {
		return fmt.Errorf("redis: del %s: %w", key, err)
	}
	return nil
}

func (s *RedisFavoriteStore) Close() error {
	return s.client.Close()
}
