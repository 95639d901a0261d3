package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"guesthouse/internal/config"
	"guesthouse/internal/domain"
	"guesthouse/internal/models"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// RedisRoomCache caches the room catalog of the wrapped store in Redis. Every
// other call passes through. Cache failures are logged and bypassed.
type RedisRoomCache struct {
	domain.LedgerStore
	client *redis.Client
	key    string
	ttl    time.Duration
	logger *zerolog.Logger
}

// NewRedisClient создает новый клиент Redis на основе конфигурации
func NewRedisClient(cfg config.RedisConfig) *redis.Client {
	options := &redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
		PoolSize: cfg.PoolSize,
	}

	return redis.NewClient(options)
}

func NewRedisRoomCache(
	inner domain.LedgerStore, client *redis.Client, keyPrefix string, ttl time.Duration, logger *zerolog.Logger,
) *RedisRoomCache {
	return &RedisRoomCache{
		LedgerStore: inner,
		client:      client,
		key:         fmt.Sprintf("%s:rooms", keyPrefix),
		ttl:         ttl,
		logger:      logger,
	}
}

func (c *RedisRoomCache) ListRooms(ctx context.Context) ([]*models.Room, error) {
	if rooms, ok := c.cached(ctx); ok {
		return rooms, nil
	}

	rooms, err := c.LedgerStore.ListRooms(ctx)
	if err != nil {
		return nil, err
	}
	if len(rooms) > 0 {
		c.store(ctx, rooms)
	}
	return rooms, nil
}

func (c *RedisRoomCache) FindRoom(ctx context.Context, id string) (*models.Room, error) {
	if rooms, ok := c.cached(ctx); ok {
		for _, r := range rooms {
			if r.ID == id {
				return r, nil
			}
		}
	}
	return c.LedgerStore.FindRoom(ctx, id)
}

// Invalidate drops the cached catalog, e.g. after the rooms were re-seeded.
func (c *RedisRoomCache) Invalidate(ctx context.Context) error {
	if c.client == nil {
		return nil
	}
	if err := c.client.Del(ctx, c.key).Err(); err != nil {
		return fmt.Errorf("failed to delete rooms cache: %w", err)
	}
	return nil
}

func (c *RedisRoomCache) cached(ctx context.Context) ([]*models.Room, bool) {
	if c.client == nil {
		return nil, false
	}
	val, err := c.client.Get(ctx, c.key).Result()
	if err == redis.Nil {
		return nil, false
	}
	if err != nil {
		c.logger.Warn().Err(err).Msg("Failed to read rooms cache")
		return nil, false
	}

	var rooms []*models.Room
	if err := json.Unmarshal([]byte(val), &rooms); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to decode rooms cache")
		return nil, false
	}
	return rooms, true
}

func (c *RedisRoomCache) store(ctx context.Context, rooms []*models.Room) {
	if c.client == nil {
		return
	}
	data, err := json.Marshal(rooms)
	if err != nil {
		c.logger.Warn().Err(err).Msg("Failed to encode rooms cache")
		return
	}
	if err := c.client.Set(ctx, c.key, data, c.ttl).Err(); err != nil {
		c.logger.Warn().Err(err).Msg("Failed to write rooms cache")
	}
}

// Ping проверяет соединение с Redis
func Ping(ctx context.Context, client *redis.Client) error {
	_, err := client.Ping(ctx).Result()
	if err != nil {
		return fmt.Errorf("failed to ping Redis: %w", err)
	}
	return nil
}

// Close закрывает соединение с Redis
func Close(client *redis.Client) error {
	if client != nil {
		return client.Close()
	}
	return nil
}
