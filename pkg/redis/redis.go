package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// IRedis is the small list API the history store needs.
type IRedis interface {
	PushFront(ctx context.Context, key string, value string) error
	List(ctx context.Context, key string) ([]string, error)
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
	Close() error
}

type Config struct {
	Addr     string
	Password string
	DB       int
}

type redisClient struct {
	client *redis.Client
	log    *logrus.Logger
}

func New(cfg Config, log *logrus.Logger) IRedis {
	log.Info(fmt.Sprintf("Connecting to Redis at %s...", cfg.Addr))

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	r := &redisClient{client: client, log: log}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := r.Ping(ctx); err != nil {
		log.Error(fmt.Sprintf("Failed to connect to Redis: %v", err))
	} else {
		log.Info("Successfully connected to Redis")
	}

	return r
}

func (r *redisClient) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *redisClient) PushFront(ctx context.Context, key string, value string) error {
	if err := r.client.LPush(ctx, key, value).Err(); err != nil {
		r.log.Error(fmt.Sprintf("Error pushing to list %s: %v", key, err))
		return err
	}
	r.log.Debug(fmt.Sprintf("Pushed entry to list %s", key))
	return nil
}

func (r *redisClient) List(ctx context.Context, key string) ([]string, error) {
	values, err := r.client.LRange(ctx, key, 0, -1).Result()
	if err != nil {
		r.log.Error(fmt.Sprintf("Error reading list %s: %v", key, err))
		return nil, err
	}
	return values, nil
}

func (r *redisClient) Delete(ctx context.Context, key string) error {
	removed, err := r.client.Del(ctx, key).Result()
	if err != nil {
		r.log.Error(fmt.Sprintf("Error deleting key %s: %v", key, err))
		return err
	}

	if removed == 0 {
		r.log.Debug(fmt.Sprintf("Key %s not found for deletion", key))
	}
	return nil
}

func (r *redisClient) Close() error {
	return r.client.Close()
}
