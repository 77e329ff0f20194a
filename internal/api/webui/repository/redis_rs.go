package webuiRepository

import (
	"fmt"

	"CutoutDemo/internal/entity"
	"CutoutDemo/pkg/redis"

	"github.com/sirupsen/logrus"
	"golang.org/x/net/context"
)

// redisRepository keeps the history in a Redis list. LPUSH puts the newest
// entry at index 0, which matches the file layout.
type redisRepository struct {
	redis redis.IRedis
	key   string
	log   *logrus.Logger
}

func NewRedisRepository(r redis.IRedis, key string, log *logrus.Logger) Repository {
	return &redisRepository{redis: r, key: key, log: log}
}

func (r *redisRepository) List(ctx context.Context) ([]entity.HistoryEntry, error) {
	values, err := r.redis.List(ctx, r.key)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}

	entries := make([]entity.HistoryEntry, 0, len(values))
	for _, v := range values {
		var entry entity.HistoryEntry
		if err := json.UnmarshalFromString(v, &entry); err != nil {
			r.log.WithFields(logrus.Fields{
				"key":   r.key,
				"error": err.Error(),
			}).Warn("Skipping malformed history entry")
			continue
		}
		entries = append(entries, entry)
	}

	return entries, nil
}

func (r *redisRepository) Prepend(ctx context.Context, entry entity.HistoryEntry) error {
	value, err := json.MarshalToString(entry)
	if err != nil {
		return fmt.Errorf("encode history entry: %w", err)
	}

	return r.redis.PushFront(ctx, r.key, value)
}

func (r *redisRepository) Clear(ctx context.Context) error {
	return r.redis.Delete(ctx, r.key)
}
