package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/genstudio/api/internal/model"
)

const (
	mediaKeyPrefix = "media:"
	mediaTTL       = 30 * 24 * time.Hour

	// Optimistic transaction retries when a concurrent writer touches the
	// same key between WATCH and EXEC.
	txRetries = 5
)

// RedisMediaStore stores media items as JSON documents under media:<id>.
type RedisMediaStore struct {
	redis *redis.Client
}

func NewRedisMediaStore(redisClient *redis.Client) *RedisMediaStore {
	return &RedisMediaStore{redis: redisClient}
}

func mediaKey(id string) string {
	return mediaKeyPrefix + id
}

func (s *RedisMediaStore) Create(ctx context.Context, item *model.MediaItem) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to marshal media item: %w", err)
	}
	if err := s.redis.Set(ctx, mediaKey(item.ID), data, mediaTTL).Err(); err != nil {
		return fmt.Errorf("failed to save media item: %w", err)
	}
	return nil
}

func (s *RedisMediaStore) Get(ctx context.Context, id string) (*model.MediaItem, error) {
	data, err := s.redis.Get(ctx, mediaKey(id)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to load media item: %w", err)
	}

	var item model.MediaItem
	if err := json.Unmarshal(data, &item); err != nil {
		return nil, fmt.Errorf("failed to unmarshal media item: %w", err)
	}
	return &item, nil
}

func (s *RedisMediaStore) Complete(ctx context.Context, id string, resultURIs []string, generationTime float64) error {
	now := time.Now()
	return s.transition(ctx, id, func(item *model.MediaItem) {
		item.Status = model.JobStatusCompleted
		item.ResultURIs = resultURIs
		item.GenerationTime = generationTime
		item.CompletedAt = &now
	})
}

func (s *RedisMediaStore) Fail(ctx context.Context, id string, errMsg string) error {
	now := time.Now()
	return s.transition(ctx, id, func(item *model.MediaItem) {
		item.Status = model.JobStatusFailed
		item.Error = &errMsg
		item.CompletedAt = &now
	})
}

// transition applies a terminal mutation under WATCH so that two completion
// attempts for the same record cannot interleave. A record found in a
// terminal state yields ErrTerminal and the mutation is discarded.
func (s *RedisMediaStore) transition(ctx context.Context, id string, mutate func(*model.MediaItem)) error {
	key := mediaKey(id)

	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if err != nil {
			if err == redis.Nil {
				return ErrNotFound
			}
			return err
		}

		var item model.MediaItem
		if err := json.Unmarshal(data, &item); err != nil {
			return fmt.Errorf("failed to unmarshal media item: %w", err)
		}

		if item.Status.IsTerminal() {
			return ErrTerminal
		}

		mutate(&item)

		updated, err := json.Marshal(&item)
		if err != nil {
			return fmt.Errorf("failed to marshal media item: %w", err)
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, updated, mediaTTL)
			return nil
		})
		return err
	}

	for i := 0; i < txRetries; i++ {
		err := s.redis.Watch(ctx, txf, key)
		if err == redis.TxFailedErr {
			continue
		}
		return err
	}
	return fmt.Errorf("media item %s: transaction contention, gave up after %d attempts", id, txRetries)
}
