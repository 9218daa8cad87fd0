package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/openterra/reproject-backend/internal/transfer/domain"
)

const (
	recordKeyPrefix = "reproject:file:"   // JSON record per file id: reproject:file:{file_id}
	createdIndexKey = "reproject:created" // zset of file ids scored by creation unix time
)

// Redis stores transfer records in Redis so several processes can share one
// registry. The creation-time index backs the TTL eviction sweep.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (r *Redis) Put(ctx context.Context, rec domain.Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal transfer record: %w", err)
	}

	pipe := r.client.Pipeline()
	pipe.Set(ctx, r.recordKey(rec.FileID), data, 0)
	pipe.ZAdd(ctx, createdIndexKey, redis.Z{
		Score:  float64(rec.CreatedAt.Unix()),
		Member: rec.FileID,
	})
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store transfer record: %w", err)
	}
	return nil
}

func (r *Redis) Get(ctx context.Context, fileID string) (domain.Record, error) {
	data, err := r.client.Get(ctx, r.recordKey(fileID)).Result()
	if errors.Is(err, redis.Nil) {
		return domain.Record{}, domain.ErrNotFound
	}
	if err != nil {
		return domain.Record{}, fmt.Errorf("get transfer record: %w", err)
	}

	var rec domain.Record
	if err := json.Unmarshal([]byte(data), &rec); err != nil {
		return domain.Record{}, fmt.Errorf("unmarshal transfer record: %w", err)
	}
	return rec, nil
}

func (r *Redis) Delete(ctx context.Context, fileID string) error {
	pipe := r.client.Pipeline()
	del := pipe.Del(ctx, r.recordKey(fileID))
	pipe.ZRem(ctx, createdIndexKey, fileID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete transfer record: %w", err)
	}
	if del.Val() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *Redis) ExpiredBefore(ctx context.Context, cutoff time.Time) ([]domain.Record, error) {
	ids, err := r.client.ZRangeByScore(ctx, createdIndexKey, &redis.ZRangeBy{
		Min: "-inf",
		Max: strconv.FormatInt(cutoff.Unix(), 10),
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("scan expired transfer records: %w", err)
	}

	expired := make([]domain.Record, 0, len(ids))
	for _, id := range ids {
		rec, err := r.Get(ctx, id)
		if errors.Is(err, domain.ErrNotFound) {
			// index entry without a record; drop it
			r.client.ZRem(ctx, createdIndexKey, id)
			continue
		}
		if err != nil {
			return nil, err
		}
		expired = append(expired, rec)
	}
	return expired, nil
}

func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

func (r *Redis) recordKey(fileID string) string {
	return recordKeyPrefix + fileID
}
