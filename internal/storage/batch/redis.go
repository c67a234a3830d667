// internal/storage/batch/redis.go
package batch

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/newthinker/binsig/internal/core"
	"github.com/redis/go-redis/v9"
)

const (
	batchKeyPrefix = "binsig:batch:"
	indexKey       = "binsig:batches"
)

// RedisOptions configures a RedisStore.
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	TTL      time.Duration
}

// RedisStore keeps batches as JSON values that expire after TTL.
// A sorted set indexes them by generation time.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("connecting to redis at %s: %w", opts.Addr, err)
	}
	return &RedisStore{client: client, ttl: opts.TTL}, nil
}

// Close releases the underlying connection pool.
func (r *RedisStore) Close() error {
	return r.client.Close()
}

// Save stores the batch and adds it to the index.
func (r *RedisStore) Save(ctx context.Context, b core.Batch) error {
	data, err := json.Marshal(b)
	if err != nil {
		return fmt.Errorf("encoding batch %s: %w", b.ID, err)
	}

	_, err = r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, batchKeyPrefix+b.ID, data, r.ttl)
		pipe.ZAdd(ctx, indexKey, redis.Z{
			Score:  float64(b.GeneratedAt.UnixMilli()),
			Member: b.ID,
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("saving batch %s: %w", b.ID, err)
	}
	return nil
}

// Get loads a batch by ID.
func (r *RedisStore) Get(ctx context.Context, id string) (*core.Batch, error) {
	data, err := r.client.Get(ctx, batchKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, core.ErrBatchNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading batch %s: %w", id, err)
	}

	var b core.Batch
	if err := json.Unmarshal(data, &b); err != nil {
		return nil, fmt.Errorf("decoding batch %s: %w", id, err)
	}
	return &b, nil
}

// List walks the index newest first. Index entries whose batch has
// expired are pruned on the way.
func (r *RedisStore) List(ctx context.Context, filter ListFilter) ([]core.Batch, error) {
	rng := &redis.ZRangeBy{Min: "-inf", Max: "+inf"}
	if !filter.From.IsZero() {
		rng.Min = strconv.FormatInt(filter.From.UnixMilli(), 10)
	}
	if !filter.To.IsZero() {
		rng.Max = strconv.FormatInt(filter.To.UnixMilli(), 10)
	}

	ids, err := r.client.ZRevRangeByScore(ctx, indexKey, rng).Result()
	if err != nil {
		return nil, fmt.Errorf("listing batches: %w", err)
	}

	result := []core.Batch{}
	var stale []any
	for _, id := range ids {
		b, err := r.Get(ctx, id)
		if errors.Is(err, core.ErrBatchNotFound) {
			stale = append(stale, id)
			continue
		}
		if err != nil {
			return nil, err
		}
		if !filter.matches(*b) {
			continue
		}
		result = append(result, *b)
		if filter.Limit > 0 && len(result) == filter.Limit {
			break
		}
	}

	if len(stale) > 0 {
		if err := r.client.ZRem(ctx, indexKey, stale...).Err(); err != nil {
			return nil, fmt.Errorf("pruning batch index: %w", err)
		}
	}
	return result, nil
}
