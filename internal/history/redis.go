package history

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/redis/go-redis/v9"
)

const defaultRedisKey = "skill-navigator:applications"

// RedisStore keeps application records as JSON values of a single Redis hash.
type RedisStore struct {
	rdb redis.Cmdable
	key string
}

// NewRedisClient creates and verifies a Redis client connection.
func NewRedisClient(ctx context.Context, redisURL string) (*redis.Client, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("redis.ParseURL: %w", err)
	}

	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}

	return rdb, nil
}

func NewRedisStore(rdb redis.Cmdable, key string) *RedisStore {
	if key == "" {
		key = defaultRedisKey
	}
	return &RedisStore{rdb: rdb, key: key}
}

func (s *RedisStore) List(ctx context.Context) ([]*Record, error) {
	values, err := s.rdb.HGetAll(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hgetall %s: %w", s.key, err)
	}

	records := make([]*Record, 0, len(values))
	for field, value := range values {
		var rec Record
		if err := json.Unmarshal([]byte(value), &rec); err != nil {
			return nil, fmt.Errorf("decode application %s: %w", field, err)
		}
		records = append(records, &rec)
	}

	sortRecords(records)
	return records, nil
}

func (s *RedisStore) Get(ctx context.Context, jobID int) (*Record, error) {
	value, err := s.rdb.HGet(ctx, s.key, strconv.Itoa(jobID)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("%w: %d", ErrNotFound, jobID)
	}
	if err != nil {
		return nil, fmt.Errorf("redis hget %s: %w", s.key, err)
	}

	var rec Record
	if err := json.Unmarshal([]byte(value), &rec); err != nil {
		return nil, fmt.Errorf("decode application %d: %w", jobID, err)
	}
	return &rec, nil
}

func (s *RedisStore) Put(ctx context.Context, rec *Record) error {
	if rec == nil || rec.JobID <= 0 {
		return errors.New("record with a job id is required")
	}

	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}

	if err := s.rdb.HSet(ctx, s.key, strconv.Itoa(rec.JobID), data).Err(); err != nil {
		return fmt.Errorf("redis hset %s: %w", s.key, err)
	}
	return nil
}

func (s *RedisStore) IDs(ctx context.Context) ([]int, error) {
	fields, err := s.rdb.HKeys(ctx, s.key).Result()
	if err != nil {
		return nil, fmt.Errorf("redis hkeys %s: %w", s.key, err)
	}

	ids := make([]int, 0, len(fields))
	for _, f := range fields {
		id, err := strconv.Atoi(f)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	return ids, nil
}
