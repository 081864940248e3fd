package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
)

// Redis key layout. The main record and the progress record are deliberately
// two independent keys so that high-frequency progress ticks never rewrite
// the full job entity.
const keyPrefix = "voicegen:"

func jobKey(id string) string {
	return keyPrefix + "job:" + id
}

func progressKey(id string) string {
	return keyPrefix + "job:" + id + ":progress"
}

// Store is the persistence port the lifecycle service depends on.
type Store interface {
	Put(ctx context.Context, j *Job) error
	Fetch(ctx context.Context, id string) (*Job, error)
	PutProgress(ctx context.Context, id string, p *Progress) error
	ClearProgress(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

// RedisStore persists job records in Redis with a fixed retention TTL,
// refreshed on every write. It implements Store.
type RedisStore struct {
	client    redis.Cmdable
	retention time.Duration
	logger    *slog.Logger
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a store on an existing Redis client. The caller owns
// the client lifecycle. retention bounds how long job records outlive their
// last write.
func NewRedisStore(client redis.Cmdable, retention time.Duration, logger *slog.Logger) *RedisStore {
	return &RedisStore{
		client:    client,
		retention: retention,
		logger:    logger,
	}
}

// classify maps a Redis error to the store error taxonomy. redis.Nil means
// the key is absent (never existed or expired); anything else means the
// store cannot be trusted right now.
func classify(op string, err error) error {
	if errors.Is(err, redis.Nil) {
		return ErrNotFound
	}
	return fmt.Errorf("%w: %s: %v", ErrStoreUnavailable, op, err)
}

// Put serializes and writes the main job record, refreshing the retention TTL.
func (s *RedisStore) Put(ctx context.Context, j *Job) error {
	data, err := encodeJob(j)
	if err != nil {
		return err
	}

	if err := s.client.Set(ctx, jobKey(j.ID), data, s.retention).Err(); err != nil {
		return classify("put job", err)
	}

	s.logger.Debug("Job record written",
		slog.String("job_id", j.ID),
		slog.String("status", j.Status),
	)
	return nil
}

// Fetch reads the main record and overlays the progress record if one exists.
// A missing progress record is not an error: it means no progress yet, or a
// terminal record that already folded its last snapshot in.
func (s *RedisStore) Fetch(ctx context.Context, id string) (*Job, error) {
	data, err := s.client.Get(ctx, jobKey(id)).Bytes()
	if err != nil {
		return nil, classify("get job", err)
	}

	j, err := decodeJob(data)
	if err != nil {
		return nil, err
	}

	progressData, err := s.client.Get(ctx, progressKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return j, nil
		}
		return nil, classify("get progress", err)
	}

	p, err := decodeProgress(progressData)
	if err != nil {
		return nil, err
	}
	j.Progress = p

	return j, nil
}

// PutProgress writes only the progress record. It must stay cheap: it is
// called many times per second during a long-running generation and never
// touches the main record.
func (s *RedisStore) PutProgress(ctx context.Context, id string, p *Progress) error {
	data, err := encodeProgress(p)
	if err != nil {
		return err
	}

	if err := s.client.Set(ctx, progressKey(id), data, s.retention).Err(); err != nil {
		return classify("put progress", err)
	}
	return nil
}

// ClearProgress deletes the progress record. Called once, at finalization,
// after the last snapshot has been folded into the main record.
func (s *RedisStore) ClearProgress(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, progressKey(id)).Err(); err != nil {
		return classify("clear progress", err)
	}
	return nil
}

// Ping verifies the store connection is alive.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return classify("ping", err)
	}
	return nil
}
