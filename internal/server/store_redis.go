package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "studyquiz:session:"

// maxTxRetries bounds optimistic retries when another writer touches the
// same session between WATCH and EXEC.
const maxTxRetries = 8

// RedisStore keeps each session as a JSON string whose Redis TTL matches the
// session expiry, so Redis does its own purging.
type RedisStore struct {
	rdb *redis.Client
	now func() time.Time
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb, now: time.Now}
}

func redisKey(id string) string { return redisKeyPrefix + id }

func (s *RedisStore) ttl(rec *SessionRecord) time.Duration {
	d := rec.ExpiresAt.Sub(s.now())
	if d < time.Millisecond {
		return time.Millisecond
	}
	return d
}

func (s *RedisStore) Create(ctx context.Context, rec *SessionRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return err
	}
	ok, err := s.rdb.SetNX(ctx, redisKey(rec.ID), data, s.ttl(rec)).Result()
	if err != nil {
		return fmt.Errorf("storing session: %w", err)
	}
	if !ok {
		return fmt.Errorf("session %s already exists", rec.ID)
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, id string) (*SessionRecord, error) {
	return s.get(ctx, s.rdb, id)
}

type redisGetter interface {
	Get(ctx context.Context, key string) *redis.StringCmd
}

func (s *RedisStore) get(ctx context.Context, c redisGetter, id string) (*SessionRecord, error) {
	data, err := c.Get(ctx, redisKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("loading session: %w", err)
	}
	var rec SessionRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("decoding session: %w", err)
	}
	if rec.expired(s.now()) {
		return nil, ErrNotFound
	}
	return &rec, nil
}

func (s *RedisStore) Update(ctx context.Context, id string, fn func(*SessionRecord) error) (*SessionRecord, error) {
	key := redisKey(id)
	var out *SessionRecord

	txf := func(tx *redis.Tx) error {
		rec, err := s.get(ctx, tx, id)
		if err != nil {
			return err
		}
		if err := fn(rec); err != nil {
			return err
		}
		data, err := json.Marshal(rec)
		if err != nil {
			return err
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, s.ttl(rec))
			return nil
		})
		if err != nil {
			return err
		}
		out = rec
		return nil
	}

	for range maxTxRetries {
		err := s.rdb.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if err != nil {
			return nil, err
		}
		return out, nil
	}
	return nil, fmt.Errorf("updating session %s: too much contention", id)
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	n, err := s.rdb.Del(ctx, redisKey(id)).Result()
	if err != nil {
		return fmt.Errorf("deleting session: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

// PurgeExpired is a no-op: keys carry their own TTL.
func (s *RedisStore) PurgeExpired(context.Context, time.Time) (int, error) { return 0, nil }

func (s *RedisStore) Check(ctx context.Context) error { return s.rdb.Ping(ctx).Err() }
