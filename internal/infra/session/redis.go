package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/bryanwahyu/field-report/internal/application"
	"github.com/bryanwahyu/field-report/internal/domain/report"
)

const keyPrefix = "fieldreport:session:"

// Redis stores JSON-encoded sessions under fieldreport:session:{user}.
type Redis struct {
	rdb   *redis.Client
	ttl   time.Duration
	clock application.Clock
}

// Connect parses url, pings the server and returns the store.
func Connect(ctx context.Context, url string, ttl time.Duration, clock application.Clock) (*Redis, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("invalid redis url: %w", err)
	}
	rdb := redis.NewClient(opts)

	pctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return NewRedis(rdb, ttl, clock), nil
}

func NewRedis(rdb *redis.Client, ttl time.Duration, clock application.Clock) *Redis {
	if clock == nil {
		clock = application.SystemClock{}
	}
	return &Redis{rdb: rdb, ttl: ttl, clock: clock}
}

func key(userID string) string { return keyPrefix + userID }

func (r *Redis) Get(ctx context.Context, userID string) (*report.Session, error) {
	raw, err := r.rdb.Get(ctx, key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, report.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	var s report.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", userID, err)
	}
	return &s, nil
}

// Create uses SETNX so two concurrent creates agree on one session.
func (r *Redis) Create(ctx context.Context, userID string) (*report.Session, error) {
	s := report.NewSession(userID, r.clock.Now())
	raw, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	ok, err := r.rdb.SetNX(ctx, key(userID), raw, r.ttl).Result()
	if err != nil {
		return nil, err
	}
	if ok {
		return s, nil
	}
	return r.Get(ctx, userID)
}

func (r *Redis) Save(ctx context.Context, s *report.Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, key(s.UserID), raw, r.ttl).Err()
}

func (r *Redis) Delete(ctx context.Context, userID string) error {
	return r.rdb.Del(ctx, key(userID)).Err()
}

// Clear removes every session key, scanning in batches.
func (r *Redis) Clear(ctx context.Context) error {
	iter := r.rdb.Scan(ctx, 0, keyPrefix+"*", 100).Iterator()
	var batch []string
	for iter.Next(ctx) {
		batch = append(batch, iter.Val())
		if len(batch) == 100 {
			if err := r.rdb.Del(ctx, batch...).Err(); err != nil {
				return err
			}
			batch = batch[:0]
		}
	}
	if err := iter.Err(); err != nil {
		return err
	}
	if len(batch) > 0 {
		return r.rdb.Del(ctx, batch...).Err()
	}
	return nil
}

func (r *Redis) Close() error { return r.rdb.Close() }

// Ping backs the /health check.
func (r *Redis) Ping(ctx context.Context) error { return r.rdb.Ping(ctx).Err() }
