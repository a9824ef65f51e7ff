package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// RedisStore persists session windows in Redis so conversations survive
// process restarts. Idle sessions expire after the TTL.
type RedisStore struct {
	redis  *redis.Client
	window int
	ttl    time.Duration
	tracer trace.Tracer
}

// NewRedisStore creates a Redis-backed store. It panics on a nil client.
func NewRedisStore(client *redis.Client, window int, ttl time.Duration, tracer trace.Tracer) *RedisStore {
	if client == nil {
		panic("session: redis client cannot be nil")
	}
	if window <= 0 {
		window = DefaultWindow
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if tracer == nil {
		tracer = otel.Tracer("havenmind.internal.session")
	}
	return &RedisStore{
		redis:  client,
		window: window,
		ttl:    ttl,
		tracer: tracer,
	}
}

func (s *RedisStore) Append(ctx context.Context, userID string, turn Turn) error {
	ctx, span := s.tracer.Start(ctx, "session.append")
	defer span.End()

	turns, err := s.load(ctx, userID)
	if err != nil {
		span.RecordError(err)
		return err
	}
	turns = trimWindow(append(turns, turn), s.window)

	data, err := json.Marshal(turns)
	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: failed to marshal window: %w", err)
	}
	if err := s.redis.Set(ctx, sessionKey(userID), data, s.ttl).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: failed to persist window: %w", err)
	}
	return nil
}

func (s *RedisStore) History(ctx context.Context, userID string) ([]Turn, error) {
	ctx, span := s.tracer.Start(ctx, "session.history")
	defer span.End()

	turns, err := s.load(ctx, userID)
	if err != nil {
		span.RecordError(err)
	}
	return turns, err
}

func (s *RedisStore) Clear(ctx context.Context, userID string) error {
	ctx, span := s.tracer.Start(ctx, "session.clear")
	defer span.End()

	if err := s.redis.Del(ctx, sessionKey(userID)).Err(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("session: failed to clear window: %w", err)
	}
	return nil
}

func (s *RedisStore) load(ctx context.Context, userID string) ([]Turn, error) {
	data, err := s.redis.Get(ctx, sessionKey(userID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("session: failed to load window: %w", err)
	}

	var turns []Turn
	if err := json.Unmarshal(data, &turns); err != nil {
		return nil, fmt.Errorf("session: failed to decode window: %w", err)
	}
	return turns, nil
}

func sessionKey(userID string) string {
	return fmt.Sprintf("session:%s", userID)
}
