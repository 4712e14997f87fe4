package session

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "widget_session:"

// RedisRepository keeps session bindings in Redis so multiple instances of
// the widget backend can share them. TTL enforcement is delegated to Redis.
type RedisRepository struct {
	rdb      *redis.Client
	lifetime time.Duration
}

func NewRedisRepository(rdb *redis.Client, lifetime time.Duration) *RedisRepository {
	return &RedisRepository{
		rdb:      rdb,
		lifetime: lifetime,
	}
}

func (r *RedisRepository) Save(ctx context.Context, session *Session) error {
	payload, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return r.rdb.Set(ctx, redisKeyPrefix+session.Token, payload, r.lifetime).Err()
}

func (r *RedisRepository) Get(ctx context.Context, token string) (*Session, bool) {
	payload, err := r.rdb.Get(ctx, redisKeyPrefix+token).Bytes()
	if err != nil {
		// redis.Nil and outages both count as a miss: the caller mints a
		// new backend session rather than failing the chat turn.
		return nil, false
	}

	var session Session
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, false
	}
	return &session, true
}

func (r *RedisRepository) Delete(ctx context.Context, token string) error {
	return r.rdb.Del(ctx, redisKeyPrefix+token).Err()
}
