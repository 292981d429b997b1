package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisKeyPrefix = "filmlib:session:"

// RedisStore keeps sessions as JSON values with a TTL matching their expiry.
type RedisStore struct {
	rdb redis.Cmdable
}

func NewRedisStore(rdb redis.Cmdable) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Save(ctx context.Context, sess Session) error {
	ttl := time.Until(sess.ExpiresAt)

	if ttl <= 0 {
		return fmt.Errorf("save session %s: already expired", sess.ID)
	}

	raw, err := json.Marshal(sess)

	if err != nil {
		return err
	}

	return s.rdb.Set(ctx, redisKeyPrefix+sess.ID, raw, ttl).Err()
}

func (s *RedisStore) Get(ctx context.Context, id string) (Session, error) {
	raw, err := s.rdb.Get(ctx, redisKeyPrefix+id).Bytes()

	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Session{}, ErrNotFound
		}
		return Session{}, err
	}

	var sess Session

	if err := json.Unmarshal(raw, &sess); err != nil {
		return Session{}, fmt.Errorf("decode session %s: %w", id, err)
	}

	return sess, nil
}

func (s *RedisStore) Delete(ctx context.Context, id string) error {
	return s.rdb.Del(ctx, redisKeyPrefix+id).Err()
}
