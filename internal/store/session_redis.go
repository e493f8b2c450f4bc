package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/pakainexus/schoolgate/internal/domain"
	"github.com/redis/go-redis/v9"
)

// redisSession is the wire form of a session in Redis. AccessToken is
// excluded from the domain type's JSON, so it gets an explicit field here.
type redisSession struct {
	domain.Session
	AccessToken string `json:"access_token"`
}

// RedisSessionStore keeps sessions in Redis with a TTL matching the session
// expiry, so expired sessions vanish without a janitor.
type RedisSessionStore struct {
	client *redis.Client
}

func NewRedisSessionStore(client *redis.Client) *RedisSessionStore {
	return &RedisSessionStore{client: client}
}

func sessionKey(id string) string {
	return "session:" + id
}

func (s *RedisSessionStore) Create(ctx context.Context, sess *domain.Session) error {
	ttl := time.Until(sess.ExpiresAt)
	if ttl <= 0 {
		return fmt.Errorf("session already expired")
	}
	data, err := json.Marshal(redisSession{Session: *sess, AccessToken: sess.AccessToken})
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	return s.client.SetNX(ctx, sessionKey(sess.ID), data, ttl).Err()
}

func (s *RedisSessionStore) Get(ctx context.Context, id string) (*domain.Session, error) {
	data, err := s.client.Get(ctx, sessionKey(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var rs redisSession
	if err := json.Unmarshal(data, &rs); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	sess := rs.Session
	sess.AccessToken = rs.AccessToken
	return &sess, nil
}

func (s *RedisSessionStore) Delete(ctx context.Context, id string) error {
	return s.client.Del(ctx, sessionKey(id)).Err()
}
