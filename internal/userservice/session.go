package userservice

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis"
	"github.com/patrickmn/go-cache"
	"github.com/sushihentaime/blogboard/internal/common"
)

var (
	ErrSessionNotFound = errors.New("session not found")
)

// CacheSessions keeps sessions in an in-process go-cache.
type CacheSessions struct {
	c *common.Cache
}

func NewCacheSessions(c *common.Cache) *CacheSessions {
	return &CacheSessions{c: c}
}

func (s *CacheSessions) Create(ctx context.Context, session *Session) error {
	expiration := cache.NoExpiration
	if !session.Expiry.IsZero() {
		expiration = time.Until(session.Expiry)
		if expiration <= 0 {
			return nil
		}
	}

	stored := *session
	stored.Plain = ""
	s.c.Set(common.CacheKeySession(session.Hash), &stored, expiration)

	return nil
}

func (s *CacheSessions) Get(ctx context.Context, hash []byte) (*Session, error) {
	v, ok := s.c.Get(common.CacheKeySession(hash))
	if !ok {
		return nil, ErrSessionNotFound
	}

	session, ok := v.(*Session)
	if !ok {
		return nil, fmt.Errorf("unexpected session type %T", v)
	}

	cp := *session
	return &cp, nil
}

func (s *CacheSessions) Delete(ctx context.Context, hash []byte) error {
	s.c.Delete(common.CacheKeySession(hash))
	return nil
}

// RedisSessions keeps sessions in redis under the same keys as CacheSessions.
type RedisSessions struct {
	client *redis.Client
}

func NewRedisSessions(client *redis.Client) *RedisSessions {
	return &RedisSessions{client: client}
}

// NewRedisClient connects to addr and verifies the connection with a ping.
func NewRedisClient(addr, password string, db int) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})

	if err := client.Ping().Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("could not connect to redis: %w", err)
	}

	return client, nil
}

func (s *RedisSessions) Create(ctx context.Context, session *Session) error {
	var expiration time.Duration
	if !session.Expiry.IsZero() {
		expiration = time.Until(session.Expiry)
		if expiration <= 0 {
			return nil
		}
	}

	data, err := json.Marshal(session)
	if err != nil {
		return err
	}

	return s.client.WithContext(ctx).Set(common.CacheKeySession(session.Hash), data, expiration).Err()
}

func (s *RedisSessions) Get(ctx context.Context, hash []byte) (*Session, error) {
	data, err := s.client.WithContext(ctx).Get(common.CacheKeySession(hash)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	var session Session
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, err
	}
	session.Hash = hash

	return &session, nil
}

func (s *RedisSessions) Delete(ctx context.Context, hash []byte) error {
	return s.client.WithContext(ctx).Del(common.CacheKeySession(hash)).Err()
}
