package redisstore

import (
	"context"
	"errors"
	"fmt"

	"github.com/jrsteele09/helpdesk-console/sessions"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"
)

var _ sessions.Store = (*Store)(nil)

// Store keeps one tenant session under a single Redis key. Entries carry no
// TTL: token lifetimes are decided by the backend and unknown here.
type Store struct {
	client redis.Cmdable
	key    string
}

// New creates a Redis-backed session store for the tenant with the given
// storage prefix.
func New(client redis.Cmdable, prefix string) (*Store, error) {
	if client == nil {
		return nil, errors.New("[redisstore.New] client is required")
	}
	if prefix == "" {
		return nil, errors.New("[redisstore.New] storage prefix is required")
	}
	return &Store{client: client, key: prefix + "session"}, nil
}

// Connect dials Redis and verifies the connection.
func Connect(ctx context.Context, addr, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("[redisstore.Connect] ping %s: %w", addr, err)
	}
	return client, nil
}

// Key returns the Redis key used by the store.
func (s *Store) Key() string {
	return s.key
}

func (s *Store) Save(ctx context.Context, identity sessions.Identity, credentials sessions.Credentials) error {
	data, err := sessions.Encode(sessions.New(identity, credentials))
	if err != nil {
		return fmt.Errorf("[redisstore.Save] encode: %w", err)
	}
	if err := s.client.Set(ctx, s.key, data, 0).Err(); err != nil {
		return fmt.Errorf("[redisstore.Save] set: %w", err)
	}
	return nil
}

func (s *Store) Load(ctx context.Context) (*sessions.Session, bool) {
	val, err := s.client.Get(ctx, s.key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		log.Warn().Err(err).Str("key", s.key).Msg("session key unreadable")
		return nil, false
	}

	session, err := sessions.Decode(val)
	if err != nil {
		log.Warn().Err(err).Str("key", s.key).Msg("discarding persisted session")
		return nil, false
	}
	return session, true
}

func (s *Store) Clear(ctx context.Context) error {
	if err := s.client.Del(ctx, s.key).Err(); err != nil {
		return fmt.Errorf("[redisstore.Clear] del: %w", err)
	}
	return nil
}
