package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/ahmednasr/repomind/internal/models"
)

// DefaultRedisPrefix namespaces session keys.
const DefaultRedisPrefix = "session:"

// maxAppendAttempts bounds optimistic retries when another writer changes
// the key between WATCH and EXEC.
const maxAppendAttempts = 10

// RedisSessionStore keeps each session as one JSON string with a native
// per-key expiry, so any replica can serve any session.
type RedisSessionStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
	now    func() time.Time
}

// NewRedisSessionStore creates a store on an existing client.
func NewRedisSessionStore(client *redis.Client, prefix string) *RedisSessionStore {
	if prefix == "" {
		prefix = DefaultRedisPrefix
	}
	return &RedisSessionStore{
		client: client,
		prefix: prefix,
		ttl:    SessionTTL,
		now:    time.Now,
	}
}

func (r *RedisSessionStore) key(id string) string {
	return r.prefix + id
}

// Create writes sess with an expiry of whatever is left of its TTL.
func (r *RedisSessionStore) Create(ctx context.Context, sess *models.Session) (string, error) {
	data, err := json.Marshal(sess)
	if err != nil {
		return "", fmt.Errorf("marshal session: %w", err)
	}

	remaining := sess.Remaining(r.now(), r.ttl)
	if remaining <= 0 {
		return "", fmt.Errorf("session already expired")
	}

	id := uuid.NewString()
	if err := r.client.Set(ctx, r.key(id), data, remaining).Err(); err != nil {
		return "", fmt.Errorf("set session: %w", err)
	}
	return id, nil
}

// Get loads a live session.
func (r *RedisSessionStore) Get(ctx context.Context, id string) (*models.Session, error) {
	data, err := r.client.Get(ctx, r.key(id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, models.ErrSessionNotFound
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	var sess models.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	if sess.Expired(r.now(), r.ttl) {
		return nil, models.ErrSessionNotFound
	}
	if sess.Messages == nil {
		sess.Messages = []models.Message{}
	}
	return &sess, nil
}

// Set overwrites an existing key and keeps its remaining TTL.
func (r *RedisSessionStore) Set(ctx context.Context, id string, sess *models.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}

	ok, err := r.client.SetXX(ctx, r.key(id), data, redis.KeepTTL).Result()
	if err != nil {
		return fmt.Errorf("set session: %w", err)
	}
	if !ok {
		return models.ErrSessionNotFound
	}
	return nil
}

// Append adds msgs to the stored history. The read-modify-write runs under
// WATCH, so a concurrent writer makes EXEC fail and the append is retried
// on the fresh value.
func (r *RedisSessionStore) Append(ctx context.Context, id string, msgs ...models.Message) error {
	key := r.key(id)
	txf := func(tx *redis.Tx) error {
		data, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return models.ErrSessionNotFound
		}
		if err != nil {
			return fmt.Errorf("get session: %w", err)
		}

		var sess models.Session
		if err := json.Unmarshal(data, &sess); err != nil {
			return fmt.Errorf("unmarshal session: %w", err)
		}
		if sess.Expired(r.now(), r.ttl) {
			return models.ErrSessionNotFound
		}
		sess.Messages = append(sess.Messages, msgs...)

		next, err := json.Marshal(&sess)
		if err != nil {
			return fmt.Errorf("marshal session: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.SetXX(ctx, key, next, redis.KeepTTL)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxAppendAttempts; attempt++ {
		err := r.client.Watch(ctx, txf, key)
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		return err
	}
	return fmt.Errorf("append to session %s: gave up after %d conflicting writes", id, maxAppendAttempts)
}

// Delete removes id. Deleting an unknown id is not an error.
func (r *RedisSessionStore) Delete(ctx context.Context, id string) error {
	if err := r.client.Del(ctx, r.key(id)).Err(); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

func (r *RedisSessionStore) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close releases the connection pool.
func (r *RedisSessionStore) Close(ctx context.Context) error {
	return r.client.Close()
}
