// Package session bridges the two-step Discord report flow: the slash
// command stores its enum selections here, the modal submission collects
// them. Write once, single read within the TTL, absent thereafter.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrNotFound is returned when a session is absent: expired, already
// consumed, or never created.
var ErrNotFound = errors.New("session not found or expired")

// PendingReport holds everything the slash command captured; the modal
// supplies the rest (title id, title, notes).
type PendingReport struct {
	Status        string    `json:"status"`
	Perf          string    `json:"perf"`
	Device        string    `json:"device"`
	OSVersion     string    `json:"os_version"`
	Arch          string    `json:"arch"`
	GPUBackend    string    `json:"gpu_backend"`
	Submitter     string    `json:"submitter"`
	AttachmentURL string    `json:"attachment_url,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// RedisStore implements the pending-session cache on redis.
type RedisStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewRedisStore connects to redis and verifies the connection.
func NewRedisStore(redisURL string, ttl time.Duration) (*RedisStore, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}

	client := redis.NewClient(opts)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("connect to redis: %w", err)
	}

	return &RedisStore{client: client, prefix: "pending:", ttl: ttl}, nil
}

// NewRedisStoreWithClient builds a store from an existing client.
func NewRedisStoreWithClient(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, prefix: "pending:", ttl: ttl}
}

func (s *RedisStore) key(interactionID string) string {
	return s.prefix + interactionID
}

// Put stores a pending report keyed by the originating interaction ID.
func (s *RedisStore) Put(ctx context.Context, interactionID string, pending PendingReport) error {
	pending.CreatedAt = time.Now().UTC()
	data, err := json.Marshal(pending)
	if err != nil {
		return fmt.Errorf("marshal pending report: %w", err)
	}
	if err := s.client.Set(ctx, s.key(interactionID), data, s.ttl).Err(); err != nil {
		return fmt.Errorf("save pending report: %w", err)
	}
	return nil
}

// Take retrieves and deletes a pending report in one step, enforcing the
// read-once contract. A replayed or expired key yields ErrNotFound.
func (s *RedisStore) Take(ctx context.Context, interactionID string) (PendingReport, error) {
	data, err := s.client.GetDel(ctx, s.key(interactionID)).Result()
	if err == redis.Nil {
		return PendingReport{}, ErrNotFound
	}
	if err != nil {
		return PendingReport{}, fmt.Errorf("lookup pending report: %w", err)
	}

	var pending PendingReport
	if err := json.Unmarshal([]byte(data), &pending); err != nil {
		return PendingReport{}, fmt.Errorf("unmarshal pending report: %w", err)
	}
	return pending, nil
}

// Close closes the redis connection.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

// Ping checks that redis is reachable.
func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}
