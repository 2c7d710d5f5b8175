package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/JonMunkholm/catalogsync/internal/core"
)

// DefaultRedisPrefix namespaces status hashes.
const DefaultRedisPrefix = "catalogsync:status:"

// Redis stores export statuses in one hash per domain, keyed by record key.
type Redis struct {
	client redis.UniversalClient
	prefix string
}

// RedisOption configures a Redis store.
type RedisOption func(*Redis)

// WithPrefix overrides the hash key prefix.
func WithPrefix(prefix string) RedisOption {
	return func(r *Redis) {
		r.prefix = prefix
	}
}

// NewRedis creates a Redis-backed status store. The client lifecycle is managed by the caller.
func NewRedis(client redis.UniversalClient, opts ...RedisOption) *Redis {
	r := &Redis{client: client, prefix: DefaultRedisPrefix}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

func (r *Redis) hash(domain core.Domain) string {
	return r.prefix + string(domain)
}

func (r *Redis) Get(ctx context.Context, key core.RecordKey) (core.StatusEntry, bool, error) {
	data, err := r.client.HGet(ctx, r.hash(key.Domain()), string(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return core.StatusEntry{}, false, nil
	}
	if err != nil {
		return core.StatusEntry{}, false, fmt.Errorf("get status: %w", err)
	}

	var e core.StatusEntry
	if err := json.Unmarshal(data, &e); err != nil {
		return core.StatusEntry{}, false, fmt.Errorf("decode status %s: %w", key, err)
	}
	return e, true, nil
}

func (r *Redis) Put(ctx context.Context, e core.StatusEntry) error {
	return r.PutMany(ctx, []core.StatusEntry{e})
}

// PutMany writes every entry in a single MULTI/EXEC.
func (r *Redis) PutMany(ctx context.Context, entries []core.StatusEntry) error {
	if len(entries) == 0 {
		return nil
	}

	byHash := make(map[string][]any)
	for _, e := range entries {
		data, err := json.Marshal(e)
		if err != nil {
			return fmt.Errorf("encode status %s: %w", e.Key, err)
		}
		h := r.hash(e.Key.Domain())
		byHash[h] = append(byHash[h], string(e.Key), data)
	}

	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		for h, fields := range byHash {
			pipe.HSet(ctx, h, fields...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("put statuses: %w", err)
	}
	return nil
}

func (r *Redis) List(ctx context.Context, domain core.Domain) ([]core.StatusEntry, error) {
	all, err := r.client.HGetAll(ctx, r.hash(domain)).Result()
	if err != nil {
		return nil, fmt.Errorf("list statuses: %w", err)
	}

	out := make([]core.StatusEntry, 0, len(all))
	for key, data := range all {
		var e core.StatusEntry
		if err := json.Unmarshal([]byte(data), &e); err != nil {
			return nil, fmt.Errorf("decode status %s: %w", key, err)
		}
		out = append(out, e)
	}
	return out, nil
}

func (r *Redis) Clear(ctx context.Context, domain core.Domain) (int, error) {
	var n *redis.IntCmd
	_, err := r.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		n = pipe.HLen(ctx, r.hash(domain))
		pipe.Del(ctx, r.hash(domain))
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("clear statuses: %w", err)
	}
	return int(n.Val()), nil
}

// Ping checks the connection.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}
