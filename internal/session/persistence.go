package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"

	"github.com/redis/go-redis/v9"
)

// The session is persisted under two distinct durable keys: the bearer token
// and the serialized user record. They are written on login and cleared
// together on logout.
const (
	KeyToken    = "token"
	KeyUserData = "userData"
)

// ErrNotFound is returned by Persistence.Get when a key has no value.
var ErrNotFound = errors.New("session: key not found")

// Persistence is the durable client-side storage the session survives
// process restarts in.
type Persistence interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, keys ...string) error
}

// FileStore persists each key as a file under a state directory.
type FileStore struct {
	dir string
}

func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, err
	}
	return &FileStore{dir: dir}, nil
}

func (f *FileStore) Get(_ context.Context, key string) (string, error) {
	data, err := os.ReadFile(filepath.Join(f.dir, key))
	if err != nil {
		if os.IsNotExist(err) {
			return "", ErrNotFound
		}
		return "", err
	}
	return string(data), nil
}

func (f *FileStore) Set(_ context.Context, key, value string) error {
	return os.WriteFile(filepath.Join(f.dir, key), []byte(value), 0o600)
}

func (f *FileStore) Delete(_ context.Context, keys ...string) error {
	var firstErr error
	for _, key := range keys {
		if err := os.Remove(filepath.Join(f.dir, key)); err != nil && !os.IsNotExist(err) {
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// RedisStore persists keys in redis under a common prefix.
type RedisStore struct {
	client *redis.Client
	prefix string
}

func NewRedisStore(client *redis.Client, prefix string) *RedisStore {
	return &RedisStore{client: client, prefix: prefix}
}

func (r *RedisStore) Get(ctx context.Context, key string) (string, error) {
	val, err := r.client.Get(ctx, r.prefix+key).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", ErrNotFound
		}
		return "", err
	}
	return val, nil
}

func (r *RedisStore) Set(ctx context.Context, key, value string) error {
	return r.client.Set(ctx, r.prefix+key, value, 0).Err()
}

func (r *RedisStore) Delete(ctx context.Context, keys ...string) error {
	full := make([]string, len(keys))
	for i, key := range keys {
		full[i] = r.prefix + key
	}
	return r.client.Del(ctx, full...).Err()
}
