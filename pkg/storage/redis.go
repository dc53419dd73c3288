package storage

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	defaultRedisPrefix = "profilesmith:doc:"

	fieldData     = "data"
	fieldModified = "modified"
)

// RedisStore keeps each document in a hash holding its bytes and write time
type RedisStore struct {
	client *redis.Client
	prefix string
}

// NewRedisStore connects to the Redis server at addr
func NewRedisStore(addr, prefix string) *RedisStore {
	return NewRedisStoreWithClient(redis.NewClient(&redis.Options{Addr: addr}), prefix)
}

// NewRedisStoreWithClient wraps an existing client
func NewRedisStoreWithClient(client *redis.Client, prefix string) *RedisStore {
	if prefix == "" {
		prefix = defaultRedisPrefix
	}
	return &RedisStore{client: client, prefix: prefix}
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}

func (s *RedisStore) Save(ctx context.Context, name string, doc any) (string, error) {
	if err := ValidateName(name); err != nil {
		return "", err
	}
	now := time.Now()
	data, err := Stamp(doc, now)
	if err != nil {
		return "", err
	}

	key := s.prefix + name
	if err := s.client.HSet(ctx, key, fieldData, data, fieldModified, now.UnixNano()).Err(); err != nil {
		return "", fmt.Errorf("save %s: %w", name, err)
	}
	return key, nil
}

func (s *RedisStore) Load(ctx context.Context, name string) ([]byte, error) {
	if err := ValidateName(name); err != nil {
		return nil, err
	}
	data, err := s.client.HGet(ctx, s.prefix+name, fieldData).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, name)
		}
		return nil, err
	}
	return data, nil
}

// List returns the stored documents sorted by name
func (s *RedisStore) List(ctx context.Context) ([]FileInfo, error) {
	files := []FileInfo{}

	iter := s.client.Scan(ctx, 0, s.prefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		fields, err := s.client.HGetAll(ctx, key).Result()
		if err != nil {
			return nil, err
		}
		data, ok := fields[fieldData]
		if !ok {
			continue
		}
		nanos, _ := strconv.ParseInt(fields[fieldModified], 10, 64)
		files = append(files, FileInfo{
			Name:     strings.TrimPrefix(key, s.prefix),
			Size:     int64(len(data)),
			Modified: time.Unix(0, nanos),
		})
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}

	sort.Slice(files, func(i, j int) bool {
		return files[i].Name < files[j].Name
	})
	return files, nil
}

func (s *RedisStore) Delete(ctx context.Context, name string) error {
	if err := ValidateName(name); err != nil {
		return err
	}
	n, err := s.client.Del(ctx, s.prefix+name).Result()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	return nil
}
