package session

import (
	"context"
	"errors"
	"time"

	"github.com/go-redis/redis/v8"
)

const redisPrefix = "makhana:sess:"

// RedisStorage keeps sessions in redis under a fixed key prefix. It satisfies
// fiber.Storage.
type RedisStorage struct {
	cli *redis.Client
}

func NewRedisStorage(addr string) (*RedisStorage, error) {
	cli := redis.NewClient(&redis.Options{Addr: addr, Password: "", DB: 0})
	if err := cli.Ping(context.Background()).Err(); err != nil {
		_ = cli.Close()
		return nil, err
	}
	return &RedisStorage{cli: cli}, nil
}

func (r *RedisStorage) Get(key string) ([]byte, error) {
	if key == "" {
		return nil, nil
	}
	val, err := r.cli.Get(context.Background(), redisPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return val, err
}

func (r *RedisStorage) Set(key string, val []byte, exp time.Duration) error {
	if key == "" || len(val) == 0 {
		return nil
	}
	return r.cli.Set(context.Background(), redisPrefix+key, val, exp).Err()
}

func (r *RedisStorage) Delete(key string) error {
	if key == "" {
		return nil
	}
	return r.cli.Del(context.Background(), redisPrefix+key).Err()
}

// Reset removes only keys under the session prefix.
func (r *RedisStorage) Reset() error {
	ctx := context.Background()
	iter := r.cli.Scan(ctx, 0, redisPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		if err := r.cli.Del(ctx, iter.Val()).Err(); err != nil {
			return err
		}
	}
	return iter.Err()
}

func (r *RedisStorage) Close() error { return r.cli.Close() }
