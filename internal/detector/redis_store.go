package detector

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// RedisStore keeps state in one Redis hash: field = instrument, value = JSON State.
type RedisStore struct {
	Client *redis.Client
	Key    string
}

func NewRedisStore(client *redis.Client, key string) *RedisStore {
	return &RedisStore{Client: client, Key: key}
}

func (s *RedisStore) Get(ctx context.Context, instrument string) (State, bool, error) {
	raw, err := s.Client.HGet(ctx, s.Key, instrument).Bytes()
	if errors.Is(err, redis.Nil) {
		return State{}, false, nil
	}
	if err != nil {
		return State{}, false, fmt.Errorf("redis hget %s: %w", instrument, err)
	}
	var st State
	if err := json.Unmarshal(raw, &st); err != nil {
		return State{}, false, fmt.Errorf("decode state %s: %w", instrument, err)
	}
	return st, true, nil
}

func (s *RedisStore) Put(ctx context.Context, instrument string, st State) error {
	raw, err := json.Marshal(st)
	if err != nil {
		return err
	}
	if err := s.Client.HSet(ctx, s.Key, instrument, raw).Err(); err != nil {
		return fmt.Errorf("redis hset %s: %w", instrument, err)
	}
	return nil
}
