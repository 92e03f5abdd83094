package store

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"
)

const (
	runKeyPrefix = "mdp:run:"
	runIndexKey  = "mdp:runs"
)

// RedisStore keeps each run payload under mdp:run:<id> and orders ids in
// the sorted set mdp:runs by creation time.
type RedisStore struct {
	addr string

	mu     sync.RWMutex
	client *redis.Client
}

func NewRedisStore(addr string) *RedisStore {
	return &RedisStore{addr: addr}
}

func (s *RedisStore) Init(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.addr == "" {
		return errors.New("redis address is required")
	}
	if s.client != nil {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr: s.addr,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return fmt.Errorf("ping redis %s: %w", s.addr, err)
	}
	s.client = client
	return nil
}

func (s *RedisStore) SaveRun(ctx context.Context, run Run) error {
	client, err := s.getClient()
	if err != nil {
		return err
	}
	payload, err := EncodeRun(run)
	if err != nil {
		return err
	}
	_, err = client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, runKeyPrefix+run.ID, payload, 0)
		pipe.ZAdd(ctx, runIndexKey, redis.Z{
			Score:  float64(run.CreatedAt.UnixNano()),
			Member: run.ID,
		})
		return nil
	})
	return err
}

func (s *RedisStore) GetRun(ctx context.Context, id string) (Run, bool, error) {
	client, err := s.getClient()
	if err != nil {
		return Run{}, false, err
	}
	payload, err := client.Get(ctx, runKeyPrefix+id).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Run{}, false, nil
		}
		return Run{}, false, err
	}
	run, err := DecodeRun(payload)
	if err != nil {
		return Run{}, false, fmt.Errorf("decode run %s: %w", id, err)
	}
	return run, true, nil
}

func (s *RedisStore) ListRuns(ctx context.Context) ([]Run, error) {
	client, err := s.getClient()
	if err != nil {
		return nil, err
	}
	ids, err := client.ZRange(ctx, runIndexKey, 0, -1).Result()
	if err != nil {
		return nil, err
	}
	runs := make([]Run, 0, len(ids))
	for _, id := range ids {
		run, ok, err := s.GetRun(ctx, id)
		if err != nil {
			return nil, err
		}
		if ok {
			runs = append(runs, run)
		}
	}
	return runs, nil
}

func (s *RedisStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.client == nil {
		return nil
	}
	err := s.client.Close()
	s.client = nil
	return err
}

func (s *RedisStore) getClient() (*redis.Client, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.client == nil {
		return nil, errors.New("store is not initialized")
	}
	return s.client, nil
}

var _ Store = &RedisStore{}
