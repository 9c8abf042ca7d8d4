package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"github.com/reellists/listgen/internal/domain"
)

// RedisStore keeps records as namespaced JSON values.
type RedisStore struct {
	client    *redis.Client
	namespace string
}

func NewRedisStore(client *redis.Client, namespace string) *RedisStore {
	return &RedisStore{client: client, namespace: namespace}
}

func (s *RedisStore) credentialKey(userID string) string {
	return fmt.Sprintf("%s:credential:%s", s.namespace, userID)
}

func (s *RedisStore) configKey(userID string) string {
	return fmt.Sprintf("%s:config:%s", s.namespace, userID)
}

func (s *RedisStore) GetCredential(ctx context.Context, userID string) (*domain.UserCredential, error) {
	var cred domain.UserCredential
	if err := s.getJSON(ctx, s.credentialKey(userID), &cred); err != nil {
		return nil, err
	}
	return &cred, nil
}

func (s *RedisStore) PutCredential(ctx context.Context, cred *domain.UserCredential) error {
	return s.setJSON(ctx, s.credentialKey(cred.UserID), cred)
}

func (s *RedisStore) DeleteCredential(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, s.credentialKey(userID)).Err(); err != nil {
		return fmt.Errorf("delete credential for %s: %w", userID, err)
	}
	return nil
}

func (s *RedisStore) GetConfiguration(ctx context.Context, userID string) (*domain.UserConfiguration, error) {
	var cfg domain.UserConfiguration
	if err := s.getJSON(ctx, s.configKey(userID), &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (s *RedisStore) PutConfiguration(ctx context.Context, cfg *domain.UserConfiguration) error {
	return s.setJSON(ctx, s.configKey(cfg.UserID), cfg)
}

// ListConfigurations scans the config keyspace. SCAN keeps the iteration
// incremental so a large user base never blocks the server.
func (s *RedisStore) ListConfigurations(ctx context.Context) ([]domain.UserConfiguration, error) {
	pattern := fmt.Sprintf("%s:config:*", s.namespace)
	iter := s.client.Scan(ctx, 0, pattern, 100).Iterator()

	var configs []domain.UserConfiguration
	for iter.Next(ctx) {
		var cfg domain.UserConfiguration
		if err := s.getJSON(ctx, iter.Val(), &cfg); err != nil {
			if errors.Is(err, ErrNotFound) {
				continue // expired between SCAN and GET
			}
			return nil, err
		}
		configs = append(configs, cfg)
	}
	if err := iter.Err(); err != nil {
		return nil, fmt.Errorf("scan configurations: %w", err)
	}
	return configs, nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *RedisStore) getJSON(ctx context.Context, key string, v any) error {
	val, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("get %s: %w", key, err)
	}
	if err := json.Unmarshal([]byte(val), v); err != nil {
		return fmt.Errorf("unmarshal %s: %w", key, err)
	}
	return nil
}

func (s *RedisStore) setJSON(ctx context.Context, key string, v any) error {
	val, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	if err := s.client.Set(ctx, key, val, 0).Err(); err != nil {
		return fmt.Errorf("set %s: %w", key, err)
	}
	return nil
}
