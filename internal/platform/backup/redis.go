package backup

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// scratchTTL bounds how long a scratch backup outlives the editing session
// that produced it.
const scratchTTL = 72 * time.Hour

// RedisStore is the scratch backup tier.
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

func scratchKey(billID string) string {
	return "financial_backup_" + billID
}

func (s *RedisStore) Save(ctx context.Context, billID string, discount map[string]string) error {
	payload, err := json.Marshal(newEnvelope(billID, discount))
	if err != nil {
		return fmt.Errorf("marshal backup envelope: %w", err)
	}
	if err := s.client.Set(ctx, scratchKey(billID), payload, scratchTTL).Err(); err != nil {
		return fmt.Errorf("write scratch backup: %w", err)
	}
	return nil
}

func (s *RedisStore) Load(ctx context.Context, billID string) (*Envelope, bool, error) {
	payload, err := s.client.Get(ctx, scratchKey(billID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read scratch backup: %w", err)
	}
	var env Envelope
	if err := json.Unmarshal(payload, &env); err != nil {
		return nil, false, fmt.Errorf("decode scratch backup: %w", err)
	}
	return &env, true, nil
}

func (s *RedisStore) Delete(ctx context.Context, billID string) error {
	return s.client.Del(ctx, scratchKey(billID)).Err()
}
