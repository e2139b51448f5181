package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Apurer/go-gin-storefront-api/internal/domains/orders/ports"
)

const (
	keyPrefix = "orders:idempotency:"
	// DefaultTTL bounds how long a checkout retry can be replayed.
	DefaultTTL = 24 * time.Hour
)

var _ ports.IdempotencyStore = (*IdempotencyStore)(nil)

// IdempotencyStore keeps checkout idempotency keys in Redis with an expiry.
type IdempotencyStore struct {
	client goredis.Cmdable
	ttl    time.Duration
	now    func() time.Time
}

// NewIdempotencyStore wires a Redis-backed store. A non-positive ttl uses DefaultTTL.
func NewIdempotencyStore(client goredis.Cmdable, ttl time.Duration) *IdempotencyStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &IdempotencyStore{client: client, ttl: ttl, now: time.Now}
}

// Get loads a record by key, returning nil when absent or expired.
func (s *IdempotencyStore) Get(ctx context.Context, key string) (*ports.IdempotencyRecord, error) {
	if s == nil || s.client == nil {
		return nil, errors.New("redis idempotency store not configured")
	}
	raw, err := s.client.Get(ctx, keyPrefix+key).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, nil
		}
		return nil, err
	}
	var record ports.IdempotencyRecord
	if err := json.Unmarshal(raw, &record); err != nil {
		return nil, fmt.Errorf("failed to decode idempotency record: %w", err)
	}
	return &record, nil
}

// Claim stores a pending record with SETNX so only one request wins the key. When the
// key is taken the stored record is returned, with ErrIdempotencyConflict if its hash
// differs.
func (s *IdempotencyStore) Claim(ctx context.Context, record ports.IdempotencyRecord) (*ports.IdempotencyRecord, error) {
	if s == nil || s.client == nil {
		return nil, errors.New("redis idempotency store not configured")
	}
	record.OrderID, record.OrderNumber = "", ""
	if record.CreatedAt.IsZero() {
		record.CreatedAt = s.now()
	}
	payload, err := json.Marshal(record)
	if err != nil {
		return nil, err
	}
	stored, err := s.client.SetNX(ctx, keyPrefix+record.Key, payload, s.ttl).Result()
	if err != nil {
		return nil, err
	}
	if stored {
		return nil, nil
	}
	existing, err := s.Get(ctx, record.Key)
	if err != nil {
		return nil, err
	}
	if existing == nil {
		return nil, fmt.Errorf("idempotency key %q expired while claiming", record.Key)
	}
	if existing.RequestHash != record.RequestHash {
		return existing, ports.ErrIdempotencyConflict
	}
	return existing, nil
}

// Complete rewrites a pending claim with its order, keeping the key's expiry.
func (s *IdempotencyStore) Complete(ctx context.Context, key, orderID, orderNumber string) error {
	if s == nil || s.client == nil {
		return errors.New("redis idempotency store not configured")
	}
	existing, err := s.Get(ctx, key)
	if err != nil {
		return err
	}
	if existing == nil || !existing.Pending() {
		return fmt.Errorf("idempotency key %q has no pending claim", key)
	}
	existing.OrderID, existing.OrderNumber = orderID, orderNumber
	payload, err := json.Marshal(existing)
	if err != nil {
		return err
	}
	return s.client.SetArgs(ctx, keyPrefix+key, payload, goredis.SetArgs{Mode: "XX", KeepTTL: true}).Err()
}

// Release deletes the key while it is still pending.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	if s == nil || s.client == nil {
		return errors.New("redis idempotency store not configured")
	}
	existing, err := s.Get(ctx, key)
	if err != nil || existing == nil || !existing.Pending() {
		return err
	}
	return s.client.Del(ctx, keyPrefix+key).Err()
}
