package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/Apurer/go-gin-storefront-api/internal/domains/orders/ports"
)

var _ ports.IdempotencyStore = (*IdempotencyStore)(nil)

// IdempotencyStore provides an in-memory implementation for development and tests.
type IdempotencyStore struct {
	mu      sync.RWMutex
	records map[string]ports.IdempotencyRecord
	now     func() time.Time
}

// NewIdempotencyStore constructs an empty in-memory store.
func NewIdempotencyStore() *IdempotencyStore {
	return &IdempotencyStore{
		records: map[string]ports.IdempotencyRecord{},
		now:     time.Now,
	}
}

// WithClock overrides the time source for deterministic testing.
func (s *IdempotencyStore) WithClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

// Get returns the stored record for the provided key, or nil when absent.
func (s *IdempotencyStore) Get(_ context.Context, key string) (*ports.IdempotencyRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.records[key]
	if !ok {
		return nil, nil
	}
	copy := record
	return &copy, nil
}

// Claim stores a pending record when the key is free, otherwise returns the stored one.
func (s *IdempotencyStore) Claim(_ context.Context, record ports.IdempotencyRecord) (*ports.IdempotencyRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.records[record.Key]; ok {
		copy := existing
		if existing.RequestHash != record.RequestHash {
			return &copy, ports.ErrIdempotencyConflict
		}
		return &copy, nil
	}

	record.OrderID, record.OrderNumber = "", ""
	record.CreatedAt = s.now()
	s.records[record.Key] = record
	return nil, nil
}

// Complete records the order produced under a pending claim.
func (s *IdempotencyStore) Complete(_ context.Context, key, orderID, orderNumber string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	record, ok := s.records[key]
	if !ok {
		return fmt.Errorf("idempotency key %q is not claimed", key)
	}
	if !record.Pending() {
		return fmt.Errorf("idempotency key %q already completed", key)
	}
	record.OrderID, record.OrderNumber = orderID, orderNumber
	s.records[key] = record
	return nil
}

// Release removes a pending claim. Completed records are kept.
func (s *IdempotencyStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if record, ok := s.records[key]; ok && record.Pending() {
		delete(s.records, key)
	}
	return nil
}
