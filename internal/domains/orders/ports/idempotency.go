package ports

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrIdempotencyConflict indicates the same key was used with a different payload.
	ErrIdempotencyConflict = errors.New("idempotency conflict")
	// ErrIdempotencyInProgress indicates another request holds the key and has not finished.
	ErrIdempotencyInProgress = errors.New("idempotency key is in use by a request in progress")
)

// IdempotencyRecord ties a client-supplied key to the order it produced. OrderID and
// OrderNumber stay empty while the claiming request is still running.
type IdempotencyRecord struct {
	Key         string
	RequestHash string
	OrderID     string
	OrderNumber string
	CreatedAt   time.Time
}

// Pending reports whether the claiming request has not recorded its order yet.
func (r IdempotencyRecord) Pending() bool {
	return r.OrderID == ""
}

// IdempotencyStore persists idempotency keys so checkout retries can be replayed safely.
type IdempotencyStore interface {
	// Get returns the stored record for the key, or nil when unknown.
	Get(ctx context.Context, key string) (*IdempotencyRecord, error)
	// Claim atomically stores a pending record when the key is free and returns nil.
	// When the key is taken the stored record is returned, together with
	// ErrIdempotencyConflict if its hash differs.
	Claim(ctx context.Context, record IdempotencyRecord) (*IdempotencyRecord, error)
	// Complete attaches the created order to a pending claim.
	Complete(ctx context.Context, key, orderID, orderNumber string) error
	// Release drops a pending claim so the key can be retried after a rejected request.
	Release(ctx context.Context, key string) error
}
