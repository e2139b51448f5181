package domain

import "time"

// Status enumerates order progression.
type Status string

const (
	StatusPending   Status = "pending"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// OpenStatuses are the states the progression sweep examines.
var OpenStatuses = []Status{StatusPending, StatusShipped}

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusShipped, StatusDelivered, StatusCancelled:
		return true
	default:
		return false
	}
}

// Terminal reports whether no further transitions are possible.
func (s Status) Terminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// CanTransitionTo allows only the forward edges of the lifecycle. Cancellation is
// owned by an external actor and never produced here.
func (s Status) CanTransitionTo(next Status) bool {
	switch s {
	case StatusPending:
		return next == StatusShipped
	case StatusShipped:
		return next == StatusDelivered
	default:
		return false
	}
}

const (
	DefaultShipAfter    = 24 * time.Hour
	DefaultDeliverAfter = 72 * time.Hour
)

// ProgressionPolicy holds the age thresholds measured from order creation.
type ProgressionPolicy struct {
	ShipAfter    time.Duration
	DeliverAfter time.Duration
}

// DefaultProgressionPolicy ships after a day and delivers after three.
func DefaultProgressionPolicy() ProgressionPolicy {
	return ProgressionPolicy{ShipAfter: DefaultShipAfter, DeliverAfter: DefaultDeliverAfter}
}

// Next returns the status an order of the given age should hold after one step, and
// whether that differs from the current one. At most one step is taken per call.
func (p ProgressionPolicy) Next(current Status, age time.Duration) (Status, bool) {
	switch {
	case current == StatusPending && age >= p.ShipAfter:
		return StatusShipped, true
	case current == StatusShipped && age >= p.DeliverAfter:
		return StatusDelivered, true
	default:
		return current, false
	}
}
