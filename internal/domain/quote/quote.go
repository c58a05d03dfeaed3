package quote

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Status represents the quote lifecycle state
type Status string

const (
	StatusPending  Status = "pending"
	StatusAccepted Status = "accepted"
	StatusDeclined Status = "declined"
	StatusExpired  Status = "expired"
)

// Quote represents a vendor quote against a buyer intent.
// A quote is created once per outreach attempt and never mutated by
// the entitlement logic; status transitions happen elsewhere.
type Quote struct {
	ID         uuid.UUID `json:"id"`
	TenantID   uuid.UUID `json:"tenant_id"`
	VendorID   uuid.UUID `json:"vendor_id"`
	IntentID   uuid.UUID `json:"intent_id"`
	Price      float64   `json:"price"`
	Currency   string    `json:"currency"`
	ETAMinutes *int      `json:"eta_minutes,omitempty"`
	Status     Status    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

var (
	ErrQuoteNotFound = errors.New("quote not found")
	ErrInvalidPrice  = errors.New("price must be positive")
)

// IsValid validates the status
func (s Status) IsValid() bool {
	switch s {
	case StatusPending, StatusAccepted, StatusDeclined, StatusExpired:
		return true
	}
	return false
}

// IsValid validates the quote entity
func (q *Quote) IsValid() error {
	if q.Price <= 0 {
		return ErrInvalidPrice
	}
	if !q.Status.IsValid() {
		return errors.New("invalid quote status")
	}
	return nil
}
