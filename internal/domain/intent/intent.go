package intent

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrIntentNotFound = errors.New("intent not found for tenant")

// Intent represents a buyer's outreach intent (the request a vendor
// is quoted against)
type Intent struct {
	ID        uuid.UUID `json:"id"`
	TenantID  uuid.UUID `json:"tenant_id"`
	BuyerID   uuid.UUID `json:"buyer_id"`
	Category  string    `json:"category"`
	Summary   string    `json:"summary"`
	CreatedAt time.Time `json:"created_at"`
}
