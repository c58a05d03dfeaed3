package wallet

import (
	"time"

	"github.com/google/uuid"
)

// TransactionType classifies a wallet transaction
type TransactionType string

const (
	TransactionTopUp        TransactionType = "topup"
	TransactionTransfer     TransactionType = "transfer"
	TransactionSubscription TransactionType = "subscription"
)

// Entry represents a single wallet ledger entry. An entry of type
// "subscription" within the trailing 30 days marks the owning account
// as actively subscribed.
type Entry struct {
	ID            uuid.UUID       `json:"id"`
	AccountID     uuid.UUID       `json:"account_id"`
	TransactionID uuid.UUID       `json:"transaction_id"`
	Type          TransactionType `json:"type"`
	AmountTokens  int             `json:"amount_tokens"`
	CreatedAt     time.Time       `json:"created_at"`
}
