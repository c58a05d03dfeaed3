package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/easymo/marketplace-core/internal/domain/quote"
	"github.com/easymo/marketplace-core/internal/domain/vendor"
	"github.com/easymo/marketplace-core/internal/service/entitlement"
)

// MarketplaceRepository implements entitlement.Store on Postgres
type MarketplaceRepository struct {
	db *sql.DB
}

// NewMarketplaceRepository creates a new marketplace repository
func NewMarketplaceRepository(db *sql.DB) *MarketplaceRepository {
	return &MarketplaceRepository{db: db}
}

// GetVendor resolves a vendor scoped to its tenant
func (r *MarketplaceRepository) GetVendor(ctx context.Context, tenantID, vendorID uuid.UUID) (*vendor.Vendor, error) {
	var v vendor.Vendor
	err := r.db.QueryRowContext(ctx, `
		SELECT id, tenant_id, name, phone, wallet_account_id, total_trips, created_at, updated_at
		FROM vendors
		WHERE id = $1 AND tenant_id = $2
	`, vendorID, tenantID).Scan(
		&v.ID, &v.TenantID, &v.Name, &v.Phone, &v.WalletAccountID,
		&v.TotalTrips, &v.CreatedAt, &v.UpdatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, vendor.ErrVendorNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get vendor: %w", err)
	}
	return &v, nil
}

// IntentExists reports whether the intent belongs to the tenant
func (r *MarketplaceRepository) IntentExists(ctx context.Context, tenantID, intentID uuid.UUID) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS(SELECT 1 FROM intents WHERE id = $1 AND tenant_id = $2)
	`, intentID, tenantID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check intent: %w", err)
	}
	return exists, nil
}

// GetSettings returns the tenant settings row, or nil when none exists
func (r *MarketplaceRepository) GetSettings(ctx context.Context, tenantID uuid.UUID) (*vendor.Settings, error) {
	var s vendor.Settings
	err := r.db.QueryRowContext(ctx, `
		SELECT free_contacts, window_days, subscription_tokens
		FROM tenant_settings
		WHERE tenant_id = $1
	`, tenantID).Scan(&s.FreeContacts, &s.WindowDays, &s.SubscriptionTokens)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get tenant settings: %w", err)
	}
	return &s, nil
}

// CountQuotesSince counts quotes created at or after since (inclusive)
func (r *MarketplaceRepository) CountQuotesSince(ctx context.Context, vendorID uuid.UUID, since time.Time) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM quotes WHERE vendor_id = $1 AND created_at >= $2
	`, vendorID, since).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count quotes: %w", err)
	}
	return count, nil
}

// HasActiveSubscription checks for a subscription wallet entry within
// the lookback window
func (r *MarketplaceRepository) HasActiveSubscription(ctx context.Context, walletAccountID uuid.UUID, since time.Time) (bool, error) {
	var exists bool
	err := r.db.QueryRowContext(ctx, `
		SELECT EXISTS(
			SELECT 1
			FROM wallet_entries we
			JOIN wallet_transactions wt ON wt.id = we.transaction_id
			WHERE we.account_id = $1 AND wt.type = 'subscription' AND we.created_at >= $2
		)
	`, walletAccountID, since).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("failed to check subscription: %w", err)
	}
	return exists, nil
}

// InsertQuote re-checks the gate and persists the quote in one
// transaction. The vendor row lock serializes concurrent count-then-insert
// attempts for the same vendor, so two racing requests cannot both burn
// the last free slot.
func (r *MarketplaceRepository) InsertQuote(ctx context.Context, q *quote.Quote, walletAccountID uuid.UUID, gate entitlement.Gate) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	var lockedTrips int
	err = tx.QueryRowContext(ctx, `
		SELECT total_trips FROM vendors WHERE id = $1 FOR UPDATE
	`, q.VendorID).Scan(&lockedTrips)
	if errors.Is(err, sql.ErrNoRows) {
		return vendor.ErrVendorNotFound
	}
	if err != nil {
		return fmt.Errorf("failed to lock vendor row: %w", err)
	}

	var recent int
	err = tx.QueryRowContext(ctx, `
		SELECT COUNT(*) FROM quotes WHERE vendor_id = $1 AND created_at >= $2
	`, q.VendorID, gate.WindowStart).Scan(&recent)
	if err != nil {
		return fmt.Errorf("failed to count quotes in transaction: %w", err)
	}

	if recent >= gate.FreeContacts {
		var subscribed bool
		err = tx.QueryRowContext(ctx, `
			SELECT EXISTS(
				SELECT 1
				FROM wallet_entries we
				JOIN wallet_transactions wt ON wt.id = we.transaction_id
				WHERE we.account_id = $1 AND wt.type = 'subscription' AND we.created_at >= $2
			)
		`, walletAccountID, gate.SubscriptionFrom).Scan(&subscribed)
		if err != nil {
			return fmt.Errorf("failed to check subscription in transaction: %w", err)
		}
		if !subscribed {
			return entitlement.ErrSubscriptionRequired
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO quotes (id, tenant_id, vendor_id, intent_id, price, currency, eta_minutes, status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`, q.ID, q.TenantID, q.VendorID, q.IntentID, q.Price, q.Currency, q.ETAMinutes, q.Status, q.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to insert quote: %w", err)
	}

	_, err = tx.ExecContext(ctx, `
		UPDATE vendors SET total_trips = total_trips + 1, updated_at = NOW() WHERE id = $1
	`, q.VendorID)
	if err != nil {
		return fmt.Errorf("failed to increment vendor trip counter: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit quote transaction: %w", err)
	}
	return nil
}
