package entitlement

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/easymo/marketplace-core/internal/domain/intent"
	"github.com/easymo/marketplace-core/internal/domain/quote"
	"github.com/easymo/marketplace-core/internal/domain/vendor"
	"github.com/easymo/marketplace-core/pkg/logger"
	"github.com/google/uuid"
)

// Tenant fallbacks, applied when no settings row exists. Config absence
// is not an error. The subscription lookback is fixed and independent of
// the tenant-configurable quote window.
const (
	DefaultFreeContacts       = 30
	DefaultWindowDays         = 30
	DefaultSubscriptionTokens = 4
	SubscriptionWindowDays    = 30
)

// Entitlement is the computed permission state for one vendor
type Entitlement struct {
	FreeRemaining int       `json:"free_remaining"`
	Subscribed    bool      `json:"subscribed"`
	Allowed       bool      `json:"allowed"`
	WindowStart   time.Time `json:"window_start"`
}

// Gate captures the policy inputs the store re-checks inside the quote
// insert transaction.
type Gate struct {
	FreeContacts     int
	WindowStart      time.Time
	SubscriptionFrom time.Time
}

// CreateQuoteInput carries the caller-supplied quote fields
type CreateQuoteInput struct {
	TenantID   uuid.UUID
	VendorID   uuid.UUID
	IntentID   uuid.UUID
	Price      float64
	Currency   string
	ETAMinutes *int
}

// Store defines the data access the gate depends on
type Store interface {
	// GetVendor resolves a vendor scoped to its tenant; cross-tenant IDs
	// fail with vendor.ErrVendorNotFound.
	GetVendor(ctx context.Context, tenantID, vendorID uuid.UUID) (*vendor.Vendor, error)

	// IntentExists reports whether the intent belongs to the tenant
	IntentExists(ctx context.Context, tenantID, intentID uuid.UUID) (bool, error)

	// GetSettings returns the tenant's settings row, or nil when none exists
	GetSettings(ctx context.Context, tenantID uuid.UUID) (*vendor.Settings, error)

	// CountQuotesSince counts quotes for the vendor created at or after since
	CountQuotesSince(ctx context.Context, vendorID uuid.UUID, since time.Time) (int, error)

	// HasActiveSubscription reports whether a subscription wallet entry
	// exists for the account at or after since
	HasActiveSubscription(ctx context.Context, walletAccountID uuid.UUID, since time.Time) (bool, error)

	// InsertQuote atomically re-checks the gate and persists the quote,
	// incrementing the vendor's lifetime trip counter in the same
	// transaction. Returns ErrSubscriptionRequired when the re-check
	// denies, leaving no partial writes behind.
	InsertQuote(ctx context.Context, q *quote.Quote, walletAccountID uuid.UUID, gate Gate) error
}

// Config overrides the package fallbacks for tenants without a settings
// row. Zero values mean the named defaults.
type Config struct {
	FreeContacts       int
	WindowDays         int
	SubscriptionTokens int
}

// Service enforces the first-N-contacts-free-then-subscribe policy
type Service struct {
	store  Store
	logger *logger.Logger
	config Config
	now    func() time.Time
}

// NewService creates a new entitlement service
func NewService(store Store, log *logger.Logger, cfg Config) *Service {
	if cfg.FreeContacts <= 0 {
		cfg.FreeContacts = DefaultFreeContacts
	}
	if cfg.WindowDays <= 0 {
		cfg.WindowDays = DefaultWindowDays
	}
	if cfg.SubscriptionTokens <= 0 {
		cfg.SubscriptionTokens = DefaultSubscriptionTokens
	}
	return &Service{
		store:  store,
		logger: log,
		config: cfg,
		now:    time.Now,
	}
}

// GetEntitlement computes the vendor's current contact permission.
// Read-only: checking never consumes a free slot.
func (s *Service) GetEntitlement(ctx context.Context, tenantID, vendorID uuid.UUID) (*Entitlement, error) {
	v, err := s.store.GetVendor(ctx, tenantID, vendorID)
	if err != nil {
		return nil, err
	}

	settings, err := s.settingsFor(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	windowStart := now.AddDate(0, 0, -settings.WindowDays)

	recent, err := s.store.CountQuotesSince(ctx, vendorID, windowStart)
	if err != nil {
		return nil, fmt.Errorf("failed to count recent quotes: %w", err)
	}

	subscribed, err := s.store.HasActiveSubscription(ctx, v.WalletAccountID, now.AddDate(0, 0, -SubscriptionWindowDays))
	if err != nil {
		return nil, fmt.Errorf("failed to check subscription: %w", err)
	}

	freeRemaining := settings.FreeContacts - recent
	if freeRemaining < 0 {
		freeRemaining = 0
	}

	return &Entitlement{
		FreeRemaining: freeRemaining,
		Subscribed:    subscribed,
		Allowed:       freeRemaining > 0 || subscribed,
		WindowStart:   windowStart,
	}, nil
}

// CreateQuote validates preconditions, re-checks entitlement inside the
// store transaction and persists the quote. Denial surfaces as
// ErrSubscriptionRequired, distinct from the not-found failures.
func (s *Service) CreateQuote(ctx context.Context, input CreateQuoteInput) (*quote.Quote, error) {
	exists, err := s.store.IntentExists(ctx, input.TenantID, input.IntentID)
	if err != nil {
		return nil, err
	}
	if !exists {
		return nil, intent.ErrIntentNotFound
	}

	v, err := s.store.GetVendor(ctx, input.TenantID, input.VendorID)
	if err != nil {
		return nil, err
	}

	settings, err := s.settingsFor(ctx, input.TenantID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	q := &quote.Quote{
		ID:         uuid.New(),
		TenantID:   input.TenantID,
		VendorID:   input.VendorID,
		IntentID:   input.IntentID,
		Price:      input.Price,
		Currency:   input.Currency,
		ETAMinutes: input.ETAMinutes,
		Status:     quote.StatusPending,
		CreatedAt:  now,
	}
	if err := q.IsValid(); err != nil {
		return nil, err
	}

	gate := Gate{
		FreeContacts:     settings.FreeContacts,
		WindowStart:      now.AddDate(0, 0, -settings.WindowDays),
		SubscriptionFrom: now.AddDate(0, 0, -SubscriptionWindowDays),
	}

	if err := s.store.InsertQuote(ctx, q, v.WalletAccountID, gate); err != nil {
		if errors.Is(err, ErrSubscriptionRequired) && s.logger != nil {
			s.logger.Info("Quote denied, subscription required",
				logger.String("tenant_id", input.TenantID.String()),
				logger.String("vendor_id", input.VendorID.String()),
			)
		}
		return nil, err
	}

	if s.logger != nil {
		s.logger.Info("Quote created",
			logger.String("quote_id", q.ID.String()),
			logger.String("vendor_id", input.VendorID.String()),
			logger.Float64("price", input.Price),
			logger.String("currency", input.Currency),
		)
	}

	return q, nil
}

// settingsFor loads tenant settings, falling back to the named defaults
func (s *Service) settingsFor(ctx context.Context, tenantID uuid.UUID) (*vendor.Settings, error) {
	settings, err := s.store.GetSettings(ctx, tenantID)
	if err != nil {
		return nil, fmt.Errorf("failed to load tenant settings: %w", err)
	}
	if settings == nil {
		return &vendor.Settings{
			FreeContacts:       s.config.FreeContacts,
			WindowDays:         s.config.WindowDays,
			SubscriptionTokens: s.config.SubscriptionTokens,
		}, nil
	}
	return settings, nil
}
