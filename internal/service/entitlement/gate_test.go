package entitlement

import (
	"context"
	"testing"
	"time"

	"github.com/easymo/marketplace-core/internal/domain/intent"
	"github.com/easymo/marketplace-core/internal/domain/quote"
	"github.com/easymo/marketplace-core/internal/domain/vendor"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeStore implements Store in memory, replaying the gate re-check the
// way the Postgres store does under the vendor row lock
type fakeStore struct {
	vendors       map[uuid.UUID]*vendor.Vendor
	intents       map[uuid.UUID]uuid.UUID // intentID -> tenantID
	settings      map[uuid.UUID]*vendor.Settings
	quoteTimes    map[uuid.UUID][]time.Time // vendorID -> creation times
	subscriptions map[uuid.UUID][]time.Time // walletAccountID -> entry times
	inserted      []*quote.Quote
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		vendors:       make(map[uuid.UUID]*vendor.Vendor),
		intents:       make(map[uuid.UUID]uuid.UUID),
		settings:      make(map[uuid.UUID]*vendor.Settings),
		quoteTimes:    make(map[uuid.UUID][]time.Time),
		subscriptions: make(map[uuid.UUID][]time.Time),
	}
}

func (f *fakeStore) GetVendor(_ context.Context, tenantID, vendorID uuid.UUID) (*vendor.Vendor, error) {
	v, ok := f.vendors[vendorID]
	if !ok || v.TenantID != tenantID {
		return nil, vendor.ErrVendorNotFound
	}
	return v, nil
}

func (f *fakeStore) IntentExists(_ context.Context, tenantID, intentID uuid.UUID) (bool, error) {
	owner, ok := f.intents[intentID]
	return ok && owner == tenantID, nil
}

func (f *fakeStore) GetSettings(_ context.Context, tenantID uuid.UUID) (*vendor.Settings, error) {
	return f.settings[tenantID], nil
}

func (f *fakeStore) CountQuotesSince(_ context.Context, vendorID uuid.UUID, since time.Time) (int, error) {
	count := 0
	for _, created := range f.quoteTimes[vendorID] {
		if !created.Before(since) {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) HasActiveSubscription(_ context.Context, walletAccountID uuid.UUID, since time.Time) (bool, error) {
	for _, created := range f.subscriptions[walletAccountID] {
		if !created.Before(since) {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) InsertQuote(ctx context.Context, q *quote.Quote, walletAccountID uuid.UUID, gate Gate) error {
	recent, _ := f.CountQuotesSince(ctx, q.VendorID, gate.WindowStart)
	subscribed, _ := f.HasActiveSubscription(ctx, walletAccountID, gate.SubscriptionFrom)
	if recent >= gate.FreeContacts && !subscribed {
		return ErrSubscriptionRequired
	}
	f.inserted = append(f.inserted, q)
	f.quoteTimes[q.VendorID] = append(f.quoteTimes[q.VendorID], q.CreatedAt)
	f.vendors[q.VendorID].TotalTrips++
	return nil
}

type fixture struct {
	service  *Service
	store    *fakeStore
	tenantID uuid.UUID
	vendorID uuid.UUID
	walletID uuid.UUID
	intentID uuid.UUID
	now      time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		store:    newFakeStore(),
		tenantID: uuid.New(),
		vendorID: uuid.New(),
		walletID: uuid.New(),
		intentID: uuid.New(),
		now:      time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC),
	}
	f.store.vendors[f.vendorID] = &vendor.Vendor{
		ID:              f.vendorID,
		TenantID:        f.tenantID,
		Name:            "Moto Express",
		WalletAccountID: f.walletID,
	}
	f.store.intents[f.intentID] = f.tenantID
	f.service = NewService(f.store, nil, Config{})
	f.service.now = func() time.Time { return f.now }
	return f
}

func (f *fixture) addQuotes(n int, age time.Duration) {
	for i := 0; i < n; i++ {
		f.store.quoteTimes[f.vendorID] = append(f.store.quoteTimes[f.vendorID], f.now.Add(-age))
	}
}

func (f *fixture) quoteInput() CreateQuoteInput {
	return CreateQuoteInput{
		TenantID: f.tenantID,
		VendorID: f.vendorID,
		IntentID: f.intentID,
		Price:    1500,
		Currency: "RWF",
	}
}

// TestGetEntitlement_FreshVendor tests the untouched default quota
func TestGetEntitlement_FreshVendor(t *testing.T) {
	f := newFixture(t)

	ent, err := f.service.GetEntitlement(context.Background(), f.tenantID, f.vendorID)

	require.NoError(t, err)
	assert.Equal(t, DefaultFreeContacts, ent.FreeRemaining)
	assert.False(t, ent.Subscribed)
	assert.True(t, ent.Allowed)
	assert.Equal(t, f.now.AddDate(0, 0, -DefaultWindowDays), ent.WindowStart)
}

// TestGetEntitlement_QuotaExhausted tests 30 quotes a day old, no subscription
func TestGetEntitlement_QuotaExhausted(t *testing.T) {
	f := newFixture(t)
	f.addQuotes(30, 24*time.Hour)

	ent, err := f.service.GetEntitlement(context.Background(), f.tenantID, f.vendorID)

	require.NoError(t, err)
	assert.Equal(t, 0, ent.FreeRemaining)
	assert.False(t, ent.Subscribed)
	assert.False(t, ent.Allowed)
}

// TestGetEntitlement_SubscriptionOverridesQuota tests the wallet override
func TestGetEntitlement_SubscriptionOverridesQuota(t *testing.T) {
	f := newFixture(t)
	f.addQuotes(30, 24*time.Hour)
	f.store.subscriptions[f.walletID] = []time.Time{f.now.AddDate(0, 0, -10)}

	ent, err := f.service.GetEntitlement(context.Background(), f.tenantID, f.vendorID)

	require.NoError(t, err)
	assert.Equal(t, 0, ent.FreeRemaining)
	assert.True(t, ent.Subscribed)
	assert.True(t, ent.Allowed)
}

// TestGetEntitlement_ExpiredSubscription tests the fixed 30-day lookback
func TestGetEntitlement_ExpiredSubscription(t *testing.T) {
	f := newFixture(t)
	f.addQuotes(30, 24*time.Hour)
	f.store.subscriptions[f.walletID] = []time.Time{f.now.AddDate(0, 0, -31)}

	ent, err := f.service.GetEntitlement(context.Background(), f.tenantID, f.vendorID)

	require.NoError(t, err)
	assert.False(t, ent.Subscribed)
	assert.False(t, ent.Allowed)
}

// TestGetEntitlement_QuotesOutsideWindowIgnored tests the rolling window
func TestGetEntitlement_QuotesOutsideWindowIgnored(t *testing.T) {
	f := newFixture(t)
	f.addQuotes(30, 31*24*time.Hour)

	ent, err := f.service.GetEntitlement(context.Background(), f.tenantID, f.vendorID)

	require.NoError(t, err)
	assert.Equal(t, DefaultFreeContacts, ent.FreeRemaining)
	assert.True(t, ent.Allowed)
}

// TestGetEntitlement_TenantSettingsOverrideDefaults tests the settings row
func TestGetEntitlement_TenantSettingsOverrideDefaults(t *testing.T) {
	f := newFixture(t)
	f.store.settings[f.tenantID] = &vendor.Settings{FreeContacts: 5, WindowDays: 7, SubscriptionTokens: 4}
	f.addQuotes(3, 24*time.Hour)
	f.addQuotes(10, 8*24*time.Hour) // outside the 7-day window

	ent, err := f.service.GetEntitlement(context.Background(), f.tenantID, f.vendorID)

	require.NoError(t, err)
	assert.Equal(t, 2, ent.FreeRemaining)
	assert.Equal(t, f.now.AddDate(0, 0, -7), ent.WindowStart)
}

// TestGetEntitlement_CrossTenantVendor tests tenant scoping
func TestGetEntitlement_CrossTenantVendor(t *testing.T) {
	f := newFixture(t)

	_, err := f.service.GetEntitlement(context.Background(), uuid.New(), f.vendorID)

	assert.ErrorIs(t, err, vendor.ErrVendorNotFound)
}

// TestGetEntitlement_FreeRemainingNeverNegative tests over-quota clamping
func TestGetEntitlement_FreeRemainingNeverNegative(t *testing.T) {
	f := newFixture(t)
	f.addQuotes(45, 24*time.Hour)

	ent, err := f.service.GetEntitlement(context.Background(), f.tenantID, f.vendorID)

	require.NoError(t, err)
	assert.Equal(t, 0, ent.FreeRemaining)
}

// TestCreateQuote_Success tests the happy path side effects
func TestCreateQuote_Success(t *testing.T) {
	f := newFixture(t)

	q, err := f.service.CreateQuote(context.Background(), f.quoteInput())

	require.NoError(t, err)
	assert.Equal(t, quote.StatusPending, q.Status)
	assert.Equal(t, f.vendorID, q.VendorID)
	require.Len(t, f.store.inserted, 1)
	assert.Equal(t, 1, f.store.vendors[f.vendorID].TotalTrips)
}

// TestCreateQuote_DeniedWithoutSubscription tests entitlement denial
func TestCreateQuote_DeniedWithoutSubscription(t *testing.T) {
	f := newFixture(t)
	f.addQuotes(30, 24*time.Hour)

	_, err := f.service.CreateQuote(context.Background(), f.quoteInput())

	assert.ErrorIs(t, err, ErrSubscriptionRequired)
	assert.Empty(t, f.store.inserted, "denial must not insert a quote")
	assert.Equal(t, 0, f.store.vendors[f.vendorID].TotalTrips, "denial must not touch the counter")
}

// TestCreateQuote_SubscribedVendorBypassesQuota tests the override path
func TestCreateQuote_SubscribedVendorBypassesQuota(t *testing.T) {
	f := newFixture(t)
	f.addQuotes(30, 24*time.Hour)
	f.store.subscriptions[f.walletID] = []time.Time{f.now.AddDate(0, 0, -10)}

	q, err := f.service.CreateQuote(context.Background(), f.quoteInput())

	require.NoError(t, err)
	assert.Equal(t, quote.StatusPending, q.Status)
	require.Len(t, f.store.inserted, 1)
}

// TestCreateQuote_MissingIntent tests the distinct not-found error
func TestCreateQuote_MissingIntent(t *testing.T) {
	f := newFixture(t)
	input := f.quoteInput()
	input.IntentID = uuid.New()

	_, err := f.service.CreateQuote(context.Background(), input)

	assert.ErrorIs(t, err, intent.ErrIntentNotFound)
	assert.NotErrorIs(t, err, ErrSubscriptionRequired)
	assert.Empty(t, f.store.inserted)
}

// TestCreateQuote_MissingVendor tests vendor precondition failure
func TestCreateQuote_MissingVendor(t *testing.T) {
	f := newFixture(t)
	input := f.quoteInput()
	input.VendorID = uuid.New()

	_, err := f.service.CreateQuote(context.Background(), input)

	assert.ErrorIs(t, err, vendor.ErrVendorNotFound)
	assert.Empty(t, f.store.inserted)
}

// TestCreateQuote_ReflectedInNextEntitlement tests count freshness
func TestCreateQuote_ReflectedInNextEntitlement(t *testing.T) {
	f := newFixture(t)

	before, err := f.service.GetEntitlement(context.Background(), f.tenantID, f.vendorID)
	require.NoError(t, err)

	_, err = f.service.CreateQuote(context.Background(), f.quoteInput())
	require.NoError(t, err)

	after, err := f.service.GetEntitlement(context.Background(), f.tenantID, f.vendorID)
	require.NoError(t, err)
	assert.Equal(t, before.FreeRemaining-1, after.FreeRemaining)
}

// TestCreateQuote_InvalidPrice tests input validation
func TestCreateQuote_InvalidPrice(t *testing.T) {
	f := newFixture(t)
	input := f.quoteInput()
	input.Price = 0

	_, err := f.service.CreateQuote(context.Background(), input)

	assert.ErrorIs(t, err, quote.ErrInvalidPrice)
	assert.Empty(t, f.store.inserted)
}
