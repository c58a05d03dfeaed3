package idempotency

import (
	"context"
	"testing"
	"time"

	"github.com/go-redis/redismock/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReserve_FreshKey(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewStore(client, 24*time.Hour)

	mock.ExpectSetNX("idem:quote:abc", pendingMarker, time.Minute).SetVal(true)

	existing, fresh, err := store.Reserve(context.Background(), "abc")

	require.NoError(t, err)
	assert.True(t, fresh)
	assert.Empty(t, existing)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserve_ReplayReturnsStoredQuoteID(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewStore(client, 24*time.Hour)

	mock.ExpectSetNX("idem:quote:abc", pendingMarker, time.Minute).SetVal(false)
	mock.ExpectGet("idem:quote:abc").SetVal("quote-123")

	existing, fresh, err := store.Reserve(context.Background(), "abc")

	require.NoError(t, err)
	assert.False(t, fresh)
	assert.Equal(t, "quote-123", existing)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReserve_InFlightKey(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewStore(client, 24*time.Hour)

	mock.ExpectSetNX("idem:quote:abc", pendingMarker, time.Minute).SetVal(false)
	mock.ExpectGet("idem:quote:abc").SetVal(pendingMarker)

	_, _, err := store.Reserve(context.Background(), "abc")

	assert.ErrorIs(t, err, ErrRequestInFlight)
}

func TestComplete_StoresQuoteID(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewStore(client, 24*time.Hour)

	mock.ExpectSet("idem:quote:abc", "quote-123", 24*time.Hour).SetVal("OK")

	err := store.Complete(context.Background(), "abc", "quote-123")

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRelease_DropsMarker(t *testing.T) {
	client, mock := redismock.NewClientMock()
	store := NewStore(client, 24*time.Hour)

	mock.ExpectDel("idem:quote:abc").SetVal(1)

	err := store.Release(context.Background(), "abc")

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
