package postgres

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetBatch_SingleQueryForAllUsers(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewMetricsRepository(db)
	userIDs := []string{"u1", "u2", "u3"}

	mock.ExpectQuery(regexp.QuoteMeta("FROM driver_metrics")).
		WithArgs(pq.Array(userIDs)).
		WillReturnRows(sqlmock.NewRows([]string{
			"user_id", "avg_rating", "acceptance_rate", "total_trips", "completed_trips",
		}).
			AddRow("u1", 4.5, 92.0, 100, 95).
			AddRow("u2", nil, nil, 0, 0))

	metrics, err := repo.GetBatch(context.Background(), userIDs)

	require.NoError(t, err)
	require.Len(t, metrics, 2)

	u1 := metrics["u1"]
	require.NotNil(t, u1.AvgRating)
	assert.Equal(t, 4.5, *u1.AvgRating)
	require.NotNil(t, u1.AcceptanceRate)
	assert.Equal(t, 92.0, *u1.AcceptanceRate)
	assert.Equal(t, 100, u1.TotalTrips)

	// Null columns stay absent rather than reading as zero
	u2 := metrics["u2"]
	assert.Nil(t, u2.AvgRating)
	assert.Nil(t, u2.AcceptanceRate)

	// u3 has no row at all and is simply missing
	_, ok := metrics["u3"]
	assert.False(t, ok)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetBatch_EmptyInputSkipsQuery(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	repo := NewMetricsRepository(db)

	metrics, err := repo.GetBatch(context.Background(), nil)

	require.NoError(t, err)
	assert.Empty(t, metrics)
	assert.NoError(t, mock.ExpectationsWereMet())
}
