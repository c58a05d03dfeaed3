package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/easymo/marketplace-core/internal/domain/candidate"
)

// MetricsRepository reads aggregate driver performance from Postgres
type MetricsRepository struct {
	db *sql.DB
}

// NewMetricsRepository creates a new metrics repository
func NewMetricsRepository(db *sql.DB) *MetricsRepository {
	return &MetricsRepository{db: db}
}

// GetBatch fetches metrics for all user IDs in a single query. Users
// without a metrics row are absent from the result; scoring treats them
// as new drivers.
func (r *MetricsRepository) GetBatch(ctx context.Context, userIDs []string) (map[string]candidate.DriverMetrics, error) {
	result := make(map[string]candidate.DriverMetrics, len(userIDs))
	if len(userIDs) == 0 {
		return result, nil
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT user_id, avg_rating, acceptance_rate, total_trips, completed_trips
		FROM driver_metrics
		WHERE user_id = ANY($1)
	`, pq.Array(userIDs))
	if err != nil {
		return nil, fmt.Errorf("failed to query driver metrics: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			userID         string
			avgRating      sql.NullFloat64
			acceptanceRate sql.NullFloat64
			m              candidate.DriverMetrics
		)
		if err := rows.Scan(&userID, &avgRating, &acceptanceRate, &m.TotalTrips, &m.CompletedTrips); err != nil {
			return nil, fmt.Errorf("failed to scan driver metrics: %w", err)
		}
		if avgRating.Valid {
			m.AvgRating = &avgRating.Float64
		}
		if acceptanceRate.Valid {
			m.AcceptanceRate = &acceptanceRate.Float64
		}
		result[userID] = m
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read driver metrics: %w", err)
	}

	return result, nil
}
