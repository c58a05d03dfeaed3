package candidate

import "context"

// MetricsRepository defines the interface for driver metrics access
type MetricsRepository interface {
	// GetBatch fetches metrics for all given user IDs in one query.
	// Users without a metrics row are simply absent from the result map.
	GetBatch(ctx context.Context, userIDs []string) (map[string]DriverMetrics, error)
}
