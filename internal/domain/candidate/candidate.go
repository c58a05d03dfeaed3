package candidate

// Candidate represents a single driver/trip pairing being scored
type Candidate struct {
	TripID             string  `json:"trip_id"`
	UserID             string  `json:"user_id"`
	DistanceKm         float64 `json:"distance_km"`
	LocationAgeMinutes float64 `json:"location_age_minutes"`
	VehicleType        string  `json:"vehicle_type"`
}

// DriverMetrics holds aggregate historical performance for a driver.
// Rating and acceptance rate are pointers because new drivers have no
// history yet; absence is meaningful and must not read as zero.
type DriverMetrics struct {
	AvgRating      *float64 `json:"avg_rating"`
	AcceptanceRate *float64 `json:"acceptance_rate"`
	TotalTrips     int      `json:"total_trips"`
	CompletedTrips int      `json:"completed_trips"`
}

// IsValid validates the metrics invariants
func (m *DriverMetrics) IsValid() error {
	if m.CompletedTrips > m.TotalTrips {
		return ErrInvalidMetrics
	}
	if m.AvgRating != nil && (*m.AvgRating < 0 || *m.AvgRating > 5) {
		return ErrInvalidMetrics
	}
	if m.AcceptanceRate != nil && (*m.AcceptanceRate < 0 || *m.AcceptanceRate > 100) {
		return ErrInvalidMetrics
	}
	return nil
}

// MetricsSnapshot is the display view of the metrics used in scoring.
// Acceptance and completion fall back to 100 / 80 when no history exists;
// the rating is echoed as-is and stays null for new drivers.
type MetricsSnapshot struct {
	AvgRating      *float64 `json:"avg_rating"`
	AcceptanceRate float64  `json:"acceptance_rate"`
	CompletionRate float64  `json:"completion_rate"`
}

// Ranked is a scored candidate with its 1-based position
type Ranked struct {
	Candidate
	Score   float64         `json:"score"`
	Rank    int             `json:"rank"`
	Metrics MetricsSnapshot `json:"metrics"`
}

// IsValid validates the candidate entity
func (c *Candidate) IsValid() error {
	if c.TripID == "" {
		return ErrInvalidTripID
	}
	if c.UserID == "" {
		return ErrInvalidUserID
	}
	if c.DistanceKm < 0 {
		return ErrInvalidDistance
	}
	if c.LocationAgeMinutes < 0 {
		return ErrInvalidLocationAge
	}
	return nil
}
