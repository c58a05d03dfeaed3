package dto

import (
	"time"

	"github.com/google/uuid"

	"github.com/easymo/marketplace-core/internal/domain/candidate"
)

// CandidateRequest represents one driver candidate to be ranked
type CandidateRequest struct {
	TripID             string  `json:"trip_id" binding:"required"`
	UserID             string  `json:"user_id" binding:"required"`
	DistanceKm         float64 `json:"distance_km" binding:"min=0"`
	LocationAgeMinutes float64 `json:"location_age_minutes" binding:"min=0"`
	VehicleType        string  `json:"vehicle_type"`
}

// RankDriversRequest represents a request to rank driver candidates
type RankDriversRequest struct {
	Candidates []CandidateRequest `json:"candidates"`
	Strategy   string             `json:"strategy"`
	Limit      int                `json:"limit" binding:"min=0"`
}

// ToCandidates converts the request payload into domain candidates
func (r *RankDriversRequest) ToCandidates() []candidate.Candidate {
	out := make([]candidate.Candidate, 0, len(r.Candidates))
	for _, c := range r.Candidates {
		out = append(out, candidate.Candidate{
			TripID:             c.TripID,
			UserID:             c.UserID,
			DistanceKm:         c.DistanceKm,
			LocationAgeMinutes: c.LocationAgeMinutes,
			VehicleType:        c.VehicleType,
		})
	}
	return out
}

// RankDriversResponse is the ranked result envelope
type RankDriversResponse struct {
	Success  bool               `json:"success"`
	Drivers  []candidate.Ranked `json:"drivers"`
	Count    int                `json:"count"`
	Strategy string             `json:"strategy"`
}

// CreateQuoteRequest represents a vendor quoting against a buyer intent
type CreateQuoteRequest struct {
	TenantID   string  `json:"tenant_id" binding:"required,uuid"`
	IntentID   string  `json:"intent_id" binding:"required,uuid"`
	Price      float64 `json:"price" binding:"required,gt=0"`
	Currency   string  `json:"currency" binding:"required"`
	ETAMinutes *int    `json:"eta_minutes,omitempty"`
}

// QuoteResponse represents a created quote
type QuoteResponse struct {
	ID         uuid.UUID `json:"id"`
	TenantID   uuid.UUID `json:"tenant_id"`
	VendorID   uuid.UUID `json:"vendor_id"`
	IntentID   uuid.UUID `json:"intent_id"`
	Price      float64   `json:"price"`
	Currency   string    `json:"currency"`
	ETAMinutes *int      `json:"eta_minutes,omitempty"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

// EntitlementResponse represents a vendor's contact permission state
type EntitlementResponse struct {
	FreeRemaining int       `json:"free_remaining"`
	Subscribed    bool      `json:"subscribed"`
	Allowed       bool      `json:"allowed"`
	WindowStart   time.Time `json:"window_start"`
}

// Error response
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
