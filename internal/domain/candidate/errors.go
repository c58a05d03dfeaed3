package candidate

import "errors"

var (
	ErrInvalidTripID      = errors.New("invalid trip id")
	ErrInvalidUserID      = errors.New("invalid user id")
	ErrInvalidDistance    = errors.New("distance must be non-negative")
	ErrInvalidLocationAge = errors.New("location age must be non-negative")
	ErrInvalidMetrics     = errors.New("invalid driver metrics")
)
