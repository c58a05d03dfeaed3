package idempotency

import "errors"

// ErrRequestInFlight means another request holding the same key has not
// finished yet
var ErrRequestInFlight = errors.New("request with this idempotency key is still in flight")
