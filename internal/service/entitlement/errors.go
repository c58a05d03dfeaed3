package entitlement

import "errors"

// ErrSubscriptionRequired means the free quota is exhausted and no
// active subscription covers the vendor. Callers branch on this to
// drive upgrade flows, so it must never be folded into not-found.
var ErrSubscriptionRequired = errors.New("subscription_required")
