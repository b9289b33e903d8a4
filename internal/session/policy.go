// Package session implements the conversation liveness policy.
package session

import (
	"time"
)

// DefaultExpiryMinutes is the default inactivity timeout.
const DefaultExpiryMinutes = 15

// Policy decides whether a conversation has lapsed from inactivity. Expiry is
// only observed when a conversation is loaded; there is no background sweep.
type Policy struct {
	expiry time.Duration
}

// NewPolicy creates a policy with the given timeout in minutes. Non-positive
// values fall back to the default.
func NewPolicy(expiryMinutes int) *Policy {
	if expiryMinutes <= 0 {
		expiryMinutes = DefaultExpiryMinutes
	}
	return &Policy{expiry: time.Duration(expiryMinutes) * time.Minute}
}

// IsExpired reports whether the time elapsed between lastActivity and now
// exceeds the timeout. Exactly at the boundary is not expired.
func (p *Policy) IsExpired(lastActivity, now time.Time) bool {
	return now.Sub(lastActivity) > p.expiry
}

// Expiry returns the configured inactivity timeout.
func (p *Policy) Expiry() time.Duration {
	return p.expiry
}
