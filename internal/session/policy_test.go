package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIsExpired(t *testing.T) {
	policy := NewPolicy(15)
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	tests := []struct {
		name string
		now  time.Time
		want bool
	}{
		{name: "just active", now: base.Add(time.Minute), want: false},
		{name: "exactly at the boundary is still live", now: base.Add(15 * time.Minute), want: false},
		{name: "one nanosecond past the boundary", now: base.Add(15*time.Minute + time.Nanosecond), want: true},
		{name: "long lapsed", now: base.Add(24 * time.Hour), want: true},
		{name: "clock skew into the past", now: base.Add(-time.Minute), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, policy.IsExpired(base, tt.now))
		})
	}
}

func TestNewPolicyDefaults(t *testing.T) {
	assert.Equal(t, 15*time.Minute, NewPolicy(0).Expiry())
	assert.Equal(t, 15*time.Minute, NewPolicy(-3).Expiry())
	assert.Equal(t, 30*time.Minute, NewPolicy(30).Expiry())
}
