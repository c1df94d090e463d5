package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExpiryFrom(t *testing.T) {
	from := time.Date(2025, 1, 31, 10, 0, 0, 0, time.UTC)

	cases := []struct {
		duration string
		want     time.Time
	}{
		{"day", time.Date(2025, 2, 1, 10, 0, 0, 0, time.UTC)},
		{"week", time.Date(2025, 2, 7, 10, 0, 0, 0, time.UTC)},
		{"month", time.Date(2025, 3, 3, 10, 0, 0, 0, time.UTC)}, // Jan 31 + 1 month normalizes past Feb
		{"year", time.Date(2026, 1, 31, 10, 0, 0, 0, time.UTC)},
		{"lifetime", time.Date(2026, 1, 31, 10, 0, 0, 0, time.UTC)}, // unknown falls back to a year
	}
	for _, tc := range cases {
		p := SubscriptionPlan{Duration: tc.duration}
		assert.Equal(t, tc.want, p.ExpiryFrom(from), tc.duration)
	}
}

func TestExpiryFromNormalizesToUTC(t *testing.T) {
	loc := time.FixedZone("UTC+3", 3*60*60)
	from := time.Date(2025, 6, 1, 1, 0, 0, 0, loc)
	p := SubscriptionPlan{Duration: "day"}
	got := p.ExpiryFrom(from)
	assert.Equal(t, time.UTC, got.Location())
	assert.Equal(t, time.Date(2025, 6, 1, 22, 0, 0, 0, time.UTC), got)
}

func TestSubscriptionActiveAt(t *testing.T) {
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	var none *Subscription
	assert.False(t, none.ActiveAt(now))

	active := &Subscription{Status: "active", ExpiryDate: now.Add(24 * time.Hour)}
	assert.True(t, active.ActiveAt(now))

	expired := &Subscription{Status: "active", ExpiryDate: now.Add(-time.Minute)}
	assert.False(t, expired.ActiveAt(now))

	cancelled := &Subscription{Status: "expired", ExpiryDate: now.Add(24 * time.Hour)}
	assert.False(t, cancelled.ActiveAt(now))
}
