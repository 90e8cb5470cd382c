package entities

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExpired(t *testing.T) {
	base := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

	t.Run("nil expiry never expires", func(t *testing.T) {
		link := &ShortLink{ExpiresAt: nil}
		assert.False(t, link.Expired(base))
	})

	t.Run("future expiry is live", func(t *testing.T) {
		exp := base.Add(time.Hour)
		link := &ShortLink{ExpiresAt: &exp}
		assert.False(t, link.Expired(base))
	})

	t.Run("past expiry is expired", func(t *testing.T) {
		exp := base.Add(-time.Second)
		link := &ShortLink{ExpiresAt: &exp}
		assert.True(t, link.Expired(base))
	})

	t.Run("comparison is by instant, not wall clock", func(t *testing.T) {
		// 12:00 UTC stored as 17:00 in a UTC+5 zone is the same
		// instant; a link expiring then must not read as expired
		// just because the wall-clock numbers differ.
		east := time.FixedZone("UTC+5", 5*60*60)
		exp := time.Date(2025, 6, 1, 17, 0, 0, 0, east)
		link := &ShortLink{ExpiresAt: &exp}

		assert.False(t, link.Expired(base))
		assert.True(t, link.Expired(base.Add(time.Nanosecond)))

		// Same check from the other side: now expressed in a
		// negative-offset zone.
		west := time.FixedZone("UTC-7", -7*60*60)
		nowWest := base.In(west)
		assert.False(t, link.Expired(nowWest))
	})
}
