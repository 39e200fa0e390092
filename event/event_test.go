package event

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestEventExpired(t *testing.T) {
	t.Parallel()
	now := time.Now()

	t.Run("zero ExpiresAt never expires", func(t *testing.T) {
		t.Parallel()
		e := Event{}
		assert.False(t, e.Expired(now))
	})

	t.Run("future ExpiresAt is not expired", func(t *testing.T) {
		t.Parallel()
		exp := now.Add(time.Hour)
		e := Event{ExpiresAt: &exp}
		assert.False(t, e.Expired(now))
	})

	t.Run("past ExpiresAt is expired", func(t *testing.T) {
		t.Parallel()
		exp := now.Add(-time.Hour)
		e := Event{ExpiresAt: &exp}
		assert.True(t, e.Expired(now))
	})
}
