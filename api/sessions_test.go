package api

import (
	"testing"
	"time"

	"github.com/cache-fest/festival-registration/events"
	"github.com/cache-fest/festival-registration/registration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFormSessions(t *testing.T) {
	newController := func() *registration.Controller {
		return registration.NewController(registration.ControllerConfig{}, registration.Dependencies{
			Catalog: events.FestivalCatalog(),
			Logger:  noopLogger,
		})
	}

	t.Run("Idle session expires on access", func(t *testing.T) {
		now := fixedNow
		sessions := newFormSessions(time.Hour, func() time.Time { return now })

		id := sessions.create(newController())

		now = now.Add(30 * time.Minute)
		_, ok := sessions.get(id)
		require.True(t, ok)

		// the previous access refreshed the session
		now = now.Add(59 * time.Minute)
		_, ok = sessions.get(id)
		require.True(t, ok)

		now = now.Add(61 * time.Minute)
		_, ok = sessions.get(id)
		assert.False(t, ok)
		assert.Equal(t, 0, sessions.len())
	})

	t.Run("Creating a form sweeps idle sessions", func(t *testing.T) {
		now := fixedNow
		sessions := newFormSessions(time.Hour, func() time.Time { return now })

		sessions.create(newController())
		sessions.create(newController())

		now = now.Add(2 * time.Hour)
		fresh := sessions.create(newController())

		assert.Equal(t, 1, sessions.len())
		_, ok := sessions.get(fresh)
		assert.True(t, ok)
	})

	t.Run("Close all", func(t *testing.T) {
		sessions := newFormSessions(time.Hour, time.Now)
		sessions.create(newController())

		sessions.closeAll()
		assert.Equal(t, 0, sessions.len())
	})
}
