package dynamo

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/cache-fest/festival-registration/registration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUsedReferences(t *testing.T) {
	ctx := context.Background()

	t.Run("add then contains", func(t *testing.T) {
		resetTable(ctx)

		used, err := db.Contains(ctx, "123456789012")
		require.NoError(t, err)
		assert.False(t, used)

		require.NoError(t, db.Add(ctx, "123456789012"))

		used, err = db.Contains(ctx, "123456789012")
		require.NoError(t, err)
		assert.True(t, used)

		used, err = db.Contains(ctx, "210987654321")
		require.NoError(t, err)
		assert.False(t, used)
	})

	t.Run("second add is a duplicate", func(t *testing.T) {
		resetTable(ctx)

		require.NoError(t, db.Add(ctx, "123456789012"))
		requireReason(t, db.Add(ctx, "123456789012"), registration.REASON_DUPLICATE_REFERENCE)
	})

	t.Run("concurrent adds record the reference once", func(t *testing.T) {
		resetTable(ctx)

		var wins atomic.Int32
		var wg sync.WaitGroup
		for range 5 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				if db.Add(ctx, "555555555555") == nil {
					wins.Add(1)
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, int32(1), wins.Load())
	})

	t.Run("remove releases the reference", func(t *testing.T) {
		resetTable(ctx)

		require.NoError(t, db.Add(ctx, "123456789012"))
		require.NoError(t, db.Remove(ctx, "123456789012"))

		used, err := db.Contains(ctx, "123456789012")
		require.NoError(t, err)
		assert.False(t, used)
		assert.NoError(t, db.Add(ctx, "123456789012"))

		assert.NoError(t, db.Remove(ctx, "000000000000"))
	})
}
