package upi

import (
	"bytes"
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var refPattern = regexp.MustCompile(`^CACHE-\d{14}-[A-Z0-9]{5}$`)

func TestGenerateTransactionRef(t *testing.T) {
	t.Run("matches the reference format", func(t *testing.T) {
		for range 100 {
			assert.Regexp(t, refPattern, GenerateTransactionRef(""))
		}
	})

	t.Run("custom prefix", func(t *testing.T) {
		assert.Regexp(t, `^FEST-\d{14}-[A-Z0-9]{5}$`, GenerateTransactionRef("FEST"))
	})

	t.Run("stamp is UTC year through seconds", func(t *testing.T) {
		ist := time.FixedZone("IST", 5*60*60+30*60)
		now := time.Date(2025, 10, 16, 5, 4, 3, 0, ist)
		ref := generateTransactionRef("CACHE", now, bytes.NewReader([]byte{0, 1, 2, 3, 4}))
		assert.Equal(t, "CACHE-20251015233403-ABCDE", ref)
	})

	t.Run("out of range bytes are skipped", func(t *testing.T) {
		ref := generateTransactionRef("X", time.Unix(0, 0), bytes.NewReader([]byte{255, 35, 252, 26, 0, 1, 2}))
		assert.Equal(t, "X-19700101000000-90ABC", ref)
	})

	t.Run("successive calls do not collide", func(t *testing.T) {
		for range 10000 {
			a := GenerateTransactionRef("")
			b := GenerateTransactionRef("")
			assert.NotEqual(t, a, b)
		}
	})
}
