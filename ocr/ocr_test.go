package ocr

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"log/slog"
	"testing"

	"github.com/cache-fest/festival-registration/registration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var noopLogger = slog.New(slog.DiscardHandler)

type mockExtractor struct {
	ExtractTextFunc func(ctx context.Context, png []byte) (string, error)
}

func (m *mockExtractor) ExtractText(ctx context.Context, png []byte) (string, error) {
	return m.ExtractTextFunc(ctx, png)
}

func screenshot(t *testing.T, width, height int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for x := 0; x < width; x++ {
		img.Set(x, height/2, color.Black)
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestFindReference(t *testing.T) {
	tests := []struct {
		name      string
		text      string
		candidate string
		labeled   bool
		ok        bool
	}{
		{name: "utr label", text: "Paid to Raghava P\nUTR: 123456789012\n", candidate: "123456789012", labeled: true, ok: true},
		{name: "utr no label", text: "UTR No. 210987654321", candidate: "210987654321", labeled: true, ok: true},
		{name: "transaction id label", text: "Transaction ID 123456789012", candidate: "123456789012", labeled: true, ok: true},
		{name: "upi ref label", text: "UPI Ref No: 123456789012", candidate: "123456789012", labeled: true, ok: true},
		{
			name:      "label wins over an earlier bare number",
			text:      "Order 999988887777\nUPI transaction ID: 123456789012",
			candidate: "123456789012",
			labeled:   true,
			ok:        true,
		},
		{name: "bare fallback", text: "Completed\n123456789012\n₹200", candidate: "123456789012", labeled: false, ok: true},
		{name: "longer digit run is not a reference", text: "Phone 91987654321000", ok: false},
		{name: "nothing", text: "Payment successful", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			candidate, labeled, ok := FindReference(tt.text)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.candidate, candidate)
			assert.Equal(t, tt.labeled, labeled)
		})
	}
}

func TestVerify(t *testing.T) {
	ctx := context.Background()

	t.Run("matching screenshot", func(t *testing.T) {
		var seen []byte
		v := NewVerifier(&mockExtractor{ExtractTextFunc: func(ctx context.Context, b []byte) (string, error) {
			seen = b
			return "UTR: 123456789012", nil
		}}, noopLogger)

		got, err := v.Verify(ctx, screenshot(t, 360, 640), "123456789012")
		require.NoError(t, err)
		assert.Equal(t, registration.Verification{Matched: true, Candidate: "123456789012", Labeled: true}, got)

		prepared, err := png.Decode(bytes.NewReader(seen))
		require.NoError(t, err)
		assert.Equal(t, minWidth, prepared.Bounds().Dx())
	})

	t.Run("different reference does not match", func(t *testing.T) {
		v := NewVerifier(&mockExtractor{ExtractTextFunc: func(ctx context.Context, b []byte) (string, error) {
			return "UTR: 123456789012", nil
		}}, noopLogger)

		got, err := v.Verify(ctx, screenshot(t, 1400, 200), "123456789099")
		require.NoError(t, err)
		assert.False(t, got.Matched)
		assert.Equal(t, "123456789012", got.Candidate)
	})

	t.Run("no reference in the text", func(t *testing.T) {
		v := NewVerifier(&mockExtractor{ExtractTextFunc: func(ctx context.Context, b []byte) (string, error) {
			return "blurry", nil
		}}, noopLogger)

		got, err := v.Verify(ctx, screenshot(t, 100, 100), "123456789012")
		require.NoError(t, err)
		assert.Equal(t, registration.Verification{}, got)
	})

	t.Run("not an image", func(t *testing.T) {
		v := NewVerifier(&mockExtractor{}, noopLogger)

		_, err := v.Verify(ctx, []byte("definitely not an image"), "123456789012")
		var regErr *registration.Error
		require.True(t, errors.As(err, &regErr))
		assert.Equal(t, registration.REASON_VERIFICATION, regErr.Reason)
	})

	t.Run("engine failure is retryable", func(t *testing.T) {
		v := NewVerifier(&mockExtractor{ExtractTextFunc: func(ctx context.Context, b []byte) (string, error) {
			return "", ErrEngineUnavailable
		}}, noopLogger)

		_, err := v.Verify(ctx, screenshot(t, 100, 100), "123456789012")
		var regErr *registration.Error
		require.True(t, errors.As(err, &regErr))
		assert.Equal(t, registration.REASON_VERIFICATION, regErr.Reason)
		assert.True(t, regErr.Retryable())
		assert.ErrorIs(t, err, ErrEngineUnavailable)
	})
}
