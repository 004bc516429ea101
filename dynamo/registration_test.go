package dynamo

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/cache-fest/festival-registration/ptr"
	"github.com/cache-fest/festival-registration/registration"
	"github.com/google/go-cmp/cmp"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireReason(t *testing.T, err error, reason registration.ErrorReason) {
	t.Helper()

	var regErr *registration.Error
	require.True(t, errors.As(err, &regErr), "expected *registration.Error, got %v", err)
	assert.Equal(t, reason, regErr.Reason)
}

func testRegistration(ref string, paidAt time.Time) registration.Registration {
	return registration.Registration{
		ID: uuid.New(),
		Profile: registration.Profile{
			FullName: "Asha Rao",
			Email:    "asha.rao@gmail.com",
			Phone:    "9876543210",
			College:  "City Engineering College",
			RollNo:   "21CS042",
			Section:  "B",
		},
		SelectedEvents:     []string{"web-dev", "poster"},
		TotalAmount:        200,
		TransactionRef:     ref,
		UpiTxnID:           "123456789012",
		PaidAt:             paidAt,
		TicketDownloadTime: paidAt,
		VerificationHash:   "47EA1371AB55",
		ProofVerified:      true,
	}
}

func TestSaveRegistration(t *testing.T) {
	ctx := context.Background()
	paidAt := time.Date(2025, 10, 16, 4, 0, 0, 0, time.UTC)

	t.Run("save and read back", func(t *testing.T) {
		resetTable(ctx)
		reg := testRegistration("CACHE-20251016093000-AB12Z", paidAt)

		require.NoError(t, db.SaveRegistration(ctx, reg))

		got, err := db.GetRegistration(ctx, reg.TransactionRef)
		require.NoError(t, err)
		if diff := cmp.Diff(reg, got); diff != "" {
			t.Errorf("registration mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("cannot overwrite a registration", func(t *testing.T) {
		resetTable(ctx)
		reg := testRegistration("CACHE-20251016093000-AB12Z", paidAt)

		require.NoError(t, db.SaveRegistration(ctx, reg))
		err := db.SaveRegistration(ctx, reg)
		requireReason(t, err, registration.REASON_FAILED_TO_WRITE)
	})

	t.Run("missing registration", func(t *testing.T) {
		resetTable(ctx)

		_, err := db.GetRegistration(ctx, "CACHE-NOPE")
		requireReason(t, err, registration.REASON_REGISTRATION_DOES_NOT_EXIST)
	})
}

func TestListRegistrations(t *testing.T) {
	ctx := context.Background()
	base := time.Date(2025, 10, 16, 4, 0, 0, 0, time.UTC)

	t.Run("pages newest first", func(t *testing.T) {
		resetTable(ctx)
		for i := range 5 {
			reg := testRegistration(fmt.Sprintf("CACHE-%d", i), base.Add(time.Duration(i)*time.Minute))
			require.NoError(t, db.SaveRegistration(ctx, reg))
		}

		first, err := db.ListRegistrations(ctx, 2, nil)
		require.NoError(t, err)
		require.Len(t, first.Data, 2)
		assert.Equal(t, "CACHE-4", first.Data[0].TransactionRef)
		assert.Equal(t, "CACHE-3", first.Data[1].TransactionRef)
		assert.True(t, first.HasNextPage)
		require.NotNil(t, first.Cursor)

		second, err := db.ListRegistrations(ctx, 2, first.Cursor)
		require.NoError(t, err)
		require.Len(t, second.Data, 2)
		assert.Equal(t, "CACHE-2", second.Data[0].TransactionRef)
		assert.Equal(t, "CACHE-1", second.Data[1].TransactionRef)

		last, err := db.ListRegistrations(ctx, 2, second.Cursor)
		require.NoError(t, err)
		require.Len(t, last.Data, 1)
		assert.Equal(t, "CACHE-0", last.Data[0].TransactionRef)
		assert.False(t, last.HasNextPage)
		assert.Nil(t, last.Cursor)
	})

	t.Run("exact page has no next page", func(t *testing.T) {
		resetTable(ctx)
		for i := range 2 {
			require.NoError(t, db.SaveRegistration(ctx, testRegistration(fmt.Sprintf("CACHE-%d", i), base.Add(time.Duration(i)*time.Minute))))
		}

		resp, err := db.ListRegistrations(ctx, 2, nil)
		require.NoError(t, err)
		assert.Len(t, resp.Data, 2)
		assert.False(t, resp.HasNextPage)
	})

	t.Run("used references are not listed", func(t *testing.T) {
		resetTable(ctx)
		require.NoError(t, db.Add(ctx, "123456789012"))

		resp, err := db.ListRegistrations(ctx, 10, nil)
		require.NoError(t, err)
		assert.Empty(t, resp.Data)
	})

	t.Run("invalid cursor", func(t *testing.T) {
		resetTable(ctx)

		_, err := db.ListRegistrations(ctx, 2, ptr.To("not-a-cursor!"))
		requireReason(t, err, registration.REASON_INVALID_CURSOR)
	})
}
