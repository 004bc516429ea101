package receipt

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/cache-fest/festival-registration/events"
	"github.com/cache-fest/festival-registration/registration"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRegistration() registration.Registration {
	paidAt := time.Date(2025, 10, 16, 4, 0, 0, 0, time.UTC)
	return registration.Registration{
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
		TransactionRef:     "CACHE-20251016093000-AB12Z",
		UpiTxnID:           "123456789012",
		PaidAt:             paidAt,
		TicketDownloadTime: paidAt.Add(90 * time.Minute),
	}
}

func TestBuildLayout(t *testing.T) {
	got := BuildLayout(testRegistration(), events.FestivalCatalog())

	expected := Layout{
		TransactionRef: "CACHE-20251016093000-AB12Z",
		UpiTxnID:       "123456789012",
		PaymentDate:    "16 October 2025, 09:30:00 am",
		DownloadedAt:   "16 October 2025, 11:00:00 am",
		Participant: []Field{
			{Label: "Full Name", Value: "Asha Rao"},
			{Label: "Email", Value: "asha.rao@gmail.com"},
			{Label: "Phone", Value: "9876543210"},
			{Label: "College", Value: "City Engineering College"},
			{Label: "Roll Number", Value: "21CS042"},
			{Label: "Section", Value: "B"},
		},
		Lines: []Line{
			{Name: "Web Development Challenge", Price: 100},
			{Name: "Poster Presentation", Price: 100},
		},
		ItemizedTotal: 200,
		Total:         200,
		FileName:      "Cache2025_Ticket_CACHE-20251016093000-AB12Z.pdf",
	}
	if diff := cmp.Diff(expected, got); diff != "" {
		t.Errorf("layout mismatch (-want +got):\n%s", diff)
	}

	t.Run("unknown event falls back to its id and a zero price", func(t *testing.T) {
		reg := testRegistration()
		reg.SelectedEvents = []string{"karaoke"}
		reg.TotalAmount = 0

		l := BuildLayout(reg, events.FestivalCatalog())
		assert.Equal(t, []Line{{Name: "karaoke", Price: 0}}, l.Lines)
		assert.Equal(t, int64(0), l.ItemizedTotal)
	})

	t.Run("missing download time is blank", func(t *testing.T) {
		reg := testRegistration()
		reg.TicketDownloadTime = time.Time{}
		assert.Equal(t, "", BuildLayout(reg, events.FestivalCatalog()).DownloadedAt)
	})
}

func TestRenderReceipt(t *testing.T) {
	g := NewGenerator(events.FestivalCatalog())

	t.Run("renders a pdf", func(t *testing.T) {
		r, err := g.RenderReceipt(testRegistration())
		require.NoError(t, err)

		assert.Equal(t, "Cache2025_Ticket_CACHE-20251016093000-AB12Z.pdf", r.FileName)
		assert.True(t, bytes.HasPrefix(r.Content, []byte("%PDF-")))
	})

	t.Run("empty selection renders a zero total", func(t *testing.T) {
		reg := testRegistration()
		reg.SelectedEvents = nil
		reg.TotalAmount = 0

		r, err := g.RenderReceipt(reg)
		require.NoError(t, err)
		assert.NotEmpty(t, r.Content)
	})

	t.Run("missing UTR renders blank", func(t *testing.T) {
		reg := testRegistration()
		reg.UpiTxnID = ""

		_, err := g.RenderReceipt(reg)
		require.NoError(t, err)
	})

	t.Run("itemized total must match", func(t *testing.T) {
		reg := testRegistration()
		reg.TotalAmount = 150

		_, err := g.RenderReceipt(reg)
		var regErr *registration.Error
		require.True(t, errors.As(err, &regErr))
		assert.Equal(t, registration.REASON_RENDER, regErr.Reason)
	})

	t.Run("long selections break onto more pages", func(t *testing.T) {
		reg := testRegistration()
		reg.SelectedEvents = nil
		reg.TotalAmount = 0
		for _, e := range events.FestivalCatalog().All() {
			reg.SelectedEvents = append(reg.SelectedEvents, e.ID)
			reg.TotalAmount += e.Price
		}

		r, err := g.RenderReceipt(reg)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(r.Content, []byte("%PDF-")))
	})
}
