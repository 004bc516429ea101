package registration

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func requireReason(t *testing.T, err error, reason ErrorReason) {
	t.Helper()

	var regErr *Error
	require.True(t, errors.As(err, &regErr), "expected *Error, got %v", err)
	assert.Equal(t, reason, regErr.Reason)
}

func testIntent() PaymentIntent {
	return PaymentIntent{
		PayeeVPA:       DefaultPayeeVPA,
		PayeeName:      DefaultPayeeName,
		Total:          200,
		TransactionRef: "CACHE-20251016093000-AB12Z",
		Currency:       "INR",
	}
}

func mustTransition(t *testing.T, f Form, a Action) Form {
	t.Helper()

	next, err := Transition(f, a)
	require.NoError(t, err)
	return next
}

func proofEnteredForm(t *testing.T) Form {
	t.Helper()

	f := Form{State: EDITING}
	f = mustTransition(t, f, EditProfile{Profile: validProfile()})
	f = mustTransition(t, f, SetEvents{EventIDs: []string{"web-dev", "poster"}})
	f = mustTransition(t, f, RequestPayment{Intent: testIntent()})
	f = mustTransition(t, f, EnterProof{UpiTxnID: "123456789012"})
	require.Equal(t, PROOF_ENTERED, f.State)
	return f
}

func TestTransitionEditing(t *testing.T) {
	t.Run("toggling an event twice removes it", func(t *testing.T) {
		f := Form{State: EDITING}
		f = mustTransition(t, f, ToggleEvent{EventID: "web-dev"})
		f = mustTransition(t, f, ToggleEvent{EventID: "poster"})
		assert.Equal(t, []string{"web-dev", "poster"}, f.SelectedEvents)

		f = mustTransition(t, f, ToggleEvent{EventID: "web-dev"})
		assert.Equal(t, []string{"poster"}, f.SelectedEvents)
	})

	t.Run("set events drops duplicates", func(t *testing.T) {
		f := mustTransition(t, Form{State: EDITING}, SetEvents{EventIDs: []string{"poster", "poster", "bgmi"}})
		assert.Equal(t, []string{"poster", "bgmi"}, f.SelectedEvents)
	})

	t.Run("editing after payment returns to editing and keeps the data", func(t *testing.T) {
		f := proofEnteredForm(t)
		f = mustTransition(t, f, ToggleEvent{EventID: "bgmi"})

		assert.Equal(t, EDITING, f.State)
		assert.Nil(t, f.Payment)
		assert.Equal(t, "123456789012", f.Proof.UpiTxnID)
		assert.Equal(t, validProfile(), f.Profile)
	})

	t.Run("edits are rejected while submitting", func(t *testing.T) {
		f := mustTransition(t, proofEnteredForm(t), BeginSubmit{})
		require.Equal(t, SUBMITTING, f.State)

		_, err := Transition(f, EditProfile{Profile: Profile{}})
		requireReason(t, err, REASON_FORM_BUSY)
		_, err = Transition(f, ToggleEvent{EventID: "bgmi"})
		requireReason(t, err, REASON_FORM_BUSY)
		_, err = Transition(f, Reset{})
		requireReason(t, err, REASON_FORM_BUSY)
	})

	t.Run("transition does not mutate its input", func(t *testing.T) {
		f := Form{State: EDITING, SelectedEvents: []string{"web-dev", "poster"}}
		_ = mustTransition(t, f, ToggleEvent{EventID: "web-dev"})
		assert.Equal(t, []string{"web-dev", "poster"}, f.SelectedEvents)
	})
}

func TestTransitionRequestPayment(t *testing.T) {
	t.Run("requires a selection", func(t *testing.T) {
		f := Form{State: EDITING}
		intent := testIntent()
		intent.Total = 0

		next, err := Transition(f, RequestPayment{Intent: intent})
		requireReason(t, err, REASON_VALIDATION)
		assert.Equal(t, EDITING, next.State)
	})

	t.Run("moves to payment pending", func(t *testing.T) {
		f := Form{State: EDITING, SelectedEvents: []string{"web-dev", "poster"}}
		f = mustTransition(t, f, RequestPayment{Intent: testIntent()})

		assert.Equal(t, PAYMENT_PENDING, f.State)
		require.NotNil(t, f.Payment)
		assert.Equal(t, int64(200), f.Payment.Total)
	})

	t.Run("not allowed once completed", func(t *testing.T) {
		f := Form{State: COMPLETED, SelectedEvents: []string{"web-dev"}}
		_, err := Transition(f, RequestPayment{Intent: testIntent()})
		requireReason(t, err, REASON_INVALID_TRANSITION)
	})
}

func TestTransitionEnterProof(t *testing.T) {
	pending := func(t *testing.T) Form {
		f := Form{State: EDITING, Profile: validProfile(), SelectedEvents: []string{"web-dev", "poster"}}
		return mustTransition(t, f, RequestPayment{Intent: testIntent()})
	}

	t.Run("not allowed before payment", func(t *testing.T) {
		_, err := Transition(Form{State: EDITING}, EnterProof{UpiTxnID: "123456789012"})
		requireReason(t, err, REASON_INVALID_TRANSITION)
	})

	t.Run("bad reference keeps the entered value", func(t *testing.T) {
		next, err := Transition(pending(t), EnterProof{UpiTxnID: "12345678901"})
		requireReason(t, err, REASON_VALIDATION)
		assert.Equal(t, PAYMENT_PENDING, next.State)
		assert.Equal(t, "12345678901", next.Proof.UpiTxnID)
	})

	t.Run("image is required in the upload variant", func(t *testing.T) {
		next, err := Transition(pending(t), EnterProof{UpiTxnID: "123456789012", ImageRequired: true})
		requireReason(t, err, REASON_VALIDATION)
		assert.Equal(t, PAYMENT_PENDING, next.State)
	})

	t.Run("OCR mismatch fails and keeps the data", func(t *testing.T) {
		next, err := Transition(pending(t), EnterProof{
			UpiTxnID:      "123456789099",
			ImageAttached: true,
			OCREnabled:    true,
			Verification:  &Verification{Matched: false, Candidate: "123456789012", Labeled: true},
		})
		requireReason(t, err, REASON_VERIFICATION)
		assert.Equal(t, PAYMENT_PENDING, next.State)
		assert.Equal(t, "123456789099", next.Proof.UpiTxnID)
		assert.Equal(t, validProfile(), next.Profile)
		assert.Equal(t, []string{"web-dev", "poster"}, next.SelectedEvents)
	})

	t.Run("OCR match moves to proof entered", func(t *testing.T) {
		next, err := Transition(pending(t), EnterProof{
			UpiTxnID:      "123456789012",
			ImageAttached: true,
			OCREnabled:    true,
			Verification:  &Verification{Matched: true, Candidate: "123456789012"},
		})
		require.NoError(t, err)
		assert.Equal(t, PROOF_ENTERED, next.State)
	})

	t.Run("surrounding whitespace is trimmed", func(t *testing.T) {
		next := mustTransition(t, pending(t), EnterProof{UpiTxnID: " 123456789012 "})
		assert.Equal(t, "123456789012", next.Proof.UpiTxnID)
	})
}

func TestTransitionSubmit(t *testing.T) {
	t.Run("used reference is a duplicate", func(t *testing.T) {
		f := proofEnteredForm(t)
		next, err := Transition(f, BeginSubmit{ReferenceUsed: true})
		requireReason(t, err, REASON_DUPLICATE_REFERENCE)
		assert.Equal(t, PROOF_ENTERED, next.State)
	})

	t.Run("invalid profile blocks the submission", func(t *testing.T) {
		f := proofEnteredForm(t)
		f.Profile.Email = "asha@yahoo.com"
		_, err := Transition(f, BeginSubmit{})
		requireValidationError(t, err, "Email")
	})

	t.Run("failure returns to proof entered", func(t *testing.T) {
		f := mustTransition(t, proofEnteredForm(t), BeginSubmit{})
		f = mustTransition(t, f, SubmitFailed{Cause: errors.New("boom")})
		assert.Equal(t, PROOF_ENTERED, f.State)
		assert.Equal(t, "123456789012", f.Proof.UpiTxnID)
	})

	t.Run("success completes and reset clears", func(t *testing.T) {
		f := mustTransition(t, proofEnteredForm(t), BeginSubmit{})
		f = mustTransition(t, f, SubmitSucceeded{Registration: Registration{TransactionRef: "CACHE-20251016093000-AB12Z"}})
		assert.Equal(t, COMPLETED, f.State)
		require.NotNil(t, f.Completed)

		f = mustTransition(t, f, Reset{})
		assert.Equal(t, Form{State: EDITING}, f)
	})

	t.Run("cannot submit twice concurrently", func(t *testing.T) {
		f := mustTransition(t, proofEnteredForm(t), BeginSubmit{})
		_, err := Transition(f, BeginSubmit{})
		requireReason(t, err, REASON_FORM_BUSY)
	})
}
