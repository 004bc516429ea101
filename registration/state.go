package registration

import (
	"slices"
	"strings"
)

type State int

const (
	EDITING State = iota
	PAYMENT_PENDING
	PROOF_ENTERED
	SUBMITTING
	COMPLETED
)

func (s State) String() string {
	switch s {
	case EDITING:
		return "editing"
	case PAYMENT_PENDING:
		return "payment-pending"
	case PROOF_ENTERED:
		return "proof-entered"
	case SUBMITTING:
		return "submitting"
	case COMPLETED:
		return "completed"
	default:
		return "unknown"
	}
}

// Proof is what the registrant supplied as evidence of payment.
type Proof struct {
	UpiTxnID      string
	ImageAttached bool
	Verification  *Verification
}

// Form is the whole registration form. Values are never shared: Transition returns a new Form.
type Form struct {
	State          State
	Profile        Profile
	SelectedEvents []string
	Payment        *PaymentIntent
	Proof          Proof
	Completed      *Registration
}

func (f Form) clone() Form {
	f.SelectedEvents = slices.Clone(f.SelectedEvents)
	if f.Payment != nil {
		p := *f.Payment
		f.Payment = &p
	}
	if f.Proof.Verification != nil {
		v := *f.Proof.Verification
		f.Proof.Verification = &v
	}
	if f.Completed != nil {
		c := *f.Completed
		c.SelectedEvents = slices.Clone(c.SelectedEvents)
		f.Completed = &c
	}
	return f
}

// Action is an input to the form state machine.
type Action interface {
	name() string
}

type EditProfile struct {
	Profile Profile
}

type ToggleEvent struct {
	EventID string
}

type SetEvents struct {
	EventIDs []string
}

// RequestPayment carries the intent the controller built for the current selection.
type RequestPayment struct {
	Intent PaymentIntent
}

type EnterProof struct {
	UpiTxnID      string
	ImageAttached bool
	// ImageRequired is set in the proof-upload variant of the flow.
	ImageRequired bool
	// Verification is nil when OCR did not run.
	Verification *Verification
	OCREnabled   bool
}

type BeginSubmit struct {
	ReferenceUsed bool
}

type SubmitSucceeded struct {
	Registration Registration
}

type SubmitFailed struct {
	Cause error
}

type Reset struct{}

func (EditProfile) name() string     { return "edit the profile" }
func (ToggleEvent) name() string     { return "change the selected events" }
func (SetEvents) name() string       { return "change the selected events" }
func (RequestPayment) name() string  { return "request payment" }
func (EnterProof) name() string      { return "enter payment proof" }
func (BeginSubmit) name() string     { return "submit" }
func (SubmitSucceeded) name() string { return "complete the submission" }
func (SubmitFailed) name() string    { return "fail the submission" }
func (Reset) name() string           { return "reset" }

// Transition applies an action to a form. Guards that need I/O (used-reference lookup, OCR) are
// evaluated by the caller and passed in on the action, so this function is pure.
//
// On error the returned form keeps any data the action carried (the entered UTR, for example)
// but its state is unchanged.
func Transition(f Form, action Action) (Form, error) {
	next := f.clone()

	switch a := action.(type) {
	case EditProfile:
		if f.State == SUBMITTING {
			return f, NewFormBusyError()
		}
		next.Profile = a.Profile
		return toEditing(next), nil

	case ToggleEvent:
		if f.State == SUBMITTING {
			return f, NewFormBusyError()
		}
		if i := slices.Index(next.SelectedEvents, a.EventID); i >= 0 {
			next.SelectedEvents = slices.Delete(next.SelectedEvents, i, i+1)
		} else {
			next.SelectedEvents = append(next.SelectedEvents, a.EventID)
		}
		return toEditing(next), nil

	case SetEvents:
		if f.State == SUBMITTING {
			return f, NewFormBusyError()
		}
		next.SelectedEvents = dedupe(a.EventIDs)
		return toEditing(next), nil

	case RequestPayment:
		switch f.State {
		case EDITING, PAYMENT_PENDING, PROOF_ENTERED:
		case SUBMITTING:
			return f, NewFormBusyError()
		default:
			return f, NewInvalidTransitionError(f.State, action)
		}
		if len(f.SelectedEvents) == 0 || a.Intent.Total <= 0 {
			return f, NewValidationError("SelectedEvents", "Please select at least one event to proceed with payment")
		}
		intent := a.Intent
		next.Payment = &intent
		next.State = PAYMENT_PENDING
		return next, nil

	case EnterProof:
		switch f.State {
		case PAYMENT_PENDING, PROOF_ENTERED:
		case SUBMITTING:
			return f, NewFormBusyError()
		default:
			return f, NewInvalidTransitionError(f.State, action)
		}
		reference := strings.TrimSpace(a.UpiTxnID)
		next.Proof = Proof{
			UpiTxnID:      reference,
			ImageAttached: a.ImageAttached,
			Verification:  a.Verification,
		}
		// entered data is kept on every failure below, only the state stays where it was
		next.State = f.State
		if err := ValidateReference(reference); err != nil {
			if f.State == PROOF_ENTERED {
				next.State = PAYMENT_PENDING
			}
			return next, err
		}
		if a.ImageRequired && !a.ImageAttached {
			return next, NewValidationError("ProofImage", "Please upload a screenshot of your payment")
		}
		if a.OCREnabled && a.ImageAttached {
			if a.Verification == nil || !a.Verification.Matched {
				if f.State == PROOF_ENTERED {
					next.State = PAYMENT_PENDING
				}
				return next, verificationFailure(reference, a.Verification)
			}
		}
		next.State = PROOF_ENTERED
		return next, nil

	case BeginSubmit:
		switch f.State {
		case PROOF_ENTERED:
		case SUBMITTING:
			return f, NewFormBusyError()
		default:
			return f, NewInvalidTransitionError(f.State, action)
		}
		if err := ValidateProfile(f.Profile); err != nil {
			return f, err
		}
		if len(f.SelectedEvents) == 0 {
			return f, NewValidationError("SelectedEvents", "Please select at least one event")
		}
		if a.ReferenceUsed {
			return f, NewDuplicateReferenceError(f.Proof.UpiTxnID, nil)
		}
		next.State = SUBMITTING
		return next, nil

	case SubmitSucceeded:
		if f.State != SUBMITTING {
			return f, NewInvalidTransitionError(f.State, action)
		}
		reg := a.Registration
		reg.SelectedEvents = slices.Clone(reg.SelectedEvents)
		next.Completed = &reg
		next.State = COMPLETED
		return next, nil

	case SubmitFailed:
		if f.State != SUBMITTING {
			return f, NewInvalidTransitionError(f.State, action)
		}
		next.State = PROOF_ENTERED
		return next, nil

	case Reset:
		if f.State == SUBMITTING {
			return f, NewFormBusyError()
		}
		return Form{State: EDITING}, nil

	default:
		return f, NewInvalidTransitionError(f.State, action)
	}
}

func toEditing(f Form) Form {
	f.State = EDITING
	f.Payment = nil
	f.Completed = nil
	return f
}

func dedupe(ids []string) []string {
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if !slices.Contains(out, id) {
			out = append(out, id)
		}
	}
	return out
}

func verificationFailure(expected string, v *Verification) *Error {
	if v == nil || v.Candidate == "" {
		return NewVerificationError("Could not find a 12-digit UTR in the screenshot. Upload a clearer image or try again", nil)
	}
	return NewVerificationError("The UTR in the screenshot ("+v.Candidate+") does not match the one entered ("+expected+")", nil)
}
