package registration

import (
	"context"
	"errors"
	"log/slog"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/International-Combat-Archery-Alliance/email"
	"github.com/cache-fest/festival-registration/events"
	"github.com/cache-fest/festival-registration/upi"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	DefaultPayeeVPA   = "raghavap1115-1@okicici"
	DefaultPayeeName  = "Raghava P"
	DefaultResetDelay = 3 * time.Second

	defaultParticipantName = "Participant"

	releaseTimeout = 5 * time.Second
	notifyTimeout  = 15 * time.Second
)

var tracer = otel.Tracer("github.com/cache-fest/festival-registration/registration")

type ControllerConfig struct {
	PayeeVPA  string
	PayeeName string
	TxnPrefix string
	// RequireProofImage makes a payment screenshot mandatory next to the UTR.
	RequireProofImage bool
	// ResetDelay is how long a completed form stays visible before it is cleared. Zero disables the reset.
	ResetDelay time.Duration
}

// Dependencies are the collaborators of a Controller. DuplicateChecker, Verifier, Archive and
// EmailSender are optional.
type Dependencies struct {
	Catalog          *events.Catalog
	UsedRefs         UsedReferenceStore
	Registrations    Repository
	Submitter        Submitter
	DuplicateChecker DuplicateChecker
	Verifier         ProofVerifier
	Receipts         ReceiptRenderer
	Archive          ReceiptArchive
	EmailSender      email.Sender
	EmailFrom        string
	Logger           *slog.Logger
	Now              func() time.Time
}

// Outcome is the result of a successful submission. A receipt failure does not fail the
// submission: Receipt is nil and ReceiptErr is set instead.
type Outcome struct {
	Registration Registration
	Delivery     Delivery
	Notices      []string
	Receipt      *Receipt
	ReceiptErr   error
}

// Controller owns one registration form and serialises every change to it.
type Controller struct {
	mu         sync.Mutex
	form       Form
	cfg        ControllerConfig
	deps       Dependencies
	resetTimer *time.Timer
	// notifications tracks the email and archive work running after a submission.
	notifications sync.WaitGroup
}

func NewController(cfg ControllerConfig, deps Dependencies) *Controller {
	if cfg.PayeeVPA == "" {
		cfg.PayeeVPA = DefaultPayeeVPA
	}
	if cfg.PayeeName == "" {
		cfg.PayeeName = DefaultPayeeName
	}
	if cfg.TxnPrefix == "" {
		cfg.TxnPrefix = upi.DefaultRefPrefix
	}
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}

	return &Controller{
		form: Form{State: EDITING},
		cfg:  cfg,
		deps: deps,
	}
}

func (c *Controller) Snapshot() Form {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.form.clone()
}

// Total is the price of the current selection in whole rupees.
func (c *Controller) Total() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()

	return c.deps.Catalog.Total(c.form.SelectedEvents)
}

func (c *Controller) UpdateProfile(p Profile) (Form, error) {
	return c.apply(EditProfile{Profile: p})
}

func (c *Controller) ToggleEvent(eventID string) (Form, error) {
	if !c.deps.Catalog.Contains(eventID) {
		return c.Snapshot(), NewValidationError("SelectedEvents", "Unknown event "+eventID)
	}
	return c.apply(ToggleEvent{EventID: eventID})
}

func (c *Controller) SetEvents(eventIDs []string) (Form, error) {
	for _, id := range eventIDs {
		if !c.deps.Catalog.Contains(id) {
			return c.Snapshot(), NewValidationError("SelectedEvents", "Unknown event "+id)
		}
	}
	return c.apply(SetEvents{EventIDs: eventIDs})
}

func (c *Controller) Reset() (Form, error) {
	return c.apply(Reset{})
}

func (c *Controller) apply(action Action) (Form, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	next, err := Transition(c.form, action)
	c.form = next
	return c.form.clone(), err
}

// RequestPayment builds the UPI intent for the current selection. The transaction reference of an
// earlier intent is reused until the form is edited.
func (c *Controller) RequestPayment(ctx context.Context) (PaymentIntent, error) {
	_, span := tracer.Start(ctx, "registration.RequestPayment")
	defer span.End()

	c.mu.Lock()
	defer c.mu.Unlock()

	total := c.deps.Catalog.Total(c.form.SelectedEvents)

	ref := ""
	if c.form.Payment != nil {
		ref = c.form.Payment.TransactionRef
	}
	if ref == "" {
		ref = upi.GenerateTransactionRef(c.cfg.TxnPrefix)
	}

	name := c.form.Profile.Trimmed().FullName
	if name == "" {
		name = defaultParticipantName
	}

	params := upi.IntentParams{
		PayeeVPA:       c.cfg.PayeeVPA,
		PayeeName:      c.cfg.PayeeName,
		Amount:         events.Rupees(total),
		Note:           "Cache 2025 - " + name,
		TransactionRef: ref,
		Currency:       upi.DefaultCurrency,
	}

	urls := map[string]string{}
	for app, u := range upi.BuildAllIntentURLs(params) {
		urls[string(app)] = u
	}

	intent := PaymentIntent{
		PayeeVPA:       params.PayeeVPA,
		PayeeName:      params.PayeeName,
		Total:          total,
		Note:           params.Note,
		TransactionRef: ref,
		Currency:       params.Currency,
		URLs:           urls,
		ManualDetails:  upi.ManualPaymentDetails(params),
	}

	next, err := Transition(c.form, RequestPayment{Intent: intent})
	c.form = next
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return PaymentIntent{}, err
	}

	span.SetAttributes(attribute.String("transaction_ref", ref), attribute.Int64("total", total))
	return intent, nil
}

// EnterProof records the UTR and, when a verifier is configured and an image is given, checks
// that the screenshot shows the same reference.
func (c *Controller) EnterProof(ctx context.Context, upiTxnID string, image []byte) (Form, error) {
	ctx, span := tracer.Start(ctx, "registration.EnterProof")
	defer span.End()

	upiTxnID = strings.TrimSpace(upiTxnID)
	action := EnterProof{
		UpiTxnID:      upiTxnID,
		ImageAttached: len(image) > 0,
		ImageRequired: c.cfg.RequireProofImage,
		OCREnabled:    c.deps.Verifier != nil,
	}

	var verifyErr error
	if action.OCREnabled && action.ImageAttached && ValidateReference(upiTxnID) == nil {
		v, err := c.deps.Verifier.Verify(ctx, image, upiTxnID)
		if err != nil {
			verifyErr = err
			c.deps.Logger.WarnContext(ctx, "failed to read payment screenshot", slog.String("error", err.Error()))
		} else {
			action.Verification = &v
		}
	}

	form, err := c.apply(action)
	if verifyErr != nil && err != nil {
		err = verifyErr
	}
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
	}
	return form, err
}

// Submit delivers the registration. The UTR is reserved before delivery and released again when
// delivery fails, so a failed submission can be retried with the same reference.
func (c *Controller) Submit(ctx context.Context) (Outcome, error) {
	ctx, span := tracer.Start(ctx, "registration.Submit")
	defer span.End()

	form, err := c.beginSubmit(ctx)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return Outcome{}, err
	}

	outcome := Outcome{}
	if c.deps.DuplicateChecker != nil && c.checkDuplicate(ctx, form.Proof.UpiTxnID) {
		outcome.Notices = append(outcome.Notices, "This UTR ID may have been used for another registration. Your registration will be flagged for review.")
	}

	now := c.deps.Now()
	reg := Registration{
		ID:                 uuid.New(),
		Profile:            form.Profile.Trimmed(),
		SelectedEvents:     slices.Clone(form.SelectedEvents),
		TotalAmount:        c.deps.Catalog.Total(form.SelectedEvents),
		TransactionRef:     form.Payment.TransactionRef,
		UpiTxnID:           form.Proof.UpiTxnID,
		PaidAt:             now,
		TicketDownloadTime: now,
		ProofVerified:      form.Proof.Verification != nil && form.Proof.Verification.Matched,
	}
	reg.VerificationHash = IntegrityHash(reg.TransactionRef, reg.UpiTxnID, reg.TotalAmount, reg.SelectedEvents)

	delivery, err := c.deliver(ctx, reg)
	if err != nil {
		c.releaseReference(ctx, reg.UpiTxnID)

		c.mu.Lock()
		c.form, _ = Transition(c.form, SubmitFailed{Cause: err})
		c.mu.Unlock()

		span.SetStatus(codes.Error, err.Error())
		return Outcome{}, err
	}
	outcome.Registration = reg
	outcome.Delivery = delivery

	c.recordSubmission(ctx, reg)

	receipt, receiptErr := c.renderReceipt(ctx, reg)
	if receiptErr != nil {
		outcome.ReceiptErr = receiptErr
		outcome.Notices = append(outcome.Notices, "Registration successful, but the ticket could not be generated. Please contact the organizers with your transaction ID.")
	} else {
		outcome.Receipt = &receipt
	}

	c.mu.Lock()
	c.form, err = Transition(c.form, SubmitSucceeded{Registration: reg})
	if err != nil {
		c.deps.Logger.ErrorContext(ctx, "failed to complete form after submission", slog.String("error", err.Error()))
	}
	c.scheduleReset(reg.ID)
	c.mu.Unlock()

	c.notifications.Add(1)
	go func() {
		defer c.notifications.Done()

		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), notifyTimeout)
		defer cancel()
		c.notify(ctx, reg, outcome.Receipt)
	}()

	span.SetAttributes(
		attribute.String("transaction_ref", reg.TransactionRef),
		attribute.String("delivery_strategy", delivery.Strategy),
	)
	return outcome, nil
}

// beginSubmit reserves the UTR with the store's conditional add before anything is delivered, so
// two forms holding the same UTR cannot both be submitted.
func (c *Controller) beginSubmit(ctx context.Context) (Form, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.form.State != PROOF_ENTERED {
		next, err := Transition(c.form, BeginSubmit{})
		c.form = next
		return Form{}, err
	}
	if c.form.Payment == nil {
		// unreachable through Transition, a proof can only be entered after payment was requested
		return Form{}, NewInvalidTransitionError(PAYMENT_PENDING, BeginSubmit{})
	}

	next, err := Transition(c.form, BeginSubmit{})
	if err != nil {
		c.form = next
		return Form{}, err
	}

	if err := c.deps.UsedRefs.Add(ctx, c.form.Proof.UpiTxnID); err != nil {
		var regErr *Error
		if errors.As(err, &regErr) && regErr.Reason == REASON_DUPLICATE_REFERENCE {
			next, err = Transition(c.form, BeginSubmit{ReferenceUsed: true})
			c.form = next
		}
		return Form{}, err
	}

	c.form = next
	return c.form.clone(), nil
}

// releaseReference frees a reserved UTR after a failed delivery so the registrant can retry.
func (c *Controller) releaseReference(ctx context.Context, reference string) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), releaseTimeout)
	defer cancel()

	if err := c.deps.UsedRefs.Remove(ctx, reference); err != nil {
		c.deps.Logger.ErrorContext(ctx, "failed to release UTR after a failed delivery",
			slog.String("upi_txn_id", reference),
			slog.String("error", err.Error()),
		)
	}
}

func (c *Controller) checkDuplicate(ctx context.Context, upiTxnID string) bool {
	ctx, span := tracer.Start(ctx, "registration.checkDuplicate")
	defer span.End()

	exists := c.deps.DuplicateChecker.Exists(ctx, upiTxnID)
	span.SetAttributes(attribute.Bool("exists", exists))
	return exists
}

func (c *Controller) deliver(ctx context.Context, reg Registration) (Delivery, error) {
	ctx, span := tracer.Start(ctx, "registration.deliver")
	defer span.End()

	delivery, err := c.deps.Submitter.Submit(ctx, reg)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		c.deps.Logger.ErrorContext(ctx, "failed to deliver registration",
			slog.String("transaction_ref", reg.TransactionRef),
			slog.String("error", err.Error()),
		)
		return Delivery{}, err
	}
	return delivery, nil
}

func (c *Controller) recordSubmission(ctx context.Context, reg Registration) {
	if c.deps.Registrations == nil {
		return
	}
	if err := c.deps.Registrations.SaveRegistration(ctx, reg); err != nil {
		c.deps.Logger.ErrorContext(ctx, "failed to save registration",
			slog.String("transaction_ref", reg.TransactionRef),
			slog.String("error", err.Error()),
		)
	}
}

func (c *Controller) renderReceipt(ctx context.Context, reg Registration) (Receipt, error) {
	_, span := tracer.Start(ctx, "registration.renderReceipt")
	defer span.End()

	if c.deps.Receipts == nil {
		return Receipt{}, NewRenderError("No receipt renderer is configured", nil)
	}

	receipt, err := c.deps.Receipts.RenderReceipt(reg)
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		c.deps.Logger.ErrorContext(ctx, "failed to render receipt", slog.String("error", err.Error()))
		var regErr *Error
		if errors.As(err, &regErr) {
			return Receipt{}, err
		}
		return Receipt{}, NewRenderError("Failed to render receipt", err)
	}
	return receipt, nil
}

func (c *Controller) notify(ctx context.Context, reg Registration, receipt *Receipt) {
	if c.deps.EmailSender != nil {
		err := SendRegistrationConfirmationEmail(ctx, c.deps.EmailSender, c.deps.EmailFrom, reg, c.deps.Catalog)
		if err != nil {
			c.deps.Logger.ErrorContext(ctx, "failed to send confirmation email", slog.String("error", err.Error()))
		}
	}

	if c.deps.Archive != nil && receipt != nil {
		if err := c.deps.Archive.ArchiveReceipt(ctx, reg, *receipt); err != nil {
			c.deps.Logger.ErrorContext(ctx, "failed to archive receipt", slog.String("error", err.Error()))
		}
	}
}

// scheduleReset must be called with c.mu held.
func (c *Controller) scheduleReset(id uuid.UUID) {
	if c.resetTimer != nil {
		c.resetTimer.Stop()
	}
	if c.cfg.ResetDelay <= 0 {
		return
	}

	c.resetTimer = time.AfterFunc(c.cfg.ResetDelay, func() {
		c.mu.Lock()
		defer c.mu.Unlock()

		// only clear the form that is still showing this registration
		if c.form.State == COMPLETED && c.form.Completed != nil && c.form.Completed.ID == id {
			c.form = Form{State: EDITING}
		}
	})
}

// Wait blocks until the confirmation email and receipt archive of earlier submissions are done.
func (c *Controller) Wait() {
	c.notifications.Wait()
}

// Close stops a pending reset.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.resetTimer != nil {
		c.resetTimer.Stop()
	}
}
