package registration

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
)

const integrityHashLen = 12

// Registration is the record delivered to the webhook, persisted, and printed on the receipt.
// It is a snapshot: later edits to the form never change it.
type Registration struct {
	ID                 uuid.UUID
	Profile            Profile
	SelectedEvents     []string
	TotalAmount        int64
	TransactionRef     string
	UpiTxnID           string
	PaidAt             time.Time
	TicketDownloadTime time.Time
	VerificationHash   string
	ProofVerified      bool
}

// IntegrityHash is the first twelve upper-case hex characters of the SHA-256 digest of
// "<transactionRef>-<upiTxnID>-<total>-<sorted events>".
func IntegrityHash(transactionRef, upiTxnID string, total int64, selectedEvents []string) string {
	sorted := slices.Clone(selectedEvents)
	slices.Sort(sorted)

	data := fmt.Sprintf("%s-%s-%d-%s", transactionRef, upiTxnID, total, strings.Join(sorted, ","))
	sum := sha256.Sum256([]byte(data))
	return strings.ToUpper(hex.EncodeToString(sum[:]))[:integrityHashLen]
}

// PaymentIntent describes the payment the registrant is asked to make.
type PaymentIntent struct {
	PayeeVPA       string
	PayeeName      string
	Total          int64
	Note           string
	TransactionRef string
	Currency       string
	URLs           map[string]string
	ManualDetails  string
}

// Delivery describes how a registration reached the webhook.
type Delivery struct {
	Strategy string
	// Confirmed is false when the strategy cannot observe the remote status.
	Confirmed  bool
	StatusCode int
}

// Verification is the outcome of reading a payment screenshot.
type Verification struct {
	Matched   bool
	Candidate string
	Labeled   bool
}

type Receipt struct {
	FileName string
	Content  []byte
}

// UsedReferenceStore records UTRs that were submitted. Add must fail with a duplicate reference
// error when the reference is already present.
type UsedReferenceStore interface {
	Contains(ctx context.Context, reference string) (bool, error)
	Add(ctx context.Context, reference string) error
	Remove(ctx context.Context, reference string) error
}

type ListRegistrationsResponse struct {
	Data        []Registration
	Cursor      *string
	HasNextPage bool
}

type Repository interface {
	SaveRegistration(ctx context.Context, registration Registration) error
	GetRegistration(ctx context.Context, transactionRef string) (Registration, error)
	ListRegistrations(ctx context.Context, limit int32, cursor *string) (ListRegistrationsResponse, error)
}

type Submitter interface {
	Submit(ctx context.Context, registration Registration) (Delivery, error)
}

// DuplicateChecker is advisory: implementations answer false whenever they cannot tell.
type DuplicateChecker interface {
	Exists(ctx context.Context, upiTxnID string) bool
}

type ProofVerifier interface {
	Verify(ctx context.Context, image []byte, expected string) (Verification, error)
}

type ReceiptRenderer interface {
	RenderReceipt(registration Registration) (Receipt, error)
}

type ReceiptArchive interface {
	ArchiveReceipt(ctx context.Context, registration Registration, receipt Receipt) error
}
