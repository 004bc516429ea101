package api

import (
	"time"

	"github.com/cache-fest/festival-registration/events"
	"github.com/cache-fest/festival-registration/ptr"
	"github.com/cache-fest/festival-registration/qr"
	"github.com/cache-fest/festival-registration/registration"
	"github.com/cache-fest/festival-registration/upi"
	"github.com/google/uuid"
	"github.com/oapi-codegen/runtime/types"
)

type ErrorCode string

const (
	InputValidationError ErrorCode = "InputValidationError"
	AuthError            ErrorCode = "AuthError"
	InternalError        ErrorCode = "InternalError"
	NotFound             ErrorCode = "NotFound"
	InvalidCursor        ErrorCode = "InvalidCursor"
	LimitOutOfBounds     ErrorCode = "LimitOutOfBounds"
	EmptyBody            ErrorCode = "EmptyBody"
	InvalidBody          ErrorCode = "InvalidBody"
	ConfigurationError   ErrorCode = "ConfigurationError"
	NetworkError         ErrorCode = "NetworkError"
	DuplicateReference   ErrorCode = "DuplicateReference"
	VerificationFailed   ErrorCode = "VerificationFailed"
	RenderFailed         ErrorCode = "RenderFailed"
	InvalidState         ErrorCode = "InvalidState"
	FormBusy             ErrorCode = "FormBusy"
	Timeout              ErrorCode = "Timeout"
)

type Error struct {
	Code    ErrorCode `json:"code"`
	Message string    `json:"message"`
	Field   *string   `json:"field,omitempty"`

	// Retryable is set for registration errors: false means resubmitting the same form cannot help.
	Retryable *bool `json:"retryable,omitempty"`
}

type Event struct {
	Id       string `json:"id"`
	Name     string `json:"name"`
	Price    int64  `json:"price"`
	Category string `json:"category"`
}

type Catalog struct {
	Technical    []Event `json:"technical"`
	NonTechnical []Event `json:"nonTechnical"`
}

type Profile struct {
	FullName string       `json:"fullName"`
	Email    *types.Email `json:"email,omitempty"`
	Phone    string       `json:"phone"`
	College  string       `json:"college"`
	RollNo   string       `json:"rollNo"`
	Section  string       `json:"section"`
}

type EventSelection struct {
	EventIds []string `json:"eventIds"`
}

type ProofInput struct {
	UpiTxnId string `json:"upiTxnId"`
	// ProofImage is sent base64 encoded.
	ProofImage []byte `json:"proofImage,omitempty"`
}

type RegistrationSummary struct {
	Id               uuid.UUID `json:"id"`
	FullName         string    `json:"fullName,omitempty"`
	Email            string    `json:"email,omitempty"`
	TransactionRef   string    `json:"transactionRef"`
	UpiTxnId         string    `json:"upiTxnId"`
	SelectedEvents   []string  `json:"selectedEvents"`
	TotalAmount      int64     `json:"totalAmount"`
	PaidAt           time.Time `json:"paidAt"`
	VerificationHash string    `json:"verificationHash"`
	ProofVerified    bool      `json:"proofVerified"`
}

type Form struct {
	Id             uuid.UUID            `json:"id"`
	State          string               `json:"state"`
	Profile        Profile              `json:"profile"`
	SelectedEvents []string             `json:"selectedEvents"`
	Total          int64                `json:"total"`
	TransactionRef *string              `json:"transactionRef,omitempty"`
	UpiTxnId       *string              `json:"upiTxnId,omitempty"`
	ProofVerified  *bool                `json:"proofVerified,omitempty"`
	Registration   *RegistrationSummary `json:"registration,omitempty"`
}

type Platform struct {
	IOS     bool `json:"ios"`
	Android bool `json:"android"`
	Mobile  bool `json:"mobile"`
}

type QRCode struct {
	DataUrl     string `json:"dataUrl"`
	FileName    string `json:"fileName"`
	Placeholder bool   `json:"placeholder"`
}

type Payment struct {
	TransactionRef string            `json:"transactionRef"`
	Total          int64             `json:"total"`
	Amount         string            `json:"amount"`
	PayeeVpa       string            `json:"payeeVpa"`
	PayeeName      string            `json:"payeeName"`
	Note           string            `json:"note"`
	Links          map[string]string `json:"links"`
	PrimaryLink    string            `json:"primaryLink"`
	ManualDetails  string            `json:"manualDetails"`
	Platform       Platform          `json:"platform"`
	QrCode         *QRCode           `json:"qrCode,omitempty"`
}

type Delivery struct {
	Strategy   string `json:"strategy"`
	Confirmed  bool   `json:"confirmed"`
	StatusCode *int   `json:"statusCode,omitempty"`
}

type ReceiptFile struct {
	FileName string `json:"fileName"`
	Content  []byte `json:"content"`
}

type Submission struct {
	Registration RegistrationSummary `json:"registration"`
	Delivery     Delivery            `json:"delivery"`
	Notices      []string            `json:"notices"`
	Receipt      *ReceiptFile        `json:"receipt,omitempty"`
	ReceiptError *Error              `json:"receiptError,omitempty"`
}

type ProofExists struct {
	Exists bool `json:"exists"`
}

type RegistrationPage struct {
	Data        []RegistrationSummary `json:"data"`
	Cursor      *string               `json:"cursor,omitempty"`
	HasNextPage bool                  `json:"hasNextPage"`
}

func eventToApiEvent(e events.Event) Event {
	return Event{
		Id:       e.ID,
		Name:     e.Name,
		Price:    e.Price,
		Category: e.Category.String(),
	}
}

func apiProfileToProfile(p Profile) registration.Profile {
	email := ""
	if p.Email != nil {
		email = string(*p.Email)
	}

	return registration.Profile{
		FullName: p.FullName,
		Email:    email,
		Phone:    p.Phone,
		College:  p.College,
		RollNo:   p.RollNo,
		Section:  p.Section,
	}
}

func profileToApiProfile(p registration.Profile) Profile {
	var email *types.Email
	if p.Email != "" {
		email = ptr.To(types.Email(p.Email))
	}

	return Profile{
		FullName: p.FullName,
		Email:    email,
		Phone:    p.Phone,
		College:  p.College,
		RollNo:   p.RollNo,
		Section:  p.Section,
	}
}

func registrationToApiSummary(reg registration.Registration) RegistrationSummary {
	return RegistrationSummary{
		Id:               reg.ID,
		FullName:         reg.Profile.FullName,
		Email:            reg.Profile.Email,
		TransactionRef:   reg.TransactionRef,
		UpiTxnId:         reg.UpiTxnID,
		SelectedEvents:   nonNil(reg.SelectedEvents),
		TotalAmount:      reg.TotalAmount,
		PaidAt:           reg.PaidAt,
		VerificationHash: reg.VerificationHash,
		ProofVerified:    reg.ProofVerified,
	}
}

func formToApiForm(id uuid.UUID, f registration.Form, total int64) Form {
	form := Form{
		Id:             id,
		State:          f.State.String(),
		Profile:        profileToApiProfile(f.Profile),
		SelectedEvents: nonNil(f.SelectedEvents),
		Total:          total,
	}

	if f.Payment != nil {
		form.TransactionRef = ptr.To(f.Payment.TransactionRef)
	}
	form.UpiTxnId = ptr.StringOrNil(f.Proof.UpiTxnID)
	if f.Proof.Verification != nil {
		form.ProofVerified = ptr.To(f.Proof.Verification.Matched)
	}
	if f.Completed != nil {
		form.Registration = ptr.To(registrationToApiSummary(*f.Completed))
	}

	return form
}

func intentToApiPayment(intent registration.PaymentIntent, platform upi.Platform, qrImage *qr.Image) Payment {
	primary, ok := intent.URLs[string(platform.PreferredApp())]
	if !ok {
		primary = intent.URLs[string(upi.GENERIC)]
	}

	payment := Payment{
		TransactionRef: intent.TransactionRef,
		Total:          intent.Total,
		Amount:         upi.FormatAmount(events.Rupees(intent.Total)),
		PayeeVpa:       intent.PayeeVPA,
		PayeeName:      intent.PayeeName,
		Note:           intent.Note,
		Links:          intent.URLs,
		PrimaryLink:    primary,
		ManualDetails:  intent.ManualDetails,
		Platform: Platform{
			IOS:     platform.IOS,
			Android: platform.Android,
			Mobile:  platform.Mobile,
		},
	}

	if qrImage != nil {
		payment.QrCode = &QRCode{
			DataUrl:     qrImage.DataURL(),
			FileName:    qrImage.FileName,
			Placeholder: qrImage.Placeholder,
		}
	}

	return payment
}

func outcomeToApiSubmission(outcome registration.Outcome) Submission {
	submission := Submission{
		Registration: registrationToApiSummary(outcome.Registration),
		Delivery: Delivery{
			Strategy:  outcome.Delivery.Strategy,
			Confirmed: outcome.Delivery.Confirmed,
		},
		Notices: nonNil(outcome.Notices),
	}

	if outcome.Delivery.StatusCode != 0 {
		submission.Delivery.StatusCode = ptr.To(outcome.Delivery.StatusCode)
	}
	if outcome.Receipt != nil {
		submission.Receipt = &ReceiptFile{
			FileName: outcome.Receipt.FileName,
			Content:  outcome.Receipt.Content,
		}
	}
	if outcome.ReceiptErr != nil {
		_, e := errorToApiError(outcome.ReceiptErr)
		submission.ReceiptError = &e
	}

	return submission
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
