package sheets

import (
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/cache-fest/festival-registration/registration"
)

const timestampLayout = "02/01/2006, 15:04:05"

var istZone = time.FixedZone("IST", 5*60*60+30*60)

// payload is the shape the spreadsheet webhook records, one column per field.
type payload struct {
	FullName           string `json:"fullName"`
	Email              string `json:"email"`
	Phone              string `json:"phone"`
	College            string `json:"college"`
	RollNo             string `json:"rollNo"`
	Section            string `json:"section"`
	SelectedEvents     string `json:"selectedEvents"`
	TotalAmount        int64  `json:"totalAmount"`
	TransactionRef     string `json:"transactionRef"`
	PaidAtIso          string `json:"paidAtIso"`
	UpiTxnID           string `json:"upiTxnId"`
	TicketDownloadTime string `json:"ticketDownloadTime"`
	VerificationHash   string `json:"verificationHash"`
	FlagIfDuplicate    string `json:"flagIfDuplicate"`
}

func newPayload(reg registration.Registration) payload {
	return payload{
		FullName:           reg.Profile.FullName,
		Email:              reg.Profile.Email,
		Phone:              reg.Profile.Phone,
		College:            reg.Profile.College,
		RollNo:             reg.Profile.RollNo,
		Section:            reg.Profile.Section,
		SelectedEvents:     strings.Join(reg.SelectedEvents, ","),
		TotalAmount:        reg.TotalAmount,
		TransactionRef:     reg.TransactionRef,
		PaidAtIso:          formatIST(reg.PaidAt),
		UpiTxnID:           reg.UpiTxnID,
		TicketDownloadTime: formatIST(reg.TicketDownloadTime),
		VerificationHash:   reg.VerificationHash,
		FlagIfDuplicate:    "1",
	}
}

// formatIST renders a timestamp in Asia/Kolkata, blank for the zero time.
func formatIST(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(istZone).Format(timestampLayout)
}

func (p payload) values() url.Values {
	v := url.Values{}
	v.Set("fullName", p.FullName)
	v.Set("email", p.Email)
	v.Set("phone", p.Phone)
	v.Set("college", p.College)
	v.Set("rollNo", p.RollNo)
	v.Set("section", p.Section)
	v.Set("selectedEvents", p.SelectedEvents)
	v.Set("totalAmount", strconv.FormatInt(p.TotalAmount, 10))
	v.Set("transactionRef", p.TransactionRef)
	v.Set("paidAtIso", p.PaidAtIso)
	v.Set("upiTxnId", p.UpiTxnID)
	v.Set("ticketDownloadTime", p.TicketDownloadTime)
	v.Set("verificationHash", p.VerificationHash)
	v.Set("flagIfDuplicate", p.FlagIfDuplicate)
	return v
}
