package receipt

import (
	"time"

	"github.com/cache-fest/festival-registration/events"
	"github.com/cache-fest/festival-registration/registration"
)

const (
	Title        = "CACHE - 2K25"
	Notice       = "Please show both your transaction proof and this ticket at the entry gate to participate in the event."
	ThankYouLine = "Thank you for registering for Cache 2025!"
	ContactLine  = "For queries: raghavap1116@gmail.com"

	dateLayout = "2 January 2006, 03:04:05 pm"
)

var istZone = time.FixedZone("IST", 5*60*60+30*60)

type Field struct {
	Label string
	Value string
}

type Line struct {
	Name  string
	Price int64
}

// Layout is everything printed on a receipt, already resolved against the catalog.
type Layout struct {
	TransactionRef string
	UpiTxnID       string
	PaymentDate    string
	// DownloadedAt is blank when the download time is unknown.
	DownloadedAt  string
	Participant   []Field
	Lines         []Line
	ItemizedTotal int64
	Total         int64
	FileName      string
}

func FileName(transactionRef string) string {
	return "Cache2025_Ticket_" + transactionRef + ".pdf"
}

func BuildLayout(reg registration.Registration, catalog *events.Catalog) Layout {
	lines := make([]Line, 0, len(reg.SelectedEvents))
	var itemized int64
	for _, id := range reg.SelectedEvents {
		name, price := catalog.NameAndPrice(id)
		lines = append(lines, Line{Name: name, Price: price})
		itemized += price
	}

	return Layout{
		TransactionRef: reg.TransactionRef,
		UpiTxnID:       reg.UpiTxnID,
		PaymentDate:    formatDate(reg.PaidAt),
		DownloadedAt:   formatDate(reg.TicketDownloadTime),
		Participant: []Field{
			{Label: "Full Name", Value: reg.Profile.FullName},
			{Label: "Email", Value: reg.Profile.Email},
			{Label: "Phone", Value: reg.Profile.Phone},
			{Label: "College", Value: reg.Profile.College},
			{Label: "Roll Number", Value: reg.Profile.RollNo},
			{Label: "Section", Value: reg.Profile.Section},
		},
		Lines:         lines,
		ItemizedTotal: itemized,
		Total:         reg.TotalAmount,
		FileName:      FileName(reg.TransactionRef),
	}
}

func formatDate(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.In(istZone).Format(dateLayout)
}
