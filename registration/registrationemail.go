package registration

import (
	"bytes"
	"context"
	"embed"
	"fmt"
	htmltemplate "html/template"
	texttemplate "text/template"
	"time"

	"github.com/International-Combat-Archery-Alliance/email"
	"github.com/cache-fest/festival-registration/events"
)

//go:embed templates
var templates embed.FS

var istZone = time.FixedZone("IST", 5*60*60+30*60)

type emailLine struct {
	Name  string
	Price string
}

type emailData struct {
	Registration Registration
	Events       []emailLine
	Total        string
	PaidAt       string
}

func SendRegistrationConfirmationEmail(ctx context.Context, emailSender email.Sender, fromAddress string, reg Registration, catalog *events.Catalog) error {
	data := newEmailData(reg, catalog)

	htmlBody, err := makeHtmlBody(data)
	if err != nil {
		return err
	}

	textOnlyBody, err := makeTextOnlyBody(data)
	if err != nil {
		return err
	}

	return emailSender.SendEmail(ctx, email.Email{
		FromAddress: fromAddress,
		ToAddresses: []string{reg.Profile.Email},
		Subject:     fmt.Sprintf("Cache 2025 registration confirmed - %s", reg.TransactionRef),
		HTMLBody:    htmlBody,
		TextBody:    textOnlyBody,
	})
}

func newEmailData(reg Registration, catalog *events.Catalog) emailData {
	lines := make([]emailLine, 0, len(reg.SelectedEvents))
	for _, id := range reg.SelectedEvents {
		name, price := catalog.NameAndPrice(id)
		lines = append(lines, emailLine{Name: name, Price: events.Rupees(price).Display()})
	}

	return emailData{
		Registration: reg,
		Events:       lines,
		Total:        events.Rupees(reg.TotalAmount).Display(),
		PaidAt:       reg.PaidAt.In(istZone).Format("02/01/2006, 15:04:05"),
	}
}

func makeHtmlBody(data emailData) (string, error) {
	tmpl, err := htmltemplate.New("registration-confirmation.tmpl").Funcs(htmltemplate.FuncMap{
		"add": func(a, b int) int { return a + b },
	}).ParseFS(templates, "templates/registration-confirmation.tmpl")
	if err != nil {
		return "", fmt.Errorf("failed to parse email template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute email template: %w", err)
	}

	return buf.String(), nil
}

func makeTextOnlyBody(data emailData) (string, error) {
	tmpl, err := texttemplate.New("registration-confirmation-textonly.tmpl").Funcs(texttemplate.FuncMap{
		"add": func(a, b int) int { return a + b },
	}).ParseFS(templates, "templates/registration-confirmation-textonly.tmpl")
	if err != nil {
		return "", fmt.Errorf("failed to parse email template: %w", err)
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to execute email template: %w", err)
	}

	return buf.String(), nil
}
