package receipt

import (
	"bytes"
	"fmt"
	"strconv"
	"time"

	"github.com/cache-fest/festival-registration/events"
	"github.com/cache-fest/festival-registration/registration"
	"github.com/go-pdf/fpdf"
)

type rgb struct{ r, g, b int }

var (
	primaryColor   = rgb{59, 130, 246}
	secondaryColor = rgb{107, 114, 128}
	accentColor    = rgb{34, 197, 94}
	warningColor   = rgb{245, 158, 11}
	darkColor      = rgb{31, 41, 55}
	cardColor      = rgb{248, 250, 252}
	noticeColor    = rgb{254, 243, 199}
	white          = rgb{255, 255, 255}
)

const (
	pageMargin  = 15.0
	cardPadding = 10.0
)

var _ registration.ReceiptRenderer = &Generator{}

// Generator renders receipts as single-flow A4 PDFs that break onto new pages as needed.
type Generator struct {
	catalog *events.Catalog
}

func NewGenerator(catalog *events.Catalog) *Generator {
	return &Generator{catalog: catalog}
}

func (g *Generator) RenderReceipt(reg registration.Registration) (registration.Receipt, error) {
	layout := BuildLayout(reg, g.catalog)
	if layout.ItemizedTotal != layout.Total {
		return registration.Receipt{}, registration.NewRenderError(
			fmt.Sprintf("Itemized total %d does not match registration total %d", layout.ItemizedTotal, layout.Total), nil)
	}

	content, err := renderPDF(layout, reg.PaidAt)
	if err != nil {
		return registration.Receipt{}, registration.NewRenderError("Failed to render receipt PDF", err)
	}

	return registration.Receipt{
		FileName: layout.FileName,
		Content:  content,
	}, nil
}

func renderPDF(l Layout, createdAt time.Time) ([]byte, error) {
	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(pageMargin, 20, pageMargin)
	pdf.SetAutoPageBreak(true, 20)
	if !createdAt.IsZero() {
		pdf.SetCreationDate(createdAt)
		pdf.SetModificationDate(createdAt)
	}
	pdf.SetTitle(Title+" Ticket "+l.TransactionRef, true)
	pdf.AddPage()

	tr := pdf.UnicodeTranslatorFromDescriptor("")
	pageWidth, _ := pdf.GetPageSize()
	contentWidth := pageWidth - 2*pageMargin
	half := contentWidth / 2

	text := func(size float64, style string, c rgb) {
		pdf.SetFont("Helvetica", style, size)
		pdf.SetTextColor(c.r, c.g, c.b)
	}
	rule := func(c rgb, width float64) {
		pdf.SetDrawColor(c.r, c.g, c.b)
		pdf.SetLineWidth(width)
		y := pdf.GetY()
		pdf.Line(pageMargin, y, pageWidth-pageMargin, y)
	}
	fill := func(c rgb) {
		pdf.SetFillColor(c.r, c.g, c.b)
	}

	text(24, "B", primaryColor)
	pdf.CellFormat(contentWidth, 12, tr(Title), "", 1, "C", false, 0, "")
	pdf.Ln(8)

	// transaction card
	fill(cardColor)
	text(10, "", secondaryColor)
	pdf.CellFormat(half, 6, tr("Transaction ID"), "", 0, "L", true, 0, "")
	pdf.CellFormat(half, 6, tr("UTR ID"), "", 1, "L", true, 0, "")
	text(14, "B", darkColor)
	pdf.CellFormat(half, 8, tr(l.TransactionRef), "", 0, "L", true, 0, "")
	text(14, "B", accentColor)
	pdf.CellFormat(half, 8, tr(l.UpiTxnID), "", 1, "L", true, 0, "")
	text(10, "", secondaryColor)
	pdf.CellFormat(half, 6, tr("Payment Date"), "", 0, "L", true, 0, "")
	downloadedLabel := ""
	if l.DownloadedAt != "" {
		downloadedLabel = "Downloaded"
	}
	pdf.CellFormat(half, 6, tr(downloadedLabel), "", 1, "L", true, 0, "")
	text(12, "", darkColor)
	pdf.CellFormat(half, 8, tr(l.PaymentDate), "", 0, "L", true, 0, "")
	text(12, "", accentColor)
	pdf.CellFormat(half, 8, tr(l.DownloadedAt), "", 1, "L", true, 0, "")
	rule(rgb{229, 231, 235}, 1)
	pdf.Ln(cardPadding)

	// participant details, two columns
	rule(primaryColor, 2)
	pdf.Ln(4)
	text(16, "B", primaryColor)
	pdf.CellFormat(contentWidth, 10, tr("PARTICIPANT DETAILS"), "", 1, "L", false, 0, "")
	for i := 0; i < len(l.Participant); i += 2 {
		row := l.Participant[i:min(i+2, len(l.Participant))]
		text(10, "", secondaryColor)
		for j, f := range row {
			pdf.CellFormat(half, 6, tr(f.Label+":"), "", lineEnd(j, len(row)), "L", false, 0, "")
		}
		text(12, "", darkColor)
		for j, f := range row {
			pdf.CellFormat(half, 8, tr(f.Value), "", lineEnd(j, len(row)), "L", false, 0, "")
		}
	}
	pdf.Ln(cardPadding)

	// events
	rule(primaryColor, 2)
	pdf.Ln(4)
	text(16, "B", primaryColor)
	pdf.CellFormat(contentWidth, 10, tr("SELECTED EVENTS"), "", 1, "L", false, 0, "")
	fill(cardColor)
	for _, line := range l.Lines {
		text(12, "", darkColor)
		pdf.CellFormat(contentWidth-40, 10, tr("• "+line.Name), "", 0, "L", true, 0, "")
		text(12, "B", accentColor)
		pdf.CellFormat(40, 10, rupees(line.Price), "", 1, "R", true, 0, "")
		pdf.Ln(2)
	}
	pdf.Ln(4)

	fill(accentColor)
	text(12, "B", white)
	pdf.CellFormat(contentWidth-60, 14, tr("TOTAL AMOUNT"), "", 0, "L", true, 0, "")
	text(18, "B", white)
	pdf.CellFormat(60, 14, rupees(l.Total), "", 1, "R", true, 0, "")
	pdf.Ln(cardPadding)

	// notice
	rule(warningColor, 3)
	fill(noticeColor)
	text(14, "B", warningColor)
	pdf.CellFormat(contentWidth, 10, tr("IMPORTANT"), "", 1, "L", true, 0, "")
	text(12, "B", darkColor)
	pdf.MultiCell(contentWidth, 7, tr(Notice), "", "L", true)
	pdf.Ln(cardPadding)

	// footer
	fill(cardColor)
	text(12, "B", primaryColor)
	pdf.CellFormat(contentWidth, 8, tr(ThankYouLine), "", 1, "C", true, 0, "")
	text(9, "", secondaryColor)
	pdf.CellFormat(contentWidth, 6, tr(ContactLine), "", 1, "C", true, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func lineEnd(i, n int) int {
	if i == n-1 {
		return 1
	}
	return 0
}

// rupees spells the currency out, the core PDF fonts have no rupee glyph.
func rupees(amount int64) string {
	return "Rs. " + strconv.FormatInt(amount, 10)
}
