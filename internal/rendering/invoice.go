package rendering

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/go-pdf/fpdf"
	"github.com/google/uuid"
)

// Invoice is everything printed on an invoice.
type Invoice struct {
	ApplicationID uuid.UUID
	Date          time.Time

	JobTitle      string
	CompanyName   string
	DurationType  string
	DurationValue string
	Location      string

	WorkerName  string
	WorkerEmail string
	WorkerPhone string

	Amount float64
	Status string
}

// Page layout in millimetres from the top-left corner of an A4 page.
const (
	marginLeft   = 20.0
	pageHeight   = 297.0
	titleSize    = 24
	headingSize  = 14
	bodySize     = 12
	footerSize   = 10
	currencyCode = "SAR"
)

type line struct {
	y     float64
	style string
	size  float64
	text  string
}

func (inv *Invoice) lines() []line {
	duration := inv.DurationValue
	if inv.DurationType != "" {
		duration = fmt.Sprintf("%s (%s)", inv.DurationValue, inv.DurationType)
	}
	return []line{
		{30, "B", titleSize, "JOBNI - Invoice"},
		{40, "", bodySize, "Invoice Date: " + inv.Date.Format("2006-01-02")},
		{45, "", bodySize, "Application ID: " + inv.ApplicationID.String()},

		{60, "B", headingSize, "Job Details:"},
		{67, "", bodySize, "Title: " + inv.JobTitle},
		{73, "", bodySize, "Company: " + inv.CompanyName},
		{79, "", bodySize, "Duration: " + duration},
		{85, "", bodySize, "Location: " + inv.Location},

		{100, "B", headingSize, "Worker Details:"},
		{107, "", bodySize, "Name: " + inv.WorkerName},
		{113, "", bodySize, "Email: " + inv.WorkerEmail},
		{119, "", bodySize, "Phone: " + orNA(inv.WorkerPhone)},

		{135, "B", headingSize, "Payment Details:"},
		{142, "", bodySize, fmt.Sprintf("Amount: %.2f %s", inv.Amount, currencyCode)},
		{148, "", bodySize, "Status: " + strings.ToUpper(inv.Status)},

		{pageHeight - 20, "", footerSize, "Jobni - Part-Time Jobs Platform"},
		{pageHeight - 15, "", footerSize, "Thank you for using our service!"},
	}
}

// RenderInvoice writes inv as a single-page A4 PDF to w.
func RenderInvoice(inv *Invoice, w io.Writer) error {
	if inv == nil {
		return &RenderError{Message: "no invoice data"}
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetTitle("Invoice "+inv.ApplicationID.String(), true)
	pdf.SetCreator("Jobni", true)
	pdf.SetCreationDate(inv.Date)
	pdf.SetAutoPageBreak(false, 0)
	pdf.AddPage()

	for _, l := range inv.lines() {
		pdf.SetFont("Helvetica", l.style, l.size)
		pdf.Text(marginLeft, l.y, toCP1252(flattenLine(l.text)))
	}

	if pdf.Err() {
		return &RenderError{Message: "failed to lay out invoice", Cause: pdf.Error()}
	}
	if err := pdf.Output(w); err != nil {
		return &RenderError{Message: "failed to write invoice", Cause: err}
	}
	return nil
}
