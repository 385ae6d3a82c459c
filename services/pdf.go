package services

import (
	"bytes"
	"fmt"
	"time"

	"github.com/jung-kurt/gofpdf"
)

// PlanDocument is everything the rendered plan PDF needs.
type PlanDocument struct {
	Destination string
	Rec         Recommendation
	PlanText    string
	GeneratedAt time.Time
}

// RenderPlanPDF renders a trip plan to PDF bytes; nothing touches the
// filesystem, the caller stores the bytes.
func RenderPlanPDF(doc PlanDocument) ([]byte, error) {
	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.SetMargins(20, 20, 20)
	pdf.AddPage()

	// ── Header Bar ───────────────────────────────────────────
	pdf.SetFillColor(16, 42, 67)
	pdf.Rect(0, 0, 210, 28, "F")
	pdf.SetTextColor(255, 255, 255)
	pdf.SetFont("Helvetica", "B", 18)
	pdf.SetXY(20, 8)
	pdf.CellFormat(100, 10, "Wayfare", "", 0, "L", false, 0, "")
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(126, 200, 227)
	pdf.SetXY(20, 18)
	pdf.CellFormat(170, 6, "Trip Plan - "+doc.Destination, "", 1, "L", false, 0, "")

	pdf.SetY(35)
	pdf.SetTextColor(0, 0, 0)

	// ── Disclaimer ───────────────────────────────────────────
	pdf.SetFillColor(255, 248, 225)
	pdf.SetDrawColor(212, 168, 67)
	pdf.SetTextColor(130, 90, 20)
	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetLineWidth(0.4)
	y := pdf.GetY()
	pdf.Rect(20, y, 170, 12, "FD")
	pdf.SetXY(23, y+2)
	pdf.MultiCell(164, 4,
		"This is NOT a booking confirmation. Prices are estimates and subject to change. Verify with providers before booking.",
		"", "C", false)

	pdf.SetTextColor(0, 0, 0)
	pdf.SetDrawColor(0, 0, 0)
	pdf.SetLineWidth(0.2)
	pdf.Ln(6)

	sectionHeader := func(title string) {
		pdf.SetFillColor(16, 42, 67)
		pdf.SetTextColor(255, 255, 255)
		pdf.SetFont("Helvetica", "B", 11)
		pdf.CellFormat(170, 8, "  "+title, "", 1, "L", true, 0, "")
		pdf.SetTextColor(0, 0, 0)
		pdf.Ln(2)
	}

	row := func(label, value string) {
		pdf.SetFont("Helvetica", "", 10)
		pdf.SetTextColor(100, 100, 100)
		pdf.CellFormat(55, 7, label, "", 0, "L", false, 0, "")
		pdf.SetTextColor(20, 20, 20)
		pdf.SetFont("Helvetica", "B", 10)
		pdf.CellFormat(115, 7, value, "", 1, "L", false, 0, "")
	}

	// ── Package Summary ──────────────────────────────────────
	sectionHeader("Selected Package")
	if doc.Rec.Flight != nil {
		f := doc.Rec.Flight
		stops := "Direct"
		if f.Outbound.Stops > 0 {
			stops = fmt.Sprintf("%d stop(s)", f.Outbound.Stops)
		}
		row("Flight", fmt.Sprintf("%s → %s, %s, %s",
			f.Outbound.Departure.Airport, f.Outbound.Arrival.Airport, f.Outbound.Duration, stops))
		row("Flight price", fmt.Sprintf("%.0f %s", f.Price.Total, f.Price.Currency))
	} else {
		row("Flight", "Not resolved")
	}
	if doc.Rec.Hotel != nil {
		h := doc.Rec.Hotel
		row("Hotel", h.Name)
		if h.Rating != nil {
			row("Rating", fmt.Sprintf("%.1f / 5.0", *h.Rating))
		}
		if len(h.Offers) > 0 {
			row("Hotel price", fmt.Sprintf("%.0f %s/night",
				h.Offers[0].Price.PerNight, h.Offers[0].Price.Currency))
		}
	} else {
		row("Hotel", "Not resolved")
	}
	if doc.Rec.SuggestedDates != nil {
		dates := doc.Rec.SuggestedDates.Departure
		if doc.Rec.SuggestedDates.Return != "" {
			dates += " → " + doc.Rec.SuggestedDates.Return
		}
		row("Dates", dates)
	}
	if doc.Rec.TotalPrice > 0 {
		row("Estimated total", fmt.Sprintf("$%.0f", doc.Rec.TotalPrice))
	}
	pdf.Ln(4)

	// ── Plan ─────────────────────────────────────────────────
	sectionHeader("Day-by-Day Plan")
	pdf.SetFont("Helvetica", "", 10)
	pdf.SetTextColor(40, 40, 40)
	pdf.MultiCell(170, 5, doc.PlanText, "", "L", false)
	pdf.Ln(4)

	// ── Footer ───────────────────────────────────────────────
	pdf.SetY(-22)
	pdf.SetDrawColor(200, 200, 200)
	pdf.SetLineWidth(0.3)
	pdf.Line(20, pdf.GetY(), 190, pdf.GetY())
	pdf.SetFont("Helvetica", "I", 8)
	pdf.SetTextColor(150, 150, 150)
	pdf.CellFormat(0, 8,
		fmt.Sprintf("Generated by Wayfare on %s · Not a booking confirmation",
			doc.GeneratedAt.Format("02 Jan 2006 15:04 UTC")),
		"", 0, "C", false, 0, "")

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("PDF output failed: %w", err)
	}
	return buf.Bytes(), nil
}
