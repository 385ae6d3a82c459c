package handlers

import (
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"wayfare/database"
	"wayfare/services"
)

type PlanRequest struct {
	Recommendation services.Recommendation `json:"recommendation" binding:"required"`
	Destination    string                  `json:"destination" binding:"required"`
}

type PlanResponse struct {
	Plan   string `json:"plan"`
	PlanID string `json:"planId,omitempty"`
	PDFURL string `json:"pdfUrl,omitempty"`
}

// Plan turns a chosen recommendation into a day-by-day itinerary. An LLM
// failure degrades to a generated package summary; when the database is
// available the plan is also rendered to PDF and stored for download.
func (s *Server) Plan(c *gin.Context) {
	var req PlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}

	planText, err := s.Planner.GeneratePlan(c.Request.Context(), req.Recommendation, req.Destination)
	if err != nil {
		log.Printf("⚠️  plan generation failed: %v — using summary fallback", err)
		planText = fallbackPlanText(req.Recommendation, req.Destination)
	}

	resp := PlanResponse{Plan: planText}

	if s.DB != nil {
		pdfBytes, perr := services.RenderPlanPDF(services.PlanDocument{
			Destination: req.Destination,
			Rec:         req.Recommendation,
			PlanText:    planText,
			GeneratedAt: time.Now().UTC(),
		})
		if perr != nil {
			log.Printf("⚠️  plan PDF rendering failed: %v", perr)
		} else {
			plan := &database.Plan{
				ID:          uuid.New().String(),
				Destination: req.Destination,
				PlanText:    planText,
				PDFData:     pdfBytes,
			}
			if serr := s.DB.SavePlan(plan); serr != nil {
				log.Printf("⚠️  failed to save plan: %v", serr)
			} else {
				resp.PlanID = plan.ID
				resp.PDFURL = "/plans/" + plan.ID + "/pdf"
			}
		}
	}

	c.JSON(http.StatusOK, resp)
}

// PlanPDF serves a previously rendered plan PDF.
func (s *Server) PlanPDF(c *gin.Context) {
	if s.DB == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Plan storage is not configured"})
		return
	}

	plan, err := s.DB.GetPlan(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Plan not found"})
		return
	}
	if len(plan.PDFData) == 0 {
		c.JSON(http.StatusNotFound, gin.H{"error": "No PDF was rendered for this plan"})
		return
	}

	c.Header("Content-Disposition", "attachment; filename=wayfare-trip-plan.pdf")
	c.Header("Cache-Control", "no-store")
	c.Data(http.StatusOK, "application/pdf", plan.PDFData)
}

// fallbackPlanText summarizes the package when the model is unavailable.
func fallbackPlanText(rec services.Recommendation, destination string) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Trip plan for %s (automatically generated — AI planning unavailable).\n\n", destination)
	if rec.Flight != nil {
		stops := "direct"
		if rec.Flight.Outbound.Stops > 0 {
			stops = fmt.Sprintf("%d stop(s)", rec.Flight.Outbound.Stops)
		}
		fmt.Fprintf(&sb, "Flight: %s to %s, %s, %s, %.0f %s.\n",
			rec.Flight.Outbound.Departure.Airport, rec.Flight.Outbound.Arrival.Airport,
			rec.Flight.Outbound.Duration, stops, rec.Flight.Price.Total, rec.Flight.Price.Currency)
	}
	if rec.Hotel != nil {
		fmt.Fprintf(&sb, "Hotel: %s, %s.\n", rec.Hotel.Name, rec.Hotel.Location.Address)
	}
	if rec.SuggestedDates != nil {
		fmt.Fprintf(&sb, "Dates: %s", rec.SuggestedDates.Departure)
		if rec.SuggestedDates.Return != "" {
			fmt.Fprintf(&sb, " to %s", rec.SuggestedDates.Return)
		}
		sb.WriteString(".\n")
	}
	sb.WriteString("\nPlan each day around the neighborhoods near your hotel, and confirm opening hours and prices locally.")
	return sb.String()
}
