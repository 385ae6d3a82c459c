package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"wayfare/database"
	"wayfare/services"
)

// Recommendations runs the full orchestration pipeline. The only error
// responses are invalid input (400) and a panic caught by the recovery
// middleware (500); every provider degradation is reflected in the meta
// counters instead.
func (s *Server) Recommendations(c *gin.Context) {
	var req services.RecommendationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body: " + err.Error()})
		return
	}

	bundle, err := s.Recommender.Recommend(c.Request.Context(), req)
	if err != nil {
		if errors.Is(err, services.ErrInvalidRequest) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		log.Printf("❌ recommendation pipeline failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to generate recommendations"})
		return
	}

	// Best-effort audit trail; history is optional.
	if s.DB != nil {
		record := &database.SearchRecord{
			ID:            uuid.New().String(),
			Origin:        req.Origin,
			Destination:   req.Destination,
			SearchMode:    bundle.Meta.SearchMode,
			DepartureDate: req.DepartureDate,
			ReturnDate:    req.ReturnDate,
			PeriodStart:   req.PeriodStart,
			PeriodEnd:     req.PeriodEnd,
			Adults:        req.Adults,
			Budget:        req.Budget,
		}
		if err := s.DB.SaveSearch(record); err != nil {
			log.Printf("⚠️  failed to save search history: %v", err)
		}
	}

	c.JSON(http.StatusOK, bundle)
}
