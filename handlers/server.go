package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"wayfare/cache"
	"wayfare/database"
	"wayfare/obs"
	"wayfare/services"
)

// ProviderAPI is the slice of the search-provider adapter the HTTP layer
// uses directly.
type ProviderAPI interface {
	services.FlightSearcher
	services.HotelSearcher
	SearchLocations(ctx context.Context, keyword string) []services.Location
}

// Planner generates natural-language itineraries.
type Planner interface {
	GeneratePlan(ctx context.Context, rec services.Recommendation, destination string) (string, error)
}

// Server wires the HTTP surface to its collaborators. DB may be nil; every
// handler degrades rather than requiring it.
type Server struct {
	Provider    ProviderAPI
	Recommender *services.Recommender
	Planner     Planner
	Quota       *services.SearchQuota
	Store       cache.Store
	DB          *database.DB
	Metrics     *obs.Metrics
}

// Register mounts all routes on the engine.
func (s *Server) Register(r *gin.Engine) {
	r.Use(s.countRequests())

	r.GET("/locations", s.Locations)
	r.GET("/flights/search", s.FlightsSearch)
	r.GET("/flights/calendar", s.FlightsCalendar)
	r.GET("/hotels/search", s.HotelsSearch)
	r.POST("/recommendations", s.Recommendations)
	r.POST("/recommendations/plan", s.Plan)
	r.GET("/plans/:id/pdf", s.PlanPDF)
	r.GET("/search/status", s.SearchStatus)
	r.GET("/health", s.Health)
	if s.Metrics != nil {
		r.GET("/metrics", gin.WrapH(s.Metrics.Handler()))
	}
}

func (s *Server) countRequests() gin.HandlerFunc {
	return func(c *gin.Context) {
		if route := c.FullPath(); route != "" {
			s.Metrics.IncRequest(route)
		}
		c.Next()
	}
}

// SearchStatus reports the remaining web-search budget.
func (s *Server) SearchStatus(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"remainingSearches": s.Quota.Remaining(),
		"maxSearches":       s.Quota.Max(),
	})
}

func (s *Server) Health(c *gin.Context) {
	dbStatus := "not configured"
	if s.DB != nil {
		dbStatus = "ok"
		if err := s.DB.Ping(); err != nil {
			dbStatus = "error: " + err.Error()
		}
	}

	cacheStatus := "ok"
	if s.Store == nil || !s.Store.Ready() {
		cacheStatus = "degraded"
	}

	c.JSON(http.StatusOK, gin.H{
		"status":   "ok",
		"service":  "Wayfare API",
		"database": dbStatus,
		"cache":    cacheStatus,
	})
}
