package handlers

import (
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"wayfare/services"
)

// Locations serves airport/city autocomplete. It never fails: an
// unconfigured or unreachable provider falls back to embedded data inside
// the adapter.
func (s *Server) Locations(c *gin.Context) {
	keyword := strings.TrimSpace(c.Query("keyword"))
	if keyword == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "keyword query parameter is required"})
		return
	}

	locations := s.Provider.SearchLocations(c.Request.Context(), keyword)
	c.JSON(http.StatusOK, gin.H{"locations": locations, "count": len(locations)})
}

// FlightsSearch is the single-date flight search.
func (s *Server) FlightsSearch(c *gin.Context) {
	criteria := services.FlightCriteria{
		Origin:        strings.ToUpper(strings.TrimSpace(c.Query("origin"))),
		Destination:   strings.ToUpper(strings.TrimSpace(c.Query("destination"))),
		DepartureDate: c.Query("departureDate"),
		ReturnDate:    c.Query("returnDate"),
		Adults:        queryInt(c, "adults", 1),
		Currency:      c.Query("currency"),
	}

	if criteria.Origin == "" || criteria.Destination == "" || criteria.DepartureDate == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "origin, destination and departureDate are required"})
		return
	}

	flights, err := s.Provider.SearchFlights(c.Request.Context(), criteria)
	if err != nil {
		// Provider failure degrades to an empty result, same as unconfigured.
		log.Printf("⚠️  flight search failed: %v", err)
		flights = nil
	}

	c.JSON(http.StatusOK, gin.H{"flights": flights, "count": len(flights)})
}

// FlightsCalendar samples the date range and returns min price per sampled
// departure date, plus the best deal found.
func (s *Server) FlightsCalendar(c *gin.Context) {
	origin := strings.ToUpper(strings.TrimSpace(c.Query("origin")))
	destination := strings.ToUpper(strings.TrimSpace(c.Query("destination")))
	startDate := c.Query("startDate")
	endDate := c.Query("endDate")

	if origin == "" || destination == "" || startDate == "" || endDate == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "origin, destination, startDate and endDate are required"})
		return
	}

	result, err := s.Provider.SearchFlightsInRange(c.Request.Context(), origin, destination,
		startDate, endDate, queryInt(c, "tripDuration", 7), queryInt(c, "adults", 1))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// HotelsSearch accepts cityCode or destination for the city to search.
func (s *Server) HotelsSearch(c *gin.Context) {
	city := strings.ToUpper(strings.TrimSpace(c.Query("cityCode")))
	if city == "" {
		city = strings.ToUpper(strings.TrimSpace(c.Query("destination")))
	}
	checkIn := c.Query("checkIn")
	checkOut := c.Query("checkOut")

	if city == "" || checkIn == "" || checkOut == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cityCode (or destination), checkIn and checkOut are required"})
		return
	}

	hotels, err := s.Provider.SearchHotels(c.Request.Context(), city, checkIn, checkOut, queryInt(c, "adults", 1))
	if err != nil {
		log.Printf("⚠️  hotel search failed: %v", err)
		hotels = nil
	}

	c.JSON(http.StatusOK, gin.H{"hotels": hotels, "count": len(hotels)})
}

func queryInt(c *gin.Context, name string, fallback int) int {
	v := c.Query(name)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}
