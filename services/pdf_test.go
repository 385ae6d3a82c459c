package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRenderPlanPDF(t *testing.T) {
	rating := 4.5
	doc := PlanDocument{
		Destination: "Lisbon",
		Rec: Recommendation{
			Rank:       1,
			TotalPrice: 1150,
			ValueScore: 88,
			Reasoning:  "Direct flight, central hotel.",
			Flight: &FlightOption{
				ID:    "fl-0",
				Price: Price{Total: 450, Currency: "USD"},
				Outbound: Itinerary{
					Duration:  "7h 30m",
					Departure: Stop{Airport: "JFK", Time: "2025-06-01T08:00:00"},
					Arrival:   Stop{Airport: "LIS", Time: "2025-06-01T20:30:00"},
				},
			},
			Hotel: &HotelOption{
				ID:     "ht-0",
				Name:   "Grand Lisboa",
				Rating: &rating,
				Offers: []HotelOffer{{Price: HotelPrice{Total: 700, PerNight: 100, Currency: "USD"}}},
			},
			SuggestedDates: &SuggestedDates{Departure: "2025-06-01", Return: "2025-06-08"},
		},
		PlanText:    "Day 1: arrive and walk Alfama.\nDay 2: tram 28 and Belém.",
		GeneratedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	data, err := RenderPlanPDF(doc)
	require.NoError(t, err)
	require.NotEmpty(t, data)
	assert.Equal(t, "%PDF", string(data[:4]))
}

func TestRenderPlanPDFSparseRecommendation(t *testing.T) {
	// A recommendation with null flight/hotel still renders.
	data, err := RenderPlanPDF(PlanDocument{
		Destination: "Lisbon",
		Rec:         Recommendation{Rank: 1},
		PlanText:    "Short plan.",
		GeneratedAt: time.Now(),
	})
	require.NoError(t, err)
	assert.NotEmpty(t, data)
}
