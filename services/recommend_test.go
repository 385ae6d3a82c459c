package services

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ─── Stub providers ───────────────────────────────────────────────────────────

type stubFlights struct {
	flights   []FlightOption
	rangeRes  *RangeResult
	err       error
	calls     int
	lastRange [2]string
}

func (s *stubFlights) SearchFlights(ctx context.Context, criteria FlightCriteria) ([]FlightOption, error) {
	s.calls++
	return s.flights, s.err
}

func (s *stubFlights) SearchFlightsInRange(ctx context.Context, origin, destination, startDate, endDate string, tripDurationDays, adults int) (*RangeResult, error) {
	s.calls++
	s.lastRange = [2]string{startDate, endDate}
	if s.err != nil {
		return nil, s.err
	}
	if s.rangeRes != nil {
		return s.rangeRes, nil
	}
	return &RangeResult{PriceByDate: map[string]float64{}}, nil
}

type stubHotels struct {
	hotels       []HotelOption
	err          error
	lastCheckIn  string
	lastCheckOut string
}

func (s *stubHotels) SearchHotels(ctx context.Context, cityCode, checkIn, checkOut string, adults int) ([]HotelOption, error) {
	s.lastCheckIn, s.lastCheckOut = checkIn, checkOut
	return s.hotels, s.err
}

type stubWeb struct {
	configured bool
	results    map[string]*SearchResult
	calls      []string
}

func (s *stubWeb) Configured() bool { return s.configured }

func (s *stubWeb) Search(ctx context.Context, query string, opts SearchOptions) (*SearchResult, error) {
	s.calls = append(s.calls, query)
	if r, ok := s.results[query]; ok {
		return r, nil
	}
	return nil, errors.New("no result")
}

type stubAnalyst struct {
	queries  []string
	analysis *Analysis
	err      error
	lastIn   AnalysisInput
}

func (s *stubAnalyst) ProposeSearchQueries(ctx context.Context, trip TripContext, remainingQuota int) ([]string, error) {
	return s.queries, nil
}

func (s *stubAnalyst) GenerateRecommendations(ctx context.Context, input AnalysisInput) (*Analysis, error) {
	s.lastIn = input
	if s.err != nil {
		return nil, s.err
	}
	return s.analysis, nil
}

func testFlights(prices ...float64) []FlightOption {
	out := make([]FlightOption, len(prices))
	for i, p := range prices {
		out[i] = FlightOption{
			ID:    fmt.Sprintf("fl-%d", i),
			Price: Price{Total: p, Currency: "USD", PerTraveler: p},
		}
	}
	return out
}

func testHotels(names ...string) []HotelOption {
	out := make([]HotelOption, len(names))
	for i, n := range names {
		out[i] = HotelOption{
			ID:   fmt.Sprintf("ht-%d", i),
			Name: n,
			Offers: []HotelOffer{{
				Price: HotelPrice{Total: 700, PerNight: 100, Currency: "USD"},
			}},
		}
	}
	return out
}

func newTestRecommender(f FlightSearcher, h HotelSearcher, w WebSearcher, a Analyst, quota *SearchQuota) *Recommender {
	if quota == nil {
		quota = NewSearchQuota(100)
	}
	return NewRecommender(f, h, w, a, quota, nil)
}

// ─── Validation ───────────────────────────────────────────────────────────────

func TestRecommendValidation(t *testing.T) {
	r := newTestRecommender(&stubFlights{}, &stubHotels{}, &stubWeb{}, &stubAnalyst{}, nil)
	ctx := context.Background()

	cases := []struct {
		name string
		req  RecommendationRequest
	}{
		{"missing origin", RecommendationRequest{Destination: "LIS", DepartureDate: "2025-06-01"}},
		{"missing destination", RecommendationRequest{Origin: "JFK", DepartureDate: "2025-06-01"}},
		{"no dates at all", RecommendationRequest{Origin: "JFK", Destination: "LIS"}},
		{"bad departure date", RecommendationRequest{Origin: "JFK", Destination: "LIS", DepartureDate: "June 1st"}},
		{"bad period date", RecommendationRequest{Origin: "JFK", Destination: "LIS", PeriodStart: "2025-06-01", PeriodEnd: "soon"}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := r.Recommend(ctx, tc.req)
			assert.ErrorIs(t, err, ErrInvalidRequest)
		})
	}
}

func TestRecommendNormalizesCodes(t *testing.T) {
	flights := &stubFlights{flights: testFlights(300)}
	analyst := &stubAnalyst{err: errors.New("down")}
	r := newTestRecommender(flights, &stubHotels{}, &stubWeb{}, analyst, nil)

	bundle, err := r.Recommend(context.Background(), RecommendationRequest{
		Origin: "  jfk ", Destination: "lis", DepartureDate: "2025-06-01",
	})
	require.NoError(t, err)
	assert.Equal(t, "JFK to LIS", fmt.Sprintf("%s to %s", analyst.lastIn.Trip.Origin, analyst.lastIn.Trip.Destination))
	assert.Equal(t, "specific_dates", bundle.Meta.SearchMode)
}

// ─── Happy path ───────────────────────────────────────────────────────────────

func TestRecommendSpecificDatesHappyPath(t *testing.T) {
	flights := &stubFlights{flights: testFlights(300, 450)}
	hotels := &stubHotels{hotels: testHotels("Grand", "Plaza")}
	analyst := &stubAnalyst{
		analysis: &Analysis{
			Recommendations: []Recommendation{
				{Rank: 1, FlightID: "fl-1", HotelID: "ht-0", TotalPrice: 1150, ValueScore: 90, Reasoning: "best fit"},
			},
			Insights: Insights{PriceAnalysis: "stable"},
			Summary:  "one pick",
		},
	}
	r := newTestRecommender(flights, hotels, &stubWeb{}, analyst, nil)

	bundle, err := r.Recommend(context.Background(), RecommendationRequest{
		Origin: "JFK", Destination: "LIS",
		DepartureDate: "2025-06-01", ReturnDate: "2025-06-08", Adults: 2,
	})
	require.NoError(t, err)

	require.Len(t, bundle.Recommendations, 1)
	rec := bundle.Recommendations[0]
	require.NotNil(t, rec.Flight)
	assert.Equal(t, 450.0, rec.Flight.Price.Total)
	require.NotNil(t, rec.Hotel)
	assert.Equal(t, "Grand", rec.Hotel.Name)
	require.NotNil(t, rec.SuggestedDates)
	assert.Equal(t, "2025-06-01", rec.SuggestedDates.Departure)
	assert.Equal(t, "2025-06-08", rec.SuggestedDates.Return)

	assert.Equal(t, 2, bundle.Meta.FlightsAnalyzed)
	assert.Equal(t, 2, bundle.Meta.HotelsAnalyzed)
	assert.Equal(t, "one pick", bundle.Summary)
	assert.Nil(t, bundle.SearchPeriod)

	// Hotel stay follows the literal dates in specific mode.
	assert.Equal(t, "2025-06-01", hotels.lastCheckIn)
	assert.Equal(t, "2025-06-08", hotels.lastCheckOut)
}

func TestRecommendDateRangeUsesBestDealForStay(t *testing.T) {
	deal := FlightOption{ID: "fl-1", Price: Price{Total: 280}, SearchDate: "2025-06-10"}
	flights := &stubFlights{rangeRes: &RangeResult{
		Flights:     []FlightOption{{ID: "fl-0", Price: Price{Total: 350}, SearchDate: "2025-06-01"}, deal},
		BestDeal:    &deal,
		PriceByDate: map[string]float64{"2025-06-01": 350, "2025-06-10": 280},
	}}
	hotels := &stubHotels{hotels: testHotels("Grand")}
	analyst := &stubAnalyst{err: errors.New("down")}
	r := newTestRecommender(flights, hotels, &stubWeb{}, analyst, nil)

	bundle, err := r.Recommend(context.Background(), RecommendationRequest{
		Origin: "JFK", Destination: "LIS",
		PeriodStart: "2025-06-01", PeriodEnd: "2025-06-20", TripDuration: 5,
	})
	require.NoError(t, err)

	assert.Equal(t, "date_range", bundle.Meta.SearchMode)
	require.NotNil(t, bundle.SearchPeriod)
	assert.Equal(t, "2025-06-01", bundle.SearchPeriod.Start)
	require.NotNil(t, bundle.BestDeal)
	assert.Equal(t, 280.0, bundle.BestDeal.Price.Total)
	assert.Len(t, bundle.PriceByDate, 2)

	// The stay is anchored on the best deal's departure, not the window start.
	assert.Equal(t, "2025-06-10", hotels.lastCheckIn)
	assert.Equal(t, "2025-06-15", hotels.lastCheckOut)

	// Suggested dates derive from the best deal too.
	require.NotEmpty(t, bundle.Recommendations)
	require.NotNil(t, bundle.Recommendations[0].SuggestedDates)
	assert.Equal(t, "2025-06-10", bundle.Recommendations[0].SuggestedDates.Departure)
	assert.Equal(t, "2025-06-15", bundle.Recommendations[0].SuggestedDates.Return)
}

// ─── Degradation ──────────────────────────────────────────────────────────────

func TestRecommendProviderFailuresDegrade(t *testing.T) {
	flights := &stubFlights{err: errors.New("amadeus down")}
	hotels := &stubHotels{err: errors.New("amadeus down")}
	analyst := &stubAnalyst{err: errors.New("llm down")}
	r := newTestRecommender(flights, hotels, &stubWeb{}, analyst, nil)

	bundle, err := r.Recommend(context.Background(), RecommendationRequest{
		Origin: "JFK", Destination: "LIS", DepartureDate: "2025-06-01",
	})
	require.NoError(t, err, "provider failures after validation must not surface")

	assert.Empty(t, bundle.Recommendations)
	assert.Equal(t, 0, bundle.Meta.FlightsAnalyzed)
	assert.Equal(t, 0, bundle.Meta.HotelsAnalyzed)
	assert.Contains(t, bundle.Summary, "Automated pick")
}

func TestRecommendFallbackDeterminism(t *testing.T) {
	// Seven flights: the fallback keeps the first five in order.
	flights := &stubFlights{flights: testFlights(100, 120, 140, 160, 180, 200, 220)}
	hotels := &stubHotels{hotels: testHotels("Grand", "Plaza")}
	analyst := &stubAnalyst{err: errors.New("llm down")}
	r := newTestRecommender(flights, hotels, &stubWeb{}, analyst, nil)

	bundle, err := r.Recommend(context.Background(), RecommendationRequest{
		Origin: "JFK", Destination: "LIS", DepartureDate: "2025-06-01",
	})
	require.NoError(t, err)

	require.Len(t, bundle.Recommendations, 5)
	for i, rec := range bundle.Recommendations {
		assert.Equal(t, i+1, rec.Rank)
		assert.Equal(t, fmt.Sprintf("fl-%d", i), rec.FlightID)
		assert.Equal(t, float64(70-i*5), rec.ValueScore)
		// Every fallback package pairs the first hotel.
		assert.Equal(t, "ht-0", rec.HotelID)
		require.NotNil(t, rec.Flight)
		require.NotNil(t, rec.Hotel)
		// Flight price plus the hotel's first offer total.
		assert.Equal(t, rec.Flight.Price.Total+700, rec.TotalPrice)
	}
}

func TestRecommendFallbackFewFlights(t *testing.T) {
	flights := &stubFlights{flights: testFlights(100, 120)}
	analyst := &stubAnalyst{err: errors.New("llm down")}
	r := newTestRecommender(flights, &stubHotels{}, &stubWeb{}, analyst, nil)

	bundle, err := r.Recommend(context.Background(), RecommendationRequest{
		Origin: "JFK", Destination: "LIS", DepartureDate: "2025-06-01",
	})
	require.NoError(t, err)

	require.Len(t, bundle.Recommendations, 2)
	// No hotels fetched: hotel side stays null.
	assert.Empty(t, bundle.Recommendations[0].HotelID)
	assert.Nil(t, bundle.Recommendations[0].Hotel)
}

// ─── Join tolerance ───────────────────────────────────────────────────────────

func TestRecommendToleratesInventedIDs(t *testing.T) {
	flights := &stubFlights{flights: testFlights(300)}
	hotels := &stubHotels{hotels: testHotels("Grand")}
	analyst := &stubAnalyst{
		analysis: &Analysis{
			Recommendations: []Recommendation{
				{Rank: 1, FlightID: "fl-0", HotelID: "ht-0", ValueScore: 90},
				{Rank: 2, FlightID: "made-up", HotelID: "also-made-up", ValueScore: 80},
			},
		},
	}
	r := newTestRecommender(flights, hotels, &stubWeb{}, analyst, nil)

	bundle, err := r.Recommend(context.Background(), RecommendationRequest{
		Origin: "JFK", Destination: "LIS", DepartureDate: "2025-06-01",
	})
	require.NoError(t, err)

	require.Len(t, bundle.Recommendations, 2)
	assert.NotNil(t, bundle.Recommendations[0].Flight)
	assert.NotNil(t, bundle.Recommendations[0].Hotel)
	// Hallucinated IDs resolve to nulls, the entry survives.
	assert.Nil(t, bundle.Recommendations[1].Flight)
	assert.Nil(t, bundle.Recommendations[1].Hotel)
}

// ─── Enrichment ───────────────────────────────────────────────────────────────

func TestRecommendEnrichmentCappedAtTwo(t *testing.T) {
	web := &stubWeb{configured: true, results: map[string]*SearchResult{
		"q1": {Query: "q1"}, "q2": {Query: "q2"}, "q3": {Query: "q3"},
	}}
	analyst := &stubAnalyst{
		queries: []string{"q1", "q2", "q3"},
		analysis: &Analysis{
			Recommendations: []Recommendation{{Rank: 1, FlightID: "fl-0"}},
		},
	}
	quota := NewSearchQuota(10)
	r := newTestRecommender(&stubFlights{flights: testFlights(300)}, &stubHotels{}, web, analyst, quota)

	bundle, err := r.Recommend(context.Background(), RecommendationRequest{
		Origin: "JFK", Destination: "LIS", DepartureDate: "2025-06-01",
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"q1", "q2"}, web.calls, "at most two proposed queries run")
	assert.Equal(t, 2, bundle.Meta.WebSearchesUsed)
	require.Len(t, analyst.lastIn.Enrichment, 2)
}

func TestRecommendEnrichmentSkippedWhenExhausted(t *testing.T) {
	web := &stubWeb{configured: true}
	analyst := &stubAnalyst{
		queries:  []string{"q1"},
		analysis: &Analysis{Recommendations: []Recommendation{{Rank: 1, FlightID: "fl-0"}}},
	}
	quota := NewSearchQuota(0)
	r := newTestRecommender(&stubFlights{flights: testFlights(300)}, &stubHotels{}, web, analyst, quota)

	bundle, err := r.Recommend(context.Background(), RecommendationRequest{
		Origin: "JFK", Destination: "LIS", DepartureDate: "2025-06-01",
	})
	require.NoError(t, err)

	assert.Empty(t, web.calls)
	assert.Equal(t, 0, bundle.Meta.WebSearchesUsed)
	assert.Equal(t, 0, bundle.Meta.RemainingSearches)
}

func TestRecommendEnrichmentSkippedWhenUnconfigured(t *testing.T) {
	web := &stubWeb{configured: false}
	analyst := &stubAnalyst{
		queries:  []string{"q1"},
		analysis: &Analysis{Recommendations: []Recommendation{{Rank: 1, FlightID: "fl-0"}}},
	}
	r := newTestRecommender(&stubFlights{flights: testFlights(300)}, &stubHotels{}, web, analyst, nil)

	_, err := r.Recommend(context.Background(), RecommendationRequest{
		Origin: "JFK", Destination: "LIS", DepartureDate: "2025-06-01",
	})
	require.NoError(t, err)
	assert.Empty(t, web.calls)
}

func TestRecommendEnrichmentFailuresAbsorbed(t *testing.T) {
	// Searches that error are skipped; the pipeline keeps going.
	web := &stubWeb{configured: true, results: map[string]*SearchResult{"q2": {Query: "q2"}}}
	analyst := &stubAnalyst{
		queries:  []string{"q1", "q2"},
		analysis: &Analysis{Recommendations: []Recommendation{{Rank: 1, FlightID: "fl-0"}}},
	}
	r := newTestRecommender(&stubFlights{flights: testFlights(300)}, &stubHotels{}, web, analyst, NewSearchQuota(10))

	bundle, err := r.Recommend(context.Background(), RecommendationRequest{
		Origin: "JFK", Destination: "LIS", DepartureDate: "2025-06-01",
	})
	require.NoError(t, err)
	assert.Equal(t, 1, bundle.Meta.WebSearchesUsed)
	require.Len(t, analyst.lastIn.Enrichment, 1)
	assert.Equal(t, "q2", analyst.lastIn.Enrichment[0].Query)
}
