package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"wayfare/obs"
)

// ErrInvalidRequest marks client input errors; handlers map it to a 400.
var ErrInvalidRequest = errors.New("invalid request")

// ─── Provider interfaces ──────────────────────────────────────────────────────

type FlightSearcher interface {
	SearchFlights(ctx context.Context, criteria FlightCriteria) ([]FlightOption, error)
	SearchFlightsInRange(ctx context.Context, origin, destination, startDate, endDate string, tripDurationDays, adults int) (*RangeResult, error)
}

type HotelSearcher interface {
	SearchHotels(ctx context.Context, cityCode, checkIn, checkOut string, adults int) ([]HotelOption, error)
}

type WebSearcher interface {
	Configured() bool
	Search(ctx context.Context, query string, opts SearchOptions) (*SearchResult, error)
}

type Analyst interface {
	ProposeSearchQueries(ctx context.Context, trip TripContext, remainingQuota int) ([]string, error)
	GenerateRecommendations(ctx context.Context, input AnalysisInput) (*Analysis, error)
}

// ─── Recommender ──────────────────────────────────────────────────────────────

// Recommender is the request-scoped orchestration pipeline: flights, hotels,
// optional web-search enrichment, LLM analysis, deterministic fallback, and
// the final join. Once flights have been fetched there is no code path that
// returns a hard failure.
type Recommender struct {
	flights FlightSearcher
	hotels  HotelSearcher
	web     WebSearcher
	llm     Analyst
	quota   *SearchQuota
	metrics *obs.Metrics
	now     func() time.Time
}

func NewRecommender(flights FlightSearcher, hotels HotelSearcher, web WebSearcher, llm Analyst, quota *SearchQuota, metrics *obs.Metrics) *Recommender {
	return &Recommender{
		flights: flights,
		hotels:  hotels,
		web:     web,
		llm:     llm,
		quota:   quota,
		metrics: metrics,
		now:     time.Now,
	}
}

// RecommendationRequest is the /recommendations body. Either a flexible
// window (PeriodStart+PeriodEnd) or specific dates (DepartureDate) must be
// supplied; the two modes are mutually exclusive.
type RecommendationRequest struct {
	Origin        string   `json:"origin"`
	Destination   string   `json:"destination"`
	PeriodStart   string   `json:"periodStart,omitempty"`
	PeriodEnd     string   `json:"periodEnd,omitempty"`
	TripDuration  int      `json:"tripDuration,omitempty"`
	DepartureDate string   `json:"departureDate,omitempty"`
	ReturnDate    string   `json:"returnDate,omitempty"`
	Adults        int      `json:"adults"`
	Budget        float64  `json:"budget,omitempty"`
	Priorities    []string `json:"priorities,omitempty"`
	TravelStyle   string   `json:"travelStyle,omitempty"`
	Interests     []string `json:"interests,omitempty"`
	Preferences   string   `json:"preferences,omitempty"`
}

const (
	modeSpecificDates = "specific_dates"
	modeDateRange     = "date_range"

	maxEnrichmentQueries = 2
)

func (req *RecommendationRequest) validate() (mode string, err error) {
	req.Origin = strings.ToUpper(strings.TrimSpace(req.Origin))
	req.Destination = strings.ToUpper(strings.TrimSpace(req.Destination))

	if req.Origin == "" {
		return "", fmt.Errorf("%w: origin is required", ErrInvalidRequest)
	}
	if req.Destination == "" {
		return "", fmt.Errorf("%w: destination is required", ErrInvalidRequest)
	}
	if req.Adults <= 0 {
		req.Adults = 1
	}

	switch {
	case req.PeriodStart != "" && req.PeriodEnd != "":
		for _, d := range []string{req.PeriodStart, req.PeriodEnd} {
			if _, perr := time.Parse("2006-01-02", d); perr != nil {
				return "", fmt.Errorf("%w: invalid date %q, use YYYY-MM-DD", ErrInvalidRequest, d)
			}
		}
		if req.TripDuration <= 0 {
			req.TripDuration = 7
		}
		return modeDateRange, nil
	case req.DepartureDate != "":
		if _, perr := time.Parse("2006-01-02", req.DepartureDate); perr != nil {
			return "", fmt.Errorf("%w: invalid departure date %q, use YYYY-MM-DD", ErrInvalidRequest, req.DepartureDate)
		}
		if req.ReturnDate != "" {
			if _, perr := time.Parse("2006-01-02", req.ReturnDate); perr != nil {
				return "", fmt.Errorf("%w: invalid return date %q, use YYYY-MM-DD", ErrInvalidRequest, req.ReturnDate)
			}
		}
		return modeSpecificDates, nil
	default:
		return "", fmt.Errorf("%w: provide either periodStart+periodEnd or departureDate", ErrInvalidRequest)
	}
}

// Recommend runs the full pipeline. The only error it ever returns wraps
// ErrInvalidRequest; every provider-level failure downstream of validation
// degrades into an emptier response instead.
func (r *Recommender) Recommend(ctx context.Context, req RecommendationRequest) (*RecommendationBundle, error) {
	mode, err := req.validate()
	if err != nil {
		return nil, err
	}

	trip := TripContext{
		Origin:      req.Origin,
		Destination: req.Destination,
		Dates:       r.describeDates(req, mode),
		Adults:      req.Adults,
		Budget:      req.Budget,
		TravelStyle: req.TravelStyle,
		Priorities:  req.Priorities,
		Interests:   req.Interests,
		Preferences: req.Preferences,
	}

	// Step 2: flight acquisition.
	var (
		flights      []FlightOption
		bestDeal     *FlightOption
		priceByDate  map[string]float64
		searchPeriod *SearchPeriod
	)
	if mode == modeDateRange {
		rangeRes, rerr := r.flights.SearchFlightsInRange(ctx, req.Origin, req.Destination,
			req.PeriodStart, req.PeriodEnd, req.TripDuration, req.Adults)
		if rerr != nil {
			log.Printf("⚠️  range flight search failed: %v — continuing with no flights", rerr)
		} else {
			flights = rangeRes.Flights
			bestDeal = rangeRes.BestDeal
			priceByDate = rangeRes.PriceByDate
		}
		searchPeriod = &SearchPeriod{Start: req.PeriodStart, End: req.PeriodEnd, TripDuration: req.TripDuration}
	} else {
		var ferr error
		flights, ferr = r.flights.SearchFlights(ctx, FlightCriteria{
			Origin:        req.Origin,
			Destination:   req.Destination,
			DepartureDate: req.DepartureDate,
			ReturnDate:    req.ReturnDate,
			Adults:        req.Adults,
		})
		if ferr != nil {
			log.Printf("⚠️  flight search failed: %v — continuing with no flights", ferr)
			flights = nil
		}
	}

	// Step 3: hotel acquisition. A failed hotel search is not fatal.
	checkIn, checkOut := r.stayDates(req, mode, bestDeal)
	hotels, herr := r.hotels.SearchHotels(ctx, req.Destination, checkIn, checkOut, req.Adults)
	if herr != nil {
		log.Printf("⚠️  hotel search failed: %v — continuing with no hotels", herr)
		hotels = nil
	}

	// Step 4: enrichment, only while quota remains.
	enrichment, searchesUsed := r.enrich(ctx, trip)

	// Steps 5-6: analysis with deterministic fallback.
	analysis, aerr := r.llm.GenerateRecommendations(ctx, AnalysisInput{
		Trip:       trip,
		Flights:    flights,
		Hotels:     hotels,
		Enrichment: enrichment,
	})
	if aerr != nil {
		log.Printf("⚠️  LLM analysis failed: %v — using deterministic fallback", aerr)
		r.metrics.IncLLMFallback()
		analysis = fallbackAnalysis(flights, hotels)
	}

	// Step 7: join IDs back onto full records. Unknown IDs resolve to null
	// rather than failing the pipeline.
	suggested := r.suggestedDates(req, mode, bestDeal)
	recs := joinRecommendations(analysis.Recommendations, flights, hotels, suggested)

	// Step 8: response assembly.
	return &RecommendationBundle{
		Recommendations: recs,
		Insights:        analysis.Insights,
		Summary:         analysis.Summary,
		SearchPeriod:    searchPeriod,
		BestDeal:        bestDeal,
		PriceByDate:     priceByDate,
		Meta: Meta{
			FlightsAnalyzed:   len(flights),
			HotelsAnalyzed:    len(hotels),
			WebSearchesUsed:   searchesUsed,
			RemainingSearches: r.quota.Remaining(),
			GeneratedAt:       r.now().UTC(),
			SearchMode:        mode,
		},
	}, nil
}

// enrich asks the model which searches are worth the remaining quota and
// executes at most two of them. Every failure here is absorbed.
func (r *Recommender) enrich(ctx context.Context, trip TripContext) ([]*SearchResult, int) {
	if r.quota.Remaining() <= 0 || !r.web.Configured() {
		return nil, 0
	}

	queries, err := r.llm.ProposeSearchQueries(ctx, trip, r.quota.Remaining())
	if err != nil {
		log.Printf("⚠️  query proposal failed: %v — skipping enrichment", err)
		return nil, 0
	}
	if len(queries) > maxEnrichmentQueries {
		queries = queries[:maxEnrichmentQueries]
	}

	var results []*SearchResult
	used := 0
	for _, q := range queries {
		res, serr := r.web.Search(ctx, q, SearchOptions{Num: 5})
		if serr != nil {
			log.Printf("⚠️  enrichment query %q failed: %v — skipping", q, serr)
			continue
		}
		results = append(results, res)
		used++
	}
	return results, used
}

func (r *Recommender) describeDates(req RecommendationRequest, mode string) string {
	if mode == modeDateRange {
		return fmt.Sprintf("flexible %s to %s (%d-day trip)", req.PeriodStart, req.PeriodEnd, req.TripDuration)
	}
	if req.ReturnDate != "" {
		return fmt.Sprintf("%s to %s", req.DepartureDate, req.ReturnDate)
	}
	return req.DepartureDate
}

// stayDates derives hotel check-in/check-out from the recommended departure
// (range mode) or the literal dates (specific mode).
func (r *Recommender) stayDates(req RecommendationRequest, mode string, bestDeal *FlightOption) (string, string) {
	duration := req.TripDuration
	if duration <= 0 {
		duration = 7
	}

	if mode == modeDateRange {
		start := req.PeriodStart
		if bestDeal != nil && bestDeal.SearchDate != "" {
			start = bestDeal.SearchDate
		}
		return start, addDays(start, duration)
	}

	if req.ReturnDate != "" {
		return req.DepartureDate, req.ReturnDate
	}
	return req.DepartureDate, addDays(req.DepartureDate, duration)
}

func (r *Recommender) suggestedDates(req RecommendationRequest, mode string, bestDeal *FlightOption) *SuggestedDates {
	if mode == modeDateRange {
		if bestDeal == nil || bestDeal.SearchDate == "" {
			return nil
		}
		return &SuggestedDates{
			Departure: bestDeal.SearchDate,
			Return:    addDays(bestDeal.SearchDate, req.TripDuration),
		}
	}
	return &SuggestedDates{Departure: req.DepartureDate, Return: req.ReturnDate}
}

func addDays(date string, days int) string {
	t, err := time.Parse("2006-01-02", date)
	if err != nil {
		return ""
	}
	return t.AddDate(0, 0, days).Format("2006-01-02")
}

// ─── Deterministic fallback ───────────────────────────────────────────────────

const fallbackNote = "Automated pick (AI analysis unavailable)"

// fallbackAnalysis builds recommendations without the model: the first five
// flights in their existing order, each paired with the first hotel, with a
// value score that decreases by five per rank.
func fallbackAnalysis(flights []FlightOption, hotels []HotelOption) *Analysis {
	n := len(flights)
	if n > 5 {
		n = 5
	}

	analysis := &Analysis{
		Insights: Insights{
			PriceAnalysis:     fallbackNote + ": options are listed in the provider's price order.",
			BookingTiming:     fallbackNote + ": no timing analysis available.",
			DestinationTips:   []string{fallbackNote + ": verify attractions and local conditions before booking."},
			MoneySavingAdvice: []string{fallbackNote + ": the lowest-priced option is ranked first."},
		},
		Summary: fallbackNote + ": showing the cheapest available packages.",
	}

	for i := 0; i < n; i++ {
		f := flights[i]
		rec := Recommendation{
			Rank:       i + 1,
			FlightID:   f.ID,
			TotalPrice: f.Price.Total,
			ValueScore: float64(70 - i*5),
			Reasoning:  fallbackNote + ": ranked by flight price.",
			Pros:       []string{"Among the lowest-priced flights found"},
			Cons:       []string{"Not evaluated by AI analysis"},
			BestFor:    "Budget-conscious travelers",
		}
		if len(hotels) > 0 {
			h := hotels[0]
			rec.HotelID = h.ID
			if len(h.Offers) > 0 {
				rec.TotalPrice += h.Offers[0].Price.Total
			}
		}
		analysis.Recommendations = append(analysis.Recommendations, rec)
	}

	return analysis
}

// ─── Join ─────────────────────────────────────────────────────────────────────

// joinRecommendations resolves flight/hotel IDs against the fetched
// collections. An ID the model invented resolves to a null record, which is
// tolerated, not an error.
func joinRecommendations(recs []Recommendation, flights []FlightOption, hotels []HotelOption, suggested *SuggestedDates) []Recommendation {
	flightByID := make(map[string]*FlightOption, len(flights))
	for i := range flights {
		flightByID[flights[i].ID] = &flights[i]
	}
	hotelByID := make(map[string]*HotelOption, len(hotels))
	for i := range hotels {
		hotelByID[hotels[i].ID] = &hotels[i]
	}

	out := make([]Recommendation, 0, len(recs))
	for _, rec := range recs {
		rec.Flight = flightByID[rec.FlightID]
		rec.Hotel = hotelByID[rec.HotelID]
		if rec.SuggestedDates == nil {
			rec.SuggestedDates = suggested
		}
		out = append(out, rec)
	}
	return out
}
