package services

import (
	"time"
)

// ─── Normalized entities ─────────────────────────────────────────────────────
//
// Everything below is the internal shape provider payloads are normalized
// into. Synthetic IDs are stable within a single request/response cycle
// only — they are never persisted as durable identifiers.

type Location struct {
	Code        string `json:"code"`
	Name        string `json:"name"`
	CityName    string `json:"cityName"`
	CountryCode string `json:"countryCode"`
	Type        string `json:"type"` // "AIRPORT" or "CITY"
}

type Price struct {
	Total       float64 `json:"total"`
	Currency    string  `json:"currency"`
	PerTraveler float64 `json:"perTraveler"`
}

type Stop struct {
	Airport string `json:"airport"`
	Time    string `json:"time"`
}

type Segment struct {
	Departure    Stop   `json:"departure"`
	Arrival      Stop   `json:"arrival"`
	CarrierCode  string `json:"carrierCode"`
	FlightNumber string `json:"flightNumber"`
	Duration     string `json:"duration"`
}

// Itinerary is one direction of travel. Invariant: Stops == len(Segments)-1.
type Itinerary struct {
	Departure Stop      `json:"departure"`
	Arrival   Stop      `json:"arrival"`
	Duration  string    `json:"duration"`
	Stops     int       `json:"stops"`
	Segments  []Segment `json:"segments"`
}

type FlightOption struct {
	ID         string     `json:"id"`
	Price      Price      `json:"price"`
	Outbound   Itinerary  `json:"outbound"`
	Inbound    *Itinerary `json:"inbound,omitempty"`
	SearchDate string     `json:"searchDate,omitempty"` // set by range sampling
}

type HotelOffer struct {
	Price    HotelPrice `json:"price"`
	CheckIn  string     `json:"checkIn"`
	CheckOut string     `json:"checkOut"`
}

type HotelPrice struct {
	Total    float64 `json:"total"`
	PerNight float64 `json:"perNight"`
	Currency string  `json:"currency"`
}

type GeoPoint struct {
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
	Address string  `json:"address"`
}

type HotelOption struct {
	ID       string       `json:"id"`
	Name     string       `json:"name"`
	Rating   *float64     `json:"rating"` // nil when the provider has no rating
	Location GeoPoint     `json:"location"`
	Offers   []HotelOffer `json:"offers"`
}

// RangeResult is the aggregate of a date-range flight sampling run.
type RangeResult struct {
	Flights     []FlightOption     `json:"flights"`
	BestDeal    *FlightOption      `json:"bestDeal"`
	PriceByDate map[string]float64 `json:"priceByDate"`
}

// ─── Recommendations ─────────────────────────────────────────────────────────

type SuggestedDates struct {
	Departure string `json:"departure"`
	Return    string `json:"return,omitempty"`
}

type Recommendation struct {
	Rank           int             `json:"rank"`
	FlightID       string          `json:"flightId"`
	HotelID        string          `json:"hotelId,omitempty"`
	Flight         *FlightOption   `json:"flight"`
	Hotel          *HotelOption    `json:"hotel"`
	TotalPrice     float64         `json:"totalPrice"`
	ValueScore     float64         `json:"valueScore"`
	Reasoning      string          `json:"reasoning"`
	Pros           []string        `json:"pros"`
	Cons           []string        `json:"cons"`
	BestFor        string          `json:"bestFor"`
	SuggestedDates *SuggestedDates `json:"suggestedDates,omitempty"`
}

type Insights struct {
	PriceAnalysis     string   `json:"priceAnalysis"`
	BookingTiming     string   `json:"bookingTiming"`
	DestinationTips   []string `json:"destinationTips"`
	MoneySavingAdvice []string `json:"moneySavingAdvice"`
}

type Meta struct {
	FlightsAnalyzed   int       `json:"flightsAnalyzed"`
	HotelsAnalyzed    int       `json:"hotelsAnalyzed"`
	WebSearchesUsed   int       `json:"webSearchesUsed"`
	RemainingSearches int       `json:"remainingSearches"`
	GeneratedAt       time.Time `json:"generatedAt"`
	SearchMode        string    `json:"searchMode"` // "specific_dates" or "date_range"
}

type SearchPeriod struct {
	Start        string `json:"start"`
	End          string `json:"end"`
	TripDuration int    `json:"tripDuration"`
}

// RecommendationBundle is the /recommendations response envelope.
type RecommendationBundle struct {
	Recommendations []Recommendation   `json:"recommendations"`
	Insights        Insights           `json:"insights"`
	Summary         string             `json:"summary"`
	SearchPeriod    *SearchPeriod      `json:"searchPeriod"`
	BestDeal        *FlightOption      `json:"bestDeal"`
	PriceByDate     map[string]float64 `json:"priceByDate"`
	Meta            Meta               `json:"meta"`
}

// ─── Web search ──────────────────────────────────────────────────────────────

type OrganicResult struct {
	Title    string `json:"title"`
	Link     string `json:"link"`
	Snippet  string `json:"snippet"`
	Position int    `json:"position"`
}

type KnowledgePanel struct {
	Title       string            `json:"title"`
	Type        string            `json:"type"`
	Description string            `json:"description"`
	Attributes  map[string]string `json:"attributes,omitempty"`
}

type SearchResult struct {
	Query           string          `json:"query"`
	Organic         []OrganicResult `json:"organic"`
	Knowledge       *KnowledgePanel `json:"knowledge,omitempty"`
	RelatedSearches []string        `json:"relatedSearches,omitempty"`
}
