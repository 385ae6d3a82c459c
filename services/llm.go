package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"
)

// ─── LLM Client ───────────────────────────────────────────────────────────────

// LLMClient talks to an OpenAI-shaped chat-completions API. Every operation
// returns an error when unconfigured or when the model produces malformed
// output; callers are expected to fall back locally.
type LLMClient struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

type LLMConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

func NewLLMClient(cfg LLMConfig) *LLMClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	if cfg.Model == "" {
		cfg.Model = "gpt-4o-mini"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 60 * time.Second
	}

	c := &LLMClient{
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}

	if c.apiKey != "" {
		log.Println("✅ LLM initialized with model:", cfg.Model)
	} else {
		log.Println("⚠️  LLM_API_KEY not set — analysis will use the deterministic fallback")
	}
	return c
}

func (c *LLMClient) Configured() bool { return c.apiKey != "" }

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

func (c *LLMClient) complete(ctx context.Context, system, user string, temperature float64, maxTokens int) (string, error) {
	if !c.Configured() {
		return "", fmt.Errorf("LLM not configured")
	}

	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: system},
			{Role: "user", Content: user},
		},
		Temperature: temperature,
		MaxTokens:   maxTokens,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/chat/completions", bytes.NewBuffer(jsonBody))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("LLM API error (%d): %s", resp.StatusCode, string(body))
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse LLM response: %w", err)
	}
	if len(parsed.Choices) == 0 || parsed.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("empty response from LLM")
	}

	return parsed.Choices[0].Message.Content, nil
}

// ─── Query proposal ───────────────────────────────────────────────────────────

// TripContext summarizes the request for prompt building.
type TripContext struct {
	Origin      string
	Destination string
	Dates       string
	Adults      int
	Budget      float64
	TravelStyle string
	Priorities  []string
	Interests   []string
	Preferences string
}

// ProposeSearchQueries asks the model which web searches (at most three)
// are worth spending the remaining quota on.
func (c *LLMClient) ProposeSearchQueries(ctx context.Context, trip TripContext, remainingQuota int) ([]string, error) {
	user := fmt.Sprintf(
		`Trip: %s to %s, %s, %d traveler(s).%s
We have %d web searches left in our budget. Suggest up to 3 search queries that would most improve travel recommendations for this trip (events, weather, neighborhood safety, local prices). Reply with a JSON array of strings only.`,
		trip.Origin, trip.Destination, trip.Dates, trip.Adults, tripDetails(trip), remainingQuota)

	raw, err := c.complete(ctx, "You are a travel research assistant. Reply with strict JSON.", user, 0.3, 200)
	if err != nil {
		return nil, err
	}

	var queries []string
	if err := json.Unmarshal([]byte(stripFences(raw)), &queries); err != nil {
		return nil, fmt.Errorf("failed to parse proposed queries: %w", err)
	}
	if len(queries) > 3 {
		queries = queries[:3]
	}
	return queries, nil
}

// ─── Recommendation analysis ──────────────────────────────────────────────────

// AnalysisInput carries the capped flight/hotel slices and enrichment data
// the model ranks from.
type AnalysisInput struct {
	Trip       TripContext
	Flights    []FlightOption
	Hotels     []HotelOption
	Enrichment []*SearchResult
}

// Analysis is the structured payload expected back from the model.
type Analysis struct {
	Recommendations []Recommendation `json:"recommendations"`
	Insights        Insights         `json:"insights"`
	Summary         string           `json:"summary"`
}

const (
	maxFlightsForPrompt = 30
	maxHotelsForPrompt  = 20
)

// GenerateRecommendations asks the model for 3-5 ranked flight+hotel
// packages. Flights and hotels are capped to keep the prompt bounded.
func (c *LLMClient) GenerateRecommendations(ctx context.Context, input AnalysisInput) (*Analysis, error) {
	flights := input.Flights
	if len(flights) > maxFlightsForPrompt {
		flights = flights[:maxFlightsForPrompt]
	}
	hotels := input.Hotels
	if len(hotels) > maxHotelsForPrompt {
		hotels = hotels[:maxHotelsForPrompt]
	}

	var sb strings.Builder
	trip := input.Trip
	fmt.Fprintf(&sb, "Trip: %s to %s, %s, %d traveler(s).%s\n\nFlights:\n",
		trip.Origin, trip.Destination, trip.Dates, trip.Adults, tripDetails(trip))

	for _, f := range flights {
		fmt.Fprintf(&sb, "  id=%s $%.0f %s, %d stop(s), %s", f.ID, f.Price.Total, f.Price.Currency, f.Outbound.Stops, f.Outbound.Duration)
		if f.SearchDate != "" {
			fmt.Fprintf(&sb, ", departs %s", f.SearchDate)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("\nHotels:\n")
	for _, h := range hotels {
		rating := "unrated"
		if h.Rating != nil {
			rating = fmt.Sprintf("%.1f stars", *h.Rating)
		}
		perNight := 0.0
		if len(h.Offers) > 0 {
			perNight = h.Offers[0].Price.PerNight
		}
		fmt.Fprintf(&sb, "  id=%s %s, $%.0f/night, %s\n", h.ID, h.Name, perNight, rating)
	}

	if len(input.Enrichment) > 0 {
		sb.WriteString("\nWeb research:\n")
		for _, r := range input.Enrichment {
			if r == nil {
				continue
			}
			fmt.Fprintf(&sb, "  %q:\n", r.Query)
			for i, o := range r.Organic {
				if i >= 3 {
					break
				}
				fmt.Fprintf(&sb, "    - %s: %s\n", o.Title, o.Snippet)
			}
		}
	}

	sb.WriteString(`
Rank the 3 to 5 best flight+hotel packages for this trip. Reply with strict JSON:
{"recommendations":[{"rank":1,"flightId":"...","hotelId":"...","totalPrice":0,"valueScore":0,"reasoning":"...","pros":["..."],"cons":["..."],"bestFor":"..."}],
"insights":{"priceAnalysis":"...","bookingTiming":"...","destinationTips":["..."],"moneySavingAdvice":["..."]},
"summary":"..."}
valueScore is 0-100. Use only ids from the lists above.`)

	raw, err := c.complete(ctx, "You are an expert travel analyst. Reply with strict JSON and nothing else.", sb.String(), 0.4, 2000)
	if err != nil {
		return nil, err
	}

	var analysis Analysis
	if err := json.Unmarshal([]byte(stripFences(raw)), &analysis); err != nil {
		return nil, fmt.Errorf("failed to parse analysis: %w", err)
	}
	if len(analysis.Recommendations) == 0 {
		return nil, fmt.Errorf("analysis contained no recommendations")
	}

	return &analysis, nil
}

// ─── Plan generation ──────────────────────────────────────────────────────────

// GeneratePlan turns a chosen recommendation into a day-by-day itinerary in
// plain prose.
func (c *LLMClient) GeneratePlan(ctx context.Context, rec Recommendation, destination string) (string, error) {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Write a day-by-day travel plan for a trip to %s.\n", destination)
	if rec.Flight != nil {
		fmt.Fprintf(&sb, "Flight: $%.0f, %d stop(s), departs %s.\n",
			rec.Flight.Price.Total, rec.Flight.Outbound.Stops, rec.Flight.Outbound.Departure.Time)
	}
	if rec.Hotel != nil {
		fmt.Fprintf(&sb, "Hotel: %s (%s).\n", rec.Hotel.Name, rec.Hotel.Location.Address)
	}
	if rec.SuggestedDates != nil {
		fmt.Fprintf(&sb, "Dates: %s to %s.\n", rec.SuggestedDates.Departure, rec.SuggestedDates.Return)
	}
	if rec.Reasoning != "" {
		fmt.Fprintf(&sb, "Why this package: %s\n", rec.Reasoning)
	}
	sb.WriteString("Keep it under 400 words, practical and specific.")

	return c.complete(ctx, "You are a helpful travel planner.", sb.String(), 0.7, 800)
}

// ─── Helpers ──────────────────────────────────────────────────────────────────

func tripDetails(trip TripContext) string {
	var parts []string
	if trip.Budget > 0 {
		parts = append(parts, fmt.Sprintf("budget $%.0f", trip.Budget))
	}
	if trip.TravelStyle != "" {
		parts = append(parts, "style: "+trip.TravelStyle)
	}
	if len(trip.Priorities) > 0 {
		parts = append(parts, "priorities: "+strings.Join(trip.Priorities, ", "))
	}
	if len(trip.Interests) > 0 {
		parts = append(parts, "interests: "+strings.Join(trip.Interests, ", "))
	}
	if trip.Preferences != "" {
		parts = append(parts, "preferences: "+trip.Preferences)
	}
	if len(parts) == 0 {
		return ""
	}
	return " (" + strings.Join(parts, "; ") + ")"
}

// stripFences removes a markdown code fence the model sometimes wraps JSON in.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
