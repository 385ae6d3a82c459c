package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestLLM returns a client pointed at a server that replies with the
// given chat-completion content.
func newTestLLM(t *testing.T, content string) *LLMClient {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))

		resp := map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"content": content}},
			},
		}
		writeJSON(w, resp)
	}))
	t.Cleanup(srv.Close)

	return NewLLMClient(LLMConfig{APIKey: "test-key", BaseURL: srv.URL})
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func TestStripFences(t *testing.T) {
	cases := map[string]string{
		"{\"a\":1}":                      `{"a":1}`,
		"```json\n{\"a\":1}\n```":        `{"a":1}`,
		"```\n{\"a\":1}\n```":            `{"a":1}`,
		"  ```json\n[\"x\",\"y\"]\n``` ": `["x","y"]`,
		"plain text":                     "plain text",
	}
	for in, want := range cases {
		assert.Equal(t, want, stripFences(in), "input %q", in)
	}
}

func TestProposeSearchQueriesCapsAtThree(t *testing.T) {
	client := newTestLLM(t, "```json\n[\"q1\",\"q2\",\"q3\",\"q4\",\"q5\"]\n```")

	queries, err := client.ProposeSearchQueries(context.Background(), TripContext{
		Origin: "JFK", Destination: "LIS", Dates: "2025-06-01 to 2025-06-08", Adults: 2,
	}, 10)
	require.NoError(t, err)
	assert.Equal(t, []string{"q1", "q2", "q3"}, queries)
}

func TestProposeSearchQueriesRejectsMalformed(t *testing.T) {
	client := newTestLLM(t, "here are some ideas: events, weather")

	_, err := client.ProposeSearchQueries(context.Background(), TripContext{}, 10)
	assert.Error(t, err)
}

func TestGenerateRecommendationsParsesFencedJSON(t *testing.T) {
	client := newTestLLM(t, "```json\n"+`{
		"recommendations": [
			{"rank": 1, "flightId": "fl-1", "hotelId": "ht-1", "totalPrice": 950,
			 "valueScore": 88, "reasoning": "Best balance", "pros": ["direct"], "cons": ["early departure"],
			 "bestFor": "families"}
		],
		"insights": {"priceAnalysis": "prices trending down", "bookingTiming": "book now",
		             "destinationTips": ["bring a raincoat"], "moneySavingAdvice": ["fly midweek"]},
		"summary": "One strong package."
	}`+"\n```")

	analysis, err := client.GenerateRecommendations(context.Background(), AnalysisInput{
		Trip:    TripContext{Origin: "JFK", Destination: "LIS", Dates: "June", Adults: 2},
		Flights: []FlightOption{{ID: "fl-1", Price: Price{Total: 500, Currency: "USD"}}},
		Hotels:  []HotelOption{{ID: "ht-1", Name: "Test Hotel"}},
	})
	require.NoError(t, err)

	require.Len(t, analysis.Recommendations, 1)
	rec := analysis.Recommendations[0]
	assert.Equal(t, 1, rec.Rank)
	assert.Equal(t, "fl-1", rec.FlightID)
	assert.Equal(t, "ht-1", rec.HotelID)
	assert.Equal(t, 88.0, rec.ValueScore)
	assert.Equal(t, "prices trending down", analysis.Insights.PriceAnalysis)
	assert.Equal(t, "One strong package.", analysis.Summary)
}

func TestGenerateRecommendationsRejectsEmptyList(t *testing.T) {
	client := newTestLLM(t, `{"recommendations":[],"insights":{},"summary":"nothing"}`)

	_, err := client.GenerateRecommendations(context.Background(), AnalysisInput{
		Flights: []FlightOption{{ID: "fl-1"}},
	})
	assert.Error(t, err)
}

func TestGenerateRecommendationsCapsPromptInventory(t *testing.T) {
	var gotPrompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Messages []struct {
				Role    string `json:"role"`
				Content string `json:"content"`
			} `json:"messages"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		gotPrompt = req.Messages[1].Content
		writeJSON(w, map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"content": `{"recommendations":[{"rank":1,"flightId":"fl-0","hotelId":"","totalPrice":1,"valueScore":1}],"insights":{},"summary":""}`}},
			},
		})
	}))
	defer srv.Close()
	client := NewLLMClient(LLMConfig{APIKey: "test-key", BaseURL: srv.URL})

	flights := make([]FlightOption, 40)
	for i := range flights {
		flights[i] = FlightOption{ID: fmt.Sprintf("fl-%d", i), Price: Price{Total: 100}}
	}
	hotels := make([]HotelOption, 30)
	for i := range hotels {
		hotels[i] = HotelOption{ID: fmt.Sprintf("ht-%d", i), Name: fmt.Sprintf("Hotel %d", i)}
	}

	_, err := client.GenerateRecommendations(context.Background(), AnalysisInput{
		Trip: TripContext{Origin: "JFK", Destination: "LIS"}, Flights: flights, Hotels: hotels,
	})
	require.NoError(t, err)

	// Only the first 30 flights and 20 hotels make it into the prompt.
	assert.Contains(t, gotPrompt, "id=fl-29")
	assert.NotContains(t, gotPrompt, "id=fl-30")
	assert.Contains(t, gotPrompt, "id=ht-19")
	assert.NotContains(t, gotPrompt, "id=ht-20")
}

func TestGeneratePlanUnconfigured(t *testing.T) {
	client := NewLLMClient(LLMConfig{})

	assert.False(t, client.Configured())
	_, err := client.GeneratePlan(context.Background(), Recommendation{}, "Lisbon")
	assert.Error(t, err)
}

func TestTripDetails(t *testing.T) {
	assert.Equal(t, "", tripDetails(TripContext{}))

	detail := tripDetails(TripContext{
		Budget:      2000,
		TravelStyle: "comfort",
		Interests:   []string{"food", "museums"},
	})
	assert.Equal(t, " (budget $2000; style: comfort; interests: food, museums)", detail)
}
