package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"wayfare/cache"
	"wayfare/obs"
)

// ─── Amadeus Client ───────────────────────────────────────────────────────────

// AmadeusClient talks to an Amadeus-shaped flight/hotel API and normalizes
// its payloads. When no credentials are configured every search degrades to
// an empty result — callers must treat "no results" and "provider absent"
// identically.
type AmadeusClient struct {
	clientID     string
	clientSecret string
	baseURL      string
	currency     string

	// OAuth2 token cache, owned by this instance and refreshed lazily
	// with a 30s buffer before expiry.
	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time

	httpClient *http.Client
	limiter    *rate.Limiter
	store      cache.Store
	metrics    *obs.Metrics

	flightsTTL   time.Duration
	hotelsTTL    time.Duration
	locationsTTL time.Duration

	rangeStride     int // days between sampled departure dates
	rangeMaxSamples int

	now func() time.Time
}

type AmadeusConfig struct {
	ClientID     string
	ClientSecret string
	BaseURL      string // defaults to the Amadeus test environment
	Currency     string
	Timeout      time.Duration
	FlightsTTL   time.Duration
	HotelsTTL    time.Duration
	LocationsTTL time.Duration
	RateLimit    rate.Limit
	RateBurst    int

	RangeStride     int
	RangeMaxSamples int
}

func NewAmadeusClient(cfg AmadeusConfig, store cache.Store, metrics *obs.Metrics) *AmadeusClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://test.api.amadeus.com"
	}
	if cfg.Currency == "" {
		cfg.Currency = "USD"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	if cfg.FlightsTTL == 0 {
		cfg.FlightsTTL = 30 * time.Minute
	}
	if cfg.HotelsTTL == 0 {
		cfg.HotelsTTL = time.Hour
	}
	if cfg.LocationsTTL == 0 {
		cfg.LocationsTTL = 24 * time.Hour
	}
	if cfg.RateLimit == 0 {
		cfg.RateLimit = 10
	}
	if cfg.RateBurst == 0 {
		cfg.RateBurst = 20
	}
	if cfg.RangeStride <= 0 {
		cfg.RangeStride = 3
	}
	if cfg.RangeMaxSamples <= 0 {
		cfg.RangeMaxSamples = 10
	}

	c := &AmadeusClient{
		clientID:        cfg.ClientID,
		clientSecret:    cfg.ClientSecret,
		baseURL:         cfg.BaseURL,
		currency:        cfg.Currency,
		httpClient:      &http.Client{Timeout: cfg.Timeout},
		limiter:         rate.NewLimiter(cfg.RateLimit, cfg.RateBurst),
		store:           store,
		metrics:         metrics,
		flightsTTL:      cfg.FlightsTTL,
		hotelsTTL:       cfg.HotelsTTL,
		locationsTTL:    cfg.LocationsTTL,
		rangeStride:     cfg.RangeStride,
		rangeMaxSamples: cfg.RangeMaxSamples,
		now:             time.Now,
	}

	if !c.Configured() {
		log.Println("⚠️  AMADEUS_CLIENT_ID or AMADEUS_CLIENT_SECRET not set — flight/hotel search disabled, locations use embedded data")
	}
	return c
}

func (c *AmadeusClient) Configured() bool {
	return c.clientID != "" && c.clientSecret != ""
}

// ─── OAuth2 Token ─────────────────────────────────────────────────────────────

func (c *AmadeusClient) refreshToken(ctx context.Context) error {
	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.baseURL+"/v1/security/oauth2/token",
		strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("token request failed (%d): %s", resp.StatusCode, string(body))
	}

	var result struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	if err := json.Unmarshal(body, &result); err != nil {
		return fmt.Errorf("failed to parse token response: %w", err)
	}

	c.mu.Lock()
	c.accessToken = result.AccessToken
	c.tokenExpiry = c.now().Add(time.Duration(result.ExpiresIn-30) * time.Second)
	c.mu.Unlock()

	return nil
}

func (c *AmadeusClient) getToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	expired := c.now().After(c.tokenExpiry)
	token := c.accessToken
	c.mu.Unlock()

	if expired || token == "" {
		if err := c.refreshToken(ctx); err != nil {
			return "", err
		}
		c.mu.Lock()
		token = c.accessToken
		c.mu.Unlock()
	}
	return token, nil
}

func (c *AmadeusClient) doRequest(ctx context.Context, method, path string, body []byte) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	token, err := c.getToken(ctx)
	if err != nil {
		return nil, fmt.Errorf("auth failed: %w", err)
	}

	var req *http.Request
	if body != nil {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewBuffer(body))
	} else {
		req, err = http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	}
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("amadeus error (%d): %s", resp.StatusCode, string(respBody))
	}
	return respBody, nil
}

// ─── Flight Search ────────────────────────────────────────────────────────────

type FlightCriteria struct {
	Origin        string `json:"origin"`
	Destination   string `json:"destination"`
	DepartureDate string `json:"departureDate"`
	ReturnDate    string `json:"returnDate,omitempty"`
	Adults        int    `json:"adults"`
	Currency      string `json:"currency,omitempty"`
}

// SearchFlights runs a single-date flight-offers query and returns
// normalized options in provider order. An unconfigured provider yields an
// empty slice, not an error.
func (c *AmadeusClient) SearchFlights(ctx context.Context, criteria FlightCriteria) ([]FlightOption, error) {
	if !c.Configured() {
		return nil, nil
	}
	if criteria.Adults <= 0 {
		criteria.Adults = 1
	}
	if criteria.Currency == "" {
		criteria.Currency = c.currency
	}

	key := cache.Key("flights", criteria)
	var cached []FlightOption
	if cache.GetJSON(ctx, c.store, key, &cached) {
		c.metrics.IncCacheHit()
		return cached, nil
	}
	c.metrics.IncCacheMiss()

	q := url.Values{}
	q.Set("originLocationCode", criteria.Origin)
	q.Set("destinationLocationCode", criteria.Destination)
	q.Set("departureDate", criteria.DepartureDate)
	if criteria.ReturnDate != "" {
		q.Set("returnDate", criteria.ReturnDate)
	}
	q.Set("adults", fmt.Sprintf("%d", criteria.Adults))
	q.Set("currencyCode", criteria.Currency)
	q.Set("max", "30")

	body, err := c.doRequest(ctx, http.MethodGet, "/v2/shopping/flight-offers?"+q.Encode(), nil)
	if err != nil {
		c.metrics.IncProviderError("amadeus")
		return nil, fmt.Errorf("flight search failed: %w", err)
	}

	flights, err := normalizeFlightOffers(body, criteria.Adults)
	if err != nil {
		return nil, err
	}

	cache.SetJSON(ctx, c.store, key, flights, c.flightsTTL)
	return flights, nil
}

// SearchFlightsInRange samples departure dates across [startDate, endDate]
// at a fixed stride, capped at a fixed number of samples, and aggregates
// the results. Sampled dates that fail are logged and skipped; partial
// results are acceptable.
func (c *AmadeusClient) SearchFlightsInRange(ctx context.Context, origin, destination, startDate, endDate string, tripDurationDays, adults int) (*RangeResult, error) {
	result := &RangeResult{PriceByDate: make(map[string]float64)}
	if !c.Configured() {
		return result, nil
	}

	start, err := time.Parse("2006-01-02", startDate)
	if err != nil {
		return nil, fmt.Errorf("invalid start date %q: %w", startDate, err)
	}
	end, err := time.Parse("2006-01-02", endDate)
	if err != nil {
		return nil, fmt.Errorf("invalid end date %q: %w", endDate, err)
	}
	if tripDurationDays <= 0 {
		tripDurationDays = 7
	}

	samples := 0
	for d := start; !d.After(end) && samples < c.rangeMaxSamples; d = d.AddDate(0, 0, c.rangeStride) {
		samples++
		depDate := d.Format("2006-01-02")
		retDate := d.AddDate(0, 0, tripDurationDays).Format("2006-01-02")

		flights, err := c.SearchFlights(ctx, FlightCriteria{
			Origin:        origin,
			Destination:   destination,
			DepartureDate: depDate,
			ReturnDate:    retDate,
			Adults:        adults,
		})
		if err != nil {
			log.Printf("⚠️  range sample %s failed: %v — skipping", depDate, err)
			continue
		}
		if len(flights) == 0 {
			continue
		}

		minPrice := flights[0].Price.Total
		for i := range flights {
			flights[i].SearchDate = depDate
			if flights[i].Price.Total < minPrice {
				minPrice = flights[i].Price.Total
			}
			// Strictly-less keeps the first-seen flight on price ties.
			if result.BestDeal == nil || flights[i].Price.Total < result.BestDeal.Price.Total {
				deal := flights[i]
				result.BestDeal = &deal
			}
		}
		result.PriceByDate[depDate] = minPrice
		result.Flights = append(result.Flights, flights...)
	}

	return result, nil
}

// Amadeus flight offers response structures.
type amadeusItinerary struct {
	Duration string `json:"duration"`
	Segments []struct {
		Departure struct {
			IataCode string `json:"iataCode"`
			At       string `json:"at"`
		} `json:"departure"`
		Arrival struct {
			IataCode string `json:"iataCode"`
			At       string `json:"at"`
		} `json:"arrival"`
		CarrierCode string `json:"carrierCode"`
		Number      string `json:"number"`
		Duration    string `json:"duration"`
	} `json:"segments"`
}

type amadeusFlightOffersResponse struct {
	Data []struct {
		ID    string `json:"id"`
		Price struct {
			GrandTotal string `json:"grandTotal"`
			Currency   string `json:"currency"`
		} `json:"price"`
		Itineraries []amadeusItinerary `json:"itineraries"`
	} `json:"data"`
}

func normalizeFlightOffers(data []byte, adults int) ([]FlightOption, error) {
	var resp amadeusFlightOffersResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse flight offers: %w", err)
	}
	if adults <= 0 {
		adults = 1
	}

	flights := make([]FlightOption, 0, len(resp.Data))
	for _, offer := range resp.Data {
		if len(offer.Itineraries) < 1 {
			continue
		}

		total := parsePrice(offer.Price.GrandTotal)
		if total <= 0 {
			continue
		}

		id := offer.ID
		if id == "" {
			// No provider ID: mint one. Stable within this request only.
			id = "fl-" + uuid.New().String()
		}

		f := FlightOption{
			ID: id,
			Price: Price{
				Total:       total,
				Currency:    offer.Price.Currency,
				PerTraveler: total / float64(adults),
			},
			Outbound: normalizeItinerary(offer.Itineraries[0]),
		}
		if len(offer.Itineraries) >= 2 {
			inbound := normalizeItinerary(offer.Itineraries[1])
			f.Inbound = &inbound
		}

		flights = append(flights, f)
	}

	return flights, nil
}

func normalizeItinerary(it amadeusItinerary) Itinerary {
	out := Itinerary{
		Duration: parseDuration(it.Duration),
		Stops:    maxInt(0, len(it.Segments)-1),
		Segments: make([]Segment, 0, len(it.Segments)),
	}
	for _, s := range it.Segments {
		out.Segments = append(out.Segments, Segment{
			Departure:    Stop{Airport: s.Departure.IataCode, Time: s.Departure.At},
			Arrival:      Stop{Airport: s.Arrival.IataCode, Time: s.Arrival.At},
			CarrierCode:  s.CarrierCode,
			FlightNumber: s.CarrierCode + s.Number,
			Duration:     parseDuration(s.Duration),
		})
	}
	if len(it.Segments) > 0 {
		first := it.Segments[0]
		last := it.Segments[len(it.Segments)-1]
		out.Departure = Stop{Airport: first.Departure.IataCode, Time: first.Departure.At}
		out.Arrival = Stop{Airport: last.Arrival.IataCode, Time: last.Arrival.At}
	}
	return out
}

// ─── Hotel Search ─────────────────────────────────────────────────────────────

type hotelCriteria struct {
	CityCode string `json:"cityCode"`
	CheckIn  string `json:"checkIn"`
	CheckOut string `json:"checkOut"`
	Adults   int    `json:"adults"`
	Currency string `json:"currency"`
}

// SearchHotels resolves hotel IDs for a city (batch capped at 20), then
// fetches offers for that batch. Callers must not assume every hotel in the
// city is returned.
func (c *AmadeusClient) SearchHotels(ctx context.Context, cityCode, checkIn, checkOut string, adults int) ([]HotelOption, error) {
	if !c.Configured() {
		return nil, nil
	}
	if adults <= 0 {
		adults = 1
	}

	crit := hotelCriteria{CityCode: cityCode, CheckIn: checkIn, CheckOut: checkOut, Adults: adults, Currency: c.currency}
	key := cache.Key("hotels", crit)
	var cached []HotelOption
	if cache.GetJSON(ctx, c.store, key, &cached) {
		c.metrics.IncCacheHit()
		return cached, nil
	}
	c.metrics.IncCacheMiss()

	ids, geo, err := c.hotelIDsByCity(ctx, cityCode)
	if err != nil {
		c.metrics.IncProviderError("amadeus")
		return nil, fmt.Errorf("hotel list failed: %w", err)
	}
	if len(ids) == 0 {
		return nil, nil
	}
	if len(ids) > 20 {
		ids = ids[:20]
	}

	hotels, err := c.hotelOffers(ctx, ids, geo, checkIn, checkOut, adults)
	if err != nil {
		c.metrics.IncProviderError("amadeus")
		return nil, err
	}

	cache.SetJSON(ctx, c.store, key, hotels, c.hotelsTTL)
	return hotels, nil
}

type amadeusHotelListResponse struct {
	Data []struct {
		HotelID string `json:"hotelId"`
		Name    string `json:"name"`
		GeoCode struct {
			Latitude  float64 `json:"latitude"`
			Longitude float64 `json:"longitude"`
		} `json:"geoCode"`
	} `json:"data"`
}

func (c *AmadeusClient) hotelIDsByCity(ctx context.Context, cityCode string) ([]string, map[string]GeoPoint, error) {
	// Hotel search wants city codes, not airport codes.
	q := url.Values{}
	q.Set("cityCode", airportToCity(cityCode))
	q.Set("radius", "5")
	q.Set("radiusUnit", "KM")
	q.Set("hotelSource", "ALL")

	body, err := c.doRequest(ctx, http.MethodGet, "/v1/reference-data/locations/hotels/by-city?"+q.Encode(), nil)
	if err != nil {
		return nil, nil, err
	}

	var resp amadeusHotelListResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, nil, fmt.Errorf("failed to parse hotel list: %w", err)
	}

	ids := make([]string, 0, len(resp.Data))
	geo := make(map[string]GeoPoint, len(resp.Data))
	for _, h := range resp.Data {
		ids = append(ids, h.HotelID)
		geo[h.HotelID] = GeoPoint{Lat: h.GeoCode.Latitude, Lon: h.GeoCode.Longitude}
	}
	return ids, geo, nil
}

type amadeusHotelOffersResponse struct {
	Data []struct {
		Hotel struct {
			HotelID  string `json:"hotelId"`
			Name     string `json:"name"`
			CityCode string `json:"cityCode"`
			Address  struct {
				Lines    []string `json:"lines"`
				CityName string   `json:"cityName"`
			} `json:"address"`
			Rating string `json:"rating"`
		} `json:"hotel"`
		Available bool `json:"available"`
		Offers    []struct {
			CheckInDate  string `json:"checkInDate"`
			CheckOutDate string `json:"checkOutDate"`
			Price        struct {
				Total    string `json:"total"`
				Currency string `json:"currency"`
			} `json:"price"`
		} `json:"offers"`
	} `json:"data"`
}

func (c *AmadeusClient) hotelOffers(ctx context.Context, hotelIDs []string, geo map[string]GeoPoint, checkIn, checkOut string, adults int) ([]HotelOption, error) {
	q := url.Values{}
	q.Set("hotelIds", strings.Join(hotelIDs, ","))
	q.Set("checkInDate", checkIn)
	q.Set("checkOutDate", checkOut)
	q.Set("adults", fmt.Sprintf("%d", adults))
	q.Set("roomQuantity", "1")
	q.Set("currency", c.currency)
	q.Set("bestRateOnly", "true")

	body, err := c.doRequest(ctx, http.MethodGet, "/v3/shopping/hotel-offers?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("hotel offers failed: %w", err)
	}

	return normalizeHotelOffers(body, geo)
}

func normalizeHotelOffers(data []byte, geo map[string]GeoPoint) ([]HotelOption, error) {
	var resp amadeusHotelOffersResponse
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("failed to parse hotel offers: %w", err)
	}

	hotels := make([]HotelOption, 0, len(resp.Data))
	for _, item := range resp.Data {
		if !item.Available || len(item.Offers) == 0 {
			continue
		}

		id := item.Hotel.HotelID
		if id == "" {
			// No provider ID: mint one. Stable within this request only.
			id = "ht-" + uuid.New().String()
		}

		h := HotelOption{
			ID:     id,
			Name:   item.Hotel.Name,
			Rating: parseRating(item.Hotel.Rating),
		}

		point := geo[item.Hotel.HotelID]
		point.Address = strings.Join(item.Hotel.Address.Lines, ", ")
		if point.Address == "" {
			point.Address = item.Hotel.Address.CityName
		}
		if point.Address == "" {
			point.Address = item.Hotel.CityCode
		}
		h.Location = point

		for _, o := range item.Offers {
			total := parsePrice(o.Price.Total)
			if total <= 0 {
				continue
			}
			h.Offers = append(h.Offers, HotelOffer{
				Price: HotelPrice{
					Total:    total,
					PerNight: total / float64(nights(o.CheckInDate, o.CheckOutDate)),
					Currency: o.Price.Currency,
				},
				CheckIn:  o.CheckInDate,
				CheckOut: o.CheckOutDate,
			})
		}
		if len(h.Offers) == 0 {
			continue
		}

		hotels = append(hotels, h)
	}

	return hotels, nil
}

// nights floor-clamps to 1 so per-night math never divides by zero.
func nights(checkIn, checkOut string) int {
	in, err1 := time.Parse("2006-01-02", checkIn)
	out, err2 := time.Parse("2006-01-02", checkOut)
	if err1 != nil || err2 != nil {
		return 1
	}
	n := int(out.Sub(in).Hours() / 24)
	if n < 1 {
		return 1
	}
	return n
}

// ─── Location Search ──────────────────────────────────────────────────────────

type amadeusLocationsResponse struct {
	Data []struct {
		IataCode string `json:"iataCode"`
		Name     string `json:"name"`
		SubType  string `json:"subType"`
		Address  struct {
			CityName    string `json:"cityName"`
			CountryCode string `json:"countryCode"`
		} `json:"address"`
	} `json:"data"`
}

// SearchLocations resolves an airport/city autocomplete keyword. It never
// fails: when the provider is unconfigured or unreachable it matches the
// keyword against an embedded table of well-known airports.
func (c *AmadeusClient) SearchLocations(ctx context.Context, keyword string) []Location {
	keyword = strings.TrimSpace(keyword)
	if keyword == "" {
		return nil
	}
	if !c.Configured() {
		return fallbackLocations(keyword)
	}

	key := cache.Key("locations", strings.ToLower(keyword))
	var cached []Location
	if cache.GetJSON(ctx, c.store, key, &cached) {
		c.metrics.IncCacheHit()
		return cached
	}
	c.metrics.IncCacheMiss()

	q := url.Values{}
	q.Set("keyword", keyword)
	q.Set("subType", "AIRPORT,CITY")

	body, err := c.doRequest(ctx, http.MethodGet, "/v1/reference-data/locations?"+q.Encode(), nil)
	if err != nil {
		log.Printf("⚠️  location search failed: %v — using embedded table", err)
		c.metrics.IncProviderError("amadeus")
		return fallbackLocations(keyword)
	}

	var resp amadeusLocationsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		log.Printf("⚠️  location parse failed: %v — using embedded table", err)
		return fallbackLocations(keyword)
	}

	locations := make([]Location, 0, len(resp.Data))
	for _, d := range resp.Data {
		locations = append(locations, Location{
			Code:        d.IataCode,
			Name:        d.Name,
			CityName:    d.Address.CityName,
			CountryCode: d.Address.CountryCode,
			Type:        d.SubType,
		})
	}

	cache.SetJSON(ctx, c.store, key, locations, c.locationsTTL)
	return locations
}

// wellKnownAirports is the embedded fallback for location autocomplete.
var wellKnownAirports = []Location{
	{Code: "JFK", Name: "John F. Kennedy International", CityName: "New York", CountryCode: "US", Type: "AIRPORT"},
	{Code: "EWR", Name: "Newark Liberty International", CityName: "New York", CountryCode: "US", Type: "AIRPORT"},
	{Code: "LAX", Name: "Los Angeles International", CityName: "Los Angeles", CountryCode: "US", Type: "AIRPORT"},
	{Code: "ORD", Name: "Chicago O'Hare International", CityName: "Chicago", CountryCode: "US", Type: "AIRPORT"},
	{Code: "SFO", Name: "San Francisco International", CityName: "San Francisco", CountryCode: "US", Type: "AIRPORT"},
	{Code: "MIA", Name: "Miami International", CityName: "Miami", CountryCode: "US", Type: "AIRPORT"},
	{Code: "LHR", Name: "London Heathrow", CityName: "London", CountryCode: "GB", Type: "AIRPORT"},
	{Code: "LGW", Name: "London Gatwick", CityName: "London", CountryCode: "GB", Type: "AIRPORT"},
	{Code: "CDG", Name: "Paris Charles de Gaulle", CityName: "Paris", CountryCode: "FR", Type: "AIRPORT"},
	{Code: "ORY", Name: "Paris Orly", CityName: "Paris", CountryCode: "FR", Type: "AIRPORT"},
	{Code: "FRA", Name: "Frankfurt am Main", CityName: "Frankfurt", CountryCode: "DE", Type: "AIRPORT"},
	{Code: "BER", Name: "Berlin Brandenburg", CityName: "Berlin", CountryCode: "DE", Type: "AIRPORT"},
	{Code: "AMS", Name: "Amsterdam Schiphol", CityName: "Amsterdam", CountryCode: "NL", Type: "AIRPORT"},
	{Code: "MAD", Name: "Adolfo Suárez Madrid-Barajas", CityName: "Madrid", CountryCode: "ES", Type: "AIRPORT"},
	{Code: "BCN", Name: "Barcelona-El Prat", CityName: "Barcelona", CountryCode: "ES", Type: "AIRPORT"},
	{Code: "FCO", Name: "Rome Fiumicino", CityName: "Rome", CountryCode: "IT", Type: "AIRPORT"},
	{Code: "IST", Name: "Istanbul Airport", CityName: "Istanbul", CountryCode: "TR", Type: "AIRPORT"},
	{Code: "DXB", Name: "Dubai International", CityName: "Dubai", CountryCode: "AE", Type: "AIRPORT"},
	{Code: "SIN", Name: "Singapore Changi", CityName: "Singapore", CountryCode: "SG", Type: "AIRPORT"},
	{Code: "BKK", Name: "Bangkok Suvarnabhumi", CityName: "Bangkok", CountryCode: "TH", Type: "AIRPORT"},
	{Code: "NRT", Name: "Tokyo Narita", CityName: "Tokyo", CountryCode: "JP", Type: "AIRPORT"},
	{Code: "HND", Name: "Tokyo Haneda", CityName: "Tokyo", CountryCode: "JP", Type: "AIRPORT"},
	{Code: "SYD", Name: "Sydney Kingsford Smith", CityName: "Sydney", CountryCode: "AU", Type: "AIRPORT"},
	{Code: "TAS", Name: "Tashkent International", CityName: "Tashkent", CountryCode: "UZ", Type: "AIRPORT"},
}

func fallbackLocations(keyword string) []Location {
	kw := strings.ToLower(keyword)
	var matches []Location
	for _, loc := range wellKnownAirports {
		if strings.Contains(strings.ToLower(loc.Code), kw) ||
			strings.Contains(strings.ToLower(loc.Name), kw) ||
			strings.Contains(strings.ToLower(loc.CityName), kw) {
			matches = append(matches, loc)
		}
	}
	return matches
}

// ─── Helpers ──────────────────────────────────────────────────────────────────

// parseDuration converts ISO 8601 duration (PT5H30M) to human readable (5h 30m)
func parseDuration(iso string) string {
	if iso == "" {
		return ""
	}
	iso = strings.TrimPrefix(iso, "PT")
	result := ""
	hIdx := strings.Index(iso, "H")
	mIdx := strings.Index(iso, "M")
	if hIdx >= 0 {
		result += iso[:hIdx] + "h"
		iso = iso[hIdx+1:]
		mIdx = strings.Index(iso, "M")
	}
	if mIdx >= 0 && mIdx < len(iso) {
		if result != "" {
			result += " "
		}
		result += iso[:mIdx] + "m"
	}
	return result
}

func parsePrice(s string) float64 {
	var price float64
	fmt.Sscanf(s, "%f", &price)
	return price
}

// parseRating converts the provider's star-rating string. Absent or
// unparsable ratings map to nil rather than a made-up default.
func parseRating(s string) *float64 {
	if s == "" {
		return nil
	}
	var r float64
	if _, err := fmt.Sscanf(s, "%f", &r); err != nil || r <= 0 {
		return nil
	}
	if r > 5 {
		r = 5
	}
	return &r
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}

// airportToCity maps airport IATA codes to the city codes hotel search wants.
func airportToCity(airport string) string {
	mapping := map[string]string{
		"LHR": "LON", "LGW": "LON", "STN": "LON", "LTN": "LON",
		"CDG": "PAR", "ORY": "PAR",
		"JFK": "NYC", "LGA": "NYC", "EWR": "NYC",
		"FCO": "ROM", "CIA": "ROM",
		"NRT": "TYO", "HND": "TYO",
		"SXF": "BER",
	}
	if city, ok := mapping[airport]; ok {
		return city
	}
	return airport
}
