package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"wayfare/cache"
	"wayfare/obs"
)

var (
	// ErrQuotaExhausted is returned before any network I/O once the
	// process-wide search budget hits zero.
	ErrQuotaExhausted = errors.New("web search quota exhausted")
	// ErrSearchNotConfigured is returned when no API key is set.
	ErrSearchNotConfigured = errors.New("web search provider not configured")
)

// ─── Web-Search Client ────────────────────────────────────────────────────────

// WebSearchClient performs quota-limited general search queries against a
// Serper-shaped API. Cache hits do not consume quota; quota exhaustion and
// missing configuration fail closed before touching the network.
type WebSearchClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
	store      cache.Store
	quota      *SearchQuota
	metrics    *obs.Metrics
	ttl        time.Duration
}

type WebSearchConfig struct {
	APIKey  string
	BaseURL string
	Timeout time.Duration
	TTL     time.Duration
}

func NewWebSearchClient(cfg WebSearchConfig, store cache.Store, quota *SearchQuota, metrics *obs.Metrics) *WebSearchClient {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "https://google.serper.dev"
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 15 * time.Second
	}
	if cfg.TTL == 0 {
		cfg.TTL = 6 * time.Hour
	}

	c := &WebSearchClient{
		apiKey:     cfg.APIKey,
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		store:      store,
		quota:      quota,
		metrics:    metrics,
		ttl:        cfg.TTL,
	}

	if c.apiKey == "" {
		log.Println("⚠️  SERPER_API_KEY not set — web-search enrichment disabled")
	}
	return c
}

func (c *WebSearchClient) Configured() bool { return c.apiKey != "" }

type SearchOptions struct {
	Country  string `json:"gl,omitempty"`
	Language string `json:"hl,omitempty"`
	Num      int    `json:"num,omitempty"`
}

type serperResponse struct {
	Organic []struct {
		Title    string `json:"title"`
		Link     string `json:"link"`
		Snippet  string `json:"snippet"`
		Position int    `json:"position"`
	} `json:"organic"`
	KnowledgeGraph *struct {
		Title       string            `json:"title"`
		Type        string            `json:"type"`
		Description string            `json:"description"`
		Attributes  map[string]string `json:"attributes"`
	} `json:"knowledgeGraph"`
	RelatedSearches []struct {
		Query string `json:"query"`
	} `json:"relatedSearches"`
}

// Search runs one query. Preconditions are checked in order: configuration,
// cache (free), then quota — only a real network call consumes quota.
func (c *WebSearchClient) Search(ctx context.Context, query string, opts SearchOptions) (*SearchResult, error) {
	if !c.Configured() {
		return nil, ErrSearchNotConfigured
	}

	key := cache.Key("websearch", struct {
		Query string        `json:"q"`
		Opts  SearchOptions `json:"opts"`
	}{query, opts})

	var cached SearchResult
	if cache.GetJSON(ctx, c.store, key, &cached) {
		c.metrics.IncCacheHit()
		return &cached, nil
	}
	c.metrics.IncCacheMiss()

	if c.quota.Remaining() <= 0 {
		return nil, ErrQuotaExhausted
	}

	payload := struct {
		Q string `json:"q"`
		SearchOptions
	}{Q: query, SearchOptions: opts}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/search", bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("X-API-KEY", c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.metrics.IncProviderError("websearch")
		return nil, fmt.Errorf("web search failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		c.metrics.IncProviderError("websearch")
		return nil, fmt.Errorf("web search error (%d): %s", resp.StatusCode, string(respBody))
	}

	var parsed serperResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse search response: %w", err)
	}

	// The call succeeded: spend one unit. A concurrent request may have
	// drained the budget since the precondition check; the result is still
	// returned — this is a soft usage budget, not a ledger.
	c.quota.DecrementIfAvailable()
	c.metrics.IncWebSearch()

	result := normalizeSearch(query, parsed)
	cache.SetJSON(ctx, c.store, key, result, c.ttl)
	return result, nil
}

// SearchDestinationInfo is a templated convenience query for trip enrichment.
func (c *WebSearchClient) SearchDestinationInfo(ctx context.Context, destination string) (*SearchResult, error) {
	query := fmt.Sprintf("%s travel guide top attractions best time to visit", destination)
	return c.Search(ctx, query, SearchOptions{Num: 10})
}

func normalizeSearch(query string, parsed serperResponse) *SearchResult {
	result := &SearchResult{Query: query}

	for _, o := range parsed.Organic {
		result.Organic = append(result.Organic, OrganicResult{
			Title:    o.Title,
			Link:     o.Link,
			Snippet:  o.Snippet,
			Position: o.Position,
		})
	}

	if kg := parsed.KnowledgeGraph; kg != nil {
		result.Knowledge = &KnowledgePanel{
			Title:       kg.Title,
			Type:        kg.Type,
			Description: kg.Description,
			Attributes:  kg.Attributes,
		}
	}

	for _, r := range parsed.RelatedSearches {
		result.RelatedSearches = append(result.RelatedSearches, r.Query)
	}

	return result
}
