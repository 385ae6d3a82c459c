package obs

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"net/http"
)

type Metrics struct {
	RequestsTotal   *prometheus.CounterVec
	CacheHitsTotal  prometheus.Counter
	CacheMissTotal  prometheus.Counter
	ProviderErrors  *prometheus.CounterVec
	WebSearchesUsed prometheus.Counter
	LLMFallbacks    prometheus.Counter

	registry *prometheus.Registry
}

func NewMetrics() *Metrics {
	m := &Metrics{
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wayfare_requests_total",
			Help: "HTTP requests handled, by route.",
		}, []string{"route"}),
		CacheHitsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wayfare_cache_hits_total",
			Help: "Provider-cache hits.",
		}),
		CacheMissTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wayfare_cache_misses_total",
			Help: "Provider-cache misses.",
		}),
		ProviderErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "wayfare_provider_errors_total",
			Help: "Outbound provider call failures, by provider.",
		}, []string{"provider"}),
		WebSearchesUsed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wayfare_web_searches_used_total",
			Help: "Web-search quota units consumed.",
		}),
		LLMFallbacks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "wayfare_llm_fallbacks_total",
			Help: "Recommendation requests served by the deterministic fallback.",
		}),
	}

	m.registry = prometheus.NewRegistry()
	m.registry.MustRegister(
		m.RequestsTotal,
		m.CacheHitsTotal,
		m.CacheMissTotal,
		m.ProviderErrors,
		m.WebSearchesUsed,
		m.LLMFallbacks,
	)
	return m
}

func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) IncRequest(route string) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(route).Inc()
}

func (m *Metrics) IncCacheHit() {
	if m == nil {
		return
	}
	m.CacheHitsTotal.Inc()
}

func (m *Metrics) IncCacheMiss() {
	if m == nil {
		return
	}
	m.CacheMissTotal.Inc()
}

func (m *Metrics) IncProviderError(provider string) {
	if m == nil {
		return
	}
	m.ProviderErrors.WithLabelValues(provider).Inc()
}

func (m *Metrics) IncWebSearch() {
	if m == nil {
		return
	}
	m.WebSearchesUsed.Inc()
}

func (m *Metrics) IncLLMFallback() {
	if m == nil {
		return
	}
	m.LLMFallbacks.Inc()
}
