package main

import (
	"context"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"golang.org/x/time/rate"

	"wayfare/cache"
	"wayfare/database"
	"wayfare/handlers"
	"wayfare/obs"
	"wayfare/services"
)

func main() {
	// Load .env file (ignored in production where env vars are set directly)
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found — using environment variables")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	metrics := obs.NewMetrics()

	// Optional history/plan store. The recommendation flow works without it.
	var db *database.DB
	if dsn := os.Getenv("DATABASE_URL"); dsn != "" {
		var err error
		if db, err = database.Open(dsn); err != nil {
			log.Printf("⚠️  database unavailable: %v — history and plan PDFs disabled", err)
			db = nil
		}
	} else {
		log.Println("⚠️  DATABASE_URL not set — history and plan PDFs disabled")
	}

	store := openCacheStore()
	cache.StartSweeper(ctx, store, getEnvDuration("CACHE_SWEEP_INTERVAL", time.Hour), log.Printf)

	amadeus := services.NewAmadeusClient(services.AmadeusConfig{
		ClientID:        os.Getenv("AMADEUS_CLIENT_ID"),
		ClientSecret:    os.Getenv("AMADEUS_CLIENT_SECRET"),
		BaseURL:         os.Getenv("AMADEUS_BASE_URL"),
		Currency:        getEnv("CURRENCY", "USD"),
		Timeout:         getEnvDuration("PROVIDER_TIMEOUT", 30*time.Second),
		FlightsTTL:      getEnvDuration("CACHE_TTL_FLIGHTS", 30*time.Minute),
		HotelsTTL:       getEnvDuration("CACHE_TTL_HOTELS", time.Hour),
		LocationsTTL:    getEnvDuration("CACHE_TTL_LOCATIONS", 24*time.Hour),
		RateLimit:       rate.Limit(getEnvFloat("AMADEUS_RPS", 10)),
		RateBurst:       getEnvInt("AMADEUS_BURST", 20),
		RangeStride:     getEnvInt("RANGE_SAMPLE_STRIDE_DAYS", 3),
		RangeMaxSamples: getEnvInt("RANGE_SAMPLE_MAX", 10),
	}, store, metrics)

	quota := services.NewSearchQuota(getEnvInt("MAX_WEB_SEARCHES", 100))

	webSearch := services.NewWebSearchClient(services.WebSearchConfig{
		APIKey:  os.Getenv("SERPER_API_KEY"),
		BaseURL: os.Getenv("SERPER_BASE_URL"),
		Timeout: getEnvDuration("PROVIDER_TIMEOUT", 30*time.Second),
		TTL:     getEnvDuration("CACHE_TTL_SEARCH", 6*time.Hour),
	}, store, quota, metrics)

	llm := services.NewLLMClient(services.LLMConfig{
		APIKey:  os.Getenv("LLM_API_KEY"),
		BaseURL: os.Getenv("LLM_BASE_URL"),
		Model:   os.Getenv("LLM_MODEL"),
		Timeout: getEnvDuration("LLM_TIMEOUT", 60*time.Second),
	})

	recommender := services.NewRecommender(amadeus, amadeus, webSearch, llm, quota, metrics)

	// Set Gin mode
	if os.Getenv("GIN_MODE") == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.Default()
	r.SetTrustedProxies([]string{"0.0.0.0/0"})

	// CORS — allow configured frontend origins
	allowedOrigins := []string{"http://localhost:5173", "http://localhost:3000"}
	for _, u := range strings.Split(os.Getenv("FRONTEND_URL"), ",") {
		if u = strings.TrimSpace(u); u != "" {
			allowedOrigins = append(allowedOrigins, u)
		}
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	server := &handlers.Server{
		Provider:    amadeus,
		Recommender: recommender,
		Planner:     llm,
		Quota:       quota,
		Store:       store,
		DB:          db,
		Metrics:     metrics,
	}
	server.Register(r)

	port := getEnv("PORT", "8080")
	log.Printf("🚀 Wayfare backend starting on port %s", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// openCacheStore picks the cache backend. Postgres is the default when a
// database URL is present, memory otherwise; any open failure leaves the
// store in degraded no-op mode rather than aborting startup.
func openCacheStore() cache.Store {
	backend := getEnv("CACHE_BACKEND", "")
	if backend == "" {
		if os.Getenv("DATABASE_URL") != "" {
			backend = "postgres"
		} else {
			backend = "memory"
		}
	}

	switch backend {
	case "postgres":
		store := cache.NewPostgresStore(os.Getenv("DATABASE_URL"))
		if store.Ready() {
			log.Println("✅ Postgres cache enabled")
		}
		return store
	case "redis":
		store := cache.NewRedisStore(cache.RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnv("REDIS_PORT", "6379"),
			Password: os.Getenv("REDIS_PASSWORD"),
			DB:       getEnvInt("REDIS_DB", 0),
		})
		if store.Ready() {
			log.Println("✅ Redis cache enabled")
		}
		return store
	default:
		log.Println("✅ In-memory cache enabled")
		return cache.NewMemoryStore()
	}
}

// ─── Env helpers ──────────────────────────────────────────────────────────────

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func getEnvFloat(key string, fallback float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}
