package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

var (
	DatabaseURL string

	GeminiAPIKey  string
	GeminiModel   string
	GeminiBaseURL string

	SMTPHost     string
	SMTPPort     int
	SMTPEmail    string
	SMTPPassword string

	AppEnv string
	Port   string

	// runtime tunables
	RateLimitWindowSeconds int
	RateLimitCapacity      int
	ChatCacheTTLSeconds    int
	ChatCacheMaxItems      int
)

// loadAppEnv loads .env only outside production; deployed environments are
// expected to inject real environment variables.
func loadAppEnv() {
	AppEnv = os.Getenv("APP_ENV")

	if AppEnv == "production" {
		return
	}

	if err := godotenv.Load(); err != nil {
		log.Printf("[config] no .env file loaded: %v", err)
	}
}

func init() {
	loadAppEnv()

	DatabaseURL = os.Getenv("DATABASE_URL")

	GeminiAPIKey = os.Getenv("GEMINI_API_KEY")
	GeminiModel = os.Getenv("GEMINI_MODEL")
	if GeminiModel == "" {
		GeminiModel = "gemini-2.5-flash"
	}
	GeminiBaseURL = os.Getenv("GEMINI_BASE_URL")
	if GeminiBaseURL == "" {
		GeminiBaseURL = "https://generativelanguage.googleapis.com"
	}

	SMTPHost = os.Getenv("SMTP_HOST")
	if SMTPHost == "" {
		SMTPHost = "smtp.gmail.com"
	}
	SMTPPort = atoiOr(os.Getenv("SMTP_PORT"), 587)
	SMTPEmail = os.Getenv("SMTP_EMAIL")
	SMTPPassword = os.Getenv("SMTP_PASSWORD")

	Port = os.Getenv("PORT")
	if Port == "" {
		Port = "5000"
	}

	// Tunables with defaults
	RateLimitWindowSeconds = atoiOr(os.Getenv("RATE_LIMIT_WINDOW_SECONDS"), 10)
	RateLimitCapacity = atoiOr(os.Getenv("RATE_LIMIT_CAPACITY"), 5)
	ChatCacheTTLSeconds = atoiOr(os.Getenv("CHAT_CACHE_TTL_SECONDS"), 600)
	ChatCacheMaxItems = atoiOr(os.Getenv("CHAT_CACHE_MAX_ITEMS"), 500)

	// Log important config values to help debug environment
	log.Printf("[config] AppEnv=%s GeminiAPIKeyPresent=%v GeminiModel=%s", AppEnv, GeminiAPIKey != "", GeminiModel)
	log.Printf("[config] SMTPConfigured=%v DatabaseURLPresent=%v", SMTPEmail != "" && SMTPPassword != "", DatabaseURL != "")
	log.Printf("[config] RateLimit window=%ds capacity=%d cacheTTL=%ds cacheMax=%d",
		RateLimitWindowSeconds, RateLimitCapacity, ChatCacheTTLSeconds, ChatCacheMaxItems)
}

func atoiOr(s string, def int) int {
	if s == "" {
		return def
	}
	if v, err := strconv.Atoi(s); err == nil {
		return v
	}
	return def
}
