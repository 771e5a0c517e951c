// Package config provides configuration management for trendsignals.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/leeaandrob/trendsignals/internal/models"
	"github.com/leeaandrob/trendsignals/internal/trend"
)

// Store backends.
const (
	StoreMemory   = "memory"
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
)

// Feed is one raw signal provider endpoint.
type Feed struct {
	Name string `validate:"required"`
	URL  string `validate:"required,url"`
}

// Config holds all application configuration.
type Config struct {
	// Cloud tier (gemini, claude or openai-compatible such as Qwen/DashScope)
	CloudProvider string `validate:"omitempty,oneof=gemini claude anthropic openai qwen dashscope"`
	CloudAPIKey   string
	CloudEndpoint string `validate:"omitempty,url"`
	CloudModel    string

	// Local tier (Ollama)
	OllamaURL     string `validate:"omitempty,url"`
	OllamaModel   string
	OllamaTimeout time.Duration

	// Generation cache
	RedisURL string
	CacheTTL time.Duration `validate:"gte=0"`

	// Persistence
	StoreBackend string `validate:"oneof=memory mongo postgres"`
	MongoURI     string `validate:"required_if=StoreBackend mongo"`
	MongoDB      string `validate:"required_if=StoreBackend mongo"`
	DatabaseURL  string `validate:"required_if=StoreBackend postgres"`

	// Scoring constants
	WeightSearch    float64                     `validate:"gte=0"`
	WeightSNS       float64                     `validate:"gte=0"`
	WeightCommunity float64                     `validate:"gte=0"`
	WeightVideo     float64                     `validate:"gte=0"`
	WeightFinance   float64                     `validate:"gte=0"`
	Lambdas         map[models.Category]float64 `validate:"dive,gte=0"`

	// Pipeline
	EnableClustering bool
	ClusterLimit     int     `validate:"gte=1"`
	AlertThreshold   float64 `validate:"gt=0"`

	// Collection schedule
	CollectInterval time.Duration `validate:"gte=0"`
	CollectCron     string
	RunOnStart      bool

	// Raw signal providers
	Feeds             []Feed  `validate:"dive"`
	ProviderRateLimit float64 `validate:"gt=0"`

	// News enrichment
	TavilyAPIKey string

	// Alerts
	TelegramToken  string
	TelegramChatID string `validate:"required_with=TelegramToken"`

	// Server settings
	HTTPAddr string `validate:"required"`
	Debug    bool
}

// Load loads configuration from environment variables.
func Load() (*Config, error) {
	// Try to load .env file
	if err := godotenv.Load(); err != nil {
		log.Debug().Msg("No .env file found, using environment variables")
	}

	feeds, err := ParseFeeds(getEnv("PROVIDER_URLS", ""))
	if err != nil {
		return nil, err
	}

	provider := strings.ToLower(getEnv("CLOUD_PROVIDER", "gemini"))

	cfg := &Config{
		// Cloud tier
		CloudProvider: provider,
		CloudAPIKey:   getEnv("CLOUD_API_KEY", cloudKeyFromVendorEnv(provider)),
		CloudEndpoint: getEnv("CLOUD_ENDPOINT", getEnv("DASHSCOPE_ENDPOINT", "")),
		CloudModel:    getEnv("CLOUD_MODEL", ""),

		// Local tier
		OllamaURL:     getEnv("OLLAMA_URL", "http://localhost:11434"),
		OllamaModel:   getEnv("OLLAMA_MODEL", "llama3.2:3b"),
		OllamaTimeout: getEnvDuration("OLLAMA_TIMEOUT", 60*time.Second),

		// Cache
		RedisURL: getEnv("REDIS_URL", ""),
		CacheTTL: getEnvDuration("CACHE_TTL", time.Hour),

		// Persistence
		StoreBackend: strings.ToLower(getEnv("STORE_BACKEND", StoreMemory)),
		MongoURI:     getEnv("MONGO_URI", "mongodb://localhost:27017"),
		MongoDB:      getEnv("MONGO_DB", "trendsignals"),
		DatabaseURL:  getEnv("DATABASE_URL", ""),

		// Scoring
		WeightSearch:    getEnvFloat("WEIGHT_SEARCH", 0.30),
		WeightSNS:       getEnvFloat("WEIGHT_SNS", 0.25),
		WeightCommunity: getEnvFloat("WEIGHT_COMMUNITY", 0.20),
		WeightVideo:     getEnvFloat("WEIGHT_VIDEO", 0.15),
		WeightFinance:   getEnvFloat("WEIGHT_FINANCE", 0.15),
		Lambdas:         loadLambdas(),

		// Pipeline
		EnableClustering: getEnvBool("ENABLE_CLUSTERING", true),
		ClusterLimit:     getEnvInt("CLUSTER_LIMIT", trend.DefaultClusterLimit),
		AlertThreshold:   getEnvFloat("ALERT_THRESHOLD", trend.DefaultAlertThreshold),

		// Schedule
		CollectInterval: getEnvDuration("COLLECT_INTERVAL", 10*time.Minute),
		CollectCron:     getEnv("COLLECT_CRON", ""),
		RunOnStart:      getEnvBool("RUN_ON_START", true),

		// Providers
		Feeds:             feeds,
		ProviderRateLimit: getEnvFloat("PROVIDER_RATE_LIMIT", 1),

		// Enrichment
		TavilyAPIKey: getEnv("TAVILY_API_KEY", ""),

		// Alerts
		TelegramToken:  getEnv("TELEGRAM_BOT_TOKEN", ""),
		TelegramChatID: getEnv("TELEGRAM_CHAT_ID", ""),

		// Server
		HTTPAddr: getEnv("HTTP_ADDR", ":8080"),
		Debug:    getEnvBool("DEBUG", false),
	}

	return cfg, nil
}

// Validate checks struct constraints and warns about disabled integrations.
func (c *Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	if c.CloudAPIKey == "" {
		log.Warn().Str("provider", c.CloudProvider).Msg("Cloud API key not set, cloud tier disabled")
	}
	if c.OllamaURL == "" {
		log.Warn().Msg("OLLAMA_URL not set, local tier disabled")
	}
	if len(c.Feeds) == 0 {
		log.Warn().Msg("PROVIDER_URLS not set, pipeline runs will collect nothing")
	}
	if c.TelegramToken == "" {
		log.Info().Msg("TELEGRAM_BOT_TOKEN not set, alerts are logged only")
	}
	return nil
}

// ScorerConfig returns the scoring constants for the pipeline.
func (c *Config) ScorerConfig() trend.ScorerConfig {
	return trend.ScorerConfig{
		Weights: &trend.Weights{
			Search:    c.WeightSearch,
			SNS:       c.WeightSNS,
			Community: c.WeightCommunity,
			Video:     c.WeightVideo,
			Finance:   c.WeightFinance,
		},
		Attenuation: c.Lambdas,
	}
}

// ParseFeeds parses "name=url,name=url". A bare url is named after itself.
// Commas are separators, so urls must not contain them.
func ParseFeeds(s string) ([]Feed, error) {
	var feeds []Feed
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}

		name, url, ok := strings.Cut(part, "=")
		if !ok || strings.Contains(name, "://") {
			name, url = part, part
		}
		name, url = strings.TrimSpace(name), strings.TrimSpace(url)
		if url == "" {
			return nil, fmt.Errorf("provider %q has no url", name)
		}
		feeds = append(feeds, Feed{Name: name, URL: url})
	}
	return feeds, nil
}

func cloudKeyFromVendorEnv(provider string) string {
	switch provider {
	case "claude", "anthropic":
		return getEnv("ANTHROPIC_API_KEY", "")
	case "openai", "qwen", "dashscope":
		return getEnv("DASHSCOPE_API_KEY", getEnv("OPENAI_API_KEY", ""))
	default:
		return getEnv("GEMINI_API_KEY", getEnv("GOOGLE_API_KEY", ""))
	}
}

func loadLambdas() map[models.Category]float64 {
	defaults := trend.DefaultAttenuation()
	lambdas := make(map[models.Category]float64, len(defaults))
	for _, cat := range models.Categories {
		lambdas[cat] = getEnvFloat("LAMBDA_"+string(cat), defaults[cat])
	}
	return lambdas
}

// Helper functions

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if f, err := strconv.ParseFloat(value, 64); err == nil {
			return f
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return defaultValue
}
