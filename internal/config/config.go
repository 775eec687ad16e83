package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port string

	// Auth for /api routes
	APIKey string

	// Signed page sessions. SessionSecret falls back to APIKey.
	SessionSecret string
	SessionTTL    time.Duration

	// Claude generation
	AnthropicAPIKey string
	AnthropicModel  string
	GenerateTimeout time.Duration
	StatsWindow     time.Duration

	// Feature access: remote service when FeatureAccessURL is set,
	// otherwise the local SQLite quota.
	FeatureAccessURL    string
	FeatureAccessAPIKey string
	QuotaDBPath         string
	FreeDailyLookups    int

	// Lookup cache
	CacheTTL time.Duration

	// Search engines
	SearchPrimaryURL   string
	SearchSecondaryURL string
}

// LoadDotEnv reads variables from the given files (default ".env") without
// overriding ones already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	var present []string
	for _, f := range files {
		if _, err := os.Stat(f); err == nil {
			present = append(present, f)
		}
	}
	if len(present) == 0 {
		return nil
	}
	if err := godotenv.Load(present...); err != nil {
		return fmt.Errorf("load env files: %w", err)
	}
	return nil
}

func Load() Config {
	cfg := Config{
		Port: envOr("PORT", "8090"),

		APIKey: os.Getenv("CONDLOOKUP_API_KEY"),

		SessionSecret: os.Getenv("CONDLOOKUP_SESSION_SECRET"),
		SessionTTL:    envDuration("SESSION_TTL", 12*time.Hour),

		AnthropicAPIKey: os.Getenv("ANTHROPIC_API_KEY"),
		AnthropicModel:  envOr("ANTHROPIC_MODEL", "claude-sonnet-4-5-20250929"),
		GenerateTimeout: envDuration("GENERATE_TIMEOUT", 90*time.Second),
		StatsWindow:     envDuration("STATS_WINDOW", 1*time.Hour),

		FeatureAccessURL:    os.Getenv("FEATURE_ACCESS_URL"),
		FeatureAccessAPIKey: os.Getenv("FEATURE_ACCESS_API_KEY"),
		QuotaDBPath:         envOr("QUOTA_DB_PATH", "condlookup.db"),
		FreeDailyLookups:    envInt("FREE_DAILY_LOOKUPS", 5),

		CacheTTL: envDuration("CACHE_TTL", 6*time.Hour),

		SearchPrimaryURL:   envOr("SEARCH_PRIMARY_URL", "https://www.google.com/search"),
		SearchSecondaryURL: envOr("SEARCH_SECONDARY_URL", "https://www.bing.com/search"),
	}

	if cfg.SessionSecret == "" {
		cfg.SessionSecret = cfg.APIKey
	}
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = 12 * time.Hour
	}
	if cfg.GenerateTimeout <= 0 {
		cfg.GenerateTimeout = 90 * time.Second
	}
	if cfg.StatsWindow <= 0 {
		cfg.StatsWindow = 1 * time.Hour
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 6 * time.Hour
	}
	if cfg.FreeDailyLookups < 0 {
		cfg.FreeDailyLookups = 0
	}

	return cfg
}

func (c Config) Validate() error {
	if c.APIKey == "" {
		return fmt.Errorf("CONDLOOKUP_API_KEY is required")
	}
	if c.AnthropicAPIKey == "" {
		return fmt.Errorf("ANTHROPIC_API_KEY is required")
	}
	if c.FeatureAccessURL == "" && c.QuotaDBPath == "" {
		return fmt.Errorf("one of FEATURE_ACCESS_URL or QUOTA_DB_PATH is required")
	}
	return nil
}

// UseRemoteAccess reports whether lookups are gated by the external service.
func (c Config) UseRemoteAccess() bool {
	return c.FeatureAccessURL != ""
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func envDuration(key string, fallback time.Duration) time.Duration {
	if v := os.Getenv(key); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			return d
		}
	}
	return fallback
}
