package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// Config represents the application configuration
type Config struct {
	// Telegram configuration
	BotToken  string
	AdminID   int64
	ChannelID string

	// Store configuration
	DatabaseURL string

	// Scheduler configuration
	CheckInterval  time.Duration
	ItemDelay      time.Duration
	MinDiscountPct float64

	// Pricing configuration
	BaseCurrency          string
	SARPerUSD             float64
	SellMarkup            float64
	SellAdd               float64
	SellRound             float64
	AutoUpdateSellOnAlert bool
	AutoPostToChannel     bool

	// Fetcher configuration
	UserAgent          string
	AcceptLanguage     string
	FetchTimeout       time.Duration
	ScraperAPIKey      string
	ScraperAPIEndpoint string
	ResolveRedirects   bool
	HostCooldown       time.Duration

	// Redis alert stream configuration
	RedisAddr            string
	RedisDB              int
	RedisStream          string
	RedisStreamMaxLength int

	// Memcache configuration
	MemcacheAddr string

	// Environment
	Environment string
}

// LoadConfig loads the configuration from environment variables with defaults
func LoadConfig() Config {
	return Config{
		BotToken:  getEnv("BOT_TOKEN", ""),
		AdminID:   getEnvInt64("ADMIN_ID", 0),
		ChannelID: getEnv("CHANNEL_ID", ""),

		DatabaseURL: getEnv("DATABASE_URL", ""),

		CheckInterval:  getEnvSeconds("CHECK_INTERVAL_SECONDS", 900),
		ItemDelay:      getEnvSeconds("ITEM_DELAY_SECONDS", 2),
		MinDiscountPct: getEnvFloat("MIN_DISCOUNT_PCT", 25),

		BaseCurrency:          getEnv("BASE_CURRENCY", "SAR"),
		SARPerUSD:             getEnvFloat("SAR_PER_USD", 3.70),
		SellMarkup:            getEnvFloat("SELL_MARKUP", 1.35),
		SellAdd:               getEnvFloat("SELL_ADD", 0),
		SellRound:             getEnvFloat("SELL_ROUND", 1),
		AutoUpdateSellOnAlert: getEnvBool("AUTO_UPDATE_SELL_ON_ALERT", true),
		AutoPostToChannel:     getEnvBool("AUTO_POST_TO_CHANNEL", false),

		UserAgent: getEnv("USER_AGENT",
			"Mozilla/5.0 (Linux; Android 12) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/121.0 Mobile Safari/537.36"),
		AcceptLanguage:     getEnv("ACCEPT_LANGUAGE", "en-US,en;q=0.9,ar;q=0.8"),
		FetchTimeout:       getEnvSeconds("FETCH_TIMEOUT_SECONDS", 25),
		ScraperAPIKey:      getEnv("SCRAPER_API_KEY", ""),
		ScraperAPIEndpoint: getEnv("SCRAPER_API_ENDPOINT", "http://api.scraperapi.com"),
		ResolveRedirects:   getEnvBool("RESOLVE_REDIRECTS", true),
		HostCooldown:       getEnvSeconds("HOST_COOLDOWN_SECONDS", 300),

		RedisAddr:            getEnv("REDIS_ADDR", ""),
		RedisDB:              int(getEnvInt64("REDIS_DB", 0)),
		RedisStream:          getEnv("REDIS_STREAM", "dealwatch:alerts"),
		RedisStreamMaxLength: int(getEnvInt64("REDIS_STREAM_MAX_LENGTH", 1000)),

		MemcacheAddr: getEnv("MEMCACHE_ADDR", ""),

		Environment: getEnv("DEALWATCH_ENVIRONMENT", "development"),
	}
}

// Validate checks that required settings are present and consistent
func (c *Config) Validate() error {
	if c.BotToken == "" {
		return fmt.Errorf("BOT_TOKEN is required")
	}
	if c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required")
	}
	if c.CheckInterval <= 0 {
		return fmt.Errorf("CHECK_INTERVAL_SECONDS must be positive")
	}
	if c.FetchTimeout <= 0 {
		return fmt.Errorf("FETCH_TIMEOUT_SECONDS must be positive")
	}
	if c.MinDiscountPct < 0 {
		return fmt.Errorf("MIN_DISCOUNT_PCT must not be negative")
	}
	if c.SARPerUSD <= 0 {
		return fmt.Errorf("SAR_PER_USD must be positive")
	}
	if c.SellMarkup <= 0 {
		return fmt.Errorf("SELL_MARKUP must be positive")
	}
	return nil
}

// ExchangeRates returns the static conversion table into the base currency,
// expressed as base-currency units per one unit of the foreign code.
func (c *Config) ExchangeRates() map[string]float64 {
	return map[string]float64{
		"USD": c.SARPerUSD,
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

func getEnvInt64(key string, defaultValue int64) int64 {
	value, err := strconv.ParseInt(getEnv(key, ""), 10, 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvFloat(key string, defaultValue float64) float64 {
	value, err := strconv.ParseFloat(getEnv(key, ""), 64)
	if err != nil {
		return defaultValue
	}
	return value
}

func getEnvBool(key string, defaultValue bool) bool {
	switch getEnv(key, "") {
	case "1", "true", "TRUE", "yes":
		return true
	case "0", "false", "FALSE", "no":
		return false
	default:
		return defaultValue
	}
}

func getEnvSeconds(key string, defaultSeconds int) time.Duration {
	seconds, err := strconv.Atoi(getEnv(key, ""))
	if err != nil || seconds < 0 {
		seconds = defaultSeconds
	}
	return time.Duration(seconds) * time.Second
}
