package config

import (
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadConfig(t *testing.T) {
	// Test with default values
	config := LoadConfig()
	assert.Equal(t, 900*time.Second, config.CheckInterval)
	assert.Equal(t, 2*time.Second, config.ItemDelay)
	assert.Equal(t, 25.0, config.MinDiscountPct)
	assert.Equal(t, "SAR", config.BaseCurrency)
	assert.Equal(t, 3.70, config.SARPerUSD)
	assert.Equal(t, 25*time.Second, config.FetchTimeout)
	assert.Equal(t, "dealwatch:alerts", config.RedisStream)
	assert.True(t, config.ResolveRedirects)
	assert.True(t, config.AutoUpdateSellOnAlert)
	assert.False(t, config.AutoPostToChannel)

	// Test with environment variables
	os.Setenv("CHECK_INTERVAL_SECONDS", "60")
	os.Setenv("MIN_DISCOUNT_PCT", "10")
	os.Setenv("BASE_CURRENCY", "USD")
	os.Setenv("RESOLVE_REDIRECTS", "0")
	os.Setenv("REDIS_ADDR", "redis.example.com:6379")
	os.Setenv("ADMIN_ID", "42")

	config = LoadConfig()
	assert.Equal(t, 60*time.Second, config.CheckInterval)
	assert.Equal(t, 10.0, config.MinDiscountPct)
	assert.Equal(t, "USD", config.BaseCurrency)
	assert.False(t, config.ResolveRedirects)
	assert.Equal(t, "redis.example.com:6379", config.RedisAddr)
	assert.Equal(t, int64(42), config.AdminID)

	// Clean up
	os.Unsetenv("CHECK_INTERVAL_SECONDS")
	os.Unsetenv("MIN_DISCOUNT_PCT")
	os.Unsetenv("BASE_CURRENCY")
	os.Unsetenv("RESOLVE_REDIRECTS")
	os.Unsetenv("REDIS_ADDR")
	os.Unsetenv("ADMIN_ID")
}

func TestValidate(t *testing.T) {
	config := LoadConfig()
	config.BotToken = "token"
	config.DatabaseURL = "postgres://localhost/dealwatch"
	assert.NoError(t, config.Validate())

	missingToken := config
	missingToken.BotToken = ""
	assert.Error(t, missingToken.Validate())

	missingDB := config
	missingDB.DatabaseURL = ""
	assert.Error(t, missingDB.Validate())

	badInterval := config
	badInterval.CheckInterval = 0
	assert.Error(t, badInterval.Validate())

	badRate := config
	badRate.SARPerUSD = -1
	assert.Error(t, badRate.Validate())
}

func TestExchangeRates(t *testing.T) {
	os.Setenv("SAR_PER_USD", "3.75")
	defer os.Unsetenv("SAR_PER_USD")

	config := LoadConfig()
	rates := config.ExchangeRates()
	assert.Equal(t, 3.75, rates["USD"])
}
