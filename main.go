package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"sync"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"

	"uzdeals/dealwatcher/config"
	"uzdeals/dealwatcher/internal/bot"
	"uzdeals/dealwatcher/internal/currency"
	"uzdeals/dealwatcher/internal/extractor"
	"uzdeals/dealwatcher/internal/fetcher"
	"uzdeals/dealwatcher/internal/linkutil"
	"uzdeals/dealwatcher/internal/pricing"
	"uzdeals/dealwatcher/internal/scheduler"
	"uzdeals/dealwatcher/internal/store"
	"uzdeals/dealwatcher/logger"
	"uzdeals/dealwatcher/services/cache"
	"uzdeals/dealwatcher/services/notifier"
)

const migrationsDir = "migrations/postgres"

func main() {
	// Load environment variables
	godotenv.Load()

	// Initialize logger first
	logger.Init()
	log := logger.Default

	// Load and validate configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	log.Info().
		Str("environment", cfg.Environment).
		Dur("check_interval", cfg.CheckInterval).
		Str("base_currency", cfg.BaseCurrency).
		Msg("Starting application")

	// Set up context with cancellation
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Set up signal handling
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)

	// Open the store and apply pending migrations
	st, err := store.Open(cfg.DatabaseURL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to database")
	}
	defer st.Close()
	if err := st.Migrate(migrationsDir); err != nil {
		log.Fatal().Err(err).Msg("Failed to apply migrations")
	}
	log.Info().Msg("Database ready")

	converter := currency.NewConverter(cfg.BaseCurrency, cfg.ExchangeRates())

	// Optional memcache-backed host cooldowns
	var cooldowns cache.CacheService
	if cfg.MemcacheAddr != "" {
		cooldowns = cache.NewMemcacheService(cfg.MemcacheAddr)
		logger.Info("Connected to Memcache at %s", cfg.MemcacheAddr)
	}

	// Optional scraping gateway
	var gateway *fetcher.Gateway
	if cfg.ScraperAPIKey != "" {
		gateway = fetcher.NewGateway(cfg.ScraperAPIEndpoint, cfg.ScraperAPIKey, cfg.UserAgent, cfg.FetchTimeout)
		log.Info().Str("endpoint", cfg.ScraperAPIEndpoint).Msg("Fetching through scraping gateway")
	}

	pageFetcher := fetcher.NewFetcher(fetcher.Options{
		UserAgent:      cfg.UserAgent,
		AcceptLanguage: cfg.AcceptLanguage,
		Timeout:        cfg.FetchTimeout,
		Gateway:        gateway,
		Cache:          cooldowns,
		HostCooldown:   cfg.HostCooldown,
	})
	pageExtractor := extractor.New(cfg.BaseCurrency)

	// Telegram connection shared by the command front end and the notifier
	botAPI, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to connect to Telegram")
	}
	log.Info().Str("username", botAPI.Self.UserName).Msg("Connected to Telegram")

	alerts := buildNotifier(&cfg, botAPI, converter)
	defer alerts.Close()

	sellRule := pricing.SellRule{
		Markup: cfg.SellMarkup,
		Add:    cfg.SellAdd,
		Step:   cfg.SellRound,
	}
	sched := scheduler.New(st, pageFetcher, pageExtractor, converter, alerts, scheduler.Options{
		Interval:       cfg.CheckInterval,
		ItemDelay:      cfg.ItemDelay,
		MinDiscountPct: cfg.MinDiscountPct,
		SellRule:       sellRule,
		AutoSellPrice:  cfg.AutoUpdateSellOnAlert,
	})

	var resolver *linkutil.Resolver
	if cfg.ResolveRedirects {
		resolver = linkutil.NewResolver(cfg.FetchTimeout, cfg.UserAgent)
	}
	front := bot.New(bot.Options{
		API:       botAPI,
		Store:     st,
		Scheduler: sched,
		Fetcher:   pageFetcher,
		Extractor: pageExtractor,
		Converter: converter,
		Resolver:  resolver,
		SellRule:  sellRule,
		AdminID:   cfg.AdminID,
	})

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		sched.Start(ctx)
	}()
	go func() {
		defer wg.Done()
		front.Run(ctx)
	}()

	sig := <-sigChan
	log.Info().
		Str("signal", sig.String()).
		Msg("Received shutdown signal")
	cancel()
	wg.Wait()

	// Graceful shutdown
	log.Info().Msg("Shutting down gracefully...")
}

// buildNotifier assembles the alert fan-out from the configured
// destinations. The admin chat is always included.
func buildNotifier(cfg *config.Config, botAPI *tgbotapi.BotAPI, converter *currency.Converter) *notifier.Multi {
	log := logger.ForNotifier()
	var sinks []notifier.Notifier

	if cfg.AdminID != 0 {
		sinks = append(sinks, notifier.NewTelegram(botAPI, cfg.AdminID, converter, "USD"))
	}

	if cfg.AutoPostToChannel && cfg.ChannelID != "" {
		channelID, err := strconv.ParseInt(cfg.ChannelID, 10, 64)
		if err != nil {
			log.Warn().Str("channel_id", cfg.ChannelID).Msg("CHANNEL_ID must be a numeric chat id, channel posting disabled")
		} else {
			sinks = append(sinks, notifier.NewTelegram(botAPI, channelID, converter, "USD"))
		}
	}

	if cfg.RedisAddr != "" {
		sinks = append(sinks, notifier.NewRedisStream(
			cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream, int64(cfg.RedisStreamMaxLength)))
		logger.Info("Publishing alerts to Redis at %s (DB: %d, Stream: %s)",
			cfg.RedisAddr, cfg.RedisDB, cfg.RedisStream)
	}

	if len(sinks) == 0 {
		log.Warn().Msg("No alert destinations configured, alerts will only be logged")
	}
	return notifier.NewMulti(sinks...)
}
