package bot

import (
	"context"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"uzdeals/dealwatcher/internal/currency"
	"uzdeals/dealwatcher/internal/linkutil"
	"uzdeals/dealwatcher/internal/pricing"
	"uzdeals/dealwatcher/internal/scheduler"
	"uzdeals/dealwatcher/internal/store"
	"uzdeals/dealwatcher/logger"
)

// api is the slice of the Telegram bot API the front end needs
type api interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot is the Telegram command front end for managing watch items
type Bot struct {
	api       api
	store     store.Store
	sched     *scheduler.Scheduler
	fetcher   scheduler.Fetcher
	extractor scheduler.Extractor
	converter *currency.Converter
	resolver  *linkutil.Resolver
	sellRule  pricing.SellRule
	adminID   int64
	sessions  *sessionStore
	log       *logger.Logger
}

// Options wires the bot's collaborators
type Options struct {
	API       api
	Store     store.Store
	Scheduler *scheduler.Scheduler
	Fetcher   scheduler.Fetcher
	Extractor scheduler.Extractor
	Converter *currency.Converter
	Resolver  *linkutil.Resolver
	SellRule  pricing.SellRule
	AdminID   int64
}

// New creates a Bot
func New(opts Options) *Bot {
	return &Bot{
		api:       opts.API,
		store:     opts.Store,
		sched:     opts.Scheduler,
		fetcher:   opts.Fetcher,
		extractor: opts.Extractor,
		converter: opts.Converter,
		resolver:  opts.Resolver,
		sellRule:  opts.SellRule,
		adminID:   opts.AdminID,
		sessions:  newSessionStore(),
		log:       logger.ForBot(),
	}
}

// Run consumes Telegram updates until the context is cancelled
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.api.GetUpdatesChan(u)

	b.log.Info().Msg("Bot started")
	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			b.log.Info().Msg("Bot stopped")
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			b.handleUpdate(ctx, update)
		}
	}
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	msg := update.Message
	if msg == nil || msg.From == nil {
		return
	}
	if !b.authorized(msg.From.ID) {
		b.log.Warn().Int64("user_id", msg.From.ID).Msg("Unauthorized message ignored")
		return
	}

	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}
	b.handleText(ctx, msg)
}

// authorized gates every interaction. An unset admin id leaves the bot
// open, which is only sensible in development.
func (b *Bot) authorized(userID int64) bool {
	return b.adminID == 0 || userID == b.adminID
}

func (b *Bot) reply(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.DisableWebPagePreview = true
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error().Err(err).Int64("chat_id", chatID).Msg("Failed to send reply")
	}
}
