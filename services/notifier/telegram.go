package notifier

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"uzdeals/dealwatcher/internal/currency"
	"uzdeals/dealwatcher/internal/watch"
	"uzdeals/dealwatcher/logger"
	errs "uzdeals/dealwatcher/pkg/errors"
)

// messageSender is the slice of the Telegram bot API used for alerts
type messageSender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
}

// Telegram delivers alerts to one Telegram chat. Alerts with a usable
// image URL are sent as a photo with a caption, the rest as a plain
// HTML message. Both carry an inline button opening the product page.
type Telegram struct {
	bot             messageSender
	chatID          int64
	converter       *currency.Converter
	displayCurrency string
	log             *logger.Logger
}

// NewTelegram creates a Telegram notifier for the given chat
func NewTelegram(bot messageSender, chatID int64, conv *currency.Converter, displayCurrency string) *Telegram {
	return &Telegram{
		bot:             bot,
		chatID:          chatID,
		converter:       conv,
		displayCurrency: displayCurrency,
		log:             logger.ForNotifier(),
	}
}

// Notify sends the alert to the configured chat
func (t *Telegram) Notify(ctx context.Context, alert watch.Alert) error {
	caption := buildCaption(alert, t.converter, t.displayCurrency)
	keyboard := tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonURL("Open product", alert.URL),
		),
	)

	if alert.ImageURL != nil && strings.HasPrefix(*alert.ImageURL, "http") {
		photo := tgbotapi.NewPhoto(t.chatID, tgbotapi.FileURL(*alert.ImageURL))
		photo.Caption = caption
		photo.ParseMode = tgbotapi.ModeHTML
		photo.ReplyMarkup = keyboard
		if _, err := t.bot.Send(photo); err == nil {
			return nil
		}
		// Some image URLs are rejected by Telegram; fall back to text
		// so the alert is never lost.
		t.log.Warn().
			Int64("item_id", alert.ItemID).
			Str("image_url", *alert.ImageURL).
			Msg("Photo send failed, falling back to text message")
	}

	msg := tgbotapi.NewMessage(t.chatID, caption)
	msg.ParseMode = tgbotapi.ModeHTML
	msg.ReplyMarkup = keyboard
	msg.DisableWebPagePreview = false
	if _, err := t.bot.Send(msg); err != nil {
		return errs.NewNotification("telegram", err)
	}
	return nil
}

// Close is a no-op; the bot connection is owned by the command front end
func (t *Telegram) Close() error {
	return nil
}
