package bot

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"uzdeals/dealwatcher/internal/linkutil"
	"uzdeals/dealwatcher/internal/store"
	"uzdeals/dealwatcher/internal/watch"
	errs "uzdeals/dealwatcher/pkg/errors"
)

const helpText = `<b>Deal watcher commands</b>

/add &lt;url&gt; &lt;trigger&gt; [sell] [category] - watch a product
/list [category] - recent items
/item &lt;id&gt; - item details
/check &lt;id&gt; - poll one item now
/checkall - poll everything now
/sell &lt;id&gt; [price] - set the sell price
/cat &lt;id&gt; [name] - set the category
/del &lt;id&gt; - stop watching`

// listLimit caps /list output to keep replies within Telegram's message size
const listLimit = 25

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	args := strings.Fields(msg.CommandArguments())

	switch msg.Command() {
	case "start", "help":
		b.reply(msg.Chat.ID, helpText)
	case "add":
		b.handleAdd(ctx, msg.Chat.ID, args)
	case "list":
		b.handleList(ctx, msg.Chat.ID, args)
	case "item":
		b.handleItem(ctx, msg.Chat.ID, args)
	case "check":
		b.handleCheck(ctx, msg.Chat.ID, args)
	case "checkall":
		b.handleCheckAll(ctx, msg.Chat.ID)
	case "sell":
		b.handleFieldEdit(ctx, msg, args, "sell_price", "Send the new sell price.")
	case "cat":
		b.handleFieldEdit(ctx, msg, args, "category", "Send the new category name.")
	case "del":
		b.handleDelete(ctx, msg.Chat.ID, args)
	default:
		b.reply(msg.Chat.ID, "Unknown command. /help lists what I understand.")
	}
}

func (b *Bot) handleAdd(ctx context.Context, chatID int64, args []string) {
	if len(args) < 2 {
		b.reply(chatID, "Usage: /add &lt;url&gt; &lt;trigger&gt; [sell] [category]")
		return
	}

	trigger, err := strconv.ParseFloat(args[1], 64)
	if err != nil || trigger <= 0 {
		b.reply(chatID, "The trigger price must be a positive number.")
		return
	}

	item := &watch.Item{
		OriginalURL:  args[0],
		Currency:     b.converter.Base(),
		TriggerPrice: trigger,
		Active:       true,
	}
	if len(args) >= 3 {
		sell, err := strconv.ParseFloat(args[2], 64)
		if err != nil || sell <= 0 {
			b.reply(chatID, "The sell price must be a positive number.")
			return
		}
		item.SellPrice = &sell
	}
	if len(args) >= 4 {
		category := normalizeCategory(strings.Join(args[3:], " "))
		item.Category = &category
	}

	canonical, err := linkutil.Canonical(ctx, args[0], b.resolver)
	if err != nil {
		b.reply(chatID, "That does not look like a product link: "+html.EscapeString(err.Error()))
		return
	}
	item.URL = canonical

	// First observation happens inline so the reply can confirm what
	// the page currently says.
	if body, err := b.fetcher.Fetch(ctx, canonical); err == nil {
		obs := b.extractor.Extract(body)
		item.Title = obs.Title
		item.ImageURL = obs.ImageURL
		if obs.Price != nil {
			price := *obs.Price
			if obs.Currency != nil && *obs.Currency != "" {
				price = b.converter.ToBase(price, *obs.Currency)
			}
			item.LastPrice = &price
			now := time.Now()
			item.LastCheckedAt = &now
		}
	} else {
		b.log.Warn().Err(err).Str("url", canonical).Msg("Initial fetch failed, adding item anyway")
	}

	// An omitted sell price defaults to the computed one once a price
	// is known.
	if item.SellPrice == nil && item.LastPrice != nil && b.sellRule.Markup > 0 {
		sell := b.sellRule.Price(*item.LastPrice)
		item.SellPrice = &sell
	}

	id, err := b.store.Insert(ctx, item)
	if err != nil {
		b.log.Error().Err(err).Str("url", canonical).Msg("Failed to insert watch item")
		b.reply(chatID, "Could not save the item, try again later.")
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Watching <b>#%d</b>", id)
	if item.Title != nil {
		fmt.Fprintf(&sb, " %s", html.EscapeString(*item.Title))
	}
	fmt.Fprintf(&sb, "\nTrigger: %.2f %s", item.TriggerPrice, item.Currency)
	if item.SellPrice != nil {
		fmt.Fprintf(&sb, "\nSell at: %.2f %s", *item.SellPrice, item.Currency)
	}
	if item.LastPrice != nil {
		fmt.Fprintf(&sb, "\nCurrent price: %.2f %s", *item.LastPrice, item.Currency)
	} else {
		sb.WriteString("\nNo price found yet, the next cycle will retry.")
	}
	b.reply(chatID, sb.String())
}

func (b *Bot) handleList(ctx context.Context, chatID int64, args []string) {
	category := ""
	if len(args) > 0 {
		category = normalizeCategory(args[0])
	}

	items, err := b.store.List(ctx, category, listLimit)
	if err != nil {
		b.log.Error().Err(err).Msg("Failed to list watch items")
		b.reply(chatID, "Could not load the list, try again later.")
		return
	}
	if len(items) == 0 {
		b.reply(chatID, "Nothing is being watched yet. /add a link to start.")
		return
	}

	var sb strings.Builder
	for _, item := range items {
		fmt.Fprintf(&sb, "<b>#%d</b> %s\n", item.ID, html.EscapeString(itemLabel(&item)))
		fmt.Fprintf(&sb, "    %s / trigger %.2f %s\n",
			priceLabel(item.LastPrice), item.TriggerPrice, item.Currency)
	}
	b.reply(chatID, strings.TrimRight(sb.String(), "\n"))
}

func (b *Bot) handleItem(ctx context.Context, chatID int64, args []string) {
	id, ok := b.parseID(chatID, args)
	if !ok {
		return
	}
	item, err := b.store.GetItem(ctx, id)
	if err != nil {
		b.replyStoreError(chatID, err)
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>#%d %s</b>\n", item.ID, html.EscapeString(itemLabel(item)))
	fmt.Fprintf(&sb, "%s\n\n", item.URL)
	fmt.Fprintf(&sb, "Price: %s %s\n", priceLabel(item.LastPrice), item.Currency)
	fmt.Fprintf(&sb, "Trigger: %.2f %s\n", item.TriggerPrice, item.Currency)
	if item.SellPrice != nil {
		fmt.Fprintf(&sb, "Sell at: %.2f %s\n", *item.SellPrice, item.Currency)
	}
	if item.Category != nil {
		fmt.Fprintf(&sb, "Category: %s\n", html.EscapeString(*item.Category))
	}
	if item.LastAlertPrice != nil {
		fmt.Fprintf(&sb, "Last alert at: %.2f %s\n", *item.LastAlertPrice, item.Currency)
	}
	if item.LastCheckedAt != nil {
		fmt.Fprintf(&sb, "Checked: %s\n", item.LastCheckedAt.Format(time.RFC3339))
	}
	b.reply(chatID, strings.TrimRight(sb.String(), "\n"))
}

func (b *Bot) handleCheck(ctx context.Context, chatID int64, args []string) {
	id, ok := b.parseID(chatID, args)
	if !ok {
		return
	}
	result, err := b.sched.CheckItem(ctx, id)
	if err != nil {
		b.replyStoreError(chatID, err)
		return
	}
	b.reply(chatID, html.EscapeString(result.Summary()))
}

func (b *Bot) handleCheckAll(ctx context.Context, chatID int64) {
	b.reply(chatID, "Checking every active item, this can take a while.")
	results := b.sched.CheckAll(ctx)
	if len(results) == 0 {
		b.reply(chatID, "No active items to check.")
		return
	}

	var sb strings.Builder
	for _, r := range results {
		sb.WriteString(html.EscapeString(r.Summary()))
		sb.WriteString("\n")
	}
	b.reply(chatID, strings.TrimRight(sb.String(), "\n"))
}

func (b *Bot) handleFieldEdit(ctx context.Context, msg *tgbotapi.Message, args []string, field, prompt string) {
	id, ok := b.parseID(msg.Chat.ID, args)
	if !ok {
		return
	}
	if _, err := b.store.GetItem(ctx, id); err != nil {
		b.replyStoreError(msg.Chat.ID, err)
		return
	}

	if len(args) < 2 {
		// No value supplied: remember the edit and wait for the next
		// plain message from this user.
		b.sessions.Put(msg.From.ID, id, field)
		b.reply(msg.Chat.ID, prompt)
		return
	}

	b.applyFieldEdit(ctx, msg.Chat.ID, id, field, strings.Join(args[1:], " "))
}

func (b *Bot) handleText(ctx context.Context, msg *tgbotapi.Message) {
	edit, ok := b.sessions.Take(msg.From.ID)
	if !ok {
		b.reply(msg.Chat.ID, "Send a command, /help lists what I understand.")
		return
	}
	b.applyFieldEdit(ctx, msg.Chat.ID, edit.itemID, edit.field, strings.TrimSpace(msg.Text))
}

func (b *Bot) applyFieldEdit(ctx context.Context, chatID, id int64, field, raw string) {
	var value interface{}
	switch field {
	case "sell_price":
		price, err := strconv.ParseFloat(raw, 64)
		if err != nil || price <= 0 {
			b.reply(chatID, "The sell price must be a positive number.")
			return
		}
		value = price
	case "category":
		value = normalizeCategory(raw)
	default:
		value = raw
	}

	if err := b.store.SetField(ctx, id, field, value); err != nil {
		b.replyStoreError(chatID, err)
		return
	}
	b.reply(chatID, fmt.Sprintf("Item #%d updated.", id))
}

func (b *Bot) handleDelete(ctx context.Context, chatID int64, args []string) {
	id, ok := b.parseID(chatID, args)
	if !ok {
		return
	}
	if err := b.store.Delete(ctx, id); err != nil {
		b.replyStoreError(chatID, err)
		return
	}
	b.reply(chatID, fmt.Sprintf("Item #%d removed.", id))
}

func (b *Bot) parseID(chatID int64, args []string) (int64, bool) {
	if len(args) == 0 {
		b.reply(chatID, "An item id is required, see /list.")
		return 0, false
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(args[0], "#"), 10, 64)
	if err != nil || id <= 0 {
		b.reply(chatID, "Item ids are positive numbers, see /list.")
		return 0, false
	}
	return id, true
}

func (b *Bot) replyStoreError(chatID int64, err error) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		b.reply(chatID, "No item with that id, see /list.")
	case errors.Is(err, store.ErrUnknownField):
		b.reply(chatID, "That field cannot be edited.")
	case errs.IsType(err, errs.ErrorTypeInvalidURL):
		b.reply(chatID, "That does not look like a product link.")
	default:
		b.log.Error().Err(err).Msg("Command failed")
		b.reply(chatID, "Something went wrong, try again later.")
	}
}

// maxCategoryLen keeps category labels short enough for list rows
const maxCategoryLen = 24

func normalizeCategory(raw string) string {
	category := strings.ToUpper(strings.TrimSpace(raw))
	runes := []rune(category)
	if len(runes) > maxCategoryLen {
		category = string(runes[:maxCategoryLen])
	}
	return category
}

func itemLabel(item *watch.Item) string {
	if item.Title != nil && *item.Title != "" {
		return *item.Title
	}
	return item.URL
}

func priceLabel(price *float64) string {
	if price == nil {
		return "no price"
	}
	return fmt.Sprintf("%.2f", *price)
}
