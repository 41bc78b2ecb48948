package bot

import (
	"context"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"uzdeals/dealwatcher/internal/currency"
	"uzdeals/dealwatcher/internal/store"
	"uzdeals/dealwatcher/internal/watch"
)

// fakeAPI records outgoing messages
type fakeAPI struct {
	sent []tgbotapi.Chattable
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	return tgbotapi.Message{}, nil
}

func (f *fakeAPI) GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel {
	return make(chan tgbotapi.Update)
}

func (f *fakeAPI) StopReceivingUpdates() {}

func (f *fakeAPI) lastText(t *testing.T) string {
	t.Helper()
	require.NotEmpty(t, f.sent)
	msg, ok := f.sent[len(f.sent)-1].(tgbotapi.MessageConfig)
	require.True(t, ok)
	return msg.Text
}

// stubStore covers the handful of Store calls the command tests hit
type stubStore struct {
	store.Store

	items    map[int64]*watch.Item
	setField map[string]interface{}
	deleted  []int64
	inserted []*watch.Item
}

func newStubStore(items ...*watch.Item) *stubStore {
	s := &stubStore{
		items:    make(map[int64]*watch.Item),
		setField: make(map[string]interface{}),
	}
	for _, item := range items {
		s.items[item.ID] = item
	}
	return s
}

func (s *stubStore) GetItem(ctx context.Context, id int64) (*watch.Item, error) {
	item, ok := s.items[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return item, nil
}

func (s *stubStore) List(ctx context.Context, category string, limit int) ([]watch.Item, error) {
	var out []watch.Item
	for _, item := range s.items {
		if category == "" || (item.Category != nil && *item.Category == category) {
			out = append(out, *item)
		}
	}
	return out, nil
}

func (s *stubStore) SetField(ctx context.Context, id int64, field string, value interface{}) error {
	if _, ok := s.items[id]; !ok {
		return store.ErrNotFound
	}
	s.setField[field] = value
	return nil
}

func (s *stubStore) Delete(ctx context.Context, id int64) error {
	if _, ok := s.items[id]; !ok {
		return store.ErrNotFound
	}
	s.deleted = append(s.deleted, id)
	return nil
}

func (s *stubStore) Insert(ctx context.Context, item *watch.Item) (int64, error) {
	s.inserted = append(s.inserted, item)
	return int64(len(s.inserted)), nil
}

func newTestBot(api *fakeAPI, st store.Store) *Bot {
	return New(Options{
		API:       api,
		Store:     st,
		Converter: currency.NewConverter("SAR", nil),
		AdminID:   99,
	})
}

func command(userID, chatID int64, text string) tgbotapi.Update {
	entities := []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(firstWord(text))}}
	return tgbotapi.Update{Message: &tgbotapi.Message{
		From:     &tgbotapi.User{ID: userID},
		Chat:     &tgbotapi.Chat{ID: chatID},
		Text:     text,
		Entities: entities,
	}}
}

func plainText(userID, chatID int64, text string) tgbotapi.Update {
	return tgbotapi.Update{Message: &tgbotapi.Message{
		From: &tgbotapi.User{ID: userID},
		Chat: &tgbotapi.Chat{ID: chatID},
		Text: text,
	}}
}

func firstWord(s string) string {
	for i, r := range s {
		if r == ' ' {
			return s[:i]
		}
	}
	return s
}

func TestUnauthorizedUserIsIgnored(t *testing.T) {
	api := &fakeAPI{}
	b := newTestBot(api, newStubStore())

	b.handleUpdate(context.Background(), command(7, 7, "/list"))
	assert.Empty(t, api.sent)
}

func TestOpenBotWhenNoAdminConfigured(t *testing.T) {
	api := &fakeAPI{}
	b := New(Options{API: api, Store: newStubStore(), Converter: currency.NewConverter("SAR", nil)})

	b.handleUpdate(context.Background(), command(7, 7, "/help"))
	assert.Contains(t, api.lastText(t), "Deal watcher commands")
}

func TestItemCommandRendersDetails(t *testing.T) {
	title := "Cordless Drill"
	price := 111.0
	checked := time.Now()
	api := &fakeAPI{}
	b := newTestBot(api, newStubStore(&watch.Item{
		ID: 5, URL: "https://shop.example/p/5", Title: &title,
		Currency: "SAR", TriggerPrice: 150, LastPrice: &price,
		LastCheckedAt: &checked, Active: true,
	}))

	b.handleUpdate(context.Background(), command(99, 99, "/item 5"))

	text := api.lastText(t)
	assert.Contains(t, text, "Cordless Drill")
	assert.Contains(t, text, "111.00")
	assert.Contains(t, text, "Trigger: 150.00 SAR")
}

func TestItemCommandUnknownID(t *testing.T) {
	api := &fakeAPI{}
	b := newTestBot(api, newStubStore())

	b.handleUpdate(context.Background(), command(99, 99, "/item 404"))
	assert.Contains(t, api.lastText(t), "No item with that id")
}

func TestItemCommandRejectsBadID(t *testing.T) {
	api := &fakeAPI{}
	b := newTestBot(api, newStubStore())

	b.handleUpdate(context.Background(), command(99, 99, "/item soon"))
	assert.Contains(t, api.lastText(t), "positive numbers")
}

func TestSellCommandWithInlineValue(t *testing.T) {
	st := newStubStore(&watch.Item{ID: 5, Currency: "SAR", TriggerPrice: 150, Active: true})
	api := &fakeAPI{}
	b := newTestBot(api, st)

	b.handleUpdate(context.Background(), command(99, 99, "/sell 5 189.99"))

	assert.Equal(t, 189.99, st.setField["sell_price"])
	assert.Contains(t, api.lastText(t), "updated")
}

func TestSellCommandSessionFlow(t *testing.T) {
	st := newStubStore(&watch.Item{ID: 5, Currency: "SAR", TriggerPrice: 150, Active: true})
	api := &fakeAPI{}
	b := newTestBot(api, st)
	ctx := context.Background()

	b.handleUpdate(ctx, command(99, 99, "/sell 5"))
	assert.Contains(t, api.lastText(t), "Send the new sell price")

	b.handleUpdate(ctx, plainText(99, 99, "175"))
	assert.Equal(t, 175.0, st.setField["sell_price"])
}

func TestCategoryIsNormalized(t *testing.T) {
	st := newStubStore(&watch.Item{ID: 5, Currency: "SAR", TriggerPrice: 150, Active: true})
	api := &fakeAPI{}
	b := newTestBot(api, st)

	b.handleUpdate(context.Background(), command(99, 99, "/cat 5 Power Tools"))
	assert.Equal(t, "POWER TOOLS", st.setField["category"])
}

func TestCategoryIsTruncated(t *testing.T) {
	assert.Equal(t, "ABCDEFGHIJKLMNOPQRSTUVWX", normalizeCategory("abcdefghijklmnopqrstuvwxyz"))
}

func TestSellRejectsNonNumericValue(t *testing.T) {
	st := newStubStore(&watch.Item{ID: 5, Currency: "SAR", TriggerPrice: 150, Active: true})
	api := &fakeAPI{}
	b := newTestBot(api, st)

	b.handleUpdate(context.Background(), command(99, 99, "/sell 5 cheap"))
	assert.Contains(t, api.lastText(t), "positive number")
	assert.Empty(t, st.setField)
}

func TestDeleteCommand(t *testing.T) {
	st := newStubStore(&watch.Item{ID: 5, Currency: "SAR", TriggerPrice: 150, Active: true})
	api := &fakeAPI{}
	b := newTestBot(api, st)

	b.handleUpdate(context.Background(), command(99, 99, "/del 5"))
	assert.Equal(t, []int64{5}, st.deleted)
	assert.Contains(t, api.lastText(t), "removed")
}

func TestPlainTextWithoutSession(t *testing.T) {
	api := &fakeAPI{}
	b := newTestBot(api, newStubStore())

	b.handleUpdate(context.Background(), plainText(99, 99, "hello"))
	assert.Contains(t, api.lastText(t), "/help")
}

func TestAddRequiresTrigger(t *testing.T) {
	api := &fakeAPI{}
	b := newTestBot(api, newStubStore())

	b.handleUpdate(context.Background(), command(99, 99, "/add https://shop.example/p/1"))
	assert.Contains(t, api.lastText(t), "Usage")
}

func TestAddRejectsNegativeTrigger(t *testing.T) {
	api := &fakeAPI{}
	b := newTestBot(api, newStubStore())

	b.handleUpdate(context.Background(), command(99, 99, "/add https://shop.example/p/1 -5"))
	assert.Contains(t, api.lastText(t), "positive number")
}
