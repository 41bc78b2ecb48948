package store

import (
	"context"
	"errors"
	"time"

	"uzdeals/dealwatcher/internal/watch"
)

// ErrNotFound is returned when no watch item matches the given id
var ErrNotFound = errors.New("watch item not found")

// ErrUnknownField is returned by SetField for a column outside the
// editable whitelist
var ErrUnknownField = errors.New("field is not editable")

// ObservedState carries everything one poll cycle learns about an item.
// A nil Price means the page yielded no price this cycle and clears the
// stored last_price; fetch failures never reach this struct, so a frozen
// last_price survives them.
type ObservedState struct {
	Price     *float64
	Currency  string
	Title     *string
	ImageURL  *string
	SellPrice *float64
	CheckedAt time.Time
}

// Store is the durable record of monitored items
type Store interface {
	// Insert creates a watch item, or refreshes the existing row when the
	// canonical URL is already tracked. Returns the item id.
	Insert(ctx context.Context, item *watch.Item) (int64, error)

	// GetItem returns one item by id, ErrNotFound when absent
	GetItem(ctx context.Context, id int64) (*watch.Item, error)

	// GetActiveItems returns all items eligible for polling
	GetActiveItems(ctx context.Context) ([]watch.Item, error)

	// List returns recent items, optionally filtered by category
	List(ctx context.Context, category string, limit int) ([]watch.Item, error)

	// UpsertObservedState records the outcome of a successful fetch
	UpsertObservedState(ctx context.Context, id int64, state ObservedState) error

	// TouchChecked records a poll attempt that produced no observation
	TouchChecked(ctx context.Context, id int64, checkedAt time.Time) error

	// ClaimAlert atomically sets last_alert_price to price iff no alert
	// was sent yet or the previous alert price differs by more than the
	// tolerance. Returns true when this caller won the claim and must
	// emit the alert.
	ClaimAlert(ctx context.Context, id int64, price, tolerance float64) (bool, error)

	// SetField updates one editable field (sell_price, category,
	// trigger_price, active, title)
	SetField(ctx context.Context, id int64, field string, value interface{}) error

	// Delete removes an item permanently
	Delete(ctx context.Context, id int64) error

	// Close releases the underlying connection pool
	Close() error
}
