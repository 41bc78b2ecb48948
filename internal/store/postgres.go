package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"
	_ "github.com/lib/pq"

	"uzdeals/dealwatcher/internal/watch"
)

// Postgres implements Store on a PostgreSQL database
type Postgres struct {
	db *sql.DB
}

// NewPostgres wraps an open database handle
func NewPostgres(db *sql.DB) *Postgres {
	return &Postgres{db: db}
}

// Open connects to the database and verifies the connection
func Open(databaseURL string) (*Postgres, error) {
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return &Postgres{db: db}, nil
}

// Migrate applies pending schema migrations from the given directory
func (p *Postgres) Migrate(migrationsDir string) error {
	driver, err := postgres.WithInstance(p.db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migrate driver: %w", err)
	}
	m, err := migrate.NewWithDatabaseInstance("file://"+migrationsDir, "postgres", driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	if err := m.Up(); err != nil && err != migrate.ErrNoChange {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}
	return nil
}

const itemColumns = `id, url, original_url, title, image_url, currency, trigger_price,
	sell_price, category, last_price, last_alert_price, last_checked_at, active, created_at`

// Insert creates or refreshes a watch item keyed by its canonical URL.
// Two raw links normalizing to the same canonical form land on the same
// row, which is intentional: the same product is tracked once.
func (p *Postgres) Insert(ctx context.Context, item *watch.Item) (int64, error) {
	query := `INSERT INTO watch_items
		(url, original_url, title, image_url, currency, trigger_price, sell_price, category, last_price, last_checked_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (url) DO UPDATE SET
			original_url = EXCLUDED.original_url,
			title = COALESCE(EXCLUDED.title, watch_items.title),
			image_url = COALESCE(EXCLUDED.image_url, watch_items.image_url),
			currency = EXCLUDED.currency,
			trigger_price = EXCLUDED.trigger_price,
			sell_price = COALESCE(EXCLUDED.sell_price, watch_items.sell_price),
			category = COALESCE(EXCLUDED.category, watch_items.category),
			last_price = EXCLUDED.last_price,
			last_checked_at = EXCLUDED.last_checked_at,
			active = TRUE
		RETURNING id`

	var id int64
	err := p.db.QueryRowContext(ctx, query,
		item.URL, item.OriginalURL, item.Title, item.ImageURL, item.Currency,
		item.TriggerPrice, item.SellPrice, item.Category, item.LastPrice, item.LastCheckedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert watch item: %w", err)
	}
	return id, nil
}

// GetItem returns one item by id
func (p *Postgres) GetItem(ctx context.Context, id int64) (*watch.Item, error) {
	row := p.db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM watch_items WHERE id = $1`, id)
	item, err := scanItem(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get watch item: %w", err)
	}
	return item, nil
}

// GetActiveItems returns all items eligible for polling
func (p *Postgres) GetActiveItems(ctx context.Context) ([]watch.Item, error) {
	rows, err := p.db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM watch_items WHERE active ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query active items: %w", err)
	}
	defer rows.Close()
	return collectItems(rows)
}

// List returns recent items, newest first, optionally filtered by category
func (p *Postgres) List(ctx context.Context, category string, limit int) ([]watch.Item, error) {
	var (
		rows *sql.Rows
		err  error
	)
	if category == "" {
		rows, err = p.db.QueryContext(ctx,
			`SELECT `+itemColumns+` FROM watch_items ORDER BY id DESC LIMIT $1`, limit)
	} else {
		rows, err = p.db.QueryContext(ctx,
			`SELECT `+itemColumns+` FROM watch_items WHERE category = $1 ORDER BY id DESC LIMIT $2`,
			category, limit)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to list watch items: %w", err)
	}
	defer rows.Close()
	return collectItems(rows)
}

// UpsertObservedState records the outcome of a successful fetch. A nil
// price clears last_price: the page was read but carried no price.
func (p *Postgres) UpsertObservedState(ctx context.Context, id int64, state ObservedState) error {
	result, err := p.db.ExecContext(ctx,
		`UPDATE watch_items SET
			last_price = $2,
			currency = $3,
			title = COALESCE($4, title),
			image_url = COALESCE($5, image_url),
			sell_price = COALESCE($6, sell_price),
			last_checked_at = $7
		WHERE id = $1`,
		id, state.Price, state.Currency, state.Title, state.ImageURL, state.SellPrice, state.CheckedAt)
	if err != nil {
		return fmt.Errorf("failed to update observed state: %w", err)
	}
	return expectOneRow(result)
}

// TouchChecked records a poll attempt that produced no observation,
// leaving last_price frozen.
func (p *Postgres) TouchChecked(ctx context.Context, id int64, checkedAt time.Time) error {
	result, err := p.db.ExecContext(ctx,
		`UPDATE watch_items SET last_checked_at = $2 WHERE id = $1`, id, checkedAt)
	if err != nil {
		return fmt.Errorf("failed to touch watch item: %w", err)
	}
	return expectOneRow(result)
}

// ClaimAlert performs the read-compare-write of the alert dedup rule in a
// single statement so concurrent cycles cannot double-alert on one item.
func (p *Postgres) ClaimAlert(ctx context.Context, id int64, price, tolerance float64) (bool, error) {
	result, err := p.db.ExecContext(ctx,
		`UPDATE watch_items SET last_alert_price = $2
		WHERE id = $1
		  AND (last_alert_price IS NULL OR abs(last_alert_price - $2) > $3)`,
		id, price, tolerance)
	if err != nil {
		return false, fmt.Errorf("failed to claim alert: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read claim result: %w", err)
	}
	return affected > 0, nil
}

// editableColumns whitelists fields reachable through SetField
var editableColumns = map[string]string{
	"sell_price":    "sell_price",
	"category":      "category",
	"trigger_price": "trigger_price",
	"active":        "active",
	"title":         "title",
}

// SetField updates one editable field
func (p *Postgres) SetField(ctx context.Context, id int64, field string, value interface{}) error {
	column, ok := editableColumns[field]
	if !ok {
		return ErrUnknownField
	}
	result, err := p.db.ExecContext(ctx,
		fmt.Sprintf(`UPDATE watch_items SET %s = $2 WHERE id = $1`, column), id, value)
	if err != nil {
		return fmt.Errorf("failed to set %s: %w", field, err)
	}
	return expectOneRow(result)
}

// Delete removes an item permanently
func (p *Postgres) Delete(ctx context.Context, id int64) error {
	result, err := p.db.ExecContext(ctx, `DELETE FROM watch_items WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete watch item: %w", err)
	}
	return expectOneRow(result)
}

// Close releases the connection pool
func (p *Postgres) Close() error {
	return p.db.Close()
}

func expectOneRow(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to read affected rows: %w", err)
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanItem(row rowScanner) (*watch.Item, error) {
	var (
		item           watch.Item
		title          sql.NullString
		imageURL       sql.NullString
		sellPrice      sql.NullFloat64
		category       sql.NullString
		lastPrice      sql.NullFloat64
		lastAlertPrice sql.NullFloat64
		lastCheckedAt  sql.NullTime
	)

	err := row.Scan(&item.ID, &item.URL, &item.OriginalURL, &title, &imageURL,
		&item.Currency, &item.TriggerPrice, &sellPrice, &category,
		&lastPrice, &lastAlertPrice, &lastCheckedAt, &item.Active, &item.CreatedAt)
	if err != nil {
		return nil, err
	}

	if title.Valid {
		item.Title = &title.String
	}
	if imageURL.Valid {
		item.ImageURL = &imageURL.String
	}
	if sellPrice.Valid {
		item.SellPrice = &sellPrice.Float64
	}
	if category.Valid {
		item.Category = &category.String
	}
	if lastPrice.Valid {
		item.LastPrice = &lastPrice.Float64
	}
	if lastAlertPrice.Valid {
		item.LastAlertPrice = &lastAlertPrice.Float64
	}
	if lastCheckedAt.Valid {
		item.LastCheckedAt = &lastCheckedAt.Time
	}
	return &item, nil
}

func collectItems(rows *sql.Rows) ([]watch.Item, error) {
	var items []watch.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan watch item: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate watch items: %w", err)
	}
	return items, nil
}

var _ Store = (*Postgres)(nil)
