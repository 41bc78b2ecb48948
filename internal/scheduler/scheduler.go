package scheduler

import (
	"context"
	"fmt"
	"strings"
	"time"

	"uzdeals/dealwatcher/internal/currency"
	"uzdeals/dealwatcher/internal/pricing"
	"uzdeals/dealwatcher/internal/store"
	"uzdeals/dealwatcher/internal/watch"
	"uzdeals/dealwatcher/logger"
)

// alertTolerance is the price band within which a repeated observation is
// considered the same alert and suppressed.
const alertTolerance = 0.01

// Fetcher retrieves the decoded page body for a product URL
type Fetcher interface {
	Fetch(ctx context.Context, url string) (string, error)
}

// Extractor pulls a price observation out of a page body
type Extractor interface {
	Extract(html string) watch.Observation
}

// Notifier delivers a triggered alert
type Notifier interface {
	Notify(ctx context.Context, alert watch.Alert) error
}

// Options configures a Scheduler
type Options struct {
	Interval       time.Duration
	ItemDelay      time.Duration
	MinDiscountPct float64
	SellRule       pricing.SellRule
	AutoSellPrice  bool
}

// Scheduler polls every active watch item on a fixed interval and emits
// alerts when the trigger rule fires.
type Scheduler struct {
	store     store.Store
	fetcher   Fetcher
	extractor Extractor
	converter *currency.Converter
	notifier  Notifier
	opts      Options
	log       *logger.Logger
}

// New creates a Scheduler
func New(s store.Store, f Fetcher, e Extractor, c *currency.Converter, n Notifier, opts Options) *Scheduler {
	return &Scheduler{
		store:     s,
		fetcher:   f,
		extractor: e,
		converter: c,
		notifier:  n,
		opts:      opts,
		log:       logger.ForScheduler(),
	}
}

// CheckResult summarizes the outcome of checking one item
type CheckResult struct {
	ItemID  int64
	Title   string
	Price   *float64
	Alerted bool
	Err     error
}

// Summary renders a one-line human readable outcome
func (r CheckResult) Summary() string {
	label := r.Title
	if label == "" {
		label = fmt.Sprintf("item %d", r.ItemID)
	}
	switch {
	case r.Err != nil:
		return fmt.Sprintf("#%d %s: check failed (%v)", r.ItemID, label, r.Err)
	case r.Price == nil:
		return fmt.Sprintf("#%d %s: no price found", r.ItemID, label)
	case r.Alerted:
		return fmt.Sprintf("#%d %s: %.2f, alert sent", r.ItemID, label, *r.Price)
	default:
		return fmt.Sprintf("#%d %s: %.2f", r.ItemID, label, *r.Price)
	}
}

// Start runs polling cycles until the context is cancelled. The first
// cycle runs immediately.
func (s *Scheduler) Start(ctx context.Context) {
	s.log.Info().
		Dur("interval", s.opts.Interval).
		Dur("item_delay", s.opts.ItemDelay).
		Msg("Scheduler started")

	for {
		results := s.CheckAll(ctx)
		s.logCycle(results)

		select {
		case <-ctx.Done():
			s.log.Info().Msg("Scheduler stopped")
			return
		case <-time.After(s.opts.Interval):
		}
	}
}

// CheckAll polls every active item sequentially with a short pause
// between items. One item failing never stops the cycle.
func (s *Scheduler) CheckAll(ctx context.Context) []CheckResult {
	items, err := s.store.GetActiveItems(ctx)
	if err != nil {
		s.log.Error().Err(err).Msg("Failed to load active items")
		return nil
	}

	results := make([]CheckResult, 0, len(items))
	for i, item := range items {
		if ctx.Err() != nil {
			return results
		}
		if i > 0 && s.opts.ItemDelay > 0 {
			select {
			case <-ctx.Done():
				return results
			case <-time.After(s.opts.ItemDelay):
			}
		}
		results = append(results, s.checkItem(ctx, &item))
	}
	return results
}

// CheckItem polls a single item by id
func (s *Scheduler) CheckItem(ctx context.Context, id int64) (CheckResult, error) {
	item, err := s.store.GetItem(ctx, id)
	if err != nil {
		return CheckResult{ItemID: id, Err: err}, err
	}
	return s.checkItem(ctx, item), nil
}

func (s *Scheduler) checkItem(ctx context.Context, item *watch.Item) CheckResult {
	result := CheckResult{ItemID: item.ID}
	if item.Title != nil {
		result.Title = *item.Title
	}
	now := time.Now()

	body, err := s.fetcher.Fetch(ctx, item.URL)
	if err != nil {
		// Fetch failures freeze the last observed price rather than
		// clearing it.
		s.log.Warn().Err(err).Int64("item_id", item.ID).Str("url", item.URL).Msg("Fetch failed")
		if touchErr := s.store.TouchChecked(ctx, item.ID, now); touchErr != nil {
			s.log.Error().Err(touchErr).Int64("item_id", item.ID).Msg("Failed to record check time")
		}
		result.Err = err
		return result
	}

	obs := s.extractor.Extract(body)

	state := store.ObservedState{
		Currency:  item.Currency,
		Title:     obs.Title,
		ImageURL:  obs.ImageURL,
		CheckedAt: now,
	}

	if obs.Price != nil {
		price := *obs.Price
		if obs.Currency != nil && *obs.Currency != "" {
			price = s.converter.ToBase(price, *obs.Currency)
		}
		state.Price = &price
		state.Currency = s.converter.Base()

		if s.opts.AutoSellPrice && item.SellPrice == nil {
			sell := s.opts.SellRule.Price(price)
			state.SellPrice = &sell
		}
	}

	if err := s.store.UpsertObservedState(ctx, item.ID, state); err != nil {
		s.log.Error().Err(err).Int64("item_id", item.ID).Msg("Failed to persist observation")
		result.Err = err
		return result
	}

	if obs.Title != nil {
		result.Title = *obs.Title
	}
	if state.Price == nil {
		s.log.Debug().Int64("item_id", item.ID).Msg("No price on page")
		return result
	}
	result.Price = state.Price

	price := *state.Price
	discount := pricing.PercentDiscount(item.TriggerPrice, price)
	triggered := price <= item.TriggerPrice || discount >= s.opts.MinDiscountPct
	if !triggered {
		return result
	}

	claimed, err := s.store.ClaimAlert(ctx, item.ID, price, alertTolerance)
	if err != nil {
		s.log.Error().Err(err).Int64("item_id", item.ID).Msg("Failed to claim alert")
		result.Err = err
		return result
	}
	if !claimed {
		s.log.Debug().Int64("item_id", item.ID).Float64("price", price).Msg("Alert already sent at this price")
		return result
	}

	alert := s.buildAlert(item, &state, price)
	if err := s.notifier.Notify(ctx, alert); err != nil {
		// The claim stands even when delivery fails, so a flapping
		// notifier cannot spam the same price.
		s.log.Error().Err(err).Int64("item_id", item.ID).Msg("Failed to deliver alert")
	}
	result.Alerted = true

	s.log.Info().
		Int64("item_id", item.ID).
		Float64("price", price).
		Float64("trigger", item.TriggerPrice).
		Float64("discount_pct", discount).
		Msg("Alert triggered")
	return result
}

func (s *Scheduler) buildAlert(item *watch.Item, state *store.ObservedState, price float64) watch.Alert {
	alert := watch.Alert{
		ItemID:        item.ID,
		URL:           item.URL,
		Currency:      s.converter.Base(),
		PreviousPrice: item.LastPrice,
		CurrentPrice:  price,
		TriggerPrice:  item.TriggerPrice,
		Category:      item.Category,
		ImageURL:      item.ImageURL,
	}
	if state.Title != nil {
		alert.Title = *state.Title
	} else if item.Title != nil {
		alert.Title = *item.Title
	}
	if state.ImageURL != nil {
		alert.ImageURL = state.ImageURL
	}
	if state.SellPrice != nil {
		alert.SellPrice = state.SellPrice
	} else if item.SellPrice != nil {
		alert.SellPrice = item.SellPrice
	}
	return alert
}

func (s *Scheduler) logCycle(results []CheckResult) {
	var failed, alerted int
	var lines []string
	for _, r := range results {
		if r.Err != nil {
			failed++
		}
		if r.Alerted {
			alerted++
		}
		lines = append(lines, r.Summary())
	}
	s.log.Info().
		Int("items", len(results)).
		Int("failed", failed).
		Int("alerts", alerted).
		Msg("Cycle finished")
	if len(lines) > 0 {
		s.log.Debug().Msg(strings.Join(lines, "; "))
	}
}
