package notifier

import (
	"context"

	"uzdeals/dealwatcher/internal/watch"
	"uzdeals/dealwatcher/logger"
)

// Notifier represents one alert delivery destination
type Notifier interface {
	// Notify delivers a single alert
	Notify(ctx context.Context, alert watch.Alert) error

	// Close releases the underlying connection
	Close() error
}

// Multi fans an alert out to several destinations. Delivery is
// best-effort per destination; one failing sink never blocks the rest.
type Multi struct {
	sinks []Notifier
	log   *logger.Logger
}

// NewMulti creates a fan-out notifier
func NewMulti(sinks ...Notifier) *Multi {
	return &Multi{
		sinks: sinks,
		log:   logger.ForNotifier(),
	}
}

// Notify delivers the alert to every sink. The returned error is the
// first failure, after all sinks were attempted.
func (m *Multi) Notify(ctx context.Context, alert watch.Alert) error {
	var firstErr error
	for _, sink := range m.sinks {
		if err := sink.Notify(ctx, alert); err != nil {
			m.log.Error().
				Err(err).
				Int64("item_id", alert.ItemID).
				Msg("Alert delivery failed for one destination")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// Close closes every sink, returning the first error encountered
func (m *Multi) Close() error {
	var firstErr error
	for _, sink := range m.sinks {
		if err := sink.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
