// Package detector turns consecutive observations of an instrument into
// signal change events.
package detector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"SentimentWatch/internal/model"
)

// Detector compares each new record with the last known state of its
// instrument. Observe is serialised, so concurrent callers cannot interleave
// a read and write for the same instrument.
type Detector struct {
	mu    sync.Mutex
	store Store
	now   func() time.Time
	log   *logrus.Entry
}

// New creates a Detector owning store.
func New(store Store) *Detector {
	return &Detector{
		store: store,
		now:   time.Now,
		log:   logrus.WithField("component", "detector"),
	}
}

// WithClock overrides the time source used to stamp events.
func (d *Detector) WithClock(now func() time.Time) *Detector {
	d.now = now
	return d
}

// Observe records rec and returns an event if its signal differs from the
// previous observation of the same instrument. The first observation only
// stores state.
func (d *Detector) Observe(ctx context.Context, rec model.CurrencyPairData) (*model.SignalChangeEvent, error) {
	return d.observe(ctx, rec.Instrument, rec)
}

// Key scopes an instrument's state to the source that produced it. Two
// sources reporting the same instrument on different scales never share state.
func Key(source, instrument string) string {
	if source == "" {
		return instrument
	}
	return source + ":" + instrument
}

func (d *Detector) observe(ctx context.Context, key string, rec model.CurrencyPairData) (*model.SignalChangeEvent, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	prev, seen, err := d.store.Get(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("load state: %w", err)
	}

	next := State{Signal: rec.Signal, BuyPercentage: rec.BuyPercentage}

	if !seen || prev.Signal == rec.Signal {
		if err := d.store.Put(ctx, key, next); err != nil {
			return nil, fmt.Errorf("store state: %w", err)
		}
		return nil, nil
	}

	ev := model.NewSignalChangeEvent(rec.Instrument, prev.Signal, rec.Signal, d.now(), prev.BuyPercentage, rec.BuyPercentage)
	if err := d.store.Put(ctx, key, next); err != nil {
		return nil, fmt.Errorf("store state: %w", err)
	}
	d.log.WithFields(logrus.Fields{
		"instrument": ev.Instrument,
		"from":       ev.FromSignal,
		"to":         ev.ToSignal,
		"importance": ev.Importance,
	}).Info("signal change detected")
	return &ev, nil
}

// ObserveAll observes records in order and returns the events produced.
// It stops at the first store error.
func (d *Detector) ObserveAll(ctx context.Context, records []model.CurrencyPairData) ([]model.SignalChangeEvent, error) {
	return d.ObserveSource(ctx, "", records)
}

// ObserveSource is ObserveAll with state keyed by Key(source, instrument).
func (d *Detector) ObserveSource(ctx context.Context, source string, records []model.CurrencyPairData) ([]model.SignalChangeEvent, error) {
	var events []model.SignalChangeEvent
	for _, rec := range records {
		ev, err := d.observe(ctx, Key(source, rec.Instrument), rec)
		if err != nil {
			return events, fmt.Errorf("%s: %w", rec.Instrument, err)
		}
		if ev != nil {
			events = append(events, *ev)
		}
	}
	return events, nil
}
