// Package pipeline wires one fetch, detect and persist cycle.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"SentimentWatch/internal/collector"
	"SentimentWatch/internal/detector"
	"SentimentWatch/internal/model"
	"SentimentWatch/internal/recorder"
)

// ErrNoData is returned when every source in a cycle failed.
var ErrNoData = errors.New("no source produced data")

const recentLimit = 50

// Alerter delivers change events to a human.
type Alerter interface {
	Alert(ctx context.Context, events []model.SignalChangeEvent) error
}

// Metrics is the subset of metrics.Recorder the pipeline reports to.
type Metrics interface {
	RecordCycle(result string, d time.Duration)
	RecordFetch(source, status string)
	RecordChange(importance string)
	RecordCorrections(source string, n int)
	RecordBuyPercentage(source, instrument string, v float64)
}

type nopMetrics struct{}

func (nopMetrics) RecordCycle(string, time.Duration)           {}
func (nopMetrics) RecordFetch(string, string)                  {}
func (nopMetrics) RecordChange(string)                         {}
func (nopMetrics) RecordCorrections(string, int)               {}
func (nopMetrics) RecordBuyPercentage(string, string, float64) {}

// Deps are the collaborators of a Pipeline. Recorder, Alerter and Metrics
// are optional.
type Deps struct {
	Collector     *collector.Collector
	Detector      *detector.Detector
	Recorder      recorder.Recorder
	Alerter       Alerter
	Metrics       Metrics
	MinImportance model.Importance
}

// Pipeline runs collection cycles and keeps a small in-memory view of the
// latest results for status queries.
type Pipeline struct {
	deps Deps
	log  *logrus.Entry

	mu      sync.Mutex
	recent  []model.SignalChangeEvent
	latest  map[string]model.CurrencyPairData
	lastRun *recorder.RunReport
}

func New(deps Deps) *Pipeline {
	if deps.Recorder == nil {
		deps.Recorder = recorder.NewNoopRecorder()
	}
	if deps.Metrics == nil {
		deps.Metrics = nopMetrics{}
	}
	if deps.MinImportance == "" {
		deps.MinImportance = model.ImportanceHigh
	}
	return &Pipeline{
		deps:   deps,
		log:    logrus.WithField("component", "pipeline"),
		latest: make(map[string]model.CurrencyPairData),
	}
}

// Run executes one cycle. Only live records reach the detector and the
// sentiment sinks; fallback and placeholder batches appear in the run report
// only. Persistence and alert failures are returned joined but do not cut
// the cycle short.
func (p *Pipeline) Run(ctx context.Context) error {
	runID := uuid.NewString()
	started := time.Now()
	log := p.log.WithField("run_id", runID)
	log.Info("cycle started")

	res := p.deps.Collector.Collect(ctx)

	var errs []error
	failed := 0
	for _, r := range res.Reports {
		p.deps.Metrics.RecordFetch(r.Source, string(r.Status))
		if r.Status == collector.StatusFailed {
			failed++
		}
	}
	if len(res.Reports) > 0 && failed == len(res.Reports) {
		errs = append(errs, ErrNoData)
	}
	for _, b := range res.Batches {
		p.deps.Metrics.RecordCorrections(b.Source, b.Corrections)
	}

	// State is kept per source: the same instrument reported by two sources
	// on different scales is two independent series.
	live := res.LiveRecords()
	var events []model.SignalChangeEvent
	for _, b := range res.Batches {
		if !b.Live() {
			continue
		}
		evs, err := p.deps.Detector.ObserveSource(ctx, b.Source, b.Records)
		events = append(events, evs...)
		if err != nil {
			errs = append(errs, fmt.Errorf("detect %s: %w", b.Source, err))
		}
	}

	if err := p.deps.Recorder.RecordSentiment(live); err != nil {
		errs = append(errs, fmt.Errorf("record sentiment: %w", err))
	}
	if err := p.deps.Recorder.RecordChanges(events); err != nil {
		errs = append(errs, fmt.Errorf("record changes: %w", err))
	}

	for _, b := range res.Batches {
		if !b.Live() {
			continue
		}
		for _, rec := range b.Records {
			p.deps.Metrics.RecordBuyPercentage(b.Source, rec.Instrument, rec.BuyPercentage)
		}
	}
	for _, ev := range events {
		p.deps.Metrics.RecordChange(string(ev.Importance))
	}

	if alerts := p.filter(events); len(alerts) > 0 && p.deps.Alerter != nil {
		if err := p.deps.Alerter.Alert(ctx, alerts); err != nil {
			errs = append(errs, fmt.Errorf("alert: %w", err))
		}
	}

	report := &recorder.RunReport{
		RunID:      runID,
		StartedAt:  started,
		FinishedAt: time.Now(),
		Records:    len(live),
		Changes:    len(events),
	}
	for _, r := range res.Reports {
		report.Sources = append(report.Sources, recorder.SourceRun{
			Source:     r.Source,
			Status:     string(r.Status),
			Confidence: string(r.Confidence),
			Records:    r.Records,
			Note:       r.Note,
		})
	}
	if joined := errors.Join(errs...); joined != nil {
		report.Error = joined.Error()
	}
	if err := p.deps.Recorder.RecordRun(report); err != nil {
		errs = append(errs, fmt.Errorf("record run: %w", err))
	}

	p.remember(report, res.Batches, events)

	err := errors.Join(errs...)
	result := "ok"
	if err != nil {
		result = "error"
	}
	p.deps.Metrics.RecordCycle(result, time.Since(started))

	log.WithFields(logrus.Fields{
		"records":  len(live),
		"changes":  len(events),
		"failed":   failed,
		"duration": time.Since(started).Round(time.Millisecond),
	}).Info("cycle finished")
	return err
}

func (p *Pipeline) filter(events []model.SignalChangeEvent) []model.SignalChangeEvent {
	var out []model.SignalChangeEvent
	for _, ev := range events {
		if ev.Importance.AtLeast(p.deps.MinImportance) {
			out = append(out, ev)
		}
	}
	return out
}

func (p *Pipeline) remember(report *recorder.RunReport, batches []collector.Batch, events []model.SignalChangeEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.lastRun = report
	for _, b := range batches {
		if !b.Live() {
			continue
		}
		for _, rec := range b.Records {
			p.latest[detector.Key(b.Source, rec.Instrument)] = rec
		}
	}
	p.recent = append(p.recent, events...)
	if over := len(p.recent) - recentLimit; over > 0 {
		p.recent = append([]model.SignalChangeEvent(nil), p.recent[over:]...)
	}
}

// RecentChanges returns up to n remembered events, newest first.
func (p *Pipeline) RecentChanges(n int) []model.SignalChangeEvent {
	p.mu.Lock()
	defer p.mu.Unlock()

	if n <= 0 || n > len(p.recent) {
		n = len(p.recent)
	}
	res := make([]model.SignalChangeEvent, 0, n)
	for i := len(p.recent) - 1; i >= 0 && len(res) < n; i-- {
		res = append(res, p.recent[i])
	}
	return res
}

// Latest returns the last live record of every source and instrument,
// ordered by source then instrument.
func (p *Pipeline) Latest() []model.CurrencyPairData {
	p.mu.Lock()
	defer p.mu.Unlock()

	keys := make([]string, 0, len(p.latest))
	for k := range p.latest {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]model.CurrencyPairData, 0, len(keys))
	for _, k := range keys {
		out = append(out, p.latest[k])
	}
	return out
}

// LastRun returns the report of the most recent cycle, or nil.
func (p *Pipeline) LastRun() *recorder.RunReport {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.lastRun == nil {
		return nil
	}
	r := *p.lastRun
	return &r
}
