package collector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"SentimentWatch/internal/model"
)

// StaticSource returns controllable fixed data for development and testing.
// Set Err to simulate a transport failure.
type StaticSource struct {
	SourceName string
	Confidence Confidence

	mu      sync.Mutex
	records []model.CurrencyPairData
	err     error
}

func (m *StaticSource) Name() string {
	if m.SourceName == "" {
		return "static"
	}
	return m.SourceName
}

// Set replaces the records (and error) returned by the next fetches.
func (m *StaticSource) Set(err error, records ...model.CurrencyPairData) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records = records
	m.err = err
}

func (m *StaticSource) Fetch(_ context.Context) (Batch, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return Batch{}, m.err
	}
	conf := m.Confidence
	if conf == "" {
		conf = ConfidenceLive
	}
	return Batch{
		Source:     m.Name(),
		Records:    append([]model.CurrencyPairData(nil), m.records...),
		Confidence: conf,
		FetchedAt:  time.Now(),
	}, nil
}

// SourceStatus summarises one source's part of a cycle.
type SourceStatus string

const (
	StatusOK       SourceStatus = "ok"
	StatusDegraded SourceStatus = "degraded"
	StatusFailed   SourceStatus = "failed"
)

// SourceReport is the per-source outcome persisted with each run.
type SourceReport struct {
	Source     string
	Status     SourceStatus
	Confidence Confidence
	Records    int
	Note       string
	Err        error
	Duration   time.Duration
}

// Result holds everything one collection pass produced.
type Result struct {
	Batches []Batch
	Reports []SourceReport
}

// LiveRecords returns the records of all live batches.
func (r Result) LiveRecords() []model.CurrencyPairData {
	var out []model.CurrencyPairData
	for _, b := range r.Batches {
		if b.Live() {
			out = append(out, b.Records...)
		}
	}
	return out
}

// Collector runs all sources sequentially, isolating their failures.
type Collector struct {
	Sources []Source
	log     *logrus.Entry
}

// NewCollector creates a new Collector.
func NewCollector(sources ...Source) *Collector {
	return &Collector{Sources: sources, log: logrus.WithField("component", "collector")}
}

// Collect fetches every source. A failing source yields a failed report and
// never prevents the remaining sources from running.
func (c *Collector) Collect(ctx context.Context) Result {
	var res Result
	for _, src := range c.Sources {
		start := time.Now()
		batch, err := c.fetch(ctx, src)
		report := SourceReport{Source: src.Name(), Duration: time.Since(start)}

		switch {
		case err != nil:
			report.Status = StatusFailed
			report.Err = err
			report.Note = err.Error()
			c.log.WithError(err).WithField("source", src.Name()).Error("fetch failed")
		case !batch.Live():
			report.Status = StatusDegraded
			report.Confidence = batch.Confidence
			report.Records = len(batch.Records)
			report.Note = batch.Note
			c.log.WithFields(logrus.Fields{
				"source":     src.Name(),
				"confidence": batch.Confidence,
				"note":       batch.Note,
			}).Warn("degraded batch")
		case len(batch.Records) == 0:
			report.Status = StatusDegraded
			report.Confidence = batch.Confidence
			report.Note = batch.Note
			c.log.WithField("source", src.Name()).Warn("source returned no records")
		default:
			report.Status = StatusOK
			report.Confidence = batch.Confidence
			report.Records = len(batch.Records)
			report.Note = batch.Note
		}

		if err == nil {
			res.Batches = append(res.Batches, batch)
		}
		res.Reports = append(res.Reports, report)
	}
	return res
}

func (c *Collector) fetch(ctx context.Context, src Source) (b Batch, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%s: panic during fetch: %v", src.Name(), r)
		}
	}()
	return src.Fetch(ctx)
}
