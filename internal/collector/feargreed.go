package collector

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"SentimentWatch/internal/model"
)

const (
	fearGreedAnchor = `"fear_and_greed"`
	// fearGreedWindow bounds how far past the anchor score and rating are searched.
	fearGreedWindow = 400
)

var (
	scorePattern  = regexp.MustCompile(`"score"\s*:\s*(-?\d+(?:\.\d+)?)`)
	ratingPattern = regexp.MustCompile(`"rating"\s*:\s*"([^"]*)"`)
)

// FearGreedOptions configures a FearGreedSource.
type FearGreedOptions struct {
	Endpoint   string
	Instrument string
	UserAgent  string
	Timeout    time.Duration
	Proxy      string
}

// Reading is the raw index value behind a fear & greed record.
type Reading struct {
	Score    float64
	Rating   string
	Fallback bool
	Reason   string
}

// FearGreedSource reads a 0-100 fear & greed index and folds it into the
// shared CurrencyPairData entity.
//
// Modeling decision: the index is not a positioning percentage. It is stored
// as buy = 100 - index, sell = index, so that "greed" reads like a crowded
// long book and "fear" like a crowded short book, and it is classified with
// its own 45/55 thresholds. This is the only place the two scales meet.
type FearGreedSource struct {
	opts   FearGreedOptions
	client *resty.Client
	now    func() time.Time
	log    *logrus.Entry
}

func NewFearGreedSource(opts FearGreedOptions) *FearGreedSource {
	if opts.Timeout <= 0 {
		opts.Timeout = 15 * time.Second
	}
	if opts.Instrument == "" {
		opts.Instrument = "BTC/USD"
	}
	client := newHTTPClient(opts.Timeout, opts.UserAgent, opts.Proxy).
		SetHeader("Accept", "application/json")
	return &FearGreedSource{
		opts:   opts,
		client: client,
		now:    time.Now,
		log:    logrus.WithField("source", "fear_greed"),
	}
}

func (s *FearGreedSource) Name() string { return "fear_greed" }

// Fetch never returns an error: failures become a ConfidenceFallback batch.
func (s *FearGreedSource) Fetch(ctx context.Context) (Batch, error) {
	rec, reading := s.FetchRecord(ctx)
	b := Batch{
		Source:     s.Name(),
		Records:    []model.CurrencyPairData{rec},
		Confidence: ConfidenceLive,
		Note:       fmt.Sprintf("score=%.1f rating=%s", reading.Score, reading.Rating),
		FetchedAt:  rec.Timestamp,
	}
	if reading.Fallback {
		b.Confidence = ConfidenceFallback
		b.Note = reading.Reason
	}
	return b, nil
}

// FetchRecord returns the index as a record. On any failure it returns the
// neutral 50/50 fallback record and a Reading with Fallback set.
func (s *FearGreedSource) FetchRecord(ctx context.Context) (model.CurrencyPairData, Reading) {
	now := s.now()
	url := s.requestURL(now)

	resp, err := s.client.R().SetContext(ctx).Get(url)
	if err != nil {
		return s.fallback(now, fmt.Sprintf("request failed: %v", err))
	}
	if resp.StatusCode() != http.StatusOK {
		return s.fallback(now, fmt.Sprintf("status %d", resp.StatusCode()))
	}

	reading, ok := parseFearGreed(resp.Body())
	if !ok {
		return s.fallback(now, "score not found after anchor")
	}
	if !inPercentRange(reading.Score) {
		return s.fallback(now, fmt.Sprintf("score %.2f out of range", reading.Score))
	}

	v := reading.Score
	rec := model.NewCurrencyPairData(
		s.opts.Instrument,
		model.Round2(100-v),
		model.Round2(v),
		model.SentimentIndexThresholds.Classify(v),
		now,
	)
	s.log.WithFields(logrus.Fields{"score": v, "rating": reading.Rating, "signal": rec.Signal}).Debug("index read")
	return rec, reading
}

// requestURL appends yesterday's date, which tolerates publishing lag.
func (s *FearGreedSource) requestURL(now time.Time) string {
	day := now.AddDate(0, 0, -1).Format("2006-01-02")
	return strings.TrimSuffix(s.opts.Endpoint, "/") + "/" + day
}

func (s *FearGreedSource) fallback(now time.Time, reason string) (model.CurrencyPairData, Reading) {
	s.log.WithField("reason", reason).Warn("fear & greed unavailable, using neutral fallback")
	rec := model.NewCurrencyPairData(s.opts.Instrument, 50, 50, model.SignalNeutral, now)
	return rec, Reading{Score: 50, Fallback: true, Reason: reason}
}

// parseFearGreed locates the anchor object textually and reads score and
// rating from a bounded window after it.
func parseFearGreed(body []byte) (Reading, bool) {
	idx := bytes.Index(body, []byte(fearGreedAnchor))
	if idx < 0 {
		return Reading{}, false
	}
	end := idx + len(fearGreedAnchor) + fearGreedWindow
	if end > len(body) {
		end = len(body)
	}
	window := body[idx:end]

	m := scorePattern.FindSubmatch(window)
	if m == nil {
		return Reading{}, false
	}
	score, err := strconv.ParseFloat(string(m[1]), 64)
	if err != nil {
		return Reading{}, false
	}
	r := Reading{Score: score}
	if rm := ratingPattern.FindSubmatch(window); rm != nil {
		r.Rating = string(rm[1])
	}
	return r, true
}
