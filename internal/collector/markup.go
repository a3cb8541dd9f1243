package collector

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"

	"SentimentWatch/internal/model"
)

const (
	defaultBuySelector    = ".buy, .long, .ratio-long, [data-side=long]"
	defaultSellSelector   = ".sell, .short, .ratio-short, [data-side=short]"
	instrumentAttr        = "data-symbol"
	signalAttr            = "data-signal"
	markerBuySelector     = ".signal-buy"
	markerSellSelector    = ".signal-sell"
	markerNeutralSelector = ".signal-neutral"
)

// MarkupOptions configures a MarkupSource.
type MarkupOptions struct {
	URL              string
	UserAgent        string
	Timeout          time.Duration
	Proxy            string
	PrimarySelector  string
	FallbackSelector string
	Instruments      []string
	// PlaceholderOnEmpty makes a fetch that extracts nothing return a
	// ConfidencePlaceholder batch instead of an empty live one.
	PlaceholderOnEmpty     bool
	PlaceholderInstruments []string
}

// MarkupSource scrapes a community-outlook style HTML page listing the share
// of retail traders long and short per instrument.
type MarkupSource struct {
	opts   MarkupOptions
	client *resty.Client
	now    func() time.Time
	log    *logrus.Entry
}

// NewMarkupSource creates a scraper; empty selectors and whitelist fall back to defaults.
func NewMarkupSource(opts MarkupOptions) *MarkupSource {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.PrimarySelector == "" {
		opts.PrimarySelector = "#outlookSymbolsTable tbody tr"
	}
	if opts.FallbackSelector == "" {
		opts.FallbackSelector = "tr, li"
	}
	if len(opts.Instruments) == 0 {
		opts.Instruments = DefaultInstruments
	}
	if len(opts.PlaceholderInstruments) == 0 {
		opts.PlaceholderInstruments = []string{"EUR/USD", "GBP/USD", "USD/JPY"}
	}
	return &MarkupSource{
		opts:   opts,
		client: newHTTPClient(opts.Timeout, opts.UserAgent, opts.Proxy),
		now:    time.Now,
		log:    logrus.WithField("source", "markup"),
	}
}

func (s *MarkupSource) Name() string { return "markup" }

// Fetch downloads and parses the page. Only transport failures are returned
// as errors.
func (s *MarkupSource) Fetch(ctx context.Context) (Batch, error) {
	body, err := s.download(ctx)
	if err != nil {
		return Batch{}, err
	}

	now := s.now()
	batch := Batch{Source: s.Name(), Confidence: ConfidenceLive, FetchedAt: now}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		s.log.WithError(err).Warn("unparseable document")
		batch.Note = fmt.Sprintf("unparseable document: %v", err)
	} else {
		batch.Records, batch.Corrections = s.parse(doc, now)
	}

	if len(batch.Records) == 0 {
		if s.opts.PlaceholderOnEmpty {
			return s.placeholder(now), nil
		}
		if batch.Note == "" {
			batch.Note = "no usable rows"
		}
	}
	return batch, nil
}

func (s *MarkupSource) download(ctx context.Context) ([]byte, error) {
	resp, err := s.client.R().SetContext(ctx).Get(s.opts.URL)
	if err != nil {
		return nil, &FetchError{Source: s.Name(), URL: s.opts.URL, Err: err}
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, &FetchError{Source: s.Name(), URL: s.opts.URL, StatusCode: resp.StatusCode()}
	}
	return resp.Body(), nil
}

// parse returns one record per recognised instrument, first row wins.
func (s *MarkupSource) parse(doc *goquery.Document, now time.Time) ([]model.CurrencyPairData, int) {
	rows := doc.Find(s.opts.PrimarySelector)
	if rows.Length() == 0 {
		rows = s.fallbackRows(doc)
		s.log.WithField("rows", rows.Length()).Debug("primary selector matched nothing, using fallback")
	}

	var (
		records     []model.CurrencyPairData
		corrections int
		seen        = make(map[string]bool)
	)
	rows.Each(func(_ int, row *goquery.Selection) {
		rec, ok := s.parseRow(row, now)
		if !ok || seen[rec.Instrument] {
			return
		}
		seen[rec.Instrument] = true
		if rec.EnsureConsistency() {
			corrections++
			s.log.WithFields(logrus.Fields{
				"instrument": rec.Instrument,
				"buy":        rec.BuyPercentage,
				"sell":       rec.SellPercentage,
			}).Warn("percentages do not sum to ~100, sell corrected")
		}
		records = append(records, rec)
	})
	return records, corrections
}

// fallbackRows keeps the innermost candidates only: a layout row wrapping
// several instrument rows would otherwise mix their numbers.
func (s *MarkupSource) fallbackRows(doc *goquery.Document) *goquery.Selection {
	known := func(_ int, sel *goquery.Selection) bool {
		return containsKnownCode(rowText(sel), s.opts.Instruments)
	}
	return doc.Find(s.opts.FallbackSelector).FilterFunction(func(i int, sel *goquery.Selection) bool {
		if !known(i, sel) {
			return false
		}
		return sel.Find(s.opts.FallbackSelector).FilterFunction(known).Length() == 0
	})
}

func (s *MarkupSource) parseRow(row *goquery.Selection, now time.Time) (model.CurrencyPairData, bool) {
	text := rowText(row)

	instrument, ok := rowInstrument(row, text, s.opts.Instruments)
	if !ok {
		return model.CurrencyPairData{}, false
	}
	buy, ok := rowPercent(row, defaultBuySelector, text, 0)
	if !ok {
		s.log.WithField("instrument", instrument).Debug("no buy percentage, row skipped")
		return model.CurrencyPairData{}, false
	}
	sell, ok := rowPercent(row, defaultSellSelector, text, 1)
	if !ok {
		s.log.WithField("instrument", instrument).Debug("no sell percentage, row skipped")
		return model.CurrencyPairData{}, false
	}
	buy, sell = model.Round2(buy), model.Round2(sell)
	if !inPercentRange(buy) || !inPercentRange(sell) {
		s.log.WithFields(logrus.Fields{"instrument": instrument, "buy": buy, "sell": sell}).
			Debug("percentage out of range, row skipped")
		return model.CurrencyPairData{}, false
	}

	signal, ok := rowSignal(row)
	if !ok {
		signal = model.PositioningThresholds.Classify(buy)
	}
	return model.NewCurrencyPairData(instrument, buy, sell, signal, now), true
}

func rowInstrument(row *goquery.Selection, text string, whitelist []string) (string, bool) {
	if inst, ok := matchInstrument(text, whitelist); ok {
		return inst, true
	}
	if attr, ok := row.Attr(instrumentAttr); ok && codeKey(attr) != "" {
		return FormatInstrument(attr), true
	}
	return "", false
}

// rowPercent looks in dedicated sub-elements first, then takes the n-th
// percentage token of the whole row text.
func rowPercent(row *goquery.Selection, selector, text string, n int) (float64, bool) {
	if cell := row.Find(selector).First(); cell.Length() > 0 {
		if v, ok := nthPercent(rowText(cell), 0); ok {
			return v, true
		}
	}
	return nthPercent(text, n)
}

// rowText joins the text nodes under sel with spaces, so adjacent cells such
// as "1" and "45%" cannot fuse into "145%".
func rowText(sel *goquery.Selection) string {
	var parts []string
	var walk func(*goquery.Selection)
	walk = func(n *goquery.Selection) {
		n.Contents().Each(func(_ int, c *goquery.Selection) {
			if goquery.NodeName(c) == "#text" {
				if t := strings.TrimSpace(c.Text()); t != "" {
					parts = append(parts, t)
				}
				return
			}
			walk(c)
		})
	}
	walk(sel)
	return strings.Join(parts, " ")
}

// rowSignal reads an explicit directional marker from the row, if any.
func rowSignal(row *goquery.Selection) (model.Signal, bool) {
	if v, ok := row.Attr(signalAttr); ok {
		if sig, err := model.ParseSignal(v); err == nil {
			return sig, true
		}
	}
	marked := func(sel string) bool { return row.Is(sel) || row.Find(sel).Length() > 0 }
	switch {
	case marked(markerBuySelector):
		return model.SignalBuy, true
	case marked(markerSellSelector):
		return model.SignalSell, true
	case marked(markerNeutralSelector):
		return model.SignalNeutral, true
	}
	return "", false
}

// placeholder is the last-resort result when nothing could be extracted. The
// records carry UNKNOWN signals and must never be treated as observations.
func (s *MarkupSource) placeholder(now time.Time) Batch {
	records := make([]model.CurrencyPairData, 0, len(s.opts.PlaceholderInstruments))
	for _, inst := range s.opts.PlaceholderInstruments {
		records = append(records, model.NewCurrencyPairData(inst, 50, 50, model.SignalUnknown, now))
	}
	s.log.WithField("records", len(records)).Warn("no rows extracted, returning placeholder batch")
	return Batch{
		Source:     s.Name(),
		Records:    records,
		Confidence: ConfidencePlaceholder,
		Note:       "no rows extracted; placeholder data",
		FetchedAt:  now,
	}
}
