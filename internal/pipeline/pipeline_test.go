package pipeline

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SentimentWatch/internal/collector"
	"SentimentWatch/internal/detector"
	"SentimentWatch/internal/metrics"
	"SentimentWatch/internal/model"
	"SentimentWatch/internal/recorder"
)

type captureAlerter struct {
	batches [][]model.SignalChangeEvent
	err     error
}

func (c *captureAlerter) Alert(_ context.Context, events []model.SignalChangeEvent) error {
	c.batches = append(c.batches, events)
	return c.err
}

func record(inst string, buy float64) model.CurrencyPairData {
	return model.NewCurrencyPairData(inst, buy, 100-buy, model.PositioningThresholds.Classify(buy), time.Now())
}

func TestPipeline_DetectsChangeAcrossCycles(t *testing.T) {
	dir := t.TempDir()
	csv, err := recorder.NewCSVRecorder(dir)
	require.NoError(t, err)

	src := &collector.StaticSource{SourceName: "markup"}
	alerts := &captureAlerter{}
	reg := prometheus.NewRegistry()
	p := New(Deps{
		Collector: collector.NewCollector(src),
		Detector:  detector.New(detector.NewMemoryStore()),
		Recorder:  csv,
		Alerter:   alerts,
		Metrics:   metrics.New(reg),
	})

	src.Set(nil, record("EUR/USD", 45))
	require.NoError(t, p.Run(context.Background()))
	assert.Empty(t, p.RecentChanges(10))
	assert.Empty(t, alerts.batches)

	src.Set(nil, record("EUR/USD", 65))
	require.NoError(t, p.Run(context.Background()))

	changes := p.RecentChanges(10)
	require.Len(t, changes, 1)
	ev := changes[0]
	assert.Equal(t, model.SignalNeutral, ev.FromSignal)
	assert.Equal(t, model.SignalSell, ev.ToSignal)
	assert.Equal(t, model.ImportanceHigh, ev.Importance)
	assert.Equal(t, 45.0, ev.FromBuyPercentage)
	assert.Equal(t, 65.0, ev.ToBuyPercentage)

	require.Len(t, alerts.batches, 1)
	assert.Len(t, alerts.batches[0], 1)

	recs, err := recorder.ReadSentiment(dir)
	require.NoError(t, err)
	assert.Len(t, recs, 2)
	evs, err := recorder.ReadChanges(dir)
	require.NoError(t, err)
	assert.Len(t, evs, 1)

	latest := p.Latest()
	require.Len(t, latest, 1)
	assert.Equal(t, 65.0, latest[0].BuyPercentage)

	n, err := testutil.GatherAndCount(reg, "sentiment_signal_changes_total")
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestPipeline_MinImportanceFiltersAlerts(t *testing.T) {
	src := &collector.StaticSource{}
	alerts := &captureAlerter{}
	p := New(Deps{
		Collector:     collector.NewCollector(src),
		Detector:      detector.New(detector.NewMemoryStore()),
		Alerter:       alerts,
		MinImportance: model.ImportanceCritical,
	})

	src.Set(nil, record("GBP/USD", 50))
	require.NoError(t, p.Run(context.Background()))
	src.Set(nil, record("GBP/USD", 70))
	require.NoError(t, p.Run(context.Background()))
	assert.Empty(t, alerts.batches, "HIGH is below CRITICAL")

	src.Set(nil, record("GBP/USD", 30))
	require.NoError(t, p.Run(context.Background()))
	require.Len(t, alerts.batches, 1)
	assert.Equal(t, model.ImportanceCritical, alerts.batches[0][0].Importance)
	assert.Len(t, p.RecentChanges(0), 2)
}

func TestPipeline_FailingSourceIsIsolated(t *testing.T) {
	bad := &collector.StaticSource{SourceName: "markup"}
	bad.Set(errors.New("connection refused"))
	good := &collector.StaticSource{SourceName: "fear_greed"}
	good.Set(nil, record("BTC/USD", 20))

	p := New(Deps{
		Collector: collector.NewCollector(bad, good),
		Detector:  detector.New(detector.NewMemoryStore()),
	})
	require.NoError(t, p.Run(context.Background()))

	run := p.LastRun()
	require.NotNil(t, run)
	assert.NotEmpty(t, run.RunID)
	require.Len(t, run.Sources, 2)
	assert.Equal(t, "failed", run.Sources[0].Status)
	assert.Equal(t, "connection refused", run.Sources[0].Note)
	assert.Equal(t, "ok", run.Sources[1].Status)
	assert.Equal(t, 1, run.Records)
}

func TestPipeline_AllSourcesFailed(t *testing.T) {
	bad := &collector.StaticSource{}
	bad.Set(errors.New("timeout"))
	p := New(Deps{
		Collector: collector.NewCollector(bad),
		Detector:  detector.New(detector.NewMemoryStore()),
	})
	err := p.Run(context.Background())
	assert.ErrorIs(t, err, ErrNoData)
	assert.Contains(t, p.LastRun().Error, ErrNoData.Error())
}

func TestPipeline_FallbackBatchIsNotObserved(t *testing.T) {
	src := &collector.StaticSource{SourceName: "fear_greed", Confidence: collector.ConfidenceFallback}
	src.Set(nil, model.NewCurrencyPairData("BTC/USD", 50, 50, model.SignalNeutral, time.Now()))
	store := detector.NewMemoryStore()
	p := New(Deps{
		Collector: collector.NewCollector(src),
		Detector:  detector.New(store),
	})
	require.NoError(t, p.Run(context.Background()))

	assert.Empty(t, store.Snapshot())
	assert.Equal(t, "degraded", p.LastRun().Sources[0].Status)
	assert.Empty(t, p.Latest())
}

func TestPipeline_RecentChangesIsBounded(t *testing.T) {
	src := &collector.StaticSource{}
	p := New(Deps{
		Collector: collector.NewCollector(src),
		Detector:  detector.New(detector.NewMemoryStore()),
	})
	buys := []float64{30, 70}
	for i := 0; i <= recentLimit+5; i++ {
		src.Set(nil, record("USD/JPY", buys[i%2]))
		require.NoError(t, p.Run(context.Background()))
	}
	recent := p.RecentChanges(0)
	assert.Len(t, recent, recentLimit)
}

func TestPipeline_SharedInstrumentAcrossSourcesIsStable(t *testing.T) {
	page := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`<table id="outlookSymbolsTable"><tbody>
			<tr><td>BTCUSD</td><td>70%</td><td>30%</td></tr>
		</tbody></table>`))
	}))
	defer page.Close()
	index := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"fear_and_greed":{"score":20,"rating":"extreme fear"}}`))
	}))
	defer index.Close()

	markup := collector.NewMarkupSource(collector.MarkupOptions{URL: page.URL, Timeout: 2 * time.Second})
	fearGreed := collector.NewFearGreedSource(collector.FearGreedOptions{
		Endpoint:   index.URL,
		Instrument: "BTC/USD",
		Timeout:    2 * time.Second,
	})
	alerts := &captureAlerter{}
	p := New(Deps{
		Collector:     collector.NewCollector(markup, fearGreed),
		Detector:      detector.New(detector.NewMemoryStore()),
		Alerter:       alerts,
		MinImportance: model.ImportanceLow,
	})

	for i := 0; i < 3; i++ {
		require.NoError(t, p.Run(context.Background()))
		assert.Equal(t, 2, p.LastRun().Records, "cycle %d", i)
	}
	assert.Empty(t, p.RecentChanges(0))
	assert.Empty(t, alerts.batches)

	latest := p.Latest()
	require.Len(t, latest, 2)
	assert.Equal(t, model.SignalBuy, latest[0].Signal, "fear_greed: score 20 is fear")
	assert.Equal(t, model.SignalSell, latest[1].Signal, "markup: 70% long")
}
