package collector

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"SentimentWatch/internal/model"
)

type panicSource struct{}

func (panicSource) Name() string { return "panicky" }
func (panicSource) Fetch(context.Context) (Batch, error) {
	panic("boom")
}

func TestCollect_IsolatesFailures(t *testing.T) {
	now := time.Now()
	failing := &StaticSource{SourceName: "down"}
	failing.Set(&FetchError{Source: "down", URL: "http://x", Err: errors.New("timeout")})

	ok := &StaticSource{SourceName: "up"}
	ok.Set(nil, model.NewCurrencyPairData("EUR/USD", 65, 35, model.SignalSell, now))

	fallback := &StaticSource{SourceName: "index", Confidence: ConfidenceFallback}
	fallback.Set(nil, model.NewCurrencyPairData("BTC/USD", 50, 50, model.SignalNeutral, now))

	res := NewCollector(failing, panicSource{}, ok, fallback).Collect(context.Background())

	require.Len(t, res.Reports, 4)
	assert.Equal(t, StatusFailed, res.Reports[0].Status)
	assert.Equal(t, StatusFailed, res.Reports[1].Status)
	assert.Contains(t, res.Reports[1].Note, "panic")
	assert.Equal(t, StatusOK, res.Reports[2].Status)
	assert.Equal(t, 1, res.Reports[2].Records)
	assert.Equal(t, StatusDegraded, res.Reports[3].Status)
	assert.Equal(t, ConfidenceFallback, res.Reports[3].Confidence)

	require.Len(t, res.Batches, 2)
	live := res.LiveRecords()
	require.Len(t, live, 1)
	assert.Equal(t, "EUR/USD", live[0].Instrument)
}

func TestCollect_EmptyLiveBatchIsDegraded(t *testing.T) {
	empty := &StaticSource{SourceName: "empty"}
	res := NewCollector(empty).Collect(context.Background())
	require.Len(t, res.Reports, 1)
	assert.Equal(t, StatusDegraded, res.Reports[0].Status)
	assert.Empty(t, res.LiveRecords())
}
