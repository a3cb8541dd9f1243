package collector

import (
	"context"
	"fmt"
	"time"

	"SentimentWatch/internal/model"
)

// Source fetches sentiment records from one external provider.
type Source interface {
	Name() string
	// Fetch returns a FetchError for transport failures only; parse problems
	// degrade to fewer records or a lower-confidence batch.
	Fetch(ctx context.Context) (Batch, error)
}

// Confidence tags how far a batch can be trusted.
type Confidence string

const (
	// ConfidenceLive is data actually extracted from the source.
	ConfidenceLive Confidence = "live"
	// ConfidenceFallback is a defined neutral default standing in for a failed fetch.
	ConfidenceFallback Confidence = "fallback"
	// ConfidencePlaceholder is synthetic data emitted when extraction found nothing.
	ConfidencePlaceholder Confidence = "placeholder"
)

// Batch is the outcome of one Fetch.
type Batch struct {
	Source      string
	Records     []model.CurrencyPairData
	Confidence  Confidence
	Note        string
	Corrections int
	FetchedAt   time.Time
}

// Live reports whether the records were really extracted from the source.
func (b Batch) Live() bool { return b.Confidence == ConfidenceLive }

// FetchError is a transport-level failure: network, timeout or HTTP status.
type FetchError struct {
	Source     string
	URL        string
	StatusCode int
	Err        error
}

func (e *FetchError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: fetch %s: status %d", e.Source, e.URL, e.StatusCode)
	}
	return fmt.Sprintf("%s: fetch %s: %v", e.Source, e.URL, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
