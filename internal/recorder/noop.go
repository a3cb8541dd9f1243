package recorder

import "SentimentWatch/internal/model"

// NoopRecorder is a no-op implementation used when no sink is configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordSentiment(_ []model.CurrencyPairData) error { return nil }
func (n *NoopRecorder) RecordChanges(_ []model.SignalChangeEvent) error  { return nil }
func (n *NoopRecorder) RecordRun(_ *RunReport) error                     { return nil }
func (n *NoopRecorder) Close() error                                     { return nil }
