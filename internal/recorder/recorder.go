package recorder

import (
	"time"

	"SentimentWatch/internal/model"
)

// SourceRun is one source's outcome within a run.
type SourceRun struct {
	Source     string
	Status     string // "ok", "degraded" or "failed"
	Confidence string
	Records    int
	Note       string
}

// RunReport summarises one pipeline cycle.
type RunReport struct {
	RunID      string
	StartedAt  time.Time
	FinishedAt time.Time
	Sources    []SourceRun
	Records    int
	Changes    int
	Error      string
}

// Recorder persists sentiment records, change events and run reports.
type Recorder interface {
	RecordSentiment(records []model.CurrencyPairData) error
	RecordChanges(events []model.SignalChangeEvent) error
	RecordRun(report *RunReport) error
	Close() error
}
