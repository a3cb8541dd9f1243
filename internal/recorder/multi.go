package recorder

import (
	"errors"

	"SentimentWatch/internal/model"
)

// Multi fans every call out to all recorders; one failing sink does not
// stop the others.
type Multi []Recorder

func (m Multi) RecordSentiment(records []model.CurrencyPairData) error {
	var errs []error
	for _, r := range m {
		errs = append(errs, r.RecordSentiment(records))
	}
	return errors.Join(errs...)
}

func (m Multi) RecordChanges(events []model.SignalChangeEvent) error {
	var errs []error
	for _, r := range m {
		errs = append(errs, r.RecordChanges(events))
	}
	return errors.Join(errs...)
}

func (m Multi) RecordRun(report *RunReport) error {
	var errs []error
	for _, r := range m {
		errs = append(errs, r.RecordRun(report))
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, r := range m {
		errs = append(errs, r.Close())
	}
	return errors.Join(errs...)
}
