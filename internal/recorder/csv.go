package recorder

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"

	"SentimentWatch/internal/codec"
	"SentimentWatch/internal/model"
)

const (
	SentimentFile = "sentiment.csv"
	ChangesFile   = "signal_changes.csv"
)

// CSVRecorder appends records and change events as codec lines to two files
// in Dir. Run reports are not written.
type CSVRecorder struct {
	Dir string
	mu  sync.Mutex
}

// NewCSVRecorder creates dir if needed.
func NewCSVRecorder(dir string) (*CSVRecorder, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create csv dir: %w", err)
	}
	logrus.WithField("dir", dir).Info("csv recorder opened")
	return &CSVRecorder{Dir: dir}, nil
}

func (r *CSVRecorder) RecordSentiment(records []model.CurrencyPairData) error {
	if len(records) == 0 {
		return nil
	}
	lines := make([]string, len(records))
	for i, rec := range records {
		lines[i] = codec.FormatRecord(rec)
	}
	return r.appendLines(SentimentFile, codec.RecordHeader, lines)
}

func (r *CSVRecorder) RecordChanges(events []model.SignalChangeEvent) error {
	if len(events) == 0 {
		return nil
	}
	lines := make([]string, len(events))
	for i, ev := range events {
		lines[i] = codec.FormatChange(ev)
	}
	return r.appendLines(ChangesFile, codec.ChangeHeader, lines)
}

func (r *CSVRecorder) RecordRun(_ *RunReport) error { return nil }

func (r *CSVRecorder) Close() error { return nil }

// appendLines writes header first when the file is new or empty.
func (r *CSVRecorder) appendLines(name, header string, lines []string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	path := filepath.Join(r.Dir, name)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open %s: %w", name, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat %s: %w", name, err)
	}

	w := bufio.NewWriter(f)
	if info.Size() == 0 {
		w.WriteString(header + "\n")
	}
	for _, l := range lines {
		w.WriteString(l + "\n")
	}
	if err := w.Flush(); err != nil {
		return fmt.Errorf("write %s: %w", name, err)
	}
	return nil
}

// ReadSentiment parses every record line of the sentiment file in dir,
// skipping the header.
func ReadSentiment(dir string) ([]model.CurrencyPairData, error) {
	var out []model.CurrencyPairData
	err := readLines(filepath.Join(dir, SentimentFile), codec.RecordHeader, func(line string) error {
		rec, err := codec.ParseRecord(line)
		if err != nil {
			return err
		}
		out = append(out, rec)
		return nil
	})
	return out, err
}

// ReadChanges parses every change line of the change file in dir.
func ReadChanges(dir string) ([]model.SignalChangeEvent, error) {
	var out []model.SignalChangeEvent
	err := readLines(filepath.Join(dir, ChangesFile), codec.ChangeHeader, func(line string) error {
		ev, err := codec.ParseChange(line)
		if err != nil {
			return err
		}
		out = append(out, ev)
		return nil
	})
	return out, err
}

func readLines(path, header string, fn func(string) error) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		if line == "" || line == header {
			continue
		}
		if err := fn(line); err != nil {
			return err
		}
	}
	return sc.Err()
}
