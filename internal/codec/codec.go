// Package codec implements the persisted one-line text formats for sentiment
// records and signal change events.
package codec

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const (
	// TimestampLayout is yyyy-MM-dd HH:mm:ss.
	TimestampLayout = "2006-01-02 15:04:05"
	fieldSeparator  = ";"
)

// NumberFormat fixes how percentages are rendered in one line kind.
type NumberFormat struct {
	DecimalSeparator byte
	Decimals         int
}

var (
	// RecordNumbers is used by sentiment record lines.
	RecordNumbers = NumberFormat{DecimalSeparator: '.', Decimals: 2}
	// ChangeNumbers is used by change event lines.
	ChangeNumbers = NumberFormat{DecimalSeparator: ',', Decimals: 2}
)

// Format renders v with the configured separator, rounding half away from zero.
func (n NumberFormat) Format(v float64) string {
	s := decimal.NewFromFloat(v).StringFixed(int32(n.Decimals))
	if n.DecimalSeparator != '.' {
		s = strings.Replace(s, ".", string(n.DecimalSeparator), 1)
	}
	return s
}

// Parse reads a number written with either this format's separator or a dot.
func (n NumberFormat) Parse(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if n.DecimalSeparator != '.' {
		s = strings.Replace(s, string(n.DecimalSeparator), ".", 1)
	}
	return strconv.ParseFloat(s, 64)
}

// ParseError describes a line that could not be decoded.
type ParseError struct {
	Line   string
	Field  string
	Reason string
}

func (e *ParseError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("parse %q: %s", e.Line, e.Reason)
	}
	return fmt.Sprintf("parse %q: field %s: %s", e.Line, e.Field, e.Reason)
}

func splitLine(line string, want int) ([]string, error) {
	line = strings.TrimRight(line, "\r\n")
	parts := strings.Split(line, fieldSeparator)
	if len(parts) != want {
		return nil, &ParseError{Line: line, Reason: fmt.Sprintf("expected %d fields, got %d", want, len(parts))}
	}
	return parts, nil
}

func parseTimestamp(line, s string) (time.Time, error) {
	ts, err := time.ParseInLocation(TimestampLayout, strings.TrimSpace(s), time.Local)
	if err != nil {
		return time.Time{}, &ParseError{Line: line, Field: "timestamp", Reason: err.Error()}
	}
	return ts, nil
}
