package model

import (
	"fmt"
	"strings"
)

// Signal is the contrarian trading signal derived for an instrument.
type Signal string

const (
	SignalBuy     Signal = "BUY"
	SignalSell    Signal = "SELL"
	SignalNeutral Signal = "NEUTRAL"
	SignalUnknown Signal = "UNKNOWN"
)

// ParseSignal maps an uppercase signal name back to a Signal.
func ParseSignal(s string) (Signal, error) {
	switch sig := Signal(strings.ToUpper(strings.TrimSpace(s))); sig {
	case SignalBuy, SignalSell, SignalNeutral, SignalUnknown:
		return sig, nil
	default:
		return "", fmt.Errorf("unknown signal %q", s)
	}
}

func (s Signal) String() string { return string(s) }

// Thresholds is the low/high pair used by Classify for one source.
type Thresholds struct {
	Low  float64
	High float64
}

var (
	// PositioningThresholds applies to a "percent of traders long" value.
	PositioningThresholds = Thresholds{Low: 40, High: 60}
	// SentimentIndexThresholds applies to a 0-100 fear & greed index.
	SentimentIndexThresholds = Thresholds{Low: 45, High: 55}
)

// Classify maps a crowding value to a contrarian signal:
// value > high → SELL, value < low → BUY, otherwise NEUTRAL (bounds inclusive).
// Values outside [0,100] are not clamped.
func Classify(value, low, high float64) Signal {
	switch {
	case value > high:
		return SignalSell
	case value < low:
		return SignalBuy
	default:
		return SignalNeutral
	}
}

// Classify applies the threshold pair to value.
func (t Thresholds) Classify(value float64) Signal {
	return Classify(value, t.Low, t.High)
}
