package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	consistencyMin = 99.0
	consistencyMax = 101.0
)

// CurrencyPairData is one sentiment observation for an instrument.
type CurrencyPairData struct {
	Instrument     string
	BuyPercentage  float64
	SellPercentage float64
	Signal         Signal
	Timestamp      time.Time
}

// NewCurrencyPairData stamps the record with ts truncated to whole seconds,
// the resolution of the persisted line format.
func NewCurrencyPairData(instrument string, buy, sell float64, signal Signal, ts time.Time) CurrencyPairData {
	return CurrencyPairData{
		Instrument:     instrument,
		BuyPercentage:  buy,
		SellPercentage: sell,
		Signal:         signal,
		Timestamp:      ts.Truncate(time.Second),
	}
}

// IsConsistent reports whether buy+sell lies in [99,101].
func (d CurrencyPairData) IsConsistent() bool {
	sum := d.BuyPercentage + d.SellPercentage
	return sum >= consistencyMin && sum <= consistencyMax
}

// EnsureConsistency sets SellPercentage = 100 - BuyPercentage when the pair
// does not sum to ~100. It reports whether a correction was applied.
func (d *CurrencyPairData) EnsureConsistency() bool {
	if d.IsConsistent() {
		return false
	}
	d.SellPercentage = Round2(100 - d.BuyPercentage)
	return true
}

// Round2 rounds half away from zero to two decimals, using the shortest
// decimal representation of v so 1.005 becomes 1.01.
func Round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// Equal compares all fields, using time.Equal for the timestamp.
func (d CurrencyPairData) Equal(o CurrencyPairData) bool {
	return d.Instrument == o.Instrument &&
		d.BuyPercentage == o.BuyPercentage &&
		d.SellPercentage == o.SellPercentage &&
		d.Signal == o.Signal &&
		d.Timestamp.Equal(o.Timestamp)
}
