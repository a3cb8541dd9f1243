package codec

import (
	"strings"

	"SentimentWatch/internal/model"
)

// RecordHeader is the first line of a sentiment record file.
const RecordHeader = "Zeitstempel;Währungspaar;Buy_Prozent;Sell_Prozent;Handelssignal"

// FormatRecord renders timestamp;instrument;buyPct;sellPct;SIGNAL.
func FormatRecord(d model.CurrencyPairData) string {
	return strings.Join([]string{
		d.Timestamp.Local().Format(TimestampLayout),
		d.Instrument,
		RecordNumbers.Format(d.BuyPercentage),
		RecordNumbers.Format(d.SellPercentage),
		d.Signal.String(),
	}, fieldSeparator)
}

// ParseRecord is the inverse of FormatRecord.
func ParseRecord(line string) (model.CurrencyPairData, error) {
	parts, err := splitLine(line, 5)
	if err != nil {
		return model.CurrencyPairData{}, err
	}
	ts, err := parseTimestamp(line, parts[0])
	if err != nil {
		return model.CurrencyPairData{}, err
	}
	instrument := strings.TrimSpace(parts[1])
	if instrument == "" {
		return model.CurrencyPairData{}, &ParseError{Line: line, Field: "instrument", Reason: "empty"}
	}
	buy, err := RecordNumbers.Parse(parts[2])
	if err != nil {
		return model.CurrencyPairData{}, &ParseError{Line: line, Field: "buy", Reason: err.Error()}
	}
	sell, err := RecordNumbers.Parse(parts[3])
	if err != nil {
		return model.CurrencyPairData{}, &ParseError{Line: line, Field: "sell", Reason: err.Error()}
	}
	sig, err := model.ParseSignal(parts[4])
	if err != nil {
		return model.CurrencyPairData{}, &ParseError{Line: line, Field: "signal", Reason: err.Error()}
	}
	return model.CurrencyPairData{
		Instrument:     instrument,
		BuyPercentage:  buy,
		SellPercentage: sell,
		Signal:         sig,
		Timestamp:      ts,
	}, nil
}
