package codec

import (
	"strings"

	"SentimentWatch/internal/model"
)

// ChangeHeader is the first line of a change event file.
const ChangeHeader = "Zeitstempel;Währungspaar;Von_Signal;Zu_Signal;Von_Buy_Prozent;Zu_Buy_Prozent"

// FormatChange renders timestamp;instrument;FROM;TO;fromBuyPct;toBuyPct with decimal commas.
func FormatChange(e model.SignalChangeEvent) string {
	return strings.Join([]string{
		e.ChangeTime.Local().Format(TimestampLayout),
		e.Instrument,
		e.FromSignal.String(),
		e.ToSignal.String(),
		ChangeNumbers.Format(e.FromBuyPercentage),
		ChangeNumbers.Format(e.ToBuyPercentage),
	}, fieldSeparator)
}

// ParseChange is the inverse of FormatChange. Percentages may use ',' or '.'.
// Importance is re-derived from the transition.
func ParseChange(line string) (model.SignalChangeEvent, error) {
	parts, err := splitLine(line, 6)
	if err != nil {
		return model.SignalChangeEvent{}, err
	}
	ts, err := parseTimestamp(line, parts[0])
	if err != nil {
		return model.SignalChangeEvent{}, err
	}
	instrument := strings.TrimSpace(parts[1])
	if instrument == "" {
		return model.SignalChangeEvent{}, &ParseError{Line: line, Field: "instrument", Reason: "empty"}
	}
	from, err := model.ParseSignal(parts[2])
	if err != nil {
		return model.SignalChangeEvent{}, &ParseError{Line: line, Field: "from_signal", Reason: err.Error()}
	}
	to, err := model.ParseSignal(parts[3])
	if err != nil {
		return model.SignalChangeEvent{}, &ParseError{Line: line, Field: "to_signal", Reason: err.Error()}
	}
	fromBuy, err := ChangeNumbers.Parse(parts[4])
	if err != nil {
		return model.SignalChangeEvent{}, &ParseError{Line: line, Field: "from_buy", Reason: err.Error()}
	}
	toBuy, err := ChangeNumbers.Parse(parts[5])
	if err != nil {
		return model.SignalChangeEvent{}, &ParseError{Line: line, Field: "to_buy", Reason: err.Error()}
	}
	return model.NewSignalChangeEvent(instrument, from, to, ts, fromBuy, toBuy), nil
}
