package model

// Display is presentation metadata for an enum value. It is kept out of the
// entities so equality never depends on it.
type Display struct {
	Label string
	Icon  string
}

var signalDisplay = map[Signal]Display{
	SignalBuy:     {Label: "Buy", Icon: "🟢"},
	SignalSell:    {Label: "Sell", Icon: "🔴"},
	SignalNeutral: {Label: "Neutral", Icon: "⚪"},
	SignalUnknown: {Label: "Unknown", Icon: "❔"},
}

var importanceDisplay = map[Importance]Display{
	ImportanceCritical: {Label: "Critical", Icon: "🚨"},
	ImportanceHigh:     {Label: "High", Icon: "⚠️"},
	ImportanceMedium:   {Label: "Medium", Icon: "🔔"},
	ImportanceLow:      {Label: "Low", Icon: "ℹ️"},
}

var actualityDisplay = map[Actuality]Display{
	ActualityVeryRecent: {Label: "very recent (≤2h)", Icon: "🔥"},
	ActualityRecent:     {Label: "recent (≤24h)", Icon: "🕐"},
	ActualityThisWeek:   {Label: "this week", Icon: "📅"},
	ActualityOld:        {Label: "old", Icon: "🗄"},
}

func lookup[K comparable](table map[K]Display, k K, fallback string) Display {
	if d, ok := table[k]; ok {
		return d
	}
	return Display{Label: fallback, Icon: "?"}
}

func SignalDisplay(s Signal) Display         { return lookup(signalDisplay, s, string(s)) }
func ImportanceDisplay(i Importance) Display { return lookup(importanceDisplay, i, string(i)) }
func ActualityDisplay(a Actuality) Display   { return lookup(actualityDisplay, a, string(a)) }
