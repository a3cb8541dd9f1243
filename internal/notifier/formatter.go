package notifier

import (
	"fmt"
	"html"
	"strings"
	"time"

	"SentimentWatch/internal/model"
	"SentimentWatch/internal/recorder"
	"SentimentWatch/internal/scheduler"
)

const timeLayout = "2006-01-02 15:04"

// FormatChangeAlert renders events, most important first, with actuality
// computed against now.
func FormatChangeAlert(events []model.SignalChangeEvent, now time.Time) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("📣 <b>Sentiment signal changes</b> | %s\n\n", now.Format(timeLayout)))
	for _, ev := range byImportance(events) {
		writeChange(&b, ev, now)
	}
	return b.String()
}

// FormatRecentChanges lists events in the given order.
func FormatRecentChanges(events []model.SignalChangeEvent, now time.Time) string {
	if len(events) == 0 {
		return "No signal changes recorded yet."
	}
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🗂 <b>Recent changes</b> (%d)\n\n", len(events)))
	for _, ev := range events {
		writeChange(&b, ev, now)
	}
	return b.String()
}

func writeChange(b *strings.Builder, ev model.SignalChangeEvent, now time.Time) {
	imp := model.ImportanceDisplay(ev.Importance)
	act := model.ActualityDisplay(ev.Actuality(now))
	from := model.SignalDisplay(ev.FromSignal)
	to := model.SignalDisplay(ev.ToSignal)

	b.WriteString(fmt.Sprintf("%s <b>%s</b>: %s %s → %s %s\n",
		imp.Icon, html.EscapeString(ev.Instrument), from.Icon, from.Label, to.Icon, to.Label))
	b.WriteString(fmt.Sprintf("   Buy: %.2f%% → %.2f%% (%+.2f)\n",
		ev.FromBuyPercentage, ev.ToBuyPercentage, ev.ToBuyPercentage-ev.FromBuyPercentage))
	b.WriteString(fmt.Sprintf("   %s | %s %s | %s\n\n",
		imp.Label, act.Icon, act.Label, ev.ChangeTime.Format(timeLayout)))
}

// byImportance returns a copy ordered CRITICAL first; ties keep input order.
func byImportance(events []model.SignalChangeEvent) []model.SignalChangeEvent {
	out := make([]model.SignalChangeEvent, 0, len(events))
	for _, imp := range []model.Importance{
		model.ImportanceCritical, model.ImportanceHigh, model.ImportanceMedium, model.ImportanceLow,
	} {
		for _, ev := range events {
			if ev.Importance == imp {
				out = append(out, ev)
			}
		}
	}
	return out
}

// StatusView is what /status reports on.
type StatusView struct {
	State   scheduler.State
	Stats   scheduler.Stats
	NextRun time.Time
	LastRun *recorder.RunReport
	Latest  []model.CurrencyPairData
}

// FormatStatus renders scheduler health, the last run and latest readings.
func FormatStatus(v StatusView) string {
	var b strings.Builder
	b.WriteString("📊 <b>SentimentWatch status</b>\n\n")
	b.WriteString(fmt.Sprintf("Scheduler: %s\n", v.State))
	if !v.NextRun.IsZero() {
		b.WriteString(fmt.Sprintf("Next run: %s\n", v.NextRun.Format(timeLayout)))
	}
	b.WriteString(fmt.Sprintf("Runs: %d | Failures: %d\n", v.Stats.Runs, v.Stats.Failures))
	if v.Stats.LastError != nil {
		b.WriteString(fmt.Sprintf("Last error: %s\n", html.EscapeString(v.Stats.LastError.Error())))
	}

	if r := v.LastRun; r != nil {
		b.WriteString(fmt.Sprintf("\nLast run %s: %d records, %d changes\n",
			r.StartedAt.Format(timeLayout), r.Records, r.Changes))
		for _, s := range r.Sources {
			line := fmt.Sprintf("  %s %s: %s", sourceIcon(s.Status), s.Source, s.Status)
			if s.Note != "" {
				line += " (" + html.EscapeString(s.Note) + ")"
			}
			b.WriteString(line + "\n")
		}
	}

	if len(v.Latest) > 0 {
		b.WriteString("\n<b>Latest</b>\n")
		for _, rec := range v.Latest {
			sig := model.SignalDisplay(rec.Signal)
			b.WriteString(fmt.Sprintf("  %s %s %.2f%% buy / %.2f%% sell\n",
				sig.Icon, html.EscapeString(rec.Instrument), rec.BuyPercentage, rec.SellPercentage))
		}
	}
	return b.String()
}

func sourceIcon(status string) string {
	switch status {
	case "ok":
		return "✅"
	case "degraded":
		return "⚠️"
	default:
		return "❌"
	}
}
