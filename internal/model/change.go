package model

import "time"

// Importance ranks a signal transition. It is fixed when the transition is detected.
type Importance string

const (
	ImportanceCritical Importance = "CRITICAL"
	ImportanceHigh     Importance = "HIGH"
	ImportanceMedium   Importance = "MEDIUM"
	ImportanceLow      Importance = "LOW"
)

// Rank orders importances, CRITICAL highest.
func (i Importance) Rank() int {
	switch i {
	case ImportanceCritical:
		return 4
	case ImportanceHigh:
		return 3
	case ImportanceMedium:
		return 2
	case ImportanceLow:
		return 1
	default:
		return 0
	}
}

// AtLeast reports whether i ranks at or above min.
func (i Importance) AtLeast(min Importance) bool { return i.Rank() >= min.Rank() }

// Actuality buckets how long ago a transition happened, relative to the time it is viewed.
type Actuality string

const (
	ActualityVeryRecent Actuality = "VERY_RECENT"
	ActualityRecent     Actuality = "RECENT"
	ActualityThisWeek   Actuality = "THIS_WEEK"
	ActualityOld        Actuality = "OLD"
)

const (
	veryRecentWindow = 2 * time.Hour
	recentWindow     = 24 * time.Hour
	thisWeekWindow   = 168 * time.Hour
)

// ImportanceOf derives the importance of a from→to transition.
func ImportanceOf(from, to Signal) Importance {
	switch {
	case from == SignalBuy && to == SignalSell, from == SignalSell && to == SignalBuy:
		return ImportanceCritical
	case from == SignalNeutral || to == SignalNeutral:
		return ImportanceHigh
	case from == SignalUnknown || to == SignalUnknown:
		return ImportanceMedium
	default:
		return ImportanceLow
	}
}

// ActualityOf buckets an elapsed duration. Upper bounds are inclusive;
// negative durations (clock skew) count as very recent.
func ActualityOf(elapsed time.Duration) Actuality {
	switch {
	case elapsed <= veryRecentWindow:
		return ActualityVeryRecent
	case elapsed <= recentWindow:
		return ActualityRecent
	case elapsed <= thisWeekWindow:
		return ActualityThisWeek
	default:
		return ActualityOld
	}
}

// SignalChangeEvent records that an instrument's signal changed between two observations.
type SignalChangeEvent struct {
	Instrument        string
	FromSignal        Signal
	ToSignal          Signal
	ChangeTime        time.Time
	FromBuyPercentage float64
	ToBuyPercentage   float64
	Importance        Importance
}

// NewSignalChangeEvent builds an event and derives its importance.
func NewSignalChangeEvent(instrument string, from, to Signal, at time.Time, fromBuy, toBuy float64) SignalChangeEvent {
	return SignalChangeEvent{
		Instrument:        instrument,
		FromSignal:        from,
		ToSignal:          to,
		ChangeTime:        at.Truncate(time.Second),
		FromBuyPercentage: fromBuy,
		ToBuyPercentage:   toBuy,
		Importance:        ImportanceOf(from, to),
	}
}

// Actuality is recomputed on every call; it is never stored.
func (e SignalChangeEvent) Actuality(now time.Time) Actuality {
	return ActualityOf(now.Sub(e.ChangeTime))
}

// Equal compares all fields, using time.Equal for the change time.
func (e SignalChangeEvent) Equal(o SignalChangeEvent) bool {
	return e.Instrument == o.Instrument &&
		e.FromSignal == o.FromSignal &&
		e.ToSignal == o.ToSignal &&
		e.ChangeTime.Equal(o.ChangeTime) &&
		e.FromBuyPercentage == o.FromBuyPercentage &&
		e.ToBuyPercentage == o.ToBuyPercentage &&
		e.Importance == o.Importance
}
