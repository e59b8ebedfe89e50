package models

import "time"

// TimeOfDay is a wall-clock point within a day.
type TimeOfDay struct {
	Hour   int `json:"hour"`
	Minute int `json:"minute"`
}

// Valid reports whether the point lies within a 24h day.
func (t TimeOfDay) Valid() bool {
	return t.Hour >= 0 && t.Hour <= 23 && t.Minute >= 0 && t.Minute <= 59
}

func (t TimeOfDay) minutes() int {
	return t.Hour*60 + t.Minute
}

// OrderWindow is the daily recurring interval in which a product may be
// ordered. To earlier than From means the window wraps past midnight
// (e.g. 22:00-02:00).
type OrderWindow struct {
	From TimeOfDay `json:"from"`
	To   TimeOfDay `json:"to"`
}

// Contains reports whether now falls inside the window. Both bounds are
// inclusive. A window with From == To covers exactly that one minute.
func (w OrderWindow) Contains(now time.Time) bool {
	cur := now.Hour()*60 + now.Minute()
	from := w.From.minutes()
	to := w.To.minutes()

	if from <= to {
		return cur >= from && cur <= to
	}
	// Wrapping window: open late in the evening or early in the morning.
	return cur >= from || cur <= to
}

// ConvertWindowFromUTC shifts a window stored in UTC into the given local
// zone, wrapping across the day boundary as needed. The backend stores all
// order windows in UTC; stations evaluate them in their own zone.
func ConvertWindowFromUTC(w OrderWindow, loc *time.Location) OrderWindow {
	return OrderWindow{
		From: convertTimeOfDayFromUTC(w.From, loc),
		To:   convertTimeOfDayFromUTC(w.To, loc),
	}
}

func convertTimeOfDayFromUTC(t TimeOfDay, loc *time.Location) TimeOfDay {
	// Anchor on an arbitrary date; only the clock reading matters. The date
	// shift introduced by the offset is irrelevant for a daily window.
	utc := time.Date(2000, time.January, 2, t.Hour, t.Minute, 0, 0, time.UTC)
	local := utc.In(loc)
	return TimeOfDay{Hour: local.Hour(), Minute: local.Minute()}
}
