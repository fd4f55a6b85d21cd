package domain

import (
	"fmt"
	"time"
)

// Lot is a managed parking facility with a fixed set of numbered spots.
// Prices are stored in integer cents per hour. Operating hours are
// wall-clock times of day in the lot's own timezone; reservation
// timestamps themselves are always UTC.
type Lot struct {
	ID         string
	Name       string
	PriceCents int64
	Capacity   int
	OpensAt    TimeOfDay
	ClosesAt   TimeOfDay
	Timezone   string
	Active     bool
	CreatedAt  time.Time
}

// WithinHours reports whether the window falls inside the lot's operating
// hours. Both ends must land on the same lot-local calendar day between
// OpensAt and ClosesAt; a departure at exactly ClosesAt is allowed.
func (l Lot) WithinHours(w Window) (bool, error) {
	loc, err := l.Location()
	if err != nil {
		return false, err
	}
	start := w.Start.In(loc)
	end := w.End.In(loc)

	sy, sm, sd := start.Date()
	ey, em, ed := end.Date()
	if sy != ey || sm != em || sd != ed {
		return false, nil
	}

	arrive := minuteOfDay(start)
	depart := minuteOfDay(end)
	return arrive >= int(l.OpensAt) && depart <= int(l.ClosesAt), nil
}

func (l Lot) Location() (*time.Location, error) {
	if l.Timezone == "" {
		return time.UTC, nil
	}
	loc, err := time.LoadLocation(l.Timezone)
	if err != nil {
		return nil, ErrInvalidTimezone
	}
	return loc, nil
}

// CostFor bills a stay at the lot's hourly price with a one-hour minimum.
// Partial hours beyond the minimum are billed pro rata by the minute.
func (l Lot) CostFor(d time.Duration) int64 {
	minutes := int64(d / time.Minute)
	if minutes < 60 {
		minutes = 60
	}
	return l.PriceCents * minutes / 60
}

func minuteOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// TimeOfDay is a wall-clock time expressed as minutes since midnight.
type TimeOfDay int

// ParseTimeOfDay accepts "HH:MM".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, ErrInvalidHours
	}
	return TimeOfDay(t.Hour()*60 + t.Minute()), nil
}

func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d", int(t)/60, int(t)%60)
}
