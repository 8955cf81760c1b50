package domain

import (
	"encoding/json"
	"time"
)

const dateLayout = "2006-01-02"

// Date is a calendar day with no time-of-day and no zone offset. Flight
// windows are inclusive on both ends and compared as plain calendar dates.
type Date struct {
	t time.Time
}

// ParseDate parses a YYYY-MM-DD string. Timestamps are rejected; callers
// that accept timestamps must truncate before parsing.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{t: t.UTC()}, nil
}

// DateOf truncates an instant to its UTC calendar day.
func DateOf(t time.Time) Date {
	t = t.UTC()
	return Date{t: time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)}
}

// NewDate builds a Date from year, month and day.
func NewDate(year int, month time.Month, day int) Date {
	return Date{t: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

func (d Date) String() string { return d.t.Format(dateLayout) }

func (d Date) IsZero() bool { return d.t.IsZero() }

func (d Date) Before(o Date) bool { return d.t.Before(o.t) }

func (d Date) After(o Date) bool { return d.t.After(o.t) }

func (d Date) Equal(o Date) bool { return d.t.Equal(o.t) }

func (d Date) AddDays(n int) Date { return Date{t: d.t.AddDate(0, 0, n)} }

func (d Date) Weekday() time.Weekday { return d.t.Weekday() }

// Time returns the midnight-UTC instant backing the date.
func (d Date) Time() time.Time { return d.t }

// DaysUntil returns the signed number of days from d to o.
func (d Date) DaysUntil(o Date) int {
	return int(o.t.Sub(d.t) / (24 * time.Hour))
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return ErrInvalidDate
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

func minDate(a, b Date) Date {
	if a.Before(b) {
		return a
	}
	return b
}

func maxDate(a, b Date) Date {
	if a.After(b) {
		return a
	}
	return b
}

// RangesOverlap reports whether two inclusive date ranges share at least one
// day. A single-day range equal to a query boundary overlaps.
func RangesOverlap(aStart, aEnd, bStart, bEnd Date) bool {
	return !aStart.After(bEnd) && !aEnd.Before(bStart)
}

// OverlapRange returns the intersection of two inclusive date ranges.
func OverlapRange(aStart, aEnd, bStart, bEnd Date) (Date, Date, bool) {
	if !RangesOverlap(aStart, aEnd, bStart, bEnd) {
		return Date{}, Date{}, false
	}
	return maxDate(aStart, bStart), minDate(aEnd, bEnd), true
}

// CountActiveDays counts the calendar days in [start,end] whose weekday is in
// daysOfWeek and which are not excluded. Weekday occurrences are counted in
// closed form rather than walking the range day by day.
func CountActiveDays(start, end Date, daysOfWeek []time.Weekday, exclude []Date) int {
	if start.After(end) {
		return 0
	}

	wanted := [7]bool{}
	if len(daysOfWeek) == 0 {
		for i := range wanted {
			wanted[i] = true
		}
	} else {
		for _, w := range daysOfWeek {
			if w >= 0 && w <= 6 {
				wanted[int(w)] = true
			}
		}
	}

	total := start.DaysUntil(end) + 1
	full := total / 7
	rem := total % 7

	count := 0
	for w := 0; w < 7; w++ {
		if !wanted[w] {
			continue
		}
		occurrences := full
		// The leftover rem days start on start's weekday.
		offset := (w - int(start.Weekday()) + 7) % 7
		if offset < rem {
			occurrences++
		}
		count += occurrences
	}

	seen := make(map[Date]struct{}, len(exclude))
	for _, d := range exclude {
		if d.Before(start) || d.After(end) {
			continue
		}
		if !wanted[int(d.Weekday())] {
			continue
		}
		if _, dup := seen[d]; dup {
			continue
		}
		seen[d] = struct{}{}
		count--
	}
	return count
}
