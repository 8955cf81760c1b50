package domain

// Daypart segments a route's delivery capacity within a day.
type Daypart string

const (
	DaypartMorningPeak Daypart = "morning_peak"
	DaypartDaytime     Daypart = "daytime"
	DaypartEveningPeak Daypart = "evening_peak"
)

// AllDayparts returns every daypart in canonical order.
func AllDayparts() []Daypart {
	return []Daypart{DaypartMorningPeak, DaypartDaytime, DaypartEveningPeak}
}

// ParseDaypart validates a wire-format daypart value.
func ParseDaypart(s string) (Daypart, error) {
	switch Daypart(s) {
	case DaypartMorningPeak, DaypartDaytime, DaypartEveningPeak:
		return Daypart(s), nil
	}
	return "", ErrInvalidDaypart
}

// NormalizeDayparts deduplicates and orders a daypart set canonically. An
// empty or nil set means the full day.
func NormalizeDayparts(parts []Daypart) []Daypart {
	if len(parts) == 0 {
		return AllDayparts()
	}
	present := make(map[Daypart]bool, len(parts))
	for _, p := range parts {
		present[p] = true
	}
	out := make([]Daypart, 0, len(present))
	for _, p := range AllDayparts() {
		if present[p] {
			out = append(out, p)
		}
	}
	return out
}

// IntersectDayparts returns the dayparts present in both sets, in canonical
// order. Empty inputs are treated as the full day.
func IntersectDayparts(a, b []Daypart) []Daypart {
	inA := make(map[Daypart]bool)
	for _, p := range NormalizeDayparts(a) {
		inA[p] = true
	}
	out := make([]Daypart, 0, 3)
	for _, p := range NormalizeDayparts(b) {
		if inA[p] {
			out = append(out, p)
		}
	}
	return out
}
