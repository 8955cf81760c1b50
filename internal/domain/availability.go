package domain

// AvailabilityMode selects which flight statuses count as booked capacity.
type AvailabilityMode string

const (
	// ModeStrict counts only committed flights; used to gate admission.
	ModeStrict AvailabilityMode = "strict"
	// ModeSoft additionally counts draft and pending flights so operators
	// can see upcoming contention. Never used to gate admission.
	ModeSoft AvailabilityMode = "soft"
)

// Statuses returns the flight statuses included by the mode.
func (m AvailabilityMode) Statuses() []FlightStatus {
	if m == ModeSoft {
		return SoftStatuses()
	}
	return StrictStatuses()
}

// Grid is the remaining-capacity view: route -> date -> daypart -> available
// SOV fraction in [0,1].
type Grid map[string]map[Date]map[Daypart]float64

// Bottleneck is a capacity cell below 100% availability, for diagnostics.
type Bottleneck struct {
	RouteID          string
	Date             Date
	Daypart          Daypart
	AvailablePercent int
}

// Availability is the calculator output for one query window.
type Availability struct {
	Grid Grid
	// MinAvailableSOV is the worst cell across dates that still have any
	// capacity; fully exhausted dates are excluded so one sold-out day does
	// not mask the ceiling for the rest of the window. Zero when every date
	// is exhausted.
	MinAvailableSOV  float64
	UnavailableDates []Date
	Bottlenecks      []Bottleneck
}
