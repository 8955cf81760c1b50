package domain

import (
	"encoding/json"
	"time"
)

// FlightStatus is the lifecycle state of a reservation.
type FlightStatus string

const (
	FlightDraft           FlightStatus = "draft"
	FlightPendingApproval FlightStatus = "pending_approval"
	FlightApproved        FlightStatus = "approved"
	FlightRejected        FlightStatus = "rejected"
	FlightActive          FlightStatus = "active"
	FlightCompleted       FlightStatus = "completed"
	FlightCancelled       FlightStatus = "cancelled"
)

// ParseFlightStatus validates a wire-format status value.
func ParseFlightStatus(s string) (FlightStatus, error) {
	switch FlightStatus(s) {
	case FlightDraft, FlightPendingApproval, FlightApproved, FlightRejected,
		FlightActive, FlightCompleted, FlightCancelled:
		return FlightStatus(s), nil
	}
	return "", ErrInvalidTransition
}

// CanTransitionTo reports whether the lifecycle allows moving to next.
// draft -> pending_approval -> approved|rejected; approved -> active ->
// completed|cancelled. approved may also be cancelled before going live.
func (s FlightStatus) CanTransitionTo(next FlightStatus) bool {
	switch s {
	case FlightDraft:
		return next == FlightPendingApproval
	case FlightPendingApproval:
		return next == FlightApproved || next == FlightRejected
	case FlightApproved:
		return next == FlightActive || next == FlightCancelled
	case FlightActive:
		return next == FlightCompleted || next == FlightCancelled
	}
	return false
}

// StrictStatuses are the statuses that count toward hard capacity
// commitment for booking-blocking availability.
func StrictStatuses() []FlightStatus {
	return []FlightStatus{FlightApproved, FlightActive}
}

// SoftStatuses additionally include not-yet-committed flights so operators
// can see upcoming contention.
func SoftStatuses() []FlightStatus {
	return []FlightStatus{FlightDraft, FlightPendingApproval, FlightApproved, FlightActive}
}

// Flight is a claim on capacity: a set of routes for an inclusive date
// range and daypart set at a share of voice. Flights are never deleted,
// only transitioned.
type Flight struct {
	ID         string
	CampaignID string
	Name       string
	RouteIDs   []string
	StartDate  Date
	EndDate    Date
	Dayparts   []Daypart
	DaysOfWeek []time.Weekday
	// ShareOfVoice is nil on legacy rows that only carry a pricing snapshot.
	ShareOfVoice    *float64
	PricingSnapshot json.RawMessage
	Status          FlightStatus
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// EffectiveDayparts resolves an empty daypart set to the full day.
func (f Flight) EffectiveDayparts() []Daypart {
	return NormalizeDayparts(f.Dayparts)
}

// Overlaps reports whether the flight window shares a day with [start,end].
func (f Flight) Overlaps(start, end Date) bool {
	return RangesOverlap(f.StartDate, f.EndDate, start, end)
}

// CoversRoute reports whether the flight books capacity on the route.
func (f Flight) CoversRoute(routeID string) bool {
	for _, id := range f.RouteIDs {
		if id == routeID {
			return true
		}
	}
	return false
}

// EffectiveSOV resolves the flight's booked share of voice. Explicit values
// are normalized (legacy percent encodings divided by 100, then clamped).
// Rows without an explicit value fall back to the shareOfVoice recorded in
// the pricing snapshot; when a non-empty snapshot carries no usable value
// the caller-supplied legacy fallback is booked instead of zero.
func (f Flight) EffectiveSOV(legacyFallback float64) float64 {
	if f.ShareOfVoice != nil {
		return NormalizeSOV(*f.ShareOfVoice)
	}
	if len(f.PricingSnapshot) == 0 {
		return 0
	}

	var snapshot struct {
		ShareOfVoice float64 `json:"shareOfVoice"`
	}
	if err := json.Unmarshal(f.PricingSnapshot, &snapshot); err == nil && snapshot.ShareOfVoice > 0 {
		return NormalizeSOV(snapshot.ShareOfVoice)
	}
	return NormalizeSOV(legacyFallback)
}
