package app

import (
	"context"
	"errors"

	"github.com/nyashasa/ads-manager/internal/domain"
)

// soldOutEpsilon guards the exhausted-cell comparison against float drift
// from repeated SOV subtraction.
const soldOutEpsilon = 1e-9

// defaultLegacySOVFallback is booked for legacy flights that carry a pricing
// snapshot but no usable share-of-voice field. Deliberately conservative.
const defaultLegacySOVFallback = 0.5

// FlightLedger is the read side of the capacity ledger.
type FlightLedger interface {
	ListOverlappingFlights(ctx context.Context, statuses []domain.FlightStatus, start, end domain.Date) ([]domain.Flight, error)
}

// AvailabilityQuery describes one remaining-capacity question.
type AvailabilityQuery struct {
	RouteIDs  []string
	StartDate domain.Date
	EndDate   domain.Date
	Dayparts  []domain.Daypart
	// ExcludeFlightID removes one flight from the booked view, e.g. when
	// re-validating an existing reservation against its own window.
	ExcludeFlightID string
	Mode            domain.AvailabilityMode
}

func (q AvailabilityQuery) validate() error {
	if len(q.RouteIDs) == 0 {
		return domain.ErrNoRoutes
	}
	for _, id := range q.RouteIDs {
		if id == "" {
			return domain.ErrInvalidID
		}
	}
	if q.StartDate.IsZero() || q.EndDate.IsZero() {
		return domain.ErrInvalidDate
	}
	if q.StartDate.After(q.EndDate) {
		return domain.ErrInvalidDateRange
	}
	return nil
}

// AvailabilityService computes per-route/date/daypart remaining capacity
// over the flight ledger.
type AvailabilityService struct {
	ledger    FlightLedger
	legacySOV float64
}

type AvailabilityOption func(*AvailabilityService)

// WithLegacySOVFallback overrides the SOV booked for legacy flights whose
// pricing snapshot carries no explicit share of voice.
func WithLegacySOVFallback(v float64) AvailabilityOption {
	return func(s *AvailabilityService) {
		if v >= 0 && v <= 1 {
			s.legacySOV = v
		}
	}
}

func NewAvailabilityService(ledger FlightLedger, opts ...AvailabilityOption) *AvailabilityService {
	svc := &AvailabilityService{
		ledger:    ledger,
		legacySOV: defaultLegacySOVFallback,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

func (s *AvailabilityService) GetAvailability(ctx context.Context, q AvailabilityQuery) (domain.Availability, error) {
	if err := q.validate(); err != nil {
		return domain.Availability{}, err
	}

	flights, err := s.ledger.ListOverlappingFlights(ctx, q.Mode.Statuses(), q.StartDate, q.EndDate)
	if err != nil {
		return domain.Availability{}, errors.Join(domain.ErrLedgerUnavailable, err)
	}

	return computeAvailability(q, flights, s.legacySOV), nil
}

// computeAvailability is the pure capacity calculation: initialize every
// requested cell to 1.0, subtract each overlapping flight's SOV over the
// intersection of windows, routes and dayparts, then aggregate.
func computeAvailability(q AvailabilityQuery, flights []domain.Flight, legacySOV float64) domain.Availability {
	routeIDs := dedupeStrings(q.RouteIDs)
	dayparts := domain.NormalizeDayparts(q.Dayparts)
	days := q.StartDate.DaysUntil(q.EndDate) + 1

	grid := make(domain.Grid, len(routeIDs))
	for _, routeID := range routeIDs {
		byDate := make(map[domain.Date]map[domain.Daypart]float64, days)
		for d := q.StartDate; !d.After(q.EndDate); d = d.AddDays(1) {
			cells := make(map[domain.Daypart]float64, len(dayparts))
			for _, dp := range dayparts {
				cells[dp] = 1.0
			}
			byDate[d] = cells
		}
		grid[routeID] = byDate
	}

	for _, f := range flights {
		if q.ExcludeFlightID != "" && f.ID == q.ExcludeFlightID {
			continue
		}

		matching := make([]string, 0, len(routeIDs))
		for _, routeID := range routeIDs {
			if f.CoversRoute(routeID) {
				matching = append(matching, routeID)
			}
		}
		if len(matching) == 0 {
			continue
		}

		sov := f.EffectiveSOV(legacySOV)
		if sov <= 0 {
			continue
		}

		shared := domain.IntersectDayparts(f.Dayparts, dayparts)
		if len(shared) == 0 {
			continue
		}

		// Subtract only over the window intersection, not the full query.
		overlapStart, overlapEnd, ok := domain.OverlapRange(f.StartDate, f.EndDate, q.StartDate, q.EndDate)
		if !ok {
			continue
		}
		for d := overlapStart; !d.After(overlapEnd); d = d.AddDays(1) {
			for _, routeID := range matching {
				cells := grid[routeID][d]
				for _, dp := range shared {
					remaining := cells[dp] - sov
					if remaining < 0 {
						remaining = 0
					}
					cells[dp] = remaining
				}
			}
		}
	}

	return aggregateAvailability(q, routeIDs, dayparts, grid)
}

func aggregateAvailability(q AvailabilityQuery, routeIDs []string, dayparts []domain.Daypart, grid domain.Grid) domain.Availability {
	unavailable := make([]domain.Date, 0)
	exhausted := make(map[domain.Date]bool)
	for d := q.StartDate; !d.After(q.EndDate); d = d.AddDays(1) {
		dateMin := 1.0
		for _, routeID := range routeIDs {
			for _, dp := range dayparts {
				if v := grid[routeID][d][dp]; v < dateMin {
					dateMin = v
				}
			}
		}
		if dateMin <= soldOutEpsilon {
			exhausted[d] = true
			unavailable = append(unavailable, d)
		}
	}

	minAvailable := 1.0
	sawOpenDate := false
	bottlenecks := make([]domain.Bottleneck, 0)
	for _, routeID := range routeIDs {
		for d := q.StartDate; !d.After(q.EndDate); d = d.AddDays(1) {
			for _, dp := range dayparts {
				v := grid[routeID][d][dp]
				if v < 1.0 {
					bottlenecks = append(bottlenecks, domain.Bottleneck{
						RouteID:          routeID,
						Date:             d,
						Daypart:          dp,
						AvailablePercent: int(v*100 + 0.5),
					})
				}
				if exhausted[d] {
					continue
				}
				sawOpenDate = true
				if v < minAvailable {
					minAvailable = v
				}
			}
		}
	}
	// Every date exhausted: report zero, never a vacuous 1.0 minimum.
	if !sawOpenDate {
		minAvailable = 0
	}

	return domain.Availability{
		Grid:             grid,
		MinAvailableSOV:  minAvailable,
		UnavailableDates: unavailable,
		Bottlenecks:      bottlenecks,
	}
}

func dedupeStrings(in []string) []string {
	seen := make(map[string]bool, len(in))
	out := make([]string, 0, len(in))
	for _, s := range in {
		if seen[s] {
			continue
		}
		seen[s] = true
		out = append(out, s)
	}
	return out
}
