package app

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/nyashasa/ads-manager/internal/clock"
	"github.com/nyashasa/ads-manager/internal/domain"
)

// ReservationRepository is the write side of the capacity ledger. The
// read-decide-write admission sequence runs inside WithTx with the affected
// route rows locked, so concurrent admissions on overlapping cells
// serialize instead of jointly overselling.
type ReservationRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	LockRoutes(ctx context.Context, routeIDs []string) error
	ListOverlappingFlights(ctx context.Context, statuses []domain.FlightStatus, start, end domain.Date) ([]domain.Flight, error)
	CreateFlight(ctx context.Context, f domain.Flight) error
	GetFlightForUpdate(ctx context.Context, id string) (domain.Flight, error)
	UpdateFlightStatus(ctx context.Context, id string, status domain.FlightStatus, updatedAt time.Time) error
}

// ReservationService is the admission controller: it gates new flights on
// strict availability and owns every status mutation of the ledger.
type ReservationService struct {
	repo      ReservationRepository
	clock     clock.Clock
	legacySOV float64
}

type ReservationOption func(*ReservationService)

// WithReservationLegacySOVFallback overrides the SOV assumed for legacy
// flights without an explicit share-of-voice field.
func WithReservationLegacySOVFallback(v float64) ReservationOption {
	return func(s *ReservationService) {
		if v >= 0 && v <= 1 {
			s.legacySOV = v
		}
	}
}

func NewReservationService(repo ReservationRepository, clk clock.Clock, opts ...ReservationOption) *ReservationService {
	svc := &ReservationService{
		repo:      repo,
		clock:     clk,
		legacySOV: defaultLegacySOVFallback,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

type TryReserveInput struct {
	CampaignID string
	Name       string
	RouteIDs   []string
	StartDate  domain.Date
	EndDate    domain.Date
	Dayparts   []domain.Daypart
	DaysOfWeek []time.Weekday
	// ShareOfVoice accepts a [0,1] fraction or a legacy 0-100 percent.
	ShareOfVoice    float64
	PricingSnapshot json.RawMessage
	// TrimToAvailable shrinks the window to the longest contiguous run of
	// non-exhausted dates instead of rejecting outright.
	TrimToAvailable bool
}

type TryReserveResult struct {
	Accepted bool
	// Flight is the committed reservation when Accepted; its dates are the
	// effective (possibly trimmed) window.
	Flight domain.Flight
	// MaxAvailableSOV is the observed ceiling when rejected, so the caller
	// can offer a reduced share or adjusted dates.
	MaxAvailableSOV float64
}

func (s *ReservationService) TryReserve(ctx context.Context, in TryReserveInput) (TryReserveResult, error) {
	if len(in.RouteIDs) == 0 {
		return TryReserveResult{}, domain.ErrNoRoutes
	}
	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		return TryReserveResult{}, domain.ErrInvalidDate
	}
	if in.StartDate.After(in.EndDate) {
		return TryReserveResult{}, domain.ErrInvalidDateRange
	}
	sov := in.ShareOfVoice
	if sov > 1 {
		sov = sov / 100
	}
	if sov <= 0 || sov > 1 {
		return TryReserveResult{}, domain.ErrInvalidShareOfVoice
	}

	now := s.clock.Now()
	var result TryReserveResult

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.LockRoutes(txCtx, sortedUnique(in.RouteIDs)); err != nil {
			return err
		}

		flights, err := s.repo.ListOverlappingFlights(txCtx, domain.StrictStatuses(), in.StartDate, in.EndDate)
		if err != nil {
			return err
		}

		query := AvailabilityQuery{
			RouteIDs:  in.RouteIDs,
			StartDate: in.StartDate,
			EndDate:   in.EndDate,
			Dayparts:  in.Dayparts,
			Mode:      domain.ModeStrict,
		}
		avail := computeAvailability(query, flights, s.legacySOV)

		effStart, effEnd := in.StartDate, in.EndDate
		ceiling := avail.MinAvailableSOV

		if len(avail.UnavailableDates) > 0 {
			if !in.TrimToAvailable {
				result = TryReserveResult{MaxAvailableSOV: 0}
				return nil
			}
			runStart, runEnd, ok := longestOpenRun(in.StartDate, in.EndDate, avail.UnavailableDates)
			if !ok {
				result = TryReserveResult{MaxAvailableSOV: 0}
				return nil
			}
			effStart, effEnd = runStart, runEnd
			ceiling = minOverWindow(avail.Grid, query, effStart, effEnd)
		}

		if sov > ceiling+soldOutEpsilon {
			result = TryReserveResult{MaxAvailableSOV: ceiling}
			return nil
		}

		flight := domain.Flight{
			ID:              newID(),
			CampaignID:      in.CampaignID,
			Name:            in.Name,
			RouteIDs:        sortedUnique(in.RouteIDs),
			StartDate:       effStart,
			EndDate:         effEnd,
			Dayparts:        domain.NormalizeDayparts(in.Dayparts),
			DaysOfWeek:      in.DaysOfWeek,
			ShareOfVoice:    &sov,
			PricingSnapshot: in.PricingSnapshot,
			Status:          domain.FlightPendingApproval,
			CreatedAt:       now,
			UpdatedAt:       now,
		}
		if err := s.repo.CreateFlight(txCtx, flight); err != nil {
			return err
		}

		result = TryReserveResult{Accepted: true, Flight: flight}
		return nil
	})
	if err != nil {
		return TryReserveResult{}, err
	}
	return result, nil
}

type TransitionResult struct {
	Flight domain.Flight
	// Rejected is set when an approval fails its capacity re-check; the
	// flight is left untouched.
	Rejected        bool
	MaxAvailableSOV float64
}

// Transition moves a flight along its lifecycle. Approval is the point
// where a pending flight starts counting toward strict capacity, so it
// re-validates availability under the same route locks as admission.
func (s *ReservationService) Transition(ctx context.Context, flightID string, next domain.FlightStatus) (TransitionResult, error) {
	if flightID == "" {
		return TransitionResult{}, domain.ErrInvalidID
	}

	now := s.clock.Now()
	var result TransitionResult

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		flight, err := s.repo.GetFlightForUpdate(txCtx, flightID)
		if err != nil {
			return err
		}
		if !flight.Status.CanTransitionTo(next) {
			return domain.ErrInvalidTransition
		}

		if next == domain.FlightApproved {
			if err := s.repo.LockRoutes(txCtx, sortedUnique(flight.RouteIDs)); err != nil {
				return err
			}
			flights, err := s.repo.ListOverlappingFlights(txCtx, domain.StrictStatuses(), flight.StartDate, flight.EndDate)
			if err != nil {
				return err
			}
			query := AvailabilityQuery{
				RouteIDs:        flight.RouteIDs,
				StartDate:       flight.StartDate,
				EndDate:         flight.EndDate,
				Dayparts:        flight.Dayparts,
				ExcludeFlightID: flight.ID,
				Mode:            domain.ModeStrict,
			}
			avail := computeAvailability(query, flights, s.legacySOV)
			ceiling := avail.MinAvailableSOV
			if len(avail.UnavailableDates) > 0 {
				ceiling = 0
			}
			if flight.EffectiveSOV(s.legacySOV) > ceiling+soldOutEpsilon {
				result = TransitionResult{Flight: flight, Rejected: true, MaxAvailableSOV: ceiling}
				return nil
			}
		}

		if err := s.repo.UpdateFlightStatus(txCtx, flight.ID, next, now); err != nil {
			return err
		}
		flight.Status = next
		flight.UpdatedAt = now
		result = TransitionResult{Flight: flight}
		return nil
	})
	if err != nil {
		return TransitionResult{}, err
	}
	return result, nil
}

// longestOpenRun finds the longest contiguous stretch of [start,end] that
// avoids every exhausted date. Ties go to the earliest run.
func longestOpenRun(start, end domain.Date, exhausted []domain.Date) (domain.Date, domain.Date, bool) {
	closed := make(map[domain.Date]bool, len(exhausted))
	for _, d := range exhausted {
		closed[d] = true
	}

	var bestStart, bestEnd domain.Date
	bestLen := 0
	var runStart domain.Date
	runLen := 0

	for d := start; !d.After(end); d = d.AddDays(1) {
		if closed[d] {
			runLen = 0
			continue
		}
		if runLen == 0 {
			runStart = d
		}
		runLen++
		if runLen > bestLen {
			bestLen = runLen
			bestStart = runStart
			bestEnd = d
		}
	}
	if bestLen == 0 {
		return domain.Date{}, domain.Date{}, false
	}
	return bestStart, bestEnd, true
}

// minOverWindow finds the worst cell of the grid restricted to [start,end].
func minOverWindow(grid domain.Grid, q AvailabilityQuery, start, end domain.Date) float64 {
	min := 1.0
	for _, routeID := range dedupeStrings(q.RouteIDs) {
		for d := start; !d.After(end); d = d.AddDays(1) {
			for _, dp := range domain.NormalizeDayparts(q.Dayparts) {
				if v := grid[routeID][d][dp]; v < min {
					min = v
				}
			}
		}
	}
	return min
}

func sortedUnique(in []string) []string {
	out := dedupeStrings(in)
	sort.Strings(out)
	return out
}
