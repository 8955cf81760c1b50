package app

import (
	"context"
	"errors"
	"testing"

	"github.com/nyashasa/ads-manager/internal/domain"
)

type fakeFlightLedger struct {
	flights []domain.Flight
	err     error
}

func (f *fakeFlightLedger) ListOverlappingFlights(_ context.Context, statuses []domain.FlightStatus, start, end domain.Date) ([]domain.Flight, error) {
	if f.err != nil {
		return nil, f.err
	}
	wanted := make(map[domain.FlightStatus]bool, len(statuses))
	for _, s := range statuses {
		wanted[s] = true
	}
	out := make([]domain.Flight, 0, len(f.flights))
	for _, fl := range f.flights {
		if wanted[fl.Status] && fl.Overlaps(start, end) {
			out = append(out, fl)
		}
	}
	return out, nil
}

func sovPtr(v float64) *float64 { return &v }

func TestAvailabilityService_GetAvailability(t *testing.T) {
	t.Parallel()

	d := func(s string) domain.Date {
		parsed, err := domain.ParseDate(s)
		if err != nil {
			t.Fatalf("parse %s: %v", s, err)
		}
		return parsed
	}

	t.Run("empty ledger yields full availability", func(t *testing.T) {
		svc := NewAvailabilityService(&fakeFlightLedger{})

		got, err := svc.GetAvailability(context.Background(), AvailabilityQuery{
			RouteIDs:  []string{"route-1"},
			StartDate: d("2025-06-01"),
			EndDate:   d("2025-06-07"),
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got.MinAvailableSOV != 1.0 {
			t.Fatalf("expected minAvailableSOV 1.0, got %v", got.MinAvailableSOV)
		}
		if len(got.UnavailableDates) != 0 {
			t.Fatalf("expected no unavailable dates, got %v", got.UnavailableDates)
		}
		if len(got.Bottlenecks) != 0 {
			t.Fatalf("expected no bottlenecks, got %v", got.Bottlenecks)
		}
		for date := d("2025-06-01"); !date.After(d("2025-06-07")); date = date.AddDays(1) {
			for _, dp := range domain.AllDayparts() {
				if v := got.Grid["route-1"][date][dp]; v != 1.0 {
					t.Fatalf("expected 1.0 at %s/%s, got %v", date, dp, v)
				}
			}
		}
	})

	t.Run("single booked flight reduces every covered cell", func(t *testing.T) {
		svc := NewAvailabilityService(&fakeFlightLedger{flights: []domain.Flight{{
			ID:           "flight-1",
			RouteIDs:     []string{"route-1"},
			StartDate:    d("2025-06-01"),
			EndDate:      d("2025-06-10"),
			ShareOfVoice: sovPtr(0.6),
			Status:       domain.FlightApproved,
		}}})

		got, err := svc.GetAvailability(context.Background(), AvailabilityQuery{
			RouteIDs:  []string{"route-1"},
			StartDate: d("2025-06-03"),
			EndDate:   d("2025-06-05"),
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got.MinAvailableSOV < 0.4-1e-9 || got.MinAvailableSOV > 0.4+1e-9 {
			t.Fatalf("expected minAvailableSOV 0.4, got %v", got.MinAvailableSOV)
		}
		for date := d("2025-06-03"); !date.After(d("2025-06-05")); date = date.AddDays(1) {
			for _, dp := range domain.AllDayparts() {
				v := got.Grid["route-1"][date][dp]
				if v < 0.4-1e-9 || v > 0.4+1e-9 {
					t.Fatalf("expected 0.4 at %s/%s, got %v", date, dp, v)
				}
			}
		}
		if len(got.Bottlenecks) != 9 {
			t.Fatalf("expected 9 bottleneck cells, got %d", len(got.Bottlenecks))
		}
	})

	t.Run("fully overlapping flights exhaust the cell", func(t *testing.T) {
		overlap := domain.Flight{
			RouteIDs:     []string{"route-1"},
			StartDate:    d("2025-06-04"),
			EndDate:      d("2025-06-04"),
			Dayparts:     []domain.Daypart{domain.DaypartMorningPeak},
			ShareOfVoice: sovPtr(0.5),
			Status:       domain.FlightApproved,
		}
		second := overlap
		second.ID = "flight-2"
		overlap.ID = "flight-1"

		svc := NewAvailabilityService(&fakeFlightLedger{flights: []domain.Flight{overlap, second}})

		got, err := svc.GetAvailability(context.Background(), AvailabilityQuery{
			RouteIDs:  []string{"route-1"},
			StartDate: d("2025-06-03"),
			EndDate:   d("2025-06-05"),
			Dayparts:  []domain.Daypart{domain.DaypartMorningPeak},
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if v := got.Grid["route-1"][d("2025-06-04")][domain.DaypartMorningPeak]; v > 1e-9 {
			t.Fatalf("expected 0.0 at exhausted cell, got %v", v)
		}
		if len(got.UnavailableDates) != 1 || !got.UnavailableDates[0].Equal(d("2025-06-04")) {
			t.Fatalf("expected 2025-06-04 unavailable, got %v", got.UnavailableDates)
		}
		// the exhausted date is excluded from the minimum; the two open
		// dates are still fully available
		if got.MinAvailableSOV != 1.0 {
			t.Fatalf("expected minAvailableSOV 1.0, got %v", got.MinAvailableSOV)
		}
	})

	t.Run("every date exhausted reports zero", func(t *testing.T) {
		svc := NewAvailabilityService(&fakeFlightLedger{flights: []domain.Flight{{
			ID:           "flight-1",
			RouteIDs:     []string{"route-1"},
			StartDate:    d("2025-06-01"),
			EndDate:      d("2025-06-10"),
			ShareOfVoice: sovPtr(1.0),
			Status:       domain.FlightActive,
		}}})

		got, err := svc.GetAvailability(context.Background(), AvailabilityQuery{
			RouteIDs:  []string{"route-1"},
			StartDate: d("2025-06-02"),
			EndDate:   d("2025-06-03"),
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got.MinAvailableSOV != 0 {
			t.Fatalf("expected minAvailableSOV 0, got %v", got.MinAvailableSOV)
		}
		if len(got.UnavailableDates) != 2 {
			t.Fatalf("expected 2 unavailable dates, got %v", got.UnavailableDates)
		}
	})

	t.Run("strict mode ignores pending flights, soft mode counts them", func(t *testing.T) {
		ledger := &fakeFlightLedger{flights: []domain.Flight{{
			ID:           "flight-1",
			RouteIDs:     []string{"route-1"},
			StartDate:    d("2025-06-01"),
			EndDate:      d("2025-06-07"),
			ShareOfVoice: sovPtr(0.3),
			Status:       domain.FlightPendingApproval,
		}}}
		svc := NewAvailabilityService(ledger)

		q := AvailabilityQuery{
			RouteIDs:  []string{"route-1"},
			StartDate: d("2025-06-01"),
			EndDate:   d("2025-06-07"),
		}

		strict, err := svc.GetAvailability(context.Background(), q)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if strict.MinAvailableSOV != 1.0 {
			t.Fatalf("expected strict 1.0, got %v", strict.MinAvailableSOV)
		}

		q.Mode = domain.ModeSoft
		soft, err := svc.GetAvailability(context.Background(), q)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if soft.MinAvailableSOV < 0.7-1e-9 || soft.MinAvailableSOV > 0.7+1e-9 {
			t.Fatalf("expected soft 0.7, got %v", soft.MinAvailableSOV)
		}
	})

	t.Run("excluded flight does not count against itself", func(t *testing.T) {
		svc := NewAvailabilityService(&fakeFlightLedger{flights: []domain.Flight{{
			ID:           "flight-1",
			RouteIDs:     []string{"route-1"},
			StartDate:    d("2025-06-01"),
			EndDate:      d("2025-06-07"),
			ShareOfVoice: sovPtr(0.8),
			Status:       domain.FlightApproved,
		}}})

		got, err := svc.GetAvailability(context.Background(), AvailabilityQuery{
			RouteIDs:        []string{"route-1"},
			StartDate:       d("2025-06-01"),
			EndDate:         d("2025-06-07"),
			ExcludeFlightID: "flight-1",
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got.MinAvailableSOV != 1.0 {
			t.Fatalf("expected 1.0 with flight excluded, got %v", got.MinAvailableSOV)
		}
	})

	t.Run("legacy snapshot-only flight books the fallback share", func(t *testing.T) {
		svc := NewAvailabilityService(&fakeFlightLedger{flights: []domain.Flight{{
			ID:              "flight-1",
			RouteIDs:        []string{"route-1"},
			StartDate:       d("2025-06-01"),
			EndDate:         d("2025-06-07"),
			PricingSnapshot: []byte(`{"cpm": 120}`),
			Status:          domain.FlightApproved,
		}}})

		got, err := svc.GetAvailability(context.Background(), AvailabilityQuery{
			RouteIDs:  []string{"route-1"},
			StartDate: d("2025-06-01"),
			EndDate:   d("2025-06-07"),
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if got.MinAvailableSOV < 0.5-1e-9 || got.MinAvailableSOV > 0.5+1e-9 {
			t.Fatalf("expected fallback-booked 0.5, got %v", got.MinAvailableSOV)
		}
	})

	t.Run("query validation", func(t *testing.T) {
		svc := NewAvailabilityService(&fakeFlightLedger{})

		_, err := svc.GetAvailability(context.Background(), AvailabilityQuery{
			StartDate: d("2025-06-01"),
			EndDate:   d("2025-06-07"),
		})
		if !errors.Is(err, domain.ErrNoRoutes) {
			t.Fatalf("expected ErrNoRoutes, got %v", err)
		}

		_, err = svc.GetAvailability(context.Background(), AvailabilityQuery{
			RouteIDs:  []string{"route-1"},
			StartDate: d("2025-06-07"),
			EndDate:   d("2025-06-01"),
		})
		if !errors.Is(err, domain.ErrInvalidDateRange) {
			t.Fatalf("expected ErrInvalidDateRange, got %v", err)
		}
	})

	t.Run("ledger failure surfaces as unavailable", func(t *testing.T) {
		svc := NewAvailabilityService(&fakeFlightLedger{err: errors.New("connection refused")})

		_, err := svc.GetAvailability(context.Background(), AvailabilityQuery{
			RouteIDs:  []string{"route-1"},
			StartDate: d("2025-06-01"),
			EndDate:   d("2025-06-07"),
		})
		if !errors.Is(err, domain.ErrLedgerUnavailable) {
			t.Fatalf("expected ErrLedgerUnavailable, got %v", err)
		}
	})
}
