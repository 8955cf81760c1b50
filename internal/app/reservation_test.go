package app

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nyashasa/ads-manager/internal/clock"
	"github.com/nyashasa/ads-manager/internal/domain"
)

type fakeReservationRepo struct {
	routes    map[string]bool
	flights   []domain.Flight
	lockedIDs []string
	createErr error
	listErr   error
}

func newFakeReservationRepo(routeIDs []string, flights []domain.Flight) *fakeReservationRepo {
	routes := make(map[string]bool, len(routeIDs))
	for _, id := range routeIDs {
		routes[id] = true
	}
	return &fakeReservationRepo{routes: routes, flights: flights}
}

func (r *fakeReservationRepo) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (r *fakeReservationRepo) LockRoutes(_ context.Context, routeIDs []string) error {
	for _, id := range routeIDs {
		if !r.routes[id] {
			return domain.ErrRouteNotFound
		}
	}
	r.lockedIDs = routeIDs
	return nil
}

func (r *fakeReservationRepo) ListOverlappingFlights(_ context.Context, statuses []domain.FlightStatus, start, end domain.Date) ([]domain.Flight, error) {
	if r.listErr != nil {
		return nil, r.listErr
	}
	wanted := make(map[domain.FlightStatus]bool, len(statuses))
	for _, s := range statuses {
		wanted[s] = true
	}
	out := make([]domain.Flight, 0, len(r.flights))
	for _, f := range r.flights {
		if wanted[f.Status] && f.Overlaps(start, end) {
			out = append(out, f)
		}
	}
	return out, nil
}

func (r *fakeReservationRepo) CreateFlight(_ context.Context, f domain.Flight) error {
	if r.createErr != nil {
		return r.createErr
	}
	r.flights = append(r.flights, f)
	return nil
}

func (r *fakeReservationRepo) GetFlightForUpdate(_ context.Context, id string) (domain.Flight, error) {
	for _, f := range r.flights {
		if f.ID == id {
			return f, nil
		}
	}
	return domain.Flight{}, domain.ErrFlightNotFound
}

func (r *fakeReservationRepo) UpdateFlightStatus(_ context.Context, id string, status domain.FlightStatus, updatedAt time.Time) error {
	for i, f := range r.flights {
		if f.ID == id {
			r.flights[i].Status = status
			r.flights[i].UpdatedAt = updatedAt
			return nil
		}
	}
	return domain.ErrFlightNotFound
}

func TestReservationService_TryReserve(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

	d := func(s string) domain.Date {
		parsed, err := domain.ParseDate(s)
		if err != nil {
			t.Fatalf("parse %s: %v", s, err)
		}
		return parsed
	}

	t.Run("accepts when capacity allows", func(t *testing.T) {
		repo := newFakeReservationRepo([]string{"route-1"}, []domain.Flight{{
			ID:           "existing",
			RouteIDs:     []string{"route-1"},
			StartDate:    d("2025-06-01"),
			EndDate:      d("2025-06-10"),
			ShareOfVoice: sovPtr(0.6),
			Status:       domain.FlightApproved,
		}})
		svc := NewReservationService(repo, clock.NewFixed(now))

		res, err := svc.TryReserve(context.Background(), TryReserveInput{
			Name:         "Summer push",
			RouteIDs:     []string{"route-1"},
			StartDate:    d("2025-06-01"),
			EndDate:      d("2025-06-10"),
			ShareOfVoice: 0.4,
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !res.Accepted {
			t.Fatalf("expected acceptance, got ceiling %v", res.MaxAvailableSOV)
		}
		if res.Flight.Status != domain.FlightPendingApproval {
			t.Fatalf("expected pending_approval, got %s", res.Flight.Status)
		}
		if res.Flight.ShareOfVoice == nil || *res.Flight.ShareOfVoice != 0.4 {
			t.Fatalf("expected stored SOV 0.4, got %v", res.Flight.ShareOfVoice)
		}
		if res.Flight.CreatedAt != now {
			t.Fatalf("expected created_at %v, got %v", now, res.Flight.CreatedAt)
		}
		if len(repo.lockedIDs) != 1 {
			t.Fatalf("expected route lock taken, got %v", repo.lockedIDs)
		}
	})

	t.Run("accepts percent-encoded share of voice", func(t *testing.T) {
		repo := newFakeReservationRepo([]string{"route-1"}, nil)
		svc := NewReservationService(repo, clock.NewFixed(now))

		res, err := svc.TryReserve(context.Background(), TryReserveInput{
			RouteIDs:     []string{"route-1"},
			StartDate:    d("2025-06-01"),
			EndDate:      d("2025-06-07"),
			ShareOfVoice: 40,
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !res.Accepted || *res.Flight.ShareOfVoice != 0.4 {
			t.Fatalf("expected normalized 0.4, got %+v", res)
		}
	})

	t.Run("rejects with observed ceiling", func(t *testing.T) {
		repo := newFakeReservationRepo([]string{"route-1"}, []domain.Flight{{
			ID:           "existing",
			RouteIDs:     []string{"route-1"},
			StartDate:    d("2025-06-01"),
			EndDate:      d("2025-06-10"),
			ShareOfVoice: sovPtr(0.7),
			Status:       domain.FlightActive,
		}})
		svc := NewReservationService(repo, clock.NewFixed(now))

		res, err := svc.TryReserve(context.Background(), TryReserveInput{
			RouteIDs:     []string{"route-1"},
			StartDate:    d("2025-06-03"),
			EndDate:      d("2025-06-05"),
			ShareOfVoice: 0.5,
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if res.Accepted {
			t.Fatalf("expected rejection")
		}
		if res.MaxAvailableSOV < 0.3-1e-9 || res.MaxAvailableSOV > 0.3+1e-9 {
			t.Fatalf("expected ceiling 0.3, got %v", res.MaxAvailableSOV)
		}
		if len(repo.flights) != 1 {
			t.Fatalf("rejected reservation must not be persisted")
		}
	})

	t.Run("rejects when any date exhausted and trimming disabled", func(t *testing.T) {
		repo := newFakeReservationRepo([]string{"route-1"}, []domain.Flight{{
			ID:           "soldout",
			RouteIDs:     []string{"route-1"},
			StartDate:    d("2025-06-04"),
			EndDate:      d("2025-06-04"),
			ShareOfVoice: sovPtr(1.0),
			Status:       domain.FlightApproved,
		}})
		svc := NewReservationService(repo, clock.NewFixed(now))

		res, err := svc.TryReserve(context.Background(), TryReserveInput{
			RouteIDs:     []string{"route-1"},
			StartDate:    d("2025-06-01"),
			EndDate:      d("2025-06-07"),
			ShareOfVoice: 0.1,
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if res.Accepted {
			t.Fatalf("expected rejection")
		}
		if res.MaxAvailableSOV != 0 {
			t.Fatalf("expected ceiling 0, got %v", res.MaxAvailableSOV)
		}
	})

	t.Run("trims to the longest open run", func(t *testing.T) {
		repo := newFakeReservationRepo([]string{"route-1"}, []domain.Flight{{
			ID:           "soldout",
			RouteIDs:     []string{"route-1"},
			StartDate:    d("2025-06-03"),
			EndDate:      d("2025-06-03"),
			ShareOfVoice: sovPtr(1.0),
			Status:       domain.FlightApproved,
		}})
		svc := NewReservationService(repo, clock.NewFixed(now))

		// June 1-2 open (2 days), June 3 exhausted, June 4-7 open (4 days).
		res, err := svc.TryReserve(context.Background(), TryReserveInput{
			RouteIDs:        []string{"route-1"},
			StartDate:       d("2025-06-01"),
			EndDate:         d("2025-06-07"),
			ShareOfVoice:    0.5,
			TrimToAvailable: true,
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !res.Accepted {
			t.Fatalf("expected acceptance, got ceiling %v", res.MaxAvailableSOV)
		}
		if !res.Flight.StartDate.Equal(d("2025-06-04")) || !res.Flight.EndDate.Equal(d("2025-06-07")) {
			t.Fatalf("expected trimmed window 2025-06-04..2025-06-07, got %s..%s",
				res.Flight.StartDate, res.Flight.EndDate)
		}
	})

	t.Run("trim with every date exhausted rejects", func(t *testing.T) {
		repo := newFakeReservationRepo([]string{"route-1"}, []domain.Flight{{
			ID:           "soldout",
			RouteIDs:     []string{"route-1"},
			StartDate:    d("2025-06-01"),
			EndDate:      d("2025-06-07"),
			ShareOfVoice: sovPtr(1.0),
			Status:       domain.FlightActive,
		}})
		svc := NewReservationService(repo, clock.NewFixed(now))

		res, err := svc.TryReserve(context.Background(), TryReserveInput{
			RouteIDs:        []string{"route-1"},
			StartDate:       d("2025-06-01"),
			EndDate:         d("2025-06-07"),
			ShareOfVoice:    0.1,
			TrimToAvailable: true,
		})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if res.Accepted || res.MaxAvailableSOV != 0 {
			t.Fatalf("expected rejection with ceiling 0, got %+v", res)
		}
	})

	t.Run("input validation", func(t *testing.T) {
		repo := newFakeReservationRepo([]string{"route-1"}, nil)
		svc := NewReservationService(repo, clock.NewFixed(now))

		_, err := svc.TryReserve(context.Background(), TryReserveInput{
			StartDate:    d("2025-06-01"),
			EndDate:      d("2025-06-07"),
			ShareOfVoice: 0.5,
		})
		if !errors.Is(err, domain.ErrNoRoutes) {
			t.Fatalf("expected ErrNoRoutes, got %v", err)
		}

		_, err = svc.TryReserve(context.Background(), TryReserveInput{
			RouteIDs:     []string{"route-1"},
			StartDate:    d("2025-06-07"),
			EndDate:      d("2025-06-01"),
			ShareOfVoice: 0.5,
		})
		if !errors.Is(err, domain.ErrInvalidDateRange) {
			t.Fatalf("expected ErrInvalidDateRange, got %v", err)
		}

		for _, bad := range []float64{0, -0.5} {
			_, err = svc.TryReserve(context.Background(), TryReserveInput{
				RouteIDs:     []string{"route-1"},
				StartDate:    d("2025-06-01"),
				EndDate:      d("2025-06-07"),
				ShareOfVoice: bad,
			})
			if !errors.Is(err, domain.ErrInvalidShareOfVoice) {
				t.Fatalf("expected ErrInvalidShareOfVoice for %v, got %v", bad, err)
			}
		}
	})

	t.Run("unknown route fails the lock", func(t *testing.T) {
		repo := newFakeReservationRepo([]string{"route-1"}, nil)
		svc := NewReservationService(repo, clock.NewFixed(now))

		_, err := svc.TryReserve(context.Background(), TryReserveInput{
			RouteIDs:     []string{"route-404"},
			StartDate:    d("2025-06-01"),
			EndDate:      d("2025-06-07"),
			ShareOfVoice: 0.5,
		})
		if !errors.Is(err, domain.ErrRouteNotFound) {
			t.Fatalf("expected ErrRouteNotFound, got %v", err)
		}
	})
}

func TestReservationService_Transition(t *testing.T) {
	t.Parallel()

	now := time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

	d := func(s string) domain.Date {
		parsed, err := domain.ParseDate(s)
		if err != nil {
			t.Fatalf("parse %s: %v", s, err)
		}
		return parsed
	}

	pending := domain.Flight{
		ID:           "flight-1",
		RouteIDs:     []string{"route-1"},
		StartDate:    d("2025-06-01"),
		EndDate:      d("2025-06-07"),
		ShareOfVoice: sovPtr(0.5),
		Status:       domain.FlightPendingApproval,
	}

	t.Run("approves when capacity still holds", func(t *testing.T) {
		repo := newFakeReservationRepo([]string{"route-1"}, []domain.Flight{pending})
		svc := NewReservationService(repo, clock.NewFixed(now))

		res, err := svc.Transition(context.Background(), "flight-1", domain.FlightApproved)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if res.Rejected {
			t.Fatalf("expected approval, got ceiling %v", res.MaxAvailableSOV)
		}
		if res.Flight.Status != domain.FlightApproved {
			t.Fatalf("expected approved, got %s", res.Flight.Status)
		}
		if repo.flights[0].Status != domain.FlightApproved {
			t.Fatalf("expected persisted status change")
		}
	})

	t.Run("approval re-check rejects when capacity was taken", func(t *testing.T) {
		competitor := domain.Flight{
			ID:           "flight-2",
			RouteIDs:     []string{"route-1"},
			StartDate:    d("2025-06-01"),
			EndDate:      d("2025-06-07"),
			ShareOfVoice: sovPtr(0.7),
			Status:       domain.FlightApproved,
		}
		repo := newFakeReservationRepo([]string{"route-1"}, []domain.Flight{pending, competitor})
		svc := NewReservationService(repo, clock.NewFixed(now))

		res, err := svc.Transition(context.Background(), "flight-1", domain.FlightApproved)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !res.Rejected {
			t.Fatalf("expected capacity rejection")
		}
		if res.MaxAvailableSOV < 0.3-1e-9 || res.MaxAvailableSOV > 0.3+1e-9 {
			t.Fatalf("expected ceiling 0.3, got %v", res.MaxAvailableSOV)
		}
		if repo.flights[0].Status != domain.FlightPendingApproval {
			t.Fatalf("rejected approval must leave flight pending")
		}
	})

	t.Run("approval ignores the flight's own pending claim", func(t *testing.T) {
		// pending flights are not strict capacity, but the exclusion also
		// covers re-running an approval after a partial failure
		approvedSelf := pending
		approvedSelf.Status = domain.FlightPendingApproval
		repo := newFakeReservationRepo([]string{"route-1"}, []domain.Flight{approvedSelf})
		svc := NewReservationService(repo, clock.NewFixed(now))

		res, err := svc.Transition(context.Background(), "flight-1", domain.FlightApproved)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if res.Rejected {
			t.Fatalf("flight must not compete with itself")
		}
	})

	t.Run("illegal transition", func(t *testing.T) {
		repo := newFakeReservationRepo([]string{"route-1"}, []domain.Flight{pending})
		svc := NewReservationService(repo, clock.NewFixed(now))

		_, err := svc.Transition(context.Background(), "flight-1", domain.FlightCompleted)
		if !errors.Is(err, domain.ErrInvalidTransition) {
			t.Fatalf("expected ErrInvalidTransition, got %v", err)
		}
	})

	t.Run("unknown flight", func(t *testing.T) {
		repo := newFakeReservationRepo([]string{"route-1"}, nil)
		svc := NewReservationService(repo, clock.NewFixed(now))

		_, err := svc.Transition(context.Background(), "missing", domain.FlightApproved)
		if !errors.Is(err, domain.ErrFlightNotFound) {
			t.Fatalf("expected ErrFlightNotFound, got %v", err)
		}
	})

	t.Run("missing id", func(t *testing.T) {
		repo := newFakeReservationRepo([]string{"route-1"}, nil)
		svc := NewReservationService(repo, clock.NewFixed(now))

		_, err := svc.Transition(context.Background(), "", domain.FlightApproved)
		if !errors.Is(err, domain.ErrInvalidID) {
			t.Fatalf("expected ErrInvalidID, got %v", err)
		}
	})

	t.Run("non-approval transitions skip the capacity check", func(t *testing.T) {
		active := pending
		active.Status = domain.FlightActive
		repo := newFakeReservationRepo([]string{"route-1"}, []domain.Flight{active})
		svc := NewReservationService(repo, clock.NewFixed(now))

		res, err := svc.Transition(context.Background(), "flight-1", domain.FlightCancelled)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if res.Flight.Status != domain.FlightCancelled {
			t.Fatalf("expected cancelled, got %s", res.Flight.Status)
		}
	})
}

func TestLongestOpenRun(t *testing.T) {
	t.Parallel()

	d := func(day int) domain.Date {
		return domain.NewDate(2025, time.June, day)
	}

	t.Run("no exhausted dates", func(t *testing.T) {
		start, end, ok := longestOpenRun(d(1), d(7), nil)
		if !ok || !start.Equal(d(1)) || !end.Equal(d(7)) {
			t.Fatalf("expected full window, got %s..%s ok=%v", start, end, ok)
		}
	})

	t.Run("picks the longest run", func(t *testing.T) {
		start, end, ok := longestOpenRun(d(1), d(7), []domain.Date{d(3)})
		if !ok || !start.Equal(d(4)) || !end.Equal(d(7)) {
			t.Fatalf("expected 4..7, got %s..%s ok=%v", start, end, ok)
		}
	})

	t.Run("ties go to the earliest run", func(t *testing.T) {
		start, end, ok := longestOpenRun(d(1), d(5), []domain.Date{d(3)})
		if !ok || !start.Equal(d(1)) || !end.Equal(d(2)) {
			t.Fatalf("expected 1..2, got %s..%s ok=%v", start, end, ok)
		}
	})

	t.Run("everything exhausted", func(t *testing.T) {
		_, _, ok := longestOpenRun(d(1), d(2), []domain.Date{d(1), d(2)})
		if ok {
			t.Fatalf("expected no open run")
		}
	})
}
