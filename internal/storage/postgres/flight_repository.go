package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nyashasa/ads-manager/internal/domain"
)

const flightColumns = `id, campaign_id, name, route_ids::text[], start_date, end_date,
dayparts, days_of_week, share_of_voice, pricing_snapshot, status, created_at, updated_at`

type FlightRepository struct {
	pool *pgxpool.Pool
}

func NewFlightRepository(pool *pgxpool.Pool) *FlightRepository {
	return &FlightRepository{pool: pool}
}

func (r *FlightRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

// LockRoutes takes row locks on the given routes, in id order so concurrent
// admissions acquire them consistently. Missing routes fail the admission.
func (r *FlightRepository) LockRoutes(ctx context.Context, routeIDs []string) error {
	const query = `SELECT id FROM routes WHERE id = ANY($1::uuid[]) ORDER BY id FOR UPDATE`

	rows, err := r.query(ctx, query, routeIDs)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("lock routes: %w", err)
	}
	defer rows.Close()

	locked := 0
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return fmt.Errorf("lock routes: %w", err)
		}
		locked++
	}
	if err := rows.Err(); err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("lock routes: %w", err)
	}
	if locked != len(routeIDs) {
		return domain.ErrRouteNotFound
	}
	return nil
}

func (r *FlightRepository) ListOverlappingFlights(ctx context.Context, statuses []domain.FlightStatus, start, end domain.Date) ([]domain.Flight, error) {
	query := `
SELECT ` + flightColumns + `
FROM flights
WHERE status = ANY($1) AND start_date <= $3 AND end_date >= $2
ORDER BY created_at`

	statusArgs := make([]string, len(statuses))
	for i, s := range statuses {
		statusArgs[i] = string(s)
	}

	rows, err := r.query(ctx, query, statusArgs, start.Time(), end.Time())
	if err != nil {
		return nil, fmt.Errorf("list overlapping flights: %w", err)
	}
	defer rows.Close()

	flights := make([]domain.Flight, 0)
	for rows.Next() {
		f, err := scanFlight(rows)
		if err != nil {
			return nil, fmt.Errorf("list overlapping flights: %w", err)
		}
		flights = append(flights, f)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list overlapping flights: %w", err)
	}
	return flights, nil
}

func (r *FlightRepository) CreateFlight(ctx context.Context, f domain.Flight) error {
	const stmt = `
INSERT INTO flights (id, campaign_id, name, route_ids, start_date, end_date,
	dayparts, days_of_week, share_of_voice, pricing_snapshot, status, created_at, updated_at)
VALUES ($1, $2, $3, $4::uuid[], $5, $6, $7, $8, $9, $10, $11, $12, $13)`

	_, err := r.exec(ctx, stmt,
		f.ID,
		nullableString(f.CampaignID),
		f.Name,
		f.RouteIDs,
		f.StartDate.Time(),
		f.EndDate.Time(),
		daypartStrings(f.Dayparts),
		weekdayInts(f.DaysOfWeek),
		f.ShareOfVoice,
		[]byte(f.PricingSnapshot),
		string(f.Status),
		f.CreatedAt,
		f.UpdatedAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create flight: %w", err)
	}
	return nil
}

func (r *FlightRepository) GetFlightByID(ctx context.Context, id string) (domain.Flight, error) {
	return r.getFlight(ctx, id, false)
}

func (r *FlightRepository) GetFlightForUpdate(ctx context.Context, id string) (domain.Flight, error) {
	return r.getFlight(ctx, id, true)
}

func (r *FlightRepository) getFlight(ctx context.Context, id string, forUpdate bool) (domain.Flight, error) {
	query := `SELECT ` + flightColumns + ` FROM flights WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	f, err := scanFlight(r.queryRow(ctx, query, id))
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Flight{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Flight{}, domain.ErrFlightNotFound
		}
		return domain.Flight{}, fmt.Errorf("get flight: %w", err)
	}
	return f, nil
}

func (r *FlightRepository) UpdateFlightStatus(ctx context.Context, id string, status domain.FlightStatus, updatedAt time.Time) error {
	const stmt = `UPDATE flights SET status = $2, updated_at = $3 WHERE id = $1`

	tag, err := r.exec(ctx, stmt, id, string(status), updatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("update flight status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrFlightNotFound
	}
	return nil
}

func scanFlight(row pgx.Row) (domain.Flight, error) {
	var (
		f          domain.Flight
		campaignID *string
		start, end time.Time
		dayparts   []string
		daysOfWeek []int32
		snapshot   []byte
		status     string
	)
	err := row.Scan(
		&f.ID, &campaignID, &f.Name, &f.RouteIDs, &start, &end,
		&dayparts, &daysOfWeek, &f.ShareOfVoice, &snapshot, &status,
		&f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		return domain.Flight{}, err
	}
	if campaignID != nil {
		f.CampaignID = *campaignID
	}
	f.StartDate = domain.DateOf(start)
	f.EndDate = domain.DateOf(end)
	f.Dayparts = make([]domain.Daypart, len(dayparts))
	for i, dp := range dayparts {
		f.Dayparts[i] = domain.Daypart(dp)
	}
	f.DaysOfWeek = make([]time.Weekday, len(daysOfWeek))
	for i, d := range daysOfWeek {
		f.DaysOfWeek[i] = time.Weekday(d)
	}
	f.PricingSnapshot = snapshot
	f.Status = domain.FlightStatus(status)
	return f, nil
}

func daypartStrings(parts []domain.Daypart) []string {
	out := make([]string, len(parts))
	for i, p := range parts {
		out[i] = string(p)
	}
	return out
}

func weekdayInts(days []time.Weekday) []int32 {
	out := make([]int32, len(days))
	for i, d := range days {
		out[i] = int32(d)
	}
	return out
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func (r *FlightRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *FlightRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}

func (r *FlightRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}
