package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nyashasa/ads-manager/internal/domain"
)

const routeColumns = `id, code, name, corridor_id, tier, estimated_daily_ridership, created_at`

type RouteRepository struct {
	pool *pgxpool.Pool
}

func NewRouteRepository(pool *pgxpool.Pool) *RouteRepository {
	return &RouteRepository{pool: pool}
}

func (r *RouteRepository) UpsertRoute(ctx context.Context, route domain.Route) error {
	const stmt = `
INSERT INTO routes (id, code, name, corridor_id, tier, estimated_daily_ridership, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (id) DO UPDATE SET
	code = EXCLUDED.code,
	name = EXCLUDED.name,
	corridor_id = EXCLUDED.corridor_id,
	tier = EXCLUDED.tier,
	estimated_daily_ridership = EXCLUDED.estimated_daily_ridership`

	_, err := r.exec(ctx, stmt,
		route.ID,
		route.Code,
		route.Name,
		route.CorridorID,
		string(route.Tier),
		route.EstimatedDailyRidership,
		route.CreatedAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		if isUniqueViolation(err) {
			return domain.ErrDuplicateRouteCode
		}
		return fmt.Errorf("upsert route: %w", err)
	}
	return nil
}

func (r *RouteRepository) ListRoutes(ctx context.Context) ([]domain.Route, error) {
	query := `SELECT ` + routeColumns + ` FROM routes ORDER BY code`

	rows, err := r.query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list routes: %w", err)
	}
	defer rows.Close()
	return collectRoutes(rows)
}

func (r *RouteRepository) GetRoutesByIDs(ctx context.Context, ids []string) ([]domain.Route, error) {
	query := `SELECT ` + routeColumns + ` FROM routes WHERE id = ANY($1::uuid[]) ORDER BY code`

	rows, err := r.query(ctx, query, ids)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		return nil, fmt.Errorf("get routes by ids: %w", err)
	}
	defer rows.Close()
	return collectRoutes(rows)
}

func (r *RouteRepository) ListRoutesByCorridors(ctx context.Context, corridorIDs []string) ([]domain.Route, error) {
	query := `SELECT ` + routeColumns + ` FROM routes WHERE corridor_id = ANY($1) ORDER BY code`

	rows, err := r.query(ctx, query, corridorIDs)
	if err != nil {
		return nil, fmt.Errorf("list routes by corridors: %w", err)
	}
	defer rows.Close()
	return collectRoutes(rows)
}

func collectRoutes(rows pgx.Rows) ([]domain.Route, error) {
	routes := make([]domain.Route, 0)
	for rows.Next() {
		var (
			route domain.Route
			tier  string
		)
		if err := rows.Scan(&route.ID, &route.Code, &route.Name, &route.CorridorID,
			&tier, &route.EstimatedDailyRidership, &route.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan route: %w", err)
		}
		route.Tier = domain.RouteTier(tier)
		routes = append(routes, route)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("collect routes: %w", err)
	}
	return routes, nil
}

func (r *RouteRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *RouteRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}
