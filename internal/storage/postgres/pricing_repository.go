package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/nyashasa/ads-manager/internal/domain"
)

const pricingModelColumns = `id, name, type, applicable_to, is_active, config, created_at`

type PricingModelRepository struct {
	pool *pgxpool.Pool
}

func NewPricingModelRepository(pool *pgxpool.Pool) *PricingModelRepository {
	return &PricingModelRepository{pool: pool}
}

func (r *PricingModelRepository) CreatePricingModel(ctx context.Context, model domain.PricingModel) error {
	const stmt = `
INSERT INTO pricing_models (id, name, type, applicable_to, is_active, config, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

	config, err := json.Marshal(model.Config)
	if err != nil {
		return fmt.Errorf("marshal pricing config: %w", err)
	}

	_, err = r.exec(ctx, stmt,
		model.ID,
		model.Name,
		model.Type,
		model.ApplicableTo,
		model.Active,
		config,
		model.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicatePricingModel
		}
		if isInvalidUUID(err) {
			return domain.ErrInvalidID
		}
		return fmt.Errorf("create pricing model: %w", err)
	}
	return nil
}

// ActivatePricingModel makes the given model the single active one. The
// deactivate-then-activate pair runs in one transaction.
func (r *PricingModelRepository) ActivatePricingModel(ctx context.Context, id string) error {
	return withTx(ctx, r.pool, func(txCtx context.Context) error {
		if _, err := r.exec(txCtx, `UPDATE pricing_models SET is_active = FALSE WHERE is_active`); err != nil {
			return fmt.Errorf("deactivate pricing models: %w", err)
		}
		tag, err := r.exec(txCtx, `UPDATE pricing_models SET is_active = TRUE WHERE id = $1`, id)
		if err != nil {
			if isInvalidUUID(err) {
				return domain.ErrInvalidID
			}
			return fmt.Errorf("activate pricing model: %w", err)
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrPricingModelNotFound
		}
		return nil
	})
}

func (r *PricingModelRepository) GetPricingModel(ctx context.Context, id string) (domain.PricingModel, error) {
	query := `SELECT ` + pricingModelColumns + ` FROM pricing_models WHERE id = $1`

	model, err := scanPricingModel(r.queryRow(ctx, query, id))
	if err != nil {
		if isInvalidUUID(err) {
			return domain.PricingModel{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.PricingModel{}, domain.ErrPricingModelNotFound
		}
		return domain.PricingModel{}, fmt.Errorf("get pricing model: %w", err)
	}
	return model, nil
}

func (r *PricingModelRepository) GetActivePricingModel(ctx context.Context) (domain.PricingModel, error) {
	query := `SELECT ` + pricingModelColumns + ` FROM pricing_models WHERE is_active LIMIT 1`

	model, err := scanPricingModel(r.queryRow(ctx, query))
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.PricingModel{}, domain.ErrNoActivePricingModel
		}
		return domain.PricingModel{}, fmt.Errorf("get active pricing model: %w", err)
	}
	return model, nil
}

func (r *PricingModelRepository) ListPricingModels(ctx context.Context) ([]domain.PricingModel, error) {
	query := `SELECT ` + pricingModelColumns + ` FROM pricing_models ORDER BY created_at DESC`

	rows, err := r.query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list pricing models: %w", err)
	}
	defer rows.Close()

	models := make([]domain.PricingModel, 0)
	for rows.Next() {
		model, err := scanPricingModel(rows)
		if err != nil {
			return nil, fmt.Errorf("list pricing models: %w", err)
		}
		models = append(models, model)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list pricing models: %w", err)
	}
	return models, nil
}

func scanPricingModel(row pgx.Row) (domain.PricingModel, error) {
	var (
		model  domain.PricingModel
		config []byte
	)
	err := row.Scan(&model.ID, &model.Name, &model.Type, &model.ApplicableTo,
		&model.Active, &config, &model.CreatedAt)
	if err != nil {
		return domain.PricingModel{}, err
	}
	if len(config) > 0 {
		if err := json.Unmarshal(config, &model.Config); err != nil {
			return domain.PricingModel{}, fmt.Errorf("unmarshal pricing config: %w", err)
		}
	}
	return model, nil
}

func (r *PricingModelRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *PricingModelRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}

func (r *PricingModelRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}
