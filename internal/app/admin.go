package app

import (
	"context"

	"github.com/nyashasa/ads-manager/internal/clock"
	"github.com/nyashasa/ads-manager/internal/domain"
)

type RouteStore interface {
	UpsertRoute(ctx context.Context, route domain.Route) error
	ListRoutes(ctx context.Context) ([]domain.Route, error)
}

type PricingModelStore interface {
	CreatePricingModel(ctx context.Context, model domain.PricingModel) error
	ActivatePricingModel(ctx context.Context, id string) error
	ListPricingModels(ctx context.Context) ([]domain.PricingModel, error)
}

// AdminService maintains the route catalog and pricing models on behalf of
// the operator console.
type AdminService struct {
	routes  RouteStore
	pricing PricingModelStore
	clock   clock.Clock
}

func NewAdminService(routes RouteStore, pricing PricingModelStore, clk clock.Clock) *AdminService {
	return &AdminService{routes: routes, pricing: pricing, clock: clk}
}

type UpsertRouteInput struct {
	ID                      string
	Code                    string
	Name                    string
	CorridorID              string
	Tier                    domain.RouteTier
	EstimatedDailyRidership int
}

func (s *AdminService) UpsertRoute(ctx context.Context, in UpsertRouteInput) (domain.Route, error) {
	if in.Code == "" || in.Name == "" {
		return domain.Route{}, domain.ErrInvalidID
	}
	if _, err := domain.ParseRouteTier(string(in.Tier)); err != nil {
		return domain.Route{}, err
	}
	if in.EstimatedDailyRidership < 0 {
		return domain.Route{}, domain.ErrInvalidRidership
	}

	route := domain.Route{
		ID:                      in.ID,
		Code:                    in.Code,
		Name:                    in.Name,
		CorridorID:              in.CorridorID,
		Tier:                    in.Tier,
		EstimatedDailyRidership: in.EstimatedDailyRidership,
		CreatedAt:               s.clock.Now(),
	}
	if route.ID == "" {
		route.ID = newID()
	}

	if err := s.routes.UpsertRoute(ctx, route); err != nil {
		return domain.Route{}, err
	}
	return route, nil
}

func (s *AdminService) ListRoutes(ctx context.Context) ([]domain.Route, error) {
	return s.routes.ListRoutes(ctx)
}

type CreatePricingModelInput struct {
	Name         string
	Type         string
	ApplicableTo string
	Config       domain.PricingConfig
	Activate     bool
}

// CreatePricingModel validates and stores a pricing configuration. Models
// are created inactive unless Activate is set, in which case the new model
// atomically replaces the currently active one.
func (s *AdminService) CreatePricingModel(ctx context.Context, in CreatePricingModelInput) (domain.PricingModel, error) {
	if in.Name == "" {
		return domain.PricingModel{}, domain.ErrInvalidPricingConfig
	}
	if err := in.Config.Validate(); err != nil {
		return domain.PricingModel{}, err
	}

	model := domain.PricingModel{
		ID:           newID(),
		Name:         in.Name,
		Type:         in.Type,
		ApplicableTo: in.ApplicableTo,
		Config:       in.Config,
		CreatedAt:    s.clock.Now(),
	}
	if err := s.pricing.CreatePricingModel(ctx, model); err != nil {
		return domain.PricingModel{}, err
	}
	if in.Activate {
		if err := s.pricing.ActivatePricingModel(ctx, model.ID); err != nil {
			return domain.PricingModel{}, err
		}
		model.Active = true
	}
	return model, nil
}

func (s *AdminService) ActivatePricingModel(ctx context.Context, id string) error {
	if id == "" {
		return domain.ErrInvalidID
	}
	return s.pricing.ActivatePricingModel(ctx, id)
}

func (s *AdminService) ListPricingModels(ctx context.Context) ([]domain.PricingModel, error) {
	return s.pricing.ListPricingModels(ctx)
}
