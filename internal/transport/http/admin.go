package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/nyashasa/ads-manager/internal/app"
	"github.com/nyashasa/ads-manager/internal/domain"
)

// RouteAdmin is the minimal interface for route catalog maintenance.
type RouteAdmin interface {
	UpsertRoute(ctx context.Context, in app.UpsertRouteInput) (domain.Route, error)
	ListRoutes(ctx context.Context) ([]domain.Route, error)
}

// PricingAdmin is the minimal interface for pricing model maintenance.
type PricingAdmin interface {
	CreatePricingModel(ctx context.Context, in app.CreatePricingModelInput) (domain.PricingModel, error)
	ActivatePricingModel(ctx context.Context, id string) error
	ListPricingModels(ctx context.Context) ([]domain.PricingModel, error)
}

// HandleUpsertRoute returns an HTTP handler for creating or replacing
// catalog routes.
func HandleUpsertRoute(svc RouteAdmin) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req upsertRouteRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		route, err := svc.UpsertRoute(r.Context(), app.UpsertRouteInput{
			ID:                      req.ID,
			Code:                    req.Code,
			Name:                    req.Name,
			CorridorID:              req.CorridorID,
			Tier:                    domain.RouteTier(req.Tier),
			EstimatedDailyRidership: req.EstimatedDailyRidership,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, newRouteResponse(route))
	}
}

// HandleListRoutes returns an HTTP handler listing the route catalog.
func HandleListRoutes(svc RouteAdmin) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		routes, err := svc.ListRoutes(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}

		out := make([]routeResponse, 0, len(routes))
		for _, route := range routes {
			out = append(out, newRouteResponse(route))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

// HandleCreatePricingModel returns an HTTP handler for registering pricing
// configurations.
func HandleCreatePricingModel(svc PricingAdmin) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createPricingModelRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		model, err := svc.CreatePricingModel(r.Context(), app.CreatePricingModelInput{
			Name:         req.Name,
			Type:         req.Type,
			ApplicableTo: req.ApplicableTo,
			Config:       req.Config,
			Activate:     req.Activate,
		})
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusCreated, newPricingModelResponse(model))
	}
}

// HandleActivatePricingModel returns an HTTP handler that makes a pricing
// model the single active one.
func HandleActivatePricingModel(svc PricingAdmin) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := chi.URLParam(r, "modelID")
		if err := svc.ActivatePricingModel(r.Context(), id); err != nil {
			writeDomainError(w, err)
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

// HandleListPricingModels returns an HTTP handler listing pricing models,
// newest first.
func HandleListPricingModels(svc PricingAdmin) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		models, err := svc.ListPricingModels(r.Context())
		if err != nil {
			writeDomainError(w, err)
			return
		}

		out := make([]pricingModelResponse, 0, len(models))
		for _, model := range models {
			out = append(out, newPricingModelResponse(model))
		}
		writeJSON(w, http.StatusOK, out)
	}
}

type upsertRouteRequest struct {
	ID                      string `json:"id"`
	Code                    string `json:"code"`
	Name                    string `json:"name"`
	CorridorID              string `json:"corridor_id"`
	Tier                    string `json:"tier"`
	EstimatedDailyRidership int    `json:"estimated_daily_ridership"`
}

type routeResponse struct {
	ID                      string    `json:"id"`
	Code                    string    `json:"code"`
	Name                    string    `json:"name"`
	CorridorID              string    `json:"corridor_id,omitempty"`
	Tier                    string    `json:"tier"`
	EstimatedDailyRidership int       `json:"estimated_daily_ridership"`
	CreatedAt               time.Time `json:"created_at"`
}

func newRouteResponse(r domain.Route) routeResponse {
	return routeResponse{
		ID:                      r.ID,
		Code:                    r.Code,
		Name:                    r.Name,
		CorridorID:              r.CorridorID,
		Tier:                    string(r.Tier),
		EstimatedDailyRidership: r.EstimatedDailyRidership,
		CreatedAt:               r.CreatedAt,
	}
}

type createPricingModelRequest struct {
	Name         string               `json:"name"`
	Type         string               `json:"type"`
	ApplicableTo string               `json:"applicable_to"`
	Config       domain.PricingConfig `json:"config"`
	Activate     bool                 `json:"activate"`
}

type pricingModelResponse struct {
	ID           string               `json:"id"`
	Name         string               `json:"name"`
	Type         string               `json:"type,omitempty"`
	ApplicableTo string               `json:"applicable_to,omitempty"`
	Active       bool                 `json:"active"`
	Config       domain.PricingConfig `json:"config"`
	CreatedAt    time.Time            `json:"created_at"`
}

func newPricingModelResponse(m domain.PricingModel) pricingModelResponse {
	return pricingModelResponse{
		ID:           m.ID,
		Name:         m.Name,
		Type:         m.Type,
		ApplicableTo: m.ApplicableTo,
		Active:       m.Active,
		Config:       m.Config,
		CreatedAt:    m.CreatedAt,
	}
}
