package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/nyashasa/ads-manager/internal/app"
	"github.com/nyashasa/ads-manager/internal/domain"
)

// Estimator is the minimal interface needed to price a prospective flight.
type Estimator interface {
	Estimate(ctx context.Context, in app.EstimateInput) (domain.Estimate, error)
}

// HandleEstimate returns an HTTP handler for impression and cost estimates.
func HandleEstimate(svc Estimator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req estimateRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		in, err := req.toInput()
		if err != nil {
			writeDomainError(w, err)
			return
		}

		estimate, err := svc.Estimate(r.Context(), in)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, newEstimateResponse(estimate))
	}
}

type estimateRequest struct {
	RouteIDs       []string `json:"route_ids"`
	CorridorIDs    []string `json:"corridor_ids"`
	StartDate      string   `json:"start_date"`
	EndDate        string   `json:"end_date"`
	DaysOfWeek     []int    `json:"days_of_week"`
	Dayparts       []string `json:"dayparts"`
	PlacementType  string   `json:"placement_type"`
	ShareOfVoice   float64  `json:"share_of_voice"`
	PricingModelID string   `json:"pricing_model_id"`
	ExcludeDates   []string `json:"exclude_dates"`
}

func (r estimateRequest) toInput() (app.EstimateInput, error) {
	start, end, err := parseDateRange(r.StartDate, r.EndDate)
	if err != nil {
		return app.EstimateInput{}, err
	}
	dayparts, err := parseDayparts(r.Dayparts)
	if err != nil {
		return app.EstimateInput{}, err
	}
	daysOfWeek, err := parseWeekdays(r.DaysOfWeek)
	if err != nil {
		return app.EstimateInput{}, err
	}
	excludeDates, err := parseExcludeDates(r.ExcludeDates)
	if err != nil {
		return app.EstimateInput{}, err
	}

	placement := domain.PlacementPortalBanner
	if r.PlacementType != "" {
		placement, err = domain.ParsePlacementType(r.PlacementType)
		if err != nil {
			return app.EstimateInput{}, err
		}
	}

	return app.EstimateInput{
		RouteIDs:       r.RouteIDs,
		CorridorIDs:    r.CorridorIDs,
		StartDate:      start,
		EndDate:        end,
		DaysOfWeek:     daysOfWeek,
		Dayparts:       dayparts,
		Placement:      placement,
		ShareOfVoice:   r.ShareOfVoice,
		PricingModelID: r.PricingModelID,
		ExcludeDates:   excludeDates,
	}, nil
}

type estimateResponse struct {
	TotalImpressions int64                   `json:"total_impressions"`
	EstimatedReach   int64                   `json:"estimated_reach"`
	AvgFrequency     float64                 `json:"avg_frequency"`
	CPM              float64                 `json:"cpm"`
	EstimatedCost    int64                   `json:"estimated_cost"`
	Breakdown        []routeEstimateResponse `json:"breakdown"`
}

type routeEstimateResponse struct {
	RouteID       string `json:"route_id"`
	Impressions   int64  `json:"impressions"`
	EstimatedCost int64  `json:"estimated_cost"`
}

func newEstimateResponse(e domain.Estimate) estimateResponse {
	breakdown := make([]routeEstimateResponse, 0, len(e.Breakdown))
	for _, b := range e.Breakdown {
		breakdown = append(breakdown, routeEstimateResponse{
			RouteID:       b.RouteID,
			Impressions:   b.Impressions,
			EstimatedCost: b.EstimatedCost,
		})
	}
	return estimateResponse{
		TotalImpressions: e.TotalImpressions,
		EstimatedReach:   e.EstimatedReach,
		AvgFrequency:     e.AvgFrequency,
		CPM:              e.CPM,
		EstimatedCost:    e.EstimatedCost,
		Breakdown:        breakdown,
	}
}
