package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/nyashasa/ads-manager/internal/app"
	"github.com/nyashasa/ads-manager/internal/domain"
)

// AvailabilityReader is the minimal interface needed to answer
// remaining-capacity queries.
type AvailabilityReader interface {
	GetAvailability(ctx context.Context, q app.AvailabilityQuery) (domain.Availability, error)
}

// HandleAvailability returns an HTTP handler for availability queries.
func HandleAvailability(svc AvailabilityReader) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req availabilityRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		mode := domain.ModeStrict
		switch req.Mode {
		case "", string(domain.ModeStrict):
		case string(domain.ModeSoft):
			mode = domain.ModeSoft
		default:
			writeError(w, http.StatusBadRequest, codeInvalidMode, "mode must be strict or soft")
			return
		}

		q, err := req.toQuery(mode)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		availability, err := svc.GetAvailability(r.Context(), q)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		writeJSON(w, http.StatusOK, newAvailabilityResponse(availability))
	}
}

type availabilityRequest struct {
	RouteIDs        []string `json:"route_ids"`
	StartDate       string   `json:"start_date"`
	EndDate         string   `json:"end_date"`
	Dayparts        []string `json:"dayparts"`
	ExcludeFlightID string   `json:"exclude_flight_id"`
	Mode            string   `json:"mode"`
}

func (r availabilityRequest) toQuery(mode domain.AvailabilityMode) (app.AvailabilityQuery, error) {
	start, end, err := parseDateRange(r.StartDate, r.EndDate)
	if err != nil {
		return app.AvailabilityQuery{}, err
	}
	dayparts, err := parseDayparts(r.Dayparts)
	if err != nil {
		return app.AvailabilityQuery{}, err
	}

	return app.AvailabilityQuery{
		RouteIDs:        r.RouteIDs,
		StartDate:       start,
		EndDate:         end,
		Dayparts:        dayparts,
		ExcludeFlightID: r.ExcludeFlightID,
		Mode:            mode,
	}, nil
}

type availabilityResponse struct {
	Grid             map[string]map[string]map[string]float64 `json:"grid"`
	MinAvailableSOV  float64                                  `json:"min_available_sov"`
	UnavailableDates []string                                 `json:"unavailable_dates"`
	Bottlenecks      []bottleneckResponse                     `json:"bottlenecks"`
}

type bottleneckResponse struct {
	RouteID          string `json:"route_id"`
	Date             string `json:"date"`
	Daypart          string `json:"daypart"`
	AvailablePercent int    `json:"available_percent"`
}

func newAvailabilityResponse(a domain.Availability) availabilityResponse {
	grid := make(map[string]map[string]map[string]float64, len(a.Grid))
	for routeID, dates := range a.Grid {
		grid[routeID] = make(map[string]map[string]float64, len(dates))
		for date, cells := range dates {
			day := make(map[string]float64, len(cells))
			for dp, v := range cells {
				day[string(dp)] = roundSOV(v)
			}
			grid[routeID][date.String()] = day
		}
	}

	bottlenecks := make([]bottleneckResponse, 0, len(a.Bottlenecks))
	for _, b := range a.Bottlenecks {
		bottlenecks = append(bottlenecks, bottleneckResponse{
			RouteID:          b.RouteID,
			Date:             b.Date.String(),
			Daypart:          string(b.Daypart),
			AvailablePercent: b.AvailablePercent,
		})
	}

	return availabilityResponse{
		Grid:             grid,
		MinAvailableSOV:  roundSOV(a.MinAvailableSOV),
		UnavailableDates: dateStrings(a.UnavailableDates),
		Bottlenecks:      bottlenecks,
	}
}
