package http

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/nyashasa/ads-manager/internal/app"
	"github.com/nyashasa/ads-manager/internal/domain"
)

// ReservationCreator is the minimal interface needed to admit reservations.
type ReservationCreator interface {
	TryReserve(ctx context.Context, in app.TryReserveInput) (app.TryReserveResult, error)
}

// HandleCreateReservation returns an HTTP handler for flight admission.
// An accepted reservation is created in pending_approval and already counts
// toward soft availability; a capacity rejection reports the observed
// ceiling so the caller can retry with a reduced share.
func HandleCreateReservation(svc ReservationCreator) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req createReservationRequest
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

		res, err := svc.TryReserve(r.Context(), in)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		if !res.Accepted {
			writeJSON(w, http.StatusConflict, reservationRejectedResponse{
				Accepted:        false,
				Code:            codeCapacityExceeded,
				MaxAvailableSOV: roundSOV(res.MaxAvailableSOV),
			})
			return
		}

		writeJSON(w, http.StatusCreated, reservationAcceptedResponse{
			Accepted: true,
			Flight:   newFlightResponse(res.Flight),
		})
	}
}

type createReservationRequest struct {
	CampaignID      string          `json:"campaign_id"`
	Name            string          `json:"name"`
	RouteIDs        []string        `json:"route_ids"`
	StartDate       string          `json:"start_date"`
	EndDate         string          `json:"end_date"`
	Dayparts        []string        `json:"dayparts"`
	DaysOfWeek      []int           `json:"days_of_week"`
	ShareOfVoice    float64         `json:"share_of_voice"`
	PricingSnapshot json.RawMessage `json:"pricing_snapshot"`
	TrimToAvailable bool            `json:"trim_to_available"`
}

func (r createReservationRequest) toInput() (app.TryReserveInput, error) {
	start, end, err := parseDateRange(r.StartDate, r.EndDate)
	if err != nil {
		return app.TryReserveInput{}, err
	}
	dayparts, err := parseDayparts(r.Dayparts)
	if err != nil {
		return app.TryReserveInput{}, err
	}
	daysOfWeek, err := parseWeekdays(r.DaysOfWeek)
	if err != nil {
		return app.TryReserveInput{}, err
	}

	return app.TryReserveInput{
		CampaignID:      r.CampaignID,
		Name:            r.Name,
		RouteIDs:        r.RouteIDs,
		StartDate:       start,
		EndDate:         end,
		Dayparts:        dayparts,
		DaysOfWeek:      daysOfWeek,
		ShareOfVoice:    r.ShareOfVoice,
		PricingSnapshot: r.PricingSnapshot,
		TrimToAvailable: r.TrimToAvailable,
	}, nil
}

type reservationAcceptedResponse struct {
	Accepted bool           `json:"accepted"`
	Flight   flightResponse `json:"flight"`
}

type reservationRejectedResponse struct {
	Accepted        bool    `json:"accepted"`
	Code            string  `json:"code"`
	MaxAvailableSOV float64 `json:"max_available_sov"`
}

type flightResponse struct {
	ID              string          `json:"id"`
	CampaignID      string          `json:"campaign_id,omitempty"`
	Name            string          `json:"name"`
	RouteIDs        []string        `json:"route_ids"`
	StartDate       string          `json:"start_date"`
	EndDate         string          `json:"end_date"`
	Dayparts        []string        `json:"dayparts"`
	DaysOfWeek      []int           `json:"days_of_week"`
	ShareOfVoice    *float64        `json:"share_of_voice"`
	PricingSnapshot json.RawMessage `json:"pricing_snapshot,omitempty"`
	Status          string          `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

func newFlightResponse(f domain.Flight) flightResponse {
	return flightResponse{
		ID:              f.ID,
		CampaignID:      f.CampaignID,
		Name:            f.Name,
		RouteIDs:        f.RouteIDs,
		StartDate:       f.StartDate.String(),
		EndDate:         f.EndDate.String(),
		Dayparts:        daypartStrings(f.EffectiveDayparts()),
		DaysOfWeek:      weekdayInts(f.DaysOfWeek),
		ShareOfVoice:    f.ShareOfVoice,
		PricingSnapshot: f.PricingSnapshot,
		Status:          string(f.Status),
		CreatedAt:       f.CreatedAt,
		UpdatedAt:       f.UpdatedAt,
	}
}
