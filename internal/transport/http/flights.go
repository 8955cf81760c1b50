package http

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/nyashasa/ads-manager/internal/app"
	"github.com/nyashasa/ads-manager/internal/domain"
)

// FlightTransitioner is the minimal interface needed to move a flight
// along its lifecycle.
type FlightTransitioner interface {
	Transition(ctx context.Context, flightID string, next domain.FlightStatus) (app.TransitionResult, error)
}

// HandleFlightStatus returns an HTTP handler for status transitions.
// Approving a flight re-checks capacity; a failed re-check leaves the
// flight pending and reports the observed ceiling.
func HandleFlightStatus(svc FlightTransitioner) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		flightID := chi.URLParam(r, "flightID")

		var req flightStatusRequest
		dec := json.NewDecoder(r.Body)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequestBody, "invalid request body")
			return
		}

		next, err := domain.ParseFlightStatus(req.Status)
		if err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidTransition, "unknown status "+req.Status)
			return
		}

		res, err := svc.Transition(r.Context(), flightID, next)
		if err != nil {
			writeDomainError(w, err)
			return
		}

		if res.Rejected {
			writeJSON(w, http.StatusConflict, reservationRejectedResponse{
				Accepted:        false,
				Code:            codeCapacityExceeded,
				MaxAvailableSOV: roundSOV(res.MaxAvailableSOV),
			})
			return
		}

		writeJSON(w, http.StatusOK, newFlightResponse(res.Flight))
	}
}

type flightStatusRequest struct {
	Status string `json:"status"`
}
