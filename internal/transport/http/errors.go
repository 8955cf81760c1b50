package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/nyashasa/ads-manager/internal/domain"
)

const (
	codeNotFound               = "not_found"
	codeInvalidRequestBody     = "invalid_request_body"
	codeInvalidDate            = "invalid_date"
	codeInvalidDateRange       = "invalid_date_range"
	codeInvalidDaypart         = "invalid_daypart"
	codeInvalidWeekday         = "invalid_weekday"
	codeInvalidMode            = "invalid_mode"
	codeInvalidTier            = "invalid_tier"
	codeInvalidPlacement       = "invalid_placement"
	codeInvalidShareOfVoice    = "invalid_share_of_voice"
	codeInvalidRidership       = "invalid_ridership"
	codeInvalidPricingConfig   = "invalid_pricing_config"
	codeRoutesRequired         = "routes_required"
	codeInvalidID              = "invalid_id"
	codeRouteNotFound          = "route_not_found"
	codeFlightNotFound         = "flight_not_found"
	codePricingModelNotFound   = "pricing_model_not_found"
	codeNoActivePricingModel   = "no_active_pricing_model"
	codeDuplicatePricingModel  = "pricing_model_exists"
	codeDuplicateRouteCode     = "route_code_exists"
	codeInvalidTransition      = "invalid_transition"
	codeConcurrentModification = "concurrent_modification"
	codeCapacityExceeded       = "capacity_exceeded"
	codeLedgerUnavailable      = "ledger_unavailable"
	codeForbidden              = "forbidden"
	codeInternalError          = "internal_error"
)

type errorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	payload, err := json.Marshal(errorResponse{
		Error: msg,
		Code:  code,
	})
	if err != nil {
		_, _ = w.Write([]byte(`{"error":"internal error","code":"internal_error"}`))
		return
	}
	_, _ = w.Write(payload)
}

// writeDomainError maps sentinel domain errors onto HTTP statuses. Unknown
// errors are reported as internal.
func writeDomainError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidDate):
		writeError(w, http.StatusBadRequest, codeInvalidDate, err.Error())
	case errors.Is(err, domain.ErrInvalidDateRange):
		writeError(w, http.StatusBadRequest, codeInvalidDateRange, err.Error())
	case errors.Is(err, domain.ErrInvalidDaypart):
		writeError(w, http.StatusBadRequest, codeInvalidDaypart, err.Error())
	case errors.Is(err, domain.ErrInvalidWeekday):
		writeError(w, http.StatusBadRequest, codeInvalidWeekday, err.Error())
	case errors.Is(err, domain.ErrInvalidTier):
		writeError(w, http.StatusBadRequest, codeInvalidTier, err.Error())
	case errors.Is(err, domain.ErrInvalidPlacement):
		writeError(w, http.StatusBadRequest, codeInvalidPlacement, err.Error())
	case errors.Is(err, domain.ErrInvalidShareOfVoice):
		writeError(w, http.StatusBadRequest, codeInvalidShareOfVoice, err.Error())
	case errors.Is(err, domain.ErrInvalidRidership):
		writeError(w, http.StatusBadRequest, codeInvalidRidership, err.Error())
	case errors.Is(err, domain.ErrInvalidPricingConfig):
		writeError(w, http.StatusBadRequest, codeInvalidPricingConfig, err.Error())
	case errors.Is(err, domain.ErrNoRoutes):
		writeError(w, http.StatusBadRequest, codeRoutesRequired, err.Error())
	case errors.Is(err, domain.ErrInvalidID):
		writeError(w, http.StatusBadRequest, codeInvalidID, err.Error())
	case errors.Is(err, domain.ErrRouteNotFound):
		writeError(w, http.StatusNotFound, codeRouteNotFound, err.Error())
	case errors.Is(err, domain.ErrFlightNotFound):
		writeError(w, http.StatusNotFound, codeFlightNotFound, err.Error())
	case errors.Is(err, domain.ErrPricingModelNotFound):
		writeError(w, http.StatusNotFound, codePricingModelNotFound, err.Error())
	case errors.Is(err, domain.ErrNoActivePricingModel):
		writeError(w, http.StatusNotFound, codeNoActivePricingModel, err.Error())
	case errors.Is(err, domain.ErrDuplicatePricingModel):
		writeError(w, http.StatusConflict, codeDuplicatePricingModel, err.Error())
	case errors.Is(err, domain.ErrDuplicateRouteCode):
		writeError(w, http.StatusConflict, codeDuplicateRouteCode, err.Error())
	case errors.Is(err, domain.ErrInvalidTransition):
		writeError(w, http.StatusConflict, codeInvalidTransition, err.Error())
	case errors.Is(err, domain.ErrConcurrentModification):
		writeError(w, http.StatusConflict, codeConcurrentModification, err.Error())
	case errors.Is(err, domain.ErrLedgerUnavailable):
		writeError(w, http.StatusServiceUnavailable, codeLedgerUnavailable, domain.ErrLedgerUnavailable.Error())
	default:
		writeError(w, http.StatusInternalServerError, codeInternalError, "internal error")
	}
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
