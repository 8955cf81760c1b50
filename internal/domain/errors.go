package domain

import "errors"

var (
	ErrInvalidDate            = errors.New("invalid date")
	ErrInvalidDateRange       = errors.New("start date after end date")
	ErrInvalidDaypart         = errors.New("invalid daypart")
	ErrInvalidWeekday         = errors.New("weekday must be between 0 and 6")
	ErrInvalidTier            = errors.New("invalid route tier")
	ErrInvalidPlacement       = errors.New("invalid placement type")
	ErrNoRoutes               = errors.New("at least one route is required")
	ErrInvalidShareOfVoice    = errors.New("share of voice must be within (0,1]")
	ErrInvalidID              = errors.New("invalid id")
	ErrRouteNotFound          = errors.New("route not found")
	ErrFlightNotFound         = errors.New("flight not found")
	ErrPricingModelNotFound   = errors.New("pricing model not found")
	ErrNoActivePricingModel   = errors.New("no active pricing model")
	ErrDuplicatePricingModel  = errors.New("pricing model name already exists")
	ErrInvalidPricingConfig   = errors.New("invalid pricing configuration")
	ErrInvalidRidership       = errors.New("ridership must be non-negative")
	ErrDuplicateRouteCode     = errors.New("route code already exists")
	ErrInvalidTransition      = errors.New("invalid status transition")
	ErrConcurrentModification = errors.New("concurrent modification")
	ErrLedgerUnavailable      = errors.New("capacity ledger unavailable")
)
