package app

import (
	"context"
	"errors"
	"math"
	"time"

	"github.com/nyashasa/ads-manager/internal/domain"
)

// EstimatorParams are the audience-model constants. They are injected so
// deployments (and tests) can tune them without a rebuild.
type EstimatorParams struct {
	// WifiAdoptionRate is the fraction of riders who ever connect to the
	// captive network.
	WifiAdoptionRate float64
	// AvgSessionsPerRiderPerDay is the expected portal sessions a
	// connected rider opens per travel day.
	AvgSessionsPerRiderPerDay float64
	// DefaultBaseCPM prices tiers missing from the pricing model so newly
	// added inventory can still be estimated.
	DefaultBaseCPM float64
}

func DefaultEstimatorParams() EstimatorParams {
	return EstimatorParams{
		WifiAdoptionRate:          0.6,
		AvgSessionsPerRiderPerDay: 1.8,
		DefaultBaseCPM:            100,
	}
}

// RouteCatalog resolves the routes an estimate covers.
type RouteCatalog interface {
	GetRoutesByIDs(ctx context.Context, ids []string) ([]domain.Route, error)
	ListRoutesByCorridors(ctx context.Context, corridorIDs []string) ([]domain.Route, error)
}

// PricingModelSource resolves pricing configurations.
type PricingModelSource interface {
	GetPricingModel(ctx context.Context, id string) (domain.PricingModel, error)
	GetActivePricingModel(ctx context.Context) (domain.PricingModel, error)
}

// EstimateService converts a hypothetical flight into impressions, reach,
// frequency and cost. It never touches the capacity ledger and does not
// care whether the flight is committed.
type EstimateService struct {
	routes  RouteCatalog
	pricing PricingModelSource
	params  EstimatorParams
}

func NewEstimateService(routes RouteCatalog, pricing PricingModelSource, params EstimatorParams) *EstimateService {
	return &EstimateService{routes: routes, pricing: pricing, params: params}
}

type EstimateInput struct {
	RouteIDs    []string
	CorridorIDs []string
	StartDate   domain.Date
	EndDate     domain.Date
	DaysOfWeek  []time.Weekday
	Dayparts    []domain.Daypart
	Placement   domain.PlacementType
	// ShareOfVoice accepts a [0,1] fraction or a legacy 0-100 percent.
	ShareOfVoice float64
	// PricingModelID selects a specific configuration; empty means the
	// currently active model.
	PricingModelID string
	ExcludeDates   []domain.Date
}

func (s *EstimateService) Estimate(ctx context.Context, in EstimateInput) (domain.Estimate, error) {
	if len(in.RouteIDs) == 0 && len(in.CorridorIDs) == 0 {
		return domain.Estimate{}, domain.ErrNoRoutes
	}
	if in.StartDate.IsZero() || in.EndDate.IsZero() {
		return domain.Estimate{}, domain.ErrInvalidDate
	}
	if in.StartDate.After(in.EndDate) {
		return domain.Estimate{}, domain.ErrInvalidDateRange
	}
	sov := domain.NormalizeSOV(in.ShareOfVoice)

	var (
		model domain.PricingModel
		err   error
	)
	if in.PricingModelID != "" {
		model, err = s.pricing.GetPricingModel(ctx, in.PricingModelID)
	} else {
		model, err = s.pricing.GetActivePricingModel(ctx)
	}
	if err != nil {
		if errors.Is(err, domain.ErrPricingModelNotFound) || errors.Is(err, domain.ErrNoActivePricingModel) {
			return domain.Estimate{}, err
		}
		return domain.Estimate{}, errors.Join(domain.ErrLedgerUnavailable, err)
	}

	var routes []domain.Route
	if len(in.RouteIDs) > 0 {
		routes, err = s.routes.GetRoutesByIDs(ctx, in.RouteIDs)
	} else {
		routes, err = s.routes.ListRoutesByCorridors(ctx, in.CorridorIDs)
	}
	if err != nil {
		return domain.Estimate{}, errors.Join(domain.ErrLedgerUnavailable, err)
	}

	days := domain.CountActiveDays(in.StartDate, in.EndDate, in.DaysOfWeek, in.ExcludeDates)
	return computeEstimate(routes, days, in.Dayparts, in.Placement, sov, model, s.params), nil
}

// computeEstimate is the pure yield model. Each connected rider gets
// T = sessions/day x days independent opportunities; the ad wins each with
// probability sov, so reach is the at-least-once probability scaled by the
// connected population, and exposures are the expectation riders x T x sov.
func computeEstimate(routes []domain.Route, days int, dayparts []domain.Daypart, placement domain.PlacementType, sov float64, model domain.PricingModel, params EstimatorParams) domain.Estimate {
	empty := domain.Estimate{Breakdown: []domain.RouteEstimate{}}
	if len(routes) == 0 || days <= 0 {
		return empty
	}

	totalDailyRiders := 0
	for _, r := range routes {
		if r.EstimatedDailyRidership > 0 {
			totalDailyRiders += r.EstimatedDailyRidership
		}
	}
	if totalDailyRiders == 0 {
		return empty
	}

	wifiRiders := float64(totalDailyRiders) * params.WifiAdoptionRate
	sessions := params.AvgSessionsPerRiderPerDay * float64(days)

	reach := wifiRiders * (1 - math.Pow(1-sov, sessions))
	exposures := wifiRiders * sessions * sov

	totalImpressions := math.Round(exposures)
	estimatedReach := math.Round(reach)

	avgFrequency := 0.0
	if estimatedReach > 0 {
		avgFrequency = totalImpressions / estimatedReach
	}

	placementMult := model.PlacementMultiplier(placement)
	daypartMult := model.AvgDaypartMultiplier(dayparts)

	totalCost := 0.0
	breakdown := make([]domain.RouteEstimate, 0, len(routes))
	for _, r := range routes {
		share := float64(r.EstimatedDailyRidership) / float64(totalDailyRiders)
		routeExposures := math.Round(totalImpressions * share)

		cpm := model.BaseCPMForTier(r.Tier, params.DefaultBaseCPM) * placementMult * daypartMult
		routeCost := routeExposures / 1000 * cpm
		totalCost += routeCost

		breakdown = append(breakdown, domain.RouteEstimate{
			RouteID:       r.ID,
			Impressions:   int64(routeExposures),
			EstimatedCost: int64(math.Round(routeCost)),
		})
	}

	blendedCPM := 0.0
	if totalImpressions > 0 {
		blendedCPM = totalCost / totalImpressions * 1000
	}

	return domain.Estimate{
		TotalImpressions: int64(totalImpressions),
		EstimatedReach:   int64(estimatedReach),
		AvgFrequency:     avgFrequency,
		CPM:              blendedCPM,
		EstimatedCost:    int64(math.Round(totalCost)),
		Breakdown:        breakdown,
	}
}
