package domain

import "time"

// PlacementType is the creative slot an ad occupies in the captive portal.
type PlacementType string

const (
	PlacementPortalBanner PlacementType = "portal_banner"
	PlacementFullScreen   PlacementType = "full_screen"
	PlacementSurvey       PlacementType = "survey"
	PlacementVoucher      PlacementType = "voucher"
)

// ParsePlacementType validates a wire-format placement value.
func ParsePlacementType(s string) (PlacementType, error) {
	switch PlacementType(s) {
	case PlacementPortalBanner, PlacementFullScreen, PlacementSurvey, PlacementVoucher:
		return PlacementType(s), nil
	}
	return "", ErrInvalidPlacement
}

// PricingMultipliers are optional CPM adjustment tables. Absent entries
// mean a multiplier of 1.
type PricingMultipliers struct {
	Daypart   map[Daypart]float64       `json:"daypart,omitempty"`
	Placement map[PlacementType]float64 `json:"placement,omitempty"`
}

// PricingConfig is the typed pricing configuration. It is validated when a
// model is created, not on each estimate.
type PricingConfig struct {
	BaseCPM     map[RouteTier]float64 `json:"base_cpm"`
	Multipliers *PricingMultipliers   `json:"multipliers,omitempty"`
}

// Validate rejects configurations that would poison every estimate.
func (c PricingConfig) Validate() error {
	for tier, cpm := range c.BaseCPM {
		if _, err := ParseRouteTier(string(tier)); err != nil {
			return err
		}
		if cpm < 0 {
			return ErrInvalidPricingConfig
		}
	}
	if c.Multipliers == nil {
		return nil
	}
	for dp, m := range c.Multipliers.Daypart {
		if _, err := ParseDaypart(string(dp)); err != nil {
			return err
		}
		if m < 0 {
			return ErrInvalidPricingConfig
		}
	}
	for pt, m := range c.Multipliers.Placement {
		if _, err := ParsePlacementType(string(pt)); err != nil {
			return err
		}
		if m < 0 {
			return ErrInvalidPricingConfig
		}
	}
	return nil
}

// PricingModel is a versioned, named pricing configuration. Exactly one
// model is active at a time.
type PricingModel struct {
	ID           string
	Name         string
	Type         string
	ApplicableTo string
	Active       bool
	Config       PricingConfig
	CreatedAt    time.Time
}

// BaseCPMForTier returns the configured base CPM for a tier, or fallback
// when the tier was never priced (newly added inventory must still
// estimate).
func (m PricingModel) BaseCPMForTier(tier RouteTier, fallback float64) float64 {
	if cpm, ok := m.Config.BaseCPM[tier]; ok {
		return cpm
	}
	return fallback
}

// PlacementMultiplier returns the multiplier for a placement, defaulting
// to 1 when unconfigured.
func (m PricingModel) PlacementMultiplier(pt PlacementType) float64 {
	if m.Config.Multipliers == nil {
		return 1
	}
	if mult, ok := m.Config.Multipliers.Placement[pt]; ok {
		return mult
	}
	return 1
}

// AvgDaypartMultiplier returns the arithmetic mean of the per-daypart
// multipliers for the requested dayparts.
func (m PricingModel) AvgDaypartMultiplier(parts []Daypart) float64 {
	parts = NormalizeDayparts(parts)
	sum := 0.0
	for _, p := range parts {
		mult := 1.0
		if m.Config.Multipliers != nil {
			if v, ok := m.Config.Multipliers.Daypart[p]; ok {
				mult = v
			}
		}
		sum += mult
	}
	return sum / float64(len(parts))
}
