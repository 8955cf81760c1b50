package domain

import "time"

// RouteTier classifies a route for base pricing.
type RouteTier string

const (
	TierCore     RouteTier = "tier_1_core"
	TierStrong   RouteTier = "tier_2_strong"
	TierLongtail RouteTier = "tier_3_longtail"
)

// ParseRouteTier validates a wire-format tier value.
func ParseRouteTier(s string) (RouteTier, error) {
	switch RouteTier(s) {
	case TierCore, TierStrong, TierLongtail:
		return RouteTier(s), nil
	}
	return "", ErrInvalidTier
}

// Route is a named transit path. The catalog is owned by the fleet
// collaborator; the engine treats routes as read-mostly reference data.
type Route struct {
	ID                      string
	Code                    string
	Name                    string
	CorridorID              string
	Tier                    RouteTier
	EstimatedDailyRidership int
	CreatedAt               time.Time
}
