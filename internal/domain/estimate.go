package domain

// RouteEstimate is one route's slice of an estimate, proportional to its
// share of the combined ridership.
type RouteEstimate struct {
	RouteID       string
	Impressions   int64
	EstimatedCost int64
}

// Estimate is the commercial yield projection for a flight request. It is
// derived on demand and never persisted as truth (flights keep a snapshot
// for audit only).
type Estimate struct {
	TotalImpressions int64
	EstimatedReach   int64
	AvgFrequency     float64
	CPM              float64
	EstimatedCost    int64
	Breakdown        []RouteEstimate
}
