package domain

// NormalizeSOV maps a raw share-of-voice value to a [0,1] fraction. Legacy
// records and clients encode SOV as an integer percentage; anything above 1
// is read as a percent and divided by 100, then clamped.
func NormalizeSOV(v float64) float64 {
	if v > 1 {
		v = v / 100
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
