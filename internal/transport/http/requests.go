package http

import (
	"math"
	"time"

	"github.com/nyashasa/ads-manager/internal/domain"
)

func parseDateRange(start, end string) (domain.Date, domain.Date, error) {
	s, err := domain.ParseDate(start)
	if err != nil {
		return domain.Date{}, domain.Date{}, err
	}
	e, err := domain.ParseDate(end)
	if err != nil {
		return domain.Date{}, domain.Date{}, err
	}
	return s, e, nil
}

func parseDayparts(in []string) ([]domain.Daypart, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make([]domain.Daypart, 0, len(in))
	for _, raw := range in {
		dp, err := domain.ParseDaypart(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, dp)
	}
	return out, nil
}

func parseWeekdays(in []int) ([]time.Weekday, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make([]time.Weekday, 0, len(in))
	for _, raw := range in {
		if raw < 0 || raw > 6 {
			return nil, domain.ErrInvalidWeekday
		}
		out = append(out, time.Weekday(raw))
	}
	return out, nil
}

func parseExcludeDates(in []string) ([]domain.Date, error) {
	if len(in) == 0 {
		return nil, nil
	}
	out := make([]domain.Date, 0, len(in))
	for _, raw := range in {
		d, err := domain.ParseDate(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, nil
}

func dateStrings(in []domain.Date) []string {
	out := make([]string, 0, len(in))
	for _, d := range in {
		out = append(out, d.String())
	}
	return out
}

func weekdayInts(in []time.Weekday) []int {
	out := make([]int, 0, len(in))
	for _, d := range in {
		out = append(out, int(d))
	}
	return out
}

func daypartStrings(in []domain.Daypart) []string {
	out := make([]string, 0, len(in))
	for _, dp := range in {
		out = append(out, string(dp))
	}
	return out
}

// roundSOV trims capacity fractions to four decimal places for display,
// matching the precision the ledger stores.
func roundSOV(v float64) float64 {
	return math.Round(v*10000) / 10000
}
