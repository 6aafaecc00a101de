package service

import (
	"fmt"
	"strings"
	"time"
)

const (
	AgeNotSpecified = "Not specified"
	AgeFutureDate   = "Future date"
)

var ageLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	"01/02/2006",
}

// FormatAge 以 365 天為一年、30 天為一月估算購入至今的時間
func FormatAge(date *string, now time.Time) string {
	if date == nil {
		return AgeNotSpecified
	}
	s := strings.TrimSpace(*date)
	if s == "" {
		return AgeNotSpecified
	}

	var (
		bought time.Time
		err    error
	)
	for _, layout := range ageLayouts {
		if bought, err = time.Parse(layout, s); err == nil {
			break
		}
	}
	if err != nil {
		return AgeNotSpecified
	}

	d := now.Sub(bought)
	if d < 0 {
		return AgeFutureDate
	}
	days := int(d / (24 * time.Hour))
	years := days / 365
	months := (days % 365) / 30

	switch {
	case years > 0:
		return plural(years, "year") + ", " + plural(months, "month")
	case months > 0:
		return plural(months, "month")
	default:
		return plural(days, "day")
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("%d %s", n, unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}
