package bdays

import (
	"strings"
	"time"
)

// Calendar answers business-day arithmetic. Implementations decide which
// days count; the lifecycle engine only ever asks for "N business days from
// here".
type Calendar interface {
	NextBusinessDay(from time.Time, offset int) time.Time
	IsBusinessDay(day time.Time) bool
}

type calendar struct {
	holidays map[string]struct{}
}

// New builds a calendar skipping weekends and the given holidays. Dates are
// compared by calendar day in the date's own location.
func New(holidays []time.Time) Calendar {
	set := make(map[string]struct{}, len(holidays))
	for _, h := range holidays {
		set[dayKey(h)] = struct{}{}
	}
	return &calendar{holidays: set}
}

// EnglandAndWales returns a calendar preloaded with the fixed-date bank
// holidays plus the proclaimed dates for the configured years. Seasonal
// holidays that move year to year (Easter, spring/summer bank holidays) are
// supplied per deployment via configuration; the defaults below cover the
// fixed ones.
func EnglandAndWales(extra []time.Time) Calendar {
	holidays := make([]time.Time, 0, len(extra)+len(fixedHolidays))
	holidays = append(holidays, fixedHolidays...)
	holidays = append(holidays, extra...)
	return New(holidays)
}

var fixedHolidays = []time.Time{
	// New Year, Christmas and Boxing Day for the supported horizon. Substitute
	// days for weekend-falling holidays are part of the configured extras.
	date(2025, time.January, 1), date(2025, time.December, 25), date(2025, time.December, 26),
	date(2026, time.January, 1), date(2026, time.December, 25), date(2026, time.December, 28),
	date(2027, time.January, 1), date(2027, time.December, 27), date(2027, time.December, 28),
}

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func dayKey(t time.Time) string {
	return t.Format("2006-01-02")
}

func (c *calendar) IsBusinessDay(day time.Time) bool {
	switch day.Weekday() {
	case time.Saturday, time.Sunday:
		return false
	}
	_, holiday := c.holidays[dayKey(day)]
	return !holiday
}

func (c *calendar) NextBusinessDay(from time.Time, offset int) time.Time {
	day := from
	remaining := offset
	for remaining > 0 {
		day = day.AddDate(0, 0, 1)
		if c.IsBusinessDay(day) {
			remaining--
		}
	}
	// A zero offset still lands on a business day.
	for !c.IsBusinessDay(day) {
		day = day.AddDate(0, 0, 1)
	}
	return day
}

// ParseHolidays parses a comma-separated list of YYYY-MM-DD dates, skipping
// blanks. Used to feed deployment-specific holidays from the environment.
func ParseHolidays(raw string) ([]time.Time, error) {
	var out []time.Time
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		t, err := time.Parse("2006-01-02", part)
		if err != nil {
			return nil, err
		}
		out = append(out, t)
	}
	return out, nil
}
