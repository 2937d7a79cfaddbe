package bdays

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestNextBusinessDay_SkipsWeekend(t *testing.T) {
	cal := New(nil)

	// Thursday 2026-03-05 + 2 business days lands on Monday.
	got := cal.NextBusinessDay(day(2026, time.March, 5), 2)
	require.Equal(t, day(2026, time.March, 9), got)
}

func TestNextBusinessDay_SkipsHolidays(t *testing.T) {
	cal := New([]time.Time{day(2026, time.March, 6)}) // Friday is a holiday

	got := cal.NextBusinessDay(day(2026, time.March, 5), 2)
	require.Equal(t, day(2026, time.March, 10), got)
}

func TestNextBusinessDay_ZeroOffsetRollsForward(t *testing.T) {
	cal := New(nil)

	// Saturday with zero offset rolls to Monday.
	got := cal.NextBusinessDay(day(2026, time.March, 7), 0)
	require.Equal(t, day(2026, time.March, 9), got)

	// A business day with zero offset stays put.
	got = cal.NextBusinessDay(day(2026, time.March, 5), 0)
	require.Equal(t, day(2026, time.March, 5), got)
}

func TestEnglandAndWales_ChristmasSkipped(t *testing.T) {
	cal := EnglandAndWales(nil)

	// Wednesday 2025-12-24 + 1 business day skips Christmas, Boxing Day and
	// the weekend.
	got := cal.NextBusinessDay(day(2025, time.December, 24), 1)
	require.Equal(t, day(2025, time.December, 29), got)
}

func TestIsBusinessDay(t *testing.T) {
	cal := New([]time.Time{day(2026, time.May, 4)})

	require.True(t, cal.IsBusinessDay(day(2026, time.May, 5)))
	require.False(t, cal.IsBusinessDay(day(2026, time.May, 2)))  // Saturday
	require.False(t, cal.IsBusinessDay(day(2026, time.May, 4)))  // holiday
}

func TestParseHolidays(t *testing.T) {
	got, err := ParseHolidays("2026-04-03, 2026-04-06,")
	require.NoError(t, err)
	require.Equal(t, []time.Time{day(2026, time.April, 3), day(2026, time.April, 6)}, got)

	_, err = ParseHolidays("not-a-date")
	require.Error(t, err)

	got, err = ParseHolidays("")
	require.NoError(t, err)
	require.Empty(t, got)
}
