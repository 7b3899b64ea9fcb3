package policy

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, _ := time.Parse("2006-01-02", s)
	return t
}

func TestCalendar_IsHoliday(t *testing.T) {
	cal, err := NewCalendar(
		[]HolidayConfig{{Date: "2026-02-17", Name: "Lunar New Year"}},
		[]RecurringHolidayConfig{{Name: "Christmas Day", RRule: "FREQ=YEARLY;BYMONTH=12;BYMONTHDAY=25"}},
	)
	require.NoError(t, err)

	t.Run("fixed holiday", func(t *testing.T) {
		name, ok := cal.HolidayName(day("2026-02-17"))
		assert.True(t, ok)
		assert.Equal(t, "Lunar New Year", name)
		assert.False(t, cal.IsHoliday(day("2027-02-17")))
	})

	t.Run("recurring holiday every year", func(t *testing.T) {
		assert.True(t, cal.IsHoliday(day("2025-12-25")))
		assert.True(t, cal.IsHoliday(day("2031-12-25")))
		assert.False(t, cal.IsHoliday(day("2025-12-24")))
		assert.False(t, cal.IsHoliday(day("2025-12-26")))
	})

	t.Run("time of day ignored", func(t *testing.T) {
		assert.True(t, cal.IsHoliday(time.Date(2026, 12, 25, 17, 30, 0, 0, time.UTC)))
	})

	t.Run("nil calendar has no holidays", func(t *testing.T) {
		var nilCal *Calendar
		assert.False(t, nilCal.IsHoliday(day("2026-12-25")))
	})
}

func TestNewCalendar_InvalidRRule(t *testing.T) {
	_, err := NewCalendar(nil, []RecurringHolidayConfig{{Name: "x", RRule: "FREQ=SOMETIMES"}})
	assert.Error(t, err)
}
