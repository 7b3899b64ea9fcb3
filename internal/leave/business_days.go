package leave

import (
	"time"

	leaveerrors "hr-leave/internal/leave/errors"

	"github.com/shopspring/decimal"
)

// HolidayCalendar is satisfied by *policy.Calendar.
type HolidayCalendar interface {
	IsHoliday(date time.Time) bool
}

var (
	halfDay = decimal.NewFromFloat(0.5)
	fullDay = decimal.NewFromInt(1)
)

// BusinessDays counts chargeable days in [start, end]: weekdays 1, Saturday 0.5, Sunday 0.
// Dates in offDays or on a calendar holiday count 0. cal may be nil.
func BusinessDays(start, end time.Time, offDays DateSet, cal HolidayCalendar) (decimal.Decimal, error) {
	start, end = truncateDate(start), truncateDate(end)
	if start.After(end) {
		return decimal.Zero, leaveerrors.ErrInvalidDateRange
	}

	total := decimal.Zero
	eachDate(start, end, func(d time.Time) {
		total = total.Add(dayWeight(d, offDays, cal))
	})
	return total, nil
}

func dayWeight(d time.Time, offDays DateSet, cal HolidayCalendar) decimal.Decimal {
	if offDays.Has(d) {
		return decimal.Zero
	}
	if cal != nil && cal.IsHoliday(d) {
		return decimal.Zero
	}
	switch d.Weekday() {
	case time.Sunday:
		return decimal.Zero
	case time.Saturday:
		return halfDay
	default:
		return fullDay
	}
}
