package leave

import "time"

const (
	firstYearCap     = 11
	fullYearBase     = 15
	entitlementLimit = 25
)

// Entitlement is the base annual leave for the calendar year, counting service months up to
// December 31 of that year.
func Entitlement(hireDate time.Time, year int) int {
	_, yearEnd := yearBounds(year)
	return entitlementUntil(hireDate, year, yearEnd)
}

// EntitlementAsOf counts first-year months only up to ref.
func EntitlementAsOf(hireDate, ref time.Time) int {
	return entitlementUntil(hireDate, ref.Year(), truncateDate(ref))
}

func entitlementUntil(hireDate time.Time, year int, until time.Time) int {
	hire := truncateDate(hireDate)
	yearsOfService := year - hire.Year()

	switch {
	case yearsOfService < 0:
		return 0
	case yearsOfService == 0:
		return min(monthsBetween(hire, until), firstYearCap)
	default:
		return min(fullYearBase+yearsOfService-1, entitlementLimit)
	}
}

// monthsBetween counts whole months from from to to. Zero when to is before from.
func monthsBetween(from, to time.Time) int {
	if to.Before(from) {
		return 0
	}
	months := (to.Year()-from.Year())*12 + int(to.Month()) - int(from.Month())
	if to.Day() < from.Day() {
		months--
	}
	if months < 0 {
		return 0
	}
	return months
}
