package policy

import (
	"fmt"
	"time"

	"hr-leave/internal/shared/apperror"

	"github.com/teambition/rrule-go"
)

// recurrenceAnchor is the DTSTART given to every recurring holiday rule.
var recurrenceAnchor = time.Date(1970, 1, 1, 0, 0, 0, 0, time.UTC)

type recurringHoliday struct {
	name string
	rule *rrule.RRule
}

// Calendar answers holiday lookups. It is immutable once built.
type Calendar struct {
	fixed     map[string]string
	recurring []recurringHoliday
}

type HolidayConfig struct {
	Date string `yaml:"date" validate:"required,date_ymd"`
	Name string `yaml:"name" validate:"required"`
}

type RecurringHolidayConfig struct {
	Name  string `yaml:"name" validate:"required"`
	RRule string `yaml:"rrule" validate:"required"`
}

func NewCalendar(fixed []HolidayConfig, recurring []RecurringHolidayConfig) (*Calendar, error) {
	cal := &Calendar{fixed: make(map[string]string, len(fixed))}

	for _, h := range fixed {
		d, err := time.Parse(apperror.DateLayout, h.Date)
		if err != nil {
			return nil, fmt.Errorf("holiday %q: %w", h.Name, err)
		}
		cal.fixed[d.Format(apperror.DateLayout)] = h.Name
	}

	for i, r := range recurring {
		opt, err := rrule.StrToROption(r.RRule)
		if err != nil {
			return nil, fmt.Errorf("invalid rrule in recurring[%d]: %w", i, err)
		}
		opt.Dtstart = recurrenceAnchor
		rule, err := rrule.NewRRule(*opt)
		if err != nil {
			return nil, fmt.Errorf("invalid rrule in recurring[%d]: %w", i, err)
		}
		cal.recurring = append(cal.recurring, recurringHoliday{name: r.Name, rule: rule})
	}

	return cal, nil
}

// EmptyCalendar has no holidays; weekday rules alone apply.
func EmptyCalendar() *Calendar {
	return &Calendar{fixed: map[string]string{}}
}

func (c *Calendar) IsHoliday(date time.Time) bool {
	_, ok := c.HolidayName(date)
	return ok
}

func (c *Calendar) HolidayName(date time.Time) (string, bool) {
	if c == nil {
		return "", false
	}
	day := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, time.UTC)
	if name, ok := c.fixed[day.Format(apperror.DateLayout)]; ok {
		return name, true
	}
	for _, r := range c.recurring {
		if len(r.rule.Between(day, day.Add(24*time.Hour-time.Nanosecond), true)) > 0 {
			return r.name, true
		}
	}
	return "", false
}
