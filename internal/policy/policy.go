package policy

import (
	"context"
	"fmt"
	"os"

	policyerrors "hr-leave/internal/policy/errors"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Leave types known to the policy. Kept here so the policy package does not import leave.
var LeaveTypes = []string{"ANNUAL", "SICK", "PERSONAL", "FAMILY", "UNPAID"}

// Rules are the numeric knobs a company can override.
type Rules struct {
	MinAdvanceDays              int            `yaml:"min_advance_days" json:"min_advance_days" validate:"min=0"`
	AdvanceNoticeDays           map[string]int `yaml:"advance_notice_days" json:"advance_notice_days" validate:"dive,min=0"`
	MaxConsecutiveDays          int            `yaml:"max_consecutive_days" json:"max_consecutive_days" validate:"min=1"`
	MaxConcurrentRequests       int            `yaml:"max_concurrent_requests" json:"max_concurrent_requests" validate:"min=1"`
	AdvanceUsageLimit           int            `yaml:"advance_usage_limit" json:"advance_usage_limit" validate:"min=0"`
	MaxCarryOverDays            int            `yaml:"max_carry_over_days" json:"max_carry_over_days" validate:"min=0"`
	CancellationReasonMinLength int            `yaml:"cancellation_reason_min_length" json:"cancellation_reason_min_length" validate:"min=5"`
}

// Snapshot is the policy in effect for one company at one version.
// Callers must treat it as read-only.
type Snapshot struct {
	Version int64
	Rules
	Calendar *Calendar
}

// NoticeDaysFor returns max(global minimum, type-specific notice).
func (s *Snapshot) NoticeDaysFor(leaveType string) int {
	n := s.MinAdvanceDays
	if typed, ok := s.AdvanceNoticeDays[leaveType]; ok && typed > n {
		n = typed
	}
	return n
}

// Provider hands out the current snapshot for a company.
type Provider interface {
	Current(ctx context.Context, companyID string) (*Snapshot, error)
}

func DefaultRules() Rules {
	return Rules{
		MinAdvanceDays:              0,
		AdvanceNoticeDays:           map[string]int{"ANNUAL": 3},
		MaxConsecutiveDays:          10,
		MaxConcurrentRequests:       3,
		AdvanceUsageLimit:           3,
		MaxCarryOverDays:            5,
		CancellationReasonMinLength: 5,
	}
}

// Defaults is the parsed policy file.
type Defaults struct {
	Rules    Rules
	Calendar *Calendar
}

type fileSchema struct {
	Rules    Rules `yaml:"rules"`
	Holidays struct {
		Fixed     []HolidayConfig          `yaml:"fixed" validate:"dive"`
		Recurring []RecurringHolidayConfig `yaml:"recurring" validate:"dive"`
	} `yaml:"holidays"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("date_ymd", validateDateYMD)
	return v
}

// LoadFile reads the policy YAML. A missing file yields DefaultRules and an empty calendar.
func LoadFile(path string) (*Defaults, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Defaults{Rules: DefaultRules(), Calendar: EmptyCalendar()}, nil
		}
		return nil, fmt.Errorf("read policy file: %w", err)
	}
	return Parse(data)
}

func Parse(data []byte) (*Defaults, error) {
	schema := fileSchema{Rules: DefaultRules()}
	if err := yaml.Unmarshal(data, &schema); err != nil {
		return nil, policyerrors.ErrPolicyFileInvalid.WithDetails(err.Error())
	}
	if err := ValidateRules(schema.Rules); err != nil {
		return nil, err
	}
	if err := validate.Struct(schema); err != nil {
		return nil, policyerrors.ErrPolicyFileInvalid.WithDetails(err.Error())
	}

	cal, err := NewCalendar(schema.Holidays.Fixed, schema.Holidays.Recurring)
	if err != nil {
		return nil, policyerrors.ErrPolicyFileInvalid.WithDetails(err.Error())
	}
	return &Defaults{Rules: schema.Rules, Calendar: cal}, nil
}

func ValidateRules(r Rules) error {
	if err := validate.Struct(r); err != nil {
		return policyerrors.ErrInvalidRules.WithDetails(err.Error())
	}
	for t := range r.AdvanceNoticeDays {
		if !isLeaveType(t) {
			return policyerrors.ErrUnknownLeaveType.WithDetails(map[string]string{"leave_type": t})
		}
	}
	return nil
}

func isLeaveType(t string) bool {
	for _, lt := range LeaveTypes {
		if lt == t {
			return true
		}
	}
	return false
}

// StaticProvider always returns the same snapshot.
type StaticProvider struct {
	Snapshot *Snapshot
}

func (p StaticProvider) Current(context.Context, string) (*Snapshot, error) {
	return p.Snapshot, nil
}
