package policy

import "time"

// LeavePolicy is the per-company override row.
type LeavePolicy struct {
	CompanyID                   string         `gorm:"column:company_id;type:uuid;primaryKey"`
	Version                     int64          `gorm:"column:version;not null"`
	MinAdvanceDays              int            `gorm:"column:min_advance_days;not null"`
	AdvanceNoticeDays           map[string]int `gorm:"column:advance_notice_days;type:jsonb;serializer:json"`
	MaxConsecutiveDays          int            `gorm:"column:max_consecutive_days;not null"`
	MaxConcurrentRequests       int            `gorm:"column:max_concurrent_requests;not null"`
	AdvanceUsageLimit           int            `gorm:"column:advance_usage_limit;not null"`
	MaxCarryOverDays            int            `gorm:"column:max_carry_over_days;not null"`
	CancellationReasonMinLength int            `gorm:"column:cancellation_reason_min_length;not null"`
	UpdatedBy                   string         `gorm:"column:updated_by;type:uuid"`
	CreatedAt                   time.Time      `gorm:"column:created_at"`
	UpdatedAt                   time.Time      `gorm:"column:updated_at"`
}

func (LeavePolicy) TableName() string {
	return "leave_policies"
}

func (p *LeavePolicy) Rules() Rules {
	return Rules{
		MinAdvanceDays:              p.MinAdvanceDays,
		AdvanceNoticeDays:           p.AdvanceNoticeDays,
		MaxConsecutiveDays:          p.MaxConsecutiveDays,
		MaxConcurrentRequests:       p.MaxConcurrentRequests,
		AdvanceUsageLimit:           p.AdvanceUsageLimit,
		MaxCarryOverDays:            p.MaxCarryOverDays,
		CancellationReasonMinLength: p.CancellationReasonMinLength,
	}
}

func (p *LeavePolicy) applyRules(r Rules) {
	p.MinAdvanceDays = r.MinAdvanceDays
	p.AdvanceNoticeDays = r.AdvanceNoticeDays
	p.MaxConsecutiveDays = r.MaxConsecutiveDays
	p.MaxConcurrentRequests = r.MaxConcurrentRequests
	p.AdvanceUsageLimit = r.AdvanceUsageLimit
	p.MaxCarryOverDays = r.MaxCarryOverDays
	p.CancellationReasonMinLength = r.CancellationReasonMinLength
}
