package policy

type UpdatePolicyRequest struct {
	MinAdvanceDays              *int           `json:"min_advance_days" binding:"omitempty,min=0"`
	AdvanceNoticeDays           map[string]int `json:"advance_notice_days"`
	MaxConsecutiveDays          *int           `json:"max_consecutive_days" binding:"omitempty,min=1"`
	MaxConcurrentRequests       *int           `json:"max_concurrent_requests" binding:"omitempty,min=1"`
	AdvanceUsageLimit           *int           `json:"advance_usage_limit" binding:"omitempty,min=0"`
	MaxCarryOverDays            *int           `json:"max_carry_over_days" binding:"omitempty,min=0"`
	CancellationReasonMinLength *int           `json:"cancellation_reason_min_length" binding:"omitempty,min=5"`
	// Version the client read; a stale value is rejected.
	Version int64 `json:"version" binding:"min=0"`
}

type PolicyResponse struct {
	CompanyID string `json:"company_id"`
	Version   int64  `json:"version"`
	Rules
}

func (r UpdatePolicyRequest) apply(base Rules) Rules {
	out := base
	if r.MinAdvanceDays != nil {
		out.MinAdvanceDays = *r.MinAdvanceDays
	}
	if r.AdvanceNoticeDays != nil {
		out.AdvanceNoticeDays = r.AdvanceNoticeDays
	}
	if r.MaxConsecutiveDays != nil {
		out.MaxConsecutiveDays = *r.MaxConsecutiveDays
	}
	if r.MaxConcurrentRequests != nil {
		out.MaxConcurrentRequests = *r.MaxConcurrentRequests
	}
	if r.AdvanceUsageLimit != nil {
		out.AdvanceUsageLimit = *r.AdvanceUsageLimit
	}
	if r.MaxCarryOverDays != nil {
		out.MaxCarryOverDays = *r.MaxCarryOverDays
	}
	if r.CancellationReasonMinLength != nil {
		out.CancellationReasonMinLength = *r.CancellationReasonMinLength
	}
	return out
}
