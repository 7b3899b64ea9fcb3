package leave

type CreateLeaveRequest struct {
	LeaveType            string  `json:"leave_type" binding:"required,oneof=ANNUAL SICK PERSONAL FAMILY UNPAID"`
	StartDate            string  `json:"start_date" binding:"required,date_ymd"`
	EndDate              string  `json:"end_date" binding:"required,date_ymd"`
	Reason               string  `json:"reason" binding:"max=1000"`
	SubstituteEmployeeID *string `json:"substitute_employee_id" binding:"omitempty,uuid"`
}

type UpdateLeaveRequest struct {
	LeaveType            string  `json:"leave_type" binding:"required,oneof=ANNUAL SICK PERSONAL FAMILY UNPAID"`
	StartDate            string  `json:"start_date" binding:"required,date_ymd"`
	EndDate              string  `json:"end_date" binding:"required,date_ymd"`
	Reason               string  `json:"reason" binding:"max=1000"`
	SubstituteEmployeeID *string `json:"substitute_employee_id" binding:"omitempty,uuid"`
}

const (
	ActionApprove = "approve"
	ActionReject  = "reject"
)

type DecisionRequest struct {
	Action  string `json:"action" binding:"required"`
	Comment string `json:"comment" binding:"max=1000"`
}

type CancelLeaveRequest struct {
	Reason string `json:"reason" binding:"required,max=1000"`
}

type ListLeavesQuery struct {
	Status       string `form:"status"`
	LeaveType    string `form:"leave_type"`
	EmployeeID   string `form:"employee_id"`
	DepartmentID string `form:"department_id"`
	From         string `form:"from"`
	To           string `form:"to"`
}

type LeaveResponse struct {
	ID                    string   `json:"id"`
	RequestNumber         string   `json:"request_number"`
	CompanyID             string   `json:"company_id"`
	EmployeeID            string   `json:"employee_id"`
	EmployeeName          string   `json:"employee_name,omitempty"`
	DepartmentName        string   `json:"department_name,omitempty"`
	LeaveType             string   `json:"leave_type"`
	StartDate             string   `json:"start_date"`
	EndDate               string   `json:"end_date"`
	DaysCount             float64  `json:"days_count"`
	DeductedDays          float64  `json:"deducted_days"`
	Reason                string   `json:"reason"`
	SubstituteEmployeeID  *string  `json:"substitute_employee_id,omitempty"`
	Status                string   `json:"status"`
	DecidedBy             *string  `json:"decided_by,omitempty"`
	DecidedAt             *string  `json:"decided_at,omitempty"`
	DecisionComment       *string  `json:"decision_comment,omitempty"`
	CancellationRequested bool     `json:"cancellation_requested"`
	CancellationStatus    *string  `json:"cancellation_status,omitempty"`
	CancellationReason    *string  `json:"cancellation_reason,omitempty"`
	CancellationDecidedBy *string  `json:"cancellation_decided_by,omitempty"`
	CancellationComment   *string  `json:"cancellation_comment,omitempty"`
	PolicyVersion         int64    `json:"policy_version"`
	CreatedAt             string   `json:"created_at"`
	BalanceAfter          *float64 `json:"balance_after,omitempty"`
}

type BalanceResponse struct {
	EmployeeID         string  `json:"employee_id"`
	EmployeeName       string  `json:"employee_name"`
	Year               int     `json:"year"`
	BaseEntitlement    float64 `json:"base_entitlement"`
	CarryOver          float64 `json:"carry_over"`
	TotalEntitlement   float64 `json:"total_entitlement"`
	UsedDays           float64 `json:"used_days"`
	PendingDays        float64 `json:"pending_days"`
	CurrentBalance     float64 `json:"current_balance"`
	AdvanceLimit       float64 `json:"advance_limit"`
	AvailableToRequest float64 `json:"available_to_request"`
}

type CalendarEntry struct {
	LeaveID        string `json:"leave_id"`
	EmployeeID     string `json:"employee_id"`
	EmployeeName   string `json:"employee_name"`
	DepartmentName string `json:"department_name,omitempty"`
	LeaveType      string `json:"leave_type"`
	Status         string `json:"status"`
}

type CalendarDay struct {
	Date     string          `json:"date"`
	Weekday  string          `json:"weekday"`
	Holiday  string          `json:"holiday,omitempty"`
	Capacity int             `json:"capacity"`
	OnLeave  []CalendarEntry `json:"on_leave"`
}

type CalendarResponse struct {
	Month string        `json:"month"`
	Days  []CalendarDay `json:"days"`
}

type TeamMemberStatus struct {
	EmployeeID   string         `json:"employee_id"`
	EmployeeName string         `json:"employee_name"`
	OnLeaveToday bool           `json:"on_leave_today"`
	CurrentLeave *LeaveResponse `json:"current_leave,omitempty"`
}

type TeamStatusResponse struct {
	DepartmentID   string             `json:"department_id"`
	DepartmentName string             `json:"department_name"`
	Date           string             `json:"date"`
	Members        []TeamMemberStatus `json:"members"`
	OnLeaveCount   int                `json:"on_leave_count"`
	Upcoming       []LeaveResponse    `json:"upcoming"`
}

type DepartmentStats struct {
	DepartmentID     string  `json:"department_id"`
	DepartmentName   string  `json:"department_name"`
	Headcount        int     `json:"headcount"`
	UsedDays         float64 `json:"used_days"`
	PendingDays      float64 `json:"pending_days"`
	AverageBalance   float64 `json:"average_balance"`
	TotalEntitlement float64 `json:"total_entitlement"`
}

type DepartmentStatsResponse struct {
	Year        int               `json:"year"`
	Departments []DepartmentStats `json:"departments"`
}

type LedgerEntryResponse struct {
	ID             string  `json:"id"`
	LeaveRequestID *string `json:"leave_request_id,omitempty"`
	Kind           string  `json:"kind"`
	Delta          float64 `json:"delta"`
	BalanceAfter   float64 `json:"balance_after"`
	CreatedAt      string  `json:"created_at"`
}

type EmployeeLogResponse struct {
	EmployeeID     string                `json:"employee_id"`
	EmployeeName   string                `json:"employee_name"`
	DepartmentName string                `json:"department_name,omitempty"`
	HireDate       string                `json:"hire_date"`
	Year           int                   `json:"year"`
	Balance        BalanceResponse       `json:"balance"`
	Requests       []LeaveResponse       `json:"requests"`
	Ledger         []LedgerEntryResponse `json:"ledger"`
}

const (
	CarryOverCreated = "created"
	CarryOverSkipped = "skipped"
	CarryOverFailed  = "failed"
)

type CarryOverEmployeeResult struct {
	EmployeeID   string   `json:"employee_id"`
	EmployeeName string   `json:"employee_name"`
	Status       string   `json:"status"`
	CarryOver    float64  `json:"carry_over"`
	NewBalance   *float64 `json:"new_balance,omitempty"`
	Error        string   `json:"error,omitempty"`
}

type CarryOverResult struct {
	Year       int                       `json:"year"`
	TargetYear int                       `json:"target_year"`
	Processed  int                       `json:"processed"`
	Skipped    int                       `json:"skipped"`
	Failed     int                       `json:"failed"`
	Employees  []CarryOverEmployeeResult `json:"employees"`
}

type CarryOverQueued struct {
	Year   int    `json:"year"`
	TaskID string `json:"task_id"`
	Queued bool   `json:"queued"`
}

type ExceptionRequest struct {
	Date                string `json:"date" binding:"required,date_ymd"`
	MaxConcurrentLeaves int    `json:"max_concurrent_leaves" binding:"required,min=1"`
	Reason              string `json:"reason" binding:"max=500"`
}

type ExceptionResponse struct {
	ID                  string `json:"id"`
	Date                string `json:"date"`
	MaxConcurrentLeaves int    `json:"max_concurrent_leaves"`
	Reason              string `json:"reason"`
	CreatedBy           string `json:"created_by"`
}

type RequestMismatch struct {
	LeaveID      string  `json:"leave_id"`
	Status       string  `json:"status"`
	Deleted      bool    `json:"deleted"`
	Expected     float64 `json:"expected"`
	JournalTotal float64 `json:"journal_total"`
}

type BalanceMismatch struct {
	EmployeeID   string  `json:"employee_id"`
	Balance      float64 `json:"balance"`
	JournalValue float64 `json:"journal_value"`
}

type ReconcileReport struct {
	CompanyID         string            `json:"company_id"`
	CheckedRequests   int               `json:"checked_requests"`
	CheckedEmployees  int               `json:"checked_employees"`
	RequestMismatches []RequestMismatch `json:"request_mismatches"`
	BalanceMismatches []BalanceMismatch `json:"balance_mismatches"`
}

func (r ReconcileReport) OK() bool {
	return len(r.RequestMismatches) == 0 && len(r.BalanceMismatches) == 0
}
