package leave

import (
	"time"

	"hr-leave/internal/employee"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const (
	StatusPending   = "PENDING"
	StatusApproved  = "APPROVED"
	StatusRejected  = "REJECTED"
	StatusCancelled = "CANCELLED"
)

const (
	TypeAnnual   = "ANNUAL"
	TypeSick     = "SICK"
	TypePersonal = "PERSONAL"
	TypeFamily   = "FAMILY"
	TypeUnpaid   = "UNPAID"
)

const (
	CancellationPending  = "PENDING"
	CancellationApproved = "APPROVED"
	CancellationRejected = "REJECTED"
)

// ActiveStatuses are the statuses that occupy a date and hold a deduction.
var ActiveStatuses = []string{StatusPending, StatusApproved}

type LeaveRequest struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID     uuid.UUID `gorm:"type:uuid;not null;index:idx_leave_requests_company_status"`
	EmployeeID    uuid.UUID `gorm:"type:uuid;not null;index:idx_leave_requests_employee_dates"`
	RequestNumber string    `gorm:"type:varchar(20);not null"`

	LeaveType            string          `gorm:"type:varchar(20);not null;default:'ANNUAL'"`
	StartDate            time.Time       `gorm:"type:date;not null;index:idx_leave_requests_employee_dates"`
	EndDate              time.Time       `gorm:"type:date;not null;index:idx_leave_requests_employee_dates"`
	DaysCount            decimal.Decimal `gorm:"type:numeric(6,1);not null"`
	DeductedDays         decimal.Decimal `gorm:"type:numeric(6,1);not null;default:0"`
	Reason               string          `gorm:"type:text"`
	SubstituteEmployeeID *uuid.UUID      `gorm:"type:uuid"`

	Status          string     `gorm:"type:varchar(20);not null;default:'PENDING';index:idx_leave_requests_company_status"`
	DecidedBy       *uuid.UUID `gorm:"type:uuid"`
	DecidedAt       *time.Time
	DecisionComment *string `gorm:"type:text"`

	CancellationRequested   bool    `gorm:"not null;default:false"`
	CancellationStatus      *string `gorm:"type:varchar(20)"`
	CancellationReason      *string `gorm:"type:text"`
	CancellationRequestedAt *time.Time
	CancellationDecidedBy   *uuid.UUID `gorm:"type:uuid"`
	CancellationDecidedAt   *time.Time
	CancellationComment     *string `gorm:"type:text"`

	PolicyVersion int64 `gorm:"not null;default:0"`

	Employee *employee.Employee `gorm:"foreignKey:EmployeeID"`

	CreatedAt time.Time
	UpdatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index:idx_leave_requests_deleted_at"`
}

func (LeaveRequest) TableName() string {
	return "leave_requests"
}

func (l *LeaveRequest) IsActive() bool {
	return l.Status == StatusPending || l.Status == StatusApproved
}

func (l *LeaveRequest) HasPendingCancellation() bool {
	return l.CancellationStatus != nil && *l.CancellationStatus == CancellationPending
}

func (l *LeaveRequest) EmployeeName() string {
	if l.Employee == nil {
		return ""
	}
	return l.Employee.FullName
}

const (
	LedgerRequestDeduct  = "REQUEST_DEDUCT"
	LedgerRequestRestore = "REQUEST_RESTORE"
	LedgerYearOpen       = "YEAR_OPEN"
)

// LedgerEntry is one append-only balance movement. BalanceAfter is the employee balance once
// Delta has been applied.
type LedgerEntry struct {
	ID             uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID      uuid.UUID       `gorm:"type:uuid;not null;index:idx_leave_ledger_employee"`
	EmployeeID     uuid.UUID       `gorm:"type:uuid;not null;index:idx_leave_ledger_employee"`
	LeaveRequestID *uuid.UUID      `gorm:"type:uuid;index"`
	Kind           string          `gorm:"type:varchar(20);not null"`
	Delta          decimal.Decimal `gorm:"type:numeric(6,1);not null"`
	BalanceAfter   decimal.Decimal `gorm:"type:numeric(6,1);not null"`
	CreatedBy      *uuid.UUID      `gorm:"type:uuid"`
	CreatedAt      time.Time
}

func (LedgerEntry) TableName() string {
	return "leave_ledger_entries"
}

// LeaveAdjustment is the carry-over granted into Year.
type LeaveAdjustment struct {
	ID         uuid.UUID       `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID  uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:uq_leave_adjustments_employee_year"`
	EmployeeID uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex:uq_leave_adjustments_employee_year"`
	Year       int             `gorm:"not null;uniqueIndex:uq_leave_adjustments_employee_year"`
	SourceYear int             `gorm:"not null"`
	Days       decimal.Decimal `gorm:"type:numeric(6,1);not null"`
	CreatedBy  *uuid.UUID      `gorm:"type:uuid"`
	CreatedAt  time.Time
}

func (LeaveAdjustment) TableName() string {
	return "leave_adjustments"
}

// LeaveException raises the number of employees allowed on leave on one date.
type LeaveException struct {
	ID                  uuid.UUID `gorm:"type:uuid;primaryKey;default:gen_random_uuid()"`
	CompanyID           uuid.UUID `gorm:"type:uuid;not null;uniqueIndex:uq_leave_exceptions_company_date"`
	Date                time.Time `gorm:"type:date;not null;uniqueIndex:uq_leave_exceptions_company_date"`
	MaxConcurrentLeaves int       `gorm:"not null;check:max_concurrent_leaves >= 1"`
	Reason              string    `gorm:"type:text"`
	CreatedBy           uuid.UUID `gorm:"type:uuid;not null"`
	CreatedAt           time.Time
	UpdatedAt           time.Time
}

func (LeaveException) TableName() string {
	return "leave_exceptions"
}
