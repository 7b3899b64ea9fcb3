package leave

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"hr-leave/internal/shared/database"
	"hr-leave/internal/tenant"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ListFilter narrows List. Empty fields are ignored; From/To select requests overlapping the window.
type ListFilter struct {
	EmployeeID   string
	DepartmentID string
	Status       string
	LeaveType    string
	From         *time.Time
	To           *time.Time
}

type Repository interface {
	WithTx(tx *sql.Tx) Repository

	Create(ctx context.Context, l *LeaveRequest) error
	Update(ctx context.Context, l *LeaveRequest) error
	SoftDelete(ctx context.Context, companyID, id string) error
	FindByIDAndCompany(ctx context.Context, companyID, id string) (*LeaveRequest, error)
	LockByIDAndCompany(ctx context.Context, companyID, id string) (*LeaveRequest, error)
	List(ctx context.Context, companyID string, f ListFilter) ([]LeaveRequest, error)
	// FindOverlapping returns active requests of employees other than excludeEmployeeID.
	FindOverlapping(ctx context.Context, companyID string, start, end time.Time, excludeEmployeeID string) ([]LeaveRequest, error)
	// FindEmployeeOverlapping returns the employee's own active requests, skipping excludeID.
	FindEmployeeOverlapping(ctx context.Context, companyID, employeeID string, start, end time.Time, excludeID string) ([]LeaveRequest, error)
	CountPending(ctx context.Context, companyID, employeeID, excludeID string) (int64, error)
	ListForReconcile(ctx context.Context, companyID string) ([]LeaveRequest, error)

	AppendLedger(ctx context.Context, e *LedgerEntry) error
	ListLedger(ctx context.Context, companyID, employeeID string, from, to time.Time) ([]LedgerEntry, error)
	SumLedgerByRequest(ctx context.Context, companyID string) (map[uuid.UUID]decimal.Decimal, error)
	LastLedgerEntries(ctx context.Context, companyID string) (map[uuid.UUID]LedgerEntry, error)

	FindAdjustment(ctx context.Context, companyID, employeeID string, year int) (*LeaveAdjustment, error)
	ListAdjustments(ctx context.Context, companyID string, year int) ([]LeaveAdjustment, error)
	CreateAdjustment(ctx context.Context, a *LeaveAdjustment) error
}

type repository struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{db: r.db, tx: tx}
}

func (r *repository) conn(ctx context.Context) *gorm.DB {
	return database.Session(ctx, r.db, r.tx)
}

func (r *repository) Create(ctx context.Context, l *LeaveRequest) error {
	return r.conn(ctx).Omit(clause.Associations).Create(l).Error
}

func (r *repository) Update(ctx context.Context, l *LeaveRequest) error {
	return r.conn(ctx).Omit(clause.Associations).Save(l).Error
}

func (r *repository) SoftDelete(ctx context.Context, companyID, id string) error {
	return r.conn(ctx).
		Scopes(tenant.Scope(companyID)).
		Delete(&LeaveRequest{}, "id = ?", id).Error
}

func (r *repository) FindByIDAndCompany(ctx context.Context, companyID, id string) (*LeaveRequest, error) {
	var l LeaveRequest
	err := r.conn(ctx).
		Scopes(tenant.Scope(companyID)).
		Preload("Employee.Department").
		First(&l, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *repository) LockByIDAndCompany(ctx context.Context, companyID, id string) (*LeaveRequest, error) {
	var l LeaveRequest
	err := r.conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Scopes(tenant.Scope(companyID)).
		First(&l, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &l, nil
}

func (r *repository) List(ctx context.Context, companyID string, f ListFilter) ([]LeaveRequest, error) {
	db := r.conn(ctx).
		Model(&LeaveRequest{}).
		Scopes(tenant.ScopeColumn("leave_requests.company_id", companyID)).
		Preload("Employee.Department")

	if f.EmployeeID != "" {
		db = db.Where("leave_requests.employee_id = ?", f.EmployeeID)
	}
	if f.DepartmentID != "" {
		db = db.Joins("JOIN employees ON employees.id = leave_requests.employee_id").
			Where("employees.department_id = ?", f.DepartmentID)
	}
	if f.Status != "" {
		db = db.Where("leave_requests.status = ?", f.Status)
	}
	if f.LeaveType != "" {
		db = db.Where("leave_requests.leave_type = ?", f.LeaveType)
	}
	if f.From != nil {
		db = db.Where("leave_requests.end_date >= ?", *f.From)
	}
	if f.To != nil {
		db = db.Where("leave_requests.start_date <= ?", *f.To)
	}

	var leaves []LeaveRequest
	err := db.Order("leave_requests.start_date DESC").Find(&leaves).Error
	return leaves, err
}

func (r *repository) FindOverlapping(ctx context.Context, companyID string, start, end time.Time, excludeEmployeeID string) ([]LeaveRequest, error) {
	var leaves []LeaveRequest
	err := r.conn(ctx).
		Scopes(tenant.Scope(companyID)).
		Preload("Employee").
		Where("employee_id <> ?", excludeEmployeeID).
		Where("status IN ?", ActiveStatuses).
		Where("start_date <= ? AND end_date >= ?", end, start).
		Order("start_date ASC").
		Find(&leaves).Error
	return leaves, err
}

func (r *repository) FindEmployeeOverlapping(ctx context.Context, companyID, employeeID string, start, end time.Time, excludeID string) ([]LeaveRequest, error) {
	db := r.conn(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("employee_id = ?", employeeID).
		Where("status IN ?", ActiveStatuses).
		Where("start_date <= ? AND end_date >= ?", end, start)
	if excludeID != "" {
		db = db.Where("id <> ?", excludeID)
	}

	var leaves []LeaveRequest
	err := db.Find(&leaves).Error
	return leaves, err
}

func (r *repository) CountPending(ctx context.Context, companyID, employeeID, excludeID string) (int64, error) {
	db := r.conn(ctx).
		Model(&LeaveRequest{}).
		Scopes(tenant.Scope(companyID)).
		Where("employee_id = ?", employeeID).
		Where("status = ?", StatusPending)
	if excludeID != "" {
		db = db.Where("id <> ?", excludeID)
	}

	var count int64
	err := db.Count(&count).Error
	return count, err
}

// ListForReconcile includes soft-deleted requests: their journal must net to zero too.
func (r *repository) ListForReconcile(ctx context.Context, companyID string) ([]LeaveRequest, error) {
	var leaves []LeaveRequest
	err := r.conn(ctx).
		Unscoped().
		Scopes(tenant.Scope(companyID)).
		Order("created_at ASC").
		Find(&leaves).Error
	return leaves, err
}

func (r *repository) AppendLedger(ctx context.Context, e *LedgerEntry) error {
	return r.conn(ctx).Create(e).Error
}

func (r *repository) ListLedger(ctx context.Context, companyID, employeeID string, from, to time.Time) ([]LedgerEntry, error) {
	var entries []LedgerEntry
	err := r.conn(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("employee_id = ?", employeeID).
		Where("created_at >= ? AND created_at < ?", from, to).
		Order("created_at ASC").
		Find(&entries).Error
	return entries, err
}

type requestSum struct {
	LeaveRequestID uuid.UUID
	Total          decimal.Decimal
}

func (r *repository) SumLedgerByRequest(ctx context.Context, companyID string) (map[uuid.UUID]decimal.Decimal, error) {
	var rows []requestSum
	err := r.conn(ctx).
		Model(&LedgerEntry{}).
		Select("leave_request_id, SUM(delta) AS total").
		Scopes(tenant.Scope(companyID)).
		Where("leave_request_id IS NOT NULL").
		Group("leave_request_id").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}

	sums := make(map[uuid.UUID]decimal.Decimal, len(rows))
	for _, row := range rows {
		sums[row.LeaveRequestID] = row.Total
	}
	return sums, nil
}

func (r *repository) LastLedgerEntries(ctx context.Context, companyID string) (map[uuid.UUID]LedgerEntry, error) {
	var entries []LedgerEntry
	err := r.conn(ctx).
		Raw(`
			SELECT DISTINCT ON (employee_id) *
			FROM leave_ledger_entries
			WHERE company_id = ?
			ORDER BY employee_id, created_at DESC, id DESC
		`, companyID).
		Scan(&entries).Error
	if err != nil {
		return nil, err
	}

	last := make(map[uuid.UUID]LedgerEntry, len(entries))
	for _, e := range entries {
		last[e.EmployeeID] = e
	}
	return last, nil
}

func (r *repository) FindAdjustment(ctx context.Context, companyID, employeeID string, year int) (*LeaveAdjustment, error) {
	var a LeaveAdjustment
	err := r.conn(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("employee_id = ? AND year = ?", employeeID, year).
		First(&a).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *repository) ListAdjustments(ctx context.Context, companyID string, year int) ([]LeaveAdjustment, error) {
	var adjustments []LeaveAdjustment
	err := r.conn(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("year = ?", year).
		Find(&adjustments).Error
	return adjustments, err
}

func (r *repository) CreateAdjustment(ctx context.Context, a *LeaveAdjustment) error {
	return r.conn(ctx).Create(a).Error
}
