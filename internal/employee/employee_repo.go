package employee

import (
	"context"
	"database/sql"
	"time"

	"hr-leave/internal/shared/database"
	"hr-leave/internal/tenant"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Repository interface {
	WithTx(tx *sql.Tx) Repository
	FindByIDAndCompany(ctx context.Context, companyID, id string) (*Employee, error)
	// LockByIDAndCompany reads the row with SELECT ... FOR UPDATE. Only meaningful inside WithTx.
	LockByIDAndCompany(ctx context.Context, companyID, id string) (*Employee, error)
	FindAllByCompany(ctx context.Context, companyID string) ([]Employee, error)
	FindByDepartment(ctx context.Context, companyID, departmentID string) ([]Employee, error)
	UpdateLeaveBalance(ctx context.Context, companyID, id string, balance decimal.Decimal) error
	MarkLeaveBalanceInitialized(ctx context.Context, companyID, id string, balance decimal.Decimal, at time.Time) error
	ListDepartments(ctx context.Context, companyID string) ([]Department, error)
}

type repository struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *sql.Tx) Repository {
	return &repository{
		db: r.db,
		tx: tx,
	}
}

func (r *repository) conn(ctx context.Context) *gorm.DB {
	return database.Session(ctx, r.db, r.tx)
}

func (r *repository) FindByIDAndCompany(ctx context.Context, companyID, id string) (*Employee, error) {
	var e Employee
	err := r.conn(ctx).
		Scopes(tenant.Scope(companyID)).
		Preload("Department").
		First(&e, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *repository) LockByIDAndCompany(ctx context.Context, companyID, id string) (*Employee, error) {
	var e Employee
	err := r.conn(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Scopes(tenant.Scope(companyID)).
		First(&e, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *repository) FindAllByCompany(ctx context.Context, companyID string) ([]Employee, error) {
	var employees []Employee
	err := r.conn(ctx).
		Scopes(tenant.Scope(companyID)).
		Preload("Department").
		Order("full_name ASC").
		Find(&employees).Error
	return employees, err
}

func (r *repository) FindByDepartment(ctx context.Context, companyID, departmentID string) ([]Employee, error) {
	var employees []Employee
	err := r.conn(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("department_id = ?", departmentID).
		Preload("Department").
		Order("full_name ASC").
		Find(&employees).Error
	return employees, err
}

func (r *repository) UpdateLeaveBalance(ctx context.Context, companyID, id string, balance decimal.Decimal) error {
	return r.conn(ctx).
		Model(&Employee{}).
		Scopes(tenant.Scope(companyID)).
		Where("id = ?", id).
		Updates(map[string]any{
			"leave_balance": balance,
			"updated_at":    time.Now().UTC(),
		}).Error
}

func (r *repository) MarkLeaveBalanceInitialized(ctx context.Context, companyID, id string, balance decimal.Decimal, at time.Time) error {
	return r.conn(ctx).
		Model(&Employee{}).
		Scopes(tenant.Scope(companyID)).
		Where("id = ? AND leave_balance_initialized_at IS NULL", id).
		Updates(map[string]any{
			"leave_balance":                balance,
			"leave_balance_initialized_at": at,
			"updated_at":                   at,
		}).Error
}

func (r *repository) ListDepartments(ctx context.Context, companyID string) ([]Department, error) {
	var departments []Department
	err := r.conn(ctx).
		Scopes(tenant.Scope(companyID)).
		Order("name ASC").
		Find(&departments).Error
	return departments, err
}
