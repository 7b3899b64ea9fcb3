package leave

import (
	"context"
	"database/sql"
	"time"

	"hr-leave/internal/shared/database"
	"hr-leave/internal/tenant"

	"gorm.io/gorm"
)

type ExceptionRepository interface {
	WithTx(tx *sql.Tx) ExceptionRepository
	Create(ctx context.Context, e *LeaveException) error
	Update(ctx context.Context, e *LeaveException) error
	Delete(ctx context.Context, companyID, id string) error
	FindByIDAndCompany(ctx context.Context, companyID, id string) (*LeaveException, error)
	ListBetween(ctx context.Context, companyID string, from, to time.Time) ([]LeaveException, error)
}

type exceptionRepository struct {
	db *gorm.DB
	tx *sql.Tx
}

func NewExceptionRepository(db *gorm.DB) ExceptionRepository {
	return &exceptionRepository{db: db}
}

func (r *exceptionRepository) WithTx(tx *sql.Tx) ExceptionRepository {
	return &exceptionRepository{db: r.db, tx: tx}
}

func (r *exceptionRepository) conn(ctx context.Context) *gorm.DB {
	return database.Session(ctx, r.db, r.tx)
}

func (r *exceptionRepository) Create(ctx context.Context, e *LeaveException) error {
	return r.conn(ctx).Create(e).Error
}

func (r *exceptionRepository) Update(ctx context.Context, e *LeaveException) error {
	return r.conn(ctx).Save(e).Error
}

func (r *exceptionRepository) Delete(ctx context.Context, companyID, id string) error {
	res := r.conn(ctx).
		Scopes(tenant.Scope(companyID)).
		Delete(&LeaveException{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *exceptionRepository) FindByIDAndCompany(ctx context.Context, companyID, id string) (*LeaveException, error) {
	var e LeaveException
	err := r.conn(ctx).
		Scopes(tenant.Scope(companyID)).
		First(&e, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func (r *exceptionRepository) ListBetween(ctx context.Context, companyID string, from, to time.Time) ([]LeaveException, error) {
	var exceptions []LeaveException
	err := r.conn(ctx).
		Scopes(tenant.Scope(companyID)).
		Where("date BETWEEN ? AND ?", from, to).
		Order("date ASC").
		Find(&exceptions).Error
	return exceptions, err
}

// capacityByDate indexes exceptions by YYYY-MM-DD.
func capacityByDate(exceptions []LeaveException) map[string]int {
	capacities := make(map[string]int, len(exceptions))
	for _, e := range exceptions {
		capacities[dateKey(e.Date)] = e.MaxConcurrentLeaves
	}
	return capacities
}
