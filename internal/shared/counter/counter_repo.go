package counter

import (
	"context"
	"database/sql"
	"fmt"

	"hr-leave/internal/shared/database"

	"gorm.io/gorm"
)

const LeaveRequestCounter = "leave_request"

type Repository interface {
	WithTx(tx *sql.Tx) Repository
	GetNextValue(ctx context.Context, companyID string, counterType string) (int64, error)
	NextLeaveRequestNumber(ctx context.Context, companyID string) (string, error)
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

func (r *repository) GetNextValue(ctx context.Context, companyID string, counterType string) (int64, error) {
	var nextValue int64

	// Atomic UPSERT so concurrent submissions in the same company never share a number.
	err := database.Session(ctx, r.db, r.tx).Raw(`
		INSERT INTO company_counters (company_id, counter_type, last_value, updated_at)
		VALUES (?, ?, 1, now())
		ON CONFLICT (company_id, counter_type) DO UPDATE
		SET last_value = company_counters.last_value + 1, updated_at = now()
		RETURNING last_value
	`, companyID, counterType).Scan(&nextValue).Error

	if err != nil {
		return 0, err
	}

	return nextValue, nil
}

func (r *repository) NextLeaveRequestNumber(ctx context.Context, companyID string) (string, error) {
	n, err := r.GetNextValue(ctx, companyID, LeaveRequestCounter)
	if err != nil {
		return "", err
	}
	return FormatLeaveRequestNumber(n), nil
}

// FormatLeaveRequestNumber renders LV-000123.
func FormatLeaveRequestNumber(n int64) string {
	return fmt.Sprintf("LV-%06d", n)
}
