package employee

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	return db, mock
}

func TestRepository_LockByIDAndCompany(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRepository(db)
	id := uuid.New()
	companyID := uuid.New()

	mock.ExpectQuery(`SELECT \* FROM "employees" WHERE .+ FOR UPDATE`).
		WithArgs(id.String(), companyID.String(), 1).
		WillReturnRows(sqlmock.NewRows([]string{"id", "company_id", "full_name", "leave_balance"}).
			AddRow(id.String(), companyID.String(), "Ana", "10.5"))

	got, err := repo.LockByIDAndCompany(context.Background(), companyID.String(), id.String())

	require.NoError(t, err)
	assert.Equal(t, "Ana", got.FullName)
	assert.True(t, got.LeaveBalance.Equal(decimal.RequireFromString("10.5")))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRepository_UpdateLeaveBalance(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRepository(db)

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE "employees" SET "leave_balance"=$1,"updated_at"=$2 WHERE`)).
		WithArgs("5", sqlmock.AnyArg(), "emp-1", "company-1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdateLeaveBalance(context.Background(), "company-1", "emp-1", decimal.NewFromInt(5))

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
