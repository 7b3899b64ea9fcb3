package counter

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	sqlDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = sqlDB.Close() })

	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{})
	require.NoError(t, err)
	return db, mock
}

func TestNextLeaveRequestNumber(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO company_counters")).
		WithArgs("company-1", LeaveRequestCounter).
		WillReturnRows(sqlmock.NewRows([]string{"last_value"}).AddRow(42))

	got, err := repo.NextLeaveRequestNumber(context.Background(), "company-1")

	require.NoError(t, err)
	assert.Equal(t, "LV-000042", got)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFormatLeaveRequestNumber(t *testing.T) {
	assert.Equal(t, "LV-000001", FormatLeaveRequestNumber(1))
	assert.Equal(t, "LV-1234567", FormatLeaveRequestNumber(1234567))
}
