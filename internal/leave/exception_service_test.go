package leave_test

import (
	"context"
	"testing"

	"hr-leave/internal/leave"
	leaveerrors "hr-leave/internal/leave/errors"
	"hr-leave/internal/rbac"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExceptionService(t *testing.T) {
	ctx := context.Background()
	f := setupLeaveFixture(t)
	svc := leave.NewExceptionService(f.deps)

	mgr := f.addEmployee("Budi", "2018-01-01", 20)
	emp := f.addEmployee("Ani", "2020-01-01", 10)
	f.authz.grant(mgr, rbac.ActionManage)

	req := leave.ExceptionRequest{Date: "2025-04-01", MaxConcurrentLeaves: 3, Reason: "Offsite"}

	t.Run("employees cannot manage exceptions", func(t *testing.T) {
		_, err := svc.Create(ctx, f.company(), emp.String(), req)
		assert.ErrorIs(t, err, leaveerrors.ErrForbidden)
	})

	t.Run("capacity must be positive", func(t *testing.T) {
		bad := req
		bad.MaxConcurrentLeaves = 0
		_, err := svc.Create(ctx, f.company(), mgr.String(), bad)
		assert.ErrorIs(t, err, leaveerrors.ErrInvalidCapacity)
	})

	expectTx(t, f.sqlMock, true)
	created, err := svc.Create(ctx, f.company(), mgr.String(), req)
	require.NoError(t, err)
	assert.Equal(t, "2025-04-01", created.Date)
	assert.Equal(t, mgr.String(), created.CreatedBy)

	t.Run("one exception per date", func(t *testing.T) {
		expectTx(t, f.sqlMock, false)
		_, err := svc.Create(ctx, f.company(), mgr.String(), req)
		assert.ErrorIs(t, err, leaveerrors.ErrExceptionExists)
	})

	t.Run("list by month", func(t *testing.T) {
		april, err := svc.List(ctx, f.company(), "2025-04")
		require.NoError(t, err)
		assert.Len(t, april, 1)

		may, err := svc.List(ctx, f.company(), "2025-05")
		require.NoError(t, err)
		assert.Empty(t, may)
	})

	t.Run("update", func(t *testing.T) {
		expectTx(t, f.sqlMock, true)
		updated, err := svc.Update(ctx, f.company(), mgr.String(), created.ID, leave.ExceptionRequest{
			Date: "2025-04-02", MaxConcurrentLeaves: 5,
		})
		require.NoError(t, err)
		assert.Equal(t, "2025-04-02", updated.Date)
		assert.Equal(t, 5, updated.MaxConcurrentLeaves)

		got, err := svc.GetByID(ctx, f.company(), created.ID)
		require.NoError(t, err)
		assert.Equal(t, 5, got.MaxConcurrentLeaves)
	})

	t.Run("delete", func(t *testing.T) {
		expectTx(t, f.sqlMock, true)
		require.NoError(t, svc.Delete(ctx, f.company(), mgr.String(), created.ID))

		expectTx(t, f.sqlMock, false)
		err := svc.Delete(ctx, f.company(), mgr.String(), created.ID)
		assert.ErrorIs(t, err, leaveerrors.ErrExceptionNotFound)

		_, err = svc.GetByID(ctx, f.company(), uuid.NewString())
		assert.ErrorIs(t, err, leaveerrors.ErrExceptionNotFound)
	})

	assert.NoError(t, f.sqlMock.ExpectationsWereMet())
}
