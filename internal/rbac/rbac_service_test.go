package rbac

import (
	"context"
	"errors"
	"testing"
	"time"

	"hr-leave/internal/rbac/infra"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	employeeRoles map[string][]EmployeeRoleRow
	rolePerms     map[string][]RolePermissionRow
	err           error
	loads         int
}

func (f *fakeRepo) GetEmployeeRoles(ctx context.Context, companyID string) ([]EmployeeRoleRow, error) {
	f.loads++
	if f.err != nil {
		return nil, f.err
	}
	return f.employeeRoles[companyID], nil
}

func (f *fakeRepo) GetRolePermissions(ctx context.Context, companyID string) ([]RolePermissionRow, error) {
	return f.rolePerms[companyID], nil
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		employeeRoles: map[string][]EmployeeRoleRow{
			"company-1": {{EmployeeID: "emp-manager", RoleID: "role-manager"}},
			"company-2": {{EmployeeID: "emp-other", RoleID: "role-admin"}},
		},
		rolePerms: map[string][]RolePermissionRow{
			"company-1": {{RoleID: "role-manager", Resource: ResourceLeave, Action: ActionManage}},
			"company-2": {{RoleID: "role-admin", Resource: ResourceLeave, Action: ActionAdmin}},
		},
	}
}

func TestRBACService_Can(t *testing.T) {
	ctx := context.Background()

	t.Run("manager can manage leave in own company only", func(t *testing.T) {
		enforcer, err := infra.NewEnforcer("")
		require.NoError(t, err)
		svc := NewService(newFakeRepo(), enforcer, time.Minute)

		allowed, err := svc.Can(ctx, "company-1", "emp-manager", ResourceLeave, ActionManage)
		require.NoError(t, err)
		assert.True(t, allowed)

		allowed, err = svc.Can(ctx, "company-1", "emp-manager", ResourceLeave, ActionAdmin)
		require.NoError(t, err)
		assert.False(t, allowed)

		allowed, err = svc.Can(ctx, "company-2", "emp-manager", ResourceLeave, ActionManage)
		require.NoError(t, err)
		assert.False(t, allowed)
	})

	t.Run("loading one company keeps the other", func(t *testing.T) {
		enforcer, err := infra.NewEnforcer("")
		require.NoError(t, err)
		svc := NewService(newFakeRepo(), enforcer, time.Minute)

		require.NoError(t, svc.LoadCompanyPolicy(ctx, "company-1"))
		require.NoError(t, svc.LoadCompanyPolicy(ctx, "company-2"))

		allowed, err := svc.Can(ctx, "company-1", "emp-manager", ResourceLeave, ActionManage)
		require.NoError(t, err)
		assert.True(t, allowed)
	})

	t.Run("policy cached within ttl", func(t *testing.T) {
		repo := newFakeRepo()
		enforcer, err := infra.NewEnforcer("")
		require.NoError(t, err)
		svc := NewService(repo, enforcer, time.Hour)

		_, _ = svc.Can(ctx, "company-1", "emp-manager", ResourceLeave, ActionManage)
		_, _ = svc.Can(ctx, "company-1", "emp-manager", ResourceLeave, ActionManage)

		assert.Equal(t, 1, repo.loads)
	})

	t.Run("negative repository error", func(t *testing.T) {
		repo := newFakeRepo()
		repo.err = errors.New("db down")
		enforcer, err := infra.NewEnforcer("")
		require.NoError(t, err)
		svc := NewService(repo, enforcer, time.Minute)

		allowed, err := svc.Can(ctx, "company-1", "emp-manager", ResourceLeave, ActionManage)

		assert.Error(t, err)
		assert.False(t, allowed)
	})
}
