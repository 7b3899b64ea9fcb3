package leave

import (
	"context"
	"errors"

	"hr-leave/internal/employee"
	employeeerrors "hr-leave/internal/employee/errors"
	leaveerrors "hr-leave/internal/leave/errors"
	"hr-leave/internal/rbac"

	"gorm.io/gorm"
)

type visibility int

const (
	visibilityOwn visibility = iota
	visibilityDepartment
	visibilityCompany
)

// access resolves who may see or act on whose leave.
type access struct {
	authz     Authorizer
	employees employee.Repository
}

func (a access) can(ctx context.Context, companyID, actorID, action string) (bool, error) {
	if a.authz == nil {
		return false, nil
	}
	return a.authz.Can(ctx, companyID, actorID, rbac.ResourceLeave, action)
}

// requireCapability returns ErrForbidden when the actor lacks leave:<action>.
func (a access) requireCapability(ctx context.Context, companyID, actorID, action string) error {
	ok, err := a.can(ctx, companyID, actorID, action)
	if err != nil {
		return err
	}
	if !ok {
		return leaveerrors.ErrForbidden
	}
	return nil
}

func (a access) visibilityFor(ctx context.Context, companyID, actorID string) (visibility, error) {
	ok, err := a.can(ctx, companyID, actorID, rbac.ActionReadAll)
	if err != nil {
		return visibilityOwn, err
	}
	if ok {
		return visibilityCompany, nil
	}
	ok, err = a.can(ctx, companyID, actorID, rbac.ActionManage)
	if err != nil {
		return visibilityOwn, err
	}
	if ok {
		return visibilityDepartment, nil
	}
	return visibilityOwn, nil
}

func (a access) loadEmployee(ctx context.Context, companyID, employeeID string) (*employee.Employee, error) {
	emp, err := a.employees.FindByIDAndCompany(ctx, companyID, employeeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, employeeerrors.ErrEmployeeNotFound
		}
		return nil, err
	}
	return emp, nil
}

// actorDepartment returns the department of the acting employee, empty when unassigned.
func (a access) actorDepartment(ctx context.Context, companyID, actorID string) (string, error) {
	emp, err := a.loadEmployee(ctx, companyID, actorID)
	if err != nil {
		return "", err
	}
	return emp.DepartmentIDString(), nil
}

// canSeeEmployee applies the visibility rule: self always, department for managers,
// everyone for read_all.
func (a access) canSeeEmployee(ctx context.Context, companyID, actorID string, target *employee.Employee) (bool, error) {
	if target != nil && target.ID.String() == actorID {
		return true, nil
	}
	vis, err := a.visibilityFor(ctx, companyID, actorID)
	if err != nil {
		return false, err
	}
	switch vis {
	case visibilityCompany:
		return true, nil
	case visibilityDepartment:
		dept, err := a.actorDepartment(ctx, companyID, actorID)
		if err != nil {
			return false, err
		}
		return dept != "" && target != nil && target.DepartmentIDString() == dept, nil
	default:
		return false, nil
	}
}

func (a access) canSee(ctx context.Context, companyID, actorID string, l *LeaveRequest) (bool, error) {
	if l.EmployeeID.String() == actorID {
		return true, nil
	}
	return a.canSeeEmployee(ctx, companyID, actorID, l.Employee)
}
