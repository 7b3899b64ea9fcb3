package leave_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"hr-leave/internal/employee"
	"hr-leave/internal/leave"
	"hr-leave/internal/policy"
	"hr-leave/internal/shared/apperror"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

type fakeAuthorizer struct {
	grants map[string]map[string]bool
}

func (f *fakeAuthorizer) grant(employeeID uuid.UUID, actions ...string) {
	if f.grants == nil {
		f.grants = map[string]map[string]bool{}
	}
	set := f.grants[employeeID.String()]
	if set == nil {
		set = map[string]bool{}
		f.grants[employeeID.String()] = set
	}
	for _, a := range actions {
		set[a] = true
	}
}

func (f *fakeAuthorizer) Can(_ context.Context, _, employeeID, resource, action string) (bool, error) {
	if resource != "leave" {
		return false, nil
	}
	return f.grants[employeeID][action], nil
}

type fakeMetrics struct {
	events   []string
	rejected []string
}

func (m *fakeMetrics) LeaveEvent(eventType string) { m.events = append(m.events, eventType) }
func (m *fakeMetrics) LeaveRejected(reason string) { m.rejected = append(m.rejected, reason) }

type leaveFixture struct {
	db        *sql.DB
	sqlMock   sqlmock.Sqlmock
	store     *memStore
	authz     *fakeAuthorizer
	metrics   *fakeMetrics
	snapshot  *policy.Snapshot
	deps      leave.Deps
	companyID uuid.UUID
	dept      employee.Department
	now       time.Time
}

// setupLeaveFixture freezes the clock on Saturday 2025-03-01.
func setupLeaveFixture(t *testing.T) *leaveFixture {
	t.Helper()

	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	f := &leaveFixture{
		db:        db,
		sqlMock:   mock,
		store:     newMemStore(),
		authz:     &fakeAuthorizer{},
		metrics:   &fakeMetrics{},
		companyID: uuid.New(),
		now:       time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC),
		snapshot: &policy.Snapshot{
			Version:  1,
			Rules:    policy.DefaultRules(),
			Calendar: policy.EmptyCalendar(),
		},
	}
	f.dept = employee.Department{ID: uuid.New(), CompanyID: f.companyID, Name: "Engineering"}
	f.store.departments = []employee.Department{f.dept}

	f.deps = leave.Deps{
		DB:         db,
		Leaves:     f.store.leaveRepo(),
		Exceptions: f.store.exceptionRepo(),
		Employees:  f.store.employeeRepo(),
		Counter:    f.store.counterRepo(),
		Outbox:     f.store.outboxRepo(),
		Policy:     policy.StaticProvider{Snapshot: f.snapshot},
		Authorizer: f.authz,
		Metrics:    f.metrics,
		Now:        func() time.Time { return f.now },
	}
	return f
}

func (f *leaveFixture) company() string { return f.companyID.String() }

func (f *leaveFixture) addEmployee(name, hire string, balance float64) uuid.UUID {
	id := uuid.New()
	deptID := f.dept.ID
	initialized := f.now
	f.store.employees[id] = employee.Employee{
		ID:                        id,
		CompanyID:                 f.companyID,
		DepartmentID:              &deptID,
		FullName:                  name,
		HireDate:                  date(hire),
		LeaveBalance:              decimal.NewFromFloat(balance),
		LeaveBalanceInitializedAt: &initialized,
	}
	return id
}

func (f *leaveFixture) seedLeave(employeeID uuid.UUID, leaveType, status, start, end string, deducted float64) leave.LeaveRequest {
	l := leave.LeaveRequest{
		ID:           uuid.New(),
		CompanyID:    f.companyID,
		EmployeeID:   employeeID,
		LeaveType:    leaveType,
		StartDate:    date(start),
		EndDate:      date(end),
		DaysCount:    decimal.NewFromFloat(deducted),
		DeductedDays: decimal.NewFromFloat(deducted),
		Status:       status,
		CreatedAt:    f.now,
		UpdatedAt:    f.now,
	}
	f.store.leaves[l.ID] = l
	return l
}

func (f *leaveFixture) balance(id uuid.UUID) float64 {
	return f.store.balance(id).InexactFloat64()
}

func expectTx(t *testing.T, mock sqlmock.Sqlmock, commit bool) {
	t.Helper()
	mock.ExpectBegin()
	if commit {
		mock.ExpectCommit()
	} else {
		mock.ExpectRollback()
	}
}

func asConflictReport(err error, out *leave.ConflictReport) bool {
	var appErr *apperror.AppError
	if !errors.As(err, &appErr) {
		return false
	}
	report, ok := appErr.Details.(leave.ConflictReport)
	if ok {
		*out = report
	}
	return ok
}
