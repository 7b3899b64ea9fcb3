package leave_test

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"hr-leave/internal/employee"
	"hr-leave/internal/leave"
	"hr-leave/internal/messaging/kafka"
	"hr-leave/internal/shared/counter"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// memStore is an in-memory stand-in for the tables the leave services touch. Transactions are
// simulated by sqlmock; writes here are applied immediately.
type memStore struct {
	employees   map[uuid.UUID]employee.Employee
	departments []employee.Department
	leaves      map[uuid.UUID]leave.LeaveRequest
	ledger      []leave.LedgerEntry
	adjustments []leave.LeaveAdjustment
	exceptions  map[uuid.UUID]leave.LeaveException
	outbox      []kafka.OutboxEvent
	seq         int
}

func newMemStore() *memStore {
	return &memStore{
		employees:  map[uuid.UUID]employee.Employee{},
		leaves:     map[uuid.UUID]leave.LeaveRequest{},
		exceptions: map[uuid.UUID]leave.LeaveException{},
	}
}

func (m *memStore) employee(id uuid.UUID) (*employee.Employee, bool) {
	e, ok := m.employees[id]
	if !ok {
		return nil, false
	}
	if e.DepartmentID != nil {
		for _, d := range m.departments {
			if d.ID == *e.DepartmentID {
				dept := d
				e.Department = &dept
			}
		}
	}
	return &e, true
}

func (m *memStore) withEmployee(l leave.LeaveRequest) leave.LeaveRequest {
	if e, ok := m.employee(l.EmployeeID); ok {
		l.Employee = e
	}
	return l
}

func (m *memStore) balance(id uuid.UUID) decimal.Decimal {
	return m.employees[id].LeaveBalance
}

func (m *memStore) eventTypes() []string {
	out := make([]string, len(m.outbox))
	for i, e := range m.outbox {
		out[i] = e.EventType
	}
	return out
}

func (m *memStore) leaveRepo() leave.Repository { return &memLeaveRepo{m} }
func (m *memStore) employeeRepo() employee.Repository { return &memEmployeeRepo{m} }
func (m *memStore) exceptionRepo() leave.ExceptionRepository { return &memExceptionRepo{m} }
func (m *memStore) counterRepo() counter.Repository { return &memCounter{m} }
func (m *memStore) outboxRepo() kafka.OutboxRepository { return &memOutbox{m} }

var errUniqueViolation = &pgconn.PgError{Code: "23505"}

type memLeaveRepo struct{ m *memStore }

func (r *memLeaveRepo) WithTx(*sql.Tx) leave.Repository { return r }

func (r *memLeaveRepo) Create(_ context.Context, l *leave.LeaveRequest) error {
	row := *l
	row.Employee = nil
	r.m.leaves[l.ID] = row
	return nil
}

func (r *memLeaveRepo) Update(_ context.Context, l *leave.LeaveRequest) error {
	if _, ok := r.m.leaves[l.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	row := *l
	row.Employee = nil
	r.m.leaves[l.ID] = row
	return nil
}

func (r *memLeaveRepo) SoftDelete(_ context.Context, _ string, id string) error {
	row, ok := r.m.leaves[uuid.MustParse(id)]
	if !ok || row.DeletedAt.Valid {
		return gorm.ErrRecordNotFound
	}
	row.DeletedAt = gorm.DeletedAt{Time: time.Now(), Valid: true}
	r.m.leaves[row.ID] = row
	return nil
}

func (r *memLeaveRepo) FindByIDAndCompany(_ context.Context, _ string, id string) (*leave.LeaveRequest, error) {
	row, ok := r.m.leaves[uuid.MustParse(id)]
	if !ok || row.DeletedAt.Valid {
		return nil, gorm.ErrRecordNotFound
	}
	row = r.m.withEmployee(row)
	return &row, nil
}

func (r *memLeaveRepo) LockByIDAndCompany(ctx context.Context, companyID, id string) (*leave.LeaveRequest, error) {
	return r.FindByIDAndCompany(ctx, companyID, id)
}

func (r *memLeaveRepo) live() []leave.LeaveRequest {
	out := make([]leave.LeaveRequest, 0, len(r.m.leaves))
	for _, l := range r.m.leaves {
		if !l.DeletedAt.Valid {
			out = append(out, r.m.withEmployee(l))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.After(out[j].StartDate) })
	return out
}

func (r *memLeaveRepo) List(_ context.Context, _ string, f leave.ListFilter) ([]leave.LeaveRequest, error) {
	var out []leave.LeaveRequest
	for _, l := range r.live() {
		switch {
		case f.EmployeeID != "" && l.EmployeeID.String() != f.EmployeeID:
		case f.DepartmentID != "" && (l.Employee == nil || l.Employee.DepartmentIDString() != f.DepartmentID):
		case f.Status != "" && l.Status != f.Status:
		case f.LeaveType != "" && l.LeaveType != f.LeaveType:
		case f.From != nil && l.EndDate.Before(*f.From):
		case f.To != nil && l.StartDate.After(*f.To):
		default:
			out = append(out, l)
		}
	}
	return out, nil
}

func overlapsRange(l leave.LeaveRequest, start, end time.Time) bool {
	return l.IsActive() && !l.StartDate.After(end) && !l.EndDate.Before(start)
}

func (r *memLeaveRepo) FindOverlapping(_ context.Context, _ string, start, end time.Time, excludeEmployeeID string) ([]leave.LeaveRequest, error) {
	var out []leave.LeaveRequest
	for _, l := range r.live() {
		if l.EmployeeID.String() != excludeEmployeeID && overlapsRange(l, start, end) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *memLeaveRepo) FindEmployeeOverlapping(_ context.Context, _ string, employeeID string, start, end time.Time, excludeID string) ([]leave.LeaveRequest, error) {
	var out []leave.LeaveRequest
	for _, l := range r.live() {
		if l.EmployeeID.String() == employeeID && l.ID.String() != excludeID && overlapsRange(l, start, end) {
			out = append(out, l)
		}
	}
	return out, nil
}

func (r *memLeaveRepo) CountPending(_ context.Context, _ string, employeeID, excludeID string) (int64, error) {
	var n int64
	for _, l := range r.live() {
		if l.EmployeeID.String() == employeeID && l.ID.String() != excludeID && l.Status == leave.StatusPending {
			n++
		}
	}
	return n, nil
}

func (r *memLeaveRepo) ListForReconcile(context.Context, string) ([]leave.LeaveRequest, error) {
	out := make([]leave.LeaveRequest, 0, len(r.m.leaves))
	for _, l := range r.m.leaves {
		out = append(out, l)
	}
	return out, nil
}

func (r *memLeaveRepo) AppendLedger(_ context.Context, e *leave.LedgerEntry) error {
	r.m.ledger = append(r.m.ledger, *e)
	return nil
}

func (r *memLeaveRepo) ListLedger(_ context.Context, _ string, employeeID string, from, to time.Time) ([]leave.LedgerEntry, error) {
	var out []leave.LedgerEntry
	for _, e := range r.m.ledger {
		if e.EmployeeID.String() == employeeID && !e.CreatedAt.Before(from) && e.CreatedAt.Before(to) {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memLeaveRepo) SumLedgerByRequest(context.Context, string) (map[uuid.UUID]decimal.Decimal, error) {
	out := map[uuid.UUID]decimal.Decimal{}
	for _, e := range r.m.ledger {
		if e.LeaveRequestID != nil {
			out[*e.LeaveRequestID] = out[*e.LeaveRequestID].Add(e.Delta)
		}
	}
	return out, nil
}

func (r *memLeaveRepo) LastLedgerEntries(context.Context, string) (map[uuid.UUID]leave.LedgerEntry, error) {
	out := map[uuid.UUID]leave.LedgerEntry{}
	for _, e := range r.m.ledger {
		out[e.EmployeeID] = e
	}
	return out, nil
}

func (r *memLeaveRepo) FindAdjustment(_ context.Context, _ string, employeeID string, year int) (*leave.LeaveAdjustment, error) {
	for _, a := range r.m.adjustments {
		if a.EmployeeID.String() == employeeID && a.Year == year {
			adj := a
			return &adj, nil
		}
	}
	return nil, nil
}

func (r *memLeaveRepo) ListAdjustments(_ context.Context, _ string, year int) ([]leave.LeaveAdjustment, error) {
	var out []leave.LeaveAdjustment
	for _, a := range r.m.adjustments {
		if a.Year == year {
			out = append(out, a)
		}
	}
	return out, nil
}

func (r *memLeaveRepo) CreateAdjustment(_ context.Context, a *leave.LeaveAdjustment) error {
	for _, existing := range r.m.adjustments {
		if existing.EmployeeID == a.EmployeeID && existing.Year == a.Year {
			return errUniqueViolation
		}
	}
	r.m.adjustments = append(r.m.adjustments, *a)
	return nil
}

type memEmployeeRepo struct{ m *memStore }

func (r *memEmployeeRepo) WithTx(*sql.Tx) employee.Repository { return r }

func (r *memEmployeeRepo) FindByIDAndCompany(_ context.Context, _ string, id string) (*employee.Employee, error) {
	parsed, err := uuid.Parse(id)
	if err != nil {
		return nil, gorm.ErrRecordNotFound
	}
	e, ok := r.m.employee(parsed)
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return e, nil
}

func (r *memEmployeeRepo) LockByIDAndCompany(ctx context.Context, companyID, id string) (*employee.Employee, error) {
	return r.FindByIDAndCompany(ctx, companyID, id)
}

func (r *memEmployeeRepo) FindAllByCompany(context.Context, string) ([]employee.Employee, error) {
	out := make([]employee.Employee, 0, len(r.m.employees))
	for id := range r.m.employees {
		e, _ := r.m.employee(id)
		out = append(out, *e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FullName < out[j].FullName })
	return out, nil
}

func (r *memEmployeeRepo) FindByDepartment(ctx context.Context, companyID, departmentID string) ([]employee.Employee, error) {
	all, _ := r.FindAllByCompany(ctx, companyID)
	var out []employee.Employee
	for _, e := range all {
		if e.DepartmentIDString() == departmentID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (r *memEmployeeRepo) UpdateLeaveBalance(_ context.Context, _ string, id string, balance decimal.Decimal) error {
	e, ok := r.m.employees[uuid.MustParse(id)]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	e.LeaveBalance = balance
	r.m.employees[e.ID] = e
	return nil
}

func (r *memEmployeeRepo) MarkLeaveBalanceInitialized(_ context.Context, _ string, id string, balance decimal.Decimal, at time.Time) error {
	e, ok := r.m.employees[uuid.MustParse(id)]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	e.LeaveBalance = balance
	e.LeaveBalanceInitializedAt = &at
	r.m.employees[e.ID] = e
	return nil
}

func (r *memEmployeeRepo) ListDepartments(context.Context, string) ([]employee.Department, error) {
	return r.m.departments, nil
}

type memExceptionRepo struct{ m *memStore }

func (r *memExceptionRepo) WithTx(*sql.Tx) leave.ExceptionRepository { return r }

func (r *memExceptionRepo) Create(_ context.Context, e *leave.LeaveException) error {
	for _, existing := range r.m.exceptions {
		if existing.Date.Equal(e.Date) {
			return errUniqueViolation
		}
	}
	r.m.exceptions[e.ID] = *e
	return nil
}

func (r *memExceptionRepo) Update(_ context.Context, e *leave.LeaveException) error {
	for _, existing := range r.m.exceptions {
		if existing.ID != e.ID && existing.Date.Equal(e.Date) {
			return errUniqueViolation
		}
	}
	r.m.exceptions[e.ID] = *e
	return nil
}

func (r *memExceptionRepo) Delete(_ context.Context, _ string, id string) error {
	key := uuid.MustParse(id)
	if _, ok := r.m.exceptions[key]; !ok {
		return gorm.ErrRecordNotFound
	}
	delete(r.m.exceptions, key)
	return nil
}

func (r *memExceptionRepo) FindByIDAndCompany(_ context.Context, _ string, id string) (*leave.LeaveException, error) {
	e, ok := r.m.exceptions[uuid.MustParse(id)]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &e, nil
}

func (r *memExceptionRepo) ListBetween(_ context.Context, _ string, from, to time.Time) ([]leave.LeaveException, error) {
	var out []leave.LeaveException
	for _, e := range r.m.exceptions {
		if !e.Date.Before(from) && !e.Date.After(to) {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Date.Before(out[j].Date) })
	return out, nil
}

type memCounter struct{ m *memStore }

func (c *memCounter) WithTx(*sql.Tx) counter.Repository { return c }

func (c *memCounter) GetNextValue(context.Context, string, string) (int64, error) {
	c.m.seq++
	return int64(c.m.seq), nil
}

func (c *memCounter) NextLeaveRequestNumber(ctx context.Context, companyID string) (string, error) {
	n, _ := c.GetNextValue(ctx, companyID, "leave_request")
	return fmt.Sprintf("LV-%05d", n), nil
}

type memOutbox struct{ m *memStore }

func (o *memOutbox) WithTx(*sql.Tx) kafka.OutboxRepository { return o }

func (o *memOutbox) Create(_ context.Context, event kafka.OutboxEvent) error {
	o.m.outbox = append(o.m.outbox, event)
	return nil
}

func (o *memOutbox) ListPending(context.Context, int) ([]kafka.OutboxEvent, error) { return nil, nil }
func (o *memOutbox) CountBacklog(context.Context) (int64, error) { return 0, nil }
func (o *memOutbox) MarkSent(context.Context, string) error { return nil }
func (o *memOutbox) MarkFailed(context.Context, string, string) error { return nil }
