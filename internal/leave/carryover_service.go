package leave

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"hr-leave/internal/employee"
	leaveerrors "hr-leave/internal/leave/errors"
	"hr-leave/internal/policy"
	"hr-leave/internal/shared/audit"
	"hr-leave/internal/shared/contextutil"
	"hr-leave/internal/shared/database"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CarryOverEnqueuer hands a carry-over run to the background worker.
type CarryOverEnqueuer interface {
	EnqueueCarryOver(ctx context.Context, companyID string, year int, actorID string) (string, error)
}

type CarryOverService interface {
	// Run closes year for every employee of the company. Per-employee failures are reported in
	// the result and never undo other employees.
	Run(ctx context.Context, companyID, actorID string, year int) (CarryOverResult, error)
	Enqueue(ctx context.Context, companyID, actorID string, year int) (CarryOverQueued, error)
	// Reconcile compares request deductions and employee balances with the ledger journal.
	Reconcile(ctx context.Context, companyID string) (ReconcileReport, error)
}

type carryOverService struct {
	db       *sql.DB
	stores   storeSet
	policy   policy.Provider
	enqueuer CarryOverEnqueuer
	audit    audit.Logger
	now      func() time.Time
	logger   *zap.Logger
}

func NewCarryOverService(deps Deps, enqueuer CarryOverEnqueuer, logger ...*zap.Logger) CarryOverService {
	l := zap.L().Named("leave.carryover")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.carryover")
	}
	deps = deps.withDefaults()
	return &carryOverService{
		db:       deps.DB,
		stores:   deps.stores(),
		policy:   deps.Policy,
		enqueuer: enqueuer,
		audit:    deps.Audit,
		now:      deps.Now,
		logger:   l,
	}
}

func validCarryOverYear(year int) error {
	if year < 1900 || year > 9998 {
		return leaveerrors.ErrInvalidYear
	}
	return nil
}

func (s *carryOverService) Enqueue(ctx context.Context, companyID, actorID string, year int) (CarryOverQueued, error) {
	if err := validCarryOverYear(year); err != nil {
		return CarryOverQueued{}, err
	}
	if s.enqueuer == nil {
		return CarryOverQueued{}, leaveerrors.ErrAsyncUnavailable
	}
	taskID, err := s.enqueuer.EnqueueCarryOver(ctx, companyID, year, actorID)
	if err != nil {
		s.logger.Error("enqueue carry-over failed", zap.String("company_id", companyID), zap.Int("year", year), zap.Error(err))
		return CarryOverQueued{}, err
	}
	return CarryOverQueued{Year: year, TaskID: taskID, Queued: true}, nil
}

func (s *carryOverService) Run(ctx context.Context, companyID, actorID string, year int) (CarryOverResult, error) {
	logger := contextutil.GetLogger(ctx, s.logger)
	if err := validCarryOverYear(year); err != nil {
		return CarryOverResult{}, err
	}
	if _, err := uuid.Parse(companyID); err != nil {
		return CarryOverResult{}, leaveerrors.ErrInvalidCompanyID
	}
	var actor *uuid.UUID
	if actorID != "" {
		id, err := uuid.Parse(actorID)
		if err != nil {
			return CarryOverResult{}, leaveerrors.ErrInvalidActorID
		}
		actor = &id
	}

	snap, err := s.policy.Current(ctx, companyID)
	if err != nil {
		return CarryOverResult{}, err
	}
	employees, err := s.stores.employees.FindAllByCompany(ctx, companyID)
	if err != nil {
		logger.Error("carry-over list employees failed", zap.Error(err))
		return CarryOverResult{}, err
	}

	result := CarryOverResult{
		Year:       year,
		TargetYear: year + 1,
		Employees:  make([]CarryOverEmployeeResult, 0, len(employees)),
	}
	for _, emp := range employees {
		r := s.carryOne(ctx, companyID, emp.ID.String(), year, snap, actor)
		r.EmployeeName = emp.FullName
		switch r.Status {
		case CarryOverCreated:
			result.Processed++
		case CarryOverSkipped:
			result.Skipped++
		default:
			result.Failed++
			logger.Warn("carry-over employee failed",
				zap.String("employee_id", r.EmployeeID),
				zap.String("error", r.Error),
			)
		}
		result.Employees = append(result.Employees, r)
	}

	s.audit.Log(ctx, audit.Log{
		Action:  "leave_carry_over",
		Message: fmt.Sprintf("carry-over %d -> %d", year, year+1),
		Meta: map[string]any{
			"company_id": companyID,
			"processed":  result.Processed,
			"skipped":    result.Skipped,
			"failed":     result.Failed,
		},
	})
	logger.Info("carry-over finished",
		zap.String("company_id", companyID),
		zap.Int("year", year),
		zap.Int("processed", result.Processed),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed),
	)
	return result, nil
}

func (s *carryOverService) carryOne(ctx context.Context, companyID, employeeID string, year int, snap *policy.Snapshot, actor *uuid.UUID) CarryOverEmployeeResult {
	res := CarryOverEmployeeResult{EmployeeID: employeeID}
	fail := func(err error) CarryOverEmployeeResult {
		res.Status = CarryOverFailed
		res.Error = err.Error()
		return res
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fail(err)
	}
	defer tx.Rollback()

	st := s.stores.bind(tx)

	emp, err := st.employees.LockByIDAndCompany(ctx, companyID, employeeID)
	if err != nil {
		return fail(err)
	}
	existing, err := st.leaves.FindAdjustment(ctx, companyID, employeeID, year+1)
	if err != nil {
		return fail(err)
	}
	if existing != nil {
		res.Status = CarryOverSkipped
		res.CarryOver = days(existing.Days)
		return res
	}

	from, _ := yearBounds(year)
	_, to := yearBounds(year + 1)
	requests, err := st.leaves.List(ctx, companyID, ListFilter{
		EmployeeID: employeeID,
		LeaveType:  TypeAnnual,
		From:       &from,
		To:         &to,
	})
	if err != nil {
		return fail(err)
	}
	prev, err := st.leaves.FindAdjustment(ctx, companyID, employeeID, year)
	if err != nil {
		return fail(err)
	}

	carry, newBalance := carryOverFigures(emp, year, requests, prev, snap.MaxCarryOverDays)

	now := s.now().UTC()
	if err := st.leaves.CreateAdjustment(ctx, &LeaveAdjustment{
		ID:         uuid.New(),
		CompanyID:  emp.CompanyID,
		EmployeeID: emp.ID,
		Year:       year + 1,
		SourceYear: year,
		Days:       carry,
		CreatedBy:  actor,
		CreatedAt:  now,
	}); err != nil {
		if database.IsUniqueViolation(err) {
			res.Status = CarryOverSkipped
			return res
		}
		return fail(err)
	}
	if err := openYear(ctx, st, emp, newBalance, actor, now); err != nil {
		return fail(err)
	}
	if err := tx.Commit(); err != nil {
		return fail(err)
	}

	nb := days(newBalance)
	res.Status = CarryOverCreated
	res.CarryOver = days(carry)
	res.NewBalance = &nb
	return res
}

// carryOverFigures returns the days carried into year+1 and the balance that opens year+1:
// carry = min(max(total - used, 0), maxCarry) where used counts PENDING and APPROVED deductions
// starting in year, and the opening balance subtracts deductions already booked in year+1.
func carryOverFigures(emp *employee.Employee, year int, requests []LeaveRequest, prev *LeaveAdjustment, maxCarry int) (decimal.Decimal, decimal.Decimal) {
	f := computeFigures(emp, year, requests, prev)
	unused := f.Total.Sub(f.Used).Sub(f.Pending)
	carry := decimal.Max(unused, decimal.Zero)
	carry = decimal.Min(carry, decimal.NewFromInt(int64(maxCarry)))

	booked := decimal.Zero
	for _, r := range requests {
		if r.EmployeeID == emp.ID && r.LeaveType == TypeAnnual && r.IsActive() && r.StartDate.Year() == year+1 {
			booked = booked.Add(r.DeductedDays)
		}
	}
	opening := decimal.NewFromInt(int64(Entitlement(emp.HireDate, year+1))).Add(carry).Sub(booked)
	return carry, opening
}

func (s *carryOverService) Reconcile(ctx context.Context, companyID string) (ReconcileReport, error) {
	report := ReconcileReport{
		CompanyID:         companyID,
		RequestMismatches: []RequestMismatch{},
		BalanceMismatches: []BalanceMismatch{},
	}

	requests, err := s.stores.leaves.ListForReconcile(ctx, companyID)
	if err != nil {
		return report, err
	}
	sums, err := s.stores.leaves.SumLedgerByRequest(ctx, companyID)
	if err != nil {
		return report, err
	}
	for _, r := range requests {
		report.CheckedRequests++
		deleted := r.DeletedAt.Valid
		expected := decimal.Zero
		if r.IsActive() && !deleted {
			expected = r.DeductedDays.Neg()
		}
		journal := sums[r.ID]
		if !journal.Equal(expected) {
			report.RequestMismatches = append(report.RequestMismatches, RequestMismatch{
				LeaveID:      r.ID.String(),
				Status:       r.Status,
				Deleted:      deleted,
				Expected:     days(expected),
				JournalTotal: days(journal),
			})
		}
	}

	employees, err := s.stores.employees.FindAllByCompany(ctx, companyID)
	if err != nil {
		return report, err
	}
	last, err := s.stores.leaves.LastLedgerEntries(ctx, companyID)
	if err != nil {
		return report, err
	}
	for _, emp := range employees {
		entry, ok := last[emp.ID]
		if !ok {
			continue
		}
		report.CheckedEmployees++
		if !emp.LeaveBalance.Equal(entry.BalanceAfter) {
			report.BalanceMismatches = append(report.BalanceMismatches, BalanceMismatch{
				EmployeeID:   emp.ID.String(),
				Balance:      days(emp.LeaveBalance),
				JournalValue: days(entry.BalanceAfter),
			})
		}
	}
	return report, nil
}

// ErrReconcileMismatch is returned by callers that treat a dirty report as failure.
var ErrReconcileMismatch = errors.New("ledger does not reconcile")
