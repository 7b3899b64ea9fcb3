package leave

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"hr-leave/internal/employee"
	employeeerrors "hr-leave/internal/employee/errors"
	"hr-leave/internal/events"
	leaveerrors "hr-leave/internal/leave/errors"
	"hr-leave/internal/messaging/kafka"
	"hr-leave/internal/policy"
	"hr-leave/internal/rbac"
	"hr-leave/internal/shared/audit"
	"hr-leave/internal/shared/contextutil"
	"hr-leave/internal/shared/counter"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Authorizer answers capability checks; rbac.Service satisfies it.
type Authorizer interface {
	Can(ctx context.Context, companyID, employeeID, resource, action string) (bool, error)
}

type Metrics interface {
	LeaveEvent(eventType string)
	LeaveRejected(reason string)
}

type nopMetrics struct{}

func (nopMetrics) LeaveEvent(string)    {}
func (nopMetrics) LeaveRejected(string) {}

// Deps groups the collaborators shared by the leave services.
type Deps struct {
	DB         *sql.DB
	Leaves     Repository
	Exceptions ExceptionRepository
	Employees  employee.Repository
	Counter    counter.Repository
	Outbox     kafka.OutboxRepository
	Policy     policy.Provider
	Authorizer Authorizer
	Audit      audit.Logger
	Metrics    Metrics
	Now        func() time.Time
}

func (d Deps) withDefaults() Deps {
	if d.Audit == nil {
		d.Audit = audit.Nop()
	}
	if d.Metrics == nil {
		d.Metrics = nopMetrics{}
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	return d
}

func (d Deps) stores() storeSet {
	return storeSet{
		leaves:     d.Leaves,
		exceptions: d.Exceptions,
		employees:  d.Employees,
		counter:    d.Counter,
		outbox:     d.Outbox,
	}
}

type Service interface {
	Create(ctx context.Context, companyID, actorID string, req CreateLeaveRequest) (LeaveResponse, error)
	List(ctx context.Context, companyID, actorID string, q ListLeavesQuery) ([]LeaveResponse, error)
	GetByID(ctx context.Context, companyID, actorID, id string) (LeaveResponse, error)
	Update(ctx context.Context, companyID, actorID, id string, req UpdateLeaveRequest) (LeaveResponse, error)
	Delete(ctx context.Context, companyID, actorID, id string) error
	Decide(ctx context.Context, companyID, actorID, id string, req DecisionRequest) (LeaveResponse, error)
	RequestCancellation(ctx context.Context, companyID, actorID, id string, req CancelLeaveRequest) (LeaveResponse, error)
	DecideCancellation(ctx context.Context, companyID, actorID, id string, req DecisionRequest) (LeaveResponse, error)
}

type service struct {
	access
	db      *sql.DB
	stores  storeSet
	policy  policy.Provider
	audit   audit.Logger
	metrics Metrics
	now     func() time.Time
	logger  *zap.Logger
}

func NewService(deps Deps, logger ...*zap.Logger) Service {
	l := zap.L().Named("leave.service")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.service")
	}
	deps = deps.withDefaults()
	return &service{
		access:  access{authz: deps.Authorizer, employees: deps.Employees},
		db:      deps.DB,
		stores:  deps.stores(),
		policy:  deps.Policy,
		audit:   deps.Audit,
		metrics: deps.Metrics,
		now:     deps.Now,
		logger:  l,
	}
}

// leaveInput is a parsed create/update body.
type leaveInput struct {
	companyID  uuid.UUID
	actorID    uuid.UUID
	leaveType  string
	start      time.Time
	end        time.Time
	reason     string
	substitute *uuid.UUID
}

func parseLeaveInput(companyID, actorID, leaveType, start, end, reason string, substitute *string) (leaveInput, error) {
	var in leaveInput
	var err error

	if in.companyID, err = uuid.Parse(companyID); err != nil {
		return in, leaveerrors.ErrInvalidCompanyID
	}
	if in.actorID, err = uuid.Parse(actorID); err != nil {
		return in, leaveerrors.ErrInvalidActorID
	}
	if !isLeaveType(leaveType) {
		return in, leaveerrors.ErrInvalidLeaveType
	}
	in.leaveType = leaveType
	if in.start, err = parseDate(start); err != nil {
		return in, err
	}
	if in.end, err = parseDate(end); err != nil {
		return in, err
	}
	if in.start.After(in.end) {
		return in, leaveerrors.ErrInvalidDateRange
	}
	if substitute != nil && *substitute != "" {
		id, err := uuid.Parse(*substitute)
		if err != nil || id == in.actorID {
			return in, leaveerrors.ErrInvalidSubstitute
		}
		in.substitute = &id
	}
	in.reason = strings.TrimSpace(reason)
	return in, nil
}

func isLeaveType(t string) bool {
	switch t {
	case TypeAnnual, TypeSick, TypePersonal, TypeFamily, TypeUnpaid:
		return true
	}
	return false
}

func (s *service) today() time.Time {
	return truncateDate(s.now())
}

func (s *service) snapshot(ctx context.Context, companyID string) (*policy.Snapshot, error) {
	snap, err := s.policy.Current(ctx, companyID)
	if err != nil {
		return nil, err
	}
	return snap, nil
}

// checkNotice enforces start - today >= max(global, type-specific) notice.
func (s *service) checkNotice(snap *policy.Snapshot, in leaveInput) error {
	inAdvance := int(in.start.Sub(s.today()).Hours() / 24)
	required := snap.NoticeDaysFor(in.leaveType)
	if inAdvance < required {
		s.metrics.LeaveRejected("advance_notice")
		return leaveerrors.ErrAdvanceNotice.WithDetails(map[string]any{
			"days_in_advance": inAdvance,
			"required_days":   required,
			"leave_type":      in.leaveType,
		})
	}
	return nil
}

// checkAdvance allows the balance to go at most limit days below zero.
func checkAdvance(balance, requested decimal.Decimal, limit int) error {
	floor := decimal.NewFromInt(int64(-limit))
	if balance.Sub(requested).LessThan(floor) {
		return leaveerrors.ErrInsufficientBalance.WithDetails(map[string]any{
			"current_balance": days(balance),
			"requested_days":  days(requested),
			"advance_limit":   limit,
		})
	}
	return nil
}

// evaluate runs business days, the consecutive and pending caps and conflict detection.
func (s *service) evaluate(ctx context.Context, st txStores, snap *policy.Snapshot, emp *employee.Employee, in leaveInput, excludeID string) (decimal.Decimal, error) {
	companyID := in.companyID.String()
	employeeID := emp.ID.String()

	own, err := st.leaves.FindEmployeeOverlapping(ctx, companyID, employeeID, in.start, in.end, excludeID)
	if err != nil {
		return decimal.Zero, err
	}
	var cal HolidayCalendar
	if snap.Calendar != nil {
		cal = snap.Calendar
	}
	requested, err := BusinessDays(in.start, in.end, coveredDates(own), cal)
	if err != nil {
		return decimal.Zero, err
	}
	if requested.IsZero() {
		return decimal.Zero, leaveerrors.ErrNoWorkingDays
	}

	if in.leaveType == TypeAnnual && requested.GreaterThan(decimal.NewFromInt(int64(snap.MaxConsecutiveDays))) {
		s.metrics.LeaveRejected("max_consecutive_days")
		return decimal.Zero, leaveerrors.ErrMaxConsecutiveDays.WithDetails(map[string]any{
			"requested_days":       days(requested),
			"max_consecutive_days": snap.MaxConsecutiveDays,
		})
	}

	pending, err := st.leaves.CountPending(ctx, companyID, employeeID, excludeID)
	if err != nil {
		return decimal.Zero, err
	}
	if pending >= int64(snap.MaxConcurrentRequests) {
		s.metrics.LeaveRejected("max_concurrent_requests")
		return decimal.Zero, leaveerrors.ErrTooManyPending.WithDetails(map[string]any{
			"pending_requests":        pending,
			"max_concurrent_requests": snap.MaxConcurrentRequests,
		})
	}

	others, err := st.leaves.FindOverlapping(ctx, companyID, in.start, in.end, employeeID)
	if err != nil {
		return decimal.Zero, err
	}
	if len(others) > 0 {
		var capacities map[string]int
		if st.exceptions != nil {
			exceptions, err := st.exceptions.ListBetween(ctx, companyID, in.start, in.end)
			if err != nil {
				return decimal.Zero, err
			}
			capacities = capacityByDate(exceptions)
		}
		report := EvaluateConflicts(in.start, in.end, others, capacities)
		if report.Blocked() {
			s.metrics.LeaveRejected("conflict")
			return decimal.Zero, leaveerrors.ErrLeaveConflict.WithDetails(report)
		}
	}
	return requested, nil
}

func (s *service) lockEmployee(ctx context.Context, st txStores, companyID, employeeID string) (*employee.Employee, error) {
	emp, err := st.employees.LockByIDAndCompany(ctx, companyID, employeeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, employeeerrors.ErrEmployeeNotFound
		}
		return nil, err
	}
	return emp, nil
}

func (s *service) checkSubstitute(ctx context.Context, st txStores, companyID string, substitute *uuid.UUID) error {
	if substitute == nil {
		return nil
	}
	if _, err := st.employees.FindByIDAndCompany(ctx, companyID, substitute.String()); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return leaveerrors.ErrInvalidSubstitute
		}
		return err
	}
	return nil
}

func (s *service) Create(ctx context.Context, companyID, actorID string, req CreateLeaveRequest) (LeaveResponse, error) {
	logger := contextutil.GetLogger(ctx, s.logger)
	logger.Debug("create leave requested",
		zap.String("company_id", companyID),
		zap.String("actor_id", actorID),
		zap.String("leave_type", req.LeaveType),
		zap.String("start_date", req.StartDate),
		zap.String("end_date", req.EndDate),
	)

	in, err := parseLeaveInput(companyID, actorID, req.LeaveType, req.StartDate, req.EndDate, req.Reason, req.SubstituteEmployeeID)
	if err != nil {
		logger.Warn("create leave validation failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	snap, err := s.snapshot(ctx, companyID)
	if err != nil {
		logger.Error("create leave load policy failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	if err := s.checkNotice(snap, in); err != nil {
		return LeaveResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("create leave begin tx failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	st := s.stores.bind(tx)

	emp, err := s.lockEmployee(ctx, st, companyID, actorID)
	if err != nil {
		return LeaveResponse{}, err
	}
	if err := s.checkSubstitute(ctx, st, companyID, in.substitute); err != nil {
		return LeaveResponse{}, err
	}

	requested, err := s.evaluate(ctx, st, snap, emp, in, "")
	if err != nil {
		logger.Warn("create leave rejected", zap.Error(err))
		return LeaveResponse{}, err
	}

	deduct := decimal.Zero
	if in.leaveType == TypeAnnual {
		deduct = requested
		if err := checkAdvance(emp.LeaveBalance, deduct, snap.AdvanceUsageLimit); err != nil {
			s.metrics.LeaveRejected("insufficient_balance")
			logger.Warn("create leave insufficient balance",
				zap.String("employee_id", actorID),
				zap.String("balance", emp.LeaveBalance.String()),
				zap.String("requested", deduct.String()),
			)
			return LeaveResponse{}, err
		}
	}

	number, err := st.counter.NextLeaveRequestNumber(ctx, companyID)
	if err != nil {
		logger.Error("create leave request number failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	now := s.now().UTC()
	l := &LeaveRequest{
		ID:                   uuid.New(),
		CompanyID:            in.companyID,
		EmployeeID:           emp.ID,
		RequestNumber:        number,
		LeaveType:            in.leaveType,
		StartDate:            in.start,
		EndDate:              in.end,
		DaysCount:            requested,
		DeductedDays:         deduct,
		Reason:               in.reason,
		SubstituteEmployeeID: in.substitute,
		Status:               StatusPending,
		PolicyVersion:        snap.Version,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if err := st.leaves.Create(ctx, l); err != nil {
		logger.Error("create leave persist failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	if err := postBalance(ctx, st, emp, ledgerPosting{
		LeaveRequestID: &l.ID,
		Kind:           LedgerRequestDeduct,
		Delta:          deduct.Neg(),
		ActorID:        &in.actorID,
		At:             now,
	}); err != nil {
		logger.Error("create leave ledger failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	if err := enqueueLifecycleEvent(ctx, st, l, events.LeaveRequested, actorID, "", now); err != nil {
		logger.Error("create leave outbox persist failed", zap.Error(err))
		return LeaveResponse{}, err
	}

	if err := tx.Commit(); err != nil {
		logger.Error("create leave commit failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	s.metrics.LeaveEvent(events.LeaveRequested)
	logger.Info("create leave success",
		zap.String("leave_id", l.ID.String()),
		zap.String("request_number", l.RequestNumber),
		zap.String("days", requested.String()),
		zap.String("balance_after", emp.LeaveBalance.String()),
	)

	l.Employee = emp
	return withBalance(mapToResponse(*l), emp.LeaveBalance), nil
}

func (s *service) List(ctx context.Context, companyID, actorID string, q ListLeavesQuery) ([]LeaveResponse, error) {
	filter := ListFilter{
		Status:    q.Status,
		LeaveType: q.LeaveType,
	}
	if q.From != "" {
		from, err := parseDate(q.From)
		if err != nil {
			return nil, err
		}
		filter.From = &from
	}
	if q.To != "" {
		to, err := parseDate(q.To)
		if err != nil {
			return nil, err
		}
		filter.To = &to
	}

	vis, err := s.visibilityFor(ctx, companyID, actorID)
	if err != nil {
		return nil, err
	}
	switch vis {
	case visibilityCompany:
		filter.EmployeeID = q.EmployeeID
		filter.DepartmentID = q.DepartmentID
	case visibilityDepartment:
		dept, err := s.actorDepartment(ctx, companyID, actorID)
		if err != nil {
			return nil, err
		}
		if dept == "" {
			filter.EmployeeID = actorID
			break
		}
		filter.DepartmentID = dept
		filter.EmployeeID = q.EmployeeID
	default:
		filter.EmployeeID = actorID
	}

	leaves, err := s.stores.leaves.List(ctx, companyID, filter)
	if err != nil {
		return nil, err
	}
	return mapToListResponse(leaves), nil
}

func (s *service) find(ctx context.Context, repo Repository, companyID, id string) (*LeaveRequest, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, leaveerrors.ErrLeaveNotFound
	}
	l, err := repo.FindByIDAndCompany(ctx, companyID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, leaveerrors.ErrLeaveNotFound
		}
		return nil, err
	}
	return l, nil
}

func (s *service) lockLeave(ctx context.Context, st txStores, companyID, id string) (*LeaveRequest, error) {
	l, err := st.leaves.LockByIDAndCompany(ctx, companyID, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, leaveerrors.ErrLeaveNotFound
		}
		return nil, err
	}
	return l, nil
}

func (s *service) GetByID(ctx context.Context, companyID, actorID, id string) (LeaveResponse, error) {
	l, err := s.find(ctx, s.stores.leaves, companyID, id)
	if err != nil {
		return LeaveResponse{}, err
	}
	ok, err := s.canSee(ctx, companyID, actorID, l)
	if err != nil {
		return LeaveResponse{}, err
	}
	if !ok {
		return LeaveResponse{}, leaveerrors.ErrForbidden
	}
	return mapToResponse(*l), nil
}

func (s *service) Update(ctx context.Context, companyID, actorID, id string, req UpdateLeaveRequest) (LeaveResponse, error) {
	logger := contextutil.GetLogger(ctx, s.logger)
	logger.Debug("update leave requested",
		zap.String("leave_id", id),
		zap.String("company_id", companyID),
		zap.String("actor_id", actorID),
	)

	in, err := parseLeaveInput(companyID, actorID, req.LeaveType, req.StartDate, req.EndDate, req.Reason, req.SubstituteEmployeeID)
	if err != nil {
		return LeaveResponse{}, err
	}
	snap, err := s.snapshot(ctx, companyID)
	if err != nil {
		return LeaveResponse{}, err
	}
	if err := s.checkNotice(snap, in); err != nil {
		return LeaveResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("update leave begin tx failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	st := s.stores.bind(tx)

	current, err := s.find(ctx, st.leaves, companyID, id)
	if err != nil {
		return LeaveResponse{}, err
	}
	if current.EmployeeID != in.actorID {
		return LeaveResponse{}, leaveerrors.ErrNotOwner
	}
	emp, err := s.lockEmployee(ctx, st, companyID, actorID)
	if err != nil {
		return LeaveResponse{}, err
	}
	l, err := s.lockLeave(ctx, st, companyID, id)
	if err != nil {
		return LeaveResponse{}, err
	}
	if l.Status != StatusPending {
		return LeaveResponse{}, leaveerrors.ErrNotPending
	}
	if err := s.checkSubstitute(ctx, st, companyID, in.substitute); err != nil {
		return LeaveResponse{}, err
	}

	requested, err := s.evaluate(ctx, st, snap, emp, in, id)
	if err != nil {
		logger.Warn("update leave rejected", zap.String("leave_id", id), zap.Error(err))
		return LeaveResponse{}, err
	}

	deduct := decimal.Zero
	if in.leaveType == TypeAnnual {
		deduct = requested
		restored := emp.LeaveBalance.Add(l.DeductedDays)
		if err := checkAdvance(restored, deduct, snap.AdvanceUsageLimit); err != nil {
			s.metrics.LeaveRejected("insufficient_balance")
			return LeaveResponse{}, err
		}
	}

	now := s.now().UTC()
	if err := postBalance(ctx, st, emp, ledgerPosting{
		LeaveRequestID: &l.ID,
		Kind:           LedgerRequestRestore,
		Delta:          l.DeductedDays,
		ActorID:        &in.actorID,
		At:             now,
	}); err != nil {
		return LeaveResponse{}, err
	}
	if err := postBalance(ctx, st, emp, ledgerPosting{
		LeaveRequestID: &l.ID,
		Kind:           LedgerRequestDeduct,
		Delta:          deduct.Neg(),
		ActorID:        &in.actorID,
		At:             now,
	}); err != nil {
		return LeaveResponse{}, err
	}

	l.LeaveType = in.leaveType
	l.StartDate = in.start
	l.EndDate = in.end
	l.DaysCount = requested
	l.DeductedDays = deduct
	l.Reason = in.reason
	l.SubstituteEmployeeID = in.substitute
	l.PolicyVersion = snap.Version
	l.UpdatedAt = now

	if err := st.leaves.Update(ctx, l); err != nil {
		logger.Error("update leave persist failed", zap.String("leave_id", id), zap.Error(err))
		return LeaveResponse{}, err
	}
	if err := enqueueLifecycleEvent(ctx, st, l, events.LeaveUpdated, actorID, "", now); err != nil {
		return LeaveResponse{}, err
	}
	if err := tx.Commit(); err != nil {
		logger.Error("update leave commit failed", zap.String("leave_id", id), zap.Error(err))
		return LeaveResponse{}, err
	}
	s.metrics.LeaveEvent(events.LeaveUpdated)
	logger.Info("update leave success",
		zap.String("leave_id", id),
		zap.String("days", requested.String()),
		zap.String("balance_after", emp.LeaveBalance.String()),
	)

	l.Employee = emp
	return withBalance(mapToResponse(*l), emp.LeaveBalance), nil
}

func (s *service) Delete(ctx context.Context, companyID, actorID, id string) error {
	logger := contextutil.GetLogger(ctx, s.logger)
	actorUUID, err := uuid.Parse(actorID)
	if err != nil {
		return leaveerrors.ErrInvalidActorID
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("delete leave begin tx failed", zap.Error(err))
		return err
	}
	defer tx.Rollback()

	st := s.stores.bind(tx)

	current, err := s.find(ctx, st.leaves, companyID, id)
	if err != nil {
		return err
	}
	if current.EmployeeID != actorUUID {
		return leaveerrors.ErrNotOwner
	}
	emp, err := s.lockEmployee(ctx, st, companyID, actorID)
	if err != nil {
		return err
	}
	l, err := s.lockLeave(ctx, st, companyID, id)
	if err != nil {
		return err
	}
	if l.Status != StatusPending {
		return leaveerrors.ErrNotPending
	}

	now := s.now().UTC()
	if err := postBalance(ctx, st, emp, ledgerPosting{
		LeaveRequestID: &l.ID,
		Kind:           LedgerRequestRestore,
		Delta:          l.DeductedDays,
		ActorID:        &actorUUID,
		At:             now,
	}); err != nil {
		return err
	}
	if err := st.leaves.SoftDelete(ctx, companyID, id); err != nil {
		logger.Error("delete leave persist failed", zap.String("leave_id", id), zap.Error(err))
		return err
	}
	if err := enqueueLifecycleEvent(ctx, st, l, events.LeaveDeleted, actorID, "", now); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		logger.Error("delete leave commit failed", zap.String("leave_id", id), zap.Error(err))
		return err
	}
	s.metrics.LeaveEvent(events.LeaveDeleted)
	logger.Info("delete leave success",
		zap.String("leave_id", id),
		zap.String("restored", l.DeductedDays.String()),
	)
	return nil
}

func parseDecision(req DecisionRequest, commentRequiredOnReject bool) (string, error) {
	action := strings.ToLower(strings.TrimSpace(req.Action))
	if action != ActionApprove && action != ActionReject {
		return "", leaveerrors.ErrInvalidAction
	}
	if action == ActionReject && commentRequiredOnReject && strings.TrimSpace(req.Comment) == "" {
		return "", leaveerrors.ErrCommentRequired
	}
	return action, nil
}

// authorizeDecision checks leave:manage and, for managers without read_all, the department.
func (s *service) authorizeDecision(ctx context.Context, companyID, actorID string, l *LeaveRequest) error {
	if l.EmployeeID.String() == actorID {
		return leaveerrors.ErrSelfDecision
	}
	if err := s.requireCapability(ctx, companyID, actorID, rbac.ActionManage); err != nil {
		return err
	}
	visible, err := s.canSee(ctx, companyID, actorID, l)
	if err != nil {
		return err
	}
	if !visible {
		return leaveerrors.ErrForbidden
	}
	return nil
}

func optionalComment(comment string) *string {
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return nil
	}
	return &comment
}

func (s *service) Decide(ctx context.Context, companyID, actorID, id string, req DecisionRequest) (LeaveResponse, error) {
	logger := contextutil.GetLogger(ctx, s.logger)
	action, err := parseDecision(req, true)
	if err != nil {
		return LeaveResponse{}, err
	}
	actorUUID, err := uuid.Parse(actorID)
	if err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidActorID
	}

	current, err := s.find(ctx, s.stores.leaves, companyID, id)
	if err != nil {
		return LeaveResponse{}, err
	}
	if err := s.authorizeDecision(ctx, companyID, actorID, current); err != nil {
		logger.Warn("decide leave not allowed", zap.String("leave_id", id), zap.Error(err))
		return LeaveResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("decide leave begin tx failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	st := s.stores.bind(tx)

	emp, err := s.lockEmployee(ctx, st, companyID, current.EmployeeID.String())
	if err != nil {
		return LeaveResponse{}, err
	}
	l, err := s.lockLeave(ctx, st, companyID, id)
	if err != nil {
		return LeaveResponse{}, err
	}
	if l.Status != StatusPending {
		return LeaveResponse{}, leaveerrors.ErrLeaveAlreadyProcessed
	}

	now := s.now().UTC()
	l.DecidedBy = &actorUUID
	l.DecidedAt = &now
	l.DecisionComment = optionalComment(req.Comment)
	l.UpdatedAt = now

	eventType := events.LeaveApproved
	if action == ActionApprove {
		l.Status = StatusApproved
	} else {
		eventType = events.LeaveRejected
		l.Status = StatusRejected
		if err := postBalance(ctx, st, emp, ledgerPosting{
			LeaveRequestID: &l.ID,
			Kind:           LedgerRequestRestore,
			Delta:          l.DeductedDays,
			ActorID:        &actorUUID,
			At:             now,
		}); err != nil {
			return LeaveResponse{}, err
		}
	}

	if err := st.leaves.Update(ctx, l); err != nil {
		logger.Error("decide leave persist failed", zap.String("leave_id", id), zap.Error(err))
		return LeaveResponse{}, err
	}
	if err := enqueueLifecycleEvent(ctx, st, l, eventType, actorID, req.Comment, now); err != nil {
		return LeaveResponse{}, err
	}
	if err := tx.Commit(); err != nil {
		logger.Error("decide leave commit failed", zap.String("leave_id", id), zap.Error(err))
		return LeaveResponse{}, err
	}

	s.metrics.LeaveEvent(eventType)
	s.audit.Log(ctx, audit.Log{
		Action:  eventType,
		Message: "leave request " + l.Status,
		Meta: map[string]any{
			"leave_id":       l.ID.String(),
			"request_number": l.RequestNumber,
			"employee_id":    l.EmployeeID.String(),
			"decided_by":     actorID,
		},
	})
	logger.Info("decide leave success",
		zap.String("leave_id", id),
		zap.String("status", l.Status),
		zap.String("balance_after", emp.LeaveBalance.String()),
	)

	l.Employee = emp
	return withBalance(mapToResponse(*l), emp.LeaveBalance), nil
}

func (s *service) RequestCancellation(ctx context.Context, companyID, actorID, id string, req CancelLeaveRequest) (LeaveResponse, error) {
	logger := contextutil.GetLogger(ctx, s.logger)
	actorUUID, err := uuid.Parse(actorID)
	if err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidActorID
	}
	snap, err := s.snapshot(ctx, companyID)
	if err != nil {
		return LeaveResponse{}, err
	}
	reason := strings.TrimSpace(req.Reason)
	if utf8.RuneCountInString(reason) < snap.CancellationReasonMinLength {
		return LeaveResponse{}, leaveerrors.ErrCancellationReasonTooShort.WithDetails(map[string]any{
			"min_length": snap.CancellationReasonMinLength,
		})
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("request cancellation begin tx failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	st := s.stores.bind(tx)

	l, err := s.lockLeave(ctx, st, companyID, id)
	if err != nil {
		return LeaveResponse{}, err
	}
	if l.EmployeeID != actorUUID {
		return LeaveResponse{}, leaveerrors.ErrNotOwner
	}
	if l.Status != StatusApproved {
		return LeaveResponse{}, leaveerrors.ErrNotApproved
	}
	if !truncateDate(l.StartDate).After(s.today()) {
		return LeaveResponse{}, leaveerrors.ErrLeaveAlreadyStarted
	}
	if l.HasPendingCancellation() {
		return LeaveResponse{}, leaveerrors.ErrCancellationPending
	}

	now := s.now().UTC()
	status := CancellationPending
	l.CancellationRequested = true
	l.CancellationStatus = &status
	l.CancellationReason = &reason
	l.CancellationRequestedAt = &now
	l.CancellationDecidedBy = nil
	l.CancellationDecidedAt = nil
	l.CancellationComment = nil
	l.UpdatedAt = now

	if err := st.leaves.Update(ctx, l); err != nil {
		logger.Error("request cancellation persist failed", zap.String("leave_id", id), zap.Error(err))
		return LeaveResponse{}, err
	}
	if err := enqueueLifecycleEvent(ctx, st, l, events.LeaveCancellationRequested, actorID, reason, now); err != nil {
		return LeaveResponse{}, err
	}
	if err := tx.Commit(); err != nil {
		logger.Error("request cancellation commit failed", zap.String("leave_id", id), zap.Error(err))
		return LeaveResponse{}, err
	}
	s.metrics.LeaveEvent(events.LeaveCancellationRequested)
	logger.Info("request cancellation success", zap.String("leave_id", id))

	return mapToResponse(*l), nil
}

func (s *service) DecideCancellation(ctx context.Context, companyID, actorID, id string, req DecisionRequest) (LeaveResponse, error) {
	logger := contextutil.GetLogger(ctx, s.logger)
	action, err := parseDecision(req, false)
	if err != nil {
		return LeaveResponse{}, err
	}
	actorUUID, err := uuid.Parse(actorID)
	if err != nil {
		return LeaveResponse{}, leaveerrors.ErrInvalidActorID
	}

	current, err := s.find(ctx, s.stores.leaves, companyID, id)
	if err != nil {
		return LeaveResponse{}, err
	}
	if err := s.authorizeDecision(ctx, companyID, actorID, current); err != nil {
		logger.Warn("decide cancellation not allowed", zap.String("leave_id", id), zap.Error(err))
		return LeaveResponse{}, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		logger.Error("decide cancellation begin tx failed", zap.Error(err))
		return LeaveResponse{}, err
	}
	defer tx.Rollback()

	st := s.stores.bind(tx)

	emp, err := s.lockEmployee(ctx, st, companyID, current.EmployeeID.String())
	if err != nil {
		return LeaveResponse{}, err
	}
	l, err := s.lockLeave(ctx, st, companyID, id)
	if err != nil {
		return LeaveResponse{}, err
	}
	if l.Status != StatusApproved || !l.HasPendingCancellation() {
		return LeaveResponse{}, leaveerrors.ErrNoCancellationPending
	}

	now := s.now().UTC()
	l.CancellationDecidedBy = &actorUUID
	l.CancellationDecidedAt = &now
	l.CancellationComment = optionalComment(req.Comment)
	l.UpdatedAt = now

	eventType := events.LeaveCancelled
	if action == ActionApprove {
		status := CancellationApproved
		l.CancellationStatus = &status
		l.Status = StatusCancelled
		if err := postBalance(ctx, st, emp, ledgerPosting{
			LeaveRequestID: &l.ID,
			Kind:           LedgerRequestRestore,
			Delta:          l.DeductedDays,
			ActorID:        &actorUUID,
			At:             now,
		}); err != nil {
			return LeaveResponse{}, err
		}
	} else {
		eventType = events.LeaveCancellationRejected
		status := CancellationRejected
		l.CancellationStatus = &status
	}

	if err := st.leaves.Update(ctx, l); err != nil {
		logger.Error("decide cancellation persist failed", zap.String("leave_id", id), zap.Error(err))
		return LeaveResponse{}, err
	}
	if err := enqueueLifecycleEvent(ctx, st, l, eventType, actorID, req.Comment, now); err != nil {
		return LeaveResponse{}, err
	}
	if err := tx.Commit(); err != nil {
		logger.Error("decide cancellation commit failed", zap.String("leave_id", id), zap.Error(err))
		return LeaveResponse{}, err
	}

	s.metrics.LeaveEvent(eventType)
	s.audit.Log(ctx, audit.Log{
		Action:  eventType,
		Message: "leave cancellation " + *l.CancellationStatus,
		Meta: map[string]any{
			"leave_id":       l.ID.String(),
			"request_number": l.RequestNumber,
			"employee_id":    l.EmployeeID.String(),
			"decided_by":     actorID,
		},
	})
	logger.Info("decide cancellation success",
		zap.String("leave_id", id),
		zap.String("status", l.Status),
		zap.String("balance_after", emp.LeaveBalance.String()),
	)

	l.Employee = emp
	return withBalance(mapToResponse(*l), emp.LeaveBalance), nil
}
