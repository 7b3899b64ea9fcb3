package leave

import (
	"context"
	"sort"
	"strconv"
	"time"

	"hr-leave/internal/employee"
	employeeerrors "hr-leave/internal/employee/errors"
	leaveerrors "hr-leave/internal/leave/errors"
	"hr-leave/internal/policy"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const teamStatusHorizonDays = 7

// ReportService serves read-only projections. Balance figures are re-derived from the
// entitlement rules on every call.
type ReportService interface {
	Balance(ctx context.Context, companyID, actorID, employeeID string, year int) (BalanceResponse, error)
	Calendar(ctx context.Context, companyID, actorID, month string) (CalendarResponse, error)
	TeamStatus(ctx context.Context, companyID, actorID string) (TeamStatusResponse, error)
	DepartmentStats(ctx context.Context, companyID, actorID string, year int) (DepartmentStatsResponse, error)
	EmployeeLog(ctx context.Context, companyID, actorID, employeeID string, year int) (EmployeeLogResponse, error)
}

type reportService struct {
	access
	leaves     Repository
	exceptions ExceptionRepository
	employees  employee.Repository
	policy     policy.Provider
	now        func() time.Time
	logger     *zap.Logger
}

func NewReportService(deps Deps, logger ...*zap.Logger) ReportService {
	l := zap.L().Named("leave.report")
	if len(logger) > 0 && logger[0] != nil {
		l = logger[0].Named("leave.report")
	}
	deps = deps.withDefaults()
	return &reportService{
		access:     access{authz: deps.Authorizer, employees: deps.Employees},
		leaves:     deps.Leaves,
		exceptions: deps.Exceptions,
		employees:  deps.Employees,
		policy:     deps.Policy,
		now:        deps.Now,
		logger:     l,
	}
}

func (s *reportService) resolveYear(year int) (int, error) {
	if year == 0 {
		return s.now().Year(), nil
	}
	if year < 1900 || year > 9999 {
		return 0, leaveerrors.ErrInvalidYear
	}
	return year, nil
}

// visibleEmployee loads target (the actor when empty) and checks the actor may see it.
func (s *reportService) visibleEmployee(ctx context.Context, companyID, actorID, target string) (*employee.Employee, error) {
	if target == "" {
		target = actorID
	}
	if _, err := uuid.Parse(target); err != nil {
		return nil, employeeerrors.ErrInvalidEmployeeID
	}
	emp, err := s.loadEmployee(ctx, companyID, target)
	if err != nil {
		return nil, err
	}
	ok, err := s.canSeeEmployee(ctx, companyID, actorID, emp)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, leaveerrors.ErrForbidden
	}
	return emp, nil
}

func (s *reportService) figures(ctx context.Context, companyID string, emp *employee.Employee, year int) (balanceFigures, error) {
	from, to := yearBounds(year)
	requests, err := s.leaves.List(ctx, companyID, ListFilter{
		EmployeeID: emp.ID.String(),
		LeaveType:  TypeAnnual,
		From:       &from,
		To:         &to,
	})
	if err != nil {
		return balanceFigures{}, err
	}
	adj, err := s.leaves.FindAdjustment(ctx, companyID, emp.ID.String(), year)
	if err != nil {
		return balanceFigures{}, err
	}
	return computeFigures(emp, year, requests, adj), nil
}

func (s *reportService) Balance(ctx context.Context, companyID, actorID, employeeID string, year int) (BalanceResponse, error) {
	year, err := s.resolveYear(year)
	if err != nil {
		return BalanceResponse{}, err
	}
	emp, err := s.visibleEmployee(ctx, companyID, actorID, employeeID)
	if err != nil {
		return BalanceResponse{}, err
	}
	snap, err := s.policy.Current(ctx, companyID)
	if err != nil {
		return BalanceResponse{}, err
	}
	f, err := s.figures(ctx, companyID, emp, year)
	if err != nil {
		s.logger.Error("balance figures failed", zap.String("employee_id", emp.ID.String()), zap.Error(err))
		return BalanceResponse{}, err
	}
	return balanceResponse(emp, year, f, snap), nil
}

// scopeFilter narrows a company-wide query to what the actor may see.
func (s *reportService) scopeFilter(ctx context.Context, companyID, actorID string) (ListFilter, error) {
	vis, err := s.visibilityFor(ctx, companyID, actorID)
	if err != nil {
		return ListFilter{}, err
	}
	if vis == visibilityCompany {
		return ListFilter{}, nil
	}
	dept, err := s.actorDepartment(ctx, companyID, actorID)
	if err != nil {
		return ListFilter{}, err
	}
	if dept == "" {
		return ListFilter{EmployeeID: actorID}, nil
	}
	return ListFilter{DepartmentID: dept}, nil
}

func activeOnly(leaves []LeaveRequest) []LeaveRequest {
	out := leaves[:0:0]
	for _, l := range leaves {
		if l.IsActive() {
			out = append(out, l)
		}
	}
	return out
}

func (s *reportService) Calendar(ctx context.Context, companyID, actorID, month string) (CalendarResponse, error) {
	from, to, err := parseMonth(month)
	if err != nil {
		return CalendarResponse{}, err
	}
	filter, err := s.scopeFilter(ctx, companyID, actorID)
	if err != nil {
		return CalendarResponse{}, err
	}
	filter.From, filter.To = &from, &to

	leaves, err := s.leaves.List(ctx, companyID, filter)
	if err != nil {
		return CalendarResponse{}, err
	}
	leaves = activeOnly(leaves)

	exceptions, err := s.exceptions.ListBetween(ctx, companyID, from, to)
	if err != nil {
		return CalendarResponse{}, err
	}
	capacities := capacityByDate(exceptions)

	snap, err := s.policy.Current(ctx, companyID)
	if err != nil {
		return CalendarResponse{}, err
	}

	resp := CalendarResponse{Month: month}
	eachDate(from, to, func(d time.Time) {
		day := CalendarDay{
			Date:     dateKey(d),
			Weekday:  d.Weekday().String(),
			Capacity: defaultDateCapacity,
			OnLeave:  []CalendarEntry{},
		}
		if c, ok := capacities[day.Date]; ok {
			day.Capacity = c
		}
		if name, ok := snap.Calendar.HolidayName(d); ok {
			day.Holiday = name
		}
		for _, l := range leaves {
			if d.Before(truncateDate(l.StartDate)) || d.After(truncateDate(l.EndDate)) {
				continue
			}
			entry := CalendarEntry{
				LeaveID:      l.ID.String(),
				EmployeeID:   l.EmployeeID.String(),
				EmployeeName: l.EmployeeName(),
				LeaveType:    l.LeaveType,
				Status:       l.Status,
			}
			if l.Employee != nil {
				entry.DepartmentName = l.Employee.DepartmentName()
			}
			day.OnLeave = append(day.OnLeave, entry)
		}
		resp.Days = append(resp.Days, day)
	})
	return resp, nil
}

func (s *reportService) TeamStatus(ctx context.Context, companyID, actorID string) (TeamStatusResponse, error) {
	actor, err := s.loadEmployee(ctx, companyID, actorID)
	if err != nil {
		return TeamStatusResponse{}, err
	}
	if actor.DepartmentID == nil {
		return TeamStatusResponse{}, employeeerrors.ErrDepartmentNotAssigned
	}
	deptID := actor.DepartmentIDString()

	members, err := s.employees.FindByDepartment(ctx, companyID, deptID)
	if err != nil {
		return TeamStatusResponse{}, err
	}

	today := truncateDate(s.now())
	horizon := today.AddDate(0, 0, teamStatusHorizonDays)
	leaves, err := s.leaves.List(ctx, companyID, ListFilter{
		DepartmentID: deptID,
		From:         &today,
		To:           &horizon,
	})
	if err != nil {
		return TeamStatusResponse{}, err
	}
	leaves = activeOnly(leaves)

	current := make(map[uuid.UUID]LeaveRequest)
	resp := TeamStatusResponse{
		DepartmentID:   deptID,
		DepartmentName: actor.DepartmentName(),
		Date:           dateKey(today),
		Members:        make([]TeamMemberStatus, 0, len(members)),
		Upcoming:       []LeaveResponse{},
	}
	for _, l := range leaves {
		start := truncateDate(l.StartDate)
		if !start.After(today) && !truncateDate(l.EndDate).Before(today) {
			current[l.EmployeeID] = l
			continue
		}
		if start.After(today) {
			resp.Upcoming = append(resp.Upcoming, mapToResponse(l))
		}
	}
	sort.Slice(resp.Upcoming, func(i, j int) bool {
		return resp.Upcoming[i].StartDate < resp.Upcoming[j].StartDate
	})

	for _, m := range members {
		status := TeamMemberStatus{
			EmployeeID:   m.ID.String(),
			EmployeeName: m.FullName,
		}
		if l, ok := current[m.ID]; ok {
			r := mapToResponse(l)
			status.OnLeaveToday = true
			status.CurrentLeave = &r
			resp.OnLeaveCount++
		}
		resp.Members = append(resp.Members, status)
	}
	return resp, nil
}

func (s *reportService) DepartmentStats(ctx context.Context, companyID, actorID string, year int) (DepartmentStatsResponse, error) {
	year, err := s.resolveYear(year)
	if err != nil {
		return DepartmentStatsResponse{}, err
	}
	vis, err := s.visibilityFor(ctx, companyID, actorID)
	if err != nil {
		return DepartmentStatsResponse{}, err
	}
	if vis == visibilityOwn {
		return DepartmentStatsResponse{}, leaveerrors.ErrForbidden
	}
	onlyDept := ""
	if vis == visibilityDepartment {
		if onlyDept, err = s.actorDepartment(ctx, companyID, actorID); err != nil {
			return DepartmentStatsResponse{}, err
		}
		if onlyDept == "" {
			return DepartmentStatsResponse{}, employeeerrors.ErrDepartmentNotAssigned
		}
	}

	employees, err := s.employees.FindAllByCompany(ctx, companyID)
	if err != nil {
		return DepartmentStatsResponse{}, err
	}
	departments, err := s.employees.ListDepartments(ctx, companyID)
	if err != nil {
		return DepartmentStatsResponse{}, err
	}
	from, to := yearBounds(year)
	requests, err := s.leaves.List(ctx, companyID, ListFilter{
		DepartmentID: onlyDept,
		LeaveType:    TypeAnnual,
		From:         &from,
		To:           &to,
	})
	if err != nil {
		return DepartmentStatsResponse{}, err
	}
	adjustments, err := s.leaves.ListAdjustments(ctx, companyID, year)
	if err != nil {
		return DepartmentStatsResponse{}, err
	}
	adjByEmployee := make(map[uuid.UUID]*LeaveAdjustment, len(adjustments))
	for i := range adjustments {
		adjByEmployee[adjustments[i].EmployeeID] = &adjustments[i]
	}
	byEmployee := make(map[uuid.UUID][]LeaveRequest)
	for _, r := range requests {
		byEmployee[r.EmployeeID] = append(byEmployee[r.EmployeeID], r)
	}

	type acc struct {
		stats   DepartmentStats
		balance decimal.Decimal
	}
	groups := make(map[string]*acc)
	for _, d := range departments {
		if onlyDept != "" && d.ID.String() != onlyDept {
			continue
		}
		groups[d.ID.String()] = &acc{stats: DepartmentStats{DepartmentID: d.ID.String(), DepartmentName: d.Name}}
	}
	for i := range employees {
		emp := &employees[i]
		key := emp.DepartmentIDString()
		if onlyDept != "" && key != onlyDept {
			continue
		}
		g, ok := groups[key]
		if !ok {
			g = &acc{stats: DepartmentStats{DepartmentID: key, DepartmentName: emp.DepartmentName()}}
			if key == "" {
				g.stats.DepartmentName = "Unassigned"
			}
			groups[key] = g
		}
		f := computeFigures(emp, year, byEmployee[emp.ID], adjByEmployee[emp.ID])
		g.stats.Headcount++
		g.stats.UsedDays += days(f.Used)
		g.stats.PendingDays += days(f.Pending)
		g.stats.TotalEntitlement += days(f.Total)
		g.balance = g.balance.Add(emp.LeaveBalance)
	}

	resp := DepartmentStatsResponse{Year: year, Departments: make([]DepartmentStats, 0, len(groups))}
	for _, g := range groups {
		if g.stats.Headcount > 0 {
			g.stats.AverageBalance = days(g.balance.Div(decimal.NewFromInt(int64(g.stats.Headcount))).Round(1))
		}
		resp.Departments = append(resp.Departments, g.stats)
	}
	sort.Slice(resp.Departments, func(i, j int) bool {
		return resp.Departments[i].DepartmentName < resp.Departments[j].DepartmentName
	})
	return resp, nil
}

func (s *reportService) EmployeeLog(ctx context.Context, companyID, actorID, employeeID string, year int) (EmployeeLogResponse, error) {
	year, err := s.resolveYear(year)
	if err != nil {
		return EmployeeLogResponse{}, err
	}
	emp, err := s.visibleEmployee(ctx, companyID, actorID, employeeID)
	if err != nil {
		return EmployeeLogResponse{}, err
	}
	snap, err := s.policy.Current(ctx, companyID)
	if err != nil {
		return EmployeeLogResponse{}, err
	}

	from, to := yearBounds(year)
	requests, err := s.leaves.List(ctx, companyID, ListFilter{
		EmployeeID: emp.ID.String(),
		From:       &from,
		To:         &to,
	})
	if err != nil {
		return EmployeeLogResponse{}, err
	}
	entries, err := s.leaves.ListLedger(ctx, companyID, emp.ID.String(), from, to.AddDate(0, 0, 1))
	if err != nil {
		return EmployeeLogResponse{}, err
	}
	adj, err := s.leaves.FindAdjustment(ctx, companyID, emp.ID.String(), year)
	if err != nil {
		return EmployeeLogResponse{}, err
	}

	resp := EmployeeLogResponse{
		EmployeeID:     emp.ID.String(),
		EmployeeName:   emp.FullName,
		DepartmentName: emp.DepartmentName(),
		HireDate:       dateKey(emp.HireDate),
		Year:           year,
		Balance:        balanceResponse(emp, year, computeFigures(emp, year, requests, adj), snap),
		Requests:       mapToListResponse(requests),
		Ledger:         make([]LedgerEntryResponse, len(entries)),
	}
	for i, e := range entries {
		resp.Ledger[i] = mapLedgerEntry(e)
	}
	return resp, nil
}

// ParseYear accepts an empty string as "current year".
func ParseYear(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	y, err := strconv.Atoi(v)
	if err != nil {
		return 0, leaveerrors.ErrInvalidYear
	}
	return y, nil
}

