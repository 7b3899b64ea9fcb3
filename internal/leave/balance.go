package leave

import (
	"hr-leave/internal/employee"
	"hr-leave/internal/policy"

	"github.com/shopspring/decimal"
)

// balanceFigures is the annual-leave breakdown of one employee for one year. Requests are
// attributed to the year their start date falls in.
type balanceFigures struct {
	Base    decimal.Decimal
	Carry   decimal.Decimal
	Total   decimal.Decimal
	Used    decimal.Decimal
	Pending decimal.Decimal
}

func computeFigures(emp *employee.Employee, year int, requests []LeaveRequest, adj *LeaveAdjustment) balanceFigures {
	f := balanceFigures{
		Base:    decimal.NewFromInt(int64(Entitlement(emp.HireDate, year))),
		Carry:   decimal.Zero,
		Used:    decimal.Zero,
		Pending: decimal.Zero,
	}
	if adj != nil {
		f.Carry = adj.Days
	}
	f.Total = f.Base.Add(f.Carry)

	for _, r := range requests {
		if r.EmployeeID != emp.ID || r.LeaveType != TypeAnnual || r.StartDate.Year() != year {
			continue
		}
		switch r.Status {
		case StatusApproved:
			f.Used = f.Used.Add(r.DeductedDays)
		case StatusPending:
			f.Pending = f.Pending.Add(r.DeductedDays)
		}
	}
	return f
}

// balanceResponse reports pending days for information only; they are already part of
// the ledger balance.
func balanceResponse(emp *employee.Employee, year int, f balanceFigures, snap *policy.Snapshot) BalanceResponse {
	limit := decimal.NewFromInt(int64(snap.AdvanceUsageLimit))
	return BalanceResponse{
		EmployeeID:         emp.ID.String(),
		EmployeeName:       emp.FullName,
		Year:               year,
		BaseEntitlement:    days(f.Base),
		CarryOver:          days(f.Carry),
		TotalEntitlement:   days(f.Total),
		UsedDays:           days(f.Used),
		PendingDays:        days(f.Pending),
		CurrentBalance:     days(emp.LeaveBalance),
		AdvanceLimit:       days(limit),
		AvailableToRequest: days(emp.LeaveBalance.Add(limit)),
	}
}
