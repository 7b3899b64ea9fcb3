package leave

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

func days(d decimal.Decimal) float64 {
	return d.InexactFloat64()
}

func uuidString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	v := id.String()
	return &v
}

func timeString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	v := t.Format(time.RFC3339)
	return &v
}

func mapToResponse(l LeaveRequest) LeaveResponse {
	resp := LeaveResponse{
		ID:                    l.ID.String(),
		RequestNumber:         l.RequestNumber,
		CompanyID:             l.CompanyID.String(),
		EmployeeID:            l.EmployeeID.String(),
		EmployeeName:          l.EmployeeName(),
		LeaveType:             l.LeaveType,
		StartDate:             dateKey(l.StartDate),
		EndDate:               dateKey(l.EndDate),
		DaysCount:             days(l.DaysCount),
		DeductedDays:          days(l.DeductedDays),
		Reason:                l.Reason,
		SubstituteEmployeeID:  uuidString(l.SubstituteEmployeeID),
		Status:                l.Status,
		DecidedBy:             uuidString(l.DecidedBy),
		DecidedAt:             timeString(l.DecidedAt),
		DecisionComment:       l.DecisionComment,
		CancellationRequested: l.CancellationRequested,
		CancellationStatus:    l.CancellationStatus,
		CancellationReason:    l.CancellationReason,
		CancellationDecidedBy: uuidString(l.CancellationDecidedBy),
		CancellationComment:   l.CancellationComment,
		PolicyVersion:         l.PolicyVersion,
		CreatedAt:             l.CreatedAt.Format(time.RFC3339),
	}
	if l.Employee != nil {
		resp.DepartmentName = l.Employee.DepartmentName()
	}
	return resp
}

func mapToListResponse(leaves []LeaveRequest) []LeaveResponse {
	resp := make([]LeaveResponse, len(leaves))
	for i, l := range leaves {
		resp[i] = mapToResponse(l)
	}
	return resp
}

func withBalance(resp LeaveResponse, balance decimal.Decimal) LeaveResponse {
	v := days(balance)
	resp.BalanceAfter = &v
	return resp
}

func mapLedgerEntry(e LedgerEntry) LedgerEntryResponse {
	return LedgerEntryResponse{
		ID:             e.ID.String(),
		LeaveRequestID: uuidString(e.LeaveRequestID),
		Kind:           e.Kind,
		Delta:          days(e.Delta),
		BalanceAfter:   days(e.BalanceAfter),
		CreatedAt:      e.CreatedAt.Format(time.RFC3339),
	}
}

func mapException(e LeaveException) ExceptionResponse {
	return ExceptionResponse{
		ID:                  e.ID.String(),
		Date:                dateKey(e.Date),
		MaxConcurrentLeaves: e.MaxConcurrentLeaves,
		Reason:              e.Reason,
		CreatedBy:           e.CreatedBy.String(),
	}
}
