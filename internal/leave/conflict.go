package leave

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// defaultDateCapacity is how many employees a date without an exception holds.
const defaultDateCapacity = 1

type ConflictingLeave struct {
	LeaveID      string `json:"leave_id"`
	EmployeeID   string `json:"employee_id"`
	EmployeeName string `json:"employee_name"`
	StartDate    string `json:"start_date"`
	EndDate      string `json:"end_date"`
	Status       string `json:"status"`
}

type BlockedDate struct {
	Date     string `json:"date"`
	OnLeave  int    `json:"on_leave"`
	Capacity int    `json:"capacity"`
}

// ConflictReport is attached as details to ErrLeaveConflict.
type ConflictReport struct {
	Conflicts    []ConflictingLeave `json:"conflicts"`
	BlockedDates []BlockedDate      `json:"blocked_dates"`
}

func (r ConflictReport) Blocked() bool {
	return len(r.BlockedDates) > 0
}

// EvaluateConflicts checks [start, end] against other employees' active leave. Without an overlap
// the request passes. Once anyone else overlaps, every date in the range needs an exception and
// passes only when its capacity is greater than the distinct employees already on leave that date.
// capacities maps YYYY-MM-DD to an exception's max_concurrent_leaves.
func EvaluateConflicts(start, end time.Time, others []LeaveRequest, capacities map[string]int) ConflictReport {
	start, end = truncateDate(start), truncateDate(end)
	report := ConflictReport{}

	for _, o := range others {
		if !overlaps(o.StartDate, o.EndDate, start, end) {
			continue
		}
		report.Conflicts = append(report.Conflicts, ConflictingLeave{
			LeaveID:      o.ID.String(),
			EmployeeID:   o.EmployeeID.String(),
			EmployeeName: o.EmployeeName(),
			StartDate:    dateKey(o.StartDate),
			EndDate:      dateKey(o.EndDate),
			Status:       o.Status,
		})
	}
	if len(report.Conflicts) == 0 {
		return report
	}

	eachDate(start, end, func(d time.Time) {
		onLeave := employeesOnDate(d, others)
		// no exception, no overbooking
		capacity, ok := capacities[dateKey(d)]
		if !ok || capacity <= onLeave {
			report.BlockedDates = append(report.BlockedDates, BlockedDate{
				Date:     dateKey(d),
				OnLeave:  onLeave,
				Capacity: capacity,
			})
		}
	})

	sort.Slice(report.Conflicts, func(i, j int) bool {
		if report.Conflicts[i].StartDate == report.Conflicts[j].StartDate {
			return report.Conflicts[i].EmployeeName < report.Conflicts[j].EmployeeName
		}
		return report.Conflicts[i].StartDate < report.Conflicts[j].StartDate
	})
	return report
}

func employeesOnDate(d time.Time, requests []LeaveRequest) int {
	seen := make(map[uuid.UUID]struct{})
	for _, r := range requests {
		if !d.Before(truncateDate(r.StartDate)) && !d.After(truncateDate(r.EndDate)) {
			seen[r.EmployeeID] = struct{}{}
		}
	}
	return len(seen)
}
