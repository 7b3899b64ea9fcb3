package events

import "time"

const LeaveLifecycleTopic = "hr.leave.lifecycle.v1"

const (
	LeaveRequested             = "leave_requested"
	LeaveUpdated               = "leave_updated"
	LeaveDeleted               = "leave_deleted"
	LeaveApproved              = "leave_approved"
	LeaveRejected              = "leave_rejected"
	LeaveCancellationRequested = "leave_cancellation_requested"
	LeaveCancelled             = "leave_cancelled"
	LeaveCancellationRejected  = "leave_cancellation_rejected"
)

type LeaveLifecycleEvent struct {
	EventType     string    `json:"event_type"`
	LeaveID       string    `json:"leave_id"`
	RequestNumber string    `json:"request_number"`
	CompanyID     string    `json:"company_id"`
	EmployeeID    string    `json:"employee_id"`
	LeaveType     string    `json:"leave_type"`
	StartDate     string    `json:"start_date"`
	EndDate       string    `json:"end_date"`
	DaysCount     float64   `json:"days_count"`
	Status        string    `json:"status"`
	ActorID       string    `json:"actor_id"`
	Comment       string    `json:"comment,omitempty"`
	OccurredAt    time.Time `json:"occurred_at"`
}
