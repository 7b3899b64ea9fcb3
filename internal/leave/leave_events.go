package leave

import (
	"context"
	"time"

	"hr-leave/internal/events"
	"hr-leave/internal/messaging/kafka"
	"hr-leave/internal/shared/contextutil"
)

const aggregateLeaveRequest = "leave_request"

// enqueueLifecycleEvent writes the event to the outbox inside the caller's transaction.
func enqueueLifecycleEvent(ctx context.Context, st txStores, l *LeaveRequest, eventType, actorID, comment string, at time.Time) error {
	if st.outbox == nil {
		return nil
	}
	payload := events.LeaveLifecycleEvent{
		EventType:     eventType,
		LeaveID:       l.ID.String(),
		RequestNumber: l.RequestNumber,
		CompanyID:     l.CompanyID.String(),
		EmployeeID:    l.EmployeeID.String(),
		LeaveType:     l.LeaveType,
		StartDate:     dateKey(l.StartDate),
		EndDate:       dateKey(l.EndDate),
		DaysCount:     days(l.DaysCount),
		Status:        l.Status,
		ActorID:       actorID,
		Comment:       comment,
		OccurredAt:    at,
	}
	event, err := kafka.NewEvent(
		contextutil.GetRequestID(ctx),
		aggregateLeaveRequest,
		l.ID.String(),
		eventType,
		events.LeaveLifecycleTopic,
		payload,
	)
	if err != nil {
		return err
	}
	return st.outbox.Create(ctx, event)
}
